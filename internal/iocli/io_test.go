package iocli

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_ReadInput(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("  alice \nsecond\n"), &out)

	first, err := term.ReadInput("Username: ")
	require.NoError(t, err)
	assert.Equal(t, "alice", first)

	second, err := term.ReadInput("Again: ")
	require.NoError(t, err)
	assert.Equal(t, "second", second)

	assert.Equal(t, "Username: Again: ", out.String())
}

func TestTerminal_ReadPassword_NotTTY(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(" pass word \r\n"), &out)

	pw, err := term.ReadPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " pass word ", pw, "passwords keep inner and leading spaces")
	assert.Equal(t, "Password: ", out.String())
}

func TestTerminal_LastLineWithoutNewline(t *testing.T) {
	term := New(strings.NewReader("last"), io.Discard)

	got, err := term.ReadInput("")
	require.NoError(t, err)
	assert.Equal(t, "last", got)

	_, err = term.ReadInput("")
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminal_Print(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader(""), &out)

	term.Println("hello", "world")
	term.Printf("%d-%s", 1, "abc")

	assert.Equal(t, "hello world\n1-abc", out.String())
}

func TestNewStdio(t *testing.T) {
	assert.NotNil(t, NewStdio())
}
