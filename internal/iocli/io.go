// Package iocli is the terminal I/O used by the command line tools.
package iocli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// IO is what commands need from the terminal.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// Terminal reads from in and writes to out. Passwords are read without echo
// when in is a terminal and as a plain line otherwise (pipes, tests).
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	fd    int
	isTTY bool
}

// NewStdio returns a Terminal on the process stdin and stdout.
func NewStdio() *Terminal {
	fd := int(os.Stdin.Fd())
	return &Terminal{
		in:    bufio.NewReader(os.Stdin),
		out:   os.Stdout,
		fd:    fd,
		isTTY: term.IsTerminal(fd),
	}
}

// New returns a Terminal on arbitrary streams; it never treats in as a TTY.
func New(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		in:  bufio.NewReader(in),
		out: out,
		fd:  -1,
	}
}

var _ IO = (*Terminal)(nil)

func (t *Terminal) Println(a ...any) {
	_, _ = fmt.Fprintln(t.out, a...)
}

func (t *Terminal) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(t.out, format, a...)
}

// ReadInput prints prompt and returns the next line without surrounding spaces.
func (t *Terminal) ReadInput(prompt string) (string, error) {
	t.Printf("%s", prompt)
	line, err := t.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadPassword prints prompt and reads a line without echoing it.
func (t *Terminal) ReadPassword(prompt string) (string, error) {
	t.Printf("%s", prompt)

	if !t.isTTY {
		line, err := t.readLine()
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	pw, err := term.ReadPassword(t.fd)
	t.Println("")
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return line, nil
}
