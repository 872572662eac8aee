package main

import (
	"fmt"
	"os"

	"github.com/iudanet/vidtube/internal/iocli"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	cmd := newRootCmd(iocli.NewStdio(), os.LookupEnv)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
