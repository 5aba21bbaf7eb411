// Command condoor is a CLI front-end over the condoor package: connect
// to a chain of devices, run discovery, or inspect the pattern
// database. Dispatch mirrors cmd/marionette/main.go's subcommand style.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

// ErrUsage signals run should print Usage and exit nonzero.
var ErrUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:]); err == ErrUsage {
		fmt.Fprintln(os.Stderr, Usage())
		os.Exit(1)
	} else if err == flag.ErrHelp {
		os.Exit(1)
	} else if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}

	switch args[0] {
	case "connect":
		return NewConnectCommand().Run(args[1:])
	case "discover":
		return NewDiscoverCommand().Run(args[1:])
	case "patterns":
		return NewPatternsCommand().Run(args[1:])
	default:
		return ErrUsage
	}
}

func Usage() string {
	return `
condoor drives chained telnet/SSH sessions to network devices, identifies
the platform on the other end, and automates the command dialog needed to
talk to it.

Usage:

	condoor command [arguments]

The commands are:

	connect   open an interactive session over one or more hop chains
	discover  connect, run discovery, print the device description, disconnect
	patterns  list the built-in pattern database
`[1:]
}
