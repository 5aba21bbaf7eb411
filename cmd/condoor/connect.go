package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	condoor "github.com/decolnz/condoor"
)

// ConnectCommand opens an interactive session over one or more hop
// chains, then reads commands from stdin until EOF, printing each
// command's output. Mirrors cmd/marionette/main.go's ClientCommand
// shape (flag parsing, verbose logger swap, run loop, clean shutdown).
type ConnectCommand struct{}

func NewConnectCommand() *ConnectCommand { return &ConnectCommand{} }

func (cmd *ConnectCommand) Run(args []string) error {
	fs := flag.NewFlagSet("condoor-connect", flag.ContinueOnError)
	var (
		urls           urlList
		name           = fs.String("name", "condoor", "Connection name, used in log correlation")
		cacheDir       = fs.String("cache-dir", "", "Discovery cache directory (defaults to the OS temp dir)")
		forceDiscovery = fs.Bool("force-discovery", false, "Ignore any cached discovery state")
		interactive    = fs.Bool("interactive", false, "Keep reading commands from stdin until EOF")
		timeout        = fs.Duration("timeout", 60*time.Second, "Per-command timeout")
		verbose        = fs.Bool("v", false, "Debug logging enabled")
	)
	fs.Var(&urls, "url", "Hop chain, comma-separated jumphost..target URLs; repeat for alternative chains")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if len(urls) == 0 {
		return errors.New("at least one -url is required")
	}

	if err := setLogger(*verbose); err != nil {
		return err
	}

	var opts []condoor.Option
	if *cacheDir != "" {
		cfg := condoorConfig(*cacheDir)
		opts = append(opts, condoor.WithConfig(cfg))
	}

	conn, err := condoor.New(*name, parseChains(urls), opts...)
	if err != nil {
		return err
	}

	if err := conn.Connect(*forceDiscovery); err != nil {
		return err
	}
	defer conn.Disconnect()

	fmt.Printf("connected to %s (%s %s, %s)\n", conn.Hostname(), conn.OSType(), conn.OSVersion(), conn.Family())

	if !*interactive {
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		out, err := conn.Send(line, *timeout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		fmt.Print(out)
	}
	return scanner.Err()
}

func setLogger(verbose bool) error {
	var logger *zap.Logger
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	condoor.Logger = logger
	return nil
}
