package main

import (
	"encoding/json"
	"errors"
	"flag"
	"os"

	condoor "github.com/decolnz/condoor"
)

// DiscoverCommand connects with discovery forced, prints the resulting
// device description as JSON, and disconnects. Mirrors the deprecated
// Connection.discovery entry point condoor's Python CLI exposed.
type DiscoverCommand struct{}

func NewDiscoverCommand() *DiscoverCommand { return &DiscoverCommand{} }

func (cmd *DiscoverCommand) Run(args []string) error {
	fs := flag.NewFlagSet("condoor-discover", flag.ContinueOnError)
	var (
		urls    urlList
		name    = fs.String("name", "condoor", "Connection name, used in log correlation")
		verbose = fs.Bool("v", false, "Debug logging enabled")
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

	conn, err := condoor.New(*name, parseChains(urls))
	if err != nil {
		return err
	}

	if err := conn.Discovery(); err != nil {
		return err
	}

	out := map[string]interface{}{
		"hostname":   conn.Hostname(),
		"os_type":    conn.OSType(),
		"os_version": conn.OSVersion(),
		"family":     conn.Family(),
		"platform":   conn.Platform(),
		"udi":        conn.UDI(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
