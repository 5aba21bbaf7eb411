package main

import (
	"flag"
	"fmt"

	"github.com/decolnz/condoor/pattern"
)

// PatternsCommand lists the built-in pattern database, either every
// platform's name or one platform's compiled pattern text.
type PatternsCommand struct{}

func NewPatternsCommand() *PatternsCommand { return &PatternsCommand{} }

func (cmd *PatternsCommand) Run(args []string) error {
	fs := flag.NewFlagSet("condoor-patterns", flag.ContinueOnError)
	platform := fs.String("platform", "", "Show pattern text for just this platform")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := pattern.NewRegistry(nil)
	if err != nil {
		return err
	}

	if *platform == "" {
		for _, p := range reg.Platforms() {
			fmt.Println(p)
		}
		return nil
	}

	for _, name := range reg.Names(*platform) {
		text, err := reg.Text(*platform, name)
		if err != nil {
			continue
		}
		fmt.Printf("%s.%s = %s\n", *platform, name, text)
	}
	return nil
}
