package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Run       RunCommand       `command:"run" description:"Drive the sequencer against a simulated cell"`
	Reference ReferenceCommand `command:"reference" description:"Print the reference scenario as YAML"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "pickplace-sim - run the pick-and-place sequencer without hardware"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
