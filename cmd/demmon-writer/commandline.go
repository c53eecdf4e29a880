package main

import (
	"github.com/jessevdk/go-flags"
)

type CommandLineOptions struct {
	ConfigPath string `short:"c" long:"config" description:"configuration file"`
	Query      string `short:"q" long:"query" description:"run a query and print the returned points instead of writing stdin"`
	Stats      bool   `short:"s" long:"stats" description:"write the writer's own statistics before exiting"`
	Verbose    bool   `short:"v" long:"verbose" description:"log every batch"`
}

func readCommandLineOptions(args []string) (CommandLineOptions, error) {
	opts := CommandLineOptions{}
	_, err := flags.ParseArgs(&opts, args)

	return opts, err
}

func isHelp(err error) bool {
	flagsErr, ok := err.(*flags.Error)
	return ok && flagsErr.Type == flags.ErrHelp
}
