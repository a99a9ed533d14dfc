package main

import (
	"flag"
	"io"
)

// Options holds CLI options for the client.
type Options struct {
	ConfigPath string
	ChatID     int64
	Text       string
	Verbose    bool
}

// ParseFlags parses CLI flags from args and returns Options.
func ParseFlags(args []string, output io.Writer) (Options, error) {
	fs := flag.NewFlagSet("maxchat", flag.ContinueOnError)
	fs.SetOutput(output)

	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.Int64Var(&opts.ChatID, "chat", 0, "Chat to send -text to after connecting")
	fs.StringVar(&opts.Text, "text", "", "Message to send to -chat")
	fs.BoolVar(&opts.Verbose, "v", false, "Log at debug level")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	return opts, nil
}
