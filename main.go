package main

import (
	"fmt"
	"os"

	"github.com/hashicorp/cli"

	"github.com/tfve/tfve/internal/command"
	"github.com/tfve/tfve/internal/logging"
	"github.com/tfve/tfve/version"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	log := logging.NewLogger()

	ui := &cli.BasicUi{
		Reader:      os.Stdin,
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}
	meta := command.Meta{Ui: ui, Log: log}

	c := cli.NewCLI("tfve", version.String())
	c.Args = os.Args[1:]
	c.Commands = map[string]cli.CommandFactory{
		"sync": func() (cli.Command, error) {
			return &command.SyncCommand{Meta: meta}, nil
		},
		"workspaces": func() (cli.Command, error) {
			return &command.WorkspacesCommand{Meta: meta}, nil
		},
		"outputs": func() (cli.Command, error) {
			return &command.OutputsCommand{Meta: meta}, nil
		},
		"version": func() (cli.Command, error) {
			return &command.VersionCommand{Meta: meta}, nil
		},
	}
	c.HelpFunc = cli.BasicHelpFunc("tfve")

	exitStatus, err := c.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error executing CLI: %s\n", err)
		return 1
	}
	return exitStatus
}
