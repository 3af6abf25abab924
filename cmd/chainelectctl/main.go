// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command chainelectctl administers and votes in ChainElect elections.
package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/urfave/cli"
)

var Version = "dev"

var (
	serverFlag = cli.StringFlag{
		Name:   "server, s",
		Usage:  "API base `<url>`",
		Value:  "http://localhost:8080",
		EnvVar: "CHAINELECT_SERVER",
	}
	electionFlag = cli.StringFlag{
		Name:   "election, e",
		Usage:  "election `<id>`",
		EnvVar: "CHAINELECT_ELECTION",
	}
	addressFlag = cli.StringFlag{
		Name:   "address, a",
		Usage:  "caller `<address>`",
		EnvVar: "CHAINELECT_ADDRESS",
	}
	keyFlag = cli.StringFlag{
		Name:   "key, k",
		Usage:  "caller `<key>` issued by login or the key command",
		EnvVar: "CHAINELECT_KEY",
	}
)

func newApp(out io.Writer) *cli.App {
	app := cli.NewApp()
	app.Name = "chainelectctl"
	app.Version = Version
	app.HelpName = "chainelectctl"
	app.Usage = "command line tool for ChainElect elections"
	app.UsageText = "chainelectctl [global options] command [command options] [args]"
	app.Writer = out
	app.ErrWriter = out
	app.Flags = []cli.Flag{serverFlag, electionFlag, addressFlag, keyFlag}
	app.Commands = []cli.Command{
		keyCommand(),
		createCommand(),
		statusCommand(),
		candidatesCommand(),
		addAdminCommand(),
		addCandidateCommand(),
		startCommand(),
		resetCommand(),
		voteCommand(),
		registerCommand(),
		loginCommand(),
		eventsCommand(),
		watchCommand(),
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	sort.Sort(cli.FlagsByName(app.Flags))
	return app
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
