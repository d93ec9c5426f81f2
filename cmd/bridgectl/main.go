package main

import (
	"fmt"
	"os"

	"github.com/vitwit/walletbridge"
	"gopkg.in/urfave/cli.v1"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "bridgectl"
	app.Usage = "inspect and serve the wallet bridge"
	app.Version = walletbridge.Version

	app.Commands = []cli.Command{
		{
			Name:      "parse",
			Usage:     "parse an inbound panel message and print it as JSON",
			ArgsUsage: "<raw>",
			Action:    parseCommand,
		},
		{
			Name:      "build",
			Usage:     "print the outbound request for an operation",
			ArgsUsage: "<action> [args...]",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "chain", Value: string(defaultChain), Usage: "chain for getBalance and transaction"},
				cli.StringFlag{Name: "network", Value: defaultNetwork, Usage: "network for getBalance and transaction"},
			},
			Action: buildCommand,
		},
		{
			Name:      "validate",
			Usage:     "validate an address, amount, message or chain",
			ArgsUsage: "address|amount|message|chain <value>",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "chain", Value: string(defaultChain), Usage: "chain whose address format applies"},
				cli.StringFlag{Name: "max-amount", Value: "100000", Usage: "upper bound for amounts, 0 disables"},
			},
			Action: validateCommand,
		},
		{
			Name:  "serve",
			Usage: "run the bridge behind a websocket panel endpoint and log its events",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "config", Usage: "JSON config file; environment variables are used when empty"},
				cli.StringFlag{Name: "metrics-addr", Usage: "serve Prometheus metrics on this address"},
			},
			Action: serveCommand,
		},
	}
	return app
}
