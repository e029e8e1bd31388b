package main

import "github.com/reperto/reperto-cli/cmd/reperto/tui"

// runInteractive launches the full-screen interface. It is the default
// behavior when reperto runs without a subcommand.
func runInteractive(a *app) error {
	return tui.Run(tui.Deps{
		Client: a.client,
		Store:  a.store,
		Gate:   a.gate,
	})
}
