package main

import (
	"fmt"
	"os"

	"github.com/mwantia/cpkgs/cmd/cpkgs/cli"
	"github.com/mwantia/cpkgs/cmd/cpkgs/cli/client"
	"github.com/mwantia/cpkgs/cmd/cpkgs/cli/server"
)

var (
	version = "0.0.1-dev"
	commit  = "main"
)

func main() {
	root := cli.NewRootCommand(cli.VersionInfo{
		Version: version,
		Commit:  commit,
	})

	root.AddCommand(cli.NewVersionCommand())

	root.AddCommand(server.NewServeCommand())
	root.AddCommand(server.NewConfigCommand())

	root.AddCommand(client.NewSearchCommand())
	root.AddCommand(client.NewInstallCommand())
	root.AddCommand(client.NewRemoveCommand())
	root.AddCommand(client.NewListCommand())
	root.AddCommand(client.NewInfoCommand())
	root.AddCommand(client.NewUpdateCommand())
	root.AddCommand(client.NewUpgradeCommand())
	root.AddCommand(client.NewAuthCommand())
	root.AddCommand(client.NewAdminCommand())

	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
