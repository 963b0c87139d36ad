// Package client implements the end-user commands that talk to a
// remote registry through the persisted session.
package client

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/client"
)

func NewSearchCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the registry for packages",
		Long:  `Search package names and descriptions for a case-sensitive substring`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			c := client.New(session)
			packages, err := c.SearchPackages(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if len(packages) == 0 {
				fmt.Printf("No packages found for '%s'\n", args[0])
				return nil
			}

			if limit > 0 && len(packages) > limit {
				packages = packages[:limit]
			}

			for _, pkg := range packages {
				fmt.Printf("%s (%s) - %s [%s]\n", pkg.Name, pkg.Version,
					pkg.Description, humanize.Bytes(uint64(pkg.Size)))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum number of results to display")

	return cmd
}
