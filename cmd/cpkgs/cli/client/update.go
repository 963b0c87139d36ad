package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/client"
)

func NewUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Refresh the local package index",
		Long:  `Fetch the registry's package list and cache it for offline inspection`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			c := client.New(session)
			packages, err := c.ListPackages(cmd.Context(), client.ListOptions{Limit: -1})
			if err != nil {
				return fmt.Errorf("failed to fetch package index: %w", err)
			}

			if err := os.MkdirAll(session.CacheDir, 0755); err != nil {
				return fmt.Errorf("failed to create cache directory: %w", err)
			}

			data, err := json.MarshalIndent(packages, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode package index: %w", err)
			}

			path := filepath.Join(session.CacheDir, "packages.json")
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write package index: %w", err)
			}

			fmt.Printf("Updated package index: %d packages cached in %s\n", len(packages), path)
			return nil
		},
	}

	return cmd
}
