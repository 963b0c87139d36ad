package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/client"
)

func NewRemoveCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <package>",
		Short: "Remove an installed package",
		Long:  `Remove a downloaded package archive from the install directory`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			archives, err := installedArchives(session.InstallDir)
			if err != nil {
				return err
			}

			var matches []string
			for _, archive := range archives {
				name, _ := splitArchiveName(archive)
				if name == args[0] || strings.TrimSuffix(archive, ".deb") == args[0] {
					matches = append(matches, archive)
				}
			}
			if len(matches) == 0 {
				return fmt.Errorf("package '%s' is not installed", args[0])
			}

			if !yes {
				confirmed, err := promptConfirm(
					fmt.Sprintf("Remove %d archive(s) for '%s'", len(matches), args[0]), false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted")
					return nil
				}
			}

			for _, archive := range matches {
				path := filepath.Join(session.InstallDir, archive)
				if err := os.Remove(path); err != nil {
					return fmt.Errorf("failed to remove %s: %w", path, err)
				}
				fmt.Printf("Removed %s\n", archive)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
