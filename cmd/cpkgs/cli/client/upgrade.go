package client

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/client"
)

func NewUpgradeCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "upgrade [package]",
		Short: "Upgrade installed packages",
		Long:  `Compare installed archives against the registry and download newer versions`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			if err := session.RequireToken(); err != nil {
				return err
			}

			archives, err := installedArchives(session.InstallDir)
			if err != nil {
				return err
			}
			if len(archives) == 0 {
				fmt.Println("No packages installed")
				return nil
			}

			c := client.New(session)

			type upgrade struct {
				name      string
				installed string
				latest    string
				id        string
			}
			var upgrades []upgrade

			for _, archive := range archives {
				name, version := splitArchiveName(archive)
				if len(args) == 1 && name != args[0] {
					continue
				}

				latest, err := c.GetPackage(cmd.Context(), name)
				if err != nil {
					fmt.Printf("Warning: '%s' not found in registry, skipping\n", name)
					continue
				}

				current, err := semver.NewVersion(version)
				if err != nil {
					fmt.Printf("Warning: installed version '%s' of '%s' is not valid, skipping\n", version, name)
					continue
				}
				candidate, err := semver.NewVersion(latest.Version)
				if err != nil {
					continue
				}

				if candidate.GreaterThan(current) {
					upgrades = append(upgrades, upgrade{
						name:      name,
						installed: version,
						latest:    latest.Version,
						id:        latest.ID,
					})
				}
			}

			if len(upgrades) == 0 {
				fmt.Println("All packages are up to date")
				return nil
			}

			fmt.Printf("%d package(s) can be upgraded:\n", len(upgrades))
			for _, u := range upgrades {
				fmt.Printf("  %s: %s -> %s\n", u.name, u.installed, u.latest)
			}

			if !yes {
				confirmed, err := promptConfirm("Continue", true)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted")
					return nil
				}
			}

			downloader := client.NewDownloader(c)
			for _, u := range upgrades {
				dest := filepath.Join(session.InstallDir, archiveName(u.name, u.latest))
				written, err := downloader.Download(cmd.Context(), u.id, dest)
				if err != nil {
					return fmt.Errorf("failed to upgrade '%s': %w", u.name, err)
				}

				old := filepath.Join(session.InstallDir, archiveName(u.name, u.installed))
				if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
					fmt.Printf("Warning: failed to remove old archive %s: %v\n", old, err)
				}

				fmt.Printf("Upgraded %s to %s (%s)\n", u.name, u.latest,
					humanize.Bytes(uint64(written)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}
