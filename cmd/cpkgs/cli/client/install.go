package client

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/client"
)

func NewInstallCommand() *cobra.Command {
	var version string
	var yes bool

	cmd := &cobra.Command{
		Use:   "install <package>",
		Short: "Download a package into the install directory",
		Long:  `Resolve a package in the registry and download its archive into the configured install directory`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			if err := session.RequireToken(); err != nil {
				return err
			}

			c := client.New(session)

			var pkg api.PackageResponse
			if version != "" {
				pkg, err = c.GetPackageVersion(cmd.Context(), args[0], version)
			} else {
				pkg, err = c.GetPackage(cmd.Context(), args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to resolve package '%s': %w", args[0], err)
			}

			fmt.Printf("Installing %s (%s) for %s, %s\n", pkg.Name, pkg.Version,
				pkg.Architecture, humanize.Bytes(uint64(pkg.Size)))

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

			dest := filepath.Join(session.InstallDir, archiveName(pkg.Name, pkg.Version))
			downloader := client.NewDownloader(c)
			written, err := downloader.Download(cmd.Context(), pkg.ID, dest)
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}

			fmt.Printf("Installed %s to %s (%s)\n", pkg.Name, dest,
				humanize.Bytes(uint64(written)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&version, "version", "v", "", "Install a specific version instead of the latest")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func archiveName(name, version string) string {
	return fmt.Sprintf("%s-%s.deb", name, version)
}
