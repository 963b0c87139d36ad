package client

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/client"
)

func NewInfoCommand() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "info <package>",
		Short: "Show detailed package information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
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

			printPackage(pkg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&version, "version", "v", "", "Show a specific version instead of the latest")

	return cmd
}

func printPackage(pkg api.PackageResponse) {
	fmt.Printf("Name:         %s\n", pkg.Name)
	fmt.Printf("Version:      %s\n", pkg.Version)
	if pkg.Description != "" {
		fmt.Printf("Description:  %s\n", pkg.Description)
	}
	fmt.Printf("Maintainer:   %s\n", pkg.Maintainer)
	fmt.Printf("Architecture: %s\n", pkg.Architecture)
	fmt.Printf("Size:         %s\n", humanize.Bytes(uint64(pkg.Size)))
	fmt.Printf("Checksum:     %s\n", pkg.Checksum)
	fmt.Printf("Author:       %s\n", pkg.Author.Username)
	fmt.Printf("Published:    %s\n", humanize.Time(pkg.CreatedAt))

	if len(pkg.Dependencies) > 0 {
		fmt.Println("Dependencies:")
		for _, dep := range pkg.Dependencies {
			fmt.Printf("  %s (%s, %s)\n", dep.Name, dep.Version, dep.DependencyType)
		}
	}
	if len(pkg.Tags) > 0 {
		names := make([]string, 0, len(pkg.Tags))
		for _, tag := range pkg.Tags {
			names = append(names, tag.Name)
		}
		fmt.Printf("Tags:         %s\n", strings.Join(names, ", "))
	}
}
