package client

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/client"
)

func NewListCommand() *cobra.Command {
	var installed bool
	var showTags bool
	var tag string
	var maintainer string
	var limit int
	var offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List packages",
		Long:  `List packages known to the registry, locally installed archives with --installed, or registry tags with --tags`,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			if installed {
				return listInstalled(session)
			}

			c := client.New(session)

			if showTags {
				tags, err := c.ListTags(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to list tags: %w", err)
				}
				for _, tag := range tags {
					fmt.Printf("%s (%s)\n", tag.Name, tag.Color)
				}
				return nil
			}
			packages, err := c.ListPackages(cmd.Context(), client.ListOptions{
				Tag:        tag,
				Maintainer: maintainer,
				Limit:      limit,
				Offset:     offset,
			})
			if err != nil {
				return fmt.Errorf("failed to list packages: %w", err)
			}

			if len(packages) == 0 {
				fmt.Println("No packages found")
				return nil
			}

			for _, pkg := range packages {
				fmt.Printf("%s (%s) by %s [%s]\n", pkg.Name, pkg.Version,
					pkg.Maintainer, humanize.Bytes(uint64(pkg.Size)))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&installed, "installed", "i", false, "List locally installed archives instead")
	cmd.Flags().BoolVar(&showTags, "tags", false, "List registry tags instead of packages")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "Only list packages carrying this tag")
	cmd.Flags().StringVarP(&maintainer, "maintainer", "m", "", "Only list packages by this maintainer")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of packages to list")
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Number of packages to skip")

	return cmd
}

func listInstalled(session *client.Session) error {
	archives, err := installedArchives(session.InstallDir)
	if err != nil {
		return err
	}

	if len(archives) == 0 {
		fmt.Println("No packages installed")
		return nil
	}

	for _, archive := range archives {
		info, err := os.Stat(filepath.Join(session.InstallDir, archive))
		if err != nil {
			continue
		}
		name, version := splitArchiveName(archive)
		fmt.Printf("%s (%s) [%s]\n", name, version, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

// installedArchives returns the .deb file names in the install
// directory, an empty list when it does not exist yet.
func installedArchives(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read install directory: %w", err)
	}

	var archives []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".deb") {
			continue
		}
		archives = append(archives, entry.Name())
	}
	return archives, nil
}

// splitArchiveName splits "name-1.2.3.deb" on the last dash so names
// containing dashes keep working.
func splitArchiveName(archive string) (string, string) {
	base := strings.TrimSuffix(archive, ".deb")
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return base, ""
	}
	return base[:idx], base[idx+1:]
}
