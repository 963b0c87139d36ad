package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/client"
)

func NewAdminCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Registry administration commands",
		Long:  `Publish and remove registry packages and manage user accounts`,
	}

	cmd.AddCommand(newAdminPublishCommand())
	cmd.AddCommand(newAdminRemoveCommand())
	cmd.AddCommand(newAdminListUsersCommand())
	cmd.AddCommand(newAdminCreateUserCommand())

	return cmd
}

func newAdminPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <manifest>",
		Short: "Publish a package from a manifest file",
		Long:  `Publish a new package release described by a JSON or YAML manifest`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			if err := session.RequireToken(); err != nil {
				return err
			}

			req, err := loadManifest(args[0])
			if err != nil {
				return err
			}

			c := client.New(session)
			pkg, err := c.CreatePackage(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to publish package: %w", err)
			}

			fmt.Printf("Published %s (%s) as %s\n", pkg.Name, pkg.Version, pkg.ID)
			return nil
		},
	}

	return cmd
}

// loadManifest parses a package manifest, selecting the format by file
// extension.
func loadManifest(path string) (api.PackageRequest, error) {
	var req api.PackageRequest

	data, err := os.ReadFile(path)
	if err != nil {
		return req, fmt.Errorf("failed to read manifest: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse manifest %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("failed to parse manifest %s: %w", path, err)
		}
	default:
		return req, fmt.Errorf("unsupported manifest format '%s'", filepath.Ext(path))
	}

	if req.Name == "" || req.Version == "" {
		return req, fmt.Errorf("manifest %s is missing name or version", path)
	}
	return req, nil
}

func newAdminRemoveCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <package> <version>",
		Short: "Remove a package release from the registry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			if err := session.RequireToken(); err != nil {
				return err
			}

			c := client.New(session)
			pkg, err := c.GetPackageVersion(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to resolve package '%s' version '%s': %w",
					args[0], args[1], err)
			}

			if !yes {
				confirmed, err := promptConfirm(
					fmt.Sprintf("Remove %s (%s) from the registry", pkg.Name, pkg.Version), false)
				if err != nil {
					return err
				}
				if !confirmed {
					fmt.Println("Aborted")
					return nil
				}
			}

			if err := c.DeletePackage(cmd.Context(), pkg.ID); err != nil {
				return fmt.Errorf("failed to remove package: %w", err)
			}

			fmt.Printf("Removed %s (%s)\n", pkg.Name, pkg.Version)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newAdminListUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list-users",
		Short: "List registry user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			if err := session.RequireToken(); err != nil {
				return err
			}

			c := client.New(session)
			users, err := c.ListUsers(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			for _, user := range users {
				fmt.Printf("%s (%s) <%s> [%s]\n", user.Username, user.ID, user.Email, user.Role)
			}
			return nil
		},
	}

	return cmd
}

func newAdminCreateUserCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-user <username> <email>",
		Short: "Create a registry user account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}
			if err := session.RequireToken(); err != nil {
				return err
			}

			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			c := client.New(session)
			user, err := c.CreateUser(cmd.Context(), api.UserRequest{
				Username: args[0],
				Email:    args[1],
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			fmt.Printf("Created user '%s' (%s)\n", user.Username, user.ID)
			return nil
		},
	}

	return cmd
}
