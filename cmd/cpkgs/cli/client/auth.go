package client

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/cpkgs/pkg/api"
	"github.com/mwantia/cpkgs/pkg/client"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage registry authentication",
		Long:  `Log in to or out of the configured package registry`,
	}

	cmd.AddCommand(newAuthLoginCommand())
	cmd.AddCommand(newAuthRegisterCommand())
	cmd.AddCommand(newAuthLogoutCommand())
	cmd.AddCommand(newAuthStatusCommand())

	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			if username == "" {
				if username, err = promptInput("Username"); err != nil {
					return err
				}
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}

			c := client.New(session)
			auth, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			session.SetToken(auth.Token)
			if err := session.Save(); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Printf("Logged in as '%s'\n", auth.User.Username)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username to log in with")

	return cmd
}

func newAuthRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new registry account",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			username, err := promptInput("Username")
			if err != nil {
				return err
			}
			email, err := promptInput("Email")
			if err != nil {
				return err
			}
			password, err := promptPassword("Password")
			if err != nil {
				return err
			}
			confirm, err := promptPassword("Confirm password")
			if err != nil {
				return err
			}
			if password != confirm {
				return fmt.Errorf("passwords do not match")
			}

			c := client.New(session)
			auth, err := c.Register(cmd.Context(), api.UserRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}

			session.SetToken(auth.Token)
			if err := session.Save(); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Printf("Registered and logged in as '%s'\n", auth.User.Username)
			return nil
		},
	}

	return cmd
}

func newAuthLogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out of the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			if session.AuthToken != "" {
				// Best effort; the local token is dropped either way
				c := client.New(session)
				if err := c.Logout(cmd.Context()); err != nil {
					fmt.Printf("Warning: failed to revoke token: %v\n", err)
				}
			}

			session.ClearToken()
			if err := session.Save(); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Println("Logged out")
			return nil
		},
	}

	return cmd
}

func newAuthStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.LoadSession()
			if err != nil {
				return err
			}

			fmt.Printf("Registry: %s\n", session.RegistryURL)
			if session.AuthToken == "" {
				fmt.Println("Status:   not logged in")
			} else {
				fmt.Println("Status:   logged in")
			}
			return nil
		},
	}

	return cmd
}
