package server

import (
	"context"
	"fmt"

	"github.com/mwantia/cpkgs/internal/server"
	"github.com/spf13/cobra"

	config "github.com/mwantia/cpkgs/internal/config/server"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the cpkgs Registry Service",
		Long:  `Start the cpkgs Registry Service`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("failed to load server configuration: %w", err)
			}

			srv := server.NewServer(cfg)
			if err := srv.Serve(context.Background()); err != nil {
				return err
			}

			return nil
		},
	}

	return cmd
}
