// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

// ServeFunc runs the HTTP API for svc until ctx is done or it fails.
type ServeFunc func(ctx context.Context, svc artifactimage.Service) error

func (cli *CLI) NewServeCmd(serve ServeFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the artifact image HTTP API",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.InitializeService(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cli.svc)
		},
	}
}
