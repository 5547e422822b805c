// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

func (cli *CLI) NewLoadCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:     "load",
		Short:   "Download an artifact image and load it into the local runtime",
		Example: "load <task-id> <artifact-path> --scope queue:get-artifact:private/*",
		Args:    cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.InitializeService(cmd)
		},
		Run: func(cmd *cobra.Command, args []string) {
			req := artifactimage.AcquireRequest{
				Descriptor: artifactimage.Descriptor{TaskID: args[0], ArtifactPath: args[1]},
				Scopes:     scopes,
				Output:     cmd.OutOrStdout(),
			}

			img, err := cli.svc.Acquire(cmd.Context(), req)
			if err != nil {
				printError(cmd, "Error loading image: %v ❌ ", err)
				return
			}

			cmd.Printf("Image %s loaded with ID %s ✅\n", img.Name, img.ID)
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "Scope granted to the task, may be repeated")

	return cmd
}
