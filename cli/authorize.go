// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

func (cli *CLI) NewAuthorizeCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:     "authorize",
		Short:   "Check whether granted scopes allow using an artifact image",
		Example: "authorize <task-id> <artifact-path> --scope queue:get-artifact:private/*",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			desc := artifactimage.Descriptor{TaskID: args[0], ArtifactPath: args[1]}
			if !artifactimage.IsAuthorized(desc, scopes) {
				printError(cmd, "Authorization failed: %s ❌ ", artifactimage.ErrAuthorizationDenied)
				return
			}

			cmd.Println("Authorized ✅")
		},
	}

	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "Scope granted to the task, may be repeated")

	return cmd
}
