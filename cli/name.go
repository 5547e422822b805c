// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

func (cli *CLI) NewNameCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "name",
		Short:   "Print the local image name used for an artifact",
		Example: "name <task-id> <artifact-path>",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			desc := artifactimage.Descriptor{TaskID: args[0], ArtifactPath: args[1]}
			cmd.Println(artifactimage.ImageName(desc))
		},
	}
}
