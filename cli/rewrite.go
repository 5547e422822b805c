// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/internal"
	"github.com/ultravioletrs/taskimage/pkg/dockerarchive"
)

func (cli *CLI) NewRewriteCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "rewrite",
		Short:   "Rename the image recorded in a saved image archive",
		Example: "rewrite <archive.tar> <image-name> [--output renamed.tar]",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			archivePath, name := args[0], args[1]
			if output == "" {
				_, output = dockerarchive.Paths(archivePath)
			}

			scratch := internal.ScratchDir(os.TempDir())
			if err := internal.MakeDir(scratch); err != nil {
				printError(cmd, "Error creating scratch directory: %v ❌ ", err)
				return
			}
			defer func() {
				if err := internal.RemoveDir(scratch); err != nil {
					printError(cmd, "Error removing scratch directory: %v ❌ ", err)
				}
			}()

			staged := filepath.Join(scratch, filepath.Base(archivePath))
			if err := internal.CopyFile(archivePath, staged); err != nil {
				printError(cmd, "Error reading archive: %v ❌ ", err)
				return
			}

			edited, err := dockerarchive.Rewrite(cmd.Context(), staged, name)
			if err != nil {
				printError(cmd, "Error rewriting archive: %v ❌ ", err)
				return
			}

			if err := internal.CopyFile(edited, output); err != nil {
				printError(cmd, "Error writing archive: %v ❌ ", err)
				return
			}

			cmd.Printf("Archive written to %s as %s:%s ✅\n", output, name, dockerarchive.LatestTag)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Path of the rewritten archive")

	return cmd
}
