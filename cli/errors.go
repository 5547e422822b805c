// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"github.com/absmach/supermq/pkg/errors"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

var errServiceUnavailable = errors.New("artifact image service is unavailable")

var knownErrors = []error{
	artifactimage.ErrAuthorizationDenied,
	artifactimage.ErrMalformedDescriptor,
	artifactimage.ErrDownloadFailed,
	artifactimage.ErrMalformedArchive,
	artifactimage.ErrArchiveIO,
	artifactimage.ErrLoadFailed,
	artifactimage.ErrWorkspace,
}

func decodeErrors(err error) error {
	for _, known := range knownErrors {
		if errors.Contains(err, known) {
			return known
		}
	}

	return err
}

func printError(cmd *cobra.Command, message string, err error) {
	if !Verbose {
		err = decodeErrors(err)
	}
	msg := color.New(color.FgRed).Sprintf(message, err)
	cmd.Println(msg)
}
