// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"context"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/ultravioletrs/taskimage/artifactimage"
)

var Verbose bool

// ServiceFactory builds the artifact image service on first use.
type ServiceFactory func(ctx context.Context) (artifactimage.Service, error)

type CLI struct {
	newService ServiceFactory
	svc        artifactimage.Service
}

func New(newService ServiceFactory) *CLI {
	return &CLI{
		newService: newService,
	}
}

func (c *CLI) InitializeService(cmd *cobra.Command) error {
	if c.svc != nil {
		return nil
	}

	svc, err := c.newService(cmd.Context())
	if err != nil {
		return errors.Wrap(errServiceUnavailable, err)
	}
	c.svc = svc

	return nil
}
