// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package http

import "github.com/ultravioletrs/taskimage/artifactimage"

var _ apiReq = (*acquireReq)(nil)

type apiReq interface {
	validate() error
}

type acquireReq struct {
	TaskID       string   `json:"task_id"`
	ArtifactPath string   `json:"path"`
	Scopes       []string `json:"scopes,omitempty"`
}

func (req acquireReq) validate() error {
	if req.TaskID == "" || req.ArtifactPath == "" {
		return artifactimage.ErrMalformedDescriptor
	}

	return nil
}
