// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package http

import (
	"net/http"

	"github.com/absmach/supermq"
)

var _ supermq.Response = (*acquireRes)(nil)

type acquireRes struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Output string `json:"output,omitempty"`
}

func (res acquireRes) Code() int {
	return http.StatusOK
}

func (res acquireRes) Headers() map[string]string {
	return map[string]string{}
}

func (res acquireRes) Empty() bool {
	return false
}
