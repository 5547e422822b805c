// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package cli

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeCmd(t *testing.T) {
	origNoColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = origNoColor }()

	cli := New(nil)

	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{
			name:     "public artifact without scopes",
			args:     []string{"task", "public/image.tar"},
			expected: "Authorized ✅\n",
		},
		{
			name:     "private artifact with exact scope",
			args:     []string{"task", "private/image.tar", "--scope", "queue:get-artifact:private/image.tar"},
			expected: "Authorized ✅\n",
		},
		{
			name:     "private artifact with wildcard scope",
			args:     []string{"task", "private/image.tar", "-s", "other", "-s", "queue:get-artifact:private/*"},
			expected: "Authorized ✅\n",
		},
		{
			name:     "private artifact without scope",
			args:     []string{"task", "private/image.tar", "--scope", "queue:get-artifact:public/*"},
			expected: "Authorization failed: not authorized to use artifact image ❌ \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := cli.NewAuthorizeCmd()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.expected, buf.String())
		})
	}
}
