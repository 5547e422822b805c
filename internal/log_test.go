// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package internal

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFmtLog(t *testing.T) {
	line := FmtLog("Image '%s' loaded.", "public/image.tar")

	assert.Regexp(t, regexp.MustCompile(`^\[taskimage \d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z\] Image 'public/image.tar' loaded\.\r\n$`), line)
}

func TestFmtErrorLog(t *testing.T) {
	assert.Equal(t, "[taskimage:error] Error loading docker image. boom\r\n", FmtErrorLog("Error loading docker image. %s", "boom"))
}
