// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package internal

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ScratchDirName is the directory under the scratch root holding one
// workspace per image acquisition.
const ScratchDirName = "tmp-docker-images"

// MakeDir creates dirPath and any missing parents.
func MakeDir(dirPath string) error {
	return os.MkdirAll(dirPath, 0o755)
}

// RemoveDir removes dirPath and everything below it. A missing directory is
// not an error.
func RemoveDir(dirPath string) error {
	return os.RemoveAll(dirPath)
}

// ScratchDir returns a fresh, not yet created, workspace path under root.
func ScratchDir(root string) string {
	return filepath.Join(root, ScratchDirName, uuid.NewString())
}

// CopyFile copies a file from srcPath to dstPath.
func CopyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	if err != nil {
		return err
	}

	return nil
}
