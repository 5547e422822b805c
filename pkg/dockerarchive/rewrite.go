// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package dockerarchive rewrites docker-save image archives so that the
// image they carry is loaded under a caller-chosen name.
package dockerarchive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/moby/go-archive"
)

const (
	// RepositoriesFile is the name of the repository index at the archive root.
	RepositoriesFile = "repositories"
	// EditedSuffix is appended to the base name of a rewritten archive.
	EditedSuffix = "-edited"

	tarExt       = ".tar"
	metadataPerm = 0o644
	dirPerm      = 0o755
)

// ErrArchiveIO indicates the archive could not be extracted or repacked.
var ErrArchiveIO = errors.New("failed to read or write image archive")

// Paths returns the working directory and edited archive path that Rewrite
// uses for archivePath. Both are siblings of the archive.
func Paths(archivePath string) (workDir, edited string) {
	dir := filepath.Dir(archivePath)
	base := filepath.Base(archivePath)
	name := strings.TrimSuffix(base, tarExt)
	if name == base {
		name += "-extracted"
	}

	return filepath.Join(dir, name), filepath.Join(dir, name+EditedSuffix+tarExt)
}

// Rewrite extracts the archive at archivePath next to it, renames the image
// recorded in its repositories file to newName:latest and packs the result
// into a new sibling archive whose path is returned. Neither the original
// archive nor the working directory are removed.
func Rewrite(ctx context.Context, archivePath, newName string) (string, error) {
	workDir, edited := Paths(archivePath)

	if err := extract(archivePath, workDir); err != nil {
		return "", errors.Wrap(ErrArchiveIO, fmt.Errorf("extract %s: %w", archivePath, err))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	metaPath := filepath.Join(workDir, RepositoriesFile)
	data, err := readMetadata(metaPath)
	if err != nil {
		return "", errors.Wrap(ErrMalformedArchive, fmt.Errorf("read %s: %w", RepositoriesFile, err))
	}

	meta, err := ParseRepositories(data)
	if err != nil {
		return "", err
	}
	renamed, err := meta.Rename(newName)
	if err != nil {
		return "", err
	}
	out, err := renamed.MarshalJSON()
	if err != nil {
		return "", errors.Wrap(ErrArchiveIO, err)
	}
	if err := os.WriteFile(metaPath, out, metadataPerm); err != nil {
		return "", errors.Wrap(ErrArchiveIO, fmt.Errorf("write %s: %w", RepositoriesFile, err))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := pack(workDir, edited); err != nil {
		return "", errors.Wrap(ErrArchiveIO, fmt.Errorf("pack %s: %w", edited, err))
	}

	return edited, nil
}

// readMetadata reads the extracted metadata file. Anything but a regular
// file is rejected so links never reach outside the working directory.
func readMetadata(path string) ([]byte, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s is not a regular file", RepositoriesFile)
	}

	return os.ReadFile(path)
}

func extract(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := os.MkdirAll(dest, dirPerm); err != nil {
		return err
	}

	return archive.Untar(bufio.NewReader(f), dest, &archive.TarOptions{NoLchown: true})
}

func pack(src, dest string) (err error) {
	rc, err := archive.TarWithOptions(src, &archive.TarOptions{})
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(f, rc)

	return err
}
