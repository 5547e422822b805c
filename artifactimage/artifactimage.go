// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

// Package artifactimage materializes container images stored as task
// artifacts: it authorizes the artifact, downloads it, renames the image in
// the archive, loads it into the container runtime and waits until the
// runtime reports it.
package artifactimage

import (
	"crypto/md5"
	"encoding/hex"
	"log/slog"
	"regexp"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/ultravioletrs/taskimage/internal"
	"github.com/ultravioletrs/taskimage/pkg/dockerarchive"
	"github.com/ultravioletrs/taskimage/pkg/download"
	"github.com/ultravioletrs/taskimage/pkg/monitor"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
	"github.com/ultravioletrs/taskimage/pkg/scopes"
)

const (
	// DownloadTimeMetric measures a successful artifact download.
	DownloadTimeMetric = "task.taskImage.downloadTime"
	// LoadTimeMetric measures a successful acquisition, download included.
	LoadTimeMetric = "task.taskImage.loadTime"

	// ArchiveName is the downloaded artifact file inside the scratch workspace.
	ArchiveName = "image.tar"

	getArtifactScope = "queue:get-artifact:"
)

var (
	// ErrAuthorizationDenied indicates the granted scopes do not cover the artifact.
	ErrAuthorizationDenied = errors.New("not authorized to use artifact image")
	// ErrMalformedDescriptor indicates an empty task id or artifact path.
	ErrMalformedDescriptor = errors.New("malformed image descriptor")
	// ErrWorkspace indicates the scratch workspace could not be created.
	ErrWorkspace = errors.New("failed to create scratch workspace")
	// ErrDownloadFailed indicates the artifact could not be fetched.
	ErrDownloadFailed = errors.New("error loading docker image")
	// ErrLoadFailed indicates the runtime load or its verification failed.
	ErrLoadFailed = errors.New("failed to load docker image")
	// ErrCleanup indicates the scratch workspace could not be removed. It is
	// only ever logged.
	ErrCleanup = errors.New("error removing temporary task image directory")

	// ErrMalformedArchive is returned when the archive metadata is unusable.
	ErrMalformedArchive = dockerarchive.ErrMalformedArchive
	// ErrArchiveIO is returned when the archive cannot be extracted or repacked.
	ErrArchiveIO = dockerarchive.ErrArchiveIO
)

var publicArtifact = regexp.MustCompile(`^/?public/`)

// Descriptor identifies the artifact holding an image archive.
type Descriptor struct {
	TaskID       string `json:"task_id"`
	ArtifactPath string `json:"path"`
}

func (d Descriptor) validate() error {
	if d.TaskID == "" || d.ArtifactPath == "" {
		return ErrMalformedDescriptor
	}

	return nil
}

// LoadedImage is a confirmed image in the container runtime.
type LoadedImage struct {
	// ID is the runtime content-id.
	ID string `json:"id"`
	// Name is the deterministic name the image was loaded under.
	Name string `json:"name"`
}

// IsAuthorized reports whether granted allows reading the artifact. Public
// artifacts need no scope.
func IsAuthorized(desc Descriptor, granted []string) bool {
	if publicArtifact.MatchString(desc.ArtifactPath) {
		return true
	}

	return scopes.Match(granted, [][]string{{getArtifactScope + desc.ArtifactPath}})
}

// ImageName returns the hex MD5 of the task id followed by the artifact path.
func ImageName(desc Descriptor) string {
	sum := md5.Sum([]byte(desc.TaskID + desc.ArtifactPath))

	return hex.EncodeToString(sum[:])
}

// Filesystem creates and removes scratch directories.
type Filesystem interface {
	MakeDir(path string) error
	RemoveDir(path string) error
}

type localFS struct{}

func (localFS) MakeDir(path string) error   { return internal.MakeDir(path) }
func (localFS) RemoveDir(path string) error { return internal.RemoveDir(path) }

// Deps are the collaborators shared by every acquisition on a host.
type Deps struct {
	Downloader download.Downloader
	Runtime    runtime.Runtime
	Monitor    monitor.Monitor
	Logger     *slog.Logger
	// FS defaults to the local filesystem.
	FS Filesystem
	// ScratchRoot holds the per-acquisition workspaces.
	ScratchRoot string
	// PollerOptions tune the load verification.
	PollerOptions []runtime.PollerOption
}

func (d Deps) withDefaults() Deps {
	if d.Monitor == nil {
		d.Monitor = monitor.Noop{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.FS == nil {
		d.FS = localFS{}
	}

	return d
}
