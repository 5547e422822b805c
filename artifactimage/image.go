// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package artifactimage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/ultravioletrs/taskimage/internal"
	"github.com/ultravioletrs/taskimage/pkg/dockerarchive"
	"github.com/ultravioletrs/taskimage/pkg/runtime"
)

// ArtifactImage acquires one artifact image. Acquire is sequential and, once
// an image is loaded, returns the cached result.
type ArtifactImage struct {
	mu     sync.Mutex
	deps   Deps
	poller *runtime.Poller
	desc   Descriptor
	scopes []string
	out    io.Writer
	logger *slog.Logger

	stateMu sync.RWMutex
	state   State
	image   *LoadedImage
}

// New creates an acquisition for desc. Progress lines are written to out.
func New(deps Deps, desc Descriptor, scopes []string, out io.Writer) *ArtifactImage {
	deps = deps.withDefaults()
	if out == nil {
		out = io.Discard
	}

	logger := deps.Logger.With(slog.String("task_id", desc.TaskID), slog.String("artifact", desc.ArtifactPath))
	opts := append([]runtime.PollerOption{runtime.WithLogger(logger)}, deps.PollerOptions...)

	return &ArtifactImage{
		deps:   deps,
		poller: runtime.NewPoller(deps.Runtime, opts...),
		desc:   desc,
		scopes: scopes,
		out:    out,
		logger: logger,
		state:  Unstarted,
	}
}

// IsAuthorized reports whether the scopes given to New allow the artifact.
// Acquire does not check it.
func (a *ArtifactImage) IsAuthorized() bool {
	return IsAuthorized(a.desc, a.scopes)
}

// ImageName returns the name the image is loaded under.
func (a *ArtifactImage) ImageName() string {
	return ImageName(a.desc)
}

// State returns the current acquisition state.
func (a *ArtifactImage) State() State {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()

	return a.state
}

func (a *ArtifactImage) setState(to State) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()

	if !a.state.canTransition(to) {
		a.logger.Error(fmt.Sprintf("invalid acquisition transition %s -> %s", a.state, to))
	}
	a.state = to
}

// Acquire downloads, renames, loads and verifies the image. A failed
// acquisition may be retried on the same instance.
func (a *ArtifactImage) Acquire(ctx context.Context) (LoadedImage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.image != nil {
		return *a.image, nil
	}

	img, err := a.acquire(ctx)
	if err != nil {
		a.setState(Failed)
		return LoadedImage{}, err
	}

	a.stateMu.Lock()
	a.image = &img
	a.stateMu.Unlock()
	a.setState(Loaded)

	return img, nil
}

func (a *ArtifactImage) acquire(ctx context.Context) (LoadedImage, error) {
	start := time.Now()
	dir := internal.ScratchDir(a.deps.ScratchRoot)

	a.setState(Downloading)
	img, err := a.run(ctx, start, dir)
	a.cleanup(dir)
	if err != nil {
		fmt.Fprint(a.out, internal.FmtErrorLog("Error loading docker image. %s", err))
		return LoadedImage{}, err
	}

	fmt.Fprint(a.out, internal.FmtLog("Image '%s' from task '%s' loaded.  Using image ID %s.", a.desc.ArtifactPath, a.desc.TaskID, img.ID))
	a.deps.Monitor.Measure(LoadTimeMetric, time.Since(start))

	return img, nil
}

// run performs every step that touches the scratch workspace in dir.
func (a *ArtifactImage) run(ctx context.Context, start time.Time, dir string) (LoadedImage, error) {
	if err := a.deps.FS.MakeDir(dir); err != nil {
		return LoadedImage{}, errors.Wrap(ErrWorkspace, a.withContext(err))
	}

	archive := filepath.Join(dir, ArchiveName)
	if err := a.deps.Downloader.Download(ctx, a.out, a.desc.TaskID, a.desc.ArtifactPath, archive); err != nil {
		a.logger.Debug(fmt.Sprintf("%s. %s", ErrDownloadFailed, err))
		return LoadedImage{}, errors.Wrap(ErrDownloadFailed, a.withContext(err))
	}
	a.deps.Monitor.Measure(DownloadTimeMetric, time.Since(start))

	fmt.Fprint(a.out, internal.FmtLog("Loading docker image from downloaded archive."))

	a.setState(Rewriting)
	name := a.ImageName()
	a.logger.Debug("renaming image and creating new archive", slog.String("image", name))
	edited, err := dockerarchive.Rewrite(ctx, archive, name)
	if err != nil {
		return LoadedImage{}, a.withContext(err)
	}

	a.setState(Loading)
	a.logger.Debug("loading docker image", slog.String("archive", edited))
	if err := a.poller.Load(ctx, edited); err != nil {
		return LoadedImage{}, errors.Wrap(ErrLoadFailed, a.withContext(err))
	}

	a.setState(Verifying)
	img, err := a.poller.Verify(ctx, name)
	if err != nil {
		return LoadedImage{}, errors.Wrap(ErrLoadFailed, a.withContext(err))
	}

	return LoadedImage{ID: img.ID, Name: name}, nil
}

// cleanup removes the scratch workspace. Failures are logged only.
func (a *ArtifactImage) cleanup(dir string) {
	if err := a.deps.FS.RemoveDir(dir); err != nil {
		a.logger.Warn(fmt.Sprintf("%s. Path: %s. Error: %s", ErrCleanup, dir, err))
	}
}

// withContext attaches the task id and artifact path to err.
func (a *ArtifactImage) withContext(err error) error {
	return errors.Wrap(fmt.Errorf("task %s artifact %s", a.desc.TaskID, a.desc.ArtifactPath), err)
}
