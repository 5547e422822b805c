// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package dockerarchive

import (
	"archive/tar"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layerContent = "layer bytes"

type entry struct {
	name string
	body string
	link string
}

func writeArchive(t *testing.T, path string, entries []entry) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	for _, e := range entries {
		if e.link != "" {
			require.NoError(t, tw.WriteHeader(&tar.Header{
				Name:     e.name,
				Mode:     0o777,
				Linkname: e.link,
				Typeflag: tar.TypeSymlink,
			}))
			continue
		}
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     e.name,
			Mode:     0o644,
			Size:     int64(len(e.body)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write([]byte(e.body))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
}

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	files := make(map[string]string)
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		files[filepath.ToSlash(filepath.Clean(hdr.Name))] = string(body)
	}

	return files
}

func imageEntries(repositories string) []entry {
	return []entry{
		{name: "abc123/VERSION", body: "1.0"},
		{name: "abc123/json", body: `{"id":"abc123"}`},
		{name: "abc123/layer.tar", body: layerContent},
		{name: RepositoriesFile, body: repositories},
	}
}

func TestRewrite(t *testing.T) {
	testCases := []struct {
		name         string
		repositories string
		expected     map[string]map[string]string
	}{
		{
			name:         "rename single tag",
			repositories: `{"repoA":{"v1":"sha:abc"}}`,
			expected:     map[string]map[string]string{"X": {"latest": "sha:abc"}},
		},
		{
			name:         "preserve extra tags",
			repositories: `{"repoA":{"v1":"sha:abc","v2":"sha:def"}}`,
			expected:     map[string]map[string]string{"X": {"latest": "sha:abc", "v2": "sha:def"}},
		},
		{
			name:         "already latest",
			repositories: `{"repoA":{"latest":"sha:abc"}}`,
			expected:     map[string]map[string]string{"X": {"latest": "sha:abc"}},
		},
		{
			name:         "extra repositories discarded",
			repositories: `{"repoA":{"v1":"sha:abc"},"repoB":{"v3":"sha:ghi"}}`,
			expected:     map[string]map[string]string{"X": {"latest": "sha:abc"}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			original := filepath.Join(dir, "image.tar")
			writeArchive(t, original, imageEntries(tc.repositories))

			edited, err := Rewrite(context.Background(), original, "X")
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "image-edited.tar"), edited)

			files := readArchive(t, edited)
			var got map[string]map[string]string
			require.NoError(t, json.Unmarshal([]byte(files[RepositoriesFile]), &got))
			assert.Equal(t, tc.expected, got)
			assert.Equal(t, layerContent, files["abc123/layer.tar"])
			assert.Equal(t, "1.0", files["abc123/VERSION"])

			_, err = os.Stat(original)
			assert.NoError(t, err, "original archive must be kept")
			_, err = os.Stat(filepath.Join(dir, "image"))
			assert.NoError(t, err, "working directory must be kept")
		})
	}
}

func TestRewriteMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		entries []entry
		err     error
	}{
		{
			name:    "missing repositories file",
			entries: []entry{{name: "abc123/layer.tar", body: layerContent}},
			err:     ErrMalformedArchive,
		},
		{
			name:    "unparsable repositories file",
			entries: imageEntries(`{"repoA":`),
			err:     ErrMalformedArchive,
		},
		{
			name:    "no repositories",
			entries: imageEntries(`{}`),
			err:     ErrMalformedArchive,
		},
		{
			name:    "no tags",
			entries: imageEntries(`{"repoA":{}}`),
			err:     ErrMalformedArchive,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := filepath.Join(t.TempDir(), "image.tar")
			writeArchive(t, original, tc.entries)

			_, err := Rewrite(context.Background(), original, "X")
			assert.True(t, errors.Contains(err, tc.err), "expected %v, got %v", tc.err, err)
		})
	}
}

func TestRewriteSymlinkedRepositories(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "victim.json")
	const victim = `{"victim":{"v1":"abc"}}`
	require.NoError(t, os.WriteFile(outside, []byte(victim), 0o644))

	original := filepath.Join(dir, "image.tar")
	writeArchive(t, original, []entry{
		{name: "abc123/layer.tar", body: layerContent},
		{name: RepositoriesFile, link: outside},
	})

	_, err := Rewrite(context.Background(), original, "X")
	assert.True(t, errors.Contains(err, ErrMalformedArchive), "expected %v, got %v", ErrMalformedArchive, err)

	body, err := os.ReadFile(outside)
	require.NoError(t, err)
	assert.Equal(t, victim, string(body), "file outside the working directory must be untouched")
}

func TestRewriteMissingArchive(t *testing.T) {
	_, err := Rewrite(context.Background(), filepath.Join(t.TempDir(), "absent.tar"), "X")
	assert.True(t, errors.Contains(err, ErrArchiveIO), "expected %v, got %v", ErrArchiveIO, err)
}

func TestPaths(t *testing.T) {
	workDir, edited := Paths("/scratch/abc/image.tar")
	assert.Equal(t, "/scratch/abc/image", workDir)
	assert.Equal(t, "/scratch/abc/image-edited.tar", edited)

	workDir, edited = Paths("/scratch/abc/image")
	assert.Equal(t, "/scratch/abc/image-extracted", workDir)
	assert.Equal(t, "/scratch/abc/image-extracted-edited.tar", edited)
}
