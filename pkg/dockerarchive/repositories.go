// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0
package dockerarchive

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/absmach/supermq/pkg/errors"
)

// LatestTag is the tag the selected image is renamed to.
const LatestTag = "latest"

var (
	// ErrMalformedArchive indicates the repositories file is missing, unparsable
	// or does not name at least one repository with one tag.
	ErrMalformedArchive = errors.New("malformed image archive")

	errDuplicateKey = errors.New("duplicate key")
)

// Tag maps a tag name to an image content-id.
type Tag struct {
	Name string
	ID   string
}

// Repository is a named repository and its tags in file order.
type Repository struct {
	Name string
	Tags []Tag
}

// RepositoryMetadata is the content of the repositories index of a
// docker-save archive. Order of repositories and tags is the order in which
// they appear in the file.
type RepositoryMetadata struct {
	Repositories []Repository
}

// ParseRepositories decodes and validates a repositories file.
func ParseRepositories(data []byte) (RepositoryMetadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var meta RepositoryMetadata
	if err := expectDelim(dec, '{'); err != nil {
		return RepositoryMetadata{}, errors.Wrap(ErrMalformedArchive, err)
	}
	seen := make(map[string]struct{})
	for dec.More() {
		name, err := readKey(dec, seen)
		if err != nil {
			return RepositoryMetadata{}, errors.Wrap(ErrMalformedArchive, err)
		}
		tags, err := readTags(dec)
		if err != nil {
			return RepositoryMetadata{}, errors.Wrap(ErrMalformedArchive, fmt.Errorf("repository %q: %w", name, err))
		}
		meta.Repositories = append(meta.Repositories, Repository{Name: name, Tags: tags})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return RepositoryMetadata{}, errors.Wrap(ErrMalformedArchive, err)
	}
	if _, err := dec.Token(); err == nil {
		return RepositoryMetadata{}, errors.Wrap(ErrMalformedArchive, fmt.Errorf("trailing data after repositories object"))
	}

	if err := meta.validate(); err != nil {
		return RepositoryMetadata{}, err
	}

	return meta, nil
}

// Rename returns metadata holding only the first repository, now called
// name, with its first tag renamed to latest. Remaining tags of that
// repository are kept; other repositories are dropped.
func (m RepositoryMetadata) Rename(name string) (RepositoryMetadata, error) {
	if err := m.validate(); err != nil {
		return RepositoryMetadata{}, err
	}

	src := m.Repositories[0]
	selected := src.Tags[0]
	tags := make([]Tag, 0, len(src.Tags))

	if selected.Name == LatestTag {
		tags = append(tags, src.Tags...)
		return RepositoryMetadata{Repositories: []Repository{{Name: name, Tags: tags}}}, nil
	}

	// An existing latest tag is overwritten by the selected image.
	replaced := false
	for _, tag := range src.Tags[1:] {
		if tag.Name == LatestTag {
			replaced = true
			tag.ID = selected.ID
		}
		tags = append(tags, tag)
	}
	if !replaced {
		tags = append([]Tag{{Name: LatestTag, ID: selected.ID}}, tags...)
	}

	return RepositoryMetadata{Repositories: []Repository{{Name: name, Tags: tags}}}, nil
}

// Selected returns the repository and tag that a rename will act on.
func (m RepositoryMetadata) Selected() (string, Tag, error) {
	if err := m.validate(); err != nil {
		return "", Tag{}, err
	}

	return m.Repositories[0].Name, m.Repositories[0].Tags[0], nil
}

// MarshalJSON encodes the metadata preserving repository and tag order.
func (m RepositoryMetadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, repo := range m.Repositories {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, repo.Name); err != nil {
			return nil, err
		}
		buf.WriteString(":{")
		for j, tag := range repo.Tags {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(&buf, tag.Name); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := writeString(&buf, tag.ID); err != nil {
				return nil, err
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

func (m RepositoryMetadata) validate() error {
	if len(m.Repositories) == 0 {
		return errors.Wrap(ErrMalformedArchive, fmt.Errorf("no repositories"))
	}
	if len(m.Repositories[0].Tags) == 0 {
		return errors.Wrap(ErrMalformedArchive, fmt.Errorf("repository %q has no tags", m.Repositories[0].Name))
	}

	return nil
}

func readTags(dec *json.Decoder) ([]Tag, error) {
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	var tags []Tag
	seen := make(map[string]struct{})
	for dec.More() {
		name, err := readKey(dec, seen)
		if err != nil {
			return nil, err
		}
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		id, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("tag %q: expected string image id, got %v", name, tok)
		}
		tags = append(tags, Tag{Name: name, ID: id})
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return tags, nil
}

func readKey(dec *json.Decoder, seen map[string]struct{}) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected object key, got %v", tok)
	}
	if _, dup := seen[key]; dup {
		return "", errors.Wrap(errDuplicateKey, fmt.Errorf("%q", key))
	}
	seen[key] = struct{}{}

	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}

	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)

	return nil
}
