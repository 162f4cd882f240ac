// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package fs implements vault.DocumentSource and vault.MetadataSource over a
// local directory tree, with change notifications via fsnotify.
package fs

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/poiesic/vaultrag/vault"
)

// Source is a filesystem-backed document source rooted at a single
// directory. Document paths are slash-separated and relative to the root.
type Source struct {
	root         string
	markdownOnly bool
	logger       *slog.Logger
}

var (
	_ vault.DocumentSource = (*Source)(nil)
	_ vault.MetadataSource = (*Source)(nil)
)

// Option configures a Source.
type Option func(*Source)

// WithMarkdownOnly restricts enumeration to .md files. Default is all files.
func WithMarkdownOnly(only bool) Option {
	return func(s *Source) {
		s.markdownOnly = only
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a Source rooted at dir. The directory must exist.
func New(dir string, opts ...Option) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, &fs.PathError{Op: "open", Path: dir, Err: fs.ErrInvalid}
	}

	s := &Source{
		root:   dir,
		logger: slog.Default().With("component", "fs-vault"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// List enumerates all documents under the root.
func (s *Source) List(ctx context.Context) ([]vault.DocumentInfo, error) {
	var docs []vault.DocumentInfo

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			// Skip hidden directories such as .git or .obsidian.
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		ext := filepath.Ext(d.Name())
		if s.markdownOnly && ext != ".md" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		docs = append(docs, vault.DocumentInfo{
			Path:      s.relPath(path),
			Extension: ext,
			Size:      info.Size(),
			Modified:  info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// Read returns the full text of the document at the logical path.
func (s *Source) Read(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(s.absPath(path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Subscribe watches the vault tree and translates fsnotify operations into
// document events. Filesystem watchers cannot correlate the two halves of a
// rename, so a moved file surfaces as a delete of the old path followed by a
// create of the new one; EventRename is reserved for hosts that can detect
// moves directly.
func (s *Source) Subscribe(ctx context.Context) (<-chan vault.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the root and every subdirectory.
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	events := make(chan vault.Event)

	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				s.forward(ctx, watcher, ev, events)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watcher error", "err", err)
			}
		}
	}()

	return events, nil
}

func (s *Source) forward(ctx context.Context, watcher *fsnotify.Watcher, ev fsnotify.Event, out chan<- vault.Event) {
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	var event vault.Event
	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := watcher.Add(ev.Name); err != nil {
				s.logger.Warn("failed to watch new directory", "path", ev.Name, "err", err)
			}
			return
		}
		if s.markdownOnly && filepath.Ext(name) != ".md" {
			return
		}
		event = vault.Event{Type: vault.EventCreate, Path: s.relPath(ev.Name)}

	case ev.Op.Has(fsnotify.Write):
		if s.markdownOnly && filepath.Ext(name) != ".md" {
			return
		}
		event = vault.Event{Type: vault.EventModify, Path: s.relPath(ev.Name)}

	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		event = vault.Event{Type: vault.EventDelete, Path: s.relPath(ev.Name)}

	default:
		return
	}

	select {
	case out <- event:
	case <-ctx.Done():
	}
}

func (s *Source) relPath(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (s *Source) absPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}
