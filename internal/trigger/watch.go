// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package trigger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Watcher waits for a complete trigger manifest in an archive directory.
type Watcher struct {
	log  logr.Logger
	dir  string
	name string
	// Interval and Timeout bound the wait for the listed archives to appear
	// once the manifest is complete.
	Interval time.Duration
	Timeout  time.Duration
}

// NewWatcher returns a Watcher for the manifest name in dir.
func NewWatcher(log logr.Logger, dir, name string) *Watcher {
	if name == "" {
		name = ManifestFileName
	}
	return &Watcher{log: log, dir: dir, name: name, Interval: time.Second, Timeout: time.Minute}
}

// Path returns the watched manifest path.
func (w *Watcher) Path() string {
	return filepath.Join(w.dir, w.name)
}

// Wait blocks until the manifest is complete and every archive it lists is
// present, or ctx is done.
func (w *Watcher) Wait(ctx context.Context) (*Manifest, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(w.dir); err != nil {
		return nil, fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	m, err := w.load()
	for m == nil {
		if err != nil {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil, errors.New("watcher closed")
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.Path()) || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.log.V(1).Info("Trigger manifest changed", "path", ev.Name, "op", ev.Op.String())
			m, err = w.load()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil, errors.New("watcher closed")
			}
			w.log.Error(err, "Watch error", "dir", w.dir)
		}
	}
	w.log.Info("Trigger manifest complete", "archives", len(m.JarFileNames), "users", m.OSSUserIDs)

	var lastErr error
	if err := wait.PollUntilContextTimeout(ctx, w.Interval, w.Timeout, true, func(ctx context.Context) (bool, error) {
		lastErr = m.Validate(w.dir)
		return lastErr == nil, nil
	}); err != nil {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return m, nil
}

// load returns the manifest once it is complete and nil while it is absent,
// unparsable or incomplete.
func (w *Watcher) load() (*Manifest, error) {
	data, err := os.ReadFile(w.Path())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	}
	m, err := Parse(data)
	switch {
	case err != nil:
		// The manifest may still be in the middle of being written.
		w.log.Info("Ignoring unparsable trigger manifest", "path", w.Path(), "error", err.Error())
		return nil, nil
	case !m.Complete:
		w.log.V(1).Info("Trigger manifest not complete yet", "path", w.Path())
		return nil, nil
	}
	return m, nil
}
