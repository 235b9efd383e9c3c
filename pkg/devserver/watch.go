package devserver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the catalog from path whenever the file changes and
// publishes the differences, until ctx ends. The parent directory is
// watched so editors that replace the file atomically are noticed.
func (s *Server) Watch(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			s.log.Warnf("failed to close catalog watcher: %v", err)
		}
	}()

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}
	s.log.Infof("watching catalog %s for changes", path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Let the writer finish.
			time.Sleep(100 * time.Millisecond)
			if err := s.Reload(path); err != nil {
				s.log.Errorf("reloading catalog: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warnf("catalog watcher error: %v", err)
		}
	}
}

// Reload replaces the catalog with the contents of path and publishes one
// event per changed gig.
func (s *Server) Reload(path string) error {
	gigs, err := readGigs(path)
	if err != nil {
		return err
	}
	events, err := s.catalog.Replace(gigs)
	if err != nil {
		return err
	}
	s.log.Infof("catalog reloaded: %d gigs, %d changes", len(gigs), len(events))
	s.publish(events...)
	return nil
}
