package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// reloadDelay collapses the burst of events an editor save produces
const reloadDelay = 100 * time.Millisecond

// Watch reloads the config at path whenever it changes on disk and hands
// the result to onChange. Files that fail to load are logged and skipped.
// onChange runs on the watcher goroutine. Returns a function to stop watching.
func Watch(path string, onChange func(*Config)) (func(), error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	// Watch the directory: editors often replace the file instead of writing it
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	log := logrus.WithField("config", path)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		var timer <-chan time.Time
		for {
			select {
			case <-done:
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
					timer = time.After(reloadDelay)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")
			case <-timer:
				timer = nil
				cfg, err := LoadFile(path)
				if err != nil {
					log.WithError(err).Warn("ignoring config change")
					continue
				}
				log.Info("config reloaded")
				onChange(cfg)
			}
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			close(done)
			w.Close()
			wg.Wait()
		})
	}
	return stop, nil
}
