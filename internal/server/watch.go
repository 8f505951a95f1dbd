package server

import (
	"context"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces rapid file events (editors often write a file
// several times in quick succession) into a single rehydrate.
const debounceDelay = 200 * time.Millisecond

// WatchStore watches the task store file and calls rehydrate whenever an
// external writer touches it. The parent directory is watched rather than
// the file itself so atomically replaced files keep triggering events.
// The returned stop function shuts the watcher down.
func WatchStore(storePath string, rehydrate func() error, logger *log.Logger) (stop func(), err error) {
	if logger == nil {
		logger = log.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(storePath)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu    sync.Mutex
		timer *time.Timer
	)

	fire := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounceDelay, func() {
			if err := rehydrate(); err != nil {
				logger.Printf("store watch: rehydrate failed: %v", err)
			}
		})
	}

	target := filepath.Clean(storePath)
	go func() {
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				fire()
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Printf("store watch: %v", err)
			}
		}
	}()

	return func() {
		cancel()
		_ = fsw.Close()
	}, nil
}
