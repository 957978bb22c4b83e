package utils

import (
	"fmt"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"path"
	"time"
)

const DefaultWatchDebounce = 5 * time.Second

func watcherLoop(filePath string, debounce time.Duration, watcher *fsnotify.Watcher, f func()) {
	var lastEvent time.Time
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			log.WithFields(log.Fields{
				"name": event.Name,
				"op":   event.Op,
			}).Debug("File watcher")
			if path.Clean(event.Name) == path.Clean(filePath) &&
				(event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create) &&
				time.Since(lastEvent) >= debounce {
				lastEvent = time.Now()
				f()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.WithField("error", fmt.Sprint(err)).Error("File watcher")
		}
	}
}

// NewFileWatcher calls f when filePath is written, at most once per debounce interval.
func NewFileWatcher(filePath string, debounce time.Duration, f func()) (*fsnotify.Watcher, error) {
	var watcher, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	go watcherLoop(filePath, debounce, watcher, f)
	err = watcher.Add(path.Dir(filePath))
	return watcher, err
}
