package engine

import (
	"errors"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/ignis/engine/core"
)

// ConfigWatcher reloads the config file whenever it is written and delivers
// every successfully parsed version on Updates. Invalid files are logged and
// skipped.
type ConfigWatcher struct {
	path     string
	fsnotify *fsnotify.Watcher
	updates  chan *ApplicationConfig
	done     chan struct{}
	isClosed bool
}

func NewConfigWatcher(path string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Editors often replace the file instead of writing it, so the parent
	// directory is watched and events are filtered by name.
	if err := fsWatch.Add(filepath.Dir(abs)); err != nil {
		fsWatch.Close()
		return nil, err
	}

	cw := &ConfigWatcher{
		path:     abs,
		fsnotify: fsWatch,
		updates:  make(chan *ApplicationConfig, 1),
		done:     make(chan struct{}),
	}
	go cw.start()
	return cw, nil
}

// Updates never blocks the watcher: only the most recent config is kept.
func (cw *ConfigWatcher) Updates() <-chan *ApplicationConfig {
	return cw.updates
}

func (cw *ConfigWatcher) Close() error {
	if cw.isClosed {
		return errors.New("config watcher already closed")
	}
	cw.isClosed = true
	close(cw.done)
	return nil
}

func (cw *ConfigWatcher) start() {
	for {
		select {
		case e, ok := <-cw.fsnotify.Events:
			if !ok {
				return
			}
			if filepath.Clean(e.Name) != cw.path {
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				cw.reload()
			}

		case err, ok := <-cw.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("config watcher: %s", err)

		case <-cw.done:
			cw.fsnotify.Close()
			return
		}
	}
}

func (cw *ConfigWatcher) reload() {
	config, err := LoadConfig(cw.path)
	if err != nil {
		core.LogWarn("ignoring config change in %s: %s", cw.path, err)
		return
	}
	// drop a pending config nobody has read yet
	select {
	case <-cw.updates:
	default:
	}
	select {
	case cw.updates <- config:
	default:
	}
	core.LogDebug("config %s reloaded", cw.path)
}
