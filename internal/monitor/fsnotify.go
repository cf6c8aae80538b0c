package monitor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// InputWatcher is the fallback hotplug source: it watches /dev/input with
// fsnotify and forwards create/remove of event nodes to the sink. Used when
// the netlink udev monitor cannot start (e.g. in containers without udev).
type InputWatcher struct {
	dir  string
	sink DeviceSink
}

// NewInputWatcher watches the given directory; pass "/dev/input" in
// production.
func NewInputWatcher(dir string, sink DeviceSink) *InputWatcher {
	return &InputWatcher{dir: dir, sink: sink}
}

// Run watches until the context is cancelled.
func (w *InputWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}
	log.Debugf("Filesystem hotplug watcher started on %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			log.Debug("Filesystem hotplug watcher stopped")
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasPrefix(filepath.Base(event.Name), "event") {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Create):
				log.Debugf("Watcher: added %s", event.Name)
				w.sink.AddDevice(event.Name)
			case event.Op.Has(fsnotify.Remove):
				log.Debugf("Watcher: removed %s", event.Name)
				w.sink.RemoveDevice(event.Name)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnf("Filesystem watcher error: %v", err)
		}
	}
}
