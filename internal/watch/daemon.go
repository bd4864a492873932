package watch

import (
	"sync"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/log"
)

// Dropper receives the files that settled in the drop folder.
type Dropper interface {
	Drop(paths []string)
}

// DaemonStatus represents the current status of the daemon
type DaemonStatus struct {
	Running        bool      // Whether the daemon is currently active
	Directory      string    // Drop folder being watched
	LastActivity   time.Time // Time of last file activity
	FilesProcessed int       // Total files handed to the widget
}

// Daemon feeds files from a drop folder into a Dropper.
type Daemon struct {
	watcher *Watcher
	sink    Dropper

	// Statistics
	processed    int
	lastActivity time.Time

	// Callback for when a file is handed over
	callback func(path string)

	mutex   sync.RWMutex
	running bool
	done    chan struct{}
}

// NewDaemon creates a daemon watching cfg.Watch.Directory.
func NewDaemon(cfg *config.Config, sink Dropper) (*Daemon, error) {
	if cfg.Watch.Directory == "" {
		return nil, errors.NewConfigError("no drop folder configured", "watch.directory", errors.InvalidConfig, nil)
	}
	watcher, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return &Daemon{
		watcher:      watcher,
		sink:         sink,
		lastActivity: time.Now(),
	}, nil
}

// Start begins watching and forwarding files.
func (d *Daemon) Start() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.running {
		return errors.New("daemon is already running")
	}
	if err := d.watcher.Start(); err != nil {
		return err
	}
	d.running = true
	d.done = make(chan struct{})
	go d.processEvents(d.done)
	return nil
}

// Stop halts the daemon and waits for the last file to be handed over.
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	done := d.done
	d.mutex.Unlock()

	d.watcher.Stop()
	<-done
}

// SetCallback sets a function to be called after a file is handed over
func (d *Daemon) SetCallback(cb func(path string)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// Status returns the current status of the daemon
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	return DaemonStatus{
		Running:        d.running,
		Directory:      d.watcher.Directory(),
		LastActivity:   d.lastActivity,
		FilesProcessed: d.processed,
	}
}

func (d *Daemon) processEvents(done chan struct{}) {
	defer close(done)
	for f := range d.watcher.FileChannel() {
		log.LogWithFields(log.F("path", f.Path), log.F("size", f.Info.Size())).Info("File dropped into folder")
		d.sink.Drop([]string{f.Path})

		d.mutex.Lock()
		d.processed++
		d.lastActivity = f.Timestamp
		cb := d.callback
		d.mutex.Unlock()

		if cb != nil {
			cb(f.Path)
		}
	}
}
