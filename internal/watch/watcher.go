// Package watch turns a directory into a drop folder: files that appear in
// it and stop changing are handed to the widget as if they had been dropped.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/log"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DroppedFile is a file that settled in the drop folder.
type DroppedFile struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
}

// Watcher monitors one directory using fsnotify and reports each new or
// rewritten file once it has been quiet for the settle period.
type Watcher struct {
	directory    string
	ignore       []glob.Glob
	settle       time.Duration
	scanExisting bool

	// Channel delivering settled files
	fileChan chan DroppedFile

	// Channel to signal stop
	stopChan chan struct{}

	fsWatcher *fsnotify.Watcher

	// Lock for running state and pending timers
	mutex   sync.Mutex
	running bool
	pending map[string]*pendingFile
	wg      sync.WaitGroup
}

type pendingFile struct {
	timer *time.Timer
}

// New creates a watcher for cfg.Watch.Directory.
func New(cfg *config.Config) (*Watcher, error) {
	return NewWatcher(cfg.Watch.Directory, cfg.Watch.Ignore, cfg.Watch.Settle, cfg.Watch.ScanExisting)
}

// NewWatcher creates a watcher for dir. Names matching any ignore pattern
// are never reported.
func NewWatcher(dir string, ignore []string, settle time.Duration, scanExisting bool) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		kind := errors.FileAccessDenied
		if os.IsNotExist(err) {
			kind = errors.FileNotFound
		}
		return nil, errors.NewFileError("error accessing drop folder", dir, kind, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("drop folder is not a directory", dir, errors.InvalidPath, nil)
	}

	globs := make([]glob.Glob, 0, len(ignore))
	for _, p := range ignore {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.NewConfigError("invalid ignore pattern "+p, "watch.ignore", errors.InvalidConfig, err)
		}
		globs = append(globs, g)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	return &Watcher{
		directory:    dir,
		ignore:       globs,
		settle:       settle,
		scanExisting: scanExisting,
		fileChan:     make(chan DroppedFile, 16),
		stopChan:     make(chan struct{}),
		fsWatcher:    fsWatcher,
		pending:      make(map[string]*pendingFile),
	}, nil
}

// Directory returns the watched directory.
func (w *Watcher) Directory() string { return w.directory }

// FileChannel returns the channel that delivers settled files. It is closed
// by Stop.
func (w *Watcher) FileChannel() <-chan DroppedFile {
	return w.fileChan
}

// Ignored reports whether a file name matches an ignore pattern.
func (w *Watcher) Ignored(name string) bool {
	for _, g := range w.ignore {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Start begins watching.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	if w.running {
		w.mutex.Unlock()
		return errors.New("watcher already running")
	}
	if err := w.fsWatcher.Add(w.directory); err != nil {
		w.mutex.Unlock()
		return errors.NewFileError("failed to watch directory", w.directory, errors.FileAccessDenied, err)
	}
	w.running = true
	w.mutex.Unlock()

	log.LogWithFields(log.F("directory", w.directory), log.F("settle", w.settle)).Info("Watching drop folder")

	if w.scanExisting {
		w.scan()
	}

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop halts watching and closes the file channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	if !w.running {
		w.mutex.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	for path, p := range w.pending {
		p.timer.Stop()
		delete(w.pending, path)
	}
	w.mutex.Unlock()

	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	w.wg.Wait()
	close(w.fileChan)
	log.Info("Watcher stopped.")
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.running
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
				w.touch(event.Name)
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) scan() {
	entries, err := os.ReadDir(w.directory)
	if err != nil {
		log.LogWithError(err).Warn("Cannot scan drop folder")
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			w.touch(filepath.Join(w.directory, e.Name()))
		}
	}
}

// touch (re)starts the settle timer for path.
func (w *Watcher) touch(path string) {
	if w.Ignored(filepath.Base(path)) {
		log.LogWithFields(log.F("path", path)).Debug("Ignoring file")
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if !w.running {
		return
	}
	if p, ok := w.pending[path]; ok && p.timer.Stop() {
		p.timer.Reset(w.settle)
		return
	}
	p := &pendingFile{}
	p.timer = time.AfterFunc(w.settle, func() { w.settled(path, p) })
	w.pending[path] = p
}

func (w *Watcher) settled(path string, p *pendingFile) {
	w.mutex.Lock()
	if !w.running || w.pending[path] != p {
		w.mutex.Unlock()
		return
	}
	delete(w.pending, path)
	w.wg.Add(1)
	w.mutex.Unlock()
	defer w.wg.Done()

	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.LogWithFields(log.F("file", path), log.F("error", err)).Error("Error stating file")
		}
		return
	}
	if !info.Mode().IsRegular() {
		return
	}

	select {
	case w.fileChan <- DroppedFile{Path: path, Info: info, Timestamp: time.Now()}:
	case <-w.stopChan:
	}
}
