// Package widget is the upload and search widget shared by every front-end.
// It turns accepted files into entries, drives each entry through the
// simulated upload and the OCR submission, and runs searches.
package widget

import (
	"context"
	"strings"
	"sync"
	"time"

	"ocrdrop/internal/config"
	"ocrdrop/internal/errors"
	"ocrdrop/internal/intake"
	"ocrdrop/internal/log"
	"ocrdrop/internal/store"
	"ocrdrop/internal/upload"
	"ocrdrop/pkg/types"
)

// Messages shown on entries and on the search panel.
const (
	MsgOCRMalformed    = "OCR processing failed: Invalid flag or output format."
	MsgOCRFailed       = "OCR processing failed. Please try again."
	MsgSearchEmpty     = "Please enter a file name to search."
	MsgSearchMalformed = "Search failed: Invalid flag or output format."
	MsgSearchFailed    = "Search failed. Please try again."
)

// OCR is the remote service used after a successful upload and for search.
type OCR interface {
	Submit(ctx context.Context, file types.FileHandle) ([]types.PageResult, error)
	Search(ctx context.Context, query string) ([]types.SearchResult, error)
}

// Summary counts entries by status.
type Summary struct {
	Total     int
	Pending   int
	Uploading int
	Success   int
	Error     int
}

type request struct {
	attempt int
	cancel  context.CancelFunc
}

// Widget owns the entries, the simulator and the search panel.
type Widget struct {
	store    *store.Store
	sim      *upload.Simulator
	ocr      OCR
	filter   *intake.Filter
	dropZone *intake.DropZone

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders OCR bookkeeping with the entry patches that go with it.
	// It must not be held while calling into the simulator.
	mu       sync.Mutex
	requests map[string]request

	searchMu  sync.Mutex
	search    types.SearchState
	searchSeq int
	searching int
}

// Option customises a Widget.
type Option func(*options)

type options struct {
	strategy upload.Strategy
	storeOps []store.Option
}

// WithStrategy replaces the strategy built from the configuration.
func WithStrategy(s upload.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithStoreOptions passes options to the entry store.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOps = append(o.storeOps, opts...) }
}

// New creates a widget configured by cfg and backed by client.
func New(cfg *config.Config, client OCR, opts ...Option) *Widget {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.strategy == nil {
		o.strategy = upload.FromConfig(cfg, nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Widget{
		store:    store.New(o.storeOps...),
		sim:      upload.NewSimulator(o.strategy, cfg.Upload.TickInterval, cfg.Upload.SettleDelay),
		ocr:      client,
		filter:   intake.NewFilter(cfg.Intake.AcceptedTypes),
		ctx:      ctx,
		cancel:   cancel,
		requests: make(map[string]request),
	}
	w.dropZone = intake.NewDropZone(func(paths []string) { w.AddPaths(paths) })
	return w
}

// DropZone is the input surface feeding AddPaths.
func (w *Widget) DropZone() *intake.DropZone { return w.dropZone }

// Filter is the accepted-type filter.
func (w *Widget) Filter() *intake.Filter { return w.filter }

// AddPaths acquires the files at paths and adds the accepted ones.
func (w *Widget) AddPaths(paths []string) []types.FileEntry {
	return w.AddFiles(w.filter.Acquire(paths))
}

// AddFiles adds one entry per accepted handle and starts its upload.
// Handles of other types are skipped.
func (w *Widget) AddFiles(files []types.FileHandle) []types.FileEntry {
	kept := w.filter.Keep(files)
	if skipped := len(files) - len(kept); skipped > 0 {
		log.Debugf("Skipped %d file(s) of unaccepted type", skipped)
	}

	added := make([]types.FileEntry, 0, len(kept))
	for _, h := range kept {
		e := w.store.Create(h)
		log.LogWithFields(log.F("entry_id", e.ID), log.F("file", h.Name), log.F("size", h.Size)).Info("File added")
		w.start(e.ID, e.Attempt)
		added = append(added, e)
	}
	return added
}

// Entries returns a copy of every entry in the order they were added.
func (w *Widget) Entries() []types.FileEntry { return w.store.List() }

// Entry returns a copy of one entry.
func (w *Widget) Entry(id string) (types.FileEntry, bool) { return w.store.Get(id) }

// Subscribe returns a coalesced change signal for the entries.
func (w *Widget) Subscribe() (<-chan struct{}, func()) { return w.store.Subscribe() }

// Summary counts the current entries by status.
func (w *Widget) Summary() Summary {
	var s Summary
	for _, e := range w.store.List() {
		s.Total++
		switch e.Status {
		case types.StatusPending:
			s.Pending++
		case types.StatusUploading:
			s.Uploading++
		case types.StatusSuccess:
			s.Success++
		case types.StatusError:
			s.Error++
		}
	}
	return s
}

// Retry restarts the upload of an entry in the error state.
func (w *Widget) Retry(id string) error {
	w.mu.Lock()
	cur, ok := w.store.Get(id)
	if !ok {
		w.mu.Unlock()
		return errors.NewEntryError("cannot retry", id, errors.EntryNotFound, nil)
	}
	if cur.Status != types.StatusError {
		w.mu.Unlock()
		return errors.NewEntryError("cannot retry "+string(cur.Status)+" entry", id, errors.NotRetryable, nil)
	}
	w.cancelRequestLocked(id)
	e, _ := w.store.Patch(id, func(e *types.FileEntry) {
		e.Attempt++
		e.Status = types.StatusUploading
		e.Progress = 0
		e.Error = ""
		e.OCRResult = nil
	})
	w.mu.Unlock()

	log.LogWithFields(log.F("entry_id", id), log.F("attempt", e.Attempt)).Info("Retrying upload")
	w.start(id, e.Attempt)
	return nil
}

// Remove drops one entry and cancels its pending work.
func (w *Widget) Remove(id string) error {
	w.sim.Cancel(id)

	w.mu.Lock()
	w.cancelRequestLocked(id)
	ok := w.store.Remove(id)
	w.mu.Unlock()

	if !ok {
		return errors.NewEntryError("cannot remove", id, errors.EntryNotFound, nil)
	}
	log.LogWithFields(log.F("entry_id", id)).Info("File removed")
	return nil
}

// ClearAll drops every entry and returns how many were removed.
func (w *Widget) ClearAll() int {
	w.mu.Lock()
	ids := w.store.Clear()
	for _, id := range ids {
		w.cancelRequestLocked(id)
	}
	w.mu.Unlock()

	for _, id := range ids {
		w.sim.Cancel(id)
	}
	if len(ids) > 0 {
		log.Info("Cleared %d file(s)", len(ids))
	}
	return len(ids)
}

// Wait blocks until every entry reached a final state and no OCR request
// is in flight, or ctx is done.
func (w *Widget) Wait(ctx context.Context) error {
	changed, unsubscribe := w.store.Subscribe()
	defer unsubscribe()
	for {
		if w.settled() {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels all pending work and waits for it to stop.
func (w *Widget) Close() {
	w.cancel()
	w.sim.Close()
	w.wg.Wait()
}

func (w *Widget) settled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.requests) > 0 {
		return false
	}
	for _, e := range w.store.List() {
		if !e.Status.Terminal() {
			return false
		}
	}
	return true
}

// start moves the entry into uploading and arms the simulator for attempt.
func (w *Widget) start(id string, attempt int) {
	if _, ok := w.store.PatchAttempt(id, attempt, func(e *types.FileEntry) {
		e.Status = types.StatusUploading
		e.Progress = 0
	}); !ok {
		return
	}

	w.sim.Start(w.ctx, id, upload.Callbacks{
		Progress: func(p float64) {
			w.store.PatchAttempt(id, attempt, func(e *types.FileEntry) {
				if e.Status == types.StatusUploading && p > e.Progress {
					e.Progress = p
				}
			})
		},
		Done: func(ok bool) {
			if !ok {
				w.fail(id, attempt, upload.FailureMessage)
				return
			}
			w.uploaded(id, attempt)
		},
	})
}

func (w *Widget) fail(id string, attempt int, msg string) {
	if _, ok := w.store.PatchAttempt(id, attempt, func(e *types.FileEntry) {
		e.Status = types.StatusError
		e.Progress = 100
		e.Error = msg
		e.OCRResult = nil
	}); ok {
		log.LogWithFields(log.F("entry_id", id), log.F("attempt", attempt), log.F("reason", msg)).Warn("Upload failed")
	}
}

// uploaded marks the entry successful and submits it for OCR.
func (w *Widget) uploaded(id string, attempt int) {
	w.mu.Lock()
	e, ok := w.store.PatchAttempt(id, attempt, func(e *types.FileEntry) {
		e.Status = types.StatusSuccess
		e.Progress = 100
	})
	if !ok {
		w.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(w.ctx)
	w.requests[id] = request{attempt: attempt, cancel: cancel}
	w.wg.Add(1)
	w.mu.Unlock()

	go w.submit(ctx, cancel, e)
}

func (w *Widget) submit(ctx context.Context, cancel context.CancelFunc, e types.FileEntry) {
	defer w.wg.Done()
	defer cancel()

	started := time.Now()
	pages, err := w.ocr.Submit(ctx, e.File)

	w.mu.Lock()
	defer w.mu.Unlock()

	if req, ok := w.requests[e.ID]; !ok || req.attempt != e.Attempt || ctx.Err() != nil {
		return
	}
	delete(w.requests, e.ID)

	fields := []log.Field{log.F("entry_id", e.ID), log.F("file", e.File.Name), log.F("elapsed", time.Since(started).Round(time.Millisecond))}
	if err != nil {
		msg := MsgOCRFailed
		if errors.IsMalformedResponse(err) {
			msg = MsgOCRMalformed
		}
		w.store.PatchAttempt(e.ID, e.Attempt, func(e *types.FileEntry) {
			e.Status = types.StatusError
			e.Error = msg
			e.OCRResult = nil
		})
		log.LogWithError(err).With(fields...).Warn("OCR submission failed")
		return
	}

	w.store.PatchAttempt(e.ID, e.Attempt, func(e *types.FileEntry) {
		e.OCRResult = pages
		e.Error = ""
	})
	log.LogWithFields(append(fields, log.F("pages", len(pages)))...).Info("OCR completed")
}

func (w *Widget) cancelRequestLocked(id string) {
	if req, ok := w.requests[id]; ok {
		req.cancel()
		delete(w.requests, id)
	}
}

// SearchState returns the current search panel.
func (w *Widget) SearchState() types.SearchState {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	return cloneSearch(w.search)
}

// Searching reports whether a search request is in flight.
func (w *Widget) Searching() bool {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	return w.searching > 0
}

// Search runs a file-name search and replaces the search panel with its
// outcome. A blank query fails locally without a request. When searches
// overlap, only the most recent one updates the panel.
func (w *Widget) Search(ctx context.Context, query string) types.SearchState {
	q := strings.TrimSpace(query)
	if q == "" {
		return w.setSearch(w.nextSearch(), types.SearchState{Query: query, Error: MsgSearchEmpty})
	}

	seq := w.nextSearch()
	w.searchMu.Lock()
	w.searching++
	w.searchMu.Unlock()

	results, err := w.ocr.Search(ctx, q)

	w.searchMu.Lock()
	w.searching--
	w.searchMu.Unlock()

	if err != nil {
		msg := MsgSearchFailed
		if errors.IsMalformedResponse(err) {
			msg = MsgSearchMalformed
		}
		log.LogWithError(err).Warn("Search failed")
		return w.setSearch(seq, types.SearchState{Query: query, Error: msg})
	}
	log.LogWithFields(log.F("query", q), log.F("results", len(results))).Info("Search completed")
	return w.setSearch(seq, types.SearchState{Query: query, Results: results})
}

func (w *Widget) nextSearch() int {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	w.searchSeq++
	return w.searchSeq
}

// setSearch stores st when seq is still the latest search and returns the
// panel as it stands.
func (w *Widget) setSearch(seq int, st types.SearchState) types.SearchState {
	w.searchMu.Lock()
	defer w.searchMu.Unlock()
	if seq == w.searchSeq {
		w.search = st
	}
	return cloneSearch(w.search)
}

func cloneSearch(st types.SearchState) types.SearchState {
	if st.Results != nil {
		results := make([]types.SearchResult, len(st.Results))
		for i, r := range st.Results {
			results[i] = types.SearchResult{Source: r.Source, PageResult: r.PageResult.Clone()}
		}
		st.Results = results
	}
	return st
}
