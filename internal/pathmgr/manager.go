// Package pathmgr answers "give me a local audio path for this content
// ID", serving from the cache folder when possible and otherwise running
// one acquisition per ID no matter how many callers ask.
package pathmgr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sumwave/otodl/internal/acquire"
	"github.com/sumwave/otodl/internal/utils"
)

// DefaultLimit is the maximum number of acquisitions running at once.
const DefaultLimit = 5

// flight is one in-progress acquisition plus everyone waiting on it.
type flight struct {
	status utils.Status
	body   utils.StatusBody
	fns    []utils.StatusFunc
	done   chan struct{}
	err    error
}

// Manager owns the cache folders and the in-flight registry.
type Manager struct {
	worker *acquire.Worker
	sem    chan struct{}

	mu       sync.Mutex
	inflight map[string]*flight
}

// New creates a Manager running at most limit concurrent acquisitions.
// limit <= 0 selects DefaultLimit.
func New(worker *acquire.Worker, limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{
		worker:   worker,
		sem:      make(chan struct{}, limit),
		inflight: make(map[string]*flight),
	}
}

// GetAudioPath returns the local path of the cached audio for req,
// acquiring it first if needed. It returns "" on any failure; details go
// to the log and to the status callback stream.
func (m *Manager) GetAudioPath(ctx context.Context, req utils.AcquisitionRequest, status utils.StatusFunc) string {
	path, err := m.Acquire(ctx, req, status)
	if err != nil {
		log.Error().Str("op", "pathmgr/manager").Err(err).Msgf("acquisition of %s failed", req.Key())
	}
	return path
}

// Acquire is GetAudioPath with the failure reason exposed. A non-empty
// path is returned even when the acquisition reported an error, as long
// as the file turned up on disk.
func (m *Manager) Acquire(ctx context.Context, req utils.AcquisitionRequest, status utils.StatusFunc) (string, error) {
	if status == nil {
		status = func(utils.Status, utils.StatusBody) {}
	}
	if !req.Service.Valid() {
		return "", fmt.Errorf("%w: %q", acquire.ErrUnknownService, req.Service)
	}
	status(utils.StatusLoading, utils.StatusBody{Percent: utils.Pct(1), Service: req.Service})
	dir := filepath.Join(m.worker.Root, string(req.Service))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache folder: %w", err)
	}
	key := req.Key()
	if path := findCached(dir, key); path != "" {
		status(utils.StatusDone, utils.StatusBody{Percent: utils.Pct(100), Service: req.Service})
		return path, nil
	}
	err := m.await(ctx, req, status)
	// Rescan regardless of the reported outcome; the file on disk is the
	// source of truth.
	status(utils.StatusLoading, utils.StatusBody{Percent: utils.Pct(90), Service: req.Service})
	path := findCached(dir, key)
	status(utils.StatusDone, utils.StatusBody{Percent: utils.Pct(100), Service: req.Service})
	if path != "" {
		return path, nil
	}
	if err == nil {
		err = fmt.Errorf("acquisition of %s produced no cache entry", key)
	}
	return "", err
}

// await joins the in-flight acquisition for req's key, starting one if
// none is running. It returns once the acquisition finished, with its
// final error.
func (m *Manager) await(ctx context.Context, req utils.AcquisitionRequest, status utils.StatusFunc) error {
	key := string(req.Service) + "/" + req.Key()
	m.mu.Lock()
	if f, ok := m.inflight[key]; ok {
		// Replay the current state so late joiners do not sit on a stale
		// status until the next transition.
		status(f.status, f.body)
		f.fns = append(f.fns, status)
		m.mu.Unlock()
		log.Debug().Str("op", "pathmgr/manager").Msgf("waiting on in-flight acquisition of %s", key)
		select {
		case <-f.done:
			return f.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f := &flight{
		status: utils.StatusLoading,
		body:   utils.StatusBody{Percent: utils.Pct(1), Service: req.Service},
		fns:    []utils.StatusFunc{status},
		done:   make(chan struct{}),
	}
	m.inflight[key] = f
	m.mu.Unlock()
	log.Debug().Str("op", "pathmgr/manager").Msgf("starting acquisition of %s", key)

	err := func() error {
		select {
		case m.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
		defer func() { <-m.sem }()
		_, err := m.worker.Acquire(ctx, req, func(s utils.Status, body utils.StatusBody) {
			m.broadcast(key, s, body)
		})
		return err
	}()

	m.mu.Lock()
	delete(m.inflight, key)
	m.mu.Unlock()
	f.err = err
	close(f.done)
	return err
}

// broadcast records the latest state on the flight and fans it out to
// every registered callback.
func (m *Manager) broadcast(key string, status utils.Status, body utils.StatusBody) {
	m.mu.Lock()
	f, ok := m.inflight[key]
	if !ok {
		m.mu.Unlock()
		return
	}
	f.status = status
	f.body = body
	fns := make([]utils.StatusFunc, len(f.fns))
	copy(fns, f.fns)
	m.mu.Unlock()
	for _, fn := range fns {
		fn(status, body)
	}
}

// findCached returns the path of the cache entry whose name starts with
// key followed by an extension dot, or "".
func findCached(dir, key string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), key+".") {
			return filepath.Join(dir, entry.Name())
		}
	}
	return ""
}
