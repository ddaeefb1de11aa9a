// Package certprovider loads the server TLS context.
package certprovider

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches certificate files and reloads on changes.
type Watcher struct {
	src    Source
	cert   *tls.Certificate
	mu     sync.RWMutex
	done   chan struct{}
	stop   sync.Once
	logger *slog.Logger
	onLoad func(error)

	// Debounce settings to avoid multiple reloads
	debounce   time.Duration
	lastReload time.Time
	reloadMu   sync.Mutex
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithDebounce sets the debounce duration.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook sets a function called after every reload attempt
// triggered by a file change.
func WithReloadHook(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onLoad = fn
	}
}

// NewWatcher loads the certificate once and returns a watcher for it.
func NewWatcher(src Source, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		src:      src,
		done:     make(chan struct{}),
		logger:   slog.Default(),
		debounce: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("certprovider: initial load: %w", err)
	}

	return w, nil
}

// TLSConfig returns a server config that always presents the current certificate.
func (w *Watcher) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: w.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// Start starts watching for certificate changes.
// This function blocks until Stop() is called.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("certprovider: create watcher: %w", err)
	}
	defer watcher.Close()

	// Directories are watched to catch editors that replace files by rename.
	names := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, f := range w.src.Files() {
		names[filepath.Base(f)] = struct{}{}
		dir := filepath.Dir(f)
		if _, ok := dirs[dir]; ok {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("certprovider: watch dir %s: %w", dir, err)
		}
		dirs[dir] = struct{}{}
	}

	w.logger.Info("certificate watcher started", "files", w.src.Files())

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, ok := names[filepath.Base(event.Name)]; !ok {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.logger.Debug("certificate file changed",
				"file", event.Name,
				"op", event.Op.String(),
			)

			err := w.debouncedReload()
			if err != nil {
				w.logger.Error("certificate reload failed, keeping previous certificate",
					"error", err,
				)
			}
			if w.onLoad != nil {
				w.onLoad(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("certificate watcher error", "error", err)

		case <-w.done:
			return nil
		}
	}
}

// StartAsync starts watching in a goroutine.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.logger.Error("certificate watcher stopped with error",
				"error", err,
			)
		}
	}()
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stop.Do(func() { close(w.done) })
}

// GetCertificate returns the current certificate.
// This implements tls.Config.GetCertificate.
func (w *Watcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// debouncedReload reloads the certificate with debouncing.
func (w *Watcher) debouncedReload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	now := time.Now()
	if now.Sub(w.lastReload) < w.debounce {
		return nil
	}
	w.lastReload = now

	// Small delay to ensure file write is complete
	time.Sleep(100 * time.Millisecond)

	return w.reload()
}

func (w *Watcher) reload() error {
	cert, err := w.src.Load()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.cert = cert
	w.mu.Unlock()

	w.logger.Info("certificate loaded", "files", w.src.Files())
	return nil
}
