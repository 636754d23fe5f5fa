package tlsroots

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/gridwire-go/internal/telemetry/logger"
)

// DefaultDebounce is how long the files must be quiet before a reload.
const DefaultDebounce = 500 * time.Millisecond

// CertWatcher serves a certificate pair and reloads it when either file
// changes on disk.
type CertWatcher struct {
	certFile string
	keyFile  string
	debounce time.Duration
	log      logger.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	done     chan struct{}
	stopOnce sync.Once
}

// NewCertWatcher loads the pair once and returns the watcher. Call Start
// or StartAsync to follow changes.
func NewCertWatcher(certFile, keyFile string, log logger.Logger) (*CertWatcher, error) {
	if log == nil {
		log = logger.Default()
	}
	w := &CertWatcher{
		certFile: certFile,
		keyFile:  keyFile,
		debounce: DefaultDebounce,
		log:      log.With("component", "tls"),
		done:     make(chan struct{}),
	}
	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// ServerConfig returns a server TLS config backed by the watcher.
func (w *CertWatcher) ServerConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: w.GetCertificate,
		MinVersion:     tls.VersionTLS12,
	}
}

// GetCertificate implements tls.Config.GetCertificate.
func (w *CertWatcher) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// Start follows the certificate directories until Stop.
func (w *CertWatcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fw.Close()

	// Directories rather than files, so rename-into-place is seen.
	dirs := map[string]bool{filepath.Dir(w.certFile): true, filepath.Dir(w.keyFile): true}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}
	w.log.Info("certificate watcher started", "cert_file", w.certFile)

	names := map[string]bool{filepath.Base(w.certFile): true, filepath.Base(w.keyFile): true}
	var pending <-chan time.Time
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !names[filepath.Base(event.Name)] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			// Wait for the pair to settle; cert and key are usually
			// replaced one after the other.
			pending = time.After(w.debounce)
		case <-pending:
			pending = nil
			if err := w.reload(); err != nil {
				w.log.Error("certificate reload failed", "error", err, "cert_file", w.certFile)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("certificate watcher error", "error", err)
		case <-w.done:
			return nil
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *CertWatcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.log.Error("certificate watcher stopped", "error", err)
		}
	}()
}

// Stop ends Start. Safe to call more than once.
func (w *CertWatcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// reload keeps the previous pair when the new one fails to load.
func (w *CertWatcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}
	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()
	w.log.Info("certificate loaded", "cert_file", w.certFile)
	return nil
}
