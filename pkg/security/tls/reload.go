package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce is how long the reloader waits after a file event before
// reloading, so that a certificate and key written in quick succession are
// picked up together.
const reloadDebounce = 250 * time.Millisecond

// CertificateReloader serves a certificate that can be swapped at runtime.
// It watches the certificate and key files with fsnotify and atomically
// replaces the served certificate when they change; the serve path only ever
// reads the in-memory copy.
type CertificateReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	cert atomic.Pointer[tls.Certificate]
}

// NewCertificateReloader loads the initial certificate material and returns
// a reloader serving it.
func NewCertificateReloader(certFile, keyFile string, logger *slog.Logger) (*CertificateReloader, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &CertificateReloader{
		certFile: certFile,
		keyFile:  keyFile,
		logger:   logger,
	}

	cert, err := LoadMaterial(certFile, keyFile)
	if err != nil {
		return nil, err
	}
	r.cert.Store(cert)
	r.logCertificateInfo()

	return r, nil
}

// GetCertificate implements the tls.Config.GetCertificate callback.
func (r *CertificateReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	return r.cert.Load(), nil
}

// Watch blocks watching the certificate and key files until the context is
// cancelled. File changes trigger a reload; a failed reload keeps the
// previously served certificate.
func (r *CertificateReloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the parent directories: editors and cert-manager style updaters
	// replace files rather than writing them in place.
	dirs := map[string]struct{}{
		filepath.Dir(r.certFile): {},
		filepath.Dir(r.keyFile):  {},
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return err
		}
	}

	r.logger.Info("watching certificate files",
		"cert_file", r.certFile,
		"key_file", r.keyFile,
	)

	var pending *time.Timer
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !r.relevant(event) {
				continue
			}
			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(reloadDebounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Error("certificate watcher error", "error", err)

		case <-reload:
			r.reload()
		}
	}
}

// relevant reports whether an fsnotify event concerns one of the watched files.
func (r *CertificateReloader) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Clean(event.Name)
	return name == filepath.Clean(r.certFile) || name == filepath.Clean(r.keyFile)
}

// reload loads fresh material and swaps it in.
func (r *CertificateReloader) reload() {
	cert, err := LoadMaterial(r.certFile, r.keyFile)
	if err != nil {
		r.logger.Error("failed to reload certificate",
			"error", err,
			"cert_file", r.certFile,
			"key_file", r.keyFile,
		)
		return
	}

	r.cert.Store(cert)
	r.logger.Info("certificate reloaded", "cert_file", r.certFile)
	r.logCertificateInfo()
}

// logCertificateInfo logs the leaf certificate's validity window and warns
// when expiry is near.
func (r *CertificateReloader) logCertificateInfo() {
	cert := r.cert.Load()
	if cert == nil || len(cert.Certificate) == 0 {
		return
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return
	}

	days, warning := CheckCertificateExpiration(leaf)
	r.logger.Info("serving certificate",
		"subject", leaf.Subject.String(),
		"not_after", leaf.NotAfter.Format(time.RFC3339),
		"days_until_expiry", days,
	)
	if warning != "" {
		r.logger.Warn(warning, "cert_file", r.certFile)
	}
}
