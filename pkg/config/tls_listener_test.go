package config

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestCertificate generates a self-signed certificate and key pair
// under the test's temp directory and returns the file paths.
func writeTestCertificate(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("cannot generate key: %v", err)
	}

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		DNSNames:     []string{"localhost"},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("cannot create certificate: %v", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("cannot marshal key: %v", err)
	}

	dir := t.TempDir()
	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})

	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatalf("cannot write certificate file: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatalf("cannot write key file: %v", err)
	}

	return certFile, keyFile
}

func TestBuild_TLSListener(t *testing.T) {
	certFile, keyFile := writeTestCertificate(t)

	cfg := &Config{
		Proxies: []ProxyEntry{
			{
				ListenOn: ListenOnConfig{
					URL:             "https://127.0.0.1:8443/metrics",
					CertificateFile: certFile,
					KeyFile:         keyFile,
				},
				ConnectTo: ConnectToConfig{URL: "http://127.0.0.1:9100/metrics", Timeout: time.Second},
			},
		},
	}
	ApplyDefaults(cfg)

	topology, err := Build(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	listener := topology.Listeners[0]
	if listener.Transport != TransportTLS {
		t.Errorf("expected TLS transport, got %s", listener.Transport)
	}
	if listener.Certificate == nil {
		t.Error("expected resolved TLS material on the listener")
	}
	if listener.CertificateFile != certFile || listener.KeyFile != keyFile {
		t.Error("expected material file paths recorded on the listener")
	}
}

func TestBuild_MixedTransportConflict(t *testing.T) {
	certFile, keyFile := writeTestCertificate(t)

	cfg := &Config{
		Proxies: []ProxyEntry{
			{
				ListenOn:  ListenOnConfig{URL: "http://127.0.0.1:8443/plain"},
				ConnectTo: ConnectToConfig{URL: "http://127.0.0.1:9100/metrics", Timeout: time.Second},
			},
			{
				ListenOn: ListenOnConfig{
					URL:             "https://127.0.0.1:8443/secure",
					CertificateFile: certFile,
					KeyFile:         keyFile,
				},
				ConnectTo: ConnectToConfig{URL: "http://127.0.0.1:9101/metrics", Timeout: time.Second},
			},
		},
	}
	ApplyDefaults(cfg)

	_, err := Build(cfg)
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if conflictErr.First != 1 || conflictErr.Second != 2 {
		t.Errorf("expected conflict between proxy 1 and proxy 2, got %d and %d",
			conflictErr.First, conflictErr.Second)
	}
}
