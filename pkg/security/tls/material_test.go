package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
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

// keyEncoding selects how generated test keys are written to PEM.
type keyEncoding int

const (
	encodePKCS8 keyEncoding = iota
	encodePKCS1
	encodeSEC1
)

func generateMaterial(t *testing.T, enc keyEncoding) (certPEM, keyPEM []byte) {
	t.Helper()

	var pub any
	var keyBlock *pem.Block

	switch enc {
	case encodePKCS1:
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("cannot generate RSA key: %v", err)
		}
		pub = &key.PublicKey
		keyBlock = &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}

	case encodeSEC1:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			t.Fatalf("cannot generate EC key: %v", err)
		}
		der, err := x509.MarshalECPrivateKey(key)
		if err != nil {
			t.Fatalf("cannot marshal EC key: %v", err)
		}
		pub = &key.PublicKey
		keyBlock = &pem.Block{Type: "EC PRIVATE KEY", Bytes: der}

	default:
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			t.Fatalf("cannot generate key: %v", err)
		}
		der, err := x509.MarshalPKCS8PrivateKey(key)
		if err != nil {
			t.Fatalf("cannot marshal key: %v", err)
		}
		pub = &key.PublicKey
		keyBlock = &pem.Block{Type: "PRIVATE KEY", Bytes: der}
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

	// Template signing requires the matching private key.
	var signer any
	switch keyBlock.Type {
	case "RSA PRIVATE KEY":
		k, _ := x509.ParsePKCS1PrivateKey(keyBlock.Bytes)
		signer = k
	case "EC PRIVATE KEY":
		k, _ := x509.ParseECPrivateKey(keyBlock.Bytes)
		signer = k
	default:
		k, _ := x509.ParsePKCS8PrivateKey(keyBlock.Bytes)
		signer = k
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, pub, signer)
	if err != nil {
		t.Fatalf("cannot create certificate: %v", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM = pem.EncodeToMemory(keyBlock)
	return certPEM, keyPEM
}

func writeMaterial(t *testing.T, certPEM, keyPEM []byte) (certFile, keyFile string) {
	t.Helper()
	dir := t.TempDir()
	certFile = filepath.Join(dir, "server.crt")
	keyFile = filepath.Join(dir, "server.key")
	if err := os.WriteFile(certFile, certPEM, 0o600); err != nil {
		t.Fatalf("cannot write certificate: %v", err)
	}
	if err := os.WriteFile(keyFile, keyPEM, 0o600); err != nil {
		t.Fatalf("cannot write key: %v", err)
	}
	return certFile, keyFile
}

func TestLoadMaterial_KeyEncodings(t *testing.T) {
	tests := []struct {
		name string
		enc  keyEncoding
	}{
		{name: "pkcs8", enc: encodePKCS8},
		{name: "pkcs1 rsa", enc: encodePKCS1},
		{name: "sec1 ec", enc: encodeSEC1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certPEM, keyPEM := generateMaterial(t, tt.enc)
			certFile, keyFile := writeMaterial(t, certPEM, keyPEM)

			cert, err := LoadMaterial(certFile, keyFile)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(cert.Certificate) != 1 {
				t.Errorf("expected 1 certificate in chain, got %d", len(cert.Certificate))
			}
			if cert.PrivateKey == nil {
				t.Error("expected a parsed private key")
			}
		})
	}
}

func TestLoadMaterial_MissingFiles(t *testing.T) {
	certPEM, keyPEM := generateMaterial(t, encodePKCS8)
	certFile, keyFile := writeMaterial(t, certPEM, keyPEM)

	var certErr *CertificateFileError
	if _, err := LoadMaterial(filepath.Join(t.TempDir(), "absent.crt"), keyFile); !errors.As(err, &certErr) {
		t.Errorf("expected CertificateFileError, got %v", err)
	}

	var keyErr *KeyFileError
	if _, err := LoadMaterial(certFile, filepath.Join(t.TempDir(), "absent.key")); !errors.As(err, &keyErr) {
		t.Errorf("expected KeyFileError, got %v", err)
	}
}

func TestLoadMaterial_NoCertificates(t *testing.T) {
	_, keyPEM := generateMaterial(t, encodePKCS8)
	certFile, keyFile := writeMaterial(t, []byte("not a pem file"), keyPEM)

	var certErr *CertificateFileError
	if _, err := LoadMaterial(certFile, keyFile); !errors.As(err, &certErr) {
		t.Errorf("expected CertificateFileError, got %v", err)
	}
}

func TestLoadMaterial_KeyCount(t *testing.T) {
	certPEM, keyPEM := generateMaterial(t, encodePKCS8)

	t.Run("no keys", func(t *testing.T) {
		certFile, keyFile := writeMaterial(t, certPEM, []byte("not a pem file"))

		var countErr *KeyCountError
		_, err := LoadMaterial(certFile, keyFile)
		if !errors.As(err, &countErr) {
			t.Fatalf("expected KeyCountError, got %v", err)
		}
		if countErr.Count != 0 {
			t.Errorf("expected count 0, got %d", countErr.Count)
		}
	})

	t.Run("two keys", func(t *testing.T) {
		_, secondKeyPEM := generateMaterial(t, encodePKCS8)
		doubled := append(append([]byte{}, keyPEM...), secondKeyPEM...)
		certFile, keyFile := writeMaterial(t, certPEM, doubled)

		var countErr *KeyCountError
		_, err := LoadMaterial(certFile, keyFile)
		if !errors.As(err, &countErr) {
			t.Fatalf("expected KeyCountError, got %v", err)
		}
		if countErr.Count != 2 {
			t.Errorf("expected count 2, got %d", countErr.Count)
		}
	})
}
