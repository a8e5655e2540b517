package tls

import (
	"os"
	"testing"
)

func TestCertificateReloader_ServesInitialMaterial(t *testing.T) {
	certPEM, keyPEM := generateMaterial(t, encodePKCS8)
	certFile, keyFile := writeMaterial(t, certPEM, keyPEM)

	reloader, err := NewCertificateReloader(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cert, err := reloader.GetCertificate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cert == nil {
		t.Fatal("expected a certificate")
	}
}

func TestCertificateReloader_SwapsOnReload(t *testing.T) {
	certPEM, keyPEM := generateMaterial(t, encodePKCS8)
	certFile, keyFile := writeMaterial(t, certPEM, keyPEM)

	reloader, err := NewCertificateReloader(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := reloader.GetCertificate(nil)

	newCertPEM, newKeyPEM := generateMaterial(t, encodePKCS8)
	if err := os.WriteFile(certFile, newCertPEM, 0o600); err != nil {
		t.Fatalf("cannot rewrite certificate: %v", err)
	}
	if err := os.WriteFile(keyFile, newKeyPEM, 0o600); err != nil {
		t.Fatalf("cannot rewrite key: %v", err)
	}

	reloader.reload()

	after, err := reloader.GetCertificate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(after.Certificate[0]) == string(before.Certificate[0]) {
		t.Error("expected the served certificate to change after reload")
	}
}

func TestCertificateReloader_KeepsOldMaterialOnBadReload(t *testing.T) {
	certPEM, keyPEM := generateMaterial(t, encodePKCS8)
	certFile, keyFile := writeMaterial(t, certPEM, keyPEM)

	reloader, err := NewCertificateReloader(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before, _ := reloader.GetCertificate(nil)

	if err := os.WriteFile(certFile, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("cannot rewrite certificate: %v", err)
	}

	reloader.reload()

	after, err := reloader.GetCertificate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(after.Certificate[0]) != string(before.Certificate[0]) {
		t.Error("expected the old material to stay in service after a failed reload")
	}
}
