package tls

import (
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"os"
)

// CertificateFileError reports a certificate file that could not be read or
// that yielded no certificates.
type CertificateFileError struct {
	Path string
	Err  error
}

func (e *CertificateFileError) Error() string {
	return fmt.Sprintf("could not read certificate file %s: %v", e.Path, e.Err)
}

func (e *CertificateFileError) Unwrap() error {
	return e.Err
}

// KeyFileError reports a key file that could not be read.
type KeyFileError struct {
	Path string
	Err  error
}

func (e *KeyFileError) Error() string {
	return fmt.Sprintf("could not read key file %s: %v", e.Path, e.Err)
}

func (e *KeyFileError) Unwrap() error {
	return e.Err
}

// KeyCountError reports a key file that did not contain exactly one
// decodable private key.
type KeyCountError struct {
	Path  string
	Count int
}

func (e *KeyCountError) Error() string {
	return fmt.Sprintf("key file %s contains %d keys whereas it should contain only 1", e.Path, e.Count)
}

// LoadMaterial reads a PEM certificate chain and a PEM private key from disk
// and combines them into a tls.Certificate. The certificate file must contain
// at least one certificate. The key file is probed against the PKCS#8, PKCS#1
// (RSA) and SEC 1 (EC) encodings and must yield exactly one decodable key.
//
// The returned certificate holds all material in memory; callers never need
// to touch the files again at serve time.
func LoadMaterial(certFile, keyFile string) (*tls.Certificate, error) {
	certData, err := os.ReadFile(certFile)
	if err != nil {
		return nil, &CertificateFileError{Path: certFile, Err: err}
	}
	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, &KeyFileError{Path: keyFile, Err: err}
	}

	chain := decodeCertificates(certData)
	if len(chain) == 0 {
		return nil, &CertificateFileError{
			Path: certFile,
			Err:  fmt.Errorf("file contains no certificates"),
		}
	}

	keys := decodeKeys(keyData)
	if len(keys) != 1 {
		return nil, &KeyCountError{Path: keyFile, Count: len(keys)}
	}

	cert := &tls.Certificate{
		Certificate: chain,
		PrivateKey:  keys[0],
	}
	if err := ValidateCertificate(cert); err != nil {
		return nil, &CertificateFileError{Path: certFile, Err: err}
	}
	return cert, nil
}

// decodeCertificates extracts the DER bytes of every CERTIFICATE block.
func decodeCertificates(data []byte) [][]byte {
	var chain [][]byte
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			chain = append(chain, block.Bytes)
		}
	}
	return chain
}

// decodeKeys parses every private-key PEM block, probing the encodings
// accepted for key files. Unparseable blocks are skipped; the caller decides
// whether the resulting count is acceptable.
func decodeKeys(data []byte) []any {
	var keys []any
	for len(data) > 0 {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if key := parseKeyBlock(block); key != nil {
			keys = append(keys, key)
		}
	}
	return keys
}
