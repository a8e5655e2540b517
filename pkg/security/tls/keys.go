package tls

import (
	"crypto/x509"
	"encoding/pem"
)

// parseKeyBlock decodes a single PEM block into a private key, selecting the
// parser by block type the same way the common PEM tooling does:
//
//   - "PRIVATE KEY"      -> PKCS#8
//   - "RSA PRIVATE KEY"  -> PKCS#1
//   - "EC PRIVATE KEY"   -> SEC 1
//
// It returns nil for non-key blocks and for blocks that fail to parse.
func parseKeyBlock(block *pem.Block) any {
	switch block.Type {
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil
		}
		return key
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil
		}
		return key
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil
		}
		return key
	default:
		return nil
	}
}
