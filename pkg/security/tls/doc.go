// Package tls loads and validates the TLS material used by HTTPS listeners.
//
// Certificate chains and private keys are read once, at configuration time,
// into immutable in-memory material (see LoadMaterial). Key files are probed
// against the PKCS#8, PKCS#1 and SEC 1 encodings and must contain exactly
// one key. An optional CertificateReloader watches the files with fsnotify
// and swaps the served certificate atomically, so certificate renewal does
// not require a restart and the serve path never re-reads files.
package tls
