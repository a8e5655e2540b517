/*
Package security groups transport security for the proxy's listeners.

# TLS Material

The tls subpackage loads the certificate and key files referenced by https
listeners, validates them at configuration time, and can keep the served
material in sync with the files on disk:

	cert, err := tls.LoadMaterial("/etc/metrics-proxy/server.crt",
		"/etc/metrics-proxy/server.key")
	if err != nil {
		log.Fatal(err)
	}

Listeners with certificate watching enabled serve through a reloader
instead of a pinned certificate:

	reloader, err := tls.NewCertificateReloader(certFile, keyFile, logger)
	if err != nil {
		log.Fatal(err)
	}
	cfg := &stdtls.Config{GetCertificate: reloader.GetCertificate}
	go reloader.Watch(ctx)
*/
package security
