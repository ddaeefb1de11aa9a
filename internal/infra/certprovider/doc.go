// Package certprovider loads the server TLS context.
//
// Two sources are supported: a PKCS#12 keystore with a password, or a PEM
// certificate and key pair. A Watcher reloads either kind when the files
// change on disk and serves the current certificate through
// tls.Config.GetCertificate.
package certprovider
