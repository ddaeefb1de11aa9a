// Package certprovider loads the server TLS context.
package certprovider

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

var (
	// ErrNoSource is returned when neither a keystore nor a key pair is set.
	ErrNoSource = errors.New("certprovider: no keystore or certificate configured")

	// ErrAmbiguousSource is returned when both a keystore and a key pair are set.
	ErrAmbiguousSource = errors.New("certprovider: keystore and certificate pair are mutually exclusive")
)

// Source names the files the server certificate is read from.
type Source struct {
	Keystore string
	Password string
	CertFile string
	KeyFile  string
}

// Files returns the paths the certificate depends on.
func (s Source) Files() []string {
	if s.Keystore != "" {
		return []string{s.Keystore}
	}
	return []string{s.CertFile, s.KeyFile}
}

// Load reads the certificate described by s.
func (s Source) Load() (*tls.Certificate, error) {
	switch {
	case s.Keystore != "" && (s.CertFile != "" || s.KeyFile != ""):
		return nil, ErrAmbiguousSource
	case s.Keystore != "":
		return loadKeystore(s.Keystore, s.Password)
	case s.CertFile != "" && s.KeyFile != "":
		cert, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("certprovider: load key pair: %w", err)
		}
		return &cert, nil
	default:
		return nil, ErrNoSource
	}
}

// LoadServerContext builds a server TLS config from a PKCS#12 keystore.
func LoadServerContext(keystorePath, password string) (*tls.Config, error) {
	return ServerConfig(Source{Keystore: keystorePath, Password: password})
}

// ServerConfig builds a server TLS config with a fixed certificate.
func ServerConfig(src Source) (*tls.Config, error) {
	cert, err := src.Load()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{*cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func loadKeystore(path, password string) (*tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("certprovider: read keystore: %w", err)
	}
	return decodeKeystore(data, password)
}

// decodeKeystore converts every bag of a PKCS#12 archive to PEM and pairs
// the leaf certificate with its key.
func decodeKeystore(data []byte, password string) (*tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, fmt.Errorf("certprovider: decode keystore: %w", err)
	}

	cert, err := keyPairFromBlocks(blocks)
	if err != nil {
		return nil, fmt.Errorf("certprovider: keystore key pair: %w", err)
	}
	return &cert, nil
}

// keyPairFromBlocks builds a certificate whose leaf is the certificate
// matching the private key, followed by the remaining certificates in
// archive order. Keystores do not order their certificate bags.
func keyPairFromBlocks(blocks []*pem.Block) (tls.Certificate, error) {
	var (
		keyPEM []byte
		certs  []*pem.Block
	)
	for _, b := range blocks {
		if b.Type == "CERTIFICATE" {
			certs = append(certs, b)
		} else {
			keyPEM = append(keyPEM, pem.EncodeToMemory(b)...)
		}
	}
	if len(certs) == 0 {
		return tls.Certificate{}, errors.New("no certificate in keystore")
	}

	var firstErr error
	for i, leaf := range certs {
		chain := pem.EncodeToMemory(leaf)
		for j, c := range certs {
			if j != i {
				chain = append(chain, pem.EncodeToMemory(c)...)
			}
		}
		cert, err := tls.X509KeyPair(chain, keyPEM)
		if err == nil {
			return cert, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return tls.Certificate{}, firstErr
}
