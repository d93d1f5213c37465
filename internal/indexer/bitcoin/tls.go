package bitcoin

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSFiles points at the PEM files used for mutual TLS with the node.
type TLSFiles struct {
	CAPath   string
	CertPath string
	KeyPath  string
}

// loadTLSConfig pins the CA and combines the client certificate and key into one identity.
func loadTLSConfig(files TLSFiles) (*tls.Config, error) {
	caPEM, err := os.ReadFile(files.CAPath)
	if err != nil {
		return nil, fmt.Errorf("read rpc ca certificate: %w", err)
	}
	certPEM, err := os.ReadFile(files.CertPath)
	if err != nil {
		return nil, fmt.Errorf("read rpc client certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(files.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read rpc client key: %w", err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("invalid rpc ca certificate %s: no PEM certificate found", files.CAPath)
	}

	identity, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid rpc identity: %w", err)
	}

	return &tls.Config{
		RootCAs:      roots,
		Certificates: []tls.Certificate{identity},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
