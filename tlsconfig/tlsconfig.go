// Package tlsconfig loads the mutual-TLS material spec.md §1 treats as an
// external collaborator: a CA bundle for verifying client certificates
// plus the server's own certificate and key.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"google.golang.org/grpc/credentials"
)

// Load builds a server-side *tls.Config requiring and verifying client
// certificates against caCertPath, presenting the certificate/key pair at
// tlsCertPath/tlsKeyPath.
func Load(caCertPath, tlsCertPath, tlsKeyPath string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(tlsCertPath, tlsKeyPath)
	if err != nil {
		return nil, fmt.Errorf("tlsconfig: load server cert/key: %w", err)
	}

	caBytes, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("tlsconfig: read ca cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caBytes) {
		return nil, fmt.Errorf("tlsconfig: no certificates found in %s", caCertPath)
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		ClientCAs:    pool,
		ClientAuth:   tls.RequireAndVerifyClientCert,
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Credentials wraps Load's *tls.Config as gRPC transport credentials,
// ready for grpc.Creds.
func Credentials(caCertPath, tlsCertPath, tlsKeyPath string) (credentials.TransportCredentials, error) {
	cfg, err := Load(caCertPath, tlsCertPath, tlsKeyPath)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(cfg), nil
}
