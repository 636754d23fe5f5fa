package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when PEM data holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// Pool is a set of trusted root certificates.
type Pool struct {
	certs *x509.CertPool
	count int
}

// SystemPool starts from the system roots, or an empty pool where the
// platform has none.
func SystemPool() *Pool {
	certs, err := x509.SystemCertPool()
	if err != nil {
		certs = x509.NewCertPool()
	}
	return &Pool{certs: certs}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certs: x509.NewCertPool()}
}

// AddFile adds every certificate in a PEM file.
func (p *Pool) AddFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read %s: %w", path, err)
	}
	if err := p.AddPEM(data); err != nil {
		return fmt.Errorf("%w (%s)", err, path)
	}
	return nil
}

// AddPEM adds every CERTIFICATE block in data; other blocks are skipped.
func (p *Pool) AddPEM(data []byte) error {
	added := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("tlsroots: parse certificate: %w", err)
		}
		p.certs.AddCert(cert)
		added++
	}
	if added == 0 {
		return ErrNoCertsFound
	}
	p.count += added
	return nil
}

// Added returns how many certificates were added explicitly.
func (p *Pool) Added() int { return p.count }

// ClientConfig returns a client TLS config trusting the pool.
func (p *Pool) ClientConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certs,
		MinVersion: tls.VersionTLS12,
	}
}

// LoadClientConfig builds the client config for an admin endpoint. An
// empty caFile trusts the system roots only.
func LoadClientConfig(caFile string, insecure bool) (*tls.Config, error) {
	p := SystemPool()
	if caFile != "" {
		if err := p.AddFile(caFile); err != nil {
			return nil, err
		}
	}
	cfg := p.ClientConfig()
	cfg.InsecureSkipVerify = insecure
	return cfg, nil
}
