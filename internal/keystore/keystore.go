// Package keystore provides the ES256 key and X.509 certificate used to sign
// issuer offer requests and signing retrieval requests.
package keystore

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"time"
)

// Material is the signing key pair plus the DER certificate, base64 encoded
// as it appears in an x5c header.
type Material struct {
	PrivateKey        *ecdsa.PrivateKey
	PublicKey         *ecdsa.PublicKey
	CertificateBase64 string
}

// Keystore hands out signing material.
type Keystore interface {
	Material(ctx context.Context) (Material, error)
}

// Static serves material loaded once at startup.
type Static struct {
	material Material
}

func (s *Static) Material(context.Context) (Material, error) {
	return s.material, nil
}

// LoadPEM reads a PEM certificate and a PEM EC private key (SEC 1 or PKCS#8).
func LoadPEM(certPath, keyPath string) (*Static, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	return ParsePEM(certPEM, keyPEM)
}

// ParsePEM parses PEM encoded certificate and key and checks they match.
func ParsePEM(certPEM, keyPEM []byte) (*Static, error) {
	certBlock, _ := pem.Decode(certPEM)
	if certBlock == nil || certBlock.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("certificate PEM block not found")
	}
	cert, err := x509.ParseCertificate(certBlock.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}

	keyBlock, _ := pem.Decode(keyPEM)
	if keyBlock == nil {
		return nil, fmt.Errorf("private key PEM block not found")
	}
	key, err := parseECKey(keyBlock)
	if err != nil {
		return nil, err
	}

	pub, ok := cert.PublicKey.(*ecdsa.PublicKey)
	if !ok || !pub.Equal(&key.PublicKey) {
		return nil, fmt.Errorf("certificate does not match private key")
	}
	return &Static{material: Material{
		PrivateKey:        key,
		PublicKey:         &key.PublicKey,
		CertificateBase64: base64.StdEncoding.EncodeToString(cert.Raw),
	}}, nil
}

func parseECKey(block *pem.Block) (*ecdsa.PrivateKey, error) {
	switch block.Type {
	case "EC PRIVATE KEY":
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse EC private key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse PKCS#8 private key: %w", err)
		}
		key, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("private key is %T, want ECDSA", parsed)
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unsupported private key PEM type %q", block.Type)
	}
}

// NewEphemeral generates a P-256 key and a self-signed certificate whose DNS
// SAN is dnsName. For development only: wallets will not trust it.
func NewEphemeral(dnsName string, now time.Time) (*Static, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return nil, fmt.Errorf("generate serial: %w", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: dnsName, Organization: []string{"onboard development"}},
		DNSNames:     []string{dnsName},
		NotBefore:    now.Add(-time.Minute),
		NotAfter:     now.Add(365 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}
	return &Static{material: Material{
		PrivateKey:        key,
		PublicKey:         &key.PublicKey,
		CertificateBase64: base64.StdEncoding.EncodeToString(der),
	}}, nil
}
