package keystore

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEphemeral(t *testing.T) {
	ks, err := NewEphemeral("onboard.example", time.Now())
	require.NoError(t, err)

	m, err := ks.Material(context.Background())
	require.NoError(t, err)
	der, err := base64.StdEncoding.DecodeString(m.CertificateBase64)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	assert.Equal(t, []string{"onboard.example"}, cert.DNSNames)
	assert.True(t, m.PublicKey.Equal(cert.PublicKey))
}

func TestLoadPEMRoundTrip(t *testing.T) {
	ks, err := NewEphemeral("onboard.example", time.Now())
	require.NoError(t, err)
	m, _ := ks.Material(context.Background())

	der, _ := base64.StdEncoding.DecodeString(m.CertificateBase64)
	keyDER, err := x509.MarshalECPrivateKey(m.PrivateKey)
	require.NoError(t, err)
	pkcs8, err := x509.MarshalPKCS8PrivateKey(m.PrivateKey)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))

	for name, block := range map[string]*pem.Block{
		"sec1":  {Type: "EC PRIVATE KEY", Bytes: keyDER},
		"pkcs8": {Type: "PRIVATE KEY", Bytes: pkcs8},
	} {
		t.Run(name, func(t *testing.T) {
			keyPath := filepath.Join(dir, name+".pem")
			require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(block), 0o600))

			loaded, err := LoadPEM(certPath, keyPath)
			require.NoError(t, err)
			got, _ := loaded.Material(context.Background())
			assert.Equal(t, m.CertificateBase64, got.CertificateBase64)
			assert.True(t, got.PrivateKey.Equal(m.PrivateKey))
		})
	}
}

func TestParsePEMRejectsMismatchedKey(t *testing.T) {
	a, err := NewEphemeral("a.example", time.Now())
	require.NoError(t, err)
	b, err := NewEphemeral("b.example", time.Now())
	require.NoError(t, err)
	ma, _ := a.Material(context.Background())
	mb, _ := b.Material(context.Background())

	der, _ := base64.StdEncoding.DecodeString(ma.CertificateBase64)
	keyDER, _ := x509.MarshalECPrivateKey(mb.PrivateKey)

	_, err = ParsePEM(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}
