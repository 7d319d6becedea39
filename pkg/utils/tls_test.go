package utils

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSelfSignedCert generates a throwaway self-signed cert/key pair on
// disk, for exercising the TLS-loading helpers without a checked-in
// fixture.
func writeSelfSignedCert(t *testing.T) (certFile, keyFile string) {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "burstfs-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)

	dir := t.TempDir()
	certFile = filepath.Join(dir, "cert.pem")
	keyFile = filepath.Join(dir, "key.pem")

	require.NoError(t, os.WriteFile(certFile, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)}), 0o600))
	return certFile, keyFile
}

func TestLoadServerTLSConfig_EmptyFilesMeansInsecure(t *testing.T) {
	t.Parallel()
	creds, err := LoadServerTLSConfig("", "")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestLoadServerTLSConfig_LoadsValidKeyPair(t *testing.T) {
	t.Parallel()
	certFile, keyFile := writeSelfSignedCert(t)

	creds, err := LoadServerTLSConfig(certFile, keyFile)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "tls", creds.Info().SecurityProtocol)
}

func TestLoadServerTLSConfig_RejectsMissingFile(t *testing.T) {
	t.Parallel()
	_, err := LoadServerTLSConfig("/no/such/cert.pem", "/no/such/key.pem")
	assert.Error(t, err)
}

func TestLoadClientTLSConfig_EmptyMeansInsecure(t *testing.T) {
	t.Parallel()
	creds, err := LoadClientTLSConfig("", "", "")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "insecure", creds.Info().SecurityProtocol)
}

func TestLoadClientTLSConfig_LoadsClientCertAndCA(t *testing.T) {
	t.Parallel()
	certFile, keyFile := writeSelfSignedCert(t)

	creds, err := LoadClientTLSConfig(certFile, keyFile, certFile)
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "tls", creds.Info().SecurityProtocol)
}

func TestLoadClientTLSConfig_RejectsBadCAFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	badCA := filepath.Join(dir, "ca.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a cert"), 0o600))

	_, err := LoadClientTLSConfig("", "", badCA)
	assert.Error(t, err)
}

func TestGetServerOption_NilWhenNoCerts(t *testing.T) {
	t.Parallel()
	opt, err := GetServerOption("", "")
	require.NoError(t, err)
	assert.Nil(t, opt)
}

func TestGetServerOption_ReturnsOptionWhenCertsProvided(t *testing.T) {
	t.Parallel()
	certFile, keyFile := writeSelfSignedCert(t)

	opt, err := GetServerOption(certFile, keyFile)
	require.NoError(t, err)
	assert.NotNil(t, opt)
}

func TestGetServerDialOption_AlwaysReturnsOption(t *testing.T) {
	t.Parallel()
	opt, err := GetServerDialOption("", "", "")
	require.NoError(t, err)
	assert.NotNil(t, opt)
}
