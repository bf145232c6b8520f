// package crypto provides a simple interface to common cryptographic primitives.
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
)

// Keypair represents a public/private keypair in PEM format.
type Keypair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// GenerateRSAKeypair generates a new 4096 bit RSA keypair.
func GenerateRSAKeypair() (*Keypair, error) {
	privatekey, err := rsa.GenerateKey(rand.Reader, 4096)
	if err != nil {
		return nil, err
	}
	publickey := &privatekey.PublicKey
	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privatekey)
	if err != nil {
		return nil, err
	}
	privateKeyPem := pem.EncodeToMemory(&pem.Block{
		Type:  "PRIVATE KEY",
		Bytes: privateKeyBytes,
	})
	publicKeyBytes, err := x509.MarshalPKIXPublicKey(publickey)
	if err != nil {
		return nil, err
	}
	publicKeyPem := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicKeyBytes,
	})
	return &Keypair{
		PublicKey:  publicKeyPem,
		PrivateKey: privateKeyPem,
	}, nil
}

// ParseRSAPrivateKey parses a PEM encoded private key, and returns
// the public key and private key.
func ParseRSAPrivateKey(pemBytes []byte) (*rsa.PublicKey, *rsa.PrivateKey, error) {
	privPem, _ := pem.Decode(pemBytes)
	if privPem == nil {
		return nil, nil, errors.New("expected a PEM encoded private key")
	}

	var parsedKey interface{}
	var err error
	if parsedKey, err = x509.ParsePKCS8PrivateKey(privPem.Bytes); err != nil {
		if parsedKey, err = x509.ParsePKCS1PrivateKey(privPem.Bytes); err != nil {
			return nil, nil, err
		}
	}

	switch privateKey := parsedKey.(type) {
	case *rsa.PrivateKey:
		return &privateKey.PublicKey, privateKey, nil
	default:
		return nil, nil, errors.New("expected *rsa.PrivateKey")
	}
}

// GenerateToken returns a random 128 bit capability token in hex.
func GenerateToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
