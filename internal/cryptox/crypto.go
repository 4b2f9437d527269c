// Package cryptox holds the key-exchange primitives of the secure channel:
// ephemeral P-256 key pairs, their PEM encoding, ECDH and the symmetric
// stream ciphers derived from the shared secret.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const pemBlockType = "PUBLIC KEY"

// KeyDerivation selects how the symmetric key is obtained from the ECDH
// shared secret. Both ends of a connection must use the same one.
type KeyDerivation string

const (
	// KeyDerivationRaw uses the 32-byte shared secret directly as the AES-256
	// key. This keeps the handshake and cipher compatible with unframed
	// peers; the length-prefixed frames of securechan are not.
	KeyDerivationRaw KeyDerivation = "raw"
	// KeyDerivationHKDF expands the shared secret with HKDF-SHA256.
	KeyDerivationHKDF KeyDerivation = "hkdf"
)

var hkdfInfo = []byte("minsend stream key")

// ParseKeyDerivation validates a configuration value.
func ParseKeyDerivation(s string) (KeyDerivation, error) {
	switch kd := KeyDerivation(s); kd {
	case KeyDerivationRaw, KeyDerivationHKDF:
		return kd, nil
	case "":
		return KeyDerivationRaw, nil
	default:
		return "", fmt.Errorf("unknown key derivation %q", s)
	}
}

// GenerateKey returns a fresh ephemeral P-256 key pair.
func GenerateKey() (*ecdh.PrivateKey, error) {
	return ecdh.P256().GenerateKey(rand.Reader)
}

// EncodePublicKey encodes pub as a PEM "PUBLIC KEY" block holding its
// SubjectPublicKeyInfo. For a fixed curve the output has a fixed length.
func EncodePublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemBlockType, Bytes: der}), nil
}

// DecodePublicKey is the inverse of EncodePublicKey. It only accepts P-256
// keys.
func DecodePublicKey(data []byte) (*ecdh.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, errors.New("no PEM public key block")
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	switch k := key.(type) {
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return nil, fmt.Errorf("unexpected curve %s", k.Curve.Params().Name)
		}
		return k.ECDH()
	case *ecdh.PublicKey:
		if k.Curve() != ecdh.P256() {
			return nil, errors.New("unexpected curve")
		}
		return k, nil
	default:
		return nil, fmt.Errorf("unexpected public key type %T", key)
	}
}

// DeriveKey turns an ECDH shared secret into a 32-byte AES key.
func DeriveKey(secret []byte, kd KeyDerivation) ([]byte, error) {
	switch kd {
	case KeyDerivationRaw, "":
		key := make([]byte, len(secret))
		copy(key, secret)
		return key, nil
	case KeyDerivationHKDF:
		key := make([]byte, 32)
		if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, hkdfInfo), key); err != nil {
			return nil, err
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unknown key derivation %q", kd)
	}
}

// Streams holds the two stateful ciphers of one connection.
type Streams struct {
	Encrypt cipher.Stream
	Decrypt cipher.Stream
}

// NewStreams builds AES-CFB encrypt and decrypt streams for key with an
// all-zero IV.
//
// The zero IV and the missing MAC match the reference implementation. The
// same keystream is used in both directions, so the construction offers
// confidentiality against passive observers only.
func NewStreams(key []byte) (*Streams, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, aes.BlockSize)

	return &Streams{
		Encrypt: cipher.NewCFBEncrypter(block, iv),
		Decrypt: cipher.NewCFBDecrypter(block, iv),
	}, nil
}

// Agree computes the shared secret between priv and peer and derives the
// connection streams from it.
func Agree(priv *ecdh.PrivateKey, peer *ecdh.PublicKey, kd KeyDerivation) (*Streams, error) {
	secret, err := priv.ECDH(peer)
	if err != nil {
		return nil, fmt.Errorf("ecdh: %w", err)
	}

	key, err := DeriveKey(secret, kd)
	if err != nil {
		return nil, err
	}

	return NewStreams(key)
}
