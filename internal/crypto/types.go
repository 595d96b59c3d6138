package crypto

import (
	"encoding/hex"
	"hash"

	"github.com/btcsuite/btcd/btcec/v2"
)

const (
	PublicKeyLen = 65
	PKHLen       = 20
	DigestLen    = 32
	// MaxSignatureLen is the largest DER encoding of a secp256k1 signature.
	MaxSignatureLen = 72
)

// PublicKey is an uncompressed SEC1 point: 0x04 || X || Y.
type PublicKey [PublicKeyLen]byte

// PKH names a key by the BLAKE2b-160 hash of its compressed encoding.
type PKH [PKHLen]byte

func (h PKH) String() string {
	return hex.EncodeToString(h[:])
}

// Digest is the BLAKE2b-256 hash of a transaction stream.
type Digest [DigestLen]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Signature holds a DER encoded ECDSA signature in fixed storage.
type Signature struct {
	der [MaxSignatureLen]byte
	n   uint8
}

func (s *Signature) Bytes() []byte {
	return s.der[:s.n]
}

// PrivateKey owns derived secret material until Zero is called.
type PrivateKey struct {
	key *btcec.PrivateKey
}

// PublicKey returns the uncompressed public key for k.
func (k *PrivateKey) PublicKey() PublicKey {
	var out PublicKey
	copy(out[:], k.key.PubKey().SerializeUncompressed())
	return out
}

// Hex renders the secret scalar. Only the diagnostic display uses it.
func (k *PrivateKey) Hex() string {
	return hex.EncodeToString(k.key.Serialize())
}

// Zero wipes the secret scalar. Safe on nil.
func (k *PrivateKey) Zero() {
	if k == nil || k.key == nil {
		return
	}
	k.key.Zero()
	k.key = nil
}

// Service is what device commands need from key material.
// Every operation may fail; callers treat failure as a rejected command.
type Service interface {
	PublicKey(p Path) (PublicKey, error)
	PrivateKey(p Path) (*PrivateKey, error)
	PublicKeyHash(pub PublicKey) (PKH, error)
	Sign(key *PrivateKey, d Digest) (Signature, error)
	NewHasher() hash.Hash
}
