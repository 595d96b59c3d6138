package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"golang.org/x/crypto/blake2b"
)

// DefaultSeedHex is the well-known development seed used when none is configured.
const DefaultSeedHex = "000102030405060708090a0b0c0d0e0f"

var (
	ErrSeed     = errors.New("crypto: invalid seed")
	ErrDerive   = errors.New("crypto: derivation failed")
	ErrNoKey    = errors.New("crypto: private key wiped")
	ErrBadPoint = errors.New("crypto: invalid public key")
)

// Keyring derives every key from a single BIP32 master.
type Keyring struct {
	master *hdkeychain.ExtendedKey
}

var _ Service = (*Keyring)(nil)

// NewKeyring builds a keyring from raw seed bytes (16 to 64 bytes).
func NewKeyring(seed []byte) (*Keyring, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeed, err)
	}
	return &Keyring{master: master}, nil
}

// NewKeyringHex decodes seedHex, falling back to DefaultSeedHex when empty.
func NewKeyringHex(seedHex string) (*Keyring, error) {
	seedHex = strings.TrimSpace(seedHex)
	if seedHex == "" {
		seedHex = DefaultSeedHex
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSeed, err)
	}
	return NewKeyring(seed)
}

func (k *Keyring) derive(p Path) (*hdkeychain.ExtendedKey, error) {
	ext := k.master
	for _, seg := range p.Segments() {
		next, err := ext.Derive(seg)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrDerive, p, err)
		}
		ext = next
	}
	return ext, nil
}

func (k *Keyring) PublicKey(p Path) (PublicKey, error) {
	var out PublicKey
	ext, err := k.derive(p)
	if err != nil {
		return out, err
	}
	pub, err := ext.ECPubKey()
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrDerive, err)
	}
	copy(out[:], pub.SerializeUncompressed())
	return out, nil
}

func (k *Keyring) PrivateKey(p Path) (*PrivateKey, error) {
	ext, err := k.derive(p)
	if err != nil {
		return nil, err
	}
	priv, err := ext.ECPrivKey()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDerive, err)
	}
	return &PrivateKey{key: priv}, nil
}

func (k *Keyring) PublicKeyHash(pub PublicKey) (PKH, error) {
	var out PKH
	point, err := btcec.ParsePubKey(pub[:])
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrBadPoint, err)
	}
	h, err := blake2b.New(PKHLen, nil)
	if err != nil {
		return out, err
	}
	h.Write(point.SerializeCompressed())
	h.Sum(out[:0])
	return out, nil
}

// Sign produces an RFC 6979 deterministic ECDSA signature over d.
func (k *Keyring) Sign(key *PrivateKey, d Digest) (Signature, error) {
	var out Signature
	if key == nil || key.key == nil {
		return out, ErrNoKey
	}
	der := ecdsa.Sign(key.key, d[:]).Serialize()
	out.n = uint8(copy(out.der[:], der))
	return out, nil
}

// NewHasher returns the streaming transaction hash.
func (k *Keyring) NewHasher() hash.Hash {
	h, _ := blake2b.New256(nil)
	return h
}

// Verify checks a DER signature against an uncompressed public key.
func Verify(pub PublicKey, d Digest, der []byte) (bool, error) {
	point, err := btcec.ParsePubKey(pub[:])
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadPoint, err)
	}
	sig, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return false, err
	}
	return sig.Verify(d[:], point), nil
}
