package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/nanosign/internal/testutil/testlog"
	"golang.org/x/crypto/blake2b"
)

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	k, err := NewKeyringHex("")
	if err != nil {
		t.Fatalf("keyring: %v", err)
	}
	return k
}

func TestParsePathRoundTrip(t *testing.T) {
	testlog.Start(t)
	p, err := ParsePath("m/44'/535348'/0h/7")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []uint32{44 | Hardened, 535348 | Hardened, Hardened, 7}
	if !equalSegs(p.Segments(), want) {
		t.Fatalf("segments = %v", p.Segments())
	}
	if got := p.String(); got != "m/44'/535348'/0'/7" {
		t.Fatalf("string = %q", got)
	}
	if root, err := ParsePath("m"); err != nil || root.Len() != 0 {
		t.Fatalf("root path = %v,%v", root, err)
	}
}

func TestParsePathErrors(t *testing.T) {
	testlog.Start(t)
	for _, raw := range []string{"", "44'/0'", "m/x", "m/2147483648", "m//1"} {
		if _, err := ParsePath(raw); !errors.Is(err, ErrPathSyntax) {
			t.Fatalf("ParsePath(%q) err = %v", raw, err)
		}
	}
	if _, err := ParsePath("m/1/2/3/4/5/6/7/8/9/10/11"); !errors.Is(err, ErrPathTooDeep) {
		t.Fatalf("expected depth error, got %v", err)
	}
	if _, err := NewPath(make([]uint32, MaxPathDepth+1)); !errors.Is(err, ErrPathTooDeep) {
		t.Fatalf("expected depth error, got %v", err)
	}
}

func TestDerivationIsDeterministic(t *testing.T) {
	testlog.Start(t)
	k := testKeyring(t)
	p := MustPath(44|Hardened, 0|Hardened)
	a, err := k.PublicKey(p)
	if err != nil {
		t.Fatalf("public key: %v", err)
	}
	b, _ := k.PublicKey(p)
	if a != b || a[0] != 0x04 {
		t.Fatalf("unexpected key %x", a)
	}
	other, _ := k.PublicKey(MustPath(44|Hardened, 1|Hardened))
	if other == a {
		t.Fatalf("different paths produced the same key")
	}
	priv, err := k.PrivateKey(p)
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	defer priv.Zero()
	if priv.PublicKey() != a {
		t.Fatalf("private key does not match public key")
	}
}

func TestPublicKeyHashIsBlake2b160OfCompressedKey(t *testing.T) {
	testlog.Start(t)
	k := testKeyring(t)
	pub, _ := k.PublicKey(MustPath())
	pkh, err := k.PublicKeyHash(pub)
	if err != nil {
		t.Fatalf("pkh: %v", err)
	}
	compressed := append([]byte{0x02 | pub[64]&1}, pub[1:33]...)
	h, _ := blake2b.New(PKHLen, nil)
	h.Write(compressed)
	if !bytes.Equal(pkh[:], h.Sum(nil)) {
		t.Fatalf("pkh mismatch")
	}
	if len(pkh.String()) != 40 {
		t.Fatalf("pkh hex = %q", pkh.String())
	}
	if _, err := k.PublicKeyHash(PublicKey{}); !errors.Is(err, ErrBadPoint) {
		t.Fatalf("expected bad point, got %v", err)
	}
}

func TestSignIsDeterministicAndVerifies(t *testing.T) {
	testlog.Start(t)
	k := testKeyring(t)
	priv, err := k.PrivateKey(MustPath(44 | Hardened))
	if err != nil {
		t.Fatalf("private key: %v", err)
	}
	var d Digest
	h := k.NewHasher()
	h.Write([]byte("transfer"))
	h.Sum(d[:0])

	first, err := k.Sign(priv, d)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	second, _ := k.Sign(priv, d)
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("signatures differ")
	}
	if der := first.Bytes(); len(der) < 8 || der[0] != 0x30 {
		t.Fatalf("not DER: %x", der)
	}
	ok, err := Verify(priv.PublicKey(), d, first.Bytes())
	if err != nil || !ok {
		t.Fatalf("verify = %v,%v", ok, err)
	}

	priv.Zero()
	if _, err := k.Sign(priv, d); !errors.Is(err, ErrNoKey) {
		t.Fatalf("expected wiped key error, got %v", err)
	}
}

func TestNewKeyringRejectsBadSeed(t *testing.T) {
	testlog.Start(t)
	if _, err := NewKeyringHex("zz"); !errors.Is(err, ErrSeed) {
		t.Fatalf("expected seed error, got %v", err)
	}
	if _, err := NewKeyring([]byte{1, 2, 3}); !errors.Is(err, ErrSeed) {
		t.Fatalf("expected short seed error, got %v", err)
	}
}

func equalSegs(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
