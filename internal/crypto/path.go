package crypto

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// MaxPathDepth bounds the number of segments a derivation path may carry.
	MaxPathDepth = 10
	// Hardened marks a hardened derivation segment.
	Hardened uint32 = 0x80000000
)

var (
	ErrPathTooDeep = errors.New("crypto: path exceeds max depth")
	ErrPathSyntax  = errors.New("crypto: invalid path")
)

// Path is a BIP32 derivation path held in fixed storage.
type Path struct {
	segs [MaxPathDepth]uint32
	n    uint8
}

// NewPath copies segments into a Path.
func NewPath(segments []uint32) (Path, error) {
	var p Path
	if len(segments) > MaxPathDepth {
		return p, fmt.Errorf("%w: %d segments", ErrPathTooDeep, len(segments))
	}
	p.n = uint8(copy(p.segs[:], segments))
	return p, nil
}

// MustPath is NewPath for literals in tests and defaults.
func MustPath(segments ...uint32) Path {
	p, err := NewPath(segments)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Path) Len() int {
	return int(p.n)
}

// Segments returns a view of the path; do not retain it past the Path.
func (p *Path) Segments() []uint32 {
	return p.segs[:p.n]
}

func (p Path) String() string {
	var b strings.Builder
	b.WriteString("m")
	for _, s := range p.segs[:p.n] {
		b.WriteByte('/')
		if s >= Hardened {
			b.WriteString(strconv.FormatUint(uint64(s-Hardened), 10))
			b.WriteByte('\'')
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(s), 10))
	}
	return b.String()
}

// ParsePath reads paths like m/44'/535348'/0. A trailing ' or h hardens a segment.
func ParsePath(raw string) (Path, error) {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, "/")
	if len(parts) == 0 || (parts[0] != "m" && parts[0] != "M") {
		return Path{}, fmt.Errorf("%w: %q must start with m", ErrPathSyntax, raw)
	}
	parts = parts[1:]
	if len(parts) > MaxPathDepth {
		return Path{}, fmt.Errorf("%w: %d segments", ErrPathTooDeep, len(parts))
	}
	var p Path
	for _, part := range parts {
		hardened := strings.HasSuffix(part, "'") || strings.HasSuffix(part, "h")
		if hardened {
			part = part[:len(part)-1]
		}
		v, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return Path{}, fmt.Errorf("%w: segment %q", ErrPathSyntax, part)
		}
		seg := uint32(v)
		if hardened {
			seg |= Hardened
		}
		p.segs[p.n] = seg
		p.n++
	}
	return p, nil
}
