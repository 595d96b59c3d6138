package command

import (
	"hash"
	"math"

	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/parser"
)

// Bip32 path stream: u8 count (at most crypto.MaxPathDepth) then u32 LE segments.
type (
	pathArray = parser.ArrayState[parser.UintState, uint32]
	pathState = parser.ActionState[pathArray, crypto.Path]
	pathNode  = parser.Action[pathArray, []uint32, crypto.Path]
)

// Transaction stream: u32 LE length then opaque bytes, hashed and dropped.
type (
	txArray    = parser.ArrayState[parser.UintState, uint8]
	txObserved = parser.ObserveState[txArray, hash.Hash]
	txState    = parser.ActionState[txObserved, crypto.Digest]
	txNode     = parser.Action[txObserved, parser.Observed[hash.Hash, []uint8], crypto.Digest]
)

// grammars are built once per Cell and shared by its tasks.
type grammars struct {
	path pathNode
	tx   txNode
}

func newGrammars(newHash func() hash.Hash) *grammars {
	return &grammars{
		path: pathNode{
			Name: "path",
			Inner: parser.DArray[uint8, parser.UintState, uint32]{
				Len:  parser.Uint[uint8]{},
				Elem: parser.Uint[uint32]{Order: parser.LittleEndian},
				Max:  crypto.MaxPathDepth,
			},
			Fn: crypto.NewPath,
		},
		tx: txNode{
			Name: "transaction",
			Inner: parser.Observe[txArray, []uint8, hash.Hash]{
				Inner: parser.DArray[uint32, parser.UintState, uint8]{
					Len:  parser.Uint[uint32]{Order: parser.LittleEndian},
					Elem: parser.Uint[uint8]{},
					Max:  math.MaxUint32,
					Drop: true,
				},
				Reset: func(h *hash.Hash) {
					if *h == nil {
						*h = newHash()
						return
					}
					(*h).Reset()
				},
				Update: func(h *hash.Hash, p []byte) {
					(*h).Write(p)
				},
			},
			Fn: func(o parser.Observed[hash.Hash, []uint8]) (crypto.Digest, error) {
				var d crypto.Digest
				o.Acc.Sum(d[:0])
				return d, nil
			},
		},
	}
}
