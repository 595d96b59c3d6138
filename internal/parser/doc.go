// Package parser implements resumable grammar parsing over chunked input.
//
// A grammar is built from Node values. A Node is a stateless description of
// a field; its progress lives in a separate state value owned by the caller.
// Every Parse call consumes as much of the Cursor as it can and returns:
//
//   - nil: the node is complete and the cursor sits on the first unconsumed byte
//   - ErrNeedMore: the cursor ran dry; progress is recorded in the state and the
//     next call with a fresh cursor continues exactly where this one stopped
//   - an error wrapping ErrRejected: the input is invalid and the whole parse
//     must be abandoned
//
// States must not be copied while a parse is suspended. Callers keep them in
// storage with a stable address and reset them with Init before reuse.
//
// Primitive nodes:
//
//   - Uint: fixed-width integer, either byte order
//   - DArray: element count carried by a preceding Uint, bounded by Max,
//     collecting or dropping elements
//   - Observe: feeds every consumed byte of a child into an accumulator
//   - Action: applies a fallible transform once its child completes
package parser
