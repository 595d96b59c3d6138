package parser

// Node is the capability every grammar variant implements.
//
// S is the node's parse state and T its output. Init puts a state into its
// starting position; Output is only meaningful after Parse returned nil.
type Node[S, T any] interface {
	Init(s *S)
	Parse(s *S, c *Cursor) error
	Output(s *S) T
}

// Parser is the part of Node that advances a state.
type Parser[S any] interface {
	Parse(s *S, c *Cursor) error
}

// ParseStream runs a top-level node against one chunk of its stream.
// Completing with bytes still left in the chunk is trailing data and rejects.
func ParseStream[S any](n Parser[S], s *S, c *Cursor) error {
	if err := n.Parse(s, c); err != nil {
		return err
	}
	if !c.AtEnd() {
		return &RejectError{Field: "stream", Reason: "trailing data after complete value"}
	}
	return nil
}
