package parser

// ObserveState pairs a child state with the accumulator fed by it.
type ObserveState[S, A any] struct {
	inner S
	acc   A
}

// Observed is the output of Observe.
type Observed[A, T any] struct {
	Acc   A
	Value T
}

// Observe feeds every raw byte its Inner node consumes into an accumulator
// before the bytes are dropped, e.g. a streaming hash over a body that is
// never buffered.
type Observe[S, T, A any] struct {
	Inner  Node[S, T]
	Reset  func(acc *A)
	Update func(acc *A, p []byte)
}

func (o Observe[S, T, A]) Init(s *ObserveState[S, A]) {
	o.Inner.Init(&s.inner)
	o.Reset(&s.acc)
}

func (o Observe[S, T, A]) Parse(s *ObserveState[S, A], c *Cursor) error {
	mark := c.off
	err := o.Inner.Parse(&s.inner, c)
	if consumed := c.since(mark); len(consumed) > 0 {
		o.Update(&s.acc, consumed)
	}
	return err
}

func (o Observe[S, T, A]) Output(s *ObserveState[S, A]) Observed[A, T] {
	return Observed[A, T]{Acc: s.acc, Value: o.Inner.Output(&s.inner)}
}
