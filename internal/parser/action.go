package parser

// ActionState holds the child state and the transformed output.
type ActionState[S, U any] struct {
	inner S
	out   U
	done  bool
}

// Action applies Fn to the output of Inner once it completes. Fn may block
// (a confirmation prompt, a key derivation). Any error it returns rejects
// the whole parse. Fn runs at most once per Init.
type Action[S, T, U any] struct {
	Name  string
	Inner Node[S, T]
	Fn    func(T) (U, error)
}

func (a Action[S, T, U]) Init(s *ActionState[S, U]) {
	a.Inner.Init(&s.inner)
	var zero U
	s.out = zero
	s.done = false
}

func (a Action[S, T, U]) Parse(s *ActionState[S, U], c *Cursor) error {
	if s.done {
		return nil
	}
	if err := a.Inner.Parse(&s.inner, c); err != nil {
		return err
	}
	out, err := a.Fn(a.Inner.Output(&s.inner))
	if err != nil {
		name := a.Name
		if name == "" {
			name = "action"
		}
		return AsReject(name, err)
	}
	s.out = out
	s.done = true
	return nil
}

func (a Action[S, T, U]) Output(s *ActionState[S, U]) U {
	return s.out
}
