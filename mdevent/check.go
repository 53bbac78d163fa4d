package mdevent

import "fmt"

// InvariantError is the panic value of a failed internal consistency
// assertion. Such failures are programming errors: the event stream would be
// corrupt past this point.
type InvariantError struct {
	Msg string
}

func (err *InvariantError) Error() string { return "mdevent invariant violated: " + err.Msg }

// Assert panics with an *InvariantError unless cond holds.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&InvariantError{fmt.Sprintf(format, args...)})
	}
}

// Check verifies that the document's events are balanced, that every token's
// range lies within its parent's, and that sibling ranges are ordered and do
// not overlap.
func Check(doc *Document) error {
	type open struct {
		id      TokenID
		lastEnd int
	}
	stack := []open{{lastEnd: 0}}
	for i, ev := range doc.Events {
		if ev.Token <= 0 || int(ev.Token) >= len(doc.tokens) {
			return fmt.Errorf("event[%d]: invalid token id %d", i, ev.Token)
		}
		tok := &doc.tokens[ev.Token]
		switch ev.Kind {
		case Enter:
			if tok.End.Offset < tok.Start.Offset {
				return fmt.Errorf("event[%d]: %v ends before it starts (%d < %d)",
					i, tok.Type, tok.End.Offset, tok.Start.Offset)
			}
			top := &stack[len(stack)-1]
			if tok.Start.Offset < top.lastEnd {
				return fmt.Errorf("event[%d]: %v starts at %d, overlapping its prior sibling ending at %d",
					i, tok.Type, tok.Start.Offset, top.lastEnd)
			}
			if top.id != 0 {
				parent := &doc.tokens[top.id]
				if tok.End.Offset > parent.End.Offset {
					return fmt.Errorf("event[%d]: %v [%d:%d] ends past its parent %v [%d:%d]",
						i, tok.Type, tok.Start.Offset, tok.End.Offset,
						parent.Type, parent.Start.Offset, parent.End.Offset)
				}
			}
			stack = append(stack, open{id: ev.Token, lastEnd: tok.Start.Offset})

		case Exit:
			if len(stack) == 1 {
				return fmt.Errorf("event[%d]: exit %v without enter", i, tok.Type)
			}
			if top := stack[len(stack)-1]; top.id != ev.Token {
				return fmt.Errorf("event[%d]: exit %v while %v is open",
					i, tok.Type, doc.tokens[top.id].Type)
			}
			stack = stack[:len(stack)-1]
			stack[len(stack)-1].lastEnd = tok.End.Offset

		default:
			return fmt.Errorf("event[%d]: invalid kind %d", i, ev.Kind)
		}
	}
	if len(stack) > 1 {
		return fmt.Errorf("%d tokens left open, innermost %v",
			len(stack)-1, doc.tokens[stack[len(stack)-1].id].Type)
	}
	return nil
}

// MustCheck panics with an *InvariantError if Check fails.
func MustCheck(doc *Document) {
	if err := Check(doc); err != nil {
		panic(&InvariantError{err.Error()})
	}
}
