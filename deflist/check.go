package deflist

import (
	"fmt"

	"github.com/jcorbin/scandl/mdevent"
)

// CheckLists verifies that the direct children of every List are one or more
// Terms followed by one or more Descriptions, repeated; description prefixes
// and line trivia aside.
func CheckLists(doc *mdevent.Document) error {
	type open struct {
		id   mdevent.TokenID
		last mdevent.Type
	}
	var stack []open
	for i, ev := range doc.Events {
		tok := doc.Token(ev.Token)
		if ev.Kind == mdevent.Exit {
			if n := len(stack); n > 0 && stack[n-1].id == ev.Token {
				if tok.Type == List && stack[n-1].last != Description {
					return fmt.Errorf("event[%d]: %v #%v ends after %v, not a %v",
						i, List, ev.Token, stack[n-1].last, Description)
				}
				stack = stack[:n-1]
			}
			continue
		}
		if n := len(stack); n > 0 && doc.Token(stack[n-1].id).Type == List {
			parent := &stack[n-1]
			switch t := tok.Type; {
			case isTrivia(t), t == DescriptionPrefix:
			case t == Term:
				parent.last = Term
			case t == Description:
				if parent.last == 0 {
					return fmt.Errorf("event[%d]: %v #%v starts with a %v", i, List, parent.id, Description)
				}
				parent.last = Description
			default:
				return fmt.Errorf("event[%d]: unexpected %v in %v #%v", i, t, List, parent.id)
			}
		}
		stack = append(stack, open{id: ev.Token})
	}
	return nil
}
