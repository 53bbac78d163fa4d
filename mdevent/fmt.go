package mdevent

import (
	"fmt"
	"io"
	"strings"
)

// Format writes one line per event, providing a debug dump of the event
// stream. Produces an indented form with token positions and flags when
// formatted with `%+v`, a flat "kind type content" form otherwise.
func (doc *Document) Format(f fmt.State, _ rune) {
	if len(doc.Events) == 0 {
		io.WriteString(f, "-- empty --")
		return
	}
	depth := 0
	for i, ev := range doc.Events {
		if i > 0 {
			io.WriteString(f, "\n")
		}
		if ev.Kind == Exit {
			depth--
		}
		if f.Flag('+') {
			io.WriteString(f, strings.Repeat("  ", depth))
		}
		doc.formatEvent(f, ev, f.Flag('+'))
		if ev.Kind == Enter {
			depth++
		}
	}
}

// EventString returns the single line dump of the i-th event.
func (doc *Document) EventString(i int) string {
	var sb strings.Builder
	doc.formatEvent(&sb, doc.Events[i], false)
	return sb.String()
}

func (doc *Document) formatEvent(w io.Writer, ev Event, verbose bool) {
	if ev.Token <= 0 || int(ev.Token) >= len(doc.tokens) {
		fmt.Fprintf(w, "%v !(INVALID token %d)", ev.Kind, ev.Token)
		return
	}
	tok := doc.tokens[ev.Token]
	fmt.Fprintf(w, "%v %v", ev.Kind, tok.Type)
	if verbose {
		fmt.Fprintf(w, " #%d %d:%d-%d:%d", ev.Token,
			tok.Start.Line, tok.Start.Column, tok.End.Line, tok.End.Column)
		if tok.Loose {
			io.WriteString(w, " loose")
		}
		if tok.Container {
			io.WriteString(w, " container")
		}
		if tok.Prev != 0 {
			fmt.Fprintf(w, " prev=#%d", tok.Prev)
		}
		if tok.Next != 0 {
			fmt.Fprintf(w, " next=#%d", tok.Next)
		}
	}
	if tok.Start.Offset <= tok.End.Offset && tok.End.Offset <= len(doc.Source) {
		fmt.Fprintf(w, " %q", doc.Source[tok.Start.Offset:tok.End.Offset])
	} else {
		io.WriteString(w, " <maybe incomplete token>")
	}
}
