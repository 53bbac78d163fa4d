package deflist

import (
	"github.com/jcorbin/scandl/mdevent"
	"github.com/jcorbin/scandl/scandown"
)

// ContainerState is the line to line state of one open List container.
type ContainerState struct {
	// Size is the indentation, in columns, that continues the current
	// description.
	Size int

	// InitialBlankLine is set while a description whose marker line was
	// otherwise blank has yet to see content.
	InitialBlankLine bool

	// FurtherBlankLines is set once blank lines mean the next content line
	// can no longer continue the current description.
	FurtherBlankLines bool

	// LastBlankLine is set when the previous line was blank.
	LastBlankLine bool

	// CloseFlow is set when the current line ended the description, so that
	// the host closes everything inside it.
	CloseFlow bool
}

type container struct {
	ext   *Extension
	tok   mdevent.TokenID
	state ContainerState
}

// Marker returns the description marker byte.
func (ext *Extension) Marker() byte { return ':' }

// isMarker matches a description marker: a colon followed by whitespace or
// the end of the line.
func isMarker(rest []byte) bool {
	return len(rest) > 0 && rest[0] == ':' &&
		(len(rest) == 1 || rest[1] == ' ' || rest[1] == '\t')
}

// Start opens a List container if the line starts with a marker that follows
// a possible term.
func (ext *Extension) Start(l *scandown.Line) scandown.Container {
	ind, rest := l.Trim(3)
	if ind > 3 || !isMarker(rest) {
		return nil
	}
	if !possibleTerm(l.Document()) {
		ext.refused[l.Point().Offset+len(l.Bytes())-len(rest)] = true
		ext.syntaxLog.Debugf("line %v: refused marker, no possible term", l.Number)
		return nil
	}

	col := l.Column()
	l.ConsumeIndent(mdevent.LinePrefix, 3)
	c := &container{ext: ext, tok: l.Enter(List)}
	l.Document().Token(c.tok).Container = true
	c.openDescription(l, col, false)
	ext.syntaxLog.Debugf("line %v: start list, size %v", l.Number, c.state.Size)
	return c
}

// possibleTerm looks back over the committed events for a paragraph that may
// become the term of a new List.
func possibleTerm(doc *mdevent.Document) bool {
	i := len(doc.Events) - 1
	for i >= 0 && mdevent.IsPrefix(doc.TypeOf(i)) {
		i--
	}
	quote := false
	if i >= 0 && doc.Is(i, mdevent.Exit, mdevent.BlockQuote) {
		quote = true
		i--
	}
	blanks := 0
	for ; i >= 0; i-- {
		ev := doc.Events[i]
		switch t := doc.TypeOf(i); {
		case t == mdevent.LineEnding, mdevent.IsPrefix(t):
		case t == mdevent.LineEndingBlank:
			if ev.Kind == mdevent.Enter {
				if blanks++; blanks > 1 {
					return false
				}
			}
		case t == mdevent.Content && ev.Kind == mdevent.Exit:
		case t == mdevent.Paragraph && ev.Kind == mdevent.Exit:
			return !quote || doc.Lazy[doc.Token(ev.Token).End.Line]
		default:
			return false
		}
	}
	return false
}

// openDescription consumes a marker and its whitespace as a
// DescriptionPrefix; col is the column at which the container content starts.
func (c *container) openDescription(l *scandown.Line, col int, loose bool) {
	st := &c.state
	prefix := l.Enter(DescriptionPrefix)
	l.Consume(DescriptionMarker, 1)
	if l.IsBlank() {
		loose = true
		st.InitialBlankLine = true
		st.Size = l.Column() - col
	} else {
		if cols, rest := l.Trim(4); cols <= 4 && len(rest) > 0 && rest[0] != ' ' && rest[0] != '\t' {
			l.ConsumeIndent(DescriptionPrefixWhitespace, cols)
		} else {
			l.Consume(DescriptionPrefixWhitespace, 1)
		}
		st.Size = l.Column() - col
	}
	l.Exit(prefix)
	l.Document().Token(prefix).Loose = loose
}

func (c *container) Token() mdevent.TokenID { return c.tok }

// Continue decides whether l continues the current description.
func (c *container) Continue(l *scandown.Line) scandown.Verdict {
	st := &c.state
	st.CloseFlow = false
	if l.IsBlank() {
		st.FurtherBlankLines = st.FurtherBlankLines || st.InitialBlankLine ||
			c.ext.opts.BlankLinePolicy == CloseAfterTwoBlanks && st.LastBlankLine
		st.LastBlankLine = true
		l.ConsumeIndent(mdevent.LinePrefix, st.Size)
		return scandown.Accept
	}

	further := st.FurtherBlankLines
	st.FurtherBlankLines = false
	st.InitialBlankLine = false
	if further || !isSpace(l.Peek()) {
		return c.notInCurrentItem(l)
	}
	if l.Indent() < st.Size {
		return c.notInCurrentItem(l)
	}
	st.LastBlankLine = false
	l.ConsumeIndent(mdevent.LinePrefix, st.Size)
	return scandown.Accept
}

// notInCurrentItem handles a line that cannot continue the current
// description: it may still start a sibling one.
func (c *container) notInCurrentItem(l *scandown.Line) scandown.Verdict {
	c.state.CloseFlow = true
	if _, rest := l.Trim(3); isMarker(rest) {
		c.ext.syntaxLog.Tracef("line %v: sibling description", l.Number)
		return scandown.Reopen
	}
	return scandown.Reject
}

// Reopen starts a sibling description.
func (c *container) Reopen(l *scandown.Line) {
	col := l.Column()
	l.ConsumeIndent(mdevent.LinePrefix, 3)
	c.openDescription(l, col, c.state.LastBlankLine)
	c.state.LastBlankLine = false
	c.state.CloseFlow = false
}

// Exit logs the closed list; the host emits its exit event.
func (c *container) Exit() {
	c.ext.syntaxLog.Tracef("list #%v closed", c.tok)
}

func isSpace(b byte) bool { return b == ' ' || b == '\t' }
