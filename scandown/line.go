package scandown

import (
	"github.com/pion/logging"

	"github.com/jcorbin/scandl/mdevent"
)

// Line is a cursor over one source line, as handed to container extensions
// while matching or opening their blocks. Column tracking expands tabs to
// stops of 4; indentation consumption never splits a tab.
type Line struct {
	Number int

	tz    *Tokenizer
	start int    // offset of the line within the document source
	text  []byte // line bytes, excluding any line ending
	eol   int    // width of the line ending: 0, 1, or 2
	pos   int    // cursor index within text
	col   int    // visual column at pos
}

// Document returns the document under construction; extensions may inspect
// its committed events.
func (l *Line) Document() *mdevent.Document { return l.tz.doc }

// Logger returns the tokenizer's logger.
func (l *Line) Logger() logging.LeveledLogger { return l.tz.log }

// Bytes returns the remaining unconsumed line content.
func (l *Line) Bytes() []byte { return l.text[l.pos:] }

// Peek returns the next unconsumed byte, or 0 at end of line.
func (l *Line) Peek() byte {
	if l.pos < len(l.text) {
		return l.text[l.pos]
	}
	return 0
}

// IsBlank returns true if only spaces and tabs remain.
func (l *Line) IsBlank() bool { return isBlank(l.Bytes()) }

// Column returns the visual column of the cursor, counting from 0.
func (l *Line) Column() int { return l.col }

// Point returns the source position of the cursor.
func (l *Line) Point() mdevent.Point { return l.pointAt(l.pos) }

func (l *Line) pointAt(pos int) mdevent.Point {
	return mdevent.Point{Line: l.Number, Column: pos + 1, Offset: l.start + pos}
}

// Indent returns the width of whitespace at the cursor, in columns.
func (l *Line) Indent() int {
	cols, _ := l.indent(len(l.text) * 4)
	return cols
}

// Trim returns the columns of up to max whitespace at the cursor, and the
// line content following it, without consuming anything.
func (l *Line) Trim(max int) (cols int, rest []byte) {
	cols, n := l.indent(max)
	return cols, l.text[l.pos+n:]
}

func (l *Line) indent(max int) (cols, n int) {
	col := l.col
	for i := l.pos; i < len(l.text); i++ {
		w := 1
		switch l.text[i] {
		case ' ':
		case '\t':
			w = 4 - col%4
		default:
			return col - l.col, i - l.pos
		}
		if col+w-l.col > max {
			return col - l.col, i - l.pos
		}
		col += w
	}
	return col - l.col, len(l.text) - l.pos
}

func (l *Line) advance(n int) {
	for _, c := range l.text[l.pos : l.pos+n] {
		if c == '\t' {
			l.col += 4 - l.col%4
		} else {
			l.col++
		}
	}
	l.pos += n
}

// ConsumeIndent consumes up to max columns of whitespace, emitting them as a
// token of type typ; it returns the number of columns consumed.
func (l *Line) ConsumeIndent(typ mdevent.Type, max int) int {
	cols, n := l.indent(max)
	if n > 0 {
		l.Consume(typ, n)
	}
	return cols
}

// Consume emits the next n bytes as a leaf token of type typ.
func (l *Line) Consume(typ mdevent.Type, n int) mdevent.TokenID {
	start := l.Point()
	l.advance(n)
	id := l.tz.doc.New(typ, start, l.Point())
	l.tz.emit(mdevent.Enter, id)
	l.tz.emit(mdevent.Exit, id)
	return id
}

// Enter opens a token of type typ at the cursor.
func (l *Line) Enter(typ mdevent.Type) mdevent.TokenID {
	id := l.tz.doc.New(typ, l.Point(), l.Point())
	l.tz.emit(mdevent.Enter, id)
	return id
}

// Exit closes token id at the cursor.
func (l *Line) Exit(id mdevent.TokenID) {
	l.tz.doc.Token(id).End = l.Point()
	l.tz.emit(mdevent.Exit, id)
}

func (l *Line) skip() { l.advance(len(l.text) - l.pos) }

func (l *Line) ending() lineEnding {
	return lineEnding{
		start: l.pointAt(len(l.text)),
		end:   mdevent.Point{Line: l.Number, Column: len(l.text) + l.eol + 1, Offset: l.start + len(l.text) + l.eol},
		ok:    l.eol > 0,
	}
}

type lineEnding struct {
	start, end mdevent.Point
	ok         bool
}
