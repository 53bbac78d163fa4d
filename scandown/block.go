package scandown

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pion/logging"

	"github.com/jcorbin/scandl/mdevent"
)

// TODO proper handling of virtual space, esp wrt tabs after {list,quote}Marker
// TODO support HTML block structure
// TODO multi-line link reference definitions

// Tokenizer scans Markdown block structure into a flat mdevent stream, along
// the lines of the commonmark parsing strategy: each line first matches the
// prefixes of open container blocks, then may open new containers, and
// finally continues or starts a leaf block.
//
// Events are committed line by line, except that prefix events of matched
// containers are held back until it is known which blocks the line closes.
//
// It is not safe to use a Tokenizer from parallel goroutines.
type Tokenizer struct {
	Extensions []ContainerExtension
	Logger     logging.LeveledLogger

	log     logging.LeveledLogger
	doc     *mdevent.Document
	exts    map[byte]ContainerExtension
	stack   []*Block
	leaf    Block
	eol     lineEnding
	pending []mdevent.Event
	buffer  bool
}

// Block represents some piece of open Markdown block structure.
type Block struct {
	Type   BlockType
	Delim  byte // list delimiter, or fence mark
	Width  int  // list item content indent, or fence width
	Indent int  // fence indentation

	tok      mdevent.TokenID
	content  mdevent.TokenID
	chunk    mdevent.TokenID
	sawBlank bool
	ext      Container
}

// BlockType is to determine the semantic meaning of a Block.
type BlockType int

// BlockType constants for the core commonmark structures.
const (
	noBlock BlockType = iota
	Blockquote
	List
	Item
	Extension
	Paragraph
	Definition
	Codefence
	Codeblock
)

var nopLogger = logging.NewDefaultLeveledLoggerForScope("scandown", logging.LogLevelDisabled, io.Discard)

// Tokenize scans src into a new document.
func (tz *Tokenizer) Tokenize(src []byte) *mdevent.Document {
	tz.doc = mdevent.NewDocument(src)
	tz.log = tz.Logger
	if tz.log == nil {
		tz.log = nopLogger
	}
	tz.stack = tz.stack[:0]
	tz.leaf = Block{}
	tz.eol = lineEnding{}
	tz.pending = tz.pending[:0]
	tz.exts = make(map[byte]ContainerExtension, len(tz.Extensions))
	for _, ext := range tz.Extensions {
		tz.exts[ext.Marker()] = ext
		if b, ok := ext.(Beginner); ok {
			b.Begin(tz.doc)
		}
	}

	for num, start := 1, 0; start < len(src); num++ {
		end, next := len(src), len(src)
		if i := bytes.IndexByte(src[start:], '\n'); i >= 0 {
			end = start + i
			next = end + 1
		}
		l := Line{Number: num, tz: tz, start: start, text: src[start:end], eol: next - end}
		if n := len(l.text); n > 0 && l.text[n-1] == '\r' {
			l.text = l.text[:n-1]
			l.eol++
		}
		tz.line(&l)
		start = next
	}
	tz.commit(0)
	tz.log.Debugf("tokenized %v lines into %v events", tz.doc.PointAt(len(src)).Line, len(tz.doc.Events))
	return tz.doc
}

func (tz *Tokenizer) line(l *Line) {
	tz.buffer = true
	matched, reopen, sibling := tz.matchContainers(l)
	tz.buffer = false
	all := matched == len(tz.stack)
	tz.log.Tracef("line %v matched %v/%v: %v", l.Number, matched, len(tz.stack), tz)

	if all && reopen < 0 && !sibling {
		switch tz.leaf.Type {
		case Codefence:
			tz.fencedLine(l)
			return
		case Codeblock:
			if l.IsBlank() || l.Indent() >= 4 {
				tz.indentedLine(l)
				return
			}
		}
	}

	open := matched
	if reopen >= 0 {
		tz.commit(open)
		tz.stack[reopen].ext.Reopen(l)
		all = true
	} else if sibling {
		list, item := tz.stack[matched-1], tz.stack[matched]
		if item.sawBlank {
			tz.doc.Token(list.tok).Loose = true
		}
		tz.commit(open)
		_, rest := l.Trim(3)
		_, width, _, _ := listMarker(rest)
		tz.openItem(l, width)
		open, all = len(tz.stack), true
	}

	// open new containers
	for !l.IsBlank() {
		ind, rest := l.Trim(3)
		if ind > 3 || len(rest) == 0 || isByte(rest[0], ' ', '\t') {
			break
		}
		para := tz.leaf.Type == Paragraph
		if all && para && setextUnderline(rest) > 0 {
			break
		}
		if ruler(rest, '-', '_', '*') != 0 {
			break
		}
		if quoteMarker(rest) {
			tz.commit(open)
			tz.openQuote(l)
			open, all = len(tz.stack), true
			continue
		}
		if delim, width, start, content := listMarker(rest); delim != 0 {
			if !para || content && (isByte(delim, '-', '*', '+') || start == 1) {
				tz.commit(open)
				tz.openList(l, delim, width)
				open, all = len(tz.stack), true
				continue
			}
		}
		if ext := tz.exts[rest[0]]; ext != nil && tz.startExtension(l, ext, open) {
			open, all = len(tz.stack), true
			continue
		}
		break
	}

	// continue a paragraph, lazily if not all containers matched
	if !l.IsBlank() {
		_, rest := l.Trim(3)
		switch {
		case all && tz.leaf.Type == Paragraph && setextUnderline(rest) > 0:
			tz.setext(l)
			return
		case tz.interruptsParagraph(l):
		case tz.leaf.Type == Paragraph:
			if !all {
				tz.doc.Lazy[l.Number] = true
			}
			tz.continueLeaf()
			tz.paragraphLine(l)
			return
		case all && tz.leaf.Type == Definition && l.Indent() < 4:
			tz.continueLeaf()
			tz.contentLine(l)
			return
		}
	}

	tz.commit(open)
	tz.startLeaf(l)
}

// matchContainers matches the prefixes of open containers, returning how
// many matched. Prefix events are buffered into tz.pending. When a list sees
// a sibling item marker, sibling is true and matched indexes its open item.
func (tz *Tokenizer) matchContainers(l *Line) (matched, reopen int, sibling bool) {
	reopen = -1
	for matched < len(tz.stack) {
		b := tz.stack[matched]
		switch b.Type {
		case Blockquote:
			if _, rest := l.Trim(3); !quoteMarker(rest) {
				return matched, reopen, false
			}
			tz.quotePrefix(l)

		case List:
			item := tz.stack[matched+1]
			if l.IsBlank() {
				matched += 2
				continue
			}
			if l.Indent() >= item.Width {
				if item.sawBlank {
					tz.doc.Token(b.tok).Loose = true
					item.sawBlank = false
				}
				l.ConsumeIndent(mdevent.LinePrefix, item.Width)
				matched += 2
				continue
			}
			if _, rest := l.Trim(3); ruler(rest, '-', '_', '*') == 0 {
				if delim, _, _, _ := listMarker(rest); delim == b.Delim {
					return matched + 1, reopen, true
				}
			}
			return matched, reopen, false

		case Extension:
			switch b.ext.Continue(l) {
			case Accept:
			case Reopen:
				return matched + 1, matched, false
			default:
				return matched, reopen, false
			}

		default:
			panic(fmt.Sprintf("scandown: invalid open container %v", b.Type))
		}
		matched++
	}
	return matched, reopen, false
}

// startExtension speculatively opens an extension container, rolling back
// all committed events and block state if it refuses.
func (tz *Tokenizer) startExtension(l *Line, ext ContainerExtension, open int) bool {
	var (
		mark    = tz.doc.Mark()
		stack   = append([]*Block(nil), tz.stack...)
		leaf    = tz.leaf
		eol     = tz.eol
		pending = append([]mdevent.Event(nil), tz.pending...)
		pos     = l.pos
		col     = l.col
	)
	closed := tz.closeBlocks(open)
	tz.flush()
	c := ext.Start(l)
	if c == nil {
		tz.doc.Rewind(mark)
		tz.stack, tz.leaf, tz.eol, tz.pending = stack, leaf, eol, pending
		l.pos, l.col = pos, col
		return false
	}
	for _, b := range closed {
		if b.ext != nil {
			b.ext.Exit()
		}
	}
	tz.stack = append(tz.stack, &Block{Type: Extension, tok: c.Token(), ext: c})
	return true
}

func (tz *Tokenizer) emit(kind mdevent.Kind, id mdevent.TokenID) {
	ev := mdevent.Event{Kind: kind, Token: id}
	if tz.buffer {
		tz.pending = append(tz.pending, ev)
	} else {
		tz.doc.Events = append(tz.doc.Events, ev)
	}
}

func (tz *Tokenizer) flush() {
	tz.doc.Events = append(tz.doc.Events, tz.pending...)
	tz.pending = tz.pending[:0]
}

// commit closes the open leaf and all containers past the first n, then
// flushes any buffered prefix events.
func (tz *Tokenizer) commit(n int) {
	for _, b := range tz.closeBlocks(n) {
		if b.ext != nil {
			b.ext.Exit()
		}
	}
	tz.flush()
}

func (tz *Tokenizer) closeBlocks(n int) (closed []*Block) {
	tz.closeLeaf()
	for i := len(tz.stack) - 1; i >= n; i-- {
		b := tz.stack[i]
		tz.exitLast(b.tok)
		closed = append(closed, b)
	}
	if len(tz.stack) > n {
		tz.stack = tz.stack[:n]
	}
	return closed
}

// exitLast closes token id at the end of the last committed event.
func (tz *Tokenizer) exitLast(id mdevent.TokenID) {
	tok := tz.doc.Token(id)
	if n := len(tz.doc.Events); n > 0 {
		if end := tz.doc.Token(tz.doc.Events[n-1].Token).End; end.Offset > tok.Start.Offset {
			tok.End = end
		} else {
			tok.End = tok.Start
		}
	}
	tz.emit(mdevent.Exit, id)
}

func (tz *Tokenizer) closeLeaf() {
	switch tz.leaf.Type {
	case Paragraph:
		tz.exitLast(tz.leaf.tok)
		tz.exitLast(tz.leaf.content)
	case Definition:
		tz.exitLast(tz.leaf.content)
	case Codefence, Codeblock:
		tz.exitLast(tz.leaf.tok)
	}
	tz.leaf = Block{}
	tz.flushEOL()
}

func (tz *Tokenizer) flushEOL() {
	if tz.eol.ok {
		tz.doc.Leaf(mdevent.LineEnding, tz.eol.start, tz.eol.end)
	}
	tz.eol = lineEnding{}
}

// continueLeaf commits the prior line ending inside the open leaf, and then
// any buffered prefix events. Paragraph chunks absorb their line ending.
func (tz *Tokenizer) continueLeaf() {
	if tz.leaf.Type == Paragraph && tz.eol.ok {
		tz.doc.Token(tz.leaf.chunk).End = tz.eol.end
		tz.eol = lineEnding{}
	}
	tz.flushEOL()
	tz.flush()
}

func (tz *Tokenizer) interruptsParagraph(l *Line) bool {
	ind, rest := l.Trim(3)
	if ind > 3 || len(rest) == 0 {
		return false
	}
	if d, _, _ := fence(rest, 3, '`', '~'); d != 0 {
		return true
	}
	return atxHeading(rest) > 0 || ruler(rest, '-', '_', '*') != 0
}

func (tz *Tokenizer) quotePrefix(l *Line) {
	pre := l.Enter(mdevent.BlockQuotePrefix)
	_, n := l.indent(3)
	l.advance(n)
	l.Consume(mdevent.BlockQuoteMarker, 1)
	if isByte(l.Peek(), ' ', '\t') {
		l.Consume(mdevent.BlockQuotePrefixWhitespace, 1)
	}
	l.Exit(pre)
}

func (tz *Tokenizer) openQuote(l *Line) {
	id := l.Enter(mdevent.BlockQuote)
	tz.doc.Token(id).Container = true
	tz.quotePrefix(l)
	tz.stack = append(tz.stack, &Block{Type: Blockquote, tok: id})
}

func (tz *Tokenizer) openList(l *Line, delim byte, width int) {
	typ := mdevent.ListUnordered
	if isByte(delim, '.', ')') {
		typ = mdevent.ListOrdered
	}
	id := l.Enter(typ)
	tz.doc.Token(id).Container = true
	tz.stack = append(tz.stack, &Block{Type: List, Delim: delim, tok: id})
	tz.openItem(l, width)
}

// openItem opens a list item whose marker is width bytes long.
func (tz *Tokenizer) openItem(l *Line, width int) {
	col := l.Column()
	id := l.Enter(mdevent.ListItem)
	tz.doc.Token(id).Container = true
	pre := l.Enter(mdevent.ListItemPrefix)
	_, n := l.indent(3)
	l.advance(n + width)
	if l.IsBlank() {
		l.Exit(pre)
		tz.stack = append(tz.stack, &Block{Type: Item, Width: l.Column() - col + 1, tok: id})
		return
	}
	if cols, n := l.indent(len(l.text) * 4); cols > 4 {
		l.advance(1)
	} else {
		l.advance(n)
	}
	l.Exit(pre)
	tz.stack = append(tz.stack, &Block{Type: Item, Width: l.Column() - col, tok: id})
}

// startLeaf starts a new leaf block once all containers are settled.
func (tz *Tokenizer) startLeaf(l *Line) {
	if l.IsBlank() {
		start := l.Point()
		l.skip()
		end := l.ending()
		if !end.ok {
			end.end = l.Point()
		}
		tz.doc.Leaf(mdevent.LineEndingBlank, start, end.end)
		if n := len(tz.stack); n > 0 && tz.stack[n-1].Type == Item {
			tz.stack[n-1].sawBlank = true
		}
		return
	}

	if l.Indent() >= 4 {
		tz.leaf = Block{Type: Codeblock, tok: l.Enter(mdevent.CodeIndented)}
		l.ConsumeIndent(mdevent.LinePrefix, 4)
		l.Consume(mdevent.CodeFlowValue, len(l.Bytes()))
		tz.eol = l.ending()
		return
	}

	ind, rest := l.Trim(3)
	if delim, width, info := fence(rest, 3, '`', '~'); delim != 0 {
		tz.openFence(l, delim, width, ind, info)
		return
	}
	if level := atxHeading(rest); level > 0 {
		tz.heading(l, level)
		return
	}
	if ruler(rest, '-', '_', '*') != 0 {
		l.ConsumeIndent(mdevent.LinePrefix, 3)
		l.Consume(mdevent.ThematicBreak, len(l.Bytes()))
		tz.eol = l.ending()
		tz.flushEOL()
		return
	}

	l.ConsumeIndent(mdevent.LinePrefix, 3)
	tz.leaf = Block{Type: Definition, content: l.Enter(mdevent.Content)}
	tz.contentLine(l)
}

// contentLine scans a line within a Content leaf that has yet to start its
// paragraph: either a link reference definition, or the paragraph's first
// line.
func (tz *Tokenizer) contentLine(l *Line) {
	if tz.leaf.Type == Definition {
		if _, n := l.indent(3); n > 0 {
			l.Consume(mdevent.LinePrefix, n)
		}
		if label, dest, title, ok := definition(l.Bytes()); ok {
			tz.definitionLine(l, label, dest, title)
			return
		}
	}
	tz.leaf.Type = Paragraph
	tz.leaf.tok = l.Enter(mdevent.Paragraph)
	tz.chunkLine(l)
}

func (tz *Tokenizer) definitionLine(l *Line, label, dest, title [2]int) {
	base := l.pos
	def := l.Enter(mdevent.Definition)
	part := func(typ mdevent.Type, r [2]int) {
		l.advance(base + r[0] - l.pos)
		l.Consume(typ, r[1]-r[0])
	}
	part(mdevent.DefinitionLabel, label)
	part(mdevent.DefinitionDestination, dest)
	if title[0] > 0 {
		part(mdevent.DefinitionTitle, title)
	}
	l.skip()
	l.Exit(def)
	tz.eol = l.ending()
}

func (tz *Tokenizer) paragraphLine(l *Line) {
	if _, n := l.indent(len(l.text) * 4); n > 0 {
		l.Consume(mdevent.LinePrefix, n)
	}
	tz.chunkLine(l)
}

func (tz *Tokenizer) chunkLine(l *Line) {
	id := l.Consume(mdevent.ChunkText, len(l.Bytes()))
	if prev := tz.leaf.chunk; prev != 0 {
		tz.doc.Token(prev).Next = id
		tz.doc.Token(id).Prev = prev
	}
	tz.leaf.chunk = id
	tz.eol = l.ending()
}

// setext turns the open paragraph into a setext heading underlined by l.
func (tz *Tokenizer) setext(l *Line) {
	tz.flushEOL()
	tz.flush()
	tz.doc.Token(tz.leaf.tok).Type = mdevent.SetextHeading
	l.ConsumeIndent(mdevent.LinePrefix, 3)
	l.Consume(mdevent.SetextUnderline, len(l.Bytes()))
	tz.eol = l.ending()
	tz.closeLeaf()
}

func (tz *Tokenizer) heading(l *Line, level int) {
	l.ConsumeIndent(mdevent.LinePrefix, 3)
	h := l.Enter(mdevent.ATXHeading)
	l.Consume(mdevent.ATXHeadingSequence, level)
	lead, content, closing := atxContent(l.Bytes())
	l.advance(lead)
	if content > 0 {
		l.Consume(mdevent.ChunkText, content)
	}
	if closing > 0 {
		l.advance(len(l.Bytes()) - len(bytes.TrimLeft(l.Bytes(), " \t")))
		l.Consume(mdevent.ATXHeadingSequence, closing)
	}
	l.skip()
	l.Exit(h)
	tz.eol = l.ending()
	tz.flushEOL()
}

func (tz *Tokenizer) openFence(l *Line, delim byte, width, indent int, info []byte) {
	tz.leaf = Block{Type: Codefence, Delim: delim, Width: width, Indent: indent}
	tz.leaf.tok = l.Enter(mdevent.CodeFenced)
	f := l.Enter(mdevent.CodeFencedFence)
	_, n := l.indent(3)
	l.advance(n + width)
	if trimmed := bytes.TrimSpace(info); len(trimmed) > 0 {
		l.advance(len(info) - len(bytes.TrimLeft(info, " \t")))
		l.Consume(mdevent.CodeFencedFenceInfo, len(trimmed))
	}
	l.skip()
	l.Exit(f)
	tz.eol = l.ending()
}

func (tz *Tokenizer) fencedLine(l *Line) {
	tz.continueLeaf()
	if ind, rest := l.Trim(3); ind <= 3 && closingFence(rest, tz.leaf.Delim, tz.leaf.Width) {
		f := l.Enter(mdevent.CodeFencedFence)
		l.skip()
		l.Exit(f)
		tz.eol = l.ending()
		tz.closeLeaf()
		return
	}
	l.ConsumeIndent(mdevent.LinePrefix, tz.leaf.Indent)
	if n := len(l.Bytes()); n > 0 {
		l.Consume(mdevent.CodeFlowValue, n)
	}
	tz.eol = l.ending()
}

func (tz *Tokenizer) indentedLine(l *Line) {
	tz.continueLeaf()
	if l.IsBlank() {
		if n := len(l.Bytes()); n > 0 {
			l.Consume(mdevent.LinePrefix, n)
		}
	} else {
		l.ConsumeIndent(mdevent.LinePrefix, 4)
		l.Consume(mdevent.CodeFlowValue, len(l.Bytes()))
	}
	tz.eol = l.ending()
}
