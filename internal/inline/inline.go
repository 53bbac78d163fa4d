// Package inline expands the chunk text of resolved block structure into
// inline events: character escapes, code spans, emphasis, links, and line
// breaks. Raw HTML, autolinks, and images are left as text.
package inline

import (
	"bytes"
	"strings"

	"github.com/jcorbin/scandl/mdevent"
)

// Tokenize replaces every chain of linked chunk tokens in doc with inline
// events, leaving any container prefix events between the chunks in place.
func Tokenize(doc *mdevent.Document) {
	defs := Definitions(doc)
	out := make([]mdevent.Event, 0, 2*len(doc.Events))
	for i := 0; i < len(doc.Events); i++ {
		ev := doc.Events[i]
		if ev.Kind != mdevent.Enter || doc.TypeOf(i) != mdevent.ChunkText || doc.Token(ev.Token).Prev != 0 {
			out = append(out, ev)
			continue
		}
		var evs []mdevent.Event
		evs, i = tokenizeChain(doc, defs, i)
		out = append(out, evs...)
	}
	doc.Events = out
}

// Definitions returns the normalized labels of every link reference
// definition in doc, mapped to the first definition token of each.
func Definitions(doc *mdevent.Document) map[string]mdevent.TokenID {
	defs := make(map[string]mdevent.TokenID)
	var def mdevent.TokenID
	for i, ev := range doc.Events {
		if ev.Kind != mdevent.Enter {
			continue
		}
		switch doc.TypeOf(i) {
		case mdevent.Definition:
			def = ev.Token
		case mdevent.DefinitionLabel:
			label := NormalizeLabel(doc.Slice(ev.Token))
			if _, have := defs[label]; !have {
				defs[label] = def
			}
		}
	}
	return defs
}

// NormalizeLabel case folds a link label, collapsing internal whitespace.
func NormalizeLabel(label []byte) string {
	return strings.ToLower(strings.Join(strings.Fields(string(label)), " "))
}

type segment struct {
	at         int // index of the chunk enter event
	start, end int
}

// tokenizeChain returns the inline events replacing the chain whose head
// chunk is entered at i, through the index of its last chunk exit.
func tokenizeChain(doc *mdevent.Document, defs map[string]mdevent.TokenID, i int) ([]mdevent.Event, int) {
	var segs []segment
	for id, j := doc.Events[i].Token, i; id != 0; id = doc.Token(id).Next {
		for doc.Events[j].Token != id {
			j++
		}
		mdevent.Assert(doc.Events[j+1].Token == id, "chunk #%v is not a leaf", id)
		tok := doc.Token(id)
		segs = append(segs, segment{at: j, start: tok.Start.Offset, end: tok.End.Offset})
	}
	last := segs[len(segs)-1].at + 1

	p := parser{doc: doc, defs: defs}
	for _, s := range segs {
		p.buf = append(p.buf, doc.Source[s.start:s.end]...)
		for o := s.start; o < s.end; o++ {
			p.offs = append(p.offs, o)
		}
	}
	p.offs = append(p.offs, segs[len(segs)-1].end)

	var others []mdevent.Event
	k := 0
	for j := i; j <= last; j++ {
		if k < len(segs) && (j == segs[k].at || j == segs[k].at+1) {
			if j == segs[k].at+1 {
				k++
			}
			continue
		}
		others = append(others, doc.Events[j])
	}

	return merge(doc, p.flatten(nil, p.parse()), others), last
}

// merge interleaves the prefix events that sat between chunks with the
// inline events, by source offset: exits before prefixes before enters.
func merge(doc *mdevent.Document, inl, others []mdevent.Event) []mdevent.Event {
	type unit struct {
		at  int
		evs []mdevent.Event
	}
	var units []unit
	for k := 0; k < len(others); {
		m, depth := k, 0
		for ; m < len(others); m++ {
			if others[m].Kind == mdevent.Enter {
				depth++
			} else {
				depth--
			}
			if depth == 0 {
				break
			}
		}
		mdevent.Assert(m < len(others), "unbalanced events between chunks")
		units = append(units, unit{at: doc.Token(others[k].Token).Start.Offset, evs: others[k : m+1]})
		k = m + 1
	}

	out := make([]mdevent.Event, 0, len(inl)+len(others))
	u := 0
	for _, ev := range inl {
		tok := doc.Token(ev.Token)
		off, rank := tok.Start.Offset, 2
		if ev.Kind == mdevent.Exit {
			off, rank = tok.End.Offset, 0
		}
		for u < len(units) && (units[u].at < off || units[u].at == off && rank > 1) {
			out = append(out, units[u].evs...)
			u++
		}
		out = append(out, ev)
	}
	for ; u < len(units); u++ {
		out = append(out, units[u].evs...)
	}
	return out
}

type node struct {
	typ        mdevent.Type
	start, end int // within parser.buf
	kids       []*node

	// pending delimiter runs and link openers
	delim       byte
	n, orig     int
	open, close bool
	unmatched   bool // a closer without opener
	inactive    bool
}

type parser struct {
	doc  *mdevent.Document
	defs map[string]mdevent.TokenID
	buf  []byte
	offs []int // source offset of each buf byte, and of its end
}

func (p *parser) parse() []*node {
	var seq []*node
	text := 0
	flush := func(end int) {
		if end > text {
			seq = append(seq, &node{typ: mdevent.Data, start: text, end: end})
		}
	}
	buf := p.buf
	for i := 0; i < len(buf); {
		switch c := buf[i]; c {
		case '\\':
			if i+1 < len(buf) && isPunct(buf[i+1]) {
				flush(i)
				seq = append(seq, &node{typ: mdevent.CharacterEscape, start: i, end: i + 2})
				i += 2
				text = i
				continue
			}
			if i+1 < len(buf) && isByte(buf[i+1], '\r', '\n') {
				flush(i)
				seq = append(seq, &node{typ: mdevent.HardBreak, start: i, end: i + 1})
				i++
				text = i
				continue
			}

		case '\r', '\n':
			end := i + 1
			if c == '\r' && end < len(buf) && buf[end] == '\n' {
				end++
			}
			sp := i
			for sp > text && buf[sp-1] == ' ' {
				sp--
			}
			flush(sp)
			if i-sp >= 2 {
				seq = append(seq, &node{typ: mdevent.HardBreak, start: sp, end: i})
			}
			seq = append(seq, &node{typ: mdevent.LineEndingSoft, start: i, end: end})
			i = end
			text = i
			continue

		case '`':
			n := run(buf, i)
			if end, ok := p.codeSpan(i, n); ok {
				flush(i)
				seq = append(seq, end)
				i = end.end
				text = i
				continue
			}
			i += n
			continue

		case '*', '_':
			n := run(buf, i)
			flush(i)
			seq = append(seq, p.delimiterRun(i, n))
			i += n
			text = i
			continue

		case '[':
			flush(i)
			seq = append(seq, &node{typ: mdevent.Data, start: i, end: i + 1, delim: '['})
			i++
			text = i
			continue

		case ']':
			flush(i)
			text = i
			if link := p.closeBracket(&seq, i); link != nil {
				i = link.end
				text = i
				continue
			}
		}
		i++
	}
	end := len(buf)
	for end > text && isByte(buf[end-1], ' ', '\t') {
		end--
	}
	flush(end)
	return p.emphasis(seq)
}

func run(buf []byte, i int) int {
	n := 1
	for i+n < len(buf) && buf[i+n] == buf[i] {
		n++
	}
	return n
}

// codeSpan matches a code span opened by n backticks at i.
func (p *parser) codeSpan(i, n int) (*node, bool) {
	buf := p.buf
	for j := i + n; j < len(buf); {
		if buf[j] != '`' {
			j++
			continue
		}
		m := run(buf, j)
		if m != n {
			j += m
			continue
		}
		cs := &node{typ: mdevent.CodeText, start: i, end: j + m}
		lo, hi := i+n, j
		if hi-lo >= 2 && isByte(buf[lo], ' ', '\n') && isByte(buf[hi-1], ' ', '\n') &&
			len(bytes.Trim(buf[lo:hi], " \r\n")) > 0 {
			lo++
			hi--
		}
		for k := lo; k < hi; {
			e := bytes.IndexByte(buf[k:hi], '\n')
			if e < 0 {
				cs.kids = append(cs.kids, &node{typ: mdevent.Data, start: k, end: hi})
				break
			}
			e += k
			d := e
			if d > k && buf[d-1] == '\r' {
				d--
			}
			if d > k {
				cs.kids = append(cs.kids, &node{typ: mdevent.Data, start: k, end: d})
			}
			cs.kids = append(cs.kids, &node{typ: mdevent.LineEndingSoft, start: d, end: e + 1})
			k = e + 1
		}
		return cs, true
	}
	return nil, false
}

func (p *parser) delimiterRun(i, n int) *node {
	buf := p.buf
	before, after := byte(' '), byte(' ')
	if i > 0 {
		before = buf[i-1]
	}
	if i+n < len(buf) {
		after = buf[i+n]
	}
	left := !isSpace(after) && (!isPunct(after) || isSpace(before) || isPunct(before))
	right := !isSpace(before) && (!isPunct(before) || isSpace(after) || isPunct(after))
	nd := &node{typ: mdevent.Data, start: i, end: i + n, delim: buf[i], n: n, orig: n}
	if buf[i] == '*' {
		nd.open, nd.close = left, right
	} else {
		nd.open = left && (!right || isPunct(before))
		nd.close = right && (!left || isPunct(after))
	}
	return nd
}

// closeBracket tries to complete a link at the closing bracket i, replacing
// the tail of seq from its opener with the link node.
func (p *parser) closeBracket(seq *[]*node, i int) *node {
	s := *seq
	o := len(s) - 1
	for o >= 0 && s[o].delim != '[' {
		o--
	}
	if o < 0 {
		return nil
	}
	opener := s[o]
	opener.delim = 0
	if opener.inactive {
		return nil
	}

	buf := p.buf
	link := &node{typ: mdevent.Link, start: opener.start}
	text := &node{typ: mdevent.LinkText, start: opener.end, end: i}
	after := i + 1

	switch {
	case after < len(buf) && buf[after] == '(':
		if dest, title, end, ok := p.inlineTail(after); ok {
			link.end = end
			link.kids = append(link.kids, text, &node{typ: mdevent.LinkDestination, start: dest[0], end: dest[1]})
			if title[1] > 0 {
				link.kids = append(link.kids, &node{typ: mdevent.LinkTitle, start: title[0], end: title[1]})
			}
			break
		}
		fallthrough

	default:
		label := [2]int{text.start, text.end}
		ref := &node{typ: mdevent.LinkReference, start: after, end: after}
		link.end = after
		if after < len(buf) && buf[after] == '[' {
			if c := bytes.IndexByte(buf[after+1:], ']'); c >= 0 {
				c += after + 1
				if c > after+1 {
					label = [2]int{after + 1, c}
					ref = &node{typ: mdevent.LinkReference, start: after + 1, end: c}
				} else {
					ref = &node{typ: mdevent.LinkReference, start: c + 1, end: c + 1}
				}
				link.end = c + 1
			}
		}
		if bytes.ContainsAny(buf[label[0]:label[1]], "\r\n[") {
			return nil
		}
		if _, defined := p.defs[NormalizeLabel(buf[label[0]:label[1]])]; !defined {
			return nil
		}
		link.kids = append(link.kids, text, ref)
	}

	// the tail of s gets overwritten as parsing goes on
	text.kids = p.emphasis(append([]*node(nil), s[o+1:]...))
	s = append(s[:o], link)
	for _, nd := range s[:o] {
		if nd.delim == '[' {
			nd.inactive = true
		}
	}
	*seq = s
	return link
}

// inlineTail parses an inline link destination and optional title starting
// at the opening parenthesis i.
func (p *parser) inlineTail(i int) (dest, title [2]int, end int, ok bool) {
	buf := p.buf
	j := skipSpace(buf, i+1)
	if j < len(buf) && buf[j] == '<' {
		k := j + 1
		for k < len(buf) && !isByte(buf[k], '>', '<', '\n') {
			k++
		}
		if k >= len(buf) || buf[k] != '>' {
			return
		}
		dest = [2]int{j + 1, k}
		j = k + 1
	} else {
		k, depth := j, 0
		for ; k < len(buf); k++ {
			c := buf[k]
			if c <= ' ' {
				break
			}
			if c == '\\' && k+1 < len(buf) && isPunct(buf[k+1]) {
				k++
			} else if c == '(' {
				depth++
			} else if c == ')' {
				if depth == 0 {
					break
				}
				depth--
			}
		}
		dest = [2]int{j, k}
		j = k
	}
	k := skipSpace(buf, j)
	if k < len(buf) && k > j && isByte(buf[k], '"', '\'', '(') {
		close := buf[k]
		if close == '(' {
			close = ')'
		}
		e := k + 1
		for e < len(buf) && buf[e] != close && buf[e] != '\n' {
			if buf[e] == '\\' {
				e++
			}
			e++
		}
		if e >= len(buf) || buf[e] != close {
			return
		}
		title = [2]int{k + 1, e}
		k = skipSpace(buf, e+1)
	}
	if k >= len(buf) || buf[k] != ')' {
		return
	}
	return dest, title, k + 1, true
}

// emphasis resolves delimiter runs in seq into Emphasis and Strong nodes.
func (p *parser) emphasis(seq []*node) []*node {
	isRun := func(nd *node) bool { return nd.delim == '*' || nd.delim == '_' }
	for {
		c := -1
		for k, nd := range seq {
			if isRun(nd) && nd.close && !nd.unmatched && nd.n > 0 {
				c = k
				break
			}
		}
		if c < 0 {
			break
		}
		closer := seq[c]

		o := -1
		for k := c - 1; k >= 0; k-- {
			nd := seq[k]
			if nd.delim != closer.delim || !nd.open || nd.n == 0 {
				continue
			}
			if (nd.close || closer.open) && (nd.orig+closer.orig)%3 == 0 &&
				!(nd.orig%3 == 0 && closer.orig%3 == 0) {
				continue
			}
			o = k
			break
		}
		if o < 0 {
			closer.unmatched = true
			continue
		}
		opener := seq[o]

		use, typ := 1, mdevent.Emphasis
		if opener.n >= 2 && closer.n >= 2 {
			use, typ = 2, mdevent.Strong
		}
		open := &node{typ: mdevent.EmphasisSequence, start: opener.end - use, end: opener.end}
		close := &node{typ: mdevent.EmphasisSequence, start: closer.start, end: closer.start + use}
		em := &node{typ: typ, start: open.start, end: close.end}
		em.kids = append(em.kids, open)
		for _, nd := range seq[o+1 : c] {
			if isRun(nd) {
				nd.delim = 0
			}
			em.kids = append(em.kids, nd)
		}
		em.kids = append(em.kids, close)
		opener.n -= use
		opener.end -= use
		closer.n -= use
		closer.start += use

		head, tail := seq[:o+1], seq[c:]
		if opener.n == 0 {
			head = seq[:o]
		}
		if closer.n == 0 {
			tail = seq[c+1:]
		}
		next := make([]*node, 0, len(head)+1+len(tail))
		next = append(next, head...)
		next = append(next, em)
		seq = append(next, tail...)
	}
	return seq
}

// flatten appends events for nodes to evs, coalescing adjacent text.
func (p *parser) flatten(evs []mdevent.Event, nodes []*node) []mdevent.Event {
	for k := 0; k < len(nodes); k++ {
		nd := nodes[k]
		if nd.typ == mdevent.Data {
			if nd.end <= nd.start {
				continue
			}
			end := nd.end
			for k+1 < len(nodes) && nodes[k+1].typ == mdevent.Data && nodes[k+1].start == end {
				k++
				if nodes[k].end > end {
					end = nodes[k].end
				}
			}
			id := p.token(mdevent.Data, nd.start, end)
			evs = append(evs, mdevent.Event{Kind: mdevent.Enter, Token: id}, mdevent.Event{Kind: mdevent.Exit, Token: id})
			continue
		}
		id := p.token(nd.typ, nd.start, nd.end)
		evs = append(evs, mdevent.Event{Kind: mdevent.Enter, Token: id})
		evs = p.flatten(evs, nd.kids)
		evs = append(evs, mdevent.Event{Kind: mdevent.Exit, Token: id})
	}
	return evs
}

func (p *parser) token(typ mdevent.Type, start, end int) mdevent.TokenID {
	so := p.offs[start]
	eo := so
	if end > start {
		eo = p.offs[end-1] + 1
	}
	return p.doc.New(typ, p.doc.PointAt(so), p.doc.PointAt(eo))
}

func skipSpace(buf []byte, i int) int {
	for i < len(buf) && isByte(buf[i], ' ', '\t', '\n', '\r') {
		i++
	}
	return i
}

func isSpace(b byte) bool { return isByte(b, ' ', '\t', '\n', '\r', '\f', '\v') }

func isPunct(b byte) bool {
	return '!' <= b && b <= '/' || ':' <= b && b <= '@' || '[' <= b && b <= '`' || '{' <= b && b <= '~'
}

func isByte(b byte, any ...byte) bool {
	for _, ab := range any {
		if b == ab {
			return true
		}
	}
	return false
}
