// Package html renders a resolved event document as HTML.
//
// Definition lists render as dl/dt/dd elements. Descriptions, like list
// items, are tight unless blank lines separate their content, in which case
// their paragraphs are wrapped in p elements.
package html

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/scandl/deflist"
	"github.com/jcorbin/scandl/internal/inline"
	"github.com/jcorbin/scandl/internal/socutil"
	"github.com/jcorbin/scandl/mdevent"
)

// Convert parses src with definition lists enabled, and renders it.
func Convert(w io.Writer, src []byte, opts ...deflist.Option) error {
	doc := deflist.Parse(src, opts...)
	inline.Tokenize(doc)
	return Render(w, doc)
}

// Render writes the HTML of doc, whose chunk text should already have been
// expanded by inline.Tokenize; any remaining chunk text renders verbatim.
func Render(w io.Writer, doc *mdevent.Document) error {
	r := Renderer{Writer: w}
	return r.Render(doc)
}

// Renderer holds the state of rendering one document.
type Renderer struct {
	Writer io.Writer

	doc   *mdevent.Document
	out   socutil.ErrWriter
	last  byte
	any   bool
	block bool   // last thing written was a block tag
	para  bool   // last thing closed was an unwrapped paragraph
	tight []bool // paragraph wrapping context

	defs     map[string]mdevent.TokenID
	code     codeState
	codeSpan bool
}

type codeState struct {
	open    bool
	fenced  bool
	skipEOL bool // the line ending after an opening fence
	pending int  // line endings not yet written
	wrote   bool
}

// Render writes the HTML of doc.
func (r *Renderer) Render(doc *mdevent.Document) error {
	r.doc = doc
	r.out = socutil.ErrWriter{Writer: r.Writer}
	r.last, r.any, r.block, r.para = 0, false, false, false
	r.tight = r.tight[:0]
	r.defs = inline.Definitions(doc)
	for i := 0; i < len(doc.Events) && r.out.Err == nil; i++ {
		if doc.Events[i].Kind == mdevent.Enter {
			i = r.enter(i)
		} else {
			r.exit(i)
		}
	}
	if r.any {
		r.lineEndingIfNeeded()
	}
	return r.out.Err
}

func (r *Renderer) write(s string) {
	if len(s) == 0 {
		return
	}
	io.WriteString(&r.out, s)
	r.last = s[len(s)-1]
	r.any = true
}

func (r *Renderer) tag(s string) {
	r.write(s)
	r.block = true
	r.para = false
}

// openItem writes the opening tag of an element whose content may be inline.
func (r *Renderer) openItem(s string) {
	r.write(s)
	r.block = false
	r.para = false
}

func (r *Renderer) text(b []byte) {
	if len(b) == 0 {
		return
	}
	r.write(escaper.Replace(string(b)))
	r.block = false
}

func (r *Renderer) lineEndingIfNeeded() {
	if r.any && r.last != '\n' {
		r.write("\n")
	}
}

func (r *Renderer) isTight() bool {
	return len(r.tight) > 0 && r.tight[len(r.tight)-1]
}

func (r *Renderer) push(tight bool) { r.tight = append(r.tight, tight) }

func (r *Renderer) pop() { r.tight = r.tight[:len(r.tight)-1] }

var escaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;", `"`, "&quot;")

// enter renders the enter event at i, returning the index of the last event
// it consumed.
func (r *Renderer) enter(i int) int {
	doc := r.doc
	id := doc.Events[i].Token
	tok := doc.Token(id)
	switch tok.Type {
	case deflist.List:
		r.lineEndingIfNeeded()
		r.tag("<dl>")
	case deflist.Term:
		r.lineEndingIfNeeded()
		r.openItem("<dt>")
	case deflist.Description:
		r.lineEndingIfNeeded()
		r.openItem("<dd>")
		r.push(!tok.Loose)

	case mdevent.BlockQuote:
		r.lineEndingIfNeeded()
		r.tag("<blockquote>")
		r.push(false)
	case mdevent.ListUnordered:
		r.lineEndingIfNeeded()
		r.tag("<ul>")
		r.push(!tok.Loose)
	case mdevent.ListOrdered:
		r.lineEndingIfNeeded()
		if n := r.listStart(i); n != 1 {
			r.tag(fmt.Sprintf("<ol start=\"%d\">", n))
		} else {
			r.tag("<ol>")
		}
		r.push(!tok.Loose)
	case mdevent.ListItem:
		r.lineEndingIfNeeded()
		r.openItem("<li>")

	case mdevent.Paragraph:
		if !r.isTight() {
			r.lineEndingIfNeeded()
			r.tag("<p>")
		} else if r.para {
			r.lineEndingIfNeeded()
		}
	case mdevent.ATXHeading, mdevent.SetextHeading:
		r.lineEndingIfNeeded()
		r.tag(fmt.Sprintf("<h%d>", r.headingLevel(i)))
	case mdevent.ThematicBreak:
		r.lineEndingIfNeeded()
		r.tag("<hr />")
		return doc.Match(i)

	case mdevent.CodeFenced, mdevent.CodeIndented:
		r.lineEndingIfNeeded()
		fenced := tok.Type == mdevent.CodeFenced
		r.code = codeState{open: true, fenced: fenced, skipEOL: fenced}
		if lang := r.fenceLanguage(i); lang != nil {
			r.write(`<pre><code class="language-`)
			r.text(lang)
			r.write(`">`)
		} else {
			r.write("<pre><code>")
		}
	case mdevent.CodeFencedFence:
		return doc.Match(i)
	case mdevent.CodeFlowValue:
		r.codeValue(doc.Slice(id))
		return doc.Match(i)
	case mdevent.LineEnding, mdevent.LineEndingBlank:
		if r.code.open {
			if r.code.skipEOL {
				r.code.skipEOL = false
			} else {
				r.code.pending++
			}
		}
		return doc.Match(i)

	case mdevent.ChunkText, mdevent.Data:
		r.text(doc.Slice(id))
		return doc.Match(i)
	case mdevent.CharacterEscape:
		r.text(doc.Slice(id)[1:])
		return doc.Match(i)
	case mdevent.LineEndingSoft:
		if r.codeSpan {
			r.write(" ")
		} else {
			r.write("\n")
		}
		return doc.Match(i)
	case mdevent.HardBreak:
		r.write("<br />")
		return doc.Match(i)
	case mdevent.CodeText:
		r.write("<code>")
		r.codeSpan = true
	case mdevent.Emphasis:
		r.write("<em>")
	case mdevent.Strong:
		r.write("<strong>")
	case mdevent.Link:
		r.link(i)

	case mdevent.Definition,
		mdevent.ListItemPrefix,
		mdevent.ATXHeadingSequence,
		mdevent.SetextUnderline,
		mdevent.EmphasisSequence,
		mdevent.LinkDestination,
		mdevent.LinkTitle,
		mdevent.LinkReference,
		deflist.DescriptionPrefix:
		return doc.Match(i)
	}
	return i
}

func (r *Renderer) exit(i int) {
	doc := r.doc
	tok := doc.Token(doc.Events[i].Token)
	switch tok.Type {
	case deflist.List:
		r.lineEndingIfNeeded()
		r.tag("</dl>")
	case deflist.Term:
		r.tag("</dt>")
	case deflist.Description:
		r.pop()
		r.closeItem("</dd>")

	case mdevent.BlockQuote:
		r.pop()
		r.lineEndingIfNeeded()
		r.tag("</blockquote>")
	case mdevent.ListUnordered:
		r.pop()
		r.lineEndingIfNeeded()
		r.tag("</ul>")
	case mdevent.ListOrdered:
		r.pop()
		r.lineEndingIfNeeded()
		r.tag("</ol>")
	case mdevent.ListItem:
		r.closeItem("</li>")

	case mdevent.Paragraph:
		if !r.isTight() {
			r.tag("</p>")
		} else {
			r.para = true
		}
	case mdevent.ATXHeading, mdevent.SetextHeading:
		r.tag(fmt.Sprintf("</h%d>", r.headingLevel(doc.Match(i))))

	case mdevent.CodeFenced, mdevent.CodeIndented:
		if r.code.fenced {
			r.write(strings.Repeat("\n", r.code.pending))
		}
		if r.code.wrote && r.last != '\n' {
			r.write("\n")
		}
		r.code = codeState{}
		r.tag("</code></pre>")

	case mdevent.CodeText:
		r.write("</code>")
		r.codeSpan = false
	case mdevent.Emphasis:
		r.write("</em>")
	case mdevent.Strong:
		r.write("</strong>")
	case mdevent.Link:
		r.write("</a>")
	}
}

// closeItem writes the closing tag of a list item or description, on its own
// line if block content preceded it.
func (r *Renderer) closeItem(tag string) {
	if r.block {
		r.lineEndingIfNeeded()
	}
	r.tag(tag)
}

// codeValue writes a line of code, after any line endings held before it.
func (r *Renderer) codeValue(b []byte) {
	if r.code.fenced || r.code.wrote {
		r.write(strings.Repeat("\n", r.code.pending))
	}
	r.code.pending = 0
	r.code.skipEOL = false
	r.text(b)
	r.code.wrote = true
}

func (r *Renderer) headingLevel(i int) int {
	doc := r.doc
	end := doc.Match(i)
	for j := i + 1; j < end; j++ {
		switch doc.TypeOf(j) {
		case mdevent.ATXHeadingSequence:
			return len(doc.Slice(doc.Events[j].Token))
		case mdevent.SetextUnderline:
			if bytes.HasPrefix(doc.Slice(doc.Events[j].Token), []byte("=")) {
				return 1
			}
			return 2
		}
	}
	return 1
}

func (r *Renderer) fenceLanguage(i int) []byte {
	doc := r.doc
	if doc.TypeOf(i) != mdevent.CodeFenced {
		return nil
	}
	end := doc.Match(i)
	for j := i + 1; j < end; j++ {
		if doc.Is(j, mdevent.Enter, mdevent.CodeFencedFenceInfo) {
			if f := bytes.Fields(doc.Slice(doc.Events[j].Token)); len(f) > 0 {
				return f[0]
			}
			return nil
		}
		if doc.Is(j, mdevent.Exit, mdevent.CodeFencedFence) {
			return nil
		}
	}
	return nil
}

func (r *Renderer) listStart(i int) int {
	doc := r.doc
	for j := i + 1; j < len(doc.Events); j++ {
		if doc.Is(j, mdevent.Enter, mdevent.ListItemPrefix) {
			digits := bytes.TrimRight(bytes.TrimSpace(doc.Slice(doc.Events[j].Token)), ".)")
			if n, err := strconv.Atoi(string(digits)); err == nil {
				return n
			}
			return 1
		}
	}
	return 1
}

// link writes the opening anchor of the link entered at i, resolving
// reference links against the document's definitions.
func (r *Renderer) link(i int) {
	doc := r.doc
	end := doc.Match(i)
	var text, dest, title, ref mdevent.TokenID
	for j := i + 1; j < end; j++ {
		if doc.Events[j].Kind != mdevent.Enter {
			continue
		}
		switch id := doc.Events[j].Token; doc.TypeOf(j) {
		case mdevent.LinkText:
			if text == 0 {
				text = id
			}
		case mdevent.LinkDestination:
			dest = id
		case mdevent.LinkTitle:
			title = id
		case mdevent.LinkReference:
			ref = id
		}
	}
	if ref != 0 {
		label := ref
		if tok := doc.Token(ref); tok.Start.Offset == tok.End.Offset {
			label = text
		}
		dest, title = r.definition(inline.NormalizeLabel(doc.Slice(label)))
	}

	r.write(`<a href="`)
	if dest != 0 {
		r.text(doc.Slice(dest))
	}
	r.write(`"`)
	if title != 0 {
		r.write(` title="`)
		r.text(doc.Slice(title))
		r.write(`"`)
	}
	r.write(">")
}

func (r *Renderer) definition(label string) (dest, title mdevent.TokenID) {
	doc := r.doc
	def, ok := r.defs[label]
	if !ok {
		return 0, 0
	}
	for j := 0; j < len(doc.Events); j++ {
		if doc.Events[j].Token != def {
			continue
		}
		for k := j + 1; doc.Events[k].Token != def; k++ {
			if doc.Events[k].Kind != mdevent.Enter {
				continue
			}
			switch doc.TypeOf(k) {
			case mdevent.DefinitionDestination:
				dest = doc.Events[k].Token
			case mdevent.DefinitionTitle:
				title = doc.Events[k].Token
			}
		}
		break
	}
	return dest, title
}
