package deflist

import (
	"github.com/jcorbin/scandl/mdevent"
)

// termFlow locates the flow content that precedes a List enter event.
type termFlow struct {
	quoteExit    int // a crossed block quote exit, or -1
	contentEnter int
	contentExit  int // -1 if there is no preceding content
	paraEnter    int
	paraExit     int // -1 if the content ends in no paragraph
}

func isTrivia(t mdevent.Type) bool {
	return mdevent.IsPrefix(t) || t == mdevent.LineEnding || t == mdevent.LineEndingBlank
}

// analyzeTermFlow finds the Content, and its final Paragraph, that the List
// entered at listEnter may take its terms from. It mirrors the lookback done
// by possibleTerm when the List was started.
func analyzeTermFlow(doc *mdevent.Document, listEnter int) termFlow {
	f := termFlow{quoteExit: -1, contentEnter: -1, contentExit: -1, paraEnter: -1, paraExit: -1}
	i := listEnter - 1
	for i >= 0 && mdevent.IsPrefix(doc.TypeOf(i)) {
		i--
	}
	if i >= 0 && doc.Is(i, mdevent.Exit, mdevent.BlockQuote) {
		f.quoteExit = i
		i--
	}
	for i >= 0 && isTrivia(doc.TypeOf(i)) {
		i--
	}
	if i < 0 || !doc.Is(i, mdevent.Exit, mdevent.Content) {
		return f
	}
	f.contentExit = i
	f.contentEnter = doc.Match(i)
	mdevent.Assert(f.contentEnter >= 0, "unmatched %v exit at %v", mdevent.Content, i)
	if j := i - 1; j > f.contentEnter && doc.Is(j, mdevent.Exit, mdevent.Paragraph) {
		f.paraExit = j
		f.paraEnter = doc.Match(j)
	}
	return f
}

// createTerms turns the paragraph before the List entered at listEnter, the
// last event, into Term tokens, relocating the List enter before them. It
// returns the new index of the List enter.
func (r *resolver) createTerms(listEnter int) int {
	doc := r.doc
	list := doc.Events[listEnter].Token
	f := analyzeTermFlow(doc, listEnter)

	if f.paraExit < 0 {
		at := doc.Token(list).Start
		term := doc.New(Term, at, at)
		doc.Splice(listEnter+1, 0, mdevent.Event{Kind: mdevent.Enter, Token: term}, mdevent.Event{Kind: mdevent.Exit, Token: term})
		r.log.Debugf("list #%v: empty term", list)
		return listEnter
	}

	var chunks []int
	for i := f.paraEnter + 1; i < f.paraExit; i++ {
		if doc.Is(i, mdevent.Enter, mdevent.ChunkText) {
			chunks = append(chunks, i)
		}
	}
	mdevent.Assert(len(chunks) > 0, "%v without chunks at %v", mdevent.Paragraph, f.paraEnter)

	if f.quoteExit < 0 && len(chunks) == 1 && r.ext.refused[doc.Token(doc.Events[chunks[0]].Token).Start.Offset] {
		return r.promote(listEnter, f, chunks[0])
	}

	// from the end backward, every chunk becomes a term; across a block
	// quote only those on lazy lines, which are no longer part of it
	first := 0
	if f.quoteExit >= 0 {
		first = len(chunks)
		for first > 0 && doc.Lazy[doc.Token(doc.Events[chunks[first-1]].Token).Start.Line] {
			first--
		}
		mdevent.Assert(0 < first && first < len(chunks), "invalid lazy term split %v/%v", first, len(chunks))
	}

	var out []mdevent.Event
	listEv := doc.Events[listEnter]
	var quoteEv mdevent.Event
	if f.quoteExit >= 0 {
		quoteEv = doc.Events[f.quoteExit]
	}

	// what remains of the flow content
	var lead []mdevent.Event
	if first > 0 {
		remEnd := chunks[first-1] + 2
		// the last remaining chunk keeps the line ending it absorbed
		end := doc.Token(doc.Events[chunks[first-1]].Token).End
		out = append(out, doc.Events[f.contentEnter:remEnd]...)
		for _, id := range []mdevent.TokenID{
			doc.Events[f.paraEnter].Token,
			doc.Events[f.contentEnter].Token,
			quoteEv.Token,
		} {
			doc.Token(id).End = end
		}
		out = append(out, doc.Events[f.paraExit], doc.Events[f.contentExit], quoteEv)
		lead = doc.Events[remEnd:chunks[first]]
	} else {
		if f.paraEnter > f.contentEnter+1 {
			// keep the content wrapper around definitions before the paragraph
			keep := f.paraEnter
			for keep > f.contentEnter+1 && isTrivia(doc.TypeOf(keep-1)) {
				keep--
			}
			content := doc.Events[f.contentEnter].Token
			doc.Token(content).End = doc.Token(doc.Events[keep-1].Token).End
			out = append(out, doc.Events[f.contentEnter:keep]...)
			out = append(out, mdevent.Event{Kind: mdevent.Exit, Token: content})
			out = append(out, doc.Events[keep:f.paraEnter]...)
		}
		lead = doc.Events[f.paraEnter+1 : chunks[0]]
	}
	out = append(out, lead...)

	// the terms
	listStart := doc.Token(doc.Events[chunks[first]].Token).Start
	doc.Token(listEv.Token).Start = listStart
	listAt := f.contentEnter + len(out)
	out = append(out, listEv)
	for k := first; k < len(chunks); k++ {
		i := chunks[k]
		if k > first {
			out = append(out, doc.Events[chunks[k-1]+2:i]...)
		}
		chunk := doc.Events[i].Token
		mdevent.Assert(doc.Is(i+1, mdevent.Exit, mdevent.ChunkText) && doc.Events[i+1].Token == chunk,
			"%v enter at %v not followed by its exit", mdevent.ChunkText, i)
		doc.Unlink(chunk)
		ctok := doc.Token(chunk)
		term := doc.New(Term, ctok.Start, ctok.End)
		out = append(out,
			mdevent.Event{Kind: mdevent.Enter, Token: term},
			doc.Events[i], doc.Events[i+1],
			mdevent.Event{Kind: mdevent.Exit, Token: term})
	}
	out = append(out, doc.Events[chunks[len(chunks)-1]+2:f.paraExit]...)

	// then whatever followed the flow content, less the relocated events
	for i := f.contentExit + 1; i < listEnter; i++ {
		if i != f.quoteExit {
			out = append(out, doc.Events[i])
		}
	}
	doc.Splice(f.contentEnter, listEnter+1-f.contentEnter, out...)
	r.log.Debugf("list #%v: %v terms", listEv.Token, len(chunks)-first)
	return listAt
}

// promote handles a single line term paragraph that is itself a refused
// marker line: such back-to-back markers start a List with an empty term,
// the paragraph becoming the first description.
func (r *resolver) promote(listEnter int, f termFlow, chunkEnter int) int {
	doc := r.doc
	listEv := doc.Events[listEnter]
	chunk := doc.Events[chunkEnter].Token
	ctok := doc.Token(chunk)
	text := doc.Slice(chunk)

	var out []mdevent.Event
	leaf := func(typ mdevent.Type, start, end int) mdevent.TokenID {
		id := doc.New(typ, doc.PointAt(start), doc.PointAt(end))
		out = append(out, mdevent.Event{Kind: mdevent.Enter, Token: id}, mdevent.Event{Kind: mdevent.Exit, Token: id})
		return id
	}

	content := doc.Events[f.contentEnter].Token
	keep := f.paraEnter > f.contentEnter+1
	if keep {
		out = append(out, doc.Events[f.contentEnter:f.paraEnter]...)
		doc.Token(content).End = doc.Token(doc.Events[f.paraEnter-1].Token).End
		out = append(out, mdevent.Event{Kind: mdevent.Exit, Token: content})
	}

	start, end := ctok.Start.Offset, ctok.End
	doc.Token(listEv.Token).Start = ctok.Start
	listAt := f.contentEnter + len(out)
	out = append(out, listEv)
	leaf(Term, start, start)

	// the marker and its whitespace, as Start would have consumed them
	ws := 1
	for ws < len(text) && isSpace(text[ws]) {
		ws++
	}
	blank := ws == len(text)
	if !blank && ws-1 > 4 {
		ws = 2
	}
	prefix := doc.New(DescriptionPrefix, doc.PointAt(start), doc.PointAt(start+ws))
	doc.Token(prefix).Loose = blank
	out = append(out, mdevent.Event{Kind: mdevent.Enter, Token: prefix})
	leaf(DescriptionMarker, start, start+1)
	if ws > 1 {
		leaf(DescriptionPrefixWhitespace, start+1, start+ws)
	}
	out = append(out, mdevent.Event{Kind: mdevent.Exit, Token: prefix})

	if !blank {
		if keep {
			content = doc.New(mdevent.Content, mdevent.Point{}, mdevent.Point{})
		}
		para := doc.Events[f.paraEnter].Token
		for _, id := range []mdevent.TokenID{content, para, chunk} {
			tok := doc.Token(id)
			tok.Start, tok.End = doc.PointAt(start+ws), end
		}
		out = append(out,
			mdevent.Event{Kind: mdevent.Enter, Token: content},
			doc.Events[f.paraEnter], doc.Events[chunkEnter], doc.Events[chunkEnter+1], doc.Events[f.paraExit],
			mdevent.Event{Kind: mdevent.Exit, Token: content})
	}

	for i := f.contentExit + 1; i < listEnter; i++ {
		out = append(out, doc.Events[i])
	}
	doc.Splice(f.contentEnter, listEnter+1-f.contentEnter, out...)
	r.log.Debugf("list #%v: promoted marker line to description", listEv.Token)
	return listAt
}
