package deflist

import (
	"github.com/pion/logging"

	"github.com/jcorbin/scandl/mdevent"
)

type resolver struct {
	ext   *Extension
	doc   *mdevent.Document
	log   logging.LeveledLogger
	lists []openList
}

// openList is a List being resolved. Its token differs from the scanned one
// once the List has been merged into the one before it.
type openList struct {
	list mdevent.TokenID
	desc mdevent.TokenID // open Description, if any
}

// Resolve rewrites every List in doc, as scanned with the receiver, into
// alternating Term and Description children, merging adjacent Lists.
// It panics with an *mdevent.InvariantError if the result is malformed.
//
// The scanned events are resolved in a single forward pass, with doc.Events
// holding the resolved prefix; term creation only ever rewrites the flow
// content just before a List enter.
func (ext *Extension) Resolve(doc *mdevent.Document) {
	mdevent.Assert(ext.doc == doc, "deflist: resolving a document that was not scanned with this extension")
	r := resolver{ext: ext, doc: doc, log: ext.resolvLog}
	scanned := doc.Events
	doc.Events = make([]mdevent.Event, 0, len(scanned)+len(scanned)/4)
	for _, ev := range scanned {
		r.next(ev)
	}
	mdevent.Assert(len(r.lists) == 0, "deflist: unterminated list")
	mdevent.MustCheck(doc)
	if err := CheckLists(doc); err != nil {
		panic(&mdevent.InvariantError{Msg: err.Error()})
	}
}

func (r *resolver) next(ev mdevent.Event) {
	doc := r.doc
	switch t := doc.Token(ev.Token).Type; {
	case ev.Kind == mdevent.Enter && t == List:
		doc.Events = append(doc.Events, ev)
		r.enterList(len(doc.Events) - 1)

	case t == List:
		mdevent.Assert(len(r.lists) > 0, "deflist: %v exit without enter", List)
		top := r.lists[len(r.lists)-1]
		r.lists = r.lists[:len(r.lists)-1]
		if top.desc != 0 {
			r.closeDescription(top.desc)
		}
		if top.list != ev.Token {
			doc.Token(top.list).End = doc.Token(ev.Token).End
			ev.Token = top.list
		}
		doc.Events = append(doc.Events, ev)

	case ev.Kind == mdevent.Enter && t == DescriptionPrefix:
		top := r.top()
		if r.blankBefore(len(doc.Events)) {
			doc.Token(ev.Token).Loose = true
		}
		if top.desc != 0 {
			r.closeDescription(top.desc)
			top.desc = 0
		}
		doc.Events = append(doc.Events, ev)

	case t == DescriptionPrefix:
		top := r.top()
		prefix := doc.Token(ev.Token)
		desc := doc.New(Description, prefix.End, prefix.End)
		doc.Token(desc).Loose = doc.Token(ev.Token).Loose
		top.desc = desc
		doc.Events = append(doc.Events, ev, mdevent.Event{Kind: mdevent.Enter, Token: desc})

	default:
		doc.Events = append(doc.Events, ev)
	}
}

func (r *resolver) top() *openList {
	mdevent.Assert(len(r.lists) > 0, "deflist: %v outside of any %v", DescriptionPrefix, List)
	return &r.lists[len(r.lists)-1]
}

// enterList creates the terms of the List just entered at the end of the
// resolved events, merging it into a List that exits right before it, but for
// prefixes.
func (r *resolver) enterList(at int) {
	doc := r.doc
	at = r.createTerms(at)
	list := doc.Events[at].Token

	j := at - 1
	for j >= 0 && mdevent.IsPrefix(doc.TypeOf(j)) {
		j--
	}
	if j >= 0 && doc.Is(j, mdevent.Exit, List) {
		prev := doc.Events[j].Token
		r.log.Debugf("merging list #%v into #%v", list, prev)
		doc.Splice(at, 1)
		doc.Splice(j, 1)
		list = prev
	}
	r.lists = append(r.lists, openList{list: list})
}

// closeDescription appends the exit of desc, ending it with the last
// resolved event.
func (r *resolver) closeDescription(desc mdevent.TokenID) {
	doc := r.doc
	tok := doc.Token(desc)
	if end := doc.Token(doc.Events[len(doc.Events)-1].Token).End; end.Offset > tok.Start.Offset {
		tok.End = end
	} else {
		tok.End = tok.Start
	}
	doc.Events = append(doc.Events, mdevent.Event{Kind: mdevent.Exit, Token: desc})
}

// blankBefore reports whether the flow before the i-th event ends in a blank
// line, looking into the last children of just closed blocks.
func (r *resolver) blankBefore(i int) bool {
	doc := r.doc
	for j := i - 1; j >= 0; j-- {
		switch t := doc.TypeOf(j); {
		case mdevent.IsPrefix(t):
		case t == mdevent.LineEndingBlank:
			return true
		case doc.Events[j].Kind == mdevent.Exit && t != mdevent.LineEnding:
		default:
			return false
		}
	}
	return false
}
