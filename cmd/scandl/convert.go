package main

import (
	"fmt"
	"io"

	"github.com/russross/blackfriday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jcorbin/scandl/deflist"
	"github.com/jcorbin/scandl/html"
	"github.com/jcorbin/scandl/internal/inline"
	"github.com/jcorbin/scandl/mdevent"
)

type converter struct {
	cfg    *config
	stderr io.Writer

	gm goldmark.Markdown
}

func (conv *converter) convert(w io.Writer, src []byte) (st stats, err error) {
	st.size = len(src)

	switch conv.cfg.Reference {
	case "goldmark":
		if conv.gm == nil {
			conv.gm = goldmark.New(goldmark.WithExtensions(extension.DefinitionList))
		}
		return st, conv.gm.Convert(src, w)

	case "blackfriday":
		_, err := w.Write(blackfriday.Run(src, blackfriday.WithExtensions(
			blackfriday.CommonExtensions|blackfriday.DefinitionLists)))
		return st, err
	}

	doc := deflist.Parse(src, conv.cfg.options(conv.stderr)...)
	inline.Tokenize(doc)
	st.count(doc)

	if conv.cfg.Events {
		_, err := fmt.Fprintf(w, "%+v\n", doc)
		return st, err
	}
	return st, html.Render(w, doc)
}

func (st *stats) count(doc *mdevent.Document) {
	st.events = len(doc.Events)
	st.tokens = doc.NumTokens()
	for i, ev := range doc.Events {
		if ev.Kind != mdevent.Enter {
			continue
		}
		switch doc.TypeOf(i) {
		case deflist.List:
			st.lists++
		case deflist.Term:
			st.terms++
		case deflist.Description:
			st.descs++
		}
	}
}
