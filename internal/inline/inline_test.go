package inline_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/scandl/internal/inline"
	"github.com/jcorbin/scandl/mdevent"
	"github.com/jcorbin/scandl/scandown"
)

func shape(doc *mdevent.Document) string {
	var parts []string
	for i, ev := range doc.Events {
		switch t := doc.TypeOf(i); {
		case mdevent.IsPrefix(t), t == mdevent.LineEnding, t == mdevent.LineEndingBlank:
			continue
		case ev.Kind == mdevent.Enter:
			if i+1 < len(doc.Events) && doc.Events[i+1].Token == ev.Token {
				parts = append(parts, t.String())
			} else {
				parts = append(parts, t.String()+"{")
			}
		case doc.Events[i-1].Token != ev.Token:
			parts = append(parts, "}")
		}
	}
	return strings.Join(parts, " ")
}

func texts(doc *mdevent.Document, typ mdevent.Type) (ss []string) {
	for i, ev := range doc.Events {
		if ev.Kind == mdevent.Enter && doc.TypeOf(i) == typ {
			ss = append(ss, string(doc.Slice(ev.Token)))
		}
	}
	return ss
}

func TestTokenize(t *testing.T) {
	for _, tc := range []struct {
		name  string
		in    string
		shape string
		data  []string
	}{
		{
			name:  "text",
			in:    "hello world",
			shape: "content{ paragraph{ data } }",
			data:  []string{"hello world"},
		},
		{
			name:  "soft line ending",
			in:    "a \nb\n",
			shape: "content{ paragraph{ data lineEndingSoft data } }",
			data:  []string{"a", "b"},
		},
		{
			name:  "hard break by spaces",
			in:    "a  \nb",
			shape: "content{ paragraph{ data hardBreak lineEndingSoft data } }",
			data:  []string{"a", "b"},
		},
		{
			name:  "hard break by backslash",
			in:    "a\\\nb",
			shape: "content{ paragraph{ data hardBreak lineEndingSoft data } }",
		},
		{
			name:  "trailing whitespace",
			in:    "a   ",
			shape: "content{ paragraph{ data } }",
			data:  []string{"a"},
		},
		{
			name:  "escape",
			in:    `a\*b\c`,
			shape: "content{ paragraph{ data characterEscape data } }",
			data:  []string{"a", `b\c`},
		},
		{
			name:  "emphasis",
			in:    "a *b* c",
			shape: "content{ paragraph{ data emphasis{ emphasisSequence data emphasisSequence } data } }",
			data:  []string{"a ", "b", " c"},
		},
		{
			name:  "strong within emphasis",
			in:    "*a **b** c*",
			shape: "content{ paragraph{ emphasis{ emphasisSequence data strong{ emphasisSequence data emphasisSequence } data emphasisSequence } } }",
		},
		{
			name:  "intraword underscore",
			in:    "snake_case_name",
			shape: "content{ paragraph{ data } }",
			data:  []string{"snake_case_name"},
		},
		{
			name:  "unmatched delimiters",
			in:    "**a*",
			shape: "content{ paragraph{ data emphasis{ emphasisSequence data emphasisSequence } } }",
			data:  []string{"*", "a"},
		},
		{
			name:  "rule of three",
			in:    "*a**b*",
			shape: "content{ paragraph{ emphasis{ emphasisSequence data emphasisSequence } } }",
			data:  []string{"a**b"},
		},
		{
			name:  "code span",
			in:    "a `` b`c `` d",
			shape: "content{ paragraph{ data codeText{ data } data } }",
			data:  []string{"a ", "b`c", " d"},
		},
		{
			name:  "code span across lines",
			in:    "`a\nb`",
			shape: "content{ paragraph{ codeText{ data lineEndingSoft data } } }",
		},
		{
			name:  "unclosed code span",
			in:    "``a`",
			shape: "content{ paragraph{ data } }",
		},
		{
			name:  "inline link",
			in:    `[a *b*](/url "title")`,
			shape: "content{ paragraph{ link{ linkText{ data emphasis{ emphasisSequence data emphasisSequence } } linkDestination linkTitle } } }",
		},
		{
			name:  "inline link in angle brackets",
			in:    "[a](<my url>)",
			shape: "content{ paragraph{ link{ linkText{ data } linkDestination } } }",
		},
		{
			name:  "shortcut reference",
			in:    "[Foo Bar]\n\n[foo  bar]: /url",
			shape: "content{ paragraph{ link{ linkText{ data } linkReference } } } content{ definition{ definitionLabel definitionDestination } }",
		},
		{
			name:  "full reference",
			in:    "[a][b]\n\n[b]: /url",
			shape: "content{ paragraph{ link{ linkText{ data } linkReference } } } content{ definition{ definitionLabel definitionDestination } }",
		},
		{
			name:  "undefined reference",
			in:    "[a] [b][c]",
			shape: "content{ paragraph{ data } }",
			data:  []string{"[a] [b][c]"},
		},
		{
			name:  "text after inline link",
			in:    "x [pp](/u) tail",
			shape: "content{ paragraph{ data link{ linkText{ data } linkDestination } data } }",
			data:  []string{"x ", "pp", " tail"},
		},
		{
			name:  "text after reference link",
			in:    "A[pp]le *e*\n\n[pp]: /u",
			shape: "content{ paragraph{ data link{ linkText{ data } linkReference } data emphasis{ emphasisSequence data emphasisSequence } } } content{ definition{ definitionLabel definitionDestination } }",
			data:  []string{"A", "pp", "le ", "e"},
		},
		{
			name:  "no links in links",
			in:    "[a [b](/x)](/y)",
			shape: "content{ paragraph{ data link{ linkText{ data } linkDestination } data } }",
		},
		{
			name:  "emphasis across quoted lines",
			in:    "> a *b\n> c*",
			shape: "blockQuote{ content{ paragraph{ data emphasis{ emphasisSequence data lineEndingSoft data emphasisSequence } } } }",
		},
		{
			name:  "heading",
			in:    "# a *b*\n",
			shape: "atxHeading{ atxHeadingSequence data emphasis{ emphasisSequence data emphasisSequence } }",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var tz scandown.Tokenizer
			doc := tz.Tokenize([]byte(tc.in))
			inline.Tokenize(doc)
			require.NoError(t, mdevent.Check(doc), "%+v", doc)
			assert.Equal(t, tc.shape, shape(doc), "%+v", doc)
			if tc.data != nil {
				assert.Equal(t, tc.data, texts(doc, mdevent.Data))
			}
			assert.Empty(t, texts(doc, mdevent.ChunkText), "no chunks left")
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "foo bar", inline.NormalizeLabel([]byte("  Foo \t\n BAR ")))
}

func TestDefinitions(t *testing.T) {
	var tz scandown.Tokenizer
	doc := tz.Tokenize([]byte("[A]: /first\n[a]: /second\n[b]: /b"))
	defs := inline.Definitions(doc)
	require.Len(t, defs, 2)
	assert.Equal(t, "[A]: /first", string(doc.Slice(defs["a"])))
}
