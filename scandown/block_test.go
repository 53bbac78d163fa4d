package scandown_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/scandl/mdevent"
	"github.com/jcorbin/scandl/scandown"
)

func Example() {
	var tz scandown.Tokenizer
	doc := tz.Tokenize([]byte("# Hi\n"))
	fmt.Printf("%v\n", doc)

	// Output:
	// enter atxHeading "# Hi"
	// enter atxHeadingSequence "#"
	// exit atxHeadingSequence "#"
	// enter chunkText "Hi"
	// exit chunkText "Hi"
	// exit atxHeading "# Hi"
	// enter lineEnding "\n"
	// exit lineEnding "\n"
}

// shape renders the non-trivia token tree of doc, with leaves as bare type
// names and other tokens as "type{ ... }".
func shape(doc *mdevent.Document) string {
	var parts []string
	for i, ev := range doc.Events {
		switch t := doc.TypeOf(i); {
		case mdevent.IsPrefix(t), t == mdevent.LineEnding, t == mdevent.LineEndingBlank, t == mdevent.ListItemPrefix:
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

func TestTokenizer(t *testing.T) {
	for _, tc := range []struct {
		name  string
		in    string
		shape string
		check func(t *testing.T, doc *mdevent.Document)
	}{
		{
			name:  "paragraph",
			in:    "Hello\nworld\n",
			shape: "content{ paragraph{ chunkText chunkText } }",
			check: func(t *testing.T, doc *mdevent.Document) {
				var chunks []mdevent.TokenID
				for i, ev := range doc.Events {
					if ev.Kind == mdevent.Enter && doc.TypeOf(i) == mdevent.ChunkText {
						chunks = append(chunks, ev.Token)
					}
				}
				require.Len(t, chunks, 2)
				assert.Equal(t, "Hello\n", string(doc.Slice(chunks[0])), "non-final chunk carries its line ending")
				assert.Equal(t, "world", string(doc.Slice(chunks[1])))
				assert.Equal(t, chunks[1], doc.Token(chunks[0]).Next)
				assert.Equal(t, chunks[0], doc.Token(chunks[1]).Prev)
			},
		},
		{
			name:  "heading then paragraph",
			in:    "# Head #\n\npara",
			shape: "atxHeading{ atxHeadingSequence chunkText atxHeadingSequence } content{ paragraph{ chunkText } }",
		},
		{
			name:  "lazy quote",
			in:    "> quote\nlazy\n",
			shape: "blockQuote{ content{ paragraph{ chunkText chunkText } } }",
			check: func(t *testing.T, doc *mdevent.Document) {
				assert.True(t, doc.Lazy[2])
				assert.False(t, doc.Lazy[1])
			},
		},
		{
			name:  "quote ends on blank",
			in:    "> a\n\nb",
			shape: "blockQuote{ content{ paragraph{ chunkText } } } content{ paragraph{ chunkText } }",
		},
		{
			name:  "tight list",
			in:    "- a\n- b\n",
			shape: "listUnordered{ listItem{ content{ paragraph{ chunkText } } } listItem{ content{ paragraph{ chunkText } } } }",
			check: func(t *testing.T, doc *mdevent.Document) {
				assert.False(t, doc.Token(doc.Events[0].Token).Loose)
			},
		},
		{
			name:  "loose list",
			in:    "- a\n\n- b\n",
			shape: "listUnordered{ listItem{ content{ paragraph{ chunkText } } } listItem{ content{ paragraph{ chunkText } } } }",
			check: func(t *testing.T, doc *mdevent.Document) {
				assert.True(t, doc.Token(doc.Events[0].Token).Loose)
			},
		},
		{
			name:  "delimiter change starts a new list",
			in:    "- a\n* b\n",
			shape: "listUnordered{ listItem{ content{ paragraph{ chunkText } } } } listUnordered{ listItem{ content{ paragraph{ chunkText } } } }",
		},
		{
			name:  "nested list",
			in:    "1. a\n   - b\n2. c\n",
			shape: "listOrdered{ listItem{ content{ paragraph{ chunkText } } listUnordered{ listItem{ content{ paragraph{ chunkText } } } } } listItem{ content{ paragraph{ chunkText } } } }",
		},
		{
			name:  "ordered list must start at one to interrupt",
			in:    "a\n2. b\n",
			shape: "content{ paragraph{ chunkText chunkText } }",
		},
		{
			name:  "fenced code",
			in:    "```go\ncode\n\n```\n",
			shape: "codeFenced{ codeFencedFence{ codeFencedFenceInfo } codeFlowValue codeFencedFence }",
		},
		{
			name:  "unclosed fence",
			in:    "> ~~~\n> x\ny",
			shape: "blockQuote{ codeFenced{ codeFencedFence codeFlowValue } } content{ paragraph{ chunkText } }",
		},
		{
			name:  "indented code",
			in:    "    code\n\n    more\n",
			shape: "codeIndented{ codeFlowValue codeFlowValue }",
		},
		{
			name:  "indented line continues paragraph",
			in:    "para\n    more\n",
			shape: "content{ paragraph{ chunkText chunkText } }",
		},
		{
			name:  "setext heading",
			in:    "Title\n===\n",
			shape: "content{ setextHeading{ chunkText setextHeadingLine } }",
		},
		{
			name:  "thematic break",
			in:    "a\n***\n",
			shape: "content{ paragraph{ chunkText } } thematicBreak",
		},
		{
			name:  "definition",
			in:    "[a]: /url \"t\"\ntext",
			shape: "content{ definition{ definitionLabel definitionDestination definitionTitle } paragraph{ chunkText } }",
		},
		{
			name:  "definition cannot interrupt a paragraph",
			in:    "text\n[a]: /url",
			shape: "content{ paragraph{ chunkText chunkText } }",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var tz scandown.Tokenizer
			doc := tz.Tokenize([]byte(tc.in))
			require.NoError(t, mdevent.Check(doc), "%+v", doc)
			assert.Equal(t, tc.shape, shape(doc), "%+v", doc)
			if tc.check != nil {
				tc.check(t, doc)
			}
		})
	}
}

var testBox = mdevent.RegisterType("testBox")

// boxExtension implements a "!" prefixed container, much like a block quote.
type boxExtension struct {
	refuse bool
	starts int
}

type box struct{ tok mdevent.TokenID }

func (ext *boxExtension) Marker() byte { return '!' }

func (ext *boxExtension) Start(l *scandown.Line) scandown.Container {
	ext.starts++
	if ext.refuse {
		return nil
	}
	l.ConsumeIndent(mdevent.LinePrefix, 3)
	b := &box{tok: l.Enter(testBox)}
	l.Document().Token(b.tok).Container = true
	b.prefix(l)
	return b
}

func (b *box) prefix(l *scandown.Line) {
	l.Consume(mdevent.LinePrefix, 1)
	if l.Peek() == ' ' {
		l.Consume(mdevent.LinePrefix, 1)
	}
}

func (b *box) Token() mdevent.TokenID { return b.tok }

func (b *box) Continue(l *scandown.Line) scandown.Verdict {
	if _, rest := l.Trim(3); len(rest) == 0 || rest[0] != '!' {
		return scandown.Reject
	}
	l.ConsumeIndent(mdevent.LinePrefix, 3)
	b.prefix(l)
	return scandown.Accept
}

func (b *box) Reopen(l *scandown.Line) {}
func (b *box) Exit()                   {}

func TestTokenizer_extension(t *testing.T) {
	t.Run("accept", func(t *testing.T) {
		ext := &boxExtension{}
		tz := scandown.Tokenizer{Extensions: []scandown.ContainerExtension{ext}}
		doc := tz.Tokenize([]byte("! a\n! b\nc\n\nd"))
		require.NoError(t, mdevent.Check(doc), "%+v", doc)
		assert.Equal(t, "testBox{ content{ paragraph{ chunkText chunkText chunkText } } } content{ paragraph{ chunkText } }", shape(doc))
		assert.True(t, doc.Lazy[3])
		assert.Equal(t, 1, ext.starts)
	})

	t.Run("refuse rolls back", func(t *testing.T) {
		ext := &boxExtension{refuse: true}
		tz := scandown.Tokenizer{Extensions: []scandown.ContainerExtension{ext}}
		doc := tz.Tokenize([]byte("> a\n! b\n"))
		require.NoError(t, mdevent.Check(doc), "%+v", doc)
		assert.Equal(t, "blockQuote{ content{ paragraph{ chunkText chunkText } } }", shape(doc))
		assert.True(t, doc.Lazy[2])
		assert.Equal(t, 1, ext.starts)
	})
}

func TestTokenizer_crlf(t *testing.T) {
	var tz scandown.Tokenizer
	doc := tz.Tokenize([]byte("a\r\nb\r\n"))
	require.NoError(t, mdevent.Check(doc))
	var chunks []string
	for i, ev := range doc.Events {
		if ev.Kind == mdevent.Enter && doc.TypeOf(i) == mdevent.ChunkText {
			chunks = append(chunks, string(doc.Slice(ev.Token)))
		}
	}
	assert.Equal(t, []string{"a\r\n", "b"}, chunks)
}

func TestBlock_Format(t *testing.T) {
	b := scandown.Block{Type: scandown.List, Delim: '.', Width: 3}
	assert.Equal(t, "OrderedList", fmt.Sprint(b))
	assert.Equal(t, "OrderedList delim='.' width=3", fmt.Sprintf("%+v", b))
	assert.Equal(t, "Codefence delim='`' width=3 indent=1",
		fmt.Sprintf("%+v", scandown.Block{Type: scandown.Codefence, Delim: '`', Width: 3, Indent: 1}))
	assert.Equal(t, "InvalidBlock42", scandown.BlockType(42).String())

	var tz scandown.Tokenizer
	assert.Equal(t, "-- empty --", fmt.Sprint(&tz))
}
