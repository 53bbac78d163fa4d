package deflist_test

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jcorbin/scandl/deflist"
	"github.com/jcorbin/scandl/html"
	"github.com/jcorbin/scandl/internal/inline"
	"github.com/jcorbin/scandl/mdevent"
	"github.com/jcorbin/scandl/scandown"
)

// checkParse requires that src parses into balanced, monotonic events at every
// stage, and that the result renders.
func checkParse(t *testing.T, src string, opts ...deflist.Option) {
	t.Helper()
	doc := deflist.Parse([]byte(src), opts...)
	require.NoError(t, mdevent.Check(doc), "resolved %q\n%+v", src, doc)
	require.NoError(t, deflist.CheckLists(doc), "resolved %q\n%+v", src, doc)
	inline.Tokenize(doc)
	require.NoError(t, mdevent.Check(doc), "inline %q\n%+v", src, doc)
	require.NoError(t, html.Render(io.Discard, doc), "render %q", src)
}

func FuzzParse(f *testing.F) {
	for _, tc := range conformanceCases {
		f.Add(tc.in, false)
	}
	f.Add("a\n: b\n\n\n  c\n", true)
	f.Fuzz(func(t *testing.T, src string, twoBlanks bool) {
		policy := deflist.CloseAfterBlankStart
		if twoBlanks {
			policy = deflist.CloseAfterTwoBlanks
		}
		checkParse(t, src, deflist.WithBlankLinePolicy(policy))
	})
}

func TestParse_generated(t *testing.T) {
	lines := []string{
		"Term",
		": desc",
		":",
		"",
		"    code",
		"> quote",
		">: quoted",
		"- item",
		"1. one",
		"  : nested",
		"  more",
		"[a]: /u",
		"x [a] *b* [c](/u) d",
		":   x [a](/u) y",
		"```",
		"# h",
	}
	policies := []deflist.BlankLinePolicy{deflist.CloseAfterBlankStart, deflist.CloseAfterTwoBlanks}
	for _, a := range lines {
		for _, b := range lines {
			for k, c := range lines {
				src := a + "\n" + b + "\n" + c
				if k%2 == 0 {
					src += "\n"
				}
				for _, p := range policies {
					checkParse(t, src, deflist.WithBlankLinePolicy(p))
				}
			}
		}
	}
}

func BenchmarkResolve(b *testing.B) {
	for _, n := range []int{1000, 4000, 16000} {
		src := []byte(strings.Repeat("Term\n: desc\n\n", n))
		b.Run(fmt.Sprint(n), func(b *testing.B) {
			b.SetBytes(int64(len(src)))
			for i := 0; i < b.N; i++ {
				ext := deflist.New()
				tz := scandown.Tokenizer{Extensions: []scandown.ContainerExtension{ext}}
				ext.Resolve(tz.Tokenize(src))
			}
		})
	}
}

func BenchmarkConvert(b *testing.B) {
	src := []byte(strings.Repeat("A[pp]le *x*\nO[ra]nge\n: Fruit\n\n    code\n: more [b](/u)\n\n", 4000) +
		"[pp]: /pp\n[ra]: /ra\n")
	b.SetBytes(int64(len(src)))
	for i := 0; i < b.N; i++ {
		if err := html.Convert(io.Discard, src); err != nil {
			b.Fatal(err)
		}
	}
}
