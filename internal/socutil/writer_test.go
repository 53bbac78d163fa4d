package socutil_test

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/scandl/internal/socutil"
)

func TestPrefixWriter(t *testing.T) {
	var buf bytes.Buffer
	pw := socutil.PrefixWriter("> ", &buf)
	io.WriteString(pw, "a\nb")
	assert.Equal(t, "> a\n", buf.String(), "partial lines stay buffered")
	io.WriteString(pw, "c\n\nd")
	pw.Prefix = "| "
	io.WriteString(pw, "e\nf\n")
	assert.NoError(t, pw.Close())
	assert.Equal(t, "> a\n> bc\n> \n> de\n| f\n", buf.String())

	buf.Reset()
	pw = socutil.PrefixWriter("   ", &buf)
	buf.WriteString("1. ")
	pw.Skip = true
	io.WriteString(pw, "one\ntwo\n")
	assert.Equal(t, "1. one\n   two\n", buf.String())
}

func TestWriteLines(t *testing.T) {
	var buf bytes.Buffer
	n := 0
	assert.NoError(t, socutil.WriteLines(&buf, func(w io.Writer, _ func()) bool {
		if n++; n > 3 {
			return false
		}
		fmt.Fprintf(w, "%d\n", n)
		return true
	}))
	assert.Equal(t, "1\n2\n3\n", buf.String())
}

type limitWriter struct{ n int }

var errLimit = errors.New("limit")

func (w *limitWriter) Write(p []byte) (int, error) {
	if len(p) > w.n {
		return 0, errLimit
	}
	w.n -= len(p)
	return len(p), nil
}

func TestErrWriter(t *testing.T) {
	lw := &limitWriter{n: 4}
	ew := &socutil.ErrWriter{Writer: lw}
	io.WriteString(ew, "abc")
	io.WriteString(ew, "defg")
	n, err := io.WriteString(ew, "h")
	assert.Equal(t, 0, n)
	assert.Equal(t, errLimit, err)
	assert.Equal(t, 1, lw.n, "no writes after the first error")

	calls := 0
	err = socutil.WriteLines(&socutil.ErrWriter{Writer: &limitWriter{n: 2}}, func(w io.Writer, flush func()) bool {
		calls++
		io.WriteString(w, "line\n")
		return true
	})
	assert.Equal(t, errLimit, err)
	assert.Equal(t, 1, calls, "iteration stops after a write error")
}
