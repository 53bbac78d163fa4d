package socutil

import (
	"bytes"
	"io"
)

// WriteBuffer accumulates output in memory, passing it on to To in chunks
// chosen by its Policy:
//
// 	buf := WriteBuffer{To: os.Stdout}
// 	for _, ev := range events {
// 		fmt.Fprintln(&buf, ev)
// 		if err := buf.MaybeFlush(); err != nil {
// 			return err
// 		}
// 	}
// 	return buf.Flush()
type WriteBuffer struct {
	bytes.Buffer
	To io.Writer

	// Policy returns how many leading bytes of the buffer are ready to be
	// written; LineChunks when nil.
	Policy func(b []byte) int
}

// Flush writes everything buffered, regardless of Policy.
func (buf *WriteBuffer) Flush() error {
	_, err := buf.WriteTo(buf.To)
	return err
}

// MaybeFlush writes the prefix of the buffer that Policy deems ready,
// discarding whatever got written.
func (buf *WriteBuffer) MaybeFlush() error {
	policy := buf.Policy
	if policy == nil {
		policy = LineChunks
	}
	b := buf.Bytes()
	n := policy(b)
	if n <= 0 {
		return nil
	}
	m, err := buf.To.Write(b[:n])
	buf.Next(m)
	return err
}

// LineChunks is the default WriteBuffer policy: everything through the last
// newline.
func LineChunks(b []byte) int {
	return bytes.LastIndexByte(b, '\n') + 1
}

// ErrWriter is a sticky error writer: once a write fails, it retains the
// error and drops every later write.
type ErrWriter struct {
	io.Writer
	Err error
}

func (ew *ErrWriter) Write(p []byte) (n int, err error) {
	if ew.Err != nil {
		return 0, ew.Err
	}
	n, ew.Err = ew.Writer.Write(p)
	return n, ew.Err
}

// PrefixWriter returns a writer that starts every line written through it
// with prefix. Output is line buffered; Close flushes any final partial line.
func PrefixWriter(prefix string, w io.Writer) *Prefixer {
	p := &Prefixer{Prefix: prefix}
	p.buf.To = w
	return p
}

// Prefixer is the writer returned by PrefixWriter. Prefix may be changed
// between writes; the change applies from the next line started.
type Prefixer struct {
	Prefix string

	// Skip suppresses the prefix of the next line started, e.g. when the
	// caller has already written a list marker of the same width.
	Skip bool

	buf WriteBuffer
	mid bool
}

// Close flushes any partial final line.
func (p *Prefixer) Close() error { return p.buf.Flush() }

func (p *Prefixer) Write(b []byte) (n int, err error) {
	for len(b) > 0 {
		if !p.mid {
			if p.Skip {
				p.Skip = false
			} else {
				p.buf.WriteString(p.Prefix)
			}
			p.mid = true
		}
		line := b
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			line = b[:i+1]
			p.mid = false
		}
		b = b[len(line):]
		m, _ := p.buf.Write(line)
		n += m
	}
	return n, p.buf.MaybeFlush()
}

// WriteLines calls next with a line buffered writer until it returns false,
// or until writing to to fails. The flush argument passed to next writes out
// any partial line immediately.
func WriteLines(to io.Writer, next func(w io.Writer, flush func()) bool) error {
	ew, ok := to.(*ErrWriter)
	if !ok {
		ew = &ErrWriter{Writer: to}
	}
	buf := WriteBuffer{To: ew}
	for ew.Err == nil && next(&buf, func() { buf.Flush() }) {
		buf.MaybeFlush()
	}
	buf.Flush()
	return ew.Err
}
