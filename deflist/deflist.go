// Package deflist implements definition lists over the scandown event stream:
//
// 	Apple
// 	:   Pomaceous fruit of plants of the genus Malus.
//
// 	Orange
// 	:   The fruit of an evergreen tree of the genus Citrus.
//
// Recognition happens in two steps. While scanning, an Extension opens a
// List container for every accepted marker line, emitting only description
// prefixes. Once the whole document is scanned, Resolve turns the paragraph
// before each List into Terms, wraps each run of content after a prefix into
// a Description, and merges adjacent Lists.
package deflist

import (
	"io"

	"github.com/pion/logging"

	"github.com/jcorbin/scandl/mdevent"
	"github.com/jcorbin/scandl/scandown"
)

// Token types produced by definition list resolution.
var (
	List                        = mdevent.RegisterType("defList")
	Term                        = mdevent.RegisterType("defListTerm")
	Description                 = mdevent.RegisterType("defListDescription")
	DescriptionPrefix           = mdevent.RegisterType("defListDescriptionPrefix")
	DescriptionMarker           = mdevent.RegisterType("defListDescriptionMarker")
	DescriptionPrefixWhitespace = mdevent.RegisterType("defListDescriptionPrefixWhitespace")
)

// BlankLinePolicy decides when blank lines close a description.
type BlankLinePolicy uint8

// BlankLinePolicy constants.
const (
	// CloseAfterBlankStart closes a description that started with a blank
	// marker line once a further blank line is followed by content.
	CloseAfterBlankStart BlankLinePolicy = iota

	// CloseAfterTwoBlanks also closes any description once two consecutive
	// blank lines are followed by content.
	CloseAfterTwoBlanks
)

func (p BlankLinePolicy) String() string {
	switch p {
	case CloseAfterBlankStart:
		return "blank-start"
	case CloseAfterTwoBlanks:
		return "two-blanks"
	default:
		return "invalid"
	}
}

// ParseBlankLinePolicy parses a policy name as returned by String.
func ParseBlankLinePolicy(s string) (BlankLinePolicy, bool) {
	for _, p := range []BlankLinePolicy{CloseAfterBlankStart, CloseAfterTwoBlanks} {
		if p.String() == s {
			return p, true
		}
	}
	return 0, false
}

// Options configure an Extension.
type Options struct {
	BlankLinePolicy BlankLinePolicy
	LoggerFactory   logging.LoggerFactory
}

// Option is a functional Options setter.
type Option func(*Options)

// WithBlankLinePolicy sets the description blank line policy.
func WithBlankLinePolicy(p BlankLinePolicy) Option {
	return func(o *Options) { o.BlankLinePolicy = p }
}

// WithLoggerFactory sets the factory of the scoped loggers used while
// scanning and resolving; the default logs nothing.
func WithLoggerFactory(f logging.LoggerFactory) Option {
	return func(o *Options) { o.LoggerFactory = f }
}

// DisabledLoggerFactory returns a factory whose loggers discard everything.
func DisabledLoggerFactory() logging.LoggerFactory {
	return &logging.DefaultLoggerFactory{
		Writer:          io.Discard,
		DefaultLogLevel: logging.LogLevelDisabled,
		ScopeLevels:     map[string]logging.LogLevel{},
	}
}

// Extension is the definition list container extension. Per-document state,
// reset by Begin, connects scanning with resolution, so an Extension must not
// be shared by concurrent tokenizers.
type Extension struct {
	opts      Options
	syntaxLog logging.LeveledLogger
	resolvLog logging.LeveledLogger

	doc     *mdevent.Document
	refused map[int]bool // offsets of refused marker lines
}

// New creates a definition list extension.
func New(opts ...Option) *Extension {
	var ext Extension
	for _, opt := range opts {
		opt(&ext.opts)
	}
	if ext.opts.LoggerFactory == nil {
		ext.opts.LoggerFactory = DisabledLoggerFactory()
	}
	ext.syntaxLog = ext.opts.LoggerFactory.NewLogger("deflist:syntax")
	ext.resolvLog = ext.opts.LoggerFactory.NewLogger("deflist:resolve")
	return &ext
}

// Options returns the extension's effective options.
func (ext *Extension) Options() Options { return ext.opts }

// Begin resets per-document state.
func (ext *Extension) Begin(doc *mdevent.Document) {
	ext.doc = doc
	ext.refused = make(map[int]bool)
}

// Parse scans src with a new definition list extension, and resolves the
// result. Inline content is left as chunk text.
func Parse(src []byte, opts ...Option) *mdevent.Document {
	ext := New(opts...)
	tz := scandown.Tokenizer{
		Extensions: []scandown.ContainerExtension{ext},
		Logger:     ext.opts.LoggerFactory.NewLogger("scandown"),
	}
	doc := tz.Tokenize(src)
	ext.Resolve(doc)
	return doc
}
