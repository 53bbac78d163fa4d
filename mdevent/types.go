package mdevent

import (
	"fmt"
	"io"
)

// Type is the semantic tag of a Token.
type Type uint16

var typeNames = []string{"none"}

// RegisterType allocates a new token type with the given name. It is intended
// to be called from package level var initializers by extensions, and is not
// safe to call concurrently with anything else.
func RegisterType(name string) Type {
	typeNames = append(typeNames, name)
	return Type(len(typeNames) - 1)
}

// String returns the registered name of the type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("InvalidType%d", int(t))
}

// Format writes the type name.
func (t Type) Format(f fmt.State, _ rune) { io.WriteString(f, t.String()) }

// Token types produced by the block scanner.
var (
	LinePrefix      = RegisterType("linePrefix")
	LineEnding      = RegisterType("lineEnding")
	LineEndingBlank = RegisterType("lineEndingBlank")

	BlockQuote                 = RegisterType("blockQuote")
	BlockQuotePrefix           = RegisterType("blockQuotePrefix")
	BlockQuoteMarker           = RegisterType("blockQuoteMarker")
	BlockQuotePrefixWhitespace = RegisterType("blockQuotePrefixWhitespace")

	ListOrdered    = RegisterType("listOrdered")
	ListUnordered  = RegisterType("listUnordered")
	ListItem       = RegisterType("listItem")
	ListItemPrefix = RegisterType("listItemPrefix")

	ThematicBreak      = RegisterType("thematicBreak")
	ATXHeading         = RegisterType("atxHeading")
	ATXHeadingSequence = RegisterType("atxHeadingSequence")
	SetextHeading      = RegisterType("setextHeading")
	SetextUnderline    = RegisterType("setextHeadingLine")

	CodeFenced          = RegisterType("codeFenced")
	CodeFencedFence     = RegisterType("codeFencedFence")
	CodeFencedFenceInfo = RegisterType("codeFencedFenceInfo")
	CodeIndented        = RegisterType("codeIndented")
	CodeFlowValue       = RegisterType("codeFlowValue")

	Content               = RegisterType("content")
	Paragraph             = RegisterType("paragraph")
	ChunkText             = RegisterType("chunkText")
	Definition            = RegisterType("definition")
	DefinitionLabel       = RegisterType("definitionLabel")
	DefinitionDestination = RegisterType("definitionDestination")
	DefinitionTitle       = RegisterType("definitionTitle")
)

// Token types produced by inline tokenization of chunk chains.
var (
	Data             = RegisterType("data")
	LineEndingSoft   = RegisterType("lineEndingSoft")
	HardBreak        = RegisterType("hardBreak")
	CharacterEscape  = RegisterType("characterEscape")
	CodeText         = RegisterType("codeText")
	Emphasis         = RegisterType("emphasis")
	Strong           = RegisterType("strong")
	EmphasisSequence = RegisterType("emphasisSequence")
	Link             = RegisterType("link")
	LinkText         = RegisterType("linkText")
	LinkDestination  = RegisterType("linkDestination")
	LinkTitle        = RegisterType("linkTitle")
	LinkReference    = RegisterType("linkReference")
)

// IsPrefix reports whether t is a container line prefix that carries no
// content: indentation and block quote markers.
func IsPrefix(t Type) bool {
	switch t {
	case LinePrefix, BlockQuotePrefix, BlockQuoteMarker, BlockQuotePrefixWhitespace:
		return true
	}
	return false
}
