// Package mdevent holds the flat event model shared by the block scanner, the
// definition list resolver and the renderers.
//
// A Document owns a token arena and an ordered slice of Events. Every token
// has exactly one Enter and one Exit event, and token ranges nest like a
// stack. Tokens refer to each other (chunk links) by TokenID, an index into
// the arena, so that links may be cut and re-pointed without dangling
// references while events are spliced around.
package mdevent
