package scandown

import "github.com/jcorbin/scandl/mdevent"

// Verdict is a container's answer when asked to continue onto a new line.
type Verdict uint8

// Verdict constants.
const (
	// Reject leaves the container unmatched; it closes unless the line turns
	// out to be a lazy paragraph continuation.
	Reject Verdict = iota

	// Accept continues the container, having consumed its line prefix.
	Accept

	// Reopen closes everything open inside the container, then has it start
	// a sibling item on the line by calling Reopen.
	Reopen
)

// ContainerExtension recognizes a container block that opens on lines whose
// content, after up to 3 columns of indentation, starts with Marker.
//
// Start is called speculatively: any open leaf and unmatched containers have
// been closed, and their events committed, so that Start may look back over
// the document. If Start returns nil, all of that is rolled back and the
// line is scanned as if the marker were plain text. Start must not consume
// from the line before deciding.
type ContainerExtension interface {
	Marker() byte
	Start(l *Line) Container
}

// Container is an open extension container block.
type Container interface {
	// Token returns the container's token, entered by Start.
	Token() mdevent.TokenID

	// Continue matches the container's prefix on a subsequent line.
	Continue(l *Line) Verdict

	// Reopen starts a sibling item after Continue returned Reopen.
	Reopen(l *Line)

	// Exit is called once the container has been closed.
	Exit()
}

// Beginner may be implemented by a ContainerExtension to reset any
// per-document state before tokenizing starts.
type Beginner interface {
	Begin(doc *mdevent.Document)
}
