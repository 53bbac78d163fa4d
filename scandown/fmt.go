package scandown

import (
	"fmt"
	"io"
)

// Format writes the block type, followed by its attributes when formatted
// with `%+v`.
func (b Block) Format(f fmt.State, _ rune) {
	switch b.Type {
	case List:
		switch b.Delim {
		case '.', ')':
			io.WriteString(f, "OrderedList")
		default:
			io.WriteString(f, "List")
		}
	default:
		io.WriteString(f, b.Type.String())
	}
	if f.Flag('+') {
		if d := b.Delim; d != 0 {
			fmt.Fprintf(f, " delim=%q", d)
		}
		if width := b.Width; width != 0 {
			fmt.Fprintf(f, " width=%v", width)
		}
		if in := b.Indent; in != 0 {
			fmt.Fprintf(f, " indent=%v", in)
		}
		if b.tok != 0 {
			fmt.Fprintf(f, " tok=%v", b.tok)
		}
	}
}

var blockTypeNames = [...]string{
	noBlock:    "None",
	Blockquote: "Blockquote",
	List:       "List",
	Item:       "Item",
	Extension:  "Extension",
	Paragraph:  "Paragraph",
	Definition: "Definition",
	Codefence:  "Codefence",
	Codeblock:  "Codeblock",
}

func (t BlockType) String() string {
	if t >= 0 && int(t) < len(blockTypeNames) {
		return blockTypeNames[t]
	}
	return fmt.Sprintf("InvalidBlock%d", int(t))
}

// Format writes the open block stack, outermost first, followed by any open
// leaf block.
func (tz *Tokenizer) Format(f fmt.State, c rune) {
	if len(tz.stack) == 0 && tz.leaf.Type == noBlock {
		io.WriteString(f, "-- empty --")
		return
	}
	sep := " "
	if f.Flag('+') {
		sep = "\n"
	}
	for i, b := range tz.stack {
		if i > 0 {
			io.WriteString(f, sep)
		}
		b.Format(f, c)
	}
	if tz.leaf.Type != noBlock {
		if len(tz.stack) > 0 {
			io.WriteString(f, sep)
		}
		tz.leaf.Format(f, c)
	}
}
