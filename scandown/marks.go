package scandown

// quoteMarker matches a block quote marker at the start of line.
func quoteMarker(line []byte) bool {
	return len(line) > 0 && line[0] == '>'
}

// listMarker parses a bullet or ordered list item marker, returning its
// delimiter byte, the marker width in bytes, any ordinal value, and whether
// the marker is followed by content.
func listMarker(line []byte) (delim byte, width, start int, content bool) {
	if len(line) == 0 {
		return 0, 0, 0, false
	}
	if isByte(line[0], '-', '*', '+') {
		delim, width = line[0], 1
	} else if n, tail := ordinal(line); n > 0 && len(tail) > 0 && isByte(tail[0], '.', ')') {
		for _, c := range line[:n] {
			start = 10*start + int(c-'0')
		}
		delim, width = tail[0], n+1
	} else {
		return 0, 0, 0, false
	}
	tail := line[width:]
	if len(tail) > 0 && !isByte(tail[0], ' ', '\t') {
		return 0, 0, 0, false
	}
	return delim, width, start, !isBlank(tail)
}

func ordinal(line []byte) (width int, tail []byte) {
	tail = line
	for len(tail) > 0 && '0' <= tail[0] && tail[0] <= '9' {
		width++
		tail = tail[1:]
	}
	if width < 1 || width > 9 {
		return 0, nil
	}
	return width, tail
}

// fence matches an opening code fence of at least min marks, returning the
// fence byte, its width, and the info string trailer.
func fence(line []byte, min int, marks ...byte) (delim byte, width int, tail []byte) {
	if len(line) == 0 || !isByte(line[0], marks...) {
		return 0, 0, nil
	}
	delim = line[0]
	for width = 1; width < len(line) && line[width] == delim; width++ {
	}
	if width < min {
		return 0, 0, nil
	}
	tail = line[width:]
	if delim == '`' {
		for _, c := range tail {
			if c == '`' {
				return 0, 0, nil
			}
		}
	}
	return delim, width, tail
}

// closingFence reports whether line closes a fence of delim at least width
// wide.
func closingFence(line []byte, delim byte, width int) bool {
	d, w, tail := fence(line, width, delim)
	return d != 0 && w >= width && isBlank(tail)
}

// ruler matches a thematic break: three or more of the same mark, optionally
// separated by spaces.
func ruler(line []byte, marks ...byte) (rule byte) {
	if len(line) == 0 || !isByte(line[0], marks...) {
		return 0
	}
	rule = line[0]
	n := 0
	for _, c := range line {
		switch c {
		case rule:
			n++
		case ' ', '\t':
		default:
			return 0
		}
	}
	if n < 3 {
		return 0
	}
	return rule
}

// setextUnderline matches a run of '=' or '-' followed only by spaces.
func setextUnderline(line []byte) (level int) {
	if len(line) == 0 || !isByte(line[0], '=', '-') {
		return 0
	}
	i := 0
	for i < len(line) && line[i] == line[0] {
		i++
	}
	if !isBlank(line[i:]) {
		return 0
	}
	if line[0] == '=' {
		return 1
	}
	return 2
}

// atxHeading matches an ATX heading opening sequence, returning its level.
func atxHeading(line []byte) (level int) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0
	}
	if level < len(line) && !isByte(line[level], ' ', '\t') {
		return 0
	}
	return level
}

// atxContent splits the text after an ATX opening sequence into leading
// space, content, and an optional closing sequence.
func atxContent(tail []byte) (lead, content, closing int) {
	for lead < len(tail) && isByte(tail[lead], ' ', '\t') {
		lead++
	}
	end := len(tail)
	for end > lead && isByte(tail[end-1], ' ', '\t') {
		end--
	}
	seq := end
	for seq > lead && tail[seq-1] == '#' {
		seq--
	}
	if seq < end && (seq == lead || isByte(tail[seq-1], ' ', '\t')) {
		closing = end - seq
		end = seq
		for end > lead && isByte(tail[end-1], ' ', '\t') {
			end--
		}
	}
	return lead, end - lead, closing
}

// definition parses a single line link reference definition:
//
// 	[label]: destination "optional title"
//
// Returned ranges are byte offsets within line; ok is false when line is not
// a definition.
func definition(line []byte) (label, dest, title [2]int, ok bool) {
	if len(line) < 4 || line[0] != '[' {
		return
	}
	i := 1
	for i < len(line) && line[i] != ']' {
		if line[i] == '[' {
			return
		}
		if line[i] == '\\' {
			i++
		}
		i++
	}
	if i >= len(line) || i == 1 || isBlank(line[1:i]) {
		return
	}
	label = [2]int{1, i}
	i++
	if i >= len(line) || line[i] != ':' {
		return
	}
	i = skipSpace(line, i+1)
	if i >= len(line) {
		return
	}
	if line[i] == '<' {
		j := i + 1
		for j < len(line) && line[j] != '>' && line[j] != '<' {
			j++
		}
		if j >= len(line) || line[j] != '>' {
			return
		}
		dest = [2]int{i + 1, j}
		i = j + 1
	} else {
		j := i
		for j < len(line) && !isByte(line[j], ' ', '\t') {
			j++
		}
		dest = [2]int{i, j}
		i = j
	}
	rest := skipSpace(line, i)
	if rest >= len(line) {
		return label, dest, title, true
	}
	if rest == i {
		return
	}
	open := line[rest]
	close := open
	switch open {
	case '"', '\'':
	case '(':
		close = ')'
	default:
		return
	}
	j := rest + 1
	for j < len(line) && line[j] != close {
		if line[j] == '\\' {
			j++
		}
		j++
	}
	if j >= len(line) || !isBlank(line[j+1:]) {
		return
	}
	title = [2]int{rest + 1, j}
	return label, dest, title, true
}

func skipSpace(line []byte, i int) int {
	for i < len(line) && isByte(line[i], ' ', '\t') {
		i++
	}
	return i
}

func isByte(b byte, any ...byte) bool {
	for _, ab := range any {
		if b == ab {
			return true
		}
	}
	return false
}

func isBlank(line []byte) bool {
	for _, c := range line {
		if c != ' ' && c != '\t' {
			return false
		}
	}
	return true
}
