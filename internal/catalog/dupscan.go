package catalog

import (
	"bytes"

	"fortio.org/safecast"
)

// rawDuplicate is a repeated property name found by the textual pre-scan.
type rawDuplicate struct {
	Key   string // flattened path of the repeat
	Start uint32 // byte range of the quoted property name
	End   uint32
}

type scanScope struct {
	array   bool
	prefix  string
	index   int
	lastKey string
	seen    map[string]struct{}
}

// scanDuplicates looks for property names repeated inside the same object.
// A conforming JSON parser keeps only one of them, so the repeat has to be
// found on the raw text. The scan walks line by line and only understands
// strings, brackets, commas and colons; it is a duplicate detector, not a
// validator, and keeps going on malformed input.
func scanDuplicates(content []byte) []rawDuplicate {
	var (
		out   []rawDuplicate
		stack []*scanScope
		base  int
	)
	for _, line := range bytes.SplitAfter(content, []byte{'\n'}) {
		for i := 0; i < len(line); i++ {
			switch c := line[i]; c {
			case '"':
				end := closingQuote(line, i+1)
				if end < 0 {
					i = len(line) // unterminated string: give up on this line
					continue
				}
				next := skipSpaces(line, end+1)
				if next < len(line) && line[next] == ':' && len(stack) > 0 && !stack[len(stack)-1].array {
					sc := stack[len(stack)-1]
					name := string(line[i+1 : end])
					if _, dup := sc.seen[name]; dup {
						if start, stop, ok := byteRange(base+i, base+end+1); ok {
							out = append(out, rawDuplicate{Key: JoinKey(sc.prefix, name), Start: start, End: stop})
						}
					}
					sc.seen[name] = struct{}{}
					sc.lastKey = name
				}
				i = end
			case '{', '[':
				stack = append(stack, &scanScope{
					array:  c == '[',
					prefix: childPrefix(stack),
					seen:   make(map[string]struct{}),
				})
			case '}', ']':
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			case ',':
				if len(stack) > 0 && stack[len(stack)-1].array {
					stack[len(stack)-1].index++
				}
			}
		}
		base += len(line)
	}
	return out
}

// byteRange converts offsets to span bounds; files beyond 4GiB yield false.
func byteRange(start, end int) (uint32, uint32, bool) {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return 0, 0, false
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		return 0, 0, false
	}
	return s, e, true
}

func childPrefix(stack []*scanScope) string {
	if len(stack) == 0 {
		return ""
	}
	parent := stack[len(stack)-1]
	if parent.array {
		return IndexKey(parent.prefix, parent.index)
	}
	return JoinKey(parent.prefix, parent.lastKey)
}

// closingQuote returns the index of the quote ending a string that starts at from.
func closingQuote(line []byte, from int) int {
	for j := from; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case '"':
			return j
		}
	}
	return -1
}

func skipSpaces(line []byte, from int) int {
	for from < len(line) && (line[from] == ' ' || line[from] == '\t' || line[from] == '\r') {
		from++
	}
	return from
}
