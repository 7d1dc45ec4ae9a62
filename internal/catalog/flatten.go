package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"fortio.org/safecast"
)

// Leaf is one scalar value reached by flattening, with the byte range of the
// property name that owns it.
type Leaf struct {
	Key   string
	Value string
	Start uint32
	End   uint32
}

var errTrailingData = errors.New("unexpected data after top-level value")

// JoinKey appends a property name to a flattened prefix.
func JoinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// IndexKey appends an array index to a flattened prefix.
func IndexKey(prefix string, i int) string {
	return prefix + "[" + strconv.Itoa(i) + "]"
}

// Flatten walks a JSON document in document order and returns its scalar
// leaves. Objects contribute "parent.child", arrays "parent[i]"; empty
// containers contribute nothing. When a property repeats inside one object
// the first value wins and the repeat is skipped.
func Flatten(content []byte) ([]Leaf, error) {
	f := flattener{content: content, dec: json.NewDecoder(bytes.NewReader(content))}
	f.dec.UseNumber()
	if err := f.value("", 0, 0, true); err != nil {
		return nil, err
	}
	if _, err := f.dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errTrailingData
	}
	return f.out, nil
}

type flattener struct {
	content []byte
	dec     *json.Decoder
	out     []Leaf
}

func (f *flattener) value(path string, start, end uint32, emit bool) error {
	tok, err := f.dec.Token()
	if err != nil {
		return err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return f.object(path, emit)
		case '[':
			return f.array(path, start, end, emit)
		default:
			return fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case string:
		f.add(path, t, start, end, emit)
	case json.Number:
		f.add(path, t.String(), start, end, emit)
	case bool:
		f.add(path, strconv.FormatBool(t), start, end, emit)
	case nil:
		f.add(path, "null", start, end, emit)
	default:
		return fmt.Errorf("unexpected token %T", tok)
	}
	return nil
}

func (f *flattener) add(path, value string, start, end uint32, emit bool) {
	if !emit || path == "" {
		return
	}
	f.out = append(f.out, Leaf{Key: path, Value: value, Start: start, End: end})
}

func (f *flattener) object(prefix string, emit bool) error {
	seen := make(map[string]struct{})
	for f.dec.More() {
		tok, err := f.dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected property name, got %T", tok)
		}
		start, end := f.keySpan()
		_, repeated := seen[name]
		seen[name] = struct{}{}
		if err := f.value(JoinKey(prefix, name), start, end, emit && !repeated); err != nil {
			return err
		}
	}
	_, err := f.dec.Token() // '}'
	return err
}

func (f *flattener) array(prefix string, start, end uint32, emit bool) error {
	for i := 0; f.dec.More(); i++ {
		if err := f.value(IndexKey(prefix, i), start, end, emit); err != nil {
			return err
		}
	}
	_, err := f.dec.Token() // ']'
	return err
}

// keySpan recovers the byte range of the property name token just read,
// quotes included. The decoder only reports where the token ended.
func (f *flattener) keySpan() (uint32, uint32) {
	end := int(f.dec.InputOffset())
	start := end - 1
	for start > 0 {
		start--
		if f.content[start] == '"' && !escaped(f.content, start) {
			break
		}
	}
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		return 0, 0
	}
	e, err := safecast.Conv[uint32](end)
	if err != nil {
		return 0, 0
	}
	return s, e
}

// escaped reports whether the byte at i is preceded by an odd number of backslashes.
func escaped(content []byte, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && content[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
