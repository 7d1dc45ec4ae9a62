// Package respatch inserts keys into JSON resource files without disturbing
// the rest of the document: property order is kept, arrays and scalars are
// carried through as raw JSON and the original indentation is reused.
package respatch

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
)

const defaultIndent = "  "

var errNotObject = errors.New("top-level value is not an object")

// object is an order-preserving JSON object. Values are either *object or
// json.RawMessage.
type object struct {
	keys []string
	vals map[string]any
}

func newObject() *object {
	return &object{vals: make(map[string]any)}
}

func (o *object) set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Apply sets the string value at the dotted path inside text and returns the
// new text. Missing intermediate objects are created; a non-object value in
// the way is replaced by an object. When text is not a JSON object the key is
// inserted textually as a flat property. Apply never fails.
func Apply(text, path, value string) string {
	root, err := parse([]byte(text))
	if err != nil {
		return fallback(text, path, value)
	}

	segs := strings.Split(path, ".")
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur.vals[seg].(*object)
		if !ok {
			next = newObject()
			cur.set(seg, next)
		}
		cur = next
	}
	cur.set(segs[len(segs)-1], json.RawMessage(quote(value)))

	var buf bytes.Buffer
	indent := detectIndent(text)
	write(&buf, root, "", indent)
	if strings.HasSuffix(text, "\n") {
		buf.WriteByte('\n')
	}
	return buf.String()
}

func parse(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	obj, err := parseObject(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("trailing data")
		}
		return nil, err
	}
	return obj, nil
}

func parseObject(dec *json.Decoder) (*object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}
	obj := newObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		// повтор свойства: как и каталог, оставляем первое значение
		if _, dup := obj.vals[key]; dup {
			continue
		}
		if len(raw) > 0 && raw[0] == '{' {
			child, err := parseObject(json.NewDecoder(bytes.NewReader(raw)))
			if err != nil {
				return nil, err
			}
			obj.set(key, child)
			continue
		}
		obj.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func write(buf *bytes.Buffer, o *object, prefix, indent string) {
	if len(o.keys) == 0 {
		buf.WriteString("{}")
		return
	}
	inner := prefix + indent
	buf.WriteString("{\n")
	for i, k := range o.keys {
		buf.WriteString(inner)
		buf.Write(quote(k))
		buf.WriteString(": ")
		switch v := o.vals[k].(type) {
		case *object:
			write(buf, v, inner, indent)
		case json.RawMessage:
			writeRaw(buf, v, inner, indent)
		}
		if i < len(o.keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString(prefix)
	buf.WriteByte('}')
}

func writeRaw(buf *bytes.Buffer, raw json.RawMessage, prefix, indent string) {
	if len(raw) > 0 && raw[0] == '[' {
		var out bytes.Buffer
		if err := json.Indent(&out, raw, prefix, indent); err == nil {
			buf.Write(out.Bytes())
			return
		}
	}
	buf.Write(raw)
}

// quote encodes s as a JSON string without HTML escaping.
func quote(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return []byte(`""`)
	}
	return bytes.TrimRight(buf.Bytes(), "\n")
}

// detectIndent takes the leading whitespace of the first indented line.
func detectIndent(text string) string {
	for line := range strings.SplitSeq(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed == "" || len(trimmed) == len(line) {
			continue
		}
		return line[:len(line)-len(trimmed)]
	}
	return defaultIndent
}

// fallback inserts "path": value before the last closing brace of a text
// that starts like an object. An empty text becomes a fresh object; anything
// else (a top-level array, say) is returned unchanged.
func fallback(text, path, value string) string {
	prop := string(quote(path)) + ": " + string(quote(value))
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "{ " + prop + " }"
	}
	end := strings.LastIndexByte(text, '}')
	if end < 0 || trimmed[0] != '{' {
		return text
	}
	head := strings.TrimRight(text[:end], " \t\r\n")
	sep := ""
	if !strings.HasSuffix(head, "{") && !strings.HasSuffix(head, ",") {
		sep = ","
	}
	return head + sep + "\n" + detectIndent(text) + prop + "\n" + text[end:]
}

// Equal reports whether two documents are semantically the same JSON.
func Equal(a, b string) bool {
	return jsonpatch.Equal([]byte(a), []byte(b))
}

// Delta returns the RFC 7386 merge patch turning before into after.
func Delta(before, after string) (string, error) {
	patch, err := jsonpatch.CreateMergePatch([]byte(before), []byte(after))
	if err != nil {
		return "", err
	}
	return string(patch), nil
}
