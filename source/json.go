package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	j "github.com/goccy/go-json"
)

// JSON decodes a single JSON document.
func JSON(data []byte, opts ...Options) (any, error) {
	return JSONReader(bytes.NewReader(data), opts...)
}

// JSONReader decodes a single JSON document from r. Trailing data after the
// document is an error.
func JSONReader(r io.Reader, opts ...Options) (any, error) {
	opt := pick(opts)
	dec := j.NewDecoder(r)
	if opt.Numbers == NumberJSONNumber {
		dec.UseNumber()
	}
	var (
		v   any
		err error
	)
	if opt.Strict {
		b := &treeBuilder{dec: dec}
		v, err = b.value()
	} else {
		err = dec.Decode(&v)
	}
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, errors.New("source: trailing data after JSON document")
	}
	return v, nil
}

// treeBuilder assembles a value from the token stream, tracking the path so
// duplicate keys can be reported.
type treeBuilder struct {
	dec  *j.Decoder
	path []string
}

func (b *treeBuilder) value() (any, error) {
	tok, err := b.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	d, ok := tok.(j.Delim)
	if !ok {
		return tok, nil
	}
	switch d {
	case '{':
		return b.object()
	case '[':
		return b.array()
	default:
		return nil, fmt.Errorf("source: unexpected delimiter %q", rune(d))
	}
}

func (b *treeBuilder) object() (any, error) {
	m := map[string]any{}
	for b.dec.More() {
		tok, err := b.dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("source: object key expected, got %v", tok)
		}
		if _, dup := m[key]; dup {
			return nil, &DuplicateKeyError{Key: key, Pointer: b.pointer(key)}
		}
		b.path = append(b.path, key)
		v, err := b.value()
		b.path = b.path[:len(b.path)-1]
		if err != nil {
			return nil, err
		}
		m[key] = v
	}
	// closing '}'
	if _, err := b.dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func (b *treeBuilder) array() (any, error) {
	arr := []any{}
	for b.dec.More() {
		b.path = append(b.path, strconv.Itoa(len(arr)))
		v, err := b.value()
		b.path = b.path[:len(b.path)-1]
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	if _, err := b.dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}

func (b *treeBuilder) pointer(last string) string {
	var sb strings.Builder
	for _, p := range append(b.path, last) {
		sb.WriteByte('/')
		sb.WriteString(escape(p))
	}
	return sb.String()
}

func escape(s string) string {
	if !strings.ContainsAny(s, "~/") {
		return s
	}
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}

// Marshal renders v as JSON with go-json. Indent is used when non-empty.
func Marshal(v any, indent string) ([]byte, error) {
	if indent == "" {
		return j.Marshal(v)
	}
	return j.MarshalIndent(v, "", indent)
}
