package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAML decodes the first document of a YAML stream. An empty stream yields
// nil.
func YAML(data []byte, opts ...Options) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	c := nodeConverter{opt: pick(opts)}
	return c.convert(&root)
}

// YAMLDocuments decodes every document of a multi-document YAML stream.
func YAMLDocuments(data []byte, opts ...Options) ([]any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	c := nodeConverter{opt: pick(opts)}
	var out []any
	for {
		var root yaml.Node
		if err := dec.Decode(&root); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, err
		}
		v, err := c.convert(&root)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

// nodeConverter turns yaml.Node trees into JSON-like values. Mapping keys are
// always rendered as strings.
type nodeConverter struct {
	opt  Options
	path []string
}

func (c *nodeConverter) convert(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0])
	case yaml.AliasNode:
		return c.convert(n.Alias)
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			key := k.Value
			if pos, dup := first[key]; dup && c.opt.Strict {
				return nil, &DuplicateKeyError{
					Key: key, Pointer: c.pointer(key),
					Line: k.Line, Col: k.Column, FirstLine: pos[0], FirstCol: pos[1],
				}
			}
			first[key] = [2]int{k.Line, k.Column}
			c.path = append(c.path, key)
			val, err := c.convert(v)
			c.path = c.path[:len(c.path)-1]
			if err != nil {
				return nil, err
			}
			m[key] = val
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for i, e := range n.Content {
			c.path = append(c.path, strconv.Itoa(i))
			v, err := c.convert(e)
			c.path = c.path[:len(c.path)-1]
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return c.scalar(n)
	default:
		return nil, fmt.Errorf("source: unsupported YAML node kind %d", n.Kind)
	}
}

func (c *nodeConverter) scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		if c.opt.Numbers == NumberJSONNumber {
			return json.Number(strconv.FormatInt(i, 10)), nil
		}
		return float64(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if c.opt.Numbers == NumberJSONNumber && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
		}
		return f, nil
	default:
		// strings, timestamps and custom tags keep their literal text
		return n.Value, nil
	}
}

func (c *nodeConverter) pointer(last string) string {
	var sb strings.Builder
	for _, p := range append(c.path, last) {
		sb.WriteByte('/')
		sb.WriteString(escape(p))
	}
	return sb.String()
}
