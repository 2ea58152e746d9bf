package goshape

import (
	"fmt"
	"strconv"
	"strings"
)

// Pointer renders a structural path as a JSON Pointer. String segments are
// escaped per RFC 6901; other segments are rendered with fmt.
func Pointer(path []any) string {
	if len(path) == 0 {
		return "/"
	}
	b := &strings.Builder{}
	for _, seg := range path {
		b.WriteByte('/')
		switch s := seg.(type) {
		case string:
			// escape '~' -> '~0', '/' -> '~1' per RFC6901
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1"))
		case int:
			b.WriteString(strconv.Itoa(s))
		default:
			b.WriteString(fmt.Sprint(s))
		}
	}
	return b.String()
}

// ParsePointer splits a JSON Pointer into string segments, unescaping each.
// Numeric segments stay strings; callers decide whether they denote indices.
func ParsePointer(p string) []any {
	if p == "" || p == "/" {
		return nil
	}
	parts := []any{}
	for _, s := range strings.Split(p, "/") {
		if s == "" {
			continue
		}
		parts = append(parts, strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~"))
	}
	return parts
}
