// Package engine holds value-level helpers shared by the shapes, such as
// reference identity and structural equality.
package engine

import (
	"bytes"
	"runtime"
	"strconv"
)

// GoID returns the id of the calling goroutine, parsed from its stack header
// ("goroutine 18 [running]:"). It returns 0 when the header is malformed.
// The call is slow; keep it off hot paths.
func GoID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
