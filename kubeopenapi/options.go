package kubeopenapi

// UnknownBehavior configures how unknown fields are treated when importing CRD schemas.
type UnknownBehavior int

const (
	// UnknownPrune drops unknown fields, as the API server does.
	UnknownPrune UnknownBehavior = iota
	// UnknownStrict rejects unknown fields.
	UnknownStrict
	// UnknownPreserve keeps unknown fields.
	UnknownPreserve
)

// Options controls import behavior for Kubernetes OpenAPI v3 schemas.
type Options struct {
	Unknown UnknownBehavior
	// Version selects spec.versions[].name of a CRD. Empty picks the storage
	// version, then the first served one.
	Version string
}

// Diag carries non-fatal warnings produced during import, such as CEL rules
// that are not evaluated.
type Diag struct {
	Warnings []string
}

// HasWarnings reports whether any warning was produced.
func (d *Diag) HasWarnings() bool { return d != nil && len(d.Warnings) > 0 }

func (d *Diag) warn(msg string) { d.Warnings = append(d.Warnings, msg) }
