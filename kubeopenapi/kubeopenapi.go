// Package kubeopenapi imports the structural OpenAPI v3 schemas of Kubernetes
// CustomResourceDefinitions as shapes.
//
// Kubernetes extensions are rewritten to plain JSON Schema before compiling:
// x-kubernetes-int-or-string, x-kubernetes-preserve-unknown-fields,
// x-kubernetes-embedded-resource and the OpenAPI nullable flag.
package kubeopenapi

import (
	"errors"
	"fmt"
	"maps"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/jsonschema"
)

// ErrNoSchema is returned when a document holds no openAPIV3Schema.
var ErrNoSchema = errors.New("kubeopenapi: no openAPIV3Schema found")

// Import compiles an openAPIV3Schema, a CRD version entry holding one, or a
// whole CRD document.
func Import(schema any, opts Options) (goshape.Shape, *Diag, error) {
	d := &Diag{}
	root, ok := schema.(map[string]any)
	if !ok {
		return nil, d, fmt.Errorf("kubeopenapi: schema must be an object, got %T", schema)
	}
	if oas, ok := root["openAPIV3Schema"].(map[string]any); ok {
		root = oas
	} else if oas, err := unwrapCRDSchema(root, opts.Version); err != nil {
		return nil, d, err
	} else if oas != nil {
		root = oas
	}

	mode := dsl.KeysStrip
	switch opts.Unknown {
	case UnknownStrict:
		mode = dsl.KeysExact
	case UnknownPreserve:
		mode = dsl.KeysPreserve
	}
	s, err := jsonschema.CompileWith(rewrite(root, "", d), jsonschema.Options{Unknown: mode})
	return s, d, err
}

// unwrapCRDSchema extracts spec.versions[].schema.openAPIV3Schema, falling
// back to the legacy spec.validation.openAPIV3Schema. It returns nil when root
// is not a CRD.
func unwrapCRDSchema(root map[string]any, version string) (map[string]any, error) {
	spec, ok := root["spec"].(map[string]any)
	if !ok {
		return nil, nil
	}
	vers, _ := spec["versions"].([]any)
	var storage, served map[string]any
	for _, v := range vers {
		vm, _ := v.(map[string]any)
		sch, _ := vm["schema"].(map[string]any)
		oas, _ := sch["openAPIV3Schema"].(map[string]any)
		if oas == nil {
			continue
		}
		if version != "" {
			if name, _ := vm["name"].(string); name == version {
				return oas, nil
			}
			continue
		}
		if st, _ := vm["storage"].(bool); st && storage == nil {
			storage = oas
		}
		if sv, ok := vm["served"].(bool); (!ok || sv) && served == nil {
			served = oas
		}
	}
	switch {
	case version != "":
		return nil, fmt.Errorf("%w for version %q", ErrNoSchema, version)
	case storage != nil:
		return storage, nil
	case served != nil:
		return served, nil
	}
	if val, ok := spec["validation"].(map[string]any); ok {
		if oas, ok := val["openAPIV3Schema"].(map[string]any); ok {
			return oas, nil
		}
	}
	return nil, ErrNoSchema
}

// rewrite returns a copy of the schema node with Kubernetes extensions
// translated into JSON Schema keywords.
func rewrite(node any, at string, d *Diag) any {
	n, ok := node.(map[string]any)
	if !ok {
		return node
	}
	out := maps.Clone(n)

	for _, kw := range []string{"properties", "patternProperties", "$defs", "definitions"} {
		if props, ok := n[kw].(map[string]any); ok {
			cp := make(map[string]any, len(props))
			for k, v := range props {
				cp[k] = rewrite(v, at+"/"+k, d)
			}
			out[kw] = cp
		}
	}
	for _, kw := range []string{"items", "additionalProperties", "not"} {
		if v, ok := n[kw]; ok {
			out[kw] = rewrite(v, at, d)
		}
	}
	for _, kw := range []string{"allOf", "anyOf", "oneOf"} {
		if list, ok := n[kw].([]any); ok {
			cp := make([]any, len(list))
			for i, v := range list {
				cp[i] = rewrite(v, at, d)
			}
			out[kw] = cp
		}
	}

	if b, _ := n["x-kubernetes-int-or-string"].(bool); b {
		delete(out, "type")
		out["anyOf"] = []any{map[string]any{"type": "integer"}, map[string]any{"type": "string"}}
	}
	if b, _ := n["x-kubernetes-preserve-unknown-fields"].(bool); b {
		if _, ok := out["additionalProperties"]; !ok {
			out["additionalProperties"] = true
		}
	}
	if b, _ := n["x-kubernetes-embedded-resource"].(bool); b {
		props, _ := out["properties"].(map[string]any)
		props = maps.Clone(props)
		if props == nil {
			props = map[string]any{}
		}
		for _, k := range []string{"apiVersion", "kind"} {
			if _, ok := props[k]; !ok {
				props[k] = map[string]any{"type": "string"}
			}
		}
		if _, ok := props["metadata"]; !ok {
			props["metadata"] = map[string]any{"type": "object", "additionalProperties": true}
		}
		out["properties"] = props
		out["required"] = appendMissing(out["required"], "apiVersion", "kind")
	}
	if b, _ := n["nullable"].(bool); b {
		if typ, ok := out["type"].(string); ok {
			out["type"] = []any{typ, "null"}
		}
	}
	if _, ok := n["x-kubernetes-validations"]; ok {
		d.warn(fmt.Sprintf("%s: x-kubernetes-validations (CEL) are not evaluated", pointerOrRoot(at)))
	}
	return out
}

func appendMissing(list any, names ...string) []any {
	out, _ := list.([]any)
	out = append([]any(nil), out...)
	for _, name := range names {
		found := false
		for _, v := range out {
			if v == name {
				found = true
				break
			}
		}
		if !found {
			out = append(out, name)
		}
	}
	return out
}

func pointerOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
