package kubeopenapi

import (
	"errors"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/source"
)

// ImportYAMLForCRDKind scans a multi-document YAML (e.g., CRD bundle) and imports
// the first CustomResourceDefinition matching the given spec.names.kind.
func ImportYAMLForCRDKind(data []byte, kind string, opts Options) (goshape.Shape, *Diag, error) {
	return importMatching(data, opts, func(crd map[string]any) bool {
		spec, _ := crd["spec"].(map[string]any)
		names, _ := spec["names"].(map[string]any)
		k, _ := names["kind"].(string)
		return k == kind
	}, "kubeopenapi: CRD kind not found in YAML bundle")
}

// ImportYAMLForCRDName scans a multi-document YAML and imports the CRD
// with given metadata.name.
func ImportYAMLForCRDName(data []byte, name string, opts Options) (goshape.Shape, *Diag, error) {
	return importMatching(data, opts, func(crd map[string]any) bool {
		meta, _ := crd["metadata"].(map[string]any)
		n, _ := meta["name"].(string)
		return n == name
	}, "kubeopenapi: CRD name not found in YAML bundle")
}

func importMatching(data []byte, opts Options, match func(map[string]any) bool, notFound string) (goshape.Shape, *Diag, error) {
	docs, err := source.YAMLDocuments(data, source.Options{Strict: true})
	if err != nil {
		return nil, &Diag{}, err
	}
	for _, doc := range docs {
		m, ok := doc.(map[string]any)
		if !ok {
			continue
		}
		if k, _ := m["kind"].(string); k != "CustomResourceDefinition" {
			continue
		}
		if match(m) {
			return Import(m, opts)
		}
	}
	return nil, &Diag{}, errors.New(notFound)
}
