package extractor

import (
	"fmt"
	"strings"

	"github.com/docuflow/docuflow/model"
)

// DocumentFetcher loads a document by tenant and id; it is the narrow
// slice of the tenant service extractors need for parent lookups.
type DocumentFetcher interface {
	FetchDocumentRaw(tenantID string, documentID string) (*model.Document, error)
}

// Extractor computes derived metadata values for a document according to
// a workflow definition's value spec.
type Extractor interface {
	FetchValuesForItem(spec model.ExtractorSpec, item *model.Document, parents DocumentFetcher) (map[string]any, error)
}

var registry = map[string]Extractor{}

func register(name string, e Extractor) {
	registry[strings.ToLower(name)] = e
}

func Lookup(name string) (Extractor, bool) {
	e, ok := registry[strings.ToLower(name)]
	return e, ok
}

// ValidateNames is run at workflow-definition load time, mirroring the
// constraint registry: an unknown extractor fails the definition early.
func ValidateNames(specs map[string]model.ExtractorSpec) error {
	for name := range specs {
		if _, ok := Lookup(name); !ok {
			return fmt.Errorf("unknown extractor %s", name)
		}
	}
	return nil
}
