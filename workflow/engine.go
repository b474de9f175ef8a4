package workflow

import (
	"fmt"
	"time"

	"github.com/docuflow/docuflow/cache"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/workflow/extractor"
)

const TABLE_TENANT_WORKFLOWS string = "TenantWorkflows"

const DEFAULT_RESOLUTION_EXPIRY = 5 * time.Minute

// TenantDocumentSink is the narrow slice of the tenant service the engine
// needs for clone-on-transition side effects and extractor parent loads.
// The concrete service is bound at composition time, which keeps the
// engine free of a dependency cycle on the tenant package.
type TenantDocumentSink interface {
	extractor.DocumentFetcher
	CloneDocumentForTenant(tenantID string, doc *model.Document) (*model.Document, error)
	DeleteDocument(tenantID string, documentID string) error
}

// Undo is a compensating action returned by a side-effecting operation.
// Callers invoke it when their own subsequent persistence fails.
type Undo func() error

type Engine struct {
	rows   persistence.RowStore
	blobs  persistence.BlobStore
	cache  *cache.Cache
	expiry time.Duration
	sink   TenantDocumentSink
}

func NewEngine(rows persistence.RowStore, blobs persistence.BlobStore, ch *cache.Cache, expiry time.Duration) *Engine {
	if expiry <= 0 {
		expiry = DEFAULT_RESOLUTION_EXPIRY
	}
	return &Engine{
		rows:   rows,
		blobs:  blobs,
		cache:  ch,
		expiry: expiry,
	}
}

func (e *Engine) BindSink(sink TenantDocumentSink) {
	e.sink = sink
}

// FetchWorkflowValues runs every extractor the definition declares and
// merges their outputs.
func (e *Engine) FetchWorkflowValues(def *model.WorkflowDefinition, doc *model.Document) (map[string]any, error) {
	values := make(map[string]any)
	for name, spec := range def.Values {
		ex, ok := extractor.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown extractor %s in workflow %s", name, def.ID)
		}
		extracted, err := ex.FetchValuesForItem(spec, doc, e.sink)
		if err != nil {
			return nil, err
		}
		for k, v := range extracted {
			values[k] = v
		}
	}
	return values, nil
}
