package workflow

import (
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/cache"
	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
)

func cacheKeyPrefix(tenantID string) string {
	return cache.Key("workflow", tenantID) + "/"
}

// ResolveWorkflowForDocument finds the workflow governing a document: the
// explicit workflow id when the document names one, otherwise the
// tenant's default workflow for the document's disposition. Resolution is
// cached; failed resolutions are never left in the cache. A document with
// no resolvable workflow gets (nil, nil) and state-change operations are
// unavailable for it.
func (e *Engine) ResolveWorkflowForDocument(tenantID string, doc *model.Document) (*model.WorkflowDefinition, error) {
	keyPart := doc.Workflow
	if keyPart == "" {
		keyPart = "disposition=" + doc.Disposition
	}
	key := cacheKeyPrefix(tenantID) + keyPart
	value, err := e.cache.ReadThrough(key, e.expiry, func() (any, error) {
		def, err := e.resolve(tenantID, doc)
		if err != nil {
			return nil, err
		}
		if def == nil {
			// avoid caching a failed resolution under any circumstances
			return nil, nil
		}
		return def, nil
	})
	if err != nil {
		return nil, err
	}
	def, _ := value.(*model.WorkflowDefinition)
	if def == nil {
		e.cache.Invalidate(key)
		logger.Warn("no workflow found for document",
			zap.String("tenant", tenantID), zap.String("id", doc.ID),
			zap.String("workflow", doc.Workflow), zap.String("disposition", doc.Disposition))
		return nil, nil
	}
	return def, nil
}

func (e *Engine) resolve(tenantID string, doc *model.Document) (*model.WorkflowDefinition, error) {
	var record map[string]any
	if doc.Workflow != "" {
		fetched, err := e.rows.Get(TABLE_TENANT_WORKFLOWS, tenantID, doc.Workflow)
		if err != nil {
			return nil, err
		}
		record = fetched
	} else if doc.Disposition != "" {
		records, err := e.rows.Query(TABLE_TENANT_WORKFLOWS, tenantID, []persistence.Condition{
			{Field: "default", Value: true},
			{Field: "disposition", Value: doc.Disposition},
		})
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			record = records[0]
		}
	}
	if record == nil {
		return nil, nil
	}
	workflowID, _ := record["id"].(string)
	return e.FetchDefinition(tenantID, workflowID)
}
