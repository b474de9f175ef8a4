package workflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
	"github.com/docuflow/docuflow/workflow/constraint"
	"github.com/docuflow/docuflow/workflow/extractor"
)

func definitionBlobName(workflowID string) string {
	return "workflow/" + workflowID
}

// FetchDefinition reads a tenant's workflow definition blob. A missing
// definition is (nil, nil), not an error.
func (e *Engine) FetchDefinition(tenantID string, workflowID string) (*model.WorkflowDefinition, error) {
	var def model.WorkflowDefinition
	err := e.blobs.GetJSON(tenantID, definitionBlobName(workflowID), &def)
	if persistence.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

// EnsureExists creates a workflow definition if the tenant does not have
// one under that id yet. First writer wins; the definition is immutable
// afterwards. Constraint and extractor names are checked here so an
// unsupported definition fails at load time, not mid-transition.
func (e *Engine) EnsureExists(tenantID string, def *model.WorkflowDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("workflow definition has no id")
	}
	if err := validateDefinition(def); err != nil {
		logger.Error("rejecting workflow definition",
			zap.String("workflow", def.ID), zap.String("tenant", tenantID), zap.Error(err))
		return err
	}
	now := util.NowISO()
	record := map[string]any{
		"id":          def.ID,
		"name":        def.Name,
		"disposition": def.Disposition,
		"default":     def.Default,
		"created":     now,
		"updated":     now,
	}
	_, err := e.rows.Put(TABLE_TENANT_WORKFLOWS, tenantID, def.ID, record, persistence.CREATE_OR_FAIL)
	if persistence.IsConflict(err) {
		// the index row can exist without its blob if a prior ensure died
		// between the two writes; a retry repairs it
		existing, err := e.FetchDefinition(tenantID, def.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := e.blobs.PutJSON(tenantID, definitionBlobName(def.ID), def); err != nil {
				return err
			}
			e.cache.InvalidatePrefix(cacheKeyPrefix(tenantID))
		}
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("adding new workflow",
		zap.String("workflow", def.ID), zap.String("name", def.Name), zap.String("tenant", tenantID))
	if err := e.blobs.PutJSON(tenantID, definitionBlobName(def.ID), def); err != nil {
		return err
	}
	e.cache.InvalidatePrefix(cacheKeyPrefix(tenantID))
	return nil
}

func validateDefinition(def *model.WorkflowDefinition) error {
	for _, state := range def.Workflow {
		for _, tr := range state.Transitions {
			if err := constraint.ValidateNames(tr.Constraint); err != nil {
				return fmt.Errorf("state %s transition %s: %w", state.ID, tr.ID, err)
			}
		}
	}
	if err := extractor.ValidateNames(def.Values); err != nil {
		return err
	}
	return nil
}
