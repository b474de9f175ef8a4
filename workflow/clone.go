package workflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
)

const (
	CLONE_OWNER_PARENT string = "parent"
	CLONE_OWNER_SAME   string = "same"
)

// CreateCloneForTransition spawns the linked document a transition's
// clone action declares. The clone is a deep copy of the prototype,
// marked with transient clone-id/clone-tenant fields, assigned the target
// workflow and its disposition, and created through the tenant document
// sink, which runs the clone's own initial-state assignment and copies
// the prototype's part blobs. The returned Undo deletes the created
// document.
func (e *Engine) CreateCloneForTransition(proto *model.Document, transition *model.Transition) (*model.Document, Undo, error) {
	spec := transition.Clone
	if spec == nil {
		return nil, nil, fmt.Errorf("transition %s has no clone action", transition.ID)
	}
	if spec.TargetWorkflow == "" {
		return nil, nil, fmt.Errorf("clone on transition %s has no target-workflow", transition.ID)
	}
	var targetTenant string
	switch spec.TargetOwner {
	case CLONE_OWNER_PARENT:
		targetTenant = proto.ParentIDTenant
		if targetTenant == "" {
			return nil, nil, fmt.Errorf("clone target-owner is parent but document %s has no parent tenant", proto.ID)
		}
	case CLONE_OWNER_SAME, "":
		targetTenant = proto.Tenant
	default:
		return nil, nil, fmt.Errorf("invalid clone target-owner %q on transition %s", spec.TargetOwner, transition.ID)
	}
	targetDef, err := e.FetchDefinition(targetTenant, spec.TargetWorkflow)
	if err != nil {
		return nil, nil, err
	}
	if targetDef == nil {
		return nil, nil, fmt.Errorf("clone target workflow %s not found in tenant %s", spec.TargetWorkflow, targetTenant)
	}
	if targetDef.DefaultState() == nil {
		return nil, nil, fmt.Errorf("clone target workflow %s has no default state", targetDef.ID)
	}

	clone := proto.DeepCopy()
	clone.CloneID = proto.ID
	clone.CloneTenant = proto.Tenant
	clone.Workflow = targetDef.ID
	clone.Disposition = targetDef.Disposition
	clone.Status = ""

	created, err := e.sink.CloneDocumentForTenant(targetTenant, clone)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("created clone for transition",
		zap.String("prototype", proto.ID), zap.String("clone", created.ID),
		zap.String("tenant", created.Tenant), zap.String("workflow", targetDef.ID))
	undo := func() error {
		logger.Warn("rolling back cloned document",
			zap.String("clone", created.ID), zap.String("tenant", created.Tenant))
		return e.sink.DeleteDocument(created.Tenant, created.ID)
	}
	return created, undo, nil
}
