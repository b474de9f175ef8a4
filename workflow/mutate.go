package workflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
)

// MutateStateForItem applies the target state of a transition onto the
// next document: derived flags are overwritten with the state's declared
// values, never taken from the caller. When a previous document is
// supplied and its state differs, the declared transition between the two
// states must exist; a status change with no declared transition is a
// consistency violation, callers are expected to have run
// ValidateTransition first. A transition that declares a clone spawns the
// linked document and the returned Undo removes it; callers invoke the
// undo if their own subsequent persistence fails. Creation never clones.
func (e *Engine) MutateStateForItem(def *model.WorkflowDefinition, previous *model.Document, next *model.Document) (Undo, error) {
	target := def.FindState(next.Status)
	if target == nil {
		logger.Error("target state not found in workflow",
			zap.String("status", next.Status), zap.String("workflow", def.ID), zap.String("id", next.ID))
		return nil, fmt.Errorf("state %s not found in workflow %s", next.Status, def.ID)
	}
	next.Public = target.Public
	next.ReadWrite = target.ReadWrite

	if previous == nil {
		return nil, nil
	}
	prevState := def.FindState(previous.Status)
	if prevState == nil {
		return nil, fmt.Errorf("existing state %s not found in workflow %s", previous.Status, def.ID)
	}
	if prevState.ID == target.ID {
		return nil, nil
	}
	var transition *model.Transition
	for i := range prevState.Transitions {
		if prevState.Transitions[i].ID == target.ID {
			transition = &prevState.Transitions[i]
			break
		}
	}
	if transition == nil {
		return nil, fmt.Errorf("transition from %s to %s is not declared in workflow %s",
			prevState.ID, target.ID, def.ID)
	}
	if transition.Clone == nil {
		return nil, nil
	}
	_, undo, err := e.CreateCloneForTransition(next, transition)
	if err != nil {
		return nil, err
	}
	return undo, nil
}
