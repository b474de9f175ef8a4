package workflow

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/workflow/constraint"
)

// FetchValidTransitions lists the transitions out of the document's
// current state, each annotated with any constraint failures. The
// definition is never mutated: annotations land on copies. A current
// status missing from the definition is an anomaly, not a validation
// failure: it is logged at ERROR and yields an empty list. An unknown
// constraint name fails the whole request, since it indicates a corrupt
// or unsupported definition.
func (e *Engine) FetchValidTransitions(def *model.WorkflowDefinition, doc *model.Document) ([]model.TransitionView, error) {
	state := def.FindState(doc.Status)
	if state == nil {
		logger.Error("current document status not present in workflow",
			zap.String("status", doc.Status), zap.String("workflow", def.ID), zap.String("id", doc.ID))
		return []model.TransitionView{}, nil
	}
	itemMap := doc.AsMap()
	views := make([]model.TransitionView, 0, len(state.Transitions))
	for _, tr := range state.Transitions {
		view := model.TransitionView{Transition: tr.CloneTransition()}
		for name, spec := range tr.Constraint {
			c, ok := constraint.Lookup(name)
			if !ok {
				logger.Error("unknown constraint in workflow definition",
					zap.String("constraint", name), zap.String("workflow", def.ID))
				return nil, fmt.Errorf("unknown constraint %s in workflow %s", name, def.ID)
			}
			failed := func(message string) {
				if view.FailedConstraints == nil {
					view.FailedConstraints = make(map[string]string)
				}
				view.FailedConstraints[name] = message
			}
			if err := c.Evaluate(spec, itemMap, constraint.FailFunc(failed)); err != nil {
				return nil, err
			}
		}
		views = append(views, view)
	}
	return views, nil
}
