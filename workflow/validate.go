package workflow

import "github.com/docuflow/docuflow/model"

// ValidateTransition checks a proposed status change against the
// definition. Pure function over the fetched definition; validation
// failures are returned values, a nil result means the transition is
// declared.
func ValidateTransition(def *model.WorkflowDefinition, fromStateID string, toStateID string) *model.TransitionError {
	state := def.FindState(fromStateID)
	if state == nil {
		return &model.TransitionError{Failure: "Existing state invalid"}
	}
	valid := make([]string, 0, len(state.Transitions))
	for _, tr := range state.Transitions {
		if tr.ID == toStateID {
			return nil
		}
		valid = append(valid, tr.ID)
	}
	return model.InvalidTargetState(valid)
}
