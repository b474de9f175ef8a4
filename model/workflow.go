package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// WorkflowDefinition is the stored, per-tenant description of a document
// lifecycle. Definitions are created once via EnsureExists and never
// updated through this API.
type WorkflowDefinition struct {
	ID          string                   `json:"id"`
	Name        string                   `json:"name"`
	Disposition string                   `json:"disposition"`
	Default     bool                     `json:"default"`
	Workflow    []State                  `json:"workflow"`
	Values      map[string]ExtractorSpec `json:"values,omitempty"`
}

// ExtractorSpec maps a dotted source path to an output key.
type ExtractorSpec map[string]string

type State struct {
	ID          string         `json:"id"`
	Default     bool           `json:"default"`
	Public      bool           `json:"public"`
	ReadWrite   bool           `json:"readwrite"`
	Transitions TransitionList `json:"transitions,omitempty"`
}

type Transition struct {
	ID         string         `json:"id"`
	Constraint map[string]any `json:"constraint,omitempty"`
	Clone      *CloneSpec     `json:"clone,omitempty"`
}

type CloneSpec struct {
	TargetWorkflow string `json:"target-workflow"`
	TargetOwner    string `json:"target-owner,omitempty"`
}

// TransitionList accepts a single transition object, an array of
// transitions, or nothing at all, and always presents itself as a list.
type TransitionList []Transition

func (tl *TransitionList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*tl = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var many []Transition
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*tl = many
		return nil
	}
	var one Transition
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*tl = TransitionList{one}
	return nil
}

// Clone returns a deep copy so callers can annotate transitions without
// touching the definition they were read from.
func (t Transition) CloneTransition() Transition {
	copied := Transition{ID: t.ID}
	if t.Constraint != nil {
		copied.Constraint = make(map[string]any, len(t.Constraint))
		for k, v := range t.Constraint {
			copied.Constraint[k] = v
		}
	}
	if t.Clone != nil {
		spec := *t.Clone
		copied.Clone = &spec
	}
	return copied
}

func (wf *WorkflowDefinition) FindState(id string) *State {
	for i := range wf.Workflow {
		if wf.Workflow[i].ID == id {
			return &wf.Workflow[i]
		}
	}
	return nil
}

func (wf *WorkflowDefinition) DefaultState() *State {
	for i := range wf.Workflow {
		if wf.Workflow[i].Default {
			return &wf.Workflow[i]
		}
	}
	return nil
}

// TransitionView is a transition annotated with the outcome of its
// constraint evaluation. FailedConstraints is empty for a transition
// whose constraints all passed.
type TransitionView struct {
	Transition
	FailedConstraints map[string]string `json:"failedConstraints,omitempty"`
}

// TransitionError is a user-correctable validation failure. It is a
// returned value, not an error: callers map it to a client-visible
// rejection.
type TransitionError struct {
	Failure string `json:"failure"`
}

func InvalidTargetState(valid []string) *TransitionError {
	return &TransitionError{Failure: fmt.Sprintf("Invalid target state. Must be one of: %s", strings.Join(valid, ", "))}
}
