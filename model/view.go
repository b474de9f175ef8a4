package model

import "encoding/json"

// DocumentView is a document decorated for reading: the resolved workflow
// definition, valid transitions, extractor values and requested part
// blobs, depending on which includes the caller asked for.
type DocumentView struct {
	*Document
	WorkflowDefinition *WorkflowDefinition        `json:"workflowDefinition,omitempty"`
	Transitions        []TransitionView           `json:"transitions,omitempty"`
	Parts              map[string]json.RawMessage `json:"parts,omitempty"`
}
