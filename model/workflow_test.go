package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionList(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test single object":   testUnmarshalSingleTransition,
		"test array":           testUnmarshalTransitionArray,
		"test null":            testUnmarshalNullTransitions,
		"test clone preserved": testUnmarshalCloneSpec,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t)
		})
	}
}

func testUnmarshalSingleTransition(t *testing.T) {
	var state State
	err := json.Unmarshal([]byte(`{"id":"draft","transitions":{"id":"live"}}`), &state)
	require.NoError(t, err)
	require.Len(t, state.Transitions, 1)
	require.Equal(t, "live", state.Transitions[0].ID)
}

func testUnmarshalTransitionArray(t *testing.T) {
	var state State
	err := json.Unmarshal([]byte(`{"id":"draft","transitions":[{"id":"live"},{"id":"archived"}]}`), &state)
	require.NoError(t, err)
	require.Len(t, state.Transitions, 2)
	require.Equal(t, "live", state.Transitions[0].ID)
	require.Equal(t, "archived", state.Transitions[1].ID)
}

func testUnmarshalNullTransitions(t *testing.T) {
	var state State
	err := json.Unmarshal([]byte(`{"id":"final","transitions":null}`), &state)
	require.NoError(t, err)
	require.Empty(t, state.Transitions)
}

func testUnmarshalCloneSpec(t *testing.T) {
	var state State
	err := json.Unmarshal([]byte(`{"id":"draft","transitions":{"id":"submitted","clone":{"target-workflow":"intake","target-owner":"parent"}}}`), &state)
	require.NoError(t, err)
	require.NotNil(t, state.Transitions[0].Clone)
	require.Equal(t, "intake", state.Transitions[0].Clone.TargetWorkflow)
	require.Equal(t, "parent", state.Transitions[0].Clone.TargetOwner)
}

func TestWorkflowDefinitionStates(t *testing.T) {
	def := &WorkflowDefinition{
		ID: "report",
		Workflow: []State{
			{ID: "draft", Default: true},
			{ID: "live", Public: true},
		},
	}
	require.Equal(t, "live", def.FindState("live").ID)
	require.Nil(t, def.FindState("missing"))
	require.Equal(t, "draft", def.DefaultState().ID)

	empty := &WorkflowDefinition{ID: "empty"}
	require.Nil(t, empty.DefaultState())
}

func TestCloneTransitionIsIndependent(t *testing.T) {
	tr := Transition{
		ID:         "live",
		Constraint: map[string]any{"nowIsBefore": "expires"},
		Clone:      &CloneSpec{TargetWorkflow: "intake"},
	}
	copied := tr.CloneTransition()
	copied.Constraint["nowIsBefore"] = "changed"
	copied.Clone.TargetWorkflow = "changed"
	require.Equal(t, "expires", tr.Constraint["nowIsBefore"])
	require.Equal(t, "intake", tr.Clone.TargetWorkflow)
}

func TestInvalidTargetState(t *testing.T) {
	terr := InvalidTargetState([]string{"live", "archived"})
	require.Equal(t, "Invalid target state. Must be one of: live, archived", terr.Failure)
}
