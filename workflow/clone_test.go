package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow/model"
)

type stubSink struct {
	docs    map[string]*model.Document
	payload *model.Document
	deleted []string
}

func (s *stubSink) FetchDocumentRaw(tenantID string, documentID string) (*model.Document, error) {
	return s.docs[tenantID+"/"+documentID], nil
}

func (s *stubSink) CloneDocumentForTenant(tenantID string, doc *model.Document) (*model.Document, error) {
	s.payload = doc.DeepCopy()
	created := doc.DeepCopy()
	created.ID = "clone-1"
	created.Tenant = tenantID
	created.CloneID = ""
	created.CloneTenant = ""
	return created, nil
}

func (s *stubSink) DeleteDocument(tenantID string, documentID string) error {
	s.deleted = append(s.deleted, tenantID+"/"+documentID)
	return nil
}

func intakeDefinition() *model.WorkflowDefinition {
	return &model.WorkflowDefinition{
		ID:          "intake",
		Name:        "Intake",
		Disposition: "intake",
		Workflow: []model.State{
			{ID: "received", Default: true, ReadWrite: true},
			{ID: "processed"},
		},
	}
}

func cloneTransition() *model.Transition {
	return &model.Transition{
		ID:    "submitted",
		Clone: &model.CloneSpec{TargetWorkflow: "intake", TargetOwner: CLONE_OWNER_PARENT},
	}
}

func TestCreateCloneForTransition(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, e *Engine, sink *stubSink){
		"test clone created":             testCloneCreated,
		"test undo deletes clone":        testUndoDeletesClone,
		"test missing parent tenant":     testCloneMissingParentTenant,
		"test missing target workflow":   testCloneMissingTargetWorkflow,
		"test invalid target owner":      testCloneInvalidTargetOwner,
		"test same owner clone":          testSameOwnerClone,
	} {
		t.Run(scenario, func(t *testing.T) {
			e := newTestEngine(t)
			sink := &stubSink{docs: map[string]*model.Document{}}
			e.BindSink(sink)
			require.NoError(t, e.EnsureExists("broker", intakeDefinition()))
			fn(t, e, sink)
		})
	}
}

func protoDocument() *model.Document {
	return &model.Document{
		ID: "proto-1", Tenant: "vendor", Status: "submitted",
		Disposition: "report", Workflow: "report",
		ParentID: "origin-1", ParentIDTenant: "broker",
		Values: map[string]any{"title": "Q1"},
	}
}

func testCloneCreated(t *testing.T, e *Engine, sink *stubSink) {
	proto := protoDocument()
	created, undo, err := e.CreateCloneForTransition(proto, cloneTransition())
	require.NoError(t, err)
	require.NotNil(t, undo)
	require.Equal(t, "broker", created.Tenant)

	// the sink receives a marked copy pointing at the prototype
	require.Equal(t, "proto-1", sink.payload.CloneID)
	require.Equal(t, "vendor", sink.payload.CloneTenant)
	require.Equal(t, "intake", sink.payload.Workflow)
	require.Equal(t, "intake", sink.payload.Disposition)
	require.Empty(t, sink.payload.Status)
	require.Equal(t, "Q1", sink.payload.Values["title"])

	// the prototype itself is untouched
	require.Equal(t, "submitted", proto.Status)
	require.Equal(t, "report", proto.Workflow)
	require.Empty(t, proto.CloneID)
}

func testUndoDeletesClone(t *testing.T, e *Engine, sink *stubSink) {
	created, undo, err := e.CreateCloneForTransition(protoDocument(), cloneTransition())
	require.NoError(t, err)
	require.NoError(t, undo())
	require.Equal(t, []string{"broker/" + created.ID}, sink.deleted)
}

func testCloneMissingParentTenant(t *testing.T, e *Engine, sink *stubSink) {
	proto := protoDocument()
	proto.ParentIDTenant = ""
	_, _, err := e.CreateCloneForTransition(proto, cloneTransition())
	require.Error(t, err)
	require.Nil(t, sink.payload)
}

func testCloneMissingTargetWorkflow(t *testing.T, e *Engine, sink *stubSink) {
	tr := cloneTransition()
	tr.Clone.TargetWorkflow = "missing"
	_, _, err := e.CreateCloneForTransition(protoDocument(), tr)
	require.Error(t, err)
	require.Nil(t, sink.payload)
}

func testCloneInvalidTargetOwner(t *testing.T, e *Engine, sink *stubSink) {
	tr := cloneTransition()
	tr.Clone.TargetOwner = "sibling"
	_, _, err := e.CreateCloneForTransition(protoDocument(), tr)
	require.Error(t, err)
}

func testSameOwnerClone(t *testing.T, e *Engine, sink *stubSink) {
	require.NoError(t, e.EnsureExists("vendor", intakeDefinition()))
	tr := cloneTransition()
	tr.Clone.TargetOwner = CLONE_OWNER_SAME
	created, _, err := e.CreateCloneForTransition(protoDocument(), tr)
	require.NoError(t, err)
	require.Equal(t, "vendor", created.Tenant)
}

func TestMutateStateWithClone(t *testing.T) {
	e := newTestEngine(t)
	sink := &stubSink{docs: map[string]*model.Document{}}
	e.BindSink(sink)
	require.NoError(t, e.EnsureExists("broker", intakeDefinition()))

	def := reportDefinition()
	def.Workflow[0].Transitions = model.TransitionList{*cloneTransition()}
	def.Workflow = append(def.Workflow, model.State{ID: "submitted", Public: true})

	previous := protoDocument()
	previous.Status = "draft"
	next := previous.DeepCopy()
	next.Status = "submitted"

	undo, err := e.MutateStateForItem(def, previous, next)
	require.NoError(t, err)
	require.NotNil(t, undo)
	require.True(t, next.Public)
	require.NotNil(t, sink.payload)
}
