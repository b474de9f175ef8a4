package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow/cache"
	"github.com/docuflow/docuflow/model"
	"github.com/docuflow/docuflow/persistence/inmem"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ch := cache.New(time.Minute, 0)
	t.Cleanup(ch.Stop)
	return NewEngine(inmem.NewInMemRowStore(), inmem.NewInMemBlobStore(), ch, time.Minute)
}

func reportDefinition() *model.WorkflowDefinition {
	return &model.WorkflowDefinition{
		ID:          "report",
		Name:        "Report",
		Disposition: "report",
		Default:     true,
		Workflow: []model.State{
			{ID: "draft", Default: true, ReadWrite: true,
				Transitions: model.TransitionList{{ID: "live"}}},
			{ID: "live", Public: true,
				Transitions: model.TransitionList{{ID: "archived"}}},
			{ID: "archived"},
		},
	}
}

func TestWorkflowDefinitions(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, e *Engine){
		"test ensure and fetch":           testEnsureAndFetch,
		"test first writer wins":          testFirstWriterWins,
		"test unknown constraint":         testUnknownConstraintRejected,
		"test unknown extractor":          testUnknownExtractorRejected,
		"test missing definition is nil":  testMissingDefinitionIsNil,
		"test definition without id":      testDefinitionWithoutID,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newTestEngine(t))
		})
	}
}

func testEnsureAndFetch(t *testing.T, e *Engine) {
	require.NoError(t, e.EnsureExists("acme", reportDefinition()))
	def, err := e.FetchDefinition("acme", "report")
	require.NoError(t, err)
	require.NotNil(t, def)
	require.Equal(t, "Report", def.Name)
	require.Len(t, def.Workflow, 3)
}

func testFirstWriterWins(t *testing.T, e *Engine) {
	first := reportDefinition()
	require.NoError(t, e.EnsureExists("acme", first))

	second := reportDefinition()
	second.Name = "Replacement"
	require.NoError(t, e.EnsureExists("acme", second))

	def, err := e.FetchDefinition("acme", "report")
	require.NoError(t, err)
	require.Equal(t, "Report", def.Name)
}

func testUnknownConstraintRejected(t *testing.T, e *Engine) {
	def := reportDefinition()
	def.Workflow[0].Transitions[0].Constraint = map[string]any{"noSuchConstraint": "expires"}
	require.Error(t, e.EnsureExists("acme", def))

	fetched, err := e.FetchDefinition("acme", "report")
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func testUnknownExtractorRejected(t *testing.T, e *Engine) {
	def := reportDefinition()
	def.Values = map[string]model.ExtractorSpec{"noSuchExtractor": {"title": "title"}}
	require.Error(t, e.EnsureExists("acme", def))
}

func testMissingDefinitionIsNil(t *testing.T, e *Engine) {
	def, err := e.FetchDefinition("acme", "missing")
	require.NoError(t, err)
	require.Nil(t, def)
}

func testDefinitionWithoutID(t *testing.T, e *Engine) {
	require.Error(t, e.EnsureExists("acme", &model.WorkflowDefinition{Name: "anonymous"}))
}

func TestEnsureRepairsMissingBlob(t *testing.T) {
	ch := cache.New(time.Minute, 0)
	t.Cleanup(ch.Stop)
	blobs := inmem.NewInMemBlobStore()
	e := NewEngine(inmem.NewInMemRowStore(), blobs, ch, time.Minute)

	require.NoError(t, e.EnsureExists("acme", reportDefinition()))

	// an ensure that dies between the index row and the blob write leaves
	// a row without a definition; a retry must fill the blob back in
	require.NoError(t, blobs.Delete("acme", "workflow/report"))
	retry := reportDefinition()
	retry.Name = "Report retry"
	require.NoError(t, e.EnsureExists("acme", retry))

	def, err := e.FetchDefinition("acme", "report")
	require.NoError(t, err)
	require.NotNil(t, def)
	require.Equal(t, "Report retry", def.Name)
}

func TestResolveWorkflowForDocument(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, e *Engine){
		"test resolve by workflow id":     testResolveByWorkflowID,
		"test resolve by disposition":     testResolveByDisposition,
		"test unresolvable is nil":        testUnresolvableIsNil,
		"test failed resolve not cached":  testFailedResolveNotCached,
	} {
		t.Run(scenario, func(t *testing.T) {
			e := newTestEngine(t)
			require.NoError(t, e.EnsureExists("acme", reportDefinition()))
			fn(t, e)
		})
	}
}

func testResolveByWorkflowID(t *testing.T, e *Engine) {
	doc := &model.Document{ID: "d1", Tenant: "acme", Workflow: "report"}
	def, err := e.ResolveWorkflowForDocument("acme", doc)
	require.NoError(t, err)
	require.NotNil(t, def)
	require.Equal(t, "report", def.ID)
}

func testResolveByDisposition(t *testing.T, e *Engine) {
	doc := &model.Document{ID: "d1", Tenant: "acme", Disposition: "report"}
	def, err := e.ResolveWorkflowForDocument("acme", doc)
	require.NoError(t, err)
	require.NotNil(t, def)
	require.Equal(t, "report", def.ID)
}

func testUnresolvableIsNil(t *testing.T, e *Engine) {
	doc := &model.Document{ID: "d1", Tenant: "acme", Disposition: "invoice"}
	def, err := e.ResolveWorkflowForDocument("acme", doc)
	require.NoError(t, err)
	require.Nil(t, def)
}

func testFailedResolveNotCached(t *testing.T, e *Engine) {
	doc := &model.Document{ID: "d1", Tenant: "acme", Workflow: "invoice"}
	def, err := e.ResolveWorkflowForDocument("acme", doc)
	require.NoError(t, err)
	require.Nil(t, def)

	// once the workflow appears the same document resolves
	invoice := reportDefinition()
	invoice.ID = "invoice"
	invoice.Disposition = "invoice"
	require.NoError(t, e.EnsureExists("acme", invoice))

	def, err = e.ResolveWorkflowForDocument("acme", doc)
	require.NoError(t, err)
	require.NotNil(t, def)
	require.Equal(t, "invoice", def.ID)
}

func TestValidateTransition(t *testing.T) {
	def := reportDefinition()

	require.Nil(t, ValidateTransition(def, "draft", "live"))

	terr := ValidateTransition(def, "draft", "archived")
	require.NotNil(t, terr)
	require.Equal(t, "Invalid target state. Must be one of: live", terr.Failure)

	terr = ValidateTransition(def, "bogus", "live")
	require.NotNil(t, terr)
	require.Equal(t, "Existing state invalid", terr.Failure)

	terr = ValidateTransition(def, "archived", "draft")
	require.NotNil(t, terr)
	require.Equal(t, "Invalid target state. Must be one of: ", terr.Failure)
}

func TestFetchValidTransitions(t *testing.T) {
	e := newTestEngine(t)
	def := reportDefinition()
	def.Workflow[0].Transitions[0].Constraint = map[string]any{"nowIsBefore": "expires"}

	doc := &model.Document{ID: "d1", Tenant: "acme", Status: "draft",
		Values: map[string]any{"expires": "2000-01-01"}}
	views, err := e.FetchValidTransitions(def, doc)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, "live", views[0].ID)
	require.Equal(t, "Date has expired (2000-01-01T00:00:00.000Z)", views[0].FailedConstraints["nowIsBefore"])

	doc.Values["expires"] = "2999-01-01"
	views, err = e.FetchValidTransitions(def, doc)
	require.NoError(t, err)
	require.Empty(t, views[0].FailedConstraints)

	doc.Status = "unknown"
	views, err = e.FetchValidTransitions(def, doc)
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestFetchValidTransitionsUnknownConstraint(t *testing.T) {
	e := newTestEngine(t)
	def := reportDefinition()
	def.Workflow[0].Transitions[0].Constraint = map[string]any{"noSuchConstraint": "expires"}

	doc := &model.Document{ID: "d1", Tenant: "acme", Status: "draft"}
	_, err := e.FetchValidTransitions(def, doc)
	require.Error(t, err)
}

func TestMutateStateForItem(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, e *Engine){
		"test flags assigned on create":   testFlagsAssignedOnCreate,
		"test flags assigned on change":   testFlagsAssignedOnChange,
		"test same state is noop":         testSameStateIsNoop,
		"test undeclared transition":      testUndeclaredTransitionErrs,
		"test unknown target state":       testUnknownTargetStateErrs,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newTestEngine(t))
		})
	}
}

func testFlagsAssignedOnCreate(t *testing.T, e *Engine) {
	def := reportDefinition()
	doc := &model.Document{ID: "d1", Status: "draft", Public: true}
	undo, err := e.MutateStateForItem(def, nil, doc)
	require.NoError(t, err)
	require.Nil(t, undo)
	require.False(t, doc.Public)
	require.True(t, doc.ReadWrite)
}

func testFlagsAssignedOnChange(t *testing.T, e *Engine) {
	def := reportDefinition()
	previous := &model.Document{ID: "d1", Status: "draft", ReadWrite: true}
	next := &model.Document{ID: "d1", Status: "live"}
	undo, err := e.MutateStateForItem(def, previous, next)
	require.NoError(t, err)
	require.Nil(t, undo)
	require.True(t, next.Public)
	require.False(t, next.ReadWrite)
}

func testSameStateIsNoop(t *testing.T, e *Engine) {
	def := reportDefinition()
	previous := &model.Document{ID: "d1", Status: "draft"}
	next := &model.Document{ID: "d1", Status: "draft"}
	undo, err := e.MutateStateForItem(def, previous, next)
	require.NoError(t, err)
	require.Nil(t, undo)
}

func testUndeclaredTransitionErrs(t *testing.T, e *Engine) {
	def := reportDefinition()
	previous := &model.Document{ID: "d1", Status: "live"}
	next := &model.Document{ID: "d1", Status: "draft"}
	_, err := e.MutateStateForItem(def, previous, next)
	require.Error(t, err)
}

func testUnknownTargetStateErrs(t *testing.T, e *Engine) {
	def := reportDefinition()
	next := &model.Document{ID: "d1", Status: "bogus"}
	_, err := e.MutateStateForItem(def, nil, next)
	require.Error(t, err)
}
