package inmem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docuflow/docuflow/persistence"
)

func TestInMemRowStore(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, rs *inMemRowStore){
		"test create or fail":         testCreateOrFail,
		"test create or succeed":      testCreateOrSucceed,
		"test create or overwrite":    testCreateOrOverwrite,
		"test query with conditions":  testQueryWithConditions,
		"test non scalars sanitized":  testNonScalarsSanitized,
		"test delete":                 testDeleteRow,
		"test delete partition":       testDeletePartitionPrefix,
		"test records are copies":     testRecordsAreCopies,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewInMemRowStore())
		})
	}
}

func testCreateOrFail(t *testing.T, rs *inMemRowStore) {
	_, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "draft"}, persistence.CREATE_OR_FAIL)
	require.NoError(t, err)

	_, err = rs.Put("Docs", "acme", "d1", map[string]any{"status": "live"}, persistence.CREATE_OR_FAIL)
	require.True(t, persistence.IsConflict(err))

	record, err := rs.Get("Docs", "acme", "d1")
	require.NoError(t, err)
	require.Equal(t, "draft", record["status"])
}

func testCreateOrSucceed(t *testing.T, rs *inMemRowStore) {
	_, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "draft"}, persistence.CREATE_OR_SUCCEED)
	require.NoError(t, err)

	stored, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "live"}, persistence.CREATE_OR_SUCCEED)
	require.NoError(t, err)
	require.Equal(t, "draft", stored["status"])
}

func testCreateOrOverwrite(t *testing.T, rs *inMemRowStore) {
	_, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "draft"}, persistence.CREATE_OR_OVERWRITE)
	require.NoError(t, err)

	stored, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "live"}, persistence.CREATE_OR_OVERWRITE)
	require.NoError(t, err)
	require.Equal(t, "live", stored["status"])
}

func testQueryWithConditions(t *testing.T, rs *inMemRowStore) {
	put := func(id string, record map[string]any) {
		record["id"] = id
		_, err := rs.Put("Docs", "acme", id, record, persistence.CREATE_OR_FAIL)
		require.NoError(t, err)
	}
	put("d1", map[string]any{"public": true, "disposition": "report"})
	put("d2", map[string]any{"public": false, "disposition": "report"})
	put("d3", map[string]any{"public": true, "disposition": "invoice"})

	records, err := rs.Query("Docs", "acme", []persistence.Condition{
		{Field: "public", Value: true},
		{Field: "disposition", Value: "report"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "d1", records[0]["id"])

	records, err = rs.Query("Docs", "acme", nil)
	require.NoError(t, err)
	require.Len(t, records, 3)

	records, err = rs.Query("Docs", "other", nil)
	require.NoError(t, err)
	require.Empty(t, records)
}

func testNonScalarsSanitized(t *testing.T, rs *inMemRowStore) {
	stored, err := rs.Put("Docs", "acme", "d1", map[string]any{
		"status": "draft",
		"nested": map[string]any{"a": 1},
		"empty":  nil,
	}, persistence.CREATE_OR_FAIL)
	require.NoError(t, err)
	require.Equal(t, "draft", stored["status"])
	require.NotContains(t, stored, "nested")
	require.NotContains(t, stored, "empty")
}

func testDeleteRow(t *testing.T, rs *inMemRowStore) {
	_, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "draft"}, persistence.CREATE_OR_FAIL)
	require.NoError(t, err)
	require.NoError(t, rs.Delete("Docs", "acme", "d1"))

	record, err := rs.Get("Docs", "acme", "d1")
	require.NoError(t, err)
	require.Nil(t, record)
}

func testDeletePartitionPrefix(t *testing.T, rs *inMemRowStore) {
	put := func(partition, id string) {
		_, err := rs.Put("Docs", partition, id, map[string]any{"id": id}, persistence.CREATE_OR_FAIL)
		require.NoError(t, err)
	}
	put("session1-acme", "d1")
	put("session1-other", "d2")
	put("session2-acme", "d3")

	require.NoError(t, rs.DeletePartitionPrefix("Docs", "session1-"))

	records, err := rs.Query("Docs", "", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "d3", records[0]["id"])
}

func testRecordsAreCopies(t *testing.T, rs *inMemRowStore) {
	_, err := rs.Put("Docs", "acme", "d1", map[string]any{"status": "draft"}, persistence.CREATE_OR_FAIL)
	require.NoError(t, err)
	record, err := rs.Get("Docs", "acme", "d1")
	require.NoError(t, err)
	record["status"] = "mutated"

	again, err := rs.Get("Docs", "acme", "d1")
	require.NoError(t, err)
	require.Equal(t, "draft", again["status"])
}
