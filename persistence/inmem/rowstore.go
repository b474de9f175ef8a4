package inmem

import (
	"strings"
	"sync"

	"github.com/docuflow/docuflow/persistence"
)

type inMemRowStore struct {
	mu   sync.Mutex
	rows map[string]map[string]any
}

var _ persistence.RowStore = new(inMemRowStore)

func NewInMemRowStore() *inMemRowStore {
	return &inMemRowStore{
		rows: make(map[string]map[string]any),
	}
}

func rowKey(table string, partitionKey string, rowKey string) string {
	return strings.Join([]string{table, partitionKey, rowKey}, "\x00")
}

func copyRecord(record map[string]any) map[string]any {
	if record == nil {
		return nil
	}
	copied := make(map[string]any, len(record))
	for k, v := range record {
		copied[k] = v
	}
	return copied
}

func (rs *inMemRowStore) Get(table string, partitionKey string, rk string) (map[string]any, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return copyRecord(rs.rows[rowKey(table, partitionKey, rk)]), nil
}

func (rs *inMemRowStore) Put(table string, partitionKey string, rk string, record map[string]any, mode persistence.WriteMode) (map[string]any, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	key := rowKey(table, partitionKey, rk)
	existing, found := rs.rows[key]
	if found && mode == persistence.CREATE_OR_FAIL {
		return nil, persistence.ConflictError{Key: key}
	}
	if found && mode == persistence.CREATE_OR_SUCCEED {
		return copyRecord(existing), nil
	}
	sanitized := make(map[string]any, len(record))
	for k, v := range record {
		if v == nil {
			continue
		}
		switch v.(type) {
		case string, bool, int, int32, int64, float32, float64:
			sanitized[k] = v
		}
	}
	rs.rows[key] = sanitized
	return copyRecord(sanitized), nil
}

func (rs *inMemRowStore) Query(table string, partitionKey string, conditions []persistence.Condition) ([]map[string]any, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	prefix := table + "\x00"
	if partitionKey != "" {
		prefix = table + "\x00" + partitionKey + "\x00"
	}
	var records []map[string]any
	for key, record := range rs.rows {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if matchesConditions(record, conditions) {
			records = append(records, copyRecord(record))
		}
	}
	return records, nil
}

func matchesConditions(record map[string]any, conditions []persistence.Condition) bool {
	for _, cond := range conditions {
		if record[cond.Field] != cond.Value {
			return false
		}
	}
	return true
}

func (rs *inMemRowStore) Delete(table string, partitionKey string, rk string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.rows, rowKey(table, partitionKey, rk))
	return nil
}

func (rs *inMemRowStore) DeletePartitionPrefix(table string, partitionPrefix string) error {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	prefix := table + "\x00" + partitionPrefix
	for key := range rs.rows {
		if strings.HasPrefix(key, prefix) {
			delete(rs.rows, key)
		}
	}
	return nil
}
