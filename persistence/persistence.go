package persistence

import "fmt"

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type NotFoundError struct {
	Name string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("not found %s", e.Name)
}

func IsNotFound(err error) bool {
	_, ok := err.(NotFoundError)
	return ok
}

// ConflictError reports a CREATE_OR_FAIL write that lost to an existing
// row. First-writer-wins callers treat it as "already exists".
type ConflictError struct {
	Key string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("row already exists %s", e.Key)
}

func IsConflict(err error) bool {
	_, ok := err.(ConflictError)
	return ok
}

type WriteMode int

const (
	CREATE_OR_FAIL WriteMode = iota
	CREATE_OR_SUCCEED
	CREATE_OR_OVERWRITE
)

// Condition is an equality filter applied to a row field during a query.
type Condition struct {
	Field string
	Value any
}

// RowStore is a partition/row keyed store of flat string/number/bool field
// maps. Put returns the stored row after the write: under CREATE_OR_SUCCEED
// a conflicting insert returns the row that won.
type RowStore interface {
	Get(table string, partitionKey string, rowKey string) (map[string]any, error)
	Put(table string, partitionKey string, rowKey string, record map[string]any, mode WriteMode) (map[string]any, error)
	Query(table string, partitionKey string, conditions []Condition) ([]map[string]any, error)
	Delete(table string, partitionKey string, rowKey string) error
	DeletePartitionPrefix(table string, partitionPrefix string) error
}

type NamedBlob struct {
	Name  string
	Value []byte
}

// BlobStore keeps JSON-shaped blobs under container/name. CopyByPrefix is
// a no-op when nothing matches the source prefix and returns the number of
// blobs copied.
type BlobStore interface {
	GetJSON(container string, name string, out any) error
	PutJSON(container string, name string, value any) error
	ListByPrefix(container string, prefix string) ([]NamedBlob, error)
	CopyByPrefix(srcContainer string, srcPrefix string, dstContainer string, dstPrefix string) (int, error)
	Delete(container string, name string) error
	DeleteContainersWithPrefix(prefix string) error
}
