package inmem

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/docuflow/docuflow/persistence"
)

type inMemBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

var _ persistence.BlobStore = new(inMemBlobStore)

func NewInMemBlobStore() *inMemBlobStore {
	return &inMemBlobStore{
		blobs: make(map[string][]byte),
	}
}

func blobKey(container string, name string) string {
	return container + "\x00" + name
}

func (bs *inMemBlobStore) GetJSON(container string, name string, out any) error {
	bs.mu.Lock()
	data, found := bs.blobs[blobKey(container, name)]
	bs.mu.Unlock()
	if !found {
		return persistence.NotFoundError{Name: container + "/" + name}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (bs *inMemBlobStore) PutJSON(container string, name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	bs.mu.Lock()
	bs.blobs[blobKey(container, name)] = data
	bs.mu.Unlock()
	return nil
}

func (bs *inMemBlobStore) ListByPrefix(container string, prefix string) ([]persistence.NamedBlob, error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	keyPrefix := blobKey(container, prefix)
	var blobs []persistence.NamedBlob
	for key, data := range bs.blobs {
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}
		value := make([]byte, len(data))
		copy(value, data)
		blobs = append(blobs, persistence.NamedBlob{
			Name:  strings.TrimPrefix(key, blobKey(container, "")),
			Value: value,
		})
	}
	return blobs, nil
}

func (bs *inMemBlobStore) CopyByPrefix(srcContainer string, srcPrefix string, dstContainer string, dstPrefix string) (int, error) {
	blobs, err := bs.ListByPrefix(srcContainer, srcPrefix)
	if err != nil {
		return 0, err
	}
	bs.mu.Lock()
	defer bs.mu.Unlock()
	for _, blob := range blobs {
		dstName := dstPrefix + strings.TrimPrefix(blob.Name, srcPrefix)
		bs.blobs[blobKey(dstContainer, dstName)] = blob.Value
	}
	return len(blobs), nil
}

func (bs *inMemBlobStore) Delete(container string, name string) error {
	bs.mu.Lock()
	delete(bs.blobs, blobKey(container, name))
	bs.mu.Unlock()
	return nil
}

func (bs *inMemBlobStore) DeleteContainersWithPrefix(prefix string) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	for key := range bs.blobs {
		if strings.HasPrefix(key, prefix) {
			delete(bs.blobs, key)
		}
	}
	return nil
}
