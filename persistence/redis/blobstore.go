package redis

import (
	"context"
	"encoding/json"
	"strings"

	rd "github.com/go-redis/redis/v9"

	"github.com/docuflow/docuflow/persistence"
)

const BLOB_PREFIX string = "blob"

type redisBlobStore struct {
	*baseDao
}

var _ persistence.BlobStore = new(redisBlobStore)

func NewRedisBlobStore(conf Config) *redisBlobStore {
	return &redisBlobStore{
		baseDao: newBaseDao(conf),
	}
}

func (bs *redisBlobStore) blobKey(container string, name string) string {
	return bs.getNamespaceKey(BLOB_PREFIX, container, name)
}

func (bs *redisBlobStore) GetJSON(container string, name string, out any) error {
	key := bs.blobKey(container, name)
	ctx := context.Background()
	val, err := bs.redisClient.Get(ctx, key).Result()
	if err == rd.Nil {
		return persistence.NotFoundError{Name: container + "/" + name}
	}
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if err := json.Unmarshal([]byte(val), out); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (bs *redisBlobStore) PutJSON(container string, name string, value any) error {
	key := bs.blobKey(container, name)
	ctx := context.Background()
	data, err := json.Marshal(value)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if err := bs.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (bs *redisBlobStore) ListByPrefix(container string, prefix string) ([]persistence.NamedBlob, error) {
	keyPrefix := bs.blobKey(container, prefix)
	ctx := context.Background()
	keys, err := bs.scanKeys(ctx, keyPrefix+"*")
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	namePrefix := bs.blobKey(container, "")
	var blobs []persistence.NamedBlob
	for _, key := range keys {
		val, err := bs.redisClient.Get(ctx, key).Result()
		if err == rd.Nil {
			continue
		}
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		blobs = append(blobs, persistence.NamedBlob{
			Name:  strings.TrimPrefix(key, namePrefix),
			Value: []byte(val),
		})
	}
	return blobs, nil
}

func (bs *redisBlobStore) CopyByPrefix(srcContainer string, srcPrefix string, dstContainer string, dstPrefix string) (int, error) {
	blobs, err := bs.ListByPrefix(srcContainer, srcPrefix)
	if err != nil {
		return 0, err
	}
	ctx := context.Background()
	copied := 0
	for _, blob := range blobs {
		dstName := dstPrefix + strings.TrimPrefix(blob.Name, srcPrefix)
		key := bs.blobKey(dstContainer, dstName)
		if err := bs.redisClient.Set(ctx, key, blob.Value, 0).Err(); err != nil {
			return copied, persistence.StorageLayerError{Message: err.Error()}
		}
		copied++
	}
	return copied, nil
}

func (bs *redisBlobStore) Delete(container string, name string) error {
	key := bs.blobKey(container, name)
	ctx := context.Background()
	if err := bs.redisClient.Del(ctx, key).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (bs *redisBlobStore) DeleteContainersWithPrefix(prefix string) error {
	pattern := bs.getNamespaceKey(BLOB_PREFIX, prefix) + "*"
	ctx := context.Background()
	keys, err := bs.scanKeys(ctx, pattern)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := bs.redisClient.Del(ctx, keys...).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
