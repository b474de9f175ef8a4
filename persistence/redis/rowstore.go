package redis

import (
	"context"

	rd "github.com/go-redis/redis/v9"
	"go.uber.org/zap"

	"github.com/docuflow/docuflow/logger"
	"github.com/docuflow/docuflow/persistence"
	"github.com/docuflow/docuflow/util"
)

const ROW_PREFIX string = "row"

type redisRowStore struct {
	*baseDao
	encoderDecoder util.EncoderDecoder[map[string]any]
}

var _ persistence.RowStore = new(redisRowStore)

func NewRedisRowStore(conf Config) *redisRowStore {
	return &redisRowStore{
		baseDao:        newBaseDao(conf),
		encoderDecoder: util.NewJsonEncoderDecoder[map[string]any](),
	}
}

func (rs *redisRowStore) rowKey(table string, partitionKey string, rowKey string) string {
	return rs.getNamespaceKey(ROW_PREFIX, table, partitionKey, rowKey)
}

func sanitizeRecord(record map[string]any) map[string]any {
	ret := make(map[string]any, len(record))
	for key, val := range record {
		if val == nil {
			continue
		}
		switch val.(type) {
		case string, bool, int, int32, int64, float32, float64:
			ret[key] = val
		default:
			logger.Warn("ignored table row field", zap.String("field", key))
		}
	}
	return ret
}

func (rs *redisRowStore) Get(table string, partitionKey string, rowKey string) (map[string]any, error) {
	key := rs.rowKey(table, partitionKey, rowKey)
	ctx := context.Background()
	val, err := rs.redisClient.Get(ctx, key).Result()
	if err == rd.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	record, err := rs.encoderDecoder.Decode([]byte(val))
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return *record, nil
}

func (rs *redisRowStore) Put(table string, partitionKey string, rowKey string, record map[string]any, mode persistence.WriteMode) (map[string]any, error) {
	key := rs.rowKey(table, partitionKey, rowKey)
	ctx := context.Background()
	data, err := rs.encoderDecoder.Encode(sanitizeRecord(record))
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	switch mode {
	case persistence.CREATE_OR_OVERWRITE:
		if err := rs.redisClient.Set(ctx, key, data, 0).Err(); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
	default:
		created, err := rs.redisClient.SetNX(ctx, key, data, 0).Result()
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		if !created && mode == persistence.CREATE_OR_FAIL {
			return nil, persistence.ConflictError{Key: key}
		}
	}
	return rs.Get(table, partitionKey, rowKey)
}

func (rs *redisRowStore) Query(table string, partitionKey string, conditions []persistence.Condition) ([]map[string]any, error) {
	pattern := rs.getNamespaceKey(ROW_PREFIX, table, "*")
	if partitionKey != "" {
		pattern = rs.getNamespaceKey(ROW_PREFIX, table, partitionKey, "*")
	}
	ctx := context.Background()
	keys, err := rs.scanKeys(ctx, pattern)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var records []map[string]any
	for _, key := range keys {
		val, err := rs.redisClient.Get(ctx, key).Result()
		if err == rd.Nil {
			continue
		}
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		record, err := rs.encoderDecoder.Decode([]byte(val))
		if err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		if matchesConditions(*record, conditions) {
			records = append(records, *record)
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

func (rs *redisRowStore) Delete(table string, partitionKey string, rowKey string) error {
	key := rs.rowKey(table, partitionKey, rowKey)
	ctx := context.Background()
	if err := rs.redisClient.Del(ctx, key).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (rs *redisRowStore) DeletePartitionPrefix(table string, partitionPrefix string) error {
	pattern := rs.getNamespaceKey(ROW_PREFIX, table, partitionPrefix) + "*"
	ctx := context.Background()
	keys, err := rs.scanKeys(ctx, pattern)
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	if len(keys) == 0 {
		return nil
	}
	if err := rs.redisClient.Del(ctx, keys...).Err(); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}
