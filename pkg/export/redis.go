package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/table"
)

// RedisSink stores each row as a hash keyed by the dataset key columns, for
// online feature lookups. A per-table set indexes the stored keys.
type RedisSink struct {
	client    redis.UniversalClient
	prefix    string
	batchSize int
	logger    *zap.Logger
}

// NewRedisSink creates a sink writing hashes under prefix
func NewRedisSink(client redis.UniversalClient, prefix string, batchSize int, logger *zap.Logger) *RedisSink {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &RedisSink{
		client:    client,
		prefix:    prefix,
		batchSize: batchSize,
		logger:    logger.Named("redis-sink"),
	}
}

// Name implements Sink
func (s *RedisSink) Name() string {
	return "redis"
}

// indexKey names the set holding every row key of a table
func (s *RedisSink) indexKey(tableName string) string {
	return s.prefix + tableName + ":keys"
}

// rowKey renders prefix + table + key values, joined by ':'
func (s *RedisSink) rowKey(tableName string, key []string, r table.Row) (string, error) {
	parts := make([]string, 0, len(key)+1)
	parts = append(parts, tableName)
	for _, k := range key {
		v, ok := formatValue(r[k])
		if !ok {
			return "", fmt.Errorf("null key column %s", k)
		}
		parts = append(parts, v)
	}
	return s.prefix + strings.Join(parts, ":"), nil
}

// hashFields returns the non-null columns of a row as text
func hashFields(columns []string, r table.Row) map[string]interface{} {
	fields := make(map[string]interface{}, len(columns))
	for _, c := range columns {
		if v, ok := formatValue(r[c]); ok {
			fields[c] = v
		}
	}
	return fields
}

// Write deletes the previous keys of the table and stores one hash per key.
// Rows sharing a key overwrite each other field by field; the number of
// distinct keys is returned.
func (s *RedisSink) Write(ctx context.Context, ds Dataset) (int64, error) {
	name := ds.Table.Name()
	key := ds.Key
	if len(key) == 0 {
		key = ds.Table.Metadata().PrimaryKeys
	}
	if len(key) == 0 {
		return 0, fmt.Errorf("table %s has no key columns for redis", name)
	}
	if err := ds.Table.Require(key...); err != nil {
		return 0, err
	}

	if err := s.clear(ctx, name); err != nil {
		return 0, err
	}

	columns := ds.Table.Columns()
	rows := ds.Table.Rows()
	seen := make(map[string]struct{}, len(rows))

	for start := 0; start < len(rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}

		pipe := s.client.Pipeline()
		for i, r := range rows[start:end] {
			k, err := s.rowKey(name, key, r)
			if err != nil {
				return int64(len(seen)), fmt.Errorf("row %d of %s: %w", start+i, name, err)
			}
			seen[k] = struct{}{}
			pipe.HSet(ctx, k, hashFields(columns, r))
			pipe.SAdd(ctx, s.indexKey(name), k)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return int64(len(seen)), fmt.Errorf("redis pipeline for %s failed: %w", name, err)
		}
	}

	if dup := len(rows) - len(seen); dup > 0 {
		s.logger.Debug("Rows shared a key",
			zap.String("table", name),
			zap.Int("overwritten", dup))
	}
	return int64(len(seen)), nil
}

// clear removes every hash indexed for the table, and the index
func (s *RedisSink) clear(ctx context.Context, tableName string) error {
	index := s.indexKey(tableName)
	keys, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return fmt.Errorf("failed to read index %s: %w", index, err)
	}

	for start := 0; start < len(keys); start += s.batchSize {
		end := start + s.batchSize
		if end > len(keys) {
			end = len(keys)
		}
		if err := s.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return fmt.Errorf("failed to delete old keys of %s: %w", tableName, err)
		}
	}
	return s.client.Del(ctx, index).Err()
}

// Count implements Sink
func (s *RedisSink) Count(ctx context.Context, tableName string) (int64, error) {
	return s.client.SCard(ctx, s.indexKey(tableName)).Result()
}

// Close implements Sink
func (s *RedisSink) Close() error {
	return s.client.Close()
}
