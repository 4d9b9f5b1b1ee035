package connector

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const defaultTestTimeout = 10 * time.Second

func TestRetryPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{Attempts: 3}.Do(ctx, zap.NewNop(), "op", func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{Attempts: 2}.Do(ctx, zap.NewNop(), "op", func() error {
			calls++
			return errors.New("down")
		})
		require.EqualError(t, err, "down")
		assert.Equal(t, 3, calls)
	})

	t.Run("permanent errors stop immediately", func(t *testing.T) {
		calls := 0
		err := RetryPolicy{Attempts: 5}.Do(ctx, zap.NewNop(), "op", func() error {
			calls++
			return backoff.Permanent(errors.New("bad credentials"))
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})
}

func TestQualifiedNameAndInsert(t *testing.T) {
	assert.Equal(t, `"features"."order_training"`, QualifiedName("features", "order_training"))
	assert.Equal(t, `"x"`, QualifiedName("", "x"))

	q := BuildInsert(`"s"."t"`, []string{"a", "b"}, 2)
	assert.Equal(t, `INSERT INTO "s"."t" ("a", "b") VALUES ($1, $2), ($3, $4)`, q)
}

func TestDuckDBConnector(t *testing.T) {
	ctx := context.Background()

	c, err := NewDuckDBConnector(ctx, "")
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, "duckdb", c.Engine())
	require.NoError(t, c.Validate(ctx))

	_, err = c.ExecWithTimeout(ctx, "CREATE TABLE t (id VARCHAR, n BIGINT)", defaultTestTimeout)
	require.NoError(t, err)

	err = c.WithAppender(ctx, "", "t", func(a *duckdb.Appender) error {
		if err := a.AppendRow("a", int64(1)); err != nil {
			return err
		}
		return a.AppendRow("b", nil)
	})
	require.NoError(t, err)

	var ids []string
	err = c.QueryWithTimeout(ctx, "SELECT id FROM t ORDER BY id", defaultTestTimeout, func(rows *sql.Rows) error {
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}
