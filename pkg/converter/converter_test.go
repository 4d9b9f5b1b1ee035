package converter

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/olist-features/pkg/model"
)

func TestMapSQLType(t *testing.T) {
	c := NewTypeConverter(nil)

	cases := map[string]model.DataType{
		"VARCHAR(32)":              model.TypeString,
		"text":                     model.TypeString,
		"BIGINT":                   model.TypeInt,
		"integer":                  model.TypeInt,
		"NUMBER(38,0)":             model.TypeInt,
		"NUMBER(10,2)":             model.TypeFloat,
		"NUMERIC":                  model.TypeFloat,
		"DECIMAL(12, 0)":           model.TypeInt,
		"double precision":         model.TypeFloat,
		"DOUBLE":                   model.TypeFloat,
		"TIMESTAMP_NTZ(9)":         model.TypeTimestamp,
		"timestamp with time zone": model.TypeTimestamp,
		"GEOGRAPHY":                model.TypeString,
	}
	for sqlType, want := range cases {
		assert.Equal(t, want, c.MapSQLType(sqlType), sqlType)
	}
}

func TestConvertValue(t *testing.T) {
	c := NewTypeConverter(nil)

	t.Run("null tokens", func(t *testing.T) {
		for _, raw := range []interface{}{nil, "", "  ", "NULL", "nan", []byte("null")} {
			v, err := c.ConvertValue(raw, model.TypeFloat)
			require.NoError(t, err)
			assert.Nil(t, v)
		}
	})

	t.Run("integers", func(t *testing.T) {
		v, err := c.ConvertValue("01310", model.TypeInt)
		require.NoError(t, err)
		assert.Equal(t, int64(1310), v)

		v, err = c.ConvertValue(int32(5), model.TypeInt)
		require.NoError(t, err)
		assert.Equal(t, int64(5), v)

		v, err = c.ConvertValue("4.0", model.TypeInt)
		require.NoError(t, err)
		assert.Equal(t, int64(4), v)

		_, err = c.ConvertValue("4.5", model.TypeInt)
		require.Error(t, err)

		_, err = c.ConvertValue("abc", model.TypeInt)
		require.Error(t, err)
	})

	t.Run("integral floats can be refused", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowIntegralFloats = false
		strict := NewTypeConverterWithConfig(nil, cfg)
		_, err := strict.ConvertValue(4.0, model.TypeInt)
		require.Error(t, err)
	})

	t.Run("floats", func(t *testing.T) {
		v, err := c.ConvertValue(" 58.90 ", model.TypeFloat)
		require.NoError(t, err)
		assert.Equal(t, 58.90, v)

		v, err = c.ConvertValue(int64(3), model.TypeFloat)
		require.NoError(t, err)
		assert.Equal(t, 3.0, v)
	})

	t.Run("strings", func(t *testing.T) {
		v, err := c.ConvertValue([]byte("SP"), model.TypeString)
		require.NoError(t, err)
		assert.Equal(t, "SP", v)

		v, err = c.ConvertValue(12.5, model.TypeString)
		require.NoError(t, err)
		assert.Equal(t, "12.5", v)
	})

	t.Run("timestamps", func(t *testing.T) {
		v, err := c.ConvertValue("2017-10-02 10:56:33", model.TypeTimestamp)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2017, 10, 2, 10, 56, 33, 0, time.UTC), v)

		v, err = c.ConvertValue("2018-01-01", model.TypeTimestamp)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), v)

		_, err = c.ConvertValue("yesterday", model.TypeTimestamp)
		require.Error(t, err)
	})

	t.Run("timezone", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DefaultTimezone = "America/Sao_Paulo"
		br := NewTypeConverterWithConfig(nil, cfg)
		v, err := br.ConvertValue("2017-10-02 10:56:33", model.TypeTimestamp)
		require.NoError(t, err)
		assert.Equal(t, "America/Sao_Paulo", v.(time.Time).Location().String())
	})
}

func TestDetectTimeFormat(t *testing.T) {
	assert.Equal(t, "2006-01-02 15:04:05", DetectTimeFormat("2017-10-02 10:56:33"))
	assert.Equal(t, "2006-01-02", DetectTimeFormat("2017-10-02"))
	assert.Empty(t, DetectTimeFormat("not a time"))
}

func TestGenerateColumnDefinitions(t *testing.T) {
	meta := model.TableMetadata{
		Name: "seller_features",
		Columns: []model.Column{
			{Name: "seller_id", Type: model.TypeString, IsPrimaryKey: true},
			{Name: "n_orders", Type: model.TypeInt},
			{Name: "review_score", Type: model.TypeFloat, Nullable: true},
		},
	}
	quote := func(s string) string { return `"` + s + `"` }

	pg := GenerateColumnDefinitions(meta, DialectPostgres, quote)
	assert.Equal(t, []string{
		`"seller_id" TEXT NOT NULL`,
		`"n_orders" BIGINT NULL`,
		`"review_score" DOUBLE PRECISION NULL`,
	}, pg)

	duck := GenerateColumnDefinitions(meta, DialectDuckDB, quote)
	assert.True(t, strings.HasPrefix(duck[0], `"seller_id" VARCHAR`))
	assert.Contains(t, duck[2], "DOUBLE NULL")
}
