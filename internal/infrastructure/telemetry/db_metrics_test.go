package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestRegisterDBMetrics(t *testing.T) {
	t.Run("counts statements by operation", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		db := openSQLite(t)

		m, err := RegisterDBMetrics(db, mp.Meter("db.client"), zaptest.NewLogger(t))
		require.NoError(t, err)
		defer m.Stop()

		var one int
		require.NoError(t, db.WithContext(context.Background()).Raw("SELECT 1").Scan(&one).Error)

		queries := findMetricByName(collectMetrics(t, reader), "db_query_total")
		require.NotNil(t, queries, "db_query_total metric not found")
		sum, ok := queries.Data.(metricdata.Sum[int64])
		require.True(t, ok, "expected Sum data for counter")

		var selects int64
		for _, point := range sum.DataPoints {
			op, _ := point.Attributes.Value(AttrDBOperation)
			table, _ := point.Attributes.Value(AttrDBTable)
			if op.AsString() == "SELECT" {
				selects += point.Value
				assert.Equal(t, "unknown", table.AsString())
			}
		}
		assert.Equal(t, int64(1), selects)
	})

	t.Run("reports pool gauges until stopped", func(t *testing.T) {
		mp, reader := setupTestMeter(t)
		db := openSQLite(t)

		m, err := RegisterDBMetrics(db, mp.Meter("db.client"), zaptest.NewLogger(t))
		require.NoError(t, err)

		rm := collectMetrics(t, reader)
		conns := findMetricByName(rm, "db_pool_connections")
		require.NotNil(t, conns, "db_pool_connections metric not found")
		gauge, ok := conns.Data.(metricdata.Gauge[int64])
		require.True(t, ok, "expected Gauge data")
		assert.Len(t, gauge.DataPoints, 3)
		assert.NotNil(t, findMetricByName(rm, "db_pool_connections_max"))

		m.Stop()

		if after := findMetricByName(collectMetrics(t, reader), "db_pool_connections"); after != nil {
			assert.Empty(t, after.Data.(metricdata.Gauge[int64]).DataPoints)
		}
	})

	t.Run("stop on nil is a no-op", func(t *testing.T) {
		var m *DBMetrics
		assert.NotPanics(t, m.Stop)
	})
}

func TestOperationOf(t *testing.T) {
	tests := map[string]string{
		"SELECT 1":                            "SELECT",
		"  select * from invoices":            "SELECT",
		"INSERT INTO invoices VALUES (1)":     "INSERT",
		"update invoices set status = 'paid'": "UPDATE",
		"DELETE FROM invoices":                "DELETE",
		"CREATE TABLE t (id int)":             "OTHER",
		"":                                    "OTHER",
	}
	for sql, want := range tests {
		assert.Equal(t, want, operationOf(sql), sql)
	}
}
