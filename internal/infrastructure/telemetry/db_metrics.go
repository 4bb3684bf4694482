package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dbMetricsPluginName = "db_metrics"

type queryStartKey struct{}

// DBMetrics records query counts and latency through gorm callbacks and
// reports the connection pool through observable gauges read on collection.
type DBMetrics struct {
	queries      metric.Int64Counter
	duration     metric.Float64Histogram
	registration metric.Registration
	logger       *zap.Logger
}

// RegisterDBMetrics instruments db with instruments from meter. Call Stop
// on shutdown to release the pool callback.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, logger *zap.Logger) (*DBMetrics, error) {
	pool, err := db.DB()
	if err != nil {
		return nil, err
	}

	m := &DBMetrics{logger: logger}
	if m.queries, err = meter.Int64Counter("db_query_total",
		metric.WithDescription("Database statements by operation and table"),
		metric.WithUnit("{query}"),
	); err != nil {
		return nil, err
	}
	if m.duration, err = meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database statement latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...),
	); err != nil {
		return nil, err
	}
	if m.registration, err = registerPoolGauges(meter, pool); err != nil {
		return nil, err
	}

	if err := db.Use(&dbMetricsPlugin{metrics: m}); err != nil {
		_ = m.registration.Unregister()
		return nil, err
	}
	logger.Info("Database metrics registered")
	return m, nil
}

func registerPoolGauges(meter metric.Meter, pool *sql.DB) (metric.Registration, error) {
	conns, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Pool connections by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	maxConns, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open pool connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := pool.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBPoolState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBPoolState.String("open")))
		return nil
	}, conns, maxConns)
}

// Stop releases the pool gauge callback. Safe on a nil receiver.
func (m *DBMetrics) Stop() {
	if m == nil || m.registration == nil {
		return
	}
	if err := m.registration.Unregister(); err != nil {
		m.logger.Warn("Failed to unregister pool gauges", zap.Error(err))
	}
}

func (m *DBMetrics) record(ctx context.Context, operation, table string, elapsed time.Duration) {
	if table == "" {
		table = "unknown"
	}
	attrs := metric.WithAttributes(AttrDBOperation.String(operation), AttrDBTable.String(table))
	m.queries.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

type dbMetricsPlugin struct {
	metrics *DBMetrics
}

func (p *dbMetricsPlugin) Name() string { return dbMetricsPluginName }

// Initialize hooks every gorm processor. Row and Raw statements are
// classified from their SQL text.
func (p *dbMetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register(hookName("before_create"), markQueryStart),
		cb.Create().After("gorm:create").Register(hookName("after_create"), p.after("INSERT")),
		cb.Query().Before("gorm:query").Register(hookName("before_query"), markQueryStart),
		cb.Query().After("gorm:query").Register(hookName("after_query"), p.after("SELECT")),
		cb.Update().Before("gorm:update").Register(hookName("before_update"), markQueryStart),
		cb.Update().After("gorm:update").Register(hookName("after_update"), p.after("UPDATE")),
		cb.Delete().Before("gorm:delete").Register(hookName("before_delete"), markQueryStart),
		cb.Delete().After("gorm:delete").Register(hookName("after_delete"), p.after("DELETE")),
		cb.Row().Before("gorm:row").Register(hookName("before_row"), markQueryStart),
		cb.Row().After("gorm:row").Register(hookName("after_row"), p.after("")),
		cb.Raw().Before("gorm:raw").Register(hookName("before_raw"), markQueryStart),
		cb.Raw().After("gorm:raw").Register(hookName("after_raw"), p.after("")),
	)
}

func hookName(stage string) string {
	return dbMetricsPluginName + ":" + stage
}

func markQueryStart(tx *gorm.DB) {
	ctx := tx.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tx.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

// after records the statement under operation; an empty operation is
// read from the SQL.
func (p *dbMetricsPlugin) after(operation string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		ctx := tx.Statement.Context
		if ctx == nil {
			return
		}
		start, ok := ctx.Value(queryStartKey{}).(time.Time)
		if !ok {
			return
		}
		op := operation
		if op == "" {
			op = operationOf(tx.Statement.SQL.String())
		}
		p.metrics.record(ctx, op, tx.Statement.Table, time.Since(start))
	}
}

// operationOf returns the leading SQL keyword, or OTHER.
func operationOf(sql string) string {
	head, _, _ := strings.Cut(strings.TrimSpace(sql), " ")
	switch op := strings.ToUpper(head); op {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return op
	default:
		return "OTHER"
	}
}
