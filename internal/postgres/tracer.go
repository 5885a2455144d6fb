package postgres

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
)

var queryObserver atomic.Pointer[observerHolder]

type observerHolder struct{ QueryObserver }

type methodKey struct{}

type queryStateKey struct{}

// queryState carries per-query data from TraceQueryStart to TraceQueryEnd.
type queryState struct {
	sql    string
	args   []any
	start  time.Time
	caller string
}

// QueryObserver receives per-query metrics (wired by main for Prometheus).
type QueryObserver interface {
	ObserveQuery(ctx context.Context, method, route, outcome string, dur time.Duration)
}

// QueryObserverFunc adapts a plain function to QueryObserver.
type QueryObserverFunc func(ctx context.Context, method, route, outcome string, dur time.Duration)

// ObserveQuery implements QueryObserver.
func (f QueryObserverFunc) ObserveQuery(ctx context.Context, method, route, outcome string, dur time.Duration) {
	f(ctx, method, route, outcome, dur)
}

// SetQueryObserver sets the global query observer. nil disables observation.
func SetQueryObserver(o QueryObserver) {
	if o == nil {
		queryObserver.Store(nil)
		return
	}
	queryObserver.Store(&observerHolder{QueryObserver: o})
}

// WithHTTPMethod stores the HTTP method in the context for query metrics labelling.
func WithHTTPMethod(ctx context.Context, method string) context.Context {
	if method == "" {
		return ctx
	}
	return context.WithValue(ctx, methodKey{}, method)
}

func observer() QueryObserver {
	h := queryObserver.Load()
	if h == nil {
		return nil
	}
	return h.QueryObserver
}

func labelsFromContext(ctx context.Context) (method, route string) {
	method, _ = ctx.Value(methodKey{}).(string)
	if method == "" {
		method = "NONE"
	}
	if rc := chi.RouteContext(ctx); rc != nil {
		route = rc.RoutePattern()
	}
	if route == "" {
		route = "background"
	}
	return method, route
}

// queryLogger wraps another pgx.QueryTracer (otelpgx) with structured query
// logs and the metrics observer.
type queryLogger struct {
	inner   pgx.QueryTracer
	slow    time.Duration
	logArgs bool
}

func newQueryLogger(inner pgx.QueryTracer, slow time.Duration, logArgs bool) *queryLogger {
	return &queryLogger{inner: inner, slow: slow, logArgs: logArgs}
}

func (t *queryLogger) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	st := &queryState{
		sql:    data.SQL,
		args:   data.Args,
		start:  time.Now(),
		caller: storeCaller(),
	}

	// inner tracer opens the db span
	if t.inner != nil {
		ctx = t.inner.TraceQueryStart(ctx, conn, data)
	}

	if span := trace.SpanFromContext(ctx); st.caller != "" && span.IsRecording() {
		span.SetAttributes(attribute.String("db.caller", st.caller))
	}

	return context.WithValue(ctx, queryStateKey{}, st)
}

func (t *queryLogger) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	if t.inner != nil {
		t.inner.TraceQueryEnd(ctx, conn, data)
	}

	st, _ := ctx.Value(queryStateKey{}).(*queryState)
	if st == nil {
		return
	}
	dur := time.Since(st.start)

	if obs := observer(); obs != nil {
		method, route := labelsFromContext(ctx)
		outcome := "ok"
		if data.Err != nil {
			outcome = "error"
		}
		obs.ObserveQuery(ctx, method, route, outcome, dur)
	}

	slow := t.slow > 0 && dur >= t.slow
	if data.Err == nil && t.slow > 0 && !slow {
		return
	}

	fields := t.fields(st, data, dur)
	L := log.FromContext(ctx)
	switch {
	case data.Err != nil:
		L.Error(ctx, data.Err, "db query failed", fields...)
	case slow:
		L.Warn(ctx, "slow db query", fields...)
	default:
		L.Info(ctx, "db query", fields...)
	}
}

func (t *queryLogger) fields(st *queryState, data pgx.TraceQueryEndData, dur time.Duration) []any {
	fields := []any{
		"db.statement", compactSQL(st.sql),
		"db.duration", dur.Seconds(),
	}
	if t.logArgs {
		fields = append(fields, "db.args", st.args)
	}
	if tag := data.CommandTag.String(); tag != "" {
		if op, _, ok := strings.Cut(tag, " "); ok {
			fields = append(fields, "db.operation.name", op)
		}
		fields = append(fields, "db.rows", data.CommandTag.RowsAffected())
	}
	if st.caller != "" {
		fields = append(fields, "db.caller", st.caller)
	}
	var pgErr *pgconn.PgError
	if errors.As(data.Err, &pgErr) {
		fields = append(fields, "db.error_code", pgErr.Code, "db.error_constraint", pgErr.ConstraintName)
	}
	return fields
}

// compactSQL collapses whitespace so multi-line statements log on one line.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// storeCaller returns the first application frame issuing the query, e.g.
// "(*Store).Update".
func storeCaller() string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		fr, more := frames.Next()
		fn := fr.Function
		if fn != "" && !isLibraryFrame(fn) {
			return shortenFuncName(fn)
		}
		if !more {
			return ""
		}
	}
}

func isLibraryFrame(fn string) bool {
	return strings.HasPrefix(fn, "runtime.") ||
		strings.Contains(fn, "github.com/jackc/") ||
		strings.Contains(fn, "github.com/exaring/otelpgx") ||
		strings.Contains(fn, "/internal/postgres.")
}

// shortenFuncName trims the import path and package name, keeping receiver and method.
func shortenFuncName(fn string) string {
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	if _, rest, ok := strings.Cut(fn, "."); ok && rest != "" {
		return rest
	}
	return fn
}
