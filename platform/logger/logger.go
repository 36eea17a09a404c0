// Package logger is the slog wrapper shared by both binaries. Events are
// logged under snake_case message names with typed attributes.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

// Request scoped values read by WithContext. httpkit stores them on the
// request context.
const (
	RequestIDKey contextKey = "request_id"
	UserIDKey    contextKey = "user_id"
)

type Logger struct {
	*slog.Logger
}

func New(env string) *Logger {
	return NewWithWriter(env, os.Stdout)
}

// NewWithWriter builds a text handler at debug level for development and a
// JSON handler at info level elsewhere.
func NewWithWriter(env string, w io.Writer) *Logger {
	if strings.EqualFold(env, "development") {
		return &Logger{Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))}
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// WithContext attaches request_id, user_id and trace_id when ctx has them.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	var attrs []any
	for _, key := range []contextKey{RequestIDKey, UserIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			attrs = append(attrs, slog.String(string(key), v))
		}
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{Logger: l.With(attrs...)}
}

func (l *Logger) HTTPRequest(method, path string, status int, latencyMs float64, clientIP string) {
	l.Info("http_request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("latency_ms", latencyMs),
		slog.String("client_ip", clientIP),
	)
}

// HTTPError is logged instead of HTTPRequest when a handler recorded an
// infrastructure error.
func (l *Logger) HTTPError(method, path string, status int, err error, clientIP string) {
	l.Error("http_error",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
		slog.String("client_ip", clientIP),
	)
}

// AuthRejected logs a rejected bearer token
func (l *Logger) AuthRejected(path, reason, clientIP string) {
	l.Warn("auth_rejected",
		slog.String("path", path),
		slog.String("reason", reason),
		slog.String("client_ip", clientIP),
	)
}

// AppointmentChanged logs a committed booking, cancellation or reschedule.
func (l *Logger) AppointmentChanged(action, appointmentID, technicianID, date, slot string) {
	l.Info("appointment_"+action,
		slog.String("appointment_id", appointmentID),
		slog.String("technician_id", technicianID),
		slog.String("date", date),
		slog.String("slot", slot),
	)
}

// RepairStatusChanged logs a committed repair request transition.
func (l *Logger) RepairStatusChanged(repairID, from, to string) {
	l.Info("repair_status_changed",
		slog.String("repair_request_id", repairID),
		slog.String("from", from),
		slog.String("to", to),
	)
}

// SideEffectFailed logs a fire-and-forget side effect (notification, reminder)
// that failed after the owning operation already committed.
func (l *Logger) SideEffectFailed(effect, appointmentID string, err error) {
	l.Warn("side_effect_failed",
		slog.String("effect", effect),
		slog.String("appointment_id", appointmentID),
		slog.String("error", err.Error()),
	)
}

func (l *Logger) RateLimitExceeded(clientIP, path string) {
	l.Warn("rate_limit_exceeded",
		slog.String("client_ip", clientIP),
		slog.String("path", path),
	)
}
