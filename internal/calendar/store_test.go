package calendar

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"repair_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type execStub struct {
	tag  string
	sql  string
	args []interface{}
}

func (e *execStub) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	e.sql, e.args = sql, args
	return pgconn.NewCommandTag(e.tag), nil
}

func (e *execStub) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not used")
}

func (e *execStub) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }

func TestConsumeRequiresOpenSlot(t *testing.T) {
	day := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)

	stub := &execStub{tag: "INSERT 0 0"}
	err := NewStore(stub).Consume(context.Background(), uuid.New(), day, Slot1000)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict when no row changes, got %v", err)
	}
	if !strings.Contains(stub.sql, "= ANY(technician_availability.open_slots)") {
		t.Fatalf("consume must be conditional on the slot being open:\n%s", stub.sql)
	}
	if !strings.Contains(stub.sql, "VALUES ($1, $2, '{}')") {
		t.Fatalf("a missing record must be created without open slots:\n%s", stub.sql)
	}
	if len(stub.args) != 3 || stub.args[2] != string(Slot1000) {
		t.Fatalf("unexpected args %v", stub.args)
	}

	if err := NewStore(&execStub{tag: "INSERT 0 1"}).Consume(context.Background(), uuid.New(), day, Slot1000); err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
}
