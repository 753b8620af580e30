package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	statuses := map[Code]int{
		CodeValidation:    http.StatusBadRequest,
		CodeUnauthorized:  http.StatusUnauthorized,
		CodeForbidden:     http.StatusForbidden,
		CodeNotFound:      http.StatusNotFound,
		CodeConflict:      http.StatusConflict,
		CodeStateConflict: http.StatusUnprocessableEntity,
		CodeIdempotency:   http.StatusConflict,
		CodeRateLimit:     http.StatusTooManyRequests,
		CodeInternal:      http.StatusInternalServerError,
		CodeDependency:    http.StatusServiceUnavailable,
	}
	retryable := map[Code]bool{CodeInternal: true, CodeDependency: true}
	withDetails := map[Code]bool{CodeValidation: true, CodeStateConflict: true, CodeIdempotency: true, CodeDependency: true}

	for code, status := range statuses {
		t.Run(string(code), func(t *testing.T) {
			meta := MetadataFor(code)
			require.Equal(t, status, meta.HTTPStatus)
			require.Equal(t, retryable[code], meta.Retryable)
			require.Equal(t, withDetails[code], meta.DetailsAllowed)
			require.NotEmpty(t, meta.PublicMessage)
		})
	}

	require.Equal(t, MetadataFor(CodeInternal), MetadataFor("SOMETHING_UNKNOWN"))
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	require.Equal(t, CodeValidation, base.Code())
	require.Equal(t, "missing foo", base.Message())
	require.Nil(t, base.Details())

	base.WithDetails(map[string]any{"field": "foo"})
	require.Equal(t, map[string]any{"field": "foo"}, base.Details())

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	require.ErrorIs(t, wrapped, cause)
	require.Equal(t, CodeConflict, wrapped.Code())

	var nilErr *Error
	require.Equal(t, CodeInternal, nilErr.Code())
	require.Empty(t, nilErr.Message())
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestCodeOfAndIsCode(t *testing.T) {
	inner := Newf(CodeStateConflict, "credit limit exceeded for %s", "acct-1")
	wrapped := fmt.Errorf("post credit: %w", inner)

	if got := CodeOf(wrapped); got != CodeStateConflict {
		t.Fatalf("expected state conflict through wrap, got %s", got)
	}
	if !IsCode(wrapped, CodeStateConflict) {
		t.Fatalf("expected IsCode to match wrapped error")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Fatalf("IsCode matched the wrong code")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
	if !stdErrors.Is(wrapped, CodeStateConflict) {
		t.Fatalf("expected errors.Is to match the bare code")
	}
	if !IsCode(Wrap(CodeDependency, inner, "outer"), CodeStateConflict) {
		t.Fatalf("expected IsCode to see an inner code")
	}
	if inner.Message() != "credit limit exceeded for acct-1" {
		t.Fatalf("unexpected formatted message %q", inner.Message())
	}
}

func TestDumpCollectsPostgresFields(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_order_number_key", TableName: "orders"}
	err := Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "create order")

	d := Dump(err)
	if d.Code != CodeConflict {
		t.Fatalf("expected conflict code, got %s", d.Code)
	}
	if d.Postgres == nil || d.Postgres.Code != "23505" || d.Postgres.Constraint != "orders_order_number_key" || d.Postgres.Table != "orders" {
		t.Fatalf("unexpected pg fields %+v", d.Postgres)
	}
	if len(d.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d", len(d.Chain))
	}
	if fields := d.Fields(); fields["pg_code"] != "23505" {
		t.Fatalf("expected pg_code field, got %v", fields)
	}
}

func TestPostgresReadsLibPQErrors(t *testing.T) {
	pg, ok := Postgres(fmt.Errorf("wrapped: %w", &pq.Error{Code: "40P01", Table: "credit_accounts"}))
	if !ok || pg.Code != "40P01" || pg.Table != "credit_accounts" {
		t.Fatalf("unexpected postgres view %+v ok=%v", pg, ok)
	}
	if _, ok := Postgres(stdErrors.New("plain")); ok {
		t.Fatal("plain errors carry no postgres fields")
	}
	if fields := Dump(stdErrors.New("plain")).Fields(); fields["pg_code"] != nil {
		t.Fatal("expected no pg fields for plain error")
	}
}
