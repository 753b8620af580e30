package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/angelmondragon/shoptab-backend/pkg/migrate"
)

func TestEmbeddedMigrationsMatchDir(t *testing.T) {
	embedded, err := migrate.Source("")
	if err != nil {
		t.Fatalf("embedded source: %v", err)
	}
	if err := migrate.Validate(embedded); err != nil {
		t.Fatalf("validate embedded migrations: %v", err)
	}

	onDisk, err := filepath.Glob(filepath.Join("migrations", "*.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	compiled, err := fs.Glob(embedded, "*.sql")
	if err != nil {
		t.Fatalf("glob embedded: %v", err)
	}
	if len(onDisk) == 0 || len(onDisk) != len(compiled) {
		t.Fatalf("embedded migrations out of sync: %d on disk, %d embedded", len(onDisk), len(compiled))
	}
}

func TestSourceRejectsMissingDir(t *testing.T) {
	if _, err := migrate.Source(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestNewRequiresDB(t *testing.T) {
	if _, err := migrate.New(nil, ""); err == nil {
		t.Fatal("expected error without db")
	}
}

func TestParseVersion(t *testing.T) {
	if v, err := migrate.ParseVersion("20260105090400"); err != nil || v != 20260105090400 {
		t.Fatalf("unexpected parse result %d err=%v", v, err)
	}
	for _, bad := range []string{"", "2026", "2026010509040x"} {
		if _, err := migrate.ParseVersion(bad); err == nil {
			t.Fatalf("expected %q to be rejected", bad)
		}
	}
}

func TestLedgerMigrationsContainConstraints(t *testing.T) {
	cases := map[string][]string{
		"*_create_credit_ledger.sql": {
			"CONSTRAINT ux_credit_accounts_shop_phone UNIQUE (shop_id, customer_phone)",
			"ux_credit_transactions_order ON credit_transactions (order_id) WHERE order_id IS NOT NULL",
			"CHECK (current_balance = total_credit_amount - total_paid_amount)",
			"trg_credit_transactions_append_only",
			"DROP TABLE IF EXISTS credit_accounts",
		},
		"*_create_orders.sql": {
			"CONSTRAINT orders_order_number_key UNIQUE (order_number)",
			"CREATE TABLE IF NOT EXISTS order_status_events",
			"CREATE TABLE IF NOT EXISTS order_modifications",
			"CREATE TABLE IF NOT EXISTS order_item_modifications",
			"trg_order_status_events_append_only",
		},
		"*_create_carts.sql": {
			"ux_carts_user_shop_active ON carts (user_id, shop_id) WHERE status = 'active'",
			"CONSTRAINT ux_cart_items_cart_product UNIQUE (cart_id, product_id)",
		},
	}

	for pattern, checks := range cases {
		matches, err := filepath.Glob(filepath.Join("migrations", pattern))
		if err != nil {
			t.Fatalf("glob migrations: %v", err)
		}
		if len(matches) != 1 {
			t.Fatalf("expected one migration for %s, got %d", pattern, len(matches))
		}

		data, err := os.ReadFile(matches[0])
		if err != nil {
			t.Fatalf("read migration file: %v", err)
		}
		content := string(data)
		for _, sub := range checks {
			if !strings.Contains(content, sub) {
				t.Errorf("%s missing expected statement %q", matches[0], sub)
			}
		}
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := migrate.CreateSQLMigration(dir, "Add Credit Reminders!")
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "_add_credit_reminders.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := migrate.ValidateDir(dir); err != nil {
		t.Fatalf("generated migration should validate: %v", err)
	}
	if _, err := migrate.CreateSQLMigration(dir, "!!!"); err == nil {
		t.Fatal("expected error for name without usable characters")
	}
}

func TestValidateRejectsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"20260301000000_add_index.sql": {Data: []byte("-- +goose Up\nCREATE INDEX x ON y (z);\n")},
	}
	if err := migrate.Validate(fsys); err == nil {
		t.Fatal("expected missing down annotation error")
	}
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := migrate.ValidateDir(dir); err == nil {
		t.Fatal("expected invalid filename error")
	}
}
