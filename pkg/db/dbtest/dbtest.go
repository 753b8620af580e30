// Package dbtest opens sqlite databases carrying the service schema for tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New returns an isolated in-memory database with every table created.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	return open(t, dsn, 0)
}

// NewFile returns a file-backed database that serializes writers, for tests
// that hit the same rows from several goroutines.
func NewFile(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shoptab.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_txlock=immediate&_journal_mode=WAL", path)
	return open(t, dsn, 4)
}

func open(t testing.TB, dsn string, maxOpen int) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := conn.Exec(stmt).Error; err != nil {
			t.Fatalf("apply schema: %v\n%s", err, stmt)
		}
	}
	return conn
}

var schema = []string{
	`CREATE TABLE shops (
  id TEXT PRIMARY KEY,
  owner_user_id TEXT NOT NULL,
  shop_name TEXT NOT NULL,
  is_delivery_available INTEGER NOT NULL DEFAULT 0,
  has_stock_availability INTEGER NOT NULL DEFAULT 0,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  image TEXT,
  sku TEXT,
  specifications TEXT,
  sale_price NUMERIC NOT NULL,
  discount_price NUMERIC,
  has_stock INTEGER NOT NULL DEFAULT 1,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME,
  deleted_at DATETIME
)`,
	`CREATE TABLE carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  subtotal NUMERIC NOT NULL DEFAULT 0,
  total_discount NUMERIC NOT NULL DEFAULT 0,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  total_items INTEGER NOT NULL DEFAULT 0,
  total_quantity NUMERIC NOT NULL DEFAULT 0,
  session_id TEXT,
  notes TEXT,
  last_activity_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_carts_user_shop_active ON carts (user_id, shop_id) WHERE status = 'active'`,
	`CREATE TABLE cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_image TEXT,
  product_sku TEXT,
  product_specs TEXT,
  quantity NUMERIC NOT NULL,
  unit_price NUMERIC NOT NULL,
  unit_discount_price NUMERIC,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL,
  is_available INTEGER NOT NULL DEFAULT 1,
  unavailable_reason TEXT,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (cart_id, product_id)
)`,
	`CREATE TABLE orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL UNIQUE,
  user_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  cart_id TEXT,
  status TEXT NOT NULL DEFAULT 'order_placed',
  order_type TEXT NOT NULL,
  subtotal NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  order_discount NUMERIC NOT NULL DEFAULT 0,
  extra_charges NUMERIC NOT NULL DEFAULT 0,
  delivery_fee NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL,
  pickup_date DATETIME,
  pickup_time TEXT,
  pickup_notes TEXT,
  delivery_address TEXT,
  delivery_landmark TEXT,
  delivery_pincode TEXT,
  delivery_city TEXT,
  delivery_state TEXT,
  delivery_contact_number TEXT,
  delivery_notes TEXT,
  customer_phone TEXT,
  payment_status TEXT NOT NULL DEFAULT 'pending',
  payment_method TEXT NOT NULL,
  payment_transaction_id TEXT,
  payment_date DATETIME,
  confirmed_at DATETIME,
  processing_started_at DATETIME,
  packed_at DATETIME,
  delivered_at DATETIME,
  cancelled_at DATETIME,
  refunded_at DATETIME,
  customer_notes TEXT,
  shop_notes TEXT,
  cancellation_reason TEXT,
  total_items INTEGER NOT NULL DEFAULT 0,
  total_quantity NUMERIC NOT NULL DEFAULT 0,
  estimated_delivery_date DATETIME,
  estimated_delivery_time TEXT,
  has_shop_modifications INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id TEXT,
  product_name TEXT NOT NULL,
  product_image TEXT,
  product_sku TEXT,
  product_specs TEXT,
  quantity NUMERIC NOT NULL,
  unit_price NUMERIC NOT NULL,
  unit_discount_price NUMERIC,
  item_discount_amount NUMERIC NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'available',
  unavailable_reason TEXT,
  is_added_by_shop INTEGER NOT NULL DEFAULT 0,
  is_modified_by_shop INTEGER NOT NULL DEFAULT 0,
  original_cart_item_id TEXT,
  original_quantity NUMERIC,
  original_unit_price NUMERIC,
  customer_notes TEXT,
  shop_notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE order_status_events (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  seq INTEGER NOT NULL,
  from_status TEXT,
  to_status TEXT NOT NULL,
  actor_user_id TEXT NOT NULL,
  actor_role TEXT NOT NULL,
  notes TEXT,
  created_at DATETIME,
  UNIQUE (order_id, seq)
)`,
	`CREATE TABLE order_modifications (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  seq INTEGER NOT NULL,
  modification_type TEXT NOT NULL,
  field TEXT NOT NULL,
  old_value TEXT,
  new_value TEXT,
  reason TEXT,
  notes TEXT,
  actor_user_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (order_id, seq)
)`,
	`CREATE TABLE order_item_modifications (
  id TEXT PRIMARY KEY,
  order_item_id TEXT NOT NULL,
  order_id TEXT NOT NULL,
  seq INTEGER NOT NULL,
  modification_type TEXT NOT NULL,
  old_value TEXT,
  new_value TEXT,
  reason TEXT,
  actor_user_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (order_item_id, seq)
)`,
	`CREATE TABLE credit_accounts (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_nickname TEXT NOT NULL,
  customer_name TEXT,
  total_credit_amount NUMERIC NOT NULL DEFAULT 0,
  total_paid_amount NUMERIC NOT NULL DEFAULT 0,
  current_balance NUMERIC NOT NULL DEFAULT 0,
  credit_limit NUMERIC NOT NULL DEFAULT 0,
  status TEXT NOT NULL DEFAULT 'active',
  notes TEXT,
  last_credit_date DATETIME,
  last_payment_date DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (shop_id, customer_phone)
)`,
	`CREATE TABLE credit_transactions (
  id TEXT PRIMARY KEY,
  credit_account_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  transaction_type TEXT NOT NULL,
  transaction_source TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  remarks TEXT,
  order_id TEXT,
  balance_after_transaction NUMERIC NOT NULL,
  metadata TEXT,
  actor_user_id TEXT NOT NULL,
  created_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_credit_transactions_order ON credit_transactions (order_id) WHERE order_id IS NOT NULL`,
	`CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	`CREATE TABLE outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json TEXT NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME,
  created_at DATETIME
)`,
	`CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  user_id TEXT,
  recipient_phone TEXT,
  shop_id TEXT,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  read_at DATETIME,
  created_at DATETIME
)`,
}
