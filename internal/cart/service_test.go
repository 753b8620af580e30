package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/internal/catalog"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	svc, err := NewService(NewRepository(conn), dbpkg.NewFromConn(conn), catalog.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, conn
}

func customer() authz.Actor {
	return authz.Actor{UserID: uuid.New(), Role: enums.RoleCustomer}
}

func qty(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func assertMoney(t *testing.T, label, want string, got decimal.Decimal) {
	t.Helper()
	if !decimal.RequireFromString(want).Equal(got) {
		t.Fatalf("%s: expected %s, got %s", label, want, got)
	}
}

// assertTotals checks the aggregate invariants against the persisted items.
func assertTotals(t *testing.T, cart *models.Cart) {
	t.Helper()
	sum := decimal.Zero
	for _, item := range cart.Items {
		sum = sum.Add(item.Subtotal)
	}
	if !cart.Subtotal.Equal(sum) {
		t.Fatalf("subtotal %s does not match item sum %s", cart.Subtotal, sum)
	}
	want := Total(cart.Subtotal, decimal.Zero, cart.DeliveryFee, cart.Tax)
	if !cart.Total.Equal(want) {
		t.Fatalf("total %s does not match formula %s", cart.Total, want)
	}
	if cart.TotalItems != len(cart.Items) {
		t.Fatalf("total items %d, have %d rows", cart.TotalItems, len(cart.Items))
	}
}

func TestAddItemBuildsAggregates(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	ten := dbtest.SeedProduct(t, conn, shop.ID, "10.00", nil)
	five := dbtest.SeedProduct(t, conn, shop.ID, "5.00", nil)
	actor := customer()
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: ten.ID, Quantity: qty("2")}); err != nil {
		t.Fatalf("add first item: %v", err)
	}
	cart, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: five.ID, Quantity: qty("1")})
	if err != nil {
		t.Fatalf("add second item: %v", err)
	}
	assertTotals(t, cart)
	assertMoney(t, "subtotal", "25", cart.Subtotal)
	assertMoney(t, "total", "25", cart.Total)
	assertMoney(t, "quantity", "3", cart.TotalQuantity)

	cart, err = svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: ten.ID, Quantity: qty("1.5")})
	if err != nil {
		t.Fatalf("increment item: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Fatalf("expected increment to reuse the row, got %d items", len(cart.Items))
	}
	assertTotals(t, cart)
	assertMoney(t, "subtotal after increment", "40", cart.Subtotal)

	again, err := svc.GetByShop(ctx, actor, shop.ID)
	if err != nil {
		t.Fatalf("get by shop: %v", err)
	}
	if again.ID != cart.ID {
		t.Fatalf("expected one active cart per shop")
	}
}

func TestAddItemRecordsSavings(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	product := dbtest.SeedProduct(t, conn, shop.ID, "10.00", func(p *models.Product) {
		p.DiscountPrice = decimal.NewNullDecimal(qty("8.00"))
	})

	cart, err := svc.AddItem(context.Background(), customer(), AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("2")})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	assertTotals(t, cart)
	assertMoney(t, "subtotal", "16", cart.Subtotal)
	assertMoney(t, "savings", "4", cart.TotalDiscount)
	assertMoney(t, "total", "16", cart.Total)
}

func TestAddItemStockPolicy(t *testing.T) {
	svc, conn := newTestService(t)
	ctx := context.Background()

	strict := dbtest.SeedShop(t, conn, func(s *models.Shop) { s.HasStockAvailability = true })
	strictProduct := dbtest.SeedProduct(t, conn, strict.ID, "3.00", func(p *models.Product) { p.HasStock = false })
	_, err := svc.AddItem(ctx, customer(), AddItemInput{ShopID: strict.ID, ProductID: strictProduct.ID, Quantity: qty("1")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out-of-stock item, got %v", err)
	}

	lenient := dbtest.SeedShop(t, conn, nil)
	lenientProduct := dbtest.SeedProduct(t, conn, lenient.ID, "3.00", func(p *models.Product) { p.HasStock = false })
	cart, err := svc.AddItem(ctx, customer(), AddItemInput{ShopID: lenient.ID, ProductID: lenientProduct.ID, Quantity: qty("1")})
	if err != nil {
		t.Fatalf("soft policy should keep the item: %v", err)
	}
	item := cart.Items[0]
	if item.IsAvailable || item.UnavailableReason == nil || *item.UnavailableReason != reasonOutOfStock {
		t.Fatalf("expected item flagged out of stock, got available=%v reason=%v", item.IsAvailable, item.UnavailableReason)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	other := dbtest.SeedShop(t, conn, nil)
	product := dbtest.SeedProduct(t, conn, shop.ID, "1.00", nil)
	ctx := context.Background()

	for _, q := range []string{"0", "-1", "1000", "0.001"} {
		_, err := svc.AddItem(ctx, customer(), AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty(q)})
		if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("quantity %s: expected validation error, got %v", q, err)
		}
	}

	_, err := svc.AddItem(ctx, customer(), AddItemInput{ShopID: other.ID, ProductID: product.ID, Quantity: qty("1")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected cross-shop product rejection, got %v", err)
	}

	_, err = svc.AddItem(ctx, customer(), AddItemInput{ShopID: shop.ID, ProductID: uuid.New(), Quantity: qty("1")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found for unknown product, got %v", err)
	}

	actor := customer()
	if _, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("999")}); err != nil {
		t.Fatalf("add item: %v", err)
	}
	_, err = svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("1")})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected increment past the cap to fail, got %v", err)
	}
}

func TestItemMutationsRequireOwnership(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	product := dbtest.SeedProduct(t, conn, shop.ID, "2.00", nil)
	ctx := context.Background()
	owner := customer()

	cart, err := svc.AddItem(ctx, owner, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("1")})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	itemID := cart.Items[0].ID

	stranger := customer()
	if _, err := svc.UpdateItem(ctx, stranger, itemID, UpdateItemInput{Quantity: qty("3")}); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden update, got %v", err)
	}
	if _, err := svc.RemoveItem(ctx, stranger, itemID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden remove, got %v", err)
	}
	if _, err := svc.Get(ctx, stranger, cart.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden get, got %v", err)
	}

	cart, err = svc.UpdateItem(ctx, owner, itemID, UpdateItemInput{Quantity: qty("3")})
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	assertTotals(t, cart)
	assertMoney(t, "subtotal", "6", cart.Subtotal)

	cart, err = svc.RemoveItem(ctx, owner, itemID)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(cart.Items) != 0 || !cart.Subtotal.IsZero() {
		t.Fatalf("expected empty cart, got %d items subtotal %s", len(cart.Items), cart.Subtotal)
	}
}

func TestUpdateCartFeesAndClear(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	product := dbtest.SeedProduct(t, conn, shop.ID, "12.50", nil)
	ctx := context.Background()
	actor := customer()

	cart, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("2")})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	fee, tax := qty("5"), qty("1.50")
	note := "  leave at the door "
	cart, err = svc.UpdateCart(ctx, actor, cart.ID, UpdateCartInput{DeliveryFee: &fee, Tax: &tax, Notes: &note})
	if err != nil {
		t.Fatalf("update cart: %v", err)
	}
	assertTotals(t, cart)
	assertMoney(t, "total", "31.50", cart.Total)
	if cart.Notes == nil || *cart.Notes != "leave at the door" {
		t.Fatalf("expected trimmed notes, got %v", cart.Notes)
	}

	negative := qty("-1")
	if _, err := svc.UpdateCart(ctx, actor, cart.ID, UpdateCartInput{Tax: &negative}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected negative tax rejection, got %v", err)
	}

	cart, err = svc.Clear(ctx, actor, cart.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	assertTotals(t, cart)
	if cart.TotalItems != 0 {
		t.Fatalf("expected no items after clear")
	}
	assertMoney(t, "total after clear", "6.50", cart.Total)
}

func TestRefreshFlagsWithoutRemoving(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	stocked := dbtest.SeedProduct(t, conn, shop.ID, "4.00", nil)
	retired := dbtest.SeedProduct(t, conn, shop.ID, "6.00", nil)
	repriced := dbtest.SeedProduct(t, conn, shop.ID, "1.00", nil)
	ctx := context.Background()
	actor := customer()

	var cart *models.Cart
	var err error
	for _, product := range []models.Product{stocked, retired, repriced} {
		cart, err = svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("1")})
		if err != nil {
			t.Fatalf("add item: %v", err)
		}
	}

	if err := conn.Model(&models.Product{}).Where("id = ?", stocked.ID).Update("has_stock", false).Error; err != nil {
		t.Fatalf("mark out of stock: %v", err)
	}
	if err := conn.Delete(&models.Product{}, "id = ?", retired.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := conn.Model(&models.Product{}).Where("id = ?", repriced.ID).Update("sale_price", qty("2.00")).Error; err != nil {
		t.Fatalf("reprice: %v", err)
	}

	cart, err = svc.Refresh(ctx, actor, cart.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(cart.Items) != 3 {
		t.Fatalf("refresh must not drop items, got %d", len(cart.Items))
	}
	reasons := map[uuid.UUID]string{}
	for _, item := range cart.Items {
		if item.UnavailableReason != nil {
			reasons[item.ProductID] = *item.UnavailableReason
		}
	}
	if reasons[stocked.ID] != reasonOutOfStock {
		t.Fatalf("expected out of stock flag, got %q", reasons[stocked.ID])
	}
	if reasons[retired.ID] != reasonNoLongerExists {
		t.Fatalf("expected retired flag, got %q", reasons[retired.ID])
	}
	if _, flagged := reasons[repriced.ID]; flagged {
		t.Fatalf("repriced product should stay available")
	}
	assertTotals(t, cart)
	assertMoney(t, "subtotal", "12", cart.Subtotal)
}

func TestAbandonedCartIsReadOnly(t *testing.T) {
	svc, conn := newTestService(t)
	shop := dbtest.SeedShop(t, conn, nil)
	product := dbtest.SeedProduct(t, conn, shop.ID, "2.00", nil)
	ctx := context.Background()
	actor := customer()

	cart, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("1")})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	abandoned, err := svc.Abandon(ctx, actor, cart.ID)
	if err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if abandoned.Status != enums.CartStatusAbandoned {
		t.Fatalf("expected abandoned status, got %s", abandoned.Status)
	}

	if _, err := svc.UpdateItem(ctx, actor, cart.Items[0].ID, UpdateItemInput{Quantity: qty("2")}); !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on abandoned cart, got %v", err)
	}

	fresh, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: shop.ID, ProductID: product.ID, Quantity: qty("1")})
	if err != nil {
		t.Fatalf("add after abandon: %v", err)
	}
	if fresh.ID == cart.ID {
		t.Fatalf("expected a new active cart")
	}
}

func TestListAndStats(t *testing.T) {
	svc, conn := newTestService(t)
	first := dbtest.SeedShop(t, conn, nil)
	second := dbtest.SeedShop(t, conn, nil)
	a := dbtest.SeedProduct(t, conn, first.ID, "3.00", nil)
	b := dbtest.SeedProduct(t, conn, second.ID, "7.00", nil)
	ctx := context.Background()
	actor := customer()

	cartA, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: first.ID, ProductID: a.ID, Quantity: qty("2")})
	if err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := svc.AddItem(ctx, actor, AddItemInput{ShopID: second.ID, ProductID: b.ID, Quantity: qty("1")}); err != nil {
		t.Fatalf("add b: %v", err)
	}
	emptied, err := svc.Clear(ctx, actor, cartA.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}

	carts, err := svc.List(ctx, actor, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(carts) != 1 {
		t.Fatalf("expected empty carts hidden, got %d", len(carts))
	}
	carts, err = svc.List(ctx, actor, ListFilters{IncludeEmpty: true})
	if err != nil {
		t.Fatalf("list with empty: %v", err)
	}
	if len(carts) != 2 {
		t.Fatalf("expected 2 carts, got %d", len(carts))
	}

	if _, err := svc.Abandon(ctx, actor, emptied.ID); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	stats, err := svc.Stats(ctx, actor)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalCarts != 2 || stats.ActiveCarts != 1 || stats.AbandonedCarts != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.TotalItems != 1 {
		t.Fatalf("expected 1 item across carts, got %d", stats.TotalItems)
	}
	assertMoney(t, "total value", "7", stats.TotalValue)
}

func TestTotalNeverNegative(t *testing.T) {
	got := Total(qty("5"), qty("10"), decimal.Zero, qty("1"))
	if !got.IsZero() {
		t.Fatalf("expected clamp to zero, got %s", got)
	}
}
