//go:build integration

package credit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/pkg/config"
	dbpkg "github.com/angelmondragon/shoptab-backend/pkg/db"
	"github.com/angelmondragon/shoptab-backend/pkg/db/dbtest"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/migrate"
	"github.com/angelmondragon/shoptab-backend/pkg/outbox"
)

func startPostgres(t *testing.T) *dbpkg.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "shoptab",
				"POSTGRES_PASSWORD": "shoptab",
				"POSTGRES_DB":       "shoptab",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate postgres: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://shoptab:shoptab@%s:%s/shoptab?sslmode=disable", host, port.Port())
	client, err := dbpkg.New(ctx, config.DBConfig{DSN: dsn, MaxOpenConns: 20, MaxIdleConns: 5}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	migrator, err := migrate.New(sqlDB, "")
	require.NoError(t, err)
	_, err = migrator.Up(ctx)
	require.NoError(t, err)
	return client
}

func TestPostgresConcurrentCreditsHonorRowLock(t *testing.T) {
	client := startPostgres(t)
	conn := client.DB()

	shop := dbtest.SeedShop(t, conn, nil)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		DB:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Retry:  dbpkg.RetryOptions{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond},
	})
	require.NoError(t, err)

	shopID := shop.ID
	owner := authz.Actor{UserID: shop.OwnerUserID, Role: enums.RoleShopOwner, ShopID: &shopID}
	account, err := svc.CreateAccount(context.Background(), owner, CreateAccountInput{
		ShopID:           shop.ID,
		CustomerPhone:    "5551230000",
		CustomerNickname: "Load",
		CreditLimit:      decimal.RequireFromString("250.00"),
	})
	require.NoError(t, err)

	const workers = 40
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddCredit(context.Background(), owner, PostingInput{
				ShopID:    shop.ID,
				AccountID: account.ID,
				Amount:    decimal.RequireFromString("12.50"),
			})
			if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 20, accepted)
	result, err := svc.Verify(context.Background(), owner, shop.ID, account.ID)
	require.NoError(t, err)
	require.True(t, result.Consistent, "%+v", result.Mismatches)
	require.True(t, decimal.RequireFromString("250.00").Equal(result.ReplayedBalance))
}

func TestPostgresInterleavedCreditsAndPayments(t *testing.T) {
	client := startPostgres(t)
	conn := client.DB()

	shop := dbtest.SeedShop(t, conn, nil)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		DB:     client,
		Outbox: outbox.NewService(outbox.NewRepository(conn), nil),
		Retry:  dbpkg.RetryOptions{MaxRetries: 5, InitialBackoff: 10 * time.Millisecond},
	})
	require.NoError(t, err)

	shopID := shop.ID
	owner := authz.Actor{UserID: shop.OwnerUserID, Role: enums.RoleShopOwner, ShopID: &shopID}
	account, err := svc.CreateAccount(context.Background(), owner, CreateAccountInput{
		ShopID:           shop.ID,
		CustomerPhone:    "5551230001",
		CustomerNickname: "Mixed",
	})
	require.NoError(t, err)

	post := func(kind enums.CreditTransactionType, amount string) error {
		input := PostingInput{ShopID: shop.ID, AccountID: account.ID, Amount: decimal.RequireFromString(amount)}
		if kind == enums.CreditTxnPayment {
			_, err := svc.AddPayment(context.Background(), owner, input)
			return err
		}
		_, err := svc.AddCredit(context.Background(), owner, input)
		return err
	}
	require.NoError(t, post(enums.CreditTxnCredit, "1000"))

	const perKind = 30
	var wg sync.WaitGroup
	for i := 0; i < perKind; i++ {
		for _, kind := range []enums.CreditTransactionType{enums.CreditTxnCredit, enums.CreditTxnPayment} {
			wg.Add(1)
			go func(kind enums.CreditTransactionType) {
				defer wg.Done()
				amount := "7"
				if kind == enums.CreditTxnPayment {
					amount = "3"
				}
				if err := post(kind, amount); err != nil {
					t.Errorf("%s: %v", kind, err)
				}
			}(kind)
		}
	}
	wg.Wait()

	result, err := svc.Verify(context.Background(), owner, shop.ID, account.ID)
	require.NoError(t, err)
	require.True(t, result.Consistent, "%+v", result.Mismatches)
	require.True(t, decimal.RequireFromString("1120").Equal(result.ReplayedBalance))
}
