package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shoptab-backend/internal/authz"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
	"github.com/angelmondragon/shoptab-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shoptab-backend/pkg/errors"
	"github.com/angelmondragon/shoptab-backend/pkg/pagination"
)

// List pages through orders visible to the actor: customers see their own,
// shop owners their shop's, admins everything.
func (s *service) List(ctx context.Context, actor authz.Actor, filters ListFilters) (*ListResult, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	query := listOrdersParams{
		ShopID:        filters.ShopID,
		UserID:        filters.UserID,
		Status:        filters.Status,
		PaymentMethod: filters.PaymentMethod,
		PaymentStatus: filters.PaymentStatus,
		OrderType:     filters.OrderType,
		From:          filters.From,
		To:            filters.To,
		Limit:         filters.Limit,
	}
	switch actor.Role {
	case enums.RoleCustomer:
		if filters.UserID != nil && *filters.UserID != actor.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers can only list their own orders")
		}
		userID := actor.UserID
		query.UserID = &userID
	case enums.RoleShopOwner:
		if filters.ShopID != nil && *filters.ShopID != *actor.ShopID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "shop access denied")
		}
		shopID := *actor.ShopID
		query.ShopID = &shopID
	}

	if filters.Cursor != "" {
		cursor, err := pagination.ParseCursor(filters.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	if rows == nil {
		rows = []models.Order{}
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*OrderDetail, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	order, err := s.reload(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsOwner(order.UserID) {
		if err := authz.CanActForShop(actor, order.ShopID); err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order access denied")
		}
	}

	history, err := s.repo.StatusHistory(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load status history")
	}
	mods, err := s.repo.Modifications(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load modifications")
	}
	itemMods, err := s.repo.ItemModifications(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load item modifications")
	}
	return &OrderDetail{
		Order:             *order,
		StatusHistory:     history,
		Modifications:     mods,
		ItemModifications: itemMods,
	}, nil
}

func (s *service) Summary(ctx context.Context, actor authz.Actor, shopID uuid.UUID) (*Summary, error) {
	if err := authz.CanActForShop(actor, shopID); err != nil {
		return nil, err
	}

	counts, err := s.repo.CountByStatus(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	totals, err := s.repo.DeliveredTotals(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivered revenue")
	}

	summary := &Summary{
		ShopID:           shopID,
		ByStatus:         counts,
		DeliveredRevenue: decimal.Zero,
	}
	for _, count := range counts {
		summary.TotalOrders += count
	}
	for _, total := range totals {
		summary.DeliveredRevenue = summary.DeliveredRevenue.Add(total)
	}
	return summary, nil
}
