package orders

import (
	"github.com/shopspring/decimal"

	ordersdto "github.com/angelmondragon/shoptab-backend/api/controllers/orders/dto"
	orderssvc "github.com/angelmondragon/shoptab-backend/internal/orders"
	"github.com/angelmondragon/shoptab-backend/pkg/db/models"
)

func nullable(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	d := value.Decimal
	return &d
}

func newOrder(record *models.Order) ordersdto.Order {
	out := ordersdto.Order{
		ID:                    record.ID,
		OrderNumber:           record.OrderNumber,
		UserID:                record.UserID,
		ShopID:                record.ShopID,
		CartID:                record.CartID,
		Status:                record.Status,
		OrderType:             record.OrderType,
		PaymentMethod:         record.PaymentMethod,
		PaymentStatus:         record.PaymentStatus,
		Subtotal:              record.Subtotal,
		DiscountAmount:        record.DiscountAmount,
		OrderDiscount:         record.OrderDiscount,
		ExtraCharges:          record.ExtraCharges,
		DeliveryFee:           record.DeliveryFee,
		Tax:                   record.Tax,
		Total:                 record.Total,
		TotalItems:            record.TotalItems,
		TotalQuantity:         record.TotalQuantity,
		CustomerPhone:         record.CustomerPhone,
		CustomerNotes:         record.CustomerNotes,
		ShopNotes:             record.ShopNotes,
		CancellationReason:    record.CancellationReason,
		EstimatedDeliveryDate: record.EstimatedDeliveryDate,
		EstimatedDeliveryTime: record.EstimatedDeliveryTime,
		HasShopModifications:  record.HasShopModifications,
		ConfirmedAt:           record.ConfirmedAt,
		ProcessingStartedAt:   record.ProcessingStartedAt,
		PackedAt:              record.PackedAt,
		DeliveredAt:           record.DeliveredAt,
		CancelledAt:           record.CancelledAt,
		RefundedAt:            record.RefundedAt,
		Items:                 make([]ordersdto.OrderItem, 0, len(record.Items)),
		CreatedAt:             record.CreatedAt,
		UpdatedAt:             record.UpdatedAt,
	}
	if record.PickupDate != nil || record.PickupTime != nil || record.PickupNotes != nil {
		out.Pickup = &ordersdto.Pickup{
			Date:  record.PickupDate,
			Time:  record.PickupTime,
			Notes: record.PickupNotes,
		}
	}
	if record.DeliveryAddress != nil {
		out.Delivery = &ordersdto.Delivery{
			Address:       record.DeliveryAddress,
			Landmark:      record.DeliveryLandmark,
			Pincode:       record.DeliveryPincode,
			City:          record.DeliveryCity,
			State:         record.DeliveryState,
			ContactNumber: record.DeliveryContactNumber,
			Notes:         record.DeliveryNotes,
		}
	}
	for _, item := range record.Items {
		out.Items = append(out.Items, ordersdto.OrderItem{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			ProductName:        item.ProductName,
			ProductImage:       item.ProductImage,
			ProductSKU:         item.ProductSKU,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			UnitDiscountPrice:  nullable(item.UnitDiscountPrice),
			ItemDiscountAmount: item.ItemDiscountAmount,
			Subtotal:           item.Subtotal,
			Status:             item.Status,
			UnavailableReason:  item.UnavailableReason,
			IsAddedByShop:      item.IsAddedByShop,
			IsModifiedByShop:   item.IsModifiedByShop,
			OriginalQuantity:   nullable(item.OriginalQuantity),
			OriginalUnitPrice:  nullable(item.OriginalUnitPrice),
			CustomerNotes:      item.CustomerNotes,
			ShopNotes:          item.ShopNotes,
		})
	}
	return out
}

func newOrderList(result *orderssvc.ListResult) ordersdto.OrderList {
	out := ordersdto.OrderList{
		Orders: make([]ordersdto.Order, 0, len(result.Items)),
		Cursor: result.Cursor,
	}
	for i := range result.Items {
		out.Orders = append(out.Orders, newOrder(&result.Items[i]))
	}
	return out
}

func newOrderDetail(detail *orderssvc.OrderDetail) ordersdto.OrderDetail {
	out := ordersdto.OrderDetail{
		Order:             newOrder(&detail.Order),
		StatusHistory:     make([]ordersdto.StatusEvent, 0, len(detail.StatusHistory)),
		Modifications:     make([]ordersdto.Modification, 0, len(detail.Modifications)),
		ItemModifications: make([]ordersdto.ItemModification, 0, len(detail.ItemModifications)),
	}
	for _, event := range detail.StatusHistory {
		out.StatusHistory = append(out.StatusHistory, ordersdto.StatusEvent{
			Seq:         event.Seq,
			FromStatus:  event.FromStatus,
			ToStatus:    event.ToStatus,
			ActorUserID: event.ActorUserID,
			ActorRole:   event.ActorRole,
			Notes:       event.Notes,
			CreatedAt:   event.CreatedAt,
		})
	}
	for _, mod := range detail.Modifications {
		out.Modifications = append(out.Modifications, ordersdto.Modification{
			Seq:              mod.Seq,
			ModificationType: mod.ModificationType,
			Field:            mod.Field,
			OldValue:         mod.OldValue,
			NewValue:         mod.NewValue,
			Reason:           mod.Reason,
			Notes:            mod.Notes,
			ActorUserID:      mod.ActorUserID,
			CreatedAt:        mod.CreatedAt,
		})
	}
	for _, mod := range detail.ItemModifications {
		out.ItemModifications = append(out.ItemModifications, ordersdto.ItemModification{
			Seq:              mod.Seq,
			OrderItemID:      mod.OrderItemID,
			ModificationType: mod.ModificationType,
			OldValue:         mod.OldValue,
			NewValue:         mod.NewValue,
			Reason:           mod.Reason,
			ActorUserID:      mod.ActorUserID,
			CreatedAt:        mod.CreatedAt,
		})
	}
	return out
}
