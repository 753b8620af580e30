package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeNewOrder             NotificationType = "new_order"
	NotificationTypeOrderStatus          NotificationType = "order_status"
	NotificationTypeOrderUpdated         NotificationType = "order_updated"
	NotificationTypePaymentMethodChanged NotificationType = "payment_method_changed"
	NotificationTypeCreditAdded          NotificationType = "credit_added"
	NotificationTypePaymentReceived      NotificationType = "payment_received"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeNewOrder,
	NotificationTypeOrderStatus,
	NotificationTypeOrderUpdated,
	NotificationTypePaymentMethodChanged,
	NotificationTypeCreditAdded,
	NotificationTypePaymentReceived,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
