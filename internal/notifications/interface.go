package notifications

import "github.com/palma21/hotel-rating-fetcher/internal/models"

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendAlert(alert *models.Alert) error
}
