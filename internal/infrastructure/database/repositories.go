package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/curriculab/payments-service/internal/adapter/repository"
	domainRepo "github.com/curriculab/payments-service/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	Order        domainRepo.OrderRepository
	Webhook      domainRepo.WebhookRepository
	Notification domainRepo.NotificationRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		Order:        repository.NewOrderRepository(db, logger),
		Webhook:      repository.NewWebhookRepository(db, logger),
		Notification: repository.NewNotificationRepository(db, logger),
	}
}
