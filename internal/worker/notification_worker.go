package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/re-allocator/internal/service"
)

// StartNotificationWorker attaches the notification handlers to the booking
// event stream. Delivery is synchronous and in-process today; this is the
// seam where a queue-backed worker would plug in.
func StartNotificationWorker(notifications *service.NotificationService, logger *zap.Logger) {
	if notifications == nil {
		return
	}
	notifications.RegisterHandlers()
	if logger != nil {
		logger.Info("notification handlers registered")
	}
}
