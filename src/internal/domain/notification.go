package domain

import "time"

const (
	NotificationTransactionApproved = "transaction.approved"
	NotificationTransactionRejected = "transaction.rejected"
	NotificationTransferCreated     = "transfer.created"
	NotificationOTPCode             = "otp.code"
	NotificationSchedulePaused      = "schedule.paused"
)

// Notification is handed to the notifier; delivery is best effort.
type Notification struct {
	OwnerID  string         `json:"ownerId"`
	Address  string         `json:"address"`
	Template string         `json:"template"`
	Data     map[string]any `json:"data"`
	SentAt   time.Time      `json:"sentAt"`
}
