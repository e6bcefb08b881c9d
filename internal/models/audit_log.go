package models

import "time"

// NotificationLog records a notification whose transaction was not confirmed.
type NotificationLog struct {
	ID               string            `json:"id"`
	Status           TransactionStatus `json:"status"`
	NotificationCode string            `json:"notificationCode"`
	ReceivedAt       time.Time         `json:"receivedAt"`
}

// ProcessedNotification marks a confirmed (transaction, status) pair as done.
type ProcessedNotification struct {
	TransactionCode  string            `json:"transaction_code"`
	Status           TransactionStatus `json:"status"`
	NotificationCode string            `json:"notification_code"`
	UserID           string            `json:"user_id"`
	ProcessedAt      time.Time         `json:"processed_at"`
}
