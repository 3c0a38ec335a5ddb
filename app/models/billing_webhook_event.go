package models

import "time"

const BillingProviderStripe = "stripe"

// BillingWebhookEvent is the deduplication ledger for provider webhooks. The
// unique (provider, provider_event_id) index is what makes processing
// at-most-once; rows are inserted once and never changed.
type BillingWebhookEvent struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Provider        string    `gorm:"type:varchar(20);not null;index:ux_billing_webhook_events_provider_event,unique,priority:1" json:"provider"`
	ProviderEventID string    `gorm:"type:varchar(191);not null;index:ux_billing_webhook_events_provider_event,unique,priority:2" json:"provider_event_id"`
	EventType       string    `gorm:"type:varchar(100);not null;index" json:"event_type"`
	ProcessedAt     time.Time `gorm:"not null;index" json:"processed_at"`
}
