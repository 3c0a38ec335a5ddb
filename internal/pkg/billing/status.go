package billing

import "github.com/deadline-assistant/deadline-assistant/app/models"

var knownStatuses = map[string]string{
	"active":   models.BillingStatusActive,
	"trialing": models.BillingStatusTrialing,
	"past_due": models.BillingStatusPastDue,
	"canceled": models.BillingStatusCanceled,
}

// MapStatus converts a provider subscription status to the local vocabulary.
// Unknown and empty values are inactive.
func MapStatus(providerStatus string) string {
	if status, ok := knownStatuses[providerStatus]; ok {
		return status
	}
	return models.BillingStatusInactive
}

// planForStatus keeps canceled subscriptions on the free plan.
func planForStatus(status string) string {
	if status == models.BillingStatusCanceled {
		return models.PlanFree
	}
	return models.PlanPro
}
