package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/deadline-assistant/deadline-assistant/app/models"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/apperror"
	"github.com/deadline-assistant/deadline-assistant/internal/pkg/database/dbtest"
)

func newDBService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewServiceFromDB(db), db
}

func loadSubscription(t *testing.T, db *gorm.DB, userID string) models.BillingSubscription {
	t.Helper()
	var sub models.BillingSubscription
	require.NoError(t, db.Where("user_id = ?", userID).First(&sub).Error)
	return sub
}

func event(id, providerType, payload string) ProviderEvent {
	return ProviderEvent{
		ID:           id,
		ProviderType: providerType,
		Type:         EventTypeFromProvider(providerType),
		Payload:      json.RawMessage(payload),
	}
}

func TestReconcile_CheckoutCompletedThenRedelivery(t *testing.T) {
	ctx := context.Background()
	svc, db := newDBService(t)

	ev := event("evt_1", "checkout.session.completed",
		`{"id":"cs_1","object":"checkout.session","client_reference_id":"user_42","customer":"cus_1","subscription":"sub_1","expires_at":1700000000}`)

	res, err := svc.Reconcile(ctx, ev)
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	sub := loadSubscription(t, db, "user_42")
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Equal(t, models.BillingStatusActive, sub.Status)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, "2023-11-14T22:13:20Z", sub.CurrentPeriodEnd.UTC().Format(time.RFC3339))
	require.NotNil(t, sub.StripeCustomerID)
	assert.Equal(t, "cus_1", *sub.StripeCustomerID)
	require.NotNil(t, sub.StripeSubscriptionID)
	assert.Equal(t, "sub_1", *sub.StripeSubscriptionID)

	// A later cancellation must not be undone by redelivering the checkout.
	require.NoError(t, db.Model(&models.BillingSubscription{}).Where("user_id = ?", "user_42").
		Updates(map[string]any{"plan": models.PlanFree, "status": models.BillingStatusCanceled}).Error)

	res, err = svc.Reconcile(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	sub = loadSubscription(t, db, "user_42")
	assert.Equal(t, models.PlanFree, sub.Plan)
	assert.Equal(t, models.BillingStatusCanceled, sub.Status)

	var ledger int64
	require.NoError(t, db.Model(&models.BillingWebhookEvent{}).Where("provider_event_id = ?", "evt_1").Count(&ledger).Error)
	assert.Equal(t, int64(1), ledger)
}

func TestReconcile_CheckoutWithoutReferenceIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, db := newDBService(t)

	res, err := svc.Reconcile(ctx, event("evt_anon", "checkout.session.completed", `{"id":"cs_2","expires_at":1700000000}`))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	var count int64
	require.NoError(t, db.Model(&models.BillingSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReconcile_SecondCheckoutOverwritesIdentifiers(t *testing.T) {
	ctx := context.Background()
	svc, db := newDBService(t)

	_, err := svc.Reconcile(ctx, event("evt_a", "checkout.session.completed",
		`{"client_reference_id":"user_1","customer":"cus_old","subscription":"sub_old","expires_at":1700000000}`))
	require.NoError(t, err)
	_, err = svc.Reconcile(ctx, event("evt_b", "checkout.session.completed",
		`{"client_reference_id":"user_1","customer":"cus_new","subscription":"sub_new"}`))
	require.NoError(t, err)

	sub := loadSubscription(t, db, "user_1")
	assert.Equal(t, "cus_new", *sub.StripeCustomerID)
	assert.Equal(t, "sub_new", *sub.StripeSubscriptionID)
	assert.Nil(t, sub.CurrentPeriodEnd)

	var count int64
	require.NoError(t, db.Model(&models.BillingSubscription{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReconcile_SubscriptionEvents(t *testing.T) {
	tests := []struct {
		name       string
		eventType  string
		status     string
		wantPlan   string
		wantStatus string
	}{
		{name: "canceled downgrades", eventType: "customer.subscription.updated", status: "canceled", wantPlan: models.PlanFree, wantStatus: models.BillingStatusCanceled},
		{name: "deleted downgrades", eventType: "customer.subscription.deleted", status: "canceled", wantPlan: models.PlanFree, wantStatus: models.BillingStatusCanceled},
		{name: "trialing stays pro", eventType: "customer.subscription.updated", status: "trialing", wantPlan: models.PlanPro, wantStatus: models.BillingStatusTrialing},
		{name: "unknown is inactive pro", eventType: "customer.subscription.updated", status: "incomplete_expired", wantPlan: models.PlanPro, wantStatus: models.BillingStatusInactive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, db := newDBService(t)

			_, err := svc.Reconcile(ctx, event("evt_checkout", "checkout.session.completed", `{"client_reference_id":"user_7"}`))
			require.NoError(t, err)

			payload := `{"id":"sub_7","object":"subscription","customer":"cus_7","status":"` + tt.status +
				`","current_period_end":1700000000,"metadata":{"user_id":"user_7"}}`
			res, err := svc.Reconcile(ctx, event("evt_sub", tt.eventType, payload))
			require.NoError(t, err)
			assert.False(t, res.Duplicate)

			sub := loadSubscription(t, db, "user_7")
			assert.Equal(t, tt.wantPlan, sub.Plan)
			assert.Equal(t, tt.wantStatus, sub.Status)
			assert.Equal(t, "sub_7", *sub.StripeSubscriptionID)
			assert.Equal(t, "cus_7", *sub.StripeCustomerID)
			require.NotNil(t, sub.CurrentPeriodEnd)
			assert.Equal(t, int64(1700000000), sub.CurrentPeriodEnd.Unix())
		})
	}
}

func TestReconcile_SubscriptionWithoutRowOrUser(t *testing.T) {
	ctx := context.Background()
	svc, db := newDBService(t)

	res, err := svc.Reconcile(ctx, event("evt_1", "customer.subscription.updated", `{"id":"sub_1","status":"active","metadata":{"user_id":"ghost"}}`))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	res, err = svc.Reconcile(ctx, event("evt_2", "customer.subscription.updated", `{"id":"sub_1","status":"active"}`))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	var count int64
	require.NoError(t, db.Model(&models.BillingSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReconcile_InvoicePaymentFailedKeepsPlan(t *testing.T) {
	ctx := context.Background()
	svc, db := newDBService(t)

	_, err := svc.Reconcile(ctx, event("evt_checkout", "checkout.session.completed", `{"client_reference_id":"user_9","customer":"cus_9"}`))
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, event("evt_invoice", "invoice.payment_failed", `{"id":"in_1","metadata":{"user_id":"user_9"}}`))
	require.NoError(t, err)

	sub := loadSubscription(t, db, "user_9")
	assert.Equal(t, models.PlanPro, sub.Plan)
	assert.Equal(t, models.BillingStatusPastDue, sub.Status)
	assert.Equal(t, "cus_9", *sub.StripeCustomerID)
}

func TestReconcile_OtherEventIsRecorded(t *testing.T) {
	ctx := context.Background()
	svc, db := newDBService(t)

	res, err := svc.Reconcile(ctx, event("evt_other", "invoice.paid", `{"id":"in_2"}`))
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	res, err = svc.Reconcile(ctx, event("evt_other", "invoice.paid", `{"id":"in_2"}`))
	require.NoError(t, err)
	assert.True(t, res.Duplicate)

	var stored models.BillingWebhookEvent
	require.NoError(t, db.Where("provider = ? AND provider_event_id = ?", models.BillingProviderStripe, "evt_other").First(&stored).Error)
	assert.Equal(t, "invoice.paid", stored.EventType)
}

func TestReconcile_DecodeErrorPropagates(t *testing.T) {
	svc, _ := newDBService(t)
	_, err := svc.Reconcile(context.Background(), event("evt_bad", "customer.subscription.updated", `{"status":12`))
	require.Error(t, err)
}

func TestRecordIfNew_EmptyID(t *testing.T) {
	svc, _ := newDBService(t)
	_, err := svc.RecordIfNew(context.Background(), "  ", "checkout.session.completed")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

// fakeRepository checks which mutations the reconciler issues.
type fakeRepository struct {
	seen      map[string]bool
	ledgerErr error
	upserts   []*models.BillingSubscription
	updates   map[string]SubscriptionUpdate
	pastDue   []string
	sub       *models.BillingSubscription
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{seen: map[string]bool{}, updates: map[string]SubscriptionUpdate{}}
}

func (f *fakeRepository) CreateWebhookEventIfNotExists(_ context.Context, event *models.BillingWebhookEvent) (bool, error) {
	if f.ledgerErr != nil {
		return false, f.ledgerErr
	}
	key := event.Provider + "/" + event.ProviderEventID
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeRepository) UpsertSubscription(_ context.Context, sub *models.BillingSubscription) error {
	f.upserts = append(f.upserts, sub)
	return nil
}

func (f *fakeRepository) ApplySubscriptionState(_ context.Context, userID string, update SubscriptionUpdate) (int64, error) {
	f.updates[userID] = update
	return 1, nil
}

func (f *fakeRepository) MarkSubscriptionPastDue(_ context.Context, userID string) (int64, error) {
	f.pastDue = append(f.pastDue, userID)
	return 1, nil
}

func (f *fakeRepository) FindSubscriptionByUser(_ context.Context, _ string) (*models.BillingSubscription, error) {
	if f.sub == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.sub, nil
}

func TestReconcile_DuplicateSkipsMutation(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)
	ev := event("evt_dup", "invoice.payment_failed", `{"metadata":{"user_id":"user_1"}}`)

	for i := 0; i < 3; i++ {
		_, err := svc.Reconcile(context.Background(), ev)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"user_1"}, repo.pastDue)
}

func TestReconcile_CanceledAlwaysWritesFree(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	_, err := svc.Reconcile(context.Background(), event("evt_c", "customer.subscription.deleted",
		`{"id":"sub_1","status":"canceled","metadata":{"user_id":"user_1"}}`))
	require.NoError(t, err)

	update := repo.updates["user_1"]
	assert.Equal(t, models.BillingStatusCanceled, update.Status)
	assert.Equal(t, models.PlanFree, update.Plan)
	assert.Nil(t, update.CurrentPeriodEnd)
	assert.Nil(t, update.StripeCustomerID)
}

func TestReconcile_LedgerErrorPropagates(t *testing.T) {
	repo := newFakeRepository()
	repo.ledgerErr = errors.New("connection refused")
	svc := NewService(repo)

	_, err := svc.Reconcile(context.Background(), event("evt_x", "checkout.session.completed", `{"client_reference_id":"user_1"}`))
	require.Error(t, err)
	assert.ErrorIs(t, err, repo.ledgerErr)
	assert.Empty(t, repo.upserts)
}

func TestGetStatus(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo)

	status, err := svc.GetStatus(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, Status{Plan: models.PlanFree, Status: models.BillingStatusInactive}, status)

	renewal := time.Unix(1700000000, 0).UTC()
	repo.sub = &models.BillingSubscription{Plan: models.PlanPro, Status: models.BillingStatusPastDue, CurrentPeriodEnd: &renewal}
	status, err = svc.GetStatus(context.Background(), "user_1")
	require.NoError(t, err)
	assert.Equal(t, models.PlanPro, status.Plan)
	assert.Equal(t, models.BillingStatusPastDue, status.Status)
	assert.Equal(t, &renewal, status.RenewalAt)
}
