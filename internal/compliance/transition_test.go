package compliance

import (
	"testing"
	"time"

	"gstdesk/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsAnyKnownStatus(t *testing.T) {
	for _, kind := range []EntityKind{KindClient, KindRegistration, KindReturn, KindPayment, KindNotice} {
		statuses := kind.Statuses()
		for _, from := range append([]string{""}, statuses...) {
			for _, to := range statuses {
				tr, err := Validate(kind, from, to)
				require.NoError(t, err, "%s %q -> %q", kind, from, to)
				assert.Equal(t, from, tr.From)
				assert.Equal(t, to, tr.To)
			}
		}
	}
}

func TestValidate_RejectsUnknownStatus(t *testing.T) {
	_, err := Validate(KindReturn, model.ReturnStatusDraft, "Archived")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "status", verr.Field)
	assert.Equal(t, "Archived", verr.Value)
	assert.ElementsMatch(t, KindReturn.Statuses(), verr.Allowed)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidate_RejectsUnknownKind(t *testing.T) {
	_, err := Validate(EntityKind("invoice"), "", "PAID")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTransitionStamps(t *testing.T) {
	now := time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)
	earlier := now.Add(-48 * time.Hour)
	supplied := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		kind     EntityKind
		from, to string
		current  map[string]*time.Time
		supplied map[string]time.Time
		want     map[string]interface{}
	}{
		{
			name: "first submission stamps submitted_at",
			kind: KindRegistration, from: model.RegistrationStatusDraft, to: model.RegistrationStatusSubmitted,
			current: map[string]*time.Time{"submitted_at": nil},
			want:    map[string]interface{}{"submitted_at": now},
		},
		{
			name: "repeated submission keeps submitted_at",
			kind: KindRegistration, from: model.RegistrationStatusSubmitted, to: model.RegistrationStatusSubmitted,
			current: map[string]*time.Time{"submitted_at": &earlier},
			want:    map[string]interface{}{},
		},
		{
			name: "resubmission after rejection keeps submitted_at",
			kind: KindRegistration, from: model.RegistrationStatusRejected, to: model.RegistrationStatusSubmitted,
			current: map[string]*time.Time{"submitted_at": &earlier},
			want:    map[string]interface{}{},
		},
		{
			name: "approval keeps an existing approved_at",
			kind: KindRegistration, from: model.RegistrationStatusApproved, to: model.RegistrationStatusApproved,
			current: map[string]*time.Time{"approved_at": &earlier},
			want:    map[string]interface{}{},
		},
		{
			name: "filing stamps filed_at on entry",
			kind: KindReturn, from: model.ReturnStatusDraft, to: model.ReturnStatusFiled,
			current: map[string]*time.Time{"filed_at": &earlier},
			want:    map[string]interface{}{"filed_at": now},
		},
		{
			name: "filed to filed is not an entry",
			kind: KindReturn, from: model.ReturnStatusFiled, to: model.ReturnStatusFiled,
			current: map[string]*time.Time{"filed_at": &earlier},
			want:    map[string]interface{}{},
		},
		{
			name: "processing stamps processed_at",
			kind: KindReturn, from: model.ReturnStatusFiled, to: model.ReturnStatusProcessed,
			want: map[string]interface{}{"processed_at": now},
		},
		{
			name: "first reply stamps replied_at",
			kind: KindNotice, from: model.NoticeStatusInProgress, to: model.NoticeStatusReplied,
			want: map[string]interface{}{"replied_at": now},
		},
		{
			name: "replied to replied keeps replied_at",
			kind: KindNotice, from: model.NoticeStatusReplied, to: model.NoticeStatusReplied,
			current: map[string]*time.Time{"replied_at": &earlier},
			want:    map[string]interface{}{},
		},
		{
			name: "paid uses now by default",
			kind: KindPayment, from: model.PaymentStatusSent, to: model.PaymentStatusPaid,
			want: map[string]interface{}{"paid_at": now},
		},
		{
			name: "paid uses the supplied date",
			kind: KindPayment, from: model.PaymentStatusDraft, to: model.PaymentStatusPaid,
			supplied: map[string]time.Time{"paid_at": supplied},
			want:     map[string]interface{}{"paid_at": supplied},
		},
		{
			name: "paid again keeps paid_at without a new date",
			kind: KindPayment, from: model.PaymentStatusPaid, to: model.PaymentStatusPaid,
			current: map[string]*time.Time{"paid_at": &earlier},
			want:    map[string]interface{}{},
		},
		{
			name: "paid again with a new date corrects paid_at",
			kind: KindPayment, from: model.PaymentStatusPaid, to: model.PaymentStatusPaid,
			current:  map[string]*time.Time{"paid_at": &earlier},
			supplied: map[string]time.Time{"paid_at": supplied},
			want:     map[string]interface{}{"paid_at": supplied},
		},
		{
			name: "leaving paid clears paid_at",
			kind: KindPayment, from: model.PaymentStatusPaid, to: model.PaymentStatusFailed,
			current: map[string]*time.Time{"paid_at": &earlier},
			want:    map[string]interface{}{"paid_at": nil},
		},
		{
			name: "client status has no stamps",
			kind: KindClient, from: model.GSTStatusInactive, to: model.GSTStatusSuspended,
			want: map[string]interface{}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Validate(tt.kind, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tr.Stamps(tt.current, now, tt.supplied))
		})
	}
}
