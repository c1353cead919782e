package compliance

import "gstdesk/internal/model"

// EntityKind names a record type whose status the engine governs.
type EntityKind string

const (
	KindClient       EntityKind = "client"
	KindRegistration EntityKind = "registration"
	KindReturn       EntityKind = "return"
	KindPayment      EntityKind = "payment"
	KindNotice       EntityKind = "notice"
)

type kindInfo struct {
	table        string
	statusColumn string
	statuses     []string
}

var kinds = map[EntityKind]kindInfo{
	KindClient: {
		table:        "clients",
		statusColumn: "gst_status",
		statuses: []string{
			model.GSTStatusActive, model.GSTStatusInactive,
			model.GSTStatusSuspended, model.GSTStatusCancelled,
		},
	},
	KindRegistration: {
		table:        "gst_registrations",
		statusColumn: "status",
		statuses: []string{
			model.RegistrationStatusDraft, model.RegistrationStatusSubmitted,
			model.RegistrationStatusApproved, model.RegistrationStatusRejected,
		},
	},
	KindReturn: {
		table:        "gst_returns",
		statusColumn: "status",
		statuses: []string{
			model.ReturnStatusDraft, model.ReturnStatusFiled,
			model.ReturnStatusProcessed, model.ReturnStatusOverdue,
		},
	},
	KindPayment: {
		table:        "gst_payments",
		statusColumn: "status",
		statuses: []string{
			model.PaymentStatusDraft, model.PaymentStatusSent,
			model.PaymentStatusPaid, model.PaymentStatusFailed,
		},
	},
	KindNotice: {
		table:        "notices",
		statusColumn: "status",
		statuses: []string{
			model.NoticeStatusReceived, model.NoticeStatusInProgress, model.NoticeStatusReplied,
		},
	},
}

func (k EntityKind) Known() bool {
	_, ok := kinds[k]
	return ok
}

func (k EntityKind) Table() string {
	return kinds[k].table
}

func (k EntityKind) StatusColumn() string {
	return kinds[k].statusColumn
}

// Statuses lists the status values valid for k.
func (k EntityKind) Statuses() []string {
	return append([]string(nil), kinds[k].statuses...)
}

func (k EntityKind) HasStatus(status string) bool {
	for _, s := range kinds[k].statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (k EntityKind) String() string {
	return string(k)
}
