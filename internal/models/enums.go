package models

import "fmt"

// Role represents the kind of console user.
type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

// IsStaff returns true for staff and admin users.
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleAdmin
}

// OrderStatus represents the lifecycle status of a remittance order.
type OrderStatus string

const (
	OrderStatusCreated        OrderStatus = "created"
	OrderStatusCheck          OrderStatus = "check"
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusOnExecution    OrderStatus = "on_execution"
	OrderStatusReleased       OrderStatus = "released"
	OrderStatusRejected       OrderStatus = "rejected"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusCheck,
	OrderStatusPendingPayment,
	OrderStatusOnExecution,
	OrderStatusReleased,
	OrderStatusRejected,
	OrderStatusCancelled,
}

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	for _, st := range OrderStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown order status: %q", s)
}

// IsTerminal returns true if the order can no longer move forward.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusReleased, OrderStatusRejected:
		return true
	default:
		return false
	}
}

// IsDeletable returns true if the order may be deleted. Only rejected orders qualify.
func (s OrderStatus) IsDeletable() bool {
	return s == OrderStatusRejected
}

// IsClientCancellable returns true if the client may still cancel the order.
func (s OrderStatus) IsClientCancellable() bool {
	switch s {
	case OrderStatusCreated, OrderStatusCheck, OrderStatusPendingPayment:
		return true
	default:
		return false
	}
}

// IsEditable returns true while the client may change order details.
func (s OrderStatus) IsEditable() bool {
	return s == OrderStatusCreated
}

// Lifecycle moves as the console presents them. The platform API enforces
// the authoritative rules; this table drives available actions and
// pre-flight checks.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusCreated:        {OrderStatusCheck, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusCheck:          {OrderStatusPendingPayment, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusPendingPayment: {OrderStatusOnExecution, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusOnExecution:    {OrderStatusReleased},
	OrderStatusCancelled:      {OrderStatusCreated},
	OrderStatusReleased:       {},
	OrderStatusRejected:       {},
}

// CanTransition reports whether a user with the given role may move an order
// from s to next. Clients may only cancel; restoring a cancelled order and
// every forward move belong to staff.
func (s OrderStatus) CanTransition(next OrderStatus, role Role) bool {
	allowed := false
	for _, candidate := range orderTransitions[s] {
		if candidate == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}
	if role.IsStaff() {
		return true
	}
	return role == RoleClient && next == OrderStatusCancelled && s.IsClientCancellable()
}

// NextStatuses lists the statuses reachable from s for the given role.
func (s OrderStatus) NextStatuses(role Role) []OrderStatus {
	next := make([]OrderStatus, 0, len(orderTransitions[s]))
	for _, candidate := range orderTransitions[s] {
		if s.CanTransition(candidate, role) {
			next = append(next, candidate)
		}
	}
	return next
}

// RemunerationType selects how the platform fee is computed.
type RemunerationType string

const (
	RemunerationNone    RemunerationType = ""
	RemunerationPercent RemunerationType = "percent"
	RemunerationFixed   RemunerationType = "fixed"
)

// Valid returns true for known remuneration types, including none.
func (t RemunerationType) Valid() bool {
	switch t {
	case RemunerationNone, RemunerationPercent, RemunerationFixed:
		return true
	default:
		return false
	}
}

// DocumentKind classifies an order's supporting document.
type DocumentKind string

const (
	DocumentKindInvoice  DocumentKind = "invoice"
	DocumentKindContract DocumentKind = "contract"
	DocumentKindSWIFT    DocumentKind = "swift"
	DocumentKindOther    DocumentKind = "other"
)

// Valid returns true for known document kinds.
func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentKindInvoice, DocumentKindContract, DocumentKindSWIFT, DocumentKindOther:
		return true
	default:
		return false
	}
}

// KYCStatus represents the onboarding status of a client.
type KYCStatus string

const (
	KYCStatusDraft     KYCStatus = "draft"
	KYCStatusSubmitted KYCStatus = "submitted"
	KYCStatusInReview  KYCStatus = "in_review"
	KYCStatusApproved  KYCStatus = "approved"
	KYCStatusRejected  KYCStatus = "rejected"
)

// IsEditable returns true while the client may still change the application.
func (s KYCStatus) IsEditable() bool {
	return s == KYCStatusDraft || s == KYCStatusRejected
}

// IsPendingDecision returns true if staff can approve or reject.
func (s KYCStatus) IsPendingDecision() bool {
	return s == KYCStatusSubmitted || s == KYCStatusInReview
}

// ParseKYCStatus validates a KYC status string.
func ParseKYCStatus(s string) (KYCStatus, error) {
	switch KYCStatus(s) {
	case KYCStatusDraft, KYCStatusSubmitted, KYCStatusInReview, KYCStatusApproved, KYCStatusRejected:
		return KYCStatus(s), nil
	default:
		return "", fmt.Errorf("unknown kyc status: %q", s)
	}
}

// BadgeStatus is the per-client state of a tracked document requirement.
type BadgeStatus string

const (
	BadgeStatusMissing   BadgeStatus = "missing"
	BadgeStatusRequested BadgeStatus = "requested"
	BadgeStatusUploaded  BadgeStatus = "uploaded"
	BadgeStatusApproved  BadgeStatus = "approved"
	BadgeStatusRejected  BadgeStatus = "rejected"
)

// ParseBadgeStatus validates a badge status string.
func ParseBadgeStatus(s string) (BadgeStatus, error) {
	switch BadgeStatus(s) {
	case BadgeStatusMissing, BadgeStatusRequested, BadgeStatusUploaded, BadgeStatusApproved, BadgeStatusRejected:
		return BadgeStatus(s), nil
	default:
		return "", fmt.Errorf("unknown badge status: %q", s)
	}
}
