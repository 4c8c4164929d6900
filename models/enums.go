package models

import "errors"

type ItemKind string

const (
	ItemKindAtomic    ItemKind = "Atomic"
	ItemKindComposite ItemKind = "Composite"
	ItemKindService   ItemKind = "Service"
)

func ParseItemKind(s string) (ItemKind, error) {
	switch s {
	case "Atomic":
		return ItemKindAtomic, nil
	case "Composite":
		return ItemKindComposite, nil
	case "Service":
		return ItemKindService, nil
	default:
		return "", errors.New("invalid item kind")
	}
}

type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "Draft"
	OrderStatusReserved   OrderStatus = "Reserved"
	OrderStatusCheckedOut OrderStatus = "CheckedOut"
	OrderStatusReturned   OrderStatus = "Returned"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch s {
	case "Draft":
		return OrderStatusDraft, nil
	case "Reserved":
		return OrderStatusReserved, nil
	case "CheckedOut":
		return OrderStatusCheckedOut, nil
	case "Returned":
		return OrderStatusReturned, nil
	case "Cancelled":
		return OrderStatusCancelled, nil
	default:
		return "", errors.New("invalid order status")
	}
}

// IsTerminal reports whether no further transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusReturned || s == OrderStatusCancelled
}

type MovementReason string

const (
	MovementReasonCheckout   MovementReason = "checkout"
	MovementReasonReturn     MovementReason = "return"
	MovementReasonReserve    MovementReason = "reserve"
	MovementReasonRelease    MovementReason = "release"
	MovementReasonAdjustment MovementReason = "adjustment"
	MovementReasonRepair     MovementReason = "repair"
	MovementReasonLoss       MovementReason = "loss"
	MovementReasonFound      MovementReason = "found"
)

func ParseMovementReason(s string) (MovementReason, error) {
	switch MovementReason(s) {
	case MovementReasonCheckout, MovementReasonReturn, MovementReasonReserve,
		MovementReasonRelease, MovementReasonAdjustment, MovementReasonRepair,
		MovementReasonLoss, MovementReasonFound:
		return MovementReason(s), nil
	default:
		return "", errors.New("invalid movement reason")
	}
}

// movementRule captures the sign and coupling constraints of a reason.
// sign: -1 delta must be negative, +1 delta must be positive, 0 either.
type movementRule struct {
	sign          int
	requiresOrder bool
	requiresNotes bool
}

func (r MovementReason) rule() (movementRule, bool) {
	switch r {
	case MovementReasonCheckout:
		return movementRule{sign: -1, requiresOrder: true}, true
	case MovementReasonReserve:
		return movementRule{sign: -1, requiresOrder: true}, true
	case MovementReasonLoss:
		return movementRule{sign: -1}, true
	case MovementReasonReturn:
		return movementRule{sign: +1, requiresOrder: true}, true
	case MovementReasonRelease:
		return movementRule{sign: +1, requiresOrder: true}, true
	case MovementReasonFound:
		return movementRule{sign: +1}, true
	case MovementReasonRepair:
		return movementRule{sign: 0}, true
	case MovementReasonAdjustment:
		return movementRule{sign: 0, requiresNotes: true}, true
	default:
		return movementRule{}, false
	}
}

// IsManual reports whether the reason belongs to the operator adjustment
// path (no order attached, mutates on-hand) rather than the order lifecycle.
func (r MovementReason) IsManual() bool {
	switch r {
	case MovementReasonAdjustment, MovementReasonRepair, MovementReasonLoss, MovementReasonFound:
		return true
	default:
		return false
	}
}

type ChangeReferenceType string

const (
	ChangeReferenceTypeOrder         ChangeReferenceType = "ORD"
	ChangeReferenceTypeItem          ChangeReferenceType = "ITM"
	ChangeReferenceTypeBomComponent  ChangeReferenceType = "BOM"
	ChangeReferenceTypeStockMovement ChangeReferenceType = "STM"
)

type ChangeAction string

const (
	ChangeActionCreate       ChangeAction = "C"
	ChangeActionUpdate       ChangeAction = "U"
	ChangeActionDelete       ChangeAction = "D"
	ChangeActionStatusChange ChangeAction = "S"
)

const (
	OutboxPublishStatusPending    = "PENDING"
	OutboxPublishStatusProcessing = "PROCESSING"
	OutboxPublishStatusPublished  = "PUBLISHED"
	OutboxPublishStatusFailed     = "FAILED"
	OutboxPublishStatusDead       = "DEAD"
)
