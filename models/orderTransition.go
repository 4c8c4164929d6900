package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// allowedTransitions is the closed order lifecycle graph. Returned and
// Cancelled are terminal.
var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusDraft:      {OrderStatusReserved, OrderStatusCancelled},
	OrderStatusReserved:   {OrderStatusCheckedOut, OrderStatusCancelled},
	OrderStatusCheckedOut: {OrderStatusReturned},
	OrderStatusReturned:   {},
	OrderStatusCancelled:  {},
}

func transitionAllowed(from, to OrderStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// movementReasonFor maps a legal transition to its ledger reason.
// Draft -> Cancelled holds no stock and emits nothing.
func movementReasonFor(from, to OrderStatus) (MovementReason, bool) {
	switch {
	case from == OrderStatusDraft && to == OrderStatusReserved:
		return MovementReasonReserve, true
	case from == OrderStatusReserved && to == OrderStatusCheckedOut:
		return MovementReasonCheckout, true
	case from == OrderStatusCheckedOut && to == OrderStatusReturned:
		return MovementReasonReturn, true
	case from == OrderStatusReserved && to == OrderStatusCancelled:
		return MovementReasonRelease, true
	default:
		return "", false
	}
}

// availabilityCheckedStatuses require an in-transaction re-check
// before the order may hold stock in its window.
func requiresAvailabilityCheck(to OrderStatus) bool {
	return to == OrderStatusReserved || to == OrderStatusCheckedOut
}

type TransitionResult struct {
	Order          *Order           `json:"order"`
	Movements      []*StockMovement `json:"movements"`
	PreviousStatus OrderStatus      `json:"previous_status"`
	NewStatus      OrderStatus      `json:"new_status"`
}

// TransitionOrder moves an order along the lifecycle, emitting ledger
// movements for every stock-tracked line in the same transaction. The
// per-business reservation lock serializes the availability re-check
// against concurrent transitions.
func TransitionOrder(ctx context.Context, orderId int, newStatus OrderStatus, notes string) (*TransitionResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if _, err := ParseOrderStatus(string(newStatus)); err != nil {
		return nil, &ValidationError{Message: "invalid order status"}
	}

	db := config.GetDB()

	var order Order
	var movements []*StockMovement
	var previous OrderStatus

	err := withReservationLock(ctx, db, businessId, func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Where("business_id = ?", businessId).
			Preload("Lines").
			First(&order, orderId).Error; err != nil {
			return &NotFoundError{Entity: "order", Id: orderId}
		}

		previous = order.CurrentStatus
		if !transitionAllowed(previous, newStatus) {
			return &InvalidTransitionError{From: previous, To: newStatus}
		}

		if requiresAvailabilityCheck(newStatus) {
			if !order.HasWindow() {
				return &ValidationError{Message: "order requires a rental window before reserving stock"}
			}
			if err := checkOrderAvailabilityTx(ctx, tx, businessId, &order); err != nil {
				return err
			}
		}

		reason, emits := movementReasonFor(previous, newStatus)
		if emits {
			userId, _ := utils.GetUserIdFromContext(ctx)
			rule, _ := reason.rule()
			for i := range order.Lines {
				line := &order.Lines[i]
				tracked, err := isStockTrackedTx(ctx, tx, businessId, line.ItemId)
				if err != nil {
					return err
				}
				if !tracked {
					continue
				}
				orderRef := order.ID
				movement := &StockMovement{
					BusinessId: businessId,
					ItemId:     line.ItemId,
					OrderId:    &orderRef,
					Delta:      rule.sign * line.Quantity,
					Reason:     reason,
					Notes:      notes,
					CreatedBy:  userId,
				}
				if err := recordMovement(ctx, tx, movement); err != nil {
					return err
				}
				movements = append(movements, movement)
			}
		}

		if err := tx.WithContext(ctx).Model(&order).
			UpdateColumn("CurrentStatus", newStatus).Error; err != nil {
			return err
		}
		order.CurrentStatus = newStatus

		return RecordChange(ctx, tx, businessId, order.ID, ChangeReferenceTypeOrder, ChangeActionStatusChange, &order)
	})
	if err != nil {
		return nil, err
	}

	// invalidate only after the status is committed, so a concurrent
	// read cannot re-cache the old row in between
	if err := RemoveRedisBoth(order); err != nil {
		return nil, err
	}

	return &TransitionResult{
		Order:          &order,
		Movements:      movements,
		PreviousStatus: previous,
		NewStatus:      newStatus,
	}, nil
}

func isStockTrackedTx(ctx context.Context, tx *gorm.DB, businessId string, itemId int) (bool, error) {
	var item Item
	if err := tx.WithContext(ctx).
		Where("business_id = ?", businessId).
		First(&item, itemId).Error; err != nil {
		return false, &NotFoundError{Entity: "item", Id: itemId}
	}
	return item.IsStockTracked(), nil
}

// checkOrderAvailabilityTx re-checks every stock-tracked line inside
// the transaction, excluding the order's own demand. A shortfall on
// any line aborts with the full conflict picture.
func checkOrderAvailabilityTx(ctx context.Context, tx *gorm.DB, businessId string, order *Order) error {
	winStart := *order.EffectiveStart()
	winEnd := *order.EffectiveEnd()
	excludeId := order.ID

	var shortfalls []LineShortfall
	for _, line := range order.Lines {
		var item Item
		if err := tx.WithContext(ctx).
			Where("business_id = ?", businessId).
			First(&item, line.ItemId).Error; err != nil {
			return &NotFoundError{Entity: "item", Id: line.ItemId}
		}
		if !item.IsStockTracked() {
			continue
		}
		avail, err := availableQuantityTx(ctx, tx, businessId, line.ItemId, winStart, winEnd, &excludeId, map[int]bool{})
		if err != nil {
			return err
		}
		if avail.Available >= line.Quantity {
			continue
		}
		holds, err := conflictingHolds(ctx, tx, businessId, line.ItemId, winStart, winEnd, &excludeId)
		if err != nil {
			return err
		}
		shortfalls = append(shortfalls, LineShortfall{
			ItemId:    line.ItemId,
			ItemName:  item.Name,
			Requested: line.Quantity,
			Available: avail.Available,
			Shortfall: line.Quantity - avail.Available,
			Conflicts: holds,
		})
	}
	if len(shortfalls) > 0 {
		return &AvailabilityConflictError{Lines: shortfalls}
	}
	return nil
}

/* convenience wrappers */

func ReserveOrder(ctx context.Context, orderId int, notes string) (*TransitionResult, error) {
	return TransitionOrder(ctx, orderId, OrderStatusReserved, notes)
}

func CheckoutOrder(ctx context.Context, orderId int, notes string) (*TransitionResult, error) {
	return TransitionOrder(ctx, orderId, OrderStatusCheckedOut, notes)
}

func ReturnOrder(ctx context.Context, orderId int, notes string) (*TransitionResult, error) {
	return TransitionOrder(ctx, orderId, OrderStatusReturned, notes)
}

func CancelOrder(ctx context.Context, orderId int, notes string) (*TransitionResult, error) {
	return TransitionOrder(ctx, orderId, OrderStatusCancelled, notes)
}

// BulkTransitionOutcome reports one order's result in a bulk call.
// Failures do not roll back the successes.
type BulkTransitionOutcome struct {
	OrderId int               `json:"order_id"`
	Result  *TransitionResult `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

func BulkTransitionOrders(ctx context.Context, orderIds []int, newStatus OrderStatus, notes string) ([]BulkTransitionOutcome, error) {
	if len(orderIds) == 0 {
		return nil, &ValidationError{Message: "at least one order id is required"}
	}

	outcomes := make([]BulkTransitionOutcome, 0, len(orderIds))
	for _, id := range utils.UniqueSlice(orderIds) {
		result, err := TransitionOrder(ctx, id, newStatus, notes)
		outcome := BulkTransitionOutcome{OrderId: id}
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Result = result
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
