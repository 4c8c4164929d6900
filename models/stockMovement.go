package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// StockMovement is one append-only ledger entry. Rows are never
// updated or deleted; corrections are new entries.
type StockMovement struct {
	ID         int            `gorm:"primary_key" json:"id"`
	BusinessId string         `gorm:"index;not null" json:"business_id"`
	ItemId     int            `gorm:"index;not null" json:"item_id"`
	OrderId    *int           `gorm:"index" json:"order_id"`
	Delta      int            `gorm:"not null" json:"delta"`
	Reason     MovementReason `gorm:"type:enum('checkout','return','reserve','release','adjustment','repair','loss','found');not null" json:"reason"`
	Notes      string         `gorm:"type:text" json:"notes"`
	CreatedBy  int            `json:"created_by"`
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// validateMovement enforces the reason rules: sign, order coupling,
// and mandatory notes.
func validateMovement(m *StockMovement) error {
	if m.Delta == 0 {
		return &InvalidMovementError{Message: "movement delta cannot be zero"}
	}
	rule, ok := m.Reason.rule()
	if !ok {
		return &InvalidMovementError{Message: "invalid movement reason"}
	}
	if rule.sign < 0 && m.Delta > 0 {
		return &InvalidMovementError{Message: string(m.Reason) + " movements must be negative"}
	}
	if rule.sign > 0 && m.Delta < 0 {
		return &InvalidMovementError{Message: string(m.Reason) + " movements must be positive"}
	}
	if rule.requiresOrder && (m.OrderId == nil || *m.OrderId <= 0) {
		return &InvalidMovementError{Message: string(m.Reason) + " movements require an order"}
	}
	if !rule.requiresOrder && m.OrderId != nil {
		return &InvalidMovementError{Message: string(m.Reason) + " movements cannot reference an order"}
	}
	if rule.requiresNotes && m.Notes == "" {
		return &InvalidMovementError{Message: string(m.Reason) + " movements require notes"}
	}
	return nil
}

// recordMovement appends a validated entry inside the caller's
// transaction.
func recordMovement(ctx context.Context, tx *gorm.DB, m *StockMovement) error {
	if err := validateMovement(m); err != nil {
		return err
	}
	return tx.WithContext(ctx).Create(m).Error
}

// StockSnapshot contrasts the declared physical count with the ledger.
// The difference is diagnostic: the ledger tracks order lifecycle flow
// which does not mutate the declared count.
type StockSnapshot struct {
	ItemId         int `json:"item_id"`
	DeclaredOnHand int `json:"declared_on_hand"`
	LedgerSum      int `json:"ledger_sum"`
	Difference     int `json:"difference"`
}

// CurrentStock reports the declared on-hand count next to the ledger
// sum for an atomic item.
func CurrentStock(ctx context.Context, itemId int) (*StockSnapshot, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	item, err := utils.FetchModel[Item](ctx, businessId, itemId)
	if err != nil {
		return nil, &NotFoundError{Entity: "item", Id: itemId}
	}
	if item.Kind != ItemKindAtomic {
		return nil, &ValidationError{Message: "stock snapshots only apply to atomic items"}
	}

	db := config.GetDB()
	var ledgerSum int
	err = db.WithContext(ctx).Model(&StockMovement{}).
		Where("business_id = ? AND item_id = ?", businessId, itemId).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&ledgerSum).Error
	if err != nil {
		return nil, err
	}

	declared := utils.DereferencePtr(item.QuantityOnHand)
	return &StockSnapshot{
		ItemId:         itemId,
		DeclaredOnHand: declared,
		LedgerSum:      ledgerSum,
		Difference:     declared - ledgerSum,
	}, nil
}

type NewStockAdjustment struct {
	ItemId int            `json:"item_id" binding:"required"`
	Delta  int            `json:"delta" binding:"required"`
	Reason MovementReason `json:"reason" binding:"required"`
	Notes  string         `json:"notes"`
}

// RecordManualAdjustment applies an operator correction: it mutates
// the declared on-hand count AND appends the ledger entry in one
// transaction. Order-lifecycle reasons are rejected here.
func RecordManualAdjustment(ctx context.Context, input *NewStockAdjustment) (*StockMovement, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if !input.Reason.IsManual() {
		return nil, &InvalidMovementError{Message: "reason is reserved for order lifecycle transitions"}
	}

	item, err := utils.FetchModel[Item](ctx, businessId, input.ItemId)
	if err != nil {
		return nil, &NotFoundError{Entity: "item", Id: input.ItemId}
	}
	if item.Kind != ItemKindAtomic {
		return nil, &ValidationError{Message: "manual adjustments only apply to atomic items"}
	}

	newOnHand := utils.DereferencePtr(item.QuantityOnHand) + input.Delta
	if newOnHand < 0 {
		return nil, &ValidationError{Message: "adjustment would make quantity on hand negative"}
	}

	movement := StockMovement{
		BusinessId: businessId,
		ItemId:     input.ItemId,
		Delta:      input.Delta,
		Reason:     input.Reason,
		Notes:      input.Notes,
	}
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		movement.CreatedBy = userId
	}

	db := config.GetDB()
	err = withReservationLock(ctx, db, businessId, func(tx *gorm.DB) error {
		if err := recordMovement(ctx, tx, &movement); err != nil {
			return err
		}
		if err := tx.WithContext(ctx).Model(&item).
			UpdateColumn("QuantityOnHand", newOnHand).Error; err != nil {
			return err
		}
		return RecordChange(ctx, tx, businessId, movement.ItemId, ChangeReferenceTypeStockMovement, ChangeActionCreate, &movement)
	})
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*item); err != nil {
		return nil, err
	}
	return &movement, nil
}

// GetStockMovements lists ledger entries for an item, newest first.
func GetStockMovements(ctx context.Context, itemId int, orderId *int) ([]*StockMovement, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Item](ctx, businessId, itemId); err != nil {
		return nil, &NotFoundError{Entity: "item", Id: itemId}
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Where("business_id = ? AND item_id = ?", businessId, itemId)
	if orderId != nil && *orderId > 0 {
		dbCtx = dbCtx.Where("order_id = ?", *orderId)
	}

	var movements []*StockMovement
	if err := dbCtx.Order("created_at DESC, id DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
