package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID            int         `gorm:"primary_key" json:"id"`
	BusinessId    string      `gorm:"index;not null" json:"business_id" binding:"required"`
	SequenceNo    int64       `gorm:"not null" json:"sequence_no"`
	OrderNumber   string      `gorm:"size:30;not null;index" json:"order_number"`
	CustomerId    int         `gorm:"index;not null" json:"customer_id"`
	SalesPersonId int         `gorm:"index" json:"sales_person_id"`
	CurrentStatus OrderStatus `gorm:"type:enum('Draft','Reserved','CheckedOut','Returned','Cancelled');default:'Draft';index" json:"current_status"`
	// Simple window
	StartDate     *time.Time `json:"start_date"`
	ReturnDueDate *time.Time `json:"return_due_date"`
	// Extended window: setup and cleanup pad the rental period but
	// still hold stock
	SetupStartDate *time.Time  `json:"setup_start_date"`
	OrderStartDate *time.Time  `json:"order_start_date"`
	OrderEndDate   *time.Time  `json:"order_end_date"`
	CleanupEndDate *time.Time  `json:"cleanup_end_date"`
	Notes          string      `gorm:"type:text" json:"notes"`
	CreatedBy      int         `json:"created_by"`
	Lines          []OrderLine `gorm:"foreignkey:OrderId" json:"lines"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

type OrderLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderId     int             `gorm:"index;not null" json:"order_id"`
	ItemId      int             `gorm:"index;not null" json:"item_id"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	PricePerDay decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_per_day"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_total"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewOrder struct {
	CustomerId     int             `json:"customer_id" binding:"required"`
	SalesPersonId  int             `json:"sales_person_id"`
	StartDate      *time.Time      `json:"start_date"`
	ReturnDueDate  *time.Time      `json:"return_due_date"`
	SetupStartDate *time.Time      `json:"setup_start_date"`
	OrderStartDate *time.Time      `json:"order_start_date"`
	OrderEndDate   *time.Time      `json:"order_end_date"`
	CleanupEndDate *time.Time      `json:"cleanup_end_date"`
	Notes          string          `json:"notes"`
	Lines          []*NewOrderLine `json:"lines" binding:"required"`
}

type NewOrderLine struct {
	DetailId      int              `json:"detail_id"` // existing line id, 0 for new
	ItemId        int              `json:"item_id" binding:"required"`
	Quantity      int              `json:"quantity" binding:"required"`
	PricePerDay   *decimal.Decimal `json:"price_per_day"` // nil falls back to the item default
	IsDeletedItem *bool            `json:"is_deleted_item"`
}

/* stock-holding window */

// EffectiveStart is the first day the order holds stock.
func (o *Order) EffectiveStart() *time.Time {
	if o.SetupStartDate != nil {
		return o.SetupStartDate
	}
	if o.OrderStartDate != nil {
		return o.OrderStartDate
	}
	return o.StartDate
}

// EffectiveEnd is the last day the order holds stock.
func (o *Order) EffectiveEnd() *time.Time {
	if o.CleanupEndDate != nil {
		return o.CleanupEndDate
	}
	if o.OrderEndDate != nil {
		return o.OrderEndDate
	}
	return o.ReturnDueDate
}

// chargeWindow is the billable portion: setup and cleanup days hold
// stock but are not charged.
func (o *Order) chargeWindow() (*time.Time, *time.Time) {
	start := o.OrderStartDate
	if start == nil {
		start = o.StartDate
	}
	end := o.OrderEndDate
	if end == nil {
		end = o.ReturnDueDate
	}
	return start, end
}

// ChargeDays counts billable days inclusively, never less than one.
func (o *Order) ChargeDays() int {
	start, end := o.chargeWindow()
	if start == nil || end == nil {
		return 1
	}
	days := int(end.Sub(*start).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// HasWindow reports whether the order carries any rental window at all.
func (o *Order) HasWindow() bool {
	return o.EffectiveStart() != nil && o.EffectiveEnd() != nil
}

// validateWindow enforces that exactly one window form is present and
// its dates are ordered.
func (input *NewOrder) validateWindow() error {
	simple := input.StartDate != nil || input.ReturnDueDate != nil
	extended := input.SetupStartDate != nil || input.OrderStartDate != nil ||
		input.OrderEndDate != nil || input.CleanupEndDate != nil

	if simple && extended {
		return &ValidationError{Message: "order cannot mix simple and extended rental windows"}
	}
	if !simple && !extended {
		return &ValidationError{Message: "order requires a rental window"}
	}

	if simple {
		if input.StartDate == nil || input.ReturnDueDate == nil {
			return &ValidationError{Message: "both start date and return due date are required"}
		}
		if input.ReturnDueDate.Before(*input.StartDate) {
			return &ValidationError{Message: "return due date cannot precede start date"}
		}
		return nil
	}

	if input.OrderStartDate == nil || input.OrderEndDate == nil {
		return &ValidationError{Message: "both order start date and order end date are required"}
	}
	if !input.OrderStartDate.Before(*input.OrderEndDate) {
		return &ValidationError{Message: "order end date must follow order start date"}
	}
	if input.SetupStartDate != nil && input.SetupStartDate.After(*input.OrderStartDate) {
		return &ValidationError{Message: "setup start date cannot follow order start date"}
	}
	if input.CleanupEndDate != nil && input.CleanupEndDate.Before(*input.OrderEndDate) {
		return &ValidationError{Message: "cleanup end date cannot precede order end date"}
	}
	return nil
}

// validate input for both create & update. (id = 0 for create)
func (input *NewOrder) validate(ctx context.Context, businessId string, id int) error {
	if err := input.validateWindow(); err != nil {
		return err
	}
	if err := utils.ValidateResourceId[Customer](ctx, businessId, input.CustomerId); err != nil {
		return &NotFoundError{Entity: "customer", Id: input.CustomerId}
	}
	if input.SalesPersonId > 0 {
		if err := utils.ValidateResourceId[SalesPerson](ctx, businessId, input.SalesPersonId); err != nil {
			return &NotFoundError{Entity: "sales person", Id: input.SalesPersonId}
		}
	}

	activeLines := 0
	for _, line := range input.Lines {
		if line.IsDeletedItem != nil && *line.IsDeletedItem {
			continue
		}
		activeLines++
		if line.Quantity < 1 {
			return &ValidationError{Message: "line quantity must be at least 1"}
		}
		if line.PricePerDay != nil && line.PricePerDay.IsNegative() {
			return &ValidationError{Message: "line price per day cannot be negative"}
		}
		if err := utils.ValidateResourceId[Item](ctx, businessId, line.ItemId); err != nil {
			return &NotFoundError{Entity: "item", Id: line.ItemId}
		}
	}
	if activeLines == 0 {
		return &ValidationError{Message: "order requires at least one line"}
	}
	return nil
}

// resolveLinePrice falls back to the item's default daily rate.
func resolveLinePrice(ctx context.Context, businessId string, line *NewOrderLine) (decimal.Decimal, error) {
	if line.PricePerDay != nil {
		return *line.PricePerDay, nil
	}
	item, err := utils.FetchModel[Item](ctx, businessId, line.ItemId)
	if err != nil {
		return decimal.Zero, &NotFoundError{Entity: "item", Id: line.ItemId}
	}
	return item.DefaultPricePerDay, nil
}

func buildOrderFromInput(businessId string, input *NewOrder) Order {
	return Order{
		BusinessId:     businessId,
		CustomerId:     input.CustomerId,
		SalesPersonId:  input.SalesPersonId,
		StartDate:      input.StartDate,
		ReturnDueDate:  input.ReturnDueDate,
		SetupStartDate: input.SetupStartDate,
		OrderStartDate: input.OrderStartDate,
		OrderEndDate:   input.OrderEndDate,
		CleanupEndDate: input.CleanupEndDate,
		Notes:          input.Notes,
	}
}

func CreateOrder(ctx context.Context, input *NewOrder) (*Order, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	seqNo, err := utils.GetSequence[Order](ctx, businessId)
	if err != nil {
		return nil, err
	}

	order := buildOrderFromInput(businessId, input)
	order.SequenceNo = seqNo
	order.OrderNumber = fmt.Sprintf("RO-%06d", seqNo)
	order.CurrentStatus = OrderStatusDraft
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		order.CreatedBy = userId
	}

	chargeDays := order.ChargeDays()
	for _, line := range input.Lines {
		if line.IsDeletedItem != nil && *line.IsDeletedItem {
			continue
		}
		price, err := resolveLinePrice(ctx, businessId, line)
		if err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, OrderLine{
			ItemId:      line.ItemId,
			Quantity:    line.Quantity,
			PricePerDay: price,
			LineTotal:   lineTotal(price, line.Quantity, chargeDays),
		})
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, order.ID, ChangeReferenceTypeOrder, ChangeActionCreate, &order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return &order, nil
}

func lineTotal(pricePerDay decimal.Decimal, quantity int, chargeDays int) decimal.Decimal {
	return pricePerDay.
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(decimal.NewFromInt(int64(chargeDays)))
}

// UpdateOrder replaces the order header and upserts its lines.
// Only draft orders may change.
func UpdateOrder(ctx context.Context, id int, input *NewOrder) (*Order, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[Order](ctx, businessId, id, "Lines")
	if err != nil {
		return nil, &NotFoundError{Entity: "order", Id: id}
	}
	if order.CurrentStatus != OrderStatusDraft {
		return nil, &StateConflictError{Message: "only draft orders can be edited"}
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	err = tx.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
		"CustomerId":     input.CustomerId,
		"SalesPersonId":  input.SalesPersonId,
		"StartDate":      input.StartDate,
		"ReturnDueDate":  input.ReturnDueDate,
		"SetupStartDate": input.SetupStartDate,
		"OrderStartDate": input.OrderStartDate,
		"OrderEndDate":   input.OrderEndDate,
		"CleanupEndDate": input.CleanupEndDate,
		"Notes":          input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	refreshed := buildOrderFromInput(businessId, input)
	chargeDays := refreshed.ChargeDays()

	// upsert lines: DetailId > 0 updates or deletes, 0 appends
	for _, line := range input.Lines {
		if line.DetailId > 0 {
			var existing OrderLine
			if err := tx.WithContext(ctx).
				Where("order_id = ? AND id = ?", id, line.DetailId).
				First(&existing).Error; err != nil {
				tx.Rollback()
				return nil, &NotFoundError{Entity: "order line", Id: line.DetailId}
			}
			if line.IsDeletedItem != nil && *line.IsDeletedItem {
				if err := tx.WithContext(ctx).Delete(&existing).Error; err != nil {
					tx.Rollback()
					return nil, err
				}
				continue
			}
			price, err := resolveLinePrice(ctx, businessId, line)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			err = tx.WithContext(ctx).Model(&existing).Updates(map[string]interface{}{
				"ItemId":      line.ItemId,
				"Quantity":    line.Quantity,
				"PricePerDay": price,
				"LineTotal":   lineTotal(price, line.Quantity, chargeDays),
			}).Error
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			continue
		}
		if line.IsDeletedItem != nil && *line.IsDeletedItem {
			continue
		}
		price, err := resolveLinePrice(ctx, businessId, line)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		newLine := OrderLine{
			OrderId:     id,
			ItemId:      line.ItemId,
			Quantity:    line.Quantity,
			PricePerDay: price,
			LineTotal:   lineTotal(price, line.Quantity, chargeDays),
		}
		if err := tx.WithContext(ctx).Create(&newLine).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	// charge days may have moved: recompute surviving lines
	if err := tx.WithContext(ctx).Model(&OrderLine{}).
		Where("order_id = ?", id).
		Update("line_total", gorm.Expr("price_per_day * quantity * ?", chargeDays)).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, order.ID, ChangeReferenceTypeOrder, ChangeActionUpdate, order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*order); err != nil {
		return nil, err
	}

	return utils.FetchModel[Order](ctx, businessId, id, "Lines")
}

// DeleteOrder removes a draft order and its lines.
func DeleteOrder(ctx context.Context, id int) (*Order, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[Order](ctx, businessId, id, "Lines")
	if err != nil {
		return nil, &NotFoundError{Entity: "order", Id: id}
	}
	if order.CurrentStatus != OrderStatusDraft {
		return nil, &StateConflictError{Message: "only draft orders can be deleted"}
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Where("order_id = ?", id).Delete(&OrderLine{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(&order).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, order.ID, ChangeReferenceTypeOrder, ChangeActionDelete, order); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*order); err != nil {
		return nil, err
	}
	return order, nil
}

func GetOrder(ctx context.Context, id int) (*Order, error) {
	return GetResource[Order](ctx, id, "Lines")
}

// GetOrders filters by status, customer, and stock-holding window
// overlap. windowStart/windowEnd select orders whose effective window
// intersects the given range.
func GetOrders(ctx context.Context, status *OrderStatus, customerId *int, windowStart, windowEnd *time.Time) ([]*Order, error) {

	db := config.GetDB()
	var results []*Order

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if status != nil {
		dbCtx = dbCtx.Where("current_status = ?", *status)
	}
	if customerId != nil && *customerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", *customerId)
	}
	if windowStart != nil && windowEnd != nil {
		dbCtx = dbCtx.
			Where("COALESCE(setup_start_date, order_start_date, start_date) <= ?", *windowEnd).
			Where("COALESCE(cleanup_end_date, order_end_date, return_due_date) >= ?", *windowStart)
	}

	err := dbCtx.Preload("Lines").Order("created_at DESC").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
