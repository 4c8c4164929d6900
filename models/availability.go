package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

// AvailabilityResult reports what a single item can still rent out in
// a window. For composites BaseQuantity is the derived buildable count
// before the composite's own reservations are subtracted.
type AvailabilityResult struct {
	ItemId           int `json:"item_id"`
	BaseQuantity     int `json:"base_quantity"`
	ReservedQuantity int `json:"reserved_quantity"`
	Available        int `json:"available"`
}

type AvailabilityRequest struct {
	ItemId   int `json:"item_id" binding:"required"`
	Quantity int `json:"quantity" binding:"required"`
}

type LineAvailability struct {
	ItemId      int  `json:"item_id"`
	Requested   int  `json:"requested"`
	Available   int  `json:"available"`
	Satisfiable bool `json:"satisfiable"`
	Shortfall   int  `json:"shortfall"`
}

type MultiAvailabilityResult struct {
	Lines          []LineAvailability `json:"lines"`
	AllAvailable   bool               `json:"all_available"`
	TotalShortfall int                `json:"total_shortfall"`
}

// overlappingDemand sums line quantities of Reserved/CheckedOut orders
// whose stock-holding window intersects [winStart, winEnd]. The holding
// window coalesces the extended form over the simple one, matching
// Order.EffectiveStart/EffectiveEnd.
func overlappingDemand(ctx context.Context, tx *gorm.DB, businessId string, itemId int, winStart, winEnd time.Time, excludeOrderId *int) (int, error) {
	query := `
		SELECT COALESCE(SUM(ol.quantity), 0)
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		WHERE o.business_id = ?
		  AND ol.item_id = ?
		  AND o.current_status IN ('Reserved', 'CheckedOut')
		  AND COALESCE(o.setup_start_date, o.order_start_date, o.start_date) <= ?
		  AND COALESCE(o.cleanup_end_date, o.order_end_date, o.return_due_date) >= ?`
	args := []interface{}{businessId, itemId, winEnd, winStart}
	if excludeOrderId != nil && *excludeOrderId > 0 {
		query += " AND o.id <> ?"
		args = append(args, *excludeOrderId)
	}

	var demand int
	if err := tx.WithContext(ctx).Raw(query, args...).Scan(&demand).Error; err != nil {
		return 0, err
	}
	return demand, nil
}

// availableQuantityTx resolves availability recursively through the
// component graph on the given transaction. The visited map guards
// against a corrupted cyclic graph.
func availableQuantityTx(ctx context.Context, tx *gorm.DB, businessId string, itemId int, winStart, winEnd time.Time, excludeOrderId *int, visited map[int]bool) (*AvailabilityResult, error) {
	if visited[itemId] {
		return nil, fmt.Errorf("component graph cycle at item %d", itemId)
	}
	visited[itemId] = true
	defer delete(visited, itemId)

	var item Item
	if err := tx.WithContext(ctx).
		Where("business_id = ?", businessId).
		First(&item, itemId).Error; err != nil {
		return nil, &NotFoundError{Entity: "item", Id: itemId}
	}

	if item.Kind == ItemKindService {
		return nil, &ValidationError{Message: fmt.Sprintf("item %d is a service and is not stock-tracked", itemId)}
	}

	demand, err := overlappingDemand(ctx, tx, businessId, itemId, winStart, winEnd, excludeOrderId)
	if err != nil {
		return nil, err
	}

	var base int
	switch item.Kind {
	case ItemKindAtomic:
		base = utils.DereferencePtr(item.QuantityOnHand)
	case ItemKindComposite:
		edges, err := txComponentSource(ctx, tx, businessId)(itemId)
		if err != nil {
			return nil, err
		}
		base, err = compositeAvailable(edges, func(childId int) (int, error) {
			child, err := availableQuantityTx(ctx, tx, businessId, childId, winStart, winEnd, excludeOrderId, visited)
			if err != nil {
				return 0, err
			}
			return child.Available, nil
		})
		if err != nil {
			return nil, err
		}
	}

	available := base - demand
	if available < 0 {
		available = 0
	}
	return &AvailabilityResult{
		ItemId:           itemId,
		BaseQuantity:     base,
		ReservedQuantity: demand,
		Available:        available,
	}, nil
}

// CheckItemAvailability answers how many units of an item remain
// rentable across [windowStart, windowEnd]. excludeOrderId drops one
// order's own demand, used when re-checking an order during transition.
func CheckItemAvailability(ctx context.Context, itemId int, windowStart, windowEnd time.Time, excludeOrderId *int) (*AvailabilityResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if windowEnd.Before(windowStart) {
		return nil, &ValidationError{Message: "window end cannot precede window start"}
	}

	db := config.GetDB()
	return availableQuantityTx(ctx, db, businessId, itemId, windowStart, windowEnd, excludeOrderId, map[int]bool{})
}

// CheckMultipleItemsAvailability evaluates a basket of requests against
// a shared window. Each line is judged independently; shared component
// contention across lines is resolved at transition time.
func CheckMultipleItemsAvailability(ctx context.Context, requests []AvailabilityRequest, windowStart, windowEnd time.Time, excludeOrderId *int) (*MultiAvailabilityResult, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if windowEnd.Before(windowStart) {
		return nil, &ValidationError{Message: "window end cannot precede window start"}
	}
	if len(requests) == 0 {
		return nil, &ValidationError{Message: "at least one item is required"}
	}

	db := config.GetDB()
	result := &MultiAvailabilityResult{AllAvailable: true}
	for _, req := range requests {
		if req.Quantity < 1 {
			return nil, &ValidationError{Message: "requested quantity must be at least 1"}
		}
		avail, err := availableQuantityTx(ctx, db, businessId, req.ItemId, windowStart, windowEnd, excludeOrderId, map[int]bool{})
		if err != nil {
			return nil, err
		}
		line := LineAvailability{
			ItemId:      req.ItemId,
			Requested:   req.Quantity,
			Available:   avail.Available,
			Satisfiable: avail.Available >= req.Quantity,
		}
		if !line.Satisfiable {
			line.Shortfall = req.Quantity - avail.Available
			result.AllAvailable = false
			result.TotalShortfall += line.Shortfall
		}
		result.Lines = append(result.Lines, line)
	}
	return result, nil
}

type conflictRow struct {
	OrderId      int
	OrderNumber  string
	Status       string
	CustomerName string
	WindowStart  time.Time
	WindowEnd    time.Time
	Quantity     int
}

// conflictingHolds lists the orders currently holding an item inside
// the contested window, newest demand first.
func conflictingHolds(ctx context.Context, tx *gorm.DB, businessId string, itemId int, winStart, winEnd time.Time, excludeOrderId *int) ([]ConflictingHold, error) {
	query := `
		SELECT o.id AS order_id,
		       o.order_number,
		       o.current_status AS status,
		       COALESCE(c.name, '') AS customer_name,
		       COALESCE(o.setup_start_date, o.order_start_date, o.start_date) AS window_start,
		       COALESCE(o.cleanup_end_date, o.order_end_date, o.return_due_date) AS window_end,
		       ol.quantity
		FROM order_lines ol
		JOIN orders o ON o.id = ol.order_id
		LEFT JOIN customers c ON c.id = o.customer_id
		WHERE o.business_id = ?
		  AND ol.item_id = ?
		  AND o.current_status IN ('Reserved', 'CheckedOut')
		  AND COALESCE(o.setup_start_date, o.order_start_date, o.start_date) <= ?
		  AND COALESCE(o.cleanup_end_date, o.order_end_date, o.return_due_date) >= ?`
	args := []interface{}{businessId, itemId, winEnd, winStart}
	if excludeOrderId != nil && *excludeOrderId > 0 {
		query += " AND o.id <> ?"
		args = append(args, *excludeOrderId)
	}
	query += " ORDER BY ol.quantity DESC"

	var rows []conflictRow
	if err := tx.WithContext(ctx).Raw(query, args...).Scan(&rows).Error; err != nil {
		return nil, err
	}

	holds := make([]ConflictingHold, 0, len(rows))
	for _, row := range rows {
		holds = append(holds, ConflictingHold{
			OrderId:      row.OrderId,
			OrderNumber:  row.OrderNumber,
			Status:       OrderStatus(row.Status),
			CustomerName: row.CustomerName,
			WindowStart:  row.WindowStart.Format("2006-01-02"),
			WindowEnd:    row.WindowEnd.Format("2006-01-02"),
			Quantity:     row.Quantity,
		})
	}
	return holds, nil
}

// DetectAvailabilityConflicts explains why an order's lines cannot be
// satisfied in its window: per shortfall line, which orders hold the
// stock. Service lines are skipped.
func DetectAvailabilityConflicts(ctx context.Context, orderId int) ([]LineShortfall, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	order, err := utils.FetchModel[Order](ctx, businessId, orderId, "Lines")
	if err != nil {
		return nil, &NotFoundError{Entity: "order", Id: orderId}
	}
	if !order.HasWindow() {
		return nil, &ValidationError{Message: "order has no rental window"}
	}

	db := config.GetDB()
	winStart := *order.EffectiveStart()
	winEnd := *order.EffectiveEnd()
	excludeId := order.ID

	var shortfalls []LineShortfall
	for _, line := range order.Lines {
		item, err := utils.FetchModel[Item](ctx, businessId, line.ItemId)
		if err != nil {
			return nil, &NotFoundError{Entity: "item", Id: line.ItemId}
		}
		if !item.IsStockTracked() {
			continue
		}
		avail, err := availableQuantityTx(ctx, db, businessId, line.ItemId, winStart, winEnd, &excludeId, map[int]bool{})
		if err != nil {
			return nil, err
		}
		if avail.Available >= line.Quantity {
			continue
		}
		holds, err := conflictingHolds(ctx, db, businessId, line.ItemId, winStart, winEnd, &excludeId)
		if err != nil {
			return nil, err
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
	return shortfalls, nil
}
