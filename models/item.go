package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
)

type Item struct {
	ID         int      `gorm:"primary_key" json:"id"`
	BusinessId string   `gorm:"index;not null" json:"business_id" binding:"required"`
	Name       string   `gorm:"size:100;not null" json:"name" binding:"required"`
	Sku        string   `gorm:"size:100;not null;uniqueIndex:idx_item_business_sku" json:"sku" binding:"required"`
	Kind       ItemKind `gorm:"type:enum('Atomic','Composite','Service');default:'Atomic'" json:"kind"`
	// QuantityOnHand is the declared physical count. Only Atomic items carry it.
	QuantityOnHand     *int            `json:"quantity_on_hand"`
	DefaultPricePerDay decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"default_price_per_day"`
	Description        string          `gorm:"type:text" json:"description"`
	IsActive           *bool           `gorm:"not null;default:true" json:"is_active"`
	Components         []ItemComponent `gorm:"foreignkey:ParentItemId" json:"components"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// business_id is part of the sku unique index
func (Item) TableName() string {
	return "items"
}

// ItemComponent is one edge of the component graph: parent bundles
// RequiredQuantity units of child per rented unit.
type ItemComponent struct {
	ID               int       `gorm:"primary_key" json:"id"`
	BusinessId       string    `gorm:"index;not null" json:"business_id"`
	ParentItemId     int       `gorm:"not null;uniqueIndex:idx_component_edge" json:"parent_item_id"`
	ChildItemId      int       `gorm:"not null;uniqueIndex:idx_component_edge" json:"child_item_id"`
	RequiredQuantity int       `gorm:"not null;default:1" json:"required_quantity"`
	Position         int       `gorm:"not null;default:0" json:"position"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewItem struct {
	Name               string          `json:"name" binding:"required"`
	Sku                string          `json:"sku" binding:"required"`
	Kind               ItemKind        `json:"kind" binding:"required"`
	QuantityOnHand     *int            `json:"quantity_on_hand"`
	DefaultPricePerDay decimal.Decimal `json:"default_price_per_day"`
	Description        string          `json:"description"`
}

type AllItem struct {
	ID                 int             `json:"id"`
	Name               string          `json:"name"`
	Sku                string          `json:"sku"`
	Kind               ItemKind        `json:"kind"`
	QuantityOnHand     *int            `json:"quantity_on_hand"`
	DefaultPricePerDay decimal.Decimal `json:"default_price_per_day"`
	IsActive           bool            `json:"is_active"`
}

// IsStockTracked reports whether the item participates in availability
// and the movement ledger. Service items never do.
func (i *Item) IsStockTracked() bool {
	return i.Kind != ItemKindService
}

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// validate input for both create & update. (id = 0 for create)
func (input *NewItem) validate(ctx context.Context, businessId string, id int) error {
	if _, err := ParseItemKind(string(input.Kind)); err != nil {
		return &ValidationError{Message: "invalid item kind"}
	}
	if err := utils.ValidateUnique[Item](ctx, businessId, "sku", input.Sku, id); err != nil {
		return err
	}
	switch input.Kind {
	case ItemKindAtomic:
		if input.QuantityOnHand == nil {
			return &ValidationError{Message: "quantity on hand is required for atomic items"}
		}
		if *input.QuantityOnHand < 0 {
			return &ValidationError{Message: "quantity on hand cannot be negative"}
		}
	default:
		if input.QuantityOnHand != nil {
			return &ValidationError{Message: "quantity on hand is only valid for atomic items"}
		}
	}
	if input.DefaultPricePerDay.IsNegative() {
		return &ValidationError{Message: "price per day cannot be negative"}
	}
	return nil
}

func CreateItem(ctx context.Context, input *NewItem) (*Item, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	item := Item{
		BusinessId:         businessId,
		Name:               input.Name,
		Sku:                input.Sku,
		Kind:               input.Kind,
		QuantityOnHand:     input.QuantityOnHand,
		DefaultPricePerDay: input.DefaultPricePerDay,
		Description:        input.Description,
		IsActive:           utils.NewTrue(),
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&item).Error; err != nil {
		tx.Rollback()
		// unique index on (business_id, sku) backs up the pre-check
		if isDuplicateKeyError(err) {
			return nil, &ValidationError{Message: "duplicate sku"}
		}
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, item.ID, ChangeReferenceTypeItem, ChangeActionCreate, &item); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	return &item, nil
}

func UpdateItem(ctx context.Context, id int, input *NewItem) (*Item, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "item", Id: id}
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	// kind change is destructive once the item is wired into graphs,
	// ledgers or orders
	if item.Kind != input.Kind {
		if err := validateKindChange(ctx, businessId, id, item.Kind); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	tx := db.Begin()

	err = tx.WithContext(ctx).Model(&item).Updates(map[string]interface{}{
		"Name":               input.Name,
		"Sku":                input.Sku,
		"Kind":               input.Kind,
		"QuantityOnHand":     input.QuantityOnHand,
		"DefaultPricePerDay": input.DefaultPricePerDay,
		"Description":        input.Description,
	}).Error
	if err != nil {
		tx.Rollback()
		if isDuplicateKeyError(err) {
			return nil, &ValidationError{Message: "duplicate sku"}
		}
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, item.ID, ChangeReferenceTypeItem, ChangeActionUpdate, item); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*item); err != nil {
		return nil, err
	}
	return item, nil
}

func validateKindChange(ctx context.Context, businessId string, id int, from ItemKind) error {
	count, err := utils.ResourceCountWhere[ItemComponent](ctx, businessId, "parent_item_id = ? OR child_item_id = ?", id, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &StateConflictError{Message: "cannot change kind while item is part of a component graph"}
	}
	count, err = utils.ResourceCountWhere[StockMovement](ctx, businessId, "item_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &StateConflictError{Message: "cannot change kind while stock movements exist"}
	}
	count, err = utils.ResourceCountWhere[OrderLine](ctx, "", "item_id = ?", id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &StateConflictError{Message: "cannot change kind while order lines reference the item"}
	}
	_ = from
	return nil
}

func DeleteItem(ctx context.Context, id int) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	item, err := utils.FetchModel[Item](ctx, businessId, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "item", Id: id}
	}

	count, err := utils.ResourceCountWhere[OrderLine](ctx, "", "item_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &StateConflictError{Message: "cannot delete item referenced by order lines"}
	}
	count, err = utils.ResourceCountWhere[ItemComponent](ctx, businessId, "parent_item_id = ? OR child_item_id = ?", id, id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &StateConflictError{Message: "cannot delete item that is part of a component graph"}
	}
	count, err = utils.ResourceCountWhere[StockMovement](ctx, businessId, "item_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &StateConflictError{Message: "cannot delete item with recorded stock movements"}
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Delete(&item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, item.ID, ChangeReferenceTypeItem, ChangeActionDelete, item); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*item); err != nil {
		return nil, err
	}
	return item, nil
}

func GetItem(ctx context.Context, id int) (*Item, error) {
	return GetResource[Item](ctx, id, "Components")
}

func GetItems(ctx context.Context, name *string) ([]*Item, error) {
	db := config.GetDB()
	var results []*Item

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}

	err := dbCtx.Preload("Components").Order("name").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func ListAllItem(ctx context.Context) ([]*AllItem, error) {
	return ListAllResource[Item, AllItem](ctx, "name")
}

func ToggleActiveItem(ctx context.Context, id int, isActive bool) (*Item, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return ToggleActiveModel[Item](ctx, businessId, id, isActive)
}
