package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"gorm.io/gorm"
)

type NewItemComponent struct {
	ParentItemId     int `json:"parent_item_id" binding:"required"`
	ChildItemId      int `json:"child_item_id" binding:"required"`
	RequiredQuantity int `json:"required_quantity" binding:"required"`
	Position         int `json:"position"`
}

func (input *NewItemComponent) validate(ctx context.Context, businessId string) error {
	if input.ParentItemId == input.ChildItemId {
		return &ValidationError{Message: "an item cannot be a component of itself"}
	}
	if input.RequiredQuantity < 1 {
		return &ValidationError{Message: "required quantity must be at least 1"}
	}

	parent, err := utils.FetchModel[Item](ctx, businessId, input.ParentItemId)
	if err != nil {
		return &NotFoundError{Entity: "item", Id: input.ParentItemId}
	}
	if parent.Kind != ItemKindComposite {
		return &ValidationError{Message: "parent item must be composite"}
	}

	child, err := utils.FetchModel[Item](ctx, businessId, input.ChildItemId)
	if err != nil {
		return &NotFoundError{Entity: "item", Id: input.ChildItemId}
	}
	if child.Kind != ItemKindAtomic {
		return &ValidationError{Message: "component child must be an atomic item"}
	}
	return nil
}

// txComponentSource reads edges through the open transaction so the
// cycle check sees uncommitted writes.
func txComponentSource(ctx context.Context, tx *gorm.DB, businessId string) componentSource {
	return func(itemId int) ([]ItemComponent, error) {
		var edges []ItemComponent
		err := tx.WithContext(ctx).
			Where("business_id = ? AND parent_item_id = ?", businessId, itemId).
			Order("position").
			Find(&edges).Error
		if err != nil {
			return nil, err
		}
		return edges, nil
	}
}

// AddComponent inserts or replaces the edge parent -> child. The cycle
// check runs inside the transaction under the per-business reservation
// lock so two concurrent edge inserts cannot sneak a cycle past it.
func AddComponent(ctx context.Context, input *NewItemComponent) (*ItemComponent, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId); err != nil {
		return nil, err
	}

	db := config.GetDB()

	var edge ItemComponent
	err := withReservationLock(ctx, db, businessId, func(tx *gorm.DB) error {
		cycle, err := detectCycle(txComponentSource(ctx, tx, businessId), input.ParentItemId, input.ChildItemId)
		if err != nil {
			return err
		}
		if cycle != nil {
			return cycle
		}

		err = tx.WithContext(ctx).
			Where("business_id = ? AND parent_item_id = ? AND child_item_id = ?",
				businessId, input.ParentItemId, input.ChildItemId).
			First(&edge).Error
		switch {
		case err == nil:
			// existing edge: replace quantity and position
			err = tx.WithContext(ctx).Model(&edge).Updates(map[string]interface{}{
				"RequiredQuantity": input.RequiredQuantity,
				"Position":         input.Position,
			}).Error
			if err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			edge = ItemComponent{
				BusinessId:       businessId,
				ParentItemId:     input.ParentItemId,
				ChildItemId:      input.ChildItemId,
				RequiredQuantity: input.RequiredQuantity,
				Position:         input.Position,
			}
			if err := tx.WithContext(ctx).Create(&edge).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return RecordChange(ctx, tx, businessId, edge.ID, ChangeReferenceTypeBomComponent, ChangeActionUpdate, &edge)
	})
	if err != nil {
		return nil, err
	}

	// parent's cached form embeds its components
	if err := utils.RemoveRedisItem[Item](input.ParentItemId); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[AllItem](businessId); err != nil {
		return nil, err
	}

	return &edge, nil
}

// RemoveComponent deletes the edge parent -> child.
func RemoveComponent(ctx context.Context, parentItemId int, childItemId int) (*ItemComponent, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()

	var edge ItemComponent
	err := db.WithContext(ctx).
		Where("business_id = ? AND parent_item_id = ? AND child_item_id = ?",
			businessId, parentItemId, childItemId).
		First(&edge).Error
	if err != nil {
		return nil, &NotFoundError{Entity: "component", Id: childItemId}
	}

	tx := db.Begin()

	if err := tx.WithContext(ctx).Delete(&edge).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := RecordChange(ctx, tx, businessId, edge.ID, ChangeReferenceTypeBomComponent, ChangeActionDelete, &edge); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Item](parentItemId); err != nil {
		return nil, err
	}
	if err := utils.RemoveRedisList[AllItem](businessId); err != nil {
		return nil, err
	}

	return &edge, nil
}

// GetComponents lists the direct component edges of an item.
func GetComponents(ctx context.Context, parentItemId int) ([]*ItemComponent, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	if err := utils.ValidateResourceId[Item](ctx, businessId, parentItemId); err != nil {
		return nil, &NotFoundError{Entity: "item", Id: parentItemId}
	}

	db := config.GetDB()
	var edges []*ItemComponent
	err := db.WithContext(ctx).
		Where("business_id = ? AND parent_item_id = ?", businessId, parentItemId).
		Order("position").
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}
