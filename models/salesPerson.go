package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

type SalesPerson struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id" binding:"required"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      string    `gorm:"size:100" json:"email"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewSalesPerson struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}

type AllSalesPerson struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewSalesPerson) validate(ctx context.Context, businessId string, id int) error {
	// name
	if err := utils.ValidateUnique[SalesPerson](ctx, businessId, "name", input.Name, id); err != nil {
		return err
	}
	// email
	if len(input.Email) > 0 {
		if !utils.IsValidEmail(input.Email) {
			return &ValidationError{Message: "invalid email"}
		}
		if err := utils.ValidateUnique[SalesPerson](ctx, businessId, "email", input.Email, id); err != nil {
			return err
		}
	}
	return nil
}

func CreateSalesPerson(ctx context.Context, input *NewSalesPerson) (*SalesPerson, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	salesPerson := SalesPerson{
		Name:       input.Name,
		BusinessId: businessId,
		Email:      input.Email,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&salesPerson).Error
	if err != nil {
		return nil, err
	}
	return &salesPerson, nil
}

func UpdateSalesPerson(ctx context.Context, id int, input *NewSalesPerson) (*SalesPerson, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	salesPerson, err := utils.FetchModel[SalesPerson](ctx, businessId, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "sales person", Id: id}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&salesPerson).Updates(map[string]interface{}{
		"Name":  input.Name,
		"Email": input.Email,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*salesPerson); err != nil {
		return nil, err
	}
	return salesPerson, nil
}

func DeleteSalesPerson(ctx context.Context, id int) (*SalesPerson, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[SalesPerson](ctx, businessId, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "sales person", Id: id}
	}

	count, err := utils.ResourceCountWhere[Order](ctx, businessId, "sales_person_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &StateConflictError{Message: "cannot delete sales person referenced by orders"}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*result); err != nil {
		return nil, err
	}
	return result, nil
}

func GetSalesPerson(ctx context.Context, id int) (*SalesPerson, error) {

	return GetResource[SalesPerson](ctx, id)
}

func GetSalesPersons(ctx context.Context, name *string) ([]*SalesPerson, error) {

	db := config.GetDB()
	var results []*SalesPerson

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if name != nil && len(*name) > 0 {
		dbCtx = dbCtx.Where("name LIKE ?", "%"+*name+"%")
	}
	err := dbCtx.Order("name").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListAllSalesPerson serves the cached dropdown projection.
func ListAllSalesPerson(ctx context.Context) ([]*AllSalesPerson, error) {
	return ListAllResource[SalesPerson, AllSalesPerson](ctx, "name")
}

func ToggleActiveSalesPerson(ctx context.Context, id int, isActive bool) (*SalesPerson, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return ToggleActiveModel[SalesPerson](ctx, businessId, id, isActive)
}
