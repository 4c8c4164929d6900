package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

type Customer struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id" binding:"required"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      string    `gorm:"size:100" json:"email"`
	Phone      string    `gorm:"size:30" json:"phone"`
	Address    string    `gorm:"type:text" json:"address"`
	Notes      string    `gorm:"type:text" json:"notes"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)

func (input *NewCustomer) validate(ctx context.Context, businessId string, id int) error {
	if len(input.Email) > 0 && !utils.IsValidEmail(input.Email) {
		return &ValidationError{Message: "invalid email"}
	}
	if len(input.Phone) > 0 {
		if err := utils.ValidatePhoneNumber(input.Phone, "MM"); err != nil {
			return &ValidationError{Message: "invalid phone number"}
		}
	}
	return utils.ValidateUnique[Customer](ctx, businessId, "name", input.Name, id)
}

func CreateCustomer(ctx context.Context, input *NewCustomer) (*Customer, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, 0); err != nil {
		return nil, err
	}

	customer := Customer{
		BusinessId: businessId,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Address:    input.Address,
		Notes:      input.Notes,
		IsActive:   utils.NewTrue(),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func UpdateCustomer(ctx context.Context, id int, input *NewCustomer) (*Customer, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.validate(ctx, businessId, id); err != nil {
		return nil, err
	}

	customer, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "customer", Id: id}
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Model(&customer).Updates(map[string]interface{}{
		"Name":    input.Name,
		"Email":   input.Email,
		"Phone":   input.Phone,
		"Address": input.Address,
		"Notes":   input.Notes,
	}).Error
	if err != nil {
		return nil, err
	}

	if err := RemoveRedisBoth(*customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func DeleteCustomer(ctx context.Context, id int) (*Customer, error) {

	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	result, err := utils.FetchModel[Customer](ctx, businessId, id)
	if err != nil {
		return nil, &NotFoundError{Entity: "customer", Id: id}
	}

	count, err := utils.ResourceCountWhere[Order](ctx, businessId, "customer_id = ?", id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &StateConflictError{Message: "cannot delete customer referenced by orders"}
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

func GetCustomer(ctx context.Context, id int) (*Customer, error) {
	return GetResource[Customer](ctx, id)
}

func GetCustomers(ctx context.Context, name *string) ([]*Customer, error) {

	db := config.GetDB()
	var results []*Customer

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

func ToggleActiveCustomer(ctx context.Context, id int, isActive bool) (*Customer, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	return ToggleActiveModel[Customer](ctx, businessId, id, isActive)
}
