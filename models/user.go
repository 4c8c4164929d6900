package models

import (
	"context"
	"errors"
	"html"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"golang.org/x/crypto/bcrypt"
)

type UserRole string

const (
	UserRoleAdmin    UserRole = "A"
	UserRoleOperator UserRole = "O"
	UserRoleClerk    UserRole = "C"
)

type User struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index" json:"business_id"`
	Username   string    `gorm:"size:100;not null;unique" json:"username" binding:"required"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Email      string    `gorm:"size:100" json:"email"`
	Password   string    `gorm:"size:255;not null" json:"password"`
	IsActive   *bool     `gorm:"not null" json:"is_active"`
	Role       UserRole  `gorm:"type:enum('A', 'O', 'C');default:C" json:"role"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	BusinessId string   `json:"business_id"`
	Username   string   `json:"username" binding:"required"`
	Name       string   `json:"name" binding:"required"`
	Email      string   `json:"email"`
	Password   string   `json:"password" binding:"required"`
	IsActive   *bool    `json:"is_active" binding:"required"`
	Role       UserRole `json:"role" binding:"required"`
}

type LoginInfo struct {
	Token      string `json:"token"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	BusinessId string `json:"business_id"`
}

func (result *User) PrepareGive() {
	result.Password = ""
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {

	db := config.GetDB()
	var result LoginInfo

	user := User{}

	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Take(&user).Error
	if err != nil {
		return &result, errors.New("invalid username or password")
	}

	// check login credentials
	err = utils.ComparePassword(user.Password, password)
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return &result, errors.New("invalid username or password")
		}
		return &result, err
	}

	if user.IsActive == nil || !*user.IsActive {
		return &result, errors.New("user is disabled")
	}

	token, err := utils.JwtGenerate(user.ID, string(user.Role))
	if err != nil {
		return &result, err
	}

	result.Token = token
	result.Name = user.Username
	result.Role = string(user.Role)
	result.BusinessId = user.BusinessId

	return &result, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {

	db := config.GetDB()
	var count int64

	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return &User{}, errors.New("invalid email address")
	}

	err := db.WithContext(ctx).Model(&User{}).Where("username = ?", input.Username).Count(&count).Error
	if err != nil {
		return &User{}, err
	}
	if count > 0 {
		return &User{}, errors.New("duplicate username")
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return &User{}, err
	}

	user := User{
		Username:   html.EscapeString(strings.TrimSpace(input.Username)),
		BusinessId: input.BusinessId,
		Name:       input.Name,
		Email:      strings.ToLower(input.Email),
		Password:   string(hashedPassword),
		IsActive:   input.IsActive,
		Role:       input.Role,
	}

	err = db.WithContext(ctx).Create(&user).Error
	if err != nil {
		return &User{}, err
	}
	user.Password = ""
	return &user, nil
}

// GetUser looks up by id without tenant scoping; the auth middleware
// derives the business scope from the returned user.
func GetUser(ctx context.Context, id int) (*User, error) {

	result, err := utils.FetchSingleModel[User](ctx, id)
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	result.PrepareGive()

	return result, nil
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {

	db := config.GetDB()
	var result User

	err := db.WithContext(ctx).Where("username = ?", username).First(&result).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &result, nil
}

func (input *User) ChangeUserPassword() (*User, error) {

	db := config.GetDB()
	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return &User{}, err
	}
	newPassword := string(hashedPassword)

	err = db.Model(&User{}).Where("id = ?", input.ID).First(&input).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}

	err = db.Model(&input).Updates(User{Password: newPassword}).Error
	if err != nil {
		return &User{}, err
	}
	return input, nil
}
