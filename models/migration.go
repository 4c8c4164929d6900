package models

import (
	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Item{}, &ItemComponent{},
		&Customer{}, &SalesPerson{},
		&Order{}, &OrderLine{},
		&StockMovement{},
		&ChangeRecord{},
		&User{},
	)
	utils.ErrorPanic(err)
}
