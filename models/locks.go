package models

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// AcquireReservationLock serializes availability-checked writes per business
// across instances using MySQL advisory locks.
// NOTE: GET_LOCK is connection-scoped, so this must be called on the same
// *gorm.DB transaction that will do the write.
func AcquireReservationLock(tx *gorm.DB, businessId string) error {
	lockName := fmt.Sprintf("reservation:%s", businessId)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire reservation lock for business_id=%s", businessId)
	}
	return nil
}

func ReleaseReservationLock(tx *gorm.DB, businessId string) {
	lockName := fmt.Sprintf("reservation:%s", businessId)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// withReservationLock runs fn inside a transaction that holds the
// per-business reservation lock. The lock survives COMMIT (it is bound
// to the connection, not the transaction), so the release must execute
// on the live transaction: the deferred release here fires when fn
// returns, before gorm commits or rolls back.
func withReservationLock(ctx context.Context, db *gorm.DB, businessId string, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := AcquireReservationLock(tx, businessId); err != nil {
			return err
		}
		defer ReleaseReservationLock(tx, businessId)
		return fn(tx)
	})
}
