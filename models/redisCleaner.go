package models

import (
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
)

type RedisCleaner interface {
	RemoveInstanceRedis() error // remove one
	RemoveAllRedis() error      // remove list & map if exists
}

// remove both item & list + map
func RemoveRedisBoth[T RedisCleaner](obj T) error {
	if err := obj.RemoveInstanceRedis(); err != nil {
		return err
	}
	if err := obj.RemoveAllRedis(); err != nil {
		return err
	}
	return nil
}

func (obj Item) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Item](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Item) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllItem](obj.BusinessId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllItem](obj.BusinessId); err != nil {
		return err
	}
	return nil
}

func (obj Customer) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Customer](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Customer) RemoveAllRedis() error {
	return nil
}

func (obj SalesPerson) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[SalesPerson](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj SalesPerson) RemoveAllRedis() error {
	if err := utils.RemoveRedisList[AllSalesPerson](obj.BusinessId); err != nil {
		return err
	}
	if err := utils.RemoveRedisMap[AllSalesPerson](obj.BusinessId); err != nil {
		return err
	}
	return nil
}

func (obj Order) RemoveInstanceRedis() error {
	if err := utils.RemoveRedisItem[Order](obj.ID); err != nil {
		return err
	}
	return nil
}

func (obj Order) RemoveAllRedis() error {
	return nil
}
