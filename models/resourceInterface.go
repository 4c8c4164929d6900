package models

func (i Item) GetBusinessId() string {
	return i.BusinessId
}

func (c ItemComponent) GetBusinessId() string {
	return c.BusinessId
}

func (c Customer) GetBusinessId() string {
	return c.BusinessId
}

func (s SalesPerson) GetBusinessId() string {
	return s.BusinessId
}

func (o Order) GetBusinessId() string {
	return o.BusinessId
}

func (m StockMovement) GetBusinessId() string {
	return m.BusinessId
}

func (u User) GetBusinessId() string {
	return u.BusinessId
}
