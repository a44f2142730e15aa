package models

import "time"

type Identifier interface {
	GetId() int
}

// interface for dataloader result
type Data interface {
	Identifier
	GetDefault(int) Data
}

func (c Customer) GetId() int {
	return c.ID
}

func (c Customer) GetDefault(id int) Data {
	return Customer{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (v Vehicle) GetId() int {
	return v.ID
}

func (v Vehicle) GetDefault(id int) Data {
	return Vehicle{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func (s Supplier) GetId() int {
	return s.ID
}

func (s Supplier) GetDefault(id int) Data {
	return Supplier{
		ID:        id,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
