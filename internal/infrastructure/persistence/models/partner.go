package models

import "github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/partner"

// CustomerModel is the persistence model for customers
type CustomerModel struct {
	BaseModel
	Name     string `gorm:"type:varchar(255);not null"`
	Email    string `gorm:"type:varchar(255);not null"`
	ImageURL string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain customer
func (m *CustomerModel) ToDomain() partner.Customer {
	return partner.Customer{
		ID:       m.ID,
		Name:     m.Name,
		Email:    m.Email,
		ImageURL: m.ImageURL,
	}
}

// FromDomain populates the model from a domain customer
func (m *CustomerModel) FromDomain(c partner.Customer) {
	m.ID = c.ID
	m.Name = c.Name
	m.Email = c.Email
	m.ImageURL = c.ImageURL
}
