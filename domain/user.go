package domain

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleCustomer = "CUSTOMER"
)

const (
	AddressShipping = "SHIPPING"
	AddressBilling  = "BILLING"
)

type User struct {
	ID                  uint           `gorm:"primaryKey" json:"id"`
	FullName            string         `gorm:"column:full_name;not null" json:"full_name"`
	Email               string         `gorm:"column:email;unique;not null" json:"email"`
	Phone               string         `gorm:"column:phone" json:"phone,omitempty"`
	IsVerified          bool           `gorm:"column:is_verified;default:false" json:"is_verified"`
	Password            string         `gorm:"column:password;not null" json:"-"`
	Role                string         `gorm:"column:role;default:CUSTOMER" json:"role"`
	FailedLoginAttempts int            `gorm:"column:failed_login_attempts;default:0" json:"-"`
	LastFailedLogin     *time.Time     `gorm:"column:last_failed_login" json:"-"`
	LockedUntil         *time.Time     `gorm:"column:locked_until" json:"-"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleStaff
}

func (u User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

type Address struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"column:user_id;index;not null" json:"user_id"`
	FullName   string    `gorm:"column:full_name;not null" json:"full_name"`
	Phone      string    `gorm:"column:phone" json:"phone"`
	Line1      string    `gorm:"column:line1;not null" json:"line1"`
	Line2      string    `gorm:"column:line2" json:"line2,omitempty"`
	City       string    `gorm:"column:city;not null" json:"city"`
	State      string    `gorm:"column:state;not null" json:"state"`
	PostalCode string    `gorm:"column:postal_code;not null" json:"postal_code"`
	Country    string    `gorm:"column:country;default:India" json:"country"`
	Type       string    `gorm:"column:type;default:SHIPPING" json:"type"`
	IsDefault  bool      `gorm:"column:is_default;default:false" json:"is_default"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Address) TableName() string {
	return "addresses"
}

type PaymentMethod struct {
	ID             uint              `gorm:"primaryKey" json:"id"`
	UserID         uint              `gorm:"column:user_id;index;not null" json:"user_id"`
	Type           PaymentMethodType `gorm:"column:type;not null" json:"type"`
	Provider       string            `gorm:"column:provider" json:"provider"`
	Last4          string            `gorm:"column:last4" json:"last4,omitempty"`
	ExpiryMonth    int               `gorm:"column:expiry_month" json:"expiry_month,omitempty"`
	ExpiryYear     int               `gorm:"column:expiry_year" json:"expiry_year,omitempty"`
	EncryptedToken string            `gorm:"column:encrypted_token" json:"-"`
	IsDefault      bool              `gorm:"column:is_default;default:false" json:"is_default"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
