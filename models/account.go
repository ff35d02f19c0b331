package models

import (
	"strings"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Account struct {
	ID               string     `json:"id" gorm:"primaryKey;size:191"`
	Email            string     `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password         string     `json:"-" gorm:"not null;size:255"`
	FirstName        string     `json:"first_name" gorm:"not null;size:100"`
	LastName         string     `json:"last_name" gorm:"not null;size:100"`
	Phone            *string    `json:"phone,omitempty" gorm:"uniqueIndex;size:30"`
	NationalID       *string    `json:"national_id,omitempty" gorm:"size:30"`
	Avatar           *string    `json:"avatar,omitempty" gorm:"size:500"`
	City             string     `json:"city" gorm:"size:100"`
	Department       string     `json:"department" gorm:"size:100"`
	Address          string     `json:"address,omitempty" gorm:"size:255"`
	EmailVerified    bool       `json:"email_verified"`
	PhoneVerified    bool       `json:"phone_verified"`
	IDVerified       bool       `json:"id_verified"`
	Rating           float64    `json:"rating"`
	TotalSales       int        `json:"total_sales"`
	TotalPurchases   int        `json:"total_purchases"`
	Role             string     `json:"role" gorm:"not null;size:20"`
	Active           bool       `json:"active"`
	PolicyAcceptedAt *time.Time `json:"policy_accepted_at,omitempty"`
	LastAccessAt     *time.Time `json:"last_access_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// SellerSummary is the public slice of an account shown next to a listing.
type SellerSummary struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Rating     float64   `json:"rating"`
	TotalSales int       `json:"total_sales"`
	City       string    `json:"city"`
	Department string    `json:"department"`
	MemberFrom time.Time `json:"member_since"`
}

func (a *Account) Summary() *SellerSummary {
	if a == nil || a.ID == "" {
		return nil
	}
	return &SellerSummary{
		ID:         a.ID,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
		Rating:     a.Rating,
		TotalSales: a.TotalSales,
		City:       a.City,
		Department: a.Department,
		MemberFrom: a.CreatedAt,
	}
}

// NormalizeEmail lower-cases and trims an address; emails are unique in this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
