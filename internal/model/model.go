package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
)

// CanManageEvents reports whether the role gets the admin dashboard.
func (r Role) CanManageEvents() bool {
	return r == RoleAdmin || r == RoleOrganizer
}

const (
	RegistrationPending = "Pending"
	RegistrationSuccess = "Success"

	PaymentSuccess = "Success"

	PaymentTypeFree    = "Free"
	PaymentTypeOneTime = "OneTime"
	PaymentTypeSaved   = "Saved"
)

var EventTypes = []string{
	"Conference",
	"Workshop",
	"Seminar",
	"Meetup",
	"Technical Talk",
	"Health & Wellness",
	"Cultural",
	"Sports",
	"Other",
}

type User struct {
	ID           int64     `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Phone        string    `db:"phone" json:"phone"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         Role      `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Event struct {
	ID          int64           `db:"id" json:"id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description"`
	Date        time.Time       `db:"event_date" json:"event_date"`
	Time        string          `db:"event_time" json:"event_time"`
	Location    string          `db:"location" json:"location"`
	Type        string          `db:"event_type" json:"event_type"`
	Capacity    int             `db:"capacity" json:"capacity"`
	Price       decimal.Decimal `db:"price" json:"price"`
	OrganizerID int64           `db:"organizer_id" json:"organizer_id"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsFree is true for events that are paid for with a zero-amount payment.
func (e *Event) IsFree() bool {
	return e.Price.IsZero()
}

type Registration struct {
	ID           int64     `db:"id" json:"id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	EventID      int64     `db:"event_id" json:"event_id"`
	ContactName  string    `db:"contact_name" json:"contact_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Payment struct {
	ID             int64           `db:"id" json:"id"`
	RegistrationID int64           `db:"registration_id" json:"registration_id"`
	UserID         int64           `db:"user_id" json:"user_id"`
	CardID         *int64          `db:"card_id" json:"card_id,omitempty"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Type           string          `db:"payment_type" json:"payment_type"`
	Status         string          `db:"payment_status" json:"payment_status"`
	TxnID          string          `db:"txn_id" json:"txn_id"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// SavedCard holds card fields as stored: number and CVV are cipher tokens.
type SavedCard struct {
	ID                  int64     `db:"id" json:"id"`
	UserID              int64     `db:"user_id" json:"user_id"`
	HolderName          string    `db:"card_holder_name" json:"card_holder_name"`
	CardNumberEncrypted string    `db:"card_number_encrypted" json:"-"`
	CVVEncrypted        string    `db:"cvv_encrypted" json:"-"`
	ExpiryDate          string    `db:"expiry_date" json:"expiry_date"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
}

// UserRegistration is the latest registration a user holds for one event.
type UserRegistration struct {
	RegistrationID     int64           `db:"registration_id" json:"registration_id"`
	EventID            int64           `db:"event_id" json:"event_id"`
	Title              string          `db:"title" json:"title"`
	Description        string          `db:"description" json:"description"`
	Date               time.Time       `db:"event_date" json:"event_date"`
	Time               string          `db:"event_time" json:"event_time"`
	Location           string          `db:"location" json:"location"`
	Price              decimal.Decimal `db:"price" json:"price"`
	RegistrationStatus string          `db:"registration_status" json:"registration_status"`
	PaymentStatus      *string         `db:"payment_status" json:"payment_status,omitempty"`
}

type EventStats struct {
	EventID       int64           `json:"event_id"`
	Registrations int             `json:"registrations"`
	Revenue       decimal.Decimal `json:"revenue"`
}

// MaskedCard is a saved card as shown back to its owner.
type MaskedCard struct {
	ID         int64  `json:"id"`
	HolderName string `json:"card_holder_name"`
	Number     string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
}

const (
	NotifyPaymentSucceeded = "payment_succeeded"
	NotifyPaymentReminder  = "payment_reminder"
)

// Notification is the message the portal hands to the mail worker.
type Notification struct {
	Kind           string          `json:"kind"`
	RegistrationID int64           `json:"registration_id"`
	EventID        int64           `json:"event_id"`
	UserID         int64           `json:"user_id"`
	Email          string          `json:"email"`
	EventTitle     string          `json:"event_title"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentType    string          `json:"payment_type,omitempty"`
}
