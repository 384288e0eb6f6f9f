package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"eventportal/internal/model"
	"eventportal/internal/session"
)

type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

type EventResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        string          `json:"event_date"`
	Time        string          `json:"event_time"`
	Location    string          `json:"location"`
	Type        string          `json:"event_type"`
	Capacity    int             `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	Free        bool            `json:"free"`
	IsActive    bool            `json:"is_active"`
}

type SavedCardResponse struct {
	ID         int64  `json:"id"`
	HolderName string `json:"card_holder_name"`
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
}

type CheckoutResponse struct {
	RegistrationID int64               `json:"registration_id"`
	EventID        int64               `json:"event_id"`
	EventTitle     string              `json:"event_title"`
	Amount         decimal.Decimal     `json:"amount"`
	CreatedAt      time.Time           `json:"created_at"`
	SavedCards     []SavedCardResponse `json:"saved_cards"`
}

type PaymentResponse struct {
	ID             int64           `json:"id"`
	RegistrationID int64           `json:"registration_id"`
	Amount         decimal.Decimal `json:"amount"`
	Type           string          `json:"payment_type"`
	Status         string          `json:"payment_status"`
	TxnID          string          `json:"txn_id"`
	CardID         *int64          `json:"card_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// RegisterResponse holds a payment for free events and a checkout otherwise.
type RegisterResponse struct {
	RegistrationID int64             `json:"registration_id"`
	Status         string            `json:"status"`
	Payment        *PaymentResponse  `json:"payment,omitempty"`
	Checkout       *CheckoutResponse `json:"checkout,omitempty"`
}

type UserRegistrationResponse struct {
	RegistrationID     int64           `json:"registration_id"`
	EventID            int64           `json:"event_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Date               string          `json:"event_date"`
	Time               string          `json:"event_time"`
	Location           string          `json:"location"`
	Price              decimal.Decimal `json:"price"`
	RegistrationStatus string          `json:"registration_status"`
	PaymentStatus      string          `json:"payment_status"`
}

type EventStatsResponse struct {
	EventID       int64           `json:"event_id"`
	Registrations int             `json:"registrations"`
	Revenue       decimal.Decimal `json:"revenue"`
}

type DashboardEntry struct {
	Event EventResponse      `json:"event"`
	Stats EventStatsResponse `json:"stats"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func NewEventResponse(e *model.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.Format("2006-01-02"),
		Time:        e.Time,
		Location:    e.Location,
		Type:        e.Type,
		Capacity:    e.Capacity,
		Price:       e.Price,
		Free:        e.IsFree(),
		IsActive:    e.IsActive,
	}
}

func NewEventsResponse(events []model.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, NewEventResponse(&events[i]))
	}
	return out
}

func NewSavedCardsResponse(cards []model.MaskedCard) []SavedCardResponse {
	out := make([]SavedCardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, SavedCardResponse{
			ID:         c.ID,
			HolderName: c.HolderName,
			CardNumber: c.Number,
			ExpiryDate: c.ExpiryDate,
		})
	}
	return out
}

func NewCheckoutResponse(c *session.Checkout, cards []SavedCardResponse) *CheckoutResponse {
	if cards == nil {
		cards = []SavedCardResponse{}
	}
	return &CheckoutResponse{
		RegistrationID: c.RegistrationID,
		EventID:        c.EventID,
		EventTitle:     c.EventTitle,
		Amount:         c.Amount,
		CreatedAt:      c.CreatedAt,
		SavedCards:     cards,
	}
}

func NewPaymentResponse(p *model.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:             p.ID,
		RegistrationID: p.RegistrationID,
		Amount:         p.Amount,
		Type:           p.Type,
		Status:         p.Status,
		TxnID:          p.TxnID,
		CardID:         p.CardID,
		CreatedAt:      p.CreatedAt,
	}
}

func NewUserRegistrationsResponse(regs []model.UserRegistration) []UserRegistrationResponse {
	out := make([]UserRegistrationResponse, 0, len(regs))
	for _, r := range regs {
		status := "Pending"
		if r.PaymentStatus != nil {
			status = *r.PaymentStatus
		}
		out = append(out, UserRegistrationResponse{
			RegistrationID:     r.RegistrationID,
			EventID:            r.EventID,
			Title:              r.Title,
			Description:        r.Description,
			Date:               r.Date.Format("2006-01-02"),
			Time:               r.Time,
			Location:           r.Location,
			Price:              r.Price,
			RegistrationStatus: r.RegistrationStatus,
			PaymentStatus:      status,
		})
	}
	return out
}

func NewEventStatsResponse(s model.EventStats) EventStatsResponse {
	return EventStatsResponse{
		EventID:       s.EventID,
		Registrations: s.Registrations,
		Revenue:       s.Revenue,
	}
}
