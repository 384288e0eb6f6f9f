package dto

type SignupRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateEventRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"event_date"`
	Time        string `json:"event_time"`
	Location    string `json:"location"`
	Type        string `json:"event_type"`
	Capacity    int    `json:"capacity"`
	Price       string `json:"price"`
}

// RegisterRequest carries the contact the user typed on the form; empty
// fields fall back to the account's name and email.
type RegisterRequest struct {
	ContactName  string `json:"contact_name"`
	ContactEmail string `json:"contact_email"`
}

type CardRequest struct {
	HolderName string `json:"card_holder_name"`
	Number     string `json:"card_number"`
	CVV        string `json:"cvv"`
	ExpiryDate string `json:"expiry_date"`
	Save       bool   `json:"save"`
}

// PayRequest names either a saved card or a new one.
type PayRequest struct {
	CardID  *int64       `json:"card_id,omitempty"`
	NewCard *CardRequest `json:"new_card,omitempty"`
}
