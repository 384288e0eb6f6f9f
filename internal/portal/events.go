package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"eventportal/internal/model"
	"eventportal/internal/repo"
	"eventportal/internal/sanitize"
	"eventportal/pkg/validator"
)

type NewEvent struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Date        string `json:"event_date" validate:"required,date"`
	Time        string `json:"event_time" validate:"required,clock"`
	Location    string `json:"location" validate:"required,max=255"`
	Type        string `json:"event_type" validate:"required,eventtype"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
	Price       string `json:"price"`
}

// DashboardEntry is one active event with its numbers.
type DashboardEntry struct {
	Event model.Event
	Stats model.EventStats
}

func (p *Portal) ListEvents(ctx context.Context) ([]model.Event, error) {
	return p.repo.ListActiveEvents(ctx)
}

// GetEvent only finds events that are still listed.
func (p *Portal) GetEvent(ctx context.Context, id int64) (*model.Event, error) {
	e, err := p.lookupEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsActive {
		return nil, ErrEventNotFound
	}
	return e, nil
}

func (p *Portal) lookupEvent(ctx context.Context, id int64) (*model.Event, error) {
	e, err := p.repo.GetEventByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return e, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &validator.ValidationError{Field: "price", Tag: "decimal", Message: "Price must be a number"}
	}
	if price.IsNegative() {
		return decimal.Zero, &validator.ValidationError{Field: "price", Tag: "gte", Message: "Price cannot be negative"}
	}
	if price.Exponent() < -2 {
		return decimal.Zero, &validator.ValidationError{Field: "price", Tag: "decimal", Message: "Price can have at most two decimal places"}
	}
	if price.GreaterThanOrEqual(decimal.NewFromInt(1000000)) {
		return decimal.Zero, &validator.ValidationError{Field: "price", Tag: "lt", Message: "Price must be below 1000000"}
	}
	return price, nil
}

// AddEvent stores a new active event. Title and location lose all markup,
// the description keeps basic formatting.
func (p *Portal) AddEvent(ctx context.Context, organizerID int64, in NewEvent) (*model.Event, error) {
	in.Title = sanitize.Text(in.Title)
	in.Location = sanitize.Text(in.Location)
	in.Description = sanitize.HTML(in.Description)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	in.Type = strings.TrimSpace(in.Type)

	if err := validator.Validate(ctx, in); err != nil {
		return nil, err
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	date, _ := time.Parse("2006-01-02", in.Date)
	clock, _ := time.Parse("15:04", in.Time)

	e := &model.Event{
		Title:       in.Title,
		Description: in.Description,
		Date:        date,
		Time:        clock.Format("15:04"),
		Location:    in.Location,
		Type:        in.Type,
		Capacity:    in.Capacity,
		Price:       price,
		OrganizerID: organizerID,
	}
	if _, err := p.repo.CreateEvent(ctx, e); err != nil {
		return nil, err
	}

	p.log.Info().Int64("event_id", e.ID).Int64("organizer_id", organizerID).Msg("event created")
	return e, nil
}

// DeleteEvent hides the event; registrations and payments stay.
func (p *Portal) DeleteEvent(ctx context.Context, id int64) error {
	if err := p.repo.DeactivateEvent(ctx, id); err != nil {
		if errors.Is(err, repo.ErrEventNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	p.log.Info().Int64("event_id", id).Msg("event deactivated")
	return nil
}

func (p *Portal) EventStats(ctx context.Context, id int64) (model.EventStats, error) {
	if _, err := p.lookupEvent(ctx, id); err != nil {
		return model.EventStats{}, err
	}
	stats, err := p.repo.EventStats(ctx, id)
	if err != nil {
		return model.EventStats{}, fmt.Errorf("event %d stats: %w", id, err)
	}
	return stats, nil
}

func (p *Portal) Dashboard(ctx context.Context) ([]DashboardEntry, error) {
	events, err := p.repo.ListActiveEvents(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]DashboardEntry, 0, len(events))
	for _, e := range events {
		stats, err := p.repo.EventStats(ctx, e.ID)
		if err != nil {
			return nil, fmt.Errorf("event %d stats: %w", e.ID, err)
		}
		out = append(out, DashboardEntry{Event: e, Stats: stats})
	}
	return out, nil
}
