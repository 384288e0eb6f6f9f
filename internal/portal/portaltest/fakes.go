// Package portaltest provides in-memory stand-ins for the storage the
// portal runs on.
package portaltest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventportal/internal/model"
	"eventportal/internal/repo"
	"eventportal/internal/session"
)

// Repo keeps rows in maps and mirrors the storage rules the portal relies
// on: unique emails, soft delete, one-shot payment per registration.
type Repo struct {
	mu       sync.Mutex
	nextID   int64
	users    map[int64]*model.User
	events   map[int64]*model.Event
	regs     map[int64]*model.Registration
	cards    map[int64]*model.SavedCard
	payments []*model.Payment

	// PaymentErr, when set, fails every payment write before anything is
	// stored.
	PaymentErr error
}

var _ repo.Repository = (*Repo)(nil)

func NewRepo() *Repo {
	return &Repo{
		users:  map[int64]*model.User{},
		events: map[int64]*model.Event{},
		regs:   map[int64]*model.Registration{},
		cards:  map[int64]*model.SavedCard{},
	}
}

func (m *Repo) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Repo) Ping(context.Context) error { return nil }

func (m *Repo) CreateUser(_ context.Context, u *model.User) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return 0, repo.ErrDuplicateEmail
		}
	}
	u.ID = m.id()
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return u.ID, nil
}

func (m *Repo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (m *Repo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *Repo) CreateEvent(_ context.Context, e *model.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	e.IsActive = true
	cp := *e
	m.events[e.ID] = &cp
	return e.ID, nil
}

func (m *Repo) GetEventByID(_ context.Context, id int64) (*model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return nil, repo.ErrEventNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *Repo) ListActiveEvents(context.Context) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, 0)
	for _, e := range m.events {
		if e.IsActive {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Repo) DeactivateEvent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return repo.ErrEventNotFound
	}
	e.IsActive = false
	return nil
}

func (m *Repo) EventStats(_ context.Context, eventID int64) (model.EventStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := model.EventStats{EventID: eventID, Revenue: decimal.Zero}
	for _, r := range m.regs {
		if r.EventID == eventID {
			stats.Registrations++
		}
	}
	for _, p := range m.payments {
		if r := m.regs[p.RegistrationID]; r != nil && r.EventID == eventID && p.Status == model.PaymentSuccess {
			stats.Revenue = stats.Revenue.Add(p.Amount)
		}
	}
	return stats, nil
}

func (m *Repo) CreateRegistration(_ context.Context, reg *model.Registration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reg.ID = m.id()
	if reg.Status == "" {
		reg.Status = model.RegistrationPending
	}
	cp := *reg
	m.regs[reg.ID] = &cp
	return reg.ID, nil
}

func (m *Repo) GetRegistrationByID(_ context.Context, id int64) (*model.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.regs[id]
	if !ok {
		return nil, repo.ErrRegistrationNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *Repo) ListUserRegistrations(_ context.Context, userID int64) ([]model.UserRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int64]*model.Registration{}
	for _, r := range m.regs {
		if r.UserID != userID {
			continue
		}
		if cur, ok := latest[r.EventID]; !ok || r.ID > cur.ID {
			latest[r.EventID] = r
		}
	}
	out := make([]model.UserRegistration, 0, len(latest))
	for _, r := range latest {
		e := m.events[r.EventID]
		ur := model.UserRegistration{
			RegistrationID:     r.ID,
			EventID:            e.ID,
			Title:              e.Title,
			Date:               e.Date,
			Time:               e.Time,
			Price:              e.Price,
			RegistrationStatus: r.Status,
		}
		for _, p := range m.payments {
			if p.RegistrationID == r.ID {
				s := p.Status
				ur.PaymentStatus = &s
			}
		}
		out = append(out, ur)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Repo) AddSavedCard(_ context.Context, c *model.SavedCard) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	cp := *c
	m.cards[c.ID] = &cp
	return c.ID, nil
}

func (m *Repo) ListSavedCards(_ context.Context, userID int64) ([]model.SavedCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.SavedCard, 0)
	for _, c := range m.cards {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Repo) GetSavedCard(_ context.Context, userID, cardID int64) (*model.SavedCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[cardID]
	if !ok || c.UserID != userID {
		return nil, repo.ErrCardNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *Repo) RecordPaymentTx(_ context.Context, p *model.Payment, newCard *model.SavedCard) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PaymentErr != nil {
		return 0, m.PaymentErr
	}
	r, ok := m.regs[p.RegistrationID]
	if !ok || r.UserID != p.UserID {
		return 0, repo.ErrRegistrationNotFound
	}
	if r.Status == model.RegistrationSuccess {
		return 0, repo.ErrAlreadyPaid
	}
	if newCard != nil {
		newCard.ID = m.id()
		cp := *newCard
		m.cards[newCard.ID] = &cp
		id := newCard.ID
		p.CardID = &id
	}
	p.ID = m.id()
	if p.Status == "" {
		p.Status = model.PaymentSuccess
	}
	p.TxnID = uuid.NewString()
	cp := *p
	m.payments = append(m.payments, &cp)
	r.Status = model.RegistrationSuccess
	return p.ID, nil
}

func (m *Repo) RegisterFreeTx(_ context.Context, reg *model.Registration, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PaymentErr != nil {
		return m.PaymentErr
	}
	reg.ID = m.id()
	reg.Status = model.RegistrationSuccess
	reg.CreatedAt = time.Now()
	reg.UpdatedAt = reg.CreatedAt
	cp := *reg
	m.regs[reg.ID] = &cp

	p.ID = m.id()
	p.RegistrationID = reg.ID
	p.UserID = reg.UserID
	if p.Status == "" {
		p.Status = model.PaymentSuccess
	}
	p.TxnID = uuid.NewString()
	pcp := *p
	m.payments = append(m.payments, &pcp)
	return nil
}

func (m *Repo) MigrateUp(context.Context, string) error   { return nil }
func (m *Repo) MigrateDown(context.Context, string) error { return nil }

// PaymentsFor returns the payments recorded for a registration.
func (m *Repo) PaymentsFor(regID int64) []model.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Payment
	for _, p := range m.payments {
		if p.RegistrationID == regID {
			out = append(out, *p)
		}
	}
	return out
}

// Store is an in-process CheckoutStore with a fixed TTL.
type Store struct {
	mu   sync.Mutex
	data map[int64]session.Checkout
}

func NewStore() *Store {
	return &Store{data: map[int64]session.Checkout{}}
}

func (s *Store) Put(_ context.Context, userID int64, c session.Checkout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[userID] = c
	return nil
}

func (s *Store) Get(_ context.Context, userID int64) (*session.Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.data[userID]
	if !ok {
		return nil, session.ErrNoCheckout
	}
	return &c, nil
}

func (s *Store) Delete(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, userID)
	return nil
}

func (s *Store) TTL() time.Duration { return 30 * time.Minute }
