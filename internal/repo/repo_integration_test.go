package repo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/wb-go/wbf/dbpg"

	"eventportal/internal/model"
)

const migrationsDir = "../../migrations/postgres"

var (
	sharedOnce    sync.Once
	sharedInitErr error
	sharedDB      *dbpg.DB
	sharedRepo    Repository
)

func setupRepo(t *testing.T) (Repository, *dbpg.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("portal"),
			postgres.WithUsername("portal"),
			postgres.WithPassword("portal"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			sharedInitErr = err
			return
		}

		host, err := container.Host(ctx)
		if err != nil {
			sharedInitErr = err
			return
		}
		port, err := container.MappedPort(ctx, "5432/tcp")
		if err != nil {
			sharedInitErr = err
			return
		}

		log := zerolog.Nop()
		cfg := ConnConfig{
			Host:            host,
			Port:            port.Int(),
			User:            "portal",
			Password:        "portal",
			Name:            "events_test",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnectAttempts: 5,
			RetryDelay:      time.Second,
			ProbeTimeout:    2 * time.Second,
		}
		if sharedInitErr = EnsureDatabase(ctx, cfg, &log); sharedInitErr != nil {
			return
		}
		// a second call finds the database and does nothing
		if sharedInitErr = EnsureDatabase(ctx, cfg, &log); sharedInitErr != nil {
			return
		}

		sharedDB, sharedInitErr = Connect(ctx, cfg, &log)
		if sharedInitErr != nil {
			return
		}
		sharedRepo, sharedInitErr = NewRepository(sharedDB, &log)
		if sharedInitErr != nil {
			return
		}
		sharedInitErr = sharedRepo.MigrateUp(ctx, migrationsDir)
	})
	require.NoError(t, sharedInitErr)

	_, err := sharedDB.Master.Exec(`TRUNCATE payments, saved_cards, registrations, events, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return sharedRepo, sharedDB
}

func seedUser(t *testing.T, r Repository, email string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{
		FirstName:    "Jane",
		LastName:     "Doe",
		Phone:        "5551234567",
		Email:        email,
		PasswordHash: "$argon2id$placeholder",
		Role:         role,
	}
	_, err := r.CreateUser(context.Background(), u)
	require.NoError(t, err)
	return u
}

func seedEvent(t *testing.T, r Repository, organizerID int64, title, date, clock, price string) *model.Event {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	e := &model.Event{
		Title:       title,
		Description: "desc",
		Date:        d,
		Time:        clock,
		Location:    "Hall A",
		Type:        "Workshop",
		Price:       decimal.RequireFromString(price),
		OrganizerID: organizerID,
	}
	_, err = r.CreateEvent(context.Background(), e)
	require.NoError(t, err)
	return e
}

func TestRepository_MigrateUpIsIdempotentUnderConcurrency(t *testing.T) {
	r, _ := setupRepo(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.MigrateUp(context.Background(), migrationsDir)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestRepository_Users(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	u := seedUser(t, r, "jane@x.com", model.RoleUser)
	assert.NotZero(t, u.ID)

	got, err := r.GetUserByEmail(ctx, "jane@x.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, model.RoleUser, got.Role)
	assert.Equal(t, "$argon2id$placeholder", got.PasswordHash)

	byID, err := r.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "jane@x.com", byID.Email)

	_, err = r.CreateUser(ctx, &model.User{
		FirstName: "J", LastName: "D", Phone: "5551234567", Email: "jane@x.com", PasswordHash: "x", Role: model.RoleUser,
	})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = r.GetUserByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_EventsSoftDelete(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	org := seedUser(t, r, "admin@x.com", model.RoleAdmin)
	later := seedEvent(t, r, org.ID, "Later", "2026-12-01", "09:00", "0")
	sooner := seedEvent(t, r, org.ID, "Sooner", "2026-11-01", "18:30", "25.00")
	assert.True(t, later.IsActive)

	events, err := r.ListActiveEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, sooner.ID, events[0].ID)
	assert.Equal(t, "18:30", events[0].Time)
	assert.Equal(t, "2026-11-01", events[0].Date.Format("2006-01-02"))
	assert.True(t, decimal.RequireFromString("25").Equal(events[0].Price))

	user := seedUser(t, r, "jane@x.com", model.RoleUser)
	reg := &model.Registration{UserID: user.ID, EventID: sooner.ID}
	_, err = r.CreateRegistration(ctx, reg)
	require.NoError(t, err)

	require.NoError(t, r.DeactivateEvent(ctx, sooner.ID))

	events, err = r.ListActiveEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, later.ID, events[0].ID)

	hidden, err := r.GetEventByID(ctx, sooner.ID)
	require.NoError(t, err)
	assert.False(t, hidden.IsActive)

	stillThere, err := r.GetRegistrationByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, sooner.ID, stillThere.EventID)

	assert.ErrorIs(t, r.DeactivateEvent(ctx, 9999), ErrEventNotFound)
	_, err = r.GetEventByID(ctx, 9999)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRepository_PaymentFlowAndStats(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	org := seedUser(t, r, "admin@x.com", model.RoleAdmin)
	user := seedUser(t, r, "jane@x.com", model.RoleUser)
	free := seedEvent(t, r, org.ID, "Free talk", "2026-11-01", "10:00", "0.00")
	paid := seedEvent(t, r, org.ID, "Paid workshop", "2026-11-02", "10:00", "25.00")

	stats, err := r.EventStats(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Registrations)
	assert.True(t, stats.Revenue.IsZero())

	freeReg := &model.Registration{UserID: user.ID, EventID: free.ID}
	_, err = r.CreateRegistration(ctx, freeReg)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationPending, freeReg.Status)

	freePay := &model.Payment{RegistrationID: freeReg.ID, UserID: user.ID, Amount: decimal.Zero, Type: model.PaymentTypeFree}
	_, err = r.RecordPaymentTx(ctx, freePay, nil)
	require.NoError(t, err)
	assert.Nil(t, freePay.CardID)
	assert.NotEmpty(t, freePay.TxnID)

	paidReg := &model.Registration{UserID: user.ID, EventID: paid.ID}
	_, err = r.CreateRegistration(ctx, paidReg)
	require.NoError(t, err)

	card := &model.SavedCard{UserID: user.ID, HolderName: "Jane Doe", CardNumberEncrypted: "enc-num", CVVEncrypted: "enc-cvv", ExpiryDate: "12/29"}
	paidPay := &model.Payment{RegistrationID: paidReg.ID, UserID: user.ID, Amount: paid.Price, Type: model.PaymentTypeSaved}
	_, err = r.RecordPaymentTx(ctx, paidPay, card)
	require.NoError(t, err)
	require.NotNil(t, paidPay.CardID)
	assert.Equal(t, card.ID, *paidPay.CardID)

	cards, err := r.ListSavedCards(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "enc-num", cards[0].CardNumberEncrypted)

	got, err := r.GetSavedCard(ctx, user.ID, card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.HolderName)
	_, err = r.GetSavedCard(ctx, org.ID, card.ID)
	assert.ErrorIs(t, err, ErrCardNotFound)

	updated, err := r.GetRegistrationByID(ctx, paidReg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationSuccess, updated.Status)

	_, err = r.RecordPaymentTx(ctx, &model.Payment{RegistrationID: paidReg.ID, UserID: user.ID, Amount: paid.Price, Type: model.PaymentTypeOneTime}, nil)
	assert.ErrorIs(t, err, ErrAlreadyPaid)

	_, err = r.RecordPaymentTx(ctx, &model.Payment{RegistrationID: paidReg.ID, UserID: org.ID, Amount: paid.Price, Type: model.PaymentTypeOneTime}, nil)
	assert.ErrorIs(t, err, ErrRegistrationNotFound)

	// an abandoned second attempt counts as a registration but adds no revenue
	_, err = r.CreateRegistration(ctx, &model.Registration{UserID: user.ID, EventID: paid.ID})
	require.NoError(t, err)

	stats, err = r.EventStats(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Registrations)
	assert.True(t, decimal.RequireFromString("25.00").Equal(stats.Revenue), stats.Revenue.String())

	stats, err = r.EventStats(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Registrations)
	assert.True(t, stats.Revenue.IsZero())
}

func TestRepository_RecordPaymentRollsBackCardOnFailure(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	user := seedUser(t, r, "jane@x.com", model.RoleUser)

	card := &model.SavedCard{UserID: user.ID, HolderName: "Jane Doe", CardNumberEncrypted: "n", CVVEncrypted: "c"}
	_, err := r.RecordPaymentTx(ctx, &model.Payment{RegistrationID: 12345, UserID: user.ID, Type: model.PaymentTypeSaved}, card)
	require.ErrorIs(t, err, ErrRegistrationNotFound)

	cards, err := r.ListSavedCards(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestRepository_RegisterFreeTx(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	org := seedUser(t, r, "admin@x.com", model.RoleAdmin)
	user := seedUser(t, r, "jane@x.com", model.RoleUser)
	free := seedEvent(t, r, org.ID, "Free talk", "2026-11-01", "10:00", "0.00")

	reg := &model.Registration{UserID: user.ID, EventID: free.ID, ContactName: "Jane Doe", ContactEmail: "jane@x.com"}
	pay := &model.Payment{Amount: decimal.Zero, Type: model.PaymentTypeFree}
	require.NoError(t, r.RegisterFreeTx(ctx, reg, pay))
	assert.NotZero(t, reg.ID)
	assert.Equal(t, model.RegistrationSuccess, reg.Status)
	assert.Equal(t, reg.ID, pay.RegistrationID)
	assert.NotEmpty(t, pay.TxnID)

	stored, err := r.GetRegistrationByID(ctx, reg.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationSuccess, stored.Status)

	// a payment row postgres rejects leaves no registration behind
	broken := &model.Registration{UserID: user.ID, EventID: free.ID, ContactName: "Jane Doe", ContactEmail: "jane@x.com"}
	err = r.RegisterFreeTx(ctx, broken, &model.Payment{Amount: decimal.Zero, Type: model.PaymentTypeFree, TxnID: "not-a-uuid"})
	require.Error(t, err)

	stats, err := r.EventStats(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Registrations)
}

func TestRepository_ListUserRegistrations(t *testing.T) {
	r, _ := setupRepo(t)
	ctx := context.Background()

	org := seedUser(t, r, "admin@x.com", model.RoleAdmin)
	user := seedUser(t, r, "jane@x.com", model.RoleUser)
	paid := seedEvent(t, r, org.ID, "Paid workshop", "2026-11-02", "10:00", "25.00")
	free := seedEvent(t, r, org.ID, "Free talk", "2026-11-01", "10:00", "0")

	first := &model.Registration{UserID: user.ID, EventID: paid.ID}
	_, err := r.CreateRegistration(ctx, first)
	require.NoError(t, err)

	second := &model.Registration{UserID: user.ID, EventID: paid.ID}
	_, err = r.CreateRegistration(ctx, second)
	require.NoError(t, err)
	_, err = r.RecordPaymentTx(ctx, &model.Payment{RegistrationID: second.ID, UserID: user.ID, Amount: paid.Price, Type: model.PaymentTypeOneTime}, nil)
	require.NoError(t, err)

	freeReg := &model.Registration{UserID: user.ID, EventID: free.ID}
	_, err = r.CreateRegistration(ctx, freeReg)
	require.NoError(t, err)

	regs, err := r.ListUserRegistrations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, regs, 2)

	assert.Equal(t, free.ID, regs[0].EventID)
	assert.Equal(t, model.RegistrationPending, regs[0].RegistrationStatus)
	assert.Nil(t, regs[0].PaymentStatus)

	assert.Equal(t, second.ID, regs[1].RegistrationID)
	assert.Equal(t, model.RegistrationSuccess, regs[1].RegistrationStatus)
	require.NotNil(t, regs[1].PaymentStatus)
	assert.Equal(t, model.PaymentSuccess, *regs[1].PaymentStatus)

	none, err := r.ListUserRegistrations(ctx, org.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
