package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCheckout() Checkout {
	return Checkout{
		RegistrationID: 7,
		EventID:        3,
		EventTitle:     "Go Workshop",
		Amount:         decimal.RequireFromString("25.00"),
		CreatedAt:      time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_PutUsesTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, 15*time.Minute)

	c := sampleCheckout()
	data, err := json.Marshal(c)
	require.NoError(t, err)

	mock.ExpectSet("checkout:42", data, 15*time.Minute).SetVal("OK")

	require.NoError(t, store.Put(context.Background(), 42, c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, 0)
	assert.Equal(t, DefaultTTL, store.TTL())

	c := sampleCheckout()
	data, err := json.Marshal(c)
	require.NoError(t, err)

	mock.ExpectGet("checkout:42").SetVal(string(data))

	got, err := store.Get(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, c.RegistrationID, got.RegistrationID)
	assert.Equal(t, c.EventTitle, got.EventTitle)
	assert.True(t, c.Amount.Equal(got.Amount))
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectGet("checkout:42").RedisNil()

	_, err := store.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNoCheckout)
}

func TestStore_GetRedisDown(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectGet("checkout:42").SetErr(errors.New("connection refused"))

	_, err := store.Get(context.Background(), 42)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCheckout)
}

func TestStore_GetCorrupt(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectGet("checkout:42").SetVal("{not json")

	_, err := store.Get(context.Background(), 42)
	assert.Error(t, err)
}

func TestStore_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewStore(db, time.Minute)

	mock.ExpectDel("checkout:42").SetVal(1)

	require.NoError(t, store.Delete(context.Background(), 42))
	assert.NoError(t, mock.ExpectationsWereMet())
}
