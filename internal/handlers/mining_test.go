package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infofoot/nexo-backend/internal/config"
	"github.com/infofoot/nexo-backend/internal/models"
	"github.com/infofoot/nexo-backend/internal/repository"
	"github.com/infofoot/nexo-backend/internal/services"
)

// memStore backs the handler tests with an in-memory implementation of the
// mining, card and user repositories.
type memStore struct {
	mu       sync.Mutex
	records  map[string]models.MiningRecord
	index    map[string]models.MiningStart
	cards    map[string][]models.Card
	balances map[string]float64
}

func newMemStore() *memStore {
	return &memStore{
		records:  make(map[string]models.MiningRecord),
		index:    make(map[string]models.MiningStart),
		cards:    make(map[string][]models.Card),
		balances: make(map[string]float64),
	}
}

func (m *memStore) Record(ctx context.Context, userID string) (*models.MiningRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := rec
	return &cp, nil
}

func (m *memStore) SaveRecord(ctx context.Context, rec *models.MiningRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.UserID] = *rec
	return nil
}

func (m *memStore) SetAccrued(ctx context.Context, userID string, nxo float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.records[userID]; ok {
		rec.NXO = nxo
		m.records[userID] = rec
	}
	return nil
}

func (m *memStore) SetRateSnapshot(ctx context.Context, userID string, puissance, bonus float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[userID]
	rec.UserID = userID
	rec.Puissance = puissance
	rec.Bonus = bonus
	m.records[userID] = rec
	return nil
}

func (m *memStore) ActiveSessions(ctx context.Context) ([]models.MiningStart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.MiningStart
	for _, e := range m.index {
		out = append(out, e)
	}
	return out, nil
}

func (m *memStore) ActiveSession(ctx context.Context, userID string) (*models.MiningStart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.index[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := e
	return &cp, nil
}

func (m *memStore) PutActiveSession(ctx context.Context, entry *models.MiningStart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.index[entry.UserID] = *entry
	return nil
}

func (m *memStore) RemoveActiveSession(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.index, userID)
	return nil
}

func (m *memStore) ActiveCards(ctx context.Context, userID string) ([]models.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Card
	for _, c := range m.cards[userID] {
		if c.Active {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) Insert(ctx context.Context, card *models.Card) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards[card.UserID] = append(m.cards[card.UserID], *card)
	return nil
}

func (m *memStore) Create(ctx context.Context, u *models.User) error { return nil }

func (m *memStore) ByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (m *memStore) ByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return nil, repository.ErrNotFound
}

func (m *memStore) CreditBalance(ctx context.Context, id uuid.UUID, amount float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[id.String()] += amount
	return m.balances[id.String()], nil
}

func (m *memStore) AdminIDs(ctx context.Context) ([]string, error) { return nil, nil }

// nopCache always misses so handler tests read the store directly.
type nopCache struct{}

func (nopCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (nopCache) Set(ctx context.Context, key string, value interface{}) error { return nil }
func (nopCache) Delete(ctx context.Context, key string) error                 { return nil }

func setupHandlers(t *testing.T) *memStore {
	t.Helper()
	store := newMemStore()
	svc := services.NewMiningService(store, store, store, nopCache{}, nil,
		time.Hour, 5*time.Second, 0.3)
	Init(&config.Config{BaseMiningRate: 0.3}, svc, store, store)
	return store
}

func miningRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/mining-data/{userID}", GetMiningData)
	r.Get("/cards/{userID}", GetCards)
	r.Post("/update-mining-stats/{userID}", UpdateMiningStats)
	r.Post("/start-mining/{userID}", StartMining)
	r.Post("/collect-nxo/{userID}", CollectNxo)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return rr, body
}

func TestGetMiningDataUnknownUser(t *testing.T) {
	setupHandlers(t)
	r := miningRouter()

	rr, body := doRequest(t, r, http.MethodGet, "/mining-data/"+uuid.New().String())
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "No mining data for this user", body["message"])
}

func TestStartMiningAndReadBack(t *testing.T) {
	setupHandlers(t)
	r := miningRouter()
	uid := uuid.New().String()

	rr, body := doRequest(t, r, http.MethodPost, "/start-mining/"+uid)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	last := body["last-mining"].(float64)
	next := body["next-mining"].(float64)
	assert.Equal(t, time.Hour.Milliseconds(), int64(next-last))

	rr, body = doRequest(t, r, http.MethodGet, "/mining-data/"+uid)
	require.Equal(t, http.StatusOK, rr.Code)
	data := body["miningData"].(map[string]interface{})
	assert.Equal(t, 0.0, data["NXO"])
	assert.Equal(t, last, data["last-mining"])
	assert.Equal(t, next, data["next-mining"])
	assert.NotNil(t, data["remaining-ms"])
}

func TestStartMiningTwiceIsRejected(t *testing.T) {
	setupHandlers(t)
	r := miningRouter()
	uid := uuid.New().String()

	rr, _ := doRequest(t, r, http.MethodPost, "/start-mining/"+uid)
	require.Equal(t, http.StatusOK, rr.Code)

	rr, body := doRequest(t, r, http.MethodPost, "/start-mining/"+uid)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Mining session already in progress", body["message"])
}

func TestCollectNxo(t *testing.T) {
	store := setupHandlers(t)
	r := miningRouter()
	uid := uuid.New().String()

	rr, body := doRequest(t, r, http.MethodPost, "/collect-nxo/"+uid)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "No NXO to collect", body["message"])

	require.NoError(t, store.SaveRecord(context.Background(), &models.MiningRecord{
		UserID: uid, NXO: 1.25, Puissance: 0.3,
	}))

	rr, body = doRequest(t, r, http.MethodPost, "/collect-nxo/"+uid)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 1.25, body["updatedNxoCoin"])

	// Accrued amount is gone, so a retry is refused.
	rr, _ = doRequest(t, r, http.MethodPost, "/collect-nxo/"+uid)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateMiningStats(t *testing.T) {
	store := setupHandlers(t)
	r := miningRouter()
	uid := uuid.New().String()

	require.NoError(t, store.Insert(context.Background(), &models.Card{
		UserID: uid, Name: "drill", Puissance: 0.5, Bonus: 0.1, Active: true,
	}))

	rr, body := doRequest(t, r, http.MethodPost, "/update-mining-stats/"+uid)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0.5, body["puissance"])
	assert.Equal(t, 0.1, body["bonus"])
}

func TestGetCardsEmptyIsAnArray(t *testing.T) {
	setupHandlers(t)
	r := miningRouter()

	rr, body := doRequest(t, r, http.MethodGet, "/cards/"+uuid.New().String())
	require.Equal(t, http.StatusOK, rr.Code)
	cardsVal, ok := body["activeCards"].([]interface{})
	require.True(t, ok, "activeCards must be an array, not null")
	assert.Empty(t, cardsVal)
}
