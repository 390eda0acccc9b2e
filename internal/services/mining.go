package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/infofoot/nexo-backend/internal/models"
	"github.com/infofoot/nexo-backend/internal/repository"
)

// MiningService owns the accrual/settlement engine: rate computation,
// session start/collect, the read projection, and the periodic sweep
// (sweep.go). It is safe for concurrent use because every operation is a
// small set of independent field-level writes; see the interleaving notes
// on StartMining and CollectNxo.
type MiningService struct {
	records repository.MiningRepository
	cards   repository.CardRepository
	users   repository.UserRepository
	cache   Cache
	events  EventPublisher

	sessionDuration time.Duration
	tickPeriod      time.Duration
	baseRate        float64

	// now is swappable so tests can drive the clock.
	now func() time.Time
}

func NewMiningService(
	records repository.MiningRepository,
	cards repository.CardRepository,
	users repository.UserRepository,
	cache Cache,
	events EventPublisher,
	sessionDuration, tickPeriod time.Duration,
	baseRate float64,
) *MiningService {
	if sessionDuration <= 0 {
		sessionDuration = time.Hour
	}
	if tickPeriod <= 0 {
		tickPeriod = 5 * time.Second
	}
	if baseRate <= 0 {
		baseRate = 0.3
	}
	return &MiningService{
		records:         records,
		cards:           cards,
		users:           users,
		cache:           cache,
		events:          events,
		sessionDuration: sessionDuration,
		tickPeriod:      tickPeriod,
		baseRate:        baseRate,
		now:             time.Now,
	}
}

func (s *MiningService) ticksPerHour() float64 {
	return 3600 / s.tickPeriod.Seconds()
}

func (s *MiningService) ticksPerSession() float64 {
	return s.sessionDuration.Seconds() / s.tickPeriod.Seconds()
}

// gainPerTick is the NXO added by one sweep tick at the given hourly rate.
func (s *MiningService) gainPerTick(rate float64) float64 {
	return rate / s.ticksPerHour()
}

// sessionTotal is the full entitlement for one session at the given rate.
// Computed through the per-tick gain rather than rate×hours so that it
// matches the incremental path's rounding exactly.
func (s *MiningService) sessionTotal(rate float64) float64 {
	return s.gainPerTick(rate) * s.ticksPerSession()
}

// ComputeRate sums puissance and bonus over the user's active cards and,
// when no session is running, persists the snapshot into the mining record
// so that observers see a representative projected rate. A user with no
// active card still gets the starter base rate.
func (s *MiningService) ComputeRate(ctx context.Context, userID string) (puissance, bonus float64, err error) {
	cards, err := s.cards.ActiveCards(ctx, userID)
	if err != nil {
		return 0, 0, err
	}

	for _, c := range cards {
		puissance += c.Puissance
		bonus += c.Bonus
	}
	if len(cards) == 0 {
		puissance, bonus = s.baseRate, 0
	}

	rec, err := s.records.Record(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, 0, err
	}

	// Rate snapshots are fixed for a session's lifetime; only an idle
	// record may be rewritten.
	if rec == nil || !rec.ActiveAt(s.now().UnixMilli()) {
		if err := s.records.SetRateSnapshot(ctx, userID, puissance, bonus); err != nil {
			return 0, 0, err
		}
		s.invalidate(ctx, userID)
	}

	return puissance, bonus, nil
}

// StartMining begins a new session. The active-index entry is written
// before the record reset: a sweep racing this call sees either no entry
// yet (skips the user) or a fresh entry with a future deadline (adds one
// harmless sub-tick gain that the record reset overwrites).
func (s *MiningService) StartMining(ctx context.Context, userID string) (*models.MiningRecord, error) {
	now := s.now()
	nowMS := now.UnixMilli()

	rec, err := s.records.Record(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		// No record yet (pre-engine account): seed one from the cards.
		p, b, cerr := s.ComputeRate(ctx, userID)
		if cerr != nil {
			return nil, cerr
		}
		rec = &models.MiningRecord{UserID: userID, Puissance: p, Bonus: b}
	}

	if rec.ActiveAt(nowMS) {
		return nil, ErrAlreadyActive
	}

	rate := rec.Puissance + rec.Bonus
	if rate <= 0 {
		rec.Puissance, rec.Bonus = s.baseRate, 0
		rate = s.baseRate
	}

	deadline := now.Add(s.sessionDuration).UnixMilli()

	entry := &models.MiningStart{
		UserID: userID,
		Total:  s.sessionTotal(rate),
		TotalS: rate,
		Next:   deadline,
	}
	if err := s.records.PutActiveSession(ctx, entry); err != nil {
		return nil, err
	}

	started := &models.MiningRecord{
		UserID:     userID,
		NXO:        0,
		LastMining: nowMS,
		NextMining: deadline,
		Puissance:  rec.Puissance,
		Bonus:      rec.Bonus,
		Carte:      rec.Carte,
	}
	if err := s.records.SaveRecord(ctx, started); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	s.publish(ctx, EventMiningStarted, started)

	return started, nil
}

// CollectNxo moves the accrued amount into the settled balance and zeroes
// the record. It is deadline-agnostic: whatever has accrued right now is
// collected. A collect racing a finalize can miss the finalize's drift
// adjustment; the window is bounded by one tick period.
func (s *MiningService) CollectNxo(ctx context.Context, userID string) (float64, error) {
	rec, err := s.records.Record(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrNothingToCollect
		}
		return 0, err
	}

	if rec.NXO <= 0 {
		return 0, ErrNothingToCollect
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return 0, repository.ErrNotFound
	}

	newBalance, err := s.users.CreditBalance(ctx, id, rec.NXO)
	if err != nil {
		return 0, err
	}

	if err := s.records.SetAccrued(ctx, userID, 0); err != nil {
		// The balance is already credited but the record still shows the
		// accrued amount, so a retry would credit twice. Log loudly; there
		// is no rollback path without multi-store transactions.
		log.Printf("collect: credited %s but failed to reset accrued: %v", userID, err)
		return 0, err
	}

	s.invalidate(ctx, userID)
	rec.NXO = 0
	s.publish(ctx, EventNxoCollected, rec)

	return newBalance, nil
}

// MiningData returns the cache-first read projection of the user's record,
// with the remaining session time derived when one is running.
func (s *MiningService) MiningData(ctx context.Context, userID string) (*models.MiningData, error) {
	key := MiningDataKey(userID)

	var rec models.MiningRecord
	hit, err := s.cache.Get(ctx, key, &rec)
	if err != nil {
		return nil, err
	}
	if !hit {
		loaded, err := s.records.Record(ctx, userID)
		if err != nil {
			return nil, err
		}
		rec = *loaded
		if err := s.cache.Set(ctx, key, rec); err != nil {
			log.Printf("failed to cache mining data for %s: %v", userID, err)
		}
	}

	data := &models.MiningData{MiningRecord: rec}
	if nowMS := s.now().UnixMilli(); rec.ActiveAt(nowMS) {
		remaining := rec.NextMining - nowMS
		data.RemainingMS = &remaining
	}
	return data, nil
}

// ActiveCards returns the user's currently active upgrade cards.
func (s *MiningService) ActiveCards(ctx context.Context, userID string) ([]models.Card, error) {
	return s.cards.ActiveCards(ctx, userID)
}

func (s *MiningService) invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, MiningDataKey(userID)); err != nil {
		log.Printf("failed to invalidate mining cache for %s: %v", userID, err)
	}
}

func (s *MiningService) publish(ctx context.Context, eventType string, rec *models.MiningRecord) {
	if s.events == nil {
		return
	}

	data := &models.MiningData{MiningRecord: *rec}
	if nowMS := s.now().UnixMilli(); rec.ActiveAt(nowMS) {
		remaining := rec.NextMining - nowMS
		data.RemainingMS = &remaining
	}

	evt := MiningEvent{
		Type:      eventType,
		UserID:    rec.UserID,
		Data:      data,
		Timestamp: s.now().UTC(),
	}
	if err := s.events.PublishMiningEvent(ctx, evt); err != nil {
		log.Printf("failed to publish %s event for %s: %v", eventType, rec.UserID, err)
	}
}
