package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/infofoot/nexo-backend/internal/models"
	"github.com/infofoot/nexo-backend/internal/repository"
)

// Sweep advances every active mining session by one tick and finalizes
// the ones whose deadline has passed. One user's failure never aborts the
// sweep for the rest. The caller guarantees sweeps do not overlap by
// keeping the tick period above the worst-case sweep duration.
func (s *MiningService) Sweep(ctx context.Context) {
	entries, err := s.records.ActiveSessions(ctx)
	if err != nil {
		log.Printf("mining sweep: failed to list active sessions: %v", err)
		return
	}

	nowMS := s.now().UnixMilli()
	for i := range entries {
		if err := s.sweepOne(ctx, &entries[i], nowMS); err != nil {
			log.Printf("mining sweep: user %s: %v", entries[i].UserID, err)
		}
	}
}

func (s *MiningService) sweepOne(ctx context.Context, entry *models.MiningStart, nowMS int64) error {
	rec, err := s.records.Record(ctx, entry.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Orphaned index entry; drop it.
			return s.records.RemoveActiveSession(ctx, entry.UserID)
		}
		return err
	}

	if nowMS >= entry.Next {
		return s.finalize(ctx, entry, rec)
	}

	// Advance: the per-tick gain is the sole accrual mechanism; GetState
	// never interpolates from elapsed time.
	updated := rec.NXO + s.gainPerTick(entry.TotalS)
	if err := s.records.SetAccrued(ctx, entry.UserID, updated); err != nil {
		return err
	}

	s.invalidate(ctx, entry.UserID)
	rec.NXO = updated
	s.publish(ctx, EventMiningUpdate, rec)
	return nil
}

// finalize closes a session: it reconciles incremental drift against the
// closed-form entitlement and removes the active-index entry. The
// adjustment is add-only; an overshoot is left alone, never clawed back.
func (s *MiningService) finalize(ctx context.Context, entry *models.MiningStart, rec *models.MiningRecord) error {
	if entry.Total > rec.NXO {
		rec.NXO = entry.Total
		if err := s.records.SetAccrued(ctx, entry.UserID, rec.NXO); err != nil {
			return err
		}
	}

	if err := s.records.RemoveActiveSession(ctx, entry.UserID); err != nil {
		return err
	}

	s.invalidate(ctx, entry.UserID)
	s.publish(ctx, EventMiningComplete, rec)
	return nil
}

// StartSweep launches the background ticker goroutine. It stops when the
// context is cancelled.
func (s *MiningService) StartSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.tickPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep(ctx)
			}
		}
	}()
}
