package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/quizhall/quizhall-backend/internal/model"
	"github.com/quizhall/quizhall-backend/internal/repository"
	"github.com/quizhall/quizhall-backend/internal/service"
)

// DeadlineWorker periodically sweeps for STARTED attempts whose countdown or
// session window has run out and force-submits them server-side. Clients get
// a courtesy timer over the WebSocket, but this sweep is the authority: a
// closed laptop lid does not buy extra time.
type DeadlineWorker struct {
	attemptRepo    *repository.AttemptRepository
	sessionRepo    *repository.SessionRepository
	attemptService *service.AttemptService
	interval       time.Duration
	log            zerolog.Logger
}

// NewDeadlineWorker creates a new DeadlineWorker.
func NewDeadlineWorker(
	attemptRepo *repository.AttemptRepository,
	sessionRepo *repository.SessionRepository,
	attemptService *service.AttemptService,
	interval time.Duration,
	log zerolog.Logger,
) *DeadlineWorker {
	return &DeadlineWorker{
		attemptRepo:    attemptRepo,
		sessionRepo:    sessionRepo,
		attemptService: attemptService,
		interval:       interval,
		log:            log.With().Str("component", "deadline_worker").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine.
func (w *DeadlineWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// One last sweep so nothing expired rides out the restart.
			w.sweep(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep finds expired attempts and auto-submits each. AutoSubmit is
// idempotent, so overlap with a manual submission or a second instance of
// this worker is harmless.
func (w *DeadlineWorker) sweep(ctx context.Context) {
	now := time.Now()

	expired, err := w.attemptRepo.ListExpired(ctx, now)
	if err != nil {
		w.log.Error().Err(err).Msg("Expired sweep query failed")
		return
	}
	if len(expired) == 0 {
		return
	}

	submitted := 0
	for i := range expired {
		a := &expired[i]

		trigger := model.TriggerTimer
		session, err := w.sessionRepo.GetByID(ctx, a.SessionID)
		if err == nil && now.After(session.EndAt) {
			trigger = model.TriggerWindow
		}

		if err := w.attemptService.AutoSubmit(ctx, a, trigger); err != nil {
			w.log.Error().Err(err).
				Str("attempt_id", a.ID.String()).
				Msg("Auto-submit failed, will retry next sweep")
			continue
		}
		submitted++
	}

	w.log.Info().
		Int("submitted", submitted).
		Int("expired", len(expired)).
		Msg("Deadline sweep complete")
}
