package updater

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"welcome-screen-backend/config"
	"welcome-screen-backend/internal/display"
	"welcome-screen-backend/internal/model"
	"welcome-screen-backend/internal/notification"
	"welcome-screen-backend/internal/occupancy"
	"welcome-screen-backend/internal/parse"
	"welcome-screen-backend/internal/store"
)

// ErrNoUsableRecords means neither the download nor the snapshot produced a
// single reservation, so there is nothing to resolve.
var ErrNoUsableRecords = errors.New("no usable reservations")

// Fetcher retrieves the current reservations export.
type Fetcher interface {
	Fetch(ctx context.Context) (string, error)
}

// Service runs update passes: load reservations, pick the guest, publish
// the welcome message. Passes never overlap.
type Service struct {
	fetcher   Fetcher
	snapshot  store.Store
	resolver  *occupancy.Resolver
	composer  parse.Composer
	publisher display.Publisher
	notifier  notification.Notifier
	clock     occupancy.Clock
	interval  time.Duration

	runMu sync.Mutex

	statusMu      sync.RWMutex
	last          *model.SyncStatus
	lastPublished string
	hooks         []func(model.SyncStatus)
}

// NewService wires an updater. fetcher may be nil to read only the snapshot.
func NewService(cfg *config.Config, fetcher Fetcher, snapshot store.Store, publisher display.Publisher, notifier notification.Notifier, clock occupancy.Clock) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	return &Service{
		fetcher:  fetcher,
		snapshot: snapshot,
		resolver: occupancy.NewResolver(occupancy.Policy{
			CheckinCutoff:             cfg.Resolver.Cutoff,
			VacantName:                cfg.Resolver.VacantName,
			ShowReservationWhenVacant: cfg.Resolver.ShowFallback(),
		}),
		composer:  parse.Composer{City: cfg.Resolver.City, Limit: cfg.Resolver.MessageLimit},
		publisher: publisher,
		notifier:  notifier,
		clock:     clock,
		interval:  cfg.Fetcher.Interval,
	}
}

// Run performs a pass immediately and then once per interval until ctx ends.
func (s *Service) Run(ctx context.Context) {
	log.Println("Starting updater service...")

	s.RunOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Updater service shutting down.")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// RunOnce performs a single update pass and records its status.
func (s *Service) RunOnce(ctx context.Context) (model.SyncStatus, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	status := model.SyncStatus{
		RunID:     uuid.NewString(),
		StartedAt: s.clock.Now(),
		Source:    model.SourceNone,
	}
	log.Printf("Starting update %s at %s", status.RunID, status.StartedAt.Format("2006-01-02 15:04:05"))

	err := s.run(ctx, &status)
	if err != nil {
		status.Error = err.Error()
		log.Printf("Update %s failed: %v", status.RunID, err)
	} else {
		log.Printf("Update %s complete: %q", status.RunID, status.Message)
	}
	status.FinishedAt = s.clock.Now()

	s.statusMu.Lock()
	s.last = &status
	hooks := s.hooks
	s.statusMu.Unlock()

	for _, fn := range hooks {
		fn(status)
	}
	return status, err
}

// OnUpdate registers fn to be called with the status of every finished pass.
func (s *Service) OnUpdate(fn func(model.SyncStatus)) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.hooks = append(s.hooks, fn)
}

func (s *Service) run(ctx context.Context, status *model.SyncStatus) error {
	records, skipped, source := s.loadReservations(ctx)
	status.Source = source
	status.Records = len(records)
	status.Skipped = skipped
	if len(records) == 0 {
		return ErrNoUsableRecords
	}
	log.Printf("Loaded %d reservations from %s (%d rows skipped)", len(records), source, skipped)

	now := s.clock.Now()
	classes := occupancy.Classify(records, occupancy.Today(now))
	resolution := s.resolver.Decide(classes, occupancy.TimeOfDay(now))
	status.Resolution = &resolution
	s.logClassification(classes, resolution, now)

	message := s.composer.Compose(resolution.FirstName)
	status.Message = message
	log.Printf("Message: %q (%d chars)", message, len([]rune(message)))

	if err := s.publisher.Publish(ctx, message); err != nil {
		s.notifier.Dispatch(notification.Alert{
			Title: "Welcome screen update failed",
			Body:  fmt.Sprintf("Could not show %q: %v", message, err),
		})
		return fmt.Errorf("failed to publish welcome message: %w", err)
	}
	status.Published = true

	s.statusMu.Lock()
	previous := s.lastPublished
	s.lastPublished = message
	s.statusMu.Unlock()

	// The previous message lives in memory, so change alerts start with the
	// second pass of a long-running process. A run-once process only sends
	// failure alerts.
	if previous != "" && previous != message {
		s.notifier.Dispatch(notification.Alert{
			Title: "Welcome screen updated",
			Body:  fmt.Sprintf("%s (%s)", message, resolution.Reason),
		})
	}
	return nil
}

// loadReservations prefers a fresh download and falls back to the local
// snapshot when the download fails or yields nothing usable.
func (s *Service) loadReservations(ctx context.Context) ([]model.Reservation, int, model.Source) {
	if s.fetcher != nil {
		data, err := s.fetcher.Fetch(ctx)
		if err != nil {
			log.Printf("Download failed: %v; using local snapshot", err)
		} else {
			records, skipped, err := occupancy.IngestCSV(data)
			switch {
			case err != nil:
				log.Printf("Error reading downloaded export: %v", err)
			case len(records) == 0:
				log.Println("Downloaded export has no usable reservations; using local snapshot")
			default:
				s.saveSnapshot(ctx, data)
				return records, skipped, model.SourceDownload
			}
		}
	}

	if s.snapshot == nil {
		return nil, 0, model.SourceNone
	}
	data, err := s.snapshot.Load(ctx)
	if err != nil {
		log.Printf("Error loading snapshot: %v", err)
		return nil, 0, model.SourceNone
	}
	log.Printf("Using local snapshot %s", s.snapshot.Path())
	records, skipped, err := occupancy.IngestCSV(data)
	if err != nil {
		log.Printf("Error reading snapshot: %v", err)
		return nil, 0, model.SourceSnapshot
	}
	return records, skipped, model.SourceSnapshot
}

// saveSnapshot keeps the last usable download on disk. A failed write only
// costs the fallback, so it is logged and the pass goes on.
func (s *Service) saveSnapshot(ctx context.Context, data string) {
	if s.snapshot == nil {
		return
	}
	if _, err := s.snapshot.Save(ctx, data); err != nil {
		log.Printf("Error saving snapshot: %v", err)
	}
}

func (s *Service) logClassification(c occupancy.Classification, r model.Resolution, now time.Time) {
	log.Printf("%d active, %d checking out, %d checking in, %d other (%d undated)",
		len(c.Occupying), len(c.CheckingOut), len(c.CheckingIn), len(c.Other), c.Undated)

	switch {
	case c.HasTransitionCollision():
		priority := "checkin"
		if r.Rule == model.RuleCheckoutBeforeCutoff {
			priority = "checkout"
		}
		log.Printf("Transition day: %s (ends) -> %s (starts)", c.CheckingOut[0].FullName, c.CheckingIn[0].FullName)
		log.Printf("Current time: %s | Cutoff: %s | Priority: %s",
			now.Format("15:04"), formatCutoff(s.resolver.Policy.CheckinCutoff), priority)
	case len(c.Occupying) > 0:
		names := make([]string, 0, 2)
		for i := 0; i < len(c.Occupying) && i < 2; i++ {
			names = append(names, c.Occupying[i].FullName)
		}
		log.Printf("Active: %s", strings.Join(names, ", "))
	}
	log.Printf("Selected: %s -> %s (%s)", r.FullName, r.FirstName, r.Reason)
}

func formatCutoff(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04")
}

// LastStatus returns the status of the most recent pass.
func (s *Service) LastStatus() (model.SyncStatus, bool) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	if s.last == nil {
		return model.SyncStatus{}, false
	}
	return *s.last, true
}

// Preview composes the message a full guest name would produce.
func (s *Service) Preview(fullName string) (string, string) {
	first := parse.FirstName(fullName)
	return first, s.composer.Compose(first)
}
