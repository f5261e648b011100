package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// Service is the digest store and freshness gate. It suppresses
// regeneration while a fresh digest exists, which is the primary cost
// control and idempotence mechanism against repeated scheduler triggers.
type Service struct {
	store         store.Store
	assembler     *Assembler
	freshness     time.Duration
	loc           *time.Location
	morningHour   int
	afternoonHour int
}

// NewService creates a digest service from configuration.
func NewService(s store.Store, a *Assembler, cfg model.DigestConfig, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	freshness := time.Duration(cfg.FreshnessHours) * time.Hour
	if freshness <= 0 {
		freshness = 12 * time.Hour
	}
	return &Service{
		store:         s,
		assembler:     a,
		freshness:     freshness,
		loc:           loc,
		morningHour:   cfg.MorningHour,
		afternoonHour: cfg.AfternoonHour,
	}
}

// GetOrCreate returns the user's current digest for the given type. A
// digest generated inside the freshness window is returned as-is with no
// summarization call; otherwise a new one is assembled and persisted.
// The boolean reports whether a new digest was created.
func (s *Service) GetOrCreate(ctx context.Context, userID string, digestType model.DigestType, now time.Time) (*model.Digest, bool, error) {
	existing, err := s.store.LatestDigest(ctx, userID, digestType, now.Add(-s.freshness))
	if err != nil {
		return nil, false, fmt.Errorf("checking digest freshness for user %s: %w", userID, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("loading user %s: %w", userID, err)
	}

	payload, err := s.assembler.Assemble(ctx, *user, digestType, now)
	if err != nil {
		return nil, false, err
	}

	created, err := s.store.CreateDigest(ctx, model.Digest{
		UserID:      userID,
		DigestType:  digestType,
		GeneratedAt: now.UTC(),
		Payload:     payload,
	})
	if err != nil {
		return nil, false, fmt.Errorf("persisting digest for user %s: %w", userID, err)
	}
	return created, true, nil
}

// MarkRead records the first read of a digest. Idempotent: repeated
// calls never move read_at.
func (s *Service) MarkRead(ctx context.Context, digestID string) error {
	return s.store.MarkDigestRead(ctx, digestID, time.Now())
}

// NextSlot returns the next scheduled digest slot after now, for client
// display.
func (s *Service) NextSlot(now time.Time) time.Time {
	return NextSlot(now, s.loc, s.morningHour, s.afternoonHour)
}

// SlotType maps the current local time onto the digest type an on-demand
// read should produce: morning until the afternoon slot, afternoon after.
func (s *Service) SlotType(now time.Time) model.DigestType {
	if now.In(s.loc).Hour() < s.afternoonHour {
		return model.DigestMorning
	}
	return model.DigestAfternoon
}
