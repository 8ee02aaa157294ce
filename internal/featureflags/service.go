package featureflags

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the feature flag service.
type ServiceConfig struct {
	Repository   Repository
	Logger       zerolog.Logger
	CacheTTL     time.Duration // How long to cache flags in memory
	DefaultFlags map[string]*Flag
	Clock        clockwork.Clock
}

// Service provides feature flag evaluation with caching and fallback to defaults.
// Repository failures never fail a lookup; the default value is used instead.
type Service struct {
	repo         Repository
	logger       zerolog.Logger
	cacheTTL     time.Duration
	defaultFlags map[string]*Flag
	clock        clockwork.Clock

	mu          sync.RWMutex
	cache       map[string]*Flag
	cacheExpiry time.Time
}

// NewService creates a new feature flag service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 30 * time.Second
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	defaultFlags := cfg.DefaultFlags
	if defaultFlags == nil {
		defaultFlags = DefaultFlags(clock.Now())
	}

	return &Service{
		repo:         cfg.Repository,
		logger:       cfg.Logger,
		cacheTTL:     cacheTTL,
		defaultFlags: defaultFlags,
		clock:        clock,
		cache:        make(map[string]*Flag),
	}
}

// GetFlag retrieves a feature flag by key.
// Uses the cached value while fresh, then the repository, then the defaults.
func (s *Service) GetFlag(ctx context.Context, key string) *Flag {
	if flag := s.getCached(key); flag != nil {
		return flag
	}

	if s.repo != nil {
		flag, err := s.repo.GetFlag(ctx, key)
		if err == nil {
			s.setCached(key, flag)
			return flag
		}
		if !errors.Is(err, ErrFlagNotFound) {
			s.logger.Warn().Err(err).Str("flag", key).Msg("failed to get feature flag from repository")
		}
	}

	if defaultFlag, ok := s.defaultFlags[key]; ok {
		return defaultFlag
	}
	return nil
}

// GetAllFlags returns repository flags merged over the defaults.
func (s *Service) GetAllFlags(ctx context.Context) map[string]*Flag {
	result := make(map[string]*Flag, len(s.defaultFlags))
	for k, v := range s.defaultFlags {
		result[k] = v
	}

	if s.repo == nil {
		return result
	}

	flags, err := s.repo.GetAllFlags(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to get feature flags from repository, using defaults")
		return result
	}

	for k, v := range flags {
		result[k] = v
	}

	s.mu.Lock()
	s.cache = flags
	s.cacheExpiry = s.clock.Now().Add(s.cacheTTL)
	s.mu.Unlock()

	return result
}

// List returns GetAllFlags ordered by key.
func (s *Service) List(ctx context.Context) []*Flag {
	all := s.GetAllFlags(ctx)
	list := make([]*Flag, 0, len(all))
	for _, f := range all {
		list = append(list, f)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list
}

// SetFlag updates a feature flag.
func (s *Service) SetFlag(ctx context.Context, flag *Flag) error {
	if s.repo == nil {
		return errors.New("feature flag repository not configured")
	}

	flag.UpdatedAt = s.clock.Now()
	if err := s.repo.SetFlag(ctx, flag); err != nil {
		return err
	}

	s.setCached(flag.Key, flag)
	s.logger.Info().Str("flag", flag.Key).Interface("value", flag.Value).Msg("feature flag updated")
	return nil
}

// SetFlags updates multiple feature flags atomically.
func (s *Service) SetFlags(ctx context.Context, flags []*Flag) error {
	if s.repo == nil {
		return errors.New("feature flag repository not configured")
	}

	now := s.clock.Now()
	for _, flag := range flags {
		flag.UpdatedAt = now
	}

	if err := s.repo.SetFlags(ctx, flags); err != nil {
		return err
	}

	s.mu.Lock()
	for _, flag := range flags {
		s.cache[flag.Key] = flag
	}
	s.mu.Unlock()

	return nil
}

// InvalidateCache clears the cached flags, forcing a refresh on next access.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*Flag)
	s.cacheExpiry = time.Time{}
}

// IsEnabled returns true if the flag with the given key is truthy.
// Unknown flags are off.
func (s *Service) IsEnabled(ctx context.Context, key string) bool {
	if s == nil {
		return false
	}
	return s.GetFlag(ctx, key).BoolValue(false)
}

// ArePredictionsDisabled reports whether the prediction kill switch is on.
func (s *Service) ArePredictionsDisabled(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagDisablePredictions)
}

// IsBatchAssessmentPaused reports whether the worker should skip assessment jobs.
func (s *Service) IsBatchAssessmentPaused(ctx context.Context) bool {
	return s.IsEnabled(ctx, FlagPauseBatchAssessment)
}

// ActiveFlags returns the keys of all enabled boolean flags, sorted.
func (s *Service) ActiveFlags(ctx context.Context) []string {
	var active []string
	for _, f := range s.List(ctx) {
		if f.BoolValue(false) {
			active = append(active, f.Key)
		}
	}
	return active
}

func (s *Service) getCached(key string) *Flag {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.clock.Now().After(s.cacheExpiry) {
		return nil
	}
	return s.cache[key]
}

func (s *Service) setCached(key string, flag *Flag) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = flag
	if now := s.clock.Now(); s.cacheExpiry.Before(now) {
		s.cacheExpiry = now.Add(s.cacheTTL)
	}
}
