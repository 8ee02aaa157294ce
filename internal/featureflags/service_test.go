package featureflags_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/featureflags"
)

func newTestService(repo featureflags.Repository, clock clockwork.Clock) *featureflags.Service {
	return featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   1 * time.Minute,
		Clock:      clock,
	})
}

func TestService_GetFlag(t *testing.T) {
	service := newTestService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	flag := service.GetFlag(ctx, featureflags.FlagDisablePredictions)
	if flag == nil {
		t.Fatal("expected flag to be returned")
	}
	if flag.Key != featureflags.FlagDisablePredictions {
		t.Errorf("expected key %q, got %q", featureflags.FlagDisablePredictions, flag.Key)
	}
	if flag.BoolValue(true) {
		t.Error("expected disable_predictions to be false by default")
	}
	if flag.Description == "" {
		t.Error("expected default flag to carry a description")
	}
}

func TestService_SetFlag(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	service := newTestService(featureflags.NewInMemoryRepository(), clock)
	ctx := context.Background()

	err := service.SetFlag(ctx, &featureflags.Flag{
		Key:   featureflags.FlagDisablePredictions,
		Value: true,
	})
	if err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	flag := service.GetFlag(ctx, featureflags.FlagDisablePredictions)
	if flag == nil {
		t.Fatal("expected flag to be returned")
	}
	if !flag.BoolValue(false) {
		t.Error("expected disable_predictions to be true after update")
	}
	if !flag.UpdatedAt.Equal(clock.Now()) {
		t.Errorf("expected UpdatedAt %v, got %v", clock.Now(), flag.UpdatedAt)
	}
	if !service.ArePredictionsDisabled(ctx) {
		t.Error("expected predictions to be disabled")
	}
}

func TestService_SetFlags(t *testing.T) {
	service := newTestService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	err := service.SetFlags(ctx, []*featureflags.Flag{
		{Key: featureflags.FlagForceSimulatedModel, Value: true},
		{Key: featureflags.FlagPauseBatchAssessment, Value: true},
	})
	if err != nil {
		t.Fatalf("failed to set flags: %v", err)
	}

	if !service.IsEnabled(ctx, featureflags.FlagForceSimulatedModel) {
		t.Error("expected simulated model to be forced")
	}
	if !service.IsBatchAssessmentPaused(ctx) {
		t.Error("expected batch assessment to be paused")
	}
}

func TestService_GetAllFlags(t *testing.T) {
	service := newTestService(featureflags.NewInMemoryRepository(), nil)
	flags := service.GetAllFlags(context.Background())

	for _, key := range []string{
		featureflags.FlagDisablePredictions,
		featureflags.FlagForceSimulatedModel,
		featureflags.FlagPauseBatchAssessment,
	} {
		if _, ok := flags[key]; !ok {
			t.Errorf("expected flag %q to be present", key)
		}
	}
}

func TestService_ListAndActiveFlags(t *testing.T) {
	service := newTestService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	if err := service.SetFlag(ctx, &featureflags.Flag{Key: "zz_custom", Value: true}); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if err := service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisablePredictions, Value: true}); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	list := service.List(ctx)
	for i := 1; i < len(list); i++ {
		if list[i-1].Key >= list[i].Key {
			t.Fatalf("list not sorted: %q before %q", list[i-1].Key, list[i].Key)
		}
	}

	active := service.ActiveFlags(ctx)
	want := []string{featureflags.FlagDisablePredictions, "zz_custom"}
	if len(active) != len(want) {
		t.Fatalf("ActiveFlags() = %v, want %v", active, want)
	}
	for i := range want {
		if active[i] != want[i] {
			t.Errorf("ActiveFlags()[%d] = %q, want %q", i, active[i], want[i])
		}
	}
}

func TestService_InvalidateCache(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	service := featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		CacheTTL:   1 * time.Hour,
	})
	ctx := context.Background()

	// Populate the cache.
	_ = service.GetFlag(ctx, featureflags.FlagDisablePredictions)

	// Update the repository directly, bypassing the service.
	_ = repo.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisablePredictions, Value: true})

	if service.ArePredictionsDisabled(ctx) {
		t.Error("expected cached value before invalidation")
	}

	service.InvalidateCache()

	if !service.ArePredictionsDisabled(ctx) {
		t.Error("expected updated value after cache invalidation")
	}
}

func TestService_CacheExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := featureflags.NewInMemoryRepository()
	service := newTestService(repo, clock)
	ctx := context.Background()

	_ = service.GetFlag(ctx, featureflags.FlagForceSimulatedModel)
	_ = repo.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagForceSimulatedModel, Value: true})

	if service.IsEnabled(ctx, featureflags.FlagForceSimulatedModel) {
		t.Error("expected cached value within TTL")
	}

	clock.Advance(2 * time.Minute)

	if !service.IsEnabled(ctx, featureflags.FlagForceSimulatedModel) {
		t.Error("expected fresh value after TTL")
	}
}

type failingRepository struct{}

var errRepoDown = errors.New("connection refused")

func (failingRepository) SetFlags(context.Context, []*featureflags.Flag) error {
	return errRepoDown
}

func (failingRepository) DeleteFlag(context.Context, string) error {
	return errRepoDown
}

func (failingRepository) GetFlag(context.Context, string) (*featureflags.Flag, error) {
	return nil, errRepoDown
}

func (failingRepository) GetAllFlags(context.Context) (map[string]*featureflags.Flag, error) {
	return nil, errRepoDown
}

func (failingRepository) SetFlag(context.Context, *featureflags.Flag) error {
	return errRepoDown
}

func TestService_RepositoryFailureFallsBackToDefaults(t *testing.T) {
	service := newTestService(failingRepository{}, nil)
	ctx := context.Background()

	if service.ArePredictionsDisabled(ctx) {
		t.Error("expected default value when repository fails")
	}
	if got := len(service.GetAllFlags(ctx)); got != 3 {
		t.Errorf("expected 3 default flags, got %d", got)
	}

	err := service.SetFlag(ctx, &featureflags.Flag{Key: featureflags.FlagDisablePredictions, Value: true})
	if !errors.Is(err, errRepoDown) {
		t.Errorf("expected repository error, got %v", err)
	}
}

func TestService_NilRepository(t *testing.T) {
	service := newTestService(nil, nil)
	ctx := context.Background()

	if service.IsEnabled(ctx, featureflags.FlagDisablePredictions) {
		t.Error("expected defaults without a repository")
	}
	if err := service.SetFlag(ctx, &featureflags.Flag{Key: "x", Value: true}); err == nil {
		t.Error("expected error setting a flag without a repository")
	}
}

func TestService_NilService(t *testing.T) {
	var service *featureflags.Service
	if service.IsEnabled(context.Background(), featureflags.FlagDisablePredictions) {
		t.Error("expected nil service to report flags off")
	}
}

func TestService_UnknownFlag(t *testing.T) {
	service := newTestService(featureflags.NewInMemoryRepository(), nil)
	ctx := context.Background()

	if service.GetFlag(ctx, "no_such_flag") != nil {
		t.Error("expected nil for unknown flag")
	}
	if service.IsEnabled(ctx, "no_such_flag") {
		t.Error("expected unknown flag to be off")
	}
}

func TestFlag_BoolValue(t *testing.T) {
	tests := []struct {
		name         string
		value        any
		defaultValue bool
		want         bool
	}{
		{"boolean true", true, false, true},
		{"boolean false", false, true, false},
		{"non-zero number", 42.5, false, true},
		{"zero number", float64(0), true, false},
		{"string on", "on", false, true},
		{"string false", "false", true, false},
		{"unrecognized string", "maybe", true, true},
		{"nil value", nil, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := &featureflags.Flag{Key: "test", Value: tt.value}
			if got := flag.BoolValue(tt.defaultValue); got != tt.want {
				t.Errorf("BoolValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlag_NilFlag(t *testing.T) {
	var flag *featureflags.Flag
	if !flag.BoolValue(true) {
		t.Error("expected default value for nil flag")
	}
}

func TestInMemoryRepository_GetFlag_NotFound(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(nil)

	_, err := repo.GetFlag(context.Background(), "nonexistent")
	if !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound, got %v", err)
	}
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	flag, err := repo.GetFlag(ctx, featureflags.FlagDisablePredictions)
	if err != nil {
		t.Fatalf("GetFlag() error = %v", err)
	}
	flag.Value = true

	again, _ := repo.GetFlag(ctx, featureflags.FlagDisablePredictions)
	if again.BoolValue(false) {
		t.Error("mutating a returned flag changed the stored value")
	}
}

func TestInMemoryRepository_DeleteFlag(t *testing.T) {
	repo := featureflags.NewInMemoryRepository()
	ctx := context.Background()

	if err := repo.DeleteFlag(ctx, featureflags.FlagDisablePredictions); err != nil {
		t.Fatalf("failed to delete flag: %v", err)
	}

	_, err := repo.GetFlag(ctx, featureflags.FlagDisablePredictions)
	if !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound after delete, got %v", err)
	}

	err = repo.DeleteFlag(ctx, "nonexistent")
	if !errors.Is(err, featureflags.ErrFlagNotFound) {
		t.Errorf("expected ErrFlagNotFound for non-existent flag, got %v", err)
	}
}

func TestService_FallbackToDefaults(t *testing.T) {
	repo := featureflags.NewInMemoryRepositoryWithFlags(map[string]*featureflags.Flag{})
	service := featureflags.NewService(featureflags.ServiceConfig{
		Repository: repo,
		Logger:     zerolog.Nop(),
		DefaultFlags: map[string]*featureflags.Flag{
			featureflags.FlagForceSimulatedModel: {Key: featureflags.FlagForceSimulatedModel, Value: true},
		},
	})

	flag := service.GetFlag(context.Background(), featureflags.FlagForceSimulatedModel)
	if flag == nil {
		t.Fatal("expected flag to be returned from defaults")
	}
	if !flag.BoolValue(false) {
		t.Error("expected force_simulated_model to be true from defaults")
	}
}
