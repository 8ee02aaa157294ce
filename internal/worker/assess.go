package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/tempoair/airservice/internal/airquality"
)

// Predictor runs the predict use case. *airquality.PredictUseCase implements it.
type Predictor interface {
	Execute(ctx context.Context, lat, lon float64) (*airquality.Prediction, error)
}

// AssessJob assesses every configured point and tallies the overall bands.
// Results are logged and exported as metrics; nothing is persisted.
type AssessJob struct {
	config    AssessConfig
	predictor Predictor
	metrics   *Metrics
	clock     clockwork.Clock
	logger    zerolog.Logger

	mu         sync.RWMutex
	lastResult *AssessResult
}

// AssessJobConfig holds configuration for creating an AssessJob.
type AssessJobConfig struct {
	Config    AssessConfig
	Predictor Predictor
	Metrics   *Metrics // optional
	Clock     clockwork.Clock
	Logger    zerolog.Logger
}

// NewAssessJob creates a new assessment job.
func NewAssessJob(cfg AssessJobConfig) *AssessJob {
	config := cfg.Config
	defaults := DefaultAssessConfig()
	if len(config.Targets) == 0 {
		config.Targets = defaults.Targets
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaults.Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &AssessJob{
		config:    config,
		predictor: cfg.Predictor,
		metrics:   cfg.Metrics,
		clock:     clock,
		logger:    cfg.Logger,
	}
}

// AssessResult contains the result of one assessment run.
type AssessResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Cancelled   int

	// Bands counts successful points by overall band name.
	Bands  map[string]int
	Errors []AssessError
}

// AssessError records a failed point.
type AssessError struct {
	Point Point
	Error string
}

type pointResult struct {
	point     Point
	band      airquality.Band
	err       error
	cancelled bool
}

// Run assesses all configured points with bounded concurrency.
func (j *AssessJob) Run(ctx context.Context) *AssessResult {
	points := j.config.AllPoints()
	startTime := j.clock.Now()
	result := &AssessResult{
		StartTime:   startTime,
		TotalPoints: len(points),
		Bands:       make(map[string]int),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("concurrency", j.config.Concurrency).
		Msg("starting assessment run")

	pointsChan := make(chan Point, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.assessWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		switch {
		case pr.cancelled:
			result.Cancelled++
		case pr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, AssessError{Point: pr.point, Error: pr.err.Error()})
		default:
			result.Successful++
			result.Bands[pr.band.String()]++
		}
	}

	result.EndTime = j.clock.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.record(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("cancelled", result.Cancelled).
		Interface("bands", result.Bands).
		Msg("assessment run completed")

	return result
}

// Check assesses a single point. It backs the health_check job.
func (j *AssessJob) Check(ctx context.Context, p Point) (airquality.Band, error) {
	pr := j.assessPoint(ctx, p)
	return pr.band, pr.err
}

// LastResult returns the most recent completed run, or nil.
func (j *AssessJob) LastResult() *AssessResult {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastResult
}

func (j *AssessJob) assessWorker(ctx context.Context, points <-chan Point, results chan<- pointResult) {
	for point := range points {
		if ctx.Err() != nil {
			results <- pointResult{point: point, cancelled: true}
			continue
		}
		results <- j.assessPoint(ctx, point)
	}
}

func (j *AssessJob) assessPoint(ctx context.Context, point Point) pointResult {
	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	start := j.clock.Now()
	prediction, err := j.predictor.Execute(pointCtx, point.Lat, point.Lon)
	if j.metrics != nil {
		j.metrics.PredictDuration.Observe(j.clock.Since(start).Seconds())
	}
	if err != nil {
		j.logger.Warn().Err(err).
			Float64("lat", point.Lat).
			Float64("lon", point.Lon).
			Msg("point assessment failed")
		if j.metrics != nil {
			j.metrics.PointFailures.Inc()
		}
		return pointResult{point: point, err: err}
	}

	band := airquality.Classify(*prediction).Overall
	if j.metrics != nil {
		j.metrics.Assessments.WithLabelValues(band.String()).Inc()
	}
	return pointResult{point: point, band: band}
}

func (j *AssessJob) record(result *AssessResult) {
	j.mu.Lock()
	j.lastResult = result
	j.mu.Unlock()

	if j.metrics == nil {
		return
	}
	j.metrics.RunDuration.Observe(result.Duration.Seconds())
	if result.Failed == 0 && result.Cancelled == 0 {
		j.metrics.LastRunSuccess.Set(1)
	} else {
		j.metrics.LastRunSuccess.Set(0)
	}
}
