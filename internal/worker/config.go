// Package worker runs batch air quality assessments for a fixed set of locations.
package worker

import (
	"sort"
	"time"
)

// AssessTarget is a named group of locations assessed together.
type AssessTarget struct {
	// Name is the human-readable name of the target.
	Name string

	// Points are the coordinates to assess, typically city centres.
	Points []Point

	// Priority determines assessment order (lower = higher priority).
	Priority int
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// AssessConfig holds configuration for the assessment job.
type AssessConfig struct {
	// Targets are the locations to assess.
	// If empty, uses DefaultAssessTargets.
	Targets []AssessTarget

	// Concurrency is the number of concurrent predictions.
	// Default: 8
	Concurrency int

	// Timeout bounds each prediction.
	// Default: 15 seconds
	Timeout time.Duration
}

// DefaultAssessConfig returns the default assessment configuration.
func DefaultAssessConfig() AssessConfig {
	return AssessConfig{
		Targets:     DefaultAssessTargets(),
		Concurrency: 8,
		Timeout:     15 * time.Second,
	}
}

// DefaultAssessTargets returns a spread of large cities across every continent.
func DefaultAssessTargets() []AssessTarget {
	return []AssessTarget{
		{
			Name:     "London",
			Priority: 1,
			Points: []Point{
				{Lat: 51.5074, Lon: -0.1278}, // Westminster
				{Lat: 51.5155, Lon: -0.0922}, // City of London
			},
		},
		{
			Name:     "New York",
			Priority: 1,
			Points: []Point{
				{Lat: 40.7580, Lon: -73.9855}, // Midtown
				{Lat: 40.6782, Lon: -73.9442}, // Brooklyn
			},
		},
		{
			Name:     "Delhi",
			Priority: 1,
			Points: []Point{
				{Lat: 28.6139, Lon: 77.2090},
			},
		},
		{
			Name:     "Beijing",
			Priority: 1,
			Points: []Point{
				{Lat: 39.9042, Lon: 116.4074},
			},
		},
		{
			Name:     "São Paulo",
			Priority: 2,
			Points: []Point{
				{Lat: -23.5505, Lon: -46.6333},
			},
		},
		{
			Name:     "Lagos",
			Priority: 2,
			Points: []Point{
				{Lat: 6.5244, Lon: 3.3792},
			},
		},
		{
			Name:     "Mexico City",
			Priority: 2,
			Points: []Point{
				{Lat: 19.4326, Lon: -99.1332},
			},
		},
		{
			Name:     "Sydney",
			Priority: 3,
			Points: []Point{
				{Lat: -33.8688, Lon: 151.2093},
			},
		},
		{
			Name:     "Reykjavík",
			Priority: 3,
			Points: []Point{
				{Lat: 64.1466, Lon: -21.9426},
			},
		},
	}
}

// AllPoints returns all points from all targets, ordered by priority.
func (c AssessConfig) AllPoints() []Point {
	targets := make([]AssessTarget, len(c.Targets))
	copy(targets, c.Targets)
	sort.SliceStable(targets, func(i, j int) bool { return targets[i].Priority < targets[j].Priority })

	var points []Point
	for _, target := range targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to assess.
func (c AssessConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
