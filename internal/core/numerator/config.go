// Package numerator defines the contract for human-readable record numbers
// such as EMP-2025-00042. Implementations live in the infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Strategy defines how numbers are reserved.
type Strategy int

const (
	// StrategyStrict reserves every number with one UPSERT ... RETURNING.
	// Numbers have no gaps.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges and hands them out from memory.
	// A restart leaves gaps.
	StrategyCached
)

// ResetPeriod controls when the counter starts again from 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Options configures number reservation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached.
	// Default is 50.
	RangeSize int64
}

// DefaultOptions returns strict options.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// Config describes the number format.
type Config struct {
	// Prefix added to all numbers (e.g. "EMP", "VIS")
	Prefix      string
	IncludeYear bool
	// PadWidth is the minimum width of the counter (default 5)
	PadWidth    int
	ResetPeriod ResetPeriod
}

// DefaultConfig returns PREFIX-YEAR-00001 numbers reset every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}

// Generator hands out the next number for a series.
type Generator interface {
	// GetNextNumber returns the next formatted number for cfg in period.
	GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber moves the counter of a series, for data imports.
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}

// GeneratorFunc adapts a function to Generator. SetNextNumber is a no-op.
type GeneratorFunc func(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

// GetNextNumber implements Generator.
func (f GeneratorFunc) GetNextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error) {
	return f(ctx, cfg, opts, period)
}

// SetNextNumber implements Generator.
func (f GeneratorFunc) SetNextNumber(context.Context, Config, time.Time, int64) error {
	return nil
}
