// Copyright 2024 Versity Software
// This file is licensed under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package check

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Recorder receives probe outcomes for metrics emission. A nil
// recorder disables emission.
type Recorder interface {
	ProbeResult(category, name string, pass bool)
	CategoryDuration(category string, d time.Duration)
}

// Orchestrator selects, sequences, times, and aggregates category
// runs. One category's fault never aborts the run.
type Orchestrator struct {
	gw       Gateway
	regs     []Registration
	conf     RunConfig
	log      zerolog.Logger
	parallel int
	recorder Recorder

	lastSummary *RunSummary
}

type Option func(*Orchestrator)

func WithLogger(log zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithParallel sets how many categories may run at once. Categories
// are resource isolated, each owns its scoped bucket, so cross
// category parallelism is safe; probes within a category always run
// in order.
func WithParallel(n int) Option {
	return func(o *Orchestrator) {
		if n > 1 {
			o.parallel = n
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func NewOrchestrator(gw Gateway, regs []Registration, conf RunConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gw:       gw,
		regs:     regs,
		conf:     conf,
		log:      zerolog.Nop(),
		parallel: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init fails fast before any category runs by probing the endpoint
// with a bucket listing.
func (o *Orchestrator) Init(ctx context.Context) error {
	if _, gerr := o.gw.ListBuckets(ctx); gerr != nil {
		return fmt.Errorf("endpoint liveness probe failed: %w", gerr)
	}
	o.log.Debug().Msg("endpoint liveness probe ok")
	return nil
}

// Select resolves the requested scopes against the registered and
// enabled categories. "all" or an empty request selects everything
// enabled. Unknown scope names are an error.
func (o *Orchestrator) Select(scopes []string) ([]Registration, error) {
	want := func(name string) bool {
		if len(scopes) == 0 || slices.Contains(scopes, "all") {
			return true
		}
		return slices.Contains(scopes, name)
	}

	for _, s := range scopes {
		if s == "all" {
			continue
		}
		known := slices.ContainsFunc(o.regs, func(r Registration) bool { return r.Name == s })
		if !known {
			return nil, fmt.Errorf("unknown check scope: %v", s)
		}
	}

	var selected []Registration
	for _, reg := range o.regs {
		if !want(reg.Name) {
			continue
		}
		if slices.Contains(o.conf.Disabled, reg.Name) {
			o.log.Info().Str("scope", reg.Name).Msg("category disabled, skipping")
			continue
		}
		selected = append(selected, reg)
	}
	return selected, nil
}

// Run executes the selected categories and aggregates their ledgers.
// The run always completes and always produces a summary, category
// level faults are downgraded to failed category entries.
func (o *Orchestrator) Run(ctx context.Context, scopes []string) (RunSummary, error) {
	selected, err := o.Select(scopes)
	if err != nil {
		return RunSummary{}, err
	}
	if len(selected) == 0 {
		return RunSummary{}, fmt.Errorf("no check scopes selected")
	}

	summary := RunSummary{
		RunID:      ulid.Make().String(),
		StartedAt:  time.Now(),
		Categories: make([]CategorySummary, len(selected)),
	}

	if o.parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.parallel)
		for i, reg := range selected {
			g.Go(func() error {
				summary.Categories[i] = o.runCategory(gctx, reg)
				return nil
			})
		}
		// workers never return errors, faults are recorded in
		// the category summaries
		_ = g.Wait()
	} else {
		for i, reg := range selected {
			summary.Categories[i] = o.runCategory(ctx, reg)
		}
	}

	summary.Duration = time.Since(summary.StartedAt)
	summary.aggregate()
	o.lastSummary = &summary

	o.log.Info().
		Int("total", summary.TotalChecks).
		Int("passed", summary.TotalPassed).
		Int("failed", summary.TotalFailed).
		Float64("rate", summary.OverallRate).
		Msg("run complete")

	return summary, nil
}

// FailedChecks flattens the failing results of the last run.
func (o *Orchestrator) FailedChecks() []FailedCheck {
	if o.lastSummary == nil {
		return nil
	}
	return o.lastSummary.FailedChecks()
}

func (o *Orchestrator) runCategory(ctx context.Context, reg Registration) CategorySummary {
	log := o.log.With().Str("scope", reg.Name).Logger()
	log.Info().Msg("running category")

	cat := reg.New(Deps{Gateway: o.gw, Logger: o.log, Conf: o.conf})

	start := time.Now()
	err := runGuarded(ctx, cat)

	if o.conf.CleanupEnabled {
		if errs := cat.Cleanup(ctx); len(errs) > 0 {
			log.Warn().Int("errors", len(errs)).Msg("cleanup finished with errors")
		}
	} else {
		log.Info().Msg("cleanup disabled, leaving test resources in place")
	}

	duration := time.Since(start)

	var sum CategorySummary
	if err != nil {
		log.Error().Err(err).Msg("category failed outside probe boundary")
		sum = CategorySummary{Name: reg.Name, Duration: duration, Error: err.Error()}
	} else {
		sum = summarizeCategory(reg.Name, cat.Results(), duration)
	}

	if o.recorder != nil {
		for _, r := range sum.Results {
			o.recorder.ProbeResult(reg.Name, r.Name, r.Success)
		}
		o.recorder.CategoryDuration(reg.Name, duration)
	}
	return sum
}

// runGuarded is the last resort safety net around one category. A
// panic escaping the probe isolation boundary becomes the category
// error instead of taking down the run.
func runGuarded(ctx context.Context, cat Category) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("category panicked: %v", p)
		}
	}()
	return cat.Run(ctx)
}
