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

package check_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/check/checktest"
)

// fakeCategory replays canned results through the Category interface.
type fakeCategory struct {
	name    string
	results []check.CheckResult
	runErr  error
	cleaned bool
}

func (f *fakeCategory) Name() string                  { return f.name }
func (f *fakeCategory) Run(ctx context.Context) error { return f.runErr }
func (f *fakeCategory) Results() []check.CheckResult  { return f.results }
func (f *fakeCategory) Cleanup(ctx context.Context) []error {
	f.cleaned = true
	return nil
}

func canned(passed, failed int) []check.CheckResult {
	var results []check.CheckResult
	for i := 0; i < passed; i++ {
		results = append(results, check.CheckResult{Name: "p", Success: true})
	}
	for i := 0; i < failed; i++ {
		results = append(results, check.CheckResult{Name: "f", Success: false})
	}
	return results
}

func regFor(cat *fakeCategory) check.Registration {
	return check.Registration{
		Name: cat.name,
		New:  func(check.Deps) check.Category { return cat },
	}
}

func TestRunAggregation(t *testing.T) {
	alpha := &fakeCategory{name: "alpha", results: canned(4, 1)}
	beta := &fakeCategory{name: "beta", results: canned(3, 0)}

	orc := check.NewOrchestrator(&checktest.StubGateway{},
		[]check.Registration{regFor(alpha), regFor(beta)},
		check.RunConfig{CleanupEnabled: true})

	summary, err := orc.Run(context.Background(), nil)
	assert.NoError(t, err)

	assert.Equal(t, 8, summary.TotalChecks)
	assert.Equal(t, 7, summary.TotalPassed)
	assert.Equal(t, 1, summary.TotalFailed)
	assert.InDelta(t, 87.5, summary.OverallRate, 0.001)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, []string{"alpha", "beta"}, summary.Executed)

	assert.True(t, alpha.cleaned)
	assert.True(t, beta.cleaned)

	assert.Len(t, summary.FailedChecks(), 1)
	assert.Equal(t, "alpha", summary.FailedChecks()[0].Category)
}

func TestRunEmptyRate(t *testing.T) {
	empty := &fakeCategory{name: "empty"}
	orc := check.NewOrchestrator(&checktest.StubGateway{},
		[]check.Registration{regFor(empty)}, check.RunConfig{})

	summary, err := orc.Run(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, summary.TotalChecks)
	assert.Equal(t, float64(0), summary.OverallRate)
}

func TestRunCategoryFaultDowngraded(t *testing.T) {
	broken := &fakeCategory{name: "broken", runErr: errors.New("dial tcp: refused")}
	healthy := &fakeCategory{name: "healthy", results: canned(2, 0)}

	orc := check.NewOrchestrator(&checktest.StubGateway{},
		[]check.Registration{regFor(broken), regFor(healthy)}, check.RunConfig{})

	summary, err := orc.Run(context.Background(), nil)
	assert.NoError(t, err, "a category fault must not abort the run")

	assert.Equal(t, "dial tcp: refused", summary.Categories[0].Error)
	assert.Equal(t, 0, summary.Categories[0].Total)
	assert.Equal(t, 2, summary.Categories[1].Passed)
}

func TestScopeSelection(t *testing.T) {
	alpha := &fakeCategory{name: "alpha", results: canned(1, 0)}
	beta := &fakeCategory{name: "beta", results: canned(1, 0)}

	t.Run("single scope", func(t *testing.T) {
		orc := check.NewOrchestrator(&checktest.StubGateway{},
			[]check.Registration{regFor(alpha), regFor(beta)}, check.RunConfig{})
		summary, err := orc.Run(context.Background(), []string{"beta"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"beta"}, summary.Executed)
	})

	t.Run("unknown scope", func(t *testing.T) {
		orc := check.NewOrchestrator(&checktest.StubGateway{},
			[]check.Registration{regFor(alpha)}, check.RunConfig{})
		_, err := orc.Run(context.Background(), []string{"bogus"})
		assert.ErrorContains(t, err, "unknown check scope")
	})

	t.Run("disabled scope", func(t *testing.T) {
		orc := check.NewOrchestrator(&checktest.StubGateway{},
			[]check.Registration{regFor(alpha), regFor(beta)},
			check.RunConfig{Disabled: []string{"alpha"}})
		summary, err := orc.Run(context.Background(), []string{"all"})
		assert.NoError(t, err)
		assert.Equal(t, []string{"beta"}, summary.Executed)
	})

	t.Run("everything disabled", func(t *testing.T) {
		orc := check.NewOrchestrator(&checktest.StubGateway{},
			[]check.Registration{regFor(alpha)},
			check.RunConfig{Disabled: []string{"alpha"}})
		_, err := orc.Run(context.Background(), nil)
		assert.ErrorContains(t, err, "no check scopes selected")
	})
}

func TestInitLiveness(t *testing.T) {
	gw := &checktest.StubGateway{
		ListBucketsFn: func() ([]check.BucketInfo, *check.GatewayError) {
			return nil, &check.GatewayError{Code: "InvalidAccessKeyId", HTTPStatus: 403}
		},
	}
	orc := check.NewOrchestrator(gw, nil, check.RunConfig{})
	err := orc.Init(context.Background())
	assert.ErrorContains(t, err, "liveness")
}

type countingRecorder struct {
	mu        sync.Mutex
	probes    int
	durations int
}

func (c *countingRecorder) ProbeResult(category, name string, pass bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes++
}

func (c *countingRecorder) CategoryDuration(category string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations++
}

func TestRecorderEmission(t *testing.T) {
	alpha := &fakeCategory{name: "alpha", results: canned(2, 1)}
	rec := &countingRecorder{}

	orc := check.NewOrchestrator(&checktest.StubGateway{},
		[]check.Registration{regFor(alpha)}, check.RunConfig{},
		check.WithRecorder(rec))

	_, err := orc.Run(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, 3, rec.probes)
	assert.Equal(t, 1, rec.durations)
}

func TestParallelRunStableOrder(t *testing.T) {
	regs := []check.Registration{
		regFor(&fakeCategory{name: "alpha", results: canned(1, 0)}),
		regFor(&fakeCategory{name: "beta", results: canned(2, 0)}),
		regFor(&fakeCategory{name: "gamma", results: canned(3, 0)}),
	}
	orc := check.NewOrchestrator(&checktest.StubGateway{}, regs,
		check.RunConfig{}, check.WithParallel(3))

	summary, err := orc.Run(context.Background(), nil)
	assert.NoError(t, err)
	// summaries land at their registration index regardless of
	// completion order
	assert.Equal(t, []string{"alpha", "beta", "gamma"}, summary.Executed)
	assert.Equal(t, 6, summary.TotalChecks)
}
