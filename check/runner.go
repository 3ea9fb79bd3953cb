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
	"time"

	"github.com/rs/zerolog"
)

// RunConfig carries the knobs shared by every category.
type RunConfig struct {
	Prefix         string
	SmallSize      int64
	MediumSize     int64
	LargeSize      int64
	ChunkSize      int64
	CleanupEnabled bool
	Disabled       []string
}

// Deps is what a category needs to run: the storage capability, an
// explicit logger handle, and the shared run settings.
type Deps struct {
	Gateway Gateway
	Logger  zerolog.Logger
	Conf    RunConfig
}

type runState int

const (
	stateUninitialized runState = iota
	stateBucketProvisioned
	stateProbing
	stateCleaning
	stateDone
)

// CategoryRunner is the shared helper each category holds. It owns
// the category's ledger and cleanup registry and provides result
// recording, resource naming, and the probe isolation boundary.
type CategoryRunner struct {
	gw      Gateway
	log     zerolog.Logger
	conf    RunConfig
	ledger  Ledger
	cleanup CleanupRegistry

	state     runState
	bucket    string
	lastStamp int64
}

func NewRunner(deps Deps, category string) *CategoryRunner {
	return &CategoryRunner{
		gw:   deps.Gateway,
		log:  deps.Logger.With().Str("scope", category).Logger(),
		conf: deps.Conf,
	}
}

func (r *CategoryRunner) Gateway() Gateway       { return r.gw }
func (r *CategoryRunner) Log() zerolog.Logger    { return r.log }
func (r *CategoryRunner) Conf() RunConfig        { return r.conf }
func (r *CategoryRunner) Bucket() string         { return r.bucket }
func (r *CategoryRunner) Results() []CheckResult { return r.ledger.Results() }

// UniqueName generates a collision free resource name as
// {prefix}-{millisecond-timestamp}. The stamp is bumped when two
// names are generated within the same millisecond.
func (r *CategoryRunner) UniqueName() string {
	stamp := time.Now().UnixMilli()
	if stamp <= r.lastStamp {
		stamp = r.lastStamp + 1
	}
	r.lastStamp = stamp
	return fmt.Sprintf("%s-%d", r.conf.Prefix, stamp)
}

// AddResult appends one probe outcome to the ledger, duration taken
// from the given start time.
func (r *CategoryRunner) AddResult(name string, success bool, message string, details map[string]any, start time.Time) {
	r.ledger.Append(CheckResult{
		Name:      name,
		Success:   success,
		Message:   message,
		Details:   details,
		Duration:  time.Since(start),
		Timestamp: time.Now(),
	})
	if success {
		r.log.Info().Str("check", name).Msg(message)
	} else {
		r.log.Warn().Str("check", name).Msg(message)
	}
}

func (r *CategoryRunner) Pass(name, message string, details map[string]any, start time.Time) {
	r.AddResult(name, true, message, details, start)
}

func (r *CategoryRunner) Fail(name, message string, details map[string]any, start time.Time) {
	r.AddResult(name, false, message, details, start)
}

// RegisterCleanup queues a created resource for teardown.
func (r *CategoryRunner) RegisterCleanup(item CleanupItem) {
	r.cleanup.Register(item)
}

// DropCleanup removes an already queued item, used by probes that
// delete the resource themselves.
func (r *CategoryRunner) DropCleanup(item CleanupItem) bool {
	return r.cleanup.Remove(item)
}

// ProvisionBucket creates the category's single scoped bucket. On
// failure it records the one failing result the category ends with
// and returns the error, no probes may run without a bucket.
func (r *CategoryRunner) ProvisionBucket(ctx context.Context) (string, *GatewayError) {
	start := time.Now()
	bucket := r.UniqueName()
	if gerr := r.gw.CreateBucket(ctx, bucket); gerr != nil {
		r.Fail("bucket_provisioning", fmt.Sprintf("failed to create test bucket: %v", gerr),
			map[string]any{"bucket": bucket, "error_code": gerr.Code, "status_code": gerr.HTTPStatus}, start)
		r.state = stateDone
		return "", gerr
	}
	r.RegisterCleanup(BucketItem(bucket))
	r.bucket = bucket
	r.state = stateBucketProvisioned
	return bucket, nil
}

// Probe runs one probe function inside the isolation boundary. A
// returned error or a panic becomes a single failing result, sibling
// probes are unaffected.
func (r *CategoryRunner) Probe(ctx context.Context, name string, fn func(ctx context.Context) error) {
	if r.state != stateBucketProvisioned && r.state != stateProbing {
		r.Fail(name, "probe invoked without a provisioned bucket", nil, time.Now())
		return
	}
	r.state = stateProbing

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.Fail(name, fmt.Sprintf("probe panicked: %v", p), nil, start)
		}
	}()

	if err := fn(ctx); err != nil {
		details := map[string]any{}
		if gerr, ok := err.(*GatewayError); ok {
			details["error_code"] = gerr.Code
			details["status_code"] = gerr.HTTPStatus
		}
		r.Fail(name, err.Error(), details, start)
	}
}

// Cleanup drains the registry. Safe to call even when provisioning
// failed or the registry is already empty.
func (r *CategoryRunner) Cleanup(ctx context.Context) []error {
	r.state = stateCleaning
	errs := r.cleanup.Drain(ctx, r.gw, r.log)
	r.state = stateDone
	return errs
}
