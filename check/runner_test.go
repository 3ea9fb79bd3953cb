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
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/check/checktest"
)

func newTestRunner(gw check.Gateway) *check.CategoryRunner {
	return check.NewRunner(check.Deps{
		Gateway: gw,
		Logger:  zerolog.Nop(),
		Conf:    check.RunConfig{Prefix: "s3check-test", CleanupEnabled: true},
	}, "testscope")
}

func TestUniqueNameMonotonic(t *testing.T) {
	r := newTestRunner(&checktest.StubGateway{})

	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 100; i++ {
		name := r.UniqueName()
		assert.True(t, strings.HasPrefix(name, "s3check-test-"))
		assert.False(t, seen[name], "name %q repeated", name)
		assert.Greater(t, name, prev)
		seen[name] = true
		prev = name
	}
}

func TestProbeRequiresBucket(t *testing.T) {
	r := newTestRunner(&checktest.StubGateway{})

	called := false
	r.Probe(context.Background(), "orphan", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.False(t, called, "probe must not run without a bucket")
	results := r.Results()
	assert.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "orphan", results[0].Name)
}

func TestProbeIsolation(t *testing.T) {
	r := newTestRunner(&checktest.StubGateway{})
	_, gerr := r.ProvisionBucket(context.Background())
	assert.Nil(t, gerr)

	r.Probe(context.Background(), "panicky", func(ctx context.Context) error {
		panic("boom")
	})
	r.Probe(context.Background(), "erroring", func(ctx context.Context) error {
		return &check.GatewayError{Code: "NoSuchKey", HTTPStatus: 404, Message: "not found"}
	})
	r.Probe(context.Background(), "healthy", func(ctx context.Context) error {
		r.Pass("healthy", "ok", nil, time.Now())
		return nil
	})

	results := r.Results()
	assert.Len(t, results, 3)

	assert.Equal(t, "panicky", results[0].Name)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Message, "boom")

	assert.Equal(t, "erroring", results[1].Name)
	assert.False(t, results[1].Success)
	assert.Equal(t, "NoSuchKey", results[1].Details["error_code"])
	assert.Equal(t, 404, results[1].Details["status_code"])

	assert.True(t, results[2].Success)
}

func TestProbePlainError(t *testing.T) {
	r := newTestRunner(&checktest.StubGateway{})
	_, gerr := r.ProvisionBucket(context.Background())
	assert.Nil(t, gerr)

	r.Probe(context.Background(), "plain", func(ctx context.Context) error {
		return errors.New("something unexpected")
	})

	results := r.Results()
	assert.Len(t, results, 1)
	assert.False(t, results[0].Success)
	assert.Equal(t, "something unexpected", results[0].Message)
}

func TestProvisionFailureSingleResult(t *testing.T) {
	gw := &checktest.StubGateway{
		CreateBucketFn: func(bucket string) *check.GatewayError {
			return &check.GatewayError{Code: "AccessDenied", HTTPStatus: 403}
		},
	}
	r := newTestRunner(gw)

	bucket, gerr := r.ProvisionBucket(context.Background())
	assert.Empty(t, bucket)
	assert.NotNil(t, gerr)

	// probes after a failed provision refuse to run
	r.Probe(context.Background(), "after", func(ctx context.Context) error {
		t.Fatal("probe ran without a bucket")
		return nil
	})

	results := r.Results()
	assert.Len(t, results, 2)
	assert.Equal(t, "bucket_provisioning", results[0].Name)
	assert.False(t, results[0].Success)
	assert.Equal(t, "AccessDenied", results[0].Details["error_code"])
}

func TestCleanupAfterProvision(t *testing.T) {
	gw := &checktest.StubGateway{}
	r := newTestRunner(gw)

	bucket, gerr := r.ProvisionBucket(context.Background())
	assert.Nil(t, gerr)

	r.RegisterCleanup(check.ObjectItem(bucket, "leftover", ""))
	errs := r.Cleanup(context.Background())
	assert.Empty(t, errs)
	assert.Contains(t, gw.Calls, "DeleteObject "+bucket+" leftover")
	assert.Contains(t, gw.Calls, "DeleteBucket "+bucket+" ")
}
