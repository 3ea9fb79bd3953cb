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

package checks

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/check/checktest"
)

func TestMeetsThreshold(t *testing.T) {
	tests := []struct {
		passed    int
		total     int
		threshold float64
		want      bool
	}{
		{8, 10, 0.8, true},
		{7, 10, 0.8, false},
		{10, 10, 1.0, true},
		{9, 10, 1.0, false},
		{0, 10, 0.0, true},
		{0, 0, 0.0, false},
		{0, 0, 0.8, false},
		{1, 2, 0.5, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_of_%d_at_%v", tt.passed, tt.total, tt.threshold), func(t *testing.T) {
			assert.Equal(t, tt.want, meetsThreshold(tt.passed, tt.total, tt.threshold))
		})
	}
}

func TestTestData(t *testing.T) {
	tests := []struct {
		size int64
	}{
		{0},
		{1},
		{100},
		{1024},
		{65536},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("size_%d", tt.size), func(t *testing.T) {
			data := testData(tt.size)
			assert.Len(t, data, int(tt.size))
		})
	}

	// same size always produces the same bytes
	assert.True(t, bytes.Equal(testData(2048), testData(2048)))
	// content is self describing text, not zero fill
	assert.Contains(t, string(testData(100)), "chunk 0")
}

func TestPartData(t *testing.T) {
	one := partData(1, 1024)
	two := partData(2, 1024)

	assert.Len(t, one, 1024)
	assert.Len(t, two, 1024)
	assert.Contains(t, string(one), "Part 1")
	assert.Contains(t, string(two), "Part 2")
	assert.False(t, bytes.Equal(one, two))
}

func TestAllRegistrations(t *testing.T) {
	regs := All()
	assert.Len(t, regs, 10)

	seen := make(map[string]bool, len(regs))
	for _, reg := range regs {
		assert.NotEmpty(t, reg.Name)
		assert.NotEmpty(t, reg.Description)
		assert.NotNil(t, reg.New)
		assert.False(t, seen[reg.Name], "duplicate scope %q", reg.Name)
		seen[reg.Name] = true
	}
}

// TestFullRunAgainstFake drives every category through the
// orchestrator against the in-memory gateway. The fake models
// compliant S3 behavior, so every check is expected to pass and every
// provisioned resource is expected to be torn down.
func TestFullRunAgainstFake(t *testing.T) {
	gw := checktest.NewFakeGateway()
	conf := check.RunConfig{
		Prefix:         "s3check-test",
		SmallSize:      1024,
		MediumSize:     8192,
		LargeSize:      16384,
		ChunkSize:      1024,
		CleanupEnabled: true,
	}

	orc := check.NewOrchestrator(gw, All(), conf)
	summary, err := orc.Run(context.Background(), nil)
	assert.NoError(t, err)

	assert.Len(t, summary.Categories, len(All()))
	for _, cat := range summary.Categories {
		assert.Empty(t, cat.Error, "category %q faulted", cat.Name)
		assert.Zero(t, cat.Failed, "category %q had failures: %v", cat.Name, failedNames(cat))
		assert.Greater(t, cat.Total, 0, "category %q recorded no results", cat.Name)
	}
	assert.Equal(t, summary.TotalChecks, summary.TotalPassed)
	assert.Zero(t, summary.TotalFailed)
	assert.InDelta(t, 100.0, summary.OverallRate, 0.001)
	assert.Empty(t, summary.FailedChecks())

	// teardown drained every bucket the run created
	buckets, gerr := gw.ListBuckets(context.Background())
	assert.Nil(t, gerr)
	assert.Empty(t, buckets, "cleanup left buckets behind")
}

func failedNames(cat check.CategorySummary) []string {
	var names []string
	for _, r := range cat.Results {
		if !r.Success {
			names = append(names, r.Name)
		}
	}
	return names
}
