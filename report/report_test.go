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

package report_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/report"
)

func sampleSummary() check.RunSummary {
	s := check.RunSummary{
		RunID:     "01J8TESTRUNID",
		StartedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Duration:  3500 * time.Millisecond,
		Categories: []check.CategorySummary{
			{
				Name:   "buckets",
				Total:  5,
				Passed: 5,
				Rate:   100,
				Results: []check.CheckResult{
					{Name: "bucket_creation", Success: true},
				},
			},
			{
				Name:   "objects",
				Total:  4,
				Passed: 3,
				Failed: 1,
				Rate:   75,
				Results: []check.CheckResult{
					{Name: "object_upload", Success: true},
					{
						Name:    "object_download",
						Success: false,
						Message: "downloaded data doesn't match uploaded data",
						Details: map[string]any{"object_key": "test-key"},
					},
				},
			},
		},
	}
	s.TotalChecks = 9
	s.TotalPassed = 8
	s.TotalFailed = 1
	s.OverallRate = 100 * 8.0 / 9.0
	return s
}

func TestTextReport(t *testing.T) {
	out := report.Text(sampleSummary())

	assert.Contains(t, out, "S3 COMPATIBILITY CHECK SUMMARY")
	assert.Contains(t, out, "Run ID: 01J8TESTRUNID")
	assert.Contains(t, out, "Total Categories: 2")
	assert.Contains(t, out, "Total Checks: 9")
	assert.Contains(t, out, "Passed: 8")
	assert.Contains(t, out, "Failed: 1")
	assert.Contains(t, out, "Success Rate: 88.9%")
	assert.Contains(t, out, "Duration: 3.50s")

	assert.Contains(t, out, "✓ buckets: 5/5 (100.0%)")
	assert.Contains(t, out, "✗ objects: 3/4 (75.0%)")

	assert.Contains(t, out, "FAILED CHECKS:")
	assert.Contains(t, out, "✗ objects.object_download")
	assert.Contains(t, out, "Message: downloaded data doesn't match uploaded data")
	assert.Contains(t, out, `"object_key":"test-key"`)
	assert.NotContains(t, out, "All checks passed!")
}

func TestTextReportAllPassed(t *testing.T) {
	s := sampleSummary()
	s.Categories = s.Categories[:1]
	s.TotalChecks, s.TotalPassed, s.TotalFailed = 5, 5, 0
	s.OverallRate = 100

	out := report.Text(s)
	assert.Contains(t, out, "All checks passed!")
	assert.NotContains(t, out, "FAILED CHECKS:")
}

func TestTextReportCategoryError(t *testing.T) {
	s := sampleSummary()
	s.Categories = append(s.Categories, check.CategorySummary{
		Name:  "versioning",
		Error: "category panicked: nil pointer",
	})

	out := report.Text(s)
	assert.Contains(t, out, "✗ versioning: error: category panicked: nil pointer")
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	assert.NoError(t, report.Write(path, sampleSummary()))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)

	var got check.RunSummary
	assert.NoError(t, json.Unmarshal(data, &got))
	assert.Empty(t, cmp.Diff(sampleSummary(), got))
}

func TestWriteText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	assert.NoError(t, report.Write(path, sampleSummary()))

	data, err := os.ReadFile(path)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "S3 COMPATIBILITY CHECK SUMMARY")
}
