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

import "time"

// CategorySummary is one category's aggregate. Error is set when the
// category implementation itself failed outside the probe boundary,
// in which case no results are recorded.
type CategorySummary struct {
	Name     string        `json:"name"`
	Total    int           `json:"total_checks"`
	Passed   int           `json:"passed_checks"`
	Failed   int           `json:"failed_checks"`
	Rate     float64       `json:"success_rate"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
	Results  []CheckResult `json:"results"`
}

// FailedCheck is a failing result with its category attached.
type FailedCheck struct {
	Category string `json:"category"`
	CheckResult
}

// RunSummary aggregates every executed category of one run.
type RunSummary struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	Duration    time.Duration     `json:"duration"`
	Categories  []CategorySummary `json:"categories"`
	Executed    []string          `json:"executed_checks"`
	TotalChecks int               `json:"total_checks"`
	TotalPassed int               `json:"total_passed"`
	TotalFailed int               `json:"total_failed"`
	OverallRate float64           `json:"overall_success_rate"`
}

// FailedChecks flattens every failing result across categories.
func (s RunSummary) FailedChecks() []FailedCheck {
	var failed []FailedCheck
	for _, cat := range s.Categories {
		for _, r := range cat.Results {
			if !r.Success {
				failed = append(failed, FailedCheck{Category: cat.Name, CheckResult: r})
			}
		}
	}
	return failed
}

func summarizeCategory(name string, results []CheckResult, duration time.Duration) CategorySummary {
	sum := CategorySummary{
		Name:     name,
		Total:    len(results),
		Duration: duration,
		Results:  results,
	}
	for _, r := range results {
		if r.Success {
			sum.Passed++
		}
	}
	sum.Failed = sum.Total - sum.Passed
	if sum.Total > 0 {
		sum.Rate = float64(sum.Passed) / float64(sum.Total) * 100
	}
	return sum
}

func (s *RunSummary) aggregate() {
	s.TotalChecks, s.TotalPassed, s.TotalFailed = 0, 0, 0
	for _, cat := range s.Categories {
		s.TotalChecks += cat.Total
		s.TotalPassed += cat.Passed
		s.TotalFailed += cat.Failed
		s.Executed = append(s.Executed, cat.Name)
	}
	if s.TotalChecks > 0 {
		s.OverallRate = float64(s.TotalPassed) / float64(s.TotalChecks) * 100
	} else {
		s.OverallRate = 0
	}
}
