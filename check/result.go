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

// CheckResult is the immutable record of one probe outcome. Details
// carries diagnostic payload for humans and export, it is never
// interpreted programmatically.
type CheckResult struct {
	Name      string         `json:"name"`
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Duration  time.Duration  `json:"duration"`
	Timestamp time.Time      `json:"timestamp"`
}

// Ledger is the per category, append only sequence of results.
// Aggregates are computed on demand.
type Ledger struct {
	results []CheckResult
}

func (l *Ledger) Append(r CheckResult) {
	l.results = append(l.results, r)
}

func (l *Ledger) Results() []CheckResult {
	out := make([]CheckResult, len(l.results))
	copy(out, l.results)
	return out
}

func (l *Ledger) Total() int {
	return len(l.results)
}

func (l *Ledger) Passed() int {
	n := 0
	for _, r := range l.results {
		if r.Success {
			n++
		}
	}
	return n
}

func (l *Ledger) Failed() int {
	return l.Total() - l.Passed()
}

// Rate returns the percentage of passing results, 0 when the ledger
// is empty.
func (l *Ledger) Rate() float64 {
	if len(l.results) == 0 {
		return 0
	}
	return float64(l.Passed()) / float64(len(l.results)) * 100
}
