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

// Package report renders run summaries as human readable text or JSON
// and exports them to files.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/versity/s3check/check"
)

// Text renders the summary report: overall totals, a per category
// breakdown and the failing checks with their messages.
func Text(summary check.RunSummary) string {
	var b strings.Builder

	rule := strings.Repeat("=", 60)
	sep := strings.Repeat("-", 40)

	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b, "S3 COMPATIBILITY CHECK SUMMARY")
	fmt.Fprintln(&b, rule)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "Run ID: %s\n", summary.RunID)
	fmt.Fprintf(&b, "Total Categories: %d\n", len(summary.Categories))
	fmt.Fprintf(&b, "Total Checks: %d\n", summary.TotalChecks)
	fmt.Fprintf(&b, "Passed: %d\n", summary.TotalPassed)
	fmt.Fprintf(&b, "Failed: %d\n", summary.TotalFailed)
	fmt.Fprintf(&b, "Success Rate: %.1f%%\n", summary.OverallRate)
	fmt.Fprintf(&b, "Duration: %.2fs\n", summary.Duration.Seconds())
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "CATEGORY RESULTS:")
	fmt.Fprintln(&b, sep)
	for _, cat := range summary.Categories {
		if cat.Error != "" {
			fmt.Fprintf(&b, "✗ %s: error: %s\n", cat.Name, cat.Error)
			continue
		}
		status := "✓"
		if cat.Failed > 0 {
			status = "✗"
		}
		fmt.Fprintf(&b, "%s %s: %d/%d (%.1f%%) [%.2fs]\n",
			status, cat.Name, cat.Passed, cat.Total, cat.Rate, cat.Duration.Seconds())
	}
	fmt.Fprintln(&b)

	failed := summary.FailedChecks()
	if len(failed) > 0 {
		fmt.Fprintln(&b, "FAILED CHECKS:")
		fmt.Fprintln(&b, sep)
		for _, f := range failed {
			fmt.Fprintf(&b, "✗ %s.%s\n", f.Category, f.Name)
			fmt.Fprintf(&b, "  Message: %s\n", f.Message)
			if len(f.Details) > 0 {
				fmt.Fprintf(&b, "  Details: %s\n", formatDetails(f.Details))
			}
			fmt.Fprintln(&b)
		}
	} else {
		fmt.Fprintln(&b, "All checks passed!")
	}

	fmt.Fprintln(&b, rule)
	return b.String()
}

// Write exports the summary to path, choosing the format from the
// file extension: .json writes indented JSON, anything else writes
// the text report.
func Write(path string, summary check.RunSummary) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return WriteJSON(path, summary)
	}
	return WriteText(path, summary)
}

// WriteJSON exports the full summary, results included, as indented
// JSON.
func WriteJSON(path string, summary check.RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// WriteText exports the text report.
func WriteText(path string, summary check.RunSummary) error {
	if err := os.WriteFile(path, []byte(Text(summary)), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func formatDetails(details map[string]any) string {
	data, err := json.Marshal(details)
	if err != nil {
		return fmt.Sprintf("%v", details)
	}
	return string(data)
}
