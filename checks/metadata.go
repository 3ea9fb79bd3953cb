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
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/versity/s3check/check"
)

// Preservation thresholds. Backends commonly normalize a header or
// two, so probes tolerate partial preservation instead of demanding
// byte exact round trips.
const (
	standardHeaderThreshold = 0.8
	customMetadataThreshold = 0.9
	encodingThreshold       = 0.7
	casePreserveThreshold   = 0.5
	copyPreserveThreshold   = 0.8
)

// Metadata covers standard headers, custom x-amz-meta fields,
// encoding, size limits, case handling, copy behavior and the
// system/user metadata distinction.
type Metadata struct {
	*check.CategoryRunner
}

func NewMetadata(deps check.Deps) check.Category {
	return &Metadata{check.NewRunner(deps, ScopeMetadata)}
}

func (c *Metadata) Name() string { return ScopeMetadata }

func (c *Metadata) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "standard_metadata_headers", c.probeStandardHeaders)
	c.Probe(ctx, "custom_metadata_preservation", c.probeCustomMetadata)
	c.Probe(ctx, "metadata_encoding_handling", c.probeEncoding)
	c.Probe(ctx, "metadata_size_limits", c.probeSizeLimits)
	c.Probe(ctx, "metadata_case_preservation", c.probeCaseSensitivity)
	c.Probe(ctx, "metadata_copy_behavior", c.probeCopyBehavior)
	c.Probe(ctx, "system_user_metadata_distinction", c.probeSystemUserDistinction)
	c.Probe(ctx, "metadata_edge_cases", c.probeEdgeCases)
	return nil
}

func (c *Metadata) put(ctx context.Context, key string, body []byte, opts check.PutOptions) *check.GatewayError {
	_, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, body, opts)
	if gerr == nil {
		c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
	}
	return gerr
}

func (c *Metadata) probeStandardHeaders(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	expires := time.Date(2025, time.October, 21, 7, 28, 0, 0, time.UTC)
	opts := check.PutOptions{
		ContentType:        "application/json",
		ContentEncoding:    "gzip",
		ContentDisposition: `attachment; filename="test.json"`,
		ContentLanguage:    "en-US",
		CacheControl:       "max-age=3600, no-cache",
		Expires:            &expires,
	}
	if gerr := c.put(ctx, key, testData(1024), opts); gerr != nil {
		c.Fail("standard_metadata_headers", fmt.Sprintf("failed to upload with standard headers: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}

	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	if gerr != nil {
		return gerr
	}

	var verified []string
	if head.ContentType == opts.ContentType {
		verified = append(verified, "ContentType")
	}
	if head.ContentEncoding == opts.ContentEncoding {
		verified = append(verified, "ContentEncoding")
	}
	if head.ContentDisposition == opts.ContentDisposition {
		verified = append(verified, "ContentDisposition")
	}
	if head.ContentLanguage == opts.ContentLanguage {
		verified = append(verified, "ContentLanguage")
	}
	if head.CacheControl == opts.CacheControl {
		verified = append(verified, "CacheControl")
	}
	if head.Expires != nil && head.Expires.Equal(expires) {
		verified = append(verified, "Expires")
	}

	c.AddResult("standard_metadata_headers", meetsThreshold(len(verified), 6, standardHeaderThreshold),
		fmt.Sprintf("standard metadata headers: %d/6 preserved correctly", len(verified)),
		map[string]any{"object_key": key, "verified_headers": verified}, start)
	return nil
}

func (c *Metadata) probeCustomMetadata(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	want := map[string]string{
		"author":        "s3check",
		"project":       "metadata-testing",
		"version":       "1.0.0",
		"environment":   "test",
		"numeric-value": "42",
		"boolean-value": "true",
		"special-chars": "test@example.com",
	}
	if gerr := c.put(ctx, key, testData(512), check.PutOptions{ContentType: "text/plain", Metadata: want}); gerr != nil {
		c.Fail("custom_metadata_preservation", fmt.Sprintf("failed to upload with custom metadata: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}

	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	if gerr != nil {
		return gerr
	}
	verified := countPreserved(want, head.Metadata)
	c.AddResult("custom_metadata_preservation", meetsThreshold(verified, len(want), customMetadataThreshold),
		fmt.Sprintf("custom metadata: %d/%d fields preserved correctly", verified, len(want)),
		map[string]any{"object_key": key, "returned_metadata": head.Metadata}, start)
	return nil
}

func (c *Metadata) probeEncoding(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	want := map[string]string{
		"ascii-text":      "simple-ascii-value",
		"utf8-text":       "café-München-日本",
		"spaces":          "value with spaces",
		"url-encoded":     "test%40example.com",
		"special-symbols": "!@#$%^&*()",
		"numbers":         "123456789",
		"mixed":           "Test_123-Value@2024",
	}
	if gerr := c.put(ctx, key, testData(256), check.PutOptions{ContentType: "application/octet-stream", Metadata: want}); gerr != nil {
		c.Fail("metadata_encoding_handling", fmt.Sprintf("failed to upload with encoded metadata: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}

	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	if gerr != nil {
		return gerr
	}
	preserved := countPreserved(want, head.Metadata)
	c.AddResult("metadata_encoding_handling", meetsThreshold(preserved, len(want), encodingThreshold),
		fmt.Sprintf("metadata encoding: %d/%d values preserved correctly", preserved, len(want)),
		map[string]any{"object_key": key, "returned_metadata": head.Metadata}, start)
	return nil
}

func (c *Metadata) probeSizeLimits(ctx context.Context) error {
	// S3 limits a single user metadata value well below 2KB
	start := time.Now()
	key := c.UniqueName()
	large := strings.Repeat("x", 2048)
	gerr := c.put(ctx, key, []byte("test data"), check.PutOptions{Metadata: map[string]string{"large-field": large}})
	switch {
	case gerr == nil:
		c.Fail("large_metadata_value_rejection", "large metadata value (2KB) was accepted, no size validation",
			map[string]any{"object_key": key, "value_size": len(large)}, start)
	case gerr.StatusIn(http.StatusBadRequest, http.StatusRequestEntityTooLarge):
		c.Pass("large_metadata_value_rejection", fmt.Sprintf("large metadata value correctly rejected: %v", gerr.Code),
			gwDetails(gerr, map[string]any{"object_key": key, "value_size": len(large)}), start)
	default:
		c.Fail("large_metadata_value_rejection", fmt.Sprintf("unexpected error for large metadata value: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}

	// the total user metadata budget is about 8KB on AWS
	start = time.Now()
	key = c.UniqueName()
	many := make(map[string]string, 100)
	totalSize := 0
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("field%d", i)
		v := strings.Repeat(fmt.Sprintf("value%d", i), 50)
		many[k] = v
		totalSize += len(k) + len(v)
	}
	gerr = c.put(ctx, key, []byte("test data"), check.PutOptions{Metadata: many})
	switch {
	case gerr == nil:
		c.AddResult("total_metadata_size_check", totalSize < 8192,
			fmt.Sprintf("total metadata size %d bytes accepted", totalSize),
			map[string]any{"object_key": key, "field_count": len(many), "total_size": totalSize}, start)
	case gerr.StatusIn(http.StatusBadRequest, http.StatusRequestEntityTooLarge):
		c.Pass("total_metadata_size_rejection",
			fmt.Sprintf("large total metadata size (%d bytes) correctly rejected", totalSize),
			gwDetails(gerr, map[string]any{"object_key": key, "field_count": len(many), "total_size": totalSize}), start)
	default:
		c.Fail("total_metadata_size_rejection", fmt.Sprintf("unexpected error for large total metadata: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}
	return nil
}

func (c *Metadata) probeCaseSensitivity(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	want := map[string]string{
		"lowercase": "value1",
		"UPPERCASE": "value2",
		"MixedCase": "value3",
		"camelCase": "value4",
	}
	if gerr := c.put(ctx, key, testData(256), check.PutOptions{Metadata: want}); gerr != nil {
		c.Fail("metadata_case_preservation", fmt.Sprintf("failed to upload case-varied metadata: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}

	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	if gerr != nil {
		return gerr
	}

	exact := 0
	found := 0
	for k := range want {
		if _, ok := head.Metadata[k]; ok {
			exact++
			found++
			continue
		}
		for ret := range head.Metadata {
			if strings.EqualFold(ret, k) {
				found++
				break
			}
		}
	}
	c.AddResult("metadata_case_preservation", meetsThreshold(exact, len(want), casePreserveThreshold),
		fmt.Sprintf("case sensitivity: %d/%d keys preserved exactly, %d found total", exact, len(want), found),
		map[string]any{"object_key": key, "exact_matches": exact, "total_found": found}, start)
	return nil
}

func (c *Metadata) probeCopyBehavior(ctx context.Context) error {
	srcKey := c.UniqueName()
	srcMeta := map[string]string{
		"original-author": "source-creator",
		"creation-time":   "2024-01-01",
		"category":        "original",
	}
	if gerr := c.put(ctx, srcKey, testData(512), check.PutOptions{ContentType: "text/plain", Metadata: srcMeta}); gerr != nil {
		return gerr
	}

	// copy without a directive keeps the source metadata
	start := time.Now()
	dstKey := c.UniqueName()
	if _, gerr := c.Gateway().CopyObject(ctx, c.Bucket(), srcKey, c.Bucket(), dstKey, nil, false); gerr != nil {
		c.Fail("metadata_copy_preservation", fmt.Sprintf("failed to copy object: %v", gerr),
			gwDetails(gerr, map[string]any{"source_key": srcKey, "dest_key": dstKey}), start)
		return nil
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), dstKey, ""))
	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), dstKey, "")
	if gerr != nil {
		return gerr
	}
	preserved := countPreserved(srcMeta, head.Metadata)
	c.AddResult("metadata_copy_preservation", meetsThreshold(preserved, len(srcMeta), copyPreserveThreshold),
		fmt.Sprintf("copy operation metadata preservation: %d/%d fields preserved", preserved, len(srcMeta)),
		map[string]any{"source_key": srcKey, "dest_key": dstKey, "dest_metadata": head.Metadata}, start)

	// copy with REPLACE swaps the whole metadata set
	start = time.Now()
	replKey := c.UniqueName()
	newMeta := map[string]string{
		"new-author":    "copy-creator",
		"modified-time": "2024-12-01",
		"category":      "modified",
	}
	if _, gerr := c.Gateway().CopyObject(ctx, c.Bucket(), srcKey, c.Bucket(), replKey, newMeta, true); gerr != nil {
		c.Fail("metadata_copy_replacement", fmt.Sprintf("failed to copy with metadata replacement: %v", gerr),
			gwDetails(gerr, map[string]any{"source_key": srcKey, "replacement_key": replKey}), start)
		return nil
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), replKey, ""))
	head, gerr = c.Gateway().HeadObject(ctx, c.Bucket(), replKey, "")
	if gerr != nil {
		return gerr
	}
	replaced := countPreserved(newMeta, head.Metadata) == len(newMeta)
	oldAbsent := true
	for k := range srcMeta {
		if k == "category" {
			// overwritten by the new set, not expected to vanish
			continue
		}
		if _, ok := head.Metadata[k]; ok {
			oldAbsent = false
		}
	}
	c.AddResult("metadata_copy_replacement", replaced && oldAbsent,
		fmt.Sprintf("copy with metadata replacement: new metadata set=%v, old metadata removed=%v", replaced, oldAbsent),
		map[string]any{"source_key": srcKey, "replacement_key": replKey, "replace_metadata": head.Metadata}, start)
	return nil
}

func (c *Metadata) probeSystemUserDistinction(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	userMeta := map[string]string{
		"user-field":  "user-value",
		"application": "test-app",
	}
	if gerr := c.put(ctx, key, testData(1024), check.PutOptions{
		ContentType:     "application/json",
		CacheControl:    "no-cache",
		ContentEncoding: "identity",
		Metadata:        userMeta,
	}); gerr != nil {
		c.Fail("system_user_metadata_distinction", fmt.Sprintf("failed to upload system and user metadata: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}

	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	if gerr != nil {
		return gerr
	}

	var systemPresent []string
	if head.ContentType != "" {
		systemPresent = append(systemPresent, "ContentType")
	}
	if head.ContentLength > 0 {
		systemPresent = append(systemPresent, "ContentLength")
	}
	if head.ETag != "" {
		systemPresent = append(systemPresent, "ETag")
	}
	if !head.LastModified.IsZero() {
		systemPresent = append(systemPresent, "LastModified")
	}

	userPreserved := countPreserved(userMeta, head.Metadata) == len(userMeta)

	// system fields must not leak into the user metadata map
	separated := true
	for k := range head.Metadata {
		switch strings.ToLower(k) {
		case "content-type", "content-length", "etag", "last-modified":
			separated = false
		}
	}

	c.AddResult("system_user_metadata_distinction",
		userPreserved && len(systemPresent) >= 3 && separated,
		fmt.Sprintf("system/user metadata distinction: system fields=%d, user preserved=%v, separated=%v",
			len(systemPresent), userPreserved, separated),
		map[string]any{"object_key": key, "system_metadata_present": systemPresent}, start)
	return nil
}

func (c *Metadata) probeEdgeCases(ctx context.Context) error {
	start := time.Now()
	emptyKey := c.UniqueName()
	gerr := c.put(ctx, emptyKey, []byte("test"), check.PutOptions{
		Metadata: map[string]string{"empty-field": "", "normal-field": "value"},
	})
	if gerr != nil {
		c.Fail("empty_metadata_values", fmt.Sprintf("failed to upload empty metadata values: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": emptyKey}), start)
	} else {
		head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), emptyKey, "")
		if gerr != nil {
			return gerr
		}
		_, emptyPresent := head.Metadata["empty-field"]
		normalPreserved := head.Metadata["normal-field"] == "value"
		c.AddResult("empty_metadata_values", normalPreserved,
			fmt.Sprintf("empty metadata values: empty field present=%v, normal field preserved=%v",
				emptyPresent, normalPreserved),
			map[string]any{"object_key": emptyKey, "returned_metadata": head.Metadata}, start)
	}

	start = time.Now()
	bareKey := c.UniqueName()
	if gerr := c.put(ctx, bareKey, []byte("test without metadata"), check.PutOptions{}); gerr != nil {
		c.Fail("no_metadata_baseline", fmt.Sprintf("failed to upload baseline object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": bareKey}), start)
		return nil
	}
	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), bareKey, "")
	if gerr != nil {
		return gerr
	}
	c.AddResult("no_metadata_baseline", len(head.Metadata) == 0,
		fmt.Sprintf("no metadata baseline: user metadata count=%d", len(head.Metadata)),
		map[string]any{"object_key": bareKey, "user_metadata": head.Metadata}, start)
	return nil
}

func countPreserved(want, got map[string]string) int {
	n := 0
	for k, v := range want {
		if got[k] == v {
			n++
		}
	}
	return n
}
