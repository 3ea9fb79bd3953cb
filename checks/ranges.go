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
	"net/http"
	"strings"
	"time"

	"github.com/versity/s3check/check"
)

// rangeObjectSize is 100 lines of exactly 100 bytes each, so byte
// offsets are easy to reason about when a range probe fails.
const rangeObjectSize = 10000

// Ranges exercises HTTP Range requests against a structured object:
// single bytes, partial spans, suffix ranges, multiple ranges,
// invalid specs and conditional ranges with If-Range.
type Ranges struct {
	*check.CategoryRunner

	key  string
	data []byte
}

func NewRangeRequests(deps check.Deps) check.Category {
	return &Ranges{CategoryRunner: check.NewRunner(deps, ScopeRangeRequests)}
}

func (c *Ranges) Name() string { return ScopeRangeRequests }

func (c *Ranges) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "range_test_object", c.probeUpload)
	if c.key == "" {
		return nil
	}
	c.Probe(ctx, "range_single_byte", c.probeSingleBytes)
	c.Probe(ctx, "range_partial", c.probePartial)
	c.Probe(ctx, "range_suffix", c.probeSuffix)
	c.Probe(ctx, "range_multiple", c.probeMultiple)
	c.Probe(ctx, "range_invalid", c.probeInvalid)
	c.Probe(ctx, "range_conditional", c.probeConditional)
	return nil
}

// rangeData builds the range test object: line i is
// "Line 00i: xxxx...x\n", padded to exactly 100 bytes.
func rangeData() []byte {
	var buf bytes.Buffer
	buf.Grow(rangeObjectSize)
	for i := 0; i < 100; i++ {
		prefix := fmt.Sprintf("Line %03d: ", i)
		buf.WriteString(prefix)
		buf.WriteString(strings.Repeat("x", 99-len(prefix)))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (c *Ranges) probeUpload(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	data := rangeData()
	_, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, data,
		check.PutOptions{ContentType: "application/octet-stream"})
	if gerr != nil {
		c.Fail("range_test_object_upload", fmt.Sprintf("failed to upload range test object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
	c.key = key
	c.data = data
	c.Pass("range_test_object_upload",
		fmt.Sprintf("uploaded %d byte structured test object", len(data)),
		map[string]any{"object_key": key, "object_size": len(data)}, start)
	return nil
}

func (c *Ranges) get(ctx context.Context, rng, ifRange string) (check.GetObjectResult, *check.GatewayError) {
	return c.Gateway().GetObject(ctx, c.Bucket(), c.key, check.GetOptions{Range: rng, IfRange: ifRange})
}

func (c *Ranges) probeSingleBytes(ctx context.Context) error {
	cases := []struct {
		name   string
		header string
		offset int64
	}{
		{"first_byte", "bytes=0-0", 0},
		{"line_boundary", "bytes=99-99", 99},
		{"mid_object", "bytes=500-500", 500},
		{"last_byte", "bytes=-1", rangeObjectSize - 1},
	}
	for _, tc := range cases {
		start := time.Now()
		flow := "range_single_byte_" + tc.name
		res, gerr := c.get(ctx, tc.header, "")
		if gerr != nil {
			c.Fail(flow, fmt.Sprintf("single byte range %q failed: %v", tc.header, gerr),
				gwDetails(gerr, map[string]any{"range_header": tc.header}), start)
			continue
		}

		wantRange := fmt.Sprintf("bytes %d-%d/", tc.offset, tc.offset)
		checks := map[string]bool{
			"status_206":             res.StatusCode == http.StatusPartialContent,
			"content_range_header":   res.ContentRange != "",
			"content_range_correct":  strings.HasPrefix(res.ContentRange, wantRange),
			"data_matches":           len(res.Body) == 1 && res.Body[0] == c.data[tc.offset],
			"content_length_correct": res.ContentLength == 1,
		}
		passed := 0
		for _, ok := range checks {
			if ok {
				passed++
			}
		}
		c.AddResult(flow, passed >= 3,
			fmt.Sprintf("single byte range %q: %d/%d checks passed", tc.header, passed, len(checks)),
			map[string]any{"range_header": tc.header, "checks": checks, "content_range": res.ContentRange}, start)
	}
	return nil
}

func (c *Ranges) probePartial(ctx context.Context) error {
	cases := []struct {
		first, last int64
	}{
		{0, 99},
		{100, 299},
		{1000, 1999},
		{5000, 7499},
		{9900, 9999},
	}
	for _, tc := range cases {
		start := time.Now()
		header := fmt.Sprintf("bytes=%d-%d", tc.first, tc.last)
		flow := fmt.Sprintf("range_partial_%d_%d", tc.first, tc.last)
		res, gerr := c.get(ctx, header, "")
		if gerr != nil {
			c.Fail(flow, fmt.Sprintf("partial range %q failed: %v", header, gerr),
				gwDetails(gerr, map[string]any{"range_header": header}), start)
			continue
		}
		wantLen := tc.last - tc.first + 1
		ok := res.StatusCode == http.StatusPartialContent &&
			int64(len(res.Body)) == wantLen &&
			bytes.Equal(res.Body, c.data[tc.first:tc.last+1])
		c.AddResult(flow, ok,
			fmt.Sprintf("partial range %q: status=%d, got %d bytes, want %d",
				header, res.StatusCode, len(res.Body), wantLen),
			map[string]any{"range_header": header, "content_range": res.ContentRange}, start)
	}
	return nil
}

func (c *Ranges) probeSuffix(ctx context.Context) error {
	for _, n := range []int64{1, 10, 100, 1000, 10000} {
		start := time.Now()
		header := fmt.Sprintf("bytes=-%d", n)
		flow := fmt.Sprintf("range_suffix_%d", n)
		res, gerr := c.get(ctx, header, "")
		if gerr != nil {
			c.Fail(flow, fmt.Sprintf("suffix range %q failed: %v", header, gerr),
				gwDetails(gerr, map[string]any{"range_header": header}), start)
			continue
		}
		want := c.data[rangeObjectSize-n:]
		ok := res.StatusCode == http.StatusPartialContent && bytes.Equal(res.Body, want)
		c.AddResult(flow, ok,
			fmt.Sprintf("suffix range %q: status=%d, got %d bytes, want %d",
				header, res.StatusCode, len(res.Body), len(want)),
			map[string]any{"range_header": header, "content_range": res.ContentRange}, start)
	}
	return nil
}

func (c *Ranges) probeMultiple(ctx context.Context) error {
	headers := []string{
		"bytes=0-99,200-299",
		"bytes=0-49,100-149,200-249",
		"bytes=0-9,-10",
	}
	for i, header := range headers {
		start := time.Now()
		flow := fmt.Sprintf("range_multiple_%d", i+1)
		res, gerr := c.get(ctx, header, "")
		if gerr != nil {
			// rejecting multi range requests outright is allowed
			if gerr.StatusIn(http.StatusBadRequest, http.StatusNotImplemented) {
				c.Pass(flow, fmt.Sprintf("multiple ranges %q not supported (acceptable): %v", header, gerr.Code),
					gwDetails(gerr, map[string]any{"range_header": header}), start)
			} else {
				c.Fail(flow, fmt.Sprintf("multiple ranges %q failed unexpectedly: %v", header, gerr),
					gwDetails(gerr, map[string]any{"range_header": header}), start)
			}
			continue
		}
		multipart := strings.HasPrefix(res.ContentType, "multipart/byteranges")
		ok := multipart || res.StatusCode == http.StatusPartialContent
		c.AddResult(flow, ok,
			fmt.Sprintf("multiple ranges %q: status=%d, multipart=%v", header, res.StatusCode, multipart),
			map[string]any{"range_header": header, "content_type": res.ContentType}, start)
	}
	return nil
}

func (c *Ranges) probeInvalid(ctx context.Context) error {
	headers := []string{
		"bytes=abc-def",
		"bytes=100-50",
		"bytes=",
		"bytes=-",
		"invalid-unit=0-100",
		"bytes=1-2-3",
		"bytes=20000-30000",
	}
	for i, header := range headers {
		start := time.Now()
		flow := fmt.Sprintf("range_invalid_%d", i+1)
		res, gerr := c.get(ctx, header, "")
		if gerr != nil {
			if gerr.StatusIn(http.StatusBadRequest, http.StatusRequestedRangeNotSatisfiable) {
				c.Pass(flow, fmt.Sprintf("invalid range %q correctly rejected: %v", header, gerr.Code),
					gwDetails(gerr, map[string]any{"range_header": header}), start)
			} else {
				c.Fail(flow, fmt.Sprintf("invalid range %q failed unexpectedly: %v", header, gerr),
					gwDetails(gerr, map[string]any{"range_header": header}), start)
			}
			continue
		}
		// ignoring a malformed Range and serving the full object is
		// also correct, a 206 here means the header was misparsed
		fullObject := res.StatusCode == http.StatusOK && int64(len(res.Body)) == int64(len(c.data))
		c.AddResult(flow, fullObject,
			fmt.Sprintf("invalid range %q: status=%d, got %d bytes", header, res.StatusCode, len(res.Body)),
			map[string]any{"range_header": header}, start)
	}
	return nil
}

func (c *Ranges) probeConditional(ctx context.Context) error {
	start := time.Now()
	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), c.key, "")
	if gerr != nil {
		c.Fail("range_with_etag", fmt.Sprintf("failed to get etag for conditional range: %v", gerr),
			gwDetails(gerr, nil), start)
		return nil
	}

	res, gerr := c.get(ctx, "bytes=0-99", head.ETag)
	if gerr != nil {
		c.Fail("range_with_matching_etag", fmt.Sprintf("conditional range with matching etag failed: %v", gerr),
			gwDetails(gerr, map[string]any{"etag": head.ETag}), start)
	} else {
		ok := res.StatusCode == http.StatusPartialContent && bytes.Equal(res.Body, c.data[:100])
		c.AddResult("range_with_matching_etag", ok,
			fmt.Sprintf("conditional range with matching etag: status=%d, got %d bytes",
				res.StatusCode, len(res.Body)),
			map[string]any{"etag": head.ETag}, start)
	}

	// a non matching If-Range downgrades to a full response
	start = time.Now()
	res, gerr = c.get(ctx, "bytes=0-99", `"fake-etag-12345"`)
	if gerr != nil {
		c.Pass("range_with_nonmatching_etag",
			fmt.Sprintf("conditional range with non-matching etag rejected: %v", gerr.Code),
			gwDetails(gerr, nil), start)
		return nil
	}
	full := res.StatusCode == http.StatusOK && int64(len(res.Body)) == int64(len(c.data))
	c.AddResult("range_with_nonmatching_etag", full,
		fmt.Sprintf("conditional range with non-matching etag: status=%d, got %d bytes (full object expected)",
			res.StatusCode, len(res.Body)),
		map[string]any{}, start)
	return nil
}
