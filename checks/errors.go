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

// ErrorConditions verifies that invalid requests fail with the
// expected S3 error responses. A request that should be rejected but
// succeeds is recorded as a failure.
type ErrorConditions struct {
	*check.CategoryRunner
}

func NewErrorConditions(deps check.Deps) check.Category {
	return &ErrorConditions{check.NewRunner(deps, ScopeErrorConditions)}
}

func (c *ErrorConditions) Name() string { return ScopeErrorConditions }

func (c *ErrorConditions) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "invalid_bucket_operations", c.probeInvalidBuckets)
	c.Probe(ctx, "invalid_object_operations", c.probeInvalidObjects)
	c.Probe(ctx, "malformed_requests", c.probeMalformedRequests)
	c.Probe(ctx, "permission_errors", c.probePermissions)
	c.Probe(ctx, "resource_not_found", c.probeNotFound)
	c.Probe(ctx, "invalid_parameters", c.probeInvalidParameters)
	c.Probe(ctx, "size_limits", c.probeSizeLimits)
	c.Probe(ctx, "concurrent_access", c.probeConcurrentAccess)
	return nil
}

func (c *ErrorConditions) probeInvalidBuckets(ctx context.Context) error {
	cases := []struct {
		slug        string
		bucket      string
		description string
	}{
		{"underscores", "bucket_with_underscores", "bucket name with underscores"},
		{"capitals", "BUCKET-WITH-CAPITALS", "bucket name with capital letters"},
		{"trailing_hyphen", "bucket-", "bucket name ending with hyphen"},
		{"leading_hyphen", "-bucket", "bucket name starting with hyphen"},
		{"too_long", strings.Repeat("a", 64), "bucket name too long (64 chars)"},
		{"too_short", "ab", "bucket name too short (2 chars)"},
		{"double_dots", "bucket..name", "bucket name with consecutive dots"},
		{"ip_address", "192.168.1.1", "bucket name formatted as IP address"},
		{"space", "bucket name", "bucket name with space"},
		{"empty", "", "empty bucket name"},
	}
	for _, tc := range cases {
		start := time.Now()
		flow := "invalid_bucket_name_" + tc.slug
		gerr := c.Gateway().CreateBucket(ctx, tc.bucket)
		if gerr == nil {
			c.RegisterCleanup(check.BucketItem(tc.bucket))
			c.Fail(flow, fmt.Sprintf("invalid bucket name accepted: %s", tc.description),
				map[string]any{"bucket_name": tc.bucket, "description": tc.description}, start)
			continue
		}
		c.AddResult(flow, gerr.StatusIn(http.StatusBadRequest, http.StatusForbidden),
			fmt.Sprintf("invalid bucket name rejected: %s (%s)", tc.description, gerr.Code),
			gwDetails(gerr, map[string]any{"bucket_name": tc.bucket, "description": tc.description}), start)
	}

	missing := c.UniqueName() + "-nonexistent"
	ops := []struct {
		name string
		fn   func() *check.GatewayError
	}{
		{"head_bucket", func() *check.GatewayError { return c.Gateway().HeadBucket(ctx, missing) }},
		{"delete_bucket", func() *check.GatewayError { return c.Gateway().DeleteBucket(ctx, missing) }},
		{"put_object", func() *check.GatewayError {
			_, gerr := c.Gateway().PutObject(ctx, missing, "test", []byte("data"), check.PutOptions{})
			return gerr
		}},
		{"get_object", func() *check.GatewayError {
			_, gerr := c.Gateway().GetObject(ctx, missing, "test", check.GetOptions{})
			return gerr
		}},
		{"list_objects", func() *check.GatewayError {
			_, gerr := c.Gateway().ListObjectsV2(ctx, missing, "", 0, "")
			return gerr
		}},
	}
	for _, op := range ops {
		start := time.Now()
		flow := "nonexistent_bucket_" + op.name
		gerr := op.fn()
		if gerr == nil {
			c.Fail(flow, fmt.Sprintf("operation %s succeeded on non-existent bucket", op.name),
				map[string]any{"bucket_name": missing, "operation": op.name}, start)
			continue
		}
		c.AddResult(flow, gerr.StatusIn(http.StatusNotFound),
			fmt.Sprintf("operation %s on non-existent bucket: %s (status %d)", op.name, gerr.Code, gerr.HTTPStatus),
			gwDetails(gerr, map[string]any{"bucket_name": missing, "operation": op.name}), start)
	}
	return nil
}

func (c *ErrorConditions) probeInvalidObjects(ctx context.Context) error {
	cases := []struct {
		slug        string
		key         string
		description string
	}{
		{"empty", "", "empty object key"},
		{"too_long", "/" + strings.Repeat("a", 1024), "object key too long"},
		{"null_char", "object\x00null", "object key with null character"},
		{"control_char", "object\x01control", "object key with control character"},
	}
	for _, tc := range cases {
		start := time.Now()
		flow := "invalid_object_key_" + tc.slug
		_, gerr := c.Gateway().PutObject(ctx, c.Bucket(), tc.key, []byte("test data"), check.PutOptions{})
		if gerr == nil {
			c.RegisterCleanup(check.ObjectItem(c.Bucket(), tc.key, ""))
			c.Fail(flow, fmt.Sprintf("invalid object key accepted: %s", tc.description),
				map[string]any{"object_key": fmt.Sprintf("%q", tc.key), "description": tc.description}, start)
			continue
		}
		c.AddResult(flow, gerr.StatusIn(http.StatusBadRequest, http.StatusForbidden),
			fmt.Sprintf("invalid object key rejected: %s (%s)", tc.description, gerr.Code),
			gwDetails(gerr, map[string]any{"object_key": fmt.Sprintf("%q", tc.key), "description": tc.description}), start)
	}

	missing := c.UniqueName() + "-nonexistent"
	ops := []struct {
		name string
		fn   func() *check.GatewayError
	}{
		{"get_object", func() *check.GatewayError {
			_, gerr := c.Gateway().GetObject(ctx, c.Bucket(), missing, check.GetOptions{})
			return gerr
		}},
		{"head_object", func() *check.GatewayError {
			_, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), missing, "")
			return gerr
		}},
		{"delete_object", func() *check.GatewayError {
			return c.Gateway().DeleteObject(ctx, c.Bucket(), missing, "")
		}},
		{"copy_object", func() *check.GatewayError {
			_, gerr := c.Gateway().CopyObject(ctx, c.Bucket(), missing, c.Bucket(), "copy-dest", nil, false)
			return gerr
		}},
		{"get_object_tagging", func() *check.GatewayError {
			_, gerr := c.Gateway().GetObjectTagging(ctx, c.Bucket(), missing)
			return gerr
		}},
	}
	for _, op := range ops {
		start := time.Now()
		flow := "nonexistent_object_" + op.name
		gerr := op.fn()
		if gerr == nil {
			// deleting a missing object is idempotent on S3
			if op.name == "delete_object" {
				c.Pass(flow, "delete of non-existent object succeeded (idempotent behavior)",
					map[string]any{"object_key": missing, "operation": op.name}, start)
			} else {
				c.Fail(flow, fmt.Sprintf("operation %s succeeded on non-existent object", op.name),
					map[string]any{"object_key": missing, "operation": op.name}, start)
			}
			continue
		}
		c.AddResult(flow, gerr.StatusIn(http.StatusNotFound),
			fmt.Sprintf("operation %s on non-existent object: %s (status %d)", op.name, gerr.Code, gerr.HTTPStatus),
			gwDetails(gerr, map[string]any{"object_key": missing, "operation": op.name}), start)
	}
	return nil
}

func (c *ErrorConditions) probeMalformedRequests(ctx context.Context) error {
	start := time.Now()
	parts := []check.CompletedPart{{PartNumber: 1, ETag: "fake-etag"}}
	_, gerr := c.Gateway().CompleteMultipartUpload(ctx, c.Bucket(), "test-multipart", "invalid-upload-id-12345", parts)
	switch {
	case gerr == nil:
		c.Fail("malformed_complete_multipart", "complete multipart upload with invalid upload id succeeded",
			map[string]any{"upload_id": "invalid-upload-id-12345"}, start)
	case gerr.StatusIn(http.StatusBadRequest, http.StatusNotFound):
		c.Pass("malformed_complete_multipart",
			fmt.Sprintf("invalid upload id correctly rejected: %s", gerr.Code),
			gwDetails(gerr, map[string]any{"upload_id": "invalid-upload-id-12345"}), start)
	default:
		c.Fail("malformed_complete_multipart",
			fmt.Sprintf("invalid upload id returned unexpected error: %v", gerr),
			gwDetails(gerr, nil), start)
	}

	// an empty tag set is not a valid Tagging document
	start = time.Now()
	gerr = c.Gateway().PutBucketTagging(ctx, c.Bucket(), map[string]string{})
	switch {
	case gerr == nil:
		c.Fail("malformed_bucket_tagging", "empty bucket tagging structure accepted",
			map[string]any{"bucket": c.Bucket()}, start)
	case gerr.StatusIn(http.StatusBadRequest):
		c.Pass("malformed_bucket_tagging",
			fmt.Sprintf("invalid bucket tagging structure correctly rejected: %s", gerr.Code),
			gwDetails(gerr, nil), start)
	default:
		c.Fail("malformed_bucket_tagging",
			fmt.Sprintf("invalid bucket tagging returned unexpected error: %v", gerr),
			gwDetails(gerr, nil), start)
	}

	start = time.Now()
	gerr = c.Gateway().PutBucketVersioning(ctx, c.Bucket(), "InvalidStatus")
	switch {
	case gerr == nil:
		c.Fail("malformed_versioning_config", "invalid versioning configuration accepted",
			map[string]any{"bucket": c.Bucket()}, start)
	case gerr.StatusIn(http.StatusBadRequest):
		c.Pass("malformed_versioning_config",
			fmt.Sprintf("invalid versioning configuration correctly rejected: %s", gerr.Code),
			gwDetails(gerr, nil), start)
	default:
		c.Fail("malformed_versioning_config",
			fmt.Sprintf("invalid versioning configuration returned unexpected error: %v", gerr),
			gwDetails(gerr, nil), start)
	}
	return nil
}

func (c *ErrorConditions) probePermissions(ctx context.Context) error {
	start := time.Now()
	_, gerr := c.Gateway().GetBucketPolicy(ctx, c.Bucket())
	switch {
	case gerr == nil:
		c.Fail("bucket_policy_access", "bucket policy access succeeded (unexpected, no policy was set)",
			map[string]any{"bucket": c.Bucket()}, start)
	case gerr.StatusIn(http.StatusForbidden, http.StatusNotImplemented):
		c.Pass("bucket_policy_access",
			fmt.Sprintf("bucket policy access denied or not implemented: %s", gerr.Code),
			gwDetails(gerr, nil), start)
	case gerr.StatusIn(http.StatusNotFound):
		c.Pass("bucket_policy_access", "bucket policy not found (acceptable, no policy set)",
			gwDetails(gerr, nil), start)
	default:
		c.Fail("bucket_policy_access",
			fmt.Sprintf("bucket policy access returned unexpected error: %v", gerr),
			gwDetails(gerr, nil), start)
	}
	return nil
}

func (c *ErrorConditions) probeNotFound(ctx context.Context) error {
	resources := []struct {
		name string
		fn   func() *check.GatewayError
	}{
		{"bucket", func() *check.GatewayError { return c.Gateway().HeadBucket(ctx, "missing-bucket-12345") }},
		{"object", func() *check.GatewayError {
			_, gerr := c.Gateway().GetObject(ctx, c.Bucket(), "missing-object-12345", check.GetOptions{})
			return gerr
		}},
		{"object_metadata", func() *check.GatewayError {
			_, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), "missing-metadata-12345", "")
			return gerr
		}},
		{"object_tags", func() *check.GatewayError {
			_, gerr := c.Gateway().GetObjectTagging(ctx, c.Bucket(), "missing-tags-12345")
			return gerr
		}},
	}
	for _, r := range resources {
		start := time.Now()
		flow := fmt.Sprintf("missing_%s_404", r.name)
		gerr := r.fn()
		if gerr == nil {
			c.Fail(flow, fmt.Sprintf("missing %s operation succeeded unexpectedly", r.name),
				map[string]any{"resource_type": r.name}, start)
			continue
		}
		c.AddResult(flow, gerr.StatusIn(http.StatusNotFound),
			fmt.Sprintf("missing %s returned status %d (%s)", r.name, gerr.HTTPStatus, gerr.Code),
			gwDetails(gerr, map[string]any{"resource_type": r.name}), start)
	}
	return nil
}

func (c *ErrorConditions) probeInvalidParameters(ctx context.Context) error {
	key := c.UniqueName()
	if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key,
		[]byte("test data for parameter validation"), check.PutOptions{}); gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))

	start := time.Now()
	_, gerr := c.Gateway().GetObject(ctx, c.Bucket(), key,
		check.GetOptions{VersionID: "invalid-version-id-12345"})
	switch {
	case gerr == nil:
		c.Fail("invalid_version_id", "invalid version id accepted",
			map[string]any{"object_key": key, "version_id": "invalid-version-id-12345"}, start)
	case gerr.StatusIn(http.StatusBadRequest, http.StatusNotFound):
		c.Pass("invalid_version_id",
			fmt.Sprintf("invalid version id correctly rejected: %s", gerr.Code),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	default:
		c.Fail("invalid_version_id",
			fmt.Sprintf("invalid version id returned unexpected error: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}
	return nil
}

func (c *ErrorConditions) probeSizeLimits(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	meta := make(map[string]string, 20)
	for i := 0; i < 20; i++ {
		meta[fmt.Sprintf("key%d", i)] = strings.Repeat("x", 1000)
	}
	_, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, []byte("test"), check.PutOptions{Metadata: meta})
	switch {
	case gerr == nil:
		c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
		c.Fail("large_metadata_limit", "20KB of user metadata accepted (no size limits enforced)",
			map[string]any{"object_key": key, "metadata_size": 20 * 1000}, start)
	case gerr.StatusIn(http.StatusBadRequest, http.StatusRequestEntityTooLarge):
		c.Pass("large_metadata_limit",
			fmt.Sprintf("large metadata correctly rejected: %s", gerr.Code),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	default:
		c.Fail("large_metadata_limit",
			fmt.Sprintf("large metadata returned unexpected error: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}
	return nil
}

func (c *ErrorConditions) probeConcurrentAccess(ctx context.Context) error {
	start := time.Now()
	gerr := c.Gateway().CreateBucket(ctx, c.Bucket())
	switch {
	case gerr == nil:
		c.Pass("duplicate_bucket_creation", "duplicate bucket creation succeeded (idempotent behavior)",
			map[string]any{"bucket": c.Bucket()}, start)
	case gerr.Code == "BucketAlreadyExists" || gerr.Code == "BucketAlreadyOwnedByYou":
		c.Pass("duplicate_bucket_creation",
			fmt.Sprintf("duplicate bucket creation correctly rejected: %s", gerr.Code),
			gwDetails(gerr, nil), start)
	default:
		c.Fail("duplicate_bucket_creation",
			fmt.Sprintf("duplicate bucket creation returned unexpected error: %v", gerr),
			gwDetails(gerr, nil), start)
	}

	blocker := c.UniqueName()
	if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), blocker, []byte("blocking object"), check.PutOptions{}); gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), blocker, ""))

	start = time.Now()
	gerr = c.Gateway().DeleteBucket(ctx, c.Bucket())
	switch {
	case gerr == nil:
		c.Fail("delete_bucket_with_objects", "bucket deletion succeeded despite containing objects",
			map[string]any{"bucket": c.Bucket(), "object_key": blocker}, start)
	case gerr.Code == "BucketNotEmpty" || gerr.StatusIn(http.StatusConflict):
		c.Pass("delete_bucket_with_objects", "bucket deletion correctly rejected (bucket not empty)",
			gwDetails(gerr, map[string]any{"object_key": blocker}), start)
	default:
		c.Fail("delete_bucket_with_objects",
			fmt.Sprintf("bucket deletion returned unexpected error: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": blocker}), start)
	}
	return nil
}
