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
	"time"

	"github.com/versity/s3check/check"
)

// Buckets covers the bucket management surface: creation with name
// validation, listing, head, versioning and tagging configuration,
// and deletion semantics.
type Buckets struct {
	*check.CategoryRunner
}

func NewBuckets(deps check.Deps) check.Category {
	return &Buckets{check.NewRunner(deps, ScopeBuckets)}
}

func (c *Buckets) Name() string { return ScopeBuckets }

func (c *Buckets) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "bucket_creation", c.probeCreation)
	c.Probe(ctx, "bucket_listing", c.probeListing)
	c.Probe(ctx, "bucket_head", c.probeHead)
	c.Probe(ctx, "bucket_versioning", c.probeVersioning)
	c.Probe(ctx, "bucket_tagging", c.probeTagging)
	c.Probe(ctx, "bucket_deletion", c.probeDeletion)
	return nil
}

func (c *Buckets) probeCreation(ctx context.Context) error {
	start := time.Now()
	bucket := c.UniqueName()
	if gerr := c.Gateway().CreateBucket(ctx, bucket); gerr != nil {
		c.Fail("bucket_creation", fmt.Sprintf("failed to create bucket %q: %v", bucket, gerr),
			gwDetails(gerr, map[string]any{"bucket_name": bucket}), start)
	} else {
		c.RegisterCleanup(check.BucketItem(bucket))
		c.Pass("bucket_creation", fmt.Sprintf("successfully created bucket %q", bucket),
			map[string]any{"bucket_name": bucket}, start)
	}

	// S3 naming rules forbid underscores and capitals
	start = time.Now()
	invalid := "Invalid_Bucket_Name_With_Underscores_And_Capitals"
	gerr := c.Gateway().CreateBucket(ctx, invalid)
	if gerr == nil {
		c.RegisterCleanup(check.BucketItem(invalid))
		c.Fail("bucket_creation_invalid_name",
			fmt.Sprintf("created bucket with invalid name %q, violates S3 naming rules", invalid),
			map[string]any{"bucket_name": invalid}, start)
		return nil
	}
	if gerr.StatusIn(http.StatusBadRequest, http.StatusForbidden) {
		c.Pass("bucket_creation_invalid_name",
			fmt.Sprintf("correctly rejected invalid bucket name: %v", gerr.Code),
			gwDetails(gerr, nil), start)
	} else {
		c.Fail("bucket_creation_invalid_name",
			fmt.Sprintf("unexpected error for invalid bucket name: %v", gerr),
			gwDetails(gerr, nil), start)
	}
	return nil
}

func (c *Buckets) probeListing(ctx context.Context) error {
	start := time.Now()
	buckets, gerr := c.Gateway().ListBuckets(ctx)
	if gerr != nil {
		c.Fail("bucket_listing", fmt.Sprintf("failed to list buckets: %v", gerr), gwDetails(gerr, nil), start)
		return nil
	}
	c.Pass("bucket_listing", fmt.Sprintf("successfully listed %d buckets", len(buckets)),
		map[string]any{"bucket_count": len(buckets)}, start)

	for _, b := range buckets {
		if b.Name == "" || b.CreationDate.IsZero() {
			c.Fail("bucket_listing_structure", "bucket list contains entry without name or creation date",
				map[string]any{"bucket_name": b.Name}, start)
			return nil
		}
	}
	c.Pass("bucket_listing_structure", "bucket listing has correct structure",
		map[string]any{"bucket_count": len(buckets)}, start)
	return nil
}

func (c *Buckets) probeHead(ctx context.Context) error {
	start := time.Now()
	if gerr := c.Gateway().HeadBucket(ctx, c.Bucket()); gerr != nil {
		c.Fail("bucket_head_existing", fmt.Sprintf("failed head operation on existing bucket: %v", gerr),
			gwDetails(gerr, map[string]any{"bucket_name": c.Bucket()}), start)
	} else {
		c.Pass("bucket_head_existing", fmt.Sprintf("successfully performed head operation on bucket %q", c.Bucket()),
			map[string]any{"bucket_name": c.Bucket()}, start)
	}

	start = time.Now()
	missing := c.UniqueName()
	gerr := c.Gateway().HeadBucket(ctx, missing)
	switch {
	case gerr == nil:
		c.Fail("bucket_head_nonexistent", fmt.Sprintf("head operation succeeded on nonexistent bucket %q", missing),
			map[string]any{"bucket_name": missing}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("bucket_head_nonexistent", "correctly returned 404 for nonexistent bucket",
			gwDetails(gerr, map[string]any{"bucket_name": missing}), start)
	default:
		c.Fail("bucket_head_nonexistent", fmt.Sprintf("unexpected status for nonexistent bucket: %d", gerr.HTTPStatus),
			gwDetails(gerr, map[string]any{"bucket_name": missing}), start)
	}
	return nil
}

func (c *Buckets) probeVersioning(ctx context.Context) error {
	start := time.Now()
	status, gerr := c.Gateway().GetBucketVersioning(ctx, c.Bucket())
	if gerr != nil {
		return gerr
	}
	if status == "" || status == "Disabled" {
		c.Pass("bucket_versioning_default", "bucket versioning correctly disabled by default",
			map[string]any{"status": status}, start)
	} else {
		c.Fail("bucket_versioning_default", fmt.Sprintf("unexpected default versioning status: %v", status),
			map[string]any{"status": status}, start)
	}

	start = time.Now()
	if gerr := c.Gateway().PutBucketVersioning(ctx, c.Bucket(), "Enabled"); gerr != nil {
		c.Fail("bucket_versioning_enable", fmt.Sprintf("failed to enable versioning: %v", gerr), gwDetails(gerr, nil), start)
		return nil
	}
	status, gerr = c.Gateway().GetBucketVersioning(ctx, c.Bucket())
	if gerr != nil {
		return gerr
	}
	if status == "Enabled" {
		c.Pass("bucket_versioning_enable", "successfully enabled bucket versioning", nil, start)
	} else {
		c.Fail("bucket_versioning_enable", fmt.Sprintf("failed to enable versioning, status: %v", status),
			map[string]any{"status": status}, start)
	}
	return nil
}

func (c *Buckets) probeTagging(ctx context.Context) error {
	want := map[string]string{
		"Environment": "Test",
		"Purpose":     "S3CompatibilityCheck",
	}

	start := time.Now()
	if gerr := c.Gateway().PutBucketTagging(ctx, c.Bucket(), want); gerr != nil {
		return gerr
	}
	got, gerr := c.Gateway().GetBucketTagging(ctx, c.Bucket())
	if gerr != nil {
		return gerr
	}
	if tagsEqual(got, want) {
		c.Pass("bucket_tagging_put_get", "successfully set and retrieved bucket tags",
			map[string]any{"tags": got}, start)
	} else {
		c.Fail("bucket_tagging_put_get", fmt.Sprintf("tag values don't match: %v", got),
			map[string]any{"expected": want, "actual": got}, start)
	}

	start = time.Now()
	if gerr := c.Gateway().DeleteBucketTagging(ctx, c.Bucket()); gerr != nil {
		return gerr
	}
	got, gerr = c.Gateway().GetBucketTagging(ctx, c.Bucket())
	switch {
	case gerr == nil && len(got) == 0:
		c.Pass("bucket_tagging_delete", "successfully deleted bucket tags", nil, start)
	case gerr == nil:
		c.Fail("bucket_tagging_delete", fmt.Sprintf("tags still exist after deletion: %v", got),
			map[string]any{"remaining_tags": got}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("bucket_tagging_delete", "successfully deleted bucket tags (404 response)", gwDetails(gerr, nil), start)
	default:
		c.Fail("bucket_tagging_delete", fmt.Sprintf("unexpected error after tag deletion: %v", gerr),
			gwDetails(gerr, nil), start)
	}
	return nil
}

func (c *Buckets) probeDeletion(ctx context.Context) error {
	bucket := c.UniqueName()
	if gerr := c.Gateway().CreateBucket(ctx, bucket); gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.BucketItem(bucket))

	start := time.Now()
	if gerr := c.Gateway().DeleteBucket(ctx, bucket); gerr != nil {
		c.Fail("bucket_deletion_empty", fmt.Sprintf("failed to delete empty bucket: %v", gerr),
			gwDetails(gerr, map[string]any{"bucket_name": bucket}), start)
	} else {
		c.DropCleanup(check.BucketItem(bucket))
		c.Pass("bucket_deletion_empty", fmt.Sprintf("successfully deleted empty bucket %q", bucket),
			map[string]any{"bucket_name": bucket}, start)
	}

	start = time.Now()
	missing := c.UniqueName()
	gerr := c.Gateway().DeleteBucket(ctx, missing)
	switch {
	case gerr == nil:
		c.Fail("bucket_deletion_nonexistent", fmt.Sprintf("delete succeeded on nonexistent bucket %q", missing),
			map[string]any{"bucket_name": missing}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("bucket_deletion_nonexistent", "correctly returned 404 for nonexistent bucket deletion",
			gwDetails(gerr, map[string]any{"bucket_name": missing}), start)
	default:
		c.Fail("bucket_deletion_nonexistent",
			fmt.Sprintf("unexpected status for nonexistent bucket deletion: %d", gerr.HTTPStatus),
			gwDetails(gerr, map[string]any{"bucket_name": missing}), start)
	}
	return nil
}

func tagsEqual(got, want map[string]string) bool {
	if len(got) != len(want) {
		return false
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}
