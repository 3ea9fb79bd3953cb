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

// Tagging covers bucket and object tag set management including tag
// replacement and delete-then-read behavior.
type Tagging struct {
	*check.CategoryRunner
}

func NewTagging(deps check.Deps) check.Category {
	return &Tagging{check.NewRunner(deps, ScopeTagging)}
}

func (c *Tagging) Name() string { return ScopeTagging }

func (c *Tagging) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "bucket_tagging", c.probeBucketTagging)
	c.Probe(ctx, "object_tagging", c.probeObjectTagging)
	return nil
}

func (c *Tagging) probeBucketTagging(ctx context.Context) error {
	want := map[string]string{
		"Environment": "Test",
		"Purpose":     "S3CompatibilityCheck",
		"Project":     "AutomatedTesting",
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
		c.Fail("bucket_tagging_put_get", fmt.Sprintf("tag values don't match: expected %v, got %v", want, got),
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

func (c *Tagging) probeObjectTagging(ctx context.Context) error {
	key := c.UniqueName()
	if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, []byte("Test data for tagging operations"), check.PutOptions{}); gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))

	want := map[string]string{
		"ObjectType": "TestData",
		"Category":   "TaggingTest",
		"Temporary":  "True",
	}
	start := time.Now()
	if gerr := c.Gateway().PutObjectTagging(ctx, c.Bucket(), key, want); gerr != nil {
		return gerr
	}
	got, gerr := c.Gateway().GetObjectTagging(ctx, c.Bucket(), key)
	if gerr != nil {
		return gerr
	}
	if tagsEqual(got, want) {
		c.Pass("object_tagging_put_get", "successfully set and retrieved object tags",
			map[string]any{"object_key": key, "tags": got}, start)
	} else {
		c.Fail("object_tagging_put_get", fmt.Sprintf("object tag values don't match: expected %v, got %v", want, got),
			map[string]any{"object_key": key, "expected": want, "actual": got}, start)
	}

	// a second put replaces the whole tag set
	update := map[string]string{
		"Status":  "Updated",
		"Version": "2.0",
	}
	start = time.Now()
	if gerr := c.Gateway().PutObjectTagging(ctx, c.Bucket(), key, update); gerr != nil {
		return gerr
	}
	got, gerr = c.Gateway().GetObjectTagging(ctx, c.Bucket(), key)
	if gerr != nil {
		return gerr
	}
	if tagsEqual(got, update) {
		c.Pass("object_tagging_update", "successfully updated object tags",
			map[string]any{"object_key": key, "updated_tags": got}, start)
	} else {
		c.Fail("object_tagging_update", "updated object tags don't match expected",
			map[string]any{"object_key": key, "expected": update, "actual": got}, start)
	}

	start = time.Now()
	if gerr := c.Gateway().DeleteObjectTagging(ctx, c.Bucket(), key); gerr != nil {
		return gerr
	}
	got, gerr = c.Gateway().GetObjectTagging(ctx, c.Bucket(), key)
	switch {
	case gerr == nil && len(got) == 0:
		c.Pass("object_tagging_delete", "successfully deleted object tags",
			map[string]any{"object_key": key}, start)
	case gerr == nil:
		c.Fail("object_tagging_delete", fmt.Sprintf("object tags still exist after deletion: %v", got),
			map[string]any{"object_key": key, "remaining_tags": got}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("object_tagging_delete", "successfully deleted object tags (404 response)",
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	default:
		c.Fail("object_tagging_delete", fmt.Sprintf("unexpected error after object tag deletion: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}
	return nil
}
