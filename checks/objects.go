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
	"time"

	"github.com/versity/s3check/check"
)

// Objects covers the basic object data path: uploads of several
// sizes, byte exact downloads, head, server side copy, listings and
// deletion semantics.
type Objects struct {
	*check.CategoryRunner
}

func NewObjects(deps check.Deps) check.Category {
	return &Objects{check.NewRunner(deps, ScopeObjects)}
}

func (c *Objects) Name() string { return ScopeObjects }

func (c *Objects) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "object_upload", c.probeUpload)
	c.Probe(ctx, "object_download", c.probeDownload)
	c.Probe(ctx, "object_head_operation", c.probeHead)
	c.Probe(ctx, "object_copy", c.probeCopy)
	c.Probe(ctx, "object_listing", c.probeListing)
	c.Probe(ctx, "object_tagging", c.probeTagging)
	c.Probe(ctx, "object_deletion", c.probeDeletion)
	return nil
}

// putObject uploads and registers the key for teardown.
func (c *Objects) putObject(ctx context.Context, key string, body []byte, opts check.PutOptions) (check.PutObjectResult, *check.GatewayError) {
	res, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, body, opts)
	if gerr == nil {
		c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
	}
	return res, gerr
}

func (c *Objects) probeUpload(ctx context.Context) error {
	start := time.Now()
	smallKey := c.UniqueName()
	small := testData(c.Conf().SmallSize)
	res, gerr := c.putObject(ctx, smallKey, small, check.PutOptions{})
	switch {
	case gerr != nil:
		c.Fail("object_upload_small", fmt.Sprintf("failed to upload small object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": smallKey}), start)
	case res.ETag == "":
		c.Fail("object_upload_small", "upload response missing ETag",
			map[string]any{"object_key": smallKey}, start)
	default:
		c.Pass("object_upload_small", fmt.Sprintf("successfully uploaded small object (%d bytes)", len(small)),
			map[string]any{"object_key": smallKey, "size": len(small), "etag": res.ETag}, start)
	}

	start = time.Now()
	mediumKey := c.UniqueName()
	medium := testData(c.Conf().MediumSize)
	res, gerr = c.putObject(ctx, mediumKey, medium, check.PutOptions{ContentType: "application/octet-stream"})
	switch {
	case gerr != nil:
		c.Fail("object_upload_medium", fmt.Sprintf("failed to upload medium object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": mediumKey}), start)
	case res.ETag == "":
		c.Fail("object_upload_medium", "medium upload response missing ETag",
			map[string]any{"object_key": mediumKey}, start)
	default:
		c.Pass("object_upload_medium", fmt.Sprintf("successfully uploaded medium object (%d bytes)", len(medium)),
			map[string]any{"object_key": mediumKey, "size": len(medium), "etag": res.ETag}, start)
	}

	start = time.Now()
	metaKey := c.UniqueName()
	meta := map[string]string{
		"author":       "s3check",
		"test-type":    "object-upload",
		"custom-field": "test-value",
	}
	res, gerr = c.putObject(ctx, metaKey, small, check.PutOptions{ContentType: "text/plain", Metadata: meta})
	switch {
	case gerr != nil:
		c.Fail("object_upload_with_metadata", fmt.Sprintf("failed to upload object with metadata: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": metaKey}), start)
	case res.ETag == "":
		c.Fail("object_upload_with_metadata", "metadata upload response missing ETag",
			map[string]any{"object_key": metaKey}, start)
	default:
		c.Pass("object_upload_with_metadata", "successfully uploaded object with metadata",
			map[string]any{"object_key": metaKey, "metadata": meta, "etag": res.ETag}, start)
	}
	return nil
}

func (c *Objects) probeDownload(ctx context.Context) error {
	key := c.UniqueName()
	data := testData(2048)
	if _, gerr := c.putObject(ctx, key, data, check.PutOptions{}); gerr != nil {
		return gerr
	}

	start := time.Now()
	res, gerr := c.Gateway().GetObject(ctx, c.Bucket(), key, check.GetOptions{})
	switch {
	case gerr != nil:
		c.Fail("object_download", fmt.Sprintf("failed to download object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	case !bytes.Equal(res.Body, data):
		c.Fail("object_download", "downloaded data doesn't match uploaded data",
			map[string]any{"object_key": key, "uploaded_size": len(data), "downloaded_size": len(res.Body)}, start)
	default:
		c.Pass("object_download", "successfully downloaded and verified object",
			map[string]any{"object_key": key, "size": len(res.Body), "content_type": res.ContentType}, start)
	}

	start = time.Now()
	missing := c.UniqueName()
	_, gerr = c.Gateway().GetObject(ctx, c.Bucket(), missing, check.GetOptions{})
	switch {
	case gerr == nil:
		c.Fail("object_download_nonexistent", "download succeeded for nonexistent object",
			map[string]any{"object_key": missing}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("object_download_nonexistent", "correctly returned 404 for nonexistent object",
			gwDetails(gerr, map[string]any{"object_key": missing}), start)
	default:
		c.Fail("object_download_nonexistent", fmt.Sprintf("unexpected status for nonexistent object: %d", gerr.HTTPStatus),
			gwDetails(gerr, map[string]any{"object_key": missing}), start)
	}
	return nil
}

func (c *Objects) probeHead(ctx context.Context) error {
	key := c.UniqueName()
	data := testData(c.Conf().SmallSize)
	put, gerr := c.putObject(ctx, key, data, check.PutOptions{
		ContentType: "application/json",
		Metadata:    map[string]string{"test-field": "head-operation-test"},
	})
	if gerr != nil {
		return gerr
	}

	start := time.Now()
	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	if gerr != nil {
		c.Fail("object_head_operation", fmt.Sprintf("failed head operation: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}

	var passed []string
	if head.ContentLength == int64(len(data)) {
		passed = append(passed, "content_length_correct")
	}
	if head.ETag != "" && head.ETag == put.ETag {
		passed = append(passed, "etag_matches")
	}
	if head.ContentType != "" {
		passed = append(passed, "content_type_present")
	}
	if head.Metadata["test-field"] == "head-operation-test" {
		passed = append(passed, "metadata_preserved")
	}

	details := map[string]any{"object_key": key, "passed_checks": passed, "etag": head.ETag}
	if len(passed) >= 3 {
		c.Pass("object_head_operation",
			fmt.Sprintf("head operation returned correct metadata (%d/4 checks passed)", len(passed)), details, start)
	} else {
		c.Fail("object_head_operation",
			fmt.Sprintf("head operation failed validation (%d/4 checks passed)", len(passed)), details, start)
	}
	return nil
}

func (c *Objects) probeCopy(ctx context.Context) error {
	srcKey := c.UniqueName()
	dstKey := c.UniqueName()
	data := testData(c.Conf().SmallSize)
	put, gerr := c.putObject(ctx, srcKey, data, check.PutOptions{ContentType: "text/plain"})
	if gerr != nil {
		return gerr
	}

	start := time.Now()
	cp, gerr := c.Gateway().CopyObject(ctx, c.Bucket(), srcKey, c.Bucket(), dstKey, nil, false)
	if gerr != nil {
		c.Fail("object_copy", fmt.Sprintf("failed to copy object: %v", gerr),
			gwDetails(gerr, map[string]any{"source_key": srcKey, "dest_key": dstKey}), start)
		return nil
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), dstKey, ""))
	if cp.ETag == "" {
		c.Fail("object_copy", "copy response missing ETag",
			map[string]any{"source_key": srcKey, "dest_key": dstKey}, start)
		return nil
	}

	got, gerr := c.Gateway().GetObject(ctx, c.Bucket(), dstKey, check.GetOptions{})
	if gerr != nil {
		return gerr
	}
	if bytes.Equal(got.Body, data) {
		c.Pass("object_copy", "successfully copied object and verified content",
			map[string]any{"source_key": srcKey, "dest_key": dstKey, "source_etag": put.ETag, "copy_etag": cp.ETag}, start)
	} else {
		c.Fail("object_copy", "copied object content doesn't match source",
			map[string]any{"source_key": srcKey, "dest_key": dstKey}, start)
	}
	return nil
}

func (c *Objects) probeListing(ctx context.Context) error {
	prefix := c.UniqueName()
	var keys []string
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("%s-object-%d", prefix, i)
		if _, gerr := c.putObject(ctx, key, testData(512), check.PutOptions{}); gerr != nil {
			return gerr
		}
		keys = append(keys, key)
	}

	start := time.Now()
	v2, gerr := c.Gateway().ListObjectsV2(ctx, c.Bucket(), prefix, 0, "")
	if gerr != nil {
		c.Fail("object_listing_v2", fmt.Sprintf("failed v2 listing: %v", gerr), gwDetails(gerr, nil), start)
	} else if found := countListed(v2.Objects, keys); found == len(keys) {
		c.Pass("object_listing_v2", fmt.Sprintf("successfully listed all %d objects", len(keys)),
			map[string]any{"prefix": prefix, "found_count": found}, start)
	} else {
		c.Fail("object_listing_v2", fmt.Sprintf("listed %d objects, expected %d", found, len(keys)),
			map[string]any{"prefix": prefix, "found_count": found, "expected_count": len(keys)}, start)
	}

	start = time.Now()
	v1, gerr := c.Gateway().ListObjects(ctx, c.Bucket(), prefix, 0, "")
	if gerr != nil {
		c.Fail("object_listing_v1", fmt.Sprintf("failed v1 listing: %v", gerr), gwDetails(gerr, nil), start)
	} else if found := countListed(v1.Objects, keys); found == len(keys) {
		c.Pass("object_listing_v1", "successfully listed all objects with v1 API",
			map[string]any{"prefix": prefix, "found_count": found}, start)
	} else {
		c.Fail("object_listing_v1", fmt.Sprintf("v1 API listed %d objects, expected %d", found, len(keys)),
			map[string]any{"prefix": prefix, "found_count": found, "expected_count": len(keys)}, start)
	}
	return nil
}

func (c *Objects) probeTagging(ctx context.Context) error {
	key := c.UniqueName()
	if _, gerr := c.putObject(ctx, key, testData(2048), check.PutOptions{}); gerr != nil {
		return gerr
	}

	want := map[string]string{
		"Environment": "Test",
		"ObjectType":  "MetadataTest",
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
		c.Pass("object_tagging", "successfully set and retrieved object tags",
			map[string]any{"object_key": key, "tags": got}, start)
	} else {
		c.Fail("object_tagging", fmt.Sprintf("object tag values don't match expected: %v", got),
			map[string]any{"object_key": key, "expected": want, "actual": got}, start)
	}
	return nil
}

func (c *Objects) probeDeletion(ctx context.Context) error {
	key := c.UniqueName()
	if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, testData(c.Conf().SmallSize), check.PutOptions{}); gerr != nil {
		return gerr
	}

	start := time.Now()
	if gerr := c.Gateway().DeleteObject(ctx, c.Bucket(), key, ""); gerr != nil {
		c.Fail("object_deletion", fmt.Sprintf("failed to delete object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
		return nil
	}
	_, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), key, "")
	switch {
	case gerr == nil:
		c.Fail("object_deletion", "object still exists after deletion",
			map[string]any{"object_key": key}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("object_deletion", "successfully deleted object",
			map[string]any{"object_key": key}, start)
	default:
		c.Fail("object_deletion", fmt.Sprintf("unexpected error verifying deletion: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}

	// delete of a missing key is idempotent, success and 404 both pass
	start = time.Now()
	missing := c.UniqueName()
	gerr = c.Gateway().DeleteObject(ctx, c.Bucket(), missing, "")
	switch {
	case gerr == nil:
		c.Pass("object_deletion_nonexistent", "delete of nonexistent object succeeded (idempotent behavior)",
			map[string]any{"object_key": missing}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("object_deletion_nonexistent", "delete of nonexistent object returned 404 (acceptable behavior)",
			gwDetails(gerr, map[string]any{"object_key": missing}), start)
	default:
		c.Fail("object_deletion_nonexistent", fmt.Sprintf("unexpected error deleting nonexistent object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": missing}), start)
	}
	return nil
}

func countListed(objects []check.ObjectInfo, keys []string) int {
	listed := make(map[string]bool, len(objects))
	for _, o := range objects {
		listed[o.Key] = true
	}
	found := 0
	for _, k := range keys {
		if listed[k] {
			found++
		}
	}
	return found
}
