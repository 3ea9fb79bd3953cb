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

// Attributes covers GetObjectAttributes: ETag and size retrieval,
// multi attribute requests, and ObjectParts on a multipart object.
type Attributes struct {
	*check.CategoryRunner

	smallKey  string
	smallETag string
	mediumKey string
	mediumLen int64
}

func NewAttributes(deps check.Deps) check.Category {
	return &Attributes{CategoryRunner: check.NewRunner(deps, ScopeAttributes)}
}

func (c *Attributes) Name() string { return ScopeAttributes }

func (c *Attributes) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "attributes_setup", c.probeSetup)
	c.Probe(ctx, "attributes_etag", c.probeETag)
	c.Probe(ctx, "attributes_size_and_storage", c.probeSize)
	c.Probe(ctx, "attributes_multiple", c.probeMultiple)
	c.Probe(ctx, "attributes_multipart_parts", c.probeMultipartParts)
	return nil
}

func (c *Attributes) probeSetup(ctx context.Context) error {
	smallKey := c.UniqueName()
	small := testData(c.Conf().SmallSize)
	res, gerr := c.Gateway().PutObject(ctx, c.Bucket(), smallKey, small, check.PutOptions{ContentType: "text/plain"})
	if gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), smallKey, ""))
	c.smallKey = smallKey
	c.smallETag = res.ETag

	mediumKey := c.UniqueName()
	medium := testData(c.Conf().MediumSize)
	if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), mediumKey, medium, check.PutOptions{
		ContentType: "application/octet-stream",
		Metadata:    map[string]string{"test-field": "attributes-test", "object-type": "medium"},
	}); gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), mediumKey, ""))
	c.mediumKey = mediumKey
	c.mediumLen = int64(len(medium))
	return nil
}

func (c *Attributes) probeETag(ctx context.Context) error {
	start := time.Now()
	if c.smallKey == "" {
		c.Fail("attributes_etag", "no test object available for ETag attribute test", nil, start)
		return nil
	}

	attrs, gerr := c.Gateway().GetObjectAttributes(ctx, c.Bucket(), c.smallKey, []string{"ETag"})
	if gerr != nil {
		c.Fail("attributes_etag", fmt.Sprintf("failed to get ETag attribute: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.smallKey}), start)
		return nil
	}
	if attrs.ETag == "" {
		c.Fail("attributes_etag", "get object attributes response missing ETag field",
			map[string]any{"object_key": c.smallKey}, start)
		return nil
	}
	// GetObjectAttributes returns the etag without quotes
	if strings.Trim(attrs.ETag, `"`) == strings.Trim(c.smallETag, `"`) {
		c.Pass("attributes_etag", "successfully retrieved correct ETag attribute",
			map[string]any{"object_key": c.smallKey, "etag": attrs.ETag}, start)
	} else {
		c.Fail("attributes_etag",
			fmt.Sprintf("ETag attribute doesn't match: expected %v, got %v", c.smallETag, attrs.ETag),
			map[string]any{"object_key": c.smallKey, "expected_etag": c.smallETag, "returned_etag": attrs.ETag}, start)
	}
	return nil
}

func (c *Attributes) probeSize(ctx context.Context) error {
	start := time.Now()
	if c.mediumKey == "" {
		c.Fail("attributes_size_and_storage", "no test object available for size attribute test", nil, start)
		return nil
	}

	attrs, gerr := c.Gateway().GetObjectAttributes(ctx, c.Bucket(), c.mediumKey, []string{"ObjectSize", "StorageClass"})
	if gerr != nil {
		c.Fail("attributes_size_and_storage", fmt.Sprintf("failed to get size attributes: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.mediumKey}), start)
		return nil
	}
	if attrs.ObjectSize == nil || *attrs.ObjectSize != c.mediumLen {
		got := int64(-1)
		if attrs.ObjectSize != nil {
			got = *attrs.ObjectSize
		}
		c.Fail("attributes_size_and_storage",
			fmt.Sprintf("object size mismatch: expected %d, got %d", c.mediumLen, got),
			map[string]any{"object_key": c.mediumKey, "expected_size": c.mediumLen, "returned_size": got}, start)
		return nil
	}
	c.Pass("attributes_size_and_storage", "successfully retrieved size attributes",
		map[string]any{"object_key": c.mediumKey, "object_size": *attrs.ObjectSize, "storage_class": attrs.StorageClass}, start)
	return nil
}

func (c *Attributes) probeMultiple(ctx context.Context) error {
	start := time.Now()
	if c.smallKey == "" {
		c.Fail("attributes_multiple", "no test object available for multi attribute test", nil, start)
		return nil
	}

	attrs, gerr := c.Gateway().GetObjectAttributes(ctx, c.Bucket(), c.smallKey, []string{"ETag", "ObjectSize", "StorageClass"})
	if gerr != nil {
		c.Fail("attributes_multiple", fmt.Sprintf("failed to get multiple attributes: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.smallKey}), start)
		return nil
	}

	var returned []string
	if attrs.ETag != "" {
		returned = append(returned, "ETag")
	}
	if attrs.ObjectSize != nil {
		returned = append(returned, "ObjectSize")
	}
	if attrs.StorageClass != "" {
		returned = append(returned, "StorageClass")
	}

	details := map[string]any{"object_key": c.smallKey, "returned_attributes": returned}
	// ETag and ObjectSize are the minimum a compatible backend supports
	if len(returned) >= 2 {
		c.Pass("attributes_multiple",
			fmt.Sprintf("successfully retrieved multiple attributes (%d/3)", len(returned)), details, start)
	} else {
		c.Fail("attributes_multiple",
			fmt.Sprintf("too few attributes returned (%d/3)", len(returned)), details, start)
	}
	return nil
}

func (c *Attributes) probeMultipartParts(ctx context.Context) error {
	key := c.UniqueName()
	uploadID, gerr := c.Gateway().CreateMultipartUpload(ctx, c.Bucket(), key)
	if gerr != nil {
		c.Fail("attributes_multipart_setup",
			fmt.Sprintf("failed to create multipart object for attributes testing: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), time.Now())
		return nil
	}
	c.RegisterCleanup(check.MultipartItem(c.Bucket(), key, uploadID))

	parts := make([]check.CompletedPart, 0, 2)
	for partNum := int32(1); partNum <= 2; partNum++ {
		etag, gerr := c.Gateway().UploadPart(ctx, c.Bucket(), key, uploadID, partNum, partData(partNum, c.Conf().ChunkSize))
		if gerr != nil {
			return gerr
		}
		parts = append(parts, check.CompletedPart{PartNumber: partNum, ETag: etag})
	}
	if _, gerr := c.Gateway().CompleteMultipartUpload(ctx, c.Bucket(), key, uploadID, parts); gerr != nil {
		return gerr
	}
	c.DropCleanup(check.MultipartItem(c.Bucket(), key, uploadID))
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))

	start := time.Now()
	attrs, gerr := c.Gateway().GetObjectAttributes(ctx, c.Bucket(), key, []string{"ObjectParts"})
	if gerr != nil {
		// ObjectParts is an advanced attribute not all backends support
		if gerr.StatusIn(http.StatusBadRequest, http.StatusNotImplemented) {
			c.Pass("attributes_multipart_parts",
				fmt.Sprintf("ObjectParts attribute not supported (acceptable): %v", gerr.Code),
				gwDetails(gerr, map[string]any{"object_key": key}), start)
		} else {
			c.Fail("attributes_multipart_parts",
				fmt.Sprintf("unexpected error getting multipart attributes: %v", gerr),
				gwDetails(gerr, map[string]any{"object_key": key}), start)
		}
		return nil
	}
	if len(attrs.Parts) == 2 {
		c.Pass("attributes_multipart_parts",
			fmt.Sprintf("successfully retrieved multipart object parts (%d parts)", len(attrs.Parts)),
			map[string]any{"object_key": key, "parts_count": len(attrs.Parts)}, start)
	} else {
		c.Fail("attributes_multipart_parts",
			fmt.Sprintf("expected 2 parts, got %d", len(attrs.Parts)),
			map[string]any{"object_key": key, "expected_parts": 2, "actual_parts": len(attrs.Parts)}, start)
	}
	return nil
}
