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

// Multipart covers the multipart upload lifecycle: create, part
// upload, list parts, complete with size verification, abort and the
// in-flight upload listing.
type Multipart struct {
	*check.CategoryRunner

	// carried between probes of one run
	key      string
	uploadID string
	parts    []check.PartInfo
}

func NewMultipart(deps check.Deps) check.Category {
	return &Multipart{CategoryRunner: check.NewRunner(deps, ScopeMultipart)}
}

func (c *Multipart) Name() string { return ScopeMultipart }

func (c *Multipart) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "multipart_upload_creation", c.probeCreation)
	c.Probe(ctx, "multipart_part_upload", c.probePartUpload)
	c.Probe(ctx, "multipart_list_parts", c.probeListParts)
	c.Probe(ctx, "multipart_completion", c.probeCompletion)
	c.Probe(ctx, "multipart_abort", c.probeAbort)
	c.Probe(ctx, "multipart_list_uploads", c.probeListUploads)
	return nil
}

func (c *Multipart) probeCreation(ctx context.Context) error {
	start := time.Now()
	key := c.UniqueName()
	uploadID, gerr := c.Gateway().CreateMultipartUpload(ctx, c.Bucket(), key)
	switch {
	case gerr != nil:
		c.Fail("multipart_upload_creation", fmt.Sprintf("failed to create multipart upload: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	case uploadID == "":
		c.Fail("multipart_upload_creation", "multipart upload response missing UploadId",
			map[string]any{"object_key": key}, start)
	default:
		c.RegisterCleanup(check.MultipartItem(c.Bucket(), key, uploadID))
		c.Pass("multipart_upload_creation", "successfully created multipart upload",
			map[string]any{"object_key": key, "upload_id": uploadID}, start)
	}
	return nil
}

func (c *Multipart) probePartUpload(ctx context.Context) error {
	key := c.UniqueName()
	uploadID, gerr := c.Gateway().CreateMultipartUpload(ctx, c.Bucket(), key)
	if gerr != nil {
		return gerr
	}
	c.RegisterCleanup(check.MultipartItem(c.Bucket(), key, uploadID))

	var parts []check.PartInfo
	for partNum := int32(1); partNum <= 3; partNum++ {
		body := partData(partNum, c.Conf().ChunkSize)
		start := time.Now()
		etag, gerr := c.Gateway().UploadPart(ctx, c.Bucket(), key, uploadID, partNum, body)
		name := fmt.Sprintf("multipart_part_upload_%d", partNum)
		switch {
		case gerr != nil:
			c.Fail(name, fmt.Sprintf("failed to upload part %d: %v", partNum, gerr),
				gwDetails(gerr, map[string]any{"object_key": key, "part_number": partNum}), start)
		case etag == "":
			c.Fail(name, fmt.Sprintf("part %d upload response missing ETag", partNum),
				map[string]any{"object_key": key, "part_number": partNum}, start)
		default:
			parts = append(parts, check.PartInfo{PartNumber: partNum, ETag: etag, Size: int64(len(body))})
			c.Pass(name, fmt.Sprintf("successfully uploaded part %d (%d bytes)", partNum, len(body)),
				map[string]any{"object_key": key, "part_number": partNum, "part_size": len(body), "etag": etag}, start)
		}
	}

	if len(parts) == 3 {
		c.key = key
		c.uploadID = uploadID
		c.parts = parts
	}
	return nil
}

func (c *Multipart) probeListParts(ctx context.Context) error {
	start := time.Now()
	if c.uploadID == "" {
		c.Fail("multipart_list_parts", "no multipart upload available for list parts test", nil, start)
		return nil
	}

	listed, gerr := c.Gateway().ListParts(ctx, c.Bucket(), c.key, c.uploadID)
	if gerr != nil {
		c.Fail("multipart_list_parts", fmt.Sprintf("failed to list multipart parts: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.key}), start)
		return nil
	}
	if len(listed) != len(c.parts) {
		c.Fail("multipart_list_parts", fmt.Sprintf("expected %d parts, got %d", len(c.parts), len(listed)),
			map[string]any{"object_key": c.key, "expected_count": len(c.parts), "actual_count": len(listed)}, start)
		return nil
	}
	for i, p := range listed {
		if p.PartNumber != c.parts[i].PartNumber || p.ETag != c.parts[i].ETag {
			c.Fail("multipart_list_parts", "listed parts don't match uploaded parts",
				map[string]any{"object_key": c.key, "part_number": p.PartNumber}, start)
			return nil
		}
	}
	c.Pass("multipart_list_parts", fmt.Sprintf("successfully listed %d parts", len(listed)),
		map[string]any{"object_key": c.key, "parts_count": len(listed)}, start)
	return nil
}

func (c *Multipart) probeCompletion(ctx context.Context) error {
	start := time.Now()
	if c.uploadID == "" {
		c.Fail("multipart_completion", "no multipart upload available for completion test", nil, start)
		return nil
	}

	completed := make([]check.CompletedPart, 0, len(c.parts))
	var wantSize int64
	for _, p := range c.parts {
		completed = append(completed, check.CompletedPart{PartNumber: p.PartNumber, ETag: p.ETag})
		wantSize += p.Size
	}

	res, gerr := c.Gateway().CompleteMultipartUpload(ctx, c.Bucket(), c.key, c.uploadID, completed)
	if gerr != nil {
		c.Fail("multipart_completion", fmt.Sprintf("failed to complete multipart upload: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.key, "upload_id": c.uploadID}), start)
		return nil
	}
	if res.ETag == "" {
		c.Fail("multipart_completion", "multipart completion response missing ETag",
			map[string]any{"object_key": c.key}, start)
		return nil
	}
	c.Pass("multipart_completion", "successfully completed multipart upload",
		map[string]any{"object_key": c.key, "final_etag": res.ETag, "parts_count": len(completed)}, start)

	// the upload no longer exists, the assembled object does
	c.DropCleanup(check.MultipartItem(c.Bucket(), c.key, c.uploadID))
	c.RegisterCleanup(check.ObjectItem(c.Bucket(), c.key, ""))

	head, gerr := c.Gateway().HeadObject(ctx, c.Bucket(), c.key, "")
	switch {
	case gerr != nil:
		c.Fail("multipart_completion_verification", fmt.Sprintf("failed to verify completed object: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.key}), start)
	case head.ContentLength == wantSize:
		c.Pass("multipart_completion_verification",
			fmt.Sprintf("completed object has correct size (%d bytes)", head.ContentLength),
			map[string]any{"object_key": c.key, "expected_size": wantSize, "actual_size": head.ContentLength}, start)
	default:
		c.Fail("multipart_completion_verification",
			fmt.Sprintf("completed object size mismatch: expected %d, got %d", wantSize, head.ContentLength),
			map[string]any{"object_key": c.key, "expected_size": wantSize, "actual_size": head.ContentLength}, start)
	}
	return nil
}

func (c *Multipart) probeAbort(ctx context.Context) error {
	key := c.UniqueName()
	uploadID, gerr := c.Gateway().CreateMultipartUpload(ctx, c.Bucket(), key)
	if gerr != nil {
		return gerr
	}
	if _, gerr := c.Gateway().UploadPart(ctx, c.Bucket(), key, uploadID, 1, partData(1, 1024)); gerr != nil {
		return gerr
	}

	start := time.Now()
	if gerr := c.Gateway().AbortMultipartUpload(ctx, c.Bucket(), key, uploadID); gerr != nil {
		c.Fail("multipart_abort", fmt.Sprintf("failed to abort multipart upload: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key, "upload_id": uploadID}), start)
		return nil
	}
	c.Pass("multipart_abort", "successfully aborted multipart upload",
		map[string]any{"object_key": key, "upload_id": uploadID}, start)

	start = time.Now()
	_, gerr = c.Gateway().ListParts(ctx, c.Bucket(), key, uploadID)
	switch {
	case gerr == nil:
		c.Fail("multipart_abort_verification", "list parts succeeded after abort",
			map[string]any{"object_key": key, "upload_id": uploadID}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("multipart_abort_verification", "aborted upload correctly not found (404)",
			map[string]any{"object_key": key, "upload_id": uploadID}, start)
	default:
		c.Fail("multipart_abort_verification", fmt.Sprintf("unexpected error verifying abort: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": key}), start)
	}
	return nil
}

func (c *Multipart) probeListUploads(ctx context.Context) error {
	start := time.Now()
	uploads, gerr := c.Gateway().ListMultipartUploads(ctx, c.Bucket())
	if gerr != nil {
		c.Fail("multipart_list_uploads", fmt.Sprintf("failed to list multipart uploads: %v", gerr),
			gwDetails(gerr, nil), start)
		return nil
	}
	c.Pass("multipart_list_uploads", fmt.Sprintf("successfully listed multipart uploads (%d found)", len(uploads)),
		map[string]any{"uploads_count": len(uploads)}, start)
	return nil
}
