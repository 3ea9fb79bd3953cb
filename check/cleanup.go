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

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// CleanupKind tags a queued resource. Drain order is objects first,
// then in-flight multipart uploads, then buckets, since a bucket
// cannot be deleted while either remain.
type CleanupKind int

const (
	CleanupObject CleanupKind = iota
	CleanupMultipart
	CleanupBucket
)

func (k CleanupKind) String() string {
	switch k {
	case CleanupObject:
		return "object"
	case CleanupMultipart:
		return "multipart_upload"
	case CleanupBucket:
		return "bucket"
	}
	return "unknown"
}

// CleanupItem identifies one remotely created resource. Items are
// registered only after the creating operation succeeded.
type CleanupItem struct {
	Kind      CleanupKind
	Bucket    string
	Key       string
	VersionID string
	UploadID  string
}

func ObjectItem(bucket, key, versionID string) CleanupItem {
	return CleanupItem{Kind: CleanupObject, Bucket: bucket, Key: key, VersionID: versionID}
}

func MultipartItem(bucket, key, uploadID string) CleanupItem {
	return CleanupItem{Kind: CleanupMultipart, Bucket: bucket, Key: key, UploadID: uploadID}
}

func BucketItem(bucket string) CleanupItem {
	return CleanupItem{Kind: CleanupBucket, Bucket: bucket}
}

// CleanupRegistry queues the resources one category created during
// probing. It is exclusively owned by that category, no locking.
type CleanupRegistry struct {
	items []CleanupItem
}

// Register appends an item. Call only after the resource is confirmed
// to exist remotely.
func (c *CleanupRegistry) Register(item CleanupItem) {
	c.items = append(c.items, item)
}

// Remove drops the first queued item equal to the given one. Used
// when a probe already deleted the resource itself.
func (c *CleanupRegistry) Remove(item CleanupItem) bool {
	for i, it := range c.items {
		if it == item {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

func (c *CleanupRegistry) Len() int {
	return len(c.items)
}

// Drain tears down every queued item in dependency order. Each item
// failure is logged and collected, never fatal. The queue is empty
// afterwards regardless of outcomes, so a second call is a no-op.
func (c *CleanupRegistry) Drain(ctx context.Context, gw Gateway, log zerolog.Logger) []error {
	items := make([]CleanupItem, len(c.items))
	copy(items, c.items)
	c.items = c.items[:0]

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Kind < items[j].Kind
	})

	var errs []error
	for _, item := range items {
		if err := c.teardown(ctx, gw, item); err != nil {
			log.Warn().
				Str("kind", item.Kind.String()).
				Str("bucket", item.Bucket).
				Str("key", item.Key).
				Err(err).
				Msg("cleanup failed")
			errs = append(errs, err)
		}
	}
	return errs
}

func (c *CleanupRegistry) teardown(ctx context.Context, gw Gateway, item CleanupItem) error {
	switch item.Kind {
	case CleanupObject:
		if gerr := gw.DeleteObject(ctx, item.Bucket, item.Key, item.VersionID); gerr != nil {
			return fmt.Errorf("delete object %v: %w", item.Key, gerr)
		}
	case CleanupMultipart:
		if gerr := gw.AbortMultipartUpload(ctx, item.Bucket, item.Key, item.UploadID); gerr != nil {
			return fmt.Errorf("abort multipart upload %v: %w", item.UploadID, gerr)
		}
	case CleanupBucket:
		return c.teardownBucket(ctx, gw, item.Bucket)
	}
	return nil
}

// teardownBucket deletes any objects still left in the bucket before
// removing the bucket itself, a non-empty bucket cannot be deleted.
func (c *CleanupRegistry) teardownBucket(ctx context.Context, gw Gateway, bucket string) error {
	token := ""
	for {
		out, gerr := gw.ListObjectsV2(ctx, bucket, "", 0, token)
		if gerr != nil {
			break
		}
		for _, obj := range out.Objects {
			// best effort, the bucket delete below reports
			// anything left behind
			_ = gw.DeleteObject(ctx, bucket, obj.Key, "")
		}
		if !out.IsTruncated {
			break
		}
		token = out.NextToken
	}

	if gerr := gw.DeleteBucket(ctx, bucket); gerr != nil {
		return fmt.Errorf("delete bucket %v: %w", bucket, gerr)
	}
	return nil
}
