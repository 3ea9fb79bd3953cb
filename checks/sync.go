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
	"strings"
	"time"

	"github.com/versity/s3check/check"
)

// Sync exercises the access patterns of directory synchronization
// tools: batch uploads, directory-shaped key hierarchies, batch
// downloads and prefix or paginated listings.
type Sync struct {
	*check.CategoryRunner

	dirPrefix string
}

func NewSync(deps check.Deps) check.Category {
	return &Sync{CategoryRunner: check.NewRunner(deps, ScopeSync)}
}

func (c *Sync) Name() string { return ScopeSync }

func (c *Sync) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "batch_upload", c.probeBatchUpload)
	c.Probe(ctx, "directory_structure", c.probeDirectoryStructure)
	c.Probe(ctx, "batch_download", c.probeBatchDownload)
	c.Probe(ctx, "listing_patterns", c.probeListingPatterns)
	return nil
}

func (c *Sync) probeBatchUpload(ctx context.Context) error {
	start := time.Now()
	objects := make(map[string][]byte, 5)
	for i := 0; i < 5; i++ {
		key := fmt.Sprintf("%s-batch-upload-%d", c.UniqueName(), i)
		objects[key] = bytes.Repeat([]byte(fmt.Sprintf("Batch upload test data for object %d\n", i)), 10)
	}

	failures := c.Gateway().BatchUpload(ctx, c.Bucket(), objects)
	uploaded := 0
	for key := range objects {
		if failures[key] == nil {
			uploaded++
			c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
		}
	}
	c.AddResult("sync_batch_upload", uploaded == len(objects),
		fmt.Sprintf("batch upload: %d/%d objects uploaded", uploaded, len(objects)),
		map[string]any{"objects_count": len(objects), "successful_uploads": uploaded}, start)
	return nil
}

func (c *Sync) probeDirectoryStructure(ctx context.Context) error {
	start := time.Now()
	tree := []string{
		"docs/readme.txt",
		"docs/api/overview.txt",
		"docs/api/reference.txt",
		"src/main.py",
		"src/utils/helper.py",
		"src/utils/config.py",
		"tests/test_main.py",
		"tests/integration/test_api.py",
	}
	prefix := c.UniqueName() + "-dir-sync"

	uploaded := 0
	for _, path := range tree {
		key := prefix + "/" + path
		body := []byte(fmt.Sprintf("Content of %s\nGenerated for sync testing\n", path))
		if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, body,
			check.PutOptions{ContentType: "text/plain"}); gerr != nil {
			log := c.Log()
			log.Debug().Str("key", key).Str("error", gerr.Code).Msg("directory upload failed")
			continue
		}
		uploaded++
		c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
	}

	if uploaded == len(tree) {
		// the prefix feeds the listing probes below
		c.dirPrefix = prefix
	}
	c.AddResult("sync_directory_structure", uploaded == len(tree),
		fmt.Sprintf("directory structure upload: %d/%d files uploaded", uploaded, len(tree)),
		map[string]any{"files_count": len(tree), "successful_uploads": uploaded, "prefix": prefix}, start)
	return nil
}

func (c *Sync) probeBatchDownload(ctx context.Context) error {
	want := make(map[string][]byte, 3)
	for i := 0; i < 3; i++ {
		key := fmt.Sprintf("%s-download-test-%d", c.UniqueName(), i)
		want[key] = []byte(strings.Repeat(fmt.Sprintf("Download test content for object %d\n", i), 50))
	}
	for key, body := range want {
		if _, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, body, check.PutOptions{}); gerr != nil {
			return gerr
		}
		c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, ""))
	}

	start := time.Now()
	keys := make([]string, 0, len(want))
	for key := range want {
		keys = append(keys, key)
	}
	bodies, failures := c.Gateway().BatchDownload(ctx, c.Bucket(), keys)

	downloaded := 0
	matched := 0
	for key, expected := range want {
		if failures[key] != nil {
			continue
		}
		downloaded++
		if bytes.Equal(bodies[key], expected) {
			matched++
		}
	}
	c.AddResult("sync_batch_download", downloaded == len(want) && matched == len(want),
		fmt.Sprintf("batch download: %d/%d downloaded, %d/%d verified", downloaded, len(want), matched, len(want)),
		map[string]any{"objects_count": len(want), "successful_downloads": downloaded, "data_matches": matched}, start)
	return nil
}

func (c *Sync) probeListingPatterns(ctx context.Context) error {
	if c.dirPrefix == "" {
		c.Fail("sync_listing_patterns", "no directory structure available for listing patterns",
			nil, time.Now())
		return nil
	}

	start := time.Now()
	res, gerr := c.Gateway().ListObjectsV2(ctx, c.Bucket(), c.dirPrefix, 0, "")
	if gerr != nil {
		c.Fail("sync_listing_prefix", fmt.Sprintf("prefix listing failed: %v", gerr),
			gwDetails(gerr, map[string]any{"prefix": c.dirPrefix}), start)
		return nil
	}
	matching := 0
	for _, obj := range res.Objects {
		if strings.HasPrefix(obj.Key, c.dirPrefix) {
			matching++
		}
	}
	c.AddResult("sync_listing_prefix", matching > 0,
		fmt.Sprintf("prefix listing found %d objects under %s", matching, c.dirPrefix),
		map[string]any{"prefix": c.dirPrefix, "objects_found": matching}, start)

	start = time.Now()
	page, gerr := c.Gateway().ListObjectsV2(ctx, c.Bucket(), "", 2, "")
	if gerr != nil {
		c.Fail("sync_listing_pagination", fmt.Sprintf("paginated listing failed: %v", gerr),
			gwDetails(gerr, nil), start)
		return nil
	}
	c.AddResult("sync_listing_pagination", len(page.Objects) > 0,
		fmt.Sprintf("paginated listing returned %d objects, truncated=%v", len(page.Objects), page.IsTruncated),
		map[string]any{"objects_returned": len(page.Objects), "is_truncated": page.IsTruncated, "max_keys": 2}, start)
	return nil
}
