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

// Versioning covers the versioning lifecycle: default state, enable,
// multiple versions of one key, version listing, version addressed
// reads and deletes.
type Versioning struct {
	*check.CategoryRunner

	key      string
	versions []versionedPut
}

type versionedPut struct {
	number    int
	versionID string
	content   []byte
}

func NewVersioning(deps check.Deps) check.Category {
	return &Versioning{CategoryRunner: check.NewRunner(deps, ScopeVersioning)}
}

func (c *Versioning) Name() string { return ScopeVersioning }

func (c *Versioning) Run(ctx context.Context) error {
	if _, gerr := c.ProvisionBucket(ctx); gerr != nil {
		return nil
	}
	c.Probe(ctx, "versioning_configuration", c.probeConfiguration)
	c.Probe(ctx, "versioning_multiple_versions", c.probeMultipleVersions)
	c.Probe(ctx, "versioning_list_versions", c.probeListVersions)
	c.Probe(ctx, "versioning_get_versions", c.probeGetVersions)
	c.Probe(ctx, "versioning_delete_version", c.probeDeleteVersion)
	return nil
}

func (c *Versioning) probeConfiguration(ctx context.Context) error {
	start := time.Now()
	status, gerr := c.Gateway().GetBucketVersioning(ctx, c.Bucket())
	if gerr != nil {
		return gerr
	}
	if status == "" || status == "Disabled" {
		c.Pass("versioning_default_disabled", "bucket versioning correctly disabled by default",
			map[string]any{"status": status}, start)
	} else {
		c.Fail("versioning_default_disabled", fmt.Sprintf("unexpected default versioning status: %v", status),
			map[string]any{"status": status}, start)
	}

	start = time.Now()
	if gerr := c.Gateway().PutBucketVersioning(ctx, c.Bucket(), "Enabled"); gerr != nil {
		c.Fail("versioning_enable", fmt.Sprintf("failed to enable versioning: %v", gerr), gwDetails(gerr, nil), start)
		return nil
	}
	status, gerr = c.Gateway().GetBucketVersioning(ctx, c.Bucket())
	if gerr != nil {
		return gerr
	}
	if status == "Enabled" {
		c.Pass("versioning_enable", "successfully enabled bucket versioning", nil, start)
	} else {
		c.Fail("versioning_enable", fmt.Sprintf("failed to enable versioning, status: %v", status),
			map[string]any{"status": status}, start)
	}
	return nil
}

func (c *Versioning) probeMultipleVersions(ctx context.Context) error {
	key := c.UniqueName()
	var versions []versionedPut

	for n := 1; n <= 3; n++ {
		content := []byte(fmt.Sprintf("Version %d content - test data", n))
		start := time.Now()
		res, gerr := c.Gateway().PutObject(ctx, c.Bucket(), key, content, check.PutOptions{})
		name := fmt.Sprintf("versioning_create_version_%d", n)
		switch {
		case gerr != nil:
			c.Fail(name, fmt.Sprintf("failed to create version %d: %v", n, gerr),
				gwDetails(gerr, map[string]any{"object_key": key}), start)
		case res.VersionID == "":
			c.Fail(name, fmt.Sprintf("version %d creation response missing VersionId", n),
				map[string]any{"object_key": key, "version_number": n}, start)
		default:
			versions = append(versions, versionedPut{number: n, versionID: res.VersionID, content: content})
			c.RegisterCleanup(check.ObjectItem(c.Bucket(), key, res.VersionID))
			c.Pass(name, fmt.Sprintf("successfully created version %d", n),
				map[string]any{"object_key": key, "version_id": res.VersionID, "version_number": n}, start)
		}
	}

	if len(versions) == 3 {
		c.key = key
		c.versions = versions
	}
	return nil
}

func (c *Versioning) probeListVersions(ctx context.Context) error {
	start := time.Now()
	if c.key == "" {
		c.Fail("versioning_list_versions", "no versioned object available for listing test", nil, start)
		return nil
	}

	listed, gerr := c.Gateway().ListObjectVersions(ctx, c.Bucket(), c.key)
	if gerr != nil {
		c.Fail("versioning_list_versions", fmt.Sprintf("failed to list object versions: %v", gerr),
			gwDetails(gerr, nil), start)
		return nil
	}

	ids := make(map[string]bool, len(listed))
	count := 0
	for _, v := range listed {
		if v.Key == c.key {
			ids[v.VersionID] = true
			count++
		}
	}
	if count != len(c.versions) {
		c.Fail("versioning_list_versions",
			fmt.Sprintf("expected %d versions, found %d", len(c.versions), count),
			map[string]any{"object_key": c.key, "expected_count": len(c.versions), "actual_count": count}, start)
		return nil
	}
	for _, v := range c.versions {
		if !ids[v.versionID] {
			c.Fail("versioning_list_versions", "version IDs don't match expected values",
				map[string]any{"object_key": c.key, "missing_version_id": v.versionID}, start)
			return nil
		}
	}
	c.Pass("versioning_list_versions", fmt.Sprintf("successfully listed %d versions", count),
		map[string]any{"object_key": c.key, "versions_count": count}, start)
	return nil
}

func (c *Versioning) probeGetVersions(ctx context.Context) error {
	if c.key == "" {
		c.Fail("versioning_get_versions", "no versioned object available for version reads", nil, time.Now())
		return nil
	}

	for _, v := range c.versions {
		start := time.Now()
		name := fmt.Sprintf("versioning_get_version_%d", v.number)
		res, gerr := c.Gateway().GetObject(ctx, c.Bucket(), c.key, check.GetOptions{VersionID: v.versionID})
		switch {
		case gerr != nil:
			c.Fail(name, fmt.Sprintf("failed to get version %d: %v", v.number, gerr),
				gwDetails(gerr, map[string]any{"object_key": c.key, "version_id": v.versionID}), start)
		case string(res.Body) != string(v.content):
			c.Fail(name, fmt.Sprintf("version %d content doesn't match expected", v.number),
				map[string]any{"object_key": c.key, "version_id": v.versionID}, start)
		default:
			c.Pass(name, fmt.Sprintf("successfully retrieved version %d content", v.number),
				map[string]any{"object_key": c.key, "version_id": v.versionID, "version_number": v.number}, start)
		}
	}
	return nil
}

func (c *Versioning) probeDeleteVersion(ctx context.Context) error {
	start := time.Now()
	if c.key == "" {
		c.Fail("versioning_delete_version", "no versioned object available for version deletion test", nil, start)
		return nil
	}

	target := c.versions[0]
	if gerr := c.Gateway().DeleteObject(ctx, c.Bucket(), c.key, target.versionID); gerr != nil {
		c.Fail("versioning_delete_version", fmt.Sprintf("failed to delete version: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.key, "version_id": target.versionID}), start)
		return nil
	}
	c.DropCleanup(check.ObjectItem(c.Bucket(), c.key, target.versionID))
	c.Pass("versioning_delete_version", fmt.Sprintf("successfully deleted version %d", target.number),
		map[string]any{"object_key": c.key, "version_id": target.versionID}, start)

	start = time.Now()
	_, gerr := c.Gateway().GetObject(ctx, c.Bucket(), c.key, check.GetOptions{VersionID: target.versionID})
	switch {
	case gerr == nil:
		c.Fail("versioning_delete_verification", "deleted version still accessible",
			map[string]any{"object_key": c.key, "version_id": target.versionID}, start)
	case gerr.HTTPStatus == http.StatusNotFound:
		c.Pass("versioning_delete_verification", "deleted version correctly not found (404)",
			map[string]any{"object_key": c.key, "version_id": target.versionID}, start)
	default:
		c.Fail("versioning_delete_verification", fmt.Sprintf("unexpected error accessing deleted version: %v", gerr),
			gwDetails(gerr, map[string]any{"object_key": c.key, "version_id": target.versionID}), start)
	}
	return nil
}
