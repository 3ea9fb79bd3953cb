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

// Package checks contains the probe categories run against an S3
// compatible endpoint. Each category owns a scoped bucket, records
// one result per probe, and registers every created resource for
// teardown.
package checks

import (
	"bytes"
	"fmt"

	"github.com/versity/s3check/check"
)

const (
	ScopeBuckets         = "buckets"
	ScopeObjects         = "objects"
	ScopeMultipart       = "multipart"
	ScopeVersioning      = "versioning"
	ScopeTagging         = "tagging"
	ScopeAttributes      = "attributes"
	ScopeMetadata        = "metadata"
	ScopeRangeRequests   = "range_requests"
	ScopeErrorConditions = "error_conditions"
	ScopeSync            = "sync"
)

// All returns every category in run order.
func All() []check.Registration {
	return []check.Registration{
		{Name: ScopeBuckets, Description: "bucket lifecycle, listing, versioning and tagging configuration", New: NewBuckets},
		{Name: ScopeObjects, Description: "object upload, download, copy, listing, tagging and deletion", New: NewObjects},
		{Name: ScopeMultipart, Description: "multipart upload create, part upload, complete, abort and listings", New: NewMultipart},
		{Name: ScopeVersioning, Description: "object versioning lifecycle and version addressed operations", New: NewVersioning},
		{Name: ScopeTagging, Description: "bucket and object tag set management", New: NewTagging},
		{Name: ScopeAttributes, Description: "GetObjectAttributes field coverage", New: NewAttributes},
		{Name: ScopeMetadata, Description: "standard headers, custom metadata, encoding, limits and copy behavior", New: NewMetadata},
		{Name: ScopeRangeRequests, Description: "partial object retrieval with Range and If-Range", New: NewRangeRequests},
		{Name: ScopeErrorConditions, Description: "error responses for invalid names, missing resources and malformed requests", New: NewErrorConditions},
		{Name: ScopeSync, Description: "batch transfer and directory style listing patterns", New: NewSync},
	}
}

const testContent = "S3 compatibility test data"

// testData builds size bytes of repeating chunk numbered content so
// partial reads remain verifiable.
func testData(size int64) []byte {
	if size <= 0 {
		return []byte{}
	}
	var b bytes.Buffer
	for chunk := 0; int64(b.Len()) < size; chunk++ {
		fmt.Fprintf(&b, "%s - chunk %d\n", testContent, chunk)
	}
	return b.Bytes()[:size]
}

// partData builds one multipart part of the requested size.
func partData(partNumber int32, size int64) []byte {
	line := fmt.Sprintf("Multipart upload test data - Part %d\n", partNumber)
	var b bytes.Buffer
	for int64(b.Len()) < size {
		b.WriteString(line)
	}
	return b.Bytes()[:size]
}

// meetsThreshold reports whether passed out of total reaches the
// given fraction. Zero total never meets a threshold.
func meetsThreshold(passed, total int, threshold float64) bool {
	if total == 0 {
		return false
	}
	return float64(passed)/float64(total) >= threshold
}

// gwDetails folds a gateway error into a details map.
func gwDetails(gerr *check.GatewayError, extra map[string]any) map[string]any {
	if extra == nil {
		extra = map[string]any{}
	}
	if gerr != nil {
		extra["error_code"] = gerr.Code
		extra["status_code"] = gerr.HTTPStatus
	}
	return extra
}
