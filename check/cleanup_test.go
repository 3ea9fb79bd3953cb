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

package check_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/check/checktest"
)

func TestCleanupDrainOrder(t *testing.T) {
	gw := &checktest.StubGateway{}
	var reg check.CleanupRegistry

	// registered out of dependency order on purpose
	reg.Register(check.BucketItem("bkt-1"))
	reg.Register(check.ObjectItem("bkt-1", "obj-1", ""))
	reg.Register(check.MultipartItem("bkt-1", "mp-key", "upload-1"))
	reg.Register(check.ObjectItem("bkt-1", "obj-2", "v1"))

	errs := reg.Drain(context.Background(), gw, zerolog.Nop())
	assert.Empty(t, errs)

	var ops []string
	for _, call := range gw.Calls {
		ops = append(ops, strings.Fields(call)[0])
	}
	assert.Equal(t, []string{
		"DeleteObject",
		"DeleteObject",
		"AbortMultipartUpload",
		"ListObjectsV2",
		"DeleteBucket",
	}, ops)
}

func TestCleanupDrainIdempotent(t *testing.T) {
	gw := &checktest.StubGateway{}
	var reg check.CleanupRegistry
	reg.Register(check.ObjectItem("bkt", "obj", ""))

	reg.Drain(context.Background(), gw, zerolog.Nop())
	assert.Equal(t, 0, reg.Len())

	calls := len(gw.Calls)
	errs := reg.Drain(context.Background(), gw, zerolog.Nop())
	assert.Empty(t, errs)
	assert.Equal(t, calls, len(gw.Calls), "second drain must not touch the gateway")
}

func TestCleanupDrainCollectsErrors(t *testing.T) {
	gw := &checktest.StubGateway{
		DeleteObjectFn: func(bucket, key, versionID string) *check.GatewayError {
			if key == "stuck" {
				return &check.GatewayError{Code: "InternalError", HTTPStatus: 500}
			}
			return nil
		},
	}
	var reg check.CleanupRegistry
	reg.Register(check.ObjectItem("bkt", "stuck", ""))
	reg.Register(check.ObjectItem("bkt", "fine", ""))
	reg.Register(check.BucketItem("bkt"))

	errs := reg.Drain(context.Background(), gw, zerolog.Nop())
	assert.Len(t, errs, 1)
	// the failed object does not stop the remaining teardown
	assert.Contains(t, gw.Calls, "DeleteObject bkt fine")
	assert.Contains(t, gw.Calls, "DeleteBucket bkt ")
	assert.Equal(t, 0, reg.Len())
}

func TestCleanupRemove(t *testing.T) {
	var reg check.CleanupRegistry
	item := check.ObjectItem("bkt", "obj", "")
	reg.Register(item)
	reg.Register(check.ObjectItem("bkt", "other", ""))

	assert.True(t, reg.Remove(item))
	assert.False(t, reg.Remove(item), "removing twice must report not found")
	assert.Equal(t, 1, reg.Len())
}
