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

package checktest_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/check/checktest"
)

func newBucket(t *testing.T, gw *checktest.FakeGateway) string {
	t.Helper()
	bucket := "fake-test-bucket"
	gerr := gw.CreateBucket(context.Background(), bucket)
	assert.Nil(t, gerr)
	return bucket
}

func TestObjectRoundTrip(t *testing.T) {
	gw := checktest.NewFakeGateway()
	bucket := newBucket(t, gw)
	ctx := context.Background()

	for _, size := range []int{0, 1, 1024, 1048576} {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			key := fmt.Sprintf("round-trip-%d", size)
			data := bytes.Repeat([]byte{'a'}, size)

			put, gerr := gw.PutObject(ctx, bucket, key, data, check.PutOptions{})
			assert.Nil(t, gerr)
			assert.NotEmpty(t, put.ETag)

			got, gerr := gw.GetObject(ctx, bucket, key, check.GetOptions{})
			assert.Nil(t, gerr)
			assert.True(t, bytes.Equal(data, got.Body))
			assert.Equal(t, int64(size), got.ContentLength)
		})
	}
}

func TestObjectLifecycleWithMetadata(t *testing.T) {
	gw := checktest.NewFakeGateway()
	bucket := newBucket(t, gw)
	ctx := context.Background()

	key := "lifecycle-object"
	meta := map[string]string{"author": "tester", "purpose": "lifecycle"}
	_, gerr := gw.PutObject(ctx, bucket, key, []byte("payload"), check.PutOptions{
		ContentType: "text/plain",
		Metadata:    meta,
	})
	assert.Nil(t, gerr)

	head, gerr := gw.HeadObject(ctx, bucket, key, "")
	assert.Nil(t, gerr)
	assert.Equal(t, int64(len("payload")), head.ContentLength)
	assert.Equal(t, "text/plain", head.ContentType)
	assert.Equal(t, meta, head.Metadata)

	assert.Nil(t, gw.DeleteObject(ctx, bucket, key, ""))

	_, gerr = gw.HeadObject(ctx, bucket, key, "")
	assert.NotNil(t, gerr)
	assert.Equal(t, http.StatusNotFound, gerr.HTTPStatus)

	// delete of a missing key stays idempotent
	assert.Nil(t, gw.DeleteObject(ctx, bucket, key, ""))
}
