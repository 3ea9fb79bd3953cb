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

package s3gw

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/versity/s3check/check"
)

// BatchUpload transfers a set of objects through the sdk upload
// manager. The returned map holds one entry per key, nil on success.
func (g *Gateway) BatchUpload(ctx context.Context, bucket string, objects map[string][]byte) map[string]*check.GatewayError {
	reqID := g.begin("BatchUpload", bucket, "")
	ctx, cancel := g.transferCtx(ctx)
	defer cancel()

	results := make(map[string]*check.GatewayError, len(objects))
	for key, body := range objects {
		_, err := g.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket: &bucket,
			Key:    &key,
			Body:   bytes.NewReader(body),
		})
		if err != nil {
			results[key] = toGatewayError("BatchUpload", reqID, err)
			continue
		}
		results[key] = nil
	}
	return results
}

// BatchDownload fetches the given keys through the sdk download
// manager, returning the bodies of the successful transfers and the
// per key errors of the failed ones.
func (g *Gateway) BatchDownload(ctx context.Context, bucket string, keys []string) (map[string][]byte, map[string]*check.GatewayError) {
	reqID := g.begin("BatchDownload", bucket, "")
	ctx, cancel := g.transferCtx(ctx)
	defer cancel()

	bodies := make(map[string][]byte, len(keys))
	errs := make(map[string]*check.GatewayError)
	for _, key := range keys {
		buf := manager.NewWriteAtBuffer(nil)
		_, err := g.downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: &bucket,
			Key:    &key,
		})
		if err != nil {
			errs[key] = toGatewayError("BatchDownload", reqID, err)
			continue
		}
		bodies[key] = buf.Bytes()
	}
	return bodies, errs
}
