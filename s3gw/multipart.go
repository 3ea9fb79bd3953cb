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

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/versity/s3check/check"
)

func (g *Gateway) CreateMultipartUpload(ctx context.Context, bucket, key string) (string, *check.GatewayError) {
	reqID := g.begin("CreateMultipartUpload", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	out, err := g.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return "", toGatewayError("CreateMultipartUpload", reqID, err)
	}
	return aws.ToString(out.UploadId), nil
}

func (g *Gateway) UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, *check.GatewayError) {
	reqID := g.begin("UploadPart", bucket, key)
	ctx, cancel := g.transferCtx(ctx)
	defer cancel()

	out, err := g.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:     &bucket,
		Key:        &key,
		UploadId:   &uploadID,
		PartNumber: &partNumber,
		Body:       bytes.NewReader(body),
	})
	if err != nil {
		return "", toGatewayError("UploadPart", reqID, err)
	}
	return aws.ToString(out.ETag), nil
}

func (g *Gateway) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []check.CompletedPart) (check.CompleteResult, *check.GatewayError) {
	reqID := g.begin("CompleteMultipartUpload", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	out, err := g.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          &bucket,
		Key:             &key,
		UploadId:        &uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return check.CompleteResult{}, toGatewayError("CompleteMultipartUpload", reqID, err)
	}
	return check.CompleteResult{ETag: aws.ToString(out.ETag)}, nil
}

func (g *Gateway) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) *check.GatewayError {
	reqID := g.begin("AbortMultipartUpload", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	_, err := g.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   &bucket,
		Key:      &key,
		UploadId: &uploadID,
	})
	if err != nil {
		return toGatewayError("AbortMultipartUpload", reqID, err)
	}
	return nil
}

func (g *Gateway) ListMultipartUploads(ctx context.Context, bucket string) ([]check.UploadInfo, *check.GatewayError) {
	reqID := g.begin("ListMultipartUploads", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	out, err := g.client.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{
		Bucket: &bucket,
	})
	if err != nil {
		return nil, toGatewayError("ListMultipartUploads", reqID, err)
	}

	uploads := make([]check.UploadInfo, 0, len(out.Uploads))
	for _, u := range out.Uploads {
		uploads = append(uploads, check.UploadInfo{
			Key:      aws.ToString(u.Key),
			UploadID: aws.ToString(u.UploadId),
		})
	}
	return uploads, nil
}

func (g *Gateway) ListParts(ctx context.Context, bucket, key, uploadID string) ([]check.PartInfo, *check.GatewayError) {
	reqID := g.begin("ListParts", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	out, err := g.client.ListParts(ctx, &s3.ListPartsInput{
		Bucket:   &bucket,
		Key:      &key,
		UploadId: &uploadID,
	})
	if err != nil {
		return nil, toGatewayError("ListParts", reqID, err)
	}

	parts := make([]check.PartInfo, 0, len(out.Parts))
	for _, p := range out.Parts {
		parts = append(parts, check.PartInfo{
			PartNumber: aws.ToInt32(p.PartNumber),
			ETag:       aws.ToString(p.ETag),
			Size:       aws.ToInt64(p.Size),
		})
	}
	return parts, nil
}
