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
	"fmt"
	"io"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyhttp "github.com/aws/smithy-go/transport/http"
	"github.com/versity/s3check/check"
)

func (g *Gateway) PutObject(ctx context.Context, bucket, key string, body []byte, opts check.PutOptions) (check.PutObjectResult, *check.GatewayError) {
	reqID := g.begin("PutObject", bucket, key)
	ctx, cancel := g.transferCtx(ctx)
	defer cancel()

	in := &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(body),
	}
	if opts.ContentType != "" {
		in.ContentType = &opts.ContentType
	}
	if opts.ContentEncoding != "" {
		in.ContentEncoding = &opts.ContentEncoding
	}
	if opts.ContentDisposition != "" {
		in.ContentDisposition = &opts.ContentDisposition
	}
	if opts.ContentLanguage != "" {
		in.ContentLanguage = &opts.ContentLanguage
	}
	if opts.CacheControl != "" {
		in.CacheControl = &opts.CacheControl
	}
	if opts.Expires != nil {
		in.Expires = opts.Expires
	}
	if len(opts.Metadata) > 0 {
		in.Metadata = opts.Metadata
	}

	out, err := g.client.PutObject(ctx, in)
	if err != nil {
		return check.PutObjectResult{}, toGatewayError("PutObject", reqID, err)
	}
	return check.PutObjectResult{
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
	}, nil
}

func (g *Gateway) GetObject(ctx context.Context, bucket, key string, opts check.GetOptions) (check.GetObjectResult, *check.GatewayError) {
	reqID := g.begin("GetObject", bucket, key)
	ctx, cancel := g.transferCtx(ctx)
	defer cancel()

	in := &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if opts.Range != "" {
		in.Range = &opts.Range
	}
	var optFns []func(*s3.Options)
	if opts.IfRange != "" {
		optFns = append(optFns, s3.WithAPIOptions(smithyhttp.SetHeaderValue("If-Range", opts.IfRange)))
	}
	if opts.VersionID != "" {
		in.VersionId = &opts.VersionID
	}

	out, err := g.client.GetObject(ctx, in, optFns...)
	if err != nil {
		return check.GetObjectResult{}, toGatewayError("GetObject", reqID, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return check.GetObjectResult{}, toGatewayError("GetObject", reqID, fmt.Errorf("read body: %w", err))
	}

	res := check.GetObjectResult{
		Body:          body,
		ContentLength: aws.ToInt64(out.ContentLength),
		ContentRange:  aws.ToString(out.ContentRange),
		ContentType:   aws.ToString(out.ContentType),
		ETag:          aws.ToString(out.ETag),
		Metadata:      out.Metadata,
		StatusCode:    200,
	}
	// a partial response always carries Content-Range
	if res.ContentRange != "" {
		res.StatusCode = 206
	}
	return res, nil
}

func (g *Gateway) HeadObject(ctx context.Context, bucket, key, versionID string) (check.HeadObjectResult, *check.GatewayError) {
	reqID := g.begin("HeadObject", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	in := &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if versionID != "" {
		in.VersionId = &versionID
	}

	out, err := g.client.HeadObject(ctx, in)
	if err != nil {
		return check.HeadObjectResult{}, toGatewayError("HeadObject", reqID, err)
	}

	res := check.HeadObjectResult{
		ContentLength:      aws.ToInt64(out.ContentLength),
		ETag:               aws.ToString(out.ETag),
		ContentType:        aws.ToString(out.ContentType),
		ContentEncoding:    aws.ToString(out.ContentEncoding),
		ContentDisposition: aws.ToString(out.ContentDisposition),
		ContentLanguage:    aws.ToString(out.ContentLanguage),
		CacheControl:       aws.ToString(out.CacheControl),
		Expires:            out.Expires,
		Metadata:           out.Metadata,
	}
	if out.LastModified != nil {
		res.LastModified = *out.LastModified
	}
	return res, nil
}

func (g *Gateway) DeleteObject(ctx context.Context, bucket, key, versionID string) *check.GatewayError {
	reqID := g.begin("DeleteObject", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	in := &s3.DeleteObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}
	if versionID != "" {
		in.VersionId = &versionID
	}

	_, err := g.client.DeleteObject(ctx, in)
	if err != nil {
		return toGatewayError("DeleteObject", reqID, err)
	}
	return nil
}

func (g *Gateway) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string, replaceMetadata bool) (check.CopyResult, *check.GatewayError) {
	reqID := g.begin("CopyObject", dstBucket, dstKey)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	source := fmt.Sprintf("%v/%v", srcBucket, url.PathEscape(srcKey))
	in := &s3.CopyObjectInput{
		Bucket:     &dstBucket,
		Key:        &dstKey,
		CopySource: &source,
	}
	if replaceMetadata {
		in.MetadataDirective = types.MetadataDirectiveReplace
		in.Metadata = metadata
	}

	out, err := g.client.CopyObject(ctx, in)
	if err != nil {
		return check.CopyResult{}, toGatewayError("CopyObject", reqID, err)
	}

	var etag string
	if out.CopyObjectResult != nil {
		etag = aws.ToString(out.CopyObjectResult.ETag)
	}
	return check.CopyResult{ETag: etag}, nil
}

func (g *Gateway) ListObjects(ctx context.Context, bucket, prefix string, maxKeys int32, marker string) (check.ListObjectsResult, *check.GatewayError) {
	reqID := g.begin("ListObjects", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	in := &s3.ListObjectsInput{
		Bucket: &bucket,
	}
	if prefix != "" {
		in.Prefix = &prefix
	}
	if maxKeys > 0 {
		in.MaxKeys = &maxKeys
	}
	if marker != "" {
		in.Marker = &marker
	}

	out, err := g.client.ListObjects(ctx, in)
	if err != nil {
		return check.ListObjectsResult{}, toGatewayError("ListObjects", reqID, err)
	}

	return check.ListObjectsResult{
		Objects:     toObjectInfos(out.Contents),
		IsTruncated: aws.ToBool(out.IsTruncated),
		NextToken:   aws.ToString(out.NextMarker),
	}, nil
}

func (g *Gateway) ListObjectsV2(ctx context.Context, bucket, prefix string, maxKeys int32, token string) (check.ListObjectsResult, *check.GatewayError) {
	reqID := g.begin("ListObjectsV2", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	in := &s3.ListObjectsV2Input{
		Bucket: &bucket,
	}
	if prefix != "" {
		in.Prefix = &prefix
	}
	if maxKeys > 0 {
		in.MaxKeys = &maxKeys
	}
	if token != "" {
		in.ContinuationToken = &token
	}

	out, err := g.client.ListObjectsV2(ctx, in)
	if err != nil {
		return check.ListObjectsResult{}, toGatewayError("ListObjectsV2", reqID, err)
	}

	return check.ListObjectsResult{
		Objects:     toObjectInfos(out.Contents),
		IsTruncated: aws.ToBool(out.IsTruncated),
		NextToken:   aws.ToString(out.NextContinuationToken),
	}, nil
}

func (g *Gateway) ListObjectVersions(ctx context.Context, bucket, prefix string) ([]check.VersionInfo, *check.GatewayError) {
	reqID := g.begin("ListObjectVersions", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	in := &s3.ListObjectVersionsInput{
		Bucket: &bucket,
	}
	if prefix != "" {
		in.Prefix = &prefix
	}

	out, err := g.client.ListObjectVersions(ctx, in)
	if err != nil {
		return nil, toGatewayError("ListObjectVersions", reqID, err)
	}

	versions := make([]check.VersionInfo, 0, len(out.Versions))
	for _, v := range out.Versions {
		versions = append(versions, check.VersionInfo{
			Key:       aws.ToString(v.Key),
			VersionID: aws.ToString(v.VersionId),
			IsLatest:  aws.ToBool(v.IsLatest),
			Size:      aws.ToInt64(v.Size),
		})
	}
	return versions, nil
}

func (g *Gateway) GetObjectAttributes(ctx context.Context, bucket, key string, attrs []string) (check.ObjectAttributes, *check.GatewayError) {
	reqID := g.begin("GetObjectAttributes", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	attributes := make([]types.ObjectAttributes, 0, len(attrs))
	for _, a := range attrs {
		attributes = append(attributes, types.ObjectAttributes(a))
	}

	out, err := g.client.GetObjectAttributes(ctx, &s3.GetObjectAttributesInput{
		Bucket:           &bucket,
		Key:              &key,
		ObjectAttributes: attributes,
	})
	if err != nil {
		return check.ObjectAttributes{}, toGatewayError("GetObjectAttributes", reqID, err)
	}

	res := check.ObjectAttributes{
		ETag:         aws.ToString(out.ETag),
		ObjectSize:   out.ObjectSize,
		StorageClass: string(out.StorageClass),
	}
	if out.ObjectParts != nil {
		res.TotalPartsCount = out.ObjectParts.TotalPartsCount
		for _, p := range out.ObjectParts.Parts {
			res.Parts = append(res.Parts, check.PartInfo{
				PartNumber: aws.ToInt32(p.PartNumber),
				Size:       aws.ToInt64(p.Size),
			})
		}
	}
	return res, nil
}

func (g *Gateway) PutObjectTagging(ctx context.Context, bucket, key string, tags map[string]string) *check.GatewayError {
	reqID := g.begin("PutObjectTagging", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	_, err := g.client.PutObjectTagging(ctx, &s3.PutObjectTaggingInput{
		Bucket:  &bucket,
		Key:     &key,
		Tagging: &types.Tagging{TagSet: toTagSet(tags)},
	})
	if err != nil {
		return toGatewayError("PutObjectTagging", reqID, err)
	}
	return nil
}

func (g *Gateway) GetObjectTagging(ctx context.Context, bucket, key string) (map[string]string, *check.GatewayError) {
	reqID := g.begin("GetObjectTagging", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	out, err := g.client.GetObjectTagging(ctx, &s3.GetObjectTaggingInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, toGatewayError("GetObjectTagging", reqID, err)
	}
	return fromTagSet(out.TagSet), nil
}

func (g *Gateway) DeleteObjectTagging(ctx context.Context, bucket, key string) *check.GatewayError {
	reqID := g.begin("DeleteObjectTagging", bucket, key)
	ctx, cancel := g.opCtx(ctx)
	defer cancel()

	_, err := g.client.DeleteObjectTagging(ctx, &s3.DeleteObjectTaggingInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return toGatewayError("DeleteObjectTagging", reqID, err)
	}
	return nil
}

func toObjectInfos(contents []types.Object) []check.ObjectInfo {
	objs := make([]check.ObjectInfo, 0, len(contents))
	for _, o := range contents {
		objs = append(objs, check.ObjectInfo{
			Key:  aws.ToString(o.Key),
			Size: aws.ToInt64(o.Size),
			ETag: aws.ToString(o.ETag),
		})
	}
	return objs
}
