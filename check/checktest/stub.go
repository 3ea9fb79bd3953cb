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

// Package checktest provides gateway doubles for exercising the check
// framework without a live endpoint.
package checktest

import (
	"context"
	"fmt"
	"sync"

	"github.com/versity/s3check/check"
)

// StubGateway is a programmable check.Gateway. Unset func fields
// succeed with zero values. Every invocation is appended to Calls in
// the form "Op bucket key" for order assertions.
type StubGateway struct {
	mu    sync.Mutex
	Calls []string

	CreateBucketFn  func(bucket string) *check.GatewayError
	DeleteBucketFn  func(bucket string) *check.GatewayError
	HeadBucketFn    func(bucket string) *check.GatewayError
	ListBucketsFn   func() ([]check.BucketInfo, *check.GatewayError)
	GetVersioningFn func(bucket string) (string, *check.GatewayError)
	PutVersioningFn func(bucket, status string) *check.GatewayError

	PutBucketTaggingFn    func(bucket string, tags map[string]string) *check.GatewayError
	GetBucketTaggingFn    func(bucket string) (map[string]string, *check.GatewayError)
	DeleteBucketTaggingFn func(bucket string) *check.GatewayError
	GetBucketPolicyFn     func(bucket string) (string, *check.GatewayError)

	PutObjectFn     func(bucket, key string, body []byte, opts check.PutOptions) (check.PutObjectResult, *check.GatewayError)
	GetObjectFn     func(bucket, key string, opts check.GetOptions) (check.GetObjectResult, *check.GatewayError)
	HeadObjectFn    func(bucket, key, versionID string) (check.HeadObjectResult, *check.GatewayError)
	DeleteObjectFn  func(bucket, key, versionID string) *check.GatewayError
	CopyObjectFn    func(srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string, replace bool) (check.CopyResult, *check.GatewayError)
	ListObjectsFn   func(bucket, prefix string, maxKeys int32, marker string) (check.ListObjectsResult, *check.GatewayError)
	ListObjectsV2Fn func(bucket, prefix string, maxKeys int32, token string) (check.ListObjectsResult, *check.GatewayError)
	ListVersionsFn  func(bucket, prefix string) ([]check.VersionInfo, *check.GatewayError)
	GetAttributesFn func(bucket, key string, attrs []string) (check.ObjectAttributes, *check.GatewayError)

	PutObjectTaggingFn    func(bucket, key string, tags map[string]string) *check.GatewayError
	GetObjectTaggingFn    func(bucket, key string) (map[string]string, *check.GatewayError)
	DeleteObjectTaggingFn func(bucket, key string) *check.GatewayError

	CreateMultipartFn   func(bucket, key string) (string, *check.GatewayError)
	UploadPartFn        func(bucket, key, uploadID string, partNumber int32, body []byte) (string, *check.GatewayError)
	CompleteMultipartFn func(bucket, key, uploadID string, parts []check.CompletedPart) (check.CompleteResult, *check.GatewayError)
	AbortMultipartFn    func(bucket, key, uploadID string) *check.GatewayError
	ListUploadsFn       func(bucket string) ([]check.UploadInfo, *check.GatewayError)
	ListPartsFn         func(bucket, key, uploadID string) ([]check.PartInfo, *check.GatewayError)

	BatchUploadFn   func(bucket string, objects map[string][]byte) map[string]*check.GatewayError
	BatchDownloadFn func(bucket string, keys []string) (map[string][]byte, map[string]*check.GatewayError)
}

var _ check.Gateway = (*StubGateway)(nil)

func (s *StubGateway) record(op, bucket, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Calls = append(s.Calls, fmt.Sprintf("%s %s %s", op, bucket, key))
}

func (s *StubGateway) CreateBucket(_ context.Context, bucket string) *check.GatewayError {
	s.record("CreateBucket", bucket, "")
	if s.CreateBucketFn != nil {
		return s.CreateBucketFn(bucket)
	}
	return nil
}

func (s *StubGateway) DeleteBucket(_ context.Context, bucket string) *check.GatewayError {
	s.record("DeleteBucket", bucket, "")
	if s.DeleteBucketFn != nil {
		return s.DeleteBucketFn(bucket)
	}
	return nil
}

func (s *StubGateway) HeadBucket(_ context.Context, bucket string) *check.GatewayError {
	s.record("HeadBucket", bucket, "")
	if s.HeadBucketFn != nil {
		return s.HeadBucketFn(bucket)
	}
	return nil
}

func (s *StubGateway) ListBuckets(_ context.Context) ([]check.BucketInfo, *check.GatewayError) {
	s.record("ListBuckets", "", "")
	if s.ListBucketsFn != nil {
		return s.ListBucketsFn()
	}
	return nil, nil
}

func (s *StubGateway) GetBucketVersioning(_ context.Context, bucket string) (string, *check.GatewayError) {
	s.record("GetBucketVersioning", bucket, "")
	if s.GetVersioningFn != nil {
		return s.GetVersioningFn(bucket)
	}
	return "", nil
}

func (s *StubGateway) PutBucketVersioning(_ context.Context, bucket, status string) *check.GatewayError {
	s.record("PutBucketVersioning", bucket, "")
	if s.PutVersioningFn != nil {
		return s.PutVersioningFn(bucket, status)
	}
	return nil
}

func (s *StubGateway) PutBucketTagging(_ context.Context, bucket string, tags map[string]string) *check.GatewayError {
	s.record("PutBucketTagging", bucket, "")
	if s.PutBucketTaggingFn != nil {
		return s.PutBucketTaggingFn(bucket, tags)
	}
	return nil
}

func (s *StubGateway) GetBucketTagging(_ context.Context, bucket string) (map[string]string, *check.GatewayError) {
	s.record("GetBucketTagging", bucket, "")
	if s.GetBucketTaggingFn != nil {
		return s.GetBucketTaggingFn(bucket)
	}
	return nil, nil
}

func (s *StubGateway) DeleteBucketTagging(_ context.Context, bucket string) *check.GatewayError {
	s.record("DeleteBucketTagging", bucket, "")
	if s.DeleteBucketTaggingFn != nil {
		return s.DeleteBucketTaggingFn(bucket)
	}
	return nil
}

func (s *StubGateway) GetBucketPolicy(_ context.Context, bucket string) (string, *check.GatewayError) {
	s.record("GetBucketPolicy", bucket, "")
	if s.GetBucketPolicyFn != nil {
		return s.GetBucketPolicyFn(bucket)
	}
	return "", nil
}

func (s *StubGateway) PutObject(_ context.Context, bucket, key string, body []byte, opts check.PutOptions) (check.PutObjectResult, *check.GatewayError) {
	s.record("PutObject", bucket, key)
	if s.PutObjectFn != nil {
		return s.PutObjectFn(bucket, key, body, opts)
	}
	return check.PutObjectResult{ETag: `"stub"`}, nil
}

func (s *StubGateway) GetObject(_ context.Context, bucket, key string, opts check.GetOptions) (check.GetObjectResult, *check.GatewayError) {
	s.record("GetObject", bucket, key)
	if s.GetObjectFn != nil {
		return s.GetObjectFn(bucket, key, opts)
	}
	return check.GetObjectResult{StatusCode: 200}, nil
}

func (s *StubGateway) HeadObject(_ context.Context, bucket, key, versionID string) (check.HeadObjectResult, *check.GatewayError) {
	s.record("HeadObject", bucket, key)
	if s.HeadObjectFn != nil {
		return s.HeadObjectFn(bucket, key, versionID)
	}
	return check.HeadObjectResult{}, nil
}

func (s *StubGateway) DeleteObject(_ context.Context, bucket, key, versionID string) *check.GatewayError {
	s.record("DeleteObject", bucket, key)
	if s.DeleteObjectFn != nil {
		return s.DeleteObjectFn(bucket, key, versionID)
	}
	return nil
}

func (s *StubGateway) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string, replace bool) (check.CopyResult, *check.GatewayError) {
	s.record("CopyObject", dstBucket, dstKey)
	if s.CopyObjectFn != nil {
		return s.CopyObjectFn(srcBucket, srcKey, dstBucket, dstKey, metadata, replace)
	}
	return check.CopyResult{ETag: `"stub"`}, nil
}

func (s *StubGateway) ListObjects(_ context.Context, bucket, prefix string, maxKeys int32, marker string) (check.ListObjectsResult, *check.GatewayError) {
	s.record("ListObjects", bucket, "")
	if s.ListObjectsFn != nil {
		return s.ListObjectsFn(bucket, prefix, maxKeys, marker)
	}
	return check.ListObjectsResult{}, nil
}

func (s *StubGateway) ListObjectsV2(_ context.Context, bucket, prefix string, maxKeys int32, token string) (check.ListObjectsResult, *check.GatewayError) {
	s.record("ListObjectsV2", bucket, "")
	if s.ListObjectsV2Fn != nil {
		return s.ListObjectsV2Fn(bucket, prefix, maxKeys, token)
	}
	return check.ListObjectsResult{}, nil
}

func (s *StubGateway) ListObjectVersions(_ context.Context, bucket, prefix string) ([]check.VersionInfo, *check.GatewayError) {
	s.record("ListObjectVersions", bucket, "")
	if s.ListVersionsFn != nil {
		return s.ListVersionsFn(bucket, prefix)
	}
	return nil, nil
}

func (s *StubGateway) GetObjectAttributes(_ context.Context, bucket, key string, attrs []string) (check.ObjectAttributes, *check.GatewayError) {
	s.record("GetObjectAttributes", bucket, key)
	if s.GetAttributesFn != nil {
		return s.GetAttributesFn(bucket, key, attrs)
	}
	return check.ObjectAttributes{}, nil
}

func (s *StubGateway) PutObjectTagging(_ context.Context, bucket, key string, tags map[string]string) *check.GatewayError {
	s.record("PutObjectTagging", bucket, key)
	if s.PutObjectTaggingFn != nil {
		return s.PutObjectTaggingFn(bucket, key, tags)
	}
	return nil
}

func (s *StubGateway) GetObjectTagging(_ context.Context, bucket, key string) (map[string]string, *check.GatewayError) {
	s.record("GetObjectTagging", bucket, key)
	if s.GetObjectTaggingFn != nil {
		return s.GetObjectTaggingFn(bucket, key)
	}
	return nil, nil
}

func (s *StubGateway) DeleteObjectTagging(_ context.Context, bucket, key string) *check.GatewayError {
	s.record("DeleteObjectTagging", bucket, key)
	if s.DeleteObjectTaggingFn != nil {
		return s.DeleteObjectTaggingFn(bucket, key)
	}
	return nil
}

func (s *StubGateway) CreateMultipartUpload(_ context.Context, bucket, key string) (string, *check.GatewayError) {
	s.record("CreateMultipartUpload", bucket, key)
	if s.CreateMultipartFn != nil {
		return s.CreateMultipartFn(bucket, key)
	}
	return "stub-upload", nil
}

func (s *StubGateway) UploadPart(_ context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, *check.GatewayError) {
	s.record("UploadPart", bucket, key)
	if s.UploadPartFn != nil {
		return s.UploadPartFn(bucket, key, uploadID, partNumber, body)
	}
	return `"stub"`, nil
}

func (s *StubGateway) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []check.CompletedPart) (check.CompleteResult, *check.GatewayError) {
	s.record("CompleteMultipartUpload", bucket, key)
	if s.CompleteMultipartFn != nil {
		return s.CompleteMultipartFn(bucket, key, uploadID, parts)
	}
	return check.CompleteResult{ETag: `"stub"`}, nil
}

func (s *StubGateway) AbortMultipartUpload(_ context.Context, bucket, key, uploadID string) *check.GatewayError {
	s.record("AbortMultipartUpload", bucket, key)
	if s.AbortMultipartFn != nil {
		return s.AbortMultipartFn(bucket, key, uploadID)
	}
	return nil
}

func (s *StubGateway) ListMultipartUploads(_ context.Context, bucket string) ([]check.UploadInfo, *check.GatewayError) {
	s.record("ListMultipartUploads", bucket, "")
	if s.ListUploadsFn != nil {
		return s.ListUploadsFn(bucket)
	}
	return nil, nil
}

func (s *StubGateway) ListParts(_ context.Context, bucket, key, uploadID string) ([]check.PartInfo, *check.GatewayError) {
	s.record("ListParts", bucket, key)
	if s.ListPartsFn != nil {
		return s.ListPartsFn(bucket, key, uploadID)
	}
	return nil, nil
}

func (s *StubGateway) BatchUpload(_ context.Context, bucket string, objects map[string][]byte) map[string]*check.GatewayError {
	s.record("BatchUpload", bucket, "")
	if s.BatchUploadFn != nil {
		return s.BatchUploadFn(bucket, objects)
	}
	results := make(map[string]*check.GatewayError, len(objects))
	for key := range objects {
		results[key] = nil
	}
	return results
}

func (s *StubGateway) BatchDownload(_ context.Context, bucket string, keys []string) (map[string][]byte, map[string]*check.GatewayError) {
	s.record("BatchDownload", bucket, "")
	if s.BatchDownloadFn != nil {
		return s.BatchDownloadFn(bucket, keys)
	}
	return map[string][]byte{}, map[string]*check.GatewayError{}
}
