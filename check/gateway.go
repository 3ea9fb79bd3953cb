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
	"time"
)

// GatewayError is the only failure shape probes ever see. Every
// storage operation either succeeds with a typed payload or returns
// one of these, carrying the api error code and HTTP status of the
// final response.
type GatewayError struct {
	Code       string
	HTTPStatus int
	Message    string
	RequestID  string
	RawDetails map[string]any
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("%v (http %v): %v", e.Code, e.HTTPStatus, e.Message)
}

// StatusIn reports whether the error status is one of the given set.
func (e *GatewayError) StatusIn(statuses ...int) bool {
	for _, s := range statuses {
		if e.HTTPStatus == s {
			return true
		}
	}
	return false
}

// BucketInfo is one entry of a bucket listing.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
}

// PutOptions are the optional inputs of an object upload.
type PutOptions struct {
	ContentType        string
	ContentEncoding    string
	ContentDisposition string
	ContentLanguage    string
	CacheControl       string
	Expires            *time.Time
	Metadata           map[string]string
}

// PutObjectResult is the upload outcome.
type PutObjectResult struct {
	ETag      string
	VersionID string
}

// GetOptions are the optional inputs of an object download.
type GetOptions struct {
	Range     string
	IfRange   string
	VersionID string
}

// GetObjectResult is the download outcome. StatusCode is 206 for a
// partial response and 200 otherwise.
type GetObjectResult struct {
	Body          []byte
	ContentLength int64
	ContentRange  string
	ContentType   string
	ETag          string
	Metadata      map[string]string
	StatusCode    int
}

// HeadObjectResult carries the object headers.
type HeadObjectResult struct {
	ContentLength      int64
	ETag               string
	ContentType        string
	ContentEncoding    string
	ContentDisposition string
	ContentLanguage    string
	CacheControl       string
	Expires            *time.Time
	Metadata           map[string]string
	LastModified       time.Time
}

// CopyResult is the server side copy outcome.
type CopyResult struct {
	ETag string
}

// ObjectInfo is one entry of an object listing.
type ObjectInfo struct {
	Key  string
	Size int64
	ETag string
}

// ListObjectsResult covers both v1 and v2 listings.
type ListObjectsResult struct {
	Objects     []ObjectInfo
	IsTruncated bool
	NextToken   string
}

// VersionInfo is one entry of a version listing.
type VersionInfo struct {
	Key       string
	VersionID string
	IsLatest  bool
	Size      int64
}

// PartInfo is one uploaded part.
type PartInfo struct {
	PartNumber int32
	ETag       string
	Size       int64
}

// CompletedPart identifies a part in a complete multipart request.
type CompletedPart struct {
	PartNumber int32
	ETag       string
}

// CompleteResult is the multipart completion outcome.
type CompleteResult struct {
	ETag string
}

// UploadInfo is one entry of an in-flight multipart upload listing.
type UploadInfo struct {
	Key      string
	UploadID string
}

// ObjectAttributes is the GetObjectAttributes outcome. Pointer fields
// are nil when the backend did not return the attribute.
type ObjectAttributes struct {
	ETag            string
	ObjectSize      *int64
	StorageClass    string
	TotalPartsCount *int32
	Parts           []PartInfo
}

// Gateway is the storage capability the checks drive. Implementations
// apply the configured per operation timeout, retry transient
// failures internally, and normalize every failure to a GatewayError.
type Gateway interface {
	CreateBucket(ctx context.Context, bucket string) *GatewayError
	DeleteBucket(ctx context.Context, bucket string) *GatewayError
	HeadBucket(ctx context.Context, bucket string) *GatewayError
	ListBuckets(ctx context.Context) ([]BucketInfo, *GatewayError)

	GetBucketVersioning(ctx context.Context, bucket string) (string, *GatewayError)
	PutBucketVersioning(ctx context.Context, bucket, status string) *GatewayError

	PutBucketTagging(ctx context.Context, bucket string, tags map[string]string) *GatewayError
	GetBucketTagging(ctx context.Context, bucket string) (map[string]string, *GatewayError)
	DeleteBucketTagging(ctx context.Context, bucket string) *GatewayError
	GetBucketPolicy(ctx context.Context, bucket string) (string, *GatewayError)

	PutObject(ctx context.Context, bucket, key string, body []byte, opts PutOptions) (PutObjectResult, *GatewayError)
	GetObject(ctx context.Context, bucket, key string, opts GetOptions) (GetObjectResult, *GatewayError)
	HeadObject(ctx context.Context, bucket, key, versionID string) (HeadObjectResult, *GatewayError)
	DeleteObject(ctx context.Context, bucket, key, versionID string) *GatewayError
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string, replaceMetadata bool) (CopyResult, *GatewayError)
	ListObjects(ctx context.Context, bucket, prefix string, maxKeys int32, marker string) (ListObjectsResult, *GatewayError)
	ListObjectsV2(ctx context.Context, bucket, prefix string, maxKeys int32, token string) (ListObjectsResult, *GatewayError)
	ListObjectVersions(ctx context.Context, bucket, prefix string) ([]VersionInfo, *GatewayError)
	GetObjectAttributes(ctx context.Context, bucket, key string, attrs []string) (ObjectAttributes, *GatewayError)

	PutObjectTagging(ctx context.Context, bucket, key string, tags map[string]string) *GatewayError
	GetObjectTagging(ctx context.Context, bucket, key string) (map[string]string, *GatewayError)
	DeleteObjectTagging(ctx context.Context, bucket, key string) *GatewayError

	CreateMultipartUpload(ctx context.Context, bucket, key string) (string, *GatewayError)
	UploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, *GatewayError)
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) (CompleteResult, *GatewayError)
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) *GatewayError
	ListMultipartUploads(ctx context.Context, bucket string) ([]UploadInfo, *GatewayError)
	ListParts(ctx context.Context, bucket, key, uploadID string) ([]PartInfo, *GatewayError)

	BatchUpload(ctx context.Context, bucket string, objects map[string][]byte) map[string]*GatewayError
	BatchDownload(ctx context.Context, bucket string, keys []string) (map[string][]byte, map[string]*GatewayError)
}
