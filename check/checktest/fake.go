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

package checktest

import (
	"context"
	"crypto/md5"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/versity/s3check/check"
)

// FakeGateway is an in-memory check.Gateway with enough S3 semantics
// to run whole categories end to end: bucket lifecycle, objects with
// metadata and headers, versioning, tagging, multipart uploads,
// listings with pagination, and range reads.
type FakeGateway struct {
	mu       sync.Mutex
	buckets  map[string]*fakeBucket
	uploadID int
	version  int
}

type fakeBucket struct {
	created    time.Time
	versioning string
	tags       map[string]string
	objects    map[string]*fakeObject
	versions   map[string][]*fakeObject
	uploads    map[string]*fakeUpload
}

type fakeObject struct {
	data      []byte
	etag      string
	versionID string
	opts      check.PutOptions
	tags      map[string]string
	partSizes []int64
}

type fakeUpload struct {
	key   string
	parts map[int32][]byte
	etags map[int32]string
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{buckets: map[string]*fakeBucket{}}
}

var _ check.Gateway = (*FakeGateway)(nil)

func apiErr(code string, status int, format string, args ...any) *check.GatewayError {
	return &check.GatewayError{
		Code:       code,
		HTTPStatus: status,
		Message:    fmt.Sprintf(format, args...),
	}
}

func etagOf(data []byte) string {
	return fmt.Sprintf("%q", fmt.Sprintf("%x", md5.Sum(data)))
}

func validBucketName(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if net.ParseIP(name) != nil {
		return false
	}
	for i, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' || c == '.':
			if i == 0 || i == len(name)-1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func validKey(key string) *check.GatewayError {
	if key == "" {
		return apiErr("InvalidArgument", http.StatusBadRequest, "empty object key")
	}
	if len(key) > 1024 {
		return apiErr("KeyTooLongError", http.StatusBadRequest, "key exceeds 1024 bytes")
	}
	for _, c := range key {
		if c < 0x20 {
			return apiErr("InvalidArgument", http.StatusBadRequest, "control character in key")
		}
	}
	return nil
}

func metadataSize(meta map[string]string) int {
	n := 0
	for k, v := range meta {
		n += len(k) + len(v)
	}
	return n
}

func (f *FakeGateway) bucket(name string) (*fakeBucket, *check.GatewayError) {
	b, ok := f.buckets[name]
	if !ok {
		return nil, apiErr("NoSuchBucket", http.StatusNotFound, "bucket %v does not exist", name)
	}
	return b, nil
}

func (f *FakeGateway) CreateBucket(_ context.Context, bucket string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !validBucketName(bucket) {
		return apiErr("InvalidBucketName", http.StatusBadRequest, "invalid bucket name %v", bucket)
	}
	if _, ok := f.buckets[bucket]; ok {
		return apiErr("BucketAlreadyOwnedByYou", http.StatusConflict, "bucket %v already owned by you", bucket)
	}
	f.buckets[bucket] = &fakeBucket{
		created:  time.Now(),
		objects:  map[string]*fakeObject{},
		versions: map[string][]*fakeObject{},
		uploads:  map[string]*fakeUpload{},
	}
	return nil
}

func (f *FakeGateway) DeleteBucket(_ context.Context, bucket string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return gerr
	}
	if len(b.objects) > 0 {
		return apiErr("BucketNotEmpty", http.StatusConflict, "bucket %v is not empty", bucket)
	}
	delete(f.buckets, bucket)
	return nil
}

func (f *FakeGateway) HeadBucket(_ context.Context, bucket string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, gerr := f.bucket(bucket)
	return gerr
}

func (f *FakeGateway) ListBuckets(_ context.Context) ([]check.BucketInfo, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.buckets))
	for name := range f.buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]check.BucketInfo, 0, len(names))
	for _, name := range names {
		out = append(out, check.BucketInfo{Name: name, CreationDate: f.buckets[name].created})
	}
	return out, nil
}

func (f *FakeGateway) GetBucketVersioning(_ context.Context, bucket string) (string, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return "", gerr
	}
	return b.versioning, nil
}

func (f *FakeGateway) PutBucketVersioning(_ context.Context, bucket, status string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return gerr
	}
	if status != "Enabled" && status != "Suspended" {
		return apiErr("MalformedXML", http.StatusBadRequest, "invalid versioning status %v", status)
	}
	b.versioning = status
	return nil
}

func (f *FakeGateway) PutBucketTagging(_ context.Context, bucket string, tags map[string]string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return gerr
	}
	if len(tags) == 0 {
		return apiErr("MalformedXML", http.StatusBadRequest, "empty tag set")
	}
	b.tags = copyMap(tags)
	return nil
}

func (f *FakeGateway) GetBucketTagging(_ context.Context, bucket string) (map[string]string, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return nil, gerr
	}
	if len(b.tags) == 0 {
		return nil, apiErr("NoSuchTagSet", http.StatusNotFound, "no tag set on bucket %v", bucket)
	}
	return copyMap(b.tags), nil
}

func (f *FakeGateway) DeleteBucketTagging(_ context.Context, bucket string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return gerr
	}
	b.tags = nil
	return nil
}

func (f *FakeGateway) GetBucketPolicy(_ context.Context, bucket string) (string, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, gerr := f.bucket(bucket)
	if gerr != nil {
		return "", gerr
	}
	return "", apiErr("NoSuchBucketPolicy", http.StatusNotFound, "no policy on bucket %v", bucket)
}

func (f *FakeGateway) PutObject(_ context.Context, bucket, key string, body []byte, opts check.PutOptions) (check.PutObjectResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return check.PutObjectResult{}, gerr
	}
	if gerr := validKey(key); gerr != nil {
		return check.PutObjectResult{}, gerr
	}
	if metadataSize(opts.Metadata) > 2048 {
		return check.PutObjectResult{}, apiErr("MetadataTooLarge", http.StatusBadRequest, "metadata exceeds 2KB limit")
	}

	obj := &fakeObject{
		data: append([]byte(nil), body...),
		etag: etagOf(body),
		opts: opts,
	}
	obj.opts.Metadata = copyMap(opts.Metadata)

	res := check.PutObjectResult{ETag: obj.etag}
	if b.versioning == "Enabled" {
		f.version++
		obj.versionID = fmt.Sprintf("v%06d", f.version)
		b.versions[key] = append(b.versions[key], obj)
		res.VersionID = obj.versionID
	}
	b.objects[key] = obj
	return res, nil
}

func (f *FakeGateway) getObject(bucket, key, versionID string) (*fakeObject, *check.GatewayError) {
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return nil, gerr
	}
	if versionID != "" {
		for _, v := range b.versions[key] {
			if v.versionID == versionID {
				return v, nil
			}
		}
		return nil, apiErr("NoSuchVersion", http.StatusNotFound, "version %v of %v does not exist", versionID, key)
	}
	obj, ok := b.objects[key]
	if !ok {
		return nil, apiErr("NoSuchKey", http.StatusNotFound, "key %v does not exist", key)
	}
	return obj, nil
}

func (f *FakeGateway) GetObject(_ context.Context, bucket, key string, opts check.GetOptions) (check.GetObjectResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, gerr := f.getObject(bucket, key, opts.VersionID)
	if gerr != nil {
		return check.GetObjectResult{}, gerr
	}

	res := check.GetObjectResult{
		Body:          obj.data,
		ContentLength: int64(len(obj.data)),
		ContentType:   obj.opts.ContentType,
		ETag:          obj.etag,
		Metadata:      copyMap(obj.opts.Metadata),
		StatusCode:    200,
	}

	rng := opts.Range
	if rng != "" && opts.IfRange != "" && opts.IfRange != obj.etag {
		// stale validator, serve the full object
		rng = ""
	}
	if rng == "" {
		return res, nil
	}

	start, end, gerr, ok := parseRange(rng, int64(len(obj.data)))
	if gerr != nil {
		return check.GetObjectResult{}, gerr
	}
	if !ok {
		// unparseable range header is ignored
		return res, nil
	}

	res.Body = obj.data[start : end+1]
	res.ContentLength = end - start + 1
	res.ContentRange = fmt.Sprintf("bytes %d-%d/%d", start, end, len(obj.data))
	res.StatusCode = 206
	return res, nil
}

// parseRange handles single byte ranges. Returns ok=false when the
// header is unparseable (served as a full response), an error when
// the range is unsatisfiable, and NotImplemented for multi ranges.
func parseRange(header string, size int64) (int64, int64, *check.GatewayError, bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, nil, false
	}
	if strings.Contains(spec, ",") {
		return 0, 0, apiErr("NotImplemented", http.StatusNotImplemented, "multi-range requests not supported"), false
	}

	unsatisfiable := apiErr("InvalidRange", http.StatusRequestedRangeNotSatisfiable, "range %v not satisfiable for size %d", header, size)

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, nil, false
	}

	if first == "" {
		// suffix range
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil {
			return 0, 0, nil, false
		}
		if n <= 0 || size == 0 {
			return 0, 0, unsatisfiable, false
		}
		if n > size {
			n = size
		}
		return size - n, size - 1, nil, true
	}

	start, err := strconv.ParseInt(first, 10, 64)
	if err != nil || start < 0 {
		return 0, 0, nil, false
	}
	if start >= size {
		return 0, 0, unsatisfiable, false
	}

	end := size - 1
	if last != "" {
		end, err = strconv.ParseInt(last, 10, 64)
		if err != nil || end < start {
			return 0, 0, nil, false
		}
		if end > size-1 {
			end = size - 1
		}
	}
	return start, end, nil, true
}

func (f *FakeGateway) HeadObject(_ context.Context, bucket, key, versionID string) (check.HeadObjectResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, gerr := f.getObject(bucket, key, versionID)
	if gerr != nil {
		return check.HeadObjectResult{}, gerr
	}
	ct := obj.opts.ContentType
	if ct == "" {
		ct = "binary/octet-stream"
	}
	return check.HeadObjectResult{
		ContentLength:      int64(len(obj.data)),
		ETag:               obj.etag,
		ContentType:        ct,
		ContentEncoding:    obj.opts.ContentEncoding,
		ContentDisposition: obj.opts.ContentDisposition,
		ContentLanguage:    obj.opts.ContentLanguage,
		CacheControl:       obj.opts.CacheControl,
		Expires:            obj.opts.Expires,
		Metadata:           copyMap(obj.opts.Metadata),
		LastModified:       time.Now(),
	}, nil
}

func (f *FakeGateway) DeleteObject(_ context.Context, bucket, key, versionID string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return gerr
	}
	if versionID != "" {
		versions := b.versions[key]
		for i, v := range versions {
			if v.versionID == versionID {
				b.versions[key] = append(versions[:i], versions[i+1:]...)
				if cur, ok := b.objects[key]; ok && cur.versionID == versionID {
					if n := len(b.versions[key]); n > 0 {
						b.objects[key] = b.versions[key][n-1]
					} else {
						delete(b.objects, key)
					}
				}
				return nil
			}
		}
		return apiErr("NoSuchVersion", http.StatusNotFound, "version %v of %v does not exist", versionID, key)
	}
	// delete is idempotent, a missing key is not an error
	delete(b.objects, key)
	return nil
}

func (f *FakeGateway) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string, metadata map[string]string, replace bool) (check.CopyResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, gerr := f.getObject(srcBucket, srcKey, "")
	if gerr != nil {
		return check.CopyResult{}, gerr
	}
	dst, gerr := f.bucket(dstBucket)
	if gerr != nil {
		return check.CopyResult{}, gerr
	}

	obj := &fakeObject{
		data: append([]byte(nil), src.data...),
		etag: src.etag,
		opts: src.opts,
	}
	if replace {
		obj.opts.Metadata = copyMap(metadata)
	} else {
		obj.opts.Metadata = copyMap(src.opts.Metadata)
	}
	dst.objects[dstKey] = obj
	return check.CopyResult{ETag: obj.etag}, nil
}

func (f *FakeGateway) listKeys(b *fakeBucket, prefix string) []string {
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (f *FakeGateway) list(bucket, prefix string, maxKeys int32, after string) (check.ListObjectsResult, *check.GatewayError) {
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return check.ListObjectsResult{}, gerr
	}
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	var res check.ListObjectsResult
	for _, k := range f.listKeys(b, prefix) {
		if after != "" && k <= after {
			continue
		}
		if int32(len(res.Objects)) == maxKeys {
			res.IsTruncated = true
			res.NextToken = res.Objects[len(res.Objects)-1].Key
			break
		}
		obj := b.objects[k]
		res.Objects = append(res.Objects, check.ObjectInfo{Key: k, Size: int64(len(obj.data)), ETag: obj.etag})
	}
	return res, nil
}

func (f *FakeGateway) ListObjects(_ context.Context, bucket, prefix string, maxKeys int32, marker string) (check.ListObjectsResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(bucket, prefix, maxKeys, marker)
}

func (f *FakeGateway) ListObjectsV2(_ context.Context, bucket, prefix string, maxKeys int32, token string) (check.ListObjectsResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list(bucket, prefix, maxKeys, token)
}

func (f *FakeGateway) ListObjectVersions(_ context.Context, bucket, prefix string) ([]check.VersionInfo, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return nil, gerr
	}

	var out []check.VersionInfo
	keys := make([]string, 0, len(b.versions))
	for k := range b.versions {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		versions := b.versions[k]
		for i, v := range versions {
			out = append(out, check.VersionInfo{
				Key:       k,
				VersionID: v.versionID,
				IsLatest:  i == len(versions)-1,
				Size:      int64(len(v.data)),
			})
		}
	}
	return out, nil
}

func (f *FakeGateway) GetObjectAttributes(_ context.Context, bucket, key string, attrs []string) (check.ObjectAttributes, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, gerr := f.getObject(bucket, key, "")
	if gerr != nil {
		return check.ObjectAttributes{}, gerr
	}

	var res check.ObjectAttributes
	for _, a := range attrs {
		switch a {
		case "ETag":
			res.ETag = strings.Trim(obj.etag, `"`)
		case "ObjectSize":
			size := int64(len(obj.data))
			res.ObjectSize = &size
		case "StorageClass":
			res.StorageClass = "STANDARD"
		case "ObjectParts":
			if len(obj.partSizes) > 0 {
				count := int32(len(obj.partSizes))
				res.TotalPartsCount = &count
				for i, size := range obj.partSizes {
					res.Parts = append(res.Parts, check.PartInfo{PartNumber: int32(i + 1), Size: size})
				}
			}
		}
	}
	return res, nil
}

func (f *FakeGateway) PutObjectTagging(_ context.Context, bucket, key string, tags map[string]string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, gerr := f.getObject(bucket, key, "")
	if gerr != nil {
		return gerr
	}
	if len(tags) == 0 {
		return apiErr("MalformedXML", http.StatusBadRequest, "empty tag set")
	}
	obj.tags = copyMap(tags)
	return nil
}

func (f *FakeGateway) GetObjectTagging(_ context.Context, bucket, key string) (map[string]string, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, gerr := f.getObject(bucket, key, "")
	if gerr != nil {
		return nil, gerr
	}
	return copyMap(obj.tags), nil
}

func (f *FakeGateway) DeleteObjectTagging(_ context.Context, bucket, key string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, gerr := f.getObject(bucket, key, "")
	if gerr != nil {
		return gerr
	}
	obj.tags = nil
	return nil
}

func (f *FakeGateway) CreateMultipartUpload(_ context.Context, bucket, key string) (string, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return "", gerr
	}
	f.uploadID++
	id := fmt.Sprintf("upload-%06d", f.uploadID)
	b.uploads[id] = &fakeUpload{
		key:   key,
		parts: map[int32][]byte{},
		etags: map[int32]string{},
	}
	return id, nil
}

func (f *FakeGateway) upload(bucket, uploadID string) (*fakeBucket, *fakeUpload, *check.GatewayError) {
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return nil, nil, gerr
	}
	up, ok := b.uploads[uploadID]
	if !ok {
		return nil, nil, apiErr("NoSuchUpload", http.StatusNotFound, "upload %v does not exist", uploadID)
	}
	return b, up, nil
}

func (f *FakeGateway) UploadPart(_ context.Context, bucket, key, uploadID string, partNumber int32, body []byte) (string, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, up, gerr := f.upload(bucket, uploadID)
	if gerr != nil {
		return "", gerr
	}
	up.parts[partNumber] = append([]byte(nil), body...)
	etag := etagOf(body)
	up.etags[partNumber] = etag
	return etag, nil
}

func (f *FakeGateway) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []check.CompletedPart) (check.CompleteResult, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, up, gerr := f.upload(bucket, uploadID)
	if gerr != nil {
		return check.CompleteResult{}, gerr
	}
	if len(parts) == 0 {
		return check.CompleteResult{}, apiErr("MalformedXML", http.StatusBadRequest, "no parts in complete request")
	}

	var data []byte
	var sizes []int64
	for _, p := range parts {
		body, ok := up.parts[p.PartNumber]
		if !ok || up.etags[p.PartNumber] != p.ETag {
			return check.CompleteResult{}, apiErr("InvalidPart", http.StatusBadRequest, "part %d not found or etag mismatch", p.PartNumber)
		}
		data = append(data, body...)
		sizes = append(sizes, int64(len(body)))
	}

	obj := &fakeObject{
		data:      data,
		etag:      fmt.Sprintf("%q", fmt.Sprintf("%x-%d", md5.Sum(data), len(parts))),
		partSizes: sizes,
	}
	b.objects[up.key] = obj
	delete(b.uploads, uploadID)
	return check.CompleteResult{ETag: obj.etag}, nil
}

func (f *FakeGateway) AbortMultipartUpload(_ context.Context, bucket, key, uploadID string) *check.GatewayError {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _, gerr := f.upload(bucket, uploadID)
	if gerr != nil {
		return gerr
	}
	delete(b.uploads, uploadID)
	return nil
}

func (f *FakeGateway) ListMultipartUploads(_ context.Context, bucket string) ([]check.UploadInfo, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, gerr := f.bucket(bucket)
	if gerr != nil {
		return nil, gerr
	}
	ids := make([]string, 0, len(b.uploads))
	for id := range b.uploads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]check.UploadInfo, 0, len(ids))
	for _, id := range ids {
		out = append(out, check.UploadInfo{Key: b.uploads[id].key, UploadID: id})
	}
	return out, nil
}

func (f *FakeGateway) ListParts(_ context.Context, bucket, key, uploadID string) ([]check.PartInfo, *check.GatewayError) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, up, gerr := f.upload(bucket, uploadID)
	if gerr != nil {
		return nil, gerr
	}
	numbers := make([]int, 0, len(up.parts))
	for n := range up.parts {
		numbers = append(numbers, int(n))
	}
	sort.Ints(numbers)
	out := make([]check.PartInfo, 0, len(numbers))
	for _, n := range numbers {
		out = append(out, check.PartInfo{
			PartNumber: int32(n),
			ETag:       up.etags[int32(n)],
			Size:       int64(len(up.parts[int32(n)])),
		})
	}
	return out, nil
}

func (f *FakeGateway) BatchUpload(ctx context.Context, bucket string, objects map[string][]byte) map[string]*check.GatewayError {
	results := make(map[string]*check.GatewayError, len(objects))
	for key, body := range objects {
		_, gerr := f.PutObject(ctx, bucket, key, body, check.PutOptions{})
		results[key] = gerr
	}
	return results
}

func (f *FakeGateway) BatchDownload(ctx context.Context, bucket string, keys []string) (map[string][]byte, map[string]*check.GatewayError) {
	bodies := make(map[string][]byte, len(keys))
	errs := make(map[string]*check.GatewayError)
	for _, key := range keys {
		res, gerr := f.GetObject(ctx, bucket, key, check.GetOptions{})
		if gerr != nil {
			errs[key] = gerr
			continue
		}
		bodies[key] = res.Body
	}
	return bodies, errs
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
