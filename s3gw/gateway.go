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

// Package s3gw drives a remote S3 compatible endpoint through
// aws-sdk-go-v2 and normalizes every outcome into the typed results
// the check framework consumes.
package s3gw

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/s3conf"
)

// Gateway implements check.Gateway over an s3.Client. Every call is
// bounded by the configured per operation timeout and gets a request
// id for debug tracing.
type Gateway struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	conf       *s3conf.S3Conf
	log        zerolog.Logger
}

var _ check.Gateway = (*Gateway)(nil)

func New(ctx context.Context, conf *s3conf.S3Conf, log zerolog.Logger) (*Gateway, error) {
	cfg, err := conf.Config(ctx)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = conf.PathStyle()
	})

	return &Gateway{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			u.PartSize = conf.PartSize
			u.Concurrency = conf.Concurrency
		}),
		downloader: manager.NewDownloader(client, func(d *manager.Downloader) {
			d.PartSize = conf.PartSize
			d.Concurrency = conf.Concurrency
		}),
		conf: conf,
		log:  log.With().Str("component", "s3gw").Logger(),
	}, nil
}

func (g *Gateway) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.conf.OpTimeout)
}

func (g *Gateway) transferCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, g.conf.TransferTimeout)
}

// begin stamps a request id and emits the debug trace for one call.
func (g *Gateway) begin(op, bucket, key string) string {
	reqID := uuid.NewString()
	g.log.Debug().
		Str("req_id", reqID).
		Str("op", op).
		Str("bucket", bucket).
		Str("key", key).
		Msg("request")
	return reqID
}

func (g *Gateway) CreateBucket(ctx context.Context, bucket string) *check.GatewayError {
	reqID := g.begin("CreateBucket", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	_, err := g.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: &bucket,
	})
	if err != nil {
		return toGatewayError("CreateBucket", reqID, err)
	}
	return nil
}

func (g *Gateway) DeleteBucket(ctx context.Context, bucket string) *check.GatewayError {
	reqID := g.begin("DeleteBucket", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	_, err := g.client.DeleteBucket(ctx, &s3.DeleteBucketInput{
		Bucket: &bucket,
	})
	if err != nil {
		return toGatewayError("DeleteBucket", reqID, err)
	}
	return nil
}

func (g *Gateway) HeadBucket(ctx context.Context, bucket string) *check.GatewayError {
	reqID := g.begin("HeadBucket", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: &bucket,
	})
	if err != nil {
		return toGatewayError("HeadBucket", reqID, err)
	}
	return nil
}

func (g *Gateway) ListBuckets(ctx context.Context) ([]check.BucketInfo, *check.GatewayError) {
	reqID := g.begin("ListBuckets", "", "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	out, err := g.client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, toGatewayError("ListBuckets", reqID, err)
	}

	buckets := make([]check.BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		info := check.BucketInfo{Name: aws.ToString(b.Name)}
		if b.CreationDate != nil {
			info.CreationDate = *b.CreationDate
		}
		buckets = append(buckets, info)
	}
	return buckets, nil
}

func (g *Gateway) GetBucketVersioning(ctx context.Context, bucket string) (string, *check.GatewayError) {
	reqID := g.begin("GetBucketVersioning", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	out, err := g.client.GetBucketVersioning(ctx, &s3.GetBucketVersioningInput{
		Bucket: &bucket,
	})
	if err != nil {
		return "", toGatewayError("GetBucketVersioning", reqID, err)
	}
	return string(out.Status), nil
}

func (g *Gateway) PutBucketVersioning(ctx context.Context, bucket, status string) *check.GatewayError {
	reqID := g.begin("PutBucketVersioning", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	_, err := g.client.PutBucketVersioning(ctx, &s3.PutBucketVersioningInput{
		Bucket: &bucket,
		VersioningConfiguration: &types.VersioningConfiguration{
			Status: types.BucketVersioningStatus(status),
		},
	})
	if err != nil {
		return toGatewayError("PutBucketVersioning", reqID, err)
	}
	return nil
}

func (g *Gateway) PutBucketTagging(ctx context.Context, bucket string, tags map[string]string) *check.GatewayError {
	reqID := g.begin("PutBucketTagging", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	_, err := g.client.PutBucketTagging(ctx, &s3.PutBucketTaggingInput{
		Bucket:  &bucket,
		Tagging: &types.Tagging{TagSet: toTagSet(tags)},
	})
	if err != nil {
		return toGatewayError("PutBucketTagging", reqID, err)
	}
	return nil
}

func (g *Gateway) GetBucketTagging(ctx context.Context, bucket string) (map[string]string, *check.GatewayError) {
	reqID := g.begin("GetBucketTagging", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	out, err := g.client.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{
		Bucket: &bucket,
	})
	if err != nil {
		return nil, toGatewayError("GetBucketTagging", reqID, err)
	}
	return fromTagSet(out.TagSet), nil
}

func (g *Gateway) DeleteBucketTagging(ctx context.Context, bucket string) *check.GatewayError {
	reqID := g.begin("DeleteBucketTagging", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	_, err := g.client.DeleteBucketTagging(ctx, &s3.DeleteBucketTaggingInput{
		Bucket: &bucket,
	})
	if err != nil {
		return toGatewayError("DeleteBucketTagging", reqID, err)
	}
	return nil
}

func (g *Gateway) GetBucketPolicy(ctx context.Context, bucket string) (string, *check.GatewayError) {
	reqID := g.begin("GetBucketPolicy", bucket, "")
	ctx, cancel := g.opCtx(ctx)
	defer cancel()
	out, err := g.client.GetBucketPolicy(ctx, &s3.GetBucketPolicyInput{
		Bucket: &bucket,
	})
	if err != nil {
		return "", toGatewayError("GetBucketPolicy", reqID, err)
	}
	return aws.ToString(out.Policy), nil
}

func toTagSet(tags map[string]string) []types.Tag {
	set := make([]types.Tag, 0, len(tags))
	for k, v := range tags {
		set = append(set, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}
	return set
}

func fromTagSet(set []types.Tag) map[string]string {
	tags := make(map[string]string, len(set))
	for _, t := range set {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return tags
}
