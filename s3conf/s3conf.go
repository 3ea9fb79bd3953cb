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

package s3conf

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/smithy-go/middleware"
)

// S3Conf holds the connection and test data settings for a check run.
type S3Conf struct {
	awsID           string
	awsSecret       string
	awsRegion       string
	endpoint        string
	checksumDisable bool
	pathStyle       bool
	allowInsecure   bool
	debug           bool
	retries         int

	OpTimeout       time.Duration
	TransferTimeout time.Duration

	PartSize    int64
	Concurrency int

	SmallSize  int64
	MediumSize int64
	LargeSize  int64

	Prefix         string
	CleanupEnabled bool
}

func NewS3Conf(opts ...Option) *S3Conf {
	s := &S3Conf{
		awsRegion:       "us-east-1",
		retries:         3,
		OpTimeout:       30 * time.Second,
		TransferTimeout: 300 * time.Second,
		PartSize:        5 * 1024 * 1024,
		Concurrency:     1,
		SmallSize:       1024,
		MediumSize:      1024 * 1024,
		LargeSize:       10 * 1024 * 1024,
		Prefix:          "s3check",
		CleanupEnabled:  true,
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*S3Conf)

func WithAccess(ak string) Option {
	return func(s *S3Conf) { s.awsID = ak }
}
func WithSecret(sk string) Option {
	return func(s *S3Conf) { s.awsSecret = sk }
}
func WithRegion(r string) Option {
	return func(s *S3Conf) { s.awsRegion = r }
}
func WithEndpoint(e string) Option {
	return func(s *S3Conf) { s.endpoint = e }
}
func WithDisableChecksum() Option {
	return func(s *S3Conf) { s.checksumDisable = true }
}
func WithPathStyle() Option {
	return func(s *S3Conf) { s.pathStyle = true }
}
func WithTLSStatus(skip bool) Option {
	return func(s *S3Conf) { s.allowInsecure = skip }
}
func WithDebug() Option {
	return func(s *S3Conf) { s.debug = true }
}
func WithRetries(n int) Option {
	return func(s *S3Conf) { s.retries = n }
}
func WithOpTimeout(d time.Duration) Option {
	return func(s *S3Conf) { s.OpTimeout = d }
}
func WithTransferTimeout(d time.Duration) Option {
	return func(s *S3Conf) { s.TransferTimeout = d }
}
func WithPartSize(p int64) Option {
	return func(s *S3Conf) { s.PartSize = p }
}
func WithConcurrency(c int) Option {
	return func(s *S3Conf) { s.Concurrency = c }
}
func WithSmallSize(n int64) Option {
	return func(s *S3Conf) { s.SmallSize = n }
}
func WithMediumSize(n int64) Option {
	return func(s *S3Conf) { s.MediumSize = n }
}
func WithLargeSize(n int64) Option {
	return func(s *S3Conf) { s.LargeSize = n }
}
func WithPrefix(p string) Option {
	return func(s *S3Conf) { s.Prefix = p }
}
func WithCleanupDisabled() Option {
	return func(s *S3Conf) { s.CleanupEnabled = false }
}

func (c *S3Conf) PathStyle() bool {
	return c.pathStyle
}

func (c *S3Conf) getCreds() (credentials.StaticCredentialsProvider, error) {
	// TODO support token/IAM
	if c.awsSecret == "" {
		c.awsSecret = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	if c.awsSecret == "" {
		return credentials.StaticCredentialsProvider{}, fmt.Errorf("no AWS_SECRET_ACCESS_KEY found")
	}

	return credentials.NewStaticCredentialsProvider(c.awsID, c.awsSecret, ""), nil
}

func (c *S3Conf) ResolveEndpoint(service, region string, options ...interface{}) (aws.Endpoint, error) {
	return aws.Endpoint{
		PartitionID:       "aws",
		URL:               c.endpoint,
		SigningRegion:     c.awsRegion,
		HostnameImmutable: true,
	}, nil
}

func (c *S3Conf) Config(ctx context.Context) (aws.Config, error) {
	creds, err := c.getCreds()
	if err != nil {
		return aws.Config{}, err
	}

	client := http.DefaultClient
	if c.allowInsecure {
		tr := &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		client = &http.Client{Transport: tr}
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.awsRegion),
		config.WithCredentialsProvider(creds),
		config.WithHTTPClient(client),
		config.WithRetryMaxAttempts(c.retries),
	}

	if c.endpoint != "" && c.endpoint != "aws" {
		opts = append(opts,
			config.WithEndpointResolverWithOptions(c))
	}

	if c.checksumDisable {
		opts = append(opts,
			config.WithAPIOptions([]func(*middleware.Stack) error{v4.SwapComputePayloadSHA256ForUnsignedPayloadMiddleware}))
	}

	if c.debug {
		opts = append(opts,
			config.WithClientLogMode(aws.LogSigning|aws.LogRetries|aws.LogRequest|aws.LogResponse))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}

	return cfg, nil
}
