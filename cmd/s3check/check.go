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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"github.com/versity/s3check/check"
	"github.com/versity/s3check/checks"
	"github.com/versity/s3check/metrics"
	"github.com/versity/s3check/report"
	"github.com/versity/s3check/s3conf"
	"github.com/versity/s3check/s3gw"
)

var (
	awsID           string
	awsSecret       string
	awsRegion       string
	endpoint        string
	scope           string
	parallel        int
	allowInsecure   bool
	pathStyle       bool
	checksumDisable bool
	debug           bool
	quiet           bool
	noCleanup       bool
	prefix          string
	exportPath      string
	opTimeout       time.Duration
	runTimeout      time.Duration
	retries         int
	smallSize       int64
	mediumSize      int64
	largeSize       int64
	partSize        int64
	statsdServers   string
	dogstatsServers string
	logFile         string
	disabledScopes  cli.StringSlice
)

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "run compatibility checks against the endpoint",
		Action: runChecks,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "access",
				Usage:       "s3 access key",
				EnvVars:     []string{"AWS_ACCESS_KEY_ID", "AWS_ACCESS_KEY"},
				Aliases:     []string{"a"},
				Destination: &awsID,
			},
			&cli.StringFlag{
				Name:        "secret",
				Usage:       "s3 secret access key",
				EnvVars:     []string{"AWS_SECRET_ACCESS_KEY", "AWS_SECRET_KEY"},
				Aliases:     []string{"s"},
				Destination: &awsSecret,
			},
			&cli.StringFlag{
				Name:        "endpoint",
				Usage:       "s3 service endpoint url",
				Aliases:     []string{"e"},
				Destination: &endpoint,
			},
			&cli.StringFlag{
				Name:        "region",
				Usage:       "s3 region string",
				Value:       "us-east-1",
				Destination: &awsRegion,
			},
			&cli.StringFlag{
				Name:        "scope",
				Usage:       "comma separated list of check scopes to run, or 'all'",
				Value:       "all",
				Destination: &scope,
			},
			&cli.IntFlag{
				Name:        "parallel",
				Usage:       "number of categories to run concurrently",
				Value:       1,
				Destination: &parallel,
			},
			&cli.BoolFlag{
				Name:        "allow-insecure",
				Usage:       "skip TLS certificate verification",
				Destination: &allowInsecure,
			},
			&cli.BoolFlag{
				Name:        "path-style",
				Usage:       "use path-style bucket addressing",
				Destination: &pathStyle,
			},
			&cli.BoolFlag{
				Name:        "disable-checksum",
				Usage:       "disable request payload checksums",
				Destination: &checksumDisable,
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "enable debug output",
				Destination: &debug,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Usage:       "suppress progress logging, print only the report",
				Destination: &quiet,
			},
			&cli.BoolFlag{
				Name:        "no-cleanup",
				Usage:       "leave test buckets and objects in place after the run",
				Destination: &noCleanup,
			},
			&cli.StringFlag{
				Name:        "prefix",
				Usage:       "name prefix for test buckets and objects",
				Value:       "s3check",
				Destination: &prefix,
			},
			&cli.StringFlag{
				Name:        "export",
				Usage:       "export results to file, .json extension selects JSON format",
				Destination: &exportPath,
			},
			&cli.DurationFlag{
				Name:        "op-timeout",
				Usage:       "timeout for individual s3 operations",
				Value:       30 * time.Second,
				Destination: &opTimeout,
			},
			&cli.DurationFlag{
				Name:        "run-timeout",
				Usage:       "timeout for the whole run, 0 disables",
				Destination: &runTimeout,
			},
			&cli.IntFlag{
				Name:        "retries",
				Usage:       "max request retry attempts",
				Value:       3,
				Destination: &retries,
			},
			&cli.Int64Flag{
				Name:        "small-size",
				Usage:       "small test object size in bytes",
				Value:       1024,
				Destination: &smallSize,
			},
			&cli.Int64Flag{
				Name:        "medium-size",
				Usage:       "medium test object size in bytes",
				Value:       1024 * 1024,
				Destination: &mediumSize,
			},
			&cli.Int64Flag{
				Name:        "large-size",
				Usage:       "large test object size in bytes",
				Value:       10 * 1024 * 1024,
				Destination: &largeSize,
			},
			&cli.Int64Flag{
				Name:        "part-size",
				Usage:       "multipart upload part size in bytes",
				Value:       5 * 1024 * 1024,
				Destination: &partSize,
			},
			&cli.StringSliceFlag{
				Name:        "disable",
				Usage:       "disable a check scope, repeatable",
				Destination: &disabledScopes,
			},
			&cli.StringFlag{
				Name:        "statsd-server",
				Usage:       "comma separated statsd server addresses to publish metrics to",
				Destination: &statsdServers,
			},
			&cli.StringFlag{
				Name:        "dogstatsd-server",
				Usage:       "comma separated dogstatsd server addresses to publish metrics to",
				Destination: &dogstatsServers,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "write logs to file instead of stderr",
				Destination: &logFile,
			},
		},
	}
}

func runChecks(ctx *cli.Context) error {
	logger, closeLog, err := initLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	opts := []s3conf.Option{
		s3conf.WithAccess(awsID),
		s3conf.WithSecret(awsSecret),
		s3conf.WithRegion(awsRegion),
		s3conf.WithEndpoint(endpoint),
		s3conf.WithRetries(retries),
		s3conf.WithOpTimeout(opTimeout),
		s3conf.WithSmallSize(smallSize),
		s3conf.WithMediumSize(mediumSize),
		s3conf.WithLargeSize(largeSize),
		s3conf.WithPartSize(partSize),
		s3conf.WithPrefix(prefix),
		s3conf.WithTLSStatus(allowInsecure),
	}
	if pathStyle {
		opts = append(opts, s3conf.WithPathStyle())
	}
	if checksumDisable {
		opts = append(opts, s3conf.WithDisableChecksum())
	}
	if debug {
		opts = append(opts, s3conf.WithDebug())
	}
	if noCleanup {
		opts = append(opts, s3conf.WithCleanupDisabled())
	}
	conf := s3conf.NewS3Conf(opts...)

	runCtx := ctx.Context
	if runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, runTimeout)
		defer cancel()
	}

	gw, err := s3gw.New(runCtx, conf, logger)
	if err != nil {
		return fmt.Errorf("init s3 client: %w", err)
	}

	mgr, err := metrics.NewManager(runCtx, metrics.Config{
		StatsdServers:    statsdServers,
		DogstatsdServers: dogstatsServers,
	})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer mgr.Close()

	runConf := check.RunConfig{
		Prefix:         prefix,
		SmallSize:      smallSize,
		MediumSize:     mediumSize,
		LargeSize:      largeSize,
		ChunkSize:      partSize,
		CleanupEnabled: !noCleanup,
		Disabled:       disabledScopes.Value(),
	}

	orcOpts := []check.Option{
		check.WithLogger(logger),
		check.WithParallel(parallel),
	}
	if mgr != nil {
		orcOpts = append(orcOpts, check.WithRecorder(mgr))
	}
	orc := check.NewOrchestrator(gw, checks.All(), runConf, orcOpts...)

	if err := orc.Init(runCtx); err != nil {
		return fmt.Errorf("endpoint check failed: %w", err)
	}

	summary, err := orc.Run(runCtx, parseScopes(scope))
	if err != nil {
		return err
	}

	fmt.Print(report.Text(summary))

	if exportPath != "" {
		if err := report.Write(exportPath, summary); err != nil {
			return err
		}
		logger.Info().Str("path", exportPath).Msg("results exported")
	}

	if summary.TotalFailed > 0 {
		return cli.Exit(fmt.Sprintf("%d checks failed", summary.TotalFailed), 1)
	}
	return nil
}

func initLogger() (zerolog.Logger, func(), error) {
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	closer := func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = func() { f.Close() }
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if quiet {
		level = zerolog.ErrorLevel
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func parseScopes(s string) []string {
	var scopes []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			scopes = append(scopes, part)
		}
	}
	return scopes
}
