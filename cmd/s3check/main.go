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
	"log"
	"os"

	"github.com/urfave/cli/v2"
	"github.com/versity/s3check/checks"
)

var (
	// Version is the latest tag (set within Makefile)
	Version = "git"
	// Build is the commit hash (set within Makefile)
	Build = "norev"
	// BuildTime is the date/time of build (set within Makefile)
	BuildTime = "none"
)

func main() {
	setupSignalHandler()

	app := initApp()

	app.Commands = []*cli.Command{
		checkCommand(),
		listScopesCommand(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-sigDone
		fmt.Fprintf(os.Stderr, "terminating signal caught, shutting down\n")
		cancel()
	}()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func initApp() *cli.App {
	return &cli.App{
		Name:  "s3check",
		Usage: "Run S3 compatibility checks against an S3 service endpoint.",
		Description: `s3check exercises an S3 compatible storage service with categories of
compatibility checks and reports which operations behave like native S3.`,
		Action: func(ctx *cli.Context) error {
			return ctx.App.Command("help").Run(ctx)
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "version",
				Usage:   "list s3check version",
				Aliases: []string{"v"},
				Action: func(*cli.Context, bool) error {
					fmt.Println("Version  :", Version)
					fmt.Println("Build    :", Build)
					fmt.Println("BuildTime:", BuildTime)
					os.Exit(0)
					return nil
				},
			},
		},
	}
}

func listScopesCommand() *cli.Command {
	return &cli.Command{
		Name:  "list-scopes",
		Usage: "list available check scopes",
		Action: func(ctx *cli.Context) error {
			for _, reg := range checks.All() {
				fmt.Printf("%-18s %s\n", reg.Name, reg.Description)
			}
			return nil
		},
	}
}
