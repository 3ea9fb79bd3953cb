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

import "context"

// Category is one cohesive group of probes sharing a single scoped
// bucket and one cleanup pass. Instances are single use, the
// orchestrator constructs a fresh one per run.
type Category interface {
	Name() string
	Run(ctx context.Context) error
	Results() []CheckResult
	Cleanup(ctx context.Context) []error
}

// Registration binds a category name to its constructor. Categories
// are registered in a static table, no reflection.
type Registration struct {
	Name        string
	Description string
	New         func(Deps) Category
}
