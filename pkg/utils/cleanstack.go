/*
Copyright © 2022 - 2025 SUSE LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package utils

import (
	"github.com/hashicorp/go-multierror"

	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

type CleanFunc func() error

// CleanJob represents a release task, run regardless of the outcome of the flow
type CleanJob struct {
	name      string
	cleanFunc CleanFunc
}

// Run executes the defined job
func (cj CleanJob) Run() error {
	return cj.cleanFunc()
}

// Name returns the CleanJob description
func (cj CleanJob) Name() string {
	return cj.name
}

// NewCleanStack returns a new stack. Cleanup failures are reported to the given logger.
func NewCleanStack(logger v1.Logger) *CleanStack {
	return &CleanStack{logger: logger}
}

// CleanStack is a basic LIFO stack of release jobs. Handles, sessions and scratch
// files acquired during a flow are pushed right after being acquired.
type CleanStack struct {
	jobs   []*CleanJob
	count  int
	errs   []error
	logger v1.Logger
}

// Push adds a node to the stack
func (clean *CleanStack) Push(name string, cFunc CleanFunc) {
	clean.jobs = append(clean.jobs[:clean.count], &CleanJob{name: name, cleanFunc: cFunc})
	clean.count++
}

// Pop removes and returns a node from the stack in last to first order.
func (clean *CleanStack) Pop() *CleanJob {
	if clean.count == 0 {
		return nil
	}
	clean.count--
	return clean.jobs[clean.count]
}

// Len returns the number of pending jobs
func (clean *CleanStack) Len() int {
	return clean.count
}

// Errors returns the failures of the jobs run so far
func (clean *CleanStack) Errors() []error {
	return clean.errs
}

// Cleanup runs the whole cleanup stack. A failing job does not stop the
// remaining ones. If err is not nil it is returned untouched, cleanup
// failures are only logged. Otherwise the cleanup failures are returned.
func (clean *CleanStack) Cleanup(err error) error {
	var errs error
	for clean.count > 0 {
		errs = clean.runCleanJob(clean.Pop(), errs)
	}
	if err != nil {
		return err
	}
	return errs
}

func (clean *CleanStack) runCleanJob(job *CleanJob, errs error) error {
	err := job.Run()
	if err != nil {
		clean.errs = append(clean.errs, err)
		if clean.logger != nil {
			clean.logger.Warnf("cleanup '%s' failed: %s", job.Name(), err.Error())
		}
		errs = multierror.Append(errs, err)
	}
	return errs
}
