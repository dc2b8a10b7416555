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

package v1_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/mocks"
	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

func shell(script string) v1.CommandSpec {
	return v1.CommandSpec{Path: "/bin/sh", Args: []string{"-c", script}}
}

var _ = Describe("Runner", Label("types", "runner"), func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("Runs commands on the real Runner", func() {
		r := v1.RealRunner{}
		res, err := r.Run(ctx, v1.CommandSpec{Path: "pwd", Dir: "/"})
		Expect(err).To(BeNil())
		Expect(res.Success()).To(BeTrue())
		Expect(res.Lines).To(Equal([]string{"/"}))
	})
	It("Runs commands on the fake runner", func() {
		r := mocks.NewFakeRunner()
		_, err := r.Run(ctx, v1.CommandSpec{Path: "pwd"})
		Expect(err).To(BeNil())
		Expect(r.CmdsMatch([][]string{{"pwd"}})).To(Succeed())
	})
	It("Sets and gets the logger on the fake runner", func() {
		r := mocks.NewFakeRunner()
		Expect(r.GetLogger()).To(BeNil())
		logger := v1.NewNullLogger()
		r.SetLogger(logger)
		Expect(r.GetLogger()).To(Equal(logger))
	})
	It("Sets and gets the logger on the real runner", func() {
		r := v1.RealRunner{}
		Expect(r.GetLogger()).To(BeNil())
		logger := v1.NewNullLogger()
		r.SetLogger(logger)
		Expect(r.GetLogger()).To(Equal(logger))
	})
	It("captures stdout and stderr apart, trimmed", func() {
		r := v1.RealRunner{}
		res, err := r.Run(ctx, shell("echo '  first  '; echo; echo last; echo oops >&2; echo"))
		Expect(err).To(BeNil())
		Expect(res.Lines).To(Equal([]string{"first", "", "last"}))
		Expect(res.Stderr).To(Equal([]string{"oops"}))
		Expect(res.Output()).To(Equal([]string{"first", "", "last", "oops"}))
	})
	It("returns a nonzero exit code as a regular result", func() {
		r := v1.RealRunner{}
		res, err := r.Run(ctx, shell("echo 'tool: failed, rc 0000098e'; exit 3"))
		Expect(err).To(BeNil())
		Expect(res.Success()).To(BeFalse())
		Expect(res.ExitCode).To(Equal(3))
		Expect(res.Lines).To(Equal([]string{"tool: failed, rc 0000098e"}))
	})
	It("passes the extra environment to the tool", func() {
		r := v1.RealRunner{}
		spec := shell(`echo "$TPM_INTERFACE_TYPE"`)
		spec.Env = []string{"TPM_INTERFACE_TYPE=socsim"}
		res, err := r.Run(ctx, spec)
		Expect(err).To(BeNil())
		Expect(res.Lines).To(Equal([]string{"socsim"}))
	})
	It("logs the masked command when on debug", func() {
		memLog := &bytes.Buffer{}
		logger := v1.NewBufferLogger(memLog)
		logger.SetLevel(v1.DebugLevel())
		r := v1.RealRunner{Logger: logger}
		_, err := r.Run(ctx, v1.CommandSpec{Path: "echo", Args: []string{"-pwdn", "secret"}})
		Expect(err).To(BeNil())
		Expect(memLog.String()).To(ContainSubstring("echo -pwdn ****"))
		Expect(memLog.String()).NotTo(ContainSubstring("secret"))
	})
	It("fails with a launch error when the command is not found", func() {
		r := v1.RealRunner{}
		_, err := r.Run(ctx, v1.CommandSpec{Path: "/IAmMissing"})
		Expect(err).NotTo(BeNil())
		var lErr *tpmError.LaunchError
		Expect(errors.As(err, &lErr)).To(BeTrue())
		Expect(tpmError.ExitCodeFor(err)).To(Equal(tpmError.LaunchFailed))
	})
	It("kills the tool on timeout", func() {
		r := v1.RealRunner{Timeout: 100 * time.Millisecond}
		start := time.Now()
		_, err := r.Run(ctx, shell("sleep 10 & wait"))
		Expect(err).NotTo(BeNil())
		var lErr *tpmError.LaunchError
		Expect(errors.As(err, &lErr)).To(BeTrue())
		Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))
	})
	It("kills the tool on cancellation", func() {
		r := v1.RealRunner{}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := r.Run(cctx, shell("sleep 10"))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
	It("returns false if command does not exists", func() {
		r := v1.RealRunner{}
		exists := r.CommandExists("THISCOMMANDSHOULDNOTBETHERECOMEON")
		Expect(exists).To(BeFalse())
	})
	It("returns true if command exists", func() {
		r := v1.RealRunner{}
		exists := r.CommandExists("true")
		Expect(exists).To(BeTrue())
	})
})
