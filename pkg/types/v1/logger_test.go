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
	"reflect"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	v1 "github.com/tpm2-admin/tpm2-admin/pkg/types/v1"
)

var _ = Describe("Logger", Label("types", "logger"), func() {
	It("is a logrus logger", func() {
		l1 := v1.NewLogger()
		l2 := logrus.New()
		Expect(reflect.TypeOf(l1).Kind()).To(Equal(reflect.TypeOf(l2).Kind()))
	})
	It("discards everything with the null logger", func() {
		l := v1.NewNullLogger()
		l.Error("nobody reads this")
		Expect(v1.IsDebugLevel(l)).To(BeFalse())
	})
	It("stores logs in a buffer with the buffer logger", func() {
		b := &bytes.Buffer{}
		l := v1.NewBufferLogger(b)
		l.SetLevel(v1.DebugLevel())
		Expect(v1.IsDebugLevel(l)).To(BeTrue())
		l.Debugf("flushed %s", "80000001")
		Expect(b.String()).To(ContainSubstring("flushed 80000001"))
	})
})
