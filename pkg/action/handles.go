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

package action

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
	"github.com/tpm2-admin/tpm2-admin/pkg/tpm"
)

var listingKinds = map[string]tpm.Kind{
	constants.HandleListingNV:     tpm.KindNVIndex,
	constants.HandleListingLoaded: tpm.KindLoadedSession,
	constants.HandleListingSaved:  tpm.KindSavedSession,
	constants.HandleListingTrans:  tpm.KindTransient,
	constants.HandleListingPers:   tpm.KindPersistent,
}

// HandleGroup lists the TPM resident handles of a kind
type HandleGroup struct {
	Kind    tpm.Kind `yaml:"kind"`
	Handles []string `yaml:"handles"`
}

// ListHandles lists the NV indexes, loaded and saved sessions, transient and
// persistent objects resident in the TPM
func (t *TPMAction) ListHandles(ctx context.Context) ([]HandleGroup, error) {
	defer t.lock()()
	return t.listGroups(ctx, constants.GetHandleListings())
}

func (t *TPMAction) listGroups(ctx context.Context, ranges []string) ([]HandleGroup, error) {
	groups := []HandleGroup{}
	for _, r := range ranges {
		listing, err := t.listHandles(ctx, r)
		if err != nil {
			return nil, err
		}
		groups = append(groups, HandleGroup{Kind: listingKinds[r], Handles: listing.Handles})
	}
	return groups, nil
}

func (t *TPMAction) listHandles(ctx context.Context, r string) (tpm.CapabilityListing, error) {
	cmd, err := t.builder.GetCapability(tpm.Options{"cap": constants.CapHandles, "pr": r})
	if err != nil {
		return tpm.CapabilityListing{}, err
	}
	out, err := t.run(ctx, cmd)
	if err != nil {
		return tpm.CapabilityListing{}, err
	}
	return tpm.ParseCapabilityListing(out.Lines)
}

// FlushStatus is the outcome of decommissioning a single handle
type FlushStatus string

const (
	// Flushed handles were flushed, undefined or evicted
	Flushed FlushStatus = "flushed"
	// Skipped handles are malformed or of a kind that can't be decommissioned
	Skipped FlushStatus = "skipped"
	// Failed handles made the decommission tool fail
	Failed FlushStatus = "failed"
	// Ignored handles failed only because their context file is missing
	Ignored FlushStatus = "ignored"
)

// FlushItem reports the outcome for a single handle
type FlushItem struct {
	Handle string      `yaml:"handle"`
	Kind   tpm.Kind    `yaml:"kind"`
	Status FlushStatus `yaml:"status"`
	Error  error       `yaml:"-"`
	Reason string      `yaml:"reason,omitempty"`
}

// FlushReport is the per handle outcome of a bulk flush
type FlushReport struct {
	Items []FlushItem `yaml:"items"`
}

// Count returns the number of items with the given status
func (r *FlushReport) Count(s FlushStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == s {
			n++
		}
	}
	return n
}

// Err returns the failures and skipped handles of the report, nil if every handle
// was flushed or ignored
func (r *FlushReport) Err() error {
	var errs error
	for _, item := range r.Items {
		if item.Status == Failed || item.Status == Skipped {
			errs = multierror.Append(errs, item.Error)
		}
	}
	return errs
}

// FlushHandles decommissions each of the given handles according to its kind. Every
// handle is processed even if others fail, the outcome is reported per handle.
func (t *TPMAction) FlushHandles(ctx context.Context, handles []string) *FlushReport {
	defer t.lock()()
	return t.flushHandles(ctx, handles)
}

func (t *TPMAction) flushHandles(ctx context.Context, handles []string) *FlushReport {
	report := &FlushReport{Items: []FlushItem{}}
	for _, s := range handles {
		report.Items = append(report.Items, t.decommission(ctx, s))
	}
	return report
}

func (t *TPMAction) decommission(ctx context.Context, s string) FlushItem {
	item := FlushItem{Handle: s}
	fail := func(status FlushStatus, err error) FlushItem {
		item.Status = status
		item.Error = err
		item.Reason = err.Error()
		return item
	}

	h, err := tpm.ParseHandle(s)
	if err != nil {
		t.cfg.Logger.Warnf("Skipping malformed handle '%s'", s)
		return fail(Skipped, tpmError.NewValidationError("handle", "%s", err.Error()))
	}
	item.Handle = h.String()
	item.Kind = h.Kind()

	cmd, err := t.builder.Decommission(h)
	if err != nil {
		t.cfg.Logger.Warnf("Skipping handle %s: %s", h, err.Error())
		return fail(Skipped, err)
	}
	if _, err = t.run(ctx, cmd); err != nil {
		var tErr *tpmError.ToolError
		if errors.As(err, &tErr) && tErr.ResponseCode() == constants.RCMissingFile {
			t.cfg.Logger.Debugf("Ignoring missing context file for handle %s", h)
			item.Status = Ignored
			return item
		}
		t.cfg.Logger.Errorf("Failed decommissioning handle %s: %s", h, err.Error())
		return fail(Failed, err)
	}
	t.cfg.Logger.Infof("Handle %s (%s) decommissioned", h, item.Kind)
	item.Status = Flushed
	return item
}

// FlushAll decommissions every resident handle of the given kinds, all kinds if none is given
func (t *TPMAction) FlushAll(ctx context.Context, kinds ...tpm.Kind) (*FlushReport, error) {
	ranges := []string{}
	for _, r := range constants.GetHandleListings() {
		if len(kinds) == 0 || hasKind(kinds, listingKinds[r]) {
			ranges = append(ranges, r)
		}
	}

	defer t.lock()()
	groups, err := t.listGroups(ctx, ranges)
	if err != nil {
		return nil, err
	}
	handles := []string{}
	for _, g := range groups {
		handles = append(handles, g.Handles...)
	}
	return t.flushHandles(ctx, handles), nil
}

func hasKind(kinds []tpm.Kind, k tpm.Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}
