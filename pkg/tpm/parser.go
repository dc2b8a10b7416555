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

package tpm

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/canonical/go-tpm2"

	"github.com/tpm2-admin/tpm2-admin/pkg/constants"
	tpmError "github.com/tpm2-admin/tpm2-admin/pkg/error"
)

func parseError(field string, lines []string, line int, format string, args ...interface{}) error {
	pErr := &tpmError.ParseError{Field: field, Line: line, Reason: fmt.Sprintf(format, args...)}
	if line >= 0 && line < len(lines) {
		pErr.Text = lines[line]
	}
	return pErr
}

// token returns the n-th whitespace delimited field of the given line
func token(field string, lines []string, line, n int) (string, error) {
	if line >= len(lines) {
		return "", parseError(field, lines, -1, "expected at least %d lines, got %d", line+1, len(lines))
	}
	fields := strings.Fields(lines[line])
	if n >= len(fields) {
		return "", parseError(field, lines, line, "expected at least %d fields, got %d", n+1, len(fields))
	}
	return fields[n], nil
}

func parseHexWord(field string, lines []string, line int, value string) (uint32, error) {
	v, err := strconv.ParseUint(value, 16, 32)
	if err != nil {
		return 0, parseError(field, lines, line, "'%s' is not a 32 bit hex value", value)
	}
	return uint32(v), nil
}

// CapabilityListing is the handle list printed by getcapability -cap 1
type CapabilityListing struct {
	Count   int      `yaml:"count"`
	Handles []string `yaml:"handles"`
}

// ParseCapabilityListing parses a leading handle count followed by exactly that many handle lines
func ParseCapabilityListing(lines []string) (CapabilityListing, error) {
	first, err := token("count", lines, 0, 0)
	if err != nil {
		return CapabilityListing{}, err
	}
	count, err := strconv.Atoi(first)
	if err != nil || count < 0 {
		return CapabilityListing{}, parseError("count", lines, 0, "'%s' is not a handle count", first)
	}
	if len(lines)-1 < count {
		return CapabilityListing{}, parseError("handles", lines, -1, "declared %d handles but only %d lines follow", count, len(lines)-1)
	}

	listing := CapabilityListing{Count: count, Handles: make([]string, 0, count)}
	for i := 1; i <= count; i++ {
		if lines[i] == "" {
			return CapabilityListing{}, parseError("handles", lines, i, "empty handle line")
		}
		listing.Handles = append(listing.Handles, lines[i])
	}
	return listing, nil
}

// ParseLoadResponse parses the handle printed as second field of the first line by
// load, createprimary and startauthsession, as in 'Handle 80000001'
func ParseLoadResponse(lines []string) (Handle, error) {
	value, err := token("handle", lines, 0, 1)
	if err != nil {
		return 0, err
	}
	if len(value) != 8 {
		return 0, parseError("handle", lines, 0, "'%s' is not an 8 digit hex handle", value)
	}
	h, err := ParseHandle(value)
	if err != nil {
		return 0, parseError("handle", lines, 0, "'%s' is not an 8 digit hex handle", value)
	}
	return h, nil
}

// PublicAreaSummary is the public area of an NV index as printed by nvreadpublic
type PublicAreaSummary struct {
	NameAlgorithm NameAlgorithm `yaml:"name-algorithm"`
	Size          uint32        `yaml:"size"`
	Attributes    NVAttributes  `yaml:"attributes"`
	PolicyLength  int           `yaml:"policy-length"`
	Policy        HexBytes      `yaml:"policy,omitempty"`
}

// HasPolicy reports if the index has an authorization policy
func (p PublicAreaSummary) HasPolicy() bool {
	return p.PolicyLength > 0
}

// ParsePublicArea parses nvreadpublic output: the name algorithm on the first line,
// the data size on the second, the attribute word on the third and an optional
// policy digest after the line announcing its length
func ParsePublicArea(lines []string) (PublicAreaSummary, error) {
	var summary PublicAreaSummary

	alg, err := token("name algorithm", lines, 0, 3)
	if err != nil {
		return summary, err
	}
	algID, err := strconv.ParseUint(alg, 16, 16)
	if err != nil {
		return summary, parseError("name algorithm", lines, 0, "'%s' is not an algorithm id", alg)
	}
	summary.NameAlgorithm = NameAlgorithm(tpm2.HashAlgorithmId(algID))

	size, err := token("data size", lines, 1, 3)
	if err != nil {
		return summary, err
	}
	sz, err := strconv.ParseUint(size, 10, 32)
	if err != nil {
		return summary, parseError("data size", lines, 1, "'%s' is not a size", size)
	}
	summary.Size = uint32(sz)

	attrs, err := token("attributes", lines, 2, 2)
	if err != nil {
		return summary, err
	}
	word, err := parseHexWord("attributes", lines, 2, attrs)
	if err != nil {
		return summary, err
	}
	summary.Attributes = DecodeNVAttributes(word)

	for i := 3; i < len(lines); i++ {
		if !strings.Contains(lines[i], constants.PolicyMarker) {
			continue
		}
		length, err := policyLength(lines, i)
		if err != nil {
			return summary, err
		}
		summary.PolicyLength = length
		if length == 0 {
			break
		}
		digestLines := (length + constants.DigestPerLine - 1) / constants.DigestPerLine
		if i+digestLines >= len(lines) {
			return summary, parseError("policy", lines, i, "policy of %d bytes needs %d digest lines", length, digestLines)
		}
		summary.Policy, err = parseHexLines("policy", lines, i+1, i+1+digestLines, length)
		if err != nil {
			return summary, err
		}
		break
	}
	return summary, nil
}

// policyLength reads the length announced in a policy line, the field following 'length',
// or the fifth field when the line has no such label
func policyLength(lines []string, line int) (int, error) {
	fields := strings.Fields(lines[line])
	value := ""
	for i, f := range fields {
		if f == "length" && i+1 < len(fields) {
			value = fields[i+1]
			break
		}
	}
	if value == "" {
		var err error
		if value, err = token("policy length", lines, line, 4); err != nil {
			return 0, err
		}
	}
	length, err := strconv.Atoi(value)
	if err != nil || length < 0 {
		return 0, parseError("policy length", lines, line, "'%s' is not a length", value)
	}
	return length, nil
}

// ClockInfo is the TPM time as printed by readclock
type ClockInfo struct {
	// UptimeMs is the time since the last TPM startup
	UptimeMs uint64 `yaml:"uptime-ms"`
	// ClockMs is the TPM clock, set by clockset to the milliseconds since the epoch
	ClockMs uint64 `yaml:"clock-ms"`
}

// WallClock returns the TPM clock as a calendar time
func (c ClockInfo) WallClock() time.Time {
	return time.Unix(int64(c.ClockMs/1000), 0)
}

// Uptime returns the time since the last TPM startup
func (c ClockInfo) Uptime() time.Duration {
	return time.Duration(c.UptimeMs) * time.Millisecond
}

// ParseClockInfo parses readclock output, the third field of the TPMS_TIME_INFO and
// TPMS_CLOCK_INFO lines
func ParseClockInfo(lines []string) (ClockInfo, error) {
	var info ClockInfo
	var err error

	info.UptimeMs, err = markedValue("uptime", lines, constants.TimeInfoMarker)
	if err != nil {
		return info, err
	}
	info.ClockMs, err = markedValue("clock", lines, constants.ClockInfoMarker)
	return info, err
}

func markedValue(field string, lines []string, marker string) (uint64, error) {
	line := findLine(lines, marker)
	if line < 0 {
		return 0, parseError(field, lines, -1, "no line contains %s", marker)
	}
	value, err := token(field, lines, line, 2)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, parseError(field, lines, line, "'%s' is not a number of milliseconds", value)
	}
	return v, nil
}

// findLine returns the index of the first line containing the marker, case insensitive, or -1
func findLine(lines []string, marker string) int {
	marker = strings.ToLower(marker)
	for i, l := range lines {
		if strings.Contains(strings.ToLower(l), marker) {
			return i
		}
	}
	return -1
}

// HexBytes is binary data rendered as hex text
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

func (b HexBytes) MarshalYAML() (interface{}, error) {
	return b.String(), nil
}

// ParseHexBytes decodes lines of space separated hex byte groups, as in '61 62 0a'.
// When countHint is positive the decoded length must match it.
func ParseHexBytes(lines []string, countHint int) (HexBytes, error) {
	return parseHexLines("data", lines, 0, len(lines), countHint)
}

func parseHexLines(field string, lines []string, from, to, countHint int) (HexBytes, error) {
	data := HexBytes{}
	for i := from; i < to; i++ {
		for _, group := range strings.Fields(lines[i]) {
			if len(group)%2 != 0 {
				return nil, parseError(field, lines, i, "'%s' is not a hex byte group", group)
			}
			b, err := hex.DecodeString(group)
			if err != nil {
				return nil, parseError(field, lines, i, "'%s' is not a hex byte group", group)
			}
			data = append(data, b...)
		}
	}
	if countHint > 0 && len(data) != countHint {
		return nil, parseError(field, lines, -1, "expected %d bytes, decoded %d", countHint, len(data))
	}
	return data, nil
}

// ParseNVRead parses nvread output, a header line followed by the data in hex
func ParseNVRead(lines []string) (HexBytes, error) {
	if len(lines) < 1 {
		return nil, parseError("nv data", lines, -1, "empty output")
	}
	return parseHexLines("nv data", lines, 1, len(lines), 0)
}

// ParsePCRRead parses pcrread output, the digest is printed in hex from the third line on
func ParsePCRRead(lines []string) (HexBytes, error) {
	if len(lines) < 3 {
		return nil, parseError("pcr digest", lines, -1, "expected at least 3 lines, got %d", len(lines))
	}
	digest, err := parseHexLines("pcr digest", lines, 2, len(lines), 0)
	if err != nil {
		return nil, err
	}
	if len(digest) == 0 {
		return nil, parseError("pcr digest", lines, 2, "empty digest")
	}
	return digest, nil
}

// ParseCapabilityProperty parses the value of a single property query,
// getcapability -cap 6 -pr P -pc 1, the fourth field of the third line
func ParseCapabilityProperty(lines []string) (uint32, error) {
	value, err := token("property", lines, 2, 3)
	if err != nil {
		return 0, err
	}
	return parseHexWord("property", lines, 2, value)
}

// TPMProperties is the TPM identification read from the fixed properties
type TPMProperties struct {
	Manufacturer string `yaml:"manufacturer"`
	VendorString string `yaml:"vendor"`
	Revision     uint64 `yaml:"revision"`
	Firmware     string `yaml:"firmware"`
}

// ParseProperties parses the TPM identification out of getcapability -cap 6 output.
// Each value is the fourth field of the first line naming the property.
func ParseProperties(lines []string) (TPMProperties, error) {
	var props TPMProperties

	value := func(name string) (string, error) {
		line := findLine(lines, name)
		if line < 0 {
			return "", parseError(name, lines, -1, "property not found")
		}
		return token(name, lines, line, 3)
	}
	ascii := func(name string) (string, error) {
		v, err := value(name)
		if err != nil {
			return "", err
		}
		b, err := hex.DecodeString(v)
		if err != nil {
			return "", parseError(name, lines, findLine(lines, name), "'%s' is not hex encoded text", v)
		}
		return strings.ReplaceAll(string(b), "\x00", ""), nil
	}

	var err error
	if props.Manufacturer, err = ascii(constants.PropManufacturer); err != nil {
		return props, err
	}
	vendor1, err := ascii(constants.PropVendorString1)
	if err != nil {
		return props, err
	}
	vendor2, err := ascii(constants.PropVendorString2)
	if err != nil {
		return props, err
	}
	props.VendorString = vendor1 + vendor2

	revision, err := value(constants.PropRevision)
	if err != nil {
		return props, err
	}
	if props.Revision, err = strconv.ParseUint(revision, 16, 64); err != nil {
		return props, parseError(constants.PropRevision, lines, findLine(lines, constants.PropRevision), "'%s' is not hex", revision)
	}

	fw1, err := value(constants.PropFirmware1)
	if err != nil {
		return props, err
	}
	fw2, err := value(constants.PropFirmware2)
	if err != nil {
		return props, err
	}
	props.Firmware = fw1 + " " + fw2
	return props, nil
}
