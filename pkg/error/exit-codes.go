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

// provides a custom error interface and exit codes to use on the tpm2-admin cli
package error

//
// Provided exit codes for tpm2-admin

// To make it easy to generate them you have to respect the structure:
//
// comment that explains the error
// const NamedConstant = ERRORCODE

// Error reading the run config
const ReadingRunConfig = 10

// Options failed validation before any tool ran
const ValidationFailed = 11

// A TPM tool could not be started
const LaunchFailed = 12

// A TPM tool exited with a nonzero status
const ToolFailed = 13

// A TPM tool succeeded but its output could not be parsed
const ParseFailed = 14

// A handle has a type tag that can not be decommissioned
const UnsupportedHandle = 15

// Some items of a bulk operation failed
const PartialFailure = 16

// Error creating a temporal dir
const CreateTempDir = 17

// Error writing a scratch file
const WriteFile = 18

// Error reading a file written by a tool
const ReadFile = 19

// Error rendering the result of an operation
const RenderOutput = 20

// Unknown error
const Unknown int = 255
