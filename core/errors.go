// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidInput indicates a caller supplied unusable input, such as an
	// empty search query.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStandard indicates a Standard failed validation.
	ErrInvalidStandard = errors.New("invalid standard")

	// ErrInvalidRequirement indicates a Requirement failed validation.
	ErrInvalidRequirement = errors.New("invalid requirement")

	// ErrEmptyID indicates an identifier field is empty.
	ErrEmptyID = errors.New("identifier cannot be empty")

	// ErrInvalidLabelMap indicates a persisted label map cannot be restored.
	ErrInvalidLabelMap = errors.New("invalid label map")
)
