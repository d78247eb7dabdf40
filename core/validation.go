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

import (
	"fmt"
	"strings"
)

// ValidateStandard validates a Standard according to domain rules.
//
// Validation rules:
//   - ID must not be empty or whitespace
//
// Type, RefID and RefName are carried as-is; an empty RefID is a valid label.
func ValidateStandard(standard *Standard) error {
	if standard == nil {
		return fmt.Errorf("%w: standard is nil", ErrInvalidStandard)
	}

	if strings.TrimSpace(standard.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStandard, ErrEmptyID)
	}

	return nil
}

// ValidateRequirement validates a Requirement according to domain rules.
//
// Validation rules:
//   - ReferenceID must not be empty or whitespace
//
// NOT validated:
//   - Description (an empty description embeds to a zero vector)
//   - Description length (callers truncate with TruncateDescription)
func ValidateRequirement(req *Requirement) error {
	if req == nil {
		return fmt.Errorf("%w: requirement is nil", ErrInvalidRequirement)
	}

	if strings.TrimSpace(req.ReferenceID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequirement, ErrEmptyID)
	}

	return nil
}
