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

import "fmt"

// LabelMap assigns stable integer codes to string labels.
//
// Codes start at 1 and increase by one for every label seen for the first
// time. A code is never reused or reassigned. LabelMap is not safe for
// concurrent mutation; use one map per encoding pass.
type LabelMap struct {
	codes  map[string]int
	labels []string
}

// NewLabelMap returns an empty LabelMap.
func NewLabelMap() *LabelMap {
	return &LabelMap{codes: make(map[string]int)}
}

// RestoreLabelMap rebuilds a LabelMap from labels listed in code order,
// so labels[0] gets code 1. Duplicate labels are rejected.
func RestoreLabelMap(labels []string) (*LabelMap, error) {
	m := NewLabelMap()
	for i, label := range labels {
		if _, ok := m.codes[label]; ok {
			return nil, fmt.Errorf("%w: duplicate label %q at position %d", ErrInvalidLabelMap, label, i)
		}
		m.Assign(label)
	}
	return m, nil
}

// Assign returns the code for label, allocating the next code if the label
// has not been seen before.
func (m *LabelMap) Assign(label string) int {
	if code, ok := m.codes[label]; ok {
		return code
	}
	m.labels = append(m.labels, label)
	code := len(m.labels)
	m.codes[label] = code
	return code
}

// Code returns the code assigned to label.
func (m *LabelMap) Code(label string) (int, bool) {
	code, ok := m.codes[label]
	return code, ok
}

// Label returns the label holding code.
func (m *LabelMap) Label(code int) (string, bool) {
	if code < 1 || code > len(m.labels) {
		return "", false
	}
	return m.labels[code-1], true
}

// Len returns the number of distinct labels.
func (m *LabelMap) Len() int {
	return len(m.labels)
}

// Labels returns the labels in code order. The returned slice is a copy.
func (m *LabelMap) Labels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}
