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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/reqmatch/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: id: %w", ErrSerializationFailed, err)
	}
	return core.ID(id), nil
}

// MarshalStandard serializes a Standard to bytes.
func MarshalStandard(s *core.Standard) []byte {
	fields := []string{s.ID, s.Type, s.RefID, s.RefName}
	return marshalStrings(fields)
}

// UnmarshalStandard deserializes a Standard from bytes.
func UnmarshalStandard(data []byte) (*core.Standard, error) {
	fields, err := unmarshalStrings(data, 4)
	if err != nil {
		return nil, fmt.Errorf("%w: standard: %w", ErrSerializationFailed, err)
	}
	return &core.Standard{ID: fields[0], Type: fields[1], RefID: fields[2], RefName: fields[3]}, nil
}

// MarshalRequirement serializes a Requirement to bytes.
func MarshalRequirement(r *core.Requirement) []byte {
	fields := []string{r.ReferenceID, r.Description, r.Category, r.ChangeNote}
	return marshalStrings(fields)
}

// UnmarshalRequirement deserializes a Requirement from bytes.
func UnmarshalRequirement(data []byte) (*core.Requirement, error) {
	fields, err := unmarshalStrings(data, 4)
	if err != nil {
		return nil, fmt.Errorf("%w: requirement: %w", ErrSerializationFailed, err)
	}
	return &core.Requirement{ReferenceID: fields[0], Description: fields[1], Category: fields[2], ChangeNote: fields[3]}, nil
}

// MarshalVector serializes an embedding as a length followed by fixed-width floats.
func MarshalVector(vector []float32) []byte {
	size := varint.Int.Size(len(vector))
	for _, v := range vector {
		size += raw.Float32.Size(v)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(vector), buf)
	for _, v := range vector {
		n += raw.Float32.Marshal(v, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes an embedding.
func UnmarshalVector(data []byte) ([]float32, error) {
	length, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: vector length: %w", ErrSerializationFailed, err)
	}
	if length < 0 || length*4 > len(data)-n {
		return nil, fmt.Errorf("%w: vector of %d floats in %d bytes", ErrTruncatedData, length, len(data)-n)
	}
	vector := make([]float32, length)
	for i := range vector {
		v, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: vector element %d: %w", ErrSerializationFailed, i, err)
		}
		vector[i] = v
		n += m
	}
	return vector, nil
}

// MarshalLabelMap serializes a LabelMap as its labels in code order.
func MarshalLabelMap(m *core.LabelMap) []byte {
	labels := m.Labels()
	size := varint.Int.Size(len(labels))
	for _, l := range labels {
		size += ord.String.Size(l)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(labels), buf)
	n += copy(buf[n:], marshalStrings(labels))
	return buf[:n]
}

// UnmarshalLabelMap deserializes a LabelMap.
func UnmarshalLabelMap(data []byte) (*core.LabelMap, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: label count: %w", ErrSerializationFailed, err)
	}
	if count < 0 || count > len(data)-n {
		return nil, fmt.Errorf("%w: %d labels in %d bytes", ErrTruncatedData, count, len(data)-n)
	}
	labels, err := unmarshalStrings(data[n:], count)
	if err != nil {
		return nil, fmt.Errorf("%w: labels: %w", ErrSerializationFailed, err)
	}
	return core.RestoreLabelMap(labels)
}

func marshalStrings(fields []string) []byte {
	size := 0
	for _, f := range fields {
		size += ord.String.Size(f)
	}
	buf := make([]byte, size)
	n := 0
	for _, f := range fields {
		n += ord.String.Marshal(f, buf[n:])
	}
	return buf
}

func unmarshalStrings(data []byte, count int) ([]string, error) {
	fields := make([]string, count)
	n := 0
	for i := range fields {
		if n >= len(data) {
			return nil, ErrTruncatedData
		}
		v, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, err
		}
		fields[i] = v
		n += m
	}
	return fields, nil
}
