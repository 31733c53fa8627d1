// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "run not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "run not found" {
		t.Errorf("expected message 'run not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("connection refused")
	ctx := map[string]any{
		"run_id":   "run-42",
		"pipeline": "web",
	}

	err := WrapWithContext(ErrCodeUnavailable, "store unavailable", cause, ctx)

	if err.Code != ErrCodeUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeUnavailable, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
	if err.Context["run_id"] != "run-42" {
		t.Errorf("expected run_id to be run-42")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
		{
			name:     "context does not change message",
			err:      NewWithContext(ErrCodeInsufficientData, "need more runs", map[string]any{"have": 3}),
			expected: "[INSUFFICIENT_DATA] need more runs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "structured", err: New(ErrCodeNotFound, "x"), want: ErrCodeNotFound},
		{name: "wrapped by fmt", err: fmt.Errorf("outer: %w", New(ErrCodeTimeout, "x")), want: ErrCodeTimeout},
		{name: "plain error", err: errors.New("boom"), want: ErrCodeInternal},
		{name: "nil", err: nil, want: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("lookup: %w", New(ErrCodeNotFound, "missing"))
	if !IsCode(err, ErrCodeNotFound) {
		t.Error("expected IsCode to find NOT_FOUND in chain")
	}
	if IsCode(err, ErrCodeInternal) {
		t.Error("expected IsCode to reject a different code")
	}
	if IsCode(errors.New("plain"), ErrCodeNotFound) {
		t.Error("expected IsCode to reject unstructured errors")
	}
}
