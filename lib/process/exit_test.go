// Copyright 2026 The Terminal Fun Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type statusError int

func (e statusError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }
func (e statusError) ExitCode() int { return int(e) }

func TestReport(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		output string
	}{
		{"nil", nil, 0, ""},
		{"plain", errors.New("boom"), 1, "error: boom\n"},
		{"exit coder", statusError(3), 3, ""},
		{"wrapped exit coder", fmt.Errorf("shell: %w", statusError(130)), 130, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buffer bytes.Buffer
			if status := Report(&buffer, tt.err); status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if buffer.String() != tt.output {
				t.Errorf("output = %q, want %q", buffer.String(), tt.output)
			}
		})
	}
}
