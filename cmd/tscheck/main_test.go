package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunCheckKnownPrograms(t *testing.T) {
	tests := []struct {
		name        string
		program     string
		expectError bool
	}{
		{name: "structural mismatch reports an error", program: "structural-mismatch", expectError: true},
		{name: "union narrowing is clean", program: "union-narrowing", expectError: false},
		{name: "excess property reports an error", program: "excess-property", expectError: true},
		{name: "generic inference is clean", program: "generic-inference", expectError: false},
		{name: "super arity reports an error", program: "super-arity", expectError: true},
		{name: "boxed arithmetic reports both operands", program: "boxed-arithmetic", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := runCheck(&buf, "", tt.program)
			if tt.expectError {
				require.Error(t, err)
				require.Contains(t, buf.String(), "error")
			} else {
				require.NoError(t, err)
				require.Contains(t, buf.String(), "no errors")
			}
		})
	}
}

func TestRunCheckUnknownProgram(t *testing.T) {
	var buf bytes.Buffer
	err := runCheck(&buf, "", "does-not-exist")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "unknown program"))
}

func TestRunCheckRejectsUnreadableConfig(t *testing.T) {
	var buf bytes.Buffer
	err := runCheck(&buf, "/nonexistent/tscheck.yaml", "structural-mismatch")
	require.Error(t, err)
}

func TestDemoNamesAllResolve(t *testing.T) {
	for _, name := range demoNames {
		file, _, ok := demoFile(name)
		require.True(t, ok, name)
		require.NotNil(t, file, name)
	}
}
