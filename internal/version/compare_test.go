package version

import (
	"testing"

	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		engine        string
		config        string
		errorContains string
	}{
		{name: "exact match", engine: "1.2.0", config: "1.2.0"},
		{name: "engine patch higher", engine: "1.2.1", config: "1.2.0"},
		{name: "config patch higher", engine: "1.2.0", config: "1.2.5"},
		{name: "minor higher", engine: "1.3.0", config: "1.2.0", errorContains: "minor version mismatch"},
		{name: "minor lower", engine: "1.1.0", config: "1.2.0", errorContains: "minor version mismatch"},
		{name: "major differs", engine: "2.0.0", config: "1.2.0", errorContains: "major version mismatch"},
		{name: "engine main", engine: "main", config: "1.3.0"},
		{name: "config main", engine: "1.2.0", config: "main"},
		{name: "config unset", engine: "1.2.0", config: ""},
		{name: "v prefix", engine: "v1.2.0", config: "v1.2.3"},
		{name: "prerelease", engine: "1.2.0-rc.1", config: "1.2.0"},
		{name: "invalid engine", engine: "nightly", config: "1.2.0", errorContains: "invalid engine version"},
		{name: "invalid config", engine: "1.2.0", config: "latest", errorContains: "invalid engine_version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckCompatibility(tt.engine, tt.config)
			if tt.errorContains == "" {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			code := errors.GetCode(err)
			assert.True(t, code == errors.ErrCodeInvalidVersion || code == errors.ErrCodeVersionMismatch)
		})
	}
}

func TestCheckConfigUsesBuildVersion(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "0.4.2"
	assert.NoError(t, CheckConfig("0.4.0"))
	assert.Error(t, CheckConfig("0.5.0"))

	Version = "main"
	assert.NoError(t, CheckConfig("9.9.9"))
}

func TestString(t *testing.T) {
	savedVersion, savedCommit := Version, Commit
	defer func() { Version, Commit = savedVersion, savedCommit }()

	Version, Commit = "1.0.0", ""
	assert.Equal(t, "1.0.0", String())

	Commit = "abc123"
	assert.Equal(t, "1.0.0 (abc123)", String())
}
