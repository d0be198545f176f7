package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	originalArgs := os.Args
	defer func() { os.Args = originalArgs }()

	tests := []struct {
		name         string
		configYAML   string
		args         []string
		expectedExit int
	}{
		{
			name: "success with valid config",
			configYAML: `version: "1"
tasks:
  test:
    cmd: ["echo", "hello"]
`,
			args:         []string{"bob", "run", "test"},
			expectedExit: 0,
		},
		{
			name:         "missing config file",
			configYAML:   "",
			args:         []string{"bob", "run", "test"},
			expectedExit: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			if tt.configYAML != "" {
				require := os.WriteFile(tmpDir+"/bob.yaml", []byte(tt.configYAML), 0o600)
				if require != nil {
					t.Fatalf("failed to write config: %v", require)
				}
			}

			originalWd, err := os.Getwd()
			if err != nil {
				t.Fatalf("failed to get cwd: %v", err)
			}
			defer func() { _ = os.Chdir(originalWd) }()

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatalf("failed to chdir: %v", err)
			}

			os.Args = tt.args
			exitCode := run()
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}
