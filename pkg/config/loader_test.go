package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdecheck/rdecheck/api/v1beta1/configs"
	"github.com/rdecheck/rdecheck/pkg/config"
)

func createTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNewLoaderFromFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupFile func(t *testing.T) string
		wantErr   bool
	}{
		"valid file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return createTempFile(t, "apiVersion: rdecheck.dev/v1beta1\nkind: Configuration\n")
			},
		},
		"non-existent file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return "/non/existent/file.yaml"
			},
			wantErr: true,
		},
		"directory instead of file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.NewLoaderFromFile(tc.setupFile(t), configs.New, configs.DefaultValidator)
			if tc.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestNewLoaderFromBytes(t *testing.T) {
	t.Parallel()

	input := `apiVersion: rdecheck.dev/v1beta1
kind: Configuration
defaultKind: f1
delimiter: ";"
`

	cl := config.NewLoaderFromBytes([]byte(input), configs.New, configs.DefaultValidator)
	require.NoError(t, cl.Validate())

	cfg, err := cl.Load()
	require.NoError(t, err)

	assert.Equal(t, "rdecheck.dev/v1beta1", cfg.GetAPIVersion())
	assert.Equal(t, "f1", cfg.DefaultKind)
	assert.Equal(t, ";", cfg.Delimiter)
	assert.Equal(t, "text", cfg.Output, "defaults fill unset fields")
}

func TestLoader_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errIs   error
		input   string
		errMsg  string
		wantErr bool
	}{
		"valid config": {
			input: `apiVersion: rdecheck.dev/v1beta1
kind: Configuration
output: json
`,
		},
		"empty input": {
			input:   "",
			wantErr: true,
			errIs:   config.ErrEmptyConfig,
		},
		"invalid yaml": {
			input:   "apiVersion: [unclosed",
			wantErr: true,
		},
		"missing apiVersion and kind": {
			input:   "output: json\n",
			wantErr: true,
			errMsg:  "missing properties",
		},
		"unknown output format": {
			input: `apiVersion: rdecheck.dev/v1beta1
kind: Configuration
output: xml
`,
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cl := config.NewLoaderFromBytes([]byte(tc.input), configs.New, configs.DefaultValidator)

			err := cl.Validate()
			if !tc.wantErr {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			if tc.errIs != nil {
				require.ErrorIs(t, err, tc.errIs)
			}
			if tc.errMsg != "" {
				assert.Contains(t, err.Error(), tc.errMsg)
			}
		})
	}
}

func TestLoader_Load(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input      string
		wantOutput string
		wantDetect int
		wantErr    bool
	}{
		"defaults": {
			input:      "apiVersion: rdecheck.dev/v1beta1\nkind: Configuration\n",
			wantOutput: "text",
			wantDetect: 2,
		},
		"empty input uses defaults": {
			input:      "",
			wantOutput: "text",
			wantDetect: 2,
		},
		"custom values": {
			input: `apiVersion: rdecheck.dev/v1beta1
kind: Configuration
output: yaml
detect:
  - kind: f1
    match: "true"
`,
			wantOutput: "yaml",
			wantDetect: 1,
		},
		"wrong field type": {
			input:   "apiVersion: rdecheck.dev/v1beta1\nkind: Configuration\njobs: [1]\n",
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cl := config.NewLoaderFromBytes([]byte(tc.input), configs.New, nil)

			cfg, err := cl.Load()
			if tc.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantOutput, cfg.Output)
			assert.Len(t, cfg.Detect, tc.wantDetect)
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Parallel()

		cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "none.yaml"), configs.New, configs.DefaultValidator)
		require.NoError(t, err)
		assert.Equal(t, configs.New(), cfg)
	})

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()

		path := createTempFile(t, "apiVersion: rdecheck.dev/v1beta1\nkind: Configuration\njobs: 4\n")

		cfg, err := config.LoadFile(path, configs.New, configs.DefaultValidator)
		require.NoError(t, err)
		assert.Equal(t, 4, cfg.Jobs)
	})

	t.Run("invalid file names the path", func(t *testing.T) {
		t.Parallel()

		path := createTempFile(t, "apiVersion: rdecheck.dev/v1beta1\nkind: Configuration\nbogus: 1\n")

		_, err := config.LoadFile(path, configs.New, configs.DefaultValidator)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		_, err := config.LoadFile(createTempFile(t, ""), configs.New, configs.DefaultValidator)
		require.ErrorIs(t, err, config.ErrEmptyConfig)
	})

	t.Run("custom validator", func(t *testing.T) {
		t.Parallel()

		path := createTempFile(t, "apiVersion: rdecheck.dev/v1beta1\nkind: Configuration\nbogus: 1\n")

		_, err := config.LoadFile(path, configs.New, configs.DefaultValidator, config.WithValidator(nil))
		require.NoError(t, err)
	})
}
