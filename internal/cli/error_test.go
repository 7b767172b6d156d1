package cli_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/stretchr/testify/assert"

	"github.com/rdecheck/rdecheck/internal/cli"
	"github.com/rdecheck/rdecheck/pkg/check"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err     error
		want    []string
		wantNot []string
	}{
		"validation failure": {
			err:     fmt.Errorf("%w: 1 of 2 files", check.ErrValidationFailed),
			want:    []string{"validation failed: 1 of 2 files"},
			wantNot: []string{"--help"},
		},
		"usage error": {
			err:  errors.New("unknown flag: --nope"),
			want: []string{"unknown flag: --nope", "--help"},
		},
		"annotated source": {
			err:     errors.New("load rule table: unknown rule\n   5 | x: {nope: }"),
			want:    []string{"load rule table: unknown rule", "       5 | x: {nope: }"},
			wantNot: []string{"--help"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			cli.ErrorHandler(&buf, fang.Styles{}, tc.err)

			for _, want := range tc.want {
				assert.Contains(t, buf.String(), want)
			}
			for _, not := range tc.wantNot {
				assert.NotContains(t, buf.String(), not)
			}
		})
	}
}
