package apperr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestHint(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"wrapped model not found", errors.Wrapf(ErrModelNotFound, "open %s", "m.zsms"), "zsms train"},
		{"fmt wrapped dataset", fmt.Errorf("load: %w", ErrDatasetNotFound), "--dataset"},
		{"single class", errors.Wrap(ErrInsufficientData, "split"), "at least 2"},
		{"unknown", errors.New("boom"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want == "" {
				require.Empty(t, Hint(tt.err))
				return
			}
			require.Contains(t, Hint(tt.err), tt.want)
		})
	}
}
