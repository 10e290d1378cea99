package crm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wolfeidau/leadtrack/internal/store"
)

func TestValidationError(t *testing.T) {
	verr := &ValidationError{}
	require.NoError(t, verr.Err())

	verr.Add("name", "required")
	verr.Add("age", "too old")
	verr.Add("name", "ignored")

	err := verr.Err()
	require.Error(t, err)
	require.Equal(t, "validation failed: age: too old, name: required", err.Error())

	var target *ValidationError
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &target))
	require.Equal(t, "required", target.Fields["name"])
}

func TestMapStoreError(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"lead", store.ErrLeadNotFound, ErrNotFound},
		{"category", store.ErrCategoryNotFound, ErrNotFound},
		{"agent", store.ErrAgentNotFound, ErrNotFound},
		{"user", store.ErrUserNotFound, ErrNotFound},
		{"organisation", fmt.Errorf("lookup: %w", store.ErrOrganisationNotFound), ErrNotFound},
		{"other", boom, boom},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, mapStoreError(tt.err, "do thing"), tt.want)
		})
	}

	require.NoError(t, mapStoreError(nil, "noop"))
	require.NotErrorIs(t, mapStoreError(boom, "do thing"), ErrNotFound)
}
