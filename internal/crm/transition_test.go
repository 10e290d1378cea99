package crm

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConversionStamp(t *testing.T) {
	converted := uuid.Must(uuid.NewV7())
	contacted := uuid.Must(uuid.NewV7())
	earlier := time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		previous *uuid.UUID
		next     *uuid.UUID
		current  *time.Time
		want     *time.Time
	}{
		{"uncategorised to converted stamps", nil, &converted, nil, &now},
		{"contacted to converted stamps", &contacted, &converted, nil, &now},
		{"converted to converted does not stamp", &converted, &converted, nil, nil},
		{"converted to contacted keeps stamp", &converted, &contacted, &earlier, &earlier},
		{"re-entering converted keeps first stamp", &contacted, &converted, &earlier, &earlier},
		{"contacted to uncategorised leaves unset", &contacted, nil, nil, nil},
		{"uncategorised to contacted leaves unset", nil, &contacted, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConversionStamp(tt.previous, tt.next, converted, tt.current, now)
			if tt.want == nil {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.True(t, tt.want.Equal(*got))
		})
	}
}
