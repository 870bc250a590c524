package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDiameter(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    int
		present bool
	}{
		{
			name:    "plain diameter",
			text:    "DI Pipe K-9 150mm",
			want:    150,
			present: true,
		},
		{
			name:    "space before unit",
			text:    "Supplying HDPE pipe 110 mm class PN10",
			want:    110,
			present: true,
		},
		{
			name:    "uppercase unit",
			text:    "DI K-7 PIPE 200MM",
			want:    200,
			present: true,
		},
		{
			name:    "first of several callouts wins",
			text:    "Reducer 300mm x 200mm",
			want:    300,
			present: true,
		},
		{
			name:    "no diameter",
			text:    "RCC Pipe",
			present: false,
		},
		{
			name:    "unit without digits",
			text:    "pipe laying in mm accuracy",
			present: false,
		},
		{
			name:    "empty string",
			text:    "",
			present: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDiameter(tt.text)
			assert.Equal(t, tt.present, ok)
			if tt.present {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
