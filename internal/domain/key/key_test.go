package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Normalization(t *testing.T) {
	tests := []struct {
		name string
		in   [5]string
		want [5]string
	}{
		{
			name: "pads numeric segments and mark name",
			in:   [5]string{"123", "7", "007", "1", "mark"},
			want: [5]string{"00123", "007", "007", "0001", "mark    "},
		},
		{
			name: "strips non-digit artifacts before padding",
			in:   [5]string{"AB123", "A7", "x", "12-3", "mark"},
			want: [5]string{"00123", "007", "000", "0123", "mark    "},
		},
		{
			name: "truncates overlong mark name",
			in:   [5]string{"00001", "001", "001", "0001", "verylongmarkname"},
			want: [5]string{"00001", "001", "001", "0001", "verylong"},
		},
		{
			name: "trims trailing whitespace before padding",
			in:   [5]string{"00001", "001", "001", "0001", "ab   "},
			want: [5]string{"00001", "001", "001", "0001", "ab      "},
		},
		{
			name: "empty segments become zero-filled",
			in:   [5]string{"", "", "", "", ""},
			want: [5]string{"00000", "000", "000", "0000", "        "},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := New(tt.in[0], tt.in[1], tt.in[2], tt.in[3], tt.in[4])
			assert.Equal(t, tt.want[0], k.ProductCode())
			assert.Equal(t, tt.want[1], k.GradeCode())
			assert.Equal(t, tt.want[2], k.ClassCode())
			assert.Equal(t, tt.want[3], k.ShippingMarkCode())
			assert.Equal(t, tt.want[4], k.ShippingMarkName())
		})
	}
}

func TestNew_RoundTrip(t *testing.T) {
	raw := New("123", "7", "007", "1", "mark")
	padded := New("00123", "007", "007", "0001", "mark    ")

	// Equality is structural over the normalized segments, so a key built
	// from the already-padded form must compare equal.
	assert.Equal(t, raw, padded)
	assert.True(t, raw == padded)

	m := map[Key]int{raw: 1}
	m[padded]++
	assert.Len(t, m, 1)
	assert.Equal(t, 2, m[raw])
}

func TestKey_IsZero(t *testing.T) {
	assert.True(t, New("", "", "", "", "").IsZero())
	assert.False(t, New("1", "", "", "", "").IsZero())
}
