package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		crop      Crop
		kc        float64
		dmax      float64
		lossLimit float64
	}{
		{CropLettuce, 1.0, 12, 20},
		{CropOnion, 1.05, 15, 25},
		{CropPotato, 1.15, 20, 25},
	}
	for _, tt := range tests {
		t.Run(string(tt.crop), func(t *testing.T) {
			p, ok := ProfileFor(tt.crop)
			require.True(t, ok)
			assert.Equal(t, tt.crop, p.Crop)
			assert.Equal(t, tt.kc, p.Kc)
			assert.Equal(t, tt.dmax, p.Dmax)
			assert.Equal(t, tt.lossLimit, p.LossLimit)
		})
	}

	_, ok := ProfileFor("carrot")
	assert.False(t, ok)
}

func TestCrops(t *testing.T) {
	for _, c := range Crops() {
		_, ok := ProfileFor(c)
		assert.True(t, ok, c)
	}
	assert.Len(t, Crops(), 3)
}

func TestParseCrop(t *testing.T) {
	tests := []struct {
		in      string
		want    Crop
		wantErr bool
	}{
		{"lettuce", CropLettuce, false},
		{" Onion ", CropOnion, false},
		{"POTATO", CropPotato, false},
		{"carrot", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCrop(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCrop)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
