package karma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBands(t *testing.T) {
	tests := []struct {
		score   int64
		display string
		color   string
		emoji   string
		band    Band
	}{
		{250, "+250", "text-green-600", "🏆", BandTrophy},
		{101, "+101", "text-green-600", "🏆", BandTrophy},
		{100, "+100", "text-green-500", "⭐", BandStar},
		{51, "+51", "text-green-500", "⭐", BandStar},
		{50, "+50", "text-green-400", "👍", BandPositive},
		{1, "+1", "text-green-400", "👍", BandPositive},
		{0, "0", "text-gray-500", "⚪", BandNeutral},
		{-1, "-1", "text-red-400", "👎", BandNegative},
		{-49, "-49", "text-red-400", "👎", BandNegative},
		{-50, "-50", "text-red-500", "🔻", BandPoor},
		{-99, "-99", "text-red-500", "🔻", BandPoor},
		{-100, "-100", "text-red-600", "💀", BandSkull},
		{-5000, "-5000", "text-red-600", "💀", BandSkull},
	}

	for _, tt := range tests {
		t.Run(tt.display, func(t *testing.T) {
			got := Format(tt.score)
			assert.Equal(t, tt.display, got.Display)
			assert.Equal(t, tt.color, got.Color)
			assert.Equal(t, tt.emoji, got.Emoji)
			assert.Equal(t, tt.band, got.Band)
		})
	}
}
