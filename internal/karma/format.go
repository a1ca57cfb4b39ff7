package karma

import "strconv"

// Band names the qualitative bucket a karma score falls into
type Band string

const (
	BandTrophy   Band = "trophy"
	BandStar     Band = "star"
	BandPositive Band = "positive"
	BandNeutral  Band = "neutral"
	BandNegative Band = "negative"
	BandPoor     Band = "poor"
	BandSkull    Band = "skull"
)

// Formatted is the presentation form of a karma score
type Formatted struct {
	Display string `json:"display"`
	Color   string `json:"color"`
	Emoji   string `json:"emoji"`
	Band    Band   `json:"band"`
}

type band struct {
	above int64
	color string
	emoji string
	name  Band
}

// bands are checked top-down; a score lands in the first band it exceeds
var bands = []band{
	{100, "text-green-600", "🏆", BandTrophy},
	{50, "text-green-500", "⭐", BandStar},
	{0, "text-green-400", "👍", BandPositive},
}

var negativeBands = []band{
	{-50, "text-red-400", "👎", BandNegative},
	{-100, "text-red-500", "🔻", BandPoor},
}

// Format buckets a score for display. Positive scores carry a leading '+'.
func Format(score int64) Formatted {
	display := strconv.FormatInt(score, 10)

	switch {
	case score > 0:
		for _, b := range bands {
			if score > b.above {
				return Formatted{Display: "+" + display, Color: b.color, Emoji: b.emoji, Band: b.name}
			}
		}
	case score == 0:
		return Formatted{Display: "0", Color: "text-gray-500", Emoji: "⚪", Band: BandNeutral}
	}

	for _, b := range negativeBands {
		if score > b.above {
			return Formatted{Display: display, Color: b.color, Emoji: b.emoji, Band: b.name}
		}
	}
	return Formatted{Display: display, Color: "text-red-600", Emoji: "💀", Band: BandSkull}
}
