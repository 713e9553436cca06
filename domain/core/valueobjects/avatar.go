package valueobjects

import "fmt"

// MoodBand maps a mood in [min,max] onto 1..bands. With the default 1..10
// scale and five bands, moods 1-2 land in band 1 and 9-10 in band 5.
func MoodBand(mood, min, max, bands int) int {
	if bands <= 1 || max <= min {
		return 1
	}
	span := max - min + 1
	pos := mood - min + 1
	if pos < 1 {
		pos = 1
	}
	if pos > span {
		pos = span
	}
	// ceil(pos * bands / span)
	band := (pos*bands + span - 1) / span
	if band < 1 {
		return 1
	}
	if band > bands {
		return bands
	}
	return band
}

// Avatar is the asset key for a skin at a given mood band
func Avatar(skin string, band int) string {
	if skin == "" {
		skin = "default"
	}
	return fmt.Sprintf("%s_%d", skin, band)
}
