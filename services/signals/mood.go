package signals

import (
	"strings"

	"github.com/hearthchat/api/model"
)

// Keyword bags for the mood scorer. Deliberately small; the signal is
// telemetry, not a clinical instrument.
var (
	positiveWords = []string{
		"happy", "glad", "great", "good", "love", "awesome", "fun",
		"excited", "thanks", "thank", "wonderful", "cool", "nice", "yay",
	}
	negativeWords = []string{
		"sad", "angry", "mad", "hate", "bad", "terrible", "awful",
		"scared", "worried", "upset", "tired", "cry", "lonely", "hurt",
	}
)

// moodLabelThreshold separates the coarse labels around a neutral band.
const moodLabelThreshold = 0.2

// ScoreMood counts positive vs. negative lexicon hits and produces a score
// in [-1, 1] with a coarse label. A text with no hits scores 0 / neutral.
func ScoreMood(text string) (float64, string) {
	words := strings.Fields(strings.ToLower(text))

	var positive, negative int
	for _, word := range words {
		word = strings.Trim(word, ".,!?;:'\"()")
		for _, p := range positiveWords {
			if word == p {
				positive++
				break
			}
		}
		for _, n := range negativeWords {
			if word == n {
				negative++
				break
			}
		}
	}

	total := positive + negative
	if total == 0 {
		return 0, model.MoodNeutral
	}

	score := float64(positive-negative) / float64(total)
	switch {
	case score > moodLabelThreshold:
		return score, model.MoodPositive
	case score < -moodLabelThreshold:
		return score, model.MoodNegative
	default:
		return score, model.MoodNeutral
	}
}
