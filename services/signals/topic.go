package signals

import (
	"sort"
	"strings"
)

// topicKeywords maps a fixed set of categories to their keyword lists.
// A message can match zero or more categories.
var topicKeywords = map[string][]string{
	"school":   {"school", "homework", "teacher", "class", "exam", "grade", "study"},
	"family":   {"mom", "dad", "sister", "brother", "grandma", "grandpa", "family"},
	"friends":  {"friend", "friends", "playdate", "party", "sleepover"},
	"games":    {"game", "games", "play", "minecraft", "roblox", "console"},
	"sports":   {"soccer", "football", "basketball", "swim", "practice", "team", "match"},
	"feelings": {"feel", "feeling", "happy", "sad", "angry", "scared", "worried"},
	"food":     {"food", "dinner", "lunch", "breakfast", "snack", "hungry", "pizza"},
	"animals":  {"dog", "cat", "pet", "animal", "bird", "fish", "hamster"},
}

// TagTopics returns the categories whose keyword bag matches the text,
// sorted for stable output. Matching is case-insensitive substring.
func TagTopics(text string) []string {
	lowered := strings.ToLower(text)

	var topics []string
	for topic, keywords := range topicKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lowered, keyword) {
				topics = append(topics, topic)
				break
			}
		}
	}

	sort.Strings(topics)
	return topics
}
