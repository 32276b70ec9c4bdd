package domain

import "strings"

// TopicWordCount is the canonical size of a topic card (a 4x4 grid)
const TopicWordCount = 16

// TopicPadWord fills topic cards that come back short
const TopicPadWord = "Empty"

// TopicCard is a category plus the grid of candidate secret words
type TopicCard struct {
	Category string   `json:"category" mapstructure:"category"`
	Words    []string `json:"words" mapstructure:"words"`
}

// Normalize returns a copy with trimmed text and exactly TopicWordCount words
func (t TopicCard) Normalize() TopicCard {
	words := make([]string, 0, TopicWordCount)
	for _, w := range t.Words {
		if len(words) == TopicWordCount {
			break
		}
		words = append(words, strings.TrimSpace(w))
	}
	for len(words) < TopicWordCount {
		words = append(words, TopicPadWord)
	}

	return TopicCard{
		Category: strings.TrimSpace(t.Category),
		Words:    words,
	}
}

// Validate checks the card has a category and exactly TopicWordCount words
func (t TopicCard) Validate() error {
	if strings.TrimSpace(t.Category) == "" || len(t.Words) != TopicWordCount {
		return ErrInvalidTopic
	}
	for _, w := range t.Words {
		if strings.TrimSpace(w) == "" {
			return ErrInvalidTopic
		}
	}
	return nil
}

// GridCoord returns the "A1".."D4" label of a word index
func GridCoord(index int) string {
	if index < 0 || index >= TopicWordCount {
		return ""
	}
	return string(rune('A'+index/4)) + string(rune('1'+index%4))
}
