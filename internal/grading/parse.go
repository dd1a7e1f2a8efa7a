package grading

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// resultItem is one element of the scorer's JSON array response.
type resultItem struct {
	ID       int     `json:"id"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

var jsonArrayRe = regexp.MustCompile(`(?s)\[.*\]`)

// parseResults decodes the scorer's response text. Models sometimes wrap the
// array in a markdown fence or surround it with prose, so after stripping
// fences a failed direct parse falls back to the first bracketed substring.
func parseResults(text string) ([]resultItem, error) {
	text = stripFences(strings.TrimSpace(text))

	var items []resultItem
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		return items, nil
	}

	match := jsonArrayRe.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("no JSON array in response")
	}
	if err := json.Unmarshal([]byte(match), &items); err != nil {
		return nil, fmt.Errorf("decoding response array: %w", err)
	}
	return items, nil
}

func stripFences(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
