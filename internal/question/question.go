// Package question loads the partitioned question bank and selects quiz sets.
package question

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/audit-rank/auditrank/internal/curriculum"
)

// Question is a normalized question record. Part, Chapter, and Standard are
// canonical against the curriculum index; ModelAnswer is always a paragraph
// list regardless of the source shape.
type Question struct {
	ID          string   `json:"id"`
	Part        string   `json:"part"`
	Chapter     string   `json:"chapter"`
	Standard    string   `json:"standard"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	ModelAnswer []string `json:"model_answer"`
	Explanation string   `json:"explanation,omitempty"`
}

// ModelAnswerText returns the model answer as a single block for prompting.
func (q Question) ModelAnswerText() string {
	return strings.Join(q.ModelAnswer, "\n")
}

// rawRecord mirrors the source JSON. The sources mix two title shapes (flat
// question_title fields and a nested question object) and store standard and
// chapter as either strings or numbers.
type rawRecord struct {
	Part                json.RawMessage `json:"part"`
	Chapter             json.RawMessage `json:"chapter"`
	Standard            json.RawMessage `json:"standard"`
	QuestionTitle       string          `json:"question_title"`
	QuestionDescription string          `json:"question_description"`
	Question            *struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"question"`
	Keywords    []string        `json:"keywords"`
	ModelAnswer json.RawMessage `json:"model_answer"`
	Explanation string          `json:"explanation"`
}

// normalize converts a raw record into a canonical Question using the
// curriculum index for part and chapter resolution.
func (r rawRecord) normalize(idx *curriculum.Index) Question {
	title := r.QuestionTitle
	description := r.QuestionDescription
	if r.Question != nil {
		if title == "" {
			title = r.Question.Title
		}
		if description == "" {
			description = r.Question.Description
		}
	}

	q := Question{
		Part:        idx.CanonicalPart(rawString(r.Part)),
		Chapter:     idx.CanonicalChapter(rawString(r.Chapter)),
		Standard:    rawString(r.Standard),
		Title:       title,
		Description: description,
		Keywords:    r.Keywords,
		ModelAnswer: paragraphs(r.ModelAnswer),
		Explanation: r.Explanation,
	}
	q.ID = surrogateID(q)
	return q
}

// rawString coerces a JSON string or number to its string form.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return strings.TrimSpace(string(raw))
}

// paragraphs normalizes a model answer into an ordered paragraph list.
// Sources carry either a single string or an array of strings.
func paragraphs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, p := range list {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// surrogateID derives a stable identifier from the question's identity
// fields. Titles alone are not unique enough to key exclusion sets on, and
// random identifiers would break continuity across catalog reloads.
func surrogateID(q Question) string {
	h := sha256.Sum256([]byte(q.Part + "\x00" + q.Title + "\x00" + q.Description))
	return fmt.Sprintf("%x", h[:8])
}
