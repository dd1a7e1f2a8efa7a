// Package curriculum parses the audit-standards outline into a lookup index.
//
// The outline is a line-oriented text file: a "## PART n" heading opens a
// part scope, and each "- **chX Title**: code, code" line under it declares a
// chapter with its standard codes. Chapter codes may span a range ("ch1~2"),
// in which case every integer in the range resolves back to the declared code.
package curriculum

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// FilterAll is the sentinel filter value matching every chapter or standard.
const FilterAll = "all"

var (
	partRe      = regexp.MustCompile(`(?i)^##\s*(PART\s*\d+.*)`)
	partSpaceRe = regexp.MustCompile(`(?i)^PART\s+(\d+)`)
	partCodeRe  = regexp.MustCompile(`(?i)^(PART\d+)`)
	chapterRe   = regexp.MustCompile(`(?i)^-\s*\*\*(ch[\d~-]+.*?)\*\*:\s*(.+)`)
	chapCodeRe  = regexp.MustCompile(`(?i)^(ch[\d~-]+)`)
	digitsRe    = regexp.MustCompile(`\d+`)
)

// Index is the parsed curriculum hierarchy with its lookup maps.
// It is read-only after Parse and safe to share across sessions.
type Index struct {
	// Hierarchy maps part display form -> chapter short code -> standard codes.
	Hierarchy map[string]map[string][]string
	// ChapterNames maps a chapter short code to its full display name.
	ChapterNames map[string]string
	// PartCodes maps a canonical part token ("PART1") to its display form.
	PartCodes map[string]string
	// ChapterRanges maps every individual chapter key ("ch1", "ch2") to the
	// short code it was declared under ("ch1~2").
	ChapterRanges map[string]string
}

func newIndex() *Index {
	return &Index{
		Hierarchy:     make(map[string]map[string][]string),
		ChapterNames:  make(map[string]string),
		PartCodes:     make(map[string]string),
		ChapterRanges: make(map[string]string),
	}
}

// Parse reads the outline and builds the index. Malformed lines are skipped;
// a completely unreadable input yields an empty index, never an error, so
// callers degrade to "nothing classifies" instead of crashing.
func Parse(r io.Reader) *Index {
	idx := newIndex()
	if r == nil {
		return idx
	}

	var currentPart string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := partRe.FindStringSubmatch(line); m != nil {
			rawPart := strings.TrimSpace(m[1])
			// Normalize "PART 1" to "PART1" inside the display form.
			rawPart = partSpaceRe.ReplaceAllString(rawPart, "PART$1")
			if cm := partCodeRe.FindStringSubmatch(rawPart); cm != nil {
				code := strings.ToUpper(cm[1])
				if _, seen := idx.PartCodes[code]; !seen {
					idx.PartCodes[code] = rawPart
				}
			}
			currentPart = rawPart
			if _, ok := idx.Hierarchy[currentPart]; !ok {
				idx.Hierarchy[currentPart] = make(map[string][]string)
			}
			continue
		}

		m := chapterRe.FindStringSubmatch(line)
		if m == nil || currentPart == "" {
			continue
		}

		fullName := strings.TrimSpace(m[1])
		shortCode := fullName
		if cm := chapCodeRe.FindStringSubmatch(fullName); cm != nil {
			shortCode = strings.ToLower(cm[1])
		}
		idx.ChapterNames[shortCode] = fullName

		var standards []string
		for _, s := range strings.Split(m[2], ",") {
			if s = strings.TrimSpace(s); s != "" {
				standards = append(standards, s)
			}
		}
		idx.Hierarchy[currentPart][shortCode] = standards

		idx.registerChapterKeys(shortCode)
	}

	return idx
}

// registerChapterKeys expands a range code like "ch1~2" so that ch1 and ch2
// both resolve to it. Non-range codes map to themselves.
func (idx *Index) registerChapterKeys(shortCode string) {
	if !strings.Contains(shortCode, "~") {
		idx.ChapterRanges[shortCode] = shortCode
		return
	}

	prefix := "ch"
	nums := digitsRe.FindAllString(shortCode, -1)
	if len(nums) < 2 {
		idx.ChapterRanges[shortCode] = shortCode
		return
	}
	start, err1 := strconv.Atoi(nums[0])
	end, err2 := strconv.Atoi(nums[1])
	if err1 != nil || err2 != nil || end < start {
		idx.ChapterRanges[shortCode] = shortCode
		return
	}
	for i := start; i <= end; i++ {
		idx.ChapterRanges[fmt.Sprintf("%s%d", prefix, i)] = shortCode
	}
}

// CanonicalPart maps a free-form part string ("PART 3", "part3", "3") to the
// display form declared in the outline, falling back to a constructed PARTn.
// Unparseable input is returned unchanged.
func (idx *Index) CanonicalPart(raw string) string {
	nums := digitsRe.FindString(raw)
	if nums == "" {
		return raw
	}
	code := "PART" + nums
	if display, ok := idx.PartCodes[code]; ok {
		return display
	}
	return code
}

// CanonicalChapter maps a free-form chapter string to the declared chapter
// short code, reconstructing "chN" or "chN-M" from whatever digits are given.
// Chapters with no declared mapping pass through.
func (idx *Index) CanonicalChapter(raw string) string {
	nums := digitsRe.FindAllString(raw, -1)
	if len(nums) == 0 {
		return raw
	}

	var key string
	if len(nums) >= 2 && strings.Contains(raw, "-") {
		key = fmt.Sprintf("ch%s-%s", nums[0], nums[1])
	} else {
		key = "ch" + nums[0]
	}

	if canonical, ok := idx.ChapterRanges[key]; ok {
		return canonical
	}
	return key
}

// Parts returns the declared part display forms in sorted order.
func (idx *Index) Parts() []string {
	parts := make([]string, 0, len(idx.Hierarchy))
	for p := range idx.Hierarchy {
		parts = append(parts, p)
	}
	sortStrings(parts)
	return parts
}

// Chapters returns the chapter short codes of a part in curriculum order.
func (idx *Index) Chapters(part string) []string {
	chapters := make([]string, 0, len(idx.Hierarchy[part]))
	for c := range idx.Hierarchy[part] {
		chapters = append(chapters, c)
	}
	SortChapters(chapters)
	return chapters
}

// Standards returns the standard codes of a chapter, or the union over all
// chapters when chapter is FilterAll, in standard order.
func (idx *Index) Standards(part, chapter string) []string {
	seen := make(map[string]bool)
	var standards []string
	add := func(codes []string) {
		for _, s := range codes {
			if !seen[s] {
				seen[s] = true
				standards = append(standards, s)
			}
		}
	}

	if chapter == FilterAll {
		for _, codes := range idx.Hierarchy[part] {
			add(codes)
		}
	} else {
		add(idx.Hierarchy[part][chapter])
	}

	SortStandards(standards)
	return standards
}

// Empty reports whether the index classifies nothing.
func (idx *Index) Empty() bool {
	return len(idx.Hierarchy) == 0
}
