package curriculum

import (
	"sort"
	"strconv"
)

// chapterSortKey orders chapter codes by their embedded integers, with the
// FilterAll sentinel first and codes without digits last.
func chapterSortKey(name string) []int {
	if name == FilterAll {
		return []int{-1}
	}
	nums := digitsRe.FindAllString(name, -1)
	if len(nums) == 0 {
		return []int{999}
	}
	key := make([]int, len(nums))
	for i, n := range nums {
		key[i], _ = strconv.Atoi(n)
	}
	return key
}

// standardSortKey orders standard codes numerically. The non-numeric Ethics
// and law codes slot in at fixed positions ahead of the 200-series standards;
// anything else unrecognized goes last.
func standardSortKey(code string) int {
	switch code {
	case FilterAll:
		return -1
	case "Ethics":
		return 100
	case "law":
		return 110
	}
	if n, err := strconv.Atoi(code); err == nil {
		return n
	}
	return 9999
}

// SortChapters sorts chapter codes in curriculum order.
func SortChapters(chapters []string) {
	sort.SliceStable(chapters, func(i, j int) bool {
		a, b := chapterSortKey(chapters[i]), chapterSortKey(chapters[j])
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
}

// SortStandards sorts standard codes in display order.
func SortStandards(standards []string) {
	sort.SliceStable(standards, func(i, j int) bool {
		a, b := standardSortKey(standards[i]), standardSortKey(standards[j])
		if a != b {
			return a < b
		}
		return standards[i] < standards[j]
	})
}

func sortStrings(s []string) {
	sort.Strings(s)
}
