package domain

import "sort"

// SortForNavigation orders questions by title (byte-wise ascending), then id.
func SortForNavigation(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if questions[i].Title != questions[j].Title {
			return questions[i].Title < questions[j].Title
		}
		return questions[i].ID < questions[j].ID
	})
}

// Navigate returns the neighbours of target within questions, which must already
// be sorted with SortForNavigation. A target absent from the list has no neighbours.
func Navigate(questions []Question, target Question) Navigation {
	idx := -1
	for i := range questions {
		if questions[i].ID == target.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Navigation{}
	}
	var nav Navigation
	if idx > 0 {
		prev := questions[idx-1].Slug
		nav.Prev = &prev
	}
	if idx < len(questions)-1 {
		next := questions[idx+1].Slug
		nav.Next = &next
	}
	return nav
}
