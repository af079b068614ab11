package domain

import "testing"

func titled(id, title string) Question {
	return Question{ID: id, Title: title, Slug: id + "-slug"}
}

func TestNavigateMiddle(t *testing.T) {
	qs := []Question{titled("c", "Trains"), titled("a", "Ages"), titled("b", "Boats")}
	SortForNavigation(qs)

	nav := Navigate(qs, qs[1])
	if nav.Prev == nil || *nav.Prev != "a-slug" {
		t.Fatalf("expected prev a-slug, got %v", nav.Prev)
	}
	if nav.Next == nil || *nav.Next != "c-slug" {
		t.Fatalf("expected next c-slug, got %v", nav.Next)
	}
}

func TestNavigateEdges(t *testing.T) {
	qs := []Question{titled("a", "Ages"), titled("b", "Boats")}
	SortForNavigation(qs)

	first := Navigate(qs, qs[0])
	if first.Prev != nil || first.Next == nil {
		t.Fatalf("first: unexpected %+v", first)
	}
	last := Navigate(qs, qs[1])
	if last.Next != nil || last.Prev == nil {
		t.Fatalf("last: unexpected %+v", last)
	}

	only := []Question{titled("x", "Solo")}
	if nav := Navigate(only, only[0]); nav.Prev != nil || nav.Next != nil {
		t.Fatalf("single question should have no neighbours, got %+v", nav)
	}
	if nav := Navigate(qs, titled("zz", "Missing")); nav.Prev != nil || nav.Next != nil {
		t.Fatalf("absent target should have no neighbours, got %+v", nav)
	}
}

func TestSortForNavigationIsByteWise(t *testing.T) {
	qs := []Question{titled("1", "apple"), titled("2", "Zebra"), titled("3", "Apple")}
	SortForNavigation(qs)
	got := []string{qs[0].Title, qs[1].Title, qs[2].Title}
	want := []string{"Apple", "Zebra", "apple"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSortForNavigationBreaksTiesByID(t *testing.T) {
	qs := []Question{titled("b", "Same"), titled("a", "Same")}
	SortForNavigation(qs)
	if qs[0].ID != "a" {
		t.Fatalf("expected id tiebreak, got %s first", qs[0].ID)
	}
}
