package keywords

import (
	"reflect"
	"testing"
)

func TestExtractRanksByFrequency(t *testing.T) {
	got := Extract("go go go redis redis postgres", 3)
	want := []string{"go", "redis", "postgres"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractBreaksTiesByFirstSeenOrder(t *testing.T) {
	got := Extract("apple apple banana banana cherry", 2)
	want := []string{"apple", "banana"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractFiltersStopwordsAndPunctuation(t *testing.T) {
	got := Extract("The pipeline, the pipeline; and THE queue!", 5)
	want := []string{"pipeline", "queue"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractEmptyText(t *testing.T) {
	if got := Extract("   ", 5); len(got) != 0 {
		t.Fatalf("expected no keywords for blank text, got %v", got)
	}
	if got := Extract("", 5); len(got) != 0 {
		t.Fatalf("expected no keywords for empty text, got %v", got)
	}
}

func TestExtractTopNLargerThanVocabulary(t *testing.T) {
	got := Extract("solar wind", 10)
	want := []string{"solar", "wind"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	text := "ocean ocean coral reef reef warming currents currents"
	first := Extract(text, 4)
	for i := 0; i < 10; i++ {
		if got := Extract(text, 4); !reflect.DeepEqual(got, first) {
			t.Fatalf("expected stable output, got %v then %v", first, got)
		}
	}
}
