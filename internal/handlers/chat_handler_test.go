package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/loreline/backend/internal/models"
)

func TestSortChronological(t *testing.T) {
	base := time.Now()

	// As fetched from the store: newest first
	page := []models.Message{
		{ID: uuid.New(), Content: "third", CreatedAt: base.Add(2 * time.Second)},
		{ID: uuid.New(), Content: "second", CreatedAt: base.Add(time.Second)},
		{ID: uuid.New(), Content: "first", CreatedAt: base},
	}

	sortChronological(page)

	want := []string{"first", "second", "third"}
	for i, content := range want {
		if page[i].Content != content {
			t.Fatalf("position %d: expected %q, got %q", i, content, page[i].Content)
		}
	}
	for i := 1; i < len(page); i++ {
		if !page[i-1].CreatedAt.Before(page[i].CreatedAt) {
			t.Fatalf("page not in chronological order at position %d", i)
		}
	}
}

func TestSortChronological_SmallPages(t *testing.T) {
	// Must not panic or reorder degenerate pages
	sortChronological(nil)
	sortChronological([]models.Message{})

	single := []models.Message{{Content: "only"}}
	sortChronological(single)
	if single[0].Content != "only" {
		t.Fatal("single-element page must be unchanged")
	}
}
