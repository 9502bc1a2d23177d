package store

import (
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRec(id string) *Recommendation {
	now := time.Now().UnixMilli()
	return &Recommendation{
		ID:                 id,
		Module:             "contacts",
		Title:              "Reconnect with Dana",
		Summary:            "You have not spoken in three months",
		Why:                "Last call was in May",
		Confidence:         "medium",
		Evidence:           []int64{now - 1000, now - 2000},
		Status:             StatusActive,
		CountsAgainstLimit: true,
		CreatedAt:          now,
		ExpiresAt:          now + 3600_000,
	}
}

func TestCreateAndGetRecommendation(t *testing.T) {
	db := testDB(t)

	rec := testRec("rec-001")
	if err := db.CreateRecommendation(rec); err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}

	got, err := db.GetRecommendation("rec-001")
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if got == nil {
		t.Fatal("GetRecommendation returned nil")
	}
	if got.Title != rec.Title {
		t.Errorf("Title = %q, want %q", got.Title, rec.Title)
	}
	if got.Status != StatusActive {
		t.Errorf("Status = %q, want active", got.Status)
	}
	if !got.CountsAgainstLimit {
		t.Error("CountsAgainstLimit = false, want true")
	}
	if len(got.Evidence) != 2 {
		t.Errorf("Evidence len = %d, want 2", len(got.Evidence))
	}
	if got.OpenedAt != nil {
		t.Errorf("OpenedAt = %v, want nil", *got.OpenedAt)
	}
}

func TestGetRecommendationNotFound(t *testing.T) {
	db := testDB(t)

	got, err := db.GetRecommendation("missing")
	if err != nil {
		t.Fatalf("GetRecommendation: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestListRecommendationsByStatus(t *testing.T) {
	db := testDB(t)

	for _, id := range []string{"rec-001", "rec-002", "rec-003"} {
		if err := db.CreateRecommendation(testRec(id)); err != nil {
			t.Fatalf("CreateRecommendation %s: %v", id, err)
		}
	}
	if _, err := db.ResolveRecommendation("rec-002", StatusAccepted, time.Now().UnixMilli()); err != nil {
		t.Fatalf("ResolveRecommendation: %v", err)
	}

	active, err := db.ListRecommendationsByStatus(StatusActive)
	if err != nil {
		t.Fatalf("ListRecommendationsByStatus: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active len = %d, want 2", len(active))
	}
	for _, r := range active {
		if r.ID == "rec-002" {
			t.Error("resolved recommendation still listed as active")
		}
	}
}

func TestResolveRecommendationOnce(t *testing.T) {
	db := testDB(t)
	now := time.Now().UnixMilli()

	if err := db.CreateRecommendation(testRec("rec-001")); err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}

	ok, err := db.ResolveRecommendation("rec-001", StatusAccepted, now)
	if err != nil {
		t.Fatalf("ResolveRecommendation: %v", err)
	}
	if !ok {
		t.Fatal("first resolve = false, want true")
	}

	// Terminal states are sticky: a second transition must not fire.
	ok, err = db.ResolveRecommendation("rec-001", StatusDeclined, now)
	if err != nil {
		t.Fatalf("ResolveRecommendation second: %v", err)
	}
	if ok {
		t.Error("second resolve = true, want false")
	}

	got, _ := db.GetRecommendation("rec-001")
	if got.Status != StatusAccepted {
		t.Errorf("Status = %q, want accepted", got.Status)
	}
	if got.ResolvedAt == nil {
		t.Error("ResolvedAt = nil, want set")
	}
}

func TestResolveRecommendationInvalidStatus(t *testing.T) {
	db := testDB(t)

	if _, err := db.ResolveRecommendation("rec-001", StatusActive, 0); err == nil {
		t.Error("resolve to active succeeded, want error")
	}
}

func TestMarkRecommendationOpenedOnce(t *testing.T) {
	db := testDB(t)

	if err := db.CreateRecommendation(testRec("rec-001")); err != nil {
		t.Fatalf("CreateRecommendation: %v", err)
	}

	ok, err := db.MarkRecommendationOpened("rec-001", 1000)
	if err != nil {
		t.Fatalf("MarkRecommendationOpened: %v", err)
	}
	if !ok {
		t.Fatal("first open = false, want true")
	}

	// openedAt never clears or updates once set
	ok, err = db.MarkRecommendationOpened("rec-001", 2000)
	if err != nil {
		t.Fatalf("MarkRecommendationOpened second: %v", err)
	}
	if ok {
		t.Error("second open = true, want false")
	}

	got, _ := db.GetRecommendation("rec-001")
	if got.OpenedAt == nil || *got.OpenedAt != 1000 {
		t.Errorf("OpenedAt = %v, want 1000", got.OpenedAt)
	}
}

func TestRecommendationStatusCounts(t *testing.T) {
	db := testDB(t)
	now := time.Now().UnixMilli()

	for _, id := range []string{"rec-001", "rec-002", "rec-003"} {
		if err := db.CreateRecommendation(testRec(id)); err != nil {
			t.Fatalf("CreateRecommendation: %v", err)
		}
	}
	db.ResolveRecommendation("rec-001", StatusAccepted, now)
	db.ResolveRecommendation("rec-002", StatusExpired, now)

	counts, err := db.RecommendationStatusCounts()
	if err != nil {
		t.Fatalf("RecommendationStatusCounts: %v", err)
	}
	if counts[StatusActive] != 1 || counts[StatusAccepted] != 1 || counts[StatusExpired] != 1 {
		t.Errorf("counts = %v, want one of each", counts)
	}

	n, err := db.CountRecommendationsByStatus(StatusActive)
	if err != nil {
		t.Fatalf("CountRecommendationsByStatus: %v", err)
	}
	if n != 1 {
		t.Errorf("active count = %d, want 1", n)
	}
}
