package progress

import "testing"

func TestLeaderboardWithoutCache(t *testing.T) {
	store := NewMemoryStore()
	for _, u := range []struct {
		name string
		exp  float64
	}{
		{"kim", 120},
		{"lee", 300},
	} {
		if _, err := store.Register(u.name, "secret123"); err != nil {
			t.Fatalf("Register(%s) error = %v", u.name, err)
		}
	}

	lb := NewLeaderboard(store, nil)

	if err := lb.RecordProgress(t.Context(), "kim", Progress{Experience: 120, Level: 2}); err != nil {
		t.Fatalf("RecordProgress() error = %v", err)
	}
	if err := lb.RecordProgress(t.Context(), "lee", Progress{Experience: 300, Level: 4}); err != nil {
		t.Fatalf("RecordProgress() error = %v", err)
	}

	entries, err := lb.Top(t.Context(), 10)
	if err != nil {
		t.Fatalf("Top() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Username != "lee" {
		t.Errorf("entries[0] = %s, want lee", entries[0].Username)
	}
}

func TestLeaderboardRecordProgressUnknownUser(t *testing.T) {
	lb := NewLeaderboard(NewMemoryStore(), nil)
	if err := lb.RecordProgress(t.Context(), "nobody", Progress{}); err == nil {
		t.Error("RecordProgress() error = nil, want store failure")
	}
}

func TestLeaderboardRebuildWithoutCache(t *testing.T) {
	lb := NewLeaderboard(NewMemoryStore(), nil)
	if err := lb.Rebuild(t.Context()); err != nil {
		t.Errorf("Rebuild() error = %v, want nil no-op", err)
	}
}
