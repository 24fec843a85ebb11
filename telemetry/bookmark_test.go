package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_HuntBreakthrough(t *testing.T) {
	bd := NewBookmarkDetector(10)

	// History with a low kill rate
	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{
			WindowEndTick: int64(i * 300),
			Hits:          10,
			Kills:         2,
			KillRate:      0.2,
		})
	}

	bookmarks := bd.Check(WindowStats{
		WindowEndTick: 1500,
		Hits:          10,
		Kills:         8,
		KillRate:      0.8,
	})
	if !hasBookmark(bookmarks, BookmarkHuntBreakthrough) {
		t.Error("expected hunt_breakthrough bookmark")
	}
}

func TestBookmarkDetector_PopulationCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 300), Population: 100})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1500, Population: 50})
	if !hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("expected population_crash bookmark")
	}

	// The peak resets after a crash, so a second small drop does not fire.
	bookmarks = bd.Check(WindowStats{WindowEndTick: 1800, Population: 45})
	if hasBookmark(bookmarks, BookmarkPopulationCrash) {
		t.Error("crash fired twice for the same decline")
	}
}

func TestBookmarkDetector_PopulationRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 3; i++ {
		bd.Check(WindowStats{WindowEndTick: int64(i * 300), Population: 3})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 900, Population: 20})
	if !hasBookmark(bookmarks, BookmarkPopulationRecovery) {
		t.Error("expected population_recovery bookmark")
	}
}

func TestBookmarkDetector_StableEcosystem(t *testing.T) {
	bd := NewBookmarkDetector(10)

	fired := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{WindowEndTick: int64(i * 300), Population: 100})
		if hasBookmark(bookmarks, BookmarkStableEcosystem) {
			if fired >= 0 {
				t.Fatalf("stable_ecosystem fired again at window %d", i)
			}
			fired = i
		}
	}
	if fired != 8 {
		t.Errorf("stable_ecosystem fired at window %d, want 8", fired)
	}
}

func TestBookmarkDetector_PressureEngaged(t *testing.T) {
	bd := NewBookmarkDetector(10)

	tests := []struct {
		name  string
		stats WindowStats
		want  bool
	}{
		{"below target", WindowStats{Population: 250}, false},
		{"first overpopulation deaths", WindowStats{Population: 320, DeathsOverpopulation: 4}, true},
		{"still pressured", WindowStats{Population: 330, DeathsOverpopulation: 6}, false},
		{"relieved", WindowStats{Population: 290}, false},
		{"hard cap culls", WindowStats{Population: 400, Culls: 12}, true},
	}
	for i, tt := range tests {
		tt.stats.WindowEndTick = int64(i * 300)
		if got := hasBookmark(bd.Check(tt.stats), BookmarkPressureEngaged); got != tt.want {
			t.Errorf("%s: pressure_engaged = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBookmarkDetector_GenerationMilestone(t *testing.T) {
	bd := NewBookmarkDetector(10)

	var fired []int
	for i, gen := range []int{3, 9, 10, 14, 19, 23, 31} {
		if hasBookmark(bd.Check(WindowStats{WindowEndTick: int64(i * 300), MaxGeneration: gen}), BookmarkGenerationMilestone) {
			fired = append(fired, gen)
		}
	}
	want := []int{10, 23, 31}
	if len(fired) != len(want) {
		t.Fatalf("milestones fired at %v, want %v", fired, want)
	}
	for i := range want {
		if fired[i] != want[i] {
			t.Errorf("milestones fired at %v, want %v", fired, want)
			break
		}
	}
}
