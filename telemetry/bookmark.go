package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkHuntBreakthrough    BookmarkType = "hunt_breakthrough"
	BookmarkPopulationCrash     BookmarkType = "population_crash"
	BookmarkPopulationRecovery  BookmarkType = "population_recovery"
	BookmarkStableEcosystem     BookmarkType = "stable_ecosystem"
	BookmarkPressureEngaged     BookmarkType = "pressure_engaged"
	BookmarkGenerationMilestone BookmarkType = "generation_milestone"
)

// generationStep is the spacing of generation milestones.
const generationStep = 10

// Bookmark marks a notable moment in a run.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Tick        int64        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector watches successive windows for notable moments. Each
// rule sees the history before the window being checked.
type BookmarkDetector struct {
	history []WindowStats // oldest first, at most size entries
	size    int

	peak      int
	trough    int // -1 until the first window
	stableRun int
	pressured bool
	milestone int
}

// NewBookmarkDetector creates a detector remembering historySize windows.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	return &BookmarkDetector{
		history: make([]WindowStats, 0, max(historySize, 5)),
		size:    max(historySize, 5),
		trough:  -1,
	}
}

// Check analyzes the latest window and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var out []Bookmark
	for _, rule := range []func(WindowStats) (string, BookmarkType){
		bd.huntBreakthrough,
		bd.populationCrash,
		bd.populationRecovery,
		bd.stableEcosystem,
		bd.pressureEngaged,
		bd.generationMilestone,
	} {
		if desc, typ := rule(stats); desc != "" {
			out = append(out, Bookmark{Type: typ, Tick: stats.WindowEndTick, Description: desc})
		}
	}

	if len(bd.history) == bd.size {
		bd.history = append(bd.history[:0], bd.history[1:]...)
	}
	bd.history = append(bd.history, stats)

	if bd.trough < 0 || stats.Population < bd.trough {
		bd.trough = stats.Population
	}
	bd.peak = max(bd.peak, stats.Population)
	return out
}

func (bd *BookmarkDetector) huntBreakthrough(stats WindowStats) (string, BookmarkType) {
	if len(bd.history) < 3 || stats.Kills < 3 {
		return "", ""
	}
	var kills, hits int
	for _, h := range bd.history {
		kills += h.Kills
		hits += h.Hits
	}
	if hits == 0 || kills == 0 {
		return "", ""
	}
	avg := float64(kills) / float64(hits)
	if stats.KillRate <= 2*avg {
		return "", ""
	}
	return fmt.Sprintf("Kill rate %.2f is %.1fx the recent average %.2f", stats.KillRate, stats.KillRate/avg, avg),
		BookmarkHuntBreakthrough
}

// populationCrash fires on a drop of more than 30% (and over 10 creatures)
// from the recent peak, then rebases peak and trough.
func (bd *BookmarkDetector) populationCrash(stats WindowStats) (string, BookmarkType) {
	if bd.peak == 0 {
		return "", ""
	}
	drop := 1 - float64(stats.Population)/float64(bd.peak)
	if drop <= 0.30 || stats.Population >= bd.peak-10 {
		return "", ""
	}
	from := bd.peak
	bd.peak, bd.trough = stats.Population, stats.Population
	return fmt.Sprintf("Population crashed %.0f%% from peak %d to %d", drop*100, from, stats.Population),
		BookmarkPopulationCrash
}

// populationRecovery fires when a near-extinct population (5 or fewer)
// at least triples and reaches 15.
func (bd *BookmarkDetector) populationRecovery(stats WindowStats) (string, BookmarkType) {
	if bd.trough < 0 || bd.trough > 5 || stats.Population < max(bd.trough*3, 15) {
		return "", ""
	}
	from := bd.trough
	bd.trough = stats.Population
	return fmt.Sprintf("Population recovered from %d to %d", from, stats.Population), BookmarkPopulationRecovery
}

// stableEcosystem fires once after five consecutive windows whose last
// four populations vary by under 20%.
func (bd *BookmarkDetector) stableEcosystem(stats WindowStats) (string, BookmarkType) {
	if stats.Population < 10 {
		bd.stableRun = 0
		return "", ""
	}
	if len(bd.history) < 4 {
		return "", ""
	}

	recent := bd.history[len(bd.history)-4:]
	counts := make([]float64, len(recent))
	for i, h := range recent {
		counts[i] = float64(h.Population)
	}
	if d := Describe(counts); d.Mean > 0 && d.Std/d.Mean < 0.2 {
		bd.stableRun++
	} else {
		bd.stableRun = 0
	}

	if bd.stableRun != 5 {
		return "", ""
	}
	return fmt.Sprintf("Stable population around %d over 5+ windows", stats.Population), BookmarkStableEcosystem
}

// pressureEngaged fires on the first window of a run of windows in which
// the population controller killed or culled creatures.
func (bd *BookmarkDetector) pressureEngaged(stats WindowStats) (string, BookmarkType) {
	killed := stats.DeathsOverpopulation + stats.Culls
	was := bd.pressured
	bd.pressured = killed > 0
	if was || killed == 0 {
		return "", ""
	}
	return fmt.Sprintf("Population pressure engaged at %d creatures (%d overpopulation deaths, %d culls)",
		stats.Population, stats.DeathsOverpopulation, stats.Culls), BookmarkPressureEngaged
}

func (bd *BookmarkDetector) generationMilestone(stats WindowStats) (string, BookmarkType) {
	if stats.MaxGeneration < bd.milestone+generationStep {
		return "", ""
	}
	bd.milestone = stats.MaxGeneration / generationStep * generationStep
	return fmt.Sprintf("Lineages reached generation %d", stats.MaxGeneration), BookmarkGenerationMilestone
}
