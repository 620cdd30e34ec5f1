package ads

import (
	"errors"
	"math/rand"
	"testing"
	"time"
)

func fixedClock(day string) func() time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return func() time.Time { return t }
}

func testCatalog(ads ...Advertisement) Catalog {
	return CatalogFunc(func(string) ([]Advertisement, error) {
		return ads, nil
	})
}

func TestEngine_Decide_EmptyCatalog(t *testing.T) {
	e := New(testCatalog(), NewMemoryLedger(), "pre_track",
		WithProbability(1))

	if ad := e.Decide("u1"); ad != nil {
		t.Errorf("Decide() = %v, want nil for empty catalog", ad)
	}
}

func TestEngine_Decide_CatalogError(t *testing.T) {
	catalog := CatalogFunc(func(string) ([]Advertisement, error) {
		return nil, errors.New("catalog down")
	})
	e := New(catalog, NewMemoryLedger(), "pre_track", WithProbability(1))

	if ad := e.Decide("u1"); ad != nil {
		t.Errorf("Decide() = %v, want nil on catalog error", ad)
	}
}

func TestEngine_Decide_ProbabilityGate(t *testing.T) {
	catalog := testCatalog(Advertisement{ID: "ad1", AudioURI: "/ad1.mp3"})

	t.Run("always", func(t *testing.T) {
		e := New(catalog, NewMemoryLedger(), "pre_track", WithProbability(1))
		if ad := e.Decide("u1"); ad == nil || ad.ID != "ad1" {
			t.Errorf("Decide() = %v, want ad1 with probability 1", ad)
		}
	})

	t.Run("never", func(t *testing.T) {
		e := New(catalog, NewMemoryLedger(), "pre_track", WithProbability(0))
		if ad := e.Decide("u1"); ad != nil {
			t.Errorf("Decide() = %v, want nil with probability 0", ad)
		}
	})
}

func TestEngine_Decide_DailyCap(t *testing.T) {
	ledger := NewMemoryLedger()
	e := New(testCatalog(Advertisement{ID: "ad1"}), ledger, "pre_track",
		WithProbability(1),
		WithDailyCap(2),
		WithClock(fixedClock("2026-08-30")),
	)

	for i := range 2 {
		ad := e.Decide("u1")
		if ad == nil {
			t.Fatalf("Decide() #%d = nil, want ad1 below cap", i+1)
		}
		e.RecordStart("u1", *ad)
	}

	if ad := e.Decide("u1"); ad != nil {
		t.Errorf("Decide() = %v, want nil at daily cap", ad)
	}

	// the cap is per user
	if ad := e.Decide("u2"); ad == nil {
		t.Error("Decide() for another user = nil, want ad1")
	}
}

func TestEngine_Decide_CapResetsNextDay(t *testing.T) {
	ledger := NewMemoryLedger()
	clock := fixedClock("2026-08-30")
	e := New(testCatalog(Advertisement{ID: "ad1"}), ledger, "pre_track",
		WithProbability(1),
		WithDailyCap(1),
		WithClock(func() time.Time { return clock() }),
	)

	ad := e.Decide("u1")
	if ad == nil {
		t.Fatal("Decide() = nil, want ad1")
	}
	e.RecordStart("u1", *ad)
	if got := e.Decide("u1"); got != nil {
		t.Fatalf("Decide() = %v, want nil at cap", got)
	}

	clock = fixedClock("2026-08-31")

	if got := e.Decide("u1"); got == nil {
		t.Error("Decide() = nil after day rollover, want ad1")
	}
}

func TestEngine_Decide_CappedAdSkipped(t *testing.T) {
	ledger := NewMemoryLedger()
	e := New(
		testCatalog(Advertisement{ID: "capped"}, Advertisement{ID: "fresh"}),
		ledger, "pre_track",
		WithProbability(1),
		WithDailyCap(1),
		WithClock(fixedClock("2026-08-30")),
	)
	_ = ledger.Increment("u1", "capped", DayOf(fixedClock("2026-08-30")()))

	// only "fresh" remains eligible, so the pick is deterministic
	for range 5 {
		ad := e.Decide("u1")
		if ad == nil || ad.ID != "fresh" {
			t.Fatalf("Decide() = %v, want fresh", ad)
		}
	}
}

type failingLedger struct{}

func (failingLedger) Count(string, string, Day) (int, error) {
	return 0, errors.New("ledger unavailable")
}

func (failingLedger) Increment(string, string, Day) error {
	return errors.New("ledger unavailable")
}

func TestEngine_Decide_LedgerReadError(t *testing.T) {
	e := New(testCatalog(Advertisement{ID: "ad1"}), failingLedger{}, "pre_track",
		WithProbability(1))

	if ad := e.Decide("u1"); ad != nil {
		t.Errorf("Decide() = %v, want nil when ledger reads fail", ad)
	}
}

func TestEngine_RecordStart_LedgerErrorSwallowed(t *testing.T) {
	e := New(testCatalog(), failingLedger{}, "pre_track")

	// must not panic or propagate
	e.RecordStart("u1", Advertisement{ID: "ad1"})
}

func TestEngine_Decide_UniformPick(t *testing.T) {
	e := New(
		testCatalog(Advertisement{ID: "a"}, Advertisement{ID: "b"}),
		NewMemoryLedger(), "pre_track",
		WithProbability(1),
		WithRand(rand.New(rand.NewSource(7))),
	)

	seen := map[string]bool{}
	for range 50 {
		ad := e.Decide("u1")
		if ad == nil {
			t.Fatal("Decide() = nil, want an ad")
		}
		seen[ad.ID] = true
	}
	if !seen["a"] || !seen["b"] {
		t.Errorf("picks = %v, want both ads drawn over 50 trials", seen)
	}
}

func TestDayOf(t *testing.T) {
	at := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	if got := DayOf(at); got != Day("2026-08-30") {
		t.Errorf("DayOf() = %q, want 2026-08-30", got)
	}
}
