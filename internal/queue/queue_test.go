package queue

import (
	"math/rand"
	"testing"
)

func testQueue() *Queue {
	return NewWithRand(rand.New(rand.NewSource(1)))
}

func TestNew(t *testing.T) {
	q := New()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
	if q.Current() != nil {
		t.Error("Current() should be nil for empty queue")
	}
	if !q.IsEmpty() {
		t.Error("IsEmpty() = false, want true")
	}
}

func TestQueue_Add(t *testing.T) {
	q := testQueue()

	q.Add(Track{ID: "t1"}, Track{ID: "t2"})

	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
	// Add doesn't change current index
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1 (unchanged)", q.CurrentIndex())
	}
}

func TestQueue_Add_DuplicateID(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t1", Title: "original"})

	q.Add(Track{ID: "t1", Title: "copy"}, Track{ID: "t2"})

	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (duplicate skipped)", q.Len())
	}
	if got := q.Track(0); got == nil || got.Title != "original" {
		t.Errorf("Track(0) = %v, want the original entry", got)
	}
}

func TestQueue_Replace(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "old1"}, Track{ID: "old2"})
	q.JumpTo(1)

	track := q.Replace(Track{ID: "new"})

	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
	if track == nil || track.ID != "new" {
		t.Errorf("returned track = %v, want new", track)
	}
}

func TestQueue_Replace_Empty(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "old"})

	track := q.Replace()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if track != nil {
		t.Error("Replace with no tracks should return nil")
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
}

func TestQueue_JumpTo(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"})

	track := q.JumpTo(1)

	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
	if track == nil || track.ID != "t1" {
		t.Errorf("JumpTo returned %v, want t1", track)
	}
}

func TestQueue_JumpTo_Invalid(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"})

	if track := q.JumpTo(5); track != nil {
		t.Error("JumpTo with invalid index should return nil")
	}
	if track := q.JumpTo(-1); track != nil {
		t.Error("JumpTo with negative index should return nil")
	}
}

func TestQueue_SelectID(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"})

	track := q.SelectID("t2")

	if track == nil || track.ID != "t2" {
		t.Errorf("SelectID returned %v, want t2", track)
	}
	if q.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2", q.CurrentIndex())
	}

	if got := q.SelectID("missing"); got != nil {
		t.Errorf("SelectID(missing) = %v, want nil", got)
	}
	if q.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2 (unchanged on miss)", q.CurrentIndex())
	}
}

func TestQueue_RemoveAt(t *testing.T) {
	t.Run("remove before current", func(t *testing.T) {
		q := testQueue()
		q.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})
		q.JumpTo(2)

		if !q.RemoveAt(0) {
			t.Fatal("RemoveAt(0) = false, want true")
		}
		if q.CurrentIndex() != 1 {
			t.Errorf("CurrentIndex() = %d, want 1 (shifted down)", q.CurrentIndex())
		}
		if c := q.Current(); c == nil || c.ID != "c" {
			t.Errorf("Current() = %v, want c", c)
		}
	})

	t.Run("remove after current", func(t *testing.T) {
		q := testQueue()
		q.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})
		q.JumpTo(0)

		q.RemoveAt(2)

		if q.CurrentIndex() != 0 {
			t.Errorf("CurrentIndex() = %d, want 0 (unchanged)", q.CurrentIndex())
		}
	})

	t.Run("remove current keeps position", func(t *testing.T) {
		q := testQueue()
		q.Add(Track{ID: "a"}, Track{ID: "b"}, Track{ID: "c"})
		q.JumpTo(1)

		q.RemoveAt(1)

		if q.CurrentIndex() != 1 {
			t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
		}
		if c := q.Current(); c == nil || c.ID != "c" {
			t.Errorf("Current() = %v, want c (next track took the slot)", c)
		}
	})

	t.Run("remove last current clamps", func(t *testing.T) {
		q := testQueue()
		q.Add(Track{ID: "a"}, Track{ID: "b"})
		q.JumpTo(1)

		q.RemoveAt(1)

		if q.CurrentIndex() != 0 {
			t.Errorf("CurrentIndex() = %d, want 0 (clamped)", q.CurrentIndex())
		}
	})

	t.Run("remove only track", func(t *testing.T) {
		q := testQueue()
		q.Add(Track{ID: "a"})
		q.JumpTo(0)

		q.RemoveAt(0)

		if q.CurrentIndex() != -1 {
			t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
		}
		if q.Current() != nil {
			t.Error("Current() should be nil after removing only track")
		}
	})

	t.Run("invalid index", func(t *testing.T) {
		q := testQueue()
		q.Add(Track{ID: "a"})

		if q.RemoveAt(3) {
			t.Error("RemoveAt(3) = true, want false")
		}
		if q.RemoveAt(-1) {
			t.Error("RemoveAt(-1) = true, want false")
		}
	})
}

func TestQueue_Clear(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "a"}, Track{ID: "b"})
	q.JumpTo(1)

	q.Clear()

	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
	if q.CurrentIndex() != -1 {
		t.Errorf("CurrentIndex() = %d, want -1", q.CurrentIndex())
	}
}

func TestQueue_Next_Normal(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"})
	q.JumpTo(0)

	track := q.Next()

	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
	if track == nil || track.ID != "t1" {
		t.Errorf("Next() = %v, want t1", track)
	}
}

func TestQueue_Next_NoCurrent(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"})

	track := q.Next()

	if track == nil || track.ID != "t0" {
		t.Errorf("Next() = %v, want t0 (first selection)", track)
	}
}

func TestQueue_Next_AtEnd_NoRepeat(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"})
	q.JumpTo(1)

	if track := q.Next(); track != nil {
		t.Errorf("Next() at end with RepeatNone = %v, want nil", track)
	}
	// position stays put
	if q.CurrentIndex() != 1 {
		t.Errorf("CurrentIndex() = %d, want 1", q.CurrentIndex())
	}
}

func TestQueue_Next_AtEnd_RepeatAll(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"})
	q.JumpTo(1)
	q.SetRepeatMode(RepeatAll)

	track := q.Next()

	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0 (wrapped)", q.CurrentIndex())
	}
	if track == nil || track.ID != "t0" {
		t.Errorf("Next() = %v, want t0", track)
	}
}

func TestQueue_Next_Shuffle_FullQueueDraw(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"})
	q.JumpTo(2) // at last track
	q.SetShuffle(true)

	// a full-queue draw never runs out, even past the last index
	for range 10 {
		if q.Next() == nil {
			t.Fatal("Next() = nil under shuffle, want a track")
		}
	}
}

func TestQueue_Next_Shuffle_Permutation(t *testing.T) {
	q := testQueue()
	q.SetShuffleDraw(DrawPermutation)
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"})
	q.SetShuffle(true)

	// walking a permutation from the start visits each track once, then stops
	seen := map[string]bool{}
	for {
		track := q.Next()
		if track == nil {
			break
		}
		if seen[track.ID] {
			t.Fatalf("track %s visited twice", track.ID)
		}
		seen[track.ID] = true
	}
	if len(seen) != 3 {
		t.Errorf("visited %d tracks, want 3", len(seen))
	}
}

func TestQueue_HasNext(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(*Queue)
		wantHas bool
	}{
		{
			name:    "empty queue",
			setup:   func(_ *Queue) {},
			wantHas: false,
		},
		{
			name: "no current track with tracks in queue",
			setup: func(q *Queue) {
				q.Add(Track{ID: "a"}, Track{ID: "b"})
			},
			wantHas: true,
		},
		{
			name: "at start",
			setup: func(q *Queue) {
				q.Add(Track{ID: "a"}, Track{ID: "b"})
				q.JumpTo(0)
			},
			wantHas: true,
		},
		{
			name: "at end no repeat",
			setup: func(q *Queue) {
				q.Add(Track{ID: "a"})
				q.JumpTo(0)
			},
			wantHas: false,
		},
		{
			name: "at end with repeat all",
			setup: func(q *Queue) {
				q.Add(Track{ID: "a"})
				q.JumpTo(0)
				q.SetRepeatMode(RepeatAll)
			},
			wantHas: true,
		},
		{
			name: "at end with shuffle",
			setup: func(q *Queue) {
				q.Add(Track{ID: "a"})
				q.JumpTo(0)
				q.SetShuffle(true)
			},
			wantHas: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := testQueue()
			tt.setup(q)

			if got := q.HasNext(); got != tt.wantHas {
				t.Errorf("HasNext() = %v, want %v", got, tt.wantHas)
			}
		})
	}
}

func TestQueue_Previous(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"})
	q.JumpTo(1)

	track := q.Previous()

	if q.CurrentIndex() != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", q.CurrentIndex())
	}
	if track == nil || track.ID != "t0" {
		t.Errorf("Previous() = %v, want t0", track)
	}
}

func TestQueue_Previous_AtStart(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"})
	q.JumpTo(0)

	if track := q.Previous(); track != nil {
		t.Errorf("Previous() at start = %v, want nil", track)
	}
}

func TestQueue_Previous_AtStart_RepeatAll(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"})
	q.JumpTo(0)
	q.SetRepeatMode(RepeatAll)

	track := q.Previous()

	if track == nil || track.ID != "t1" {
		t.Errorf("Previous() = %v, want t1 (wrapped)", track)
	}
}

func TestQueue_CycleRepeat(t *testing.T) {
	t.Run("none one all", func(t *testing.T) {
		q := testQueue()

		want := []RepeatMode{RepeatOne, RepeatAll, RepeatNone}
		for _, w := range want {
			if got := q.CycleRepeat(); got != w {
				t.Errorf("CycleRepeat() = %v, want %v", got, w)
			}
		}
	})

	t.Run("none all one", func(t *testing.T) {
		q := testQueue()
		q.SetCycleOrder(CycleNoneAllOne)

		want := []RepeatMode{RepeatAll, RepeatOne, RepeatNone}
		for _, w := range want {
			if got := q.CycleRepeat(); got != w {
				t.Errorf("CycleRepeat() = %v, want %v", got, w)
			}
		}
	})
}

func TestQueue_SetShuffle_KeepsCurrentIdentity(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"}, Track{ID: "t3"})
	q.JumpTo(2)

	q.SetShuffle(true)

	if c := q.Current(); c == nil || c.ID != "t2" {
		t.Errorf("Current() after shuffle = %v, want t2", c)
	}

	q.SetShuffle(false)

	if c := q.Current(); c == nil || c.ID != "t2" {
		t.Errorf("Current() after unshuffle = %v, want t2", c)
	}
	if q.CurrentIndex() != 2 {
		t.Errorf("CurrentIndex() = %d, want 2 (original ordering restored)", q.CurrentIndex())
	}
}

func TestQueue_SetShuffle_RestoresOrder(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"}, Track{ID: "t3"}, Track{ID: "t4"})
	q.JumpTo(0)

	q.SetShuffle(true)
	q.SetShuffle(false)

	for i, want := range []string{"t0", "t1", "t2", "t3", "t4"} {
		if got := q.Track(i); got == nil || got.ID != want {
			t.Errorf("Track(%d) = %v, want %s", i, got, want)
		}
	}
}

func TestQueue_SetShuffle_EditsWhileShuffled(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"}, Track{ID: "t1"}, Track{ID: "t2"})
	q.JumpTo(0)
	q.SetShuffle(true)

	// remove t1 and add t3 while shuffled
	for i, tr := range q.Tracks() {
		if tr.ID == "t1" {
			q.RemoveAt(i)
			break
		}
	}
	q.Add(Track{ID: "t3"})

	q.SetShuffle(false)

	got := q.Tracks()
	if len(got) != 3 {
		t.Fatalf("Len() = %d, want 3", len(got))
	}
	// snapshot order minus the removal, additions appended
	for i, want := range []string{"t0", "t2", "t3"} {
		if got[i].ID != want {
			t.Errorf("Track(%d) = %s, want %s", i, got[i].ID, want)
		}
	}
}

func TestQueue_ToggleShuffle(t *testing.T) {
	q := testQueue()
	q.Add(Track{ID: "t0"})

	if !q.ToggleShuffle() {
		t.Error("ToggleShuffle() = false, want true")
	}
	if q.ToggleShuffle() {
		t.Error("ToggleShuffle() = true, want false")
	}
}
