package queue

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatNone RepeatMode = iota
	RepeatOne
	RepeatAll
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatNone:
		return "None"
	case RepeatOne:
		return "One"
	case RepeatAll:
		return "All"
	default:
		return "Unknown"
	}
}

// CycleOrder selects the order CycleRepeat walks through the modes.
// Both observed orders are supported; the default is CycleNoneOneAll.
type CycleOrder int

const (
	// CycleNoneOneAll cycles None -> One -> All -> None.
	CycleNoneOneAll CycleOrder = iota
	// CycleNoneAllOne cycles None -> All -> One -> None.
	CycleNoneAllOne
)

func (o CycleOrder) next(m RepeatMode) RepeatMode {
	switch o {
	case CycleNoneAllOne:
		switch m {
		case RepeatNone:
			return RepeatAll
		case RepeatAll:
			return RepeatOne
		default:
			return RepeatNone
		}
	default:
		switch m {
		case RepeatNone:
			return RepeatOne
		case RepeatOne:
			return RepeatAll
		default:
			return RepeatNone
		}
	}
}

// ShuffleDraw selects how Next picks a track while shuffle is enabled.
type ShuffleDraw int

const (
	// DrawFullQueue draws uniformly from the full queue length on every
	// Next, so a track may repeat before the rest of the queue has played.
	DrawFullQueue ShuffleDraw = iota
	// DrawPermutation walks the fixed shuffled ordering sequentially
	// without repetition.
	DrawPermutation
)
