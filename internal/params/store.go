package params

// Store holds the user-selected session duration between the
// navigation and focus pages. The value outlives any single session
// so the slider remembers its last position.
//
// Mutated only from the application event loop; no locking needed.
type Store struct {
	minHours float64
	maxHours float64
	hours    float64
}

// NewStore creates a store bounded to [minHours, maxHours] with the
// given initial selection. Degenerate bounds fall back to [0, 2].
func NewStore(minHours, maxHours, initial float64) *Store {
	if maxHours <= minHours {
		minHours, maxHours = 0, 2
	}
	s := &Store{minHours: minHours, maxHours: maxHours}
	s.Set(initial)
	return s
}

// Set stores a duration, silently clamping it to the configured bounds.
func (s *Store) Set(hours float64) {
	if hours < s.minHours {
		hours = s.minHours
	}
	if hours > s.maxHours {
		hours = s.maxHours
	}
	s.hours = hours
}

// SetFromSlider stores a duration from a 0-100 normalized slider value.
func (s *Store) SetFromSlider(value int) {
	s.Set(s.minHours + float64(value)/100.0*(s.maxHours-s.minHours))
}

// Get returns the selected duration in hours.
func (s *Store) Get() float64 { return s.hours }

// MaxHours returns the upper duration bound.
func (s *Store) MaxHours() float64 { return s.maxHours }

// Ratio returns the selection as a fraction of the configured range.
func (s *Store) Ratio() float64 {
	if s.maxHours == s.minHours {
		return 0
	}
	return (s.hours - s.minHours) / (s.maxHours - s.minHours)
}
