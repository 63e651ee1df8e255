package coach

import "fmt"

// InsufficientDataError reports a session without enough clean laps to
// compare. It distinguishes how many laps the capture held from how
// many survived validation and the disrupted-lap filter.
type InsufficientDataError struct {
	TotalLaps int
	ValidLaps int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("session has %d laps but only %d usable; coaching needs at least 2 valid laps",
		e.TotalLaps, e.ValidLaps)
}
