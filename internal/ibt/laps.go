package ibt

import "sort"

// minLapSamples is the smallest sample group treated as a complete lap;
// shorter groups are partial laps or pit-lane noise.
const minLapSamples = 100

// minDistanceCoverage is the fraction of the declared track length a
// lap's LapDist channel must span before the lap is kept.
const minDistanceCoverage = 0.8

// RawLap is one lap's contiguous slice of per-tick samples, still
// time-indexed. It is consumed immediately by the normalizer.
type RawLap struct {
	Number    int
	Telemetry *Telemetry
}

// LapTime pairs a lap number with its measured time in seconds.
type LapTime struct {
	Number  int
	Seconds float64
}

// Laps splits the capture's telemetry into per-lap groups using the Lap
// channel. Lap numbers ≤ 0 (out-lap / pre-session), groups with fewer
// than minLapSamples samples, and groups covering under 80% of the
// declared track length are discarded. A missing Lap channel is fatal.
func Laps(c *Capture) ([]RawLap, error) {
	lapChan, ok := c.Telemetry.Channel(ChanLap)
	if !ok {
		return nil, &ChannelMissingError{Channel: ChanLap}
	}

	groups := groupByLap(lapChan)
	distChan, hasDist := c.Telemetry.Channel(ChanLapDist)
	trackLength := c.Session.TrackLengthM

	var laps []RawLap
	for _, g := range groups {
		if g.number <= 0 {
			continue
		}
		if len(g.rows) < minLapSamples {
			continue
		}
		if hasDist && trackLength > 0 {
			lo, hi := distChan[g.rows[0]], distChan[g.rows[0]]
			for _, r := range g.rows {
				if distChan[r] < lo {
					lo = distChan[r]
				}
				if distChan[r] > hi {
					hi = distChan[r]
				}
			}
			if hi-lo < trackLength*minDistanceCoverage {
				continue
			}
		}
		laps = append(laps, RawLap{Number: g.number, Telemetry: c.Telemetry.selectRows(g.rows)})
	}
	return laps, nil
}

// LapTimes extracts per-lap times. The last LapCurrentLapTime sample of
// each group is used rather than the maximum: the Lap channel
// transitions before the time channel resets, so a group's early
// samples can hold the previous lap's stale value. Falls back to the
// SessionTime span when the time channel is absent.
func LapTimes(c *Capture) ([]LapTime, error) {
	lapChan, ok := c.Telemetry.Channel(ChanLap)
	if !ok {
		return nil, &ChannelMissingError{Channel: ChanLap}
	}

	groups := groupByLap(lapChan)
	var results []LapTime

	if lct, ok := c.Telemetry.Channel(ChanLapCurrentTime); ok {
		for _, g := range groups {
			if g.number <= 0 {
				continue
			}
			t := lct[g.rows[len(g.rows)-1]]
			if t > 0 {
				results = append(results, LapTime{Number: g.number, Seconds: t})
			}
		}
		return results, nil
	}

	if st, ok := c.Telemetry.Channel(ChanSessionTime); ok {
		for _, g := range groups {
			if g.number <= 0 {
				continue
			}
			t := st[g.rows[len(g.rows)-1]] - st[g.rows[0]]
			if t > 0 {
				results = append(results, LapTime{Number: g.number, Seconds: t})
			}
		}
	}
	return results, nil
}

type lapGroup struct {
	number int
	rows   []int
}

// groupByLap collects sample indices per lap number, returned in
// ascending lap order.
func groupByLap(lapChan []float64) []lapGroup {
	byNumber := make(map[int][]int)
	for i, v := range lapChan {
		n := int(v)
		byNumber[n] = append(byNumber[n], i)
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	groups := make([]lapGroup, 0, len(numbers))
	for _, n := range numbers {
		groups = append(groups, lapGroup{number: n, rows: byNumber[n]})
	}
	return groups
}
