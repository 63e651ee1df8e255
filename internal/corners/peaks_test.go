package corners

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocalMinimaSimple(t *testing.T) {
	y := []float64{5, 4, 3, 4, 5, 6, 5, 2, 3, 5}
	got := localMinima(y, 1, 0.5)
	if diff := cmp.Diff([]int{2, 7}, got); diff != "" {
		t.Errorf("minima mismatch (-want +got):\n%s", diff)
	}
}

func TestLocalMinimaFlatValley(t *testing.T) {
	y := []float64{5, 3, 3, 3, 5}
	got := localMinima(y, 1, 0.5)
	if diff := cmp.Diff([]int{2}, got); diff != "" {
		t.Errorf("flat valley should yield its middle (-want +got):\n%s", diff)
	}
}

func TestLocalMinimaProminenceFilter(t *testing.T) {
	// Second dip is only 0.5 deep.
	y := []float64{10, 5, 10, 9.5, 10}
	got := localMinima(y, 1, 2)
	if diff := cmp.Diff([]int{1}, got); diff != "" {
		t.Errorf("shallow dip should be dropped (-want +got):\n%s", diff)
	}
}

func TestLocalMinimaSpacingKeepsDeeper(t *testing.T) {
	// Two dips 3 apart; min spacing 5 keeps only the deeper one.
	y := []float64{10, 4, 10, 10, 2, 10}
	got := localMinima(y, 5, 1)
	if diff := cmp.Diff([]int{4}, got); diff != "" {
		t.Errorf("spacing should keep the deeper dip (-want +got):\n%s", diff)
	}
}

func TestLocalMinimaMonotonic(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5}
	if got := localMinima(y, 1, 0); got != nil {
		t.Errorf("monotonic trace has no interior minima, got %v", got)
	}
}
