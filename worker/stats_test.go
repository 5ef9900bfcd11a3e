package worker

import "testing"

func TestQuantiles_FiveNumberSummary(t *testing.T) {
	min, p25, median, p75, max := quantiles([]float32{5, 1, 4, 2, 3})

	if min != 1 || max != 5 {
		t.Fatalf("min/max = %v/%v, want 1/5", min, max)
	}
	if median != 3 {
		t.Fatalf("median = %v, want 3", median)
	}
	if p25 != 2 || p75 != 4 {
		t.Fatalf("p25/p75 = %v/%v, want 2/4", p25, p75)
	}
}

func TestQuantiles_Empty(t *testing.T) {
	min, p25, median, p75, max := quantiles(nil)
	if min != 0 || p25 != 0 || median != 0 || p75 != 0 || max != 0 {
		t.Fatalf("quantiles(nil) = %v %v %v %v %v, want all zero", min, p25, median, p75, max)
	}
}
