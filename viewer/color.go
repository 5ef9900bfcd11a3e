// Package viewer implements the viewer rank (spec §4.5, §4.6): gathering
// worker partials into the full (K x M) result, maintaining the color and
// finecolor labelings, normalizing, and handing the result to a Publisher.
package viewer

import "sort"

// ColorTable holds the color and finecolor labelings over the M masked
// elements (spec §3 "Colors"), and retires colors whose pixels have all
// become saturated (spec §12 "Saturation-driven color retirement",
// grounded on UserG2.changeColorDataIfNewSaturated). color/finecolor value
// 0 means "not labeled" / excluded from normalization.
type ColorTable struct {
	color      []int
	finecolor  []int
	colorTotal map[int]int
}

// NewColorTable builds a ColorTable from the loaded labelings (spec §6:
// color/finecolor loading is an external collaborator's responsibility;
// this package only consumes the resulting arrays).
func NewColorTable(color, finecolor []int) *ColorTable {
	total := make(map[int]int)
	for _, c := range color {
		if c != 0 {
			total[c]++
		}
	}
	return &ColorTable{
		color:      append([]int(nil), color...),
		finecolor:  append([]int(nil), finecolor...),
		colorTotal: total,
	}
}

// Color returns the current (possibly retired-to-zero) color labeling.
func (c *ColorTable) Color() []int { return c.color }

// Finecolor returns the current (possibly retired-to-zero) finecolor labeling.
func (c *ColorTable) Finecolor() []int { return c.finecolor }

// Retire zeroes the color/finecolor labels at every newly saturated
// position and reports, ascending, which colors' total pixel count fell to
// zero as a result (spec §4.5 step 3). Idempotent: saturation flags only
// ever turn on (spec §4.4's adjustData), so re-applying the same or a
// superset of previously-seen saturated positions is a correct no-op for
// positions already retired.
func (c *ColorTable) Retire(saturation []int8) []int {
	changed := false
	for i, s := range saturation {
		if s != 0 && (c.color[i] != 0 || c.finecolor[i] != 0) {
			c.color[i] = 0
			c.finecolor[i] = 0
			changed = true
		}
	}
	if !changed {
		return nil
	}

	newTotal := make(map[int]int, len(c.colorTotal))
	for _, col := range c.color {
		if col != 0 {
			newTotal[col]++
		}
	}

	var retired []int
	for col, oldCount := range c.colorTotal {
		if oldCount > 0 && newTotal[col] == 0 {
			retired = append(retired, col)
		}
	}
	sort.Ints(retired)
	c.colorTotal = newTotal
	return retired
}
