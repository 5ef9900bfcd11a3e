package viewer

import "github.com/lclsdet/parcorana/wire"

// Normalize implements spec §4.5 step 4 in place on g: for each delay k
// with counts[k] > 0, divide G2[k]/IF[k]/IP[k] by counts[k]; compute
// per-finecolor means of IF and IP restricted to currently-valid pixels
// (color != 0, i.e. not retired per ColorTable.Retire); derive
// final[k] := G2[k] / (avgIP[finecolor] * avgIF[finecolor]) elementwise;
// and average final[k] over each color's pixels into that color's curve.
//
// Delays with counts[k] == 0 (no pairs observed yet for that delay) are
// left unnormalized and contribute a zero entry to every curve.
func Normalize(g *wire.Gathered, colors *ColorTable) map[int][]float32 {
	color := colors.Color()
	finecolor := colors.Finecolor()
	m := len(color)
	k := len(g.Counts)

	colorSet := make(map[int]bool)
	for _, c := range color {
		if c != 0 {
			colorSet[c] = true
		}
	}
	curves := make(map[int][]float32, len(colorSet))
	for c := range colorSet {
		curves[c] = make([]float32, k)
	}

	for d := 0; d < k; d++ {
		if g.Counts[d] <= 0 {
			continue
		}
		inv := 1 / float32(g.Counts[d])
		g2, ifv, ip := g.G2[d], g.IF[d], g.IP[d]
		for i := 0; i < m; i++ {
			g2[i] *= inv
			ifv[i] *= inv
			ip[i] *= inv
		}

		sumIF := make(map[int]float32)
		sumIP := make(map[int]float32)
		cnt := make(map[int]int)
		for i := 0; i < m; i++ {
			if color[i] == 0 {
				continue
			}
			fc := finecolor[i]
			sumIF[fc] += ifv[i]
			sumIP[fc] += ip[i]
			cnt[fc]++
		}
		avgIF := make(map[int]float32, len(cnt))
		avgIP := make(map[int]float32, len(cnt))
		for fc, n := range cnt {
			avgIF[fc] = sumIF[fc] / float32(n)
			avgIP[fc] = sumIP[fc] / float32(n)
		}

		curveSum := make(map[int]float32)
		curveCnt := make(map[int]int)
		for i := 0; i < m; i++ {
			col := color[i]
			if col == 0 {
				continue
			}
			fc := finecolor[i]
			denom := avgIP[fc] * avgIF[fc]
			if denom == 0 {
				continue
			}
			curveSum[col] += g2[i] / denom
			curveCnt[col]++
		}
		for col, sum := range curveSum {
			curves[col][d] = sum / float32(curveCnt[col])
		}
	}

	return curves
}
