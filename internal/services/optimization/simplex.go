package optimization

// projectBudgetBox projects v onto {w : sum(w) = budget, floor <= w_i <= cap}
// by bisecting on the Lagrangian shift tau, where w_i = clamp(v_i - tau).
// The caller guarantees floor*len(v) <= budget <= cap*len(v) so the set is
// non-empty. A floor of zero gives the long-only capped simplex.
func projectBudgetBox(v []float64, budget, floor, cap float64) []float64 {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	// At tau = lo-cap every coordinate saturates at cap, exceeding the
	// budget; at tau = hi-floor every coordinate sits on the floor.
	lo -= cap
	hi -= floor

	clampSum := func(tau float64) float64 {
		s := 0.0
		for _, x := range v {
			w := x - tau
			if w < floor {
				w = floor
			} else if w > cap {
				w = cap
			}
			s += w
		}
		return s
	}

	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if clampSum(mid) > budget {
			lo = mid
		} else {
			hi = mid
		}
	}

	tau := (lo + hi) / 2
	out := make([]float64, len(v))
	sum := 0.0
	for i, x := range v {
		w := x - tau
		if w < floor {
			w = floor
		} else if w > cap {
			w = cap
		}
		out[i] = w
		sum += w
	}
	// Bisection residue lands on a free coordinate.
	if diff := budget - sum; diff != 0 {
		for i, w := range out {
			if w > floor && w < cap {
				out[i] = w + diff
				break
			}
		}
	}
	return out
}

// projectFeasible projects v onto the intersection of the budget box and
// the sector half-spaces, via Dykstra's alternating projections. With no
// sectors a single budget-box projection is exact.
func (p *problem) projectFeasible(v []float64) []float64 {
	if len(p.sectors) == 0 {
		return projectBudgetBox(v, 1, p.floor, p.cap)
	}

	n := len(v)
	w := make([]float64, n)
	copy(w, v)
	incSimplex := make([]float64, n)
	incSectors := make([]float64, n)
	tmp := make([]float64, n)

	for iter := 0; iter < 64; iter++ {
		for i := range tmp {
			tmp[i] = w[i] + incSimplex[i]
		}
		proj := projectBudgetBox(tmp, 1, p.floor, p.cap)
		for i := range incSimplex {
			incSimplex[i] = tmp[i] - proj[i]
		}

		for i := range tmp {
			tmp[i] = proj[i] + incSectors[i]
		}
		// Half-space projection per sector: spread the excess evenly
		// across the members. Sectors are disjoint.
		copy(w, tmp)
		for _, sc := range p.sectors {
			exposure := 0.0
			for _, i := range sc.members {
				exposure += tmp[i]
			}
			if excess := exposure - sc.cap; excess > 0 {
				shift := excess / float64(len(sc.members))
				for _, i := range sc.members {
					w[i] = tmp[i] - shift
				}
			}
		}
		for i := range incSectors {
			incSectors[i] = tmp[i] - w[i]
		}
	}
	// End on the budget box so the budget constraint holds exactly.
	return projectBudgetBox(w, 1, p.floor, p.cap)
}
