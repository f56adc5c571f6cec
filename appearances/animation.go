package appearances

// Order returns the sequence in which phases are shown during one cycle.
// Ping-pong animations run forwards and then back without repeating either
// end: 0..n-1, n-2..1.
func (a *SpriteAnimation) Order(phaseCount int) []int {
	order := make([]int, 0, 2*phaseCount)
	for i := 0; i < phaseCount; i++ {
		order = append(order, i)
	}
	if a != nil && a.LoopType == LoopPingPong && phaseCount > 2 {
		for i := phaseCount - 2; i > 0; i-- {
			order = append(order, i)
		}
	}
	return order
}

// durations returns one duration per phase, falling back to the default
// phase duration for phases the animation does not describe.
func (a *SpriteAnimation) durations(phaseCount int) []int64 {
	d := make([]int64, phaseCount)
	for i := range d {
		if a != nil && i < len(a.Phases) {
			d[i] = a.Phases[i].DurationMs()
		} else {
			d[i] = SpritePhase{}.DurationMs()
		}
	}
	return d
}

// startPhase is the phase the cycle begins at, or -1 for the natural order.
func (a *SpriteAnimation) startPhase(phaseCount int, seed int64, seeded bool) int {
	if a.RandomStartPhase && seeded {
		s := int(seed % int64(phaseCount))
		if s < 0 {
			s += phaseCount
		}
		return s
	}
	if a.DefaultStartPhase > 0 {
		return a.DefaultStartPhase
	}
	return -1
}

// CycleMs returns the length of one animation cycle in milliseconds, or 0
// for still appearances.
func (s *SpriteInfo) CycleMs() int64 {
	n := s.PhaseCount()
	if s.Animation == nil || n <= 1 {
		return 0
	}
	d := s.Animation.durations(n)
	var total int64
	for _, p := range s.Animation.Order(n) {
		total += d[p]
	}
	return total
}

// PhaseAt returns the phase shown t milliseconds into the animation. Negative
// times wrap around like positive ones.
func (s *SpriteInfo) PhaseAt(t int64) int {
	return s.phaseAt(t, 0, false)
}

// PhaseAtSeeded is PhaseAt with seed choosing the start phase of animations
// flagged with a random start phase.
func (s *SpriteInfo) PhaseAtSeeded(t, seed int64) int {
	return s.phaseAt(t, seed, true)
}

func (s *SpriteInfo) phaseAt(t, seed int64, seeded bool) int {
	n := s.PhaseCount()
	a := s.Animation
	if a == nil || n <= 1 {
		return 0
	}

	order := a.Order(n)
	if start := a.startPhase(n, seed, seeded); start >= 0 {
		for i, p := range order {
			if p == start {
				order = append(order[i:len(order):len(order)], order[:i]...)
				break
			}
		}
	}

	d := a.durations(n)
	var total int64
	for _, p := range order {
		total += d[p]
	}
	if total <= 0 {
		return order[0]
	}

	if a.LoopType == LoopCounted && a.LoopCount > 0 && t/total >= int64(a.LoopCount) {
		return order[len(order)-1]
	}

	t %= total
	if t < 0 {
		t += total
	}
	for _, p := range order {
		if t < d[p] {
			return p
		}
		t -= d[p]
	}
	return order[len(order)-1]
}
