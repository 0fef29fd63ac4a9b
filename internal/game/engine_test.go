package game

import "testing"

// scripted returns vals in order, wrapping around.
type scripted struct {
	vals []int
	i    int
}

func (s *scripted) IntN(n int) int {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v % n
}

// answerCorrect drives the engine the way a match does for a correct word.
func answerCorrect(e *Engine) (Resolution, BonusKind, bool) {
	res := e.ResolvePending()
	e.RegisterCorrect()
	if res.Resolved {
		return res, BonusNone, false
	}
	kind, ok := e.MaybeCreateBonus()
	return res, kind, ok
}

func TestRegisterIncorrectNeverNegative(t *testing.T) {
	e := NewEngine(&scripted{vals: []int{0}})
	for i := 0; i < 3; i++ {
		e.RegisterIncorrect()
		if e.Score() != 0 {
			t.Fatalf("score = %d after %d misses, want 0", e.Score(), i+1)
		}
		if e.Streak() != 0 {
			t.Fatalf("streak = %d, want 0", e.Streak())
		}
	}

	e.RegisterCorrect()
	e.RegisterCorrect()
	e.RegisterIncorrect()
	if e.Score() != 1 || e.Streak() != 0 {
		t.Fatalf("got score=%d streak=%d, want 1/0", e.Score(), e.Streak())
	}
}

func TestMaybeCreateBonusMilestones(t *testing.T) {
	tests := []struct {
		name   string
		streak int
		want   bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"two", 2, false},
		{"three", 3, true},
		{"four", 4, false},
		{"five", 5, false},
		{"six", 6, true},
		{"nine", 9, true},
		{"ten", 10, false},
		{"twelve", 12, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&scripted{vals: []int{1}})
			for i := 0; i < tt.streak; i++ {
				e.RegisterCorrect()
			}
			_, ok := e.MaybeCreateBonus()
			if ok != tt.want {
				t.Errorf("MaybeCreateBonus() at streak %d = %v, want %v", tt.streak, ok, tt.want)
			}
			if !ok && (e.BonusPending() || e.BonusKind() != BonusNone) {
				t.Errorf("state changed on ineligible streak: %+v", e.Snapshot())
			}
		})
	}
}

func TestMaybeCreateBonusDraw(t *testing.T) {
	tests := []struct {
		draw      int
		want      BonusKind
		wantChain bool
		wantLevel int
	}{
		{0, BonusScore, true, 1},
		{1, BonusTime, false, 0},
		{2, BonusSimpleWords, false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			e := NewEngine(&scripted{vals: []int{tt.draw}})
			for i := 0; i < 3; i++ {
				e.RegisterCorrect()
			}
			kind, ok := e.MaybeCreateBonus()
			if !ok || kind != tt.want {
				t.Fatalf("MaybeCreateBonus() = %v,%v want %v,true", kind, ok, tt.want)
			}
			st := e.Snapshot()
			if !st.Pending || st.Kind != tt.want || st.ChainActive != tt.wantChain || st.Level != tt.wantLevel {
				t.Errorf("snapshot = %+v", st)
			}
		})
	}
}

func TestMaybeCreateBonusBlocked(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		e := NewEngine(&scripted{vals: []int{1}})
		for i := 0; i < 3; i++ {
			e.RegisterCorrect()
		}
		if _, ok := e.MaybeCreateBonus(); !ok {
			t.Fatal("expected first offer")
		}
		for i := 0; i < 3; i++ {
			e.RegisterCorrect()
		}
		if kind, ok := e.MaybeCreateBonus(); ok {
			t.Errorf("offered %v while a bonus was pending", kind)
		}
	})

	t.Run("chain active", func(t *testing.T) {
		e := NewEngine(&scripted{vals: []int{0, 1}})
		for i := 0; i < 3; i++ {
			e.RegisterCorrect()
		}
		e.MaybeCreateBonus()
		e.ApplyScoreBonus()
		// Chain re-armed itself; the chain flag alone must block offers.
		e.pending = false
		for i := 0; i < 3; i++ {
			e.RegisterCorrect()
		}
		if kind, ok := e.MaybeCreateBonus(); ok {
			t.Errorf("offered %v during an active chain", kind)
		}
	})
}

func TestScoreChainEscalates(t *testing.T) {
	e := NewEngine(&scripted{vals: []int{0, 1}})

	for i := 0; i < 2; i++ {
		if _, _, ok := answerCorrect(e); ok {
			t.Fatal("unexpected early offer")
		}
	}
	_, kind, ok := answerCorrect(e)
	if !ok || kind != BonusScore || e.ScoreBonusLevel() != 1 {
		t.Fatalf("streak 3: kind=%v ok=%v level=%d", kind, ok, e.ScoreBonusLevel())
	}

	for i, want := range []int{2, 4, 6} {
		before := e.Score()
		res, _, offered := answerCorrect(e)
		if !res.Resolved || res.Kind != BonusScore || res.Granted != want {
			t.Fatalf("step %d: resolution %+v, want +%d", i+1, res, want)
		}
		if offered {
			t.Fatalf("step %d: a new bonus was offered on a resolving answer", i+1)
		}
		if got := e.Score() - before; got != want+1 {
			t.Errorf("step %d: score delta %d, want %d", i+1, got, want+1)
		}
	}

	st := e.Snapshot()
	if st.ChainActive || st.Pending || st.Kind != BonusNone || st.Level != 0 {
		t.Fatalf("chain did not terminate: %+v", st)
	}
	if e.Score() != 18 {
		t.Errorf("score = %d, want 18", e.Score())
	}

	// Streak is 6 now; 7 and 8 do nothing, 9 draws again (scripted 1 → Time).
	answerCorrect(e)
	answerCorrect(e)
	_, kind, ok = answerCorrect(e)
	if !ok || kind != BonusTime {
		t.Errorf("after chain: offer = %v,%v want time,true", kind, ok)
	}
}

func TestApplyScoreBonusNoop(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine)
	}{
		{"nothing pending", func(e *Engine) {}},
		{"time pending", func(e *Engine) {
			e.streak = 3
			e.rng = &scripted{vals: []int{1}}
			e.MaybeCreateBonus()
		}},
		{"simple words pending", func(e *Engine) {
			e.streak = 3
			e.rng = &scripted{vals: []int{2}}
			e.MaybeCreateBonus()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&scripted{vals: []int{0}})
			tt.setup(e)
			before := e.Snapshot()
			if got := e.ApplyScoreBonus(); got != 0 {
				t.Errorf("ApplyScoreBonus() = %d, want 0", got)
			}
			if after := e.Snapshot(); after != before {
				t.Errorf("state changed: %+v → %+v", before, after)
			}
		})
	}
}

func TestCancelBonusFromAnyState(t *testing.T) {
	states := map[string]func(e *Engine){
		"fresh": func(e *Engine) {},
		"score chain level 2": func(e *Engine) {
			e.streak = 3
			e.MaybeCreateBonus()
			e.ApplyScoreBonus()
		},
		"time pending": func(e *Engine) {
			e.rng = &scripted{vals: []int{1}}
			e.streak = 3
			e.MaybeCreateBonus()
		},
		"already canceled": func(e *Engine) { e.CancelBonus() },
	}
	for name, setup := range states {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(&scripted{vals: []int{0}})
			setup(e)
			e.CancelBonus()
			e.CancelBonus()
			if e.BonusPending() || e.BonusKind() != BonusNone || e.ScoreBonusLevel() != 0 || e.ScoreBonusChainActive() {
				t.Errorf("after CancelBonus: %+v", e.Snapshot())
			}
		})
	}
}

func TestIncorrectCancelsTimeBonus(t *testing.T) {
	e := NewEngine(&scripted{vals: []int{1}})
	for i := 0; i < 3; i++ {
		answerCorrect(e)
	}
	if e.BonusKind() != BonusTime {
		t.Fatalf("kind = %v, want time", e.BonusKind())
	}
	e.RegisterIncorrect()
	if e.BonusPending() || e.Streak() != 0 {
		t.Fatalf("after miss: %+v", e.Snapshot())
	}
	if res := e.ResolvePending(); res.Resolved {
		t.Errorf("resolved %+v after cancellation", res)
	}
}

func TestResolvePendingConsumesNonScore(t *testing.T) {
	for _, draw := range []int{1, 2} {
		e := NewEngine(&scripted{vals: []int{draw}})
		for i := 0; i < 3; i++ {
			answerCorrect(e)
		}
		want := e.BonusKind()
		res := e.ResolvePending()
		if !res.Resolved || res.Kind != want || res.Granted != 0 {
			t.Errorf("draw %d: resolution %+v", draw, res)
		}
		if e.BonusPending() || e.BonusKind() != BonusNone {
			t.Errorf("draw %d: bonus still pending", draw)
		}
	}
}

func TestReset(t *testing.T) {
	e := NewEngine(&scripted{vals: []int{0}})
	for i := 0; i < 4; i++ {
		answerCorrect(e)
	}
	e.Reset()
	if st := e.Snapshot(); st != (State{}) {
		t.Errorf("after Reset: %+v", st)
	}
}

func TestBonusKindString(t *testing.T) {
	want := map[BonusKind]string{
		BonusNone:        "none",
		BonusScore:       "score",
		BonusTime:        "time",
		BonusSimpleWords: "simple_words",
	}
	for k, s := range want {
		if k.String() != s {
			t.Errorf("%d.String() = %q, want %q", k, k.String(), s)
		}
	}
}
