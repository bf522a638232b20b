package ratings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	tests := []struct {
		name           string
		winner         int
		loser          int
		kFactor        int
		expectedWinner int
		expectedLoser  int
	}{{
		"equal ratings split the k-factor",
		1200, 1200, 32,
		1216, 1184,
	}, {
		"favourite gains little",
		1400, 1000, 32,
		1403, 997,
	}, {
		"underdog gains a lot",
		1000, 1400, 32,
		1029, 1371,
	}, {
		"higher k-factor moves ratings further",
		1200, 1200, 64,
		1232, 1168,
	}, {
		"huge gap yields no movement",
		1200, 10, 32,
		1200, 10,
	}, {
		"loser is clamped at the floor",
		100, 2, 32,
		112, 0,
	}, {
		"loser cannot go negative",
		50, 5, 32,
		64, 0,
	}, {
		"non-positive k-factor falls back to the default",
		1200, 1200, 0,
		1216, 1184,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			gotWinner, gotLoser := Apply(test.winner, test.loser, test.kFactor)
			assert.Equal(t, test.expectedWinner, gotWinner)
			assert.Equal(t, test.expectedLoser, gotLoser)
		})
	}
}

func TestApplyIsDeterministic(t *testing.T) {
	w1, l1 := Apply(1337, 1205, 24)
	for i := 0; i < 100; i++ {
		w2, l2 := Apply(1337, 1205, 24)
		assert.Equal(t, w1, w2)
		assert.Equal(t, l1, l2)
	}
}

func TestApplyDeltaNeverNegative(t *testing.T) {
	// Победитель никогда не теряет рейтинг, даже будучи явным фаворитом.
	tests := [][2]int{{2400, 800}, {2000, 1000}, {1201, 1200}, {1200, 1200}}
	for _, pair := range tests {
		newWinner, newLoser := Apply(pair[0], pair[1], 32)
		assert.GreaterOrEqual(t, newWinner, pair[0])
		assert.LessOrEqual(t, newLoser, pair[1])
	}
}
