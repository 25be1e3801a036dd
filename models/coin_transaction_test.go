package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoinMetadataValidate(t *testing.T) {
	yes := true
	cases := []struct {
		reason CoinReason
		meta   CoinMetadata
		ok     bool
	}{
		{CoinReasonRecipeCompletion, CoinMetadata{RecipeID: "r1", ChaosBonusApplied: &yes}, true},
		{CoinReasonRecipeCompletion, CoinMetadata{RecipeID: "r1"}, false},
		{CoinReasonCreatorBonus, CoinMetadata{RecipeID: "r1", FromUserID: "alice"}, true},
		{CoinReasonCreatorBonus, CoinMetadata{FromUserID: "alice"}, false},
		{CoinReasonTrackCompleted, CoinMetadata{TrackID: "t1"}, true},
		{CoinReasonTrackCompleted, CoinMetadata{}, false},
		{CoinReasonProofSubmitted, CoinMetadata{ProofID: "p1", RecipeID: "r1"}, true},
		{CoinReasonProofVerified, CoinMetadata{ProofID: "p1"}, false},
		{CoinReasonManual, CoinMetadata{}, true},
		{CoinReason("bribe"), CoinMetadata{}, false},
	}
	for _, tc := range cases {
		err := tc.meta.Validate(tc.reason)
		if tc.ok {
			assert.NoError(t, err, "%s %+v", tc.reason, tc.meta)
		} else {
			assert.Error(t, err, "%s %+v", tc.reason, tc.meta)
		}
	}
}

func TestCoinReasonValid(t *testing.T) {
	assert.True(t, CoinReasonProofVerified.Valid())
	assert.False(t, CoinReason("").Valid())
}

func TestDateKey(t *testing.T) {
	assert.Equal(t, "2025-03-10", DateKey(mustDate("2025-03-10")))
}

func mustDate(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2025-W11", WeekKey(time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W11", WeekKey(time.Date(2025, time.March, 16, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W12", WeekKey(time.Date(2025, time.March, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2025-W01", WeekKey(time.Date(2024, time.December, 30, 0, 0, 0, 0, time.UTC)))
}
