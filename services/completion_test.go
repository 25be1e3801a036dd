package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"plated-rewards/models"
	"plated-rewards/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCompleteRecipeAliceCooksBobsRecipe(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedRecipe(t, e.db, "r1", "bob", "flour")

	res, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.EqualValues(t, 10, res.Reward)
	assert.EqualValues(t, 0, res.ChaosBonus)
	assert.EqualValues(t, 15, res.XPGained)
	assert.EqualValues(t, 5, res.CreatorBonus)
	assert.False(t, res.LevelUp)

	alice := e.stats(t, "alice")
	assert.EqualValues(t, 10, alice.Coins)
	assert.EqualValues(t, 15, alice.XP)
	assert.Equal(t, 1, alice.Level)

	bob := e.stats(t, "bob")
	assert.EqualValues(t, 5, bob.Coins)
	assert.EqualValues(t, 0, bob.XP)

	aliceTxns := e.txns(t, "alice")
	require.Len(t, aliceTxns, 1)
	assert.Equal(t, models.CoinReasonRecipeCompletion, aliceTxns[0].Reason)
	meta := aliceTxns[0].Metadata.Data()
	assert.Equal(t, "r1", meta.RecipeID)
	require.NotNil(t, meta.ChaosBonusApplied)
	assert.False(t, *meta.ChaosBonusApplied)

	bobTxns := e.txns(t, "bob")
	require.Len(t, bobTxns, 1)
	assert.Equal(t, models.CoinReasonCreatorBonus, bobTxns[0].Reason)
	assert.EqualValues(t, 5, bobTxns[0].Amount)
	assert.Equal(t, "alice", bobTxns[0].Metadata.Data().FromUserID)
}

func TestCompleteRecipeChaosSubstringMatch(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedChaos(t, e.db, testDay, "egg", 2.0)
	testutil.SeedRecipe(t, e.db, "baba", "bob", "eggplant", "tahini")

	res, err := e.completions.CompleteRecipe(ctx, "alice", "baba", testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.ChaosBonus)
	assert.EqualValues(t, 20, res.Reward)
	assert.EqualValues(t, 30, res.XPGained)

	alice := e.stats(t, "alice")
	assert.EqualValues(t, 20, alice.Coins)
	assert.EqualValues(t, 30, alice.XP)

	txns := e.txns(t, "alice")
	require.Len(t, txns, 1)
	assert.True(t, *txns[0].Metadata.Data().ChaosBonusApplied)
}

func TestCompleteRecipeChaosFractionalMultiplierFloors(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedChaos(t, e.db, testDay, "lemon", 1.25)
	testutil.SeedRecipe(t, e.db, "tart", "bob", "lemon zest")

	res, err := e.completions.CompleteRecipe(ctx, "alice", "tart", testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.ChaosBonus)
	assert.EqualValues(t, 12, res.Reward)
	assert.EqualValues(t, 18, res.XPGained)
}

func TestCompleteRecipeTwiceIsIdempotent(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedRecipe(t, e.db, "r1", "bob")

	_, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	_, err = e.streak.RecordActivity(ctx, "alice", testDay)
	require.NoError(t, err)
	before := e.stats(t, "alice")

	again, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.True(t, again.AlreadyCompleted)
	assert.EqualValues(t, 0, again.Reward)
	assert.EqualValues(t, 0, again.XPGained)
	assert.Equal(t, "Already completed", again.Message)

	after := e.stats(t, "alice")
	assert.Equal(t, before.Coins, after.Coins)
	assert.Equal(t, before.XP, after.XP)
	assert.Equal(t, before.CurrentStreak, after.CurrentStreak)
	assert.Len(t, e.txns(t, "alice"), 1)
	assert.EqualValues(t, 5, e.stats(t, "bob").Coins)
}

func TestCompleteRecipeConcurrentCallsRewardOnce(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedRecipe(t, e.db, "r1", "bob")

	const callers = 6
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		fresh   int
		callErr error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				callErr = err
				return
			}
			if !res.AlreadyCompleted {
				fresh++
			}
		}()
	}
	wg.Wait()

	require.NoError(t, callErr)
	assert.Equal(t, 1, fresh)
	assert.EqualValues(t, 10, e.stats(t, "alice").Coins)
	assert.EqualValues(t, 5, e.stats(t, "bob").Coins)
}

func TestCompleteRecipeOwnRecipeHasNoCreatorBonus(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedRecipe(t, e.db, "r1", "alice")

	res, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 0, res.CreatorBonus)
	assert.EqualValues(t, 10, e.stats(t, "alice").Coins)
	assert.Len(t, e.txns(t, "alice"), 1)
}

func TestCompleteRecipeUnknownRecipeHasNoCreatorBonus(t *testing.T) {
	e := newEngine(t)
	res, err := e.completions.CompleteRecipe(context.Background(), "alice", "mystery", testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 10, res.Reward)
	assert.EqualValues(t, 0, res.CreatorBonus)

	var n int64
	require.NoError(t, e.db.Model(&models.CoinTransaction{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestCompleteRecipeLevelUp(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	_, err := e.progression.AddExperience(ctx, "alice", 90)
	require.NoError(t, err)

	res, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.True(t, res.LevelUp)
	assert.Equal(t, 2, e.stats(t, "alice").Level)
}

func TestCompleteRecipeRejectsMalformedIDs(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.completions.CompleteRecipe(ctx, "", "r1", testDay)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.completions.CompleteRecipe(ctx, "alice", "r 1", testDay)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCompleteRecipeSkillTrackBonusPaidOnce(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	recipes := make([]string, 6)
	for i := range recipes {
		recipes[i] = fmt.Sprintf("pasta-%d", i+1)
		testutil.SeedRecipe(t, e.db, recipes[i], "chef")
	}
	trackID := testutil.SeedTrack(t, e.db, "pasta-basics", recipes...)

	for i := 0; i < 4; i++ {
		res, err := e.completions.CompleteRecipe(ctx, "alice", recipes[i], testDay)
		require.NoError(t, err)
		require.Len(t, res.Tracks, 1)
		assert.Equal(t, i+1, res.Tracks[0].CompletedRecipes)
		assert.False(t, res.Tracks[0].Completed)
	}

	fifth, err := e.completions.CompleteRecipe(ctx, "alice", recipes[4], testDay)
	require.NoError(t, err)
	require.Len(t, fifth.Tracks, 1)
	assert.Equal(t, TrackAdvance{TrackID: trackID, CompletedRecipes: 5, Completed: true}, fifth.Tracks[0])
	assert.EqualValues(t, 5*BaseCompletionCoins+TrackCompletionBonus, e.stats(t, "alice").Coins)

	var progress models.SkillTrackProgress
	require.NoError(t, e.db.Where("user_id = ? AND track_id = ?", "alice", trackID).First(&progress).Error)
	require.NotNil(t, progress.CompletedAt)
	completedAt := *progress.CompletedAt

	e.completions.Now = func() time.Time { return testDay.AddDate(0, 0, 1) }
	sixth, err := e.completions.CompleteRecipe(ctx, "alice", recipes[5], testDay.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, sixth.Tracks[0].Completed)
	assert.Equal(t, 6, sixth.Tracks[0].CompletedRecipes)
	assert.EqualValues(t, 6*BaseCompletionCoins+TrackCompletionBonus, e.stats(t, "alice").Coins)

	require.NoError(t, e.db.Where("user_id = ? AND track_id = ?", "alice", trackID).First(&progress).Error)
	assert.True(t, completedAt.Equal(*progress.CompletedAt), "completed_at must not move")

	var bonuses int64
	require.NoError(t, e.db.Model(&models.CoinTransaction{}).
		Where("user_id = ? AND reason = ?", "alice", models.CoinReasonTrackCompleted).
		Count(&bonuses).Error)
	assert.EqualValues(t, 1, bonuses)
}

func TestListCompletionsOldestFirstWithProfiles(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	avatar := "https://cdn.example/alice.png"
	require.NoError(t, e.db.Create(&models.UserProfile{
		ExternalUserID:    "alice",
		Username:          "alice_cooks",
		ProfilePictureURL: &avatar,
	}).Error)

	base := testDay.Add(8 * time.Hour)
	for i, user := range []string{"carol", "alice", "dave"} {
		require.NoError(t, e.db.Create(&models.RecipeCompletion{
			UserID:    user,
			RecipeID:  "r1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}).Error)
	}

	chain, err := e.completions.ListCompletions(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, chain, 3)
	assert.Equal(t, "carol", chain[0].UserID)
	assert.Equal(t, "Unknown User", chain[0].Username)
	assert.Nil(t, chain[0].AvatarURL)
	assert.Equal(t, "alice_cooks", chain[1].Username)
	require.NotNil(t, chain[1].AvatarURL)
	assert.Equal(t, avatar, *chain[1].AvatarURL)
	assert.Equal(t, "dave", chain[2].UserID)
}

func TestListCompletionsKeepsMostRecentFifty(t *testing.T) {
	e := newEngine(t)
	base := testDay.Add(8 * time.Hour)
	for i := 0; i < CompletionChainLimit+5; i++ {
		require.NoError(t, e.db.Create(&models.RecipeCompletion{
			UserID:    fmt.Sprintf("user-%02d", i),
			RecipeID:  "r1",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}).Error)
	}

	chain, err := e.completions.ListCompletions(context.Background(), "r1")
	require.NoError(t, err)
	require.Len(t, chain, CompletionChainLimit)
	assert.Equal(t, "user-05", chain[0].UserID)
	assert.Equal(t, "user-54", chain[len(chain)-1].UserID)
}

func TestListCompletionsEmpty(t *testing.T) {
	e := newEngine(t)
	chain, err := e.completions.ListCompletions(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, chain)
	assert.Empty(t, chain)
}

func TestCompleteRecipeFailureLeavesNoPartialState(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedRecipe(t, e.db, "r1", "bob", "flour")

	failCreatorBonus := true
	require.NoError(t, e.db.Callback().Create().Before("gorm:create").Register("test:fail_creator_bonus", func(tx *gorm.DB) {
		txn, ok := tx.Statement.Dest.(*models.CoinTransaction)
		if failCreatorBonus && ok && txn.Reason == models.CoinReasonCreatorBonus {
			_ = tx.AddError(errors.New("boom"))
		}
	}))

	_, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "boom")

	var completions, txns int64
	require.NoError(t, e.db.Model(&models.RecipeCompletion{}).Count(&completions).Error)
	require.NoError(t, e.db.Model(&models.CoinTransaction{}).Count(&txns).Error)
	assert.Zero(t, completions)
	assert.Zero(t, txns)
	assert.False(t, e.hasStats(t, "alice"))
	assert.False(t, e.hasStats(t, "bob"))

	failCreatorBonus = false
	res, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.False(t, res.AlreadyCompleted)
	assert.EqualValues(t, 10, res.Reward)

	res, err = e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.True(t, res.AlreadyCompleted)

	alice := e.stats(t, "alice")
	assert.EqualValues(t, 10, alice.Coins)
	assert.EqualValues(t, 15, alice.XP)
	assert.Len(t, e.txns(t, "alice"), 1)
	assert.EqualValues(t, 5, e.stats(t, "bob").Coins)
	assert.Len(t, e.txns(t, "bob"), 1)
}
