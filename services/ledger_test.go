package services

import (
	"context"
	"sync"
	"testing"

	"plated-rewards/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddCoinsWritesTransactionAndBalance(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	res, err := e.ledger.AddCoins(ctx, "alice", 25, models.CoinReasonManual, models.CoinMetadata{Note: "welcome"})
	require.NoError(t, err)
	assert.EqualValues(t, 25, res.Coins)
	assert.EqualValues(t, 25, res.CoinsGained)
	assert.NotEmpty(t, res.Transaction)

	res, err = e.ledger.AddCoins(ctx, "alice", 5, models.CoinReasonManual, models.CoinMetadata{})
	require.NoError(t, err)
	assert.EqualValues(t, 30, res.Coins)

	txns := e.txns(t, "alice")
	require.Len(t, txns, 2)
	assert.Equal(t, models.CoinReasonManual, txns[0].Reason)
	assert.Equal(t, "welcome", txns[0].Metadata.Data().Note)

	var sum int64
	for _, txn := range txns {
		sum += txn.Amount
	}
	assert.Equal(t, e.stats(t, "alice").Coins, sum)
}

func TestAddCoinsRejectsBadInput(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.ledger.AddCoins(ctx, "alice", 0, models.CoinReasonManual, models.CoinMetadata{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.ledger.AddCoins(ctx, "alice", -3, models.CoinReasonManual, models.CoinMetadata{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.ledger.AddCoins(ctx, "alice", 10, models.CoinReason("lottery"), models.CoinMetadata{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.ledger.AddCoins(ctx, "alice", 10, models.CoinReasonCreatorBonus, models.CoinMetadata{RecipeID: "r1"})
	assert.ErrorIs(t, err, ErrInvalidArgument, "creator bonus without from_user_id")

	assert.Empty(t, e.txns(t, "alice"))
	assert.False(t, e.hasStats(t, "alice"))
}

func TestAddCoinsConcurrentCreditsAreNotLost(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.ledger.AddCoins(ctx, "alice", 3, models.CoinReasonManual, models.CoinMetadata{})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	balance, err := e.ledger.GetBalance(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, workers*3, balance)
	assert.Len(t, e.txns(t, "alice"), workers)
}

func TestGetBalanceUnknownUser(t *testing.T) {
	e := newEngine(t)
	balance, err := e.ledger.GetBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestListTransactionsNewestFirst(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	for _, amount := range []int64{1, 2, 3} {
		_, err := e.ledger.AddCoins(ctx, "alice", amount, models.CoinReasonManual, models.CoinMetadata{})
		require.NoError(t, err)
	}

	txns, err := e.ledger.ListTransactions(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	assert.EqualValues(t, 3, txns[0].Amount)
	assert.EqualValues(t, 2, txns[1].Amount)
}
