package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"plated-rewards/models"
	"plated-rewards/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSquad(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	require.NoError(t, e.db.Create(&models.UserProfile{ExternalUserID: "alice", Username: "chef_alice"}).Error)

	squad, err := e.squads.CreateSquad(ctx, "alice", "  Dorm 4B ", " best cooks ")
	require.NoError(t, err)
	assert.Equal(t, "Dorm 4B", squad.Name)
	assert.Equal(t, "best cooks", squad.Description)
	assert.Equal(t, 1, squad.MemberCount)
	require.Len(t, squad.Code, InviteCodeLen)
	for _, r := range squad.Code {
		assert.True(t, strings.ContainsRune(inviteAlphabet, r), "unexpected code symbol %q", r)
	}

	mine, err := e.squads.GetMySquad(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, mine.Squad)
	assert.Equal(t, squad.ID, mine.Squad.ID)
	assert.Equal(t, squad.Code, mine.Squad.Code)
	require.Len(t, mine.Members, 1)
	assert.Equal(t, "chef_alice", mine.Members[0].Username)
	assert.Equal(t, models.SquadRoleLeader, mine.Members[0].Role)

	_, err = e.squads.CreateSquad(ctx, "alice", "Second", "")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreateSquadValidatesName(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	_, err := e.squads.CreateSquad(ctx, "alice", "   ", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.squads.CreateSquad(ctx, "alice", strings.Repeat("x", MaxSquadNameLen+1), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = e.squads.CreateSquad(ctx, "", "Crew", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = e.squads.CreateSquad(ctx, "alice", strings.Repeat("é", MaxSquadNameLen), "")
	assert.NoError(t, err, "length is counted in characters")
}

func TestJoinSquad(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	squad, err := e.squads.CreateSquad(ctx, "alice", "Night Owls", "")
	require.NoError(t, err)

	joined, err := e.squads.JoinSquad(ctx, "bob", " "+strings.ToLower(squad.Code)+" ")
	require.NoError(t, err)
	assert.Equal(t, squad.ID, joined.ID)
	assert.Equal(t, 2, joined.MemberCount)

	_, err = e.squads.JoinSquad(ctx, "bob", squad.Code)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = e.squads.JoinSquad(ctx, "carol", "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.squads.JoinSquad(ctx, "carol", "  ")
	assert.ErrorIs(t, err, ErrInvalidArgument)

	detail, err := e.squads.GetSquad(ctx, squad.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Squad.Code, "invite code is only shown to members")
	assert.Equal(t, 2, detail.Squad.MemberCount)
	require.Len(t, detail.Members, 2)
	assert.Equal(t, "alice", detail.Members[0].UserID)
	assert.Equal(t, "Unknown User", detail.Members[1].Username)

	_, err = e.squads.GetSquad(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaveSquad(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	squad, err := e.squads.CreateSquad(ctx, "alice", "Budget Kings", "")
	require.NoError(t, err)
	_, err = e.squads.JoinSquad(ctx, "bob", squad.Code)
	require.NoError(t, err)

	require.NoError(t, e.squads.LeaveSquad(ctx, "alice"))

	detail, err := e.squads.GetSquad(ctx, squad.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Squad.MemberCount)
	require.Len(t, detail.Members, 1)
	assert.Equal(t, "bob", detail.Members[0].UserID)
	assert.Equal(t, models.SquadRoleLeader, detail.Members[0].Role)

	mine, err := e.squads.GetMySquad(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, mine.Squad)
	assert.NotNil(t, mine.Members)

	require.NoError(t, e.squads.LeaveSquad(ctx, "bob"))
	_, err = e.squads.GetSquad(ctx, squad.ID)
	assert.ErrorIs(t, err, ErrNotFound, "last member leaving deletes the squad")

	assert.ErrorIs(t, e.squads.LeaveSquad(ctx, "bob"), ErrNotFound)
}

func TestCompleteRecipeCreditsSquadPoints(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	testutil.SeedRecipe(t, e.db, "r1", "bob", "flour")
	testutil.SeedRecipe(t, e.db, "r2", "bob", "rice")
	squad, err := e.squads.CreateSquad(ctx, "alice", "Anime Club", "")
	require.NoError(t, err)

	res, err := e.completions.CompleteRecipe(ctx, "alice", "r1", testDay)
	require.NoError(t, err)
	assert.EqualValues(t, 15, res.SquadPoints)

	res, err = e.completions.CompleteRecipe(ctx, "carol", "r1", testDay)
	require.NoError(t, err)
	assert.Zero(t, res.SquadPoints, "no squad, no squad points")

	detail, err := e.squads.GetSquad(ctx, squad.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 15, detail.Squad.WeeklyPoints)
	assert.EqualValues(t, 15, detail.Squad.TotalPoints)
	assert.EqualValues(t, 15, detail.Members[0].WeeklyContribution)

	nextWeek := testDay.AddDate(0, 0, 7)
	e.squads.Now = func() time.Time { return nextWeek }
	detail, err = e.squads.GetSquad(ctx, squad.ID)
	require.NoError(t, err)
	assert.Zero(t, detail.Squad.WeeklyPoints, "weekly points roll over")
	assert.EqualValues(t, 15, detail.Squad.TotalPoints)

	_, err = e.completions.CompleteRecipe(ctx, "alice", "r2", nextWeek)
	require.NoError(t, err)

	var row models.Squad
	require.NoError(t, e.db.Where("id = ?", squad.ID).First(&row).Error)
	assert.EqualValues(t, 15, row.WeeklyPoints)
	assert.EqualValues(t, 30, row.TotalPoints)
	assert.Equal(t, models.WeekKey(nextWeek), row.WeekKey)

	var member models.SquadMember
	require.NoError(t, e.db.Where("user_id = ?", "alice").First(&member).Error)
	assert.EqualValues(t, 15, member.WeeklyContribution)
	assert.EqualValues(t, 30, member.TotalContribution)
}

func TestSquadLeaderboard(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()
	thisWeek := models.WeekKey(testDay)

	score := func(owner, name string, weekly, total int64, week string) string {
		sq, err := e.squads.CreateSquad(ctx, owner, name, "")
		require.NoError(t, err)
		require.NoError(t, e.db.Model(&models.Squad{}).Where("id = ?", sq.ID).Updates(map[string]any{
			"weekly_points": weekly, "total_points": total, "week_key": week,
		}).Error)
		return sq.ID
	}
	stale := score("u1", "Stale", 9000, 9000, "2025-W01")
	top := score("u2", "Top", 300, 400, thisWeek)
	second := score("u3", "Second", 120, 900, thisWeek)

	board, err := e.squads.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, top, board[0].ID)
	assert.Equal(t, 1, board[0].Rank)
	assert.EqualValues(t, 300, board[0].WeeklyPoints)
	assert.Equal(t, second, board[1].ID)
	assert.Equal(t, stale, board[2].ID)
	assert.Zero(t, board[2].WeeklyPoints, "last week's points do not count")
	assert.Equal(t, 3, board[2].Rank)
	for _, sq := range board {
		assert.Empty(t, sq.Code)
	}

	board, err = e.squads.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, top, board[0].ID)
}

func TestGetUserSquadBadge(t *testing.T) {
	e := newEngine(t)
	ctx := context.Background()

	badge, err := e.squads.GetUserSquadBadge(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, &SquadBadge{}, badge)

	squad, err := e.squads.CreateSquad(ctx, "alice", "CS Majors", "")
	require.NoError(t, err)
	badge, err = e.squads.GetUserSquadBadge(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, badge.HasSquad)
	require.NotNil(t, badge.SquadName)
	assert.Equal(t, "CS Majors", *badge.SquadName)
	assert.Equal(t, squad.ID, *badge.SquadID)
}
