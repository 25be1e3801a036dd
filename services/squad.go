package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"plated-rewards/models"
	"plated-rewards/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxSquadNameLen = 30
	InviteCodeLen   = 6

	inviteCodeAttempts      = 5
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 50
)

// inviteAlphabet has 32 symbols so a random byte maps onto it without bias.
// 0/O and 1/I are left out.
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// SquadView is a squad as shown to clients. WeeklyPoints is zero when the
// squad has not scored in the current week. Code is only set for members.
type SquadView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code,omitempty"`
	Description  string    `json:"description"`
	WeeklyPoints int64     `json:"weekly_points"`
	TotalPoints  int64     `json:"total_points"`
	MemberCount  int       `json:"member_count"`
	Rank         int       `json:"rank,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type SquadMemberView struct {
	UserID             string           `json:"user_id"`
	Username           string           `json:"username"`
	AvatarURL          *string          `json:"profile_pic"`
	Role               models.SquadRole `json:"role"`
	WeeklyContribution int64            `json:"weekly_contribution"`
	JoinedAt           time.Time        `json:"joined_at"`
}

// SquadDetail is a squad with its members, top weekly contributors first.
// Squad is nil when the caller has no squad.
type SquadDetail struct {
	Squad   *SquadView        `json:"squad"`
	Members []SquadMemberView `json:"members"`
}

// SquadBadge is the squad tag rendered on profile cards.
type SquadBadge struct {
	HasSquad  bool    `json:"has_squad"`
	SquadName *string `json:"squad_name"`
	SquadID   *string `json:"squad_id"`
}

type SquadService struct {
	DB       *gorm.DB
	Log      *zap.SugaredLogger
	Profiles ProfileDirectory
	Now      func() time.Time
}

func NewSquadService(db *gorm.DB, log *zap.SugaredLogger, profiles ProfileDirectory) *SquadService {
	return &SquadService{DB: db, Log: utils.OrNop(log), Profiles: profiles, Now: time.Now}
}

func (s *SquadService) week() string {
	return models.WeekKey(s.Now().UTC())
}

var errInviteCodeTaken = errors.New("invite code taken")

func newInviteCode() string {
	id := uuid.New()
	code := make([]byte, InviteCodeLen)
	for i := range code {
		code[i] = inviteAlphabet[int(id[i])%len(inviteAlphabet)]
	}
	return string(code)
}

func normalizeInviteCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *SquadService) ensureNoSquad(db *gorm.DB, userID string) error {
	var n int64
	if err := db.Model(&models.SquadMember{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return storeErr("check squad membership", err)
	}
	if n > 0 {
		return errors.Join(ErrAlreadyExists, errors.New("already in a squad, leave it first"))
	}
	return nil
}

// CreateSquad creates a squad led by userID and returns it with its invite code.
func (s *SquadService) CreateSquad(ctx context.Context, userID, name, description string) (*SquadView, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalidf("squad name is required")
	}
	if utf8.RuneCountInString(name) > MaxSquadNameLen {
		return nil, invalidf("squad name must be %d characters or less", MaxSquadNameLen)
	}

	db := s.DB.WithContext(ctx)
	if err := s.ensureNoSquad(db, userID); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		squad := models.Squad{
			Name:        name,
			Code:        newInviteCode(),
			Description: strings.TrimSpace(description),
			CreatedBy:   userID,
			MemberCount: 1,
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			insert := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&squad)
			if insert.Error != nil {
				return insert.Error
			}
			if insert.RowsAffected == 0 {
				return errInviteCodeTaken
			}
			join := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.SquadMember{
				SquadID: squad.ID,
				UserID:  userID,
				Role:    models.SquadRoleLeader,
			})
			if join.Error != nil {
				return join.Error
			}
			if join.RowsAffected == 0 {
				return errors.Join(ErrAlreadyExists, errors.New("already in a squad, leave it first"))
			}
			return nil
		})
		if errors.Is(err, errInviteCodeTaken) {
			continue
		}
		if err != nil {
			return nil, storeErr("create squad", err)
		}

		s.Log.Infow("squad created", "user_id", userID, "squad_id", squad.ID, "name", name)
		view := s.view(&squad)
		view.Code = squad.Code
		return view, nil
	}
	return nil, storeErr("create squad", errors.New("could not allocate a unique invite code"))
}

// JoinSquad adds userID to the squad with the given invite code.
func (s *SquadService) JoinSquad(ctx context.Context, userID, code string) (*SquadView, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	code = normalizeInviteCode(code)
	if code == "" {
		return nil, invalidf("invite code is required")
	}

	db := s.DB.WithContext(ctx)
	if err := s.ensureNoSquad(db, userID); err != nil {
		return nil, err
	}

	var squad models.Squad
	if err := db.Where("code = ?", code).Limit(1).Find(&squad).Error; err != nil {
		return nil, storeErr("find squad", err)
	}
	if squad.ID == "" {
		return nil, errors.Join(ErrNotFound, errors.New("invalid invite code"))
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		join := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.SquadMember{
			SquadID: squad.ID,
			UserID:  userID,
			Role:    models.SquadRoleMember,
		})
		if join.Error != nil {
			return join.Error
		}
		if join.RowsAffected == 0 {
			return errors.Join(ErrAlreadyExists, errors.New("already in a squad, leave it first"))
		}
		bump := tx.Model(&models.Squad{}).Where("id = ?", squad.ID).
			Update("member_count", gorm.Expr("member_count + 1"))
		if bump.Error != nil {
			return bump.Error
		}
		if bump.RowsAffected == 0 {
			return errors.Join(ErrNotFound, errors.New("squad no longer exists"))
		}
		return tx.Where("id = ?", squad.ID).First(&squad).Error
	})
	if err != nil {
		return nil, storeErr("join squad", err)
	}

	s.Log.Infow("squad joined", "user_id", userID, "squad_id", squad.ID)
	view := s.view(&squad)
	view.Code = squad.Code
	return view, nil
}

// LeaveSquad removes userID from their squad. The last member leaving deletes
// the squad; a departing leader hands over to the longest-standing member.
func (s *SquadService) LeaveSquad(ctx context.Context, userID string) error {
	if err := validateID("user_id", userID); err != nil {
		return err
	}

	var member models.SquadMember
	deleted := false
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Limit(1).Find(&member).Error; err != nil {
			return err
		}
		if member.ID == "" {
			return errors.Join(ErrNotFound, errors.New("not in a squad"))
		}
		if err := tx.Delete(&models.SquadMember{}, "id = ?", member.ID).Error; err != nil {
			return err
		}

		var remaining int64
		if err := tx.Model(&models.SquadMember{}).Where("squad_id = ?", member.SquadID).Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			deleted = true
			return tx.Delete(&models.Squad{}, "id = ?", member.SquadID).Error
		}

		if err := tx.Model(&models.Squad{}).Where("id = ?", member.SquadID).
			Update("member_count", remaining).Error; err != nil {
			return err
		}
		if member.Role != models.SquadRoleLeader {
			return nil
		}
		var heir models.SquadMember
		if err := tx.Where("squad_id = ?", member.SquadID).
			Order("joined_at ASC").Order("id ASC").
			First(&heir).Error; err != nil {
			return err
		}
		return tx.Model(&models.SquadMember{}).Where("id = ?", heir.ID).
			Update("role", models.SquadRoleLeader).Error
	})
	if err != nil {
		return storeErr("leave squad", err)
	}

	s.Log.Infow("squad left", "user_id", userID, "squad_id", member.SquadID, "squad_deleted", deleted)
	return nil
}

// GetSquad returns a squad and its members. The invite code is not included.
func (s *SquadService) GetSquad(ctx context.Context, squadID string) (*SquadDetail, error) {
	if err := validateID("squad_id", squadID); err != nil {
		return nil, err
	}
	var squad models.Squad
	if err := s.DB.WithContext(ctx).Where("id = ?", squadID).Limit(1).Find(&squad).Error; err != nil {
		return nil, storeErr("get squad", err)
	}
	if squad.ID == "" {
		return nil, errors.Join(ErrNotFound, errors.New("squad not found"))
	}
	return s.detail(ctx, &squad)
}

// GetMySquad returns the caller's squad, including its invite code.
func (s *SquadService) GetMySquad(ctx context.Context, userID string) (*SquadDetail, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	var member models.SquadMember
	if err := db.Where("user_id = ?", userID).Limit(1).Find(&member).Error; err != nil {
		return nil, storeErr("get squad membership", err)
	}
	if member.ID == "" {
		return &SquadDetail{Members: []SquadMemberView{}}, nil
	}

	var squad models.Squad
	if err := db.Where("id = ?", member.SquadID).Limit(1).Find(&squad).Error; err != nil {
		return nil, storeErr("get squad", err)
	}
	if squad.ID == "" {
		return &SquadDetail{Members: []SquadMemberView{}}, nil
	}
	detail, err := s.detail(ctx, &squad)
	if err != nil {
		return nil, err
	}
	detail.Squad.Code = squad.Code
	return detail, nil
}

// Leaderboard ranks squads by points scored this week. Ties go to the higher
// all-time total, then to the older squad.
func (s *SquadService) Leaderboard(ctx context.Context, limit int) ([]SquadView, error) {
	if limit < 1 || limit > maxLeaderboardLimit {
		limit = defaultLeaderboardLimit
	}
	var squads []models.Squad
	err := s.DB.WithContext(ctx).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN week_key = ? THEN weekly_points ELSE 0 END DESC, total_points DESC, created_at ASC",
			Vars:               []any{s.week()},
			WithoutParentheses: true,
		}}).
		Limit(limit).
		Find(&squads).Error
	if err != nil {
		return nil, storeErr("squad leaderboard", err)
	}

	out := make([]SquadView, 0, len(squads))
	for i := range squads {
		v := s.view(&squads[i])
		v.Rank = i + 1
		out = append(out, *v)
	}
	return out, nil
}

// GetUserSquadBadge reports which squad, if any, userID belongs to.
func (s *SquadService) GetUserSquadBadge(ctx context.Context, userID string) (*SquadBadge, error) {
	if err := validateID("user_id", userID); err != nil {
		return nil, err
	}
	var row struct {
		SquadID string
		Name    string
	}
	err := s.DB.WithContext(ctx).
		Table("squad_members").
		Select("squad_members.squad_id, squads.name").
		Joins("JOIN squads ON squads.id = squad_members.squad_id").
		Where("squad_members.user_id = ?", userID).
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, storeErr("get squad badge", err)
	}
	if row.SquadID == "" {
		return &SquadBadge{}, nil
	}
	return &SquadBadge{HasSquad: true, SquadName: &row.Name, SquadID: &row.SquadID}, nil
}

func (s *SquadService) view(squad *models.Squad) *SquadView {
	v := &SquadView{
		ID:          squad.ID,
		Name:        squad.Name,
		Description: squad.Description,
		TotalPoints: squad.TotalPoints,
		MemberCount: squad.MemberCount,
		CreatedAt:   squad.CreatedAt,
	}
	if squad.WeekKey == s.week() {
		v.WeeklyPoints = squad.WeeklyPoints
	}
	return v
}

func (s *SquadService) detail(ctx context.Context, squad *models.Squad) (*SquadDetail, error) {
	week := s.week()
	var members []models.SquadMember
	err := s.DB.WithContext(ctx).
		Where("squad_id = ?", squad.ID).
		Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "CASE WHEN week_key = ? THEN weekly_contribution ELSE 0 END DESC, joined_at ASC",
			Vars:               []any{week},
			WithoutParentheses: true,
		}}).
		Find(&members).Error
	if err != nil {
		return nil, storeErr("list squad members", err)
	}

	out := make([]SquadMemberView, 0, len(members))
	for _, m := range members {
		mv := SquadMemberView{UserID: m.UserID, Username: "Unknown User", Role: m.Role, JoinedAt: m.JoinedAt}
		if m.WeekKey == week {
			mv.WeeklyContribution = m.WeeklyContribution
		}
		if s.Profiles != nil {
			profile, err := s.Profiles.GetUser(ctx, m.UserID)
			if err != nil {
				s.Log.Warnw("profile lookup failed", "user_id", m.UserID, "error", err)
			} else if profile != nil {
				mv.Username = profile.Username
				mv.AvatarURL = profile.ProfilePictureURL
			}
		}
		out = append(out, mv)
	}
	return &SquadDetail{Squad: s.view(squad), Members: out}, nil
}

// addSquadPoints credits points to userID's squad and membership for the week
// of today. It runs inside the caller's transaction and is a no-op for users
// without a squad.
func addSquadPoints(tx *gorm.DB, userID string, points int64, today time.Time) (bool, error) {
	if points <= 0 {
		return false, nil
	}
	var member models.SquadMember
	if err := tx.Where("user_id = ?", userID).Limit(1).Find(&member).Error; err != nil {
		return false, err
	}
	if member.ID == "" {
		return false, nil
	}

	week := models.WeekKey(today)
	if err := tx.Model(&models.SquadMember{}).Where("id = ?", member.ID).Updates(map[string]any{
		"weekly_contribution": gorm.Expr("CASE WHEN week_key = ? THEN weekly_contribution + ? ELSE ? END", week, points, points),
		"total_contribution":  gorm.Expr("total_contribution + ?", points),
		"week_key":            week,
	}).Error; err != nil {
		return false, err
	}
	if err := tx.Model(&models.Squad{}).Where("id = ?", member.SquadID).Updates(map[string]any{
		"weekly_points": gorm.Expr("CASE WHEN week_key = ? THEN weekly_points + ? ELSE ? END", week, points, points),
		"total_points":  gorm.Expr("total_points + ?", points),
		"week_key":      week,
	}).Error; err != nil {
		return false, err
	}
	return true, nil
}
