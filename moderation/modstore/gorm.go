package modstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements ModStore on top of a gorm database handle (sqlite or
// postgres; see util/cliutil.SetupDatabase for URL handling).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(
		&RoleAssignment{},
		&Warn{},
		&Mute{},
		&Ban{},
		&BlacklistWord{},
		&KnownChat{},
	); err != nil {
		return nil, fmt.Errorf("migrating moderation schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) SetRole(ctx context.Context, user int64, role string, scope int64) error {
	// single conflict-guarded upsert; the unique (user_id, scope) index keeps
	// at most one effective role per user and scope
	row := RoleAssignment{UserID: user, Role: role, Scope: scope}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&row).Error
}

func (s *GormStore) RemoveRoles(ctx context.Context, user, scope int64) error {
	return s.db.WithContext(ctx).Where("user_id = ? AND scope = ?", user, scope).Delete(&RoleAssignment{}).Error
}

func (s *GormStore) RemoveAllRoles(ctx context.Context, user int64) error {
	return s.db.WithContext(ctx).Where("user_id = ?", user).Delete(&RoleAssignment{}).Error
}

func (s *GormStore) RoleFor(ctx context.Context, user, scope int64) (string, bool, error) {
	var rows []RoleAssignment
	err := s.db.WithContext(ctx).Where("user_id = ? AND scope = ?", user, scope).Order("id desc").Limit(1).Find(&rows).Error
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].Role, true, nil
}

func (s *GormStore) RolesInScope(ctx context.Context, scope int64) ([]RoleAssignment, error) {
	var rows []RoleAssignment
	err := s.db.WithContext(ctx).Where("scope = ?", scope).Order("id asc").Find(&rows).Error
	return rows, err
}

func (s *GormStore) AddWarn(ctx context.Context, user, issuer int64, reason string, scope int64) error {
	row := Warn{UserID: user, IssuedBy: issuer, Reason: reason, CreatedAt: time.Now(), Scope: scope}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) WarnsOf(ctx context.Context, user int64) ([]Warn, error) {
	var rows []Warn
	err := s.db.WithContext(ctx).Where("user_id = ?", user).Order("id asc").Find(&rows).Error
	return rows, err
}

func (s *GormStore) RemoveLastWarn(ctx context.Context, user int64) (bool, error) {
	var rows []Warn
	err := s.db.WithContext(ctx).Where("user_id = ?", user).Order("id desc").Limit(1).Find(&rows).Error
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	if err := s.db.WithContext(ctx).Delete(&Warn{}, rows[0].ID).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *GormStore) AddMute(ctx context.Context, user, issuer int64, until time.Time, reason string, scope int64) error {
	row := Mute{UserID: user, IssuedBy: issuer, Until: until, Reason: reason, Scope: scope}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) MutesOf(ctx context.Context, user int64) ([]Mute, error) {
	var rows []Mute
	err := s.db.WithContext(ctx).Where("user_id = ?", user).Order("id asc").Find(&rows).Error
	return rows, err
}

func (s *GormStore) AllMutes(ctx context.Context) ([]Mute, error) {
	var rows []Mute
	err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error
	return rows, err
}

func (s *GormStore) DeleteMute(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&Mute{}, id).Error
}

func (s *GormStore) DeleteMutes(ctx context.Context, user, scope int64) error {
	return s.db.WithContext(ctx).Where("user_id = ? AND scope = ?", user, scope).Delete(&Mute{}).Error
}

func (s *GormStore) AddBan(ctx context.Context, user, issuer int64, reason string, scope int64) error {
	row := Ban{UserID: user, IssuedBy: issuer, Reason: reason, CreatedAt: time.Now(), Scope: scope}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) BansOf(ctx context.Context, user int64) ([]Ban, error) {
	var rows []Ban
	err := s.db.WithContext(ctx).Where("user_id = ?", user).Order("id asc").Find(&rows).Error
	return rows, err
}

func (s *GormStore) RemoveBans(ctx context.Context, user, scope int64) error {
	return s.db.WithContext(ctx).Where("user_id = ? AND scope = ?", user, scope).Delete(&Ban{}).Error
}

func (s *GormStore) RemoveAllBans(ctx context.Context, user int64) error {
	return s.db.WithContext(ctx).Where("user_id = ?", user).Delete(&Ban{}).Error
}

func (s *GormStore) AddBlacklistWord(ctx context.Context, word string) error {
	row := BlacklistWord{Word: strings.ToLower(word)}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *GormStore) RemoveBlacklistWord(ctx context.Context, word string) error {
	return s.db.WithContext(ctx).Where("word = ?", strings.ToLower(word)).Delete(&BlacklistWord{}).Error
}

func (s *GormStore) BlacklistWords(ctx context.Context) ([]string, error) {
	var words []string
	err := s.db.WithContext(ctx).Model(&BlacklistWord{}).Order("id asc").Pluck("word", &words).Error
	return words, err
}

func (s *GormStore) AddChat(ctx context.Context, conversation int64) error {
	row := KnownChat{Conversation: conversation}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
}

func (s *GormStore) Chats(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&KnownChat{}).Order("conversation asc").Pluck("conversation", &ids).Error
	return ids, err
}

func (s *GormStore) Wipe(ctx context.Context, table string) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	switch table {
	case TableWarns:
		return db.Delete(&Warn{}).Error
	case TableMutes:
		return db.Delete(&Mute{}).Error
	case TableRoles:
		return db.Delete(&RoleAssignment{}).Error
	case TableBans:
		return db.Delete(&Ban{}).Error
	case TableBlacklist:
		return db.Delete(&BlacklistWord{}).Error
	case TableChats:
		return db.Delete(&KnownChat{}).Error
	default:
		return fmt.Errorf("unknown wipe target: %s", table)
	}
}
