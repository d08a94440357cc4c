package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreateByPlatform resolves a platform identity to a user, creating the
// user on first contact. A brand-new user gets their own family group and the
// admin role in it; later family members join through invites.
func (r *UserRepository) GetOrCreateByPlatform(ctx context.Context, platform, platformUserID, displayName, familyName, timezone string) (*models.User, error) {
	user, err := r.GetByPlatform(ctx, platform, platformUserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var familyGroupID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO family_groups (name) VALUES ($1) RETURNING family_group_id`,
		familyName,
	).Scan(&familyGroupID)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		DisplayName:   displayName,
		FamilyGroupID: familyGroupID,
		Role:          "admin",
		Timezone:      timezone,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO users (display_name, family_group_id, role, timezone)
		 VALUES ($1, $2, $3, $4)
		 RETURNING user_id, created_at`,
		user.DisplayName, user.FamilyGroupID, user.Role, user.Timezone,
	).Scan(&user.UserID, &user.CreatedAt)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_platform_links (user_id, platform, platform_user_id, is_primary)
		 VALUES ($1, $2, $3, true)`,
		user.UserID, platform, platformUserID,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByPlatform(ctx context.Context, platform, platformUserID string) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT u.user_id, u.display_name, u.family_group_id, u.role, u.timezone, u.created_at
		 FROM users u
		 JOIN user_platform_links l ON l.user_id = u.user_id
		 WHERE l.platform = $1 AND l.platform_user_id = $2`,
		platform, platformUserID,
	).Scan(&user.UserID, &user.DisplayName, &user.FamilyGroupID, &user.Role, &user.Timezone, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	user := &models.User{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT user_id, display_name, family_group_id, role, timezone, created_at
		 FROM users WHERE user_id = $1`,
		userID,
	).Scan(&user.UserID, &user.DisplayName, &user.FamilyGroupID, &user.Role, &user.Timezone, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetFamilyMemberIDs returns the ids of every user in the group, the given
// user included.
func (r *UserRepository) GetFamilyMemberIDs(ctx context.Context, familyGroupID int64) ([]int64, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT user_id FROM users WHERE family_group_id = $1 ORDER BY user_id ASC`,
		familyGroupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetPlatformLinks returns the user's delivery addresses, primary first.
func (r *UserRepository) GetPlatformLinks(ctx context.Context, userID int64) ([]*models.UserPlatformLink, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT link_id, user_id, platform, platform_user_id, is_primary, created_at
		 FROM user_platform_links WHERE user_id = $1
		 ORDER BY is_primary DESC, link_id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.UserPlatformLink
	for rows.Next() {
		link := &models.UserPlatformLink{}
		if err := rows.Scan(&link.LinkID, &link.UserID, &link.Platform, &link.PlatformUserID,
			&link.IsPrimary, &link.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

func (r *UserRepository) AddPlatformLink(ctx context.Context, link *models.UserPlatformLink) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO user_platform_links (user_id, platform, platform_user_id, is_primary)
		 VALUES ($1, $2, $3, $4)
		 RETURNING link_id, created_at`,
		link.UserID, link.Platform, link.PlatformUserID, link.IsPrimary,
	).Scan(&link.LinkID, &link.CreatedAt)
}

// UpdateFamilyGroup moves a user into another family group as a regular
// member.
func (r *UserRepository) UpdateFamilyGroup(ctx context.Context, userID, familyGroupID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET family_group_id = $1, role = 'member' WHERE user_id = $2`,
		familyGroupID, userID,
	)
	return err
}

func (r *UserRepository) GetFamilyGroup(ctx context.Context, familyGroupID int64) (*models.FamilyGroup, error) {
	group := &models.FamilyGroup{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT family_group_id, name, created_at FROM family_groups WHERE family_group_id = $1`,
		familyGroupID,
	).Scan(&group.FamilyGroupID, &group.Name, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return group, nil
}
