package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jykim632/secretary/internal/database"
	"github.com/jykim632/secretary/internal/models"
)

type InviteRepository struct {
	db *database.DB
}

func NewInviteRepository(db *database.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, invite *models.FamilyInvite) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO family_invites (family_group_id, code, created_by, expires_at, max_uses)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING invite_id, created_at`,
		invite.FamilyGroupID, invite.Code, invite.CreatedBy, invite.ExpiresAt, invite.MaxUses,
	).Scan(&invite.InviteID, &invite.CreatedAt)
}

// GetByCode returns (nil, nil) when the code is unknown.
func (r *InviteRepository) GetByCode(ctx context.Context, code string) (*models.FamilyInvite, error) {
	invite := &models.FamilyInvite{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT invite_id, family_group_id, code, created_by, expires_at, max_uses, use_count, is_active, created_at
		 FROM family_invites WHERE code = $1`,
		code,
	).Scan(&invite.InviteID, &invite.FamilyGroupID, &invite.Code, &invite.CreatedBy,
		&invite.ExpiresAt, &invite.MaxUses, &invite.UseCount, &invite.IsActive, &invite.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return invite, nil
}

func (r *InviteRepository) IncrementUse(ctx context.Context, inviteID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE family_invites SET use_count = use_count + 1 WHERE invite_id = $1`,
		inviteID,
	)
	return err
}

func (r *InviteRepository) Deactivate(ctx context.Context, inviteID, familyGroupID int64) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE family_invites SET is_active = false
		 WHERE invite_id = $1 AND family_group_id = $2`,
		inviteID, familyGroupID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *InviteRepository) ListActive(ctx context.Context, familyGroupID int64) ([]*models.FamilyInvite, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT invite_id, family_group_id, code, created_by, expires_at, max_uses, use_count, is_active, created_at
		 FROM family_invites WHERE family_group_id = $1 AND is_active = true
		 ORDER BY created_at DESC`,
		familyGroupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []*models.FamilyInvite
	for rows.Next() {
		invite := &models.FamilyInvite{}
		if err := rows.Scan(&invite.InviteID, &invite.FamilyGroupID, &invite.Code, &invite.CreatedBy,
			&invite.ExpiresAt, &invite.MaxUses, &invite.UseCount, &invite.IsActive, &invite.CreatedAt); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}
