package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hackup/backend/internal/models"
	"gorm.io/gorm"
)

// VoteAction describes what a toggle did
type VoteAction string

const (
	VoteCreated VoteAction = "created"
	VoteChanged VoteAction = "changed"
	VoteRemoved VoteAction = "removed"
)

// Vote is the target-independent view of a post or comment vote row
type Vote struct {
	ID        string          `json:"id"`
	ItemID    string          `json:"item_id"`
	UserID    string          `json:"user_id"`
	VoteType  models.VoteType `json:"vote_type"`
	CreatedAt time.Time       `json:"created_at"`
}

// ToggleResult is the outcome of Toggle. Vote is nil when the vote was removed.
type ToggleResult struct {
	Action VoteAction
	Vote   *models.VoteType
}

// VoteRepository manages votes on posts and comments. At most one row
// exists per (item, user); the unique index enforces it.
type VoteRepository interface {
	Get(ctx context.Context, target VoteTarget, itemID, userID string) (*Vote, error)
	Set(ctx context.Context, target VoteTarget, itemID, userID string, voteType models.VoteType) (*Vote, error)
	Clear(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error)
	Toggle(ctx context.Context, target VoteTarget, itemID, userID string, voteType models.VoteType) (*ToggleResult, error)
	List(ctx context.Context, target VoteTarget, itemID string) ([]Vote, error)
	Counts(ctx context.Context, target VoteTarget, itemID string) (up, down int64, err error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) Get(ctx context.Context, target VoteTarget, itemID, userID string) (*Vote, error) {
	if err := target.check(); err != nil {
		return nil, err
	}
	return getVote(r.db.WithContext(ctx), target, itemID, userID)
}

func getVote(db *gorm.DB, target VoteTarget, itemID, userID string) (*Vote, error) {
	var v Vote
	err := db.Table(target.voteTable()).
		Select("id, "+target.itemColumn()+" AS item_id, user_id, vote_type, created_at").
		Where(target.itemColumn()+" = ? AND user_id = ?", itemID, userID).
		Take(&v).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// Set replaces the caller's vote: the existing row is deleted and a new one
// inserted in the same transaction
func (r *voteRepository) Set(ctx context.Context, target VoteTarget, itemID, userID string, voteType models.VoteType) (*Vote, error) {
	if err := target.check(); err != nil {
		return nil, err
	}
	if !voteType.Valid() {
		return nil, ErrInvalidInput
	}

	var out *Vote
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := deleteVote(tx, target, itemID, userID); err != nil {
			return err
		}
		v, err := insertVote(tx, target, itemID, userID, voteType)
		out = v
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *voteRepository) Clear(ctx context.Context, target VoteTarget, itemID, userID string) (bool, error) {
	if err := target.check(); err != nil {
		return false, err
	}
	return deleteVote(r.db.WithContext(ctx), target, itemID, userID)
}

// Toggle clears the vote when the caller repeats the same type, otherwise
// it sets the requested type
func (r *voteRepository) Toggle(ctx context.Context, target VoteTarget, itemID, userID string, voteType models.VoteType) (*ToggleResult, error) {
	if err := target.check(); err != nil {
		return nil, err
	}
	if !voteType.Valid() {
		return nil, ErrInvalidInput
	}

	result := &ToggleResult{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := getVote(tx, target, itemID, userID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		switch {
		case existing != nil && existing.VoteType == voteType:
			if _, err := deleteVote(tx, target, itemID, userID); err != nil {
				return err
			}
			result.Action = VoteRemoved
			return nil
		case existing != nil:
			if _, err := deleteVote(tx, target, itemID, userID); err != nil {
				return err
			}
			result.Action = VoteChanged
		default:
			result.Action = VoteCreated
		}

		if _, err := insertVote(tx, target, itemID, userID, voteType); err != nil {
			return err
		}
		result.Vote = voteType.Ptr()
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return result, nil
}

func (r *voteRepository) List(ctx context.Context, target VoteTarget, itemID string) ([]Vote, error) {
	if err := target.check(); err != nil {
		return nil, err
	}
	votes := []Vote{}
	err := r.db.WithContext(ctx).Table(target.voteTable()).
		Select("id, "+target.itemColumn()+" AS item_id, user_id, vote_type, created_at").
		Where(target.itemColumn()+" = ?", itemID).
		Order("created_at DESC").Order("id ASC").
		Scan(&votes).Error
	return votes, err
}

func (r *voteRepository) Counts(ctx context.Context, target VoteTarget, itemID string) (int64, int64, error) {
	if err := target.check(); err != nil {
		return 0, 0, err
	}
	counts, err := voteCounts(r.db.WithContext(ctx), target, []string{itemID})
	if err != nil {
		return 0, 0, err
	}
	c := counts[itemID]
	return c.up, c.down, nil
}

func deleteVote(tx *gorm.DB, target VoteTarget, itemID, userID string) (bool, error) {
	res := tx.Where(target.itemColumn()+" = ? AND user_id = ?", itemID, userID).
		Delete(target.voteModel())
	return res.RowsAffected > 0, res.Error
}

func insertVote(tx *gorm.DB, target VoteTarget, itemID, userID string, voteType models.VoteType) (*Vote, error) {
	if target == TargetComment {
		row := models.CommentVote{CommentID: itemID, UserID: userID, VoteType: voteType}
		if err := tx.Create(&row).Error; err != nil {
			return nil, err
		}
		return &Vote{ID: row.ID, ItemID: itemID, UserID: userID, VoteType: voteType, CreatedAt: row.CreatedAt}, nil
	}
	row := models.PostVote{PostID: itemID, UserID: userID, VoteType: voteType}
	if err := tx.Create(&row).Error; err != nil {
		return nil, err
	}
	return &Vote{ID: row.ID, ItemID: itemID, UserID: userID, VoteType: voteType, CreatedAt: row.CreatedAt}, nil
}

type voteTally struct {
	up, down int64
}

// voteCounts groups vote rows by item and type for a batch of items
func voteCounts(db *gorm.DB, target VoteTarget, itemIDs []string) (map[string]voteTally, error) {
	out := make(map[string]voteTally, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		ItemID   string
		VoteType models.VoteType
		N        int64
	}
	col := target.itemColumn()
	err := db.Table(target.voteTable()).
		Select(col+" AS item_id, vote_type, COUNT(*) AS n").
		Where(col+" IN ?", itemIDs).
		Group(col + ", vote_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		t := out[row.ItemID]
		switch row.VoteType {
		case models.VoteUp:
			t.up = row.N
		case models.VoteDown:
			t.down = row.N
		}
		out[row.ItemID] = t
	}
	return out, nil
}
