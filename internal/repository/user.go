package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/hangman/api/internal/database"
	"github.com/forgo/hangman/api/internal/model"
)

const userTable = "user"

// UserRepository handles user data access
type UserRepository struct {
	db database.Database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.Database) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		CREATE user CONTENT {
			username: $username,
			nickname: $nickname,
			hash: $hash,
			created_at: $created_at
		}
	`
	vars := map[string]interface{}{
		"username":   user.Username,
		"nickname":   user.Nickname,
		"hash":       user.PasswordHash,
		"created_at": surrealTime(user.CreatedAt),
	}

	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, fmt.Errorf("%w: username already exists", database.ErrDuplicate)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return parseUserResult(result)
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	if !inTable(id, userTable) {
		return nil, nil
	}
	return r.getOne(ctx, `SELECT * FROM type::record($id)`, map[string]interface{}{"id": id})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getOne(ctx, `SELECT * FROM user WHERE username = $username LIMIT 1`,
		map[string]interface{}{"username": username})
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	return countQuery(ctx, r.db, `SELECT count() FROM user GROUP ALL`, nil)
}

func (r *UserRepository) getOne(ctx context.Context, query string, vars map[string]interface{}) (*model.User, error) {
	result, err := r.db.QueryOne(ctx, query, vars)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	user, err := parseUserResult(result)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func parseUserResult(result interface{}) (*model.User, error) {
	data, err := unwrapRecord(result)
	if err != nil {
		return nil, err
	}

	return &model.User{
		ID:           getID(data, "id"),
		Username:     getString(data, "username"),
		Nickname:     getString(data, "nickname"),
		PasswordHash: getString(data, "hash"),
		CreatedAt:    getTimeValue(data, "created_at"),
	}, nil
}
