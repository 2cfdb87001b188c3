package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/stanstork/leadwatch-api/internal/models"
)

// UserRepository reads the salesman directory kept in user_roles. Accounts
// themselves live with the identity provider.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	Upsert(ctx context.Context, user models.User) (models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (u *userRepository) GetByID(ctx context.Context, userID string) (models.User, error) {
	const query = `
		SELECT user_id, role, email, full_name
		FROM user_roles
		WHERE user_id = $1`
	return scanUser(u.db.QueryRowContext(ctx, query, userID))
}

func (u *userRepository) GetByIDs(ctx context.Context, userIDs []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(userIDs))
	if len(userIDs) == 0 {
		return users, nil
	}

	const query = `
		SELECT user_id, role, email, full_name
		FROM user_roles
		WHERE user_id = ANY($1)`

	rows, err := u.db.QueryContext(ctx, query, pq.Array(userIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userRepository) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	const query = `
		SELECT user_id, role, email, full_name
		FROM user_roles
		WHERE role = $1
		ORDER BY full_name, email, user_id`

	rows, err := u.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (u *userRepository) Upsert(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO user_roles (user_id, role, email, full_name)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET
			role = EXCLUDED.role,
			email = COALESCE(EXCLUDED.email, user_roles.email),
			full_name = COALESCE(EXCLUDED.full_name, user_roles.full_name),
			updated_at = NOW()
		RETURNING user_id, role, email, full_name`

	return scanUser(u.db.QueryRowContext(ctx, query, user.ID, user.Role, nullString(user.Email), nullString(user.FullName)))
}

func scanUser(scanner interface {
	Scan(dest ...interface{}) error
}) (models.User, error) {
	var (
		user     models.User
		email    sql.NullString
		fullName sql.NullString
	)
	if err := scanner.Scan(&user.ID, &user.Role, &email, &fullName); err != nil {
		return models.User{}, err
	}
	user.Email = email.String
	user.FullName = fullName.String
	return user, nil
}
