package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akarpov87/userstore/internal/common"
	"github.com/akarpov87/userstore/internal/dbx"
	"github.com/akarpov87/userstore/internal/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = "id, login, name, email, active, root, scm_accounts, created_at, updated_at"

type scanner func(dest ...any) error

func scanUser(scan scanner) (*models.User, error) {
	var u models.User
	err := scan(&u.ID, &u.Login, &u.Name, &u.Email, &u.Active, &u.Root,
		&u.ScmAccounts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) selectOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) selectMany(ctx context.Context, query string, args ...any) ([]*models.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// placeholders renders "$start, $start+1, ..." for count bind parameters.
func placeholders(start, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}

// likeEscaper escapes LIKE wildcards with '/' so search text matches literally.
var likeEscaper = strings.NewReplacer("/", "//", "%", "/%", "_", "/_")

func (r *PostgresRepository) SelectByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.selectOne(ctx, query, id)
}

func (r *PostgresRepository) SelectByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users WHERE id IN (%s)`,
		placeholders(1, len(ids)))
	return r.selectMany(ctx, query, args...)
}

func (r *PostgresRepository) SelectActiveByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1 AND active = TRUE`
	return r.selectOne(ctx, query, login)
}

func (r *PostgresRepository) SelectByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`
	return r.selectOne(ctx, query, login)
}

func (r *PostgresRepository) SelectByLogins(ctx context.Context, logins []string) ([]*models.User, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	args := make([]any, len(logins))
	for i, login := range logins {
		args[i] = login
	}

	query := fmt.Sprintf(`SELECT `+userColumns+` FROM users WHERE login IN (%s)`,
		placeholders(1, len(logins)))
	return r.selectMany(ctx, query, args...)
}

func (r *PostgresRepository) SelectByScmAccountOrLoginOrEmail(ctx context.Context, value string, likeValue string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users
		 WHERE login = $1 OR email = $1 OR scm_accounts LIKE $2`
	return r.selectMany(ctx, query, value, likeValue)
}

// SelectUsers builds the WHERE clause from the non-zero parts of query and
// returns matches ordered by name.
func (r *PostgresRepository) SelectUsers(ctx context.Context, query models.UserQuery) ([]*models.User, error) {
	var (
		conds []string
		args  []any
	)

	if len(query.Logins) > 0 {
		conds = append(conds, fmt.Sprintf("login IN (%s)", placeholders(1, len(query.Logins))))
		for _, login := range query.Logins {
			args = append(args, login)
		}
	}
	if !query.IncludeDeactivated {
		conds = append(conds, "active = TRUE")
	}
	if query.SearchText != "" {
		n := len(args) + 1
		conds = append(conds, fmt.Sprintf(
			"(login LIKE $%d ESCAPE '/' OR name LIKE $%d ESCAPE '/' OR email LIKE $%d ESCAPE '/')", n, n, n))
		args = append(args, "%"+likeEscaper.Replace(query.SearchText)+"%")
	}

	q := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY name`

	return r.selectMany(ctx, q, args...)
}

func (r *PostgresRepository) CountByEmail(ctx context.Context, email string) (int64, error) {
	query := `SELECT count(1) FROM users WHERE lower(email) = $1 AND active = TRUE`

	var count int64
	err := r.db.QueryRowContext(ctx, query, email).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) CountRootUsersButLogin(ctx context.Context, login string) (int64, error) {
	query := `SELECT count(1) FROM users WHERE active = TRUE AND root = TRUE AND login <> $1`

	var count int64
	err := r.db.QueryRowContext(ctx, query, login).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	query := `INSERT INTO users (login, name, email, active, root, scm_accounts, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.Login, user.Name, user.Email, user.Active, user.Root,
		user.ScmAccounts, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

// Update replaces the mutable fields of the row identified by user.ID.
// Login never changes after insert and is left out on purpose.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	query := `UPDATE users
		 SET name = $1, email = $2, active = $3, scm_accounts = $4, updated_at = $5
		 WHERE id = $6`

	_, err := r.db.ExecContext(ctx, query,
		user.Name, user.Email, user.Active, user.ScmAccounts, user.UpdatedAt, user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) SetRoot(ctx context.Context, login string, root bool, now time.Time) error {
	query := `UPDATE users SET root = $1, updated_at = $2 WHERE login = $3`

	_, err := r.db.ExecContext(ctx, query, root, now, login)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Deactivate(ctx context.Context, userID int64, now time.Time) error {
	query := `UPDATE users SET active = FALSE, updated_at = $1 WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, now, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RemoveUserFromGroups(ctx context.Context, userID int64) error {
	query := `DELETE FROM groups_users WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteUserProperties(ctx context.Context, userID int64) error {
	query := `DELETE FROM properties WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) DeleteUserRoles(ctx context.Context, userID int64) error {
	query := `DELETE FROM user_roles WHERE user_id = $1`

	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeletePropertiesMatchingLogin removes global properties (rows without a
// user_id) whose key is one of propertyKeys and whose value is the login.
func (r *PostgresRepository) DeletePropertiesMatchingLogin(ctx context.Context, propertyKeys []string, login string) error {
	if len(propertyKeys) == 0 {
		return nil
	}

	args := make([]any, 0, len(propertyKeys)+1)
	for _, key := range propertyKeys {
		args = append(args, key)
	}
	args = append(args, login)

	query := fmt.Sprintf(`DELETE FROM properties
		 WHERE prop_key IN (%s) AND text_value = $%d AND user_id IS NULL`,
		placeholders(1, len(propertyKeys)), len(propertyKeys)+1)

	_, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
