package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akarpov87/userstore/internal/batch"
	"github.com/akarpov87/userstore/internal/common"
	"github.com/akarpov87/userstore/internal/dbx"
	"github.com/akarpov87/userstore/internal/models"
)

// Service is the user data-access facade. On top of the statement-level
// Repository it adds chunking of oversized key sets, order restoration for
// bulk lookups and the transactional deactivation cascade.
type Service struct {
	db    *sql.DB
	repos func(db dbx.DBTX) Repository
	clock func() time.Time
}

// NewService constructs a Service. repos binds a Repository to a handle and
// is called again inside transactions, so pass a factory such as the
// repository manager's Users method.
func NewService(db *sql.DB, repos func(db dbx.DBTX) Repository) *Service {
	return &Service{
		db:    db,
		repos: repos,
		clock: time.Now,
	}
}

// GetByID returns the user with the given id, active or not, or nil if there
// is none.
func (s *Service) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repos(s.db).SelectByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetByIDs returns the users matching ids, including deactivated ones. The
// ids are queried in chunks sized to the bind-parameter ceiling; result order
// is not defined. Empty input returns nil without touching the store.
func (s *Service) GetByIDs(ctx context.Context, ids []int64) ([]*models.User, error) {
	repo := s.repos(s.db)
	return batch.Execute(ids, func(chunk []int64) ([]*models.User, error) {
		return repo.SelectByIDs(ctx, chunk)
	})
}

// GetActiveByLogin returns the active user with the given login, or nil if
// the login is unknown or deactivated.
func (s *Service) GetActiveByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := s.repos(s.db).SelectActiveByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetByLogin returns the user with the given login regardless of the active
// flag, or nil if there is none.
func (s *Service) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := s.repos(s.db).SelectByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// RequireByLogin is GetByLogin for callers that treat absence as an error.
func (s *Service) RequireByLogin(ctx context.Context, login string) (*models.User, error) {
	user, err := s.GetByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user with login %q has not been found: %w", login, common.ErrorNotFound)
	}
	return user, nil
}

// GetByLogins returns the users matching logins, including deactivated ones,
// in no particular order. Chunking and the empty-input contract are the same
// as for GetByIDs.
func (s *Service) GetByLogins(ctx context.Context, logins []string) ([]*models.User, error) {
	repo := s.repos(s.db)
	return batch.Execute(logins, func(chunk []string) ([]*models.User, error) {
		return repo.SelectByLogins(ctx, chunk)
	})
}

// GetByOrderedLogins resolves logins to users preserving input order: one
// output entry per input occurrence that resolved. Logins without a user are
// skipped, so the result may be shorter than the input; duplicated input
// logins yield the same user once per occurrence.
func (s *Service) GetByOrderedLogins(ctx context.Context, logins []string) ([]*models.User, error) {
	unordered, err := s.GetByLogins(ctx, logins)
	if err != nil {
		return nil, err
	}
	return orderByLogins(logins, unordered), nil
}

// orderByLogins indexes unordered by login and replays the index per input
// occurrence. Login is unique, so duplicates in unordered should not happen;
// if they do, the last one wins.
func orderByLogins(logins []string, unordered []*models.User) []*models.User {
	byLogin := make(map[string]*models.User, len(unordered))
	for _, u := range unordered {
		byLogin[u.Login] = u
	}

	var ordered []*models.User
	for _, login := range logins {
		if u, ok := byLogin[login]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered
}

// Search returns the users matching query, ordered by name.
func (s *Service) Search(ctx context.Context, query models.UserQuery) ([]*models.User, error) {
	return s.repos(s.db).SelectUsers(ctx, query)
}

// GetByScmAccountOrLoginOrEmail returns users whose login or email equals
// value, or whose SCM accounts contain it as a complete entry. The match
// wraps value with the separator on both sides, so a value can never match
// inside a longer neighboring account.
func (s *Service) GetByScmAccountOrLoginOrEmail(ctx context.Context, value string) ([]*models.User, error) {
	like := "%" + models.ScmAccountsSeparator + value + models.ScmAccountsSeparator + "%"
	return s.repos(s.db).SelectByScmAccountOrLoginOrEmail(ctx, value, like)
}

// EmailExists reports whether at least one active user has the given email.
// The comparison is case-insensitive independent of the process locale.
func (s *Service) EmailExists(ctx context.Context, email string) (bool, error) {
	count, err := s.repos(s.db).CountByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountRootUsersButLogin counts active root users with a different login.
// Callers use it for "is this the last root" checks before demoting one.
func (s *Service) CountRootUsersButLogin(ctx context.Context, login string) (int64, error) {
	return s.repos(s.db).CountRootUsersButLogin(ctx, login)
}

// Insert persists a new user and echoes it back with the store-assigned id.
func (s *Service) Insert(ctx context.Context, user *models.User) (*models.User, error) {
	return s.repos(s.db).Insert(ctx, user)
}

// Update replaces the mutable fields of an existing user by id.
func (s *Service) Update(ctx context.Context, user *models.User) (*models.User, error) {
	return s.repos(s.db).Update(ctx, user)
}

// SetRoot grants or revokes the root flag for login, stamping updated_at
// with the current time.
func (s *Service) SetRoot(ctx context.Context, login string, root bool) error {
	return s.repos(s.db).SetRoot(ctx, login, root, s.clock())
}

// DeactivateByLogin disables the user with the given login and purges the
// rows depending on it: group memberships, user-scoped properties, role
// assignments and the global default-assignee property naming this login.
// The cascade runs in a single transaction; on any failure the store is left
// unchanged. Returns false without error when no user carries the login.
//
// The initial lookup does not filter on the active flag, so a second call
// for the same login re-runs the cascade against already-empty dependent
// sets and returns true again.
func (s *Service) DeactivateByLogin(ctx context.Context, login string) (bool, error) {
	user, err := s.GetByLogin(ctx, login)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, nil
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos(tx)

		if err := repo.RemoveUserFromGroups(ctx, user.ID); err != nil {
			return err
		}
		if err := repo.DeleteUserProperties(ctx, user.ID); err != nil {
			return err
		}
		if err := repo.DeleteUserRoles(ctx, user.ID); err != nil {
			return err
		}
		if err := repo.DeletePropertiesMatchingLogin(ctx,
			[]string{common.PropertyDefaultIssueAssignee}, user.Login); err != nil {
			return err
		}
		return repo.Deactivate(ctx, user.ID, s.clock())
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
