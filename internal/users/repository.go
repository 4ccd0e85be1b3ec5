// Package users implements user persistence: a statement-level Repository
// backed by PostgreSQL and a Service that layers batching, ordered bulk
// resolution and the deactivation cascade on top of it.
package users

import (
	"context"
	"time"

	"github.com/akarpov87/userstore/internal/models"
)

// Repository is the statement-level storage interface. Every method runs a
// single query against the bound handle; policy (chunking large key sets,
// ordering, transactions) lives in the Service.
//
// Single-row selects return common.ErrorNotFound when no row matches.
// The multi-key selects expect the key slice to fit into one statement;
// callers split larger inputs with the batch package.
type Repository interface {
	SelectByID(ctx context.Context, id int64) (*models.User, error)
	SelectByIDs(ctx context.Context, ids []int64) ([]*models.User, error)

	// SelectActiveByLogin only matches active users; SelectByLogin matches
	// regardless of the active flag.
	SelectActiveByLogin(ctx context.Context, login string) (*models.User, error)
	SelectByLogin(ctx context.Context, login string) (*models.User, error)
	SelectByLogins(ctx context.Context, logins []string) ([]*models.User, error)

	// SelectByScmAccountOrLoginOrEmail matches users whose login or email
	// equals value, or whose encoded SCM-accounts string contains likeValue
	// (the separator-wrapped LIKE pattern built by the caller).
	SelectByScmAccountOrLoginOrEmail(ctx context.Context, value string, likeValue string) ([]*models.User, error)

	SelectUsers(ctx context.Context, query models.UserQuery) ([]*models.User, error)

	// CountByEmail counts active users with the given email. The email must
	// already be lower-cased by the caller.
	CountByEmail(ctx context.Context, email string) (int64, error)

	// CountRootUsersButLogin counts active root users whose login differs
	// from the given one.
	CountRootUsersButLogin(ctx context.Context, login string) (int64, error)

	Insert(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	SetRoot(ctx context.Context, login string, root bool, now time.Time) error

	// Deactivate clears the active flag and stamps updated_at; the dependent
	// rows are removed by the three deletes below plus
	// DeletePropertiesMatchingLogin for the default-assignee property.
	Deactivate(ctx context.Context, userID int64, now time.Time) error
	RemoveUserFromGroups(ctx context.Context, userID int64) error
	DeleteUserProperties(ctx context.Context, userID int64) error
	DeleteUserRoles(ctx context.Context, userID int64) error
	DeletePropertiesMatchingLogin(ctx context.Context, propertyKeys []string, login string) error
}
