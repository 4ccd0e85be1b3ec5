// Package models holds the persistence-level entities shared by the
// repositories and the service layer.
package models

import (
	"strings"
	"time"
)

// ScmAccountsSeparator delimits entries in the stored SCM-accounts string.
// The encoded value carries a leading and a trailing separator as well, so a
// lookup wrapped with the separator on both sides can only ever match a
// complete entry, never a substring of a neighboring one.
const ScmAccountsSeparator = "\n"

// User is a row of the users table.
//
// ID is assigned by the store on insert and never changes; Login is the
// unique natural key and is immutable too. Email is compared
// case-insensitively. Users are deactivated by flipping Active, never
// deleted.
type User struct {
	ID          int64
	Login       string
	Name        string
	Email       string
	Active      bool
	Root        bool
	ScmAccounts string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScmAccountsList decodes the stored SCM-accounts string into its entries.
func (u *User) ScmAccountsList() []string {
	return DecodeScmAccounts(u.ScmAccounts)
}

// SetScmAccountsList stores accounts in the encoded representation.
func (u *User) SetScmAccountsList(accounts []string) {
	u.ScmAccounts = EncodeScmAccounts(accounts)
}

// EncodeScmAccounts joins accounts with the separator, wrapped by a leading
// and trailing separator. An empty list encodes to "".
func EncodeScmAccounts(accounts []string) string {
	if len(accounts) == 0 {
		return ""
	}
	return ScmAccountsSeparator + strings.Join(accounts, ScmAccountsSeparator) + ScmAccountsSeparator
}

// DecodeScmAccounts splits an encoded SCM-accounts value, dropping the empty
// fragments produced by the boundary separators.
func DecodeScmAccounts(dbValue string) []string {
	if dbValue == "" {
		return nil
	}
	var accounts []string
	for _, a := range strings.Split(dbValue, ScmAccountsSeparator) {
		if a != "" {
			accounts = append(accounts, a)
		}
	}
	return accounts
}

// UserQuery filters user searches. The zero value matches all active users.
type UserQuery struct {
	// Logins restricts the result to the given logins when non-empty.
	Logins []string

	// IncludeDeactivated widens the search to inactive users.
	IncludeDeactivated bool

	// SearchText is substring-matched against login, name and email.
	// LIKE wildcards in the text are escaped before matching.
	SearchText string
}
