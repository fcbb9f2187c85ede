// Package rbac is an in-memory role store. The aggregator and manager
// take a *Store directly through SetRoles; there is no interface that
// lets another role backend be bound in its place.
package rbac

import (
	"sync"

	"nttcore/core/nerrors"
)

// Role identifies one permission scope within one handler's namespace.
type Role [32]byte

// Store is a mutex-guarded, in-memory grant table keyed by (role,
// account).
type Store struct {
	mu     sync.RWMutex
	grants map[Role]map[[32]byte]bool
	admins map[Role]Role
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		grants: make(map[Role]map[[32]byte]bool),
		admins: make(map[Role]Role),
	}
}

// Grant gives account role, creating the role's grant set if needed.
func (s *Store) Grant(role Role, account [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[role] == nil {
		s.grants[role] = make(map[[32]byte]bool)
	}
	s.grants[role][account] = true
}

// Revoke removes account's grant of role, if any.
func (s *Store) Revoke(role Role, account [32]byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants[role], account)
}

// HasRole reports whether account currently holds role.
func (s *Store) HasRole(role Role, account [32]byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.grants[role][account]
}

// RequireRole returns ErrUnauthorizedRole if account does not hold role.
func (s *Store) RequireRole(role Role, account [32]byte) error {
	if !s.HasRole(role, account) {
		return nerrors.ErrUnauthorizedRole
	}
	return nil
}

// SetRoleAdmin designates adminRole as the role whose holders may grant
// or revoke role.
func (s *Store) SetRoleAdmin(role, adminRole Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[role] = adminRole
}

// RoleAdmin returns the admin role configured for role, or the zero role
// if none was set.
func (s *Store) RoleAdmin(role Role) Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admins[role]
}

// GrantAsAdmin grants role to account, but only if caller holds role's
// configured admin role (or role itself, for self-administered roles).
func (s *Store) GrantAsAdmin(role Role, caller, account [32]byte) error {
	admin := s.RoleAdmin(role)
	if admin != [32]byte{} {
		if err := s.RequireRole(admin, caller); err != nil {
			return err
		}
	} else if err := s.RequireRole(role, caller); err != nil {
		return err
	}
	s.Grant(role, account)
	return nil
}
