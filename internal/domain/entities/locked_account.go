package entities

import "github.com/google/uuid"

// LockedAccount pairs an Account with its Balance row as returned by
// lock_accounts: both were read under the row lock acquired for the
// enclosing session, so the amount and version are current as of that
// lock, not stale cache.
type LockedAccount struct {
	Account *Account
	Balance *Balance
}

// ByID indexes a slice of LockedAccount by account id for the O(1)
// lookups flow handlers need once locks are acquired.
func ByID(locked []LockedAccount) map[uuid.UUID]LockedAccount {
	idx := make(map[uuid.UUID]LockedAccount, len(locked))
	for _, la := range locked {
		idx[la.Account.ID()] = la
	}
	return idx
}
