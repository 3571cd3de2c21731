package state

import (
	"crypto/subtle"
	"sync"
)

// Authority holds the set of connections that have presented the shared admin
// secret. Grants are revoked only on disconnect; there is no logout. Repeated
// failed attempts are not rate limited.
type Authority struct {
	secret     string
	mu         sync.RWMutex
	authorized map[string]struct{}
}

func NewAuthority(secret string) *Authority {
	return &Authority{
		secret:     secret,
		authorized: make(map[string]struct{}),
	}
}

// Authenticate grants admin authorization when the supplied secret matches.
func (a *Authority) Authenticate(connectionID, supplied string) bool {
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(a.secret)) != 1 {
		return false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.authorized[connectionID] = struct{}{}
	return true
}

func (a *Authority) IsAuthorized(connectionID string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.authorized[connectionID]
	return ok
}

// Revoke removes a grant. Called only from the disconnect path.
func (a *Authority) Revoke(connectionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.authorized, connectionID)
}

// AuthorizedCount reports how many connections currently hold a grant.
func (a *Authority) AuthorizedCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.authorized)
}
