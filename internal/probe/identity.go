package probe

import (
	"math/rand/v2"
	"strconv"
	"sync"
)

// identitySpace bounds the random suffix of generated usernames.
const identitySpace = 1_000_000_000

// Identity is a username/email pair for a test account.
type Identity struct {
	Username string
	Email    string
}

// IdentityGenerator hands out identities that are unique within the
// generator's lifetime.
type IdentityGenerator struct {
	prefix string
	domain string

	mu   sync.Mutex
	seen map[uint64]struct{}
	next func() uint64
}

func NewIdentityGenerator(prefix, domain string) *IdentityGenerator {
	return &IdentityGenerator{
		prefix: prefix,
		domain: domain,
		seen:   make(map[uint64]struct{}),
		next:   func() uint64 { return rand.Uint64N(identitySpace) },
	}
}

// Next returns prefix+N and prefix+N@domain for a fresh N.
func (g *IdentityGenerator) Next() Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := g.next()
	for {
		if _, dup := g.seen[n]; !dup {
			break
		}
		n = g.next()
	}
	g.seen[n] = struct{}{}
	username := g.prefix + strconv.FormatUint(n, 10)
	return Identity{Username: username, Email: username + "@" + g.domain}
}

var (
	defaultGenMu sync.Mutex
	defaultGens  = map[[2]string]*IdentityGenerator{}
)

// NewIdentity draws from a process-wide generator per prefix and domain, so
// two calls never return the same identity.
func NewIdentity(prefix, domain string) Identity {
	key := [2]string{prefix, domain}
	defaultGenMu.Lock()
	g, ok := defaultGens[key]
	if !ok {
		g = NewIdentityGenerator(prefix, domain)
		defaultGens[key] = g
	}
	defaultGenMu.Unlock()
	return g.Next()
}
