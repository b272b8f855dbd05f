package core

import (
	"os"
	"os/user"
	"strings"
	"sync"
)

// SystemIdentity describes the user, host, and process an event
// originates from.
type SystemIdentity struct {
	UserName string
	Hostname string
	PID      int
}

// IdentityProvider resolves the system identity. A custom provider can
// be configured for tests or restricted environments.
type IdentityProvider interface {
	Identity() SystemIdentity
}

// defaultIdentityProvider resolves the identity from the OS once and
// caches it for the life of the process.
type defaultIdentityProvider struct {
	once     sync.Once
	identity SystemIdentity
}

// DefaultIdentityProvider returns the OS-backed identity provider.
func DefaultIdentityProvider() IdentityProvider {
	return &defaultIdentityProvider{}
}

func (p *defaultIdentityProvider) Identity() SystemIdentity {
	p.once.Do(func() {
		p.identity.PID = os.Getpid()

		if hostname, err := os.Hostname(); err == nil {
			// Short hostname, domain stripped.
			if short, _, found := strings.Cut(hostname, "."); found {
				hostname = short
			}
			p.identity.Hostname = hostname
		} else {
			p.identity.Hostname = "unknown"
		}

		if u, err := user.Current(); err == nil {
			p.identity.UserName = u.Username
		}
	})
	return p.identity
}

// StaticIdentityProvider returns a provider that always reports the
// given identity.
func StaticIdentityProvider(identity SystemIdentity) IdentityProvider {
	return staticIdentityProvider{identity}
}

type staticIdentityProvider struct {
	identity SystemIdentity
}

func (p staticIdentityProvider) Identity() SystemIdentity { return p.identity }
