package container

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one feature.
//
// Register only stores factories; because factories are lazy it may refer to
// aliases that other providers register later. Boot is called after every
// provider has been registered, so it is the place to resolve values.
//
//	type MailProvider struct{ container.BaseProvider }
//
//	func (p *MailProvider) Register(c *container.Container) error {
//	    _, err := c.Register("mailer", func() any {
//	        return mail.New(container.MustResolve[*config.Config](c, "config"))
//	    })
//	    return err
//	}
type ServiceProvider interface {
	// Register stores the provider's factories in the container.
	Register(c *Container) error

	// Boot runs once all providers are registered.
	Boot(c *Container) error
}

// DeferrableProvider is implemented by providers that may be loaded on
// demand. When IsDeferred is true the registry does not call Register up
// front; it stores a placeholder for every alias in Provides, and the first
// resolution of any of them registers (and, after Boot, boots) the provider.
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//
// Register and Boot of a deferred provider must not resolve an alias it
// lists in Provides but never registers.
type DeferrableProvider interface {
	ServiceProvider

	// Provides lists the aliases the provider registers.
	Provides() []string

	// IsDeferred reports whether loading waits for first use.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct with no-op Boot and eager defaults
// for Provides and IsDeferred. Embed it and override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry registers and boots ServiceProviders against one
// container.
//
// Register and Boot are bootstrap calls and must not run concurrently with
// each other. Deferred providers load from whichever goroutine first resolves
// one of their aliases; that path is synchronized.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	bootDone   map[ServiceProvider]bool
	deferred   map[string]ServiceProvider // alias → provider not yet loaded
	booted     bool
}

// deferredLoad loads one deferred provider exactly once.
type deferredLoad struct {
	provider ServiceProvider
	once     sync.Once
	err      error
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
		bootDone:   make(map[ServiceProvider]bool),
		deferred:   make(map[string]ServiceProvider),
	}
}

// Register calls provider.Register, or installs placeholders when provider
// is deferred. Registering the same provider instance twice is a no-op.
// Eager providers registered after Boot are booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	seen := r.registered[provider]
	r.mu.Unlock()
	if seen {
		return nil
	}

	if d, ok := provider.(DeferrableProvider); ok && d.IsDeferred() {
		return r.registerDeferred(d)
	}

	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "register provider %T", provider)
	}
	return r.track(provider)
}

// track records a registered provider and boots it when the registry has
// already booted. The append and the booted check share one critical
// section so a concurrent Boot cannot miss the provider.
func (r *ProviderRegistry) track(provider ServiceProvider) error {
	r.mu.Lock()
	r.registered[provider] = true
	r.providers = append(r.providers, provider)
	booted := r.booted
	r.mu.Unlock()

	if booted {
		return r.bootOne(provider)
	}
	return nil
}

func (r *ProviderRegistry) registerDeferred(provider DeferrableProvider) error {
	load := &deferredLoad{provider: provider}
	for _, alias := range provider.Provides() {
		if err := r.placeholder(alias, load); err != nil {
			return errors.Wrapf(err, "register deferred provider %T", provider)
		}
	}

	r.mu.Lock()
	r.registered[provider] = true
	for _, alias := range provider.Provides() {
		r.deferred[alias] = provider
	}
	r.mu.Unlock()
	return nil
}

// placeholder registers alias with a factory that loads the provider and
// then hands over the value of the handle the provider registered. A failed
// load panics inside the factory, which leaves the placeholder unbuilt.
func (r *ProviderRegistry) placeholder(alias string, load *deferredLoad) error {
	var self atomic.Pointer[Handle]

	ok, err := r.app.Register(alias, func() any {
		if err := r.load(load); err != nil {
			panic(err)
		}
		h, found := r.app.Get(alias)
		if !found || h == self.Load() {
			panic(errors.Wrapf(ErrAliasAbsent, "deferred provider %T did not register %q", load.provider, alias))
		}
		return h.Value()
	})
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrAliasLocked, "%q", alias)
	}

	h, _ := r.app.Get(alias)
	self.Store(h)
	return nil
}

func (r *ProviderRegistry) load(load *deferredLoad) error {
	load.once.Do(func() {
		if err := load.provider.Register(r.app); err != nil {
			load.err = errors.Wrapf(err, "load deferred provider %T", load.provider)
			return
		}

		r.mu.Lock()
		for alias, p := range r.deferred {
			if p == load.provider {
				delete(r.deferred, alias)
			}
		}
		r.providers = append(r.providers, load.provider)
		booted := r.booted
		r.mu.Unlock()

		if booted {
			load.err = r.bootOne(load.provider)
		}
	})
	return load.err
}

// Boot calls Boot on every loaded provider in registration order. A
// provider that booted successfully is never booted again, so calling Boot
// after a failure resumes at the failing provider. Once every provider has
// booted, further calls are no-ops.
func (r *ProviderRegistry) Boot() error {
	for {
		r.mu.Lock()
		next := r.nextUnbooted()
		if next == nil {
			r.booted = true
			r.mu.Unlock()
			return nil
		}
		r.mu.Unlock()

		if err := r.bootOne(next); err != nil {
			return err
		}
	}
}

// nextUnbooted must be called with mu held.
func (r *ProviderRegistry) nextUnbooted() ServiceProvider {
	for _, p := range r.providers {
		if !r.bootDone[p] {
			return p
		}
	}
	return nil
}

func (r *ProviderRegistry) bootOne(provider ServiceProvider) error {
	if err := provider.Boot(r.app); err != nil {
		return errors.Wrapf(err, "boot provider %T", provider)
	}
	r.mu.Lock()
	r.bootDone[provider] = true
	r.mu.Unlock()
	return nil
}

// Booted reports whether Boot has completed.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns the loaded providers in load order. Deferred providers
// appear once one of their aliases has been resolved.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ServiceProvider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Deferred reports whether alias belongs to a deferred provider that has
// not been loaded yet.
func (r *ProviderRegistry) Deferred(alias string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.deferred[alias]
	return ok
}
