// Package container provides a lazy IoC container keyed by string aliases.
//
// # Overview
//
// Registering an alias stores a zero-argument factory. Nothing is built until
// the value is first used; the result is then memoized for the lifetime of the
// handle. Because construction is deferred, a factory may depend on aliases
// that are registered after it, as long as they exist by the time it runs.
//
// # Registering
//
//	c := container.New(container.WithLogger(logger))
//
//	// Replaceable
//	c.Register("greeter", func() any { return &Greeter{} })
//
//	// Locked: later registrations for "config" return false
//	c.RegisterImmutable("config", func() any { return cfg })
//
//	// Any func with no parameters and one result
//	c.RegisterFunc("clock", func() *Clock { return &Clock{} }, false)
//
// Register reports a locked alias with (false, nil), not with an error.
// Callers that need strict behaviour check the bool.
//
// # Resolving
//
//	h, ok := c.Get("greeter")      // ok is false for unknown aliases
//	out, err := h.Invoke("Hello")  // builds on first call, then forwards
//	g, err := container.As[*Greeter](h)
//
//	// Typed in one step
//	g, err := container.Resolve[*Greeter](c, "greeter")
//
// # Cross-alias dependencies
//
//	c.Register("status", func() any {
//	    h, _ := c.Get("greeter")
//	    return &Status{greeter: h}
//	})
//	c.Register("greeter", func() any { return &Greeter{} })
//
// # Service Providers
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&MailProvider{})
//	registry.Boot()
//
// # Deferred Providers
//
// A provider whose IsDeferred returns true is registered on first use of any
// alias in its Provides list:
//
//	registry.Register(&HeavyProvider{}) // HeavyProvider.Register not called yet
//	h, _ := c.Get("heavy")              // still not called
//	h.Value()                           // calls HeavyProvider.Register, once
package container
