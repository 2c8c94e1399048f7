package providers

import (
	"net/http"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/km-arc/go-lazyioc/framework/config"
	"github.com/km-arc/go-lazyioc/framework/container"
	gohttp "github.com/km-arc/go-lazyioc/framework/http"
	"github.com/km-arc/go-lazyioc/framework/routing"
)

// Aliases bound by the core providers.
const (
	ConfigAlias = "config"
	LoggerAlias = "logger"
	RouterAlias = "router"
)

// ErrAliasLocked is returned by providers when one of their aliases was
// already locked by an earlier registration.
var ErrAliasLocked = container.ErrAliasLocked

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider binds the loaded configuration as "config".
// The alias is immutable. When Config is nil it is loaded from EnvFiles on
// first use.
type ConfigServiceProvider struct {
	container.BaseProvider
	Config   *config.Config
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	cfg, envFiles := p.Config, p.EnvFiles
	return registerLocked(app, ConfigAlias, func() any {
		if cfg != nil {
			return cfg
		}
		return config.Load(envFiles...)
	})
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider binds the application logger as "logger".
// The alias is immutable.
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *zap.Logger
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return registerLocked(app, LoggerAlias, func() any { return logger })
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router as "router". It is
// deferred: the router is only registered once something resolves it. The
// router logs through "logger" when that alias is bound, answers unknown
// routes with a JSON 404 and serves the container routes under /container.
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) IsDeferred() bool   { return true }
func (p *RoutingServiceProvider) Provides() []string { return []string{RouterAlias} }

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	_, err := app.Register(RouterAlias, func() any {
		logger, _ := container.Resolve[*zap.Logger](app, LoggerAlias)
		r := routing.New(logger)
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			gohttp.NewResponse(w).NotFound()
		})
		r.Prefix("/container", func(cr *routing.Router) {
			mountContainerRoutes(cr, app)
		})
		return r
	})
	return err
}

// AliasInfo describes one binding as served by GET /container/aliases.
type AliasInfo struct {
	Alias    string `json:"alias"`
	Locked   bool   `json:"locked"`
	Resolved bool   `json:"resolved"`
}

// Describe reports the state of every alias bound in app, sorted by alias.
func Describe(app *container.Container) []AliasInfo {
	return lo.Map(app.Aliases(), func(alias string, _ int) AliasInfo {
		return describe(app, alias)
	})
}

func describe(app *container.Container, alias string) AliasInfo {
	return AliasInfo{Alias: alias, Locked: app.Locked(alias), Resolved: app.Resolved(alias)}
}

// mountContainerRoutes serves read-only views of the container. Neither
// route builds a value.
func mountContainerRoutes(r *routing.Router, app *container.Container) {
	r.Get("/aliases", func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).Success(Describe(app))
	})
	r.Get("/aliases/{alias}", func(w http.ResponseWriter, req *http.Request) {
		res := gohttp.NewResponse(w)
		alias := routing.Param(req, "alias")
		if !app.Bound(alias) {
			res.NotFound("Alias not registered.")
			return
		}
		res.Success(describe(app, alias))
	})
}

// registerLocked registers factory as an immutable alias and turns a
// rejected registration into ErrAliasLocked.
func registerLocked(app *container.Container, alias string, factory container.Factory) error {
	ok, err := app.RegisterImmutable(alias, factory)
	if err != nil {
		return err
	}
	if !ok {
		return errors.Wrapf(ErrAliasLocked, "%q", alias)
	}
	return nil
}
