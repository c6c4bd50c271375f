package router

import (
	"net/http"

	mem "my-pet/internal/adapters/storage/memory"
	"my-pet/internal/adapters/storage/sqlstore"
	"my-pet/internal/domain/access"
	"my-pet/internal/domain/accounts"
	"my-pet/internal/domain/assets"
	"my-pet/internal/domain/identity"
	"my-pet/internal/domain/institutions"
	"my-pet/internal/middleware"
	"my-pet/internal/platform/config"
	"my-pet/internal/platform/ledger"
	"my-pet/internal/platform/logger"
	"my-pet/internal/platform/metrics"
	"my-pet/internal/ports/auth"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

type Options struct {
	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// RegistryOwner: vacío => owner dev.
	RegistryOwner identity.ID

	// Opcional: si viene, usa SQL (Postgres o SQLite). Si no, in-memory.
	DB *sqlstore.DB

	Logger  logger.Logger
	Metrics *metrics.Metrics
}

// storage agrupa ledger + repos de un mismo backend.
type storage struct {
	ledger       ledger.Ledger
	institutions institutions.Repository
	accounts     accounts.Repository
	assets       assets.Repositories
}

func newStorage(db *sqlstore.DB) storage {
	if db != nil {
		return storage{
			ledger:       db,
			institutions: sqlstore.NewInstitutionsRepo(db),
			accounts:     sqlstore.NewAccountsRepo(db),
			assets:       sqlstore.NewAssetsRepos(db),
		}
	}
	st := mem.NewStore()
	return storage{
		ledger:       st,
		institutions: mem.NewInstitutionsRepo(st),
		accounts:     mem.NewAccountsRepo(st),
		assets:       mem.NewAssetsRepos(st),
	}
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	owner := opts.RegistryOwner
	if owner.IsZero() {
		owner = identity.MustParse(config.DevRegistryOwner)
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", m.Handler())
	mountSwagger(r, swag.ReadDoc)

	store := newStorage(opts.DB)

	// Services por módulo. Orden: instituciones -> roles -> cuentas -> activos.
	instSvc := institutions.NewService(store.ledger, store.institutions, owner,
		institutions.WithLogger(log), institutions.WithMetrics(m))
	roles := access.NewResolver(owner, instSvc)
	accountsSvc := accounts.NewService(store.ledger, store.accounts, instSvc, roles,
		accounts.WithLogger(log), accounts.WithMetrics(m))
	assetsSvc := assets.NewService(store.ledger, store.assets, accountsSvc, instSvc, roles,
		assets.WithLogger(log), assets.WithMetrics(m))
	accountsSvc.SetPetIndex(assetsSvc)

	// Rutas por módulo
	institutions.RegisterRoutes(r, instSvc)
	accounts.RegisterRoutes(r, accountsSvc)
	assets.RegisterRoutes(r, assetsSvc)

	return r
}

// mountSwagger sirve /swagger/* solo si hay un doc registrado. docs/ no se
// versiona: sale de `swag init -g cmd/api/main.go -o docs` + import en main.
func mountSwagger(r chi.Router, readDoc func(optionalName ...string) (string, error)) {
	if _, err := readDoc(); err != nil {
		return
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
