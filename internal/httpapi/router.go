package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"hostel/internal/account"
	"hostel/internal/api"
	"hostel/internal/billing"
	"hostel/internal/booking"
	"hostel/internal/catalog"
	"hostel/internal/overview"
	"hostel/internal/realtime"
	"hostel/internal/request"
	"hostel/internal/room"
	"hostel/pkg/config"
)

type Dependencies struct {
	Cfg config.Config
	DB  *pgxpool.Pool

	// Optional. Without Redis the status cache and idempotency keys are skipped.
	Rdb *redis.Client
	// Optional. Without a publisher transitions are not announced on Kafka.
	Publisher request.Publisher
	Hub       *realtime.Hub
	// Defaults to the user_roles table.
	Roles api.RoleLookup
}

func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(api.CORSMiddleware(api.CORSOptions{
		AllowedOrigins: deps.Cfg.AllowedOrigins,
		MaxAgeSeconds:  600,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	accountsRepo := account.NewRepository(deps.DB)
	accountHandlers := accountHandlers{Accounts: accountsRepo}

	roomHandlers := room.Handlers{Rooms: room.NewRepository(deps.DB)}
	catalogHandlers := catalog.Handlers{Repo: catalog.NewRepository(deps.DB)}
	bookingHandlers := booking.Handlers{Bookings: booking.NewRepository(deps.DB)}
	billingHandlers := billing.Handlers{Bills: billing.NewRepository(deps.DB)}
	overviewHandlers := overview.Handlers{DB: deps.DB, Rdb: deps.Rdb}

	requestsRepo := request.NewRepository(deps.DB)
	lifecycle := &request.Lifecycle{
		Store:     requestsRepo,
		Publisher: deps.Publisher,
		Producer:  deps.Cfg.ServiceName,
	}
	requestHandlers := request.Handlers{
		DB:        deps.DB,
		Requests:  requestsRepo,
		Lifecycle: lifecycle,
	}
	if deps.Rdb != nil {
		cache := request.NewStatusCache(deps.Rdb)
		lifecycle.Cache = cache
		requestHandlers.Cache = cache
		requestHandlers.Idempotency = request.NewIdempotency(deps.Rdb)
	}

	customer := api.RequireRole(account.RoleCustomer)
	manager := api.RequireRole(account.RoleManager)
	staff := api.RequireRole(account.RoleWorker, account.RoleManager)
	validID := api.ValidID("id")

	var roles api.RoleLookup = accountsRepo
	if deps.Roles != nil {
		roles = deps.Roles
	}

	r.Route("/v1", func(r chi.Router) {
		// Production: Supabase access token.
		// Dev: falls back to X-User-Id if Authorization is missing.
		r.Use(api.SessionAuth(deps.Cfg, roles))

		r.Get("/me", accountHandlers.Me)
		r.With(manager).Get("/workers", accountHandlers.Workers)
		r.With(manager).Get("/overview", overviewHandlers.Get)

		// Rooms
		r.Get("/rooms", roomHandlers.ListAvailable)
		r.With(manager).Get("/rooms/all", roomHandlers.ListAll)
		r.With(manager).Post("/rooms", roomHandlers.Create)
		r.With(manager, validID).Patch("/rooms/{id}/status", roomHandlers.SetStatus)

		// Service catalog
		r.Get("/services", catalogHandlers.List)
		r.With(manager).Post("/services", catalogHandlers.Create)
		r.With(manager, validID).Patch("/services/{id}/availability", catalogHandlers.SetAvailability)

		// Bookings
		r.With(customer).Post("/bookings/quote", bookingHandlers.Quote)
		r.With(customer).Post("/bookings", bookingHandlers.Create)
		r.With(api.RequireRole(account.RoleCustomer, account.RoleManager)).Get("/bookings", bookingHandlers.List)
		r.With(customer, validID).Post("/bookings/{id}/cancel", bookingHandlers.Cancel)

		// Service requests
		r.With(customer).Post("/requests", requestHandlers.Create)
		r.Get("/requests", requestHandlers.List)
		if deps.Hub != nil {
			r.Method(http.MethodGet, "/requests/stream", request.StreamHandler{Hub: deps.Hub, Heartbeat: 25 * time.Second})
		}
		r.With(validID).Get("/requests/{id}", requestHandlers.Get)
		r.With(validID).Get("/requests/{id}/status", requestHandlers.Status)
		r.With(validID).Get("/requests/{id}/events", requestHandlers.Events)
		r.With(staff, validID).Post("/requests/{id}/transition", requestHandlers.Transition)

		// Bills
		r.With(api.RequireRole(account.RoleCustomer, account.RoleManager)).Get("/bills", billingHandlers.List)
		r.With(api.RequireRole(account.RoleCustomer, account.RoleManager), validID).Get("/bills/{id}", billingHandlers.Get)
		r.With(manager).Post("/bills", billingHandlers.Create)
		r.With(manager, validID).Post("/bills/{id}/items", billingHandlers.AddItem)
		r.With(manager, validID).Post("/bills/{id}/recompute", billingHandlers.Recompute)
		r.With(manager, validID).Post("/bills/{id}/pay", billingHandlers.Pay)
	})

	return r
}
