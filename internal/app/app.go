// Package app wires configuration, stores and services into the HTTP handler.
package app

import (
	"context"
	"fmt"
	"time"

	"courtreserve/internal/auth"
	"courtreserve/internal/catalog"
	intconfig "courtreserve/internal/config"
	intdb "courtreserve/internal/db"
	"courtreserve/internal/domain/models"
	api "courtreserve/internal/http"
	"courtreserve/internal/http/handlers"
	"courtreserve/internal/notify"
	"courtreserve/internal/payments"
	"courtreserve/internal/repositories"
	"courtreserve/internal/repositories/memstore"
	"courtreserve/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Stores bundles one implementation of every store contract.
type Stores struct {
	Courts          services.CourtStore
	Bookings        services.BookingStore
	Discounts       services.DiscountStore
	Users           services.UserStore
	Reconciliations services.ReconciliationStore
	Ping            func(ctx context.Context) error
	Driver          string
}

func MemoryStores() Stores {
	s := memstore.New(catalog.DefaultCourts())
	return Stores{
		Courts:          s.Courts(),
		Bookings:        s.Bookings(),
		Discounts:       s.Discounts(),
		Users:           s.Users(),
		Reconciliations: s.Reconciliations(),
		Driver:          intconfig.StoreMemory,
	}
}

// MySQLStores connects, migrates when asked, and seeds the courts.
func MySQLStores(ctx context.Context, env intconfig.Env) (Stores, error) {
	db, err := intconfig.ConnectDB(env)
	if err != nil {
		return Stores{}, err
	}
	if env.RunMigrations {
		if err := intdb.Migrate(db.DB); err != nil {
			return Stores{}, err
		}
	}
	courts := repositories.CourtRepository{DB: db}
	if err := courts.Seed(ctx, catalog.DefaultCourts()); err != nil {
		return Stores{}, fmt.Errorf("seed courts: %w", err)
	}
	return Stores{
		Courts:          courts,
		Bookings:        repositories.BookingRepository{DB: db},
		Discounts:       repositories.DiscountRepository{DB: db},
		Users:           repositories.UserRepository{DB: db},
		Reconciliations: repositories.ReconciliationRepository{DB: db},
		Ping:            db.PingContext,
		Driver:          intconfig.StoreMySQL,
	}, nil
}

// Loaders read each live collection in full, newest first.
func Loaders(st Stores) map[string]notify.Loader {
	return map[string]notify.Loader{
		services.CollectionBookings: func(ctx context.Context) (any, error) {
			return st.Bookings.List(ctx, models.BookingFilter{})
		},
		services.CollectionUsers: func(ctx context.Context) (any, error) {
			return st.Users.List(ctx)
		},
		services.CollectionDiscounts: func(ctx context.Context) (any, error) {
			return st.Discounts.List(ctx)
		},
	}
}

type Deps struct {
	Env      intconfig.Env
	Location *time.Location
	Stores   Stores
	Gateway  services.PaymentGateway
	Events   services.EventPublisher
	Alerter  services.AdminAlerter
	Notifier *notify.Notifier
	Now      services.Clock
}

func NewHandler(d Deps) *handlers.Handler {
	st := d.Stores
	var changes services.ChangeNotifier
	var hub *notify.Hub
	if d.Notifier != nil {
		changes = d.Notifier
		hub = d.Notifier.Hub()
	}

	avail := services.AvailabilityService{
		Courts:   st.Courts,
		Bookings: st.Bookings,
		Now:      d.Now,
		Location: d.Location,
	}
	discounts := services.DiscountService{
		Discounts: st.Discounts,
		Notifier:  changes,
		Events:    d.Events,
		Now:       d.Now,
	}
	bookings := services.BookingService{
		Courts:          st.Courts,
		Bookings:        st.Bookings,
		Users:           st.Users,
		Reconciliations: st.Reconciliations,
		Availability:    avail,
		Discounts:       discounts,
		Gateway:         d.Gateway,
		Currency:        d.Env.PaymentCurrency,
		Notifier:        changes,
		Events:          d.Events,
		Alerter:         d.Alerter,
		Now:             d.Now,
		Location:        d.Location,
	}
	return &handlers.Handler{
		Availability: avail,
		Bookings:     bookings,
		Discounts:    discounts,
		Admin: services.AdminService{
			Booking:         bookings,
			Discounts:       discounts,
			Users:           st.Users,
			Bookings:        st.Bookings,
			Reconciliations: st.Reconciliations,
			Notifier:        changes,
			Events:          d.Events,
			Now:             d.Now,
		},
		Auth: services.AuthService{
			Users:           st.Users,
			Tokens:          auth.Tokens{Secret: []byte(d.Env.JWTSecret), TTL: d.Env.JWTTTL},
			SuperAdminEmail: d.Env.SuperAdminEmail,
			Notifier:        changes,
			Now:             d.Now,
		},
		Receipts: services.ReceiptService{
			Booking:  bookings,
			Users:    st.Users,
			Currency: d.Env.PaymentCurrency,
			Location: d.Location,
			Now:      d.Now,
		},
		Hub:       hub,
		StorePing: st.Ping,
		Driver:    st.Driver,
	}
}

// Gateway picks the configured payment provider.
func Gateway(env intconfig.Env) (services.PaymentGateway, error) {
	if env.PaymentProvider == intconfig.PaymentOmise {
		return payments.NewOmise(env.OmisePublicKey, env.OmiseSecretKey)
	}
	log.Warn().Msg("using sandbox payment gateway, charges are simulated")
	return payments.NewSandbox(), nil
}

// Bootstrap builds the engine and starts the background workers bound to ctx.
// cleanup releases connections after the server has stopped.
func Bootstrap(ctx context.Context, env intconfig.Env) (*gin.Engine, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*gin.Engine, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	loc, err := env.Location()
	if err != nil {
		return fail(fmt.Errorf("timezone %q: %w", env.Timezone, err))
	}

	stores := MemoryStores()
	if env.StoreDriver == intconfig.StoreMySQL {
		stores, err = MySQLStores(ctx, env)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, intconfig.CloseDB)
	}

	gateway, err := Gateway(env)
	if err != nil {
		return fail(err)
	}

	var events services.EventPublisher = notify.LogPublisher{}
	if env.RabbitURL != "" {
		pub, err := notify.NewPublisher(env.RabbitURL, env.RabbitExchange)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func() { _ = pub.Close() })
		events = pub
	}

	alerter, err := notify.NewTelegramAlerter(env.TelegramToken, env.TelegramAdminChatID)
	if err != nil {
		return fail(err)
	}

	notifier := notify.NewNotifier(notify.NewHub(), Loaders(stores))
	if env.RedisAddr != "" {
		relay := notify.NewRedisRelay(env.RedisAddr, env.RedisPassword, env.RedisDB, env.RedisChannel)
		if err := relay.Ping(ctx); err != nil {
			_ = relay.Close()
			return fail(err)
		}
		closers = append(closers, func() { _ = relay.Close() })
		notifier.Relay = relay
		go func() {
			if err := relay.Listen(ctx, notifier); err != nil {
				log.Error().Err(err).Msg("change relay stopped")
			}
		}()
	}
	go notifier.Run(ctx)

	hd := NewHandler(Deps{
		Env:      env,
		Location: loc,
		Stores:   stores,
		Gateway:  gateway,
		Events:   events,
		Alerter:  alerter,
		Notifier: notifier,
	})
	log.Info().Str("store", stores.Driver).Str("payments", env.PaymentProvider).
		Bool("redis", env.RedisAddr != "").Bool("rabbitmq", env.RabbitURL != "").Msg("services wired")
	return api.NewRouter(env, hd), cleanup, nil
}
