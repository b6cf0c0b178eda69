package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/Spok95/cpq/internal/api"
	"github.com/Spok95/cpq/internal/auth"
	"github.com/Spok95/cpq/internal/bot"
	"github.com/Spok95/cpq/internal/config"
	"github.com/Spok95/cpq/internal/dialog"
	"github.com/Spok95/cpq/internal/domain/catalog"
	"github.com/Spok95/cpq/internal/domain/customers"
	"github.com/Spok95/cpq/internal/domain/inventory"
	"github.com/Spok95/cpq/internal/domain/orders"
	"github.com/Spok95/cpq/internal/domain/products"
	"github.com/Spok95/cpq/internal/domain/quotes"
	"github.com/Spok95/cpq/internal/domain/users"
	"github.com/Spok95/cpq/internal/infra/cache"
	"github.com/Spok95/cpq/internal/infra/db"
	httpx "github.com/Spok95/cpq/internal/infra/http"
	"github.com/Spok95/cpq/internal/infra/logger"
	"github.com/Spok95/cpq/internal/memstore"
	"github.com/Spok95/cpq/internal/service"
	"github.com/Spok95/cpq/migrations"
)

// stores is the storage backend the services run on.
type stores struct {
	users      service.UserStore
	customers  service.CustomerStore
	categories service.CategoryStore
	products   service.ProductStore
	stock      service.StockStore
	quotes     service.QuoteStore
	orders     service.OrderStore
	dialogs    bot.StateStore
}

func postgresStores(pool *pgxpool.Pool) stores {
	return stores{
		users:      users.NewRepo(pool),
		customers:  customers.NewRepo(pool),
		categories: catalog.NewRepo(pool),
		products:   products.NewRepo(pool),
		stock:      inventory.NewRepo(pool),
		quotes:     quotes.NewRepo(pool),
		orders:     orders.NewRepo(pool),
		dialogs:    dialog.NewRepo(pool),
	}
}

func memoryStores() stores {
	m := memstore.New()
	return stores{
		users:      m.Users(),
		customers:  m.Customers(),
		categories: m.Categories(),
		products:   m.Products(),
		stock:      m.Stock(),
		quotes:     m.Quotes(),
		orders:     m.Orders(),
		dialogs:    m.Dialogs(),
	}
}

func runMigrations(dsn string) error {
	sqlDB, err := goose.OpenDBWithDriver("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(sqlDB, ".")
}

func main() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/example.yaml"
	}
	cfg, err := config.Load(path)
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var st stores
	if cfg.Postgres.DSN == "" {
		log.Warn("postgres dsn is empty, running on the in-memory store")
		st = memoryStores()
	} else {
		if err := runMigrations(cfg.Postgres.DSN); err != nil {
			log.Error("migrations failed", "err", err)
			return
		}
		log.Info("migrations applied")

		pool, err := db.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("db connect failed", "err", err)
			return
		}
		defer pool.Close()
		log.Info("db connected")
		st = postgresStores(pool)
	}

	var c cache.Cache
	if cfg.Redis.Addr != "" {
		c = cache.NewRedisCache(cfg.Redis.Addr, "cpq")
		log.Info("list cache on redis", "addr", cfg.Redis.Addr)
	} else {
		c = cache.NewMemory()
	}
	lists := service.NewLists(c, cfg.Redis.TTL, log)

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	userSvc := service.NewUsers(st.users, issuer, lists, log)
	customerSvc := service.NewCustomers(st.customers, st.users, lists)
	productSvc := service.NewProducts(st.products, st.categories, st.stock, lists)
	quoteSvc := service.NewQuotes(st.quotes, st.customers, st.products, st.users, nil, lists, log)
	orderSvc := service.NewOrders(st.orders, st.quotes, st.customers, st.stock, lists, log)

	if cfg.Telegram.Enabled {
		tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			log.Error("telegram init failed", "err", err)
			return
		}
		log.Info("telegram bot authorized", "username", tg.Self.UserName)

		b := bot.New(tg, log, quoteSvc, userSvc, customerSvc, st.dialogs)
		quoteSvc.SetNotifier(b)
		go func() {
			if err := b.Run(ctx, bot.Updates(tg, cfg.Telegram.Timeout)); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
	}

	handler := api.New(api.Deps{
		Customers: customerSvc,
		Products:  productSvc,
		Quotes:    quoteSvc,
		Orders:    orderSvc,
		Users:     userSvc,
		Issuer:    issuer,
		Log:       log,
		PageSize:  cfg.Table.DefaultPageSize,
		Company:   cfg.App.Company,
	}).Routes()

	srv := httpx.New(cfg.HTTP.Addr, handler, cfg.Metrics.Enabled, cfg.HTTP.ReadTimeout)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
