package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/hg_store/internal/catalog"
	"github.com/Skotchmaster/hg_store/internal/config"
	"github.com/Skotchmaster/hg_store/internal/es"
	"github.com/Skotchmaster/hg_store/internal/handlers"
	"github.com/Skotchmaster/hg_store/internal/kvstore"
	"github.com/Skotchmaster/hg_store/internal/logging"
	loggingmw "github.com/Skotchmaster/hg_store/internal/middleware/logging"
	"github.com/Skotchmaster/hg_store/internal/mykafka"
	"github.com/Skotchmaster/hg_store/internal/service/account"
	"github.com/Skotchmaster/hg_store/internal/service/cart"
	"github.com/Skotchmaster/hg_store/internal/service/newsletter"
	"github.com/Skotchmaster/hg_store/internal/service/order"
	"github.com/Skotchmaster/hg_store/internal/service/pricing"
	"github.com/Skotchmaster/hg_store/internal/service/transfer"
	"github.com/Skotchmaster/hg_store/internal/service/wishlist"
	httpserver "github.com/Skotchmaster/hg_store/internal/transport/http"
)

func main() {
	cfg := config.LoadConfig()

	logger := logging.New(cfg.LogLevel)
	ctx := logging.IntoContext(context.Background(), logger)

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := kvstore.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		logger.Error("store_init_error", "error", err)
		os.Exit(1)
	}

	var events mykafka.Publisher = mykafka.NopPublisher{}
	var prod *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			logger.Error("kafka_init_error", "error", err)
			os.Exit(1)
		}
		events = prod
	}

	products := catalog.NewLoader(cfg.CatalogURL, cfg.CatalogTimeout)

	search := &handlers.SearchHandler{Catalog: products}
	if cfg.ESURL != "" {
		if index, err := newProductIndex(ctx, cfg, products); err != nil {
			logger.Warn("es_unavailable", "error", err, "fallback", "catalog search")
		} else {
			search.Index = index
		}
	}

	ledger := cart.NewLedger(store, products, events)
	checkout := pricing.NewCheckout(ledger)
	orders := order.NewRecorder(store, ledger, events, cfg.OrderProcessingDelay)
	wishes := wishlist.NewSet(store, events)
	accounts := account.NewAccounts(store, kvstore.NewMemoryStore(), events)
	subscribers := newsletter.NewList(store, events)

	deps := httpserver.Deps{
		ProductHandler:  &handlers.ProductHandler{Catalog: products},
		SearchHandler:   search,
		CartHandler:     &handlers.CartHandler{Cart: ledger},
		WishlistHandler: &handlers.WishlistHandler{Wishlist: wishes, Catalog: products},
		CheckoutHandler: &handlers.CheckoutHandler{
			Checkout: checkout,
			Orders:   orders,
		},
		AuthHandler: &handlers.AuthHandler{Accounts: accounts},
		DataHandler: &handlers.DataHandler{
			// orders before ledger: a placed order releases cart lines under the recorder lock
			Transfer: transfer.NewService(store,
				orders.Locker(), ledger.Locker(), wishes.Locker(), accounts.Locker(), subscribers.Locker()),
			Newsletter: subscribers,
		},
		Ready: func(ctx context.Context) error {
			if _, err := store.Get(ctx, kvstore.KeyCart); err != nil {
				return fmt.Errorf("store: %w", err)
			}
			_, err := products.Products(ctx)
			return err
		},
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		WriteTimeout:      15 * time.Second + cfg.OrderProcessingDelay,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		logger.Info("server_starting", "addr", srv.Addr, "catalog", products.Source())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	go func() {
		<-quit
		logger.Warn("force_exit")
		os.Exit(1)
	}()

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	if err := store.Close(); err != nil {
		logger.Error("store_close_error", "error", err)
	}

	if prod != nil {
		if err := prod.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}

// newProductIndex connects to Elasticsearch and indexes the catalog so
// search results match what the shop serves.
func newProductIndex(ctx context.Context, cfg *config.Config, products *catalog.Loader) (*es.ProductIndex, error) {
	client, err := es.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	all, err := products.Products(ctx)
	if err != nil {
		return nil, err
	}

	index := es.NewProductIndex(client, cfg.ESIndex)
	if err := index.IndexProducts(ctx, all); err != nil {
		return nil, err
	}
	return index, nil
}
