package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"

	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	"storefront/internal/jobs"
	"storefront/internal/repos"
	"storefront/internal/services"
)

// Stack is the wired backend: database, state store and services.
type Stack struct {
	DB       *sqlx.DB
	State    services.StateStore
	Pruner   jobs.Pruner // nil when the store expires entries itself
	Services handlers.Services

	redis *repos.RedisState
}

// Build opens storage and wires every service from cfg. Session state goes
// to Redis when REDIS_ADDR is set and to SQLite otherwise.
func Build(ctx context.Context, cfg config.Config) (*Stack, error) {
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	st := &Stack{DB: db}

	if cfg.RedisAddr != "" {
		rs := repos.NewRedisState(repos.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword), cfg.SessionTTL)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		log.Printf("[state] redis at %s", cfg.RedisAddr)
		st.State, st.redis = rs, rs
	} else {
		kv := repos.NewStateRepo(db)
		st.State, st.Pruner = kv, kv
	}

	codec := catalog.Codec{MinPrice: cfg.PriceMin, MaxPrice: cfg.PriceMax}
	cat, err := services.NewCatalogService(repos.NewProductRepo(db), codec, cfg.PageSize, cfg.SearchDebounce)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Printf("[catalog] %d products loaded", cat.Len())

	state := services.NewSessionState(st.State)
	machine := checkout.NewMachine(checkout.Pricing{
		TaxRate:          cfg.TaxRate,
		FlatShipping:     cfg.ShippingFlat,
		FreeShippingOver: cfg.FreeShippingOver,
	})
	st.Services = handlers.Services{
		Catalog:   cat,
		Inventory: services.NewInventoryService(cat),
		Cart:      services.NewCartService(state, cat),
		Wishlist:  services.NewWishlistService(state, cat),
		Checkout:  services.NewCheckoutService(state, machine),
		Auth:      &services.AuthService{Users: repos.NewUserRepo(db), State: state},
	}
	return st, nil
}

func (s *Stack) Close() error {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	return s.DB.Close()
}
