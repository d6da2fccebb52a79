package main

import (
	"log"
	"time"

	"taxbridge/internal/core/cache"
	"taxbridge/internal/core/config"
	"taxbridge/internal/core/logger"
	"taxbridge/internal/core/server"
	taxadapter "taxbridge/internal/features/taxcalc/adapters"
	taxhandler "taxbridge/internal/features/taxcalc/handler"
	taxservice "taxbridge/internal/features/taxcalc/service"

	"go.uber.org/zap"
)

// taxCachePrefix namespaces cached tax responses in the shared cache.
const taxCachePrefix = "tj_tax_"

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	// Initialize WooCommerce client and run Health Check
	wcClient := taxadapter.NewWooCommerceClient(cfg.WooCommerce)
	if err := wcClient.HealthCheck(); err != nil {
		l.Fatal("WooCommerce Health Check Failed", zap.Error(err))
	}
	l.Info("WooCommerce connection verified")

	// Initialize cache backend
	redisCache, err := cache.NewRedisAdapter(cfg.RedisURL)
	if err != nil {
		l.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisCache.Close()

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	responseCache := cache.NewHashedCache(redisCache, taxCachePrefix, ttl)

	// Initialize tax service adapters
	taxClient := taxadapter.NewCachedTaxClient(taxadapter.NewHTTPTaxClient(cfg.TaxService), responseCache)
	nexus := taxadapter.NewNexusRegionsAdapter(cfg.TaxService)
	rateStore := taxadapter.NewWooCommerceRateStore(wcClient)
	resolver := taxadapter.NewStaticTaxCodeResolver(nil)
	tokens := taxadapter.NewJWTTokenValidator(cfg.Store.AdminActionSecret)
	results := taxadapter.NewCacheResultStore(redisCache)

	// Initialize calculation pipeline & handler
	calcLogger := taxservice.NewZapCalculationLogger(cfg.Store.DebugLoggingEnabled)
	builder := taxservice.NewCalculatorBuilder(
		wcClient,
		wcClient,
		nexus,
		taxClient,
		rateStore,
		resolver,
		tokens,
		results,
		calcLogger,
		cfg.Store,
	)
	taxHandler := taxhandler.NewTaxCalcHandler(builder, results)

	srv := server.New(cfg)

	// Register Routes
	srv.App.Post("/orders/:id/tax-calculations", taxHandler.Calculate)
	srv.App.Get("/orders/:id/tax-calculations/latest", taxHandler.LatestResult)

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}
