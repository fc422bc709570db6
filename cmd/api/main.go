package main

import (
	"fmt"
	"net/http"
	"os"

	"offer-calculator/internal/config"
	"offer-calculator/internal/crm"
	"offer-calculator/internal/handlers"
	"offer-calculator/internal/lifecycle"
	"offer-calculator/internal/notify"
	"offer-calculator/internal/pricing"
	"offer-calculator/internal/property"
	"offer-calculator/internal/search"
	"offer-calculator/internal/store"
	"offer-calculator/internal/syncqueue"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments inject the environment.
	_ = godotenv.Load()

	configPath := getEnv("CONFIG_PATH", "config/offer_config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config from %s: %v. Using defaults.\n", configPath, err)
		cfg = config.DefaultConfig()
	}

	config.ConfigureLogging(cfg.Logging)
	log := config.GetLogger()
	log.Infof("Loaded configuration from %s", configPath)

	// CRM credentials are secrets; the environment wins over the file.
	cfg.CRM.APIKey = getEnvOrConfig(cfg.CRM.APIKey, "GHL_API_KEY", "")
	cfg.CRM.LocationID = getEnvOrConfig(cfg.CRM.LocationID, "GHL_LOCATION_ID", "")

	crmClient := crm.NewClient(cfg.CRM)
	if !crmClient.Configured() {
		log.Warn("Warning: GHL_API_KEY / GHL_LOCATION_ID not set; CRM search and sync disabled")
	}

	// Durable storage backend for the saved-offer history.
	var (
		backend store.Backend
		gormDB  *store.GormBackend
	)
	storageType := getEnvOrConfig(cfg.Storage.Type, "STORAGE_TYPE", "file")

	switch storageType {
	case "mysql":
		log.Info("Using MySQL storage with GORM")
		mysqlCfg := cfg.Storage.MySQL

		portStr := ""
		if mysqlCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", mysqlCfg.Port)
		}

		gormDB, err = store.NewGormBackend(
			getEnvOrConfig(mysqlCfg.Host, "DB_HOST", "mysql"),
			getEnvOrConfig(portStr, "DB_PORT", "3306"),
			getEnvOrConfig(mysqlCfg.User, "DB_USER", "offers_user"),
			getEnvOrConfig(mysqlCfg.Password, "DB_PASSWORD", "offers_pass"),
			getEnvOrConfig(mysqlCfg.Database, "DB_NAME", "offers_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to MySQL: %v", err)
		}
		defer gormDB.Close()

		if err := gormDB.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		backend = gormDB

	case "postgres":
		log.Info("Using PostgreSQL storage")
		pgCfg := cfg.Storage.Postgres

		portStr := ""
		if pgCfg.Port > 0 {
			portStr = fmt.Sprintf("%d", pgCfg.Port)
		}

		pq, err := store.NewPQBackend(
			getEnvOrConfig(pgCfg.Host, "DB_HOST", "db"),
			getEnvOrConfig(portStr, "DB_PORT", "5432"),
			getEnvOrConfig(pgCfg.User, "DB_USER", "offers_user"),
			getEnvOrConfig(pgCfg.Password, "DB_PASSWORD", "offers_pass"),
			getEnvOrConfig(pgCfg.Database, "DB_NAME", "offers_db"),
		)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pq.Close()

		if err := pq.InitSchema(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		backend = pq

	default:
		log.Info("Using file storage")
		dir := getEnvOrConfig(cfg.Storage.FileDir, "STORAGE_DIR", "data")
		fileBackend, err := store.NewFileBackend(dir)
		if err != nil {
			log.Fatalf("Failed to initialize file storage: %v", err)
		}
		backend = fileBackend
	}

	offerStore := store.NewOfferStore(backend, cfg.Storage.Key, log)
	log.Infof("Offer store loaded (%d saved offers)", offerStore.Count())

	// Optional Meilisearch index over the offer history.
	var searchClient *search.SearchClient
	if cfg.Search.Meilisearch.Enabled {
		host := getEnvOrConfig(cfg.Search.Meilisearch.Host, "MEILISEARCH_HOST", "http://meilisearch:7700")
		key := getEnvOrConfig(cfg.Search.Meilisearch.APIKey, "MEILISEARCH_KEY", "")

		searchClient = search.NewSearchClient(host, key)
		if err := searchClient.InitIndex(); err != nil {
			log.Warnf("Warning: failed to initialize search index: %v", err)
			searchClient = nil
		} else if err := searchClient.IndexOffers(offerStore.LoadAll()); err != nil {
			log.Warnf("Warning: failed to seed search index: %v", err)
		}
	}

	// Background re-sync queue (MySQL only).
	var (
		syncQueue  *syncqueue.Queue
		syncWorker *syncqueue.Worker
	)
	if gormDB != nil {
		syncQueue = syncqueue.NewQueue(gormDB.DB(), cfg.CRM.Fields.Offer)

		syncWorker = syncqueue.NewWorker(gormDB.DB(), crmClient, cfg.Sync.GetPollInterval(), log)
		syncWorker.Start()
		defer syncWorker.Stop()

		syncScheduler := syncqueue.NewScheduler(gormDB.DB(), &cfg.Sync, log)
		if err := syncScheduler.Start(); err != nil {
			log.Warnf("Warning: failed to start maintenance scheduler: %v", err)
		}
		defer syncScheduler.Stop()
	}

	// Core wiring.
	engine := pricing.NewEngine(cfg.Pricing.CashDeduction, cfg.Pricing.MinOffer)
	source := property.NewSource(crmClient, cfg.Search, cfg.CRM.Fields, log)
	session := lifecycle.NewSession()
	feed := notify.NewFeed(50)
	retry := crm.NewRetryPolicy(cfg.Sync.MaxAttempts, cfg.Sync.GetBackoffUnit(), log)

	var recorder lifecycle.SyncRecorder
	if syncQueue != nil {
		recorder = syncQueue
	}
	lc := lifecycle.New(session, engine, crmClient, retry, recorder, offerStore, feed, log)

	opportunitiesHandler := handlers.NewOpportunitiesHandler(crmClient, log)
	sessionHandler := handlers.NewSessionHandler(session, source, cfg.Search.GetDebounce())
	defer sessionHandler.Close()
	offersHandler := handlers.NewOffersHandler(lc, offerStore, searchClient, feed, syncQueue, log)

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/opportunities", opportunitiesHandler.Search)
	r.POST("/api/opportunities", opportunitiesHandler.UpdateField)

	r.GET("/api/session", sessionHandler.Get)
	r.PUT("/api/session", sessionHandler.Update)
	r.POST("/api/session/property", sessionHandler.SelectProperty)
	r.DELETE("/api/session/property", sessionHandler.ClearProperty)

	r.POST("/api/offers/generate", offersHandler.Generate)
	r.POST("/api/offers/save", offersHandler.Save)
	r.POST("/api/offers/discard", offersHandler.Discard)
	r.GET("/api/offers", offersHandler.List)
	r.DELETE("/api/offers/:id", offersHandler.Delete)
	r.DELETE("/api/offers", offersHandler.Clear)
	r.GET("/api/offers/:id/export", offersHandler.Export)

	r.GET("/api/notifications", offersHandler.Notifications)
	r.GET("/api/sync/stats", offersHandler.SyncStats)

	port := getEnvOrConfig(cfg.Server.Port, "PORT", "8090")
	log.Infof("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrConfig returns the config value if set, otherwise falls back
// to the environment variable, then the default.
func getEnvOrConfig(configValue, envKey, defaultValue string) string {
	if configValue != "" {
		return configValue
	}
	return getEnv(envKey, defaultValue)
}
