package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/complyline/compliance-backend/internal/data/db"
	"github.com/complyline/compliance-backend/internal/data/repos"
	"github.com/complyline/compliance-backend/internal/handlers"
	"github.com/complyline/compliance-backend/internal/modules/eramba"
	"github.com/complyline/compliance-backend/internal/modules/reconcile"
	"github.com/complyline/compliance-backend/internal/modules/trustcloud"
	"github.com/complyline/compliance-backend/internal/observability"
	"github.com/complyline/compliance-backend/internal/pkg/logger"
	"github.com/complyline/compliance-backend/internal/platform/captures"
	"github.com/complyline/compliance-backend/internal/server"
	"github.com/complyline/compliance-backend/internal/services"
	"github.com/complyline/compliance-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownTracing, err := observability.SetupTracing(context.Background(), "compliance-backend")
	if err != nil {
		log.Warn("Tracing init failed", "error", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Warn("Tracing shutdown failed", "error", err)
			}
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	erambaBaseURL := utils.GetEnv("ERAMBA_BASE_URL", "http://localhost:8001/api", log)
	erambaPolicyFrom := utils.GetEnvAsInt("ERAMBA_POLICY_ID_FROM", 1, log)
	erambaPolicyTo := utils.GetEnvAsInt("ERAMBA_POLICY_ID_TO", 200, log)
	syncLockTTL := utils.GetEnvAsInt("SYNC_LOCK_TTL_SECONDS", 900, log)
	redisAddr := utils.GetEnv("REDIS_ADDR", "localhost:6379", log)
	redisPassword := os.Getenv("REDIS_PASSWORD")
	frameworkTablePath := os.Getenv("FRAMEWORK_TABLE_PATH")
	corsOrigins := os.Getenv("CORS_ALLOW_ORIGINS")

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	// Repos
	log.Info("Setting up Repos from main...")
	certificationRepo := repos.NewCertificationRepo(thePG, log)
	clauseRepo := repos.NewClauseRepo(thePG, log)
	controlRepo := repos.NewControlRepo(thePG, log)
	policyRepo := repos.NewPolicyRepo(thePG, log)
	standardRepo := repos.NewFrameworkStandardRepo(thePG, log)
	linkRepo := repos.NewLinkRepo(thePG, log)

	// Reconciliation core
	log.Info("Setting up reconciliation core from main...")
	resolver := reconcile.NewResolver(certificationRepo, clauseRepo, controlRepo, policyRepo, log)
	engine := reconcile.NewEngine(resolver, certificationRepo, clauseRepo, controlRepo, policyRepo, log)
	linker := reconcile.NewLinker(linkRepo, log)

	frameworkTable := reconcile.DefaultFrameworkTable()
	if frameworkTablePath != "" {
		frameworkTable, err = reconcile.LoadFrameworkTable(frameworkTablePath)
		if err != nil {
			log.Error("Framework table load failed", "error", err, "path", frameworkTablePath)
			os.Exit(1)
		}
	}
	batcher := reconcile.NewStandardBatcher(controlRepo, standardRepo, frameworkTable, log)

	// Capture store and syncers
	captureStore := captures.NewStore(thePG, log)
	sectionSyncer := trustcloud.NewSectionSyncer(thePG, captureStore, engine, linker, log)
	policyControlSyncer := trustcloud.NewPolicyControlSyncer(thePG, captureStore, resolver, linker, policyRepo, log)
	standardsSyncer := trustcloud.NewStandardsSyncer(thePG, captureStore, batcher, log)

	erambaClient := eramba.NewClient(erambaBaseURL, log)
	frameworkSyncer := eramba.NewFrameworkSyncer(thePG, erambaClient, engine, log)
	clauseSyncer := eramba.NewClauseSyncer(thePG, erambaClient, engine, resolver, linker, log)
	controlSyncer := eramba.NewControlSyncer(thePG, erambaClient, engine, resolver, linker, log)
	policySyncer := eramba.NewPolicySyncer(thePG, erambaClient, engine, erambaPolicyFrom, erambaPolicyTo, log)

	// Services
	log.Info("Setting up Services from main...")
	lockService := services.NewSyncLockService(rdb, time.Duration(syncLockTTL)*time.Second, log)
	statusService := services.NewGraphStatusService(certificationRepo, clauseRepo, controlRepo, policyRepo, standardRepo, linkRepo, log)
	parentService := services.NewClauseParentService(thePG, certificationRepo, clauseRepo, log)

	// Handlers
	log.Info("Setting up handlers from main...")
	syncHandler := handlers.NewSyncHandler(handlers.SyncHandlerConfig{
		Locks:                    lockService,
		TrustCloudSections:       sectionSyncer,
		TrustCloudPolicyControls: policyControlSyncer,
		TrustCloudStandards:      standardsSyncer,
		ErambaFrameworks:         frameworkSyncer,
		ErambaClauses:            clauseSyncer,
		ErambaControls:           controlSyncer,
		ErambaPolicies:           policySyncer,
	}, log)
	syncLockHandler := handlers.NewSyncLockHandler(lockService, log)
	complianceHandler := handlers.NewComplianceHandler(handlers.ComplianceHandlerConfig{
		Certifications: certificationRepo,
		Clauses:        clauseRepo,
		Controls:       controlRepo,
		Policies:       policyRepo,
		Standards:      standardRepo,
		Links:          linkRepo,
		Status:         statusService,
		Parents:        parentService,
	}, log)
	captureHandler := handlers.NewCaptureHandler(captureStore, log)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if corsOrigins != "" {
		origins = strings.Split(corsOrigins, ",")
	}
	router := server.NewRouter(server.RouterConfig{
		SyncHandler:       syncHandler,
		SyncLockHandler:   syncLockHandler,
		ComplianceHandler: complianceHandler,
		CaptureHandler:    captureHandler,
		AllowOrigins:      origins,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
