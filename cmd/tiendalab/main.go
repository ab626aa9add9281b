package main

import (
	"context"
	"database/sql"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/davicafu/tiendalab/internal/config"
	convApp "github.com/davicafu/tiendalab/internal/conversation/application"
	convDomain "github.com/davicafu/tiendalab/internal/conversation/domain"
	convHttp "github.com/davicafu/tiendalab/internal/conversation/infra/inbound/http"
	convRepoMongo "github.com/davicafu/tiendalab/internal/conversation/infra/outbound/db/mongodb"
	convRepoPg "github.com/davicafu/tiendalab/internal/conversation/infra/outbound/db/postgres"
	convRepoSQLite "github.com/davicafu/tiendalab/internal/conversation/infra/outbound/db/sqlite"
	embApp "github.com/davicafu/tiendalab/internal/embedding/application"
	embDomain "github.com/davicafu/tiendalab/internal/embedding/domain"
	embEvents "github.com/davicafu/tiendalab/internal/embedding/infra/inbound/events"
	vectorRepoPg "github.com/davicafu/tiendalab/internal/embedding/infra/outbound/db/postgres"
	vectorRepoSQLite "github.com/davicafu/tiendalab/internal/embedding/infra/outbound/db/sqlite"
	"github.com/davicafu/tiendalab/internal/embedding/infra/outbound/ml"
	productApp "github.com/davicafu/tiendalab/internal/product/application"
	productDomain "github.com/davicafu/tiendalab/internal/product/domain"
	productHttp "github.com/davicafu/tiendalab/internal/product/infra/inbound/http"
	productRepoPg "github.com/davicafu/tiendalab/internal/product/infra/outbound/db/postgres"
	productRepoSQLite "github.com/davicafu/tiendalab/internal/product/infra/outbound/db/sqlite"
	recoApp "github.com/davicafu/tiendalab/internal/recommendation/application"
	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
	recoHttp "github.com/davicafu/tiendalab/internal/recommendation/infra/inbound/http"
	recoAnalytics "github.com/davicafu/tiendalab/internal/recommendation/infra/outbound/analytics/clickhouse"
	"github.com/davicafu/tiendalab/internal/recommendation/infra/outbound/model"
	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
	outboxMongo "github.com/davicafu/tiendalab/internal/shared/infra/db/mongodb"
	outboxPg "github.com/davicafu/tiendalab/internal/shared/infra/db/postgres"
	outboxSQLite "github.com/davicafu/tiendalab/internal/shared/infra/db/sqlite"
	infraEvents "github.com/davicafu/tiendalab/internal/shared/infra/events"
	infraRelayer "github.com/davicafu/tiendalab/internal/shared/infra/relayer"
	sharedBus "github.com/davicafu/tiendalab/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/tiendalab/internal/shared/infra/platform/cache"
	"github.com/davicafu/tiendalab/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const mongoDBName = "tiendalab"

// ---------------- Main ----------------
func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.LogLevel) // inicializa zap
	log := logger.Logger()    // obtiene logger estructurado
	defer log.Sync()          // flush buffers al salir

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	var db *sql.DB
	var err error

	var outboxRepo sharedDomain.OutboxRepository
	var productRepo productDomain.ProductRepository
	var convRepo convDomain.ConversationRepository
	var vectorRepo embDomain.VectorRepository

	if cfg.PostgresURL != "" {
		log.Info("🚀 Usando PostgreSQL como almacén principal")
		db, err = sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Fatal("failed to open PostgreSQL", zap.Error(err))
		}
		for name, init := range map[string]func(*sql.DB) error{
			"outbox":        outboxPg.InitOutboxPostgres,
			"products":      productRepoPg.InitProductsPostgres,
			"conversations": convRepoPg.InitConversationsPostgres,
			"vectors":       vectorRepoPg.InitVectorsPostgres,
		} {
			if err := init(db); err != nil {
				log.Fatal("failed to initialize PostgreSQL schema", zap.String("schema", name), zap.Error(err))
			}
		}
		outboxRepo = outboxPg.NewOutboxRepoPostgres(db, cfg.OutboxMaxRetries)
		productRepo = productRepoPg.NewProductRepoPostgres(db)
		convRepo = convRepoPg.NewConversationRepoPostgres(db)
		vectorRepo = vectorRepoPg.NewVectorRepoPostgres(db)
	} else {
		log.Info("⚡️ Usando SQLite como almacén principal", zap.String("path", cfg.SQLitePath))
		db, err = sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		for name, init := range map[string]func(*sql.DB) error{
			"outbox":        outboxSQLite.InitOutboxSQLite,
			"products":      productRepoSQLite.InitProductsSQLite,
			"conversations": convRepoSQLite.InitConversationsSQLite,
			"vectors":       vectorRepoSQLite.InitVectorsSQLite,
		} {
			if err := init(db); err != nil {
				log.Fatal("failed to initialize SQLite schema", zap.String("schema", name), zap.Error(err))
			}
		}
		outboxRepo = outboxSQLite.NewOutboxRepoSQLite(db, cfg.OutboxMaxRetries, cfg.OutboxPublishTimeout*10)
		productRepo = productRepoSQLite.NewProductRepoSQLite(db)
		convRepo = convRepoSQLite.NewConversationRepoSQLite(db)
		vectorRepo = vectorRepoSQLite.NewVectorRepoSQLite(db)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("failed to ping database", zap.Error(err))
	}

	// Las conversaciones pueden vivir en MongoDB, con su propio outbox en la
	// misma base para conservar la atomicidad de sesión.
	var mongoOutboxRepo *outboxMongo.OutboxRepoMongoDB
	if cfg.UseMongo && cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect to MongoDB", zap.Error(err))
		}
		defer mongoClient.Disconnect(context.Background())

		mongoOutboxRepo = outboxMongo.NewOutboxRepoMongoDB(mongoClient, mongoDBName, cfg.OutboxMaxRetries, cfg.OutboxPublishTimeout*10)
		convRepo, err = convRepoMongo.NewConversationRepoMongoDB(ctx, mongoClient, mongoDBName, mongoOutboxRepo)
		if err != nil {
			log.Fatal("failed to initialize MongoDB conversations", zap.Error(err))
		}
		log.Info("🚀 Conversaciones en MongoDB", zap.String("db", mongoDBName))
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria:", zap.Error(err))
		cacheInstance = sharedCache.NewInMemoryCache(3 * cfg.CacheTTL)
	} else {
		cacheInstance = sharedCache.NewRedisCache(rdb, cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// --------------- Servicios --------------
	productService := productApp.NewProductService(productRepo, cacheInstance)
	convService := convApp.NewConversationService(convRepo)

	embeddingClient := ml.NewClient(cfg.EmbeddingURL, cfg.EmbeddingTimeout)
	embeddingService := embApp.NewEmbeddingService(productRepo, embeddingClient, vectorRepo, log)
	productConsumer := embEvents.NewProductConsumer(embeddingService, log)

	// ---------------- Events ---------------
	var publisher sharedBus.EventPublisher

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		kafkaPublisher := infraEvents.NewKafkaPublisher(cfg.KafkaBrokers, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		productReader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.KafkaBrokers,
			Topic:    cfg.ProductTopic,
			GroupID:  "tiendalab-embedding-service",
			MinBytes: 10e3, // 10KB
			MaxBytes: 10e6, // 10MB
		})
		defer productReader.Close()

		productConsumerAdapter := infraEvents.NewConsumerAdapter(productReader, productConsumer, log)
		productConsumerAdapter.Start(ctx)
	} else {
		log.Info("⚡️ Usando bus de eventos directo (sin broker)")

		directBus := infraEvents.NewDirectBus(log)
		directBus.Subscribe(productDomain.ProductTopic, productConsumer)
		// Sin broker nadie consume los eventos de conversación todavía; se
		// aceptan para que el outbox pueda marcarlos como enviados.
		directBus.Subscribe(convDomain.ConversationTopic, ackHandler{log: log})
		publisher = directBus
	}

	// --------- Extracción de preferencias ---------
	var completer recoDomain.Completer = model.NewOpenAIClient(cfg.ChatAPIURL, cfg.ChatAPIKey, cfg.ChatModel, cfg.ModelTimeout)
	if cfg.HFAPIURL != "" {
		secondary := model.NewSelfHostedClient(cfg.HFAPIURL, cfg.HFAPIKey, cfg.ModelTimeout)
		completer = model.NewFallbackCompleter(completer, secondary, cfg.ModelTimeout, log)
		log.Info("✅ Backend de extracción secundario configurado", zap.String("url", cfg.HFAPIURL))
	}

	// ---------------- Analítica ----------------
	var analytics recoDomain.Analytics
	if cfg.ClickHouseAddr != "" {
		repo, err := recoAnalytics.NewRecoAnalyticsRepo(cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica deshabilitada", zap.Error(err))
		} else {
			analytics = repo
			log.Info("✅ ClickHouse conectado, analítica habilitada")
		}
	}

	recoService := recoApp.NewRecommendationService(
		convService, completer, productRepo, cacheInstance, analytics, cfg.CacheTTL, log,
	)

	// ------------ Outbox Worker ------------
	// Se podría ejecutar externamente
	dispatcher := infraRelayer.NewDispatcher(outboxRepo, publisher, cfg.OutboxPeriod, cfg.OutboxLimit, cfg.OutboxPublishTimeout, log)
	go dispatcher.Start(ctx)

	janitor := infraRelayer.NewJanitor(outboxRepo, cfg.JanitorPeriod, cfg.OutboxRetention, log)
	go janitor.Start(ctx)

	if mongoOutboxRepo != nil {
		mongoDispatcher := infraRelayer.NewDispatcher(mongoOutboxRepo, publisher, cfg.OutboxPeriod, cfg.OutboxLimit, cfg.OutboxPublishTimeout, log)
		go mongoDispatcher.Start(ctx)

		mongoJanitor := infraRelayer.NewJanitor(mongoOutboxRepo, cfg.JanitorPeriod, cfg.OutboxRetention, log)
		go mongoJanitor.Start(ctx)
	}

	// ---------------- HTTP ----------------
	productHandler := productHttp.NewProductHandler(productService)
	convHandler := convHttp.NewConversationHandler(convService)
	recoHandler := recoHttp.NewRecommendationHandler(recoService)

	router := gin.Default()
	productHttp.RegisterProductRoutes(router, productHandler)
	convHttp.RegisterConversationRoutes(router, convHandler)
	recoHttp.RegisterRecommendationRoutes(router, recoHandler)

	router.GET("/health", func(c *gin.Context) {
		pending, err := outboxRepo.CountPending(c.Request.Context())
		if err != nil {
			c.JSON(500, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ok", "outbox_pending": pending})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}

// ackHandler acepta el mensaje sin procesarlo.
type ackHandler struct {
	log *zap.Logger
}

func (h ackHandler) HandleMessage(ctx context.Context, key string, payload []byte) error {
	h.log.Debug("Evento de conversación aceptado sin consumidor", zap.Int("bytes", len(payload)))
	return nil
}
