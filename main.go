package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"pairchat/internal/clock"
	"pairchat/internal/config"
	"pairchat/internal/db"
	"pairchat/internal/handlers"
	"pairchat/internal/middleware"
	"pairchat/internal/observability"
	"pairchat/internal/rabbitmq"
	"pairchat/internal/repositories"
	"pairchat/internal/repositories/memory"
	"pairchat/internal/services"
	"pairchat/internal/sweeper"
	"pairchat/internal/telemetry"
	"pairchat/internal/tracing"
	"pairchat/internal/ws"
)

type stores struct {
	users    repositories.UserRepository
	chats    repositories.ChatRepository
	messages repositories.MessageRepository
	typing   repositories.TypingRepository
	pins     repositories.PinRepository
	reads    repositories.ReadRepository
	close    func() error
}

func openStores(cfg *config.Config) (stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Printf("store: memory")
		s := memory.NewStore()
		return stores{users: s, chats: s, messages: s, typing: s, pins: s, reads: s, close: func() error { return nil }}, nil
	}

	database, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return stores{}, err
	}
	log.Printf("store: postgres driver=%s", cfg.DBDriver)
	return stores{
		users:    repositories.NewUserRepo(database),
		chats:    repositories.NewChatRepo(database),
		messages: repositories.NewMessageRepo(database),
		typing:   repositories.NewTypingRepo(database),
		pins:     repositories.NewPinRepo(database),
		reads:    repositories.NewReadRepo(database),
		close:    database.Close,
	}, nil
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, cfg.Environment, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	st, err := openStores(cfg)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.ServiceName)
	log.Printf("publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)
	auditEmitter := telemetry.NewAuditEmitter(publisher, telemetry.AuditRoutingKey, cfg.ServiceName, cfg.Environment)

	clk := clock.System{}
	hub := ws.NewHub()
	notifier := services.MultiNotifier{hub, observability.ChatEventPublisher{}}

	identity := services.NewIdentityService(st.users, clk)
	chats := services.NewChatService(st.users, st.chats, clk)
	messages := services.NewMessageService(st.chats, st.messages, clk, notifier, cfg.MaxMessageLength)
	typing := services.NewTypingService(st.chats, st.typing, clk, notifier)
	reads := services.NewReadService(st.chats, st.reads, st.messages, clk, notifier)
	pins := services.NewPinService(st.chats, st.pins, clk)
	conversations := services.NewConversationService(st.users, st.chats, st.pins, reads, st.messages, clk)

	userHandler := handlers.NewUserHandler(identity, auditEmitter)
	chatHandler := handlers.NewChatHandler(handlers.ChatServices{
		Chats:         chats,
		Messages:      messages,
		Typing:        typing,
		Reads:         reads,
		Pins:          pins,
		Conversations: conversations,
	}, clk, auditEmitter)
	chatWS := ws.NewChatWebSocketHandler(hub, chats, identity, typing)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.RequestID())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	handlers.RegisterRoutes(router, userHandler, chatHandler)
	handlers.RegisterDebugRoutes(router, auditEmitter, hub, cfg.DebugRoutes)

	sweep := sweeper.New(cfg.SweepInterval, clk,
		sweeper.Job{Name: "presence", Run: identity.ReapStaleOnline},
		sweeper.Job{Name: "typing", Run: typing.ReapExpiredTyping},
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return sweep.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}

	if err := publisher.Close(); err != nil {
		log.Printf("failed to close publisher: %v", err)
	}
	if err := st.close(); err != nil {
		log.Printf("failed to close db: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("failed to shut down tracing: %v", err)
	}
}
