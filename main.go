package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"quadro-kanban/config"
	"quadro-kanban/database"
	"quadro-kanban/firebase"
	"quadro-kanban/gateway"
	"quadro-kanban/handlers"
	"quadro-kanban/kanban"
	"quadro-kanban/session"
	"quadro-kanban/utilities"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utilities.Logger.Fatalf("Erro ao carregar configuração: %v", err)
	}
	if err := utilities.InitLogger(cfg.LogLevel); err != nil {
		utilities.Logger.Fatalf("%v", err)
	}

	ctx := context.Background()

	db, err := database.Connect(cfg)
	if err != nil {
		utilities.Logger.Fatalf("Erro ao conectar ao banco de dados: %v", err)
	}
	defer db.Close()

	verifier, gw, cleanup, err := setupBackends(ctx, cfg)
	if err != nil {
		utilities.Logger.Fatalf("%v", err)
	}
	defer cleanup()

	registry := kanban.NewRegistry(gw, kanban.Options{
		RefreshAfterCreate:     cfg.RefreshAfterCreate,
		RollbackOnFailure:      cfg.RollbackOnWriteFailure,
		WriteTimeout:           cfg.WriteTimeout,
		DragActivationDistance: cfg.DragActivationDistance,
	}, cfg.ViewIdleTTL)
	defer registry.Close()

	server := handlers.NewServer(registry, verifier, database.NewUserStore(db))
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: NewRouter(server, cfg.AllowedOrigins),
	}

	go func() {
		utilities.LogInfo("Servidor iniciado na porta %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utilities.Logger.Fatalf("Erro no servidor HTTP: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	utilities.LogInfo("Encerrando servidor...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utilities.LogError(err, "Erro ao encerrar servidor")
	}
}

// setupBackends escolhe o verificador de identidade e o gateway conforme a configuração
func setupBackends(ctx context.Context, cfg *config.Config) (session.Verifier, gateway.Gateway, func(), error) {
	var (
		verifier session.Verifier
		gw       gateway.Gateway
		closers  []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.NeedsFirebase() {
		app, err := firebase.InitializeFirebase(ctx, cfg.CredentialsPath)
		if err != nil {
			return nil, nil, cleanup, err
		}
		if cfg.AuthMode == config.AuthModeFirebase {
			authClient, err := firebase.GetAuthClient(ctx, app)
			if err != nil {
				return nil, nil, cleanup, err
			}
			verifier = firebase.NewVerifier(authClient)
		}
		if cfg.Gateway == config.GatewayFirestore {
			fsClient, err := firebase.GetFirestoreClient(ctx, app)
			if err != nil {
				return nil, nil, cleanup, err
			}
			closers = append(closers, func() { fsClient.Close() })
			gw = firebase.NewFirestoreGateway(fsClient)
		}
	}

	if cfg.AuthMode == config.AuthModeLocal {
		utilities.LogInfo("AUTH_MODE=local: tokens HS256 assinados com LOCAL_AUTH_SECRET")
		verifier = session.NewLocalVerifier(cfg.LocalAuthSecret)
	}
	if cfg.Gateway == config.GatewayMemory {
		utilities.LogInfo("GATEWAY=memory: os dados não sobrevivem a um restart")
		gw = gateway.NewMemory()
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, cleanup, err
		}
		rdb := redis.NewClient(opt)
		closers = append(closers, func() { rdb.Close() })
		gw = gateway.NewCache(gw, rdb, cfg.CacheTTL)
		utilities.LogInfo("Cache de listagens no Redis habilitado (TTL %s)", cfg.CacheTTL)
	}

	return verifier, gw, cleanup, nil
}
