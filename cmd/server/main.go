package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"erp/portal/internal/backend"
	"erp/portal/internal/chat"
	"erp/portal/internal/config"
	portalgrpc "erp/portal/internal/grpc"
	internalhttp "erp/portal/internal/http"
	"erp/portal/internal/jobs"
	"erp/portal/internal/session"
	"erp/portal/internal/storage"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closers, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()
	log.Printf("portal storage driver: %s", cfg.StorageDriver)

	client := backend.New(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout})
	sessions := session.NewManager(store, client, session.Options{
		MediaBaseURL:      cfg.MediaBaseURL,
		PlaceholderAvatar: cfg.PlaceholderAvatar,
		PollInterval:      cfg.NotificationPollInterval,
		PollTimeout:       cfg.NotificationPollTimeout,
	}, cfg.SessionIdleTTL)
	defer sessions.Close()
	chats := chat.NewRegistry(cfg.SessionIdleTTL)

	server := internalhttp.NewServer(cfg, sessions, chats, client)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	report := func(healthy bool) {}
	if cfg.ServiceAuthToken != "" {
		serviceAuthInterceptor, err := portalgrpc.NewServiceAuthUnaryInterceptor(cfg.ServiceAuthToken)
		if err != nil {
			log.Fatalf("grpc service auth init failed: %v", err)
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(serviceAuthInterceptor))
		portalgrpc.RegisterPortalQueryServer(grpcServer, portalgrpc.NewQueryServer(sessions))
		report = portalgrpc.BackendReporter(portalgrpc.NewHealth(grpcServer))
	} else {
		log.Printf("SERVICE_AUTH_TOKEN not set, portal grpc disabled")
	}

	if cfg.SessionIdleTTL > 0 {
		sweepEvery := cfg.SessionIdleTTL / 2
		jobs.StartSessionSweep(ctx, sweepEvery, sessions)
		jobs.StartSessionSweep(ctx, sweepEvery, chats)
	}
	jobs.StartBackendProbe(ctx, cfg.BackendProbeInterval, cfg.BackendTimeout, func(ctx context.Context) error {
		return client.Ping(ctx, cfg.BackendHealthURL)
	}, report)

	go func() {
		log.Printf("portal http listening on %s", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	if grpcServer != nil {
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				log.Fatalf("grpc listen error: %v", err)
			}
			log.Printf("portal grpc listening on %s", cfg.GRPCAddr)
			if err := grpcServer.Serve(listener); err != nil {
				log.Fatalf("grpc server error: %v", err)
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}
