package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/config"
	"gatehouse.org/internal/httpapi"
	"gatehouse.org/internal/obs"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)
	obs.Info("config loaded", cfg.Summary())

	hasher, err := auth.NewHasher(cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	store, err := auth.NewStore(hasher)
	if err != nil {
		log.Fatalf("credential store: %v", err)
	}
	issuer, err := auth.NewIssuer(cfg.AuthSecret, auth.WithIssuer(cfg.TokenIssuer))
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}

	api := httpapi.New(store, issuer,
		httpapi.WithVersion(version),
		httpapi.WithCORSOrigins(cfg.CORSOrigins),
		httpapi.WithMaxBodyBytes(cfg.MaxBodyBytes),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	var (
		grpcSrv    *grpc.Server
		grpcHealth *httpapi.GRPCServer
	)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = grpc.NewServer()
		grpcHealth = httpapi.NewGRPCServer(api)
		grpcHealth.Register(grpcSrv)
		go func() {
			obs.Info("grpc health listening", map[string]any{"addr": cfg.GRPCAddr})
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				log.Fatalf("grpc serve: %v", err)
			}
		}()
	}

	obs.Info("starting gatehouse-api", map[string]any{"version": version, "addr": srv.Addr})

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	obs.Info("shutting down", nil)

	if grpcHealth != nil {
		grpcHealth.Drain()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		obs.Error("http shutdown", err, nil)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	obs.Info("stopped", map[string]any{"accounts": store.Len()})
}
