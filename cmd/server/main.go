// Command am-server starts the account-manager gRPC server and REST gateway.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/account-manager/internal/api"
	"github.com/and161185/account-manager/internal/config"
	pkgcrypto "github.com/and161185/account-manager/internal/crypto"
	"github.com/and161185/account-manager/internal/lifecycle"
	"github.com/and161185/account-manager/internal/migrate"
	"github.com/and161185/account-manager/internal/repository"
	"github.com/and161185/account-manager/internal/repository/postgres"
	"github.com/and161185/account-manager/internal/repository/sqlite"
	grpcserver "github.com/and161185/account-manager/internal/server/grpc"
	httpserver "github.com/and161185/account-manager/internal/server/http"
	"github.com/and161185/account-manager/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// repos is the storage a backend provides.
type repos struct {
	users       repository.UserRepository
	projects    repository.ProjectRepository
	credentials repository.CredentialRepository
	tasks       repository.TaskRepository
	close       func()
}

// main loads configuration, opens storage, and serves gRPC and REST until signalled.
func main() {
	cfg, err := config.Load(os.Args[1:], os.LookupEnv)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("grpc", cfg.GRPCAddr),
		zap.String("http", cfg.HTTPAddr),
		zap.String("storage", cfg.Storage),
	)

	key, err := pkgcrypto.LoadKey(cfg.Env)
	if err != nil {
		logger.Fatal("encryption key", zap.String("env", pkgcrypto.EnvEncryptionKey), zap.Error(err))
	}
	codec, err := pkgcrypto.NewCodec(key)
	if err != nil {
		logger.Fatal("codec", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal("storage", zap.Error(err))
	}
	defer store.close()

	// Services
	hooks := lifecycle.New(codec, store.projects, store.credentials, store.tasks)
	authSvc := service.NewAuthService(store.users, []byte(cfg.JWTKey), cfg.AccessTTL, cfg.RefreshTTL)
	projectSvc := service.NewProjectService(store.projects, hooks, codec, cfg.CollisionRetries, logger)
	credentialSvc := service.NewCredentialService(store.projects, store.credentials, hooks, codec, cfg.CollisionRetries, logger)
	taskSvc := service.NewTaskService(store.projects, store.tasks, hooks, cfg.CollisionRetries, logger)

	// gRPC server with interceptors
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.AuthUnary(authSvc),
		),
	}
	if cfg.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			logger.Fatal("failed to load TLS cert/key", zap.Error(err))
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("TLS disabled, serving plaintext gRPC")
	}
	s := grpc.NewServer(opts...)
	api.RegisterAccountManagerServer(s, grpcserver.New(authSvc, projectSvc, credentialSvc, taskSvc, logger))

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if cfg.Dev {
		reflection.Register(s)
	}

	// Listen
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("listen", zap.Error(err))
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("grpc listening", zap.String("addr", cfg.GRPCAddr))
		errCh <- s.Serve(lis)
	}()

	rest := httpserver.New(authSvc, projectSvc, credentialSvc, taskSvc, logger)
	if cfg.HTTPAddr != "" {
		go func() {
			logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
			if err := rest.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Wait for stop
	select {
	case <-ctx.Done():
		hs.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rest.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}

		// graceful shutdown
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			s.Stop()
		}
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		store.close()
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// openStorage migrates and opens the configured backend.
func openStorage(ctx context.Context, cfg config.Config) (*repos, error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &repos{
			users:       sqlite.NewUserRepo(db),
			projects:    sqlite.NewProjectRepo(db),
			credentials: sqlite.NewCredentialRepo(db),
			tasks:       sqlite.NewTaskRepo(db),
			close:       func() { _ = db.Close() },
		}, nil
	default:
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return nil, err
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &repos{
			users:       postgres.NewUserRepo(db),
			projects:    postgres.NewProjectRepo(db),
			credentials: postgres.NewCredentialRepo(db),
			tasks:       postgres.NewTaskRepo(db),
			close:       db.Close,
		}, nil
	}
}
