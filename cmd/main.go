package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"gorm.io/gorm"

	bookingpb "github.com/Leganyst/clinic-booking/internal/api/booking/v1"
	"github.com/Leganyst/clinic-booking/internal/booking"
	"github.com/Leganyst/clinic-booking/internal/config"
	"github.com/Leganyst/clinic-booking/internal/db"
	"github.com/Leganyst/clinic-booking/internal/logger"
	"github.com/Leganyst/clinic-booking/internal/model"
	"github.com/Leganyst/clinic-booking/internal/repository"
	"github.com/Leganyst/clinic-booking/internal/service"
	"github.com/Leganyst/clinic-booking/internal/worker"
)

func main() {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "clinic-booking",
		Short: "Clinic slot reservation service",
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "path to .env file")

	rootCmd.AddCommand(serveCmd(&envFile))
	rootCmd.AddCommand(migrateCmd(&envFile))
	rootCmd.AddCommand(seedCmd(&envFile))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC server and the slot seeder",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(*envFile)
		},
	}
}

func migrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer app.close()

			app.log.Info("schema migrated")
			return nil
		},
	}
}

func seedCmd(envFile *string) *cobra.Command {
	var days, capacity int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Initialize slots for the upcoming days",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := bootstrap(*envFile)
			if err != nil {
				return err
			}
			defer app.close()

			if days <= 0 {
				days = app.cfg.Clinic.SeedDays
			}
			if capacity <= 0 {
				capacity = app.cfg.Clinic.DefaultCapacity
			}

			created, err := app.maint.SeedHorizon(cmd.Context(), time.Now(), days, capacity)
			if err != nil {
				return fmt.Errorf("seed slots: %w", err)
			}
			app.log.Info("slots seeded",
				zap.Int("days", days),
				zap.Int("capacity", capacity),
				zap.Int("created", created),
			)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "days ahead to seed (default CLINIC_SEED_DAYS)")
	cmd.Flags().IntVar(&capacity, "capacity", 0, "capacity of new slots (default CLINIC_DEFAULT_CAPACITY)")
	return cmd
}

type app struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *gorm.DB
	engine  *booking.Engine
	manager *booking.Manager
	maint   *booking.Maintenance
}

// bootstrap: конфиг, логгер, БД с миграциями и доменные сервисы.
func bootstrap(envFile string) (*app, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	gormDB, err := db.NewGormDB(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := model.AutoMigrate(gormDB); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	stores := booking.Stores{
		Slots:         repository.NewGormSlotRepository(gormDB),
		Appointments:  repository.NewGormAppointmentRepository(gormDB),
		Services:      repository.NewGormServiceRepository(gormDB),
		Practitioners: repository.NewGormPractitionerRepository(gormDB),
		Events:        repository.NewGormEventRepository(gormDB),
	}
	tx := db.NewTxManager(gormDB)
	hours := cfg.Clinic.Hours

	engine := booking.NewEngine(tx, stores.Slots, hours, log.Named("engine"))
	return &app{
		cfg:     cfg,
		log:     log,
		db:      gormDB,
		engine:  engine,
		manager: booking.NewManager(tx, engine, stores, log.Named("appointments")),
		maint:   booking.NewMaintenance(tx, stores.Slots, stores.Events, hours, cfg.Clinic.ClosedWeekdays, log.Named("maintenance")),
	}, nil
}

func (a *app) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func runServer(envFile string) error {
	app, err := bootstrap(envFile)
	if err != nil {
		return err
	}
	defer app.close()
	log := app.log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	limiter := service.NewRateLimiter(app.cfg.Server.RateLimitRPS, app.cfg.Server.RateLimitBurst)
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(
		service.RecoveryInterceptor(log),
		service.RequestIDInterceptor(),
		service.LoggingInterceptor(log.Named("grpc")),
		limiter.Interceptor(),
	))
	bookingpb.RegisterBookingServiceServer(grpcServer, service.NewBookingService(app.engine, app.manager, app.maint, log))

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(bookingpb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	if app.cfg.Server.Reflection {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", app.cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", app.cfg.Server.GRPCAddr, err)
	}

	var seeder *worker.Seeder
	if app.cfg.Worker.Enabled {
		seeder = worker.NewSeeder(log.Named("seeder"), worker.SeederConfig{
			CronSpec: app.cfg.Worker.CronSpec,
			Days:     app.cfg.Clinic.SeedDays,
			Capacity: app.cfg.Clinic.DefaultCapacity,
			LockTTL:  app.cfg.Worker.LockTTL,
		}, newLocker(app.cfg.Worker, log), app.maint)
		if err := seeder.Start(ctx); err != nil {
			return fmt.Errorf("start seeder: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("grpc server listening", zap.String("addr", app.cfg.Server.GRPCAddr))
		serveErr <- grpcServer.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down grpc server")
	case err = <-serveErr:
		log.Error("grpc serve failed", zap.Error(err))
	}

	healthSrv.Shutdown()
	if seeder != nil {
		seeder.Stop()
	}
	grpcServer.GracefulStop()
	return err
}

// newLocker: Redis, если задан REDIS_ADDR, иначе блокировка в процессе.
func newLocker(cfg *config.WorkerConfig, log *zap.Logger) worker.Locker {
	if cfg.RedisAddr == "" {
		log.Info("seeder lock: in-process")
		return worker.NewLocalLocker()
	}
	log.Info("seeder lock: redis", zap.String("addr", cfg.RedisAddr))
	return worker.NewRedisLocker(redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}))
}
