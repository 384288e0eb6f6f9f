package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"

	"eventportal/cmd/buildCFG"
	"eventportal/internal/api/api"
	"eventportal/internal/auth"
	rabbitReader "eventportal/internal/consumerWorker"
	"eventportal/internal/mailer"
	"eventportal/internal/portal"
	"eventportal/internal/rabbit"
	"eventportal/internal/repo"
	"eventportal/internal/secret"
	"eventportal/internal/service"
	"eventportal/internal/session"
)

var (
	configPath string
	envPath    string
)

func main() {
	zlog.Init()

	root := &cobra.Command{
		Use:           "eventportal",
		Short:         "Event registration and payment portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config")
	root.PersistentFlags().StringVar(&envPath, "env", "project.env", "optional dotenv file loaded before the config")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the notification worker",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		migrateCommand(),
		&cobra.Command{
			Use:   "genkey",
			Short: "Print a fresh card encryption key",
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := secret.GenerateKey()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
				return err
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		zlog.Logger.Error().Err(err).Msg("eventportal failed")
		stop()
		os.Exit(1)
	}
}

func migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	run := func(down bool) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			serverCfg := buildCFG.BuildServerConfig(cfg, log)
			db, repository, err := openRepository(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer db.Master.Close()

			if down {
				return repository.MigrateDown(cmd.Context(), serverCfg.MigrationsDir)
			}
			return repository.MigrateUp(cmd.Context(), serverCfg.MigrationsDir)
		}
	}
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply all migrations", RunE: run(false)},
		&cobra.Command{Use: "down", Short: "Roll back all migrations", RunE: run(true)},
	)
	return cmd
}

func loadConfig() (*config.Config, *zerolog.Logger, error) {
	log := zlog.Logger

	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Str("file", envPath).Msg("failed to read env file")
	}

	cfg := config.New()
	if err := cfg.Load(configPath, "", ""); err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(buildCFG.BuildServerConfig(cfg, &log).LogLevel)
	if err != nil {
		log.Warn().Err(err).Msg("unknown log level, keeping info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	return cfg, &log, nil
}

func openRepository(ctx context.Context, cfg *config.Config, log *zerolog.Logger) (*dbpg.DB, repo.Repository, error) {
	dbCfg, err := buildCFG.BuildDBConfig(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.EnsureDatabase(ctx, dbCfg, log); err != nil {
		return nil, nil, err
	}
	db, err := repo.Connect(ctx, dbCfg, log)
	if err != nil {
		return nil, nil, err
	}
	repository, err := repo.NewRepository(db, log)
	if err != nil {
		_ = db.Master.Close()
		return nil, nil, fmt.Errorf("failed to initialize repository: %w", err)
	}
	return db, repository, nil
}

func serve(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	serverCfg := buildCFG.BuildServerConfig(cfg, log)

	secrets, err := buildCFG.BuildSecretsConfig(cfg)
	if err != nil {
		return err
	}
	cipher, err := secret.NewCipher(secrets.FernetKey, secrets.RetiredKeys...)
	if err != nil {
		return fmt.Errorf("card encryption key: %w", err)
	}
	tokens, err := auth.NewManager(secrets.JWTSecret, serverCfg.TokenTTL)
	if err != nil {
		return err
	}

	db, repository, err := openRepository(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Master.Close()

	if err := repository.MigrateUp(ctx, serverCfg.MigrationsDir); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info().Msg("Migrations applied successfully")

	redisCfg := buildCFG.BuildRedisConfig(cfg, log)
	rdb := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	defer rdb.Close()

	pingCtx, cancelPing := context.WithTimeout(ctx, 5*time.Second)
	err = rdb.Ping(pingCtx).Err()
	cancelPing()
	if err != nil {
		return fmt.Errorf("redis at %s not reachable: %w", redisCfg.Addr, err)
	}

	rabbitCfg, err := buildCFG.BuildRabbitConfig(cfg, log)
	if err != nil {
		return err
	}

	var (
		notifier portal.Notifier = portal.NopNotifier{}
		reader   *rabbitReader.Reader
	)
	if rabbitCfg.Enabled {
		rmq, err := rabbit.NewRabbit(rabbitCfg.Config, log)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer rmq.Close()

		mail := mailer.New(buildCFG.BuildMailConfig(cfg, log), log)
		reader = rabbitReader.NewReader(rmq, repository, mail)
		reader.Start(ctx)
		notifier = rmq
	} else {
		log.Warn().Msg("RabbitMQ disabled, notifications will not be sent")
	}

	p := portal.New(repository, session.NewStore(rdb, redisCfg.CheckoutTTL), cipher, notifier, log)
	app := api.NewRouters(&api.Routers{
		Service:    service.NewService(p, tokens, log),
		Tokens:     tokens,
		AuthBurst:  serverCfg.AuthBurst,
		AuthWindow: serverCfg.AuthWindow,
	})

	srv := &http.Server{
		Addr:              ":" + serverCfg.Port,
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info().Msgf("Starting server on %s", serverCfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("failed to start server: %w", err)
		}
		close(serverErrChan)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case runErr = <-serverErrChan:
		log.Error().Err(runErr).Msg("server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverCfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down server")
	}
	if reader != nil {
		reader.Stop()
	}

	log.Info().Msg("Shutdown complete")
	return runErr
}
