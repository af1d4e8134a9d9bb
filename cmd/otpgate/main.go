// Command otpgate es el servidor OTP multi-tenant.
//
// Arranque: .env (opcional) → config YAML → logger → registry → tokenstore
// → reaper (si el backend lo necesita) → HTTP. El shutdown por señal drena
// el server, frena el reaper y cierra el backend (pool/cliente) antes de
// salir.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/otpgate/internal/config"
	"github.com/dropDatabas3/otpgate/internal/email"
	"github.com/dropDatabas3/otpgate/internal/httpapi"
	"github.com/dropDatabas3/otpgate/internal/observability/logger"
	"github.com/dropDatabas3/otpgate/internal/otp"
	"github.com/dropDatabas3/otpgate/internal/rate"
	"github.com/dropDatabas3/otpgate/internal/reaper"
	"github.com/dropDatabas3/otpgate/internal/tenant"
	"github.com/dropDatabas3/otpgate/internal/tokenstore"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "otpgate:", err)
		os.Exit(1)
	}
}

func run() error {
	// .env es opcional; si no está, seguimos con el environment del proceso.
	_ = godotenv.Load()

	cfgPath := flag.String("config", envOr("OTPGATE_CONFIG", "config.yaml"), "ruta al YAML de configuración")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       os.Getenv("LOG_LEVEL"),
		ServiceName: "otpgate",
		Version:     version,
	})
	defer logger.L().Sync() //nolint:errcheck

	log := logger.L()
	log.Info("starting otpgate",
		logger.String("config", *cfgPath),
		logger.Backend(cfg.Tokenstore.Kind),
	)

	tenants, err := cfg.Tenants()
	if err != nil {
		return err
	}
	registry, err := tenant.NewRegistry(tenants)
	if err != nil {
		return err
	}
	log.Info("tenant registry loaded", logger.Int("tenants", registry.Len()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := tokenstore.New(ctx, cfg.StoreConfig(), registry)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if cfg.Flags.Migrate {
		if pg, ok := store.(*tokenstore.PostgresStore); ok {
			if err := pg.EnsureSchema(ctx); err != nil {
				return err
			}
			log.Info("token table ensured")
		}
	}

	smtpSender := email.NewSMTPSender(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.From, cfg.SMTP.Username, cfg.SMTP.Password)
	smtpSender.TLSMode = cfg.SMTP.TLS
	smtpSender.InsecureSkipVerify = cfg.SMTP.InsecureSkipVerify

	controllers := &httpapi.Controllers{
		Registry:     registry,
		Store:        store,
		Generator:    otp.NewGenerator(),
		EmailSender:  smtpSender,
		TextSender:   email.NewTextSender(smtpSender, cfg.Text.ProviderHosts),
		BlockingSend: cfg.SMTP.Blocking,
	}
	if cfg.Rate.Enabled {
		controllers.Limiter = rate.NewMemoryLimiter("send:", cfg.Rate.Send.Limit, cfg.RateWindow())
	}

	srv := httpapi.NewServer(cfg.Server.Addr, httpapi.NewRouter(controllers))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", logger.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if store.RequiresReaper() {
		rpr := reaper.New(store, cfg.ReaperInterval())
		g.Go(func() error {
			rpr.Run(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	log.Info("otpgate stopped")
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
