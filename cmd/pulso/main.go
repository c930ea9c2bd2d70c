package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/securecookie"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pulsoapp/pulso"
	"github.com/pulsoapp/pulso/db"
	"github.com/pulsoapp/pulso/oauth"
	"github.com/pulsoapp/pulso/pubsub"
	"github.com/pulsoapp/pulso/storage"
	"github.com/pulsoapp/pulso/storage/fs"
	"github.com/pulsoapp/pulso/storage/s3"
	"github.com/pulsoapp/pulso/web"
)

func main() {
	_ = godotenv.Load()

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if err := run(context.Background(), logger); err != nil {
		_ = level.Error(logger).Log("err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger log.Logger) error {
	var (
		port               = intEnv("PORT", 4000)
		originStr          = env("ORIGIN", fmt.Sprintf("http://localhost:%d", port))
		sqlAddr            = env("DATABASE_URL", "postgresql://root@127.0.0.1:26257/pulso?sslmode=disable")
		natsURL            = env("NATS_URL", "")
		execSchema         = boolEnv("EXEC_SCHEMA", false)
		cookieHashKey      = env("COOKIE_HASH_KEY", "supersecretkeyyoushouldnotcommit")
		cookieBlockKey     = env("COOKIE_BLOCK_KEY", "supersecretkeyyoushouldnotcommit")
		vapidPublicKey     = env("VAPID_PUBLIC_KEY", "")
		vapidPrivateKey    = env("VAPID_PRIVATE_KEY", "")
		s3Endpoint         = env("S3_ENDPOINT", "")
		s3Region           = env("S3_REGION", "")
		s3Bucket           = env("S3_BUCKET", "pulso")
		s3AccessKey        = env("S3_ACCESS_KEY", "")
		s3SecretKey        = env("S3_SECRET_KEY", "")
		mediaDir           = env("MEDIA_DIR", "media")
		githubClientID     = env("GITHUB_CLIENT_ID", "")
		githubClientSecret = env("GITHUB_CLIENT_SECRET", "")
		googleClientID     = env("GOOGLE_CLIENT_ID", "")
		googleClientSecret = env("GOOGLE_CLIENT_SECRET", "")
		enableDevLogin     = boolEnv("ENABLE_DEV_LOGIN", false)
	)

	flags := flag.NewFlagSet("pulso", flag.ExitOnError)
	flags.IntVar(&port, "port", port, "HTTP service port")
	flags.StringVar(&originStr, "origin", originStr, "Public URL origin")
	flags.StringVar(&sqlAddr, "sql-addr", sqlAddr, "SQL address")
	flags.StringVar(&natsURL, "nats-url", natsURL, "NATS address. In-process broker when empty")
	flags.BoolVar(&execSchema, "exec-schema", execSchema, "Execute the SQL schema on startup")
	flags.BoolVar(&enableDevLogin, "enable-dev-login", enableDevLogin, "Enable dev login endpoint")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	origin, err := url.Parse(originStr)
	if err != nil || !origin.IsAbs() {
		return errors.New("invalid origin")
	}

	pool, err := sql.Open("postgres", sqlAddr)
	if err != nil {
		return fmt.Errorf("open db pool: %w", err)
	}

	defer pool.Close()

	if err := pool.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}

	if execSchema {
		if err := pulso.MigrateSQL(ctx, pool); err != nil {
			return fmt.Errorf("migrate sql: %w", err)
		}
	}

	var broker pubsub.PubSub = &pubsub.Inmem{}
	if natsURL != "" {
		conn, err := nats.Connect(natsURL)
		if err != nil {
			return fmt.Errorf("connect to nats: %w", err)
		}

		defer conn.Close()

		broker = &pubsub.Nats{Conn: conn}
	}

	var store storage.Store = &fs.Store{Root: mediaDir}
	mediaURLPrefix := origin.String() + "/media/"
	if s3Endpoint != "" {
		store = &s3.Store{
			Endpoint:  s3Endpoint,
			Region:    s3Region,
			Bucket:    s3Bucket,
			AccessKey: s3AccessKey,
			SecretKey: s3SecretKey,
		}
	}

	var push pulso.PushSender
	if vapidPublicKey != "" && vapidPrivateKey != "" {
		push = &pulso.WebPush{
			VAPIDPublicKey:  vapidPublicKey,
			VAPIDPrivateKey: vapidPrivateKey,
		}
	} else {
		_ = level.Warn(logger).Log("msg", "VAPID keys missing, web push disabled")
	}

	svc := &pulso.Service{
		Logger:         logger,
		DB:             db.New(pool),
		PubSub:         broker,
		Store:          store,
		Origin:         origin,
		Push:           push,
		MediaURLPrefix: mediaURLPrefix,
		BannedWords:    pulso.DefaultBannedWords,
	}

	var providers []oauth.Provider
	if githubClientID != "" && githubClientSecret != "" {
		providers = append(providers, oauth.NewGitHubProvider(
			githubClientID, githubClientSecret, origin.String()+"/api/github_auth/callback"))
	}
	if googleClientID != "" && googleClientSecret != "" {
		google, err := oauth.NewGoogleProvider(ctx,
			googleClientID, googleClientSecret, origin.String()+"/api/google_auth/callback")
		if err != nil {
			return fmt.Errorf("setup google provider: %w", err)
		}

		providers = append(providers, google)
	}

	cdc := securecookie.New([]byte(cookieHashKey), []byte(cookieBlockKey))
	cdc.MaxAge(0)

	handler := web.New(svc, providers, origin, logger, store, cdc, promhttp.Handler(), enableDevLogin)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: time.Second * 5,
		IdleTimeout:       time.Second * 30,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.RunBackgroundJobs(ctx)
	})
	g.Go(func() error {
		_ = logger.Log("msg", "server running", "origin", origin)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func env(key, fallbackValue string) string {
	s, ok := os.LookupEnv(key)
	if !ok {
		return fallbackValue
	}
	return s
}

func intEnv(key string, fallbackValue int) int {
	s, ok := os.LookupEnv(key)
	if !ok {
		return fallbackValue
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return fallbackValue
	}
	return i
}

func boolEnv(key string, fallbackValue bool) bool {
	s, ok := os.LookupEnv(key)
	if !ok {
		return fallbackValue
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallbackValue
	}
	return b
}
