package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/debughouse/internal/bhws"
	appcfg "github.com/park285/debughouse/internal/config"
	"github.com/park285/debughouse/internal/journal"
	"github.com/park285/debughouse/internal/msgcat"
	"github.com/park285/debughouse/internal/obslog"
	"github.com/park285/debughouse/internal/rules"
	"github.com/park285/debughouse/internal/session"
	"github.com/park285/debughouse/internal/statusz"
)

func main() {
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer obslog.Sync()

	if err := run(); err != nil {
		obslog.L().Error("debughouse_exit", zap.Error(err))
		obslog.Sync()
		os.Exit(1)
	}
}

func run() error {
	logger := obslog.L()
	cfg, err := appcfg.Load()
	if err != nil {
		return err
	}

	cat, err := msgcat.New(cfg.MsgcatDir)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var archive journal.GameArchive
	if cfg.DatabaseURL != "" {
		a, err := journal.NewArchive(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer a.Close()
		archive = a
	}
	recorder := journal.NewRecorder(store, archive, 256, logger.Named("journal"))

	wsURL, err := bhws.DialURL(cfg.WSURL, cfg.Username, cfg.Password)
	if err != nil {
		return err
	}
	ws := bhws.New(wsURL, cfg.MaxReconnect, cfg.ReconnectDelay, cfg.OutboundBuffer, logger.Named("ws"))
	egress := bhws.NewEgress(ws, cfg.DryRun, logger.Named("egress"))

	sess := session.New(session.Config{
		Rules:        rules.New(),
		Transport:    egress,
		Chat:         egress,
		Messages:     cat,
		Journal:      recorder,
		UnderPromote: cfg.UnderPromoteDefault,
		Logger:       logger.Named("session"),
	})
	ws.OnMessage(sess.Post)
	ws.OnStateChange(func(st bhws.State) {
		sess.SetConnected(st == bhws.StateConnected)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return sess.Run(ctx) })
	g.Go(func() error { return recorder.Run(ctx) })
	if cfg.StatusAddr != "" {
		srv := statusz.New(cfg.StatusAddr, sess.Snapshot,
			statusz.WithSignals(sess.Signals),
			statusz.WithLogger(logger.Named("statusz")),
		)
		g.Go(func() error { return srv.Run(ctx) })
	}
	g.Go(func() error {
		if err := ws.Connect(ctx); err != nil {
			// reconnect is already scheduled
			logger.Warn("ws_connect_error", zap.Error(err))
		}
		<-ctx.Done()
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return ws.Close(cctx)
	})

	go func() {
		con := newConsole(sess, os.Stdout)
		if err := con.Run(ctx, os.Stdin); err != nil {
			logger.Warn("console_error", zap.Error(err))
		}
		stop()
	}()

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openStore(cfg *appcfg.AppConfig) (journal.Store, error) {
	if cfg.RedisURL == "" {
		return journal.NewMemoryStore(), nil
	}
	return journal.NewRedisStore(cfg.RedisURL, cfg.JournalTTL)
}
