package bootstrap

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fulldump/refinery/api"
	"github.com/fulldump/refinery/configuration"
	"github.com/fulldump/refinery/database"
	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/service"
)

var VERSION = "dev"

func NewLogger(level string) (*slog.Logger, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})), nil
}

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	logger, err := NewLogger(c.LogLevel)
	if err != nil {
		log.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	db := database.NewDatabase(&database.Config{
		Workers:   c.Workers,
		ExportDir: c.ExportDir,
		Metrics:   dse.NewMetrics(registry),
		Logger:    logger,
	})

	b := api.Build(service.NewService(db, *c), VERSION, c.ApiKey, c.ApiSecret)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(log.New(os.Stdout, "ACCESS: ", log.Lshortfile)),
		api.InterceptorUnavailable(db),
		api.RecoverFromPanic(logger),
		api.PrettyErrorInterceptor,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", b)

	s := &http.Server{
		Addr:    c.HttpAddr,
		Handler: mux,
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		logger.Error("listen", "addr", c.HttpAddr, "error", err)
		os.Exit(-1)
	}
	logger.Info("listening", "addr", c.HttpAddr)

	stop = func() {
		db.Stop()
		s.Shutdown(context.Background())
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			logger.Info("signal received", "signal", sig.String())
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Start()
			if err != nil {
				logger.Error("database", "error", err)
			}
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				logger.Error("http server", "error", err)
			}
		}()

		wg.Wait()
	}

	return
}
