// Command tagservice serves the views of one template over HTTP and
// websockets, optionally publishing each rendered view to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Comcast/treetags/config"
	"github.com/Comcast/treetags/interpreters"
	"github.com/Comcast/treetags/storage"
	"github.com/Comcast/treetags/storage/bolt"
	"github.com/Comcast/treetags/storage/mem"
	"github.com/Comcast/treetags/tools"
	"github.com/Comcast/treetags/view"

	"go.uber.org/zap"
)

func main() {
	var (
		configFile   = flag.String("c", "", "optional YAML config file")
		templateFile = flag.String("t", "templates/todo.yaml", "template filename")
		httpPort     = flag.String("h", "", "HTTP service port (overrides config)")
	)
	flag.Parse()

	if err := run(*configFile, *templateFile, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, templateFile, httpPort string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if httpPort != "" {
		cfg.HTTPPort = httpPort
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, cleanup, err := makeService(ctx, cfg, templateFile, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := &http.Server{
		Addr:    cfg.HTTPPort,
		Handler: s.Handler(),
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(sctx)
	}()

	logger.Info("serving", zap.String("port", cfg.HTTPPort), zap.String("template", templateFile))
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("main terminating")
	return nil
}

// makeService wires a Service from the config.  The returned cleanup
// closes storage and disconnects from the broker.
func makeService(ctx context.Context, cfg *config.Config, templateFile string, logger *zap.Logger) (*Service, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; 0 <= i; i-- {
			cleanups[i]()
		}
	}

	src, err := ioutil.ReadFile(templateFile)
	if err != nil {
		return nil, nil, err
	}
	t, err := tools.ParseTemplate(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", templateFile, err)
	}
	if t.Interpreter == "" {
		t.Interpreter = cfg.Interpreter
	}
	if err = t.Compile(ctx, interpreters.Standard(), nil); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", templateFile, err)
	}

	var store storage.Storage = mem.NewStorage()
	if cfg.StorageFile != "" {
		db, err := bolt.NewStorage(cfg.StorageFile)
		if err != nil {
			return nil, nil, err
		}
		db.Logger = logger.Named("bolt")
		if err = db.Open(ctx); err != nil {
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { db.Close(context.Background()) })
		store = db
	}

	r := view.NewRenderer(t)
	r.Storage = store
	r.Flags = cfg.Flags(t)
	r.Logger = logger.Named("view")
	r.Prefix = cfg.IdPrefix

	s := NewService(r, logger)

	if cfg.MQTTBroker != "" {
		p := NewMQTTPublisher(cfg.MQTTBroker, cfg.MQTTTopic, logger.Named("mqtt"))
		if err = p.Start(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, func() { p.Stop(context.Background()) })
		s.Publisher = p
	}

	return s, cleanup, nil
}
