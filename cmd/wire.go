package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	natsbus "github.com/bnema/arbor-gateway/internal/adapters/bus/nats"
	"github.com/bnema/arbor-gateway/internal/adapters/coap"
	"github.com/bnema/arbor-gateway/internal/adapters/metrics"
	statusadapter "github.com/bnema/arbor-gateway/internal/adapters/render/status"
	badgerrepo "github.com/bnema/arbor-gateway/internal/adapters/repo/badger"
	tomlrepo "github.com/bnema/arbor-gateway/internal/adapters/repo/toml"
	"github.com/bnema/arbor-gateway/internal/adapters/secrets"
	"github.com/bnema/arbor-gateway/internal/adapters/sink/memory"
	"github.com/bnema/arbor-gateway/internal/application"
	"github.com/bnema/arbor-gateway/internal/chaos"
	"github.com/bnema/arbor-gateway/internal/config"
	"github.com/bnema/arbor-gateway/internal/domain"
	"github.com/bnema/arbor-gateway/internal/logging"
	"github.com/bnema/arbor-gateway/internal/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type app struct {
	cfg      config.Config
	v        *viper.Viper
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Collector
	clock    ports.Clock
	secrets  ports.SecretSource

	transport *coap.Client
	retry     *memory.RetryQueue

	keysRenderer   func([]domain.DeviceKeyRecord, statusadapter.RenderOptions) (string, error)
	ingestRenderer func(application.IngestReport) (string, error)
	scoreRenderer  func(uint32, chaos.Result) (string, error)

	keyService *application.KeyService
	closers    []func() error
}

// load builds the ambient dependencies. The key store is opened lazily since
// only some commands need the passphrase or master key.
func (a *app) load(configPath string, logOutput io.Writer) error {
	v, cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(logOutput, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("wire logger: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector, err := metrics.New(registry)
	if err != nil {
		return fmt.Errorf("wire metrics: %w", err)
	}

	a.cfg = cfg
	a.v = v
	a.logger = logger
	a.registry = registry
	a.metrics = collector
	a.clock = ports.SystemClock{}
	a.secrets = secrets.NewPassFirstWithFileFallback(cfg.Keys.SecretsDir)
	a.transport = coap.NewClient(
		coap.WithDefaultPort(cfg.Transport.Port),
		coap.WithLogger(logger.Named("coap")),
	)
	a.retry = memory.NewRetryQueue()
	a.keysRenderer = statusadapter.RenderKeys
	a.ingestRenderer = statusadapter.RenderIngest
	a.scoreRenderer = statusadapter.RenderScore
	return nil
}

func (a *app) keys(ctx context.Context) (*application.KeyService, error) {
	if a.keyService != nil {
		return a.keyService, nil
	}

	if err := a.resolveKeySecrets(ctx); err != nil {
		return nil, err
	}
	repo, err := a.openKeyRepository()
	if err != nil {
		return nil, err
	}

	a.keyService = application.NewKeyService(repo, a.clock,
		application.WithKeyLogger(a.logger.Named("keys")),
		application.WithKeyMetrics(a.metrics),
	)
	return a.keyService, nil
}

// resolveKeySecrets fills the passphrase and master key from the secret
// source when only their refs are configured.
func (a *app) resolveKeySecrets(ctx context.Context) error {
	keys := &a.cfg.Keys
	if keys.Passphrase == "" && keys.PassphraseRef != "" {
		value, err := a.secrets.Lookup(ctx, keys.PassphraseRef)
		if err != nil {
			return fmt.Errorf("resolve keys.passphrase_ref: %w", err)
		}
		keys.Passphrase = value
		a.v.Set("keys.passphrase", value)
	}
	if keys.MasterKey == "" && keys.MasterKeyRef != "" {
		value, err := a.secrets.Lookup(ctx, keys.MasterKeyRef)
		if err != nil {
			return fmt.Errorf("resolve keys.master_key_ref: %w", err)
		}
		keys.MasterKey = value
	}
	return nil
}

func (a *app) openKeyRepository() (ports.KeyRepository, error) {
	switch a.cfg.Keys.Backend {
	case config.BackendBadger:
		masterKey, err := a.cfg.Keys.MasterKeyBytes()
		if err != nil {
			return nil, fmt.Errorf("wire key repository: %w", err)
		}
		repo, err := badgerrepo.Open(a.cfg.Keys.BadgerDir, masterKey, a.logger.Named("badger"))
		if err != nil {
			return nil, fmt.Errorf("wire key repository: %w", err)
		}
		a.closers = append(a.closers, repo.Close)
		return repo, nil
	default:
		repo, err := tomlrepo.NewRepository(a.v)
		if err != nil {
			return nil, fmt.Errorf("wire key repository: %w", err)
		}
		return repo, nil
	}
}

// telemetry returns the sink and alert publisher for decoded records: NATS
// when nats.url is set, otherwise an in-process recorder.
func (a *app) telemetry() (ports.TelemetrySink, ports.AlertPublisher, error) {
	if a.cfg.NATS.URL == "" {
		sink := memory.NewSink()
		return sink, sink, nil
	}

	publisher, err := natsbus.Connect(a.cfg.NATS.URL, a.logger.Named("nats"))
	if err != nil {
		return nil, nil, fmt.Errorf("wire telemetry publisher: %w", err)
	}
	a.closers = append(a.closers, func() error {
		publisher.Close()
		return nil
	})
	return publisher, publisher, nil
}

func (a *app) ingestService(ctx context.Context) (*application.IngestService, error) {
	keys, err := a.keys(ctx)
	if err != nil {
		return nil, err
	}
	sink, alerts, err := a.telemetry()
	if err != nil {
		return nil, err
	}
	return application.NewIngestService(application.NewDecoder(keys), sink, alerts, a.logger.Named("ingest"), a.metrics), nil
}

func (a *app) dispatcher(keys *application.KeyService) *application.Dispatcher {
	return application.NewDispatcher(keys, a.transport, a.retry, a.clock,
		application.WithDispatchTimeout(a.cfg.Transport.Timeout),
		application.WithDispatchLogger(a.logger.Named("dispatch")),
		application.WithDispatchMetrics(a.metrics),
	)
}

func (a *app) now() time.Time {
	return a.clock.Now()
}

func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	a.keyService = nil
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

// withApp releases resources opened by the command even when it fails.
func withApp(a *app, run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			err = errors.Join(err, a.close())
		}()
		return run(cmd, args)
	}
}
