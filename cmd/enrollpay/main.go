package main

import (
	// Go Internal Packages
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Local Packages
	api "enrollpay/api"
	config "enrollpay/config"
	gateway "enrollpay/gateway"
	helpers "enrollpay/helpers"
	kafka "enrollpay/kafka"
	metrics "enrollpay/metrics"
	models "enrollpay/models"
	family "enrollpay/services/family"
	mat "enrollpay/services/materializer"

	// External Packages
	"github.com/alecthomas/kingpin/v2"
	_ "github.com/jsternberg/zap-logfmt"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"go.uber.org/zap"
)

const sessionTTL = 2 * time.Hour

var (
	app        = kingpin.New("enrollpay", "Enrollment payments: checkout, webhooks and payment reconciliation.")
	configPath = app.Flag("config", "Path to the application config file").Short('c').Default("config.yml").String()
	envFile    = app.Flag("env-file", "Path to a .env file with secrets").Default(".env").String()

	serveCmd       = app.Command("serve", "Run the HTTP API").Default()
	materializeCmd = app.Command("materialize", "Consume payment events and write enrollments")
	inspectCmd     = app.Command("inspect", "Reconcile one payment reference and print the outcome")
	inspectRef     = inspectCmd.Flag("reference", "Payment reference to reconcile").Short('r').Required().String()
)

// LoadConfig loads the default configuration and overrides it with the config file
// specified by the path defined in the config flag
func LoadConfig(path string) *koanf.Koanf {
	k := koanf.New(".")
	_ = k.Load(rawbytes.Provider(config.DefaultConfig), yaml.Parser())
	if path != "" {
		_ = k.Load(file.Provider(path), yaml.Parser())
	}
	return k
}

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	k := LoadConfig(*configPath)
	appKonf := config.Config{}

	// Unmarshalling config into struct
	err := k.Unmarshal("", &appKonf)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	appKonf.LoadSecrets(*envFile)

	// Validate the config loaded
	if err = appKonf.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if !appKonf.IsProdMode {
		k.Print()
	}

	logger := newLogger(&appKonf)
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case serveCmd.FullCommand():
		err = serve(ctx, &appKonf, logger)
	case materializeCmd.FullCommand():
		err = materialize(ctx, &appKonf, logger)
	case inspectCmd.FullCommand():
		err = inspect(ctx, &appKonf, logger, *inspectRef)
	}
	if err != nil {
		logger.Fatal("command failed", zap.String("command", cmd), zap.Error(err))
	}
}

func newLogger(appKonf *config.Config) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "logfmt"
	_ = cfg.Level.UnmarshalText([]byte(appKonf.Logger.Level))
	cfg.InitialFields = make(map[string]any)
	cfg.InitialFields["host"], _ = os.Hostname()
	cfg.InitialFields["service"] = appKonf.Application
	cfg.OutputPaths = []string{"stdout"}
	logger, err := cfg.Build()
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	return logger
}

func serve(ctx context.Context, appKonf *config.Config, logger *zap.Logger) error {
	m := metrics.New(appKonf.Application)

	b, err := openBackend(ctx, appKonf, logger)
	if err != nil {
		return err
	}
	defer b.Close(logger)

	gw, err := newGateway(appKonf.Gateway)
	if err != nil {
		return err
	}
	notifier, err := newNotifier(appKonf.Notify, logger)
	if err != nil {
		return err
	}
	poller := newPoller(appKonf, b, notifier, m, logger)

	// with a broker the webhook only publishes and the materialize worker applies
	var publisher api.Publisher
	if appKonf.Kafka.Consume {
		conf := &models.ProducerConfig{Brokers: appKonf.Kafka.Brokers, Topic: appKonf.Kafka.Topic}
		producer, err := kafka.NewProducer(conf, m.KafkaHooks("producer"), logger)
		if err != nil {
			return fmt.Errorf("cannot create payment events producer: %w", err)
		}
		defer producer.Close()
		publisher = producer
	} else {
		publisher = mat.NewMaterializer(logger, b.txs, b.enrollments, b.dlq)
	}

	sessions := family.NewSessions(sessionTTL)
	go sweepSessions(ctx, sessions, logger)

	srv := api.NewServer(api.Deps{
		Logger:         logger,
		Checkout:       newCheckout(appKonf, gw, b, logger),
		Reconciler:     poller,
		Sessions:       sessions,
		Gateways:       map[string]gateway.Gateway{gw.Name(): gw},
		Publisher:      publisher,
		Metrics:        m.Handler(),
		AllowedOrigins: appKonf.HTTP.AllowedOrigins,
		VerifyTimeout:  appKonf.HTTP.VerifyTimeout,
	})
	return srv.Run(ctx, appKonf.HTTP.Addr)
}

func materialize(ctx context.Context, appKonf *config.Config, logger *zap.Logger) error {
	if !appKonf.Kafka.Consume {
		return fmt.Errorf("kafka.consume is disabled, webhooks are applied by serve")
	}
	m := metrics.New(appKonf.Application)

	b, err := openBackend(ctx, appKonf, logger)
	if err != nil {
		return err
	}
	defer b.Close(logger)

	processor := mat.NewMaterializer(logger, b.txs, b.enrollments, b.dlq)
	conf := &models.ConsumerConfig{
		Brokers:        appKonf.Kafka.Brokers,
		Name:           appKonf.Kafka.ConsumerName,
		Topic:          appKonf.Kafka.Topic,
		RecordsPerPoll: appKonf.Kafka.RecordsPerPoll,
	}

	consumer, err := kafka.NewConsumer(conf, processor, m.KafkaHooks("consumer"), logger)
	if err != nil {
		return fmt.Errorf("cannot create payment events consumer: %w", err)
	}
	if err := consumer.Poll(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func inspect(ctx context.Context, appKonf *config.Config, logger *zap.Logger, reference string) error {
	b, err := openBackend(ctx, appKonf, logger)
	if err != nil {
		return err
	}
	defer b.Close(logger)

	notifier, err := newNotifier(appKonf.Notify, logger)
	if err != nil {
		return err
	}
	poller := newPoller(appKonf, b, notifier, metrics.New(appKonf.Application), logger)

	out, err := poller.Reconcile(ctx, reference)
	if err != nil {
		return err
	}
	return helpers.PrintStruct(os.Stdout, map[string]any{"outcome": out, "message": out.Message()})
}

func sweepSessions(ctx context.Context, sessions *family.Sessions, logger *zap.Logger) {
	ticker := time.NewTicker(sessionTTL / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := sessions.Sweep(); n > 0 {
				logger.Debug("dropped idle enrollment sessions", zap.Int("count", n))
			}
		}
	}
}
