package main

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	config "enrollpay/config"
	gateway "enrollpay/gateway"
	metrics "enrollpay/metrics"
	notify "enrollpay/notify"
	memory "enrollpay/repositories/memory"
	mongodb "enrollpay/repositories/mongodb"
	redis "enrollpay/repositories/redis"
	checkout "enrollpay/services/checkout"
	family "enrollpay/services/family"
	mat "enrollpay/services/materializer"
	reconcile "enrollpay/services/reconcile"

	// External Packages
	"go.uber.org/zap"
)

type txStore interface {
	checkout.TxWriter
	reconcile.TransactionReader
	mat.TxRepository
}

type enrollmentStore interface {
	reconcile.EnrollmentReader
	family.EnrollmentWriter
}

// backend is the storage selected by store.driver.
type backend struct {
	txs         txStore
	enrollments enrollmentStore
	guard       reconcile.OnceGuard
	dlq         mat.DeadLetterQueue
	closers     []func(context.Context) error
}

func openBackend(ctx context.Context, appKonf *config.Config, logger *zap.Logger) (*backend, error) {
	if appKonf.Store.Driver == "memory" {
		logger.Warn("using the in-memory store, nothing survives a restart")
		s := memory.NewStore()
		return &backend{txs: s, enrollments: s, guard: &memory.NotifyGuard{}}, nil
	}

	// Mongo Connection
	mongoClient, err := mongodb.Connect(ctx, appKonf.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("cannot create mongo client: %w", err)
	}
	if err := mongodb.EnsureIndexes(ctx, mongoClient.Database(appKonf.Mongo.Database)); err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("cannot create mongo indexes: %w", err)
	}

	// Redis Connection
	redisClient, err := redis.Connect(ctx, appKonf.Redis.URI, appKonf.Redis.Password)
	if err != nil {
		_ = mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("cannot create redis client: %w", err)
	}

	return &backend{
		txs:         mongodb.NewTxRepository(mongoClient, appKonf.Mongo.Database),
		enrollments: mongodb.NewEnrollmentRepository(mongoClient, appKonf.Mongo.Database),
		guard:       redis.NewNotifyGuard(redisClient, appKonf.Redis.NotifyTTL),
		dlq:         redis.NewDeadLetterQueue(redisClient, logger),
		closers: []func(context.Context) error{
			mongoClient.Disconnect,
			func(context.Context) error { return redisClient.Close() },
		},
	}, nil
}

func (b *backend) Close(logger *zap.Logger) {
	for _, c := range b.closers {
		if err := c(context.Background()); err != nil {
			logger.Warn("closing backend", zap.Error(err))
		}
	}
}

func newGateway(conf config.Gateway) (gateway.Gateway, error) {
	switch conf.Provider {
	case "paystack":
		return gateway.NewPaystack(conf.BaseURL, conf.SecretKey), nil
	case "stripe":
		return gateway.NewStripe(conf.SecretKey, conf.WebhookSecret), nil
	}
	return nil, fmt.Errorf("unknown gateway provider %q", conf.Provider)
}

func newNotifier(conf config.Notify, logger *zap.Logger) (reconcile.Notifier, error) {
	switch conf.Driver {
	case "http":
		return notify.NewHTTPNotifier(conf.URL, logger), nil
	case "smtp":
		s := conf.SMTP
		return notify.NewSMTPNotifier(s.Host, s.Port, s.User, s.Pass, s.Sender, conf.Subject, logger), nil
	case "log":
		return &notify.LogNotifier{Logger: logger}, nil
	}
	return nil, fmt.Errorf("unknown notify driver %q", conf.Driver)
}

func newPoller(appKonf *config.Config, b *backend, notifier reconcile.Notifier, m *metrics.Metrics, logger *zap.Logger) *reconcile.Poller {
	policy := reconcile.Policy{
		MaxAttempts: appKonf.Reconcile.MaxAttempts,
		BaseDelay:   appKonf.Reconcile.BaseDelay,
		MaxDelay:    appKonf.Reconcile.MaxDelay,
	}
	p := reconcile.NewPoller(logger, b.txs, b.enrollments, notifier, b.guard, policy)
	p.Metrics = m
	return p
}

func newCheckout(appKonf *config.Config, gw gateway.Gateway, b *backend, logger *zap.Logger) *checkout.Service {
	pricing := checkout.Pricing{DefaultMinor: appKonf.Pricing.DefaultMinor, Programs: appKonf.Pricing.Programs}
	return checkout.NewService(logger, gw, b.txs, pricing, appKonf.Gateway.CallbackURL, appKonf.Gateway.Currency)
}
