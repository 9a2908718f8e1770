package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sushihentaime/portfolio/internal/authservice"
	"github.com/sushihentaime/portfolio/internal/blogservice"
	"github.com/sushihentaime/portfolio/internal/common"
	"github.com/sushihentaime/portfolio/internal/content"
	"github.com/sushihentaime/portfolio/internal/mailservice"
	"github.com/sushihentaime/portfolio/internal/pocketbase"
)

type application struct {
	config      *Config
	logger      *slog.Logger
	pb          *pocketbase.Client
	categories  *blogservice.CategoryService
	tags        *blogservice.TagService
	session     *authservice.Session
	content     *content.Store
	mailService *mailservice.MailService
	broker      *common.MessageBroker
}

func main() {
	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pb := pocketbase.NewClient(cfg.PocketBaseURL, cfg.PocketBaseTimeout)
	cache := common.NewCache(cfg.CacheTTL, 2*cfg.CacheTTL)

	app := &application{
		config: cfg,
		logger: logger,
		pb:     pb,
	}

	// The broker is optional; without it posts are still served but no
	// publication emails go out.
	var producer common.MessageProducer
	if cfg.brokerEnabled() {
		URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
		broker, err := common.NewMessageBroker(URI)
		if err != nil {
			logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer broker.Close()

		err = common.SetupPostExchange(broker)
		if err != nil {
			logger.Error("failed to setup the post exchange", slog.String("error", err.Error()))
			os.Exit(1)
		}

		app.broker = broker
		producer = broker
	}

	posts := blogservice.NewPostService(pb, cache, producer, logger)
	app.categories = blogservice.NewCategoryService(pb, cache, logger)
	app.tags = blogservice.NewTagService(pb, cache, logger)
	app.content = content.NewStore(posts, app.categories, app.tags, logger)

	app.session = authservice.NewSession(pb, pb.AuthStore(), logger)
	app.session.Start()
	defer app.session.Close()

	if app.broker != nil && cfg.mailEnabled() {
		app.mailService, err = mailservice.NewMailService(app.broker, mailservice.Config{
			Host:      cfg.MailHost,
			Port:      cfg.MailPort,
			Username:  cfg.MailUser,
			Password:  cfg.MailPassword,
			Sender:    cfg.MailSender,
			Recipient: cfg.NotifyRecipient,
			SiteURL:   cfg.SiteURL,
		}, logger)
		if err != nil {
			logger.Error("failed to load the notification templates", slog.String("error", err.Error()))
			os.Exit(1)
		}

		// Initialize the consumer
		err = app.mailService.NotifyPublished()
		if err != nil {
			logger.Error("failed to start the notification consumer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer app.mailService.Close()
	}

	// A backend that is down at startup is not fatal; lists load on first request.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = app.content.Load(ctx)
	cancel()
	if err != nil {
		logger.Warn("initial content load failed", slog.String("error", err.Error()))
	}

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
