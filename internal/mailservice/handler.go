package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sushihentaime/portfolio/internal/common"
	"golang.org/x/exp/rand"
)

const (
	maxRetries       = 5
	defaultBaseDelay = 500 * time.Millisecond

	postPublishedTemplate = "post_published.html"
)

func NewMailService(mb common.MessageConsumer, cfg Config, logger MailLogger) (*MailService, error) {
	tp, err := NewTemplate()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         NewMailer(cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Sender, tp),
		logger:    logger,
		recipient: cfg.Recipient,
		siteURL:   strings.TrimRight(cfg.SiteURL, "/"),
		baseDelay: defaultBaseDelay,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// NotifyPublished consumes post published messages and mails a notification for
// each one to the configured recipient.
func (s *MailService) NotifyPublished() error {
	msgs, err := s.mb.Consume(common.PostPublishedKey, common.PostExchange, common.PostPublishedQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				s.handlePublished(msg)

			case <-s.ctx.Done():
				s.logger.Info("stopping NotifyPublished due to context cancellation")
				return
			}
		}
	}()

	return nil
}

func (s *MailService) handlePublished(msg amqp.Delivery) {
	var data common.PostPublishedMessage
	err := json.Unmarshal(msg.Body, &data)
	if err != nil {
		s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
		// a malformed body will never decode, so do not requeue it
		_ = msg.Nack(false, false)
		return
	}

	payload := postPublished{
		Title:    data.Title,
		Excerpt:  data.Excerpt,
		Category: data.Category,
		URL:      s.siteURL + "/blog/" + data.Slug,
	}

	// using exponential backoff with jitter
	var attempt int
	for attempt = 0; attempt < maxRetries; attempt++ {
		err = s.m.send(s.recipient, payload, postPublishedTemplate)
		if err == nil {
			s.logger.Info("post published email sent", slog.String("slug", data.Slug))
			_ = msg.Ack(false)
			return
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying post published email", slog.String("slug", data.Slug), slog.Int("attempt", attempt), slog.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			_ = msg.Nack(false, true)
			return
		}
	}

	s.logger.Error("could not send post published email", slog.String("slug", data.Slug), slog.String("error", err.Error()))
	_ = msg.Ack(false)
}

// Close stops the consumer and waits for the message in hand to finish.
func (s *MailService) Close() {
	s.cancel()
	s.wg.Wait()
}
