package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/iqac-backend/internal/conf"
	"github.com/lk2023060901/iqac-backend/internal/record/models"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

const sendTimeout = 30 * time.Second

// DecisionNotifier emails the configured address whenever a record is
// approved or rejected. Sends happen off the request path; a failed send
// is logged and never affects the decision itself.
type DecisionNotifier struct {
	cfg    conf.SMTPConfig
	logger *zap.Logger
}

func NewDecisionNotifier(cfg conf.SMTPConfig, logger *zap.Logger) *DecisionNotifier {
	return &DecisionNotifier{cfg: cfg, logger: logger}
}

// DecisionMade implements biz.DecisionNotifier.
func (n *DecisionNotifier) DecisionMade(rec *models.Record, approved bool) {
	if !n.cfg.Enabled || n.cfg.NotifyTo == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := n.send(ctx, rec, approved); err != nil {
			n.logger.Error("failed to send decision notification",
				zap.Uint("id", rec.ID),
				zap.String("kind", string(rec.Kind)),
				zap.Error(err))
		}
	}()
}

func (n *DecisionNotifier) send(ctx context.Context, rec *models.Record, approved bool) error {
	verb := "rejected"
	if approved {
		verb = "approved"
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(n.cfg.NotifyTo); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(fmt.Sprintf("%s %s: %s", rec.Kind.Label(), verb, rec.Title))
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"%s #%d (%q, dated %s) was %s.\n",
		rec.Kind.Label(), rec.ID, rec.Title, rec.EventDate, verb))

	opts := []mail.Option{
		mail.WithPort(n.cfg.Port),
		mail.WithTimeout(sendTimeout),
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(n.cfg.Username),
			mail.WithPassword(n.cfg.Password),
		)
	} else {
		opts = append(opts, mail.WithSMTPAuth(mail.SMTPAuthNoAuth))
	}

	client, err := mail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("create mail client: %w", err)
	}
	defer client.Close()

	return client.DialAndSendWithContext(ctx, msg)
}
