package feed

import (
	"context"
	"time"

	"fjacquet/sci-ledger/internal/logging"

	"github.com/jackc/pgx/v5"
)

// PGListener relays PostgreSQL NOTIFY messages into a Broker. The payload of
// each notification is the name of the changed table.
type PGListener struct {
	dsn     string
	channel string
	broker  *Broker
	logger  logging.Logger

	// MinBackoff and MaxBackoff bound the reconnect delay.
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// NewPGListener creates a listener for channel on the database at dsn.
func NewPGListener(dsn, channel string, broker *Broker, logger logging.Logger) *PGListener {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &PGListener{
		dsn:        dsn,
		channel:    channel,
		broker:     broker,
		logger:     logger,
		MinBackoff: time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// Run listens until ctx is done, reconnecting with exponential backoff after
// connection failures.
func (l *PGListener) Run(ctx context.Context) error {
	backoff := l.MinBackoff
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.WithError(err).Warn("Change listener disconnected, retrying",
			logging.F(logging.FieldDuration, backoff.Milliseconds()))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > l.MaxBackoff {
			backoff = l.MaxBackoff
		}
	}
}

func (l *PGListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = conn.Close(closeCtx)
	}()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}
	l.logger.WithField("channel", l.channel).Info("Listening for table changes")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.broker.Publish(n.Payload)
	}
}
