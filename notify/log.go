package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/MrEthical07/goSession/logger"
)

// LogNotifier writes alerts to a zap logger and answers confirmations with a fixed
// value. It suits headless hosts.
type LogNotifier struct {
	log    *zap.Logger
	answer bool
}

// NewLogNotifier returns a LogNotifier. answer is returned by every Confirm.
func NewLogNotifier(log *zap.Logger, answer bool) *LogNotifier {
	return &LogNotifier{log: logger.OrNop(log), answer: answer}
}

// Alert implements Notifier.
func (n *LogNotifier) Alert(ctx context.Context, msg Message, title string) error {
	logger.WithRequestID(ctx, n.log).Warn("alert",
		zap.String("title", title),
		zap.String("key", msg.Key),
		zap.Any("args", msg.Args),
		zap.String("text", msg.Text),
	)
	return nil
}

// Confirm implements Notifier.
func (n *LogNotifier) Confirm(ctx context.Context, msg Message, title string) (bool, error) {
	logger.WithRequestID(ctx, n.log).Info("confirm",
		zap.String("title", title),
		zap.String("key", msg.Key),
		zap.Bool("answer", n.answer),
	)
	return n.answer, nil
}
