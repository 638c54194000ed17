package notify

import (
	// Go Internal Packages
	"context"

	// External Packages
	"go.uber.org/zap"
)

// LogNotifier only logs the rendered message. Used for local runs.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n *LogNotifier) Notify(_ context.Context, recipientEmail string, data TemplateData) error {
	message, err := Render(data)
	if err != nil {
		return err
	}
	n.Logger.Info("confirmation email", zap.String("recipient", recipientEmail), zap.String("reference", data.Reference), zap.String("message", message))
	return nil
}
