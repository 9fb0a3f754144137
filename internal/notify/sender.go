package notify

import "github.com/rs/zerolog"

// LogEmailSender writes outbound mail to the log instead of delivering it.
// It stands in for a real SMTP/provider transport in environments where
// none is configured, so the notification path stays exercised end to end.
type LogEmailSender struct {
	From   string
	Logger zerolog.Logger
}

func (s LogEmailSender) Send(to, subject, html string) error {
	s.Logger.Info().
		Str("from", s.From).
		Str("to", to).
		Str("subject", subject).
		Int("body_bytes", len(html)).
		Msg("email dispatched to log sink")
	return nil
}
