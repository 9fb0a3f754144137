package common

// EmailSender is the outbound mail contract. Production wiring decides the
// transport; tests use InMemoryEmail.
type EmailSender interface {
	Send(to, subject, html string) error
}

// Email is a single captured message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// InMemoryEmail records sent mail instead of delivering it.
type InMemoryEmail struct {
	Outbox []Email
}

func (m *InMemoryEmail) Send(to, subject, html string) error {
	if m == nil {
		return nil
	}
	m.Outbox = append(m.Outbox, Email{To: to, Subject: subject, HTML: html})
	return nil
}

// NopEmailSender discards everything.
type NopEmailSender struct{}

func (NopEmailSender) Send(string, string, string) error { return nil }
