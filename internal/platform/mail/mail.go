// Package mail delivers prescription documents to patients over SMTP.
package mail

import (
	"context"
	"fmt"
	"io"

	"github.com/go-gomail/gomail"
)

// Sender delivers a rendered prescription PDF to a patient.
type Sender interface {
	SendPrescription(ctx context.Context, to, patientName, doctorName string, pdf []byte) error
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends prescription emails through an SMTP server using gomail.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendPrescription(ctx context.Context, to, patientName, doctorName string, pdf []byte) error {
	if to == "" {
		return fmt.Errorf("recipient address is empty")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Receta medica - %s", doctorName))
	m.SetBody("text/plain", fmt.Sprintf(
		"Estimado/a %s,\n\nAdjuntamos su receta medica emitida por %s.\n\nEste documento incluye un codigo QR para verificar su autenticidad.\n",
		patientName, doctorName,
	))
	m.Attach("receta.pdf", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdf)
		return err
	}))

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending prescription email: %w", err)
		}
		return nil
	}
}
