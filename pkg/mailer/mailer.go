package mailer

import (
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional mails. The booking path treats it as a
// best-effort side channel: a failed send never fails the booking.
type Mailer interface {
	SendBookingReceived(email, displayName string) error
	SendPasswordReset(email, displayName, resetToken string) error
}

// SMTPConfig holds mail-transport credentials
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends mails over SMTP
type SMTPMailer struct {
	cfg SMTPConfig
}

// NewSMTPMailer creates a new SMTPMailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SendBookingReceived sends the booking confirmation mail
func (m *SMTPMailer) SendBookingReceived(email, displayName string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Your Holidays Planners Tour Request Reservation is Received!")
	msg.SetBody("text/html", bookingReceivedBody(displayName))

	return m.send(msg)
}

// SendPasswordReset sends the password-reset mail carrying the reset token
func (m *SMTPMailer) SendPasswordReset(email, displayName, resetToken string) error {
	if m.cfg.Host == "" {
		return fmt.Errorf("smtp host not configured")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", "Reset Your Holidays Planners Password")
	msg.SetBody("text/html", passwordResetBody(displayName, resetToken))

	return m.send(msg)
}

func (m *SMTPMailer) send(msg *gomail.Message) error {
	d := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	return d.DialAndSend(msg)
}

// firstName extracts the leading name for the salutation; a bare email or
// single name is used as-is
func firstName(displayName string) string {
	if i := strings.IndexByte(displayName, ' '); i > 0 {
		return displayName[:i]
	}
	return displayName
}

// bookingReceivedBody renders the confirmation mail, addressed to the user's
// first name where one is available.
func bookingReceivedBody(displayName string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
  <body>
    <h1>Payment Confirmation - Holidays Planners</h1>
    <p>
      Dear %s,
      <br /><br />
      Thank you for booking a tour with Holidays Planners! We're excited to
      have you join us on this adventure. To complete your booking, please
      choose your preferred method of payment.
    </p>
    <p>
      If you have any questions or need assistance with the payment process,
      please don't hesitate to reach out.
      <br /><br />
      Best regards,<br />
      Holidays Planners
    </p>
  </body>
</html>`, firstName(displayName))
}

// passwordResetBody renders the reset mail with the single-use token
func passwordResetBody(displayName, resetToken string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
  <body>
    <h1>Password Reset - Holidays Planners</h1>
    <p>
      Dear %s,
      <br /><br />
      We received a request to reset the password on your account. Use the
      token below with the password-reset endpoint to choose a new password.
      The token expires shortly and can be used once.
    </p>
    <p><code>%s</code></p>
    <p>
      If you did not request this, you can safely ignore this mail; your
      password stays unchanged.
      <br /><br />
      Best regards,<br />
      Holidays Planners
    </p>
  </body>
</html>`, firstName(displayName), resetToken)
}
