package utils

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"
)

const companyName = "SendIT"

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #e67e22; margin: 0;">SendIT</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

// SendFunc matches smtp.SendMail
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends HTML notification emails over SMTP
type Mailer struct {
	from     string
	password string
	host     string
	port     string
	baseURL  string
	send     SendFunc
}

func NewMailer(from, password, host, port, baseURL string) *Mailer {
	return &Mailer{
		from:     from,
		password: password,
		host:     host,
		port:     port,
		baseURL:  strings.TrimRight(baseURL, "/"),
		send:     smtp.SendMail,
	}
}

// WithSender replaces the SMTP transport
func (m *Mailer) WithSender(send SendFunc) *Mailer {
	m.send = send
	return m
}

func (m *Mailer) sendEmail(to []string, subject, body string) error {
	if m.from == "" || m.password == "" || m.host == "" || m.port == "" {
		return fmt.Errorf("email configuration not set")
	}

	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", companyName, m.from)},
		{"To", strings.Join(to, ",")},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
		{"X-Mailer", "SendIT-Mailer"},
	}

	var message strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&message, "%s: %s\r\n", h[0], h[1])
	}
	message.WriteString("\r\n" + body)

	auth := smtp.PlainAuth("", m.from, m.password, m.host)
	return m.send(m.host+":"+m.port, auth, m.from, to, []byte(message.String()))
}

// SendParcelStatusEmail tells a parcel owner that the status of their parcel changed
func (m *Mailer) SendParcelStatusEmail(to, item string, parcelID uint, previous, status string) error {
	subject := fmt.Sprintf("Parcel #%d is now %s - SendIT", parcelID, status)
	body := fmt.Sprintf(emailHeader+`
				<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
					<h1 style="color: #2c3e50; text-align: center;">Parcel Status Update</h1>
					<p>Hello,</p>
					<p>The status of your parcel <strong>%s</strong> (#%d) changed from <strong>%s</strong> to <strong>%s</strong>.</p>
					<div style="text-align: center; margin: 30px 0;">
						<a href="%s/parcels/%d" style="background-color: #e67e22; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;">Track Your Parcel</a>
					</div>
					<p>Best regards,<br>The SendIT Team</p>
				</div>`+emailFooter,
		html.EscapeString(item), parcelID, html.EscapeString(previous), html.EscapeString(status), m.baseURL, parcelID)

	return m.sendEmail([]string{to}, subject, body)
}
