package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"

	"motomar-api/config"
	"motomar-api/logger"
)

// Mailer sends the transactional emails of the account lifecycle.
type Mailer interface {
	SendWelcomeEmail(email, name string) error
	SendLoginNotice(email, name, clientIP string, at time.Time) error
}

type EmailService struct {
	fromName    string
	fromEmail   string
	frontendURL string
	send        func(m *gomail.Message) error
}

// NewEmailService returns a mailer over SMTP. When no SMTP host is configured
// messages are logged and dropped.
func NewEmailService(cfg *config.Config) *EmailService {
	es := &EmailService{
		fromName:    cfg.FromName,
		fromEmail:   cfg.FromEmail,
		frontendURL: cfg.FrontendURL,
	}

	if cfg.SMTPHost == "" {
		es.send = func(m *gomail.Message) error {
			logger.Log.Warnw("SMTP not configured, email skipped", "to", m.GetHeader("To"), "subject", m.GetHeader("Subject"))
			return nil
		}
		return es
	}

	dialer := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
	es.send = func(m *gomail.Message) error {
		return dialer.DialAndSend(m)
	}
	return es
}

func (es *EmailService) newMessage(to, subject string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("%s <%s>", es.fromName, es.fromEmail))
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	return m
}

// Send welcome email after registration
func (es *EmailService) SendWelcomeEmail(email, name string) error {
	m := es.newMessage(email, "¡Bienvenido a MotoMar! 🏍️")

	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Bienvenido a MotoMar</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { text-align: center; background: linear-gradient(135deg, #e63946, #a4161a); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 0 0 10px 10px; }
        .feature { background: white; padding: 20px; margin: 15px 0; border-radius: 8px; border-left: 4px solid #e63946; }
        .footer { text-align: center; margin-top: 20px; color: #666; font-size: 14px; }
        .btn { display: inline-block; background: #e63946; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin: 10px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🏍️ ¡Bienvenido a MotoMar!</h1>
            <p>El marketplace de motos de Colombia</p>
        </div>
        <div class="content">
            <h2>Hola %s,</h2>
            <p>Tu cuenta fue creada con éxito.</p>

            <div class="feature">
                <h4>📢 Publica tu moto</h4>
                <p>Crea un anuncio con fotos y llega a compradores de todo el país.</p>
            </div>

            <div class="feature">
                <h4>⭐ Guarda tus favoritas</h4>
                <p>Marca las motos que te interesan y encuéntralas luego en tu perfil.</p>
            </div>

            <a class="btn" href="%s">Ir a MotoMar</a>
        </div>
        <div class="footer">
            <p>Este es un correo automático, por favor no respondas.</p>
        </div>
    </div>
</body>
</html>`, name, es.frontendURL)

	textBody := fmt.Sprintf(`
Hola %s,

Tu cuenta de MotoMar fue creada con éxito.
Publica tu moto o guarda tus favoritas en %s

Este es un correo automático, por favor no respondas.
`, name, es.frontendURL)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.send(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	logger.Log.Infow("welcome email sent", "to", email)
	return nil
}

// Send a notice after each successful login
func (es *EmailService) SendLoginNotice(email, name, clientIP string, at time.Time) error {
	m := es.newMessage(email, "MotoMar - Nuevo inicio de sesión")

	when := at.Format("02/01/2006 15:04 MST")
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Nuevo inicio de sesión</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { background: #f8f9fa; padding: 30px; border-radius: 10px; }
        .warning { background: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; border-radius: 5px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="content">
            <h2>Hola %s,</h2>
            <p>Se inició sesión en tu cuenta el %s desde la IP %s.</p>
            <div class="warning">
                <p>Si no fuiste tú, cambia tu contraseña de inmediato.</p>
            </div>
        </div>
    </div>
</body>
</html>`, name, when, clientIP)

	textBody := fmt.Sprintf(`
Hola %s,

Nuevo inicio de sesión en tu cuenta.
Fecha: %s
IP: %s

Si no fuiste tú, cambia tu contraseña de inmediato.
`, name, when, clientIP)

	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	if err := es.send(m); err != nil {
		return fmt.Errorf("failed to send login notice: %w", err)
	}
	return nil
}
