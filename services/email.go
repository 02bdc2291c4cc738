package services

import (
	"fmt"
	"lexdesk/config"
	"log"
	"strings"

	"github.com/resend/resend-go/v2"
)

// Email represents an email message
type Email struct {
	To       []string
	Subject  string
	HTMLBody string
	TextBody string
}

// SendEmail sends an email via Resend. In test mode the email is logged to
// the console instead of sent.
func SendEmail(cfg *config.Config, email *Email) error {
	if cfg.EmailTestMode {
		logEmailToConsole(email)
		return nil
	}

	// Validate configuration
	if cfg.ResendAPIKey == "" {
		return fmt.Errorf("RESEND_API_KEY not configured")
	}

	client := resend.NewClient(cfg.ResendAPIKey)

	fromAddress := fmt.Sprintf("%s <%s>", cfg.EmailFromName, cfg.EmailFrom)

	params := &resend.SendEmailRequest{
		From:    fromAddress,
		To:      email.To,
		Subject: email.Subject,
	}

	// Set body (prefer HTML if available)
	if email.HTMLBody != "" {
		params.Html = email.HTMLBody
	}
	if email.TextBody != "" {
		params.Text = email.TextBody
	}

	if params.Html == "" && params.Text == "" {
		return fmt.Errorf("email must have either HTMLBody or TextBody")
	}

	sent, err := client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	log.Printf("Email sent to %s (id: %s)", strings.Join(email.To, ", "), sent.Id)
	return nil
}

// SendEmailAsync sends an email in a goroutine without blocking the request
func SendEmailAsync(cfg *config.Config, email *Email) {
	// Copy the email to avoid race conditions
	emailCopy := &Email{
		To:       append([]string{}, email.To...),
		Subject:  email.Subject,
		HTMLBody: email.HTMLBody,
		TextBody: email.TextBody,
	}

	go func(cfg *config.Config, email *Email) {
		if err := SendEmail(cfg, email); err != nil {
			log.Printf("Error sending async email: %v", err)
		}
	}(cfg, emailCopy)
}

func logEmailToConsole(email *Email) {
	log.Printf("---- EMAIL (test mode, not sent) ----")
	log.Printf("To: %s", strings.Join(email.To, ", "))
	log.Printf("Subject: %s", email.Subject)
	if email.TextBody != "" {
		log.Printf("Body: %s", email.TextBody)
	}
	log.Printf("-------------------------------------")
}

// BuildWelcomeEmail creates a welcome email for new team members and clients
func BuildWelcomeEmail(userEmail, userName, firmName, appURL string) *Email {
	return &Email{
		To:      []string{userEmail},
		Subject: fmt.Sprintf("Welcome to %s", firmName),
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nAn account has been created for you at %s. Sign in at %s/login with your email address to get started.\n\nIf you did not expect this email, you can ignore it.",
			userName, firmName, appURL,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>An account has been created for you at <strong>%s</strong>. <a href=\"%s/login\">Sign in</a> with your email address to get started.</p><p>If you did not expect this email, you can ignore it.</p>",
			userName, firmName, appURL,
		),
	}
}

// BuildInvoiceIssuedEmail notifies a client that an invoice was issued
func BuildInvoiceIssuedEmail(clientEmail, clientName, invoiceNumber string, amount float64, currency string, appURL string) *Email {
	return &Email{
		To:      []string{clientEmail},
		Subject: fmt.Sprintf("Invoice %s issued", invoiceNumber),
		TextBody: fmt.Sprintf(
			"Hi %s,\n\nInvoice %s for %.2f %s has been issued to you. Sign in at %s/login to view the details and upload payment confirmation.",
			clientName, invoiceNumber, amount, currency, appURL,
		),
		HTMLBody: fmt.Sprintf(
			"<p>Hi %s,</p><p>Invoice <strong>%s</strong> for <strong>%.2f %s</strong> has been issued to you. <a href=\"%s/login\">Sign in</a> to view the details and upload payment confirmation.</p>",
			clientName, invoiceNumber, amount, currency, appURL,
		),
	}
}
