package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Mailer sends transactional email. Abstracted so tests can observe sends
// and simulate failures without a network.
type Mailer interface {
	// SendVerificationEmail sends the post-registration verify link.
	SendVerificationEmail(ctx context.Context, to, name, verifyURL string) error

	// SendSignInEmail sends a one-time sign-in link.
	SendSignInEmail(ctx context.Context, to, signinURL string) error
}

// ResendClient sends email via Resend's HTTP API.
//
// Resend is a plain JSON-over-HTTPS API: POST /emails with a bearer key.
// No SMTP setup, no SDK needed.
type ResendClient struct {
	httpClient *http.Client
	apiKey     string
	from       string
}

// resendMessage is the payload for Resend's send endpoint.
type resendMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

const resendSendURL = "https://api.resend.com/emails"

// NewResendClient creates a new Resend mail client.
func NewResendClient(apiKey, from string) *ResendClient {
	return &ResendClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey: apiKey,
		from:   from,
	}
}

// SendVerificationEmail sends the email-verification link for a new account.
func (c *ResendClient) SendVerificationEmail(ctx context.Context, to, name, verifyURL string) error {
	html := fmt.Sprintf(
		`<h2>Welcome to Social Circle, %s!</h2>`+
			`<p>Click the link below to verify your email address:</p>`+
			`<p><a href="%s">Verify Email</a></p>`+
			`<p>This link expires in 24 hours. If you did not create an account, ignore this email.</p>`,
		name, verifyURL)

	return c.send(ctx, to, "Verify your email", html)
}

// SendSignInEmail sends a one-time sign-in link for passwordless login.
func (c *ResendClient) SendSignInEmail(ctx context.Context, to, signinURL string) error {
	html := fmt.Sprintf(
		`<h2>Sign in to Social Circle</h2>`+
			`<p>Click the link below to sign in:</p>`+
			`<p><a href="%s">Sign In</a></p>`+
			`<p>This link expires in 24 hours. If you did not request it, ignore this email.</p>`,
		signinURL)

	return c.send(ctx, to, "Your sign-in link", html)
}

func (c *ResendClient) send(ctx context.Context, to, subject, html string) error {
	payload, err := json.Marshal(resendMessage{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendSendURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[Mailer] Send FAILED: to=%s subject=%q err=%v", to, subject, err)
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Mailer] Send FAILED: to=%s subject=%q status=%d body=%s", to, subject, resp.StatusCode, string(respBody))
		return fmt.Errorf("resend api error: status=%d", resp.StatusCode)
	}

	var sendResp resendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		// The API accepted the send; a malformed body is not a delivery failure
		log.Printf("[Mailer] Send OK (unparseable response): to=%s subject=%q", to, subject)
		return nil
	}

	log.Printf("[Mailer] Send OK: to=%s subject=%q id=%s", to, subject, sendResp.ID)
	return nil
}
