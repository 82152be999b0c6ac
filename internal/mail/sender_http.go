package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/markdevonuk/portal/pkg/email"
)

// HTTPSender delivers mail through a JSON transactional-mail API.
type HTTPSender struct {
	apiURL string
	apiKey string
	from   string
	client *http.Client
}

func NewHTTPSender(apiURL, apiKey, from string) *HTTPSender {
	return &HTTPSender{
		apiURL: apiURL,
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiRecipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type apiRequest struct {
	From    apiRecipient   `json:"from"`
	To      []apiRecipient `json:"to"`
	Subject string         `json:"subject"`
	Text    string         `json:"text,omitempty"`
	HTML    string         `json:"html,omitempty"`
}

func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(apiRequest{
		From:    apiRecipient{Email: s.from},
		To:      []apiRecipient{{Email: msg.To, Name: email.DisplayName(msg.To)}},
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode mail request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail API returned status %d", resp.StatusCode)
	}
	return nil
}
