package push

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultFCMEndpoint = "https://fcm.googleapis.com"
	fcmScope           = "https://www.googleapis.com/auth/firebase.messaging"
)

type FCMConfig struct {
	// ProjectID defaults to the project of the credentials
	ProjectID string
	// CredentialsFile is a service account key. When it and
	// CredentialsJSON are empty, application default credentials are used.
	CredentialsFile string
	CredentialsJSON []byte
	// TokenSource bypasses credential lookup
	TokenSource oauth2.TokenSource
	// Endpoint overrides the FCM base URL
	Endpoint string
	Timeout  time.Duration
}

// FCMSender posts to the FCM HTTP v1 send endpoint. Access tokens come
// from a reusing token source and are refreshed before they expire.
type FCMSender struct {
	config FCMConfig
	client *http.Client
	tokens oauth2.TokenSource
}

// NewFCMSender resolves credentials once. ctx is kept by the token source
// for later refreshes, so it should outlive the sender.
func NewFCMSender(ctx context.Context, config FCMConfig) (*FCMSender, error) {
	if config.Endpoint == "" {
		config.Endpoint = defaultFCMEndpoint
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	tokens := config.TokenSource
	if tokens == nil {
		creds, err := fcmCredentials(ctx, config)
		if err != nil {
			return nil, err
		}
		tokens = creds.TokenSource
		if config.ProjectID == "" {
			config.ProjectID = creds.ProjectID
		}
	}
	if config.ProjectID == "" {
		return nil, errors.New("fcm project id is required")
	}

	return &FCMSender{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		tokens: oauth2.ReuseTokenSource(nil, tokens),
	}, nil
}

func fcmCredentials(ctx context.Context, config FCMConfig) (*google.Credentials, error) {
	data := config.CredentialsJSON
	if len(data) == 0 && config.CredentialsFile != "" {
		b, err := os.ReadFile(config.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read fcm credentials: %w", err)
		}
		data = b
	}

	if len(data) == 0 {
		creds, err := google.FindDefaultCredentials(ctx, fcmScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default fcm credentials: %w", err)
		}
		return creds, nil
	}

	creds, err := google.CredentialsFromJSON(ctx, data, fcmScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fcm credentials: %w", err)
	}
	return creds, nil
}

type fcmRequest struct {
	Message fcmMessage `json:"message"`
}

type fcmMessage struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *FCMSender) Send(ctx context.Context, to Recipient, msg Message) error {
	if to.DeviceToken == "" {
		return ErrNoChannel
	}

	body, err := json.Marshal(fcmRequest{Message: fcmMessage{
		Token:        to.DeviceToken,
		Notification: fcmNotification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	}})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/messages:send", s.config.Endpoint, s.config.ProjectID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := s.tokens.Token()
	if err != nil {
		return fmt.Errorf("%w: failed to obtain fcm access token: %v", ErrDeliveryFailed, err)
	}
	token.SetAuthHeader(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: fcm returned %d: %s", ErrDeliveryFailed, resp.StatusCode, bytes.TrimSpace(detail))
	}
	return nil
}
