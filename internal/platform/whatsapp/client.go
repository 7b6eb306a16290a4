package whatsapp

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tennis_bot/configs"
)

const (
	defaultBaseURL = "https://api.twilio.com"
	sendTimeout    = 10 * time.Second
)

// ErrSendFailed is returned when Twilio rejects an outbound message.
var ErrSendFailed = errors.New("whatsapp client: send failed")

// Client delivers WhatsApp messages through the Twilio Messages API.
type Client struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg configs.TwilioConfig) *Client {
	return &Client{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{
			Timeout: sendTimeout,
		},
	}
}

// Send posts one message body to the recipient. Delivery is best-effort;
// the caller logs failures and does not retry.
func (c *Client) Send(to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)

	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", to)
	form.Set("Body", body)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrSendFailed, err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrSendFailed, resp.StatusCode, string(respBody))
	}

	logrus.WithField("to", to).Debug("Message delivered to Twilio")
	return nil
}
