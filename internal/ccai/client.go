package ccai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"outreach/internal/domain"
)

const (
	campaignsPath      = "/api/v1/campaigns"
	scheduleTimezone   = "America/Los_Angeles"
	defaultHTTPTimeout = 60 * time.Second
)

// Client talks to the CCAI campaigns API. One Client is safe for concurrent
// use; the dispatcher itself performs no retries (the remote verdict is
// returned verbatim).
type Client struct {
	apiKey    string
	clientID  string
	accountID string
	baseURL   string

	senderEmail string
	senderName  string

	client *http.Client
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

type ClientConfig struct {
	APIKey      string
	ClientID    string
	AccountID   string
	BaseURL     string // endpoint base, no trailing slash
	SenderEmail string
	SenderName  string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = sharedHTTPClient(defaultHTTPTimeout)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.AccountID == "" {
		cfg.AccountID = "1223"
	}
	loc, err := time.LoadLocation(scheduleTimezone)
	if err != nil {
		loc = time.UTC
	}
	return &Client{
		apiKey:      cfg.APIKey,
		clientID:    cfg.ClientID,
		accountID:   cfg.AccountID,
		baseURL:     cfg.BaseURL,
		senderEmail: cfg.SenderEmail,
		senderName:  cfg.SenderName,
		client:      cfg.HTTPClient,
		loc:         loc,
		now:         time.Now,
		logger:      cfg.Logger,
	}
}

type account struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type campaignRequest struct {
	Subject            string    `json:"subject,omitempty"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	SenderEmail        string    `json:"senderEmail,omitempty"`
	ReplyEmail         string    `json:"replyEmail,omitempty"`
	SenderName         string    `json:"senderName"`
	ScheduledTimestamp string    `json:"scheduledTimestamp,omitempty"`
	ScheduledTimezone  string    `json:"scheduledTimezone,omitempty"`
	Accounts           []account `json:"accounts"`
	CampaignType       string    `json:"campaignType"`
	AddToList          string    `json:"addToList"`
	ContactInput       string    `json:"contactInput"`
	FromType           string    `json:"fromType"`
	Senders            []string  `json:"senders"`
}

// Send dispatches one email campaign. msg.Delay is waited locally first and
// is cancellable through ctx. Non-2xx responses and transport failures both
// yield a *domain.DispatchError.
func (c *Client) Send(ctx context.Context, msg domain.EmailMessage) (*domain.DispatchResult, error) {
	if msg.Delay > 0 {
		c.logger.Info("delaying dispatch", "to", msg.To, "delay", msg.Delay)
		select {
		case <-ctx.Done():
			return nil, &domain.DispatchError{Err: ctx.Err()}
		case <-time.After(msg.Delay):
		}
	}

	firstName := msg.FirstName
	if firstName == "" {
		firstName = domain.FirstNameFromEmail(msg.To)
	}
	title := msg.Title
	if title == "" {
		title = "Single Email - " + firstName
	}

	scheduledAt := c.now().In(c.loc).Add(msg.ScheduleIn)
	req := campaignRequest{
		Subject:            msg.Subject,
		Title:              title,
		Message:            msg.Body,
		SenderEmail:        c.senderEmail,
		ReplyEmail:         c.senderEmail,
		SenderName:         c.senderName,
		ScheduledTimestamp: scheduledAt.Format(time.RFC3339),
		ScheduledTimezone:  scheduleTimezone,
		Accounts: []account{{
			FirstName: firstName,
			LastName:  msg.LastName,
			Email:     msg.To,
		}},
		CampaignType: "EMAIL",
		AddToList:    "noList",
		ContactInput: "accounts",
		FromType:     "single",
		Senders:      []string{},
	}

	result, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	result.ScheduledAt = scheduledAt
	c.logger.Info("email dispatched", "to", msg.To, "status", result.StatusCode, "scheduled", scheduledAt.Format(time.Kitchen))
	return result, nil
}

// SendSMS dispatches one SMS campaign through the same endpoint.
func (c *Client) SendSMS(ctx context.Context, msg domain.SMSMessage) (*domain.DispatchResult, error) {
	req := campaignRequest{
		Title:      msg.Title,
		Message:    msg.Message,
		SenderName: c.senderName,
		Accounts: []account{{
			FirstName: msg.FirstName,
			LastName:  msg.LastName,
			Phone:     msg.To,
		}},
		CampaignType: "SMS",
		AddToList:    "noList",
		ContactInput: "accounts",
		FromType:     "single",
		Senders:      []string{},
	}
	result, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	c.logger.Info("sms dispatched", "to", msg.To, "status", result.StatusCode)
	return result, nil
}

func (c *Client) post(ctx context.Context, req campaignRequest) (*domain.DispatchResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal campaign: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+campaignsPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "*/*")
	httpReq.Header.Set("clientId", c.clientID)
	httpReq.Header.Set("accountId", c.accountID)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &domain.DispatchError{Err: err}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &domain.DispatchError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	decoded := map[string]any{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			decoded = map[string]any{"raw": string(respBody)}
		}
	}
	return &domain.DispatchResult{StatusCode: resp.StatusCode, Response: decoded}, nil
}

// sharedHTTPClient builds a pooled HTTP client.
func sharedHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}
