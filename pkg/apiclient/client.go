package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mailworks/mailadmin/pkg/apiresult"
)

// Client is the typed API surface over the interceptor chain. Every call
// flows through the three stages; callers never see an intermediate 401 that
// a refresh could absorb.
type Client struct {
	BaseURL string
	Auth    *Authenticator

	http *http.Client

	Applications *ApplicationsAPI
	Users        *UsersAPI
	Emails       *EmailsAPI
	Dashboard    *DashboardAPI
}

type ClientConfig struct {
	BaseURL   string
	Auth      *Authenticator
	Base      http.RoundTripper
	Notifier  Notifier
	Indicator Indicator
	Logger    *slog.Logger
	Timeout   time.Duration
}

func New(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		BaseURL: cfg.BaseURL,
		Auth:    cfg.Auth,
		http: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(cfg.Base, cfg.Auth, cfg.Notifier, cfg.Indicator, cfg.Logger),
		},
	}
	c.Applications = &ApplicationsAPI{c: c}
	c.Users = &UsersAPI{c: c}
	c.Emails = &EmailsAPI{c: c}
	c.Dashboard = &DashboardAPI{c: c}
	return c
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (*apiresult.Envelope, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*apiresult.Envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var env apiresult.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.OK() {
		return nil, &APIError{Status: resp.StatusCode, Code: env.ResultCode, Message: env.FirstMessage()}
	}
	return &env, nil
}

// ListParams is the shared paginated list/filter contract.
type ListParams struct {
	Page     int
	PageSize int
	Search   string
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	return q
}

type Application struct {
	ID          uint   `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

type UserRecord struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Role              string `json:"role"`
	Approved          bool   `json:"approved"`
}

type EmailMessage struct {
	ID            uint       `json:"id"`
	ApplicationID uint       `json:"applicationId"`
	Provider      string     `json:"provider"`
	FromAddress   string     `json:"fromAddress"`
	ToAddresses   string     `json:"toAddresses"`
	Subject       string     `json:"subject"`
	Status        string     `json:"status"`
	SentAt        *time.Time `json:"sentAt,omitempty"`
}

type DashboardSummary struct {
	ByStatus []struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	} `json:"byStatus"`
	ByDay []struct {
		Day   string `json:"day"`
		Count int64  `json:"count"`
	} `json:"byDay"`
	ActiveApplications int64 `json:"activeApplications"`
}

type ApplicationsAPI struct{ c *Client }

func (a *ApplicationsAPI) List(ctx context.Context, p ListParams) ([]Application, int64, error) {
	env, err := a.c.get(ctx, "/api/v1/applications", p.values())
	if err != nil {
		return nil, 0, err
	}
	var apps []Application
	if err := env.Decode(&apps); err != nil {
		return nil, 0, err
	}
	return apps, env.TotalCount, nil
}

type UsersAPI struct{ c *Client }

func (u *UsersAPI) List(ctx context.Context, p ListParams) ([]UserRecord, int64, error) {
	env, err := u.c.get(ctx, "/api/v1/users", p.values())
	if err != nil {
		return nil, 0, err
	}
	var users []UserRecord
	if err := env.Decode(&users); err != nil {
		return nil, 0, err
	}
	return users, env.TotalCount, nil
}

type EmailsAPI struct{ c *Client }

func (e *EmailsAPI) List(ctx context.Context, p ListParams, status string) ([]EmailMessage, int64, error) {
	q := p.values()
	if status != "" {
		q.Set("status", status)
	}
	env, err := e.c.get(ctx, "/api/v1/emails", q)
	if err != nil {
		return nil, 0, err
	}
	var emails []EmailMessage
	if err := env.Decode(&emails); err != nil {
		return nil, 0, err
	}
	return emails, env.TotalCount, nil
}

func (e *EmailsAPI) Search(ctx context.Context, query string, p ListParams) ([]EmailMessage, int64, error) {
	q := p.values()
	q.Set("q", query)
	env, err := e.c.get(ctx, "/api/v1/emails/search", q)
	if err != nil {
		return nil, 0, err
	}
	var emails []EmailMessage
	if err := env.Decode(&emails); err != nil {
		return nil, 0, err
	}
	return emails, env.TotalCount, nil
}

type DashboardAPI struct{ c *Client }

func (d *DashboardAPI) Summary(ctx context.Context) (*DashboardSummary, error) {
	env, err := d.c.get(ctx, "/api/v1/dashboard/summary", nil)
	if err != nil {
		return nil, err
	}
	var summaries []DashboardSummary
	if err := env.Decode(&summaries); err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return nil, fmt.Errorf("malformed summary response")
	}
	return &summaries[0], nil
}
