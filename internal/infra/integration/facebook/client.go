package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

const (
	DefaultGraphURL = "https://graph.facebook.com/v19.0"
	defaultTimeout  = 15 * time.Second
)

var ErrNoAccessToken = errors.New("facebook: access token not configured")

// Client fetches lead form answers by leadgen id.
type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
}

func NewClient(accessToken, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultGraphURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) FetchLead(ctx context.Context, leadgenID string) (entity.ContactFields, error) {
	if c.accessToken == "" {
		return entity.ContactFields{}, ErrNoAccessToken
	}

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, url.PathEscape(leadgenID), url.Values{"access_token": {c.accessToken}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return entity.ContactFields{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.ContactFields{}, fmt.Errorf("facebook: fetch lead %s: %w", leadgenID, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var lead LeadResponse
	if err := json.Unmarshal(body, &lead); err != nil {
		return entity.ContactFields{}, fmt.Errorf("facebook: decode lead %s (status %d): %w", leadgenID, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || lead.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if lead.Error != nil {
			msg = lead.Error.Message
		}
		return entity.ContactFields{}, fmt.Errorf("facebook: fetch lead %s: status %d: %s", leadgenID, resp.StatusCode, msg)
	}
	return ContactFromFields(lead.FieldData), nil
}

// ContactFromFields maps form answers by field name: anything containing
// "name" is the name, "email" the email, "phone" the phone. First name
// parts ("first_name", "last_name") are joined.
func ContactFromFields(fields []FieldData) entity.ContactFields {
	var out entity.ContactFields
	var first, last string
	for _, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f.Name))
		value := ""
		if len(f.Values) > 0 {
			value = strings.TrimSpace(f.Values[0])
		}
		switch {
		case name == "first_name" || name == "vorname":
			first = value
		case name == "last_name" || name == "nachname":
			last = value
		case strings.Contains(name, "email") || strings.Contains(name, "e-mail"):
			if out.Email == "" {
				out.Email = value
			}
		case strings.Contains(name, "phone") || strings.Contains(name, "telefon"):
			if out.Phone == "" {
				out.Phone = value
			}
		case strings.Contains(name, "name"):
			if out.Name == "" {
				out.Name = value
			}
		}
	}
	if out.Name == "" {
		out.Name = strings.TrimSpace(first + " " + last)
	}
	return out
}
