package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fentz26/worldtime/internal/engine"
	"github.com/fentz26/worldtime/internal/models"
	"github.com/fentz26/worldtime/internal/session"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the worldtime daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

func (c *Client) do(method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error: %s", bytes.TrimSpace(msg))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Ping reports whether the daemon answers its health check.
func (c *Client) Ping() bool {
	return c.do(http.MethodGet, "/health", nil, nil) == nil
}

// CreateSession starts a session. An empty mode uses the daemon default.
func (c *Client) CreateSession(mode models.Mode) (*SessionInfo, error) {
	var sess models.Session
	if err := c.do(http.MethodPost, "/sessions", map[string]models.Mode{"mode": mode}, &sess); err != nil {
		return nil, err
	}
	return newSessionInfo(sess)
}

// GetSession fetches a session with its decoded clock state.
func (c *Client) GetSession(id string) (*SessionInfo, error) {
	var sess models.Session
	if err := c.do(http.MethodGet, "/sessions/"+id, nil, &sess); err != nil {
		return nil, err
	}
	return newSessionInfo(sess)
}

// RunPhase sends one phase of a turn to the daemon.
func (c *Client) RunPhase(id string, phase engine.Phase, turn engine.Turn) (*engine.Result, error) {
	var res engine.Result
	if err := c.do(http.MethodPost, "/sessions/"+id+"/"+string(phase), turn, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PutCard creates or replaces a card by title.
func (c *Client) PutCard(id string, card models.Card) (*models.Card, error) {
	var saved models.Card
	if err := c.do(http.MethodPut, "/sessions/"+id+"/cards", card, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// Ledger fetches the decoded turn ledger.
func (c *Client) Ledger(id string) (*LedgerInfo, error) {
	var info LedgerInfo
	if err := c.do(http.MethodGet, "/sessions/"+id+"/ledger", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func newSessionInfo(sess models.Session) (*SessionInfo, error) {
	st := session.New(sess.Mode)
	if len(sess.State) > 0 {
		if err := json.Unmarshal(sess.State, &st); err != nil {
			return nil, fmt.Errorf("decode session state: %w", err)
		}
	}
	return &SessionInfo{ID: sess.ID, State: st}, nil
}
