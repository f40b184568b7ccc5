package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/app"
)

// Client parle au démon coordinateur pour le compte d'un onglet donné.
// Implémente Coordinator.
type Client struct {
	BaseURL string
	TabID   int64
	HTTP    *http.Client
}

func NewClient(baseURL string, tabID int64) *Client {
	return &Client{
		BaseURL: baseURL,
		TabID:   tabID,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ShouldAutomate(ctx context.Context) (app.AutomationState, error) {
	var out app.AutomationState
	url := fmt.Sprintf("%s/api/v1/playback/should-automate?tabId=%d", c.BaseURL, c.TabID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return out, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("should-automate: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) EpisodeEnded(ctx context.Context) error {
	url := c.BaseURL + "/api/v1/playback/episode-ended"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("episode-ended: status %d", resp.StatusCode)
	}
	return nil
}
