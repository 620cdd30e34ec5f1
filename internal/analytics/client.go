package analytics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Collector posts events as JSON to an external collector endpoint.
type Collector struct {
	url    string
	client *http.Client
	clock  func() time.Time
}

type envelope struct {
	Event string `json:"event"`
	At    int64  `json:"at"` // unix milliseconds
	Data  Event  `json:"data"`
}

// NewCollector creates a collector client for the given endpoint URL.
func NewCollector(url string) *Collector {
	return &Collector{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		clock:  time.Now,
	}
}

// Send delivers one event. Callers wrap this in an Async emitter; a
// non-2xx response is an error like any other and gets discarded there.
func (c *Collector) Send(e Event) error {
	body, err := json.Marshal(envelope{
		Event: e.Name(),
		At:    c.clock().UnixMilli(),
		Data:  e,
	})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Name(), err)
	}

	resp, err := c.client.Post(c.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post %s event: %w", e.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collector returned %s", resp.Status)
	}
	return nil
}

// Verify Collector implements Sender at compile time.
var _ Sender = (*Collector)(nil)
