package analytics

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCollector_Send(t *testing.T) {
	var got envelope
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_ = json.Unmarshal(body, &raw)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c := NewCollector(srv.URL)
	c.clock = func() time.Time { return time.UnixMilli(1767000000000) }

	err := c.Send(ValidatedPlay{
		TrackID:   "t1",
		ArtistID:  "a1",
		ElapsedMS: 30000,
		Tier:      "free",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if got.Event != "validated_play" {
		t.Errorf("event = %q, want validated_play", got.Event)
	}
	if got.At != 1767000000000 {
		t.Errorf("at = %d, want 1767000000000", got.At)
	}
	data, ok := raw["data"].(map[string]any)
	if !ok {
		t.Fatalf("data missing from envelope: %v", raw)
	}
	if data["track_id"] != "t1" {
		t.Errorf("data.track_id = %v, want t1", data["track_id"])
	}
}

func TestCollector_Send_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCollector(srv.URL)

	if err := c.Send(Impression{AdID: "ad1"}); err == nil {
		t.Error("Send() error = nil, want error for 500 response")
	}
}

func TestCollector_Send_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // already closed

	c := NewCollector(srv.URL)

	if err := c.Send(Click{AdID: "ad1"}); err == nil {
		t.Error("Send() error = nil, want error for unreachable collector")
	}
}
