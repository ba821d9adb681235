package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient() *HTTPClient {
	return NewHTTPClient(HTTPClientConfig{
		Timeout:       2 * time.Second,
		MaxRPS:        100,
		RetryAttempts: 1,
	}, zap.NewNop(), nil)
}

func TestGetJSONAccepts2xxStatuses(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusAccepted} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			w.Write([]byte(`{"name":"meme"}`))
		}))

		var out struct {
			Name string `json:"name"`
		}
		err := newTestClient().GetJSON(context.Background(), srv.URL, &out, 0)
		srv.Close()
		if err != nil {
			t.Errorf("status %d: %v", status, err)
			continue
		}
		if out.Name != "meme" {
			t.Errorf("status %d: decoded %q", status, out.Name)
		}
	}
}

func TestGetJSONTreats4xxAsNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]interface{}
	if err := newTestClient().GetJSON(context.Background(), srv.URL, &out, 0); err != ErrNoData {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}
