package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cbrSample = `{
  "Date": "2024-03-01T11:30:00+03:00",
  "Valute": {
    "USD": {"ID": "R01235", "CharCode": "USD", "Nominal": 1, "Value": 90.1234, "Previous": 89.9},
    "EUR": {"ID": "R01239", "CharCode": "EUR", "Nominal": 1, "Value": 98.5, "Previous": 97.7},
    "JPY": {"ID": "R01820", "CharCode": "JPY", "Nominal": 100, "Value": 60.2, "Previous": 60.1}
  }
}`

func TestCBRFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(cbrSample))
	}))
	defer srv.Close()

	rates, err := NewCBRFetcher(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)

	assert.Len(t, rates, 2)
	assert.Equal(t, "90.1234", rates["USD"].String())
	assert.Equal(t, "98.5", rates["EUR"].String())
}

func TestCBRFetcher_Nominal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Valute": {
			"USD": {"CharCode": "USD", "Nominal": 10, "Value": 900},
			"EUR": {"CharCode": "EUR", "Nominal": 1, "Value": 98}
		}}`))
	}))
	defer srv.Close()

	rates, err := NewCBRFetcher(srv.URL, time.Second).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "90.00", rates["USD"].StringFixed(2))
}

func TestCBRFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "server error", status: http.StatusInternalServerError, body: "oops", wantErr: "status 500"},
		{name: "bad json", status: http.StatusOK, body: "{not json", wantErr: "failed to decode"},
		{name: "missing EUR", status: http.StatusOK, body: `{"Valute": {"USD": {"Nominal": 1, "Value": 90}}}`, wantErr: "EUR missing"},
		{name: "zero value", status: http.StatusOK, body: `{"Valute": {"USD": {"Nominal": 1, "Value": 0}, "EUR": {"Nominal": 1, "Value": 98}}}`, wantErr: "not positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewCBRFetcher(srv.URL, time.Second).Fetch(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCBRFetcher_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewCBRFetcher(srv.URL, 50*time.Millisecond).Fetch(context.Background())
	assert.Error(t, err)
}

func TestCBRFetcher_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCBRFetcher("http://127.0.0.1:1", time.Second).Fetch(ctx)
	assert.Error(t, err)
}
