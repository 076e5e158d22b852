package wallet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

func TestClient_GetWallet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"w1","currency":"NGN","balance":"1500.00","is_frozen":false}`))
	}))
	defer srv.Close()

	c := NewClient(apiclient.New(apiclient.Options{BaseURL: srv.URL}))
	w, err := c.GetWallet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1500.00", w.Balance)
	assert.Equal(t, "NGN", w.Currency)
}

func TestClient_ListTransactions(t *testing.T) {
	tests := []struct {
		name          string
		filter        domain.TransactionFilter
		response      string
		expectedQuery string
		expectedTotal int
		expectedItems int
	}{
		{
			name:          "paginated with count",
			filter:        domain.TransactionFilter{Status: "completed", Page: 2, Limit: 10},
			response:      `{"count":42,"results":[{"id":"t1"},{"id":"t2"}]}`,
			expectedQuery: "limit=10&page=2&status=completed",
			expectedTotal: 42,
			expectedItems: 2,
		},
		{
			name:          "bare array",
			filter:        domain.TransactionFilter{Type: "credit"},
			response:      `[{"id":"t1"}]`,
			expectedQuery: "type=credit",
			expectedTotal: 1,
			expectedItems: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/wallet/transactions/", r.URL.Path)
				assert.Equal(t, tt.expectedQuery, r.URL.RawQuery)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer srv.Close()

			c := NewClient(apiclient.New(apiclient.Options{BaseURL: srv.URL}))
			page, err := c.ListTransactions(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, page.Items, tt.expectedItems)
			assert.Equal(t, tt.expectedTotal, page.Total)
		})
	}
}
