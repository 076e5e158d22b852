package shopping

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piaxe-console/internal/domain"
	"piaxe-console/internal/service/apiclient"
)

func TestClient_Products(t *testing.T) {
	var stockBody map[string]int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/shopping/products/":
			assert.Equal(t, "s1", r.URL.Query().Get("store_id"))
			_, _ = w.Write([]byte(`{"results":[{"id":"p1","store_id":"s1","name":"Mug","price":"9.99","stock":3}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/shopping/products/":
			_, _ = w.Write([]byte(`{"id":"p2","store_id":"s1","name":"Cap","price":"5.00"}`))
		case r.Method == http.MethodPatch && r.URL.Path == "/shopping/products/p1/stock/":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&stockBody))
			_, _ = w.Write([]byte(`{"id":"p1","stock":7}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(apiclient.New(apiclient.Options{BaseURL: srv.URL}))
	ctx := context.Background()

	products, err := c.ListProducts(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Mug", products[0].Name)

	p, err := c.CreateProduct(ctx, domain.CreateProductRequest{StoreID: "s1", Name: "Cap", Price: "5.00"})
	require.NoError(t, err)
	assert.Equal(t, "p2", p.ID)

	p, err = c.UpdateStock(ctx, "p1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)
	assert.Equal(t, map[string]int{"stock": 7}, stockBody)

	_, err = c.UpdateStock(ctx, "p1", -1)
	assert.Error(t, err)
}
