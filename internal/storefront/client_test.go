package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minhng/pricewatch/pkg/retry"
)

func testRetryConfig() retry.Config {
	return retry.Config{MaxRetries: 0, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Timeout: time.Second}
}

func TestPriceBySKU(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "ck_test", user)
		assert.Equal(t, "cs_test", pass)
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "1600A00F6U", r.URL.Query().Get("sku"))

		json.NewEncoder(w).Encode([]Product{{ID: 17, SKU: "1600A00F6U", RegularPrice: "95000"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "ck_test", "cs_test", testRetryConfig())
	obs := client.PriceBySKU(context.Background(), "1600A00F6U")

	assert.True(t, obs.Found)
	assert.Equal(t, 95000, obs.Value)
}

func TestPriceBySKU_EmptySKU(t *testing.T) {
	client := NewClient("https://shop.example.com", "k", "s", testRetryConfig())
	obs := client.PriceBySKU(context.Background(), " ")

	assert.False(t, obs.Found)
	assert.Equal(t, 0, obs.Value)
}

func TestPriceBySKU_NoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s", testRetryConfig())
	obs := client.PriceBySKU(context.Background(), "MISSING")

	assert.False(t, obs.Found)
	assert.Equal(t, 0, obs.Value)
}

func TestPriceBySKU_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s", testRetryConfig())
	obs := client.PriceBySKU(context.Background(), "SKU-1")

	assert.False(t, obs.Found)
	assert.Error(t, obs.Err)
}

func TestPriceBySKU_DuplicateSKUsUseFirstMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Product{
			{ID: 1, RegularPrice: "100000"},
			{ID: 2, RegularPrice: "200000"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s", testRetryConfig())
	obs := client.PriceBySKU(context.Background(), "DUP")

	assert.True(t, obs.Found)
	assert.Equal(t, 100000, obs.Value)
}

func TestUpdatePriceBySKU(t *testing.T) {
	var gotPayload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/products":
			json.NewEncoder(w).Encode([]Product{{ID: 42, RegularPrice: "95000"}})
		case r.Method == http.MethodPut && r.URL.Path == "/products/42":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
			json.NewEncoder(w).Encode(Product{ID: 42, RegularPrice: gotPayload["regular_price"]})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s", testRetryConfig())
	ok := client.UpdatePriceBySKU(context.Background(), "SKU-42", 90000)

	assert.True(t, ok)
	assert.Equal(t, "90000", gotPayload["regular_price"])
	assert.Equal(t, "90000", gotPayload["price"])
}

func TestUpdatePriceBySKU_Idempotent(t *testing.T) {
	updates := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			updates++
		}
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]Product{{ID: 7}})
			return
		}
		json.NewEncoder(w).Encode(Product{ID: 7, RegularPrice: "90000"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "k", "s", testRetryConfig())
	assert.True(t, client.UpdatePriceBySKU(context.Background(), "SKU-7", 90000))
	assert.True(t, client.UpdatePriceBySKU(context.Background(), "SKU-7", 90000))
	assert.Equal(t, 2, updates)
}

func TestUpdatePriceBySKU_FailurePaths(t *testing.T) {
	// missing configuration
	unconfigured := NewClient("", "", "", testRetryConfig())
	assert.False(t, unconfigured.UpdatePriceBySKU(context.Background(), "SKU-1", 1000))

	// unknown sku
	emptyResult := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer emptyResult.Close()
	client := NewClient(emptyResult.URL, "k", "s", testRetryConfig())
	assert.False(t, client.UpdatePriceBySKU(context.Background(), "UNKNOWN", 1000))

	// update rejected
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode([]Product{{ID: 9}})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer rejecting.Close()
	client = NewClient(rejecting.URL, "k", "s", testRetryConfig())
	assert.False(t, client.UpdatePriceBySKU(context.Background(), "SKU-9", 1000))
}

func TestSearchProducts_RetriesTransientFailures(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode([]Product{{ID: 3, RegularPrice: "50000"}})
	}))
	defer server.Close()

	cfg := retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Timeout: time.Second}
	client := NewClient(server.URL, "k", "s", cfg)

	products, err := client.SearchProducts(context.Background(), "SKU-3")
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 2, attempts)
}
