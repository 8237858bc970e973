// internal/recommend/provider_test.go
package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPProviderRecommend(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Austin", r.URL.Query().Get("location"))
		assert.Equal(t, "cozy", r.URL.Query().Get("mood"))
		assert.Equal(t, "sekrit", r.URL.Query().Get("api_key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"restaurants":[
			{"name":"Cafe X","cuisine":"coffee","rating":4.6},
			{"name":"Taqueria Luz","price":"$$"}
		]}`))
	}))
	defer upstream.Close()

	p := &HTTPProvider{
		BaseURL: upstream.URL,
		APIKey:  "sekrit",
		Client:  upstream.Client(),
	}

	recs, err := p.Recommend(context.Background(), "Austin", "cozy")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Cafe X", recs[0].Name)
	assert.Equal(t, 4.6, recs[0].Rating)
	assert.Equal(t, "$$", recs[1].Price)
}

func TestHTTPProviderUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	p := &HTTPProvider{BaseURL: upstream.URL, Client: upstream.Client()}
	_, err := p.Recommend(context.Background(), "Austin", "cozy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestHTTPProviderContextCancel(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer upstream.Close()

	p := &HTTPProvider{BaseURL: upstream.URL, Client: upstream.Client()}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Recommend(ctx, "Austin", "cozy")
	assert.Error(t, err)
}

func TestCacheKeyNormalization(t *testing.T) {
	assert.Equal(t, cacheKey("austin", "cozy"), cacheKey("  Austin ", "COZY"))
	assert.NotEqual(t, cacheKey("Austin", "cozy"), cacheKey("Austin", "romantic"))
}
