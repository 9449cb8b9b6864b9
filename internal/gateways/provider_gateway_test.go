package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestProvider_IsAvailable(t *testing.T) {
	client := &fasthttp.Client{}
	provider := NewProvider("test", "http://localhost:8080", 100, client)

	t.Run("healthy provider is available", func(t *testing.T) {
		provider.SetState(StateHealthy)
		assert.True(t, provider.IsAvailable())
	})

	t.Run("unhealthy provider is not available", func(t *testing.T) {
		provider.SetState(StateUnhealthy)
		assert.False(t, provider.IsAvailable())
	})

	t.Run("circuit closes again after the timeout", func(t *testing.T) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(-1 * time.Second).Unix())
		assert.True(t, provider.IsAvailable())
		assert.Equal(t, StateHealthy, provider.GetState())
	})

	t.Run("open circuit rejects before the timeout", func(t *testing.T) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(10 * time.Second).Unix())
		assert.False(t, provider.IsAvailable())
	})
}

func TestProvider_Score(t *testing.T) {
	client := &fasthttp.Client{}

	t.Run("unavailable provider has zero score", func(t *testing.T) {
		provider := NewProvider("test", "http://localhost:8080", 100, client)
		provider.SetState(StateUnhealthy)
		assert.Equal(t, 0.0, provider.Score())
	})

	t.Run("failures lower the score", func(t *testing.T) {
		healthy := NewProvider("healthy", "http://localhost:8080", 50, client)
		flaky := NewProvider("flaky", "http://localhost:8081", 50, client)

		for i := 0; i < 10; i++ {
			healthy.recordSuccess()
		}
		for i := 0; i < 5; i++ {
			flaky.recordSuccess()
		}
		for i := 0; i < 5; i++ {
			flaky.recordFailure()
		}

		assert.Greater(t, healthy.Score(), flaky.Score())
	})

	t.Run("success resets the consecutive failure penalty", func(t *testing.T) {
		provider := NewProvider("test", "http://localhost:8080", 50, client)
		for i := 0; i < 5; i++ {
			provider.recordFailure()
		}
		penalized := provider.Score()
		provider.recordSuccess()
		assert.Greater(t, provider.Score(), penalized)
	})
}

func TestClient_SelectBestProvider(t *testing.T) {
	config := &Config{
		Providers: []ProviderConfig{
			{Name: "primary", URL: "http://localhost:8080", Weight: 100},
			{Name: "secondary", URL: "http://localhost:8081", Weight: 50},
		},
		Timeout:                 time.Second,
		MaxRetries:              2,
		RetryDelay:              10 * time.Millisecond,
		HealthCheckInterval:     time.Hour,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   time.Minute,
	}
	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	t.Run("prefers the heavier weight when equally healthy", func(t *testing.T) {
		best, err := client.SelectBestProvider()
		require.NoError(t, err)
		assert.Equal(t, "primary", best.name)
	})

	t.Run("falls over when the best is unavailable", func(t *testing.T) {
		client.providers[0].SetState(StateUnhealthy)
		defer client.providers[0].SetState(StateHealthy)

		best, err := client.SelectBestProvider()
		require.NoError(t, err)
		assert.Equal(t, "secondary", best.name)
	})

	t.Run("errors when nothing is available", func(t *testing.T) {
		for _, p := range client.providers {
			p.SetState(StateUnhealthy)
		}
		defer func() {
			for _, p := range client.providers {
				p.SetState(StateHealthy)
			}
		}()

		_, err := client.SelectBestProvider()
		assert.ErrorIs(t, err, ErrNoAvailableProviders)
	})
}

func TestClient_CircuitBreaker(t *testing.T) {
	config := &Config{
		Providers:               []ProviderConfig{{Name: "only", URL: "http://localhost:8080", Weight: 100}},
		Timeout:                 time.Second,
		HealthCheckInterval:     time.Hour,
		CircuitBreakerThreshold: 3,
		CircuitBreakerTimeout:   time.Minute,
	}
	client, err := NewClient(config)
	require.NoError(t, err)
	defer client.Close()

	provider := client.providers[0]
	for i := 0; i < 3; i++ {
		provider.recordFailure()
	}
	client.checkCircuitBreaker(provider)

	assert.Equal(t, StateCircuitOpen, provider.GetState())
	assert.False(t, provider.IsAvailable())
}

func TestNewClient_Validation(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})

	t.Run("no providers", func(t *testing.T) {
		_, err := NewClient(&Config{})
		assert.Error(t, err)
	})
}

func TestDeliverRequest_Payload(t *testing.T) {
	req := DeliverRequest{
		ReceiptID:     "42",
		AccountNumber: "ACC123",
		Amount:        decimal.RequireFromString("200.00"),
		NewDue:        decimal.RequireFromString("300.00"),
		PaidAt:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	var decoded DeliverRequest
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "ACC123", decoded.AccountNumber)
	assert.True(t, decoded.Amount.Equal(req.Amount))
}
