package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shivamprakash2909/loan-app/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

var ErrNoAvailableProviders = errors.New("no available providers")

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "DELIVERED"
	StatusFailed    DeliveryStatus = "FAILED"
)

// DeliverRequest is the receipt payload pushed to a notification
// provider after a payment commits.
type DeliverRequest struct {
	ReceiptID     string          `json:"receipt_id"`
	AccountNumber string          `json:"account_number"`
	Amount        decimal.Decimal `json:"amount"`
	NewDue        decimal.Decimal `json:"new_due"`
	PaidAt        time.Time       `json:"paid_at"`
}

type DeliverResponse struct {
	ReceiptID   string         `json:"receipt_id"`
	Status      DeliveryStatus `json:"status"`
	ProviderID  string         `json:"provider_id"`
	ErrorCode   string         `json:"error_code,omitempty"`
	ErrorMsg    string         `json:"error_message,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

type ProviderState int32

const (
	StateHealthy ProviderState = iota
	StateUnhealthy
	StateCircuitOpen
)

// Provider is one notification endpoint. All counters are atomics so
// the delivery path never takes a lock.
type Provider struct {
	name             string
	url              string
	client           *fasthttp.Client
	weight           int32
	totalReqs        atomic.Int64
	successfulReqs   atomic.Int64
	consecutiveFails atomic.Int32
	state            atomic.Int32
	circuitOpenUntil atomic.Int64
}

func NewProvider(name, url string, weight int, client *fasthttp.Client) *Provider {
	p := &Provider{
		name:   name,
		url:    url,
		client: client,
		weight: int32(weight),
	}
	p.state.Store(int32(StateHealthy))
	return p
}

func (p *Provider) GetState() ProviderState {
	return ProviderState(p.state.Load())
}

func (p *Provider) SetState(state ProviderState) {
	p.state.Store(int32(state))
}

func (p *Provider) IsAvailable() bool {
	state := p.GetState()
	if state == StateCircuitOpen {
		if time.Now().Unix() > p.circuitOpenUntil.Load() {
			// Half-open: let one request through and see.
			p.SetState(StateHealthy)
			return true
		}
		return false
	}
	return state != StateUnhealthy
}

func (p *Provider) successRate() float64 {
	total := p.totalReqs.Load()
	if total == 0 {
		return 1.0
	}
	return float64(p.successfulReqs.Load()) / float64(total)
}

// Score ranks providers for selection, higher is better. Recent
// consecutive failures drag the score down faster than the overall
// success rate does.
func (p *Provider) Score() float64 {
	if !p.IsAvailable() {
		return 0
	}
	penalty := 1.0 - float64(p.consecutiveFails.Load())*0.1
	if penalty < 0.1 {
		penalty = 0.1
	}
	return (p.successRate()*100 + float64(p.weight)) * penalty
}

func (p *Provider) recordSuccess() {
	p.totalReqs.Add(1)
	p.successfulReqs.Add(1)
	p.consecutiveFails.Store(0)
}

func (p *Provider) recordFailure() {
	p.totalReqs.Add(1)
	p.consecutiveFails.Add(1)
}

type ProviderConfig struct {
	Name   string
	URL    string
	Weight int
}

type Config struct {
	Providers               []ProviderConfig
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	HealthCheckInterval     time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// Client delivers payment receipts to external notification providers.
// It retries across providers, picking the best-scoring one each
// attempt, and opens a circuit per provider after repeated failures.
type Client struct {
	config    *Config
	providers []*Provider
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if len(config.Providers) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	client := &Client{
		config:    config,
		providers: make([]*Provider, 0, len(config.Providers)),
		stopCh:    make(chan struct{}),
	}

	for _, pc := range config.Providers {
		httpClient := &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		}
		client.providers = append(client.providers, NewProvider(pc.Name, pc.URL, pc.Weight, httpClient))
		logger.Info("provider initialized", "name", pc.Name, "url", pc.URL, "weight", pc.Weight)
	}

	client.wg.Add(1)
	go client.healthChecker()

	return client, nil
}

func (c *Client) SelectBestProvider() (*Provider, error) {
	var best *Provider
	var bestScore float64

	for _, provider := range c.providers {
		if !provider.IsAvailable() {
			continue
		}
		if score := provider.Score(); score > bestScore {
			bestScore = score
			best = provider
		}
	}
	if best == nil {
		return nil, ErrNoAvailableProviders
	}
	return best, nil
}

// Deliver pushes one receipt, retrying across providers on failure.
func (c *Client) Deliver(ctx context.Context, req *DeliverRequest) (*DeliverResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal receipt: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		provider, err := c.SelectBestProvider()
		if err != nil {
			lastErr = err
			continue
		}

		response, err := c.doRequest(ctx, provider, "POST", "/api/v1/receipts", reqBody)
		if err != nil {
			provider.recordFailure()
			c.checkCircuitBreaker(provider)
			logger.Warn("receipt delivery failed, retrying",
				"error", err, "provider", provider.name, "attempt", attempt+1)
			lastErr = err
			continue
		}
		provider.recordSuccess()

		var resp DeliverResponse
		if err := json.Unmarshal(response, &resp); err != nil {
			return nil, fmt.Errorf("unmarshal response: %w", err)
		}
		logger.Info("receipt delivered",
			"receipt_id", req.ReceiptID, "status", string(resp.Status), "provider", provider.name)
		return &resp, nil
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, provider *Provider, method, path string, body []byte) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(provider.url + path)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := provider.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", statusCode, resp.Body())
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

func (c *Client) checkCircuitBreaker(provider *Provider) {
	fails := provider.consecutiveFails.Load()
	if fails >= int32(c.config.CircuitBreakerThreshold) {
		provider.SetState(StateCircuitOpen)
		provider.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).Unix())
		logger.Warn("circuit breaker opened",
			"provider", provider.name, "consecutive_fails", fails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

func (c *Client) healthChecker() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.performHealthChecks()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Client) performHealthChecks() {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	for _, provider := range c.providers {
		if provider.GetState() == StateCircuitOpen {
			continue
		}
		healthy := c.checkProviderHealth(ctx, provider)

		oldState := provider.GetState()
		newState := oldState
		if healthy {
			newState = StateHealthy
		} else {
			newState = StateUnhealthy
		}
		if newState != oldState {
			provider.SetState(newState)
			logger.Info("provider state changed",
				"provider", provider.name, "healthy", healthy)
		}
	}
}

func (c *Client) checkProviderHealth(ctx context.Context, provider *Provider) bool {
	response, err := c.doRequest(ctx, provider, "GET", "/health", nil)
	if err != nil {
		return false
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(response, &health); err != nil {
		return false
	}
	return health.Status == "healthy" || health.Status == "ok"
}

// ProviderStats is a point-in-time snapshot for diagnostics.
type ProviderStats struct {
	Name             string
	URL              string
	State            ProviderState
	Score            float64
	TotalRequests    int64
	SuccessfulReqs   int64
	ConsecutiveFails int32
}

func (c *Client) GetProviderStats() []ProviderStats {
	stats := make([]ProviderStats, 0, len(c.providers))
	for _, provider := range c.providers {
		stats = append(stats, ProviderStats{
			Name:             provider.name,
			URL:              provider.url,
			State:            provider.GetState(),
			Score:            provider.Score(),
			TotalRequests:    provider.totalReqs.Load(),
			SuccessfulReqs:   provider.successfulReqs.Load(),
			ConsecutiveFails: provider.consecutiveFails.Load(),
		})
	}
	return stats
}

func (c *Client) Close() error {
	close(c.stopCh)
	c.wg.Wait()
	return nil
}
