package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"novel-planner/pkg/tracer"
)

const maxBodyBytes = 8 << 20

// FetcherConfig 出站请求配置
type FetcherConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	UserAgent         string
}

// Fetcher 带限流与超时的 HTTP GET 客户端，由各数据源共享
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
}

// NewFetcher 创建 Fetcher
func NewFetcher(cfg FetcherConfig) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		userAgent: cfg.UserAgent,
	}
}

// Get 获取 URL 内容，非 2xx 响应视为错误
func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "market.fetch")
	defer span.End()

	if err := f.limiter.Wait(ctx); err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("request %s: unexpected status %d", url, resp.StatusCode)
		tracer.RecordError(span, err)
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		tracer.RecordError(span, err)
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
