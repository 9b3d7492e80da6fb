package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"spyglass/internal/logger"
	"spyglass/internal/market"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Source 通过 Yahoo Finance chart 接口拉取指数/股票日线，实现 market.Source。
// 指数代码形如 "^SPX"、"^VIX"。
type Source struct {
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL     string
	HTTPTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
	return c
}

func New(cfg Config) *Source {
	final := cfg.withDefaults()
	return &Source{
		baseURL:    final.BaseURL,
		httpClient: &http.Client{Timeout: final.HTTPTimeout},
	}
}

// chart 接口的响应结构（只取用到的字段）。
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (s *Source) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	if interval == "" {
		interval = "1d"
	}
	if limit <= 0 {
		limit = 100
	}
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&range=%s",
		s.baseURL, url.PathEscape(symbol), url.QueryEscape(interval), rangeFor(interval, limit))
	logger.Debugf("[yahoo] REST %s", u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "spyglass/1.0")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: yahoo chart %s: %v", market.ErrDataUnavailable, symbol, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: yahoo chart %s: %s", market.ErrDataUnavailable, symbol, resp.Status)
	}
	var body chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: yahoo chart %s: decode: %v", market.ErrDataUnavailable, symbol, err)
	}
	if body.Chart.Error != nil {
		return nil, fmt.Errorf("%w: yahoo chart %s: %s", market.ErrDataUnavailable, symbol, body.Chart.Error.Description)
	}
	if len(body.Chart.Result) == 0 || len(body.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: yahoo chart %s: empty result", market.ErrDataUnavailable, symbol)
	}
	result := body.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	// chart 接口偶发返回长短不一的数组，按最短列截断。
	n := len(result.Timestamp)
	for _, col := range [][]float64{quote.Open, quote.High, quote.Low, quote.Close, quote.Volume} {
		if len(col) < n {
			n = len(col)
		}
	}

	out := make([]market.Candle, 0, n)
	for i := 0; i < n; i++ {
		ts := result.Timestamp[i]
		// 休市/停牌行可能缺价，跳过而非补零。
		if quote.Close[i] == 0 {
			continue
		}
		out = append(out, market.Candle{
			OpenTime:  ts * 1000,
			CloseTime: ts * 1000,
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return market.Normalize(out), nil
}

func (s *Source) Close() error { return nil }

// rangeFor 把期望根数换算成 chart 接口的 range 参数（只对日线精细化）。
func rangeFor(interval string, limit int) string {
	if interval != "1d" {
		return "3mo"
	}
	switch {
	case limit <= 22:
		return "1mo"
	case limit <= 66:
		return "3mo"
	case limit <= 126:
		return "6mo"
	case limit <= 252:
		return "1y"
	case limit <= 504:
		return "2y"
	default:
		return "5y"
	}
}
