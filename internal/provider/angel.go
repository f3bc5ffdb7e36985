package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pquerna/otp/totp"

	"signalscan/internal/model"
	"signalscan/internal/series"
)

const (
	angelRootURL   = "https://apiconnect.angelone.in"
	angelLoginPath = "/rest/auth/angelbroking/user/v1/loginByPassword"
	angelCandlePath = "/rest/secure/angelbroking/historical/v1/getCandleData"

	angelDateLayout = "2006-01-02 15:04"
)

// AngelConfig holds Angel One SmartAPI credentials. The TOTP secret is
// the base32 seed from the SmartAPI portal; codes are generated per
// login, never stored.
type AngelConfig struct {
	APIKey     string
	ClientCode string
	Password   string
	TOTPSecret string

	// Tokens maps trading symbols to Angel One symbol tokens
	// (e.g. "SBIN-EQ" → "3045"). Symbols without a token are skipped.
	Tokens map[string]string

	Timeout time.Duration // per-request, default 10s
}

// Angel fetches daily candles from Angel One SmartAPI. Sessions are
// created lazily on first use and renewed on auth failure.
type Angel struct {
	cfg    AngelConfig
	client *resty.Client

	mu  sync.Mutex
	jwt string
}

// NewAngel creates an Angel One provider.
func NewAngel(cfg AngelConfig) *Angel {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(angelRootURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-UserType", "USER").
		SetHeader("X-SourceID", "WEB").
		SetHeader("X-PrivateKey", cfg.APIKey)
	return &Angel{cfg: cfg, client: client}
}

type angelEnvelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		JWTToken string `json:"jwtToken"`
	} `json:"data"`
}

type angelCandles struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	// Rows are [timestamp, open, high, low, close, volume].
	Data [][]any `json:"data"`
}

// login generates a session with a fresh TOTP code and caches the JWT.
func (a *Angel) login(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.jwt != "" {
		return nil
	}

	code, err := totp.GenerateCode(a.cfg.TOTPSecret, time.Now())
	if err != nil {
		return fmt.Errorf("angel: totp: %w", err)
	}

	var out angelEnvelope
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"clientcode": a.cfg.ClientCode,
			"password":   a.cfg.Password,
			"totp":       code,
		}).
		SetResult(&out).
		Post(angelLoginPath)
	if err != nil {
		return fmt.Errorf("angel: login: %w", err)
	}
	if resp.IsError() || !out.Status || out.Data.JWTToken == "" {
		return fmt.Errorf("angel: login rejected: %s", out.Message)
	}

	a.jwt = out.Data.JWTToken
	return nil
}

// FetchDailyBars returns ONE_DAY candles for the trailing lookback.
func (a *Angel) FetchDailyBars(ctx context.Context, symbol string, lookback time.Duration) (model.Series, error) {
	token, ok := a.cfg.Tokens[symbol]
	if !ok {
		return nil, fmt.Errorf("angel: no symbol token for %q: %w", symbol, ErrNoData)
	}
	if err := a.login(ctx); err != nil {
		return nil, err
	}

	end := time.Now()
	start := end.Add(-lookback)

	var out angelCandles
	resp, err := a.client.R().
		SetContext(ctx).
		SetAuthToken(a.current()).
		SetBody(map[string]string{
			"exchange":    "NSE",
			"symboltoken": token,
			"interval":    "ONE_DAY",
			"fromdate":    start.Format(angelDateLayout),
			"todate":      end.Format(angelDateLayout),
		}).
		SetResult(&out).
		Post(angelCandlePath)
	if err != nil {
		return nil, fmt.Errorf("angel: candles %s: %w", symbol, err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		// Session expired — drop the JWT so the next call re-logs-in.
		a.mu.Lock()
		a.jwt = ""
		a.mu.Unlock()
		return nil, fmt.Errorf("angel: candles %s: session expired", symbol)
	}
	if resp.IsError() || !out.Status {
		return nil, fmt.Errorf("angel: candles %s: %s", symbol, out.Message)
	}
	if len(out.Data) == 0 {
		return nil, fmt.Errorf("angel: %s: %w", symbol, ErrNoData)
	}

	rows := make([]series.RawRow, 0, len(out.Data))
	for _, raw := range out.Data {
		row, err := parseCandleRow(raw)
		if err != nil {
			return nil, fmt.Errorf("angel: candles %s: %w", symbol, err)
		}
		rows = append(rows, row)
	}
	return series.Build(rows)
}

// FetchMetadata is partial for Angel One: the candle API carries no
// fundamentals, so only the symbol is returned and P/E renders as N/A.
func (a *Angel) FetchMetadata(_ context.Context, symbol string) (model.Metadata, error) {
	return model.Metadata{Symbol: symbol}, nil
}

func (a *Angel) current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.jwt
}

// parseCandleRow decodes one [timestamp, o, h, l, c, v] row.
func parseCandleRow(raw []any) (series.RawRow, error) {
	if len(raw) != 6 {
		return series.RawRow{}, fmt.Errorf("candle row has %d fields, want 6", len(raw))
	}
	ts, ok := raw[0].(string)
	if !ok {
		return series.RawRow{}, fmt.Errorf("candle timestamp is %T, want string", raw[0])
	}
	date, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return series.RawRow{}, fmt.Errorf("candle timestamp: %w", err)
	}

	vals := make([]*float64, 5)
	for i := 1; i < 6; i++ {
		if f, ok := raw[i].(float64); ok {
			vals[i-1] = fptr(f)
		}
	}
	return series.RawRow{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
