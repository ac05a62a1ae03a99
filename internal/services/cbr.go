package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

const cbrDailyURL = "https://www.cbr.ru/scripts/XML_daily.asp"

const cbrAttempts = 3

// CBRProvider reads the Bank of Russia daily rate table. The feed needs no
// API key and quotes rubles per Nominal units of each currency.
type CBRProvider struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCBRProvider creates a provider against the production CBR endpoint.
func NewCBRProvider(logger *zap.Logger) *CBRProvider {
	return NewCBRProviderWithURL(cbrDailyURL, logger)
}

// NewCBRProviderWithURL creates a provider against a custom endpoint, used
// by tests.
func NewCBRProviderWithURL(url string, logger *zap.Logger) *CBRProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CBRProvider{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

type cbrValCurs struct {
	XMLName xml.Name    `xml:"ValCurs"`
	Date    string      `xml:"Date,attr"`
	Valutes []cbrValute `xml:"Valute"`
}

type cbrValute struct {
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Value    string `xml:"Value"`
}

// FetchRates returns rubles per one unit for each requested currency.
// Currencies absent from the table are simply missing from the result. The
// fetch retries up to three times with a linearly growing delay.
func (p *CBRProvider) FetchRates(ctx context.Context, currencies []string) (map[string]decimal.Decimal, error) {
	if len(currencies) == 0 {
		return map[string]decimal.Decimal{}, nil
	}
	wanted := make(map[string]struct{}, len(currencies))
	for _, c := range currencies {
		wanted[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	var lastErr error
	for attempt := 1; attempt <= cbrAttempts; attempt++ {
		rates, err := p.fetchOnce(ctx, wanted)
		if err == nil {
			return rates, nil
		}
		lastErr = err
		p.logger.Warn("cbr fetch failed",
			zap.Int("attempt", attempt), zap.Error(err))
		if attempt < cbrAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	return nil, fmt.Errorf("failed to fetch cbr rates: %w", lastErr)
}

func (p *CBRProvider) fetchOnce(ctx context.Context, wanted map[string]struct{}) (map[string]decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cbr returned status %d", resp.StatusCode)
	}

	var doc cbrValCurs
	decoder := xml.NewDecoder(resp.Body)
	decoder.CharsetReader = cbrCharsetReader
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse cbr xml: %w", err)
	}

	rates := make(map[string]decimal.Decimal)
	for _, v := range doc.Valutes {
		code := strings.ToUpper(strings.TrimSpace(v.CharCode))
		if code == "" {
			continue
		}
		if _, ok := wanted[code]; !ok {
			continue
		}
		nominal, err := strconv.Atoi(strings.TrimSpace(v.Nominal))
		if err != nil || nominal <= 0 {
			nominal = 1
		}
		value, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(v.Value), ",", "."))
		if err != nil || !value.IsPositive() {
			continue
		}
		// Quoted per Nominal units, stored per single unit.
		rates[code] = value.Div(decimal.NewFromInt(int64(nominal)))
	}
	return rates, nil
}

// The daily feed is served in windows-1251.
func cbrCharsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	case "", "utf-8":
		return input, nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", charset)
	}
}
