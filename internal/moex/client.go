package moex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://iss.moex.com/iss"

// Bond markets searched in order. A paper lives on exactly one of them but
// the ISS API gives no way to ask which, so lookups walk the list.
var Markets = []string{
	"bonds",
	"corporate_bonds",
	"municipal_bonds",
	"subfederal_bonds",
	"ofz",
}

// Client talks to the Moscow Exchange ISS API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an ISS client with the production base URL.
func NewClient(logger *zap.Logger) *Client {
	return NewClientWithBaseURL(defaultBaseURL, logger)
}

// NewClientWithBaseURL creates an ISS client against a custom endpoint,
// used by tests to point at a local server.
func NewClientWithBaseURL(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// table is one block of an ISS response: parallel column names and rows of
// loosely typed cells.
type table struct {
	Columns []string        `json:"columns"`
	Data    [][]interface{} `json:"data"`
}

func (t *table) index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[c] = i
	}
	return idx
}

// cellFloat converts an ISS cell to a float. Cells come back as numbers,
// numeric strings or null depending on the board.
func cellFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", "."), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}

// firstNumeric scans rows for the first usable non-zero value among the
// candidate columns, in candidate order.
func firstNumeric(tbl *table, candidates []string) (float64, bool) {
	idx := tbl.index()
	for _, name := range candidates {
		col, ok := idx[name]
		if !ok {
			continue
		}
		for _, row := range tbl.Data {
			if col >= len(row) {
				continue
			}
			if f, ok := cellFloat(row[col]); ok && f != 0 {
				return f, true
			}
		}
	}
	return 0, false
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Path: path, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// StatusError is a non-200 ISS reply.
type StatusError struct {
	Path string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("iss returned status %d for %s", e.Code, e.Path)
}

// SecurityInfo is one search hit from the bond markets.
type SecurityInfo struct {
	SecID        string   `json:"secid"`
	ISIN         string   `json:"isin"`
	Name         string   `json:"name"`
	Emitent      string   `json:"emitent"`
	Market       string   `json:"market"`
	Coupon       float64  `json:"coupon"`
	MaturityDate string   `json:"maturity_date,omitempty"`
	OfferDate    string   `json:"offer_date,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Amortization bool     `json:"amortization"`
	FaceValue    *float64 `json:"face_value,omitempty"`
}

const searchPageSize = 5000

// Search walks every bond market page by page and returns securities whose
// name, issuer, ISIN or SECID contains the query (case-insensitive). An
// empty query returns everything. Duplicate SECIDs keep the first market's
// row.
func (c *Client) Search(ctx context.Context, query string) ([]SecurityInfo, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	seen := make(map[string]struct{})
	var results []SecurityInfo

	for _, market := range Markets {
		start := 0
		for {
			var payload struct {
				Securities table `json:"securities"`
			}
			params := url.Values{
				"limit":    {strconv.Itoa(searchPageSize)},
				"start":    {strconv.Itoa(start)},
				"iss.meta": {"off"},
				"iss.only": {"securities"},
			}
			path := fmt.Sprintf("/engines/stock/markets/%s/securities.json", market)
			if err := c.getJSON(ctx, path, params, &payload); err != nil {
				return nil, err
			}
			rows := payload.Securities.Data
			if len(rows) == 0 {
				break
			}
			idx := payload.Securities.index()
			for _, row := range rows {
				sec := parseSearchRow(row, idx, market)
				if sec.SecID == "" {
					continue
				}
				blob := strings.ToLower(strings.Join([]string{
					sec.Emitent, sec.Name, sec.ISIN, sec.SecID,
				}, " "))
				if q != "" && !strings.Contains(blob, q) {
					continue
				}
				if _, dup := seen[sec.SecID]; dup {
					continue
				}
				seen[sec.SecID] = struct{}{}
				results = append(results, sec)
			}
			if len(rows) < searchPageSize {
				break
			}
			start += searchPageSize
		}
	}
	c.logger.Debug("bond search finished",
		zap.String("query", query), zap.Int("hits", len(results)))
	return results, nil
}

func parseSearchRow(row []interface{}, idx map[string]int, market string) SecurityInfo {
	cell := func(name string) interface{} {
		if i, ok := idx[name]; ok && i < len(row) {
			return row[i]
		}
		return nil
	}
	sec := SecurityInfo{
		SecID:   cellString(cell("SECID")),
		ISIN:    cellString(cell("ISIN")),
		Emitent: cellString(cell("emitent_title")),
		Market:  market,
	}
	sec.Name = cellString(cell("SHORTNAME"))
	if sec.Name == "" {
		sec.Name = cellString(cell("SECNAME"))
	}
	if f, ok := cellFloat(cell("COUPONPERCENT")); ok {
		sec.Coupon = f
	}
	sec.MaturityDate = cellString(cell("MATURITYDATE"))
	sec.OfferDate = cellString(cell("OFFERDATE"))
	sec.Currency = cellString(cell("FACEUNIT"))
	if f, ok := cellFloat(cell("FACEVALUE")); ok && f > 0 {
		sec.FaceValue = &f
	}
	if a, ok := cellFloat(cell("AMORTIZATION")); ok {
		sec.Amortization = a != 0
	}
	return sec
}

// SecurityDetail is the merged securities+marketdata record for one paper.
// Raw holds every column keyed by name; the typed fields are the ones the
// service layer consumes. LastPriceAbs is converted from the exchange's
// percent-of-face quote.
type SecurityDetail struct {
	SecID        string
	ISIN         string
	Name         string
	FaceValue    float64
	FaceUnit     string
	LastPriceAbs *float64
	Raw          map[string]interface{}
}

// Float reads a raw column as a number.
func (d *SecurityDetail) Float(name string) (float64, bool) {
	return cellFloat(d.Raw[name])
}

// String reads a raw column as text.
func (d *SecurityDetail) String(name string) string {
	return cellString(d.Raw[name])
}

// Security fetches one paper, trying each bond market in turn and falling
// back to the ISIN search endpoint.
func (c *Client) Security(ctx context.Context, secidOrISIN string) (*SecurityDetail, error) {
	id := strings.ToUpper(strings.TrimSpace(secidOrISIN))
	if id == "" {
		return nil, fmt.Errorf("empty security id")
	}

	for _, market := range Markets {
		var payload struct {
			Securities table `json:"securities"`
			Marketdata table `json:"marketdata"`
		}
		path := fmt.Sprintf("/engines/stock/markets/%s/securities/%s.json", market, id)
		err := c.getJSON(ctx, path, url.Values{"iss.meta": {"off"}}, &payload)
		if err != nil {
			// 404 means wrong market, anything else is worth a note
			// before trying the next one.
			var se *StatusError
			if !errors.As(err, &se) || se.Code != http.StatusNotFound {
				c.logger.Debug("security lookup failed", zap.String("market", market), zap.Error(err))
			}
			continue
		}
		if det := buildDetail(&payload.Securities, &payload.Marketdata); det != nil {
			return det, nil
		}
	}

	// ISIN fallback on the flat securities endpoint.
	var payload struct {
		Securities table `json:"securities"`
	}
	params := url.Values{"isin": {id}, "iss.meta": {"off"}}
	if err := c.getJSON(ctx, "/securities.json", params, &payload); err != nil {
		return nil, fmt.Errorf("security %s not found: %w", id, err)
	}
	if det := buildDetail(&payload.Securities, nil); det != nil {
		return det, nil
	}
	return nil, fmt.Errorf("security %s not found", id)
}

func buildDetail(sec, md *table) *SecurityDetail {
	if sec == nil || len(sec.Data) == 0 {
		return nil
	}
	raw := make(map[string]interface{})
	idx := sec.index()
	first := sec.Data[0]
	for name, i := range idx {
		if i < len(first) {
			raw[name] = first[i]
		}
	}
	if md != nil && len(md.Data) > 0 {
		mdIdx := md.index()
		mdFirst := md.Data[0]
		for name, i := range mdIdx {
			if i < len(mdFirst) {
				raw[name] = mdFirst[i]
			}
		}
	}

	det := &SecurityDetail{
		SecID:    cellString(raw["SECID"]),
		ISIN:     cellString(raw["ISIN"]),
		FaceUnit: cellString(raw["FACEUNIT"]),
		Raw:      raw,
	}
	det.Name = cellString(raw["SHORTNAME"])
	if det.Name == "" {
		det.Name = cellString(raw["SECNAME"])
	}
	if det.SecID == "" && det.ISIN == "" {
		return nil
	}

	face := 1000.0
	if f, ok := cellFloat(raw["FACEVALUE"]); ok && f > 0 {
		face = f
	}
	det.FaceValue = face
	if last, ok := cellFloat(raw["LAST"]); ok && last != 0 {
		abs := last * face / 100.0
		det.LastPriceAbs = &abs
	}
	return det
}

// LastPrice computes a bond's absolute last price: face value times the
// first usable percent quote (LAST and friends from marketdata, PREVPRICE
// from securities as fallback), rounded to 6 decimals. Returns false when
// no quote is available.
func (c *Client) LastPrice(ctx context.Context, secid string) (float64, bool, error) {
	var payload struct {
		Securities table `json:"securities"`
		Marketdata table `json:"marketdata"`
	}
	path := fmt.Sprintf("/engines/stock/markets/bonds/securities/%s.json", secid)
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return 0, false, err
	}

	face, ok := firstNumeric(&payload.Securities,
		[]string{"FACEVALUE", "FACE", "FACEVALUEONSETTLEDATE", "LOTVALUE"})
	if !ok || face <= 0 {
		return 0, false, nil
	}
	pct, ok := firstNumeric(&payload.Marketdata,
		[]string{"LAST", "LASTPRICE", "LASTTRADE", "LCUR", "LASTVALUE"})
	if !ok {
		pct, ok = firstNumeric(&payload.Securities, []string{"PREVPRICE"})
	}
	if !ok {
		return 0, false, nil
	}
	return math.Round(pct*face/100.0*1e6) / 1e6, true, nil
}

// CouponEvent is one scheduled coupon payment from the bondization feed.
type CouponEvent struct {
	Date     time.Time
	Value    *float64
	Currency string
	IsPast   bool
}

// Coupons returns a bond's coupon schedule from a year back onward, sorted
// by date. Rows without a parsable date are skipped; a missing value stays
// nil (floaters publish amounts late).
func (c *Client) Coupons(ctx context.Context, secid string) ([]CouponEvent, error) {
	var payload struct {
		Coupons table `json:"coupons"`
	}
	path := fmt.Sprintf("/securities/%s/bondization.json", secid)
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return nil, err
	}

	idx := payload.Coupons.index()
	today := time.Now().Truncate(24 * time.Hour)
	yearAgo := today.AddDate(-1, 0, 0)

	var events []CouponEvent
	for _, row := range payload.Coupons.Data {
		cell := func(name string) interface{} {
			if i, ok := idx[name]; ok && i < len(row) {
				return row[i]
			}
			return nil
		}
		d, err := time.Parse("2006-01-02", cellString(cell("coupondate")))
		if err != nil {
			continue
		}
		if d.Before(yearAgo) {
			continue
		}
		ev := CouponEvent{
			Date:     d,
			Currency: cellString(cell("currencyid")),
			IsPast:   !d.After(today),
		}
		if ev.Currency == "" {
			ev.Currency = cellString(cell("faceunit"))
		}
		if v, ok := cellFloat(cell("value")); ok {
			ev.Value = &v
		}
		events = append(events, ev)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// PricePoint is one daily close from the bond history feed.
type PricePoint struct {
	Date  time.Time
	Close float64
}

// PriceHistory returns daily closes for a bond over the date range. Rows
// with no close are skipped.
func (c *Client) PriceHistory(ctx context.Context, secid string, from, till time.Time) ([]PricePoint, error) {
	params := url.Values{"iss.meta": {"off"}}
	if !from.IsZero() {
		params.Set("from", from.Format("2006-01-02"))
	}
	if !till.IsZero() {
		params.Set("till", till.Format("2006-01-02"))
	}
	var payload struct {
		History table `json:"history"`
	}
	path := fmt.Sprintf("/history/engines/stock/markets/bonds/securities/%s.json", secid)
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, err
	}

	idx := payload.History.index()
	var points []PricePoint
	for _, row := range payload.History.Data {
		cell := func(name string) interface{} {
			if i, ok := idx[name]; ok && i < len(row) {
				return row[i]
			}
			return nil
		}
		d, err := time.Parse("2006-01-02", cellString(cell("TRADEDATE")))
		if err != nil {
			continue
		}
		if f, ok := cellFloat(cell("CLOSE")); ok {
			points = append(points, PricePoint{Date: d, Close: f})
		}
	}
	return points, nil
}

// FirstOpen returns the absolute open price of the first trading session
// in the date range, used for the day/week/month/year open columns. False
// when the range has no session or no open.
func (c *Client) FirstOpen(ctx context.Context, secid string, from, till time.Time) (float64, bool, error) {
	points, err := c.historyOpens(ctx, secid, from, till)
	if err != nil || len(points) == 0 {
		return 0, false, err
	}
	return points[0].Close, true, nil
}

func (c *Client) historyOpens(ctx context.Context, secid string, from, till time.Time) ([]PricePoint, error) {
	params := url.Values{
		"iss.meta": {"off"},
		"from":     {from.Format("2006-01-02")},
		"till":     {till.Format("2006-01-02")},
	}
	var payload struct {
		History table `json:"history"`
	}
	path := fmt.Sprintf("/history/engines/stock/markets/bonds/securities/%s.json", secid)
	if err := c.getJSON(ctx, path, params, &payload); err != nil {
		return nil, err
	}

	idx := payload.History.index()
	openCol := -1
	for _, name := range []string{"OPEN", "OPENVAL", "OPEN_PRICE"} {
		if i, ok := idx[name]; ok {
			openCol = i
			break
		}
	}
	if openCol < 0 {
		return nil, nil
	}
	faceCol, hasFace := idx["FACEVALUE"]

	var points []PricePoint
	for _, row := range payload.History.Data {
		if openCol >= len(row) {
			continue
		}
		pct, ok := cellFloat(row[openCol])
		if !ok || pct == 0 {
			continue
		}
		face := 1000.0
		if hasFace && faceCol < len(row) {
			if f, fok := cellFloat(row[faceCol]); fok && f > 0 {
				face = f
			}
		}
		var d time.Time
		if i, ok := idx["TRADEDATE"]; ok && i < len(row) {
			d, _ = time.Parse("2006-01-02", cellString(row[i]))
		}
		points = append(points, PricePoint{Date: d, Close: math.Round(pct*face/100.0*1e6) / 1e6})
	}
	return points, nil
}

const indexPageSize = 100

// IndexHistory returns daily closes of a stock index (RGBI and friends)
// over the date range, following the ISS cursor through every page. Days
// are deduplicated (first row wins) and the result is date-ascending.
func (c *Client) IndexHistory(ctx context.Context, indexSecID string, from, till time.Time) ([]PricePoint, error) {
	seen := make(map[string]struct{})
	var points []PricePoint

	start := 0
	for {
		params := url.Values{
			"iss.meta": {"off"},
			"start":    {strconv.Itoa(start)},
			"limit":    {strconv.Itoa(indexPageSize)},
		}
		if !from.IsZero() {
			params.Set("from", from.Format("2006-01-02"))
		}
		if !till.IsZero() {
			params.Set("till", till.Format("2006-01-02"))
		}
		var payload struct {
			History table `json:"history"`
			Cursor  table `json:"history.cursor"`
		}
		path := fmt.Sprintf("/history/engines/stock/markets/index/boards/SNDX/securities/%s.json", indexSecID)
		if err := c.getJSON(ctx, path, params, &payload); err != nil {
			return nil, err
		}

		idx := payload.History.index()
		for _, row := range payload.History.Data {
			cell := func(name string) interface{} {
				if i, ok := idx[name]; ok && i < len(row) {
					return row[i]
				}
				return nil
			}
			ds := cellString(cell("TRADEDATE"))
			d, err := time.Parse("2006-01-02", ds)
			if err != nil {
				continue
			}
			if _, dup := seen[ds]; dup {
				continue
			}
			if f, ok := cellFloat(cell("CLOSE")); ok {
				seen[ds] = struct{}{}
				points = append(points, PricePoint{Date: d, Close: f})
			}
		}

		total := cursorTotal(&payload.Cursor)
		start += indexPageSize
		if total <= 0 || start >= total || len(payload.History.Data) == 0 {
			break
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

func cursorTotal(cur *table) int {
	if cur == nil || len(cur.Data) == 0 {
		return 0
	}
	idx := cur.index()
	i, ok := idx["TOTAL"]
	if !ok || i >= len(cur.Data[0]) {
		return 0
	}
	if f, ok := cellFloat(cur.Data[0][i]); ok {
		return int(f)
	}
	return 0
}
