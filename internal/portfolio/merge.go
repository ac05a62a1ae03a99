package portfolio

import (
	"math"
	"sort"
)

// BondRecord is a tracked bond as delivered by the bonds API, with the
// alias fields different backends use for pre-supplied values and
// quantities. Metadata fields (coupon, rating, maturity) pass through to
// the merged view untouched; valuation never reads them.
type BondRecord struct {
	ID      Ident  `json:"id"`
	SecID   string `json:"secid,omitempty"`
	ISIN    string `json:"isin,omitempty"`
	Name    string `json:"name,omitempty"`
	Emitent string `json:"emitent,omitempty"`

	Currency string `json:"currency,omitempty"`
	Symbol   string `json:"currency_symbol,omitempty"`

	LastPrice   Number `json:"last_price"`
	Price       Number `json:"price,omitempty"`
	MarketPrice Number `json:"market_price,omitempty"`

	// Pre-supplied absolute value aliases, in resolution order.
	MarketValue   Number `json:"market_value,omitempty"`
	PositionValue Number `json:"position_value,omitempty"`
	NominalValue  Number `json:"nominal_value,omitempty"`
	Amount        Number `json:"amount,omitempty"`
	Value         Number `json:"value,omitempty"`
	Position      Number `json:"position,omitempty"`
	Sum           Number `json:"sum,omitempty"`
	TotalValue    Number `json:"total_value,omitempty"`
	Amt           Number `json:"amt,omitempty"`

	// Quantity aliases.
	TotalQty Number `json:"total_qty,omitempty"`
	Qty      Number `json:"qty,omitempty"`
	Quantity Number `json:"quantity,omitempty"`
	HeldQty  Number `json:"held_qty,omitempty"`

	// Display metadata, opaque to the pipeline.
	Coupon        Number `json:"coupon,omitempty"`
	CouponDisplay string `json:"coupon_display,omitempty"`
	CouponType    string `json:"coupon_type,omitempty"`
	YTM           Number `json:"ytm,omitempty"`
	Rating        string `json:"rating,omitempty"`
	MaturityDate  string `json:"maturity_date,omitempty"`
	OfferDate     string `json:"offer_date,omitempty"`
	Amortization  bool   `json:"amortization,omitempty"`
	LastBuyPrice  Number `json:"last_buy_price,omitempty"`
	DayOpen       Number `json:"day_open,omitempty"`
	WeekOpen      Number `json:"week_open,omitempty"`
	MonthOpen     Number `json:"month_open,omitempty"`
	YearOpen      Number `json:"year_open,omitempty"`
}

// WeightHint is a per-bond record from the weights endpoint: an optional
// pre-supplied absolute value (under one of several accepted names), an
// optional explicit weight, and optional currency metadata.
type WeightHint struct {
	ID Ident `json:"id"`

	// Absolute value aliases, in resolution order.
	BondValue   Number `json:"bond_value"`
	Value       Number `json:"value"`
	Amount      Number `json:"amount"`
	Total       Number `json:"total"`
	TotalValue  Number `json:"total_value"`
	MarketValue Number `json:"market_value"`
	Sum         Number `json:"sum"`
	Amt         Number `json:"amt"`

	// Quantity aliases, used only as a qty fallback for the bond.
	Qty      Number `json:"qty"`
	TotalQty Number `json:"total_qty"`
	Quantity Number `json:"quantity"`

	WeightPercent Number `json:"weight_percent"`
	Weight        Number `json:"weight"`
	ValueInRub    Number `json:"abs_value_in_rub"`

	Currency     string `json:"currency"`
	CurrencyCode string `json:"currency_code"`
	Symbol       string `json:"currency_symbol"`
}

// PositionRecord is a per-bond position from the positions endpoint.
type PositionRecord struct {
	Qty       Number `json:"qty"`
	Quantity  Number `json:"quantity"`
	TotalQty  Number `json:"total_qty"`
	Position  Number `json:"position"`
	HeldQty   Number `json:"held_qty"`
	LastPrice Number `json:"last_price"`
	Price     Number `json:"price"`
	Amount    Number `json:"amount"`
}

// Value-source tags recorded on the merged view for diagnostics.
const (
	SourceWeightHint    = "weight_hint"
	SourceBondValue     = "bond_value"
	SourcePositionDeriv = "position.qty*price"
	SourcePositionAmt   = "position.amount"
	SourceBondDerived   = "bond.qty*last_price"
	SourceTradesDerived = "trades.qty*price"
	SourceTradesAmount  = "trades.amount"
	SourceForcedTrades  = "forced.trades_qty*price"
)

// MergedBond is the displayable output row: the bond enriched with its
// resolved native value, ruble value, portfolio weight and display strings.
type MergedBond struct {
	BondRecord

	AbsValue    Number `json:"abs_value"`
	AbsCurrency string `json:"abs_currency,omitempty"`
	ValueInRub  Number `json:"abs_value_in_rub"`
	Weight      Number `json:"weight"`
	FxRate      Number `json:"fx_rate"`

	DisplayCurrency  string `json:"display_currency,omitempty"`
	DisplaySymbol    string `json:"display_symbol,omitempty"`
	WeightDisplay    string `json:"weight_display"`
	WeightAbsDisplay string `json:"weight_abs_display"`

	ValueSource string `json:"value_source,omitempty"`
}

// ComputeMergedBonds merges raw bonds, weight hints, trade aggregates and
// positions with the FX table into displayable rows. It is pure: every call
// with the same inputs yields the same output, and nothing is mutated.
//
// Per bond the native value is resolved through a fixed priority chain
// (hint value, bond value, position, bond qty*price, trade aggregate),
// then a second unconditional pass recomputes the value from the trade
// aggregate's quantity and the freshest price whenever that aggregate
// exists: a stale pre-supplied value must not outlive a live position.
//
// The weight denominator sums only values that actually converted to
// rubles; bonds without a usable FX rate get no weight and do not distort
// the others.
func ComputeMergedBonds(
	bonds []BondRecord,
	hints []WeightHint,
	rates RateTable,
	positions map[string]PositionRecord,
	trades map[string]*TradeAggregate,
) []MergedBond {
	hintByID := make(map[string]*WeightHint, len(hints))
	for i := range hints {
		if k := hints[i].ID.Key(); k != "" {
			if _, dup := hintByID[k]; !dup {
				hintByID[k] = &hints[i]
			}
		}
	}

	// Duplicate bond ids: first occurrence wins.
	seen := make(map[string]struct{}, len(bonds))
	prepared := make([]*mergeState, 0, len(bonds))
	for i := range bonds {
		b := &bonds[i]
		key := b.ID.Key()
		if key == "" {
			key = b.SecID
		}
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		prepared = append(prepared, resolveValue(b, key, hintByID[key], positions, trades))
	}

	// Hard force: a trade aggregate with a quantity and a resolvable price
	// always rewrites the value, even over an explicit hint.
	for _, p := range prepared {
		agg := trades[p.key]
		if agg == nil || !agg.Qty.Valid() {
			continue
		}
		price := p.bond.LastPrice.Or(p.bond.Price, agg.LastPrice)
		if bp, ok := price.Float(); ok {
			qty, _ := agg.Qty.Float()
			p.absValue = N(qty * bp)
			p.source = SourceForcedTrades
		}
	}

	// Portfolio total over successful conversions only.
	var total float64
	for _, p := range prepared {
		if rub, ok := rates.ToReporting(p.absValue, p.currency).Float(); ok {
			total += rub
		}
	}

	out := make([]MergedBond, 0, len(prepared))
	for _, p := range prepared {
		rub := rates.ToReporting(p.absValue, p.currency)
		weight := resolveWeight(p.hint, rub, total)

		fx := N(1)
		if !IsReportingCurrency(p.bond.Currency) {
			if r, ok := rates.Lookup(p.bond.Currency); ok {
				fx = N(r)
			}
		}

		symbol := p.symbol
		if symbol == "" {
			symbol = CurrencySymbols[NormalizeCurrency(p.currency)]
		}

		m := MergedBond{
			BondRecord:      *p.bond,
			AbsValue:        p.absValue,
			AbsCurrency:     p.currency,
			ValueInRub:      rub,
			Weight:          weight,
			FxRate:          fx,
			DisplayCurrency: displayCurrency(p.currency),
			DisplaySymbol:   symbol,
			WeightDisplay:   FormatPercent(weight),
			ValueSource:     p.source,
		}
		if m.AbsValue.Valid() {
			m.WeightAbsDisplay = "(" + FormatMoney(m.AbsValue, p.symbol, p.currency) + ")"
		}
		out = append(out, m)
	}
	return out
}

type mergeState struct {
	bond     *BondRecord
	hint     *WeightHint
	key      string
	absValue Number
	currency string
	symbol   string
	source   string
}

// resolveValue walks the priority chain for a single bond's native value.
func resolveValue(
	b *BondRecord,
	key string,
	hint *WeightHint,
	positions map[string]PositionRecord,
	trades map[string]*TradeAggregate,
) *mergeState {
	st := &mergeState{bond: b, hint: hint, key: key}

	// 1. Pre-supplied value on the weight hint.
	if hint != nil {
		if v := hint.BondValue.Or(hint.Value, hint.Amount, hint.Total, hint.TotalValue,
			hint.MarketValue, hint.Sum, hint.Amt); v.Valid() {
			st.absValue = v
			st.source = SourceWeightHint
		}
	}

	// 2. Pre-supplied value on the bond itself (quantity doubles as a last
	// alias when no monetary field exists).
	if !st.absValue.Valid() {
		if v := b.MarketValue.Or(b.PositionValue, b.NominalValue, b.Amount, b.Value,
			b.Position, b.Sum, b.TotalValue, b.Amt, b.Qty, b.Quantity); v.Valid() {
			st.absValue = v
			st.source = SourceBondValue
		}
	}

	// 3. Position record: qty*price, else its explicit amount.
	if !st.absValue.Valid() {
		if pos, ok := positions[key]; ok {
			qty := pos.Qty.Or(pos.Quantity, pos.TotalQty, pos.Position, pos.HeldQty)
			price := pos.LastPrice.Or(pos.Price, b.LastPrice)
			if q, okQ := qty.Float(); okQ {
				if pr, okP := price.Float(); okP {
					st.absValue = N(q * pr)
					st.source = SourcePositionDeriv
				}
			}
			if !st.absValue.Valid() && pos.Amount.Valid() {
				st.absValue = pos.Amount
				st.source = SourcePositionAmt
			}
		}
	}

	// 4. Bond's own quantity times last price, hint quantities as fallback.
	if !st.absValue.Valid() {
		qty := b.TotalQty.Or(b.Qty, b.Quantity, b.Position, b.HeldQty)
		if !qty.Valid() && hint != nil {
			qty = hint.Qty.Or(hint.TotalQty, hint.Quantity)
		}
		price := b.LastPrice.Or(b.Price)
		if q, okQ := qty.Float(); okQ {
			if pr, okP := price.Float(); okP {
				st.absValue = N(q * pr)
				st.source = SourceBondDerived
			}
		}
	}

	// 5. Trade aggregate: qty times the bond's price (preferred over the
	// aggregate's own), else the accumulated amount.
	if agg := trades[key]; agg != nil && !st.absValue.Valid() {
		price := b.LastPrice.Or(b.Price, b.MarketPrice, agg.LastPrice)
		if q, okQ := agg.Qty.Float(); okQ {
			if pr, okP := price.Float(); okP {
				st.absValue = N(q * pr)
				st.source = SourceTradesDerived
			}
		}
		if !st.absValue.Valid() {
			st.absValue = N(agg.Amount)
			st.source = SourceTradesAmount
		}
	}

	// Currency follows the value source: hint currency only when the hint
	// supplied the value.
	cur := b.Currency
	if st.source == SourceWeightHint && hint != nil {
		if hint.Currency != "" {
			cur = hint.Currency
		} else if hint.CurrencyCode != "" {
			cur = hint.CurrencyCode
		}
	}
	st.currency = NormalizeCurrency(cur)
	st.symbol = b.Symbol
	if st.symbol == "" && hint != nil {
		st.symbol = hint.Symbol
	}
	return st
}

// resolveWeight computes the weight percentage for one bond. An explicit
// hint percentage always wins; a hint-supplied ruble value derives one; the
// computed ruble value is the normal path; a bare legacy "weight" field is
// accepted last, and only when it already looks like a percentage.
func resolveWeight(hint *WeightHint, rub Number, total float64) Number {
	if hint != nil && hint.WeightPercent.Valid() {
		return round6(hint.WeightPercent)
	}
	if hint != nil && hint.ValueInRub.Valid() {
		if total > 0 {
			v, _ := hint.ValueInRub.Float()
			return round6(N(v / total * 100))
		}
		return Number{}
	}
	if v, ok := rub.Float(); ok && total > 0 {
		return round6(N(v / total * 100))
	}
	if hint != nil {
		if w, ok := hint.Weight.Float(); ok && w > 0 && w <= 100 {
			return round6(N(w))
		}
	}
	return Number{}
}

func round6(n Number) Number {
	v, ok := n.Float()
	if !ok {
		return n
	}
	return N(math.Round(v*1e6) / 1e6)
}

func displayCurrency(cur string) string {
	if cur == "" {
		return CurrencySUR
	}
	return cur
}

// SortMerged orders rows by descending weight. Rows without a weight fall
// back to their ruble value, then native value, then whatever number the
// display string yields; absent keys sort as zero.
func SortMerged(merged []MergedBond) {
	sort.SliceStable(merged, func(i, j int) bool {
		return sortKey(&merged[i]) > sortKey(&merged[j])
	})
}

func sortKey(m *MergedBond) float64 {
	if v, ok := m.Weight.Float(); ok {
		return v
	}
	if v, ok := m.ValueInRub.Float(); ok {
		return v
	}
	if v, ok := m.AbsValue.Float(); ok {
		return v
	}
	if v, ok := ParseNumber(m.WeightAbsDisplay).Float(); ok {
		return v
	}
	return 0
}
