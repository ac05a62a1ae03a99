package portfolio

// TradeRecord is a single buy/sell trade as delivered by the trades API.
// Field availability varies between sources, so every numeric field is a
// Number and the bond reference may be flat or nested.
type TradeRecord struct {
	BondID      Ident        `json:"bond_id"`
	Bond        *RelatedBond `json:"bond,omitempty"`
	BondIDAlt   Ident        `json:"bondId"`
	ID          Ident        `json:"id"`
	TotalAmount Number       `json:"total_amount"`
	Amount      Number       `json:"amount"`
	BuyPrice    Number       `json:"buy_price"`
	SellPrice   Number       `json:"sell_price"`
	Price       Number       `json:"price"`
	BuyQty      Number       `json:"buy_qty"`
	SellQty     Number       `json:"sell_qty"`
	Qty         Number       `json:"qty"`
	BuyAccrued  Number       `json:"buy_nkd"`
	SellAccrued Number       `json:"sell_nkd"`
	LastPrice   Number       `json:"last_price"`
	Currency    string       `json:"currency"`
	Symbol      string       `json:"currency_symbol"`
}

// RelatedBond is the nested bond object some trade payloads embed.
type RelatedBond struct {
	ID       Ident  `json:"id"`
	Currency string `json:"currency"`
	Symbol   string `json:"currency_symbol"`
}

// TradeAggregate is the per-bond fold of all trade records: signed running
// quantity (buys add, sells subtract), accumulated monetary amount, and the
// most recent price/currency seen.
type TradeAggregate struct {
	Amount    float64 `json:"amount"`
	Qty       Number  `json:"qty"`
	LastPrice Number  `json:"last_price"`
	Currency  string  `json:"currency"`
	Symbol    string  `json:"currency_symbol"`
}

// bondKey resolves the bond identifier of a trade, trying the direct field,
// the nested bond, the camel-cased alternate, and finally the generic id.
func (t *TradeRecord) bondKey() string {
	if !t.BondID.Empty() {
		return t.BondID.Key()
	}
	if t.Bond != nil && !t.Bond.ID.Empty() {
		return t.Bond.ID.Key()
	}
	if !t.BondIDAlt.Empty() {
		return t.BondIDAlt.Key()
	}
	return t.ID.Key()
}

// AggregateTrades folds a flat trade list into per-bond aggregates keyed by
// bond identifier. Trades without a resolvable bond id are skipped. Numeric
// fields that are missing or unparseable contribute nothing; the fold never
// fails.
func AggregateTrades(trades []TradeRecord) map[string]*TradeAggregate {
	out := make(map[string]*TradeAggregate, len(trades))
	for i := range trades {
		t := &trades[i]
		key := t.bondKey()
		if key == "" {
			continue
		}
		agg, ok := out[key]
		if !ok {
			agg = &TradeAggregate{Qty: N(0)}
			out[key] = agg
		}

		// Amount: explicit total wins, then explicit amount, then
		// price*qty plus accrued interest. First match only, no double
		// counting.
		if total, ok := t.TotalAmount.Float(); ok {
			agg.Amount += total
		} else if amount, ok := t.Amount.Float(); ok {
			agg.Amount += amount
		} else if price, ok := t.BuyPrice.Or(t.SellPrice, t.Price).Float(); ok {
			qty, _ := t.BuyQty.Or(t.SellQty, t.Qty).Float()
			accrued, _ := t.BuyAccrued.Or(t.SellAccrued).Float()
			agg.Amount += price*qty + accrued
		}

		// Quantity is a signed position delta.
		qty, _ := agg.Qty.Float()
		if buy, ok := t.BuyQty.Float(); ok {
			qty += buy
		} else if q, ok := t.Qty.Float(); ok {
			qty += q
		}
		if sell, ok := t.SellQty.Float(); ok {
			qty -= sell
		}
		agg.Qty = N(qty)

		// Latest trade wins for price and currency.
		if p := t.LastPrice.Or(t.Price); p.Valid() {
			agg.LastPrice = p
		}
		cur := t.Currency
		if cur == "" && t.Bond != nil {
			cur = t.Bond.Currency
		}
		if cur != "" {
			agg.Currency = cur
		}
		sym := t.Symbol
		if sym == "" && t.Bond != nil {
			sym = t.Bond.Symbol
		}
		if sym != "" {
			agg.Symbol = sym
		}
	}
	return out
}
