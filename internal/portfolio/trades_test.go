package portfolio

import (
	"encoding/json"
	"testing"
)

func TestAggregateTradesAmountPriority(t *testing.T) {
	trades := []TradeRecord{
		// Explicit total wins over everything else.
		{BondID: IdentOf("1"), TotalAmount: N(1000), BuyPrice: N(999), BuyQty: N(999)},
		// Explicit amount next.
		{BondID: IdentOf("1"), Amount: N(500)},
		// Derived: price*qty + accrued.
		{BondID: IdentOf("1"), BuyPrice: N(100), BuyQty: N(2), BuyAccrued: N(3)},
	}
	agg := AggregateTrades(trades)["1"]
	if agg == nil {
		t.Fatal("missing aggregate")
	}
	if agg.Amount != 1000+500+203 {
		t.Errorf("amount = %v, want 1703", agg.Amount)
	}
}

func TestAggregateTradesSignedQuantity(t *testing.T) {
	trades := []TradeRecord{
		{BondID: IdentOf("7"), BuyQty: N(10)},
		{BondID: IdentOf("7"), SellQty: N(4)},
		{BondID: IdentOf("7"), Qty: N(1)},
		{BondID: IdentOf("7"), BuyQty: N(2), SellQty: N(1)},
	}
	agg := AggregateTrades(trades)["7"]
	if q, _ := agg.Qty.Float(); q != 10-4+1+2-1 {
		t.Errorf("qty = %v, want 8", q)
	}
}

func TestAggregateTradesLastValueWins(t *testing.T) {
	trades := []TradeRecord{
		{BondID: IdentOf("2"), LastPrice: N(101), Currency: "USD", Symbol: "$"},
		{BondID: IdentOf("2"), Price: N(99)},
		{BondID: IdentOf("2")}, // no price/currency: previous values stay
	}
	agg := AggregateTrades(trades)["2"]
	if p, _ := agg.LastPrice.Float(); p != 99 {
		t.Errorf("last price = %v, want 99", p)
	}
	if agg.Currency != "USD" || agg.Symbol != "$" {
		t.Errorf("currency/symbol = %q/%q", agg.Currency, agg.Symbol)
	}
}

func TestAggregateTradesIDResolution(t *testing.T) {
	trades := []TradeRecord{
		{Bond: &RelatedBond{ID: IdentOf("11"), Currency: "CNY", Symbol: "¥"}, BuyQty: N(1)},
		{BondIDAlt: IdentOf("12"), BuyQty: N(2)},
		{ID: IdentOf("13"), BuyQty: N(3)},
		{}, // no id at all: skipped
	}
	got := AggregateTrades(trades)
	if len(got) != 3 {
		t.Fatalf("aggregated %d bonds, want 3", len(got))
	}
	if got["11"].Currency != "CNY" || got["11"].Symbol != "¥" {
		t.Errorf("nested bond currency not picked up: %+v", got["11"])
	}
}

func TestAggregateTradesMalformedJSON(t *testing.T) {
	payload := `[
		{"bond_id": 5, "buy_price": "1 000,50", "buy_qty": "2", "buy_nkd": null},
		{"bond_id": 5, "buy_qty": "not a number"},
		{"bond_id": null}
	]`
	var trades []TradeRecord
	if err := json.Unmarshal([]byte(payload), &trades); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	agg := AggregateTrades(trades)
	if len(agg) != 1 {
		t.Fatalf("aggregated %d bonds, want 1", len(agg))
	}
	if agg["5"].Amount != 2001 {
		t.Errorf("amount = %v, want 2001", agg["5"].Amount)
	}
	if q, _ := agg["5"].Qty.Float(); q != 2 {
		t.Errorf("qty = %v, want 2", q)
	}
}
