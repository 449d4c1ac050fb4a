package components

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPricesComponent_Change(t *testing.T) {
	p := NewPricesComponent(time.Minute)
	p.Update([]PriceRow{{Symbol: "SOL", USD: decimal.NewFromInt(100)}})
	p.Update([]PriceRow{{Symbol: "SOL", USD: decimal.NewFromInt(102)}})

	rows := p.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if got := rows[0].Change.StringFixed(2); got != "2.00" {
		t.Errorf("expected change 2.00, got %s", got)
	}
	if !strings.Contains(p.View(), "SOL") {
		t.Error("view should list SOL")
	}
}

func TestPricesComponent_Stale(t *testing.T) {
	p := NewPricesComponent(time.Second)
	p.Update([]PriceRow{{Symbol: "SOL", USD: decimal.NewFromInt(100), Age: time.Minute}})
	if !strings.Contains(p.View(), "stale") {
		t.Error("old price should be marked stale")
	}
}

func TestYieldsComponent_MarksCurrent(t *testing.T) {
	y := NewYieldsComponent("raydium:SOL-USDC")
	y.Update([]YieldRow{
		{Name: "orca:SOL-USDC", APY: decimal.RequireFromString("8.1")},
		{Name: "raydium:SOL-USDC", APY: decimal.RequireFromString("5.2")},
	})

	view := y.View()
	if !strings.Contains(view, "current") {
		t.Error("expected the current pool to be marked")
	}
	if strings.Index(view, "orca") > strings.Index(view, "raydium") {
		t.Error("rows should keep the given order")
	}
}

func TestOpportunitiesComponent(t *testing.T) {
	o := NewOpportunitiesComponent(3, 2)
	for _, id := range []string{"a", "b", "c", "d"} {
		o.Add(OpportunityRow{ID: id, Kind: "swap", Summary: "swap " + id})
	}

	if o.Len() != 3 {
		t.Fatalf("expected 3 rows kept, got %d", o.Len())
	}
	if strings.Contains(o.View(), "swap a") {
		t.Error("oldest row should have been dropped")
	}
	if !strings.Contains(o.View(), "1 more") {
		t.Error("expected a scroll hint")
	}

	if !o.SetStatus("c", "simulated", false) {
		t.Error("expected row c to be found")
	}
	if o.SetStatus("zzz", "simulated", false) {
		t.Error("unknown id must not match")
	}

	o.ScrollDown()
	o.ScrollDown()
	if !strings.Contains(o.View(), "swap b") {
		t.Error("scrolling down should reveal the last row")
	}
	o.ScrollUp()

	o.Clear()
	if o.Len() != 0 || !strings.Contains(o.View(), "No opportunities") {
		t.Error("expected an empty list after Clear")
	}
}

func TestStatusComponent_UpdateReplaces(t *testing.T) {
	s := NewStatusComponent()
	s.Update(ConnectionStatus{Name: "market:mock", Connected: true})
	s.Update(ConnectionStatus{Name: "chain:rpc", Connected: true, Latency: 40 * time.Millisecond})
	s.Update(ConnectionStatus{Name: "chain:rpc", Connected: false})

	conn, ok := s.Get("chain:rpc")
	if !ok || conn.Connected {
		t.Errorf("expected chain:rpc disconnected, got %+v", conn)
	}
	view := s.View()
	if strings.Index(view, "chain:rpc") > strings.Index(view, "market:mock") {
		t.Error("connections should be sorted by name")
	}
}

func TestStatsComponent(t *testing.T) {
	s := NewStatsComponent()
	s.Update(Stats{Cycles: 4, Opportunities: 7, Executions: 5, Abandoned: 2})
	if s.Stats().Cycles != 4 {
		t.Error("stats not stored")
	}
	if !strings.Contains(s.View(), "Abandoned") {
		t.Error("expected abandoned counter in view")
	}
}
