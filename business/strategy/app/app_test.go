package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chainDomain "github.com/fd1az/defi-optimizer/business/chain/domain"
	marketDomain "github.com/fd1az/defi-optimizer/business/market/domain"
	quotingDomain "github.com/fd1az/defi-optimizer/business/quoting/domain"
	"github.com/fd1az/defi-optimizer/business/strategy/domain"
	walletDomain "github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
	"github.com/fd1az/defi-optimizer/internal/asset"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

// infoLogger keeps Info records as msg -> key/value pairs.
type infoLogger struct {
	mockLogger
	mu      sync.Mutex
	records map[string]map[string]any
}

func (l *infoLogger) Info(ctx context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.records == nil {
		l.records = make(map[string]map[string]any)
	}
	kv := make(map[string]any)
	for i := 0; i+1 < len(args); i += 2 {
		if k, ok := args[i].(string); ok {
			kv[k] = args[i+1]
		}
	}
	l.records[msg] = kv
}

const ownerAddress = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"

type stubQuotes struct {
	venues  []string
	outs    map[string]uint64
	errs    map[string]error
	payload string

	mu     sync.Mutex
	builds int
}

func (s *stubQuotes) Primary() string  { return s.venues[0] }
func (s *stubQuotes) Venues() []string { return s.venues }

func (s *stubQuotes) Quote(ctx context.Context, venue string, req quotingDomain.QuoteRequest) (*quotingDomain.Quote, error) {
	if err := s.errs[venue]; err != nil {
		return nil, err
	}
	out, ok := s.outs[venue]
	if !ok {
		return nil, nil
	}
	outAmt := asset.NewAmountFromUint64(req.Output, out)
	return &quotingDomain.Quote{
		Venue:                venue,
		Input:                req.Input,
		Output:               req.Output,
		InAmount:             req.Amount,
		OutAmount:            outAmt,
		OtherAmountThreshold: quotingDomain.MinimumOut(outAmt, req.SlippageBps),
		SlippageBps:          req.SlippageBps,
	}, nil
}

func (s *stubQuotes) BuildSwap(ctx context.Context, q *quotingDomain.Quote, owner solana.PublicKey) (*quotingDomain.SwapTransaction, error) {
	s.mu.Lock()
	s.builds++
	s.mu.Unlock()
	return &quotingDomain.SwapTransaction{
		SwapTransaction:           s.payload,
		LastValidBlockHeight:      100000000,
		PrioritizationFeeLamports: 1000,
	}, nil
}

type stubMarket struct {
	pools []marketDomain.YieldPool
	err   error
	// drift is added to every APY on each read, like a live feed.
	drift decimal.Decimal
	reads int
}

func (s *stubMarket) FeedSource() string { return "mock" }

func (s *stubMarket) Prices(ctx context.Context) []marketDomain.TokenPrice {
	return []marketDomain.TokenPrice{{Asset: asset.SOL, USD: decimal.NewFromInt(172), Timestamp: time.Now(), Source: "mock"}}
}

func (s *stubMarket) Pools(ctx context.Context) ([]marketDomain.YieldPool, error) {
	s.reads++
	if s.drift.IsZero() {
		return s.pools, s.err
	}
	out := make([]marketDomain.YieldPool, len(s.pools))
	for i, p := range s.pools {
		p.APY = p.APY.Add(s.drift.Mul(decimal.NewFromInt(int64(s.reads))))
		out[i] = p
	}
	return out, s.err
}

type stubWallet struct {
	address    bool
	balance    decimal.Decimal
	broadcasts int
}

func (s *stubWallet) HasAddress() bool { return s.address }

func (s *stubWallet) Owner() (solana.PublicKey, error) {
	if !s.address {
		return solana.PublicKey{}, apperror.Precondition(apperror.CodeWalletAddressMissing, "no address")
	}
	return solana.MustPublicKeyFromBase58(ownerAddress), nil
}

func (s *stubWallet) RequireBalance(ctx context.Context, amount decimal.Decimal) error {
	if s.balance.LessThan(amount) {
		return apperror.Precondition(apperror.CodeInsufficientBalance, amount.String())
	}
	return nil
}

func (s *stubWallet) Broadcast(ctx context.Context, payload string) (walletDomain.TxHash, error) {
	s.broadcasts++
	return "mocked_transaction_hash_12345", nil
}

type stubChain struct{}

func (stubChain) Status() chainDomain.Status {
	return chainDomain.Status{Source: "mock", State: chainDomain.StateConnected}
}

type recordingReporter struct {
	mu         sync.Mutex
	started    bool
	stopped    bool
	cycles     []*domain.CycleReport
	opps       []*domain.Opportunity
	results    []*domain.ExecutionResult
	prices     int
	yields     int
	lastPools  []marketDomain.YieldPool
	conns      map[string]bool
	cycleCount chan struct{}
}

func newRecordingReporter() *recordingReporter {
	return &recordingReporter{conns: map[string]bool{}, cycleCount: make(chan struct{}, 16)}
}

func (r *recordingReporter) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = true
	return nil
}

func (r *recordingReporter) ReportCycle(report *domain.CycleReport, stats domain.Stats) {
	r.mu.Lock()
	r.cycles = append(r.cycles, report)
	r.mu.Unlock()
	select {
	case r.cycleCount <- struct{}{}:
	default:
	}
}

func (r *recordingReporter) ReportOpportunity(opp *domain.Opportunity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.opps = append(r.opps, opp)
}

func (r *recordingReporter) ReportExecution(opp *domain.Opportunity, res *domain.ExecutionResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recordingReporter) UpdatePrices(prices []marketDomain.TokenPrice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prices++
}

func (r *recordingReporter) UpdateYields(pools []marketDomain.YieldPool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.yields++
	r.lastPools = pools
}

func (r *recordingReporter) UpdateConnectionStatus(name string, connected bool, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[name] = connected
}

func (r *recordingReporter) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	return nil
}

func pools(apys ...string) []marketDomain.YieldPool {
	names := []string{"raydium:SOL-USDC", "orca:SOL-USDC", "marinade:mSOL", "meteora:SOL-USDT"}
	out := make([]marketDomain.YieldPool, len(apys))
	for i, apy := range apys {
		out[i] = marketDomain.NewYieldPool(names[i], decimal.RequireFromString(apy), time.Now())
	}
	return out
}

func detectorConfig(modes ...domain.Kind) DetectorConfig {
	return DetectorConfig{
		Modes:        modes,
		Input:        asset.SOL,
		Output:       asset.USDC,
		TradeAmount:  decimal.RequireFromString("0.1"),
		SlippageBps:  100,
		MinProfitPct: decimal.RequireFromString("0.1"),
		CurrentPool:  "raydium:SOL-USDC",
		MinAPYDiff:   decimal.RequireFromString("2.0"),
	}
}

func newDetector(t *testing.T, cfg DetectorConfig, q *stubQuotes, m *stubMarket) *Detector {
	t.Helper()
	d, err := NewDetector(cfg, q, m, &mockLogger{})
	require.NoError(t, err)
	return d
}

func TestNewDetector_RejectsBadConfig(t *testing.T) {
	cfg := detectorConfig(domain.KindSwap)
	cfg.TradeAmount = decimal.Zero
	_, err := NewDetector(cfg, &stubQuotes{}, &stubMarket{}, &mockLogger{})
	assert.Error(t, err)

	cfg = detectorConfig("sniping")
	_, err = NewDetector(cfg, &stubQuotes{}, &stubMarket{}, &mockLogger{})
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownOpportunityKind))
}

func TestDetector_Swap(t *testing.T) {
	q := &stubQuotes{venues: []string{"jupiter", "raydium"}, outs: map[string]uint64{"jupiter": 17_200_000}}
	d := newDetector(t, detectorConfig(domain.KindSwap), q, &stubMarket{})

	opps := d.Detect(context.Background())
	require.Len(t, opps, 1)
	assert.Equal(t, domain.KindSwap, opps[0].Kind)
	assert.Equal(t, "jupiter", opps[0].Quote.Venue)
	assert.Equal(t, "0.1", opps[0].Quote.InAmount.ToDecimal().String())
}

func TestDetector_SwapWithoutRoute(t *testing.T) {
	q := &stubQuotes{venues: []string{"jupiter"}, outs: map[string]uint64{}}
	d := newDetector(t, detectorConfig(domain.KindSwap), q, &stubMarket{})
	assert.Empty(t, d.Detect(context.Background()))
}

func TestDetector_ArbitragePicksLargerOutput(t *testing.T) {
	q := &stubQuotes{
		venues: []string{"jupiter", "raydium"},
		outs:   map[string]uint64{"jupiter": 17_000_000, "raydium": 17_300_000},
	}
	d := newDetector(t, detectorConfig(domain.KindArbitrage), q, &stubMarket{})

	opps := d.Detect(context.Background())
	require.Len(t, opps, 1)
	assert.Equal(t, "raydium", opps[0].Best.Venue)
	assert.Equal(t, "jupiter", opps[0].Alternative.Venue)
	assert.Equal(t, "0.3", opps[0].Profit.String())
}

func TestDetector_ArbitrageBelowThreshold(t *testing.T) {
	q := &stubQuotes{
		venues: []string{"jupiter", "raydium"},
		outs:   map[string]uint64{"jupiter": 17_000_000, "raydium": 17_001_000},
	}
	d := newDetector(t, detectorConfig(domain.KindArbitrage), q, &stubMarket{})
	assert.Empty(t, d.Detect(context.Background()))
}

func TestDetector_ArbitrageVenueErrorIsSkipped(t *testing.T) {
	q := &stubQuotes{
		venues: []string{"jupiter", "raydium"},
		outs:   map[string]uint64{"raydium": 17_300_000},
		errs:   map[string]error{"jupiter": errors.New("timeout")},
	}
	d := newDetector(t, detectorConfig(domain.KindArbitrage, domain.KindSwap), q, &stubMarket{})
	assert.Empty(t, d.Detect(context.Background()))
}

func TestDetector_Yield(t *testing.T) {
	tests := []struct {
		name   string
		pools  []marketDomain.YieldPool
		wantTo string
	}{
		{"better pool above threshold", pools("5.0", "8.5", "6.0"), "orca:SOL-USDC"},
		{"gap exactly at threshold", pools("5.0", "7.0"), ""},
		{"current pool is best", pools("12.0", "4.0", "3.0"), ""},
		{"current pool only", pools("5.0"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDetector(t, detectorConfig(domain.KindYield), &stubQuotes{}, &stubMarket{pools: tt.pools})
			opps := d.Detect(context.Background())
			if tt.wantTo == "" {
				assert.Empty(t, opps)
				return
			}
			require.Len(t, opps, 1)
			assert.Equal(t, "raydium:SOL-USDC", opps[0].From.Name)
			assert.Equal(t, tt.wantTo, opps[0].To.Name)
		})
	}
}

func TestDetector_YieldUnknownCurrentPool(t *testing.T) {
	cfg := detectorConfig(domain.KindYield)
	cfg.CurrentPool = "nowhere"
	d := newDetector(t, cfg, &stubQuotes{}, &stubMarket{pools: pools("5.0", "9.0")})
	assert.Empty(t, d.Detect(context.Background()))
}

func newExecutor(t *testing.T, simulate bool, q *stubQuotes, w *stubWallet) *Executor {
	t.Helper()
	e, err := NewExecutor(ExecutorConfig{SimulateBroadcast: simulate}, q, w, &mockLogger{})
	require.NoError(t, err)
	return e
}

func swapOpportunity(t *testing.T, q *stubQuotes) *domain.Opportunity {
	t.Helper()
	req, err := quotingDomain.NewQuoteRequest(asset.SOL, asset.USDC, decimal.RequireFromString("0.1"), 100)
	require.NoError(t, err)
	quote, err := q.Quote(context.Background(), q.Primary(), req)
	require.NoError(t, err)
	opp := domain.EvaluateSwap(quote, time.Now())
	require.NotNil(t, opp)
	return opp
}

func TestExecutor_Swap(t *testing.T) {
	tests := []struct {
		name       string
		simulate   bool
		wantStatus domain.ExecutionStatus
		wantHash   string
		wantSends  int
	}{
		{"build only", false, domain.StatusSimulated, "", 0},
		{"simulated broadcast", true, domain.StatusBroadcast, "mocked_transaction_hash_12345", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuotes{venues: []string{"jupiter"}, outs: map[string]uint64{"jupiter": 17_000_000}, payload: "AQAB"}
			w := &stubWallet{address: true, balance: decimal.RequireFromString("0.5")}
			e := newExecutor(t, tt.simulate, q, w)

			res, err := e.Execute(context.Background(), swapOpportunity(t, q))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Status)
			assert.Equal(t, tt.wantHash, res.TxHash)
			assert.Equal(t, tt.wantSends, w.broadcasts)
			assert.Equal(t, 1, q.builds)
		})
	}
}

func TestExecutor_LogsAmountsWithSingleSymbol(t *testing.T) {
	q := &stubQuotes{venues: []string{"jupiter"}, outs: map[string]uint64{"jupiter": 17_019_356}, payload: "AQAB"}
	w := &stubWallet{address: true, balance: decimal.RequireFromString("0.5")}
	log := &infoLogger{}
	e, err := NewExecutor(ExecutorConfig{}, q, w, log)
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), swapOpportunity(t, q))
	require.NoError(t, err)

	rec, ok := log.records["would sign and broadcast swap transaction"]
	require.True(t, ok, "intent was not logged")
	assert.Equal(t, "0.1 SOL", rec["in"])
	assert.Equal(t, "17.019356 USDC", rec["out"])
}

func TestExecutor_SwapAbandoned(t *testing.T) {
	tests := []struct {
		name       string
		wallet     *stubWallet
		payload    string
		wantCode   apperror.Code
		wantBuilds int
	}{
		{"missing wallet address", &stubWallet{balance: decimal.NewFromInt(1)}, "AQAB", apperror.CodeWalletAddressMissing, 0},
		{"insufficient balance", &stubWallet{address: true, balance: decimal.RequireFromString("0.05")}, "AQAB", apperror.CodeInsufficientBalance, 0},
		{"empty payload", &stubWallet{address: true, balance: decimal.NewFromInt(1)}, "", apperror.CodeSwapTransactionMissing, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &stubQuotes{venues: []string{"jupiter"}, outs: map[string]uint64{"jupiter": 17_000_000}, payload: tt.payload}
			e := newExecutor(t, true, q, tt.wallet)

			res, err := e.Execute(context.Background(), swapOpportunity(t, q))
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.wantCode), "got %v", err)
			require.NotNil(t, res)
			assert.True(t, res.IsAbandoned())
			assert.NotEmpty(t, res.Reason)
			assert.Equal(t, tt.wantBuilds, q.builds)
			assert.Zero(t, tt.wallet.broadcasts)
		})
	}
}

func TestExecutor_Yield(t *testing.T) {
	opp := domain.EvaluateYield(pools("5.0")[0], pools("5.0", "9.0")[1], decimal.NewFromInt(2), time.Now())
	require.NotNil(t, opp)

	e := newExecutor(t, false, &stubQuotes{}, &stubWallet{address: true})
	res, err := e.Execute(context.Background(), opp)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSimulated, res.Status)

	e = newExecutor(t, false, &stubQuotes{}, &stubWallet{})
	res, err = e.Execute(context.Background(), opp)
	assert.True(t, apperror.HasCode(err, apperror.CodeWalletAddressMissing))
	assert.True(t, res.IsAbandoned())
}

func TestExecutor_UnknownKind(t *testing.T) {
	opp := &domain.Opportunity{Kind: "flashloan"}
	e := newExecutor(t, false, &stubQuotes{}, &stubWallet{address: true})

	res, err := e.Execute(context.Background(), opp)
	assert.True(t, apperror.HasCode(err, apperror.CodeUnknownOpportunityKind))
	assert.True(t, res.IsAbandoned())
}

func newRunner(t *testing.T, interval time.Duration, w *stubWallet, rep *recordingReporter) *Runner {
	t.Helper()
	q := &stubQuotes{
		venues:  []string{"jupiter", "raydium"},
		outs:    map[string]uint64{"jupiter": 17_000_000, "raydium": 17_300_000},
		payload: "AQAB",
	}
	m := &stubMarket{pools: pools("5.0", "9.0")}
	d := newDetector(t, detectorConfig(domain.KindSwap, domain.KindArbitrage, domain.KindYield), q, m)
	e := newExecutor(t, false, q, w)

	r, err := NewRunner(interval, d, e, m, stubChain{}, rep, &mockLogger{})
	require.NoError(t, err)
	return r
}

func TestNewRunner_RejectsZeroInterval(t *testing.T) {
	_, err := NewRunner(0, nil, nil, nil, nil, nil, &mockLogger{})
	assert.Error(t, err)
}

func TestRunner_RunOnce(t *testing.T) {
	rep := newRecordingReporter()
	r := newRunner(t, time.Minute, &stubWallet{address: true, balance: decimal.NewFromInt(1)}, rep)

	report := r.RunOnce(context.Background())
	assert.Equal(t, uint64(1), report.Number)
	require.Len(t, report.Opportunities, 3)
	require.Len(t, report.Results, 3)
	for _, res := range report.Results {
		assert.Equal(t, domain.StatusSimulated, res.Status)
	}

	stats := r.Stats()
	assert.Equal(t, uint64(1), stats.Cycles)
	assert.Equal(t, uint64(3), stats.Opportunities)
	assert.Equal(t, uint64(3), stats.Executions)
	assert.Zero(t, stats.Abandoned)

	assert.Len(t, rep.opps, 3)
	assert.Len(t, rep.results, 3)
	assert.Len(t, rep.cycles, 1)
	assert.Equal(t, 1, rep.prices)
	assert.Equal(t, 1, rep.yields)
	assert.True(t, rep.conns["chain:mock"])
	assert.True(t, rep.conns["market:mock"])
}

func TestRunner_DashboardAndYieldShareOnePoolRead(t *testing.T) {
	rep := newRecordingReporter()
	// Every read shifts the APYs, so a second read would not match the dashboard.
	m := &stubMarket{pools: pools("5.0", "9.0"), drift: decimal.RequireFromString("0.25")}
	d := newDetector(t, detectorConfig(domain.KindYield), &stubQuotes{}, m)
	e := newExecutor(t, false, &stubQuotes{}, &stubWallet{address: true})
	r, err := NewRunner(time.Minute, d, e, m, stubChain{}, rep, &mockLogger{})
	require.NoError(t, err)

	for cycle := 1; cycle <= 2; cycle++ {
		report := r.RunOnce(context.Background())
		assert.Equal(t, cycle, m.reads, "one pool read per cycle")

		require.Len(t, report.Opportunities, 1)
		opp := report.Opportunities[0]
		require.Len(t, rep.lastPools, 2)
		assert.True(t, opp.From.APY.Equal(rep.lastPools[0].APY), "from %s, dashboard %s", opp.From.APY, rep.lastPools[0].APY)
		assert.True(t, opp.To.APY.Equal(rep.lastPools[1].APY), "to %s, dashboard %s", opp.To.APY, rep.lastPools[1].APY)
	}
}

func TestRunner_MissingWalletAbandonsExecutions(t *testing.T) {
	rep := newRecordingReporter()
	r := newRunner(t, time.Minute, &stubWallet{}, rep)

	r.RunOnce(context.Background())
	stats := r.Stats()
	assert.Equal(t, uint64(3), stats.Opportunities)
	assert.Zero(t, stats.Executions)
	assert.Equal(t, uint64(3), stats.Abandoned)
}

func TestRunner_StartRunsImmediatelyAndStops(t *testing.T) {
	rep := newRecordingReporter()
	r := newRunner(t, time.Hour, &stubWallet{address: true, balance: decimal.NewFromInt(1)}, rep)

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()), "second start")

	select {
	case <-rep.cycleCount:
	case <-time.After(2 * time.Second):
		t.Fatal("no cycle ran after Start")
	}

	ok, msg := r.CheckHealthy(context.Background())
	assert.True(t, ok, msg)

	require.NoError(t, r.Stop())
	require.NoError(t, r.Stop())

	rep.mu.Lock()
	defer rep.mu.Unlock()
	assert.True(t, rep.started)
	assert.True(t, rep.stopped)
}

func TestRunner_CheckHealthyDetectsStall(t *testing.T) {
	rep := newRecordingReporter()
	r := newRunner(t, time.Second, &stubWallet{address: true, balance: decimal.NewFromInt(1)}, rep)

	ok, msg := r.CheckHealthy(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "idle", msg)

	r.RunOnce(context.Background())
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	now := time.Now()
	r.now = func() time.Time { return now.Add(time.Minute) }
	ok, _ = r.CheckHealthy(context.Background())
	assert.False(t, ok)
}
