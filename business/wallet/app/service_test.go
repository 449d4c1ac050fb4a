package app

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fd1az/defi-optimizer/business/wallet/domain"
	"github.com/fd1az/defi-optimizer/internal/apperror"
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

type fakeWallet struct {
	creds   domain.Credentials
	balance decimal.Decimal
	sent    []string
}

func (f *fakeWallet) Credentials() domain.Credentials { return f.creds }

func (f *fakeWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	return f.balance, nil
}

func (f *fakeWallet) SendRawTransaction(ctx context.Context, signed string) (domain.TxHash, error) {
	if signed == "" {
		return "", apperror.Precondition(apperror.CodeSwapTransactionMissing, "empty")
	}
	f.sent = append(f.sent, signed)
	return "hash-1", nil
}

func newService(t *testing.T, w *fakeWallet) *WalletService {
	t.Helper()
	svc, err := NewWalletService(w, &mockLogger{})
	require.NoError(t, err)
	return svc
}

func TestWalletService_RequireBalance(t *testing.T) {
	svc := newService(t, &fakeWallet{balance: decimal.RequireFromString("0.5")})
	ctx := context.Background()

	assert.NoError(t, svc.RequireBalance(ctx, decimal.RequireFromString("0.1")))
	assert.NoError(t, svc.RequireBalance(ctx, decimal.RequireFromString("0.5")))

	err := svc.RequireBalance(ctx, decimal.RequireFromString("0.51"))
	assert.True(t, apperror.HasCode(err, apperror.CodeInsufficientBalance), "got %v", err)
}

func TestWalletService_Owner(t *testing.T) {
	svc := newService(t, &fakeWallet{})
	_, err := svc.Owner()
	assert.True(t, apperror.HasCode(err, apperror.CodeWalletAddressMissing))
	ok, _ := svc.CheckConfigured(context.Background())
	assert.False(t, ok)

	svc = newService(t, &fakeWallet{creds: domain.Credentials{SolanaAddress: "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"}})
	pk, err := svc.Owner()
	require.NoError(t, err)
	assert.Equal(t, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", pk.String())
	assert.True(t, svc.HasAddress())
}

func TestWalletService_Broadcast(t *testing.T) {
	w := &fakeWallet{}
	svc := newService(t, w)

	hash, err := svc.Broadcast(context.Background(), "c2lnbmVk")
	require.NoError(t, err)
	assert.Equal(t, domain.TxHash("hash-1"), hash)
	assert.Equal(t, []string{"c2lnbmVk"}, w.sent)

	_, err = svc.Broadcast(context.Background(), "")
	assert.Error(t, err)
}
