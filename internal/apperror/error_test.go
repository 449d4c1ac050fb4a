package apperror

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNew_UsesMessageTable(t *testing.T) {
	err := New(CodeWalletAddressMissing)

	if err.Message != "AgentWallet Solana address not found" {
		t.Errorf("unexpected message: %q", err.Message)
	}
	if err.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for *_MISSING, got %d", err.StatusCode)
	}
	if len(err.stack) == 0 {
		t.Error("expected a captured stack")
	}
}

func TestNew_UnknownCodeFallsBackToCode(t *testing.T) {
	err := New(Code("SOMETHING_NEW"))
	if err.Message != "SOMETHING_NEW" {
		t.Errorf("expected code as message, got %q", err.Message)
	}
}

func TestError_StringIncludesContextAndCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := External(CodeChainRPCError, "getSlot", cause)

	s := err.Error()
	for _, part := range []string{"CHAIN_RPC_ERROR", "getSlot", "dial tcp: refused"} {
		if !strings.Contains(s, part) {
			t.Errorf("error string %q missing %q", s, part)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be unwrappable")
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(CodeQuoteUnavailable, WithContext("raydium"))
	b := New(CodeQuoteUnavailable)
	c := New(CodeQuoteFailed)

	if !errors.Is(a, b) {
		t.Error("expected same-code errors to match")
	}
	if errors.Is(a, c) {
		t.Error("expected different codes not to match")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Fatal("wrapping nil must return nil")
	}

	plain := errors.New("plain")
	wrapped := Wrap(plain, CodeSwapBuildFailed, "jupiter")
	if wrapped.Code != CodeSwapBuildFailed || !errors.Is(wrapped, plain) {
		t.Errorf("unexpected wrap result: %v", wrapped)
	}

	orig := New(CodePoolNotFound)
	again := Wrap(orig, CodeInternalError, "lookup")
	if again != orig || again.Context != "lookup" {
		t.Error("existing AppError should be returned with context filled in")
	}
}

func TestGetCodeAndHasCode(t *testing.T) {
	err := Precondition(CodeInsufficientBalance, "need 0.1 SOL")

	if GetCode(err) != CodeInsufficientBalance {
		t.Errorf("unexpected code %s", GetCode(err))
	}
	if GetCode(errors.New("x")) != CodeUnknownError {
		t.Error("plain errors should map to UNKNOWN_ERROR")
	}
	if !HasCode(err, CodeInsufficientBalance) || HasCode(nil, CodeInsufficientBalance) {
		t.Error("HasCode mismatch")
	}
	if err.StatusCode != http.StatusPreconditionFailed {
		t.Errorf("expected 412, got %d", err.StatusCode)
	}
}

func TestLogArgs(t *testing.T) {
	err := New(CodeSwapTransactionMissing, WithContext("jupiter"), WithCause(errors.New("empty")))
	args := err.LogArgs()

	want := []any{
		"code", "SWAP_TRANSACTION_MISSING",
		"error", "Failed to get unsigned swap transaction",
		"context", "jupiter",
		"cause", "empty",
	}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %d: %v", len(want), len(args), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: got %v want %v", i, args[i], want[i])
		}
	}
}
