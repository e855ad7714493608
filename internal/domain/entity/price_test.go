package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAssetTimeKey_String(t *testing.T) {
	key := NewAssetTimeKey("BTC-USD", 100)
	if got := key.String(); got != "BTCUSD-100" {
		t.Errorf("String() = %q, want %q", got, "BTCUSD-100")
	}
}

func TestNewPriceQuote(t *testing.T) {
	if _, err := NewPriceQuote(decimal.NewFromInt(1), nil, time.Now()); err == nil {
		t.Errorf("NewPriceQuote() without signature expected error")
	}
	if _, err := NewPriceQuote(decimal.Zero, []byte{1}, time.Now()); err == nil {
		t.Errorf("NewPriceQuote() with zero price expected error")
	}
	if _, err := NewPriceQuote(decimal.RequireFromString("64000.12"), []byte{1}, time.Now()); err != nil {
		t.Errorf("NewPriceQuote() error = %v", err)
	}
}

func TestRoleKeys(t *testing.T) {
	if got := RoleOpen.CheckpointKey(); got != "open_checkpoint" {
		t.Errorf("CheckpointKey() = %q", got)
	}
	if got := RoleClose.HaltedKey(); got != "close_halted_1" {
		t.Errorf("HaltedKey() = %q", got)
	}
	if _, err := ParseRole("revoke"); err == nil {
		t.Errorf("ParseRole(revoke) expected error")
	}
}
