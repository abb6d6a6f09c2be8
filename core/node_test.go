package core

import (
	"testing"

	"courseledger/core/events"
	"courseledger/native/checkin"
	"courseledger/storage"
)

func TestBootstrapInstallsGenesisConfig(t *testing.T) {
	node := NewNode(storage.NewMemDB(), events.NoopEmitter{})
	authorizer := [20]byte{0x01}
	params := checkin.Params{BaseDailyReward: 20, PerDayBonus: 2, MaxConsecutiveDays: 14}

	if err := node.Bootstrap(authorizer, params); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	stored, ok, err := node.CheckinAuthorizer()
	if err != nil || !ok {
		t.Fatalf("authorizer not installed: ok=%v err=%v", ok, err)
	}
	if stored != authorizer {
		t.Fatalf("unexpected authorizer %x", stored)
	}
	active, err := node.CheckinParams()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if active != params {
		t.Fatalf("unexpected params %+v", active)
	}
}

func TestBootstrapDoesNotOverrideAdminUpdates(t *testing.T) {
	db := storage.NewMemDB()
	node := NewNode(db, events.NoopEmitter{})
	if err := node.Bootstrap([20]byte{0x01}, checkin.DefaultParams()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	rotated := [20]byte{0x02}
	updated := checkin.Params{BaseDailyReward: 50, PerDayBonus: 1, MaxConsecutiveDays: 30}
	if err := node.CheckinSetAuthorizer(rotated); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if err := node.CheckinSetParams(updated); err != nil {
		t.Fatalf("set params: %v", err)
	}

	// Simulate a restart against the same database with the original config.
	restarted := NewNode(db, events.NoopEmitter{})
	if err := restarted.Bootstrap([20]byte{0x01}, checkin.DefaultParams()); err != nil {
		t.Fatalf("re-bootstrap: %v", err)
	}
	stored, _, err := restarted.CheckinAuthorizer()
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	if stored != rotated {
		t.Fatalf("bootstrap overrode rotated authorizer: %x", stored)
	}
	active, err := restarted.CheckinParams()
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if active != updated {
		t.Fatalf("bootstrap overrode updated params: %+v", active)
	}
}

func TestBootstrapSkipsZeroAuthorizer(t *testing.T) {
	node := NewNode(storage.NewMemDB(), events.NoopEmitter{})
	if err := node.Bootstrap([20]byte{}, checkin.DefaultParams()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	_, ok, err := node.CheckinAuthorizer()
	if err != nil {
		t.Fatalf("authorizer: %v", err)
	}
	if ok {
		t.Fatalf("zero authorizer must not be installed")
	}
}
