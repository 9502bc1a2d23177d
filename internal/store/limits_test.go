package store

import (
	"testing"
)

func TestInitLimits(t *testing.T) {
	db := testDB(t)

	lim, err := db.InitLimits(10, 5000)
	if err != nil {
		t.Fatalf("InitLimits: %v", err)
	}
	if lim.Total != 10 || lim.Used != 0 || lim.NextRefreshAt != 5000 {
		t.Errorf("limits = %+v, want total 10, used 0, next 5000", lim)
	}

	// Re-init must not clobber the existing row
	db.ConsumeUnit()
	lim, err = db.InitLimits(20, 9000)
	if err != nil {
		t.Fatalf("InitLimits second: %v", err)
	}
	if lim.Total != 10 || lim.Used != 1 {
		t.Errorf("limits after re-init = %+v, want total 10, used 1", lim)
	}
}

func TestGetLimitsUninitialized(t *testing.T) {
	db := testDB(t)

	lim, err := db.GetLimits()
	if err != nil {
		t.Fatalf("GetLimits: %v", err)
	}
	if lim != nil {
		t.Errorf("got %+v, want nil", lim)
	}
}

func TestConsumeUnitExhaustion(t *testing.T) {
	db := testDB(t)

	if _, err := db.InitLimits(3, 5000); err != nil {
		t.Fatalf("InitLimits: %v", err)
	}

	// Exactly total consecutive consumes succeed
	for i := 0; i < 3; i++ {
		ok, err := db.ConsumeUnit()
		if err != nil {
			t.Fatalf("ConsumeUnit %d: %v", i, err)
		}
		if !ok {
			t.Fatalf("ConsumeUnit %d = false, want true", i)
		}
	}

	// Everything after is a clamped no-op
	for i := 0; i < 5; i++ {
		ok, err := db.ConsumeUnit()
		if err != nil {
			t.Fatalf("ConsumeUnit exhausted: %v", err)
		}
		if ok {
			t.Fatal("ConsumeUnit succeeded past total")
		}
	}

	lim, _ := db.GetLimits()
	if lim.Used != 3 {
		t.Errorf("Used = %d, want 3", lim.Used)
	}
}

func TestResetWindowIdempotent(t *testing.T) {
	db := testDB(t)

	if _, err := db.InitLimits(5, 1000); err != nil {
		t.Fatalf("InitLimits: %v", err)
	}
	db.ConsumeUnit()
	db.ConsumeUnit()

	// Before the boundary: no reset
	ok, err := db.ResetWindow(999, 999+86400)
	if err != nil {
		t.Fatalf("ResetWindow early: %v", err)
	}
	if ok {
		t.Error("reset fired before the boundary")
	}

	// At the boundary: exactly one reset across redundant callers
	resets := 0
	for i := 0; i < 4; i++ {
		ok, err := db.ResetWindow(1000, 1000+86400)
		if err != nil {
			t.Fatalf("ResetWindow: %v", err)
		}
		if ok {
			resets++
		}
	}
	if resets != 1 {
		t.Errorf("resets = %d, want 1", resets)
	}

	lim, _ := db.GetLimits()
	if lim.Used != 0 {
		t.Errorf("Used after reset = %d, want 0", lim.Used)
	}
	if lim.NextRefreshAt != 1000+86400 {
		t.Errorf("NextRefreshAt = %d, want %d", lim.NextRefreshAt, 1000+86400)
	}
}

func TestSetLimitTotalClampsUsed(t *testing.T) {
	db := testDB(t)

	if _, err := db.InitLimits(5, 1000); err != nil {
		t.Fatalf("InitLimits: %v", err)
	}
	for i := 0; i < 4; i++ {
		db.ConsumeUnit()
	}

	if err := db.SetLimitTotal(2); err != nil {
		t.Fatalf("SetLimitTotal: %v", err)
	}
	lim, _ := db.GetLimits()
	if lim.Total != 2 || lim.Used != 2 {
		t.Errorf("limits = %+v, want total 2, used 2", lim)
	}
}
