package store

import (
	"testing"
	"time"
)

func TestPoolLimitsDefaults(t *testing.T) {
	got := PoolLimits{}.withDefaults()
	if got.MaxOpenConns != 20 || got.MaxIdleConns != 10 {
		t.Errorf("unexpected default conn limits: %+v", got)
	}
	if got.ConnMaxIdleTime != 5*time.Minute || got.ConnMaxLifetime != 30*time.Minute {
		t.Errorf("unexpected default conn lifetimes: %+v", got)
	}
}

func TestPoolLimitsKeepsExplicitValues(t *testing.T) {
	in := PoolLimits{
		MaxOpenConns:    4,
		MaxIdleConns:    2,
		ConnMaxIdleTime: time.Minute,
		ConnMaxLifetime: time.Hour,
	}
	if got := in.withDefaults(); got != in {
		t.Errorf("explicit limits must pass through, got %+v", got)
	}
}
