package stats

import (
	"encoding/json"
	"testing"
	"time"
)

func TestPrecisionChange(t *testing.T) {
	stat := DefaultStatsReceiver().(*defaultStatsReceiver)
	if stat.precision != time.Nanosecond {
		t.Fatal("Default precision should be nanos.")
	}

	statp := stat.Precision(time.Millisecond).(*defaultStatsReceiver)
	if stat.precision != time.Nanosecond {
		t.Fatal("Default precision should still be nanos.")
	}
	if statp.precision != time.Millisecond {
		t.Fatal("New stat precision should be millis.")
	}
}

func TestScopeChange(t *testing.T) {
	stat := DefaultStatsReceiver().(*defaultStatsReceiver)
	statp := stat.Scope("a/b", "c").(*defaultStatsReceiver)
	if len(stat.scope) != 0 {
		t.Fatal("Default scope should still be empty.")
	}
	if len(statp.scope) != 2 || statp.scope[0] != "a_SLASH_b" || statp.scope[1] != "c" {
		t.Fatal("Invalid scope value: ", statp.scope)
	}
	if statp.scopedName("d") != "a_SLASH_b/c/d" {
		t.Fatal("Invalid scope name: " + statp.scopedName("d"))
	}
}

func TestScopesDoNotAlias(t *testing.T) {
	base := DefaultStatsReceiver().Scope("run")
	a := base.Scope("proc_1").(*defaultStatsReceiver)
	b := base.Scope("proc_2").(*defaultStatsReceiver)
	if a.scopedName("x") != "run/proc_1/x" || b.scopedName("x") != "run/proc_2/x" {
		t.Fatalf("sibling scopes clobbered each other: %s %s", a.scopedName("x"), b.scopedName("x"))
	}
}

func TestRender(t *testing.T) {
	Time = FixedClock(time.Unix(0, 0), 5*time.Millisecond)
	defer func() { Time = systemClock{} }()

	stat := DefaultStatsReceiver().Precision(time.Millisecond)
	stat.Counter("counter").Inc(2)
	stat.Gauge("gauge").Update(3)
	stat.GaugeFloat("ratio").Update(0.5)
	stat.Latency("latency_ms").Time().Stop()

	data := map[string]interface{}{}
	if err := json.Unmarshal(stat.Render(false), &data); err != nil {
		t.Fatalf("render produced invalid json: %v", err)
	}
	if data["counter"] != float64(2) {
		t.Errorf("expected counter 2, got %v", data["counter"])
	}
	if data["gauge"] != float64(3) {
		t.Errorf("expected gauge 3, got %v", data["gauge"])
	}
	if data["ratio"] != 0.5 {
		t.Errorf("expected ratio 0.5, got %v", data["ratio"])
	}
	if data["latency_ms.count"] != float64(1) || data["latency_ms.max"] != float64(5) {
		t.Errorf("unexpected latency rendering: %v", data)
	}
}

func TestNilReceiver(t *testing.T) {
	stat := NilStatsReceiver()
	stat.Counter("c").Inc(1)
	stat.Latency("l").Time().Stop()
	if string(stat.Render(true)) != "{}" {
		t.Errorf("nil receiver should render an empty document")
	}
}
