package model

import (
	"testing"
	"time"
)

// workingResult builds a working result for tests.
func workingResult(t *testing.T, candidate string, latency time.Duration) *ProbeResult {
	t.Helper()
	r := NewProbeResult(MustParseEndpoint(candidate))
	r.Working = true
	if latency > 0 {
		r.SetLatency(latency)
	}
	return r
}

// failedResult builds a failed result for tests.
func failedResult(t *testing.T, candidate string, reason FailureReason) *ProbeResult {
	t.Helper()
	r := NewProbeResult(MustParseEndpoint(candidate))
	r.SetFailure(reason, reason.String())
	return r
}

func TestResultSet_Add(t *testing.T) {
	t.Parallel()

	t.Run("re-adding the same endpoint replaces", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(failedResult(t, "1.2.3.4:1080", FailureTimeout))
		set.Add(workingResult(t, "1.2.3.4:1080", 100*time.Millisecond))

		if set.Len() != 1 {
			t.Fatalf("expected 1 result, got %d", set.Len())
		}
		if !set.All()[0].Working {
			t.Error("expected the replacement result to win")
		}
	})

	t.Run("auth variant is a separate entry", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(workingResult(t, "1.2.3.4:1080", 100*time.Millisecond))
		set.Add(workingResult(t, "1.2.3.4:1080:u:p", 200*time.Millisecond))

		if set.Len() != 2 {
			t.Fatalf("expected 2 results, got %d", set.Len())
		}
	})

	t.Run("nil result is ignored", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(nil)
		if set.Len() != 0 {
			t.Errorf("expected empty set, got %d", set.Len())
		}
	})
}

func TestResultSet_Working(t *testing.T) {
	t.Parallel()

	t.Run("ranked by latency ascending", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(workingResult(t, "5.5.5.5:1080", 900*time.Millisecond))
		set.Add(workingResult(t, "6.6.6.6:1080", 120*time.Millisecond))
		set.Add(failedResult(t, "7.7.7.7:1080", FailureConnectionRefused))
		set.Add(workingResult(t, "8.8.8.8:1080", 450*time.Millisecond))

		working := set.Working()
		if len(working) != 3 {
			t.Fatalf("expected 3 working, got %d", len(working))
		}
		want := []string{"6.6.6.6:1080", "8.8.8.8:1080", "5.5.5.5:1080"}
		for i, proxy := range want {
			if working[i].Proxy != proxy {
				t.Errorf("position %d: expected %s, got %s", i, proxy, working[i].Proxy)
			}
		}
	})

	t.Run("missing latency sorts last", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(workingResult(t, "5.5.5.5:1080", 0))
		set.Add(workingResult(t, "6.6.6.6:1080", 800*time.Millisecond))

		working := set.Working()
		if working[0].Proxy != "6.6.6.6:1080" {
			t.Errorf("expected measured result first, got %s", working[0].Proxy)
		}
		if working[1].Proxy != "5.5.5.5:1080" {
			t.Errorf("expected unmeasured result last, got %s", working[1].Proxy)
		}
	})

	t.Run("equal latency breaks ties by host then port", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(workingResult(t, "2.2.2.2:2000", 300*time.Millisecond))
		set.Add(workingResult(t, "1.1.1.1:3000", 300*time.Millisecond))
		set.Add(workingResult(t, "1.1.1.1:1000", 300*time.Millisecond))

		working := set.Working()
		want := []string{"1.1.1.1:1000", "1.1.1.1:3000", "2.2.2.2:2000"}
		for i, proxy := range want {
			if working[i].Proxy != proxy {
				t.Errorf("position %d: expected %s, got %s", i, proxy, working[i].Proxy)
			}
		}
	})

	t.Run("rank is stable across repeated calls", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		set.Add(workingResult(t, "3.3.3.3:1080", 300*time.Millisecond))
		set.Add(workingResult(t, "2.2.2.2:1080", 300*time.Millisecond))

		first := set.Working()
		second := set.Working()
		for i := range first {
			if first[i].Proxy != second[i].Proxy {
				t.Fatalf("rank changed between calls at %d", i)
			}
		}
	})
}

func TestResultSet_TopFastest(t *testing.T) {
	t.Parallel()

	set := NewResultSet()
	set.Add(workingResult(t, "1.1.1.1:1080", 100*time.Millisecond))
	set.Add(workingResult(t, "2.2.2.2:1080", 200*time.Millisecond))
	set.Add(workingResult(t, "3.3.3.3:1080", 300*time.Millisecond))

	t.Run("returns the n fastest", func(t *testing.T) {
		t.Parallel()
		top := set.TopFastest(2)
		if len(top) != 2 {
			t.Fatalf("expected 2, got %d", len(top))
		}
		if top[0].Proxy != "1.1.1.1:1080" || top[1].Proxy != "2.2.2.2:1080" {
			t.Errorf("unexpected order: %s, %s", top[0].Proxy, top[1].Proxy)
		}
	})

	t.Run("n larger than set is clamped", func(t *testing.T) {
		t.Parallel()
		if got := len(set.TopFastest(50)); got != 3 {
			t.Errorf("expected 3, got %d", got)
		}
	})

	t.Run("negative n yields empty", func(t *testing.T) {
		t.Parallel()
		if got := len(set.TopFastest(-1)); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}

func TestResultSet_Summarize(t *testing.T) {
	t.Parallel()

	const (
		fastBelow = time.Second
		slowFrom  = 3 * time.Second
	)

	t.Run("empty set yields a valid zero summary", func(t *testing.T) {
		t.Parallel()

		sum := NewResultSet().Summarize(fastBelow, slowFrom)
		if sum.Total != 0 || sum.Working != 0 || sum.Anonymous != 0 {
			t.Errorf("expected zero counts, got %+v", sum)
		}
		if sum.AvgLatencyMS != 0 || sum.MinLatencyMS != 0 || sum.MaxLatencyMS != 0 {
			t.Errorf("expected zero latencies, got %+v", sum)
		}
	})

	t.Run("counts and latency stats", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()

		anon := workingResult(t, "1.1.1.1:1080", 250*time.Millisecond)
		anon.SetAnonymity(AnonymityAnonymous)
		set.Add(anon)

		leaky := workingResult(t, "2.2.2.2:1080", 1500*time.Millisecond)
		leaky.SetAnonymity(AnonymityTransparent)
		set.Add(leaky)

		unknown := workingResult(t, "3.3.3.3:1080", 3500*time.Millisecond)
		unknown.SetAnonymity(AnonymityUnknown)
		set.Add(unknown)

		set.Add(failedResult(t, "4.4.4.4:1080", FailureTimeout))

		sum := set.Summarize(fastBelow, slowFrom)

		if sum.Total != 4 {
			t.Errorf("expected total 4, got %d", sum.Total)
		}
		if sum.Working != 3 {
			t.Errorf("expected working 3, got %d", sum.Working)
		}
		if sum.Anonymous != 1 {
			t.Errorf("expected anonymous 1 (unknown must not count), got %d", sum.Anonymous)
		}
		if sum.AvgLatencyMS != (250+1500+3500)/3 {
			t.Errorf("unexpected average %d", sum.AvgLatencyMS)
		}
		if sum.MinLatencyMS != 250 {
			t.Errorf("expected min 250, got %d", sum.MinLatencyMS)
		}
		if sum.MaxLatencyMS != 3500 {
			t.Errorf("expected max 3500, got %d", sum.MaxLatencyMS)
		}
		if sum.FastCount != 1 || sum.MediumCount != 1 || sum.SlowCount != 1 {
			t.Errorf("unexpected tier counts: %d/%d/%d", sum.FastCount, sum.MediumCount, sum.SlowCount)
		}
	})

	t.Run("countries counted for working results", func(t *testing.T) {
		t.Parallel()

		set := NewResultSet()
		a := workingResult(t, "1.1.1.1:1080", 100*time.Millisecond)
		a.Country = "DE"
		set.Add(a)
		b := workingResult(t, "2.2.2.2:1080", 200*time.Millisecond)
		b.Country = "DE"
		set.Add(b)
		c := failedResult(t, "3.3.3.3:1080", FailureTimeout)
		c.Country = "US"
		set.Add(c)

		sum := set.Summarize(fastBelow, slowFrom)
		if sum.ByCountry["DE"] != 2 {
			t.Errorf("expected DE=2, got %d", sum.ByCountry["DE"])
		}
		if _, ok := sum.ByCountry["US"]; ok {
			t.Error("failed results must not contribute to country counts")
		}
	})
}
