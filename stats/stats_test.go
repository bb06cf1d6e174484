package stats

import (
	"strings"
	"sync"
	"testing"
)

func TestCounterConcurrent(t *testing.T) {
	var c Counter_t
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Inc()
			}
		}()
	}
	wg.Wait()
	c.Add(-8000)
	if c.Get() != 0 {
		t.Fatalf("counter = %d, want 0", c.Get())
	}
}

func TestStats2String(t *testing.T) {
	var st Sched_t
	st.Swaps.Add(1234567)
	st.Yields.Inc()
	s := Stats2String(&st)
	if !strings.Contains(s, "#Swaps: 1,234,567") {
		t.Errorf("missing grouped swaps in %q", s)
	}
	if !strings.Contains(s, "#Yields: 1") {
		t.Errorf("missing yields in %q", s)
	}
	// by value works too
	if v := Stats2String(st); !strings.Contains(v, "#Swaps: 1,234,567") {
		t.Errorf("by-value summary %q", v)
	}
}
