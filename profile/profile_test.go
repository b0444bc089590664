package profile

import (
	"slices"
	"testing"
)

func TestModes(t *testing.T) {
	modes := Modes()

	if !Enabled() {
		if len(modes) != 0 {
			t.Errorf("Modes() = %v without the %s tag", modes, Tag)
		}

		return
	}

	if !slices.IsSorted(modes) || !slices.Contains(modes, "cpu") {
		t.Errorf("Modes() = %v", modes)
	}
}

func TestProfiler_Start(t *testing.T) {
	for _, p := range []Profiler{
		{},
		{Mode: "no-such-mode", Dir: t.TempDir()},
	} {
		s := p.Start()
		if _, ok := s.(ignore); !ok {
			t.Errorf("Start(%+v) = %T, want no-op", p, s)
		}

		s.Stop()
	}
}
