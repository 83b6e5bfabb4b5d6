// Package stageprof records how long each setup stage took as a pprof
// profile, so `go tool pprof` can show where preparation time goes.
package stageprof

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/pprof/profile"
)

// Recorder accumulates stage durations. A nil Recorder discards everything.
type Recorder struct {
	start     time.Time
	profile   *profile.Profile
	functions map[string]*profile.Function
	locations map[string]*profile.Location
}

// New creates a Recorder.
func New() *Recorder {
	now := time.Now()
	return &Recorder{
		start: now,
		profile: &profile.Profile{
			SampleType: []*profile.ValueType{
				{Type: "wall", Unit: "nanoseconds"},
				{Type: "runs", Unit: "count"},
			},
			PeriodType: &profile.ValueType{Type: "wall", Unit: "nanoseconds"},
			Period:     1,
			TimeNanos:  now.UnixNano(),
		},
		functions: make(map[string]*profile.Function),
		locations: make(map[string]*profile.Location),
	}
}

// Record adds d under the stack described by frames, outermost first,
// e.g. ("scala", "extract", "core").
func (r *Recorder) Record(d time.Duration, frames ...string) {
	if r == nil || len(frames) == 0 {
		return
	}

	// pprof stacks are leaf first
	stack := make([]*profile.Location, 0, len(frames))
	for i := len(frames) - 1; i >= 0; i-- {
		stack = append(stack, r.location(frames[:i+1]))
	}

	for _, s := range r.profile.Sample {
		if slices.Equal(s.Location, stack) {
			s.Value[0] += d.Nanoseconds()
			s.Value[1]++
			return
		}
	}
	r.profile.Sample = append(r.profile.Sample, &profile.Sample{
		Location: stack,
		Value:    []int64{d.Nanoseconds(), 1},
	})
}

// Start returns a function that records the time elapsed since Start was called.
func (r *Recorder) Start(frames ...string) func() {
	begin := time.Now()
	return func() {
		r.Record(time.Since(begin), frames...)
	}
}

// location returns the location of the last frame in path. Locations are keyed
// by their full path so the same stage name under different parents stays apart.
func (r *Recorder) location(path []string) *profile.Location {
	key := strings.Join(path, "\x00")
	if loc, ok := r.locations[key]; ok {
		return loc
	}
	loc := &profile.Location{
		ID:   uint64(len(r.profile.Location) + 1),
		Line: []profile.Line{{Function: r.function(path[len(path)-1])}},
	}
	r.locations[key] = loc
	r.profile.Location = append(r.profile.Location, loc)
	return loc
}

func (r *Recorder) function(name string) *profile.Function {
	if fn, ok := r.functions[name]; ok {
		return fn
	}
	fn := &profile.Function{
		ID:         uint64(len(r.profile.Function) + 1),
		Name:       name,
		SystemName: name,
	}
	r.functions[name] = fn
	r.profile.Function = append(r.profile.Function, fn)
	return fn
}

// Profile returns the recorded profile. It is nil for a nil Recorder.
func (r *Recorder) Profile() *profile.Profile {
	if r == nil {
		return nil
	}
	r.profile.DurationNanos = time.Since(r.start).Nanoseconds()
	return r.profile
}

// WriteFile writes the gzipped profile to path.
func (r *Recorder) WriteFile(path string) error {
	prof := r.Profile()
	if prof == nil {
		return nil
	}
	if err := prof.CheckValid(); err != nil {
		return fmt.Errorf("invalid stage profile: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create stage profile: %w", err)
	}
	if err := prof.Write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write stage profile: %w", err)
	}
	return f.Close()
}
