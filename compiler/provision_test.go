package compiler

import (
	"context"
	"testing"

	"github.com/perfgo/compilebench/model"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	cfg Config
}

func (h *fakeHandle) Run(context.Context, []string) (*Result, error) { return &Result{Success: true}, nil }
func (h *fakeHandle) Config() Config                                   { return h.cfg }

type countingProvider struct {
	configured int
}

func (p *countingProvider) Configure(cfg Config) Handle {
	p.configured++
	return &fakeHandle{cfg: cfg}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name             string
		options          []string
		useHostClasspath bool
		want             []string
	}{
		{
			name:    "unchanged",
			options: []string{"-deprecation", "-feature"},
			want:    []string{"-deprecation", "-feature"},
		},
		{
			name:             "flag appended last",
			options:          []string{"-deprecation", "-feature"},
			useHostClasspath: true,
			want:             []string{"-deprecation", "-feature", HostClasspathFlag},
		},
		{
			name:             "no options",
			useHostClasspath: true,
			want:             []string{HostClasspathFlag},
		},
		{
			name:             "flag already present",
			options:          []string{HostClasspathFlag, "-feature"},
			useHostClasspath: true,
			want:             []string{HostClasspathFlag, "-feature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Options(model.Metadata{Options: tt.options}, tt.useHostClasspath)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestProvision_HostClasspathAddedOnce(t *testing.T) {
	// spare capacity makes an in-place append visible to the caller
	opts := make([]string, 2, 8)
	opts[0], opts[1] = "-deprecation", "-feature"
	md := model.Metadata{Sources: []string{"/a/A.scala"}, Classpath: "/lib/a.jar", Options: opts}

	p := &countingProvider{}
	first := Provision(p, md, "/out/1", true, nil, nil)
	second := Provision(p, md, "/out/2", true, nil, nil)

	want := []string{"-deprecation", "-feature", HostClasspathFlag}
	require.Equal(t, want, first.Config().Options)
	require.Equal(t, want, second.Config().Options)
	require.Equal(t, []string{"-deprecation", "-feature"}, md.Options)
	require.Equal(t, 2, p.configured)
}

func TestProvision_Config(t *testing.T) {
	md := model.Metadata{Classpath: "/lib/a.jar:/lib/b.jar", Options: []string{"-Xlint"}}
	cb := NewCollector()
	rep := NewLenientReporter(testLogger(t))

	h := Provision(&countingProvider{}, md, "/out", false, cb, rep)
	cfg := h.Config()

	require.Equal(t, []string{"-Xlint"}, cfg.Options)
	require.Equal(t, "/lib/a.jar:/lib/b.jar", cfg.Classpath)
	require.Equal(t, "/out", cfg.OutputDir)
	require.Same(t, cb, cfg.Callback)
	require.Same(t, rep, cfg.Reporter)
}

func TestProvision_Defaults(t *testing.T) {
	cfg := Provision(&countingProvider{}, model.Metadata{}, "/out", false, nil, nil).Config()
	require.NotNil(t, cfg.Callback)
	require.NotNil(t, cfg.Reporter)
	require.False(t, cfg.Reporter.Abort(Diagnostic{Severity: SeverityError}))
}
