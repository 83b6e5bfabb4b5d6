package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/perfgo/compilebench/compiler"
	"github.com/perfgo/compilebench/model"
	"github.com/perfgo/compilebench/probe"
	"github.com/perfgo/compilebench/source"
	"github.com/perfgo/compilebench/stageprof"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// sbtSCM pretends to clone an sbt project by writing a build.sbt.
type sbtSCM struct {
	cloneErr error
}

func (s *sbtSCM) Clone(_ context.Context, url, dir string) error {
	if s.cloneErr != nil {
		return s.cloneErr
	}
	return os.WriteFile(filepath.Join(dir, "build.sbt"), []byte("lazy val root = project\n"), 0644)
}

func (s *sbtSCM) Checkout(context.Context, string, string) error { return nil }

// scriptedTool writes the probe output registered for a subproject.
type scriptedTool struct {
	outputs map[string]string
	ran     []string
}

func (s *scriptedTool) Run(_ context.Context, dir, task string) error {
	s.ran = append(s.ran, task)
	for sub, out := range s.outputs {
		if probe.TaskName(sub) == task {
			return os.WriteFile(filepath.Join(dir, probe.OutputFileName(sub)), []byte(out), 0644)
		}
	}
	return nil
}

type fakeExtractor struct {
	failAt    map[string]error
	extracted []string
}

func (f *fakeExtractor) Extract(_ context.Context, dir, sub string) (model.Metadata, error) {
	f.extracted = append(f.extracted, sub)
	if err := f.failAt[sub]; err != nil {
		return model.Metadata{}, err
	}
	return model.Metadata{
		Sources:   []string{filepath.Join(dir, sub, "A.scala")},
		Classpath: "/lib/" + sub + ".jar",
		Options:   []string{"-feature"},
	}, nil
}

type fakeHandle struct{ cfg compiler.Config }

func (h *fakeHandle) Run(context.Context, []string) (*compiler.Result, error) {
	res := compiler.Result{Success: true}
	h.cfg.Callback.Done(res)
	return &res, nil
}
func (h *fakeHandle) Config() compiler.Config { return h.cfg }

type fakeProvider struct{ configured int }

func (p *fakeProvider) Configure(cfg compiler.Config) compiler.Handle {
	p.configured++
	return &fakeHandle{cfg: cfg}
}

func newAcquirer(t *testing.T, scm source.SourceControl) *source.Acquirer {
	a := source.NewAcquirer(zerolog.Nop(), scm)
	a.TempDir = t.TempDir()
	return a
}

func probeOutput(sub string) string {
	return fmt.Sprintf("/w/%s/A.scala /w/%s/B.scala\n/lib/%s.jar\n-deprecation\n", sub, sub, sub)
}

func TestPipeline_TwoSubprojects(t *testing.T) {
	tool := &scriptedTool{outputs: map[string]string{
		"core": probeOutput("core"),
		"util": probeOutput("util"),
	}}
	provider := &fakeProvider{}
	p := New(zerolog.Nop(), newAcquirer(t, &sbtSCM{}), probe.New(zerolog.Nop(), probe.AppendInjector{}, tool), provider)

	ref := model.ProjectReference{
		Repository:       "https://example.com/lib.git",
		Revision:         "v1",
		Subprojects:      []string{"util", "core"},
		UseHostClasspath: true,
	}
	prepared, err := p.Run(context.Background(), ref)
	require.NoError(t, err)
	require.Len(t, prepared.Jobs, 2)
	require.Equal(t, 2, provider.configured)

	for i, sub := range ref.Subprojects {
		job := prepared.Jobs[i]
		require.Equal(t, sub, job.Subproject)
		require.Equal(t, prepared.Tree.Dir, job.WorkDir)
		require.Equal(t, filepath.Join(prepared.Tree.Dir, ".compilebench", "classes", sub), job.OutputDir)
		require.Equal(t, "/lib/"+sub+".jar", job.Metadata.Classpath)
		require.Equal(t, []string{"-deprecation", compiler.HostClasspathFlag}, job.Compiler.Config().Options)
		require.Equal(t, []string{"-deprecation"}, job.Metadata.Options)
	}
	require.NotEqual(t, prepared.Jobs[0].Metadata.Sources, prepared.Jobs[1].Metadata.Sources)

	// both probes were appended to the shared build file
	build, err := os.ReadFile(filepath.Join(prepared.Tree.Dir, "build.sbt"))
	require.NoError(t, err)
	require.Contains(t, string(build), probe.Snippet("core"))
	require.Contains(t, string(build), probe.Snippet("util"))
}

func TestPipeline_JobRunUsesHandle(t *testing.T) {
	p := New(zerolog.Nop(), newAcquirer(t, &sbtSCM{}), &fakeExtractor{}, &fakeProvider{})

	prepared, err := p.Run(context.Background(), model.ProjectReference{Repository: "r", Revision: "v", Subprojects: []string{"core"}})
	require.NoError(t, err)

	job := prepared.Jobs[0]
	require.Empty(t, job.Results.Results(), "setup must not compile")
	for i := 0; i < 3; i++ {
		_, err := job.Run(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, job.Results.Results(), 3)
}

func TestPipeline_CloneFailure(t *testing.T) {
	var states []State
	extractor := &fakeExtractor{}
	provider := &fakeProvider{}
	p := New(zerolog.Nop(), newAcquirer(t, &sbtSCM{cloneErr: errors.New("could not resolve host")}), extractor, provider)
	p.Observer = func(tr Transition) { states = append(states, tr.State) }

	prepared, err := p.Run(context.Background(), model.ProjectReference{Repository: "https://unreachable.invalid/x.git", Revision: "v", Subprojects: []string{"a", "b"}})
	require.Nil(t, prepared)
	require.ErrorIs(t, err, source.ErrClone)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, StageAcquire, perr.Stage)
	require.Empty(t, perr.Subproject)

	require.Equal(t, []State{StateStart, StateAcquiring, StateFailed}, states)
	require.Empty(t, extractor.extracted)
	require.Zero(t, provider.configured)
}

func TestPipeline_ExtractFailureShortCircuits(t *testing.T) {
	subs := []string{"s0", "s1", "s2", "s3"}
	for k := range subs {
		t.Run(subs[k], func(t *testing.T) {
			extractor := &fakeExtractor{failAt: map[string]error{
				subs[k]: fmt.Errorf("%w: boom", probe.ErrBuildToolInvocation),
			}}
			provider := &fakeProvider{}
			var transitions []Transition
			p := New(zerolog.Nop(), newAcquirer(t, &sbtSCM{}), extractor, provider)
			p.Observer = func(tr Transition) { transitions = append(transitions, tr) }

			prepared, err := p.Run(context.Background(), model.ProjectReference{Name: "proj", Repository: "r", Revision: "v", Subprojects: subs})
			require.Nil(t, prepared)
			require.ErrorIs(t, err, probe.ErrBuildToolInvocation)

			var perr *Error
			require.ErrorAs(t, err, &perr)
			require.Equal(t, StageExtract, perr.Stage)
			require.Equal(t, subs[k], perr.Subproject)
			require.Equal(t, k, perr.Index)
			require.Equal(t, "proj", perr.Project)

			if diff := cmp.Diff(subs[:k+1], extractor.extracted); diff != "" {
				t.Errorf("extracted subprojects mismatch (-want +got):\n%s", diff)
			}
			require.Equal(t, k, provider.configured)

			for _, tr := range transitions {
				require.LessOrEqual(t, tr.Index, k, "state %s observed for later subproject", tr.State)
			}
			require.Equal(t, StateFailed, transitions[len(transitions)-1].State)
		})
	}
}

func TestPipeline_TwoLineOutputAborts(t *testing.T) {
	tool := &scriptedTool{outputs: map[string]string{
		"core": "/w/A.scala\n/lib/a.jar\n",
		"util": probeOutput("util"),
	}}
	provider := &fakeProvider{}
	p := New(zerolog.Nop(), newAcquirer(t, &sbtSCM{}), probe.New(zerolog.Nop(), probe.AppendInjector{}, tool), provider)

	_, err := p.Run(context.Background(), model.ProjectReference{Repository: "r", Revision: "v", Subprojects: []string{"core", "util"}})
	require.ErrorIs(t, err, probe.ErrOutputFormat)

	var perr *Error
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "core", perr.Subproject)
	require.Equal(t, []string{probe.TaskName("core")}, tool.ran)
	require.Zero(t, provider.configured)
}

func TestPipeline_RemoveOnFailure(t *testing.T) {
	a := newAcquirer(t, &sbtSCM{})
	p := New(zerolog.Nop(), a, &fakeExtractor{failAt: map[string]error{"core": errors.New("x")}}, &fakeProvider{})
	p.RemoveOnFailure = true

	_, err := p.Run(context.Background(), model.ProjectReference{Repository: "r", Revision: "v", Subprojects: []string{"core"}})
	require.Error(t, err)

	entries, err := os.ReadDir(a.TempDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPipeline_KeepsTreeOnFailureByDefault(t *testing.T) {
	a := newAcquirer(t, &sbtSCM{})
	p := New(zerolog.Nop(), a, &fakeExtractor{failAt: map[string]error{"core": errors.New("x")}}, &fakeProvider{})

	_, err := p.Run(context.Background(), model.ProjectReference{Repository: "r", Revision: "v", Subprojects: []string{"core"}})
	require.Error(t, err)

	entries, err := os.ReadDir(a.TempDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPipeline_RecordsStages(t *testing.T) {
	rec := stageprof.New()
	p := New(zerolog.Nop(), newAcquirer(t, &sbtSCM{}), &fakeExtractor{}, &fakeProvider{})
	p.Recorder = rec

	_, err := p.Run(context.Background(), model.ProjectReference{Name: "proj", Repository: "r", Revision: "v", Subprojects: []string{"a", "b"}})
	require.NoError(t, err)

	var stacks []string
	for _, s := range rec.Profile().Sample {
		var names []string
		for i := len(s.Location) - 1; i >= 0; i-- {
			names = append(names, s.Location[i].Line[0].Function.Name)
		}
		stacks = append(stacks, strings.Join(names, ";"))
	}
	require.Equal(t, []string{
		"proj;acquire",
		"proj;extract;a",
		"proj;provision;a",
		"proj;extract;b",
		"proj;provision;b",
	}, stacks)
}

func TestError(t *testing.T) {
	err := &Error{Stage: StageExtract, Project: "p", Subproject: "core", Index: 2, Err: probe.ErrOutputFormat}
	require.Equal(t, "project p: extract subproject core (#2): malformed probe output", err.Error())
	require.ErrorIs(t, err, probe.ErrOutputFormat)

	err = &Error{Stage: StageAcquire, Project: "p", Index: -1, Err: source.ErrCheckout}
	require.Equal(t, "project p: acquire: checkout failed", err.Error())
}
