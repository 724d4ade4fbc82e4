package program_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prov/internal/adapters/program"
	"go.trai.ch/prov/internal/core/domain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{output: "Python 3.11.4", want: "3.11.4"},
		{output: "NEURON -- VERSION 7.1 (359:7f113b76a94b) 2009-10-26", want: "7.1"},
		{output: "NEST version 2.20.0, built on Jan 1", want: "2.20.0"},
		{output: "tool 1.0rc2", want: "1.0rc2"},
		{output: "no version here", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			assert.Equal(t, tt.want, program.ParseVersion(tt.output))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := program.DefaultRegistry()

	p, ok := r.ByExecutable("/usr/local/bin/nrngui")
	require.True(t, ok)
	assert.Equal(t, "NEURON", p.Name)

	p, ok = r.ByScript("models/init.HOC")
	require.True(t, ok)
	assert.Equal(t, "NEURON", p.Name)

	p, ok = r.ByScript("run.sli")
	require.True(t, ok)
	assert.Equal(t, "NEST", p.Name)

	_, ok = r.ByScript("run.m")
	assert.False(t, ok)

	r.Register(program.Program{Name: "MATLAB", Executables: []string{"matlab"}, Extensions: []string{".m"}})
	p, ok = r.ByScript("run.m")
	require.True(t, ok)
	assert.Equal(t, "MATLAB", p.Name)
}

func fakeProbe(output string, calls *[]string) program.Prober {
	return func(_ context.Context, path string, args ...string) ([]byte, error) {
		*calls = append(*calls, path)
		return []byte(output), &exec.ExitError{}
	}
}

func TestDetect_ByName(t *testing.T) {
	var calls []string
	d := program.NewDetector(nil, fakeProbe("Python 3.12.1\n", &calls))
	d.SetLookPathForTest(func(name string) (string, error) {
		return "/opt/bin/" + name, nil
	})

	exe, err := d.Detect(context.Background(), "python3", "main.py")
	require.NoError(t, err)
	assert.Equal(t, domain.Executable{Name: "Python", Path: "/opt/bin/python3", Version: "3.12.1"}, exe)
	assert.Equal(t, []string{"/opt/bin/python3"}, calls)
}

func TestDetect_UnknownName(t *testing.T) {
	var calls []string
	d := program.NewDetector(nil, fakeProbe("mysim 0.4", &calls))
	d.SetLookPathForTest(func(name string) (string, error) {
		return "/opt/bin/" + name, nil
	})

	exe, err := d.Detect(context.Background(), "mysim", "")
	require.NoError(t, err)
	assert.Equal(t, "mysim", exe.Name)
	assert.Equal(t, "0.4", exe.Version)
}

func TestDetect_ByScript(t *testing.T) {
	var calls []string
	d := program.NewDetector(nil, fakeProbe("NEURON -- VERSION 8.2.2", &calls))
	d.SetLookPathForTest(func(name string) (string, error) {
		return "/usr/bin/" + name, nil
	})

	exe, err := d.Detect(context.Background(), "", "init.hoc")
	require.NoError(t, err)
	assert.Equal(t, domain.Executable{Name: "NEURON", Path: "/usr/bin/nrniv", Version: "8.2.2"}, exe)
}

func TestDetect_NotInstalled(t *testing.T) {
	var calls []string
	d := program.NewDetector(nil, fakeProbe("", &calls))
	d.SetLookPathForTest(func(string) (string, error) {
		return "", exec.ErrNotFound
	})

	exe, err := d.Detect(context.Background(), "genesis", "")
	require.NoError(t, err)
	assert.Equal(t, domain.Executable{Name: "GENESIS"}, exe)
	assert.Empty(t, calls)
}

func TestDetect_RelativePath(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll("bin", 0o750))
	//nolint:gosec // Test requires executable file
	require.NoError(t, os.WriteFile(filepath.Join("bin", "sim"), []byte("#!/bin/sh\necho sim 2.1\n"), 0o700))

	d := program.NewDetector(nil, nil)
	exe, err := d.Detect(context.Background(), "./bin/sim", "")
	require.NoError(t, err)
	assert.Equal(t, "sim", exe.Name)
	assert.Equal(t, filepath.Join(dir, "bin", "sim"), exe.Path)
	assert.Equal(t, "2.1", exe.Version)
}

func TestDetect_Errors(t *testing.T) {
	d := program.NewDetector(nil, nil)

	_, err := d.Detect(context.Background(), "", "analysis.xyz")
	require.ErrorIs(t, err, domain.ErrUnknownProgram)

	_, err = d.Detect(context.Background(), "", "")
	require.ErrorIs(t, err, domain.ErrMissingCommand)
}
