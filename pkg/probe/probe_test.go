package probe

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/request"
)

func TestRun(t *testing.T) {
	probes := []Probe{
		{
			Name: "Success Probe",
			Check: func(ctx context.Context) error {
				return nil
			},
			Critical: true,
		},
		{
			Name: "Failure Probe (Non-Critical)",
			Check: func(ctx context.Context) error {
				return errors.New("minor issue")
			},
		},
		{
			Name:    "Slow Probe",
			Timeout: 10 * time.Millisecond,
			Check: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			},
		},
	}

	results := Run(context.Background(), probes)

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
	assert.ErrorIs(t, results[2].Error, context.DeadlineExceeded)
}

func TestAnalyzeResults(t *testing.T) {
	tests := []struct {
		name    string
		results []Result
		wantErr bool
	}{
		{
			name: "All Pass",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}, Error: nil},
			},
			wantErr: false,
		},
		{
			name: "Critical Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: true}, Error: errors.New("fail")},
			},
			wantErr: true,
		},
		{
			name: "Non-Critical Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: false}, Error: errors.New("fail")},
			},
			wantErr: false,
		},
		{
			name: "Mixed Failure",
			results: []Result{
				{Probe: Probe{Name: "P1", Critical: false}, Error: errors.New("fail")},
				{Probe: Probe{Name: "P2", Critical: true}, Error: errors.New("fail")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AnalyzeResults(tt.results)
			assert.Equal(t, tt.wantErr, err != nil, "AnalyzeResults() error = %v", err)
		})
	}
}

func TestCatalogProbe(t *testing.T) {
	assert.NoError(t, Catalog(catalog.Default()).Check(context.Background()))

	empty, err := catalog.New(nil, nil)
	require.NoError(t, err)
	assert.Error(t, Catalog(empty).Check(context.Background()))
}

func TestWritableDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")
	require.NoError(t, WritableDir("Output", dir).Check(context.Background()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, WritableDir("Output", filepath.Join(file, "sub")).Check(context.Background()))
}

type headFunc func(ctx context.Context, u string) (*request.Meta, error)

func (f headFunc) Head(ctx context.Context, u string) (*request.Meta, error) { return f(ctx, u) }

func TestContentHost(t *testing.T) {
	linker := assets.NewLinker("content.example.com", "")
	var got string
	ok := headFunc(func(_ context.Context, u string) (*request.Meta, error) {
		got = u
		return &request.Meta{Status: http.StatusOK}, nil
	})
	require.NoError(t, ContentHost(ok, catalog.Default(), linker).Check(context.Background()))
	assert.Contains(t, got, "https://content.example.com/audio/")

	down := headFunc(func(_ context.Context, u string) (*request.Meta, error) {
		return nil, &request.StatusError{URL: u, Code: http.StatusNotFound}
	})
	p := ContentHost(down, catalog.Default(), linker)
	assert.False(t, p.Critical)
	assert.ErrorIs(t, p.Check(context.Background()), request.ErrNotFound)
}
