package diag

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/hbook"
)

func TestFileStore(t *testing.T) {
	t.Run("namespaces are stable", func(t *testing.T) {
		store := NewFileStore(t.TempDir(), testLogger())
		assert.Same(t, store.Run(3), store.Run(3))
		assert.Same(t, store.Top(), store.Top())
	})

	t.Run("same-name registration replaces", func(t *testing.T) {
		store := NewFileStore(t.TempDir(), testLogger())
		dir := store.Top().(*fileDir)

		h1 := hbook.NewH1D(10, 0, 10)
		h2 := hbook.NewH1D(10, 0, 10)
		dir.PutH1D("hist", "first", h1)
		dir.PutH1D("hist", "second", h2)

		require.Len(t, dir.h1s, 1)
		assert.Same(t, h2, dir.h1s[0].hist)
		assert.Equal(t, "second", dir.h1s[0].title)
	})

	t.Run("close writes every namespace", func(t *testing.T) {
		outDir := t.TempDir()
		store := NewFileStore(outDir, testLogger())

		h := hbook.NewH1D(10, 0, 10)
		h.Fill(5, 1)
		store.Top().PutH1D("pulseamplitude", "Pulse Amplitude", h)

		hr := hbook.NewH1D(ampBins, ampMin, ampMax)
		hr.Fill(99, 1)
		store.Run(7).PutH1D("pulse_amplitude_channel_001", "Pulse Amplitude for OP Channel 001", hr)

		h2 := hbook.NewH2D(10, 0, 10, 10, 0, 10)
		h2.Fill(5, 5, 1)
		store.Run(7).PutH2D("joint", "Joint", h2)

		require.NoError(t, store.Close())

		for _, fname := range []string{
			filepath.Join(outDir, "pulseamplitude.yoda"),
			filepath.Join(outDir, "pulseamplitude.png"),
			filepath.Join(outDir, "r007", "pulse_amplitude_channel_001.yoda"),
			filepath.Join(outDir, "r007", "pulse_amplitude_channel_001.png"),
			filepath.Join(outDir, "r007", "joint.yoda"),
			filepath.Join(outDir, "r007", "joint.png"),
		} {
			info, err := os.Stat(fname)
			require.NoError(t, err, fname)
			assert.Positive(t, info.Size(), fname)
		}
	})
}
