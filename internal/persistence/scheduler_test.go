package persistence

import (
	"errors"
	"os"
	"path/filepath"
	"predictor/internal/models"
	"predictor/internal/structures"
	"predictor/internal/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type countingEvictor struct {
	calls atomic.Int32
}

func (c *countingEvictor) EvictIdle() int {
	c.calls.Inc()
	return 1
}

func testConfig(filePath string) *structures.Config {
	return &structures.Config{
		Persistence: structures.Persistence{
			FilePath:     filePath,
			SaveInterval: 1 * time.Second,
		},
		Predictor: structures.PredictorConfig{
			EvictInterval: 1 * time.Second,
		},
	}
}

func newTestScheduler(path string, store *models.ClientStore, comp *testutil.MockCompressor, evictor IdleEvictor) (*Scheduler, *testutil.MockMetrics, *testutil.MockLogger) {
	logger := &testutil.MockLogger{}
	metrics := &testutil.MockMetrics{}
	fm := NewFileManager(comp, store, logger)
	s := NewScheduler(testConfig(path), logger, store, evictor, fm, metrics).(*Scheduler)
	return s, metrics, logger
}

func TestScheduler_PersistThenRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.dat")
	store := models.NewClientStore()
	store.Set(models.VisitorKey("v1", "token"), []byte("jwt"))

	s, metrics, _ := newTestScheduler(path, store, &testutil.MockCompressor{}, nil)
	require.NoError(t, s.Persist())
	assert.Equal(t, 1, metrics.PersistenceCalls)

	restored := models.NewClientStore()
	s2, _, _ := newTestScheduler(path, restored, &testutil.MockCompressor{}, nil)
	require.NoError(t, s2.Restore())
	assert.Equal(t, 1, restored.Len())
}

func TestScheduler_Restore_FileNotExist(t *testing.T) {
	s, _, _ := newTestScheduler("/nonexistent/file.dat", models.NewClientStore(), &testutil.MockCompressor{}, nil)
	assert.NoError(t, s.Restore())
}

func TestScheduler_Restore_CorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.dat")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	s, _, _ := newTestScheduler(path, models.NewClientStore(), &testutil.MockCompressor{}, nil)
	assert.Error(t, s.Restore())
}

func TestScheduler_Persist_WriteError(t *testing.T) {
	comp := &testutil.MockCompressor{
		CompressFn: func([]byte) ([]byte, error) {
			return nil, errors.New("compress error")
		},
	}
	s, _, logger := newTestScheduler(filepath.Join(t.TempDir(), "x.dat"), models.NewClientStore(), comp, nil)

	assert.Error(t, s.Persist())
	assert.Equal(t, 1, logger.Count("error"))
}

func TestScheduler_StopNilCron(t *testing.T) {
	s, _, _ := newTestScheduler("/tmp/test.dat", models.NewClientStore(), &testutil.MockCompressor{}, nil)
	s.Stop()
}

func TestScheduler_TicksPersistDirtyStoreAndEvict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tick.dat")
	store := models.NewClientStore()
	store.Set("k", []byte("v"))
	evictor := &countingEvictor{}

	s, _, _ := newTestScheduler(path, store, &testutil.MockCompressor{}, evictor)
	s.Init()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil && evictor.calls.Load() > 0
	}, 3*time.Second, 50*time.Millisecond)
	assert.False(t, store.Dirty())
}

func TestScheduler_CleanStoreIsNotWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clean.dat")
	s, metrics, _ := newTestScheduler(path, models.NewClientStore(), &testutil.MockCompressor{}, nil)
	s.Init()
	time.Sleep(1200 * time.Millisecond)
	s.Stop()

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, 0, metrics.PersistenceCalls)
}
