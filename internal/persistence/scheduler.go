package persistence

import (
	"predictor/internal/models"
	"predictor/internal/persistence/interfaces"
	"predictor/internal/providers"
	"predictor/internal/structures"
	"sync"
	"time"

	"github.com/roylee0704/gron"
)

// IdleEvictor drops workspaces that have not been touched for a while and
// reports how many were dropped.
type IdleEvictor interface {
	EvictIdle() int
}

type Scheduler struct {
	config      *structures.Config
	logger      providers.Logger
	store       *models.ClientStore
	evictor     IdleEvictor
	fileManager *FileManager
	metrics     providers.MetricsProviderInterface
	cron        *gron.Cron
	opsMu       sync.Mutex
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Persistence.SaveInterval), func() {
		if !s.store.Dirty() {
			return
		}
		if err := s.save(); err != nil {
			return
		}
		s.logger.Debugf(providers.TypeApp, "Persisted client store to %s", s.config.Persistence.FilePath)
	})

	if s.evictor != nil && s.config.Predictor.EvictInterval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Predictor.EvictInterval), func() {
			s.opsMu.Lock()
			defer s.opsMu.Unlock()

			if n := s.evictor.EvictIdle(); n > 0 {
				s.logger.Infof(providers.TypeApp, "Evicted %d idle workspaces", n)
			}
		})
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

func (s *Scheduler) Restore() error {
	return s.fileManager.LoadFromFile(s.config.Persistence.FilePath)
}

// Persist writes the store unconditionally, used on shutdown.
func (s *Scheduler) Persist() error {
	s.logger.Infof(providers.TypeApp, "Persisting client store to file...")
	return s.save()
}

func (s *Scheduler) save() error {
	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	err := s.fileManager.SaveToFile(s.config.Persistence.FilePath)
	s.metrics.ObservePersistenceDuration(time.Since(start))
	if err != nil {
		s.logger.Errorf(providers.TypeApp, "Error while persisting data: %s", err)
		return err
	}
	return nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, store *models.ClientStore, evictor IdleEvictor, fileManager *FileManager, metrics providers.MetricsProviderInterface) interfaces.SchedulerInterface {
	return &Scheduler{
		config:      config,
		logger:      logger,
		store:       store,
		evictor:     evictor,
		fileManager: fileManager,
		metrics:     metrics,
	}
}
