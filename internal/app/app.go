package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/chrissnell/purpleaqi/internal/log"
	"github.com/chrissnell/purpleaqi/internal/managers"
	"github.com/chrissnell/purpleaqi/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown. SIGHUP reloads
// the sensor configuration.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize the sink manager
	sinkManager, err := managers.NewSinkManager(ctx, &wg, &cfgData.Storage, registry)
	if err != nil {
		return err
	}

	// Initialize the sensor manager
	sm, err := managers.NewSensorManager(ctx, &wg, a.configProvider, sinkManager.UpdateDistributor, a.logger)
	if err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, cfgData.Controllers, sinkManager.Memory, sm, registry, a.logger)
	if err != nil {
		return err
	}
	if err := cm.StartControllers(); err != nil {
		return err
	}

	if err := sm.StartSensors(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigs)

	for running := true; running; {
		select {
		case sig := <-sigs:
			if sig == syscall.SIGHUP {
				log.Info("SIGHUP received, reloading sensor configuration...")
				if err := sm.ReloadSensorsConfig(); err != nil {
					log.Errorf("could not reload sensor configuration: %v", err)
				}
				continue
			}
			log.Info("shutdown signal received, initiating graceful shutdown...")
			running = false
		case <-ctx.Done():
			log.Info("context cancelled, shutting down...")
			running = false
		}
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
