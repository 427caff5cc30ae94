package main

import (
	"focustrack-go/internal/config"
	"focustrack-go/internal/database"
	"focustrack-go/internal/logging"
	"focustrack-go/internal/points"
	"focustrack-go/internal/repository"
	"focustrack-go/internal/router"
	"focustrack-go/internal/services"

	"go.uber.org/zap"
)

func main() {
	// Load configuration first; the logger's rotation policy lives in it.
	if err := config.Init("."); err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	// Initialize Logger
	log, err := logging.Init(config.Conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	log.Info("Configuration loaded successfully")

	// Hot-reload config changes now that reload events can be logged.
	config.Watch(log)

	// Initialize Database
	database.Init(log)

	// Points engine over the gorm-backed ledger store
	engine := points.NewEngine(repository.NewPointsStore(), points.Config{
		AttentionMinMinutes:  config.Conf.Points.AttentionMinMinutes,
		AttentionMinScore:    config.Conf.Points.AttentionMinScore,
		AttentionBonus:       config.Conf.Points.AttentionBonus,
		HourlyBonus:          config.Conf.Points.HourlyBonus,
		AttendanceMinSeconds: config.Conf.Points.AttendanceMinSeconds,
		AttendanceBonus:      config.Conf.Points.AttendanceBonus,
		StreakInterval:       config.Conf.Points.StreakInterval,
		StreakBonus:          config.Conf.Points.StreakBonus,
	})

	// Per-session monitoring pipelines and the stale-session sweeper
	monitor := services.NewMonitor(log)
	sweeper := services.NewSweeper(log, monitor, engine)
	sweeper.Start()

	// Setup router, passing the logger to it
	r := router.Setup(log, monitor, engine)

	// Start the Gin server
	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
