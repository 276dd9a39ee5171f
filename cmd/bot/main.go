package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"interval_reminder_bot/internal/app"
	"interval_reminder_bot/internal/domain/session"
	"interval_reminder_bot/internal/infra/audio"
	"interval_reminder_bot/internal/infra/clock"
	"interval_reminder_bot/internal/infra/config"
	"interval_reminder_bot/internal/infra/logger"
	"interval_reminder_bot/internal/infra/scheduler"
	"interval_reminder_bot/internal/infra/stores"
	"interval_reminder_bot/internal/infra/telegram"
	"interval_reminder_bot/internal/infra/worker"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/telebot.v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not load application configuration")
	}
	logger.Init(cfg)
	mainLogger := logger.Component("main")

	mainLogger.WithFields(logrus.Fields{
		"log_level":    cfg.LogLevel,
		"environment":  cfg.Environment,
		"owner_id":     cfg.OwnerTelegramID,
		"store_driver": cfg.StoreDriver,
	}).Info("Interval reminder bot starting...")

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	defaults := session.Config{WorkMinutes: cfg.DefaultWorkMinutes, BreakMinutes: cfg.DefaultBreakMinutes}
	if err := defaults.Validate(); err != nil {
		mainLogger.WithError(err).Fatal("Invalid default cycle durations")
	}

	// Initialize stores
	fs := afero.NewOsFs()
	st, err := stores.Open(appCtx, cfg, fs, logger.Component("stores"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not open stores")
	}
	defer st.Close()

	// Initialize Telegram Bot
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) { // Global error handler
			entry := logger.Component("telebot").WithError(err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				entry = entry.WithFields(logrus.Fields{
					"message":   c.Text(),
					"sender_id": c.Sender().ID,
					"chat_id":   c.Chat().ID,
				})
			}
			entry.Error("Telebot error")
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	telegramClient := telegram.NewTelebotAdapter(bot)
	authorizer := telegram.NewChatAuthorizer(telegramClient, cfg.OwnerTelegramID, logger.Component("authorizer"))

	// Initialize the cycle core
	systemClock := clock.System{}
	effects := worker.NewQueue(appCtx, logger.Component("effects"))
	anchor := app.NewPersistentAnchor(st.State)
	reminderScheduler := app.NewReminderScheduler(
		st.Reminders,
		app.DefaultReminderMessages(cfg.ReminderTitle),
		logger.Component("reminder_scheduler"),
	)
	machine := app.NewCycleMachine(
		systemClock,
		anchor,
		reminderScheduler,
		st.Reminders,
		newSoundPlayer(fs, cfg),
		effects,
		logger.Component("cycle_machine"),
		defaults,
	)

	view, err := machine.Recover(appCtx, systemClock.Now())
	if err != nil {
		mainLogger.WithError(err).Error("Session anchor unavailable, starting Idle")
	}
	mainLogger.WithFields(logrus.Fields{
		"phase":     view.Phase,
		"remaining": view.Remaining.String(),
	}).Info("Cycle state initialized")

	if !authorizer.Check(appCtx) {
		mainLogger.Warn("Notifications are disabled: the owner has not started a chat with the bot")
	}

	go logEvents(machine.Subscribe(16), logger.Component("events"))

	dispatcher := app.NewReminderDispatcherImpl(st.Reminders, telegramClient, systemClock, cfg.OwnerTelegramID, logger.Component("dispatcher"))
	controlService := app.NewControlService(machine, authorizer, systemClock, cfg.OwnerTelegramID, defaults)

	// Initialize CycleScheduler
	cycleScheduler := scheduler.NewCycleScheduler(
		machine,
		dispatcher,
		systemClock,
		logger.Component("scheduler"),
		cfg.CronSpecTick,
		cfg.CronSpecDispatch,
	)
	if err := cycleScheduler.Start(); err != nil {
		mainLogger.WithError(err).Fatal("Could not start cycle scheduler")
	}

	// Register Handlers
	handlerLogger := logger.Component("telegram")
	telegram.RegisterBotCommands(bot, cfg.OwnerTelegramID, defaults, handlerLogger)
	telegram.RegisterCycleHandlers(appCtx, bot, controlService, cfg.OwnerTelegramID, handlerLogger)
	telegram.RegisterReminderResponseHandlers(appCtx, bot, controlService, cfg.OwnerTelegramID, handlerLogger)
	mainLogger.Info("Command handlers registered.")

	mainLogger.Info("Application setup complete. Bot and Scheduler are starting...")

	// Start bot in a goroutine so it doesn't block graceful shutdown handling
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	mainLogger.Info("Shutting down application...")
	bot.Stop()
	cycleScheduler.Stop()
	effects.Wait() // Flush pending anchor writes and reminder updates
	machine.Close()
	cancelApp()
	<-effects.Done()
	mainLogger.Info("Application shut down gracefully.")
}

func newSoundPlayer(fs afero.Fs, cfg *config.AppConfig) app.SoundPlayer {
	audioLogger := logger.Component("audio")
	files := map[app.Cue]string{
		app.WorkEndCue:  cfg.SoundWorkEnd,
		app.BreakEndCue: cfg.SoundBreakEnd,
	}
	if files[app.WorkEndCue] == "" && files[app.BreakEndCue] == "" {
		audioLogger.Info("No cue files configured, phase ends are logged only")
		return audio.LogPlayer{Logger: audioLogger}
	}

	player, err := audio.NewBeepPlayer(fs, files, audioLogger)
	if err != nil {
		audioLogger.WithError(err).Warn("Audio unavailable, phase ends are logged only")
		return audio.LogPlayer{Logger: audioLogger}
	}
	player.SetVolume(cfg.SoundVolume)
	return player
}

func logEvents(events <-chan app.Event, log *logrus.Entry) {
	for ev := range events {
		log.WithFields(logrus.Fields{
			"event":       ev.Type,
			"phase":       ev.Phase,
			"remaining":   ev.Remaining.String(),
			"end_instant": ev.EndInstant.Format(time.RFC3339),
		}).Info("Cycle event")
	}
}
