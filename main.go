package main

import (
	"context"
	"os"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/butcherhq/butcherbot/internal/bot"
	"github.com/butcherhq/butcherbot/internal/config"
	"github.com/butcherhq/butcherbot/internal/db/sqlite"
	"github.com/butcherhq/butcherbot/internal/handlers"
	"github.com/butcherhq/butcherbot/internal/handlers/configmenu"
	"github.com/butcherhq/butcherbot/internal/infra"
	"github.com/butcherhq/butcherbot/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetFormatter(&config.BbFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
		log.WithError(err).Warnln("cant initialize observability")
	}

	infra.GoRecoverable(-1, "process_updates", func() {
		defer cancelFunc()

		botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
		if err != nil {
			log.WithError(err).Errorln("cant initialize bot api")
			time.Sleep(1 * time.Second)
			log.Fatalln("exiting")
		}
		if log.Level(cfg.LogLevel) == log.TraceLevel {
			botAPI.Debug = true
		}
		defer botAPI.StopReceivingUpdates()

		dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), "bot.db")
		if err != nil {
			log.WithError(err).Fatalln("cant initialize database")
		}
		defer dbClient.Close()

		service := bot.NewService(botAPI, dbClient, cfg)
		if err := service.LoadSudoers(ctx); err != nil {
			log.WithError(err).Errorln("cant load sudoers")
		}

		handlers.RegisterAll()
		modules, err := bot.ActiveModules(service)
		if err != nil {
			log.WithError(err).Fatalln("cant build module set")
		}

		dispatcher := bot.NewDispatcher(service)
		dispatcher.Activate(modules)
		for _, m := range modules {
			if menu, ok := m.(*configmenu.ConfigMenu); ok {
				dispatcher.SetGate(menu.Gate)
				dispatcher.SetUsageRecorder(menu.RecordUsage)
				break
			}
		}

		updateConfig := api.NewUpdate(0)
		updateConfig.Timeout = 60
		updateConfig.AllowedUpdates = []string{
			"message", "edited_message", "callback_query", "chat_member", "my_chat_member",
		}

		updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)
		for {
			select {
			case err := <-errorChan:
				log.WithError(err).Fatalln("bot api get updates error")
			case update := <-updateChan:
				if err := dispatcher.Dispatch(ctx, &update); err != nil {
					log.WithError(err).Errorln("cant dispatch update")
				}
			case <-ctx.Done():
				log.WithError(ctx.Err()).Errorln("no more updates")
				return
			}
		}
	})

	select {
	case <-infra.MonitorExecutable(ctx):
		log.Errorln("executable file was modified, exiting")
	case <-ctx.Done():
	}
	os.Exit(0)
}
