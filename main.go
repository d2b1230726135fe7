package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"junkobot/conversation"
	"junkobot/core"
	"junkobot/factories"
	"junkobot/pipeline"
	"junkobot/transports/discord"

	"github.com/joho/godotenv"
)

func main() {
	var settingsPath string
	flag.StringVar(&settingsPath, "settings", "", "path to settings.json (optional; defaults are built in)")
	flag.Parse()

	logger := core.GetLogger()

	if err := godotenv.Load(".env.local"); err != nil {
		logger.With(map[string]any{"error": err}).Warn("No .env.local file found or failed to load")
	}

	settings := factories.DefaultSettingsConfig()
	if settingsPath != "" {
		var err error
		settings, err = factories.SettingsConfigFromFile(settingsPath)
		if err != nil {
			logger.With(map[string]any{"error": err}).Fatal("failed to load settings")
		}
	}

	keys := factories.APIKeysFromEnv()
	if err := keys.Validate(); err != nil {
		logger.With(map[string]any{"error": err}).Fatal("missing credentials")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completionClient, err := factories.BuildCompletionClient(settings, keys, logger)
	if err != nil {
		logger.With(map[string]any{"error": err}).Fatal("bad completion config")
	}
	if err := completionClient.Initialize(ctx); err != nil {
		logger.With(map[string]any{"error": err}).Fatal("failed to initialize completion client")
	}
	defer completionClient.Cleanup()

	synthesizer, err := factories.BuildSpeechSynthesizer(settings, keys, logger)
	if err != nil {
		logger.With(map[string]any{"error": err}).Fatal("bad speech config")
	}
	if err := synthesizer.Initialize(ctx); err != nil {
		logger.With(map[string]any{"error": err}).Fatal("failed to initialize speech synthesizer")
	}
	defer synthesizer.Cleanup()

	scraper, err := factories.BuildTimerScraper(settings, logger)
	if err != nil {
		logger.With(map[string]any{"error": err}).Fatal("bad scraper config")
	}

	gateway, err := discord.NewGateway(discord.Config{
		Token:  keys.DiscordToken,
		Prefix: settings.CommandPrefix,
	}, logger)
	if err != nil {
		logger.With(map[string]any{"error": err}).Fatal("failed to create gateway")
	}

	player := discord.NewPlayer(gateway.Voices(), logger)
	player.OnTrackDone = func(guildID string, trackName string) {
		logger.With(map[string]any{"guild": guildID, "track": trackName}).Debug("finished playing")
	}

	store := conversation.NewStore()
	relay := pipeline.New(store, completionClient, synthesizer, player, gateway, logger)

	gateway.SetDeps(discord.Deps{
		Pipeline: relay,
		Speech:   synthesizer,
		Sink:     player,
		Scraper:  scraper,
		Personas: settings.ResolvePersonas(),
		TTSVoice: settings.Profiles[settings.TTSProfile],
	})

	if err := gateway.Open(ctx); err != nil {
		logger.With(map[string]any{"error": err}).Fatal("failed to open gateway")
	}
	defer gateway.Close()

	logger.Info("junkobot is running, press Ctrl-C to exit")
	<-ctx.Done()
	logger.Info("shutting down")
}
