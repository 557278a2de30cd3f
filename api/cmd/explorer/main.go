package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/pflag"

	"robot-explorer/api/internal/config"
	"robot-explorer/api/internal/explore"
	"robot-explorer/api/internal/handle"
	"robot-explorer/api/internal/httpserver"
	"robot-explorer/api/internal/images"
	"robot-explorer/api/internal/store"
	"robot-explorer/api/internal/telegram"
	"robot-explorer/api/internal/vision"
	"robot-explorer/api/internal/vision/gemini"
	"robot-explorer/api/internal/vision/openai"
	"robot-explorer/api/internal/vision/yandex"
)

func main() {
	var (
		configPath = pflag.String("config", os.Getenv("EXPLORER_CONFIG"), "YAML config file")
		port       = pflag.String("port", "", "HTTP port (overrides PORT)")
		detector   = pflag.String("detector", "", "gemini | gpt | yandex | none (overrides DETECTOR)")
		storeKind  = pflag.String("store", "", "postgres | sqlite | memory (overrides STORE)")
	)
	pflag.Parse()

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *detector != "" {
		cfg.Detector = *detector
	}
	if *storeKind != "" {
		cfg.Store = *storeKind
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatal(err)
	}
}

// run wires every component and blocks until ctx is cancelled. Resources it
// opens are released before it returns.
func run(ctx context.Context, cfg *config.Config) error {
	// --- Store ---
	var dsn string
	if cfg.Store == "postgres" {
		dsn = cfg.ResolveDSN()
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st, err := store.Open(openCtx, cfg.Store, dsn, cfg.SQLitePath)
	cancel()
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("store: close: %v", err)
		}
	}()
	switch cfg.Store {
	case "postgres":
		log.Printf("store: postgres %s", store.SafeDSNSummary(dsn))
	case "sqlite":
		log.Printf("store: sqlite %s", cfg.SQLitePath)
	default:
		log.Printf("store: %s (state is lost on restart)", cfg.Store)
	}

	ctl, err := explore.Open(ctx, st)
	if err != nil {
		return fmt.Errorf("explore: %w", err)
	}
	status := ctl.QueryStatus()
	log.Printf("explore: resumed at %s state=%s visited=%d frontier=%d",
		status.CurrentPosition, status.Phase, status.VisitedCount, status.FrontierCount)

	// --- Detector ---
	dets := &vision.Detectors{
		Gemini: gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel),
		OpenAI: openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		Yandex: yandex.New(cfg.YCOAuthToken, cfg.YCFolderID),
	}
	det, err := dets.GetDetector(cfg.Detector)
	if err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	log.Printf("vision: using %s detector", det.Name())

	imgs, err := images.New(cfg.UploadDir)
	if err != nil {
		return err
	}

	opts := handle.Options{
		DetectTimeout: cfg.DetectTimeout(),
		MaxImageBytes: cfg.MaxImageBytes,
		Health:        st,
	}

	// --- Telegram operator bot (optional) ---
	if cfg.TelegramBotToken != "" {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		bot.Debug = false
		router := telegram.NewRouter(bot, ctl, cfg.TelegramChatID)
		opts.Alert = router
		go router.Run(ctx)
		log.Printf("telegram: operator bot @%s, alerts to chat %d", bot.Self.UserName, cfg.TelegramChatID)
	}

	mux := http.NewServeMux()
	handle.New(ctl, det, imgs, opts).Routes(mux)

	addr := fmt.Sprintf("0.0.0.0:%s", cfg.Port)
	if err := httpserver.Run(ctx, addr, mux); err != nil {
		return fmt.Errorf("http: %w", err)
	}
	return nil
}
