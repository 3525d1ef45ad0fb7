package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ratimics/operator/internal/ai"
	"github.com/ratimics/operator/internal/config"
	"github.com/ratimics/operator/internal/executor"
	"github.com/ratimics/operator/internal/input"
	"github.com/ratimics/operator/internal/journal"
	"github.com/ratimics/operator/internal/logging"
	"github.com/ratimics/operator/internal/recording"
	"github.com/ratimics/operator/internal/screenshot"
	"github.com/ratimics/operator/internal/window"
)

var (
	gameTitle string
	provider  string
	model     string
	logLevel  string
	logFormat string
	record    string
	maxLoops  int
)

func main() {
	// Load .env if present; a missing file is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "operator",
		Short: "Drive a game with an LLM perception-action loop",
		Long: `operator watches a game window, asks a remote model for a short burst
of timed input actions, and replays them on the OS input queue, looping
observe -> orient -> decide -> act until stopped.

Example:
  operator --game "Darkest Dungeon" --provider openrouter`,
		Args: cobra.NoArgs,
		RunE: run,
	}

	rootCmd.Flags().StringVar(&gameTitle, "game", "", "Game window title (default: from env or config)")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Planner provider: openrouter, claude, openai (default: from env or openrouter)")
	rootCmd.Flags().StringVar(&model, "model", "", "Specific model override")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&logFormat, "log-format", "", "Log format: text, json")
	rootCmd.Flags().StringVar(&record, "record", "", "Write a session GIF to this path on exit")
	rootCmd.Flags().IntVar(&maxLoops, "max-loops", 0, "Stop after this many loops (0 = run forever)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.FromEnv()
	if gameTitle != "" {
		cfg.GameTitle = gameTitle
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	log, err := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		return err
	}

	if err := cfg.EnsureDirs(); err != nil {
		return err
	}
	if err := journal.WriteManual(cfg.ManualPath(), cfg.GameTitle); err != nil {
		return fmt.Errorf("write manual: %w", err)
	}

	selectedProvider := provider
	if selectedProvider == "" {
		selectedProvider = os.Getenv("OPERATOR_PROVIDER")
	}
	planner, err := ai.NewProvider(selectedProvider, model)
	if err != nil {
		return fmt.Errorf("planner init failed: %w", err)
	}

	windows := window.New()
	capture := screenshot.New()
	keeper := journal.NewKeeper(cfg, log)
	exec := executor.New(input.New(), executor.Options{
		Log:         log,
		Windows:     windows,
		WindowTitle: cfg.GameTitle,
	})

	var rec *recording.Recorder
	if record != "" {
		rec = recording.New()
	}

	log.Info("starting agent", "game", cfg.GameTitle, "provider", selectedProvider)
	for i := 3; i > 0; i-- {
		log.Info(fmt.Sprintf("starting in %d...", i))
		time.Sleep(time.Second)
	}

	loop(cmd.Context(), log, cfg, planner, windows, capture, keeper, exec, rec)

	if rec != nil && rec.Len() > 0 {
		size, err := rec.Save(record, recording.Options{FrameDelayMS: 500, MaxWidth: 800})
		if err != nil {
			return fmt.Errorf("save session recording: %w", err)
		}
		log.Info("session recording saved", "path", record, "bytes", size)
	}
	return nil
}

func loop(ctx context.Context, log *slog.Logger, cfg config.Config, planner ai.Provider,
	windows window.Provider, capture screenshot.Provider, keeper *journal.Keeper,
	exec *executor.Executor, rec *recording.Recorder) {

	var (
		prevPlan       string
		prevAnalysis   string
		history        []ai.HistoryEntry
		screenshotLog  []string
		pinnedPath     string
		loopCount      int
	)

	for {
		if ctx.Err() != nil {
			return
		}
		loopCount++

		rect, err := windows.Rect(cfg.GameTitle)
		if err != nil {
			log.Error("window lookup failed", "game", cfg.GameTitle, "error", err)
			time.Sleep(time.Second)
			continue
		}

		path := filepath.Join(cfg.Paths.ScreenshotsDir, fmt.Sprintf("screenshot_%d.png", time.Now().Unix()))
		frame, err := screenshot.CaptureToFile(capture, rect, path, log)
		if err != nil {
			log.Error("screenshot capture failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		log.Info("screenshot saved", "path", path)

		screenshotLog = append(screenshotLog, path)
		if len(screenshotLog) > 5 {
			screenshotLog = screenshotLog[len(screenshotLog)-5:]
		}

		history = append(history, ai.HistoryEntry{Plan: prevPlan, Analysis: prevAnalysis})
		if len(history) > 5 {
			history = history[len(history)-5:]
		}

		journals := keeper.RecentJournals(3)
		latestJournal := ""
		if len(journals) > 0 {
			latestJournal = journals[0]
		}

		obs := ai.Observation{
			Screenshots:   loadFrames(log, pinnedPath, screenshotLog),
			ScreenWidth:   frame.Width,
			ScreenHeight:  frame.Height,
			Analysis:      prevAnalysis,
			PreviousPlan:  prevPlan,
			History:       history,
			Memory:        keeper.ReadMemory(),
			LatestJournal: latestJournal,
		}

		plan, err := planner.Plan(ctx, obs)
		if err != nil {
			log.Error("planner call failed", "error", err)
			plan = &ai.Plan{Analysis: fmt.Sprintf("planner call failed: %v", err)}
		}

		pinnedPath = resolvePinned(plan.PinnedScreenshot, screenshotLog, pinnedPath)

		log.Info("orient", "narrative", plan.Narrative, "plan", plan.Plan)
		log.Info("decide", "actions", len(plan.Actions))
		log.Info("analysis", "text", plan.Analysis)

		if len(plan.Actions) > 0 {
			exec.Execute(plan.Actions)
			log.Info("act", "executed", len(plan.Actions))
		}

		if rec != nil {
			var marker *recording.Marker
			if x, y, ok := exec.LastPointer(); ok {
				marker = &recording.Marker{X: x - rect.Left, Y: y - rect.Top}
			}
			if err := rec.Add(frame.PNG, marker); err != nil {
				log.Error("recording frame failed", "error", err)
			}
		}

		prevPlan = plan.Plan
		prevAnalysis = plan.Analysis

		entry := journal.Entry{
			Narrative: plan.Narrative,
			Plan:      plan.Plan,
			Analysis:  plan.Analysis,
			Actions:   plan.Actions,
		}
		if loopCount%10 == 0 {
			if jpath, err := keeper.WriteJournal(entry); err != nil {
				log.Error("journal write failed", "error", err)
			} else {
				log.Info("journal entry saved", "path", jpath)
			}
		}
		if spath, err := keeper.WriteRunSummary(entry); err != nil {
			log.Error("run summary write failed", "error", err)
		} else {
			log.Debug("run summary saved", "path", spath)
		}

		if maxLoops > 0 && loopCount >= maxLoops {
			return
		}
	}
}

// loadFrames reads the pinned screenshot (when set) followed by the most
// recent captures, downscaled for upload.
func loadFrames(log *slog.Logger, pinned string, paths []string) [][]byte {
	ordered := make([]string, 0, len(paths)+1)
	if pinned != "" && !contains(paths, pinned) {
		ordered = append(ordered, pinned)
	}
	ordered = append(ordered, paths...)

	var frames [][]byte
	for _, p := range ordered {
		data, err := os.ReadFile(p)
		if err != nil {
			log.Warn("failed to read screenshot", "path", p, "error", err)
			continue
		}
		scaled, err := screenshot.EncodeForModel(data)
		if err != nil {
			log.Warn("failed to scale screenshot", "path", p, "error", err)
			continue
		}
		frames = append(frames, scaled)
	}
	return frames
}

// resolvePinned maps the model's pin reference (index, path, or basename)
// onto a known screenshot path. Unresolvable references keep the previous pin.
func resolvePinned(ref *ai.PinnedRef, paths []string, current string) string {
	if ref == nil {
		return current
	}
	if ref.ByIdx {
		if ref.Index >= 0 && ref.Index < len(paths) {
			return paths[ref.Index]
		}
		return current
	}
	if ref.Name == "" {
		return current
	}
	if contains(paths, ref.Name) {
		return ref.Name
	}
	for _, p := range paths {
		if filepath.Base(p) == ref.Name {
			return p
		}
	}
	return current
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
