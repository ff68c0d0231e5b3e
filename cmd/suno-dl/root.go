package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/sunodl/suno-dl/internal/config"
	"github.com/sunodl/suno-dl/internal/download"
)

var version = "dev"

// defaultConfigPath is where the downloader looks for settings when
// --config is not given. A missing file just means defaults.
const defaultConfigPath = "suno-dl.toml"

var (
	flagToken          string
	flagConfig         string
	flagOutput         string
	flagWorkers        int
	flagNoThumbnail    bool
	flagNoResume       bool
	flagProxies        []string
	flagProxyStrategy  string
	flagPlaylist       bool
	flagPlaylistFormat string
	flagDryRun         bool
	flagVerbose        bool
)

var (
	errStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFE66D"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#95E1A3"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A8DADC"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C757D"))
)

var rootCmd = &cobra.Command{
	Use:   "suno-dl",
	Short: "Download your whole Suno library",
	Long: `suno-dl - bulk downloader for Suno music libraries

Downloads every song in the account the token belongs to: oldest
first, tagged with title, artist and cover art, resumable across
runs. Interrupting with Ctrl-C lets songs already in flight finish.

For interactive mode, use: suno-tui

Examples:
  suno-dl --token "$(cat token.txt)"    # Download everything
  SUNO_TOKEN=... suno-dl --playlist     # Token from the environment
  suno-dl --dry-run --verbose           # Preview without downloading
  suno-dl init                          # Write a config template`,
	Args:          cobra.NoArgs,
	RunE:          runRoot,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagToken, "token", "", "Suno API bearer token (falls back to $SUNO_TOKEN)")
	flags.StringVar(&flagConfig, "config", "", `Path to config file (default "suno-dl.toml")`)
	flags.StringVarP(&flagOutput, "output", "o", "", "Output directory")
	flags.IntVarP(&flagWorkers, "workers", "w", 0, "Concurrent downloads")
	flags.BoolVar(&flagNoThumbnail, "no-thumbnail", false, "Skip embedding cover art")
	flags.BoolVar(&flagNoResume, "no-resume", false, "Ignore previous download state")
	flags.StringSliceVar(&flagProxies, "proxy", nil, "Proxy URL (repeatable)")
	flags.StringVar(&flagProxyStrategy, "proxy-strategy", "", "Proxy selection: rotate, sticky or random")
	flags.BoolVar(&flagPlaylist, "playlist", false, "Write a playlist of the downloaded songs")
	flags.StringVar(&flagPlaylistFormat, "playlist-format", "", "Playlist format: m3u or pls")
	flags.BoolVarP(&flagDryRun, "dry-run", "n", false, "Show what would happen without downloading")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Show per-song progress detail")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("suno-dl {{.Version}}\n")
}

// buildSettings layers the config file, the environment and the
// command line, in that order of increasing precedence.
func buildSettings(cmd *cobra.Command) (*config.Settings, error) {
	path := flagConfig
	if path == "" {
		path = defaultConfigPath
	}

	settings, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		settings.OutputDir = flagOutput
	}
	if flags.Changed("workers") {
		settings.MaxWorkers = flagWorkers
	}
	if flags.Changed("no-thumbnail") {
		settings.EmbedArtwork = !flagNoThumbnail
	}
	if flags.Changed("no-resume") {
		settings.Resume = !flagNoResume
	}
	if flags.Changed("proxy") {
		settings.Proxies = flagProxies
	}
	if flags.Changed("proxy-strategy") {
		settings.ProxyStrategy = flagProxyStrategy
	}
	if flags.Changed("playlist") {
		settings.CreatePlaylist = flagPlaylist
	}
	if flags.Changed("playlist-format") {
		settings.PlaylistFormat = flagPlaylistFormat
	}
	settings.DryRun = flagDryRun

	switch {
	case flagToken != "":
		settings.Token = flagToken
	case settings.Token == "":
		settings.Token = os.Getenv("SUNO_TOKEN")
	}
	if settings.Token == "" {
		return nil, fmt.Errorf("no API token: pass --token, set SUNO_TOKEN, or add token to %s", path)
	}

	if problems := settings.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintln(os.Stderr, errStyle.Render("config: "+p))
		}
		return nil, fmt.Errorf("invalid configuration (%d problems)", len(problems))
	}

	return settings, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	settings, err := buildSettings(cmd)
	if err != nil {
		return err
	}

	// Progress events carry the user-facing narrative; slog is for
	// diagnostics, so it stays quiet unless --verbose.
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	manager, err := download.NewManager(settings, logger, printEvent)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Println()
		fmt.Println(warnStyle.Render("Interrupted: finishing songs in flight (Ctrl-C again to abort)"))
		cancel()
		<-sigCh
		fmt.Println(errStyle.Render("Aborted."))
		os.Exit(130)
	}()

	fmt.Println(infoStyle.Render("🎵 Suno Library Downloader"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	summary, runErr := manager.Run(ctx)
	printFailureNote(summary, settings.OutputDir)

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, context.Canceled):
		os.Exit(130)
		return nil
	default:
		return runErr
	}
}

func printEvent(event download.ProgressEvent) {
	if event.Level == download.LevelVerbose && !flagVerbose {
		return
	}

	switch event.Level {
	case download.LevelError:
		fmt.Println(errStyle.Render("✗ " + event.Message))
	case download.LevelWarning:
		fmt.Println(warnStyle.Render("! " + event.Message))
	case download.LevelSuccess:
		fmt.Println(successStyle.Render("✓ " + event.Message))
	case download.LevelInfo:
		fmt.Println(infoStyle.Render("› " + event.Message))
	default:
		fmt.Println(dimStyle.Render("  " + event.Message))
	}
}

func printFailureNote(summary *download.Summary, outputDir string) {
	if summary == nil || summary.Failed == 0 {
		return
	}
	fmt.Println(warnStyle.Render(fmt.Sprintf(
		"%d songs failed; see the *_FAILED.txt files in %s", summary.Failed, outputDir)))
}
