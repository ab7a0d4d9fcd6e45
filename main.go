package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"map-scraper/keywords"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AppVersion 版本号，会在编译时通过 -ldflags 注入
var AppVersion = "0.0.0"

const (
	// GithubRepo GitHub 仓库地址 "用户名/仓库名"
	GithubRepo = "SpySpaille/MapScraper"
)

var CLI struct {
	Map    string `arg:"" optional:"" name:"map" help:"Map source file (.vmf)." type:"existingfile"`
	Game   string `short:"g" help:"Game directory containing materials/, models/, sound/, scripts/ and maps/. Defaults to the last one used." type:"existingdir"`
	Output string `short:"o" help:"Output directory. Defaults to ./<mapname>." type:"path"`

	Sounds    bool `help:"Extract sounds." default:"true" negatable:""`
	Materials bool `help:"Extract materials." default:"true" negatable:""`
	Models    bool `help:"Extract models." default:"true" negatable:""`
	Publish   bool `help:"Extract the other files needed to publish the map (nav, ain, particles, thumbnail)." default:"true" negatable:""`

	Mount      []string `help:"Read-only archives (.vpk, .7z, .rar) searched after the game directory." type:"existingfile"`
	Ignore     string   `help:"gitignore-style list of output paths that are never copied." type:"existingfile"`
	Offline    bool     `help:"Do not use the network: bundled keyword lists, no version check."`
	GettersURL string   `name:"getters-url" help:"Where the keyword lists are fetched from." default:"${getters_url}"`
	Bspzip     string   `help:"Path to bspzip. Defaults to <game>/../bin/bspzip.exe." type:"path"`
	NoPack     bool     `help:"Do not pack files into the compiled .bsp."`
	Trash      bool     `help:"Move an existing output directory to the recycle bin instead of deleting it."`
	Workers    int      `help:"Number of concurrent file copies (0 = number of CPUs)." default:"0"`

	Forget        bool `help:"Forget the remembered game directory."`
	NoUpdateCheck bool `help:"Skip the new version check."`
	Debug         bool `help:"Whether to enable debug logging."`

	Version kong.VersionFlag `short:"v" help:"Print version information and exit."`
}

func writeError(err error) {
	fmt.Fprintln(os.Stderr, "\nAn error occurred, please report it.")
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	kong.Parse(&CLI,
		kong.Name("map-scraper"),
		kong.Description("Extract the materials, models, sounds and other files a Source map needs into a self-contained folder."),
		kong.UsageOnError(),
		kong.Vars{
			"version":     AppVersion,
			"getters_url": keywords.DefaultBaseURL,
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		writeError(err)
	}
}

func run(ctx context.Context) error {
	store, err := configStore()
	if err != nil {
		return err
	}

	if CLI.Forget {
		if err := store.Forget(); err != nil {
			return fmt.Errorf("forget game directory: %w", err)
		}
		log.Info().Msg("remembered game directory removed")
		if CLI.Map == "" {
			return nil
		}
	}

	if CLI.Map == "" {
		return fmt.Errorf("no map file given, see --help")
	}

	gameDir, err := resolveGameDir(store, CLI.Game)
	if err != nil {
		return err
	}

	// 离线模式下不访问任何网络
	if !CLI.NoUpdateCheck && !CLI.Offline {
		notifyUpdate(CheckUpdate())
	}

	app := NewApp(ctx, Options{
		MapFile:    CLI.Map,
		GameDir:    gameDir,
		OutputDir:  CLI.Output,
		Sounds:     CLI.Sounds,
		Materials:  CLI.Materials,
		Models:     CLI.Models,
		Publish:    CLI.Publish,
		Mounts:     CLI.Mount,
		IgnoreFile: CLI.Ignore,
		Offline:    CLI.Offline,
		GettersURL: CLI.GettersURL,
		Bspzip:     CLI.Bspzip,
		Pack:       !CLI.NoPack,
		Trash:      CLI.Trash,
		Workers:    CLI.Workers,
	}, log.Logger)
	defer app.Close()

	summary, err := app.Run()
	if err != nil {
		return err
	}

	printSummary(os.Stdout, summary)
	return nil
}
