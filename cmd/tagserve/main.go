// Copyright 2025 The TagServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the tag completion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

TagServe completes tags inside the YAML frontmatter of markdown notes. It
finds the tags field under the cursor, extracts the partial tag being typed,
fuzzy ranks the tags already used across a vault and writes the chosen one
back in the syntax of the field, either a quoted inline list entry or a new
block list item.

# Usage

Serve completions for the notes in the current directory:

	tagserve

Use another vault and enable debug mode:

	tagserve -vault ~/notes -d

Run as a language server for editors that speak LSP:

	tagserve -lsp

Run in CLI mode for interactive testing:

	tagserve -c -limit 10

# Configuration

Runtime configuration lives in a TOML file in the user config dir, created
with defaults when missing:

	[settings]
	match_color = "#ff0000"

	[server]
	max_limit = 64
	default_limit = 20
	max_query = 120

	[vault]
	root = ""
	extensions = [".md"]
	watch = true

Only match_color changes at runtime, through the set_color request or the
LSP workspace settings; it is saved back to the same file.

# IPC Protocol

The default mode speaks MessagePack over stdin/stdout. A completion request
carries the whole note and the cursor:

	{"id": "req1", "text": "tags: wo", "ln": 0, "ch": 8}

The response holds the ranked tags and the span the query occupies:

	{"id": "req1", "s": [{"w": "work", "d": "...", "r": 1}], "m": "inline", "q": "wo", "sl": 0, "sc": 6, "ec": 8, "c": 1, "t": 52}

See package server for the other actions.

# Command Line Flags

	-vault string
	    Directory holding the notes (default: config or cwd)
	-config string
	    Config file to use instead of the default location
	-d  Enable debug mode with detailed logging
	-c  Run in CLI mode instead of server mode
	-lsp
	    Run as a language server over stdio
	-limit int
	    Number of suggestions to return in CLI mode
	-no-watch
	    Index the vault once and skip watching it for changes

Logs always go to stderr; stdout carries protocol traffic only.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/tagserve/internal/cli"
	"github.com/bastiangx/tagserve/internal/logger"
	"github.com/bastiangx/tagserve/internal/lsp"
	"github.com/bastiangx/tagserve/internal/utils"
	"github.com/bastiangx/tagserve/pkg/config"
	"github.com/bastiangx/tagserve/pkg/server"
	"github.com/bastiangx/tagserve/pkg/suggest"
	"github.com/bastiangx/tagserve/pkg/tags"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const (
	Version = "0.1.0-beta"
	AppName = "tagserve"
	gh      = "https://github.com/bastiangx/tagserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cancel()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires the packages together and only manages the flow.
func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	vaultDir := flag.String("vault", "", "Directory containing the notes (default: config vault.root or cwd)")
	configFile := flag.String("config", "", "Path to a custom config file")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	lspMode := flag.Bool("lsp", false, "Run as a language server over stdio")
	limit := flag.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return in CLI mode (default: config cli.default_limit)")
	noWatch := flag.Bool("no-watch", false, "Index the vault once without watching for changes")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(*debugMode)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	if *debugMode {
		for k, v := range pathResolver.GetRuntimeInfo() {
			log.Debug("runtime", k, v)
		}
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Warnf("Config unavailable, using defaults: %v", err)
		appConfig = config.DefaultConfig()
		configPath = ""
	}
	if configPath != "" {
		configPath = config.GetActiveConfigPath(configPath)
	}
	log.Debugf("Using config file: (%s)", configPath)
	store := config.NewStore(appConfig, configPath)
	*limit = flagOrConfig(flag.CommandLine, "limit", *limit, appConfig.CLI.DefaultLimit)

	requested := *vaultDir
	if requested == "" {
		requested = appConfig.Vault.Root
	}
	vault, err := pathResolver.ResolveVaultDir(requested)
	if err != nil {
		log.Fatalf("Failed to resolve vault dir: %v", err)
	}
	watch := appConfig.Vault.Watch && !*noWatch

	if *lspMode {
		runLSP(vault, appConfig, store, watch, *debugMode)
		return
	}

	index := tags.NewIndex()
	n, err := tags.Scan(vault, appConfig.Vault.Extensions, index)
	if err != nil {
		log.Warnf("Vault scan incomplete: %v", err)
	}
	log.Debugf("Indexed %d notes, %d tags", n, len(index.AllTags()))

	if watch {
		watcher := tags.NewWatcher(vault, appConfig.Vault.Extensions, index)
		if err := watcher.Start(ctx); err != nil {
			log.Warnf("Not watching vault: %v", err)
		} else {
			defer watcher.Stop()
		}
	}

	engine := suggest.NewEngine(index, store, suggest.WithMaxQuery(appConfig.Server.MaxQuery))

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "limit", *limit, "vault", vault)

		inputHandler := cli.NewInputHandler(engine, store, *limit, os.Stdin, os.Stdout)
		if err := inputHandler.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(engine, store, os.Stdin, os.Stdout)

	showStartupInfo(vault, configPath, len(index.AllTags()))

	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// flagOrConfig returns the flag value when name was set on the command
// line, and the configured value otherwise.
func flagOrConfig(fs *flag.FlagSet, name string, flagValue, configured int) int {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	if set {
		return flagValue
	}
	return configured
}

func runLSP(vault string, cfg *config.Config, store *config.Store, watch, debug bool) {
	verbosity := 0
	if debug {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	ls, err := lsp.NewServer(lsp.Options{
		Version:    Version,
		Root:       vault,
		Extensions: cfg.Vault.Extensions,
		Watch:      watch,
		Debug:      debug,
		Store:      store,
	})
	if err != nil {
		log.Fatalf("Failed to create language server: %v", err)
	}
	if err := ls.RunStdio(); err != nil {
		log.Fatalf("Language server stopped: %v", err)
	}
}

func printVersion() {
	banner := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print("[ TagServe ] Frontmatter tag completions for your notes")
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
// It writes to stderr so the IPC stream stays clean.
func showStartupInfo(vault, configPath string, tagCount int) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintln(os.Stderr, " TagServe ")
	fmt.Fprintln(os.Stderr, "==========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Infof("vault: ( %s )", vault)
	log.Infof("config: ( %s )", configPath)
	log.Infof("tags: %d", tagCount)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "==========")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
