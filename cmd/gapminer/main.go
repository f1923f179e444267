////////////////////////////////////////////////////////////////////////////
// Program: gapminer
// Purpose: mining control panel for a Gapcoin node
////////////////////////////////////////////////////////////////////////////

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AGPFMiner/gapminer/clients/node"
	"github.com/AGPFMiner/gapminer/miner"
	"github.com/AGPFMiner/gapminer/mining"
	"github.com/AGPFMiner/gapminer/notary"
	"github.com/AGPFMiner/gapminer/panel"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"
)

////////////////////////////////////////////////////////////////////////////
// Constant and data type/structure definitions

const version = "0.2.0"

const defaultPanelLog = "gapminer.log"

var v = viper.New()

// The main command runs the miner headless.
var mainCmd = &cobra.Command{
	Use:          "gapminer",
	Short:        "Mining panel for a Gapcoin node",
	Long:         `Starts, stops and watches the prime gap miner of a Gapcoin node.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mine(false)
	},
}

var panelCmd = &cobra.Command{
	Use:   "panel",
	Short: "Run the terminal mining panel.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return mine(true)
	},
}

var notaryCmd = &cobra.Command{
	Use:   "notary-id <file>",
	Short: "Print the notarization ID (SHA-256) of a file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := notary.HashFile(args[0])
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

// The version command prints this service.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	mainCmd.AddCommand(panelCmd, notaryCmd, versionCmd)
	setDefaults(v)
	if err := bindFlags(mainCmd.PersistentFlags(), v); err != nil {
		panic(err)
	}
}

////////////////////////////////////////////////////////////////////////////
// Main

func main() {
	if err := mainCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

////////////////////////////////////////////////////////////////////////////
// Function definitions

func mine(withPanel bool) error {
	cfgFile, err := readConfig(v)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	cfg, err := decodeConfig(v)
	if err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	logPath := cfg.LogFile
	if withPanel && logPath == "" {
		logPath = defaultPanelLog
	}
	logger, err := miner.NewLogger(cfg.LogLevel, logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer logger.Sync()
	if cfgFile == "" {
		logger.Info("no config file found, using built-in defaults")
	} else {
		logger.Info("config file loaded", zap.String("file", cfgFile))
	}

	bridge := panel.NewBridge()
	var prompt mining.PassphrasePrompt
	if cfg.Node.WalletPassphrase == "" {
		if withPanel {
			prompt = bridge
		} else if term.IsTerminal(int(os.Stdin.Fd())) {
			prompt = mining.PromptFunc(ttyPassphrase)
		}
	}

	cli, err := node.New(cfg.Node, prompt, logger.Named("node"))
	if err != nil {
		return err
	}
	defer cli.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if info, err := cli.MiningInfo(ctx); err != nil {
		logger.Warn("node not answering yet", zap.Error(err))
	} else {
		logger.Info("node mining info",
			zap.Bool("generate", info.Generate),
			zap.Int32("genproclimit", info.GenProcLimit),
			zap.Int64("blocks", info.Blocks))
	}

	m := miner.New(mining.ArgsFromBackend(cli, miningConfig(cfg), logger), minerOptions(cfg))

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config file changed", zap.String("file", e.Name))
		next, err := decodeConfig(v)
		if err != nil {
			logger.Warn("ignoring invalid config", zap.Error(err))
			return
		}
		if err := m.Reload(ctx, reloadArgs(next)); err != nil {
			logger.Warn("reload failed", zap.Error(err))
		}
	})

	if cfg.WebEnable {
		srv := &http.Server{Addr: cfg.WebListen, Handler: miner.NewRouter(m)}
		go func() {
			logger.Info("api listening", zap.String("addr", cfg.WebListen))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("api server failed", zap.Error(err))
				cancel()
			}
		}()
		defer func() {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if !withPanel {
		return m.Run(ctx)
	}

	m.AddView(bridge)
	p := tea.NewProgram(panel.NewModel(m, cfg.Chart), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	loopErr := make(chan error, 1)
	go func() { loopErr <- m.Run(ctx) }()

	_, err = p.Run()
	cancel()
	if lerr := <-loopErr; lerr != nil {
		logger.Warn("miner loop", zap.Error(lerr))
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// ttyPassphrase reads the wallet passphrase without echo. An empty answer
// declines the unlock.
func ttyPassphrase(ctx context.Context) (string, error) {
	fmt.Fprint(os.Stderr, "Wallet passphrase (empty to cancel): ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if len(pass) == 0 {
		return "", mining.ErrUnlockDeclined
	}
	return string(pass), nil
}
