package main

import (
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/AGPFMiner/gapminer/chain"
	"github.com/AGPFMiner/gapminer/miner"
	"github.com/AGPFMiner/gapminer/types"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultConfigName = "gapminer"

var defaultRPCCert = filepath.Join(btcutil.AppDataDir("gapcoin", false), "rpc.cert")

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpcconnect", "localhost:31397")
	v.SetDefault("rpcuser", "")
	v.SetDefault("rpcpass", "")
	v.SetDefault("rpccert", defaultRPCCert)
	v.SetDefault("notls", true)
	v.SetDefault("walletpassphrase", "")
	v.SetDefault("unlock-timeout", "24h")

	v.SetDefault("genproclimit", -1)
	v.SetDefault("gen", false)
	v.SetDefault("chart", true)
	v.SetDefault("miningkey", false)
	v.SetDefault("shift", 20)
	v.SetDefault("sievesize", 0)
	v.SetDefault("sieveprimes", 30000)

	v.SetDefault("stats-interval", miner.DefaultStatsInterval.String())
	v.SetDefault("chart-interval", miner.DefaultChartInterval.String())
	v.SetDefault("chart-lookback", miner.DefaultChartLookback)
	v.SetDefault("chart-workers", miner.DefaultChartWorkers)
	v.SetDefault("hashrate-lookback", miner.DefaultHashrateLookback)
	v.SetDefault("powlimitbits", chain.DefaultPowLimitBits)

	v.SetDefault("api-service", false)
	v.SetDefault("api-listen", "127.0.0.1:1234")

	v.SetDefault("debug", "info")
	v.SetDefault("logfile", "")
}

// bindFlags registers the command line overrides of the most used keys.
func bindFlags(flags *pflag.FlagSet, v *viper.Viper) error {
	flags.String("cfg", "", "config file path")
	flags.String("rpcconnect", "", "node RPC host:port")
	flags.String("rpcuser", "", "node RPC user")
	flags.String("rpcpass", "", "node RPC password")
	flags.Bool("notls", true, "talk plain HTTP to the node")
	flags.Int("genproclimit", -1, "mining thread limit, -1 for one per CPU")
	flags.Bool("gen", false, "start mining at launch")
	flags.Bool("chart", true, "draw the difficulty and hashrate charts")
	flags.Bool("api-service", false, "serve the JSON-RPC and HTTP control API")
	flags.String("api-listen", "", "API listen address")
	flags.String("debug", "", "log level: debug, info, warn or error")
	flags.String("logfile", "", "write logs to this file")
	return v.BindPFlags(flags)
}

// readConfig loads the config file. A missing file is not an error; the
// defaults and flags still apply.
func readConfig(v *viper.Viper) (string, error) {
	if cfg := v.GetString("cfg"); cfg != "" {
		v.SetConfigFile(cfg)
	} else {
		v.SetConfigName(defaultConfigName) // name of config file (without extension)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.gapminer")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return cfg, err
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.Sieve = cfg.Sieve.WithDerivedSize()
	if err := cfg.Sieve.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// threadLimits resolves genproclimit against the CPU count. -1 means every
// CPU; any other value caps the thread count and starts with that many.
func threadLimits(genproclimit int) (threads, maxThreads int) {
	maxThreads = runtime.NumCPU()
	if genproclimit >= 0 && genproclimit < maxThreads {
		maxThreads = genproclimit
	}
	return maxThreads, maxThreads
}

func miningConfig(cfg types.Config) types.MiningConfig {
	threads, maxThreads := threadLimits(cfg.GenProcLimit)
	return types.MiningConfig{
		Threads:      threads,
		MaxThreads:   maxThreads,
		HasMiningKey: cfg.MiningKey,
		SieveParams:  cfg.Sieve,
	}
}

func minerOptions(cfg types.Config) miner.Options {
	return miner.Options{
		StatsInterval:    cfg.StatsInterval,
		HashrateLookback: cfg.HashrateLookback,
		Generate:         cfg.Generate,
		Chart: miner.ChartOptions{
			Enabled:          cfg.Chart,
			Window:           cfg.ChartLookback,
			HashrateLookback: cfg.HashrateLookback,
			Interval:         cfg.ChartInterval,
			Workers:          cfg.ChartWorkers,
			PowLimitBits:     cfg.PowLimitBits,
			Now:              time.Now,
		},
	}
}

func reloadArgs(cfg types.Config) miner.ReloadArgs {
	_, maxThreads := threadLimits(cfg.GenProcLimit)
	return miner.ReloadArgs{
		LogLevel:      cfg.LogLevel,
		Chart:         cfg.Chart,
		MaxThreads:    maxThreads,
		Sieve:         cfg.Sieve,
		StatsInterval: cfg.StatsInterval,
	}
}
