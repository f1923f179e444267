package types

import "time"

// NodeConfig holds the connection settings for the node's RPC server.
type NodeConfig struct {
	Host             string        `mapstructure:"rpcconnect"`
	User             string        `mapstructure:"rpcuser"`
	Pass             string        `mapstructure:"rpcpass"`
	Cert             string        `mapstructure:"rpccert"`
	DisableTLS       bool          `mapstructure:"notls"`
	WalletPassphrase string        `mapstructure:"walletpassphrase"`
	UnlockTimeout    time.Duration `mapstructure:"unlock-timeout"`
}

// Config is the decoded form of the viper settings.
type Config struct {
	Node NodeConfig `mapstructure:",squash"`

	GenProcLimit int  `mapstructure:"genproclimit"`
	Generate     bool `mapstructure:"gen"`
	Chart        bool `mapstructure:"chart"`
	MiningKey    bool `mapstructure:"miningkey"`

	Sieve SieveParams `mapstructure:",squash"`

	StatsInterval    time.Duration `mapstructure:"stats-interval"`
	ChartInterval    time.Duration `mapstructure:"chart-interval"`
	ChartLookback    int           `mapstructure:"chart-lookback"`
	ChartWorkers     int           `mapstructure:"chart-workers"`
	HashrateLookback int           `mapstructure:"hashrate-lookback"`
	PowLimitBits     uint32        `mapstructure:"powlimitbits"`

	WebEnable bool   `mapstructure:"api-service"`
	WebListen string `mapstructure:"api-listen"`

	LogLevel string `mapstructure:"debug"`
	LogFile  string `mapstructure:"logfile"`
}
