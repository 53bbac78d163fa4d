package main

import (
	"io"
	"strings"

	"github.com/pion/logging"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jcorbin/scandl/deflist"
	"github.com/jcorbin/scandl/internal/socutil"
)

const configName = ".scandl.yaml"

type config struct {
	BlankPolicy string `mapstructure:"blank_policy"`
	LogLevel    string `mapstructure:"log_level"`
	Reference   string `mapstructure:"reference"`
	Output      string `mapstructure:"output"`
	Events      bool   `mapstructure:"events"`
	Stats       bool   `mapstructure:"stats"`

	// ConfigFile is the settings file read, if any.
	ConfigFile string `mapstructure:"-"`

	// Inputs are the positional arguments: files, doublestar patterns, or
	// "-" for stdin.
	Inputs []string `mapstructure:"-"`

	blankPolicy deflist.BlankLinePolicy
	logLevel    logging.LogLevel
}

var flagKeys = map[string]string{
	"blank-policy": "blank_policy",
	"log-level":    "log_level",
	"reference":    "reference",
	"output":       "output",
	"events":       "events",
	"stats":        "stats",
}

var references = []string{"goldmark", "blackfriday"}

// loadConfig parses command line flags, layering them over SCANDL_*
// environment variables, over any config file, over defaults.
func loadConfig(args []string, stderr io.Writer) (*config, error) {
	fs := pflag.NewFlagSet("scandl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		io.WriteString(stderr, "usage: scandl [flags] [FILE|PATTERN|-]...\n\n")
		fs.PrintDefaults()
	}

	configFile := fs.StringP("config", "c", "", "read settings from a YAML file instead of the nearest "+configName)
	fs.String("blank-policy", deflist.CloseAfterBlankStart.String(), "when blank lines close a description: "+
		deflist.CloseAfterBlankStart.String()+" or "+deflist.CloseAfterTwoBlanks.String())
	fs.String("log-level", "disabled", "scanner and resolver log level: disabled, error, warn, info, debug, or trace")
	fs.String("reference", "", "render with a reference converter instead: "+strings.Join(references, " or "))
	fs.StringP("output", "o", "", "atomically write output to this file instead of stdout")
	fs.Bool("events", false, "dump resolved events instead of rendering html")
	fs.Bool("stats", false, "report per input statistics to stderr")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SCANDL")
	v.AutomaticEnv()
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, errors.Wrapf(err, "could not bind --%s", name)
		}
	}

	if *configFile == "" {
		_, path, err := socutil.FindWDFile(configName)
		if err != nil {
			return nil, errors.Wrap(err, "could not search for "+configName)
		}
		*configFile = path
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "could not read config")
		}
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	cfg.ConfigFile = *configFile
	cfg.Inputs = fs.Args()
	return &cfg, cfg.validate()
}

func (cfg *config) validate() error {
	policy, ok := deflist.ParseBlankLinePolicy(cfg.BlankPolicy)
	if !ok {
		return errors.Errorf("invalid blank_policy %q", cfg.BlankPolicy)
	}
	cfg.blankPolicy = policy

	level, ok := parseLogLevel(cfg.LogLevel)
	if !ok {
		return errors.Errorf("invalid log_level %q", cfg.LogLevel)
	}
	cfg.logLevel = level

	if cfg.Reference != "" {
		found := false
		for _, name := range references {
			found = found || name == cfg.Reference
		}
		if !found {
			return errors.Errorf("invalid reference %q, want one of %v", cfg.Reference, references)
		}
		if cfg.Events {
			return errors.New("events may only be dumped without a reference converter")
		}
	}
	return nil
}

func parseLogLevel(s string) (logging.LogLevel, bool) {
	for _, level := range []logging.LogLevel{
		logging.LogLevelDisabled,
		logging.LogLevelError,
		logging.LogLevelWarn,
		logging.LogLevelInfo,
		logging.LogLevelDebug,
		logging.LogLevelTrace,
	} {
		if strings.EqualFold(level.String(), s) {
			return level, true
		}
	}
	return logging.LogLevelDisabled, false
}

func (cfg *config) options(stderr io.Writer) []deflist.Option {
	return []deflist.Option{
		deflist.WithBlankLinePolicy(cfg.blankPolicy),
		deflist.WithLoggerFactory(&logging.DefaultLoggerFactory{
			Writer:          stderr,
			DefaultLogLevel: cfg.logLevel,
			ScopeLevels:     map[string]logging.LogLevel{},
		}),
	}
}
