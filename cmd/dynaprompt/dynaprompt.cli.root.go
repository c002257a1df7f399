package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsatony/go-dynaprompt"
)

// cli carries the streams and configuration of one invocation
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	v       *viper.Viper
	logger  *zap.Logger
	metrics *dynaprompt.Metrics
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(ConfigKeyFormat, FlagDefaultFormat)
	v.SetDefault(ConfigKeyAddr, FlagDefaultAddr)

	return &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		v:      v,
		logger: zap.NewNop(),
	}
}

// exitError carries an exit code. A nil err exits silently.
type exitError struct {
	code int
	msg  string
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func usageError(msg string, err error) error {
	return &exitError{code: ExitCodeUsageError, msg: msg, err: err}
}

func inputError(msg string, err error) error {
	return &exitError{code: ExitCodeInputError, msg: msg, err: err}
}

func runtimeError(msg string, err error) error {
	return &exitError{code: ExitCodeError, msg: msg, err: err}
}

// rejected signals an invalid prompt whose details were already printed
func rejected() error {
	return &exitError{code: ExitCodeValidationError}
}

// exitCodeFor prints err and maps it to an exit code. Errors that are not
// exitErrors come from cobra's argument and flag parsing.
func exitCodeFor(err error, stderr io.Writer) int {
	if err == nil {
		return ExitCodeSuccess
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		fmt.Fprintf(stderr, FmtError, err)
		return ExitCodeUsageError
	}
	if ee.msg != "" {
		fmt.Fprintf(stderr, FmtError, ee.Error())
	}
	return ee.code
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   CLIName,
		Short: CLIShort,
		Long: `dynaprompt expands prompts written in the variation syntax:

  a [red, blue] car          one prompt per bracket option
  a car | a truck            one prompt per pipe step
  a _hero_ in _city_         one random entry per wildcard

Configuration is read from flags, DYNAPROMPT_* environment variables,
an optional .env file and an optional YAML file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String(FlagConfig, "", "YAML config file")
	flags.String(FlagEnvFile, DefaultEnvFile, "env file loaded before reading DYNAPROMPT_* variables")
	flags.BoolP(FlagVerbose, FlagVerboseShort, false, "debug logging to stderr")
	flags.StringP(FlagFormat, FlagFormatShort, FlagDefaultFormat, "output format: text, json")
	flags.StringP(FlagStore, FlagStoreShort, "", "wildcard store driver: "+strings.Join(dynaprompt.ListStorageDrivers(), ", "))
	flags.String(FlagDSN, "", "store connection string (directory, file or URL)")
	flags.String(FlagLimits, "", "YAML file with expansion limits")
	flags.StringSlice(FlagDisable, nil, "syntaxes treated as text: bracket, pipe, wildcard")

	for key, flag := range map[string]string{
		ConfigKeyVerbose: FlagVerbose,
		ConfigKeyFormat:  FlagFormat,
		ConfigKeyStore:   FlagStore,
		ConfigKeyDSN:     FlagDSN,
		ConfigKeyLimits:  FlagLimits,
		ConfigKeyDisable: FlagDisable,
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError(err.Error(), nil)
	})

	root.AddCommand(
		newTokenizeCmd(c),
		newValidateCmd(c),
		newExpandCmd(c),
		newAnalyzeCmd(c),
		newWildcardsCmd(c),
		newServeCmd(c),
		newVersionCmd(c),
	)
	return root
}

// setup loads the env file and config file and builds the logger
func (c *cli) setup(cmd *cobra.Command) error {
	envFile, _ := cmd.Flags().GetString(FlagEnvFile)
	if err := loadEnvFile(envFile, cmd.Flags().Changed(FlagEnvFile)); err != nil {
		return inputError(ErrMsgEnvFileFailed, err)
	}

	if path, _ := cmd.Flags().GetString(FlagConfig); path != "" {
		c.v.SetConfigFile(path)
		if err := c.v.ReadInConfig(); err != nil {
			return inputError(ErrMsgConfigFileFailed, err)
		}
	}

	switch c.v.GetString(ConfigKeyFormat) {
	case OutputFormatText, OutputFormatJSON:
	default:
		return usageError(ErrMsgInvalidFormat, errors.New(c.v.GetString(ConfigKeyFormat)))
	}

	c.logger = newLogger(c.stderr, c.v.GetBool(ConfigKeyVerbose))
	return nil
}

// loadEnvFile loads path into the environment without overriding
// variables already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

// newLogger writes warnings as JSON, or everything in console format when
// verbose
func newLogger(w io.Writer, verbose bool) *zap.Logger {
	if verbose {
		encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel))
	}
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.WarnLevel))
}

func (c *cli) jsonOutput() bool {
	return c.v.GetString(ConfigKeyFormat) == OutputFormatJSON
}

// openStore opens the configured store, or returns nil when none is set
func (c *cli) openStore() (dynaprompt.WildcardStore, error) {
	driver := c.v.GetString(ConfigKeyStore)
	if driver == "" {
		return nil, nil
	}
	var store dynaprompt.WildcardStore
	var err error
	if driver == dynaprompt.StorageDriverNameFilesystem {
		store, err = dynaprompt.NewFilesystemStorage(c.v.GetString(ConfigKeyDSN), dynaprompt.FilesystemOptions{
			Logger:  c.logger,
			Metrics: c.metrics,
		})
	} else {
		store, err = dynaprompt.OpenStorage(driver, c.v.GetString(ConfigKeyDSN))
	}
	if err != nil {
		return nil, runtimeError(ErrMsgStoreOpenFailed, err)
	}
	c.logger.Debug(LogMsgStoreOpened, zap.String(dynaprompt.LogFieldDriver, driver))
	return store, nil
}

// requireStore is openStore for commands that cannot run without a store
func (c *cli) requireStore() (dynaprompt.WildcardStore, error) {
	store, err := c.openStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, usageError(ErrMsgStoreRequired, nil)
	}
	return store, nil
}

// expansionConfig applies the limits file and --disable to the defaults
func (c *cli) expansionConfig() (dynaprompt.ExpansionConfig, error) {
	cfg := dynaprompt.DefaultExpansionConfig()
	if path := c.v.GetString(ConfigKeyLimits); path != "" {
		loaded, err := dynaprompt.LoadConfigFile(path)
		if err != nil {
			return cfg, inputError(ErrMsgLimitsFailed, err)
		}
		cfg = loaded
	}

	if names := c.v.GetStringSlice(ConfigKeyDisable); len(names) > 0 {
		disabled, err := dynaprompt.ParseSyntaxSet(names)
		if err != nil {
			return cfg, usageError(ErrMsgInvalidDisable, err)
		}
		cfg.Disabled |= disabled
	}
	return cfg, nil
}

// newEngine builds an engine from the configuration. The caller closes
// the returned store when it is not nil.
func (c *cli) newEngine(opts ...dynaprompt.Option) (*dynaprompt.Engine, dynaprompt.WildcardStore, error) {
	cfg, err := c.expansionConfig()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.openStore()
	if err != nil {
		return nil, nil, err
	}

	base := []dynaprompt.Option{
		dynaprompt.WithConfig(cfg),
		dynaprompt.WithLogger(c.logger),
	}
	if store != nil {
		base = append(base, dynaprompt.WithStore(store))
	}
	if c.metrics != nil {
		base = append(base, dynaprompt.WithMetrics(c.metrics))
	}

	engine, err := dynaprompt.New(append(base, opts...)...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, usageError(ErrMsgEngineFailed, err)
	}
	return engine, store, nil
}

// closeStore closes a store that may be nil
func closeStore(store dynaprompt.WildcardStore) {
	if store != nil {
		_ = store.Close()
	}
}
