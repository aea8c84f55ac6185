package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	words         string
	countdownStep time.Duration
	roundPause    time.Duration
	maxRooms      int

	allowedOrigins []string

	natsURL     string
	natsSubject string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.countdownStep <= 0 || c.roundPause <= 0 {
		return errors.New("--countdown-step and --round-pause must be positive")
	}
	if c.sessionTimeout < 0 {
		return fmt.Errorf("invalid session timeout: %s", c.sessionTimeout)
	}
	if c.maxRooms < 0 {
		return fmt.Errorf("invalid room limit: %d", c.maxRooms)
	}
	if c.natsURL != "" && strings.TrimSpace(c.natsSubject) == "" {
		return errors.New("--nats-subject must not be empty when --nats-url is set")
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// originAllowed reports whether a browser origin may open a socket. An
// empty allow list admits everyone.
func (c *Config) originAllowed(origin string) bool {
	if len(c.allowedOrigins) == 0 || origin == "" {
		return true
	}
	return slices.Contains(c.allowedOrigins, "*") || slices.Contains(c.allowedOrigins, origin)
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("KANARACE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "kanarace",
		Short:         "A real-time Japanese typing race server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: KANARACE_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: KANARACE_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: KANARACE_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: KANARACE_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle rooms are closed, 0 to disable (env: KANARACE_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: KANARACE_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: KANARACE_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: KANARACE_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: KANARACE_VERSION)")

	fs.StringVarP(&cfg.words, "words", "w", "", "directory of word tier files, built-in tiers if unset (env: KANARACE_WORDS)")
	fs.DurationVar(&cfg.countdownStep, "countdown-step", time.Second, "time between countdown ticks (env: KANARACE_COUNTDOWN_STEP)")
	fs.DurationVar(&cfg.roundPause, "round-pause", 800*time.Millisecond, "pause between a round's result and the next word (env: KANARACE_ROUND_PAUSE)")
	fs.IntVar(&cfg.maxRooms, "max-rooms", 1000, "maximum number of open rooms, 0 for no limit (env: KANARACE_MAX_ROOMS)")
	fs.StringSliceVar(&cfg.allowedOrigins, "allowed-origins", nil, "origins allowed to connect, all if unset (env: KANARACE_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.natsURL, "nats-url", "", "NATS server to publish finished matches to (env: KANARACE_NATS_URL)")
	fs.StringVar(&cfg.natsSubject, "nats-subject", "kanarace", "subject prefix for published matches (env: KANARACE_NATS_SUBJECT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("kanarace v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
