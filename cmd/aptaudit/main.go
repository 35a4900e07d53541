// Command aptaudit is the command-line client for the apartment audit server.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/persistorai/aptaudit/client"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

const defaultURL = "http://localhost:3040"

var (
	apiClient *client.Client
	flagURL   string
	flagActor string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("aptaudit version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("aptaudit version %s-dev", version)
}

type configFile struct {
	URL           string                   `yaml:"url"`
	Actor         string                   `yaml:"actor"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL   string `yaml:"url"`
	Actor string `yaml:"actor"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "aptaudit",
		Short:   "aptaudit CLI: run apartment check-in and check-out audits",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagActor != "" {
				opts = append(opts, client.WithActor(flagActor))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultURL, "Server URL (env: APTAUDIT_URL)")
	rootCmd.PersistentFlags().StringVar(&flagActor, "actor", "", "Who is performing the audit (env: APTAUDIT_ACTOR)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table|quiet")

	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newAnswerCmd())
	rootCmd.AddCommand(newActivityCmd())
	rootCmd.AddCommand(newHealthCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultURL {
		if v := os.Getenv("APTAUDIT_URL"); v != "" {
			flagURL = v
		}
	}
	if flagActor == "" {
		flagActor = os.Getenv("APTAUDIT_ACTOR")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	data, err := os.ReadFile(filepath.Join(home, ".aptaudit", "config.yaml"))
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}

	resolvedURL, resolvedActor := cfg.URL, cfg.Actor
	if cfg.Profiles != nil {
		profileName := cfg.ActiveProfile
		if profileName == "" {
			profileName = "default"
		}
		if p, ok := cfg.Profiles[profileName]; ok {
			if p.URL != "" {
				resolvedURL = p.URL
			}
			if p.Actor != "" {
				resolvedActor = p.Actor
			}
		}
	}
	if flagURL == defaultURL && resolvedURL != "" {
		flagURL = resolvedURL
	}
	if flagActor == "" && resolvedActor != "" {
		flagActor = resolvedActor
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
