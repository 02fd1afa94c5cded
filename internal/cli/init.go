package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/pkg/models"
	"gopkg.in/yaml.v3"
)

var initForce bool

// configFile mirrors models.GlobalConfig for writing. Durations are kept as
// strings so the file reads "30s" rather than nanoseconds.
type configFile struct {
	Storage   models.StorageConfig `yaml:"storage"`
	Reminders struct {
		ScanInterval string `yaml:"scan_interval"`
		Expiry       string `yaml:"expiry"`
	} `yaml:"reminders"`
	Sound         models.SoundConfig         `yaml:"sound"`
	Voice         models.VoiceConfig         `yaml:"voice"`
	Notifications models.NotificationsConfig `yaml:"notifications"`
	Log           models.LogConfig           `yaml:"log"`
}

func newConfigFile(cfg *models.GlobalConfig) configFile {
	f := configFile{
		Storage:       cfg.Storage,
		Sound:         cfg.Sound,
		Voice:         cfg.Voice,
		Notifications: cfg.Notifications,
		Log:           cfg.Log,
	}
	f.Reminders.ScanInterval = cfg.Reminders.ScanInterval.String()
	f.Reminders.Expiry = cfg.Reminders.Expiry.String()
	return f
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default .routineconfig",
	Long: `Write a .routineconfig with the default settings into path (the current
routine home when omitted). An existing file is left alone unless --force is
given.

Point ROUTINE_HOME at the directory, or run routine from inside it, to use
the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := BasePath
		if len(args) > 0 {
			dir = args[0]
		}
		if dir == "" {
			dir = "."
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		path := filepath.Join(absDir, core.ConfigFileName)
		out := cmd.OutOrStdout()
		if _, err := os.Stat(path); err == nil && !initForce {
			fmt.Fprintf(out, "Skipped: %s already exists (use --force to overwrite)\n", path)
			return nil
		}

		data, err := yaml.Marshal(newConfigFile(core.DefaultGlobalConfig()))
		if err != nil {
			return fmt.Errorf("marshaling default config: %w", err)
		}
		if err := os.MkdirAll(absDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", absDir, err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}

		fmt.Fprintf(out, "Created %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing .routineconfig")
	rootCmd.AddCommand(initCmd)
}
