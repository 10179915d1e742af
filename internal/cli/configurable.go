package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/toolbelt/internal/config"
)

// applyConfigBeforeRun loads the configuration in PreRunE. cobra checks
// required and mutually exclusive flags after PreRunE, so flags set from
// configuration count for those checks. Logging is set up before the
// configuration is applied, so its messages honor the logging flags, and
// again afterwards in case the configuration set them. The flag checks are
// also run here so that the log file is closed when they fail.
func applyConfigBeforeRun(cmd *cobra.Command, name string, flags *commonFlags) {
	preRun := cmd.PreRunE
	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd, flags); err != nil {
			return err
		}

		err := applyConfig(cmd, name, flags.config)
		if err == nil {
			// The configuration may have changed the logging flags.
			flags.closeLog()
			err = setupLogging(cmd, flags)
		}
		if err == nil {
			err = cmd.ValidateRequiredFlags()
		}
		if err == nil {
			err = cmd.ValidateFlagGroups()
		}
		if err == nil && preRun != nil {
			err = preRun(cmd, args)
		}
		if err != nil {
			flags.closeLog()
		}
		return err
	}
}

// applyConfig reads path, exports its environment block and binds the
// remaining settings and <NAME>_* environment variables to unset flags.
func applyConfig(cmd *cobra.Command, name, path string) error {
	settings := config.Settings{}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if err := config.ApplyEnvironment(loaded); err != nil {
			return err
		}
		settings = loaded
	}
	return config.Bind(cmd, settings, EnvPrefix(name))
}

// EnvPrefix returns the prefix of environment variables that configure the
// tool called name: "my-tool" reads MY_TOOL_<FLAG>.
func EnvPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
