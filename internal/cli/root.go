// Package cli implements portalctl, a terminal client that keeps a portal session
// per profile and drives it through a goSession engine.
package cli

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type stdio struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// app carries the state shared by every command of one invocation. The session is
// opened lazily by the first command that needs it and closed by Execute.
type app struct {
	v   *viper.Viper
	io  stdio
	env *sessionEnv

	// interactive is set while the shell owns stdin.
	interactive bool
}

func (a *app) session(ctx context.Context) (*sessionEnv, error) {
	if a.env != nil {
		return a.env, nil
	}
	env, err := openSession(ctx, a.v, a.io)
	if err != nil {
		return nil, err
	}
	a.env = env
	return env, nil
}

func (a *app) close(ctx context.Context) error {
	if a.env == nil {
		return nil
	}
	err := a.env.close(ctx)
	a.env = nil
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "portalctl",
		Short: "Portal session client",
		Long: `portalctl signs in to a portal backend and keeps the session in a local
profile. API calls renew the access credential ahead of expiry and navigation
checks apply the menu authorization of the signed-in user.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return readConfigFile(a.v)
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/portalctl/config.yaml)")
	flags.String("base-url", "", "portal backend base URL")
	flags.StringP("profile", "p", "default", "session profile name")
	flags.String("data-dir", "", "directory holding profile files")
	flags.String("log-level", "warn", "log level")
	flags.Duration("lead-time", 0, "renew the credential this long before it expires")
	flags.Bool("legacy-menu-auth", false, "ask the menu-auth endpoint about routes outside the menu tree")

	for _, name := range []string{"config", "base-url", "profile", "data-dir", "log-level", "lead-time", "legacy-menu-auth"} {
		_ = a.v.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name))
	}

	root.AddCommand(a.commands()...)
	root.AddCommand(newShellCmd(a))
	return root
}

func readConfigFile(v *viper.Viper) error {
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.config/portalctl")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && v.GetString("config") == "" {
			return nil
		}
		return err
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("profile", "default")
	v.SetDefault("log_level", "warn")
	v.SetEnvPrefix("PORTALCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Execute runs portalctl with args and closes the profile afterwards, also when the
// command failed.
func Execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	a := &app{v: newViper(), io: stdio{in: in, out: out, err: errOut}}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close(context.WithoutCancel(ctx)))
}
