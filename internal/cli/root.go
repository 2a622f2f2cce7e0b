package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/yukikurage/taskflow/internal/backend"
	"github.com/yukikurage/taskflow/internal/config"
	"github.com/yukikurage/taskflow/internal/taskstore"
)

// app is the state shared by all commands of one invocation.
type app struct {
	cfg     *config.ClientConfig
	client  *backend.Client
	tasks   *taskstore.Collection
	session *sessionFile
	verbose bool
	now     func() time.Time
}

// NewRootCmd builds the taskctl command tree. httpClient may be nil.
func NewRootCmd(cfg *config.ClientConfig, httpClient *http.Client) *cobra.Command {
	a := &app{
		cfg:    cfg,
		client: backend.NewClient(cfg.APIURL, httpClient),
		now:    time.Now,
	}

	rootCmd := &cobra.Command{
		Use:   "taskctl",
		Short: "taskctl - manage your tasks from the terminal",
		Long: `taskctl talks to a taskflow server. Log in once; the session is kept in
your user config directory (or TASKFLOW_SESSION_FILE).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log failed backend calls")

	rootCmd.AddCommand(
		newSignupCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDoneCmd(a),
		newRmCmd(a),
		newStatsCmd(a),
		newSuggestCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	path, err := sessionPath(a.cfg.SessionFile)
	if err != nil {
		return err
	}
	a.session = &sessionFile{path: path}

	saved, err := a.session.Load()
	if err != nil {
		return err
	}
	if saved != nil {
		a.client.SetToken(saved.Token)
	}

	level := slog.LevelError
	if a.verbose {
		level = slog.LevelDebug
	}
	a.tasks = taskstore.New(a.client, taskstore.Options{
		RequestTimeout: a.cfg.RequestTimeout,
		Logger:         slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})),
	})
	return nil
}

// Execute runs taskctl with configuration from the environment.
func Execute(version string) error {
	rootCmd := NewRootCmd(config.LoadClient(), nil)
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		return err
	}
	return nil
}
