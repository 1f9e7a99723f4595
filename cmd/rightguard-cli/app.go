package main

import (
	"fmt"
	"io"

	"rightguard/internal/client/api"
	"rightguard/internal/client/gateway"
	"rightguard/internal/client/storage"
	"rightguard/internal/client/store"
	"rightguard/internal/config"
	"rightguard/internal/geo"
	"rightguard/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var newGeocoder = geo.NewReverseGeocoder

// app is everything a command needs, built once before the command runs.
type app struct {
	cfg      config.Client
	log      *zap.Logger
	local    storage.Local
	gw       *gateway.Client
	api      *api.Services
	store    *store.Store
	geocoder *geo.ReverseGeocoder
	out      io.Writer
}

func newApp(cfg config.Client, out io.Writer) (*app, error) {
	log, err := logging.NewConsole(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	fs, err := storage.Open(cfg.StateFile)
	if err != nil {
		return nil, fmt.Errorf("open state file: %w", err)
	}
	local := storage.Local{S: fs}

	gw := gateway.New(cfg.APIURL)
	gw.SetToken(local.Session())
	services := api.New(gw)

	st := store.New(local, services.Auth, services.Payments, log)
	st.Hydrate()

	return &app{
		cfg:      cfg,
		log:      log,
		local:    local,
		gw:       gw,
		api:      services,
		store:    st,
		geocoder: newGeocoder(),
		out:      out,
	}, nil
}

// close saves a session token the server may have rotated.
func (a *app) close() {
	if tok := a.gw.Token(); tok != a.local.Session() {
		if err := a.local.SetSession(tok); err != nil {
			a.log.Warn("failed to save session", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// user returns the signed in user or a hint to log in.
func (a *app) user() (*api.User, error) {
	u := a.store.State().User
	if u == nil {
		return nil, fmt.Errorf("not logged in, run `rightguard-cli login <handle>` first")
	}
	return u, nil
}

func newRootCmd() *cobra.Command {
	var (
		a         *app
		apiURL    string
		stateFile string
		logLevel  string
	)

	root := &cobra.Command{
		Use:           "rightguard-cli",
		Short:         "Know your rights, record encounters and alert your contacts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadClient()
			if apiURL != "" {
				cfg.APIURL = apiURL
			}
			if stateFile != "" {
				cfg.StateFile = stateFile
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			var err error
			a, err = newApp(cfg, cmd.OutOrStdout())
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.close()
			}
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (or set RIGHTGUARD_API_URL)")
	root.PersistentFlags().StringVar(&stateFile, "state-file", "", "local state file (or set RIGHTGUARD_STATE_FILE)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (or set LOG_LEVEL)")

	get := func() *app { return a }
	root.AddCommand(
		loginCmd(get),
		logoutCmd(get),
		whoamiCmd(get),
		langCmd(get),
		stateCmd(get),
		rightsCmd(get),
		recordCmd(get),
		recordingsCmd(get),
		contactsCmd(get),
		alertCmd(get),
		premiumCmd(get),
	)
	return root
}
