package main

import (
	"fmt"
	"strings"

	"rightguard/internal/client/store"
	"rightguard/internal/contact"
	"rightguard/internal/content"
	"rightguard/internal/geo"

	"github.com/spf13/cobra"
)

func loginCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <handle>",
		Short: "Sign in with a Farcaster handle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			handle := strings.TrimPrefix(args[0], "@")
			if !contact.ValidateHandle(handle) {
				return fmt.Errorf("invalid handle %q", args[0])
			}
			if err := a.store.InitializeUser(cmd.Context(), handle); err != nil {
				return err
			}
			u := a.store.State().User
			a.printf("Signed in as %s (%s)\n", u.FarcasterProfile, u.UserID)
			return nil
		},
	}
}

func logoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			a.store.Logout()
			a.gw.SetToken("")
			a.printf("Signed out\n")
			return nil
		},
	}
}

func whoamiCmd(get func() *app) *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			if remote {
				me, err := a.api.Auth.Me(cmd.Context())
				if err != nil {
					return err
				}
				a.store.Dispatch(store.SetUser{User: &me})
				u = a.store.State().User
			}
			a.printf("%s (%s)\nstate: %s\npremium: %s\n",
				u.FarcasterProfile, u.UserID, u.SelectedState, strings.Join(u.PremiumFeatures, ", "))
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "refresh from the server session")
	return cmd
}

func langCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:       "lang [en|es]",
		Short:     "Show or change the display language",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(content.English), string(content.Spanish)},
		RunE: func(_ *cobra.Command, args []string) error {
			a := get()
			if len(args) == 0 {
				a.printf("%s\n", a.store.State().SelectedLanguage)
				return nil
			}
			lang, ok := content.ParseLanguage(args[0])
			if !ok {
				return fmt.Errorf("unsupported language %q", args[0])
			}
			a.store.Dispatch(store.SetLanguage{Language: lang})
			a.printf("Language set to %s\n", lang.Name())
			return nil
		},
	}
}

func stateCmd(get func() *app) *cobra.Command {
	var lat, lon float64
	var detect bool
	cmd := &cobra.Command{
		Use:   "state [name]",
		Short: "Show or change the current jurisdiction",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a := get()
			switch {
			case detect:
				a.store.Dispatch(store.SetCurrentJurisdiction{Jurisdiction: geo.DetectJurisdiction(lat, lon)})
			case len(args) == 1:
				a.store.Dispatch(store.SetCurrentJurisdiction{Jurisdiction: strings.TrimSpace(args[0])})
			}
			a.printf("%s\n", a.store.State().CurrentJurisdiction)
			return nil
		},
	}
	cmd.Flags().BoolVar(&detect, "detect", false, "infer the jurisdiction from --lat/--lon")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude")
	return cmd
}

func rightsCmd(get func() *app) *cobra.Command {
	var basic bool
	cmd := &cobra.Command{
		Use:   "rights",
		Short: "Show the legal rights guide for the current jurisdiction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			st := a.store.State()
			if basic {
				printBasicRights(a, st.SelectedLanguage)
				return nil
			}

			g, err := a.api.Guides.Get(cmd.Context(), st.CurrentJurisdiction, string(st.SelectedLanguage))
			if err != nil {
				a.log.Sugar().Warnw("guide unavailable, showing basic rights", "error", err)
				printBasicRights(a, st.SelectedLanguage)
				return nil
			}
			a.printf("%s\n\n%s\n\n%s\n", g.Title, g.Content, g.Script)
			return nil
		},
	}
	cmd.Flags().BoolVar(&basic, "basic", false, "show the built-in basic rights without contacting the server")
	return cmd
}

func printBasicRights(a *app, lang content.Language) {
	r := content.For(lang)
	a.printf("%s\n\n", r.Title)
	for _, right := range r.Rights {
		a.printf("- %s\n", right)
	}
	a.printf("\n")
	for _, k := range content.ScriptKeys {
		if s := r.Scripts[k]; s != "" {
			a.printf("%s: %s\n", k, s)
		}
	}
}
