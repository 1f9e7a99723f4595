package main

import (
	"fmt"

	"rightguard/internal/client/api"

	"github.com/spf13/cobra"
)

func premiumCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "premium",
		Short: "Show unlocked and available premium features",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			ent, err := a.api.Payments.Entitlements(cmd.Context(), u.UserID)
			if err != nil {
				return err
			}
			a.printf("Unlocked:\n")
			printFeatures(a, ent.Unlocked)
			a.printf("Available:\n")
			printFeatures(a, ent.Available)
			return nil
		},
	}

	var (
		txHash string
		amount float64
	)
	buy := &cobra.Command{
		Use:   "buy <feature>",
		Short: "Unlock a feature with a confirmed payment transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			key := args[0]
			if amount == 0 {
				ent, err := a.api.Payments.Entitlements(cmd.Context(), u.UserID)
				if err != nil {
					return err
				}
				f, ok := findFeature(ent, key)
				if !ok {
					return fmt.Errorf("feature %q is not available", key)
				}
				amount = f.Price
			}
			if err := a.store.PurchaseEntitlement(cmd.Context(), key, txHash, amount); err != nil {
				return err
			}
			a.printf("Unlocked %s\n", key)
			return nil
		},
	}
	buy.Flags().StringVar(&txHash, "tx", "", "payment transaction hash")
	buy.Flags().Float64Var(&amount, "amount", 0, "amount paid (defaults to the catalog price)")
	_ = buy.MarkFlagRequired("tx")

	check := &cobra.Command{
		Use:   "check <feature>",
		Short: "Check access to a feature",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			acc, err := a.api.Payments.ValidateAccess(cmd.Context(), u.UserID, args[0])
			if err != nil {
				return err
			}
			if acc.HasAccess {
				a.printf("%s: unlocked\n", args[0])
			} else {
				a.printf("%s: locked\n", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(buy, check)
	return cmd
}

func findFeature(ent api.Entitlements, key string) (api.Feature, bool) {
	for _, f := range append(ent.Available, ent.Unlocked...) {
		if f.Key == key {
			return f, true
		}
	}
	return api.Feature{}, false
}

func printFeatures(a *app, fs []api.Feature) {
	if len(fs) == 0 {
		a.printf("  (none)\n")
	}
	for _, f := range fs {
		a.printf("  %-20s $%.2f  %s\n", f.Key, f.Price, f.Name)
	}
}
