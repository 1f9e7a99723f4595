package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"rightguard/internal/client/api"
	"rightguard/internal/contact"

	"github.com/spf13/cobra"
)

func contactsCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Manage emergency contacts",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			contacts := a.local.EmergencyContacts()
			if len(contacts) == 0 {
				a.printf("No emergency contacts\n")
			}
			for _, c := range contacts {
				a.printf("%s\t%s\n", c, contact.Classify(c))
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <phone|email|@handle>",
		Short: "Add an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a := get()
			c := strings.TrimSpace(args[0])
			if !contact.Valid(c) {
				return fmt.Errorf("invalid contact %q", c)
			}
			c = normalizeContact(c)
			contacts := a.local.EmergencyContacts()
			if slices.Contains(contacts, c) {
				a.printf("%s is already a contact\n", c)
				return nil
			}
			if err := a.local.SetEmergencyContacts(append(contacts, c)); err != nil {
				return err
			}
			a.printf("Added %s\n", c)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <contact>",
		Short: "Remove an emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a := get()
			c := normalizeContact(strings.TrimSpace(args[0]))
			contacts := a.local.EmergencyContacts()
			i := slices.Index(contacts, c)
			if i < 0 {
				return fmt.Errorf("%s is not a contact", args[0])
			}
			if err := a.local.SetEmergencyContacts(slices.Delete(contacts, i, i+1)); err != nil {
				return err
			}
			a.printf("Removed %s\n", c)
			return nil
		},
	})
	return cmd
}

// normalizeContact stores phones in one format so add and remove agree.
func normalizeContact(c string) string {
	if contact.Classify(c) == contact.KindSMS && contact.ValidatePhone(c) {
		return contact.FormatPhone(c)
	}
	return c
}

func alertCmd(get func() *app) *cobra.Command {
	var (
		alertType string
		incident  string
		location  string
		message   string
	)
	cmd := &cobra.Command{
		Use:   "alert",
		Short: "Send an alert to every emergency contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			recipients := a.local.EmergencyContacts()
			if len(recipients) == 0 {
				return fmt.Errorf("no emergency contacts, add one with `contacts add`")
			}

			res, err := a.api.Alerts.Send(cmd.Context(), api.SendAlert{
				UserID:           u.UserID,
				IncidentRecordID: incident,
				Recipients:       recipients,
				AlertType:        alertType,
				Language:         string(a.store.State().SelectedLanguage),
				Location:         location,
				CustomMessage:    message,
			})
			if err != nil {
				return err
			}
			printAlerts(a, res.Alerts)
			a.printf("Alerts sent: %d successful, %d failed\n", res.Summary.Successful, res.Summary.Failed)
			return nil
		},
	}
	cmd.Flags().StringVar(&alertType, "type", "emergency", "emergency or recording")
	cmd.Flags().StringVar(&incident, "incident", "", "incident record to attach")
	cmd.Flags().StringVar(&location, "location", "", "location text for the message")
	cmd.Flags().StringVar(&message, "message", "", "send this text instead of the template")

	var (
		limit, offset int
		listIncident  string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List sent alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			logs, err := a.api.Alerts.List(cmd.Context(), u.UserID, listIncident, limit, offset)
			if err != nil {
				return err
			}
			printAlerts(a, logs)
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "page size")
	list.Flags().IntVar(&offset, "offset", 0, "page offset")
	list.Flags().StringVar(&listIncident, "incident", "", "only alerts for this incident record")

	status := &cobra.Command{
		Use:   "status <alertId> <sent|delivered|failed>",
		Short: "Record a delivery status for an alert",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			l, err := a.api.Alerts.UpdateStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			a.printf("%s is %s\n", l.AlertID, l.Status)
			return nil
		},
	}

	cmd.AddCommand(list, status)
	return cmd
}

func printAlerts(a *app, logs []api.AlertLog) {
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.AlertID, l.Recipient, l.Status, l.Timestamp.Format(time.RFC3339))
	}
	_ = w.Flush()
}
