package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"rightguard/internal/client/api"
	"rightguard/internal/client/capture"
	"rightguard/internal/client/store"

	"github.com/spf13/cobra"
)

// fileDevice streams a media file as if it were a live capture device.
type fileDevice struct{ path string }

func (d fileDevice) Open(context.Context) (io.ReadCloser, error) {
	return os.Open(d.path)
}

func recordCmd(get func() *app) *cobra.Command {
	var (
		source   string
		maxDur   time.Duration
		lat, lon float64
		notes    string
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Capture a recording and save it as an incident record",
		Long: `Capture media from --source until it ends, --max-duration elapses or
the command is interrupted, then upload it with the given location.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}

			captureCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			var buf bytes.Buffer
			session, err := capture.Recorder{Device: fileDevice{path: source}, MaxDuration: maxDur}.Start(captureCtx, &buf)
			if err != nil {
				return err
			}
			a.store.Dispatch(store.SetRecording{Recording: true})
			res, err := session.Wait()
			a.store.Dispatch(store.SetRecording{Recording: false})
			if err != nil {
				return fmt.Errorf("recording failed: %w", err)
			}
			a.printf("Captured %d bytes in %s (%s)\n", res.Bytes, res.Duration.Round(time.Millisecond), res.Reason)

			loc := a.geocoder.Locate(cmd.Context(), lat, lon)
			rec, err := a.api.Recordings.Save(cmd.Context(), api.SaveRecording{
				File:     &buf,
				FileName: filepath.Base(source),
				UserID:   u.UserID,
				Location: api.Location{Latitude: loc.Latitude, Longitude: loc.Longitude, Address: loc.Address},
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			if rec.UploadFailed {
				a.printf("Media upload failed, the record was saved without it\n")
			}
			a.printf("Saved record %s at %s\n", rec.RecordID, rec.Location.Address)
			return nil
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "media file to capture from")
	cmd.Flags().DurationVar(&maxDur, "max-duration", capture.DefaultMaxDuration, "stop capturing after this long")
	cmd.Flags().Float64Var(&lat, "lat", 0, "latitude of the encounter")
	cmd.Flags().Float64Var(&lon, "lon", 0, "longitude of the encounter")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

func recordingsCmd(get func() *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "recordings",
		Short: "List your incident records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			recs, err := a.api.Recordings.List(cmd.Context(), u.UserID, limit, offset)
			if err != nil {
				return err
			}
			if len(recs) == 0 {
				a.printf("No recordings\n")
				return nil
			}
			for _, r := range recs {
				a.printf("%s  %s  %s  %s\n", r.RecordID, r.Timestamp.Format(time.RFC3339), r.Location.Address, r.MediaURL)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <recordId>",
		Short: "Delete one of your incident records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			u, err := a.user()
			if err != nil {
				return err
			}
			if err := a.api.Recordings.Delete(cmd.Context(), args[0], u.UserID); err != nil {
				return err
			}
			a.printf("Deleted %s\n", args[0])
			return nil
		},
	})
	return cmd
}
