package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"viralstudio/internal/app"
	"viralstudio/internal/storage"
)

var artifactsCmd = &cobra.Command{
	Use:   "artifacts",
	Short: "List produced videos",
	Long:  `List finished jobs from the local history, downloaded files and, when GCS is enabled, mirrored objects.`,
	RunE:  runArtifacts,
}

func init() {
	rootCmd.AddCommand(artifactsCmd)
}

func runArtifacts(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	service, err := app.BuildService(ctx, cfg, app.BuildOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = service.Close() }()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	records := service.History().List()
	_, _ = fmt.Fprintf(w, "HISTORY (%d)\n", len(records))
	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.CreatedAt.Format(time.DateTime), r.Mode, r.Tier, r.Topic, r.URL)
	}

	type listing struct {
		title string
		store storage.ArtifactStore
	}
	stores := []listing{{"DOWNLOADED to " + service.Storage().Dir(), service.Storage()}}
	if mirror := service.Mirror(); mirror != nil {
		stores = append(stores, listing{"MIRRORED", mirror})
	}

	for _, s := range stores {
		listed, err := s.store.ListArtifacts(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "\n%s (%d)\n", s.title, len(listed))
		for _, a := range listed {
			_, _ = fmt.Fprintf(w, "%s\t%d bytes\t%s\n", a.Modified.Format(time.DateTime), a.Size, a.Location)
		}
	}

	return w.Flush()
}
