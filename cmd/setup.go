package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"viralstudio/internal/app/model"
	"viralstudio/internal/backend"
	"viralstudio/pkg/config"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Long:  `Point the studio at a backend, pick defaults, optionally enable GCS mirroring, and write config.yaml and .env.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	fmt.Println(titleStyle.Render("Viralstudio Setup"))

	cfg := config.Default()
	env := make(map[string]string)

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Configuring backend", func() error { return configureBackend(cmd.Context(), cfg) }},
		{"Choosing defaults", func() error { return configureDefaults(cfg) }},
		{"Configuring GCS mirror", func() error { return configureGCS(cfg, env) }},
		{"Creating directories", func() error { return createDirectories(cfg) }},
		{"Writing config", func() error { return writeConfig(cfg) }},
		{"Writing environment", func() error { return writeEnvFile(env) }},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	printNextSteps()
	return nil
}

func configureBackend(ctx context.Context, cfg *config.Config) error {
	baseURL := cfg.Backend.BaseURL
	if err := huh.NewInput().
		Title("Backend URL").
		Description("Where the script and video service runs").
		Value(&baseURL).
		Validate(absoluteURL).
		Run(); err != nil {
		return err
	}
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")

	client := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		TrendsPath: cfg.Backend.TrendsPath,
	})
	err := runWithSpinner("Checking backend", func() error {
		_, err := client.Trends(ctx)
		return err
	})
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Backend not reachable yet: %v", err)))
		fmt.Println(infoStyle.Render("The studio still works; trends fall back to Offline Mode."))
	}
	return nil
}

func configureDefaults(cfg *config.Config) error {
	mode := cfg.Workflow.Mode()
	tier := cfg.Workflow.Tier()
	outputDir := cfg.Output.Dir
	openPlayer := cfg.Output.OpenPlayer

	modeOpts := make([]huh.Option[model.ContentMode], 0, len(model.ContentModes()))
	for _, m := range model.ContentModes() {
		modeOpts = append(modeOpts, huh.NewOption(string(m), m))
	}
	tierOpts := make([]huh.Option[model.ModelTier], 0, len(model.ModelTiers()))
	for _, t := range model.ModelTiers() {
		tierOpts = append(tierOpts, huh.NewOption(string(t), t))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.ContentMode]().
				Title("Default content mode").
				Options(modeOpts...).
				Value(&mode),
			huh.NewSelect[model.ModelTier]().
				Title("Default model tier").
				Options(tierOpts...).
				Value(&tier),
			huh.NewInput().
				Title("Output directory").
				Value(&outputDir).
				Validate(required("Output directory")),
			huh.NewConfirm().
				Title("Open finished videos in the system player?").
				Value(&openPlayer),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.Workflow.DefaultMode = string(mode)
	cfg.Workflow.DefaultTier = string(tier)
	cfg.Output.Dir = strings.TrimSpace(outputDir)
	cfg.Output.OpenPlayer = openPlayer
	return nil
}

func configureGCS(cfg *config.Config, env map[string]string) error {
	var enable bool
	if err := huh.NewConfirm().
		Title("Mirror downloads to Google Cloud Storage?").
		Affirmative("Yes").
		Negative("No").
		Value(&enable).
		Run(); err != nil {
		return err
	}
	if !enable {
		return nil
	}

	bucket := os.Getenv("GCS_BUCKET")
	credentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	prefix := cfg.GCS.Prefix

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bucket").
				Value(&bucket).
				Validate(required("Bucket")),
			huh.NewInput().
				Title("Object prefix").
				Value(&prefix),
			huh.NewInput().
				Title("Service account key file").
				Description("Leave empty to use application default credentials").
				Value(&credentials),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.GCS.Enabled = true
	if p := strings.Trim(strings.TrimSpace(prefix), "/"); p != "" {
		cfg.GCS.Prefix = p
	}
	env["GCS_BUCKET"] = strings.TrimSpace(bucket)
	env["GOOGLE_APPLICATION_CREDENTIALS"] = strings.TrimSpace(credentials)
	return nil
}

func createDirectories(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.Output.Dir, err)
	}
	fmt.Println(successStyle.Render("✓ Created " + cfg.Output.Dir))
	return nil
}

func writeConfig(cfg *config.Config) error {
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing " + configPath).
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing " + configPath))
			return nil
		}
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Wrote " + configPath))
	return nil
}

func writeEnvFile(env map[string]string) error {
	if len(env) == 0 {
		return nil
	}

	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GCS_BUCKET",
		"GOOGLE_APPLICATION_CREDENTIALS",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Start the backend if it is not running")
	fmt.Println("  2. Run: viralstudio studio")
	fmt.Println("  3. Or: viralstudio once -t \"your topic\"")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func absoluteURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return errors.New("enter an absolute URL such as http://localhost:8000")
	}
	return nil
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
