package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eringen/folio"
	"github.com/eringen/folio/scaffold"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile changed posts and regenerate the aggregate pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		report, err := app.Build(cmd.Context(), force)
		if err != nil {
			return err
		}
		fmt.Printf("compiled %d, skipped %d, removed %d in %s\n",
			report.Compiled, report.Skipped, report.Removed, report.Duration.Round(time.Millisecond))
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild whenever a post or static file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd)
		if err != nil {
			return err
		}
		return app.Watch(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generated site for local preview",
	RunE: func(cmd *cobra.Command, args []string) error {
		watch, _ := cmd.Flags().GetBool("watch")
		app, err := newApp(cmd, folio.WithMetrics(folio.NewMetrics()))
		if err != nil {
			return err
		}
		return app.Serve(cmd.Context(), watch)
	},
}

var newCmd = &cobra.Command{
	Use:   "new <dir>",
	Short: "Create a new site from the starter template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		data := scaffold.NewData(dir, time.Now())
		fmt.Printf("Creating new folio site: %s\n\n", dir)
		created, err := scaffold.Generate(afero.NewOsFs(), dir, data)
		if err != nil {
			return err
		}
		for _, f := range created {
			fmt.Printf("  created %s\n", f)
		}
		fmt.Println()
		fmt.Println("Done! Next steps:")
		fmt.Println()
		fmt.Printf("  cd %s\n", dir)
		fmt.Println("  folio serve --watch")
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a folio.yaml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("output")
		overwrite, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(path); err == nil && !overwrite {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		data, err := yaml.Marshal(folio.DefaultConfig())
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the folio version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("folio %s\n", version)
	},
}

func init() {
	buildCmd.Flags().BoolP("force", "f", false, "recompile every post, ignoring the cache")
	serveCmd.Flags().BoolP("watch", "w", false, "rebuild on changes while serving")
	initCmd.Flags().StringP("output", "o", "folio.yaml", "config file to write")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}
