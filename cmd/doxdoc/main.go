package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"doxdoc/internal/config"
	"doxdoc/internal/docmodel"
	"doxdoc/internal/generator"
	"doxdoc/internal/pipeline"
	"doxdoc/internal/storage"

	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "doxdoc",
		Short: "Render parsed Doxygen comments as Rustdoc Markdown",
	}
	dbPath     string
	configPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the render database (SQLite); defaults to the config value")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "doxdoc.yaml", "Path to the config file")

	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 0, "Wrap the preview at this many columns (0 disables wrapping)")
	buildCmd.Flags().StringVarP(&buildOut, "out", "o", "", "Output directory; defaults to the config value")
	buildCmd.Flags().BoolVarP(&buildForce, "force", "f", false, "Re-render models even when unchanged")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
}

func loadConfig() *config.Config {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.DB = dbPath
	}
	return cfg
}

// initStore opens the SQLite render store.
func initStore(cfg *config.Config) *storage.SQLiteStore {
	store, err := storage.NewSQLiteStore(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

// renderFile renders one model file. A positive width wraps the result for
// terminal preview.
func renderFile(path string, width int) (string, error) {
	f, err := docmodel.LoadFile(path)
	if err != nil {
		return "", err
	}
	out := generator.GenerateRustdoc(&f.Doc)
	if width > 0 {
		out = wordwrap.String(out, width)
	}
	return out, nil
}

var renderWidth int

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render one model file to stdout",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		out, err := renderFile(args[0], renderWidth)
		if err != nil {
			log.Fatalf("Render failed: %v", err)
		}
		fmt.Print(out)
	},
}

var (
	buildOut   string
	buildForce bool
)

var buildCmd = &cobra.Command{
	Use:   "build [input]",
	Short: "Render every model under the input directory, skipping unchanged ones",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		input := cfg.Input
		if len(args) > 0 {
			input = args[0]
		}
		out := cfg.Output
		if buildOut != "" {
			out = buildOut
		}

		store := initStore(cfg)
		defer store.Close()

		fmt.Printf("🚀 Building docs from %s into %s...\n", input, out)
		start := time.Now()
		b := pipeline.NewBuilder(input, out)
		b.Force = buildForce
		b.Exclude = []string{configPath, cfg.DB}
		if _, err := b.Run(context.Background(), store); err != nil {
			log.Fatalf("Build failed: %v", err)
		}
		fmt.Printf("🎉 Done in %v. Database: %s\n", time.Since(start).Round(time.Millisecond), cfg.DB)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored render",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		r, err := store.GetRender(context.Background(), args[0])
		if errors.Is(err, storage.ErrNotFound) {
			fmt.Printf("⚠️  No render stored for %q. Run 'doxdoc build' first.\n", args[0])
			return
		}
		if err != nil {
			log.Fatalf("Failed to load render: %v", err)
		}
		fmt.Print(r.Output)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored renders",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		store := initStore(cfg)
		defer store.Close()

		renders, err := store.ListRenders(context.Background())
		if err != nil {
			log.Fatalf("Failed to list renders: %v", err)
		}
		if len(renders) == 0 {
			fmt.Println("📭 No renders stored.")
			return
		}
		for _, r := range renders {
			hash := r.ModelHash
			if len(hash) > 12 {
				hash = hash[:12]
			}
			fmt.Printf("%s\t%s\t%s\n", r.ID, hash, strings.Join(r.Sections, ","))
		}
	},
}
