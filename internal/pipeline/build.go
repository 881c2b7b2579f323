package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"doxdoc/internal/crawler"
	"doxdoc/internal/docmodel"
	"doxdoc/internal/generator"
	"doxdoc/internal/storage"
)

// Builder renders every model file under InputRoot into OutputDir and
// records the results in a RenderStore. Models whose hash matches the
// stored render are skipped unless Force is set.
type Builder struct {
	InputRoot string
	OutputDir string
	Force     bool
	// Exclude lists files that live under InputRoot but are not models,
	// such as the config file.
	Exclude []string

	crawler *crawler.Crawler
}

const reportFile = "pipeline_report.json"

type loadedDoc struct {
	id   string
	path string
	file *docmodel.File
}

func NewBuilder(inputRoot, outputDir string) *Builder {
	return &Builder{
		InputRoot: inputRoot,
		OutputDir: outputDir,
		crawler:   crawler.NewCrawler(),
	}
}

// Run executes one build and writes pipeline_report.json into OutputDir.
// Invalid model files are reported and skipped; storage and filesystem
// errors abort the build.
func (b *Builder) Run(ctx context.Context, store storage.RenderStore) (report *Report, retErr error) {
	report = NewReport(b.InputRoot, b.OutputDir)
	reportPath := filepath.Join(b.OutputDir, reportFile)
	defer func() {
		if retErr != nil {
			report.AddSignal("build_failed", "build", "critical", retErr.Error())
		}
		if err := report.Save(reportPath); err != nil {
			log.Printf("⚠️ Failed to write pipeline report: %v", err)
		}
	}()

	paths, err := b.discoverStage(report)
	if err != nil {
		return report, err
	}
	fmt.Printf("📂 Found %d model files in %s\n", len(paths), b.InputRoot)

	docs, keep, err := b.loadStage(ctx, report, store, paths)
	if err != nil {
		return report, err
	}

	if err := b.renderStage(ctx, report, store, docs); err != nil {
		return report, err
	}

	if err := b.pruneStage(ctx, report, store, keep); err != nil {
		return report, err
	}

	fmt.Printf("✅ Build complete: %d rendered, %d unchanged, %d invalid, %d pruned.\n",
		report.Count(StatusRendered), report.Count(StatusUnchanged), report.Count(StatusInvalid), report.Count(StatusPruned))
	return report, nil
}

func (b *Builder) discoverStage(report *Report) ([]string, error) {
	stage := report.BeginStage("discover")
	// Rendered docs never match the crawler; the report is the only build
	// artifact that can. OutputDir may overlap or equal InputRoot.
	skip := append([]string{filepath.Join(b.OutputDir, reportFile)}, b.Exclude...)

	var paths []string
	err := b.crawler.Scan(b.InputRoot, func(p string) error {
		for _, s := range skip {
			if within(p, s) {
				return nil
			}
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed to scan %s: %w", b.InputRoot, err)
	}
	report.EndStage(stage, map[string]float64{"files": float64(len(paths))}, err)
	return paths, err
}

// loadStage decodes every file. It returns the valid docs and the ids to
// keep in the store. Files that fail to load keep every render they
// produced before, so a broken edit does not delete the last good render.
func (b *Builder) loadStage(ctx context.Context, report *Report, store storage.RenderStore, paths []string) ([]loadedDoc, []string, error) {
	stage := report.BeginStage("load")
	var docs []loadedDoc
	var keep []string
	seen := map[string]string{}

	invalid := func(id, p string, cause error) error {
		report.AddDoc(DocMetric{ID: id, SourcePath: p, Status: StatusInvalid})
		report.AddSignal("invalid_model", "load", "warning", cause.Error())
		log.Printf("⚠️ Skipping %s: %v", p, cause)

		prev, err := store.FindRendersBySource(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to look up renders of %s: %w", p, err)
		}
		for _, r := range prev {
			keep = append(keep, r.ID)
		}
		return nil
	}

	var err error
	for _, p := range paths {
		fallbackID := b.pathID(p)
		f, loadErr := docmodel.LoadFile(p)
		if loadErr != nil {
			keep = append(keep, fallbackID)
			err = invalid(fallbackID, p, loadErr)
		} else {
			id := fallbackID
			if f.ID != "" {
				id = f.ID
			}
			if _, pathErr := outputPath(b.OutputDir, id); pathErr != nil {
				err = invalid(id, p, pathErr)
			} else if prev, dup := seen[id]; dup {
				err = invalid(id, p, fmt.Errorf("%s: id %q already used by %s", p, id, prev))
			} else {
				seen[id] = p
				keep = append(keep, id)
				docs = append(docs, loadedDoc{id: id, path: p, file: f})
			}
		}
		if err != nil {
			break
		}
	}

	report.EndStage(stage, map[string]float64{
		"loaded":  float64(len(docs)),
		"invalid": float64(report.Count(StatusInvalid)),
	}, err)
	return docs, keep, err
}

func (b *Builder) renderStage(ctx context.Context, report *Report, store storage.RenderStore, docs []loadedDoc) (err error) {
	stage := report.BeginStage("render")
	rendered, unchanged := 0, 0
	defer func() {
		report.EndStage(stage, map[string]float64{
			"rendered":  float64(rendered),
			"unchanged": float64(unchanged),
		}, err)
	}()

	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}

		outPath, _ := outputPath(b.OutputDir, d.id)
		hash := docmodel.Hash(&d.file.Doc)

		prev, err := store.GetRender(ctx, d.id)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("failed to load render %s: %w", d.id, err)
		}
		if prev != nil && prev.ModelHash == hash && !b.Force && fileExists(outPath) {
			unchanged++
			report.AddDoc(DocMetric{ID: d.id, SourcePath: d.path, Status: StatusUnchanged, Sections: prev.Sections, Bytes: len(prev.Output)})
			continue
		}

		out := generator.GenerateRustdoc(&d.file.Doc)
		sections := generator.RenderedSections(&d.file.Doc)
		if len(sections) == 0 {
			report.AddSignal("empty_model", "render", "info", fmt.Sprintf("%s renders to an empty document.", d.id))
		}

		if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(outPath, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		if err := store.SaveRender(ctx, &storage.Render{
			ID:         d.id,
			SourcePath: d.path,
			ModelHash:  hash,
			Output:     out,
			Sections:   sections,
			UpdatedAt:  time.Now(),
		}); err != nil {
			return fmt.Errorf("failed to save render %s: %w", d.id, err)
		}

		rendered++
		report.AddDoc(DocMetric{ID: d.id, SourcePath: d.path, Status: StatusRendered, Sections: sections, Bytes: len(out)})
		fmt.Printf("  -> %s (%d sections)\n", d.id, len(sections))
	}
	return nil
}

func (b *Builder) pruneStage(ctx context.Context, report *Report, store storage.RenderStore, keep []string) error {
	stage := report.BeginStage("prune")
	removed, err := store.PruneRenders(ctx, keep)
	if err != nil {
		err = fmt.Errorf("failed to prune renders: %w", err)
		report.EndStage(stage, nil, err)
		return err
	}
	for _, r := range removed {
		report.AddDoc(DocMetric{ID: r.ID, SourcePath: r.SourcePath, Status: StatusPruned})
		outPath, err := outputPath(b.OutputDir, r.ID)
		if err != nil {
			continue
		}
		if err := os.Remove(outPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ Failed to remove %s: %v", outPath, err)
		}
	}
	report.EndStage(stage, map[string]float64{"pruned": float64(len(removed))}, nil)
	return nil
}

// pathID derives a doc id from the file path relative to InputRoot,
// without extension and with forward slashes.
func (b *Builder) pathID(p string) string {
	rel, err := filepath.Rel(b.InputRoot, p)
	if err != nil {
		rel = filepath.Base(p)
	}
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// outputPath maps an id to its .md file and rejects ids that would land
// outside dir.
func outputPath(dir, id string) (string, error) {
	clean := path.Clean("/" + id)[1:]
	if clean == "" || clean != id {
		return "", fmt.Errorf("invalid doc id %q", id)
	}
	return filepath.Join(dir, filepath.FromSlash(id)+".md"), nil
}

func within(p, dir string) bool {
	if dir == "" {
		return false
	}
	absP, err1 := filepath.Abs(p)
	absDir, err2 := filepath.Abs(dir)
	if err1 != nil || err2 != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absP)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
