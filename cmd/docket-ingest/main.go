// Command docket-ingest builds and enriches the archive database from a
// document production: manifest rows become documents, document text feeds
// entity extraction, and media directories become browsable albums.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/scrypster/docket/internal/backup"
	"github.com/scrypster/docket/internal/config"
	"github.com/scrypster/docket/internal/entities"
	"github.com/scrypster/docket/internal/ingest"
	"github.com/scrypster/docket/internal/locate"
	"github.com/scrypster/docket/internal/manifest"
	"github.com/scrypster/docket/internal/media"
	"github.com/scrypster/docket/internal/storage"
	"github.com/scrypster/docket/internal/storage/sqlite"
	"github.com/scrypster/docket/pkg/types"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Source locations (flags override environment configuration)
	dbPath := flag.String("db", cfg.Storage.DBPath, "Path to the archive database")
	manifestPath := flag.String("manifest", cfg.Ingest.ManifestPath, "Path to the production manifest CSV")
	textRoot := flag.String("text-root", cfg.Ingest.TextRoot, "Root of the extracted-text tree")
	nativeRoot := flag.String("native-root", cfg.Ingest.NativeRoot, "Root of the original/native tree")
	mediaRoot := flag.String("media-root", cfg.Ingest.MediaRoot, "Root of the media albums tree")
	rulesPath := flag.String("rules", cfg.Ingest.RulesPath, "Path to a classification rules YAML file (empty uses built-in defaults)")
	headerOffset := flag.Int("header-offset", cfg.Ingest.HeaderOffset, "Manifest preamble lines before the header row (-1 detects)")

	// Passes
	rebuild := flag.Bool("rebuild", false, "Destroy the database and re-ingest the manifest from scratch")
	increment := flag.Bool("increment", false, "Re-ingest the manifest into the existing database")
	patch := flag.Bool("patch", false, "Apply pending migrations and column patches, then exit")
	extract := flag.Bool("entities", false, "Run entity extraction over all documents")
	garbage := flag.Bool("garbage", false, "Run the entity garbage filter")
	redactions := flag.Bool("redactions", false, "Scan document text for failed redactions")
	ingestMedia := flag.Bool("media", false, "Ingest media albums from the media root")
	all := flag.Bool("all", false, "Run every pass: increment, entities, garbage, redactions, media")
	backupDir := flag.String("backup", "", "Snapshot the database into this directory before any pass")
	flag.Parse()

	if *all {
		*increment = true
		*extract = true
		*garbage = true
		*redactions = true
		*ingestMedia = true
	}
	if !*rebuild && !*increment && !*patch && !*extract && !*garbage && !*redactions && !*ingestMedia && *backupDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *rebuild && *increment {
		log.Fatal("docket-ingest: -rebuild and -increment are mutually exclusive")
	}

	if *backupDir != "" {
		snapshotPath, err := backup.NewService(*dbPath, *backupDir, backup.DefaultKeep).Run()
		if err != nil {
			log.Fatalf("Backup failed: %v", err)
		}
		log.Printf("Backup written to %s", snapshotPath)
	}

	// Open (or rebuild) the archive
	var store *sqlite.ArchiveStore
	if *rebuild {
		store, err = sqlite.DestroyAndRecreate(*dbPath)
	} else {
		store, err = sqlite.NewArchiveStore(*dbPath)
	}
	if err != nil {
		log.Fatalf("Failed to open archive database: %v", err)
	}
	defer store.Close()

	if err := store.Patch(cfg.Storage.MigrationsDir); err != nil {
		log.Fatalf("Failed to patch schema: %v", err)
	}
	if *patch {
		log.Println("Schema patched")
		return
	}

	ctx := context.Background()

	if *rebuild || *increment {
		kind := types.RunIncrement
		if *rebuild {
			kind = types.RunRebuild
		}
		runManifestPass(ctx, store, kind, *manifestPath, *headerOffset, *textRoot, *nativeRoot)
	}

	rules, err := entities.LoadRules(*rulesPath)
	if err != nil {
		log.Fatalf("Failed to load rules: %v", err)
	}
	classifier := entities.NewClassifier(rules)

	if *extract {
		runEntityPass(ctx, store, classifier)
	}
	if *garbage {
		runGarbagePass(ctx, store, rules)
	}
	if *redactions {
		runRedactionPass(ctx, store)
	}
	if *ingestMedia {
		runMediaPass(ctx, store, *mediaRoot)
	}
}

// runManifestPass ingests every manifest row into the document store and
// records the run.
func runManifestPass(ctx context.Context, store *sqlite.ArchiveStore, kind, manifestPath string, headerOffset int, textRoot, nativeRoot string) {
	reader := manifest.NewReader(manifestPath)
	reader.HeaderOffset = headerOffset
	locator := locate.NewLocator(textRoot, nativeRoot)

	run := startRun(kind)
	summary, err := ingest.New(store, reader, locator).Run(ctx)
	if err != nil {
		log.Fatalf("Manifest ingestion failed: %v", err)
	}

	run.Processed = summary.Processed
	run.Inserted = summary.Inserted
	run.Updated = summary.Updated
	run.Missing = summary.Missing
	run.Skipped = summary.Skipped
	run.Errors = summary.Errors
	finishRun(ctx, store, run)
}

// runEntityPass walks every document and extracts entities from its metadata
// and content. The extractor caches upserts for the life of the pass.
func runEntityPass(ctx context.Context, store *sqlite.ArchiveStore, classifier *entities.Classifier) {
	extractor := entities.NewExtractor(store, classifier)
	run := startRun(types.RunEntities)

	opts := storage.ListOptions{Page: 1, Limit: 100, SortBy: "external_id", SortOrder: "asc"}
	for {
		page, err := store.ListDocuments(ctx, opts)
		if err != nil {
			log.Fatalf("Entity extraction failed to list documents: %v", err)
		}
		for i := range page.Items {
			linked, err := extractor.ExtractFromDocument(ctx, &page.Items[i])
			if err != nil {
				log.Printf("ingest: entity extraction failed for %s: %v", page.Items[i].ExternalID, err)
				run.Errors++
				continue
			}
			run.Processed++
			run.Inserted += linked
		}
		if !page.HasMore {
			break
		}
		opts.Page++
	}

	enriched, err := entities.NewEnricher(store, classifier).Run(ctx)
	if err != nil {
		log.Fatalf("Entity enrichment failed: %v", err)
	}
	run.Updated = enriched

	finishRun(ctx, store, run)
	log.Printf("Entity pass: %d documents processed, %d roles classified", run.Processed, enriched)
}

func runGarbagePass(ctx context.Context, store *sqlite.ArchiveStore, rules *entities.Rules) {
	run := startRun(types.RunGarbage)
	deleted, err := entities.NewGarbageFilter(store, rules).Run(ctx)
	if err != nil {
		log.Fatalf("Garbage filter failed: %v", err)
	}
	run.Deleted = deleted
	finishRun(ctx, store, run)
	log.Printf("Garbage filter: %d entities removed", deleted)
}

func runRedactionPass(ctx context.Context, store *sqlite.ArchiveStore) {
	run := startRun(types.RunRedaction)
	flagged, err := ingest.NewRedactionScanner(store).Run(ctx)
	if err != nil {
		log.Fatalf("Redaction scan failed: %v", err)
	}
	run.Updated = flagged
	finishRun(ctx, store, run)
	log.Printf("Redaction scan: %d documents flagged", flagged)
}

func runMediaPass(ctx context.Context, store *sqlite.ArchiveStore, mediaRoot string) {
	run := startRun(types.RunMedia)
	summary, err := media.NewIngestor(store).Run(ctx, mediaRoot)
	if err != nil {
		log.Fatalf("Media ingestion failed: %v", err)
	}
	run.Processed = summary.Items
	run.Inserted = summary.Albums
	run.Errors = summary.Errors
	finishRun(ctx, store, run)
	log.Printf("Media pass: %d albums, %d items, %d errors", summary.Albums, summary.Items, summary.Errors)
}

func startRun(kind string) *types.IngestRun {
	return &types.IngestRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		StartedAt: time.Now().UTC(),
	}
}

func finishRun(ctx context.Context, store *sqlite.ArchiveStore, run *types.IngestRun) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	if err := store.RecordRun(ctx, run); err != nil {
		log.Printf("ingest: failed to record run %s: %v", run.Kind, err)
	}
}
