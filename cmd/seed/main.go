// Command seed provisions a document for an email address: it uploads the
// PDF to S3 under a fresh ULID key and upserts the record that the API later
// serves from. Not part of the runtime service.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"

	"github.com/doc-courier/internal/config"
	"github.com/doc-courier/internal/domain"
	"github.com/doc-courier/internal/infrastructure/dynamo"
	s3infra "github.com/doc-courier/internal/infrastructure/s3"
	"github.com/doc-courier/internal/pkg/id"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	if len(os.Args) != 3 {
		log.Fatalf("usage: %s <email> <path-to-pdf>", filepath.Base(os.Args[0]))
	}
	email := domain.NormalizeEmail(os.Args[1])
	pdfPath := os.Args[2]

	cfg := config.Load()
	ctx := context.Background()

	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.RecordsTable)
	records := dynamo.NewRecordRepo(dynamoClient, cfg.RecordsTable)
	docStore := s3infra.NewStore(s3infra.NewClient(cfg), cfg.S3BucketName)

	f, err := os.Open(pdfPath)
	if err != nil {
		log.Fatalf("open %s: %v", pdfPath, err)
	}
	defer f.Close()

	key := "documents/" + id.New() + ".pdf"
	if _, err := docStore.Upload(ctx, key, f, domain.DefaultMimeType); err != nil {
		log.Fatalf("upload document: %v", err)
	}

	existing, err := records.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := records.Update(ctx, email, map[string]interface{}{
			"doc_key":   key,
			"filename":  filepath.Base(pdfPath),
			"mime_type": domain.DefaultMimeType,
		}); err != nil {
			log.Fatalf("update record: %v", err)
		}
		// The replaced payload has no referent anymore.
		if existing.DocKey != "" {
			if err := docStore.Delete(ctx, existing.DocKey); err != nil {
				log.Printf("WARN: could not delete old object %s: %v", existing.DocKey, err)
			}
		}
	case errors.Is(err, domain.ErrNotFound):
		if err := records.Upsert(ctx, &domain.Record{
			Email:    email,
			DocKey:   key,
			Filename: filepath.Base(pdfPath),
			MimeType: domain.DefaultMimeType,
		}); err != nil {
			log.Fatalf("create record: %v", err)
		}
	default:
		log.Fatalf("lookup record: %v", err)
	}

	log.Printf("Seeded document for %s: %s", email, key)
}
