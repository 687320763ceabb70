package http

import (
	"github.com/doc-courier/internal/infrastructure/dynamo"
	s3infra "github.com/doc-courier/internal/infrastructure/s3"
	"github.com/doc-courier/internal/infrastructure/smtp"
	"github.com/doc-courier/internal/infrastructure/sns"
	"github.com/doc-courier/internal/ledger"
)

// Deps holds all infrastructure dependencies for the router. Everything is
// constructed once in cmd/api and lives for the process lifetime.
type Deps struct {
	Ledger  *ledger.Ledger
	Records *dynamo.RecordRepo
	Objects *s3infra.Store
	Mailer  smtp.Mailer
	Alerts  sns.AlertPublisher // nil disables delivery-failure alerts
}
