// Package importing loads invoices in bulk from CSV exports of the billing
// system.
package importing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"cartera/internal/core/apperror"
	"cartera/internal/core/id"
	"cartera/internal/core/types"
	"cartera/internal/domain"
	"cartera/internal/domain/client"
	"cartera/internal/domain/invoice"
	"cartera/pkg/logger"
)

// Expected CSV header, in order.
var columns = []string{
	"number", "client_code", "issue_date", "due_date", "gross_total", "notes",
}

const dateLayout = "2006-01-02"

// RowError describes why one CSV line was rejected.
type RowError struct {
	Line    int    `json:"line"`
	Number  string `json:"number,omitempty"`
	Message string `json:"message"`
}

// Result summarizes one import run.
type Result struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []RowError `json:"errors,omitempty"`
}

// InvoiceStore is the slice of the invoice service the importer uses.
type InvoiceStore interface {
	Create(ctx context.Context, inv *invoice.Invoice) error
	Update(ctx context.Context, inv *invoice.Invoice) error
	GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error)
}

// ClientLookup resolves client codes from the CSV to directory entries.
type ClientLookup interface {
	GetByCode(ctx context.Context, code string) (*client.Client, error)
}

// Importer parses invoice CSV files and upserts them through the invoice
// service, so every imported row passes the same validation as manual entry.
type Importer struct {
	invoices InvoiceStore
	clients  ClientLookup
	audit    domain.AuditRecorder
}

// NewImporter creates an importer. audit may be nil; when set, every run is
// recorded with its per-row errors.
func NewImporter(invoices InvoiceStore, clients ClientLookup, audit domain.AuditRecorder) *Importer {
	return &Importer{invoices: invoices, clients: clients, audit: audit}
}

// Run reads the CSV and imports each row. Existing invoices are updated
// unless they already have payments, in which case the row is skipped with an
// error. One bad row never aborts the run.
func (im *Importer) Run(ctx context.Context, r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperror.NewValidation("empty or unreadable CSV file")
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	res := &Result{}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			res.Errors = append(res.Errors, RowError{Line: line, Message: err.Error()})
			res.Skipped++
			continue
		}

		number := strings.TrimSpace(record[0])
		if err := im.importRow(ctx, record, res); err != nil {
			res.Errors = append(res.Errors, RowError{
				Line:    line,
				Number:  number,
				Message: errorMessage(err),
			})
			res.Skipped++
		}
	}

	if im.audit != nil {
		batchID := id.New()
		if err := im.audit.Record(ctx, "import_batch", batchID.String(), "run", res); err != nil {
			logger.Warn(ctx, "import batch audit failed", "error", err)
		}
	}

	logger.Info(ctx, "invoice import finished",
		"created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
	return res, nil
}

func (im *Importer) importRow(ctx context.Context, record []string, res *Result) error {
	number := strings.TrimSpace(record[0])
	clientCode := strings.TrimSpace(record[1])

	issueDate, err := time.Parse(dateLayout, strings.TrimSpace(record[2]))
	if err != nil {
		return apperror.NewValidation("invalid issue date").
			WithDetail("value", record[2])
	}
	dueDate, err := time.Parse(dateLayout, strings.TrimSpace(record[3]))
	if err != nil {
		return apperror.NewValidation("invalid due date").
			WithDetail("value", record[3])
	}
	gross, err := types.NewMoneyFromString(strings.TrimSpace(record[4]))
	if err != nil {
		return apperror.NewValidation("invalid gross total").
			WithDetail("value", record[4])
	}

	cl, err := im.clients.GetByCode(ctx, clientCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewValidation("unknown client code").
				WithDetail("client_code", clientCode)
		}
		return err
	}

	existing, err := im.invoices.GetByNumber(ctx, number)
	switch {
	case err == nil:
		existing.IssueDate = issueDate
		existing.DueDate = dueDate
		existing.GrossTotal = gross
		existing.Notes = strings.TrimSpace(record[5])
		if err := im.invoices.Update(ctx, existing); err != nil {
			return err
		}
		res.Updated++
		return nil

	case apperror.IsNotFound(err):
		prefix, _, _ := strings.Cut(number, "-")
		inv := invoice.New(number, cl.ID, invoice.Type(prefix), issueDate, dueDate, gross)
		inv.SellerID = cl.SellerID
		inv.DistributorID = cl.DistributorID
		inv.Notes = strings.TrimSpace(record[5])
		if err := im.invoices.Create(ctx, inv); err != nil {
			return err
		}
		res.Created++
		return nil

	default:
		return err
	}
}

func checkHeader(header []string) error {
	if len(header) < len(columns) {
		return apperror.NewValidation("CSV header is missing columns").
			WithDetail("expected", strings.Join(columns, ","))
	}
	for i, want := range columns {
		if !strings.EqualFold(strings.TrimSpace(header[i]), want) {
			return apperror.NewValidation(fmt.Sprintf("unexpected column %q, want %q", header[i], want))
		}
	}
	return nil
}

func errorMessage(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
