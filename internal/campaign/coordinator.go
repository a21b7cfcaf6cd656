package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedback-call-platform/internal/calls"
	"feedback-call-platform/internal/csvio"
	"feedback-call-platform/internal/metrics"

	"github.com/google/uuid"
)

// BulkSubmitter submits a whole batch in one request. Never per-row.
type BulkSubmitter interface {
	BulkSubmit(ctx context.Context, campaignName string, records []calls.CallRecord) (BulkResult, error)
}

// Repository is the local campaign registry.
type Repository interface {
	Create(ctx context.Context, c Campaign) error
	List(ctx context.Context) ([]Campaign, error)
}

var ErrValidation = errors.New("campaign: validation failed")

// Outcome is what one bulk submission produced.
type Outcome struct {
	Campaign Campaign   `json:"campaign"`
	Result   BulkResult `json:"result"`

	// Done signals the upload dialog may close: every row was accepted.
	// On partial failure it stays false so the error list can be inspected.
	Done bool `json:"done"`
}

// Coordinator validates a named batch of parsed rows and submits it as one
// unit, reconciling per-row success/failure.
type Coordinator struct {
	submitter BulkSubmitter
	repo      Repository
	log       *slog.Logger
	clock     func() time.Time

	// onRefresh lets dependent views update after a registration.
	onRefresh func(ctx context.Context)
}

func NewCoordinator(submitter BulkSubmitter, repo Repository, onRefresh func(ctx context.Context), log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		submitter: submitter,
		repo:      repo,
		log:       log,
		clock:     time.Now,
		onRefresh: onRefresh,
	}
}

// MapRows converts parsed CSV rows into call records, rejecting rows with
// missing required fields. Row numbers in errors are 1-based data rows.
func MapRows(rows []csvio.Row) ([]calls.CallRecord, error) {
	records := make([]calls.CallRecord, 0, len(rows))
	for i, r := range rows {
		rec := calls.CallRecord{
			CustomerName:       strings.TrimSpace(r[ColCustomerName]),
			PhoneNumber:        strings.TrimSpace(r[ColPhoneNumber]),
			VehicleNumber:      strings.TrimSpace(r[ColVehicleNumber]),
			ServiceType:        strings.TrimSpace(r[ColServiceType]),
			ServiceAdvisorName: strings.TrimSpace(r[ColServiceAdvisorName]),
			AppointmentDate:    strings.TrimSpace(r[ColAppointmentDate]),
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrValidation, i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Submit validates the batch, performs the single bulk request, registers the
// campaign locally (even on partial failure) and triggers the refresh
// callback. A transport or non-success response aborts before registration.
func (c *Coordinator) Submit(ctx context.Context, name string, rows []csvio.Row) (Outcome, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Outcome{}, fmt.Errorf("%w: campaign name is required", ErrValidation)
	}

	records, err := MapRows(rows)
	if err != nil {
		return Outcome{}, err
	}
	if len(records) == 0 {
		return Outcome{}, fmt.Errorf("%w: no valid rows to submit", ErrValidation)
	}

	res, err := c.submitter.BulkSubmit(ctx, name, records)
	if err != nil {
		metrics.BulkSubmissionsTotal.WithLabelValues("error").Inc()
		return Outcome{}, fmt.Errorf("campaign: bulk submit failed: %w", err)
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}

	camp := Campaign{
		ID:              uuid.NewString(),
		Name:            name,
		TotalRecords:    len(records),
		SuccessfulCount: res.SuccessfulCount,
		FailedCount:     res.FailedCount,
		CreatedAt:       c.clock().UTC(),
	}
	// Registration is best-effort: the backend already accepted the batch, so
	// a registry hiccup must not hide the submission outcome.
	if err := c.repo.Create(ctx, camp); err != nil {
		c.log.Error("campaign registration failed", "campaign_id", camp.ID, "err", err)
	}

	if c.onRefresh != nil {
		c.onRefresh(ctx)
	}

	if res.FailedCount == 0 {
		metrics.BulkSubmissionsTotal.WithLabelValues("clean").Inc()
	} else {
		metrics.BulkSubmissionsTotal.WithLabelValues("partial").Inc()
	}

	return Outcome{Campaign: camp, Result: res, Done: res.FailedCount == 0}, nil
}

// List returns the locally registered campaigns.
func (c *Coordinator) List(ctx context.Context) ([]Campaign, error) {
	return c.repo.List(ctx)
}
