// Package purchasing runs purchase order editing sessions and submits the
// finished orders to the record store.
package purchasing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/allocation"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/erpexport"
	"github.com/odyssey-erp/odyssey-po/internal/purchasing/orders"
	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// AuditPort records audit entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MetricsPort counts order submissions.
type MetricsPort interface {
	RecordSubmission(status, outcome string)
}

// Mode selects how an order is submitted.
type Mode string

const (
	ModeDraft  Mode = "draft"
	ModeSubmit Mode = "submit"
)

// Config holds session defaults.
type Config struct {
	BaseCurrency string
	MaxLines     int
}

// Service orchestrates editing sessions.
type Service struct {
	records  recordstore.Store
	sessions SessionStore
	fields   recordstore.FieldMap
	numberer *Numberer
	audit    AuditPort
	metrics  MetricsPort
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

// NewService constructs the service.
func NewService(records recordstore.Store, sessions SessionStore, fields recordstore.FieldMap, audit AuditPort, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "JPY"
	}
	if cfg.MaxLines <= 0 {
		cfg.MaxLines = orders.DefaultMaxLines
	}
	return &Service{
		records:  records,
		sessions: sessions,
		fields:   fields,
		numberer: NewNumberer(records, fields, logger),
		audit:    audit,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithMetrics attaches a submission counter.
func (s *Service) WithMetrics(m MetricsPort) *Service {
	s.metrics = m
	return s
}

// WithClock overrides the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// NewSession opens an empty editing session.
func (s *Service) NewSession(ctx context.Context) (*orders.Session, error) {
	sess := orders.NewSession(uuid.NewString(), s.cfg.BaseCurrency, s.cfg.MaxLines)
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Session loads an editing session.
func (s *Service) Session(ctx context.Context, id string) (*orders.Session, error) {
	return s.sessions.Load(ctx, id)
}

// DiscardSession removes an editing session.
func (s *Service) DiscardSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// UpdateHeader replaces the header draft and reruns the pipeline.
func (s *Service) UpdateHeader(ctx context.Context, id string, h orders.HeaderDraft) (*orders.Session, error) {
	return s.mutate(ctx, id, func(sess *orders.Session) error {
		sess.SetHeader(h)
		return nil
	})
}

// AddLine appends a line and returns its index.
func (s *Service) AddLine(ctx context.Context, id string, d orders.LineDraft) (*orders.Session, int, error) {
	index := -1
	sess, err := s.mutate(ctx, id, func(sess *orders.Session) error {
		i, err := sess.AddLine(d)
		index = i
		return err
	})
	return sess, index, err
}

// UpdateLine replaces the draft of one line.
func (s *Service) UpdateLine(ctx context.Context, id string, index int, d orders.LineDraft) (*orders.Session, error) {
	return s.mutate(ctx, id, func(sess *orders.Session) error {
		return sess.UpdateLine(index, d)
	})
}

// RemoveLine deletes a line, renumbering the rest and moving their allocations.
func (s *Service) RemoveLine(ctx context.Context, id string, index int) (*orders.Session, error) {
	return s.mutate(ctx, id, func(sess *orders.Session) error {
		return sess.RemoveLine(index)
	})
}

// AllocationView is the editor state for one line.
type AllocationView struct {
	Line    allocation.LineRef `json:"line"`
	Rows    []allocation.Row   `json:"rows"`
	Summary allocation.Summary `json:"summary"`
	Notices []string           `json:"notices,omitempty"`
}

func viewOf(e *allocation.Editor) AllocationView {
	return AllocationView{Line: e.Line(), Rows: e.Rows(), Summary: e.Summary()}
}

// Allocations opens the allocation editor for a line.
func (s *Service) Allocations(ctx context.Context, id string, index int) (AllocationView, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return AllocationView{}, err
	}
	editor, err := allocation.Open(sess, index)
	if err != nil {
		return AllocationView{}, err
	}
	return viewOf(editor), nil
}

// SaveAllocations stores rows on a line. ui answers the mismatch confirmation.
func (s *Service) SaveAllocations(ctx context.Context, id string, index int, rows []allocation.Row, ui shared.Interaction) (AllocationView, error) {
	var view AllocationView
	_, err := s.mutate(ctx, id, func(sess *orders.Session) error {
		editor, err := allocation.Open(sess, index)
		if err != nil {
			return err
		}
		editor.ReplaceRows(rows)
		if _, err := editor.Save(ctx, ui); err != nil {
			return err
		}
		view = viewOf(editor)
		return nil
	})
	return view, err
}

// ImportAllocations parses clipboard text into editor rows. When save is set
// the parsed rows are stored as with SaveAllocations. A paste that yields no
// rows is a ValidationError carrying the expected format.
func (s *Service) ImportAllocations(ctx context.Context, id string, index int, text string, save, confirmed bool) (AllocationView, error) {
	ui := shared.NewStaticInteraction(confirmed).WithClipboard(text)
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return AllocationView{}, err
	}
	editor, err := allocation.Open(sess, index)
	if err != nil {
		return AllocationView{}, err
	}
	n, err := editor.Paste(ctx, ui)
	if err != nil {
		return AllocationView{}, err
	}
	if n == 0 {
		return AllocationView{}, shared.NewValidationError("text", allocation.NoValidDataMessage)
	}
	if save {
		if _, err := editor.Save(ctx, ui); err != nil {
			return AllocationView{}, err
		}
		if err := s.save(ctx, sess); err != nil {
			return AllocationView{}, err
		}
	}
	view := viewOf(editor)
	view.Notices = ui.Notices()
	return view, nil
}

// ExportRows regenerates the ERP rows from the session's current state.
func (s *Service) ExportRows(ctx context.Context, id string) ([]erpexport.Row, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return erpexport.FromSession(sess), nil
}

// SubmitResult describes a stored order.
type SubmitResult struct {
	RecordID string        `json:"record_id"`
	PONumber string        `json:"po_number"`
	Status   orders.Status `json:"status"`
}

// Submit validates the session and stores it as a new order record. A
// foreign currency without an exchange rate needs confirmation through ui.
// The session is discarded once the record exists.
func (s *Service) Submit(ctx context.Context, id string, mode Mode, ui shared.Interaction) (SubmitResult, error) {
	status := orders.StatusPending
	if mode == ModeDraft {
		status = orders.StatusDraft
	}
	res, err := s.submit(ctx, id, status, ui)
	s.observe(status, err)
	return res, err
}

func (s *Service) submit(ctx context.Context, id string, status orders.Status, ui shared.Interaction) (SubmitResult, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return SubmitResult{}, err
	}
	if err := sess.Validate(); err != nil {
		return SubmitResult{}, err
	}
	if sess.NeedsExchangeRate() {
		msg := fmt.Sprintf("currency %s has no exchange rate. Register without a %s total?", sess.Header().Currency, sess.BaseCurrency())
		ok, err := ui.Confirm(ctx, msg)
		if err != nil {
			return SubmitResult{}, err
		}
		if !ok {
			return SubmitResult{}, fmt.Errorf("purchasing: exchange rate missing: %w", shared.ErrConfirmationDeclined)
		}
	}

	poNumber := s.numberer.Next(ctx, s.now())
	rec := BuildRecord(sess, poNumber, status, s.fields)
	recordID, err := s.records.CreateRecord(ctx, s.fields.Collection(recordstore.CollectionOrders), rec)
	if err != nil {
		return SubmitResult{}, shared.WrapExternal("create order record", err)
	}
	s.logger.Info("purchase order stored",
		slog.String("po_number", poNumber),
		slog.String("record_id", recordID),
		slog.String("status", string(status)),
		slog.Int("lines", sess.LineCount()))

	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Action:   "po.submit",
			Entity:   "purchase_order",
			EntityID: poNumber,
			Meta:     map[string]any{"record_id": recordID, "status": string(status)},
			At:       s.now(),
		}); err != nil {
			s.logger.Warn("audit po submit", slog.Any("error", err))
		}
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		s.logger.Warn("discard submitted session", slog.String("session", id), slog.Any("error", err))
	}
	return SubmitResult{RecordID: recordID, PONumber: poNumber, Status: status}, nil
}

func (s *Service) observe(status orders.Status, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrValidation):
		outcome = "invalid"
	case errors.Is(err, shared.ErrConfirmationDeclined):
		outcome = "declined"
	default:
		outcome = "error"
	}
	s.metrics.RecordSubmission(string(status), outcome)
}

func (s *Service) mutate(ctx context.Context, id string, fn func(*orders.Session) error) (*orders.Session, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Service) save(ctx context.Context, sess *orders.Session) error {
	return s.sessions.Save(ctx, sess)
}
