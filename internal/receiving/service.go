package receiving

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/odyssey-po/internal/recordstore"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
	"github.com/odyssey-erp/odyssey-po/internal/warehouse"
)

// ErrLineNotFound indicates the order or its item line does not exist.
var ErrLineNotFound = fmt.Errorf("receiving: order line not found: %w", shared.ErrNotFound)

const idempotencyModule = "receiving"

const pairLockStripes = 64

// IdempotencyPort claims submission keys.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// AuditPort records audit entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Enqueuer schedules the background reconciliation of one pair.
type Enqueuer interface {
	EnqueueReconcile(ctx context.Context, poNumber, itemCode string) error
}

// MetricsPort counts receipt outcomes.
type MetricsPort interface {
	RecordReceipt(outcome string)
}

// Service serves the receiving dashboard and commits receipts.
type Service struct {
	store     recordstore.Store
	fields    recordstore.FieldMap
	codec     codec
	directory warehouse.Directory
	cache     *Cache
	idem      IdempotencyPort
	audit     AuditPort
	enqueuer  Enqueuer
	metrics   MetricsPort
	logger    *slog.Logger
	now       func() time.Time
	loads     singleflight.Group

	// pairLocks serialises check-then-create per (order, item) pair within
	// this process.
	pairLocks [pairLockStripes]sync.Mutex
}

// NewService constructs the service. cache may be nil.
func NewService(store recordstore.Store, fields recordstore.FieldMap, directory warehouse.Directory, cache *Cache, idem IdempotencyPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		fields:    fields,
		codec:     codec{fields: fields, logger: logger},
		directory: directory,
		cache:     cache,
		idem:      idem,
		audit:     audit,
		logger:    logger,
		now:       time.Now,
	}
}

// WithEnqueuer attaches the background task client.
func (s *Service) WithEnqueuer(e Enqueuer) *Service {
	s.enqueuer = e
	return s
}

// WithMetrics attaches receipt counters.
func (s *Service) WithMetrics(m MetricsPort) *Service {
	s.metrics = m
	return s
}

// WithClock overrides the current time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Dashboard is the filtered view. Counters cover every order; Matched is the
// number of orders passing the filter.
type Dashboard struct {
	Orders      []Order   `json:"orders"`
	Counters    Counters  `json:"counters"`
	Total       int       `json:"total"`
	Matched     int       `json:"matched"`
	GeneratedAt time.Time `json:"generated_at"`

	Pagination *shared.Pagination `json:"pagination,omitempty"`
}

// Dashboard returns the reconciled orders passing filter. refresh bypasses
// the cached snapshot and replaces it.
func (s *Service) Dashboard(ctx context.Context, filter Filter, refresh bool) (Dashboard, error) {
	var (
		snap Snapshot
		err  error
	)
	if refresh {
		snap, err = s.Refresh(ctx)
	} else {
		snap, err = s.Snapshot(ctx)
	}
	if err != nil {
		return Dashboard{}, err
	}
	matched := filter.Apply(snap.Orders)
	view := Dashboard{
		Orders:      matched,
		Counters:    snap.Counters,
		Total:       len(snap.Orders),
		Matched:     len(matched),
		GeneratedAt: snap.GeneratedAt,
	}
	if filter.Page > 0 || filter.PerPage > 0 {
		p := shared.NewPagination(filter.Page, filter.PerPage, len(matched))
		start, end := p.Bounds()
		view.Orders = matched[start:end]
		view.Pagination = &p
	}
	return view, nil
}

// Snapshot returns the cached snapshot or loads one. Concurrent callers
// at the same cache version share a single load.
func (s *Service) Snapshot(ctx context.Context) (Snapshot, error) {
	ver := s.cacheVersion(ctx)
	snap, ok, err := s.cache.LoadAt(ctx, ver)
	if err != nil {
		s.logger.Warn("receiving cache read", slog.Any("error", err))
	}
	if ok {
		return snap, nil
	}
	return s.loadShared(ctx, "load", ver)
}

// Refresh reloads from the record store and overwrites the cached snapshot.
func (s *Service) Refresh(ctx context.Context) (Snapshot, error) {
	return s.loadShared(ctx, "refresh", s.cacheVersion(ctx))
}

// cacheVersion is read before loading so a receipt committed mid-load
// leaves the result on a dead key.
func (s *Service) cacheVersion(ctx context.Context) int64 {
	ver, err := s.cache.Version(ctx)
	if err != nil {
		s.logger.Warn("receiving cache version", slog.Any("error", err))
		return 0
	}
	return ver
}

func (s *Service) loadShared(ctx context.Context, kind string, ver int64) (Snapshot, error) {
	key := fmt.Sprintf("%s:%d", kind, ver)
	ch := s.loads.DoChan(key, func() (interface{}, error) {
		snap, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.StoreAt(ctx, ver, snap); err != nil {
			s.logger.Warn("receiving cache write", slog.Any("error", err))
		}
		return snap, nil
	})
	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, res.Err
		}
		return res.Val.(Snapshot), nil
	}
}

func (s *Service) load(ctx context.Context) (Snapshot, error) {
	var orderRecs, txRecs []recordstore.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		recs, err := s.store.FetchRecords(gctx, s.fields.Collection(recordstore.CollectionOrders),
			recordstore.Query{}.Order(s.fields.Code("poNumber"), true))
		orderRecs = recs
		return shared.WrapExternal("receiving: fetch orders", err)
	})
	g.Go(func() error {
		recs, err := s.store.FetchRecords(gctx, s.fields.Collection(recordstore.CollectionTransactions), s.codec.receiptQuery("", ""))
		txRecs = recs
		return shared.WrapExternal("receiving: fetch transactions", err)
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	orders := make([]orderRecord, 0, len(orderRecs))
	for _, rec := range orderRecs {
		orders = append(orders, s.codec.order(rec))
	}
	return buildSnapshot(orders, s.transactions(txRecs), s.now()), nil
}

func (s *Service) transactions(recs []recordstore.Record) []Transaction {
	out := make([]Transaction, 0, len(recs))
	for _, rec := range recs {
		out = append(out, s.codec.transaction(rec))
	}
	return out
}

// Line reconciles a single (order, item) pair from fresh store reads.
func (s *Service) Line(ctx context.Context, poNumber, itemCode string) (Line, error) {
	l, txs, err := s.pair(ctx, poNumber, itemCode)
	if err != nil {
		return Line{}, err
	}
	return lineView(l, Reconcile(l.quantity, txs, l.expected, s.now())), nil
}

// History lists the receipts of a pair, newest first.
func (s *Service) History(ctx context.Context, poNumber, itemCode string) (History, error) {
	txs, err := s.receipts(ctx, poNumber, itemCode)
	if err != nil {
		return History{}, err
	}
	return NewHistory(poNumber, itemCode, txs), nil
}

func (s *Service) pair(ctx context.Context, poNumber, itemCode string) (orderLine, []Transaction, error) {
	poNumber, itemCode = strings.TrimSpace(poNumber), strings.TrimSpace(itemCode)
	if poNumber == "" || itemCode == "" {
		return orderLine{}, nil, ErrLineNotFound
	}
	recs, err := s.store.FetchRecords(ctx, s.fields.Collection(recordstore.CollectionOrders),
		recordstore.Where(recordstore.Eq(s.fields.Code("poNumber"), poNumber)).WithLimit(1))
	if err != nil {
		return orderLine{}, nil, shared.WrapExternal("receiving: fetch order", err)
	}
	if len(recs) == 0 {
		return orderLine{}, nil, ErrLineNotFound
	}
	l, ok := s.codec.order(recs[0]).line(itemCode)
	if !ok {
		return orderLine{}, nil, ErrLineNotFound
	}
	txs, err := s.receipts(ctx, poNumber, itemCode)
	if err != nil {
		return orderLine{}, nil, err
	}
	return l, txs, nil
}

func (s *Service) receipts(ctx context.Context, poNumber, itemCode string) ([]Transaction, error) {
	recs, err := s.store.FetchRecords(ctx, s.fields.Collection(recordstore.CollectionTransactions), s.codec.receiptQuery(poNumber, itemCode))
	if err != nil {
		return nil, shared.WrapExternal("receiving: fetch transactions", err)
	}
	return s.transactions(recs), nil
}

// ReceiptResult is a committed receipt and the pair's fulfillment after it.
type ReceiptResult struct {
	Transaction Transaction `json:"transaction"`
	Line        Line        `json:"line"`
}

// Receive validates and commits a receipt. A non-empty idemKey rejects
// repeated submissions with shared.ErrIdempotencyConflict.
func (s *Service) Receive(ctx context.Context, in ReceiptInput, idemKey string) (ReceiptResult, error) {
	res, err := s.receive(ctx, in, strings.TrimSpace(idemKey))
	s.observe(err)
	return res, err
}

func (s *Service) receive(ctx context.Context, in ReceiptInput, idemKey string) (ReceiptResult, error) {
	in.PONumber, in.ItemCode = strings.TrimSpace(in.PONumber), strings.TrimSpace(in.ItemCode)
	unlock := s.lockPair(in.PONumber, in.ItemCode)
	defer unlock()

	l, txs, err := s.pair(ctx, in.PONumber, in.ItemCode)
	if err != nil {
		return ReceiptResult{}, err
	}
	before := Reconcile(l.quantity, txs, l.expected, s.now())

	var location string
	if code := strings.TrimSpace(in.Warehouse); code != "" && s.directory != nil {
		location, err = s.directory.Location(ctx, code)
		if err != nil {
			return ReceiptResult{}, shared.WrapExternal("receiving: resolve location", err)
		}
	}
	if err := ValidateReceipt(in, before.Remaining, location); err != nil {
		return ReceiptResult{}, err
	}

	if idemKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idemKey, idempotencyModule); err != nil {
			return ReceiptResult{}, err
		}
	}
	tx := NewReceipt(in, location)
	id, err := s.store.CreateRecord(ctx, s.fields.Collection(recordstore.CollectionTransactions), s.codec.transactionRecord(tx))
	if err != nil {
		if idemKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, idemKey, idempotencyModule)
		}
		return ReceiptResult{}, shared.WrapExternal("receiving: create transaction", err)
	}
	tx.ID = id
	s.logger.Info("receipt committed",
		slog.String("po_number", tx.PONumber),
		slog.String("item_code", tx.ItemCode),
		slog.String("quantity", tx.Quantity.String()),
		slog.String("record_id", id))

	s.afterCommit(ctx, tx)

	after, err := s.Line(ctx, tx.PONumber, tx.ItemCode)
	if err != nil {
		s.logger.Warn("receiving refresh after commit", slog.Any("error", err))
		after = lineView(l, Reconcile(l.quantity, append(txs, tx), l.expected, s.now()))
	}
	return ReceiptResult{Transaction: tx, Line: after}, nil
}

func (s *Service) lockPair(poNumber, itemCode string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(poNumber))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(itemCode))
	mu := &s.pairLocks[h.Sum32()%pairLockStripes]
	mu.Lock()
	return mu.Unlock
}

// afterCommit runs the side effects of a stored receipt. None of them undo it.
func (s *Service) afterCommit(ctx context.Context, tx Transaction) {
	if s.audit != nil {
		entry := shared.AuditLog{
			Action:   "receiving.receipt",
			Entity:   "inventory_transaction",
			EntityID: tx.ID,
			Meta: map[string]any{
				"po_number": tx.PONumber,
				"item_code": tx.ItemCode,
				"quantity":  tx.Quantity.String(),
				"warehouse": tx.Warehouse,
			},
			At: s.now(),
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			s.logger.Warn("receipt audit", slog.Any("error", err))
		}
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("receiving cache bump", slog.Any("error", err))
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueReconcile(ctx, tx.PONumber, tx.ItemCode); err != nil {
			s.logger.Warn("enqueue reconcile", slog.Any("error", err))
		}
	}
}

func (s *Service) observe(err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, shared.ErrValidation):
		outcome = "invalid"
	case errors.Is(err, shared.ErrIdempotencyConflict):
		outcome = "duplicate"
	case errors.Is(err, shared.ErrNotFound):
		outcome = "not_found"
	default:
		outcome = "error"
	}
	s.metrics.RecordReceipt(outcome)
}
