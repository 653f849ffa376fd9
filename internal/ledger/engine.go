package ledger

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/kislikjeka/safewallet/internal/shared/errors"
	"github.com/kislikjeka/safewallet/internal/storage"
	"github.com/kislikjeka/safewallet/pkg/logger"
)

// Engine keeps the in-memory expense list, the persisted copy in the
// key-value store, and the remote backend reconciled for one active identity
// at a time.
//
// Every mutation is a read-modify-write against the current state under the
// engine lock, never an overwrite from a stale snapshot, so interleaved
// operations preserve each other's optimistic entries. Results of in-flight
// remote calls are committed only if the generation captured at request time
// still matches, which makes identity switches safe against late arrivals.
type Engine struct {
	kv      storage.Store
	backend Backend
	logger  *logger.Logger

	mu       sync.Mutex
	identity string
	gen      uint64
	records  []Record
	ceiling  *decimal.Decimal
	loading  bool
}

// NewEngine creates a ledger sync engine with no active identity
func NewEngine(kv storage.Store, backend Backend, log *logger.Logger) *Engine {
	return &Engine{
		kv:      kv,
		backend: backend,
		logger:  log.WithField("component", "ledger_engine"),
	}
}

// SetIdentity switches the active identity and re-initializes state for it:
// cached records first so callers have something to render, then the
// ceiling (cache, else remote, else zero), then an authoritative refresh.
// An empty identity means logged out; state is cleared and nothing is
// fetched.
func (e *Engine) SetIdentity(ctx context.Context, identity string) error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.identity = identity
	e.records = nil
	e.ceiling = nil
	e.mu.Unlock()

	if identity == "" {
		return nil
	}

	if raw, found, err := e.kv.Get(ctx, storage.LedgerKey(identity).String()); err != nil {
		e.logger.WithError(err).Warn("failed to load cached expenses", "identity", identity)
	} else if found {
		var cached []Record
		if err := json.Unmarshal([]byte(raw), &cached); err != nil {
			e.logger.WithError(err).Warn("discarding unparsable expense cache", "identity", identity)
		} else {
			e.commitRecords(gen, cached)
		}
	}

	e.loadCeiling(ctx, identity, gen)

	return e.Refresh(ctx)
}

// loadCeiling resolves the ceiling for identity: local cache first, then the
// backend, defaulting to zero when the backend is unreachable. Whatever was
// resolved remotely is persisted locally.
func (e *Engine) loadCeiling(ctx context.Context, identity string, gen uint64) {
	key := storage.BudgetKey(identity).String()

	raw, found, err := e.kv.Get(ctx, key)
	if err != nil {
		e.logger.WithError(err).Warn("failed to load cached ceiling", "identity", identity)
	} else if found {
		if value, perr := decimal.NewFromString(raw); perr == nil {
			e.commitCeiling(gen, value)
			return
		}
		e.logger.Warn("discarding unparsable ceiling cache", "value", raw)
	}

	value, err := e.backend.FetchCeiling(ctx, identity)
	if err != nil {
		e.logger.WithError(err).Warn("failed to fetch remote ceiling, defaulting to zero")
		value = decimal.Zero
	}

	if e.commitCeiling(gen, value) {
		if err := e.kv.Set(ctx, key, value.String()); err != nil {
			e.logger.WithError(err).Warn("failed to persist ceiling", "identity", identity)
		}
	}
}

// Refresh replaces the in-memory list with the backend's rows for the active
// identity. The remote is authoritative here: local-only entries not yet
// confirmed server-side are dropped. On backend failure the current state is
// left untouched and the error is returned.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	identity := e.identity
	gen := e.gen
	e.loading = true
	e.mu.Unlock()
	defer e.setLoading(false)

	if identity == "" {
		return nil
	}

	rows, err := e.backend.List(ctx, identity)
	if err != nil {
		e.logger.WithError(err).Error("refresh failed", "identity", identity)
		return apperrors.Remote("failed to refresh expenses", err)
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Normalize(identity))
	}

	if !e.commitRecords(gen, records) {
		// identity changed while the fetch was in flight
		return nil
	}

	e.persistRecords(ctx, identity, records)
	return nil
}

// Add validates the draft, applies it optimistically under a local
// identifier, then attempts the remote create. On confirmation the local
// identifier is rewritten in place so the entry keeps its list position; on
// failure the entry stays local-only until a later sync.
func (e *Engine) Add(ctx context.Context, draft Draft) (Record, error) {
	if err := draft.Validate(); err != nil {
		return Record{}, err
	}

	rec := Record{
		ID:         NewLocalID(),
		Label:      draft.Label,
		Category:   draft.Category,
		Amount:     draft.Amount,
		OccurredAt: draft.OccurredAt,
	}
	if rec.Category == "" {
		rec.Category = DefaultCategory
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	e.mu.Lock()
	if err := (Guard{Ceiling: e.ceiling}).Check(SumAmounts(e.records), draft.Amount); err != nil {
		e.mu.Unlock()
		return Record{}, err
	}
	identity := e.identity
	gen := e.gen
	rec.Owner = identity
	e.records = append([]Record{rec}, e.records...)
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	e.persistRecords(ctx, identity, snapshot)

	row, err := e.backend.Create(ctx, Draft{
		Label:      rec.Label,
		Category:   rec.Category,
		Amount:     rec.Amount,
		OccurredAt: rec.OccurredAt,
	})
	if err != nil {
		e.logger.WithError(err).Warn("remote create failed, keeping local entry", "id", rec.ID)
		return rec, nil
	}

	if row == nil || row.ID == "" {
		// create succeeded but the response carried no identifier
		if rerr := e.Refresh(ctx); rerr != nil {
			e.logger.WithError(rerr).Warn("post-create refresh failed")
		}
		return rec, nil
	}

	confirmed := row.Normalize(identity)

	e.mu.Lock()
	if e.gen != gen {
		e.mu.Unlock()
		return rec, nil
	}
	for i := range e.records {
		if e.records[i].ID == rec.ID {
			e.records[i].ID = confirmed.ID
			if !confirmed.OccurredAt.IsZero() {
				e.records[i].OccurredAt = confirmed.OccurredAt
			}
			rec = e.records[i]
			break
		}
	}
	snapshot = e.snapshotLocked()
	e.mu.Unlock()

	e.persistRecords(ctx, identity, snapshot)
	return rec, nil
}

// Update merges the patch into the matching record locally regardless of
// identifier kind, then pushes it upstream only when the identifier is
// remote. A record still carrying a local identifier has no remote
// counterpart; its patch lives locally until a future sync reconciles it.
// An unknown id is a no-op.
func (e *Engine) Update(ctx context.Context, id string, patch Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return nil
	}

	e.mu.Lock()
	identity := e.identity
	updated := false
	for i := range e.records {
		if e.records[i].ID == id {
			patch.applyTo(&e.records[i])
			updated = true
			break
		}
	}
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if !updated {
		return nil
	}

	e.persistRecords(ctx, identity, snapshot)

	if IsRemoteID(id) {
		if err := e.backend.Update(ctx, id, patch); err != nil {
			e.logger.WithError(err).Warn("remote update failed, patch kept locally", "id", id)
		}
	}
	return nil
}

// Remove filters the record out locally, then deletes it upstream only when
// the identifier is remote. Removing an unknown id is a no-op.
func (e *Engine) Remove(ctx context.Context, id string) error {
	e.mu.Lock()
	identity := e.identity
	removed := false
	next := e.records[:0:0]
	for _, rec := range e.records {
		if rec.ID == id {
			removed = true
			continue
		}
		next = append(next, rec)
	}
	e.records = next
	snapshot := e.snapshotLocked()
	e.mu.Unlock()

	if !removed {
		return nil
	}

	e.persistRecords(ctx, identity, snapshot)

	if IsRemoteID(id) {
		if err := e.backend.Delete(ctx, id); err != nil {
			e.logger.WithError(err).Warn("remote delete failed, entry already removed locally", "id", id)
		}
	}
	return nil
}

// SetCeiling updates the budget ceiling local-first: in-memory and persisted
// immediately, mirrored to the backend best-effort. A remote failure never
// rolls back the local value.
func (e *Engine) SetCeiling(ctx context.Context, value decimal.Decimal) error {
	if value.IsNegative() {
		return ErrInvalidCeiling
	}

	e.mu.Lock()
	ceiling := value
	e.ceiling = &ceiling
	identity := e.identity
	e.mu.Unlock()

	if err := e.kv.Set(ctx, storage.BudgetKey(identity).String(), value.String()); err != nil {
		e.logger.WithError(err).Warn("failed to persist ceiling", "identity", identity)
	}

	if identity != "" {
		if err := e.backend.StoreCeiling(ctx, identity, value); err != nil {
			e.logger.WithError(err).Warn("remote ceiling update failed, local value kept")
		}
	}
	return nil
}

// ClearAll empties in-memory state and local persistence for the active
// identity unconditionally. When alsoRemote is set the backend rows are
// deleted too; a remote failure is reported but the local effect stands.
func (e *Engine) ClearAll(ctx context.Context, alsoRemote bool) error {
	e.mu.Lock()
	identity := e.identity
	e.records = nil
	e.mu.Unlock()

	if err := e.kv.Delete(ctx, storage.LedgerKey(identity).String()); err != nil {
		e.logger.WithError(err).Warn("failed to clear persisted expenses", "identity", identity)
	}

	if alsoRemote && identity != "" {
		if err := e.backend.DeleteAllForOwner(ctx, identity); err != nil {
			return apperrors.Remote("failed to delete remote expenses", err)
		}
	}
	return nil
}

// Records returns a copy of the in-memory list, most recent first
func (e *Engine) Records() []Record {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Ceiling returns the active ceiling and whether one is set
func (e *Engine) Ceiling() (decimal.Decimal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ceiling == nil {
		return decimal.Zero, false
	}
	return *e.ceiling, true
}

// Total returns the sum of all record amounts
func (e *Engine) Total() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return SumAmounts(e.records)
}

// Remaining returns ceiling minus total, and whether a ceiling is set
func (e *Engine) Remaining() (decimal.Decimal, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ceiling == nil {
		return decimal.Zero, false
	}
	return e.ceiling.Sub(SumAmounts(e.records)), true
}

// Identity returns the active identity, empty when logged out
func (e *Engine) Identity() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

// IsLoading reports whether a refresh is in flight
func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

func (e *Engine) setLoading(v bool) {
	e.mu.Lock()
	e.loading = v
	e.mu.Unlock()
}

// snapshotLocked copies the record list; callers must hold e.mu.
func (e *Engine) snapshotLocked() []Record {
	return append([]Record(nil), e.records...)
}

// commitRecords replaces the list only if gen is still current
func (e *Engine) commitRecords(gen uint64, records []Record) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return false
	}
	e.records = records
	return true
}

// commitCeiling sets the ceiling only if gen is still current
func (e *Engine) commitCeiling(gen uint64, value decimal.Decimal) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return false
	}
	e.ceiling = &value
	return true
}

// persistRecords writes the snapshot to the key-value store. Persistence
// failures degrade to in-memory-only state and are logged, not propagated.
func (e *Engine) persistRecords(ctx context.Context, identity string, snapshot []Record) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		e.logger.WithError(err).Error("failed to serialize expenses")
		return
	}
	if err := e.kv.Set(ctx, storage.LedgerKey(identity).String(), string(data)); err != nil {
		e.logger.WithError(err).Warn("failed to persist expenses", "identity", identity)
	}
}
