/*
service.go - Composite write operations (the transaction coordinator)

PURPOSE:
  Every costed record write is a composite operation: persist the
  operational row, resolve its owning farmer, and upsert the derived
  ledger entry, all inside one database transaction. This file is where
  those three steps are stitched together.

FAILURE SEMANTICS:
  - Validation and constraint errors from the upsert roll back the whole
    scope, operational write included. The caller sees one failure for
    the composite operation.
  - A dangling owner reference is the one non-fatal case: it is logged
    as a warning and the operational write commits without a ledger
    counterpart.
  - Event publishing happens after commit and is best-effort; a publish
    failure is logged, never propagated.

DELETION POLICY:
  Deleting a costed record deletes its ledger entry in the same
  transaction. Likewise, an edit that drops a cost to zero or below
  removes the now-stale entry.

SEE ALSO:
  - ledger/sync.go: The upsert engine invoked here
  - store.go:       The TxStore contract this coordinator relies on
*/
package farm

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/smartranch/ranch-engine/events"
	"github.com/smartranch/ranch-engine/ledger"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service coordinates operational writes with ledger synchronization.
type Service struct {
	store     TxStore
	syncer    *ledger.Syncer
	publisher events.Publisher
	log       *slog.Logger
}

func NewService(store TxStore, clock ledger.Clock, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		syncer:    ledger.NewSyncer(clock),
		publisher: publisher,
		log:       logger,
	}
}

// Store exposes the underlying store for read-side handlers.
func (s *Service) Store() TxStore { return s.store }

// =============================================================================
// SYNC PLUMBING
// =============================================================================

// runSync resolves the event's owner and upserts its ledger line inside
// the caller's transaction. A dangling owner reference is demoted to a
// warning so the operational write still commits.
func (s *Service) runSync(ctx context.Context, tx Store, ev CostedEvent) (*ledger.Entry, error) {
	farmerID, err := ResolveOwner(ctx, tx, ev)
	if err != nil {
		if ledger.IsNotFoundDependency(err) {
			s.log.Warn("ledger sync skipped",
				"source", ev.SourceRef().String(),
				"reason", err.Error())
			return nil, nil
		}
		return nil, err
	}

	line := ev.LedgerLine()
	line.FarmerID = farmerID
	return s.syncer.Upsert(ctx, tx, line)
}

func (s *Service) emit(ctx context.Context, action events.Action, ref ledger.SourceRef, entry *ledger.Entry) {
	if entry == nil {
		return
	}
	evt := events.LedgerSynced{
		EventID:     uuid.NewString(),
		Action:      action,
		FarmerID:    entry.FarmerID,
		EntryID:     entry.ID,
		Amount:      entry.Amount,
		Category:    entry.Category,
		SourceTable: ref.Table,
		SourceID:    ref.ID,
		OccurredAt:  time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("ledger event publish failed", "source", ref.String(), "err", err)
	}
}

// createCosted inserts an operational row and syncs its ledger line in one
// transaction.
func (s *Service) createCosted(ctx context.Context, ev CostedEvent, insert func(Store) error) (*ledger.Entry, error) {
	var entry *ledger.Entry
	err := s.store.WithTx(ctx, func(tx Store) error {
		if err := insert(tx); err != nil {
			return err
		}
		e, err := s.runSync(ctx, tx, ev)
		entry = e
		return err
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, events.ActionCreate, ev.SourceRef(), entry)
	return entry, nil
}

// updateCosted rewrites an operational row and re-syncs its ledger line.
// When the edit drops the cost to zero or below, the stale entry is gone
// afterwards and a delete event is emitted instead.
func (s *Service) updateCosted(ctx context.Context, ev CostedEvent, update func(Store) error) (*ledger.Entry, error) {
	var entry, previous *ledger.Entry
	err := s.store.WithTx(ctx, func(tx Store) error {
		prev, err := tx.FindBySource(ctx, ev.SourceRef())
		if err != nil {
			return err
		}
		previous = prev
		if err := update(tx); err != nil {
			return err
		}
		e, err := s.runSync(ctx, tx, ev)
		entry = e
		return err
	})
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.emit(ctx, events.ActionUpdate, ev.SourceRef(), entry)
	} else if previous != nil {
		s.emit(ctx, events.ActionDelete, ev.SourceRef(), previous)
	}
	return entry, nil
}

// deleteCosted removes an operational row and its ledger counterpart.
func (s *Service) deleteCosted(ctx context.Context, ref ledger.SourceRef, del func(Store) error) error {
	var previous *ledger.Entry
	err := s.store.WithTx(ctx, func(tx Store) error {
		prev, err := tx.FindBySource(ctx, ref)
		if err != nil {
			return err
		}
		previous = prev
		if err := del(tx); err != nil {
			return err
		}
		_, err = s.syncer.Unlink(ctx, tx, ref)
		return err
	})
	if err != nil {
		return err
	}
	s.emit(ctx, events.ActionDelete, ref, previous)
	return nil
}

// =============================================================================
// FEED LOGS
// =============================================================================

func (s *Service) RecordFeedLog(ctx context.Context, l *FeedLog) (*ledger.Entry, error) {
	if l.PenID <= 0 {
		return nil, &ledger.ValidationError{Field: "pen_id", Reason: "required"}
	}
	if l.QuantityKg.IsNegative() || l.CostPerKg.IsNegative() {
		return nil, &ledger.ValidationError{Field: "quantity_kg", Reason: "must not be negative"}
	}
	return s.createCosted(ctx, l, func(tx Store) error { return tx.InsertFeedLog(ctx, l) })
}

func (s *Service) UpdateFeedLog(ctx context.Context, l *FeedLog) (*ledger.Entry, error) {
	if l.ID <= 0 {
		return nil, &ledger.ValidationError{Field: "id", Reason: "required"}
	}
	if l.QuantityKg.IsNegative() || l.CostPerKg.IsNegative() {
		return nil, &ledger.ValidationError{Field: "quantity_kg", Reason: "must not be negative"}
	}
	return s.updateCosted(ctx, l, func(tx Store) error { return tx.UpdateFeedLog(ctx, l) })
}

func (s *Service) DeleteFeedLog(ctx context.Context, id int64) error {
	return s.deleteCosted(ctx,
		ledger.SourceRef{Table: SourceFeedLogs, ID: id},
		func(tx Store) error { return tx.DeleteFeedLog(ctx, id) })
}

// =============================================================================
// INDIVIDUAL FEED LOGS
// =============================================================================

func (s *Service) RecordIndividualFeedLog(ctx context.Context, l *IndividualFeedLog) (*ledger.Entry, error) {
	if l.AnimalID <= 0 {
		return nil, &ledger.ValidationError{Field: "animal_id", Reason: "required"}
	}
	return s.createCosted(ctx, l, func(tx Store) error { return tx.InsertIndividualFeedLog(ctx, l) })
}

func (s *Service) UpdateIndividualFeedLog(ctx context.Context, l *IndividualFeedLog) (*ledger.Entry, error) {
	if l.ID <= 0 {
		return nil, &ledger.ValidationError{Field: "id", Reason: "required"}
	}
	return s.updateCosted(ctx, l, func(tx Store) error { return tx.UpdateIndividualFeedLog(ctx, l) })
}

func (s *Service) DeleteIndividualFeedLog(ctx context.Context, id int64) error {
	return s.deleteCosted(ctx,
		ledger.SourceRef{Table: SourceIndividualFeedLogs, ID: id},
		func(tx Store) error { return tx.DeleteIndividualFeedLog(ctx, id) })
}

// =============================================================================
// HEALTH RECORDS
// =============================================================================

func (s *Service) RecordHealthRecord(ctx context.Context, r *HealthRecord) (*ledger.Entry, error) {
	if r.AnimalID <= 0 {
		return nil, &ledger.ValidationError{Field: "animal_id", Reason: "required"}
	}
	if r.EventType == "" {
		return nil, &ledger.ValidationError{Field: "event_type", Reason: "required"}
	}
	return s.createCosted(ctx, r, func(tx Store) error { return tx.InsertHealthRecord(ctx, r) })
}

func (s *Service) UpdateHealthRecord(ctx context.Context, r *HealthRecord) (*ledger.Entry, error) {
	if r.ID <= 0 {
		return nil, &ledger.ValidationError{Field: "id", Reason: "required"}
	}
	return s.updateCosted(ctx, r, func(tx Store) error { return tx.UpdateHealthRecord(ctx, r) })
}

func (s *Service) DeleteHealthRecord(ctx context.Context, id int64) error {
	return s.deleteCosted(ctx,
		ledger.SourceRef{Table: SourceHealthRecords, ID: id},
		func(tx Store) error { return tx.DeleteHealthRecord(ctx, id) })
}

// =============================================================================
// LABOR ACTIVITIES
// =============================================================================

func (s *Service) RecordLaborActivity(ctx context.Context, a *LaborActivity) (*ledger.Entry, error) {
	if a.FarmerID <= 0 {
		return nil, &ledger.ValidationError{Field: "farmer_id", Reason: "required"}
	}
	if a.ActivityType == "" {
		return nil, &ledger.ValidationError{Field: "activity_type", Reason: "required"}
	}
	return s.createCosted(ctx, a, func(tx Store) error { return tx.InsertLaborActivity(ctx, a) })
}

func (s *Service) UpdateLaborActivity(ctx context.Context, a *LaborActivity) (*ledger.Entry, error) {
	if a.ID <= 0 {
		return nil, &ledger.ValidationError{Field: "id", Reason: "required"}
	}
	return s.updateCosted(ctx, a, func(tx Store) error { return tx.UpdateLaborActivity(ctx, a) })
}

func (s *Service) DeleteLaborActivity(ctx context.Context, id int64) error {
	return s.deleteCosted(ctx,
		ledger.SourceRef{Table: SourceLaborActivities, ID: id},
		func(tx Store) error { return tx.DeleteLaborActivity(ctx, id) })
}

// =============================================================================
// BREEDING RECORDS
// =============================================================================

func (s *Service) RecordBreedingRecord(ctx context.Context, r *BreedingRecord) (*ledger.Entry, error) {
	if r.FemaleID <= 0 {
		return nil, &ledger.ValidationError{Field: "female_id", Reason: "required"}
	}
	return s.createCosted(ctx, r, func(tx Store) error { return tx.InsertBreedingRecord(ctx, r) })
}

func (s *Service) UpdateBreedingRecord(ctx context.Context, r *BreedingRecord) (*ledger.Entry, error) {
	if r.ID <= 0 {
		return nil, &ledger.ValidationError{Field: "id", Reason: "required"}
	}
	return s.updateCosted(ctx, r, func(tx Store) error { return tx.UpdateBreedingRecord(ctx, r) })
}

func (s *Service) DeleteBreedingRecord(ctx context.Context, id int64) error {
	return s.deleteCosted(ctx,
		ledger.SourceRef{Table: SourceBreedingRecords, ID: id},
		func(tx Store) error { return tx.DeleteBreedingRecord(ctx, id) })
}

// =============================================================================
// PRODUCTION RECORDS
// =============================================================================

// Production records never carry a cost, so they bypass the sync path
// entirely: a plain insert, no transaction scope, no event.

func (s *Service) RecordMilkProduction(ctx context.Context, p *MilkProduction) error {
	if p.AnimalID <= 0 {
		return &ledger.ValidationError{Field: "animal_id", Reason: "required"}
	}
	if p.QuantityLiters.IsNegative() {
		return &ledger.ValidationError{Field: "quantity_liters", Reason: "must not be negative"}
	}
	if p.ProductionDate.IsZero() {
		p.ProductionDate = s.syncer.Today()
	}
	return s.store.InsertMilkProduction(ctx, p)
}

func (s *Service) MilkProductionByAnimal(ctx context.Context, animalID int64) ([]MilkProduction, error) {
	return s.store.ListMilkProductionByAnimal(ctx, animalID)
}

func (s *Service) RecordWeightRecord(ctx context.Context, r *WeightRecord) error {
	if r.AnimalID <= 0 {
		return &ledger.ValidationError{Field: "animal_id", Reason: "required"}
	}
	if r.WeightKg.Sign() <= 0 {
		return &ledger.ValidationError{Field: "weight_kg", Reason: "must be positive"}
	}
	if r.RecordDate.IsZero() {
		r.RecordDate = s.syncer.Today()
	}
	return s.store.InsertWeightRecord(ctx, r)
}

func (s *Service) WeightRecordsByAnimal(ctx context.Context, animalID int64) ([]WeightRecord, error) {
	return s.store.ListWeightRecordsByAnimal(ctx, animalID)
}

// =============================================================================
// FINANCE
// =============================================================================

// RecordManualEntry books a hand-entered ledger line (an expense or income
// with no operational source). Manual entries carry no source key, so they
// can never collide with sync-derived rows.
func (s *Service) RecordManualEntry(ctx context.Context, e *ledger.Entry) error {
	if e.FarmerID <= 0 {
		return &ledger.ValidationError{Field: "farmer_id", Reason: "required"}
	}
	if !e.Kind.Valid() {
		return &ledger.ValidationError{Field: "kind", Reason: "must be Expense or Income"}
	}
	if e.Category == "" {
		return &ledger.ValidationError{Field: "category", Reason: "required"}
	}
	amount, skip := ledger.NormalizeAmount(&e.Amount)
	if skip {
		return &ledger.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	e.Amount = amount
	e.Source = nil
	if e.Date.IsZero() {
		e.Date = s.syncer.Today()
	}
	return s.store.Insert(ctx, e)
}

// LedgerByFarmer is the read side: all committed entries for one farmer,
// in insertion order.
func (s *Service) LedgerByFarmer(ctx context.Context, farmerID int64) ([]ledger.Entry, error) {
	return s.store.ListByFarmer(ctx, farmerID)
}
