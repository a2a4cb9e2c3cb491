package farm_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartranch/ranch-engine/events"
	"github.com/smartranch/ranch-engine/farm"
	"github.com/smartranch/ranch-engine/ledger"
	"github.com/smartranch/ranch-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*farm.Service, *events.Memory) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sink := events.NewMemory()
	clock := ledger.FixedClock{On: ledger.NewDate(2024, time.March, 15)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return farm.NewService(store, clock, sink, logger), sink
}

func seedFarmer(t *testing.T, svc *farm.Service, name string) *farm.Farmer {
	f := &farm.Farmer{Name: name}
	require.NoError(t, svc.Store().InsertFarmer(context.Background(), f))
	return f
}

func seedPen(t *testing.T, svc *farm.Service, farmerID int64) *farm.Pen {
	p := &farm.Pen{FarmerID: farmerID, Name: "North pen", LivestockType: "cattle", Capacity: 20}
	require.NoError(t, svc.Store().InsertPen(context.Background(), p))
	return p
}

func seedAnimal(t *testing.T, svc *farm.Service, farmerID int64, tag string) *farm.Animal {
	a := &farm.Animal{FarmerID: farmerID, TagNumber: tag, Sex: "F"}
	require.NoError(t, svc.Store().InsertAnimal(context.Background(), a))
	return a
}

func dec(s string) decimal.Decimal { return ledger.MustDecimal(s) }

func decPtr(s string) *decimal.Decimal {
	d := ledger.MustDecimal(s)
	return &d
}

// =============================================================================
// FEED LOG SYNC
// =============================================================================

func TestRecordFeedLog_SyncsTotalCostToLedger(t *testing.T) {
	// GIVEN: A farmer with a pen
	// WHEN: Recording 50 kg of feed at 45 per kg
	// THEN: A "Feed" expense of 2250.00 appears in the farmer's ledger

	ctx := context.Background()
	svc, sink := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	pen := seedPen(t, svc, farmer.ID)

	log := &farm.FeedLog{
		PenID:      pen.ID,
		LogDate:    ledger.NewDate(2024, time.March, 10),
		FeedType:   "hay",
		QuantityKg: dec("50"),
		CostPerKg:  dec("45"),
	}

	entry, err := svc.RecordFeedLog(ctx, log)
	require.NoError(t, err)
	require.NotNil(t, entry)

	assert.Equal(t, "2250.00", entry.Amount.StringFixed(2))
	assert.Equal(t, farm.CategoryFeed, entry.Category)
	assert.Equal(t, farmer.ID, entry.FarmerID)
	require.NotNil(t, entry.RelatedPenID)
	assert.Equal(t, pen.ID, *entry.RelatedPenID)

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2250.00", entries[0].Amount.StringFixed(2))

	// Post-commit event
	evts := sink.Events()
	require.Len(t, evts, 1)
	assert.Equal(t, events.ActionCreate, evts[0].Action)
	assert.Equal(t, farm.SourceFeedLogs, evts[0].SourceTable)
	assert.Equal(t, log.ID, evts[0].SourceID)
}

func TestUpdateFeedLog_RewritesEntryInPlace(t *testing.T) {
	// GIVEN: A feed log already synced at 2250.00
	// WHEN: Editing the quantity to 60 kg
	// THEN: The same entry carries 2700.00; no second entry appears

	ctx := context.Background()
	svc, sink := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	pen := seedPen(t, svc, farmer.ID)

	log := &farm.FeedLog{
		PenID: pen.ID, LogDate: ledger.NewDate(2024, time.March, 10),
		FeedType: "hay", QuantityKg: dec("50"), CostPerKg: dec("45"),
	}
	first, err := svc.RecordFeedLog(ctx, log)
	require.NoError(t, err)

	log.QuantityKg = dec("60")
	second, err := svc.UpdateFeedLog(ctx, log)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "2700.00", second.Amount.StringFixed(2))

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	evts := sink.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, events.ActionUpdate, evts[1].Action)
}

func TestDeleteFeedLog_RemovesRecordAndEntryTogether(t *testing.T) {
	ctx := context.Background()
	svc, sink := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	pen := seedPen(t, svc, farmer.ID)

	log := &farm.FeedLog{
		PenID: pen.ID, LogDate: ledger.NewDate(2024, time.March, 10),
		FeedType: "hay", QuantityKg: dec("50"), CostPerKg: dec("45"),
	}
	_, err := svc.RecordFeedLog(ctx, log)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteFeedLog(ctx, log.ID))

	got, err := svc.Store().GetFeedLog(ctx, log.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	evts := sink.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, events.ActionDelete, evts[1].Action)
}

func TestDeleteFeedLog_Missing_ReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.DeleteFeedLog(ctx, 42)
	assert.ErrorIs(t, err, farm.ErrNotFound)
}

func TestRecordFeedLog_NegativeQuantity_Rejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.RecordFeedLog(ctx, &farm.FeedLog{
		PenID: 1, QuantityKg: dec("-5"), CostPerKg: dec("45"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))
}

func TestUpdateFeedLog_NegativeQuantity_Rejected(t *testing.T) {
	// GIVEN: A feed log already synced at 2250.00
	// WHEN: Editing the quantity to a negative value
	// THEN: The edit fails validation; the ledger entry stays at 2250.00

	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	pen := seedPen(t, svc, farmer.ID)

	log := &farm.FeedLog{
		PenID: pen.ID, LogDate: ledger.NewDate(2024, time.March, 10),
		FeedType: "hay", QuantityKg: dec("50"), CostPerKg: dec("45"),
	}
	_, err := svc.RecordFeedLog(ctx, log)
	require.NoError(t, err)

	log.QuantityKg = dec("-60")
	_, err = svc.UpdateFeedLog(ctx, log)
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2250.00", entries[0].Amount.StringFixed(2))
}

// =============================================================================
// ZERO-COST SUPPRESSION
// =============================================================================

func TestRecordHealthRecord_NoCost_NoLedgerEntry(t *testing.T) {
	// GIVEN: A routine checkup with no cost
	// WHEN: Recording it
	// THEN: The record commits but the ledger stays empty

	ctx := context.Background()
	svc, sink := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	animal := seedAnimal(t, svc, farmer.ID, "COW-001")

	rec := &farm.HealthRecord{
		AnimalID:  animal.ID,
		EventDate: ledger.NewDate(2024, time.March, 12),
		EventType: "Checkup",
	}
	entry, err := svc.RecordHealthRecord(ctx, rec)
	require.NoError(t, err)
	assert.Nil(t, entry)

	records, err := svc.Store().ListHealthRecordsByAnimal(ctx, animal.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, sink.Events())
}

func TestRecordHealthRecord_ZeroCost_NoLedgerEntry(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	animal := seedAnimal(t, svc, farmer.ID, "COW-001")

	entry, err := svc.RecordHealthRecord(ctx, &farm.HealthRecord{
		AnimalID:  animal.ID,
		EventDate: ledger.NewDate(2024, time.March, 12),
		EventType: "Vaccination",
		Cost:      decPtr("0"),
	})
	require.NoError(t, err)
	assert.Nil(t, entry)

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateBreedingRecord_CostDroppedToZero_DeletesEntry(t *testing.T) {
	// GIVEN: A breeding record synced with a 1500.00 cost
	// WHEN: The cost is corrected to zero
	// THEN: The stale ledger entry is removed and a delete event emitted

	ctx := context.Background()
	svc, sink := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	female := seedAnimal(t, svc, farmer.ID, "COW-001")

	rec := &farm.BreedingRecord{
		FemaleID:     female.ID,
		BreedingDate: ledger.NewDate(2024, time.February, 1),
		Method:       "AI",
		Cost:         decPtr("1500"),
	}
	entry, err := svc.RecordBreedingRecord(ctx, rec)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "1500.00", entry.Amount.StringFixed(2))
	assert.Equal(t, farm.CategoryBreeding, entry.Category)

	rec.Cost = decPtr("0")
	updated, err := svc.UpdateBreedingRecord(ctx, rec)
	require.NoError(t, err)
	assert.Nil(t, updated)

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	evts := sink.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, events.ActionDelete, evts[1].Action)
}

// =============================================================================
// DANGLING REFERENCES
// =============================================================================

func TestRecordFeedLog_DanglingPen_CommitsWithoutEntry(t *testing.T) {
	// GIVEN: A feed log pointing at a pen that does not exist
	// WHEN: Recording it
	// THEN: The operational write commits, the ledger stays empty

	ctx := context.Background()
	svc, sink := newTestService(t)

	log := &farm.FeedLog{
		PenID:      999,
		LogDate:    ledger.NewDate(2024, time.March, 10),
		FeedType:   "hay",
		QuantityKg: dec("50"),
		CostPerKg:  dec("45"),
	}
	entry, err := svc.RecordFeedLog(ctx, log)
	require.NoError(t, err)
	assert.Nil(t, entry)

	logs, err := svc.Store().ListFeedLogsByPen(ctx, 999)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Empty(t, sink.Events())
}

// =============================================================================
// ATOMICITY
// =============================================================================

func TestRecordFeedLog_SyncConflict_RollsBackOperationalWrite(t *testing.T) {
	// GIVEN: A ledger entry for feed_logs/1 already owned by farmer B
	// WHEN: Farmer A's first feed log is recorded (it will take ID 1)
	// THEN: The sync conflicts and the feed log insert is rolled back too

	ctx := context.Background()
	svc, sink := newTestService(t)
	farmerA := seedFarmer(t, svc, "Amina")
	farmerB := seedFarmer(t, svc, "Bakari")
	pen := seedPen(t, svc, farmerA.ID)

	stale := &ledger.Entry{
		FarmerID: farmerB.ID,
		Kind:     ledger.KindExpense,
		Category: farm.CategoryFeed,
		Amount:   dec("10.00"),
		Date:     ledger.NewDate(2024, time.January, 1),
		Source:   &ledger.SourceRef{Table: farm.SourceFeedLogs, ID: 1},
	}
	require.NoError(t, svc.Store().Insert(ctx, stale))

	_, err := svc.RecordFeedLog(ctx, &farm.FeedLog{
		PenID:      pen.ID,
		LogDate:    ledger.NewDate(2024, time.March, 10),
		FeedType:   "hay",
		QuantityKg: dec("50"),
		CostPerKg:  dec("45"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsConflict(err))

	// The operational write must not survive the failed sync.
	logs, err := svc.Store().ListFeedLogsByPen(ctx, pen.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Empty(t, sink.Events())
}

// =============================================================================
// LABOR AND INDIVIDUAL FEED
// =============================================================================

func TestRecordLaborActivity_SyncsDirectFarmerOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")

	entry, err := svc.RecordLaborActivity(ctx, &farm.LaborActivity{
		FarmerID:     farmer.ID,
		ActivityDate: ledger.NewDate(2024, time.March, 11),
		ActivityType: "Fencing",
		WorkerName:   "Juma",
		Hours:        dec("6"),
		Cost:         decPtr("800"),
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, farm.CategoryLabor, entry.Category)
	assert.Equal(t, "800.00", entry.Amount.StringFixed(2))
	assert.Equal(t, farmer.ID, entry.FarmerID)
}

func TestRecordIndividualFeedLog_ResolvesOwnerThroughAnimal(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	animal := seedAnimal(t, svc, farmer.ID, "GOAT-007")

	entry, err := svc.RecordIndividualFeedLog(ctx, &farm.IndividualFeedLog{
		AnimalID:   animal.ID,
		LogDate:    ledger.NewDate(2024, time.March, 9),
		FeedType:   "supplement",
		QuantityKg: dec("2"),
		Cost:       decPtr("120"),
	})
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, farmer.ID, entry.FarmerID)
	require.NotNil(t, entry.RelatedAnimalID)
	assert.Equal(t, animal.ID, *entry.RelatedAnimalID)
}

// =============================================================================
// MANUAL ENTRIES
// =============================================================================

func TestRecordManualEntry_IncomeWithDefaultDate(t *testing.T) {
	// GIVEN: A manual income entry with no date
	// WHEN: Recording it
	// THEN: It books against the injected clock's today, with no source key

	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")

	e := &ledger.Entry{
		FarmerID:    farmer.ID,
		Kind:        ledger.KindIncome,
		Category:    "Milk Sales",
		Description: "Weekly delivery",
		Amount:      dec("3400"),
	}
	require.NoError(t, svc.RecordManualEntry(ctx, e))

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.KindIncome, entries[0].Kind)
	assert.Equal(t, "2024-03-15", entries[0].Date.String())
	assert.Nil(t, entries[0].Source)
}

func TestRecordManualEntry_InvalidKind_Rejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.RecordManualEntry(ctx, &ledger.Entry{
		FarmerID: 1, Kind: "Transfer", Category: "Misc", Amount: dec("10"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))
}

func TestRecordManualEntry_NonPositiveAmount_Rejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.RecordManualEntry(ctx, &ledger.Entry{
		FarmerID: 1, Kind: ledger.KindExpense, Category: "Misc", Amount: dec("0"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))
}

// =============================================================================
// OWNER RESOLUTION
// =============================================================================

func TestResolveOwner_DanglingAnimal_ReturnsDependencyError(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rec := &farm.HealthRecord{AnimalID: 77, EventType: "Checkup"}
	_, err := farm.ResolveOwner(ctx, svc.Store(), rec)
	require.Error(t, err)
	assert.True(t, ledger.IsNotFoundDependency(err))
}

func TestResolveOwner_PenChain_ReturnsPenOwner(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	pen := seedPen(t, svc, farmer.ID)

	log := &farm.FeedLog{PenID: pen.ID, QuantityKg: dec("1"), CostPerKg: dec("1")}
	owner, err := farm.ResolveOwner(ctx, svc.Store(), log)
	require.NoError(t, err)
	assert.Equal(t, farmer.ID, owner)
}

// =============================================================================
// PRODUCTION RECORDS
// =============================================================================

func TestRecordMilkProduction_DefaultsDateAndStaysOffLedger(t *testing.T) {
	// GIVEN: A milk yield with no date
	// WHEN: Recording it
	// THEN: The clock's date fills in; no ledger entry and no event appear

	ctx := context.Background()
	svc, sink := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	animal := seedAnimal(t, svc, farmer.ID, "COW-001")

	p := &farm.MilkProduction{AnimalID: animal.ID, QuantityLiters: dec("12.5")}
	require.NoError(t, svc.RecordMilkProduction(ctx, p))
	assert.Equal(t, "2024-03-15", p.ProductionDate.String())

	records, err := svc.MilkProductionByAnimal(ctx, animal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "12.50", records[0].QuantityLiters.StringFixed(2))

	entries, err := svc.LedgerByFarmer(ctx, farmer.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, sink.Events())
}

func TestRecordMilkProduction_NegativeQuantity_Rejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.RecordMilkProduction(ctx, &farm.MilkProduction{
		AnimalID: 1, QuantityLiters: dec("-3"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))
}

func TestRecordWeightRecord_RequiresPositiveWeight(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	farmer := seedFarmer(t, svc, "Amina")
	animal := seedAnimal(t, svc, farmer.ID, "COW-001")

	err := svc.RecordWeightRecord(ctx, &farm.WeightRecord{
		AnimalID: animal.ID, WeightKg: dec("0"),
	})
	require.Error(t, err)
	assert.True(t, ledger.IsValidation(err))

	r := &farm.WeightRecord{
		AnimalID:   animal.ID,
		RecordDate: ledger.NewDate(2024, time.March, 12),
		WeightKg:   dec("245.5"),
	}
	require.NoError(t, svc.RecordWeightRecord(ctx, r))

	records, err := svc.WeightRecordsByAnimal(ctx, animal.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "245.50", records[0].WeightKg.StringFixed(2))
}
