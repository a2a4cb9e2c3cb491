/*
Package farm holds the operational side of the ranch system: the records
farmers actually enter (feed, health, labor, breeding) and the registries
they hang off (farmers, pens, animals).

PURPOSE:
  Each costed record variant knows how to describe itself as a ledger line
  and who it belongs to. The variants are a tagged capability set, not a
  type hierarchy: a record implements CostedEvent and the resolver
  dispatches on its owner tag.

KEY CONCEPTS IN THIS FILE (types.go):
  - Registries:  Farmer, Pen, Animal
  - Variants:    FeedLog, IndividualFeedLog, HealthRecord, LaborActivity,
                 BreedingRecord
  - CostedEvent: The capability every variant exposes to the sync path
  - Production:  MilkProduction, WeightRecord (no cost, never synced)

OWNERSHIP CHAINS (one foreign-key hop each):
  FeedLog            -> Pen    -> Farmer
  IndividualFeedLog  -> Animal -> Farmer
  HealthRecord       -> Animal -> Farmer
  BreedingRecord     -> Animal (female side) -> Farmer
  LaborActivity      -> Farmer (direct)

SEE ALSO:
  - resolver.go: Owner resolution
  - service.go:  Composite write operations
  - ledger/:     The entry model these variants feed
*/
package farm

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartranch/ranch-engine/ledger"
)

// =============================================================================
// SOURCE TABLES - Stable natural-key namespaces
// =============================================================================

// Source table names are part of the ledger's natural key and must never
// change once entries reference them.
const (
	SourceFeedLogs           = "feed_logs"
	SourceIndividualFeedLogs = "individual_feed_logs"
	SourceHealthRecords      = "health_records"
	SourceLaborActivities    = "labor_activities"
	SourceBreedingRecords    = "breeding_records"
)

// Ledger categories per variant.
const (
	CategoryFeed     = "Feed"
	CategoryVet      = "Veterinary"
	CategoryLabor    = "Labor"
	CategoryBreeding = "Breeding Costs"
)

// =============================================================================
// COSTED EVENT - Capability exposed by every costed record variant
// =============================================================================

// OwnerKind tags which registry an event's owning reference points into.
type OwnerKind string

const (
	OwnerFarmer OwnerKind = "farmer"
	OwnerPen    OwnerKind = "pen"
	OwnerAnimal OwnerKind = "animal"
)

// OwnerRef is the single foreign-key hop from an event toward its farmer.
type OwnerRef struct {
	Kind OwnerKind
	ID   int64
}

// CostedEvent is what the sync path needs from an operational record:
// its natural identity, its owning reference, and the ledger line it
// computes from its own fields. LedgerLine leaves FarmerID zero; the
// resolver fills it in.
type CostedEvent interface {
	SourceRef() ledger.SourceRef
	OwnerRef() OwnerRef
	LedgerLine() ledger.Line
}

// =============================================================================
// REGISTRIES
// =============================================================================

type Farmer struct {
	ID        int64
	Name      string
	Phone     string
	Location  string
	CreatedAt time.Time
}

type Pen struct {
	ID            int64
	FarmerID      int64
	Name          string
	LivestockType string
	Capacity      int
	CreatedAt     time.Time
}

type Animal struct {
	ID              int64
	FarmerID        int64
	PenID           *int64
	TagNumber       string
	Breed           string
	Sex             string
	DOB             ledger.Date
	AcquisitionDate ledger.Date
	AcquisitionCost *decimal.Decimal
	Status          string // Active, Sold, Deceased
	CreatedAt       time.Time
}

// =============================================================================
// FEED LOG - Pen-level feed purchase
// =============================================================================

type FeedLog struct {
	ID         int64
	PenID      int64
	LogDate    ledger.Date
	FeedType   string
	QuantityKg decimal.Decimal
	CostPerKg  decimal.Decimal
	CreatedAt  time.Time
}

// TotalCost is quantity times unit cost, the amount the ledger records.
func (l *FeedLog) TotalCost() decimal.Decimal {
	return l.QuantityKg.Mul(l.CostPerKg)
}

func (l *FeedLog) SourceRef() ledger.SourceRef {
	return ledger.SourceRef{Table: SourceFeedLogs, ID: l.ID}
}

func (l *FeedLog) OwnerRef() OwnerRef { return OwnerRef{Kind: OwnerPen, ID: l.PenID} }

func (l *FeedLog) LedgerLine() ledger.Line {
	total := l.TotalCost()
	pen := l.PenID
	return ledger.Line{
		Amount:       &total,
		Category:     CategoryFeed,
		Description:  fmt.Sprintf("Feed: %s kg of %s", l.QuantityKg, l.FeedType),
		Date:         l.LogDate,
		Source:       l.SourceRef(),
		RelatedPenID: &pen,
	}
}

// =============================================================================
// INDIVIDUAL FEED LOG - Per-animal supplement feeding
// =============================================================================

type IndividualFeedLog struct {
	ID         int64
	AnimalID   int64
	LogDate    ledger.Date
	FeedType   string
	QuantityKg decimal.Decimal
	Cost       *decimal.Decimal
	CreatedAt  time.Time
}

func (l *IndividualFeedLog) SourceRef() ledger.SourceRef {
	return ledger.SourceRef{Table: SourceIndividualFeedLogs, ID: l.ID}
}

func (l *IndividualFeedLog) OwnerRef() OwnerRef { return OwnerRef{Kind: OwnerAnimal, ID: l.AnimalID} }

func (l *IndividualFeedLog) LedgerLine() ledger.Line {
	animal := l.AnimalID
	return ledger.Line{
		Amount:          l.Cost,
		Category:        CategoryFeed,
		Description:     fmt.Sprintf("Individual feed: %s kg of %s", l.QuantityKg, l.FeedType),
		Date:            l.LogDate,
		Source:          l.SourceRef(),
		RelatedAnimalID: &animal,
	}
}

// =============================================================================
// HEALTH RECORD - Treatments, vaccinations, checkups
// =============================================================================

type HealthRecord struct {
	ID          int64
	AnimalID    int64
	EventDate   ledger.Date
	EventType   string // Treatment, Vaccination, Checkup, ...
	Diagnosis   string
	Treatment   string
	Cost        *decimal.Decimal
	PerformedBy string
	Notes       string
	CreatedAt   time.Time
}

func (r *HealthRecord) SourceRef() ledger.SourceRef {
	return ledger.SourceRef{Table: SourceHealthRecords, ID: r.ID}
}

func (r *HealthRecord) OwnerRef() OwnerRef { return OwnerRef{Kind: OwnerAnimal, ID: r.AnimalID} }

func (r *HealthRecord) LedgerLine() ledger.Line {
	animal := r.AnimalID
	desc := fmt.Sprintf("Health: %s", r.EventType)
	if r.Treatment != "" {
		desc = fmt.Sprintf("Health: %s (%s)", r.EventType, r.Treatment)
	}
	return ledger.Line{
		Amount:          r.Cost,
		Category:        CategoryVet,
		Description:     desc,
		Date:            r.EventDate,
		Source:          r.SourceRef(),
		RelatedAnimalID: &animal,
	}
}

// =============================================================================
// LABOR ACTIVITY - Hired or contracted work
// =============================================================================

type LaborActivity struct {
	ID           int64
	FarmerID     int64
	ActivityDate ledger.Date
	ActivityType string
	Description  string
	WorkerName   string
	Hours        decimal.Decimal
	Cost         *decimal.Decimal
	CreatedAt    time.Time
}

func (a *LaborActivity) SourceRef() ledger.SourceRef {
	return ledger.SourceRef{Table: SourceLaborActivities, ID: a.ID}
}

func (a *LaborActivity) OwnerRef() OwnerRef { return OwnerRef{Kind: OwnerFarmer, ID: a.FarmerID} }

func (a *LaborActivity) LedgerLine() ledger.Line {
	return ledger.Line{
		Amount:      a.Cost,
		Category:    CategoryLabor,
		Description: fmt.Sprintf("Labor: %s", a.ActivityType),
		Date:        a.ActivityDate,
		Source:      a.SourceRef(),
	}
}

// =============================================================================
// BREEDING RECORD - Services, AI costs
// =============================================================================

// BreedingRecord books its cost against the female animal's owner.
type BreedingRecord struct {
	ID           int64
	FemaleID     int64
	MaleID       *int64
	BreedingDate ledger.Date
	Method       string // Natural, AI
	Cost         *decimal.Decimal
	Notes        string
	CreatedAt    time.Time
}

func (r *BreedingRecord) SourceRef() ledger.SourceRef {
	return ledger.SourceRef{Table: SourceBreedingRecords, ID: r.ID}
}

func (r *BreedingRecord) OwnerRef() OwnerRef { return OwnerRef{Kind: OwnerAnimal, ID: r.FemaleID} }

func (r *BreedingRecord) LedgerLine() ledger.Line {
	female := r.FemaleID
	return ledger.Line{
		Amount:          r.Cost,
		Category:        CategoryBreeding,
		Description:     fmt.Sprintf("Breeding: %s", r.Method),
		Date:            r.BreedingDate,
		Source:          r.SourceRef(),
		RelatedAnimalID: &female,
	}
}

// =============================================================================
// PRODUCTION RECORDS - Milk yields and weight checks
// =============================================================================

// Production records track output and growth per animal. They carry no
// cost, so they never reach the ledger and do not implement CostedEvent.

type MilkProduction struct {
	ID             int64
	AnimalID       int64
	ProductionDate ledger.Date
	QuantityLiters decimal.Decimal
	Notes          string
	CreatedAt      time.Time
}

type WeightRecord struct {
	ID         int64
	AnimalID   int64
	RecordDate ledger.Date
	WeightKg   decimal.Decimal
	Notes      string
	CreatedAt  time.Time
}
