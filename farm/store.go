/*
store.go - Storage interfaces for the operational side

PURPOSE:
  The farm Store combines the ledger's Store with the registries and
  operational tables, because a composite write touches both inside one
  transaction. TxStore adds the transactional scope itself.

TRANSACTIONAL CONTRACT:
  WithTx hands the closure a Store whose writes all land in one database
  transaction. An error from the closure rolls everything back; nil
  commits. Rows written inside the scope are readable by later steps of
  the same scope (the ledger upsert must see the operational row's
  generated ID) but invisible to other readers until commit.

IMPLEMENTATIONS:
  - store/sqlite: production store
*/
package farm

import (
	"context"
	"errors"

	"github.com/smartranch/ranch-engine/ledger"
)

// ErrNotFound is returned by update/delete operations aimed at a row that
// does not exist.
var ErrNotFound = errors.New("record not found")

// Store is everything a composite operation reads and writes.
type Store interface {
	ledger.Store

	// Farmers
	InsertFarmer(ctx context.Context, f *Farmer) error
	GetFarmer(ctx context.Context, id int64) (*Farmer, error)
	ListFarmers(ctx context.Context) ([]Farmer, error)

	// Pens
	InsertPen(ctx context.Context, p *Pen) error
	GetPen(ctx context.Context, id int64) (*Pen, error)
	ListPensByFarmer(ctx context.Context, farmerID int64) ([]Pen, error)

	// Animals
	InsertAnimal(ctx context.Context, a *Animal) error
	GetAnimal(ctx context.Context, id int64) (*Animal, error)
	ListAnimalsByFarmer(ctx context.Context, farmerID int64) ([]Animal, error)

	// Feed logs (pen-level)
	InsertFeedLog(ctx context.Context, l *FeedLog) error
	GetFeedLog(ctx context.Context, id int64) (*FeedLog, error)
	UpdateFeedLog(ctx context.Context, l *FeedLog) error
	DeleteFeedLog(ctx context.Context, id int64) error
	ListFeedLogsByPen(ctx context.Context, penID int64) ([]FeedLog, error)

	// Individual feed logs
	InsertIndividualFeedLog(ctx context.Context, l *IndividualFeedLog) error
	GetIndividualFeedLog(ctx context.Context, id int64) (*IndividualFeedLog, error)
	UpdateIndividualFeedLog(ctx context.Context, l *IndividualFeedLog) error
	DeleteIndividualFeedLog(ctx context.Context, id int64) error
	ListIndividualFeedLogsByAnimal(ctx context.Context, animalID int64) ([]IndividualFeedLog, error)

	// Health records
	InsertHealthRecord(ctx context.Context, r *HealthRecord) error
	GetHealthRecord(ctx context.Context, id int64) (*HealthRecord, error)
	UpdateHealthRecord(ctx context.Context, r *HealthRecord) error
	DeleteHealthRecord(ctx context.Context, id int64) error
	ListHealthRecordsByAnimal(ctx context.Context, animalID int64) ([]HealthRecord, error)

	// Labor activities
	InsertLaborActivity(ctx context.Context, a *LaborActivity) error
	GetLaborActivity(ctx context.Context, id int64) (*LaborActivity, error)
	UpdateLaborActivity(ctx context.Context, a *LaborActivity) error
	DeleteLaborActivity(ctx context.Context, id int64) error
	ListLaborActivitiesByFarmer(ctx context.Context, farmerID int64) ([]LaborActivity, error)

	// Breeding records
	InsertBreedingRecord(ctx context.Context, r *BreedingRecord) error
	GetBreedingRecord(ctx context.Context, id int64) (*BreedingRecord, error)
	UpdateBreedingRecord(ctx context.Context, r *BreedingRecord) error
	DeleteBreedingRecord(ctx context.Context, id int64) error
	ListBreedingRecordsByAnimal(ctx context.Context, animalID int64) ([]BreedingRecord, error)

	// Production records (no ledger involvement)
	InsertMilkProduction(ctx context.Context, p *MilkProduction) error
	ListMilkProductionByAnimal(ctx context.Context, animalID int64) ([]MilkProduction, error)
	InsertWeightRecord(ctx context.Context, r *WeightRecord) error
	ListWeightRecordsByAnimal(ctx context.Context, animalID int64) ([]WeightRecord, error)
}

// TxStore is a Store that can open transactional scopes.
type TxStore interface {
	Store

	// WithTx executes fn within one database transaction.
	// If fn returns an error the transaction is rolled back, otherwise
	// committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
