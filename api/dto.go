/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND DATES:
  Amounts travel as JSON strings ("2250.00") because decimal.Decimal
  marshals quoted. Dates travel as "YYYY-MM-DD" strings and are parsed
  in the handlers.

VALIDATION:
  Validation is done in handlers and in the domain layer, not in DTOs.
  DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - farm/types.go: The domain records behind them
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/smartranch/ranch-engine/farm"
	"github.com/smartranch/ranch-engine/ledger"
)

// =============================================================================
// REGISTRY TYPES
// =============================================================================

// FarmerDTO represents a farmer in API responses.
type FarmerDTO struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone,omitempty"`
	Location  string `json:"location,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateFarmerRequest is the request to register a farmer.
type CreateFarmerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// PenDTO represents a pen in API responses.
type PenDTO struct {
	ID            int64  `json:"id"`
	FarmerID      int64  `json:"farmer_id"`
	Name          string `json:"name"`
	LivestockType string `json:"livestock_type"`
	Capacity      int    `json:"capacity,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// CreatePenRequest is the request to create a pen.
type CreatePenRequest struct {
	FarmerID      int64  `json:"farmer_id"`
	Name          string `json:"name"`
	LivestockType string `json:"livestock_type"`
	Capacity      int    `json:"capacity"`
}

// AnimalDTO represents an animal in API responses.
type AnimalDTO struct {
	ID              int64   `json:"id"`
	FarmerID        int64   `json:"farmer_id"`
	PenID           *int64  `json:"pen_id,omitempty"`
	TagNumber       string  `json:"tag_number"`
	Breed           string  `json:"breed,omitempty"`
	Sex             string  `json:"sex,omitempty"`
	DOB             string  `json:"dob,omitempty"`
	AcquisitionDate string  `json:"acquisition_date,omitempty"`
	AcquisitionCost *string `json:"acquisition_cost,omitempty"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// CreateAnimalRequest is the request to register an animal.
type CreateAnimalRequest struct {
	FarmerID        int64            `json:"farmer_id"`
	PenID           *int64           `json:"pen_id,omitempty"`
	TagNumber       string           `json:"tag_number"`
	Breed           string           `json:"breed"`
	Sex             string           `json:"sex"`
	DOB             string           `json:"dob"`
	AcquisitionDate string           `json:"acquisition_date"`
	AcquisitionCost *decimal.Decimal `json:"acquisition_cost,omitempty"`
	Status          string           `json:"status"`
}

// =============================================================================
// COSTED RECORD TYPES
// =============================================================================

// FeedLogRequest is the request body for pen-level feed logs.
type FeedLogRequest struct {
	PenID      int64           `json:"pen_id"`
	LogDate    string          `json:"log_date"`
	FeedType   string          `json:"feed_type"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	CostPerKg  decimal.Decimal `json:"cost_per_kg"`
}

// FeedLogDTO represents a feed log in API responses.
type FeedLogDTO struct {
	ID         int64           `json:"id"`
	PenID      int64           `json:"pen_id"`
	LogDate    string          `json:"log_date"`
	FeedType   string          `json:"feed_type"`
	QuantityKg decimal.Decimal `json:"quantity_kg"`
	CostPerKg  decimal.Decimal `json:"cost_per_kg"`
	TotalCost  decimal.Decimal `json:"total_cost"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

// IndividualFeedLogRequest is the request body for per-animal feed logs.
type IndividualFeedLogRequest struct {
	AnimalID   int64            `json:"animal_id"`
	LogDate    string           `json:"log_date"`
	FeedType   string           `json:"feed_type"`
	QuantityKg decimal.Decimal  `json:"quantity_kg"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
}

// IndividualFeedLogDTO represents a per-animal feed log in responses.
type IndividualFeedLogDTO struct {
	ID         int64            `json:"id"`
	AnimalID   int64            `json:"animal_id"`
	LogDate    string           `json:"log_date"`
	FeedType   string           `json:"feed_type"`
	QuantityKg decimal.Decimal  `json:"quantity_kg"`
	Cost       *decimal.Decimal `json:"cost,omitempty"`
	CreatedAt  string           `json:"created_at,omitempty"`
}

// HealthRecordRequest is the request body for health events.
type HealthRecordRequest struct {
	AnimalID    int64            `json:"animal_id"`
	EventDate   string           `json:"event_date"`
	EventType   string           `json:"event_type"`
	Diagnosis   string           `json:"diagnosis"`
	Treatment   string           `json:"treatment"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	PerformedBy string           `json:"performed_by"`
	Notes       string           `json:"notes"`
}

// HealthRecordDTO represents a health record in responses.
type HealthRecordDTO struct {
	ID          int64            `json:"id"`
	AnimalID    int64            `json:"animal_id"`
	EventDate   string           `json:"event_date"`
	EventType   string           `json:"event_type"`
	Diagnosis   string           `json:"diagnosis,omitempty"`
	Treatment   string           `json:"treatment,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	PerformedBy string           `json:"performed_by,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	CreatedAt   string           `json:"created_at,omitempty"`
}

// LaborActivityRequest is the request body for labor activities.
type LaborActivityRequest struct {
	FarmerID     int64            `json:"farmer_id"`
	ActivityDate string           `json:"activity_date"`
	ActivityType string           `json:"activity_type"`
	Description  string           `json:"description"`
	WorkerName   string           `json:"worker_name"`
	Hours        decimal.Decimal  `json:"hours"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
}

// LaborActivityDTO represents a labor activity in responses.
type LaborActivityDTO struct {
	ID           int64            `json:"id"`
	FarmerID     int64            `json:"farmer_id"`
	ActivityDate string           `json:"activity_date"`
	ActivityType string           `json:"activity_type"`
	Description  string           `json:"description,omitempty"`
	WorkerName   string           `json:"worker_name,omitempty"`
	Hours        decimal.Decimal  `json:"hours"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	CreatedAt    string           `json:"created_at,omitempty"`
}

// BreedingRecordRequest is the request body for breeding records.
type BreedingRecordRequest struct {
	FemaleID     int64            `json:"female_id"`
	MaleID       *int64           `json:"male_id,omitempty"`
	BreedingDate string           `json:"breeding_date"`
	Method       string           `json:"method"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	Notes        string           `json:"notes"`
}

// BreedingRecordDTO represents a breeding record in responses.
type BreedingRecordDTO struct {
	ID           int64            `json:"id"`
	FemaleID     int64            `json:"female_id"`
	MaleID       *int64           `json:"male_id,omitempty"`
	BreedingDate string           `json:"breeding_date"`
	Method       string           `json:"method,omitempty"`
	Cost         *decimal.Decimal `json:"cost,omitempty"`
	Notes        string           `json:"notes,omitempty"`
	CreatedAt    string           `json:"created_at,omitempty"`
}

// MilkProductionRequest is the request body for milk production records.
type MilkProductionRequest struct {
	AnimalID       int64           `json:"animal_id"`
	ProductionDate string          `json:"production_date"`
	QuantityLiters decimal.Decimal `json:"quantity_liters"`
	Notes          string          `json:"notes"`
}

// MilkProductionDTO represents a milk production record in responses.
type MilkProductionDTO struct {
	ID             int64           `json:"id"`
	AnimalID       int64           `json:"animal_id"`
	ProductionDate string          `json:"production_date"`
	QuantityLiters decimal.Decimal `json:"quantity_liters"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      string          `json:"created_at,omitempty"`
}

// WeightRecordRequest is the request body for weight records.
type WeightRecordRequest struct {
	AnimalID   int64           `json:"animal_id"`
	RecordDate string          `json:"record_date"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	Notes      string          `json:"notes"`
}

// WeightRecordDTO represents a weight record in responses.
type WeightRecordDTO struct {
	ID         int64           `json:"id"`
	AnimalID   int64           `json:"animal_id"`
	RecordDate string          `json:"record_date"`
	WeightKg   decimal.Decimal `json:"weight_kg"`
	Notes      string          `json:"notes,omitempty"`
	CreatedAt  string          `json:"created_at,omitempty"`
}

// =============================================================================
// FINANCE TYPES
// =============================================================================

// LedgerEntryDTO represents a ledger entry in API responses.
type LedgerEntryDTO struct {
	ID              int64           `json:"id"`
	FarmerID        int64           `json:"farmer_id"`
	Kind            string          `json:"kind"`
	Category        string          `json:"category"`
	Description     string          `json:"description,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	RelatedAnimalID *int64          `json:"related_animal_id,omitempty"`
	RelatedPenID    *int64          `json:"related_pen_id,omitempty"`
	SourceTable     string          `json:"source_table,omitempty"`
	SourceID        int64           `json:"source_id,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// CostedRecordResponse wraps a stored record together with the ledger entry
// the sync produced for it. Entry is null when the amount was zero or the
// owner chain was dangling.
type CostedRecordResponse struct {
	Record any             `json:"record"`
	Entry  *LedgerEntryDTO `json:"ledger_entry,omitempty"`
}

// ManualEntryRequest is the request to record a ledger entry by hand,
// outside the synced operational tables.
type ManualEntryRequest struct {
	FarmerID        int64           `json:"farmer_id"`
	Kind            string          `json:"kind"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Date            string          `json:"date"`
	RelatedAnimalID *int64          `json:"related_animal_id,omitempty"`
	RelatedPenID    *int64          `json:"related_pen_id,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toFarmerDTO(f *farm.Farmer) FarmerDTO {
	return FarmerDTO{
		ID:        f.ID,
		Name:      f.Name,
		Phone:     f.Phone,
		Location:  f.Location,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
	}
}

func toPenDTO(p *farm.Pen) PenDTO {
	return PenDTO{
		ID:            p.ID,
		FarmerID:      p.FarmerID,
		Name:          p.Name,
		LivestockType: p.LivestockType,
		Capacity:      p.Capacity,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

func toAnimalDTO(a *farm.Animal) AnimalDTO {
	dto := AnimalDTO{
		ID:              a.ID,
		FarmerID:        a.FarmerID,
		PenID:           a.PenID,
		TagNumber:       a.TagNumber,
		Breed:           a.Breed,
		Sex:             a.Sex,
		DOB:             a.DOB.String(),
		AcquisitionDate: a.AcquisitionDate.String(),
		Status:          a.Status,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.AcquisitionCost != nil {
		s := a.AcquisitionCost.StringFixed(2)
		dto.AcquisitionCost = &s
	}
	return dto
}

func toFeedLogDTO(l *farm.FeedLog) FeedLogDTO {
	return FeedLogDTO{
		ID:         l.ID,
		PenID:      l.PenID,
		LogDate:    l.LogDate.String(),
		FeedType:   l.FeedType,
		QuantityKg: l.QuantityKg,
		CostPerKg:  l.CostPerKg,
		TotalCost:  l.TotalCost(),
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
}

func toIndividualFeedLogDTO(l *farm.IndividualFeedLog) IndividualFeedLogDTO {
	return IndividualFeedLogDTO{
		ID:         l.ID,
		AnimalID:   l.AnimalID,
		LogDate:    l.LogDate.String(),
		FeedType:   l.FeedType,
		QuantityKg: l.QuantityKg,
		Cost:       l.Cost,
		CreatedAt:  l.CreatedAt.Format(time.RFC3339),
	}
}

func toHealthRecordDTO(r *farm.HealthRecord) HealthRecordDTO {
	return HealthRecordDTO{
		ID:          r.ID,
		AnimalID:    r.AnimalID,
		EventDate:   r.EventDate.String(),
		EventType:   r.EventType,
		Diagnosis:   r.Diagnosis,
		Treatment:   r.Treatment,
		Cost:        r.Cost,
		PerformedBy: r.PerformedBy,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
}

func toLaborActivityDTO(a *farm.LaborActivity) LaborActivityDTO {
	return LaborActivityDTO{
		ID:           a.ID,
		FarmerID:     a.FarmerID,
		ActivityDate: a.ActivityDate.String(),
		ActivityType: a.ActivityType,
		Description:  a.Description,
		WorkerName:   a.WorkerName,
		Hours:        a.Hours,
		Cost:         a.Cost,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}

func toBreedingRecordDTO(r *farm.BreedingRecord) BreedingRecordDTO {
	return BreedingRecordDTO{
		ID:           r.ID,
		FemaleID:     r.FemaleID,
		MaleID:       r.MaleID,
		BreedingDate: r.BreedingDate.String(),
		Method:       r.Method,
		Cost:         r.Cost,
		Notes:        r.Notes,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

func toMilkProductionDTO(p *farm.MilkProduction) MilkProductionDTO {
	return MilkProductionDTO{
		ID:             p.ID,
		AnimalID:       p.AnimalID,
		ProductionDate: p.ProductionDate.String(),
		QuantityLiters: p.QuantityLiters,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
	}
}

func toWeightRecordDTO(r *farm.WeightRecord) WeightRecordDTO {
	return WeightRecordDTO{
		ID:         r.ID,
		AnimalID:   r.AnimalID,
		RecordDate: r.RecordDate.String(),
		WeightKg:   r.WeightKg,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
}

func toLedgerEntryDTO(e *ledger.Entry) *LedgerEntryDTO {
	if e == nil {
		return nil
	}
	dto := &LedgerEntryDTO{
		ID:              e.ID,
		FarmerID:        e.FarmerID,
		Kind:            string(e.Kind),
		Category:        e.Category,
		Description:     e.Description,
		Amount:          e.Amount,
		Date:            e.Date.String(),
		RelatedAnimalID: e.RelatedAnimalID,
		RelatedPenID:    e.RelatedPenID,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
	}
	if e.Source != nil {
		dto.SourceTable = e.Source.Table
		dto.SourceID = e.Source.ID
	}
	return dto
}

func toLedgerEntryDTOs(entries []ledger.Entry) []LedgerEntryDTO {
	dtos := make([]LedgerEntryDTO, len(entries))
	for i := range entries {
		dtos[i] = *toLedgerEntryDTO(&entries[i])
	}
	return dtos
}
