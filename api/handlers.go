/*
handlers.go - HTTP API handlers for the ranch records system

PURPOSE:
  Exposes the farm service via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic. Handlers never touch
  the ledger directly: every costed write goes through farm.Service so
  the record and its ledger entry stay in one transaction.

ENDPOINTS:
  Farmers:
    GET    /api/farmers               List all farmers
    POST   /api/farmers               Register farmer
    GET    /api/farmers/{id}          Get farmer
    GET    /api/farmers/{id}/pens     Pens owned by farmer
    GET    /api/farmers/{id}/animals  Animals owned by farmer
    GET    /api/farmers/{id}/labor    Labor activities for farmer
    GET    /api/farmers/{id}/ledger   Financial ledger for farmer

  Registries:
    POST   /api/pens                  Create pen
    GET    /api/pens/{id}             Get pen
    GET    /api/pens/{id}/feed        Feed logs for pen
    POST   /api/animals               Register animal
    GET    /api/animals/{id}          Get animal
    GET    /api/animals/{id}/feed     Individual feed logs for animal
    GET    /api/animals/{id}/health   Health records for animal
    GET    /api/animals/{id}/breeding Breeding records for animal

  Costed records (each POST/PUT/DELETE also syncs the ledger):
    POST/PUT/DELETE  /api/feed[/{id}]
    POST/PUT/DELETE  /api/feed/individual[/{id}]
    POST/PUT/DELETE  /api/health[/{id}]
    POST/PUT/DELETE  /api/labor[/{id}]
    POST/PUT/DELETE  /api/breeding[/{id}]

  Production (no cost, never synced):
    POST   /api/production/milk                     Record milk yield
    GET    /api/production/milk/animal/{id}         Milk yields for animal
    POST   /api/production/weight                   Record weight check
    GET    /api/production/weight/animal/{id}       Weight checks for animal

  Finance:
    POST   /api/finance/entries       Record a manual ledger entry

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Ledger source key conflict
  - 500: Storage and other internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - farm/service.go: The composite operations behind these handlers
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/smartranch/ranch-engine/farm"
	"github.com/smartranch/ranch-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *farm.Service
}

// NewHandler creates a new handler around the farm service.
func NewHandler(svc *farm.Service) *Handler {
	return &Handler{Service: svc}
}

// =============================================================================
// FARMER HANDLERS
// =============================================================================

// ListFarmers returns all registered farmers.
func (h *Handler) ListFarmers(w http.ResponseWriter, r *http.Request) {
	farmers, err := h.Service.Store().ListFarmers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list farmers", err)
		return
	}

	dtos := make([]FarmerDTO, len(farmers))
	for i := range farmers {
		dtos[i] = toFarmerDTO(&farmers[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateFarmer registers a new farmer.
func (h *Handler) CreateFarmer(w http.ResponseWriter, r *http.Request) {
	var req CreateFarmerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required", nil)
		return
	}

	f := farm.Farmer{Name: req.Name, Phone: req.Phone, Location: req.Location}
	if err := h.Service.Store().InsertFarmer(r.Context(), &f); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create farmer", err)
		return
	}
	writeJSON(w, http.StatusCreated, toFarmerDTO(&f))
}

// GetFarmer returns a single farmer.
func (h *Handler) GetFarmer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	f, err := h.Service.Store().GetFarmer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get farmer", err)
		return
	}
	if f == nil {
		writeError(w, http.StatusNotFound, "Farmer not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toFarmerDTO(f))
}

// ListFarmerPens returns the pens owned by a farmer.
func (h *Handler) ListFarmerPens(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	pens, err := h.Service.Store().ListPensByFarmer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pens", err)
		return
	}

	dtos := make([]PenDTO, len(pens))
	for i := range pens {
		dtos[i] = toPenDTO(&pens[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListFarmerAnimals returns the animals owned by a farmer.
func (h *Handler) ListFarmerAnimals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	animals, err := h.Service.Store().ListAnimalsByFarmer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list animals", err)
		return
	}

	dtos := make([]AnimalDTO, len(animals))
	for i := range animals {
		dtos[i] = toAnimalDTO(&animals[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListFarmerLabor returns the labor activities recorded for a farmer.
func (h *Handler) ListFarmerLabor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	activities, err := h.Service.Store().ListLaborActivitiesByFarmer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list labor activities", err)
		return
	}

	dtos := make([]LaborActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = toLaborActivityDTO(&activities[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetFarmerLedger returns a farmer's full financial ledger.
func (h *Handler) GetFarmerLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	entries, err := h.Service.LedgerByFarmer(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ledger entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerEntryDTOs(entries))
}

// =============================================================================
// PEN HANDLERS
// =============================================================================

// CreatePen creates a pen for a farmer.
func (h *Handler) CreatePen(w http.ResponseWriter, r *http.Request) {
	var req CreatePenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FarmerID <= 0 || req.Name == "" || req.LivestockType == "" {
		writeError(w, http.StatusBadRequest, "farmer_id, name and livestock_type are required", nil)
		return
	}

	p := farm.Pen{
		FarmerID:      req.FarmerID,
		Name:          req.Name,
		LivestockType: req.LivestockType,
		Capacity:      req.Capacity,
	}
	if err := h.Service.Store().InsertPen(r.Context(), &p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create pen", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPenDTO(&p))
}

// GetPen returns a single pen.
func (h *Handler) GetPen(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	p, err := h.Service.Store().GetPen(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get pen", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Pen not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPenDTO(p))
}

// ListPenFeedLogs returns the feed logs recorded for a pen.
func (h *Handler) ListPenFeedLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	logs, err := h.Service.Store().ListFeedLogsByPen(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list feed logs", err)
		return
	}

	dtos := make([]FeedLogDTO, len(logs))
	for i := range logs {
		dtos[i] = toFeedLogDTO(&logs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// ANIMAL HANDLERS
// =============================================================================

// CreateAnimal registers an animal.
func (h *Handler) CreateAnimal(w http.ResponseWriter, r *http.Request) {
	var req CreateAnimalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FarmerID <= 0 || req.TagNumber == "" {
		writeError(w, http.StatusBadRequest, "farmer_id and tag_number are required", nil)
		return
	}

	dob, err := parseOptionalDate(req.DOB)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dob format (use YYYY-MM-DD)", err)
		return
	}
	acqDate, err := parseOptionalDate(req.AcquisitionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid acquisition_date format (use YYYY-MM-DD)", err)
		return
	}

	a := farm.Animal{
		FarmerID:        req.FarmerID,
		PenID:           req.PenID,
		TagNumber:       req.TagNumber,
		Breed:           req.Breed,
		Sex:             req.Sex,
		DOB:             dob,
		AcquisitionDate: acqDate,
		AcquisitionCost: req.AcquisitionCost,
		Status:          req.Status,
	}
	if err := h.Service.Store().InsertAnimal(r.Context(), &a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create animal", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAnimalDTO(&a))
}

// GetAnimal returns a single animal.
func (h *Handler) GetAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	a, err := h.Service.Store().GetAnimal(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get animal", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Animal not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toAnimalDTO(a))
}

// ListAnimalFeedLogs returns per-animal feed logs.
func (h *Handler) ListAnimalFeedLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	logs, err := h.Service.Store().ListIndividualFeedLogsByAnimal(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list feed logs", err)
		return
	}

	dtos := make([]IndividualFeedLogDTO, len(logs))
	for i := range logs {
		dtos[i] = toIndividualFeedLogDTO(&logs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListAnimalHealthRecords returns health records for an animal.
func (h *Handler) ListAnimalHealthRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	records, err := h.Service.Store().ListHealthRecordsByAnimal(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list health records", err)
		return
	}

	dtos := make([]HealthRecordDTO, len(records))
	for i := range records {
		dtos[i] = toHealthRecordDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListAnimalBreedingRecords returns breeding records involving an animal.
func (h *Handler) ListAnimalBreedingRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	records, err := h.Service.Store().ListBreedingRecordsByAnimal(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list breeding records", err)
		return
	}

	dtos := make([]BreedingRecordDTO, len(records))
	for i := range records {
		dtos[i] = toBreedingRecordDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// FEED LOG HANDLERS
// =============================================================================

// CreateFeedLog records a pen-level feed log and syncs its cost.
func (h *Handler) CreateFeedLog(w http.ResponseWriter, r *http.Request) {
	l, ok := decodeFeedLog(w, r, 0)
	if !ok {
		return
	}

	entry, err := h.Service.RecordFeedLog(r.Context(), l)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CostedRecordResponse{
		Record: toFeedLogDTO(l),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// UpdateFeedLog updates a feed log and re-syncs its cost.
func (h *Handler) UpdateFeedLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, ok := decodeFeedLog(w, r, id)
	if !ok {
		return
	}

	entry, err := h.Service.UpdateFeedLog(r.Context(), l)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CostedRecordResponse{
		Record: toFeedLogDTO(l),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// DeleteFeedLog removes a feed log and its ledger entry.
func (h *Handler) DeleteFeedLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteFeedLog(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeFeedLog(w http.ResponseWriter, r *http.Request, id int64) (*farm.FeedLog, bool) {
	var req FeedLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	date, err := parseOptionalDate(req.LogDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid log_date format (use YYYY-MM-DD)", err)
		return nil, false
	}
	return &farm.FeedLog{
		ID:         id,
		PenID:      req.PenID,
		LogDate:    date,
		FeedType:   req.FeedType,
		QuantityKg: req.QuantityKg,
		CostPerKg:  req.CostPerKg,
	}, true
}

// =============================================================================
// INDIVIDUAL FEED LOG HANDLERS
// =============================================================================

// CreateIndividualFeedLog records a per-animal feed log.
func (h *Handler) CreateIndividualFeedLog(w http.ResponseWriter, r *http.Request) {
	l, ok := decodeIndividualFeedLog(w, r, 0)
	if !ok {
		return
	}

	entry, err := h.Service.RecordIndividualFeedLog(r.Context(), l)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CostedRecordResponse{
		Record: toIndividualFeedLogDTO(l),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// UpdateIndividualFeedLog updates a per-animal feed log.
func (h *Handler) UpdateIndividualFeedLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	l, ok := decodeIndividualFeedLog(w, r, id)
	if !ok {
		return
	}

	entry, err := h.Service.UpdateIndividualFeedLog(r.Context(), l)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CostedRecordResponse{
		Record: toIndividualFeedLogDTO(l),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// DeleteIndividualFeedLog removes a per-animal feed log.
func (h *Handler) DeleteIndividualFeedLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteIndividualFeedLog(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeIndividualFeedLog(w http.ResponseWriter, r *http.Request, id int64) (*farm.IndividualFeedLog, bool) {
	var req IndividualFeedLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	date, err := parseOptionalDate(req.LogDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid log_date format (use YYYY-MM-DD)", err)
		return nil, false
	}
	return &farm.IndividualFeedLog{
		ID:         id,
		AnimalID:   req.AnimalID,
		LogDate:    date,
		FeedType:   req.FeedType,
		QuantityKg: req.QuantityKg,
		Cost:       req.Cost,
	}, true
}

// =============================================================================
// HEALTH RECORD HANDLERS
// =============================================================================

// CreateHealthRecord records a health event.
func (h *Handler) CreateHealthRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeHealthRecord(w, r, 0)
	if !ok {
		return
	}

	entry, err := h.Service.RecordHealthRecord(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CostedRecordResponse{
		Record: toHealthRecordDTO(rec),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// UpdateHealthRecord updates a health event.
func (h *Handler) UpdateHealthRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, ok := decodeHealthRecord(w, r, id)
	if !ok {
		return
	}

	entry, err := h.Service.UpdateHealthRecord(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CostedRecordResponse{
		Record: toHealthRecordDTO(rec),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// DeleteHealthRecord removes a health event and its ledger entry.
func (h *Handler) DeleteHealthRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteHealthRecord(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeHealthRecord(w http.ResponseWriter, r *http.Request, id int64) (*farm.HealthRecord, bool) {
	var req HealthRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	date, err := parseOptionalDate(req.EventDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid event_date format (use YYYY-MM-DD)", err)
		return nil, false
	}
	return &farm.HealthRecord{
		ID:          id,
		AnimalID:    req.AnimalID,
		EventDate:   date,
		EventType:   req.EventType,
		Diagnosis:   req.Diagnosis,
		Treatment:   req.Treatment,
		Cost:        req.Cost,
		PerformedBy: req.PerformedBy,
		Notes:       req.Notes,
	}, true
}

// =============================================================================
// LABOR ACTIVITY HANDLERS
// =============================================================================

// CreateLaborActivity records labor work for a farmer.
func (h *Handler) CreateLaborActivity(w http.ResponseWriter, r *http.Request) {
	a, ok := decodeLaborActivity(w, r, 0)
	if !ok {
		return
	}

	entry, err := h.Service.RecordLaborActivity(r.Context(), a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CostedRecordResponse{
		Record: toLaborActivityDTO(a),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// UpdateLaborActivity updates a labor record.
func (h *Handler) UpdateLaborActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, ok := decodeLaborActivity(w, r, id)
	if !ok {
		return
	}

	entry, err := h.Service.UpdateLaborActivity(r.Context(), a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CostedRecordResponse{
		Record: toLaborActivityDTO(a),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// DeleteLaborActivity removes a labor record and its ledger entry.
func (h *Handler) DeleteLaborActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteLaborActivity(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeLaborActivity(w http.ResponseWriter, r *http.Request, id int64) (*farm.LaborActivity, bool) {
	var req LaborActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	date, err := parseOptionalDate(req.ActivityDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid activity_date format (use YYYY-MM-DD)", err)
		return nil, false
	}
	return &farm.LaborActivity{
		ID:           id,
		FarmerID:     req.FarmerID,
		ActivityDate: date,
		ActivityType: req.ActivityType,
		Description:  req.Description,
		WorkerName:   req.WorkerName,
		Hours:        req.Hours,
		Cost:         req.Cost,
	}, true
}

// =============================================================================
// BREEDING RECORD HANDLERS
// =============================================================================

// CreateBreedingRecord records a breeding event.
func (h *Handler) CreateBreedingRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeBreedingRecord(w, r, 0)
	if !ok {
		return
	}

	entry, err := h.Service.RecordBreedingRecord(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CostedRecordResponse{
		Record: toBreedingRecordDTO(rec),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// UpdateBreedingRecord updates a breeding event.
func (h *Handler) UpdateBreedingRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, ok := decodeBreedingRecord(w, r, id)
	if !ok {
		return
	}

	entry, err := h.Service.UpdateBreedingRecord(r.Context(), rec)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CostedRecordResponse{
		Record: toBreedingRecordDTO(rec),
		Entry:  toLedgerEntryDTO(entry),
	})
}

// DeleteBreedingRecord removes a breeding event and its ledger entry.
func (h *Handler) DeleteBreedingRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.Service.DeleteBreedingRecord(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBreedingRecord(w http.ResponseWriter, r *http.Request, id int64) (*farm.BreedingRecord, bool) {
	var req BreedingRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return nil, false
	}
	date, err := parseOptionalDate(req.BreedingDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid breeding_date format (use YYYY-MM-DD)", err)
		return nil, false
	}
	return &farm.BreedingRecord{
		ID:           id,
		FemaleID:     req.FemaleID,
		MaleID:       req.MaleID,
		BreedingDate: date,
		Method:       req.Method,
		Cost:         req.Cost,
		Notes:        req.Notes,
	}, true
}

// =============================================================================
// PRODUCTION HANDLERS
// =============================================================================

// CreateMilkProduction records a milk yield for an animal.
func (h *Handler) CreateMilkProduction(w http.ResponseWriter, r *http.Request) {
	var req MilkProductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseOptionalDate(req.ProductionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid production_date format (use YYYY-MM-DD)", err)
		return
	}

	rec := &farm.MilkProduction{
		AnimalID:       req.AnimalID,
		ProductionDate: date,
		QuantityLiters: req.QuantityLiters,
		Notes:          req.Notes,
	}
	if err := h.Service.RecordMilkProduction(r.Context(), rec); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMilkProductionDTO(rec))
}

// ListAnimalMilkProduction returns milk yields for an animal.
func (h *Handler) ListAnimalMilkProduction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	records, err := h.Service.MilkProductionByAnimal(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]MilkProductionDTO, len(records))
	for i := range records {
		dtos[i] = toMilkProductionDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateWeightRecord records a weight check for an animal.
func (h *Handler) CreateWeightRecord(w http.ResponseWriter, r *http.Request) {
	var req WeightRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseOptionalDate(req.RecordDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid record_date format (use YYYY-MM-DD)", err)
		return
	}

	rec := &farm.WeightRecord{
		AnimalID:   req.AnimalID,
		RecordDate: date,
		WeightKg:   req.WeightKg,
		Notes:      req.Notes,
	}
	if err := h.Service.RecordWeightRecord(r.Context(), rec); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWeightRecordDTO(rec))
}

// ListAnimalWeightRecords returns weight checks for an animal.
func (h *Handler) ListAnimalWeightRecords(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	records, err := h.Service.WeightRecordsByAnimal(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]WeightRecordDTO, len(records))
	for i := range records {
		dtos[i] = toWeightRecordDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// FINANCE HANDLERS
// =============================================================================

// CreateManualEntry records a ledger entry that has no operational source.
func (h *Handler) CreateManualEntry(w http.ResponseWriter, r *http.Request) {
	var req ManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	date, err := parseOptionalDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	e := ledger.Entry{
		FarmerID:        req.FarmerID,
		Kind:            ledger.Kind(req.Kind),
		Category:        req.Category,
		Description:     req.Description,
		Amount:          req.Amount,
		Date:            date,
		RelatedAnimalID: req.RelatedAnimalID,
		RelatedPenID:    req.RelatedPenID,
	}
	if err := h.Service.RecordManualEntry(r.Context(), &e); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLedgerEntryDTO(&e))
}

// =============================================================================
// HELPERS
// =============================================================================

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id", err)
		return 0, false
	}
	return id, true
}

func parseOptionalDate(s string) (ledger.Date, error) {
	if s == "" {
		return ledger.Date{}, nil
	}
	return ledger.ParseDate(s)
}

// writeDomainError translates domain errors into HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, farm.ErrNotFound):
		writeError(w, http.StatusNotFound, "Record not found", err)
	case ledger.IsNotFoundDependency(err):
		writeError(w, http.StatusNotFound, "Referenced record not found", err)
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid input", err)
	case ledger.IsConflict(err):
		writeError(w, http.StatusConflict, "Conflicting ledger entry", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
