/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/farmers/*   Farmer registry and per-farmer views
  /api/pens/*      Pen registry
  /api/animals/*   Animal registry and per-animal views
  /api/feed/*      Feed logs (pen-level and individual)
  /api/health/*    Health records
  /api/labor/*     Labor activities
  /api/breeding/*  Breeding records
  /api/production/* Milk and weight records
  /api/finance/*   Manual ledger entries

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Farmer routes
		r.Route("/farmers", func(r chi.Router) {
			r.Get("/", h.ListFarmers)
			r.Post("/", h.CreateFarmer)
			r.Get("/{id}", h.GetFarmer)
			r.Get("/{id}/pens", h.ListFarmerPens)
			r.Get("/{id}/animals", h.ListFarmerAnimals)
			r.Get("/{id}/labor", h.ListFarmerLabor)
			r.Get("/{id}/ledger", h.GetFarmerLedger)
		})

		// Pen routes
		r.Route("/pens", func(r chi.Router) {
			r.Post("/", h.CreatePen)
			r.Get("/{id}", h.GetPen)
			r.Get("/{id}/feed", h.ListPenFeedLogs)
		})

		// Animal routes
		r.Route("/animals", func(r chi.Router) {
			r.Post("/", h.CreateAnimal)
			r.Get("/{id}", h.GetAnimal)
			r.Get("/{id}/feed", h.ListAnimalFeedLogs)
			r.Get("/{id}/health", h.ListAnimalHealthRecords)
			r.Get("/{id}/breeding", h.ListAnimalBreedingRecords)
		})

		// Costed record routes. Each write syncs the farmer's ledger.
		r.Route("/feed", func(r chi.Router) {
			r.Post("/", h.CreateFeedLog)
			r.Put("/{id}", h.UpdateFeedLog)
			r.Delete("/{id}", h.DeleteFeedLog)

			r.Route("/individual", func(r chi.Router) {
				r.Post("/", h.CreateIndividualFeedLog)
				r.Put("/{id}", h.UpdateIndividualFeedLog)
				r.Delete("/{id}", h.DeleteIndividualFeedLog)
			})
		})

		r.Route("/health", func(r chi.Router) {
			r.Post("/", h.CreateHealthRecord)
			r.Put("/{id}", h.UpdateHealthRecord)
			r.Delete("/{id}", h.DeleteHealthRecord)
		})

		r.Route("/labor", func(r chi.Router) {
			r.Post("/", h.CreateLaborActivity)
			r.Put("/{id}", h.UpdateLaborActivity)
			r.Delete("/{id}", h.DeleteLaborActivity)
		})

		r.Route("/breeding", func(r chi.Router) {
			r.Post("/", h.CreateBreedingRecord)
			r.Put("/{id}", h.UpdateBreedingRecord)
			r.Delete("/{id}", h.DeleteBreedingRecord)
		})

		// Production routes. No cost attached, so no ledger involvement.
		r.Route("/production", func(r chi.Router) {
			r.Post("/milk", h.CreateMilkProduction)
			r.Get("/milk/animal/{id}", h.ListAnimalMilkProduction)
			r.Post("/weight", h.CreateWeightRecord)
			r.Get("/weight/animal/{id}", h.ListAnimalWeightRecords)
		})

		// Finance routes
		r.Route("/finance", func(r chi.Router) {
			r.Post("/entries", h.CreateManualEntry)
		})
	})

	return r
}
