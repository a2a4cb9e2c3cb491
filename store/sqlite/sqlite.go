/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  One Store implements ledger.Store plus all of farm.Store. The composite
  operations need both halves inside a single transaction, so they live
  behind one handle.

KEY TABLES:
  farmers, pens, animals:  Registries
  feed_logs, individual_feed_logs, health_records,
  labor_activities, breeding_records:  Operational records
  milk_production, weight_records:  Production records (non-costed)
  ledger_entries:  The derived financial ledger

CONSTRAINTS THAT CARRY INVARIANTS:
  - idx_ledger_source: UNIQUE(source_table, source_id) over sync-derived
    rows. This is what turns a lost-update race into a detectable
    conflict instead of a silent duplicate.
  - CHECK(amount > 0) on ledger_entries: an entry with a non-positive
    amount must not exist, and the database refuses to store one.

CONCURRENCY:
  No in-process locking layer. The connection pool is capped at one
  connection, so transactions serialize through SQLite itself; writes to
  the same source key are ordered by the database, not by a mutex.

TRANSACTIONS:
  WithTx hands the closure a tx-bound copy of the Store. Reads inside the
  scope see rows written earlier in the same scope (the ledger upsert
  reads the operational row's generated ID) while other readers wait for
  commit.

MIGRATION:
  Schema is created on New(). Fine for a single-binary deployment; a
  versioned migration tool becomes worthwhile once the schema moves.

SEE ALSO:
  - ledger/store.go: The ledger half of the contract
  - farm/store.go:   The operational half and WithTx semantics
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/smartranch/ranch-engine/farm"
	"github.com/smartranch/ranch-engine/ledger"
)

// querier is the subset of *sql.DB and *sql.Tx the store needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements farm.TxStore (and therefore ledger.Store) on SQLite.
type Store struct {
	db *sql.DB
	q  querier
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: transactions serialize through SQLite itself.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, q: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS farmers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		phone TEXT,
		location TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		farmer_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		livestock_type TEXT NOT NULL,
		capacity INTEGER,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pens_farmer ON pens(farmer_id);

	CREATE TABLE IF NOT EXISTS animals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		farmer_id INTEGER NOT NULL,
		pen_id INTEGER,
		tag_number TEXT UNIQUE NOT NULL,
		breed TEXT,
		sex TEXT,
		dob TEXT,
		acquisition_date TEXT,
		acquisition_cost TEXT,
		status TEXT NOT NULL DEFAULT 'Active',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_animals_farmer ON animals(farmer_id);
	CREATE INDEX IF NOT EXISTS idx_animals_pen ON animals(pen_id);

	CREATE TABLE IF NOT EXISTS feed_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		pen_id INTEGER NOT NULL,
		log_date TEXT NOT NULL,
		feed_type TEXT NOT NULL,
		quantity_kg TEXT NOT NULL,
		cost_per_kg TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_feed_logs_pen ON feed_logs(pen_id);

	CREATE TABLE IF NOT EXISTS individual_feed_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		animal_id INTEGER NOT NULL,
		log_date TEXT NOT NULL,
		feed_type TEXT NOT NULL,
		quantity_kg TEXT NOT NULL,
		cost TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_individual_feed_logs_animal ON individual_feed_logs(animal_id);

	CREATE TABLE IF NOT EXISTS health_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		animal_id INTEGER NOT NULL,
		event_date TEXT NOT NULL,
		event_type TEXT NOT NULL,
		diagnosis TEXT,
		treatment TEXT,
		cost TEXT,
		performed_by TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_health_records_animal ON health_records(animal_id);

	CREATE TABLE IF NOT EXISTS labor_activities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		farmer_id INTEGER NOT NULL,
		activity_date TEXT NOT NULL,
		activity_type TEXT NOT NULL,
		description TEXT,
		worker_name TEXT,
		hours TEXT,
		cost TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_labor_activities_farmer ON labor_activities(farmer_id);

	CREATE TABLE IF NOT EXISTS breeding_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		female_id INTEGER NOT NULL,
		male_id INTEGER,
		breeding_date TEXT NOT NULL,
		method TEXT,
		cost TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_breeding_records_female ON breeding_records(female_id);

	CREATE TABLE IF NOT EXISTS milk_production (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		animal_id INTEGER NOT NULL,
		production_date TEXT NOT NULL,
		quantity_liters TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_milk_production_animal ON milk_production(animal_id);

	CREATE TABLE IF NOT EXISTS weight_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		animal_id INTEGER NOT NULL,
		record_date TEXT NOT NULL,
		weight_kg TEXT NOT NULL,
		notes TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_weight_records_animal ON weight_records(animal_id);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		farmer_id INTEGER NOT NULL,
		kind TEXT NOT NULL,
		category TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL CHECK (CAST(amount AS REAL) > 0),
		date TEXT NOT NULL,
		related_animal_id INTEGER,
		related_pen_id INTEGER,
		source_table TEXT,
		source_id INTEGER,
		created_at TEXT NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_ledger_source
		ON ledger_entries(source_table, source_id)
		WHERE source_table IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_ledger_farmer ON ledger_entries(farmer_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_date ON ledger_entries(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(farm.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &ledger.StorageError{Op: "begin transaction", Err: err}
	}
	defer tx.Rollback()

	if err := fn(&Store{db: s.db, q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &ledger.StorageError{Op: "commit transaction", Err: err}
	}
	return nil
}

// =============================================================================
// LEDGER ENTRIES (ledger.Store interface)
// =============================================================================

const ledgerColumns = `id, farmer_id, kind, category, description, amount, date,
	related_animal_id, related_pen_id, source_table, source_id, created_at`

func (s *Store) FindBySource(ctx context.Context, ref ledger.SourceRef) (*ledger.Entry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_entries WHERE source_table = ? AND source_id = ?`

	row := s.q.QueryRowContext(ctx, query, ref.Table, ref.ID)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "find ledger entry", Err: err}
	}
	return e, nil
}

func (s *Store) Insert(ctx context.Context, e *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries
		(farmer_id, kind, category, description, amount, date,
		 related_animal_id, related_pen_id, source_table, source_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	var srcTable sql.NullString
	var srcID sql.NullInt64
	if e.Source != nil {
		srcTable = sql.NullString{String: e.Source.Table, Valid: true}
		srcID = sql.NullInt64{Int64: e.Source.ID, Valid: true}
	}

	res, err := s.q.ExecContext(ctx, query,
		e.FarmerID,
		string(e.Kind),
		e.Category,
		e.Description,
		e.Amount.StringFixed(2),
		e.Date.String(),
		nullInt(e.RelatedAnimalID),
		nullInt(e.RelatedPenID),
		srcTable,
		srcID,
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("insert ledger entry: %w", ledger.ErrSourceConflict)
		}
		return &ledger.StorageError{Op: "insert ledger entry", Err: err}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return &ledger.StorageError{Op: "insert ledger entry", Err: err}
	}
	e.ID = id
	e.CreatedAt = now
	return nil
}

func (s *Store) Update(ctx context.Context, e *ledger.Entry) error {
	// Only the mutable fields. Farmer, source key and created_at are
	// deliberately absent from the SET list.
	query := `
		UPDATE ledger_entries
		SET amount = ?, category = ?, description = ?, date = ?,
		    related_animal_id = ?, related_pen_id = ?
		WHERE id = ?
	`

	res, err := s.q.ExecContext(ctx, query,
		e.Amount.StringFixed(2),
		e.Category,
		e.Description,
		e.Date.String(),
		nullInt(e.RelatedAnimalID),
		nullInt(e.RelatedPenID),
		e.ID,
	)
	if err != nil {
		return &ledger.StorageError{Op: "update ledger entry", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &ledger.StorageError{Op: "update ledger entry", Err: err}
	}
	if n == 0 {
		return farm.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBySource(ctx context.Context, ref ledger.SourceRef) (bool, error) {
	res, err := s.q.ExecContext(ctx,
		"DELETE FROM ledger_entries WHERE source_table = ? AND source_id = ?",
		ref.Table, ref.ID)
	if err != nil {
		return false, &ledger.StorageError{Op: "delete ledger entry", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &ledger.StorageError{Op: "delete ledger entry", Err: err}
	}
	return n > 0, nil
}

func (s *Store) ListByFarmer(ctx context.Context, farmerID int64) ([]ledger.Entry, error) {
	query := `SELECT ` + ledgerColumns + `
		FROM ledger_entries WHERE farmer_id = ? ORDER BY id ASC`

	rows, err := s.q.QueryContext(ctx, query, farmerID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list ledger entries", Err: err}
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list ledger entries", Err: err}
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*ledger.Entry, error) {
	var (
		e         ledger.Entry
		kind      string
		amount    string
		date      string
		animalID  sql.NullInt64
		penID     sql.NullInt64
		srcTable  sql.NullString
		srcID     sql.NullInt64
		desc      sql.NullString
		createdAt string
	)

	err := row.Scan(&e.ID, &e.FarmerID, &kind, &e.Category, &desc, &amount, &date,
		&animalID, &penID, &srcTable, &srcID, &createdAt)
	if err != nil {
		return nil, err
	}

	e.Kind = ledger.Kind(kind)
	e.Description = desc.String
	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("malformed amount %q: %w", amount, err)
	}
	e.Date, err = ledger.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("malformed date %q in ledger entry %d", date, e.ID)
	}
	e.RelatedAnimalID = intPtr(animalID)
	e.RelatedPenID = intPtr(penID)
	if srcTable.Valid {
		e.Source = &ledger.SourceRef{Table: srcTable.String, ID: srcID.Int64}
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &e, nil
}

// =============================================================================
// FARMERS
// =============================================================================

func (s *Store) InsertFarmer(ctx context.Context, f *farm.Farmer) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO farmers (name, phone, location, created_at) VALUES (?, ?, ?, ?)",
		f.Name, f.Phone, f.Location, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert farmer", Err: err}
	}
	f.ID, _ = res.LastInsertId()
	f.CreatedAt = now
	return nil
}

func (s *Store) GetFarmer(ctx context.Context, id int64) (*farm.Farmer, error) {
	var f farm.Farmer
	var phone, location sql.NullString
	var createdAt string

	err := s.q.QueryRowContext(ctx,
		"SELECT id, name, phone, location, created_at FROM farmers WHERE id = ?", id,
	).Scan(&f.ID, &f.Name, &phone, &location, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get farmer", Err: err}
	}

	f.Phone = phone.String
	f.Location = location.String
	f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &f, nil
}

func (s *Store) ListFarmers(ctx context.Context) ([]farm.Farmer, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, name, phone, location, created_at FROM farmers ORDER BY id ASC")
	if err != nil {
		return nil, &ledger.StorageError{Op: "list farmers", Err: err}
	}
	defer rows.Close()

	var farmers []farm.Farmer
	for rows.Next() {
		var f farm.Farmer
		var phone, location sql.NullString
		var createdAt string
		if err := rows.Scan(&f.ID, &f.Name, &phone, &location, &createdAt); err != nil {
			return nil, &ledger.StorageError{Op: "list farmers", Err: err}
		}
		f.Phone = phone.String
		f.Location = location.String
		f.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		farmers = append(farmers, f)
	}
	return farmers, rows.Err()
}

// =============================================================================
// PENS
// =============================================================================

func (s *Store) InsertPen(ctx context.Context, p *farm.Pen) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		"INSERT INTO pens (farmer_id, name, livestock_type, capacity, created_at) VALUES (?, ?, ?, ?, ?)",
		p.FarmerID, p.Name, p.LivestockType, p.Capacity, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert pen", Err: err}
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	return nil
}

func (s *Store) GetPen(ctx context.Context, id int64) (*farm.Pen, error) {
	var p farm.Pen
	var capacity sql.NullInt64
	var createdAt string

	err := s.q.QueryRowContext(ctx,
		"SELECT id, farmer_id, name, livestock_type, capacity, created_at FROM pens WHERE id = ?", id,
	).Scan(&p.ID, &p.FarmerID, &p.Name, &p.LivestockType, &capacity, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get pen", Err: err}
	}

	p.Capacity = int(capacity.Int64)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) ListPensByFarmer(ctx context.Context, farmerID int64) ([]farm.Pen, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT id, farmer_id, name, livestock_type, capacity, created_at FROM pens WHERE farmer_id = ? ORDER BY id ASC",
		farmerID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list pens", Err: err}
	}
	defer rows.Close()

	var pens []farm.Pen
	for rows.Next() {
		var p farm.Pen
		var capacity sql.NullInt64
		var createdAt string
		if err := rows.Scan(&p.ID, &p.FarmerID, &p.Name, &p.LivestockType, &capacity, &createdAt); err != nil {
			return nil, &ledger.StorageError{Op: "list pens", Err: err}
		}
		p.Capacity = int(capacity.Int64)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		pens = append(pens, p)
	}
	return pens, rows.Err()
}

// =============================================================================
// ANIMALS
// =============================================================================

func (s *Store) InsertAnimal(ctx context.Context, a *farm.Animal) error {
	now := time.Now().UTC()
	if a.Status == "" {
		a.Status = "Active"
	}
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO animals
		 (farmer_id, pen_id, tag_number, breed, sex, dob, acquisition_date, acquisition_cost, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.FarmerID, nullInt(a.PenID), a.TagNumber, a.Breed, a.Sex,
		nullDate(a.DOB), nullDate(a.AcquisitionDate), nullDecimal(a.AcquisitionCost),
		a.Status, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert animal", Err: err}
	}
	a.ID, _ = res.LastInsertId()
	a.CreatedAt = now
	return nil
}

func (s *Store) GetAnimal(ctx context.Context, id int64) (*farm.Animal, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, farmer_id, pen_id, tag_number, breed, sex, dob, acquisition_date,
		        acquisition_cost, status, created_at
		 FROM animals WHERE id = ?`, id)

	a, err := scanAnimal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get animal", Err: err}
	}
	return a, nil
}

func (s *Store) ListAnimalsByFarmer(ctx context.Context, farmerID int64) ([]farm.Animal, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, farmer_id, pen_id, tag_number, breed, sex, dob, acquisition_date,
		        acquisition_cost, status, created_at
		 FROM animals WHERE farmer_id = ? ORDER BY id ASC`, farmerID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list animals", Err: err}
	}
	defer rows.Close()

	var animals []farm.Animal
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list animals", Err: err}
		}
		animals = append(animals, *a)
	}
	return animals, rows.Err()
}

func scanAnimal(row rowScanner) (*farm.Animal, error) {
	var (
		a         farm.Animal
		penID     sql.NullInt64
		breed     sql.NullString
		sex       sql.NullString
		dob       sql.NullString
		acqDate   sql.NullString
		acqCost   sql.NullString
		createdAt string
	)

	err := row.Scan(&a.ID, &a.FarmerID, &penID, &a.TagNumber, &breed, &sex,
		&dob, &acqDate, &acqCost, &a.Status, &createdAt)
	if err != nil {
		return nil, err
	}

	a.PenID = intPtr(penID)
	a.Breed = breed.String
	a.Sex = sex.String
	a.DOB = parseDateOrZero(dob)
	a.AcquisitionDate = parseDateOrZero(acqDate)
	a.AcquisitionCost = decimalPtr(acqCost)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// =============================================================================
// FEED LOGS
// =============================================================================

func (s *Store) InsertFeedLog(ctx context.Context, l *farm.FeedLog) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO feed_logs (pen_id, log_date, feed_type, quantity_kg, cost_per_kg, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.PenID, l.LogDate.String(), l.FeedType,
		l.QuantityKg.String(), l.CostPerKg.String(), now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert feed log", Err: err}
	}
	l.ID, _ = res.LastInsertId()
	l.CreatedAt = now
	return nil
}

func (s *Store) GetFeedLog(ctx context.Context, id int64) (*farm.FeedLog, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, pen_id, log_date, feed_type, quantity_kg, cost_per_kg, created_at
		 FROM feed_logs WHERE id = ?`, id)

	l, err := scanFeedLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get feed log", Err: err}
	}
	return l, nil
}

func (s *Store) UpdateFeedLog(ctx context.Context, l *farm.FeedLog) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE feed_logs SET pen_id = ?, log_date = ?, feed_type = ?, quantity_kg = ?, cost_per_kg = ?
		 WHERE id = ?`,
		l.PenID, l.LogDate.String(), l.FeedType, l.QuantityKg.String(), l.CostPerKg.String(), l.ID)
	return affectOne(res, err, "update feed log")
}

func (s *Store) DeleteFeedLog(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM feed_logs WHERE id = ?", id)
	return affectOne(res, err, "delete feed log")
}

func (s *Store) ListFeedLogsByPen(ctx context.Context, penID int64) ([]farm.FeedLog, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, pen_id, log_date, feed_type, quantity_kg, cost_per_kg, created_at
		 FROM feed_logs WHERE pen_id = ? ORDER BY id ASC`, penID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list feed logs", Err: err}
	}
	defer rows.Close()

	var logs []farm.FeedLog
	for rows.Next() {
		l, err := scanFeedLog(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list feed logs", Err: err}
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func scanFeedLog(row rowScanner) (*farm.FeedLog, error) {
	var (
		l         farm.FeedLog
		logDate   string
		qty       string
		cost      string
		createdAt string
	)
	if err := row.Scan(&l.ID, &l.PenID, &logDate, &l.FeedType, &qty, &cost, &createdAt); err != nil {
		return nil, err
	}

	var err error
	l.LogDate, err = ledger.ParseDate(logDate)
	if err != nil {
		return nil, err
	}
	l.QuantityKg, err = decimal.NewFromString(qty)
	if err != nil {
		return nil, err
	}
	l.CostPerKg, err = decimal.NewFromString(cost)
	if err != nil {
		return nil, err
	}
	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &l, nil
}

// =============================================================================
// INDIVIDUAL FEED LOGS
// =============================================================================

func (s *Store) InsertIndividualFeedLog(ctx context.Context, l *farm.IndividualFeedLog) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO individual_feed_logs (animal_id, log_date, feed_type, quantity_kg, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		l.AnimalID, l.LogDate.String(), l.FeedType, l.QuantityKg.String(),
		nullDecimal(l.Cost), now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert individual feed log", Err: err}
	}
	l.ID, _ = res.LastInsertId()
	l.CreatedAt = now
	return nil
}

func (s *Store) GetIndividualFeedLog(ctx context.Context, id int64) (*farm.IndividualFeedLog, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, animal_id, log_date, feed_type, quantity_kg, cost, created_at
		 FROM individual_feed_logs WHERE id = ?`, id)

	l, err := scanIndividualFeedLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get individual feed log", Err: err}
	}
	return l, nil
}

func (s *Store) UpdateIndividualFeedLog(ctx context.Context, l *farm.IndividualFeedLog) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE individual_feed_logs SET animal_id = ?, log_date = ?, feed_type = ?, quantity_kg = ?, cost = ?
		 WHERE id = ?`,
		l.AnimalID, l.LogDate.String(), l.FeedType, l.QuantityKg.String(), nullDecimal(l.Cost), l.ID)
	return affectOne(res, err, "update individual feed log")
}

func (s *Store) DeleteIndividualFeedLog(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM individual_feed_logs WHERE id = ?", id)
	return affectOne(res, err, "delete individual feed log")
}

func (s *Store) ListIndividualFeedLogsByAnimal(ctx context.Context, animalID int64) ([]farm.IndividualFeedLog, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, animal_id, log_date, feed_type, quantity_kg, cost, created_at
		 FROM individual_feed_logs WHERE animal_id = ? ORDER BY id ASC`, animalID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list individual feed logs", Err: err}
	}
	defer rows.Close()

	var logs []farm.IndividualFeedLog
	for rows.Next() {
		l, err := scanIndividualFeedLog(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list individual feed logs", Err: err}
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

func scanIndividualFeedLog(row rowScanner) (*farm.IndividualFeedLog, error) {
	var (
		l         farm.IndividualFeedLog
		logDate   string
		qty       string
		cost      sql.NullString
		createdAt string
	)
	if err := row.Scan(&l.ID, &l.AnimalID, &logDate, &l.FeedType, &qty, &cost, &createdAt); err != nil {
		return nil, err
	}

	var err error
	l.LogDate, err = ledger.ParseDate(logDate)
	if err != nil {
		return nil, err
	}
	l.QuantityKg, err = decimal.NewFromString(qty)
	if err != nil {
		return nil, err
	}
	l.Cost = decimalPtr(cost)
	l.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &l, nil
}

// =============================================================================
// HEALTH RECORDS
// =============================================================================

func (s *Store) InsertHealthRecord(ctx context.Context, r *farm.HealthRecord) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO health_records
		 (animal_id, event_date, event_type, diagnosis, treatment, cost, performed_by, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.AnimalID, r.EventDate.String(), r.EventType, r.Diagnosis, r.Treatment,
		nullDecimal(r.Cost), r.PerformedBy, r.Notes, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert health record", Err: err}
	}
	r.ID, _ = res.LastInsertId()
	r.CreatedAt = now
	return nil
}

func (s *Store) GetHealthRecord(ctx context.Context, id int64) (*farm.HealthRecord, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, animal_id, event_date, event_type, diagnosis, treatment, cost, performed_by, notes, created_at
		 FROM health_records WHERE id = ?`, id)

	r, err := scanHealthRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get health record", Err: err}
	}
	return r, nil
}

func (s *Store) UpdateHealthRecord(ctx context.Context, r *farm.HealthRecord) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE health_records
		 SET animal_id = ?, event_date = ?, event_type = ?, diagnosis = ?, treatment = ?,
		     cost = ?, performed_by = ?, notes = ?
		 WHERE id = ?`,
		r.AnimalID, r.EventDate.String(), r.EventType, r.Diagnosis, r.Treatment,
		nullDecimal(r.Cost), r.PerformedBy, r.Notes, r.ID)
	return affectOne(res, err, "update health record")
}

func (s *Store) DeleteHealthRecord(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM health_records WHERE id = ?", id)
	return affectOne(res, err, "delete health record")
}

func (s *Store) ListHealthRecordsByAnimal(ctx context.Context, animalID int64) ([]farm.HealthRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, animal_id, event_date, event_type, diagnosis, treatment, cost, performed_by, notes, created_at
		 FROM health_records WHERE animal_id = ? ORDER BY id ASC`, animalID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list health records", Err: err}
	}
	defer rows.Close()

	var records []farm.HealthRecord
	for rows.Next() {
		r, err := scanHealthRecord(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list health records", Err: err}
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanHealthRecord(row rowScanner) (*farm.HealthRecord, error) {
	var (
		r           farm.HealthRecord
		eventDate   string
		diagnosis   sql.NullString
		treatment   sql.NullString
		cost        sql.NullString
		performedBy sql.NullString
		notes       sql.NullString
		createdAt   string
	)
	err := row.Scan(&r.ID, &r.AnimalID, &eventDate, &r.EventType, &diagnosis,
		&treatment, &cost, &performedBy, &notes, &createdAt)
	if err != nil {
		return nil, err
	}

	r.EventDate, err = ledger.ParseDate(eventDate)
	if err != nil {
		return nil, err
	}
	r.Diagnosis = diagnosis.String
	r.Treatment = treatment.String
	r.Cost = decimalPtr(cost)
	r.PerformedBy = performedBy.String
	r.Notes = notes.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// =============================================================================
// LABOR ACTIVITIES
// =============================================================================

func (s *Store) InsertLaborActivity(ctx context.Context, a *farm.LaborActivity) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO labor_activities
		 (farmer_id, activity_date, activity_type, description, worker_name, hours, cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.FarmerID, a.ActivityDate.String(), a.ActivityType, a.Description,
		a.WorkerName, a.Hours.String(), nullDecimal(a.Cost), now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert labor activity", Err: err}
	}
	a.ID, _ = res.LastInsertId()
	a.CreatedAt = now
	return nil
}

func (s *Store) GetLaborActivity(ctx context.Context, id int64) (*farm.LaborActivity, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, farmer_id, activity_date, activity_type, description, worker_name, hours, cost, created_at
		 FROM labor_activities WHERE id = ?`, id)

	a, err := scanLaborActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get labor activity", Err: err}
	}
	return a, nil
}

func (s *Store) UpdateLaborActivity(ctx context.Context, a *farm.LaborActivity) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE labor_activities
		 SET farmer_id = ?, activity_date = ?, activity_type = ?, description = ?,
		     worker_name = ?, hours = ?, cost = ?
		 WHERE id = ?`,
		a.FarmerID, a.ActivityDate.String(), a.ActivityType, a.Description,
		a.WorkerName, a.Hours.String(), nullDecimal(a.Cost), a.ID)
	return affectOne(res, err, "update labor activity")
}

func (s *Store) DeleteLaborActivity(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM labor_activities WHERE id = ?", id)
	return affectOne(res, err, "delete labor activity")
}

func (s *Store) ListLaborActivitiesByFarmer(ctx context.Context, farmerID int64) ([]farm.LaborActivity, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, farmer_id, activity_date, activity_type, description, worker_name, hours, cost, created_at
		 FROM labor_activities WHERE farmer_id = ? ORDER BY id ASC`, farmerID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list labor activities", Err: err}
	}
	defer rows.Close()

	var activities []farm.LaborActivity
	for rows.Next() {
		a, err := scanLaborActivity(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list labor activities", Err: err}
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func scanLaborActivity(row rowScanner) (*farm.LaborActivity, error) {
	var (
		a          farm.LaborActivity
		actDate    string
		desc       sql.NullString
		workerName sql.NullString
		hours      sql.NullString
		cost       sql.NullString
		createdAt  string
	)
	err := row.Scan(&a.ID, &a.FarmerID, &actDate, &a.ActivityType, &desc,
		&workerName, &hours, &cost, &createdAt)
	if err != nil {
		return nil, err
	}

	a.ActivityDate, err = ledger.ParseDate(actDate)
	if err != nil {
		return nil, err
	}
	a.Description = desc.String
	a.WorkerName = workerName.String
	if hours.Valid && hours.String != "" {
		a.Hours, _ = decimal.NewFromString(hours.String)
	}
	a.Cost = decimalPtr(cost)
	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &a, nil
}

// =============================================================================
// BREEDING RECORDS
// =============================================================================

func (s *Store) InsertBreedingRecord(ctx context.Context, r *farm.BreedingRecord) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO breeding_records (female_id, male_id, breeding_date, method, cost, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.FemaleID, nullInt(r.MaleID), r.BreedingDate.String(), r.Method,
		nullDecimal(r.Cost), r.Notes, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert breeding record", Err: err}
	}
	r.ID, _ = res.LastInsertId()
	r.CreatedAt = now
	return nil
}

func (s *Store) GetBreedingRecord(ctx context.Context, id int64) (*farm.BreedingRecord, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, female_id, male_id, breeding_date, method, cost, notes, created_at
		 FROM breeding_records WHERE id = ?`, id)

	r, err := scanBreedingRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &ledger.StorageError{Op: "get breeding record", Err: err}
	}
	return r, nil
}

func (s *Store) UpdateBreedingRecord(ctx context.Context, r *farm.BreedingRecord) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE breeding_records
		 SET female_id = ?, male_id = ?, breeding_date = ?, method = ?, cost = ?, notes = ?
		 WHERE id = ?`,
		r.FemaleID, nullInt(r.MaleID), r.BreedingDate.String(), r.Method,
		nullDecimal(r.Cost), r.Notes, r.ID)
	return affectOne(res, err, "update breeding record")
}

func (s *Store) DeleteBreedingRecord(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM breeding_records WHERE id = ?", id)
	return affectOne(res, err, "delete breeding record")
}

func (s *Store) ListBreedingRecordsByAnimal(ctx context.Context, animalID int64) ([]farm.BreedingRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, female_id, male_id, breeding_date, method, cost, notes, created_at
		 FROM breeding_records WHERE female_id = ? OR male_id = ? ORDER BY id ASC`,
		animalID, animalID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list breeding records", Err: err}
	}
	defer rows.Close()

	var records []farm.BreedingRecord
	for rows.Next() {
		r, err := scanBreedingRecord(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list breeding records", Err: err}
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanBreedingRecord(row rowScanner) (*farm.BreedingRecord, error) {
	var (
		r         farm.BreedingRecord
		maleID    sql.NullInt64
		date      string
		method    sql.NullString
		cost      sql.NullString
		notes     sql.NullString
		createdAt string
	)
	err := row.Scan(&r.ID, &r.FemaleID, &maleID, &date, &method, &cost, &notes, &createdAt)
	if err != nil {
		return nil, err
	}

	r.MaleID = intPtr(maleID)
	r.BreedingDate, err = ledger.ParseDate(date)
	if err != nil {
		return nil, err
	}
	r.Method = method.String
	r.Cost = decimalPtr(cost)
	r.Notes = notes.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// =============================================================================
// PRODUCTION RECORDS
// =============================================================================

func (s *Store) InsertMilkProduction(ctx context.Context, p *farm.MilkProduction) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO milk_production (animal_id, production_date, quantity_liters, notes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.AnimalID, p.ProductionDate.String(), p.QuantityLiters.String(),
		p.Notes, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert milk production", Err: err}
	}
	p.ID, _ = res.LastInsertId()
	p.CreatedAt = now
	return nil
}

func (s *Store) ListMilkProductionByAnimal(ctx context.Context, animalID int64) ([]farm.MilkProduction, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, animal_id, production_date, quantity_liters, notes, created_at
		 FROM milk_production WHERE animal_id = ? ORDER BY id ASC`, animalID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list milk production", Err: err}
	}
	defer rows.Close()

	var records []farm.MilkProduction
	for rows.Next() {
		p, err := scanMilkProduction(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list milk production", Err: err}
		}
		records = append(records, *p)
	}
	return records, rows.Err()
}

func scanMilkProduction(row rowScanner) (*farm.MilkProduction, error) {
	var (
		p         farm.MilkProduction
		date      string
		qty       string
		notes     sql.NullString
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.AnimalID, &date, &qty, &notes, &createdAt); err != nil {
		return nil, err
	}

	var err error
	p.ProductionDate, err = ledger.ParseDate(date)
	if err != nil {
		return nil, err
	}
	p.QuantityLiters, err = decimal.NewFromString(qty)
	if err != nil {
		return nil, err
	}
	p.Notes = notes.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &p, nil
}

func (s *Store) InsertWeightRecord(ctx context.Context, r *farm.WeightRecord) error {
	now := time.Now().UTC()
	res, err := s.q.ExecContext(ctx,
		`INSERT INTO weight_records (animal_id, record_date, weight_kg, notes, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		r.AnimalID, r.RecordDate.String(), r.WeightKg.String(),
		r.Notes, now.Format(time.RFC3339))
	if err != nil {
		return &ledger.StorageError{Op: "insert weight record", Err: err}
	}
	r.ID, _ = res.LastInsertId()
	r.CreatedAt = now
	return nil
}

func (s *Store) ListWeightRecordsByAnimal(ctx context.Context, animalID int64) ([]farm.WeightRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, animal_id, record_date, weight_kg, notes, created_at
		 FROM weight_records WHERE animal_id = ? ORDER BY id ASC`, animalID)
	if err != nil {
		return nil, &ledger.StorageError{Op: "list weight records", Err: err}
	}
	defer rows.Close()

	var records []farm.WeightRecord
	for rows.Next() {
		r, err := scanWeightRecord(rows)
		if err != nil {
			return nil, &ledger.StorageError{Op: "list weight records", Err: err}
		}
		records = append(records, *r)
	}
	return records, rows.Err()
}

func scanWeightRecord(row rowScanner) (*farm.WeightRecord, error) {
	var (
		r         farm.WeightRecord
		date      string
		weight    string
		notes     sql.NullString
		createdAt string
	)
	if err := row.Scan(&r.ID, &r.AnimalID, &date, &weight, &notes, &createdAt); err != nil {
		return nil, err
	}

	var err error
	r.RecordDate, err = ledger.ParseDate(date)
	if err != nil {
		return nil, err
	}
	r.WeightKg, err = decimal.NewFromString(weight)
	if err != nil {
		return nil, err
	}
	r.Notes = notes.String
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func affectOne(res sql.Result, err error, op string) error {
	if err != nil {
		return &ledger.StorageError{Op: op, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &ledger.StorageError{Op: op, Err: err}
	}
	if n == 0 {
		return farm.ErrNotFound
	}
	return nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func intPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func decimalPtr(v sql.NullString) *decimal.Decimal {
	if !v.Valid || v.String == "" {
		return nil
	}
	d, err := decimal.NewFromString(v.String)
	if err != nil {
		return nil
	}
	return &d
}

func nullDate(d ledger.Date) sql.NullString {
	if d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseDateOrZero(v sql.NullString) ledger.Date {
	if !v.Valid || v.String == "" {
		return ledger.Date{}
	}
	d, err := ledger.ParseDate(v.String)
	if err != nil {
		return ledger.Date{}
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
