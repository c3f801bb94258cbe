// Package sqlite provides a SQLite implementation of the case store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/famtree/internal/domain"
	"github.com/ersonp/famtree/internal/domain/entities"
	"github.com/ersonp/famtree/internal/domain/ports"
	"github.com/ersonp/famtree/internal/infrastructure/config"
)

// Not-found details, matching the remote store's wording.
const (
	detailCaseNotFound         = "Case not found"
	detailPersonNotFound       = "Person not found"
	detailRelationshipNotFound = "Relationship not found"
	detailCalculationLocal     = "inheritance calculation is only available from the case API"
)

// timeNow returns the current time (can be mocked in tests).
var timeNow = func() time.Time { return time.Now().UTC() }

var (
	_ ports.Gateway     = (*Repository)(nil)
	_ ports.CaseHistory = (*Repository)(nil)
)

// Repository implements ports.Gateway using SQLite. Calculation is not
// available locally; the Calculator methods return domain.ErrUnsupported.
type Repository struct {
	db     *sql.DB
	path   string
	userID int64
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// PRAGMAs are per connection, and an in-memory database exists only on its own connection.
	db.SetMaxOpenConns(1)

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if cfg.Path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	userID := cfg.UserID
	if userID == 0 {
		userID = 1
	}

	return &Repository{
		db:     db,
		path:   cfg.Path,
		userID: userID,
	}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *Repository) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS cases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		user_id INTEGER NOT NULL,
		neo4j_graph_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cases_user ON cases(user_id, updated_at);

	-- Persons belong to one case
	CREATE TABLE IF NOT EXISTS persons (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		is_alive INTEGER NOT NULL DEFAULT 1,
		death_date TIMESTAMP,
		birth_date TIMESTAMP,
		gender TEXT,
		is_decedent INTEGER NOT NULL DEFAULT 0,
		is_spouse INTEGER NOT NULL DEFAULT 0,
		neo4j_node_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_persons_case ON persons(case_id);

	-- Relationships go away with either endpoint
	CREATE TABLE IF NOT EXISTS relationships (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		from_person_id INTEGER NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		to_person_id INTEGER NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
		relationship_type TEXT NOT NULL,
		is_biological INTEGER,
		is_adopted INTEGER,
		blood_type TEXT,
		neo4j_relationship_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_relationships_case ON relationships(case_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_person_id);
	CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_person_id);

	-- Audit log (tracks every change to a case)
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		case_id INTEGER NOT NULL REFERENCES cases(id) ON DELETE CASCADE,
		action TEXT NOT NULL,
		subject_id INTEGER,
		details TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_case ON audit_log(case_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction and commits if it returns nil.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const caseColumns = `id, title, description, status, user_id, neo4j_graph_id, created_at, updated_at`

func scanCase(row rowScanner) (*entities.Case, error) {
	var c entities.Case
	var description, graphID sql.NullString
	if err := row.Scan(
		&c.ID,
		&c.Title,
		&description,
		&c.Status,
		&c.UserID,
		&graphID,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	c.Description = nullString(description)
	c.Neo4jGraphID = nullString(graphID)
	return &c, nil
}

// ListCases returns the user's cases, most recently updated first.
func (r *Repository) ListCases(ctx context.Context) ([]entities.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE user_id = ? ORDER BY updated_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, r.userID)
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning case: %w", err)
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

// findCase loads a case owned by the repository's user.
func (r *Repository) findCase(ctx context.Context, q queryer, op string, caseID int64) (*entities.Case, error) {
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = ? AND user_id = ?`
	c, err := scanCase(q.QueryRowContext(ctx, query, caseID, r.userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, detailCaseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning case: %w", err)
	}
	return c, nil
}

// GetCase returns a case with its persons and relationships in insertion order.
func (r *Repository) GetCase(ctx context.Context, caseID int64) (*entities.CaseDetail, error) {
	c, err := r.findCase(ctx, r.db, "get case", caseID)
	if err != nil {
		return nil, err
	}

	persons, err := r.queryPersons(ctx, r.db, `WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}
	rels, err := r.queryRelationships(ctx, r.db, `WHERE case_id = ? ORDER BY id`, caseID)
	if err != nil {
		return nil, err
	}

	return &entities.CaseDetail{
		Case:          *c,
		Persons:       persons,
		Relationships: rels,
	}, nil
}

// CreateCase creates a case owned by the repository's user.
func (r *Repository) CreateCase(ctx context.Context, data entities.CreateCaseData) (*entities.Case, error) {
	if err := data.Validate(); err != nil {
		return nil, domain.Invalid("create case", err.Error(), err)
	}

	now := timeNow()
	c := &entities.Case{
		Title:       data.Title,
		Description: data.Description,
		Status:      data.Status,
		UserID:      r.userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Status == "" {
		c.Status = entities.CaseStatusDraft
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO cases (title, description, status, user_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, c.Title, c.Description, c.Status, c.UserID, c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting case: %w", err)
		}
		if c.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading case id: %w", err)
		}
		return logAction(ctx, tx, c.ID, entities.AuditCaseCreated, c.ID, map[string]any{"title": c.Title})
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCase applies a partial update to a case.
func (r *Repository) UpdateCase(ctx context.Context, caseID int64, data entities.UpdateCaseData) (*entities.Case, error) {
	if err := data.Validate(); err != nil {
		return nil, domain.Invalid("update case", err.Error(), err)
	}

	var updated *entities.Case
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		c, err := r.findCase(ctx, tx, "update case", caseID)
		if err != nil {
			return err
		}

		changes := map[string]any{}
		if data.Title != nil {
			c.Title = *data.Title
			changes["title"] = c.Title
		}
		if data.Description != nil {
			c.Description = data.Description
			changes["description"] = *c.Description
		}
		if data.Status != nil {
			c.Status = *data.Status
			changes["status"] = string(c.Status)
		}
		c.UpdatedAt = timeNow()

		if _, err := tx.ExecContext(ctx, `
			UPDATE cases SET title = ?, description = ?, status = ?, updated_at = ? WHERE id = ?
		`, c.Title, c.Description, c.Status, c.UpdatedAt, c.ID); err != nil {
			return fmt.Errorf("updating case: %w", err)
		}
		updated = c
		return logAction(ctx, tx, c.ID, entities.AuditCaseUpdated, c.ID, changes)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCase deletes a case with everything it owns.
func (r *Repository) DeleteCase(ctx context.Context, caseID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cases WHERE id = ? AND user_id = ?`, caseID, r.userID)
	if err != nil {
		return fmt.Errorf("deleting case: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFound("delete case", detailCaseNotFound)
	}
	return nil
}

// touchCase bumps the case's updated_at after a change to its graph.
func touchCase(ctx context.Context, tx *sql.Tx, caseID int64, at time.Time) error {
	if _, err := tx.ExecContext(ctx, `UPDATE cases SET updated_at = ? WHERE id = ?`, at, caseID); err != nil {
		return fmt.Errorf("touching case: %w", err)
	}
	return nil
}

const personColumns = `id, case_id, name, is_alive, death_date, birth_date, gender, is_decedent, is_spouse, neo4j_node_id, created_at, updated_at`

func scanPerson(row rowScanner) (*entities.Person, error) {
	var p entities.Person
	var death, birth sql.NullTime
	var gender, nodeID sql.NullString
	if err := row.Scan(
		&p.ID,
		&p.CaseID,
		&p.Name,
		&p.IsAlive,
		&death,
		&birth,
		&gender,
		&p.IsDecedent,
		&p.IsSpouse,
		&nodeID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.DeathDate = nullTime(death)
	p.BirthDate = nullTime(birth)
	p.Gender = nullString(gender)
	p.Neo4jNodeID = nullString(nodeID)
	return &p, nil
}

// queryPersons selects persons with the given WHERE/ORDER clause.
func (r *Repository) queryPersons(ctx context.Context, q queryer, clause string, args ...any) ([]entities.Person, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+personColumns+` FROM persons `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying persons: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Person, 0)
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning person: %w", err)
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *Repository) findPerson(ctx context.Context, q queryer, op string, caseID, personID int64) (*entities.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = ? AND case_id = ?`
	p, err := scanPerson(q.QueryRowContext(ctx, query, personID, caseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NotFound(op, detailPersonNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning person: %w", err)
	}
	return p, nil
}

// CreatePerson adds a person to a case. Unset flags default to alive, not decedent, not spouse.
func (r *Repository) CreatePerson(ctx context.Context, caseID int64, data entities.CreatePersonData) (*entities.Person, error) {
	if err := data.Validate(); err != nil {
		return nil, domain.Invalid("create person", err.Error(), err)
	}

	now := timeNow()
	p := &entities.Person{
		CaseID:     caseID,
		Name:       data.Name,
		IsAlive:    data.IsAlive == nil || *data.IsAlive,
		DeathDate:  data.DeathDate,
		BirthDate:  data.BirthDate,
		Gender:     data.Gender,
		IsDecedent: data.WantsDecedent(),
		IsSpouse:   data.IsSpouse != nil && *data.IsSpouse,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.findCase(ctx, tx, "create person", caseID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO persons (case_id, name, is_alive, death_date, birth_date, gender, is_decedent, is_spouse, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, p.CaseID, p.Name, p.IsAlive, p.DeathDate, p.BirthDate, p.Gender, p.IsDecedent, p.IsSpouse, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting person: %w", err)
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading person id: %w", err)
		}
		if err := touchCase(ctx, tx, caseID, now); err != nil {
			return err
		}
		return logAction(ctx, tx, caseID, entities.AuditPersonCreated, p.ID, map[string]any{"name": p.Name})
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePerson applies a partial update to a person.
func (r *Repository) UpdatePerson(ctx context.Context, caseID, personID int64, data entities.UpdatePersonData) (*entities.Person, error) {
	if err := data.Validate(); err != nil {
		return nil, domain.Invalid("update person", err.Error(), err)
	}

	var updated entities.Person
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.findCase(ctx, tx, "update person", caseID); err != nil {
			return err
		}
		current, err := r.findPerson(ctx, tx, "update person", caseID, personID)
		if err != nil {
			return err
		}

		updated = data.Apply(*current)
		updated.UpdatedAt = timeNow()

		if _, err := tx.ExecContext(ctx, `
			UPDATE persons SET name = ?, is_alive = ?, death_date = ?, birth_date = ?, gender = ?,
				is_decedent = ?, is_spouse = ?, updated_at = ?
			WHERE id = ?
		`, updated.Name, updated.IsAlive, updated.DeathDate, updated.BirthDate, updated.Gender,
			updated.IsDecedent, updated.IsSpouse, updated.UpdatedAt, updated.ID); err != nil {
			return fmt.Errorf("updating person: %w", err)
		}
		if err := touchCase(ctx, tx, caseID, updated.UpdatedAt); err != nil {
			return err
		}
		return logAction(ctx, tx, caseID, entities.AuditPersonUpdated, personID, map[string]any{"name": updated.Name})
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeletePerson deletes a person. Its relationships are removed by the schema's cascade.
func (r *Repository) DeletePerson(ctx context.Context, caseID, personID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.findCase(ctx, tx, "delete person", caseID); err != nil {
			return err
		}
		p, err := r.findPerson(ctx, tx, "delete person", caseID, personID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, personID); err != nil {
			return fmt.Errorf("deleting person: %w", err)
		}
		if err := touchCase(ctx, tx, caseID, timeNow()); err != nil {
			return err
		}
		return logAction(ctx, tx, caseID, entities.AuditPersonDeleted, personID, map[string]any{"name": p.Name})
	})
}

const relationshipColumns = `id, case_id, from_person_id, to_person_id, relationship_type, is_biological, is_adopted, blood_type, neo4j_relationship_id, created_at, updated_at`

func scanRelationship(row rowScanner) (*entities.Relationship, error) {
	var rel entities.Relationship
	var biological, adopted sql.NullBool
	var bloodType, relID sql.NullString
	if err := row.Scan(
		&rel.ID,
		&rel.CaseID,
		&rel.FromPersonID,
		&rel.ToPersonID,
		&rel.Type,
		&biological,
		&adopted,
		&bloodType,
		&relID,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rel.IsBiological = nullBool(biological)
	rel.IsAdopted = nullBool(adopted)
	rel.BloodType = nullString(bloodType)
	rel.Neo4jRelationshipID = nullString(relID)
	return &rel, nil
}

// queryRelationships selects relationships with the given WHERE/ORDER clause.
func (r *Repository) queryRelationships(ctx context.Context, q queryer, clause string, args ...any) ([]entities.Relationship, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+relationshipColumns+` FROM relationships `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relationships: %w", err)
	}
	defer rows.Close()

	result := make([]entities.Relationship, 0)
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning relationship: %w", err)
		}
		result = append(result, *rel)
	}
	return result, rows.Err()
}

// CreateRelationship adds a relationship. Both persons must belong to the case.
func (r *Repository) CreateRelationship(ctx context.Context, caseID int64, data entities.CreateRelationshipData) (*entities.Relationship, error) {
	if err := data.Validate(); err != nil {
		return nil, domain.Invalid("create relationship", err.Error(), err)
	}

	now := timeNow()
	rel := &entities.Relationship{
		CaseID:       caseID,
		FromPersonID: data.FromPersonID,
		ToPersonID:   data.ToPersonID,
		Type:         data.Type,
		IsBiological: data.IsBiological,
		IsAdopted:    data.IsAdopted,
		BloodType:    data.BloodType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.findCase(ctx, tx, "create relationship", caseID); err != nil {
			return err
		}
		if _, err := r.findPerson(ctx, tx, "create relationship", caseID, data.FromPersonID); err != nil {
			return err
		}
		if _, err := r.findPerson(ctx, tx, "create relationship", caseID, data.ToPersonID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO relationships (case_id, from_person_id, to_person_id, relationship_type,
				is_biological, is_adopted, blood_type, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, rel.CaseID, rel.FromPersonID, rel.ToPersonID, rel.Type,
			rel.IsBiological, rel.IsAdopted, rel.BloodType, rel.CreatedAt, rel.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting relationship: %w", err)
		}
		if rel.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("reading relationship id: %w", err)
		}
		if err := touchCase(ctx, tx, caseID, now); err != nil {
			return err
		}
		return logAction(ctx, tx, caseID, entities.AuditRelationshipCreated, rel.ID, map[string]any{
			"from": rel.FromPersonID,
			"to":   rel.ToPersonID,
			"type": string(rel.Type),
		})
	})
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// DeleteRelationship deletes a relationship.
func (r *Repository) DeleteRelationship(ctx context.Context, caseID, relationshipID int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := r.findCase(ctx, tx, "delete relationship", caseID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM relationships WHERE id = ? AND case_id = ?`, relationshipID, caseID)
		if err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if n == 0 {
			return domain.NotFound("delete relationship", detailRelationshipNotFound)
		}
		if err := touchCase(ctx, tx, caseID, timeNow()); err != nil {
			return err
		}
		return logAction(ctx, tx, caseID, entities.AuditRelationshipDeleted, relationshipID, nil)
	})
}

// CalculateInheritance is not available from the local store.
func (r *Repository) CalculateInheritance(_ context.Context, _ int64) (*entities.CalculationResult, error) {
	return nil, unsupported("calculate")
}

// TextTree is not available from the local store.
func (r *Repository) TextTree(_ context.Context, _ int64) (string, error) {
	return "", unsupported("text tree")
}

func unsupported(op string) error {
	return &domain.GatewayError{Op: op, Kind: domain.KindServer, Detail: detailCalculationLocal, Err: domain.ErrUnsupported}
}

// logAction records a change in the audit log.
func logAction(ctx context.Context, tx *sql.Tx, caseID int64, action string, subjectID int64, details map[string]any) error {
	var detailsJSON sql.NullString
	if len(details) > 0 {
		data, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("marshaling details: %w", err)
		}
		detailsJSON = sql.NullString{String: string(data), Valid: true}
	}

	var subject sql.NullInt64
	if subjectID != 0 {
		subject = sql.NullInt64{Int64: subjectID, Valid: true}
	}

	query := `INSERT INTO audit_log (case_id, action, subject_id, details, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, caseID, action, subject, detailsJSON, timeNow()); err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	return nil
}

// History returns a case's audit log, newest first. A limit of 0 returns everything.
func (r *Repository) History(ctx context.Context, caseID int64, limit int) ([]entities.AuditEntry, error) {
	if _, err := r.findCase(ctx, r.db, "history", caseID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = -1
	}
	query := `
		SELECT id, case_id, action, subject_id, details, created_at
		FROM audit_log
		WHERE case_id = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, caseID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var entries []entities.AuditEntry
	for rows.Next() {
		var entry entities.AuditEntry
		var subject sql.NullInt64
		var details sql.NullString

		if err := rows.Scan(
			&entry.ID,
			&entry.CaseID,
			&entry.Action,
			&subject,
			&details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		entry.SubjectID = subject.Int64

		if details.Valid && details.String != "" {
			if err := json.Unmarshal([]byte(details.String), &entry.Details); err != nil {
				return nil, fmt.Errorf("unmarshaling details: %w", err)
			}
		}

		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func nullBool(nb sql.NullBool) *bool {
	if !nb.Valid {
		return nil
	}
	b := nb.Bool
	return &b
}
