// Package sqlite provides SQLite database writing for decharging results
package sqlite

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/decharger/pkg/decharge"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	// schemaVersion is bumped whenever a table changes.
	schemaVersion = 1
)

// Writer handles writing decharging results to SQLite database files
type Writer struct {
	db            *sql.DB
	outputPath    string
	groupStmt     *sql.Stmt
	memberStmt    *sql.Stmt
	singletonStmt *sql.Stmt
	edgeStmt      *sql.Stmt
	diagStmt      *sql.Stmt
	description   string
	parameters    string
	groups        int
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS GroupTable (
		GroupId INTEGER PRIMARY KEY,
		Uuid TEXT NOT NULL,
		NeutralMass DOUBLE,
		Confidence TEXT,
		Charges TEXT,
		MemberCount INTEGER
	);

	CREATE TABLE IF NOT EXISTS MemberTable (
		GroupId INTEGER REFERENCES GroupTable(GroupId),
		FeatureId TEXT NOT NULL,
		Charge INTEGER,
		Composition TEXT,
		NeutralMass DOUBLE
	);

	CREATE TABLE IF NOT EXISTS SingletonTable (
		FeatureId TEXT NOT NULL,
		Charge INTEGER,
		NeutralMass DOUBLE
	);

	CREATE TABLE IF NOT EXISTS EdgeTable (
		EdgeId INTEGER PRIMARY KEY,
		FeatureA TEXT,
		FeatureB TEXT,
		ChargeA INTEGER,
		ChargeB INTEGER,
		Composition TEXT,
		Score DOUBLE,
		MassError DOUBLE,
		Active BOOL,
		Rejection TEXT,
		Inferred BOOL,
		Selected BOOL
	);

	CREATE TABLE IF NOT EXISTS DiagnosticTable (
		Severity TEXT,
		Code TEXT,
		Message TEXT,
		FeatureIds TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		Description TEXT,
		Parameters TEXT,
		NoofGroups INTEGER
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	stmts := []struct {
		dst   **sql.Stmt
		name  string
		query string
	}{
		{&w.groupStmt, "group", `INSERT INTO GroupTable (GroupId, Uuid, NeutralMass, Confidence, Charges, MemberCount) VALUES (?, ?, ?, ?, ?, ?)`},
		{&w.memberStmt, "member", `INSERT INTO MemberTable (GroupId, FeatureId, Charge, Composition, NeutralMass) VALUES (?, ?, ?, ?, ?)`},
		{&w.singletonStmt, "singleton", `INSERT INTO SingletonTable (FeatureId, Charge, NeutralMass) VALUES (?, ?, ?)`},
		{&w.edgeStmt, "edge", `
			INSERT INTO EdgeTable (
				FeatureA, FeatureB, ChargeA, ChargeB, Composition, Score,
				MassError, Active, Rejection, Inferred, Selected
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`},
		{&w.diagStmt, "diagnostic", `INSERT INTO DiagnosticTable (Severity, Code, Message, FeatureIds) VALUES (?, ?, ?, ?)`},
	}

	for _, s := range stmts {
		stmt, err := w.db.Prepare(s.query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s statement: %w", s.name, err)
		}
		*s.dst = stmt
	}

	return nil
}

// SetDescription sets the free text and the serialized run parameters
// stored in HeaderTable.
func (w *Writer) SetDescription(description, parameters string) {
	w.description = description
	w.parameters = parameters
}

// WriteResult writes groups, singletons, edges and diagnostics in one
// transaction. It may be called several times; group ids keep counting.
func (w *Writer) WriteResult(res *decharge.Result) error {
	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := w.writeResult(tx, res); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit result: %w", err)
	}
	return nil
}

func (w *Writer) writeResult(tx *sql.Tx, res *decharge.Result) error {
	groupStmt := tx.Stmt(w.groupStmt)
	memberStmt := tx.Stmt(w.memberStmt)
	for _, g := range res.Groups {
		w.groups++
		_, err := groupStmt.Exec(
			w.groups,             // GroupId
			g.ID,                 // Uuid
			g.NeutralMass,        // NeutralMass
			string(g.Confidence), // Confidence
			joinInts(g.Charges),  // Charges
			len(g.Members),       // MemberCount
		)
		if err != nil {
			return fmt.Errorf("failed to insert group %s: %w", g.ID, err)
		}

		for _, m := range g.Members {
			_, err := memberStmt.Exec(w.groups, m.FeatureID, m.Charge, m.Composition, m.NeutralMass)
			if err != nil {
				return fmt.Errorf("failed to insert member %s: %w", m.FeatureID, err)
			}
		}
	}

	singletonStmt := tx.Stmt(w.singletonStmt)
	for _, s := range res.Singletons {
		// unknown charge has no neutral mass
		var mass interface{}
		if s.Charge != 0 {
			mass = s.NeutralMass
		}
		if _, err := singletonStmt.Exec(s.FeatureID, s.Charge, mass); err != nil {
			return fmt.Errorf("failed to insert singleton %s: %w", s.FeatureID, err)
		}
	}

	edgeStmt := tx.Stmt(w.edgeStmt)
	for _, e := range res.Edges {
		_, err := edgeStmt.Exec(
			e.FeatureA, e.FeatureB, e.ChargeA, e.ChargeB, e.Composition, e.Score,
			e.MassError, e.Active, e.Rejection, e.Inferred, e.Selected,
		)
		if err != nil {
			return fmt.Errorf("failed to insert edge %s-%s: %w", e.FeatureA, e.FeatureB, err)
		}
	}

	diagStmt := tx.Stmt(w.diagStmt)
	for _, d := range res.Diagnostics {
		_, err := diagStmt.Exec(string(d.Severity), d.Code, d.Message, strings.Join(d.FeatureIDs, ","))
		if err != nil {
			return fmt.Errorf("failed to insert diagnostic: %w", err)
		}
	}

	return nil
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, Description, Parameters, NoofGroups)
		VALUES (?, ?, ?, ?, ?)
	`, schemaVersion, time.Now().Format(headerDateFormat), w.description, w.parameters, w.groups)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	for _, stmt := range []*sql.Stmt{w.groupStmt, w.memberStmt, w.singletonStmt, w.edgeStmt, w.diagStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
