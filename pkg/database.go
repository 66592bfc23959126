package risetime

import (
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

const createResultsQuery = `CREATE TABLE IF NOT EXISTS RiseTimeResults (
	RunID CHAR(36) NOT NULL,
	Board VARCHAR(32) NOT NULL,
	Channel INT NOT NULL,
	WaveformType VARCHAR(16) NOT NULL,
	TraceIndex INT NOT NULL,
	Role VARCHAR(16) NOT NULL,
	Pedestal DOUBLE,
	Peak DOUBLE,
	PeakIndex INT,
	ThresholdIndex INT,
	TLow DOUBLE,
	THigh DOUBLE,
	RiseTime DOUBLE,
	PRIMARY KEY (RunID, Board, Channel, WaveformType, TraceIndex, Role)
)`

const insertResultsQuery = `INSERT INTO RiseTimeResults
	(RunID, Board, Channel, WaveformType, TraceIndex, Role, Pedestal, Peak, PeakIndex, ThresholdIndex, TLow, THigh, RiseTime)
	VALUES (:RunID, :Board, :Channel, :WaveformType, :TraceIndex, :Role, :Pedestal, :Peak, :PeakIndex, :ThresholdIndex, :TLow, :THigh, :RiseTime)`

const selectResultsQuery = `SELECT RunID, Board, Channel, WaveformType, TraceIndex, Role, Pedestal, Peak,
	PeakIndex, ThresholdIndex, TLow, THigh, RiseTime FROM RiseTimeResults WHERE RunID = ?
	ORDER BY Board, Channel, WaveformType, TraceIndex, Role`

func CreateResultsTable(db *sqlx.DB) error {
	if _, err := db.Exec(createResultsQuery); err != nil {
		return fmt.Errorf("error creating results table: %w", err)
	}
	return nil
}

// WriteResults inserts all rows in a single transaction.
func WriteResults(db *sqlx.DB, rows []ResultRow) error {
	if len(rows) == 0 {
		return nil
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Writing %d results of run %s to database", len(rows), rows[0].RunID)
		logger.Info(message, "database")
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	if _, err := tx.NamedExec(insertResultsQuery, rows); err != nil {
		return rollback(tx, fmt.Errorf("error inserting results: %w", err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing results: %w", err)
	}
	return nil
}

func ReadResults(db *sqlx.DB, runID string) ([]ResultRow, error) {
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s", selectResultsQuery)
		logger.Info(message, "database")
	}
	rows := []ResultRow{}
	if err := db.Select(&rows, selectResultsQuery, runID); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return rows, nil
}

type rollbacker interface {
	Rollback() error
}

// rollback aborts tx after err, keeping both errors if the rollback fails.
func rollback(tx rollbacker, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		return errors.Join(err, fmt.Errorf("error rolling back: %w", rbErr))
	}
	return err
}

// VerifyResults reads a run back and checks that every written row of board
// is stored.
func VerifyResults(db *sqlx.DB, board string, written []ResultRow) error {
	if len(written) == 0 {
		return nil
	}
	stored, err := ReadResults(db, written[0].RunID)
	if err != nil {
		return err
	}
	missing := MissingRows(written, stored)
	if len(missing) > 0 {
		first := missing[0]
		return fmt.Errorf("board %s: %d of %d results not stored, first is channel %d %s trace %d %s",
			board, len(missing), len(written), first.Channel, first.WaveformType, first.TraceIndex, first.Role)
	}
	return nil
}

type resultKey struct {
	RunID        string
	Board        string
	Channel      int
	WaveformType string
	TraceIndex   int
	Role         string
}

func keyOf(row ResultRow) resultKey {
	return resultKey{row.RunID, row.Board, row.Channel, row.WaveformType, row.TraceIndex, row.Role}
}

// MissingRows returns the rows of expected whose key is absent from got.
func MissingRows(expected []ResultRow, got []ResultRow) []ResultRow {
	present := make(map[resultKey]bool, len(got))
	for _, row := range got {
		present[keyOf(row)] = true
	}
	missing := make([]ResultRow, 0)
	for _, row := range expected {
		if !present[keyOf(row)] {
			missing = append(missing, row)
		}
	}
	return missing
}
