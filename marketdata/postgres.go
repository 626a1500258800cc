package marketdata

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
	"github.com/sirupsen/logrus"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// PostgresSource loads yield histories from a Postgres table with one row
// per observation date and one numeric column per tenor, e.g.
//
//	CREATE TABLE sovereign_yields (
//	    obs_date date PRIMARY KEY,
//	    y_3m  double precision, y_6m double precision, ...
//	);
//
// Column names are derived from tenor labels as "y_" + lowercased tenor.
type PostgresSource struct {
	db    *sql.DB
	table string
	log   *logrus.Logger
}

// OpenPostgres connects to Postgres and pings the server.
func OpenPostgres(connStr, table string) (*PostgresSource, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("OpenPostgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenPostgres: ping: %w", err)
	}
	return &PostgresSource{db: db, table: table, log: logrus.StandardLogger()}, nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	return s.db.Close()
}

// LoadHistory reads the full table ordered by date and returns a validated
// History for the given tenors (CanonicalTenors when nil). Values are
// expected in decimal form; percent-form cells are standardized with the
// same |v| > 1 rule as the CSV loader.
func (s *PostgresSource) LoadHistory(tenors []string) (*History, error) {
	if tenors == nil {
		tenors = CanonicalTenors
	}
	ordered, err := utils.SortTenors(tenors)
	if err != nil {
		return nil, fmt.Errorf("LoadHistory: %w", err)
	}

	cols := "obs_date"
	for _, tenor := range ordered {
		cols += ", " + columnForTenor(tenor)
	}
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY obs_date", cols, s.table) //nolint:gosec // table name is operator-supplied config, not user input

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("LoadHistory: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	var values [][]float64
	for rows.Next() {
		var date time.Time
		cells := make([]float64, len(ordered))
		dest := make([]any, 0, len(ordered)+1)
		dest = append(dest, &date)
		for i := range cells {
			dest = append(dest, &cells[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("LoadHistory: scan: %w", err)
		}
		for i, v := range cells {
			if v > 1.0 || v < -1.0 {
				cells[i] = v / 100.0
			}
		}
		dates = append(dates, date.UTC().Truncate(24*time.Hour))
		values = append(values, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadHistory: %w", err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("LoadHistory: table %s is empty", s.table)
	}

	s.log.WithFields(logrus.Fields{
		"table": s.table,
		"rows":  len(dates),
		"from":  dates[0].Format("2006-01-02"),
		"to":    dates[len(dates)-1].Format("2006-01-02"),
	}).Debug("loaded yield history from postgres")

	return NewHistory(dates, ordered, values)
}

// columnForTenor maps a tenor label to its table column: "3M" -> "y_3m".
func columnForTenor(tenor string) string {
	out := make([]byte, 0, len(tenor)+2)
	out = append(out, 'y', '_')
	for i := 0; i < len(tenor); i++ {
		c := tenor[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
