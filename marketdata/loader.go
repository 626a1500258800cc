package marketdata

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inigomace/fixed-income-risk-toolkit/utils"
)

// Missing-value policies for LoadConfig.
const (
	MissingFFill = "ffill"
	MissingDrop  = "drop"
	MissingError = "error"
)

// LoadConfig controls yield history loading and validation.
//
// Yields are standardized to decimal form: any cell with absolute value
// above 1.0 is treated as a percent quote and divided by 100; a value of
// exactly 1.0 is kept as decimal (100%).
type LoadConfig struct {
	// RequiredTenors are the columns that must be present. Defaults to
	// CanonicalTenors.
	RequiredTenors []string
	// MissingPolicy is one of MissingFFill (default), MissingDrop or
	// MissingError.
	MissingPolicy string
	// MissingWarnFraction logs a warning for any column whose pre-fill
	// missing fraction exceeds this value. Defaults to 0.05.
	MissingWarnFraction float64
	// Logger receives validation warnings. Defaults to the standard
	// logrus logger.
	Logger *logrus.Logger
}

func (c *LoadConfig) withDefaults() LoadConfig {
	out := LoadConfig{}
	if c != nil {
		out = *c
	}
	if out.RequiredTenors == nil {
		out.RequiredTenors = CanonicalTenors
	}
	if out.MissingPolicy == "" {
		out.MissingPolicy = MissingFFill
	}
	if out.MissingWarnFraction == 0 {
		out.MissingWarnFraction = 0.05
	}
	if out.Logger == nil {
		out.Logger = logrus.StandardLogger()
	}
	return out
}

// LoadCSV reads and validates a yield history CSV. The file must carry a
// "date" (or "Date") column plus the required tenor columns; extra columns
// and Excel artifact columns ("Unnamed: ...") are dropped. Duplicate dates
// keep the last occurrence. Rows are sorted ascending by date.
func LoadCSV(path string, cfg *LoadConfig) (*History, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadCSV: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("LoadCSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("LoadCSV: %s has no data rows", path)
	}

	return ValidateTable(records[0], records[1:], cfg)
}

// ValidateTable cleans a raw header+rows table into a History. It is the
// CSV loader's core and is exposed so other sources can reuse the same
// validation.
func ValidateTable(header []string, rows [][]string, cfg *LoadConfig) (*History, error) {
	conf := cfg.withDefaults()
	log := conf.Logger

	dateCol := -1
	tenorCols := make(map[string]int)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if strings.HasPrefix(name, "Unnamed") {
			continue
		}
		if strings.EqualFold(name, "date") {
			dateCol = i
			continue
		}
		norm, err := utils.NormalizeTenor(name)
		if err != nil {
			// Non-tenor extra column; ignore.
			continue
		}
		tenorCols[norm] = i
	}
	if dateCol < 0 {
		return nil, fmt.Errorf("ValidateTable: expected a \"date\" or \"Date\" column")
	}

	required := make([]string, 0, len(conf.RequiredTenors))
	for _, tenor := range conf.RequiredTenors {
		norm, err := utils.NormalizeTenor(tenor)
		if err != nil {
			return nil, fmt.Errorf("ValidateTable: %w", err)
		}
		required = append(required, norm)
	}
	var missing []string
	for _, tenor := range required {
		if _, ok := tenorCols[tenor]; !ok {
			missing = append(missing, tenor)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("ValidateTable: missing required tenor columns: %v", missing)
	}

	// Canonical column order: ascending maturity.
	ordered, err := utils.SortTenors(required)
	if err != nil {
		return nil, fmt.Errorf("ValidateTable: %w", err)
	}

	parsed := make([]tableRow, 0, len(rows))
	missingCount := make([]int, len(ordered))

	for _, rec := range rows {
		if dateCol >= len(rec) {
			continue
		}
		date, err := utils.ParseDateAny(rec[dateCol])
		if err != nil {
			return nil, fmt.Errorf("ValidateTable: %w", err)
		}

		values := make([]float64, len(ordered))
		for j, tenor := range ordered {
			col := tenorCols[tenor]
			v := math.NaN()
			if col < len(rec) {
				if s := strings.TrimSpace(rec[col]); s != "" {
					if parsedV, perr := strconv.ParseFloat(s, 64); perr == nil {
						v = parsedV
					}
				}
			}
			if math.IsNaN(v) {
				missingCount[j]++
			} else if math.Abs(v) > 1.0 {
				// Percent quote; standardize to decimal.
				v /= 100.0
			}
			values[j] = v
		}
		parsed = append(parsed, tableRow{date: date, values: values})
	}

	if len(parsed) == 0 {
		return nil, fmt.Errorf("ValidateTable: no usable rows")
	}

	for j, tenor := range ordered {
		frac := float64(missingCount[j]) / float64(len(parsed))
		if frac > conf.MissingWarnFraction {
			log.WithFields(logrus.Fields{
				"tenor":            tenor,
				"missing_fraction": frac,
			}).Warn("high missing fraction in yield column (pre-fill)")
		}
	}

	// Sort ascending and deduplicate dates, keeping the last occurrence.
	// A stable sort preserves file order among equal dates, so "keep last"
	// is well defined.
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].date.Before(parsed[j].date)
	})
	deduped := parsed[:0]
	dupes := 0
	for i, r := range parsed {
		if i+1 < len(parsed) && parsed[i+1].date.Equal(r.date) {
			dupes++
			continue
		}
		deduped = append(deduped, r)
	}
	if dupes > 0 {
		log.WithField("duplicates", dupes).Warn("duplicate dates detected, keeping last occurrence per date")
	}

	// Apply missing-value policy.
	switch conf.MissingPolicy {
	case MissingFFill:
		for j := range ordered {
			last := math.NaN()
			for i := range deduped {
				if math.IsNaN(deduped[i].values[j]) {
					deduped[i].values[j] = last
				} else {
					last = deduped[i].values[j]
				}
			}
		}
		// Leading NaNs have nothing to fill from; drop those rows.
		deduped = dropRowsWithNaN(deduped)
	case MissingDrop:
		deduped = dropRowsWithNaN(deduped)
	case MissingError:
		for _, r := range deduped {
			for _, v := range r.values {
				if math.IsNaN(v) {
					return nil, fmt.Errorf("ValidateTable: missing values detected and policy is %q", MissingError)
				}
			}
		}
	default:
		return nil, fmt.Errorf("ValidateTable: unknown missing policy %q", conf.MissingPolicy)
	}

	if len(deduped) == 0 {
		return nil, fmt.Errorf("ValidateTable: no rows remain after applying missing policy")
	}

	dates := make([]time.Time, len(deduped))
	values := make([][]float64, len(deduped))
	for i, r := range deduped {
		dates[i] = r.date
		values[i] = r.values
	}
	return NewHistory(dates, ordered, values)
}

type tableRow struct {
	date   time.Time
	values []float64
}

func dropRowsWithNaN(rows []tableRow) []tableRow {
	out := rows[:0]
	for _, r := range rows {
		keep := true
		for _, v := range r.values {
			if math.IsNaN(v) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	return out
}
