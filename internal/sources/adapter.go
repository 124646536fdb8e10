package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	apperrors "salespipe/internal/errors"
	"salespipe/pkg/contracts/domain"
)

// Adapter reads one source export and emits canonical records.
type Adapter struct {
	spec   SourceSpec
	logger *slog.Logger
}

// NewAdapter builds an adapter for the given source spec.
func NewAdapter(spec SourceSpec, logger *slog.Logger) (*Adapter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{spec: spec, logger: logger}, nil
}

// Spec returns the mapping this adapter was built from.
func (a *Adapter) Spec() SourceSpec {
	return a.spec
}

// loadTally counts per-file parse outcomes for the load summary log.
type loadTally struct {
	rows           int
	malformed      int
	nullDates      int
	coercedDates   int
	parsedDates    int
	missingRevenue int
	numericDefects int
}

// Load reads the source file at path and maps every row onto the
// canonical shape. Missing columns and a date layout that matches no
// row at all are schema errors and abort the load. Individual bad
// values never do: unparseable dates become null dates, absent revenue
// stays null, and both are left for the cleaning stage to handle.
func (a *Adapter) Load(ctx context.Context, path string) ([]domain.SalesRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open source file", err).
			WithContext("source", a.spec.Name).
			WithContext("path", path)
	}
	defer file.Close()

	// The decoder strips a UTF-8 BOM when the exporting system wrote one.
	reader := csv.NewReader(transform.NewReader(file, unicode.UTF8BOM.NewDecoder()))

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewSchemaError("failed to read source header", err).
			WithContext("source", a.spec.Name).
			WithContext("path", path)
	}

	index, err := a.resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var caser *cases.Caser
	if a.spec.TitleCaseRegion {
		c := cases.Title(language.English)
		caser = &c
	}

	var (
		records     []domain.SalesRecord
		tally       loadTally
		lastDateErr error
	)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			tally.malformed++
			continue
		}

		record, dateErr := a.mapRow(row, index, caser, &tally)
		if dateErr != nil {
			lastDateErr = dateErr
		}
		records = append(records, record)
		tally.rows++
	}

	// A layout that parses no row at all is a mapping defect, not a run
	// of bad values.
	if tally.coercedDates > 0 && tally.parsedDates == 0 {
		return nil, apperrors.NewSchemaError("date layout matches no row in source", lastDateErr).
			WithContext("source", a.spec.Name).
			WithContext("layout", a.spec.DateLayout).
			WithContext("failed_rows", tally.coercedDates)
	}

	a.logger.InfoContext(ctx, "loaded source rows",
		"source", a.spec.Name,
		"rows", tally.rows,
		"null_dates", tally.nullDates,
		"coerced_dates", tally.coercedDates,
		"missing_revenue", tally.missingRevenue,
	)
	if tally.malformed > 0 || tally.numericDefects > 0 {
		a.logger.WarnContext(ctx, "skipped defective source values",
			"source", a.spec.Name,
			"malformed_rows", tally.malformed,
			"numeric_defects", tally.numericDefects,
		)
	}

	return records, nil
}

// resolveColumns maps each canonical field to its index in the header.
// Every mapped column must be present; the schemas are fixed and known
// in advance, so absence means the wrong file or a broken export.
func (a *Adapter) resolveColumns(header []string) (map[Field]int, error) {
	position := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := position[name]; !seen {
			position[name] = i
		}
	}

	index := make(map[Field]int, len(a.spec.Columns))
	var missing []string
	for _, field := range CanonicalFields() {
		column := a.spec.Columns[field]
		pos, ok := position[column]
		if !ok {
			missing = append(missing, column)
			continue
		}
		index[field] = pos
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.NewSchemaError(
			fmt.Sprintf("source %q is missing required columns", a.spec.Name), nil).
			WithContext("source", a.spec.Name).
			WithContext("columns", missing)
	}
	return index, nil
}

// mapRow converts one raw row into a canonical record, tallying the
// defects it absorbs along the way.
func (a *Adapter) mapRow(row []string, index map[Field]int, caser *cases.Caser, tally *loadTally) (domain.SalesRecord, error) {
	get := func(f Field) string {
		return strings.TrimSpace(row[index[f]])
	}

	record := domain.SalesRecord{
		TransactionID: a.prefixID(get(FieldTransactionID)),
		ProductName:   get(FieldProductName),
		Category:      get(FieldCategory),
		Region:        get(FieldRegion),
		Channel:       get(FieldChannel),
		PaymentMethod: get(FieldPaymentMethod),
		CustomerID:    get(FieldCustomerID),
		Source:        a.spec.Name,
	}
	if caser != nil {
		record.Region = caser.String(record.Region)
	}

	var dateErr error
	if raw := get(FieldDate); raw == "" {
		tally.nullDates++
	} else if parsed, err := time.Parse(a.spec.DateLayout, raw); err != nil {
		tally.coercedDates++
		dateErr = err
	} else {
		tally.parsedDates++
		record.Date = parsed
	}

	if raw := get(FieldQuantity); raw != "" {
		if qty, err := strconv.Atoi(raw); err != nil {
			tally.numericDefects++
		} else {
			record.Quantity = qty
		}
	}
	if raw := get(FieldUnitPrice); raw != "" {
		if price, err := strconv.ParseFloat(raw, 64); err != nil {
			tally.numericDefects++
		} else {
			record.UnitPrice = price
		}
	}
	if raw := get(FieldRevenue); raw == "" {
		tally.missingRevenue++
	} else if revenue, err := strconv.ParseFloat(raw, 64); err != nil {
		tally.missingRevenue++
		tally.numericDefects++
	} else {
		record.Revenue = &revenue
	}
	if raw := get(FieldDiscountPct); raw != "" {
		if discount, err := strconv.ParseFloat(raw, 64); err != nil {
			tally.numericDefects++
		} else {
			record.DiscountPct = discount
		}
	}
	if raw := get(FieldIsReturned); raw != "" {
		if returned, err := strconv.ParseBool(raw); err != nil {
			tally.numericDefects++
		} else {
			record.IsReturned = returned
		}
	}

	return record, dateErr
}

// prefixID namespaces a raw transaction ID with the source prefix
// unless the export already carries it.
func (a *Adapter) prefixID(id string) string {
	if strings.HasPrefix(id, a.spec.IDPrefix) {
		return id
	}
	return a.spec.IDPrefix + id
}
