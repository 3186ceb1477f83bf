package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tournament-scoreboard/metrics"
	"github.com/Dosada05/tournament-scoreboard/models"
	"github.com/Dosada05/tournament-scoreboard/repositories"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type ImportFormat string

const (
	ImportCSV  ImportFormat = "csv"
	ImportXLSX ImportFormat = "xlsx"
)

const (
	importBatchSize    = 50
	defaultLocation    = "Unknown"
	defaultDesignation = "Employee"
	defaultAge         = 25
)

var requiredImportColumns = []string{"name", "employee_number", "phone"}

// FormatFromFilename picks the import format from a file extension.
func FormatFromFilename(name string) (ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ImportCSV, nil
	case ".xlsx":
		return ImportXLSX, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedImportFormat, name)
}

type ImportResult struct {
	Inserted int      `json:"inserted"`
	Failed   int      `json:"failed"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

type ImportService interface {
	Import(ctx context.Context, content []byte, format ImportFormat, autoApprove bool) (*ImportResult, error)
}

type importService struct {
	playerRepo repositories.PlayerRepository
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewImportService(playerRepo repositories.PlayerRepository, m *metrics.Metrics, logger *slog.Logger) ImportService {
	return &importService{playerRepo: playerRepo, metrics: m, logger: logger}
}

// Import inserts players in batches of 50. A failed batch is counted and reported but
// does not stop the following batches.
func (s *importService) Import(ctx context.Context, content []byte, format ImportFormat, autoApprove bool) (*ImportResult, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case ImportCSV:
		records, err = readCSVRecords(content)
	case ImportXLSX:
		records, err = readXLSXRecords(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedImportFormat, format)
	}
	if err != nil {
		return nil, err
	}

	status := models.PlayerStatusPending
	if autoApprove {
		status = models.PlayerStatusApproved
	}
	players, skipped, err := playersFromRecords(records, status, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Skipped: skipped}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no valid player rows found", ErrValidation)
	}

	for start := 0; start < len(players); start += importBatchSize {
		end := min(start+importBatchSize, len(players))
		batch := players[start:end]
		if err := s.playerRepo.CreateBatch(ctx, batch); err != nil {
			if errors.Is(err, repositories.ErrStoreUnavailable) {
				return result, storeError("import players", err)
			}
			result.Failed += len(batch)
			result.Errors = append(result.Errors, fmt.Sprintf("batch %d: %v", start/importBatchSize+1, err))
			s.logger.WarnContext(ctx, "import batch failed",
				slog.Int("batch", start/importBatchSize+1), slog.Any("error", err))
			continue
		}
		result.Inserted += len(batch)
	}

	s.metrics.AddImported("inserted", result.Inserted)
	s.metrics.AddImported("failed", result.Failed)
	s.metrics.AddImported("skipped", result.Skipped)
	s.logger.InfoContext(ctx, "player import finished",
		slog.Int("inserted", result.Inserted),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped))
	return result, nil
}

func readCSVRecords(content []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV: %v", ErrValidation, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func readXLSXRecords(content []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open XLSX file: %v", ErrValidation, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: XLSX file has no sheets", ErrValidation)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read sheet %q: %v", ErrValidation, sheets[0], err)
	}
	// GetRows обрезает пустые ячейки в конце строки, в XLSX короткая строка не ошибка.
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows, nil
}

// normalizeHeader: "Employee Number" -> "employee_number".
func normalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), "_")
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// playersFromRecords converts the header row plus data rows into players. Rows with
// fewer cells than the header or without a required value are counted as skipped.
func playersFromRecords(records [][]string, status models.PlayerStatus, now time.Time) ([]*models.Player, int, error) {
	for len(records) > 0 && isBlankRecord(records[0]) {
		records = records[1:]
	}
	if len(records) < 2 {
		return nil, 0, fmt.Errorf("%w: file must have a header row and at least one data row", ErrValidation)
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[normalizeHeader(h)] = i
	}
	var missing []string
	for _, col := range requiredImportColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrImportMissingColumns, strings.Join(missing, ", "))
	}

	var (
		players []*models.Player
		skipped int
	)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		if len(record) < len(records[0]) {
			skipped++
			continue
		}
		get := func(col string) string {
			i, ok := index[col]
			if !ok {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		name, number, phone := get("name"), get("employee_number"), get("phone")
		if name == "" || number == "" || phone == "" {
			skipped++
			continue
		}

		gender := mapGender(get("gender"))
		p := &models.Player{
			ID:             uuid.New(),
			Name:           name,
			EmployeeNumber: number,
			Location:       orDefault(get("location"), defaultLocation),
			Designation:    orDefault(get("designation"), defaultDesignation),
			Age:            parseAge(get("age")),
			Gender:         gender,
			Categories:     mapCategories(get("category")),
			Team:           optional(get("team")),
			Phone:          phone,
			Email:          optional(get("email")),
			Status:         status,
			RegisteredAt:   now,
			UpdatedAt:      now,
		}
		players = append(players, p)
	}
	return players, skipped, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseAge(v string) int {
	age, err := strconv.Atoi(v)
	if err != nil || age < minPlayerAge || age > maxPlayerAge {
		return defaultAge
	}
	return age
}

// mapGender: пустое значение - Male, нераспознанное - Other.
func mapGender(v string) models.Gender {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "male", "m":
		return models.GenderMale
	case "female", "f":
		return models.GenderFemale
	}
	return models.GenderOther
}

// mapCategories accepts several categories separated by ';' or '|'.
func mapCategories(v string) []models.Category {
	parts := strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' })
	if len(parts) == 0 {
		return []models.Category{models.CategoryMensSingles}
	}
	var result []models.Category
	seen := map[models.Category]bool{}
	for _, part := range parts {
		c := mapCategory(part)
		if !seen[c] {
			seen[c] = true
			result = append(result, c)
		}
	}
	return result
}

// mapCategory recognises loose spellings ("womens double", "Veteran mixed", "F").
// Anything unrecognised becomes Mens Singles.
func mapCategory(v string) models.Category {
	n := strings.ToLower(strings.TrimSpace(v))
	for _, c := range models.AllCategories {
		if n == strings.ToLower(string(c)) {
			return c
		}
	}
	switch n {
	case "male", "m":
		return models.CategoryMensSingles
	case "female", "f":
		return models.CategoryWomensSingles
	}

	veteran := strings.Contains(n, "veteran")
	var base models.Category
	switch {
	case strings.Contains(n, "mixed"):
		base = models.CategoryMixedDoubles
	case strings.Contains(n, "women") && strings.Contains(n, "double"):
		base = models.CategoryWomensDoubles
	case strings.Contains(n, "women") && strings.Contains(n, "single"):
		base = models.CategoryWomensSingles
	case strings.Contains(n, "men") && strings.Contains(n, "double"):
		base = models.CategoryMensDoubles
	case strings.Contains(n, "men") && strings.Contains(n, "single"):
		base = models.CategoryMensSingles
	default:
		return models.CategoryMensSingles
	}
	if veteran {
		return models.Category("Veteran " + string(base))
	}
	return base
}
