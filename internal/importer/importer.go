package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"aptitude-practice-service/internal/domain"
	"github.com/xuri/excelize/v2"
)

// QuestionWriter upserts a question by slug.
type QuestionWriter interface {
	SaveQuestion(ctx context.Context, q domain.Question) (domain.Question, error)
}

// ImportConfig defines where questions are read from.
type ImportConfig struct {
	FilePath  string // .xlsx or .csv
	SheetName string // xlsx only; the first sheet when empty
}

// ImportResult holds the result of an import run.
type ImportResult struct {
	TotalProcessed int
	Saved          int
	Skipped        int
	Errors         []string
}

var (
	errNoHeader     = errors.New("header row missing")
	slugUnsafeChars = regexp.MustCompile(`[^a-z0-9]+`)
)

// Import reads every question row in cfg.FilePath and saves it through w.
// Rows that fail to parse or validate are skipped and reported by row number.
func Import(ctx context.Context, cfg ImportConfig, w QuestionWriter) (*ImportResult, error) {
	rows, err := readRows(cfg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoHeader
	}
	cols, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if blank(row) {
			continue
		}
		result.TotalProcessed++

		q, err := cols.question(row)
		if err == nil {
			_, err = w.SaveQuestion(ctx, q)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			continue
		}
		result.Saved++
	}
	return result, nil
}

func readRows(cfg ImportConfig) ([][]string, error) {
	if strings.EqualFold(filepath.Ext(cfg.FilePath), ".csv") {
		return readCSV(cfg.FilePath)
	}
	return readExcel(cfg)
}

func readExcel(cfg ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := cfg.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// columns maps header names to row indexes.
type columns struct {
	title, slug, category, difficulty, acceptance, text, correct int
	options                                                      []int
}

func parseHeader(header []string) (columns, error) {
	cols := columns{title: -1, slug: -1, category: -1, difficulty: -1, acceptance: -1, text: -1, correct: -1}
	type numbered struct{ n, idx int }
	var opts []numbered
	for idx, raw := range header {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "title":
			cols.title = idx
		case "slug":
			cols.slug = idx
		case "category":
			cols.category = idx
		case "difficulty":
			cols.difficulty = idx
		case "acceptance":
			cols.acceptance = idx
		case "question", "question text":
			cols.text = idx
		case "correct":
			cols.correct = idx
		default:
			if rest, ok := strings.CutPrefix(name, "option"); ok {
				if n, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && n > 0 {
					opts = append(opts, numbered{n: n, idx: idx})
				}
			}
		}
	}
	for name, idx := range map[string]int{
		"Title": cols.title, "Category": cols.category, "Difficulty": cols.difficulty,
		"Question": cols.text, "Correct": cols.correct,
	} {
		if idx < 0 {
			return cols, fmt.Errorf("%w: column %s not found", errNoHeader, name)
		}
	}
	if len(opts) < 2 {
		return cols, fmt.Errorf("%w: at least two Option columns required", errNoHeader)
	}
	// Option columns are numbered; keep them in number order regardless of layout.
	for n := 1; len(cols.options) < len(opts); n++ {
		found := false
		for _, o := range opts {
			if o.n == n {
				cols.options = append(cols.options, o.idx)
				found = true
			}
		}
		if !found {
			return cols, fmt.Errorf("%w: Option %d missing", errNoHeader, n)
		}
	}
	return cols, nil
}

func (c columns) question(row []string) (domain.Question, error) {
	cell := func(idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	category, ok := domain.ParseCategory(cell(c.category))
	if !ok {
		return domain.Question{}, domain.ErrInvalidQuestion(fmt.Sprintf("unknown category %q", cell(c.category)))
	}
	difficulty, ok := parseDifficulty(cell(c.difficulty))
	if !ok {
		return domain.Question{}, domain.ErrInvalidQuestion(fmt.Sprintf("unknown difficulty %q", cell(c.difficulty)))
	}

	var options []domain.Option
	for _, idx := range c.options {
		if text := cell(idx); text != "" {
			options = append(options, domain.Option{ID: fmt.Sprintf("o%d", len(options)+1), Text: text})
		}
	}
	correct, err := strconv.Atoi(cell(c.correct))
	if err != nil || correct < 1 || correct > len(options) {
		return domain.Question{}, domain.ErrInvalidQuestion(fmt.Sprintf("correct option %q out of range", cell(c.correct)))
	}
	options[correct-1].Correct = true

	q := domain.Question{
		Title:      cell(c.title),
		Slug:       cell(c.slug),
		Category:   category,
		Difficulty: difficulty,
		Acceptance: cell(c.acceptance),
		Text:       cell(c.text),
		Options:    options,
	}
	if q.Slug == "" {
		q.Slug = Slugify(q.Title)
	}
	return q, q.Validate()
}

func parseDifficulty(raw string) (domain.Difficulty, bool) {
	for _, d := range []domain.Difficulty{domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard} {
		if strings.EqualFold(string(d), raw) {
			return d, true
		}
	}
	return "", false
}

// Slugify lower-cases title and joins its alphanumeric runs with hyphens.
func Slugify(title string) string {
	return strings.Trim(slugUnsafeChars.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
