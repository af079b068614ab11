package importer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aptitude-practice-service/internal/domain"
	"aptitude-practice-service/internal/infra/memory"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Title,Slug,Category,Difficulty,Acceptance,Question,Correct,Option 1,Option 2,Option 3
Problems on Trains,,quantitative,hard,41%,A train crosses a pole in 9s...,2,100m,150m,200m
Blood Relations,blood-relations,Logical,Easy,,Pointing to a photograph...,1,Brother,Uncle,
Broken Row,,Astrology,Easy,,Pick one,1,a,b,c
,,,,,,,,,
No Answer,,Verbal,Medium,,Synonym of big,7,large,small,tiny
`

func TestImportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	store := memory.NewStore()

	result, err := Import(context.Background(), ImportConfig{FilePath: path}, store)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.TotalProcessed != 4 || result.Saved != 2 || result.Skipped != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Errors) != 2 || !strings.HasPrefix(result.Errors[0], "Row 4:") || !strings.HasPrefix(result.Errors[1], "Row 6:") {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}

	trains, err := store.LoadQuestionBySlug(context.Background(), "problems-on-trains")
	if err != nil {
		t.Fatalf("load trains: %v", err)
	}
	if trains.Difficulty != domain.DifficultyHard || trains.Category != domain.CategoryQuantitative {
		t.Fatalf("unexpected trains question: %+v", trains)
	}
	correct, err := trains.CorrectOption()
	if err != nil || correct.ID != "o2" || correct.Text != "150m" {
		t.Fatalf("expected o2 correct, got %+v (%v)", correct, err)
	}

	relations, err := store.LoadQuestionBySlug(context.Background(), "blood-relations")
	if err != nil {
		t.Fatalf("load relations: %v", err)
	}
	if len(relations.Options) != 2 || relations.Acceptance != "N/A" {
		t.Fatalf("expected trailing empty option dropped and default acceptance, got %+v", relations)
	}
}

func TestImportIsIdempotentBySlug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	store := memory.NewStore()
	for i := 0; i < 2; i++ {
		if _, err := Import(context.Background(), ImportConfig{FilePath: path}, store); err != nil {
			t.Fatalf("import %d: %v", i, err)
		}
	}
	all, err := store.ListQuestions(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 questions after re-import, got %d", len(all))
	}
}

func TestImportExcel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Question", "Title", "Category", "Difficulty", "Option 2", "Option 1", "Correct"},
		{"Which is a primary key?", "Keys", "Database", "Medium", "email", "id", "1"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	path := filepath.Join(t.TempDir(), "questions.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	store := memory.NewStore()
	result, err := Import(context.Background(), ImportConfig{FilePath: path}, store)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Saved != 1 {
		t.Fatalf("expected one saved row, got %+v", result)
	}
	q, err := store.LoadQuestionBySlug(context.Background(), "keys")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	correct, _ := q.CorrectOption()
	if correct.Text != "id" {
		t.Fatalf("expected option 1 (id) correct regardless of column order, got %q", correct.Text)
	}
}

func TestImportRejectsMissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("Title,Category\nx,Logical\n"), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	if _, err := Import(context.Background(), ImportConfig{FilePath: path}, memory.NewStore()); err == nil {
		t.Fatalf("expected header error")
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Problems on Trains":      "problems-on-trains",
		"  Time & Work (Part 2) ": "time-work-part-2",
		"Ages--of people":         "ages-of-people",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
