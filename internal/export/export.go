// Package export writes the saved user state to an Excel workbook.
package export

import (
	"fmt"
	"io"
	"slices"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"github.com/phrazzld/vocab-trainer/internal/store"
	"github.com/xuri/excelize/v2"
)

// Sheet names
const (
	SheetHistory  = "History"
	SheetProgress = "Progress"
	SheetWords    = "Words"
)

const (
	dateLayout     = "2006-01-02 15:04"
	dayLayout      = "2006-01-02"
	defaultColumns = 20
)

var (
	historyHeader  = []any{"Date", "Game", "Score", "Total", "Percent"}
	progressHeader = []any{"Date", "Words", "Learned", "Due", "Accuracy", "Rank"}
	wordsHeader    = []any{"Word", "Difficulty", "Definition", "Repetition", "Interval (days)", "Ease factor", "Next review", "Bookmarked"}
)

// Workbook builds a workbook with the practice history, the daily progress
// records and the vocabulary of snap. The caller must close the file.
func Workbook(snap store.Snapshot, days []store.DailyProgress) (*excelize.File, error) {
	f := excelize.NewFile()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetProgress, SheetWords} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	sheets := []struct {
		name   string
		header []any
		rows   [][]any
	}{
		{SheetHistory, historyHeader, historyRows(snap.State.PracticeHistory)},
		{SheetProgress, progressHeader, progressRows(days)},
		{SheetWords, wordsHeader, wordRows(snap.State)},
	}
	for _, s := range sheets {
		if err := writeSheet(f, s.name, header, s.header, s.rows); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, snap store.Snapshot, days []store.DailyProgress) error {
	f, err := Workbook(snap, days)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, style int, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", lastCol, defaultColumns)
}

// historyRows lists sessions newest first.
func historyRows(history []domain.PracticeSession) [][]any {
	sorted := slices.Clone(history)
	slices.SortStableFunc(sorted, func(a, b domain.PracticeSession) int {
		return b.Date.Compare(a.Date)
	})

	rows := make([][]any, 0, len(sorted))
	for _, s := range sorted {
		percent := 0
		if s.Total > 0 {
			percent = 100 * s.Score / s.Total
		}
		rows = append(rows, []any{s.Date.UTC().Format(dateLayout), string(s.Type), s.Score, s.Total, percent})
	}
	return rows
}

func progressRows(days []store.DailyProgress) [][]any {
	rows := make([][]any, 0, len(days))
	for _, d := range days {
		rows = append(rows, []any{d.Date, d.WordsTotal, d.WordsLearned, d.Due, d.Accuracy, d.Rank.Name})
	}
	return rows
}

func wordRows(state domain.UserState) [][]any {
	bookmarked := make(map[string]struct{}, len(state.BookmarkedWords))
	for _, id := range state.BookmarkedWords {
		bookmarked[id] = struct{}{}
	}

	rows := make([][]any, 0, len(state.Words))
	for _, w := range state.Words {
		_, marked := bookmarked[w.Word]
		row := []any{w.Word, string(w.Difficulty), w.Definition, "", "", "", "", yesNo(marked)}
		if w.Srs != nil {
			row[3] = w.Srs.Repetition
			row[4] = w.Srs.Interval
			row[5] = w.Srs.EaseFactor
			row[6] = w.Srs.NextReview.UTC().Format(dayLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// SavedAt formats the snapshot time for file names.
func SavedAt(snap store.Snapshot) string {
	return snap.SavedAt.UTC().Format("20060102-150405")
}

// FileName is the default export file name for snap.
func FileName(snap store.Snapshot) string {
	return fmt.Sprintf("vocab-history-%s.xlsx", SavedAt(snap))
}
