package export

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/xuri/excelize/v2"
)

const (
	SheetName      = "今日点歌列表"
	timeLayout     = "2006-01-02 15:04:05"
	maxColumnWidth = 50
)

var headers = []string{"ID", "歌曲名称", "班级", "姓名", "点歌时间"}

// FileName is the download name of the export for day.
func FileName(day string) string {
	return fmt.Sprintf("点歌列表_%s.xlsx", day)
}

// WriteXLSX writes the list as a single sheet workbook.
func WriteXLSX(w io.Writer, list []domain.SongRequest) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		if err := setCell(f, i+1, 1, h); err != nil {
			return err
		}
		widths[i] = utf8.RuneCountInString(h)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for r, item := range list {
		row := []interface{}{item.ID, item.SongName, item.ClassName, item.StudentName, formatTime(item)}
		for c, v := range row {
			if err := setCell(f, c+1, r+2, v); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(cellText(v)); n > widths[c] {
				widths[c] = n
			}
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(SheetName, col, col, float64(min(width+2, maxColumnWidth))); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("set %s: %w", cell, err)
	}
	return nil
}

func formatTime(item domain.SongRequest) string {
	if item.RequestDate.IsZero() {
		return ""
	}
	return item.RequestDate.Format(timeLayout)
}

func cellText(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	default:
		return fmt.Sprint(x)
	}
}
