package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/campus-radio/songdesk/internal/requests/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 30, 5, 0, time.UTC)
	list := []domain.SongRequest{
		{ID: 1, SongName: "晴天", ClassName: "初一1班", StudentName: "李雷", RequestDate: at},
		{ID: 2, SongName: "很长的歌" + strings.Repeat("特别", 30), ClassName: "高三10班", StudentName: "韩梅梅"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, list))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, headers, rows[0])
	assert.Equal(t, []string{"1", "晴天", "初一1班", "李雷", "2025-03-01 09:30:05"}, rows[1])
	assert.Equal(t, "韩梅梅", rows[2][3])

	width, err := f.GetColWidth(SheetName, "B")
	require.NoError(t, err)
	assert.Equal(t, float64(maxColumnWidth), width)

	width, err = f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.Equal(t, float64(4), width)
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "点歌列表_2025-03-01.xlsx", FileName("2025-03-01"))
}
