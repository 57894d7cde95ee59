package frame

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestFromColumns(t *testing.T) {
	f, err := FromColumns(map[string][]float64{
		"Volume": {1, 2, 3},
		"price":  {4, 5, 6},
	}, []string{"Volume", "price"})
	require.NoError(t, err)

	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"volume", "price"}, f.Names())
	assert.True(t, f.Has("VOLUME"))

	col, err := f.Column("Volume")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, col)

	_, err = FromColumns(map[string][]float64{"a": {1}}, []string{"a", "b"})
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestColumnErrors(t *testing.T) {
	f := New(2)
	require.NoError(t, f.AddColumn("spend", []float64{1, 2}))
	require.NoError(t, f.AddTextColumn("region", []string{"north", "south"}))

	_, err := f.Column("region")
	assert.ErrorIs(t, err, ErrNonNumeric)

	_, err = f.Column("missing")
	assert.ErrorIs(t, err, ErrMissingColumn)

	assert.ErrorIs(t, f.AddColumn("short", []float64{1}), ErrLengthMismatch)
	assert.ErrorIs(t, New(0).Require("spend"), ErrEmptyFrame)
	assert.ErrorIs(t, f.Require("spend", "region"), ErrNonNumeric)
	assert.NoError(t, f.Require("spend"))
}

func TestTailAndRows(t *testing.T) {
	f := New(5)
	require.NoError(t, f.AddColumn("x", []float64{0, 1, 2, 3, 4}))
	dates := make([]time.Time, 5)
	for i := range dates {
		dates[i] = time.Date(2024, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
	}
	require.NoError(t, f.SetDates("date", dates))

	tail := f.Tail(2)
	col, err := tail.Column("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4}, col)
	assert.Equal(t, dates[3:], tail.Dates())

	assert.Equal(t, 5, f.Tail(12).Len())

	picked := f.Rows([]int{4, 0})
	col, err = picked.Column("x")
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 0}, col)
	assert.Equal(t, "date", picked.DateColumn())
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "frame.csv")
	content := "Date,Volume,TV_Spend,Region\n" +
		"2024-01-01,100,\"1,000\",north\n" +
		"2024-02-01,110,1200,north\n" +
		"2024-03-01,120,900,south\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	f, err := Load(path, "date")
	require.NoError(t, err)
	assert.Equal(t, 3, f.Len())
	assert.Equal(t, []string{"volume", "tv_spend", "region"}, f.Names())

	spend, err := f.Column("tv_spend")
	require.NoError(t, err)
	assert.Equal(t, []float64{1000, 1200, 900}, spend)

	_, err = f.Column("region")
	assert.ErrorIs(t, err, ErrNonNumeric)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), f.Dates()[2])

	_, err = LoadCSV(path, "period")
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,volume\n"), 0644))

	_, err := LoadCSV(path, "date")
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.xlsx")

	wb := excelize.NewFile()
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &[]interface{}{"Date", "Volume", "Price"}))
	for i := 0; i < 4; i++ {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{fmt.Sprintf("2024-0%d-01", i+1), 100 + i, 9.5}
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	f, err := Load(path, "Date")
	require.NoError(t, err)
	assert.Equal(t, 4, f.Len())

	volume, err := f.Column("volume")
	require.NoError(t, err)
	assert.Equal(t, []float64{100, 101, 102, 103}, volume)
	assert.Len(t, f.Dates(), 4)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{"2024-01-31", "2024/01/31", "01/31/2024", "2024-01"} {
		_, err := parseDate(s)
		assert.NoError(t, err, s)
	}
	_, err := parseDate("last tuesday")
	assert.Error(t, err)
}
