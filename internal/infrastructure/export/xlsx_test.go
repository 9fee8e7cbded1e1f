package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"staffdesk/internal/metadata"
)

type row struct {
	Name    string          `json:"name"`
	Joined  string          `json:"joined"`
	Remote  bool            `json:"remote"`
	Salary  decimal.Decimal `json:"salary"`
	Version int             `json:"version"`
	Manager *string         `json:"manager"`
}

func testDef() metadata.EntityDef {
	return metadata.EntityDef{
		Name: "employee",
		Fields: []metadata.FieldDef{
			{Name: "name", Label: "Name", Type: metadata.TypeString},
			{Name: "joined", Label: "Joining date", Type: metadata.TypeDate},
			{Name: "remote", Type: metadata.TypeBoolean},
			{Name: "salary", Label: "Salary", Type: metadata.TypeMoney},
			{Name: "version", Type: metadata.TypeInteger},
			{Name: "manager", Label: "Manager", Type: metadata.TypeReference},
		},
	}
}

func TestColumns_SkipsVersion(t *testing.T) {
	var names []string
	for _, c := range Columns(testDef()) {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"name", "joined", "remote", "salary", "manager"}, names)
}

func TestWriteXLSX(t *testing.T) {
	records := []row{
		{Name: "Jane Doe", Joined: "2024-03-01T00:00:00Z", Remote: true, Salary: decimal.RequireFromString("4200.50"), Version: 3},
		{Name: "John Roe", Joined: "0001-01-01T00:00:00Z"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testDef(), records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Name", "Joining date", "remote", "Salary", "Manager"}, rows[0])
	assert.Equal(t, "Jane Doe", rows[1][0])
	assert.Equal(t, "TRUE", rows[1][2])

	salary, err := f.GetCellValue(sheetName, "D2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "4200.5", salary)

	joined, err := f.GetCellValue(sheetName, "B3")
	require.NoError(t, err)
	assert.Empty(t, joined, "zero dates stay blank")
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, time.May, 2, 13, 4, 5, 0, time.UTC)
	assert.Equal(t, "visitor-20240502-130405.xlsx", FileName(metadata.EntityDef{Name: "visitor"}, at))
}
