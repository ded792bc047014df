package reconcile

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/folioapp/folio/internal/common"
	"github.com/folioapp/folio/internal/models"
	"github.com/shopspring/decimal"
)

// Column headers accepted in snapshot files. Matching is case-insensitive
// and ignores surrounding whitespace.
var columnAliases = map[string]string{
	"isin":        "isin",
	"code":        "isin",
	"quantity":    "quantity",
	"units":       "quantity",
	"operation":   "operation",
	"action":      "operation",
	"price":       "price",
	"unit price":  "price",
	"date":        "date",
	"asset type":  "assettype",
	"asset_type":  "assettype",
	"type":        "assettype",
	"description": "description",
	"name":        "description",
}

// ParseRows reads a snapshot CSV into rows ready for reconciliation. Cell
// values pass through decimal parsing so spreadsheet exports with currency
// symbols or grouping commas survive intact. A malformed cell makes the row
// unusable in that field (nil pointer) rather than failing the whole file.
func ParseRows(r io.Reader) ([]models.SnapshotRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnAliases[key]; ok {
			if _, seen := columns[canonical]; !seen {
				columns[canonical] = i
			}
		}
	}
	if _, ok := columns["isin"]; !ok {
		return nil, fmt.Errorf("snapshot file has no ISIN column")
	}

	var rows []models.SnapshotRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot line %d: %w", line+1, err)
		}
		line++

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		isin := strings.ToUpper(cell("isin"))
		if isin == "" {
			continue
		}

		row := models.SnapshotRow{
			Line:        line,
			ISIN:        isin,
			Operation:   cell("operation"),
			AssetType:   cell("assettype"),
			Description: cell("description"),
			Quantity:    parseNumberCell(cell("quantity")),
			Price:       parseNumberCell(cell("price")),
			Date:        parseDateCell(cell("date")),
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// parseNumberCell turns a spreadsheet cell into a number, tolerating "$",
// grouping commas and blank cells. A blank or unparseable cell is nil.
func parseNumberCell(value string) *float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	if cleaned == "" || cleaned == "-" {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	f, _ := d.Float64()
	return &f
}

var dateLayouts = []string{
	common.DateLayout,
	"02/01/2006",
	"2/1/2006",
	"02 Jan 2006",
}

func parseDateCell(value string) *time.Time {
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			day := common.Day(t)
			return &day
		}
	}
	return nil
}
