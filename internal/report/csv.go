// Package report renders expenditures as downloadable files.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/expense-splitter/internal/models"
)

// MaxExportRows caps a single CSV export.
const MaxExportRows = 10000

var csvHeader = []string{
	"ID", "Date", "Amount", "Total Amount", "Category", "Payment Method",
	"Description", "Tags", "Location", "Paid By", "Settled", "Splits",
}

// GenerateExpendituresCSV writes one row per expenditure, in the order given.
// Rows beyond MaxExportRows are dropped.
func GenerateExpendituresCSV(expenditures []models.Expenditure) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	if len(expenditures) > MaxExportRows {
		expenditures = expenditures[:MaxExportRows]
	}

	for i := range expenditures {
		e := &expenditures[i]
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.UTC().Format("2006-01-02 15:04:05"),
			e.Amount.StringFixed(2),
			e.TotalAmount.StringFixed(2),
			string(e.Category),
			string(e.PaymentMethod),
			e.Description,
			strings.Join(e.Tags, ";"),
			e.Location,
			strconv.FormatInt(e.PaidBy, 10),
			strconv.FormatBool(e.IsSettled),
			formatSplits(e.Splits),
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// formatSplits renders splits as "user:amount" pairs, with ":paid" appended
// to settled shares.
func formatSplits(splits []models.Split) string {
	parts := make([]string, len(splits))
	for i, s := range splits {
		part := strconv.FormatInt(s.UserID, 10) + ":" + s.Amount.StringFixed(2)
		if s.Paid {
			part += ":paid"
		}
		parts[i] = part
	}
	return strings.Join(parts, ";")
}

// ExportFilename names a CSV export generated at now.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("expenditures_%s.csv", now.Format("2006-01-02"))
}
