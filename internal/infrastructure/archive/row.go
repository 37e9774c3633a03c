// Package archive writes paid records to spreadsheet ledgers and reads the
// expense taxonomy from spreadsheet or yaml sources.
package archive

import (
	"strconv"
	"strings"
	"time"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// Columns is the ledger header, in row order.
var Columns = []string{
	"ID", "Amount", "Expense item", "Expense group", "Partner", "Comment",
	"Period", "Payment method", "Approved by", "Initiator", "Created at", "Paid at",
}

// Row lays out a paid record in ledger column order.
func Row(rec *entity.ExpenseRecord) []string {
	paidAt := ""
	if rec.PaidAt != nil {
		paidAt = rec.PaidAt.Format(time.DateTime)
	}
	return []string{
		strconv.FormatInt(rec.ID, 10),
		rec.Amount.StringFixed(2),
		rec.ExpenseItem,
		rec.ExpenseGroup,
		rec.Partner,
		rec.Comment,
		rec.PeriodString(),
		rec.PaymentMethod,
		rec.ApprovedBy,
		rec.InitiatorID,
		rec.CreatedAt.Format(time.DateTime),
		paidAt,
	}
}

// TaxonomyFromRows builds a taxonomy from (item, group, partner) rows. Rows
// with an empty cell in the first three columns are skipped.
func TaxonomyFromRows(rows [][]string) entity.Taxonomy {
	var t entity.Taxonomy
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		item := strings.TrimSpace(row[0])
		group := strings.TrimSpace(row[1])
		partner := strings.TrimSpace(row[2])
		if item == "" || group == "" || partner == "" {
			continue
		}
		t.Add(item, group, partner)
	}
	return t
}
