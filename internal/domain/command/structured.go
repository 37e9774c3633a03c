// Package command parses the single-line structured submission format:
//
//	amount; expense item; expense group; partner; comment; period; payment method
package command

import (
	"fmt"
	"strings"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

// FieldCount is the number of semicolon-separated fields in a structured command.
const FieldCount = 7

// Parse validates raw and builds a proposal. allowedMethods is the fixed
// payment method set; an empty set falls back to the defaults.
func Parse(raw string, allowedMethods []string) (entity.ExpenseProposal, error) {
	if len(allowedMethods) == 0 {
		allowedMethods = entity.DefaultPaymentMethods
	}

	parts := strings.Split(raw, ";")
	if len(parts) != FieldCount {
		return entity.ExpenseProposal{}, fmt.Errorf("%w: expected %d fields separated by ';', got %d",
			entity.ErrValidation, FieldCount, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	amount, err := entity.ParseAmount(parts[0])
	if err != nil {
		return entity.ExpenseProposal{}, err
	}

	names := []string{"expense item", "expense group", "partner"}
	for i, name := range names {
		if parts[i+1] == "" {
			return entity.ExpenseProposal{}, fmt.Errorf("%w: %s is empty", entity.ErrValidation, name)
		}
	}

	comment, err := entity.ParseComment(parts[4])
	if err != nil {
		return entity.ExpenseProposal{}, err
	}

	period, err := entity.ParsePeriod(parts[5])
	if err != nil {
		return entity.ExpenseProposal{}, err
	}

	method, err := entity.ParsePaymentMethod(parts[6], allowedMethods)
	if err != nil {
		return entity.ExpenseProposal{}, err
	}

	return entity.ExpenseProposal{
		Amount:        amount,
		ExpenseItem:   parts[1],
		ExpenseGroup:  parts[2],
		Partner:       parts[3],
		Comment:       comment,
		Period:        period,
		PaymentMethod: method,
	}, nil
}
