package orders

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-po/internal/purchasing/amount"
	"github.com/odyssey-erp/odyssey-po/internal/shared"
)

// Validate checks the order before it is saved or submitted. All problems
// are returned joined; errors.As finds the first *shared.ValidationError.
func (s *Session) Validate() error {
	var errs []error
	required := []struct {
		field string
		value string
	}{
		{"supplier", s.header.Supplier},
		{"vendor", s.header.Vendor},
		{"date", s.header.Date},
		{"subject", s.header.Subject},
		{"currency", s.header.Currency},
		{"taxCode", s.header.TaxCode},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, shared.NewValidationError(r.field, "required"))
		}
	}
	if len(s.lines) == 0 {
		errs = append(errs, shared.NewValidationError("lines", "at least one line is required"))
	}
	for _, l := range s.lines {
		errs = append(errs, validateLine(l)...)
	}
	return errors.Join(errs...)
}

func validateLine(l Line) []error {
	var errs []error
	field := func(name string) string { return fmt.Sprintf("lines[%d].%s", l.LineNo, name) }
	if strings.TrimSpace(l.Draft.ItemName) == "" {
		errs = append(errs, shared.NewValidationError(field("itemName"), "required"))
	}
	for _, n := range []struct {
		name string
		raw  string
	}{
		{"unitPrice", l.Draft.UnitPrice},
		{"quantity", l.Draft.Quantity},
	} {
		switch {
		case strings.TrimSpace(n.raw) == "":
			errs = append(errs, shared.NewValidationError(field(n.name), "required"))
		case !amount.IsNumeric(n.raw):
			errs = append(errs, shared.NewValidationError(field(n.name), fmt.Sprintf("%q is not a number", n.raw)))
		case amount.Parse(n.raw).IsNegative():
			errs = append(errs, shared.NewValidationError(field(n.name), "must not be negative"))
		}
	}
	return errs
}
