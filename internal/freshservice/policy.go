package freshservice

import (
	"errors"
	"fmt"
)

// EmptyPolicy decides what a ticket without requested items becomes in the
// exported rows.
type EmptyPolicy string

const (
	// EmptyBlank keeps the ticket as a row with only ticket_id set.
	EmptyBlank EmptyPolicy = "blank"
	// EmptySkip drops the ticket.
	EmptySkip EmptyPolicy = "skip"
	// EmptyFail fails the run.
	EmptyFail EmptyPolicy = "fail"
)

var ErrNoRequestedItems = errors.New("ticket has no requested items")

func ParseEmptyPolicy(s string) (EmptyPolicy, error) {
	switch p := EmptyPolicy(s); p {
	case EmptyBlank, EmptySkip, EmptyFail:
		return p, nil
	case "":
		return EmptyBlank, nil
	}
	return "", fmt.Errorf("unknown empty items policy %q (want blank, skip or fail)", s)
}

// Rows flattens the result into export rows, applying policy to the tickets
// that had no requested items.
func (r *Result) Rows(policy EmptyPolicy) ([]map[string]string, error) {
	rows := make([]map[string]string, 0, len(r.Items))
	for i, it := range r.Items {
		if it != nil {
			rows = append(rows, it.Flatten())
			continue
		}
		id := ""
		if i < len(r.Tickets) {
			id = r.Tickets[i].DisplayID.String()
		}
		switch policy {
		case EmptySkip:
		case EmptyFail:
			return nil, fmt.Errorf("ticket %s: %w", id, ErrNoRequestedItems)
		default:
			rows = append(rows, map[string]string{FieldTicketID: id})
		}
	}
	return rows, nil
}
