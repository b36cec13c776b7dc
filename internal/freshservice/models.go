package freshservice

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Fixed column names of a flattened requested item.
const (
	FieldTicketID    = "ticket_id"
	FieldCatalogID   = "catalog_id"
	FieldCatalogItem = "catalog_item"
)

// DisplayID is a ticket display identifier. Freshservice sends it either as a
// JSON number or as a string; both end up in the same decimal text.
type DisplayID string

func (d DisplayID) String() string { return string(d) }

type TicketSummary struct {
	DisplayID DisplayID
	Subject   string
	Status    string
	// Raw is the ticket object as listed by the view.
	Raw map[string]interface{}
}

// RequestedItemRecord is one ticket's first requested item. Extra holds the
// catalog item's dynamic fields, whose keys differ between catalog items.
type RequestedItemRecord struct {
	TicketID    string
	CatalogID   string
	CatalogItem string
	Extra       map[string]interface{}
}

// Batch keeps one slot per listed ticket, in listing order. A nil slot means
// the ticket had no requested items.
type Batch []*RequestedItemRecord

// Flatten merges the fixed fields and the dynamic ones into a single row.
// Fixed fields win over dynamic fields of the same name.
func (r *RequestedItemRecord) Flatten() map[string]string {
	row := make(map[string]string, len(r.Extra)+3)
	for k, v := range r.Extra {
		row[k] = FormatValue(v)
	}
	row[FieldTicketID] = r.TicketID
	row[FieldCatalogID] = r.CatalogID
	row[FieldCatalogItem] = r.CatalogItem
	return row
}

// FormatValue renders a decoded JSON value as a table cell.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
