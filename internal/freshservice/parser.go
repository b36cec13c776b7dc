package freshservice

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedShape is returned when a body decodes as JSON but not into the
// structure the endpoint is documented to return.
var ErrUnexpectedShape = errors.New("unexpected response shape")

func decodeJSON(data []byte) (interface{}, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// isEmpty reports whether v is one of the empty JSON values: null, false,
// zero, "", [] or {}.
func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	return false
}

// ParseTickets decodes a view listing body.
func ParseTickets(data []byte) ([]TicketSummary, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode ticket list: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("ticket list: %w: got %T", ErrUnexpectedShape, v)
	}
	tickets := make([]TicketSummary, 0, len(list))
	for i, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("ticket list item %d: %w: got %T", i, ErrUnexpectedShape, item)
		}
		id := FormatValue(obj["display_id"])
		if id == "" {
			return nil, fmt.Errorf("ticket list item %d: %w: missing display_id", i, ErrUnexpectedShape)
		}
		tickets = append(tickets, TicketSummary{
			DisplayID: DisplayID(id),
			Subject:   FormatValue(obj["subject"]),
			Status:    FormatValue(obj["status_name"]),
			Raw:       obj,
		})
	}
	return tickets, nil
}

// ParseRequestedItems decodes a requested_items body for ticketID. An empty
// body yields a nil record and no error.
func ParseRequestedItems(ticketID string, data []byte) (*RequestedItemRecord, error) {
	v, err := decodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode requested items of %s: %w", ticketID, err)
	}
	if isEmpty(v) {
		return nil, nil
	}
	var list []interface{}
	switch val := v.(type) {
	case []interface{}:
		list = val
	case map[string]interface{}:
		// A single item not wrapped in an array.
		if _, ok := val["requested_item"]; !ok {
			return nil, fmt.Errorf("requested items of %s: %w: object without requested_item", ticketID, ErrUnexpectedShape)
		}
		list = []interface{}{val}
	default:
		return nil, fmt.Errorf("requested items of %s: %w: got %T", ticketID, ErrUnexpectedShape, v)
	}
	first, ok := list[0].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("requested items of %s: %w: element 0 is %T", ticketID, ErrUnexpectedShape, list[0])
	}
	item, ok := first["requested_item"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("requested items of %s: %w: missing requested_item", ticketID, ErrUnexpectedShape)
	}

	rec := &RequestedItemRecord{
		TicketID:    ticketID,
		CatalogID:   FormatValue(item["item_display_id"]),
		CatalogItem: FormatValue(item["catalog_item"]),
		Extra:       map[string]interface{}{},
	}
	switch values := item["requested_item_values"].(type) {
	case map[string]interface{}:
		for k, val := range values {
			rec.Extra[k] = val
		}
	case nil:
	default:
		return nil, fmt.Errorf("requested items of %s: %w: requested_item_values is %T", ticketID, ErrUnexpectedShape, values)
	}
	return rec, nil
}
