package freshservice

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
)

// PageSize is the number of tickets a view page holds.
const PageSize = 30

// ListTickets fetches one page of a ticket view. Pages are 1-based; anything
// lower is treated as the first page.
func (c *Client) ListTickets(ctx context.Context, viewID string, page int) ([]TicketSummary, error) {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("format", "json")
	query.Set("page", strconv.Itoa(page))
	body, err := c.get(ctx, EndpointView, "/view/"+url.PathEscape(viewID), query, true, logrus.Fields{
		"view_id": viewID,
		"page":    page,
	})
	if err != nil {
		return nil, err
	}
	return ParseTickets(body)
}

// GetRequestedItems fetches the first requested item of a ticket. It returns
// a nil record when the ticket has none.
func (c *Client) GetRequestedItems(ctx context.Context, ticketID string) (*RequestedItemRecord, error) {
	body, err := c.get(ctx, EndpointRequestedItems, "/"+url.PathEscape(ticketID)+"/requested_items.json", nil, false, logrus.Fields{
		"ticket_id": ticketID,
	})
	if err != nil {
		return nil, err
	}
	return ParseRequestedItems(ticketID, body)
}
