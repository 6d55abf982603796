// Package eventbrite integrates with the Eventbrite v3 API: it materializes a
// registration listing from a template event and publishes it.
package eventbrite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mindfulina/eventsync/internal/event"
	"github.com/mindfulina/eventsync/internal/httpclient"
)

const (
	// DefaultBaseURL is the Eventbrite v3 API root
	DefaultBaseURL = "https://www.eventbriteapi.com/v3"

	platformName = "Eventbrite"

	// utcLayout is the timestamp format Eventbrite expects for *_date.utc fields
	utcLayout = "2006-01-02T15:04:05Z"
)

// API is the subset of the Eventbrite API used by the registrar.
// Every call returns a typed result or an error; platform rejections are *event.UpstreamError.
type API interface {
	CopyEvent(ctx context.Context, templateID string, req CopyEventRequest) (*Event, error)
	UpdateEvent(ctx context.Context, eventID string, update EventUpdate) error
	SetStructuredContent(ctx context.Context, eventID string, content StructuredContent) error
	ListTicketClasses(ctx context.Context, eventID string) ([]TicketClass, error)
	UpdateTicketClassCapacity(ctx context.Context, eventID, ticketClassID string, quantity int) error
	Publish(ctx context.Context, eventID string) (bool, error)
	ListOrganizationEvents(ctx context.Context, organizationID string, pageSize int) ([]Event, error)
}

// CopyEventRequest is the body of POST /events/{template}/copy/
type CopyEventRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Timezone  string `json:"timezone"`
}

// EventUpdate is the body of POST /events/{id}/
type EventUpdate struct {
	LogoID      string `json:"logo_id,omitempty"`
	VenueID     string `json:"venue_id,omitempty"`
	OrganizerID string `json:"organizer_id,omitempty"`
}

// Event is the part of an Eventbrite event resource eventsync reads
type Event struct {
	ID     string        `json:"id"`
	URL    string        `json:"url"`
	Status string        `json:"status,omitempty"`
	Name   MultipartText `json:"name"`
	Start  DateTimeTZ    `json:"start"`
}

// MultipartText is Eventbrite's text+html pair
type MultipartText struct {
	Text string `json:"text"`
	HTML string `json:"html,omitempty"`
}

// DateTimeTZ is Eventbrite's zoned timestamp
type DateTimeTZ struct {
	Timezone string `json:"timezone"`
	Local    string `json:"local"`
	UTC      string `json:"utc"`
}

// TicketClass is one registration class of an event
type TicketClass struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	QuantityTotal int    `json:"quantity_total"`
}

// StructuredContent is the body of POST /events/{id}/structured_content/{version}/
type StructuredContent struct {
	Modules []Module `json:"modules"`
	Publish bool     `json:"publish"`
	Purpose string   `json:"purpose"`
}

// Module is one block of structured content. Exactly one of Body and Image is set.
type Module struct {
	Type string     `json:"type"`
	Data ModuleData `json:"data"`
}

// ModuleData holds the payload of a module
type ModuleData struct {
	Body  *TextBody  `json:"body,omitempty"`
	Image *ImageBody `json:"image,omitempty"`
}

// TextBody is the payload of a text module
type TextBody struct {
	Alignment string `json:"alignment"`
	Text      string `json:"text"`
}

// ImageBody is the payload of an image module
type ImageBody struct {
	ImageID string `json:"image_id"`
}

// Client is the HTTP implementation of API
type Client struct {
	http    httpclient.Client
	baseURL string
}

// NewClient creates a client authenticated with a private token.
// An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return newClientWith(baseURL, httpclient.NewDefaultClient(timeout, httpclient.WithBearerToken(token)))
}

func newClientWith(baseURL string, hc httpclient.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http:    hc,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// CopyEvent creates a new event from a template
func (c *Client) CopyEvent(ctx context.Context, templateID string, req CopyEventRequest) (*Event, error) {
	var ev Event
	if err := c.send(ctx, http.MethodPost, "/events/"+url.PathEscape(templateID)+"/copy/", req, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// UpdateEvent changes the listed fields of an event; empty fields are left as copied
func (c *Client) UpdateEvent(ctx context.Context, eventID string, update EventUpdate) error {
	body := map[string]EventUpdate{"event": update}
	return c.send(ctx, http.MethodPost, "/events/"+url.PathEscape(eventID)+"/", body, nil)
}

// SetStructuredContent writes a new structured content revision
func (c *Client) SetStructuredContent(ctx context.Context, eventID string, content StructuredContent) error {
	return c.send(ctx, http.MethodPost, "/events/"+url.PathEscape(eventID)+"/structured_content/1/", content, nil)
}

// ListTicketClasses returns the ticket classes of an event
func (c *Client) ListTicketClasses(ctx context.Context, eventID string) ([]TicketClass, error) {
	var out struct {
		TicketClasses []TicketClass `json:"ticket_classes"`
	}
	if err := c.send(ctx, http.MethodGet, "/events/"+url.PathEscape(eventID)+"/ticket_classes/", nil, &out); err != nil {
		return nil, err
	}
	return out.TicketClasses, nil
}

// UpdateTicketClassCapacity sets quantity_total of a ticket class
func (c *Client) UpdateTicketClassCapacity(ctx context.Context, eventID, ticketClassID string, quantity int) error {
	body := map[string]any{"ticket_class": map[string]int{"quantity_total": quantity}}
	path := "/events/" + url.PathEscape(eventID) + "/ticket_classes/" + url.PathEscape(ticketClassID) + "/"
	return c.send(ctx, http.MethodPost, path, body, nil)
}

// Publish asks Eventbrite to list the event publicly and returns the published
// flag from the response body. A 2xx response may still report false.
func (c *Client) Publish(ctx context.Context, eventID string) (bool, error) {
	resp, err := c.do(ctx, http.MethodPost, "/events/"+url.PathEscape(eventID)+"/publish/", nil)
	if err != nil {
		return false, err
	}
	return gjson.GetBytes(resp.Body, "published").Bool(), nil
}

// ListOrganizationEvents returns the most recent events of an organization, newest first
func (c *Client) ListOrganizationEvents(ctx context.Context, organizationID string, pageSize int) ([]Event, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	q := url.Values{}
	q.Set("page_size", strconv.Itoa(pageSize))
	q.Set("status", "draft,live,started,ended,completed,canceled")
	q.Set("order_by", "start_desc")

	var out struct {
		Events []Event `json:"events"`
	}
	path := "/organizations/" + url.PathEscape(organizationID) + "/events/?" + q.Encode()
	if err := c.send(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Events, nil
}

// send performs a call and decodes a JSON response into out when out is non-nil
func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &event.UpstreamError{
			Platform:    platformName,
			StatusCode:  resp.StatusCode,
			Status:      resp.Status,
			Description: fmt.Sprintf("malformed response from %s %s: %v", method, path, err),
			Body:        string(resp.Body),
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*httpclient.Response, error) {
	resp, err := c.http.Do(ctx, method, c.baseURL+path, body)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return nil, parseError(httpErr)
		}
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// apiError is the error envelope returned by Eventbrite
type apiError struct {
	Error            string          `json:"error"`
	ErrorDescription string          `json:"error_description"`
	ErrorMessage     string          `json:"error_message"`
	ErrorDetail      json.RawMessage `json:"error_detail"`
}

// parseError converts a rejected response into an *event.UpstreamError
func parseError(httpErr *httpclient.HTTPError) *event.UpstreamError {
	upstream := &event.UpstreamError{
		Platform:   platformName,
		StatusCode: httpErr.StatusCode,
		Status:     statusText(httpErr),
		Body:       string(httpErr.Body),
	}

	var envelope apiError
	if err := json.Unmarshal(httpErr.Body, &envelope); err != nil {
		return upstream
	}
	upstream.Code = envelope.Error
	upstream.Description = envelope.ErrorDescription
	upstream.Message = envelope.ErrorMessage
	upstream.Fields = parseErrorDetail(envelope.ErrorDetail)
	return upstream
}

// parseErrorDetail accepts error_detail as an object whose values are either a
// list of messages or a single message. Anything else yields no fields.
func parseErrorDetail(raw json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	var detail map[string]json.RawMessage
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil
	}

	fields := make(map[string][]string, len(detail))
	for key, value := range detail {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			if len(list) > 0 {
				fields[key] = list
			}
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil && single != "" {
			fields[key] = []string{single}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func statusText(httpErr *httpclient.HTTPError) string {
	if text := http.StatusText(httpErr.StatusCode); text != "" {
		return text
	}
	return httpErr.Message
}
