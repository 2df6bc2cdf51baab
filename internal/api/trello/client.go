package trello

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kanbantools/sprint-report/internal/api"
	"github.com/kanbantools/sprint-report/internal/domain"
)

// Client implements api.BoardGateway for Trello.
type Client struct {
	baseURL    string
	key        string
	token      string
	httpClient api.HTTPClient

	// Board custom-field definitions, fetched once per board per run.
	fieldDefs map[string][]customFieldDef
}

// NewClient creates a new Trello client.
func NewClient(config api.ClientConfig, httpClient api.HTTPClient) *Client {
	return &Client{
		baseURL:    config.BaseURL,
		key:        config.Key,
		token:      config.Token,
		httpClient: httpClient,
		fieldDefs:  make(map[string][]customFieldDef),
	}
}

// ListOpenBoards retrieves all open boards visible to the credentials.
func (c *Client) ListOpenBoards(ctx context.Context) ([]domain.Board, error) {
	query := url.Values{}
	query.Set("filter", "open")
	query.Set("fields", "id,name")

	var tBoards []trelloBoard
	if err := c.doRequest(ctx, http.MethodGet, "/1/members/me/boards", query, nil, &tBoards); err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	boards := make([]domain.Board, len(tBoards))
	for i, tb := range tBoards {
		boards[i] = domain.Board{ID: tb.ID, Name: tb.Name}
	}
	return boards, nil
}

// ListOpenLists retrieves the open lists of a board, in board order.
func (c *Client) ListOpenLists(ctx context.Context, boardID string) ([]domain.WorkList, error) {
	query := url.Values{}
	query.Set("filter", "open")
	query.Set("fields", "id,name,idBoard")

	var tLists []trelloList
	if err := c.doRequest(ctx, http.MethodGet, "/1/boards/"+boardID+"/lists", query, nil, &tLists); err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}

	lists := make([]domain.WorkList, len(tLists))
	for i, tl := range tLists {
		lists[i] = domain.WorkList{ID: tl.ID, BoardID: tl.BoardID, Name: tl.Name}
	}
	return lists, nil
}

// ListCards retrieves the cards of a list with labels, member ids and
// custom fields joined against the board's field definitions.
func (c *Client) ListCards(ctx context.Context, listID string) ([]domain.Card, error) {
	query := url.Values{}
	query.Set("fields", "id,name,idBoard,idMembers,labels")
	query.Set("customFieldItems", "true")

	var tCards []trelloCard
	if err := c.doRequest(ctx, http.MethodGet, "/1/lists/"+listID+"/cards", query, nil, &tCards); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	cards := make([]domain.Card, len(tCards))
	for i, tc := range tCards {
		card, err := c.convertCard(ctx, tc)
		if err != nil {
			return nil, err
		}
		cards[i] = card
	}
	return cards, nil
}

// ResolveMember retrieves a member's full display name.
func (c *Client) ResolveMember(ctx context.Context, memberID string) (string, error) {
	query := url.Values{}
	query.Set("fields", "fullName")

	var tm trelloMember
	if err := c.doRequest(ctx, http.MethodGet, "/1/members/"+memberID, query, nil, &tm); err != nil {
		return "", fmt.Errorf("failed to resolve member %s: %w", memberID, err)
	}
	return tm.FullName, nil
}

// SetCustomField writes a numeric value into a card's custom field.
// The field is matched by name case-insensitively against the board's
// definitions; with duplicate names the last definition wins.
func (c *Client) SetCustomField(ctx context.Context, boardID, cardID, fieldName string, value int) error {
	defs, err := c.boardFieldDefs(ctx, boardID)
	if err != nil {
		return err
	}

	fieldID := ""
	for _, def := range defs {
		if strings.EqualFold(def.Name, fieldName) {
			fieldID = def.ID
		}
	}
	if fieldID == "" {
		return fmt.Errorf("board %s has no custom field named %q", boardID, fieldName)
	}

	payload := map[string]map[string]string{
		"value": {"number": strconv.Itoa(value)},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode field value: %w", err)
	}

	path := "/1/cards/" + cardID + "/customField/" + fieldID + "/item"
	if err := c.doRequest(ctx, http.MethodPut, path, nil, bytes.NewReader(body), nil); err != nil {
		return fmt.Errorf("failed to set %s on card %s: %w", fieldName, cardID, err)
	}
	return nil
}

// convertCard converts a Trello card to the domain model, joining its
// custom-field items with the board's field definitions.
func (c *Client) convertCard(ctx context.Context, tc trelloCard) (domain.Card, error) {
	labels := make([]string, len(tc.Labels))
	for i, l := range tc.Labels {
		labels[i] = l.Name
	}

	fields := make(map[string]string)
	if len(tc.CustomFieldItems) > 0 {
		defs, err := c.boardFieldDefs(ctx, tc.BoardID)
		if err != nil {
			return domain.Card{}, err
		}
		names := make(map[string]string, len(defs))
		for _, def := range defs {
			names[def.ID] = strings.ToUpper(def.Name)
		}
		for _, item := range tc.CustomFieldItems {
			name, ok := names[item.CustomFieldID]
			if !ok {
				continue
			}
			fields[name] = item.Value.render()
		}
	}

	return domain.Card{
		ID:           tc.ID,
		BoardID:      tc.BoardID,
		Name:         tc.Name,
		Labels:       labels,
		CustomFields: fields,
		MemberIDs:    tc.MemberIDs,
	}, nil
}

// boardFieldDefs returns a board's custom-field definitions, fetching
// them on first use and caching for the rest of the run.
func (c *Client) boardFieldDefs(ctx context.Context, boardID string) ([]customFieldDef, error) {
	if defs, ok := c.fieldDefs[boardID]; ok {
		return defs, nil
	}

	var defs []customFieldDef
	if err := c.doRequest(ctx, http.MethodGet, "/1/boards/"+boardID+"/customFields", nil, nil, &defs); err != nil {
		return nil, fmt.Errorf("failed to get custom field definitions: %w", err)
	}

	c.fieldDefs[boardID] = defs
	return defs, nil
}

// doRequest performs an HTTP request to the Trello API, decoding the
// JSON response into result when result is non-nil.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("key", c.key)
	query.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path+"?"+query.Encode(), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Trello API response types
type trelloBoard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type trelloList struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	BoardID string `json:"idBoard"`
}

type trelloCard struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	BoardID          string            `json:"idBoard"`
	MemberIDs        []string          `json:"idMembers"`
	Labels           []trelloLabel     `json:"labels"`
	CustomFieldItems []customFieldItem `json:"customFieldItems"`
}

type trelloLabel struct {
	Name string `json:"name"`
}

type trelloMember struct {
	FullName string `json:"fullName"`
}

type customFieldDef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type customFieldItem struct {
	CustomFieldID string           `json:"idCustomField"`
	Value         customFieldValue `json:"value"`
}

type customFieldValue struct {
	Text    string `json:"text"`
	Number  string `json:"number"`
	Date    string `json:"date"`
	Checked string `json:"checked"`
}

// render flattens a typed custom-field value into its textual form.
func (v customFieldValue) render() string {
	switch {
	case v.Text != "":
		return v.Text
	case v.Number != "":
		return v.Number
	case v.Date != "":
		return v.Date
	default:
		return v.Checked
	}
}
