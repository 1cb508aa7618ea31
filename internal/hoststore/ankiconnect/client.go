// Package ankiconnect implements the host store contract over the desktop
// application's HTTP bridge, the "version 6" action/params envelope. Unlike
// the collection backend it also reaches the GUI surfaces: the running
// reviewer and the card browser.
package ankiconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"

	"github.com/at-ishikawa/cardlink/internal/hoststore"
)

const protocolVersion = 6

type Client struct {
	httpClient       *resty.Client
	maxRetryAttempts uint
}

// NewClient talks to the bridge at baseURL, usually http://127.0.0.1:8765.
func NewClient(baseURL string, timeout time.Duration, retryAttempts uint) *Client {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Content-Type", "application/json")
	if timeout > 0 {
		client.SetTimeout(timeout)
	}

	return &Client{
		httpClient:       client,
		maxRetryAttempts: retryAttempts,
	}
}

func (client *Client) Close() error {
	return client.httpClient.Close()
}

type envelope struct {
	Action  string `json:"action"`
	Version int    `json:"version"`
	Params  any    `json:"params,omitempty"`
}

type reply struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// isRetryableError reports whether a bridge call is worth retrying: network
// faults and server-side 5xx responses, not protocol errors.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "i/o timeout") {
		return true
	}
	if strings.Contains(errStr, "response error 5") {
		return true
	}
	return false
}

// invoke runs one action against the bridge and decodes its result into out.
// A nil out discards the result.
func (client *Client) invoke(ctx context.Context, action string, params any, out any) error {
	return retry.Do(
		func() error {
			response, err := client.httpClient.R().
				SetContext(ctx).
				SetBody(envelope{Action: action, Version: protocolVersion, Params: params}).
				SetResult(&reply{}).
				Post("/")
			if err != nil {
				return fmt.Errorf("httpClient.Post(%s) > %w", action, err)
			}
			if response.IsError() {
				return fmt.Errorf("response error %d: %s", response.StatusCode(), response.String())
			}

			body := response.Result().(*reply)
			if body.Error != nil {
				return retry.Unrecoverable(fmt.Errorf("%s: %s", action, *body.Error))
			}
			if out == nil {
				return nil
			}
			if err := json.Unmarshal(body.Result, out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("json.Unmarshal(%s result) > %w", action, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(client.maxRetryAttempts+1),
		retry.RetryIf(isRetryableError),
		retry.LastErrorOnly(true),
	)
}

type cardInfo struct {
	CardID   int64  `json:"cardId"`
	NoteID   int64  `json:"note"`
	DeckName string `json:"deckName"`
	Queue    int    `json:"queue"`
	Type     int    `json:"type"`
	Due      int64  `json:"due"`
}

func (client *Client) Card(ctx context.Context, id int64) (*hoststore.Card, error) {
	var infos []cardInfo
	if err := client.invoke(ctx, "cardsInfo", map[string]any{"cards": []int64{id}}, &infos); err != nil {
		return nil, err
	}
	// The bridge answers a missing card with an empty object, not an error.
	if len(infos) == 0 || infos[0].CardID == 0 {
		return nil, fmt.Errorf("card %d: %w", id, hoststore.ErrCardNotFound)
	}

	deckID, err := client.deckID(ctx, infos[0].DeckName)
	if err != nil {
		return nil, err
	}
	return &hoststore.Card{
		ID:     infos[0].CardID,
		NoteID: infos[0].NoteID,
		DeckID: deckID,
		Queue:  hoststore.Queue(infos[0].Queue),
		Type:   hoststore.CardType(infos[0].Type),
		Due:    infos[0].Due,
	}, nil
}

type noteInfo struct {
	NoteID    int64                `json:"noteId"`
	ModelName string               `json:"modelName"`
	Fields    map[string]noteField `json:"fields"`
}

type noteField struct {
	Value string `json:"value"`
	Order int    `json:"order"`
}

func (client *Client) Note(ctx context.Context, id int64) (*hoststore.Note, error) {
	var infos []noteInfo
	if err := client.invoke(ctx, "notesInfo", map[string]any{"notes": []int64{id}}, &infos); err != nil {
		return nil, err
	}
	if len(infos) == 0 || infos[0].NoteID == 0 {
		return nil, fmt.Errorf("note %d: %w", id, hoststore.ErrNoteNotFound)
	}

	modelID, err := client.modelID(ctx, infos[0].ModelName)
	if err != nil {
		return nil, err
	}

	fields := make([]hoststore.NoteField, len(infos[0].Fields))
	for name, field := range infos[0].Fields {
		if field.Order < 0 || field.Order >= len(fields) {
			return nil, fmt.Errorf("note %d: field %q has order %d out of range", id, name, field.Order)
		}
		fields[field.Order] = hoststore.NoteField{Name: name, Value: field.Value}
	}
	return &hoststore.Note{ID: infos[0].NoteID, ModelID: modelID, Fields: fields}, nil
}

func (client *Client) FindCards(ctx context.Context, query string, limit int) ([]int64, error) {
	var ids []int64
	if err := client.invoke(ctx, "findCards", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (client *Client) FindNotes(ctx context.Context, query string) ([]int64, error) {
	var ids []int64
	if err := client.invoke(ctx, "findNotes", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (client *Client) deckNamesAndIDs(ctx context.Context) (map[string]int64, error) {
	var decks map[string]int64
	if err := client.invoke(ctx, "deckNamesAndIds", nil, &decks); err != nil {
		return nil, err
	}
	return decks, nil
}

func (client *Client) deckID(ctx context.Context, name string) (int64, error) {
	decks, err := client.deckNamesAndIDs(ctx)
	if err != nil {
		return 0, err
	}
	id, ok := decks[name]
	if !ok {
		return 0, fmt.Errorf("deck %q: %w", name, hoststore.ErrDeckNotFound)
	}
	return id, nil
}

func (client *Client) DeckName(ctx context.Context, deckID int64) (string, error) {
	decks, err := client.deckNamesAndIDs(ctx)
	if err != nil {
		return "", err
	}
	for name, id := range decks {
		if id == deckID {
			return name, nil
		}
	}
	return "", fmt.Errorf("deck %d: %w", deckID, hoststore.ErrDeckNotFound)
}

// CurrentDeckID reports the deck of the card under review. Outside a review
// session the bridge has no deck selection, so the default deck applies.
func (client *Client) CurrentDeckID(ctx context.Context) (int64, error) {
	var current struct {
		DeckName string `json:"deckName"`
	}
	if err := client.invoke(ctx, "guiCurrentCard", nil, &current); err != nil || current.DeckName == "" {
		return 1, nil
	}
	return client.deckID(ctx, current.DeckName)
}

type reviewEntry struct {
	ID int64 `json:"id"`
}

func (client *Client) ReviewsSince(ctx context.Context, cardID int64, since time.Time) ([]int64, error) {
	var reviews map[string][]reviewEntry
	params := map[string]any{"cards": []string{fmt.Sprintf("%d", cardID)}}
	if err := client.invoke(ctx, "getReviewsOfCards", params, &reviews); err != nil {
		return nil, err
	}

	bound := since.UnixMilli()
	var ids []int64
	for _, entry := range reviews[fmt.Sprintf("%d", cardID)] {
		if entry.ID >= bound {
			ids = append(ids, entry.ID)
		}
	}
	return ids, nil
}

func (client *Client) UpdateNote(ctx context.Context, note *hoststore.Note) error {
	fields := make(map[string]string, len(note.Fields))
	for _, f := range note.Fields {
		fields[f.Name] = f.Value
	}
	return client.invoke(ctx, "updateNoteFields", map[string]any{
		"note": map[string]any{"id": note.ID, "fields": fields},
	}, nil)
}

func (client *Client) UpdateCardScheduling(ctx context.Context, card *hoststore.Card) error {
	return client.invoke(ctx, "setSpecificValueOfCard", map[string]any{
		"card":          card.ID,
		"keys":          []string{"queue", "type", "due"},
		"newValues":     []int64{int64(card.Queue), int64(card.Type), card.Due},
		"warning_check": true,
	}, nil)
}

func (client *Client) UnsuspendCards(ctx context.Context, ids []int64) error {
	return client.invoke(ctx, "unsuspend", map[string]any{"cards": ids}, nil)
}

// UnburyCards restores each buried card individually to the queue implied by
// its type; the bridge has no bulk unbury for specific cards.
func (client *Client) UnburyCards(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		card, err := client.Card(ctx, id)
		if err != nil {
			return err
		}
		if !card.Queue.Buried() {
			continue
		}
		if err := client.invoke(ctx, "setSpecificValueOfCard", map[string]any{
			"card":          id,
			"keys":          []string{"queue"},
			"newValues":     []int64{int64(card.Type)},
			"warning_check": true,
		}, nil); err != nil {
			return err
		}
	}
	return nil
}

func (client *Client) AddNote(ctx context.Context, note *hoststore.Note, deckID int64) ([]int64, error) {
	deckName, err := client.DeckName(ctx, deckID)
	if err != nil {
		return nil, err
	}
	model, err := client.NoteModel(ctx, note.ModelID)
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string, len(note.Fields))
	for _, f := range note.Fields {
		fields[f.Name] = f.Value
	}
	var noteID int64
	if err := client.invoke(ctx, "addNote", map[string]any{
		"note": map[string]any{
			"deckName":  deckName,
			"modelName": model.Name,
			"fields":    fields,
		},
	}, &noteID); err != nil {
		return nil, err
	}
	note.ID = noteID

	return client.FindCards(ctx, fmt.Sprintf("nid:%d", noteID), 0)
}

func (client *Client) modelNamesAndIDs(ctx context.Context) (map[string]int64, error) {
	var models map[string]int64
	if err := client.invoke(ctx, "modelNamesAndIds", nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

func (client *Client) modelID(ctx context.Context, name string) (int64, error) {
	models, err := client.modelNamesAndIDs(ctx)
	if err != nil {
		return 0, err
	}
	id, ok := models[name]
	if !ok {
		return 0, fmt.Errorf("note type %q: %w", name, hoststore.ErrModelNotFound)
	}
	return id, nil
}

func (client *Client) NoteModel(ctx context.Context, modelID int64) (*hoststore.Model, error) {
	models, err := client.modelNamesAndIDs(ctx)
	if err != nil {
		return nil, err
	}
	var modelName string
	for name, id := range models {
		if id == modelID {
			modelName = name
			break
		}
	}
	if modelName == "" {
		return nil, fmt.Errorf("note type %d: %w", modelID, hoststore.ErrModelNotFound)
	}

	var fieldNames []string
	if err := client.invoke(ctx, "modelFieldNames", map[string]any{"modelName": modelName}, &fieldNames); err != nil {
		return nil, err
	}
	var templates map[string]json.RawMessage
	if err := client.invoke(ctx, "modelTemplates", map[string]any{"modelName": modelName}, &templates); err != nil {
		return nil, err
	}

	model := &hoststore.Model{ID: modelID, Name: modelName}
	for i, name := range fieldNames {
		model.Fields = append(model.Fields, hoststore.ModelField{Name: name, Ord: i})
	}
	ord := 0
	for name := range templates {
		model.Templates = append(model.Templates, hoststore.ModelTemplate{Name: name, Ord: ord})
		ord++
	}
	return model, nil
}

func (client *Client) AddModelField(ctx context.Context, modelID int64, name string) error {
	model, err := client.NoteModel(ctx, modelID)
	if err != nil {
		return err
	}
	if model.HasField(name) {
		return nil
	}
	return client.invoke(ctx, "modelFieldAdd", map[string]any{
		"modelName": model.Name,
		"fieldName": name,
		"index":     len(model.Fields),
	}, nil)
}

func (client *Client) CreateModel(ctx context.Context, model *hoststore.Model) (int64, error) {
	fieldNames := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		fieldNames[i] = f.Name
	}
	templates := make([]map[string]string, len(model.Templates))
	for i, tmpl := range model.Templates {
		templates[i] = map[string]string{
			"Name":  tmpl.Name,
			"Front": "{{" + fieldNames[0] + "}}",
			"Back":  "{{FrontSide}}<hr id=answer>{{" + fieldNames[1] + "}}",
		}
	}

	var created struct {
		ID int64 `json:"id"`
	}
	if err := client.invoke(ctx, "createModel", map[string]any{
		"modelName":     model.Name,
		"inOrderFields": fieldNames,
		"cardTemplates": templates,
	}, &created); err != nil {
		return 0, err
	}
	model.ID = created.ID
	return created.ID, nil
}

// Reset reloads the collection so a mutated due time takes effect in the
// running scheduler.
func (client *Client) Reset(ctx context.Context) error {
	return client.invoke(ctx, "reloadCollection", nil, nil)
}

// CurrentCard reports the card on screen in the running reviewer.
func (client *Client) CurrentCard(ctx context.Context) (*hoststore.Card, error) {
	var current struct {
		CardID   int64  `json:"cardId"`
		DeckName string `json:"deckName"`
	}
	if err := client.invoke(ctx, "guiCurrentCard", nil, &current); err != nil || current.CardID == 0 {
		return nil, hoststore.ErrNoCurrentCard
	}
	return client.Card(ctx, current.CardID)
}

// Advance asks the reviewer to show the next question after a queue rebuild.
func (client *Client) Advance(ctx context.Context) error {
	return client.invoke(ctx, "guiShowQuestion", nil, nil)
}

// OpenPreview opens the card browser filtered by the query.
func (client *Client) OpenPreview(ctx context.Context, query string) (hoststore.PreviewSurface, error) {
	var ids []int64
	if err := client.invoke(ctx, "guiBrowse", map[string]any{"query": query}, &ids); err != nil {
		return nil, err
	}
	return &browserSurface{client: client, cardIDs: ids}, nil
}

// browserSurface is the opened card browser. The browser outlives the call
// that opened it, so both probes go back over the bridge.
type browserSurface struct {
	client  *Client
	cardIDs []int64
}

func (s *browserSurface) Alive() bool {
	var selected []int64
	err := s.client.invoke(context.Background(), "guiSelectedNotes", nil, &selected)
	return err == nil
}

func (s *browserSurface) AutoSelect() error {
	if len(s.cardIDs) == 0 {
		return fmt.Errorf("no card matched the browser query")
	}
	var ok bool
	if err := s.client.invoke(context.Background(), "guiSelectCard", map[string]any{"card": s.cardIDs[0]}, &ok); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("browser did not select card %d", s.cardIDs[0])
	}
	return nil
}

var (
	_ hoststore.Store         = (*Client)(nil)
	_ hoststore.Scheduler     = (*Client)(nil)
	_ hoststore.Reviewer      = (*Client)(nil)
	_ hoststore.PreviewOpener = (*Client)(nil)
)
