package services

import (
	"context"
	"errors"
	"sync"

	"github.com/stwalsh4118/catastro/internal/logger"
	"github.com/stwalsh4118/catastro/internal/models"
)

// Messages shown when a search fails after validation.
const (
	MsgSearchFailed  = "Ocurrió un error al realizar la búsqueda"
	MsgMalformedCode = "El código catastral debe tener el formato NNNNN-NNN-NNN"
)

// ErrRecordNotInResults is returned by Select for an id outside the current results.
var ErrRecordNotInResults = errors.New("record is not part of the current results")

// State is the search panel state.
type State string

// Controller states. Any state moves back to StateSearching on a new submit.
const (
	StateIdle      State = "idle"
	StateSearching State = "searching"
	StateResults   State = "results"
	StateEmpty     State = "empty"
	StateError     State = "error"
)

// Snapshot is a read-only copy of the controller state.
type Snapshot struct {
	State        State                 `json:"state"`
	Tab          models.SearchKind     `json:"tab,omitempty"`
	Loading      bool                  `json:"loading"`
	Results      []models.ParcelRecord `json:"results"`
	Selected     *models.ParcelRecord  `json:"selected"`
	ErrorMessage string                `json:"error,omitempty"`
	Generation   uint64                `json:"generation"`
}

// SearchController drives one citizen's search panel: it validates the form,
// calls the service, and owns the result list and the selected record.
//
// Every submit takes the next generation number. Only the response carrying
// the latest generation is applied; older responses are dropped, so a slow
// first search can never overwrite a faster second one.
type SearchController struct {
	svc CadastralService
	log *logger.Logger

	mu         sync.Mutex
	generation uint64
	state      State
	tab        models.SearchKind
	loading    bool
	results    []models.ParcelRecord
	selected   *models.ParcelRecord
	errMessage string
}

// NewSearchController creates a controller in the idle state.
func NewSearchController(svc CadastralService, log *logger.Logger) *SearchController {
	return &SearchController{
		svc:     svc,
		log:     log.WithComponent("search_controller"),
		state:   StateIdle,
		results: []models.ParcelRecord{},
	}
}

// Submit validates form and runs the search, blocking until the service answers.
// The returned snapshot reflects the controller after this response was applied,
// or the current state if a newer submit superseded it.
func (c *SearchController) Submit(ctx context.Context, form SearchForm) Snapshot {
	token, req, err := c.begin(form)
	if err != nil {
		return c.Snapshot()
	}

	result, err := c.svc.Search(ctx, req)
	c.complete(token, result, err)

	return c.Snapshot()
}

// begin moves to the searching state under a new generation. A validation
// failure moves straight to the error state and no request is returned.
func (c *SearchController) begin(form SearchForm) (uint64, models.SearchRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.tab = form.Tab
	c.results = []models.ParcelRecord{}
	c.selected = nil
	c.errMessage = ""

	req, err := form.BuildRequest()
	if err != nil {
		c.state = StateError
		c.loading = false
		c.errMessage = err.Error()
		return c.generation, models.SearchRequest{}, err
	}

	c.state = StateSearching
	c.loading = true
	return c.generation, req, nil
}

// complete applies a service response. It reports false when token is stale.
func (c *SearchController) complete(token uint64, result *models.SearchResult, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.generation {
		c.log.Debug("Discarding stale search response", map[string]interface{}{
			"token":  token,
			"latest": c.generation,
		})
		return false
	}

	c.loading = false

	if err != nil {
		c.state = StateError
		c.errMessage = MsgSearchFailed
		if errors.Is(err, ErrMalformedCode) {
			c.errMessage = MsgMalformedCode
		}
		c.log.Warn("Search ended in error", map[string]interface{}{
			"generation": token,
			"error":      err.Error(),
		})
		return true
	}

	if result == nil || result.IsEmpty || len(result.Records) == 0 {
		c.state = StateEmpty
		return true
	}

	c.state = StateResults
	c.results = result.Records
	if len(c.results) == 1 {
		c.selected = &c.results[0]
	}
	return true
}

// Select makes the record with id the selected one. Selecting the current
// selection again changes nothing.
func (c *SearchController) Select(id string) (*models.ParcelRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected != nil && c.selected.ID == id {
		return c.selected, nil
	}

	for i := range c.results {
		if c.results[i].ID == id {
			c.selected = &c.results[i]
			return c.selected, nil
		}
	}
	return nil, ErrRecordNotInResults
}

// Selected returns the selected record, or nil.
func (c *SearchController) Selected() *models.ParcelRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// Snapshot returns a copy of the current state.
func (c *SearchController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	results := make([]models.ParcelRecord, len(c.results))
	for i := range c.results {
		results[i] = c.results[i].Clone()
	}

	var selected *models.ParcelRecord
	if c.selected != nil {
		rec := c.selected.Clone()
		selected = &rec
	}

	return Snapshot{
		State:        c.state,
		Tab:          c.tab,
		Loading:      c.loading,
		Results:      results,
		Selected:     selected,
		ErrorMessage: c.errMessage,
		Generation:   c.generation,
	}
}
