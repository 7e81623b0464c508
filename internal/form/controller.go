// Package form implements the promotion form controller: the view state of
// one console session and the actions that move it through the Promotion
// Service.
package form

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"promo-console/internal/audit"
	"promo-console/internal/lineimport"
	"promo-console/internal/model"
	"promo-console/internal/promoapi"

	"github.com/rs/zerolog"
)

// Action names, as journalled.
const (
	ActionCreate    = "create"
	ActionUpdate    = "update"
	ActionRetrieve  = "retrieve"
	ActionDelete    = "delete"
	ActionSearch    = "search"
	ActionApply     = "apply"
	ActionImport    = "import"
	ActionClear     = "clear"
	ActionAddRow    = "add-row"
	ActionRemoveRow = "remove-row"
)

// defaultRecordTimeout bounds how long an action waits on the journal.
const defaultRecordTimeout = 3 * time.Second

// completeFunc applies the outcome of a request to the view state and
// returns the action's error.
type completeFunc func(s *State) error

// sendFunc makes the request of an action outside the controller lock.
type sendFunc func(ctx context.Context) completeFunc

// prepareFunc reads the view state under the lock and returns the target
// promotion id and the request to send, or an input error.
type prepareFunc func(s *State) (promotionID string, send sendFunc, err error)

// Controller owns the view state of one console session. It is safe for
// concurrent use; requests are made without holding the lock.
type Controller struct {
	session  string
	client   promoapi.Client
	loader   lineimport.Loader
	recorder audit.Recorder
	logger   zerolog.Logger

	recordTimeout time.Duration

	mu    sync.Mutex
	state State
	seq   uint64
}

// NewController creates a controller for session with an empty form.
func NewController(
	session string,
	client promoapi.Client,
	loader lineimport.Loader,
	recorder audit.Recorder,
	logger zerolog.Logger,
) *Controller {
	if recorder == nil {
		recorder = audit.NewNopRecorder()
	}
	return &Controller{
		session:  session,
		client:   client,
		loader:   loader,
		recorder: recorder,
		logger:   logger.With().Str("component", "form-controller").Str("session", session).Logger(),

		recordTimeout: defaultRecordTimeout,
	}
}

// State returns a copy of the current view state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Bind copies a form submission into the view state. Submitted rows replace
// the row inputs; a new price already shown is kept while its row is
// unchanged. Resizing or editing the rows discards an apply in flight.
func (c *Controller) Bind(in Input) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Fields = in.Fields
	c.state.ApplyPromotionID = in.ApplyPromotionID

	changed := len(in.Rows) != len(c.state.Rows)
	rows := make([]ProductRow, len(in.Rows))
	for i, r := range in.Rows {
		rows[i] = ProductRow{ProductID: r.ProductID, Price: r.Price}
		if i >= len(c.state.Rows) {
			continue
		}
		prev := c.state.Rows[i]
		if prev.ProductID == r.ProductID && prev.Price == r.Price {
			rows[i].NewPrice = prev.NewPrice
		} else {
			changed = true
		}
	}
	c.state.Rows = rows

	if changed {
		c.seq++
	}
}

// Create creates a promotion from the form fields.
func (c *Controller) Create(ctx context.Context) error {
	return c.run(ctx, ActionCreate, func(s *State) (string, sendFunc, error) {
		input, err := promotionInput(s.Fields)
		if err != nil {
			return "", nil, err
		}
		return "", func(ctx context.Context) completeFunc {
			promotion, err := c.client.Create(ctx, input)
			return c.populate(promotion, err)
		}, nil
	})
}

// Update replaces the promotion named by the identifier field.
func (c *Controller) Update(ctx context.Context) error {
	return c.run(ctx, ActionUpdate, func(s *State) (string, sendFunc, error) {
		id, err := requireID(s.Fields.ID)
		if err != nil {
			return "", nil, err
		}
		input, err := promotionInput(s.Fields)
		if err != nil {
			return id, nil, err
		}
		return id, func(ctx context.Context) completeFunc {
			promotion, err := c.client.Update(ctx, id, input)
			return c.populate(promotion, err)
		}, nil
	})
}

// Retrieve loads the promotion named by the identifier field. On failure
// every field but the identifier is cleared.
func (c *Controller) Retrieve(ctx context.Context) error {
	return c.run(ctx, ActionRetrieve, func(s *State) (string, sendFunc, error) {
		id, err := requireID(s.Fields.ID)
		if err != nil {
			return "", nil, err
		}
		return id, func(ctx context.Context) completeFunc {
			promotion, err := c.client.Get(ctx, id)
			if err != nil {
				return func(s *State) error {
					s.clearDetails()
					s.Flash = promoapi.Message(err)
					return err
				}
			}
			return c.populate(promotion, nil)
		}, nil
	})
}

// Delete deletes the promotion named by the identifier field. On success
// every field, the identifier included, is cleared.
func (c *Controller) Delete(ctx context.Context) error {
	return c.run(ctx, ActionDelete, func(s *State) (string, sendFunc, error) {
		id, err := requireID(s.Fields.ID)
		if err != nil {
			return "", nil, err
		}
		return id, func(ctx context.Context) completeFunc {
			err := c.client.Delete(ctx, id)
			return func(s *State) error {
				if err != nil {
					s.Flash = promoapi.Message(err)
					return err
				}
				s.clearAll()
				s.Flash = FlashDeleted
				return nil
			}
		}, nil
	})
}

// Search lists promotions matching the code field, or all promotions when
// it is empty. The first result is copied into the form; an empty result
// leaves the form untouched.
func (c *Controller) Search(ctx context.Context) error {
	return c.run(ctx, ActionSearch, func(s *State) (string, sendFunc, error) {
		code := s.Fields.Code
		return "", func(ctx context.Context) completeFunc {
			promotions, err := c.client.Search(ctx, code)
			return func(s *State) error {
				if err != nil {
					s.Flash = promoapi.Message(err)
					return err
				}
				results := make([]ResultRow, len(promotions))
				for i, p := range promotions {
					results[i] = resultRowFrom(p)
				}
				s.Results = results
				if len(promotions) > 0 {
					s.Fields = fieldsFrom(&promotions[0])
				}
				s.Flash = FlashSuccess
				return nil
			}
		}, nil
	})
}

// Apply submits the product line rows to the promotion named in the apply
// panel and fills each row's new price from the response by position. A
// response with a different number of prices updates no row.
func (c *Controller) Apply(ctx context.Context) error {
	return c.run(ctx, ActionApply, func(s *State) (string, sendFunc, error) {
		id, err := requireID(s.ApplyPromotionID)
		if err != nil {
			return "", nil, err
		}
		req := model.ApplyRequest{Products: BuildProductLines(s.Rows)}
		return id, func(ctx context.Context) completeFunc {
			resp, err := c.client.Apply(ctx, id, req)
			return func(s *State) error {
				if err != nil {
					s.Flash = promoapi.Message(err)
					return err
				}
				if len(resp.Products) != len(req.Products) {
					mismatch := &MismatchError{Requested: len(req.Products), Returned: len(resp.Products)}
					c.logger.Error().
						Str("promotion_id", id).
						Int("requested", mismatch.Requested).
						Int("returned", mismatch.Returned).
						Msg("apply response not aligned with request")
					s.Flash = mismatch.Error()
					return mismatch
				}
				for i, product := range resp.Products {
					if i < len(s.Rows) {
						s.Rows[i].NewPrice = FormatPrice(product.Price)
					}
				}
				s.Flash = FlashSuccess
				return nil
			}
		}, nil
	})
}

// Import appends the product lines loaded from source as new rows, in
// file order.
func (c *Controller) Import(ctx context.Context, source string) error {
	return c.run(ctx, ActionImport, func(s *State) (string, sendFunc, error) {
		src, err := requireSource(source)
		if err != nil {
			return "", nil, err
		}
		if c.loader == nil {
			return "", nil, model.NewInputError(model.ErrCodeInvalidSource, "Product line import is not configured")
		}
		return "", func(ctx context.Context) completeFunc {
			lines, err := c.loader.Load(ctx, src)
			return func(s *State) error {
				if err != nil {
					s.Flash = fmt.Sprintf("Failed to import %s", src)
					var parseErr *lineimport.ParseError
					if errors.As(err, &parseErr) {
						s.Flash = fmt.Sprintf("Failed to import %s: %s", src, parseErr.Error())
					}
					return err
				}
				for _, line := range lines {
					s.Rows = append(s.Rows, ProductRow{ProductID: line.ProductID, Price: line.Price})
				}
				s.Flash = fmt.Sprintf("Imported %d product lines", len(lines))
				return nil
			}
		}, nil
	})
}

// Clear empties every form field, the identifier included.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.clearAll()
	c.state.Flash = ""
}

// AddProductRow appends an empty product line row and returns the row count.
func (c *Controller) AddProductRow() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Rows = append(c.state.Rows, ProductRow{})
	return len(c.state.Rows)
}

// RemoveProductRow removes row index. An apply still in flight is
// discarded since its prices no longer line up with the rows.
func (c *Controller) RemoveProductRow(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index < 0 || index >= len(c.state.Rows) {
		c.state.Flash = model.ErrInvalidRow.Message
		return model.ErrInvalidRow
	}
	c.state.Rows = append(c.state.Rows[:index], c.state.Rows[index+1:]...)
	c.seq++
	return nil
}

// populate returns a completion that overwrites every form field from
// promotion, or shows the failure.
func (c *Controller) populate(promotion *model.Promotion, err error) completeFunc {
	return func(s *State) error {
		if err != nil {
			s.Flash = promoapi.Message(err)
			return err
		}
		s.Fields = fieldsFrom(promotion)
		s.Flash = FlashSuccess
		return nil
	}
}

// run executes one request-backed action. Completions of actions that were
// overtaken by a newer one are discarded.
func (c *Controller) run(ctx context.Context, action string, prepare prepareFunc) error {
	c.mu.Lock()
	promotionID, send, err := prepare(&c.state)
	if err != nil {
		message := err.Error()
		var inputErr *model.InputError
		if errors.As(err, &inputErr) {
			message = inputErr.Message
		}
		c.state.Flash = message
		c.mu.Unlock()

		c.logger.Debug().Str("action", action).Str("reason", message).Msg("action rejected")
		c.record(ctx, action, promotionID, audit.OutcomeRejected, message)
		return err
	}
	c.seq++
	token := c.seq
	c.mu.Unlock()

	complete := send(ctx)

	c.mu.Lock()
	if token != c.seq {
		c.mu.Unlock()
		c.logger.Warn().
			Str("action", action).
			Str("promotion_id", promotionID).
			Uint64("token", token).
			Msg("discarding stale completion")
		c.record(ctx, action, promotionID, audit.OutcomeStale, "")
		return ErrStale
	}
	err = complete(&c.state)
	flash := c.state.Flash
	c.mu.Unlock()

	outcome := audit.OutcomeSuccess
	if err != nil {
		outcome = audit.OutcomeFailure
		c.logger.Warn().Err(err).Str("action", action).Str("promotion_id", promotionID).Msg("action failed")
	} else {
		c.logger.Info().Str("action", action).Str("promotion_id", promotionID).Msg("action completed")
	}
	c.record(ctx, action, promotionID, outcome, flash)
	return err
}

// record journals an action within recordTimeout. Journal failures never
// fail the action.
func (c *Controller) record(ctx context.Context, action, promotionID string, outcome audit.Outcome, message string) {
	entry := audit.NewEntry(c.session, action, promotionID, outcome, message)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.recordTimeout)
	defer cancel()

	if err := c.recorder.Record(ctx, entry); err != nil {
		c.logger.Error().Err(err).Str("action", action).Msg("failed to journal action")
	}
}
