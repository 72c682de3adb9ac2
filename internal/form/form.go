package form

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"inv/internal/model"
)

// Field names, matching the wire attribute names.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldQuantity    = "quantity"
	FieldPrice       = "price"
)

// Fields in display and validation order.
var Fields = []string{FieldName, FieldDescription, FieldQuantity, FieldPrice}

// Errors maps each violated field to its message. Every check runs, so a
// draft with several bad fields reports all of them at once.
type Errors map[string]string

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, f := range Fields {
		if msg, ok := e[f]; ok {
			parts = append(parts, f+": "+msg)
		}
	}
	return strings.Join(parts, "; ")
}

// ErrSubmitInFlight is returned when a submit starts while another one is
// still pending. Nothing is sent for the second attempt.
var ErrSubmitInFlight = errors.New("submit already in flight")

// State is the draft lifecycle position.
type State int

const (
	Empty State = iota
	Editing
	Submitting
)

// Draft holds field values exactly as entered; parsing happens at
// validation time so a half-typed number never corrupts the draft.
// A zero ItemID means the draft creates a new item.
type Draft struct {
	ItemID      int64
	Name        string
	Description string
	Quantity    string
	Price       string
}

// Service is the slice of the remote client the form needs.
type Service interface {
	CreateItem(ctx context.Context, p model.Payload) (model.Item, error)
	UpdateItem(ctx context.Context, id int64, p model.Payload) (model.Item, error)
}

// Form owns a single editable draft and decides whether a valid submit is a
// create or an update.
type Form struct {
	draft    Draft
	baseline Draft
	state    State
}

func New() *Form { return &Form{} }

func (f *Form) State() State   { return f.state }
func (f *Form) Draft() Draft   { return f.draft }
func (f *Form) ItemID() int64  { return f.draft.ItemID }
func (f *Form) IsUpdate() bool { return f.draft.ItemID != 0 }

// Dirty reports whether the draft has unsaved changes, so a cancel can ask
// for confirmation before discarding them.
func (f *Form) Dirty() bool {
	return f.state == Editing && f.draft != f.baseline
}

// SetField updates one draft attribute. It has no side effects beyond the
// in-memory change; input is ignored while a submit is pending.
func (f *Form) SetField(field, value string) {
	if f.state == Submitting {
		return
	}
	if f.state == Empty {
		f.state = Editing
	}
	switch field {
	case FieldName:
		f.draft.Name = value
	case FieldDescription:
		f.draft.Description = value
	case FieldQuantity:
		f.draft.Quantity = value
	case FieldPrice:
		f.draft.Price = value
	}
}

// Field returns the current value of one draft attribute.
func (f *Form) Field(field string) string {
	switch field {
	case FieldName:
		return f.draft.Name
	case FieldDescription:
		return f.draft.Description
	case FieldQuantity:
		return f.draft.Quantity
	case FieldPrice:
		return f.draft.Price
	}
	return ""
}

// Load enters editing mode pre-populated from an already-fetched item.
func (f *Form) Load(it model.Item) {
	f.draft = Draft{
		ItemID:      it.ItemID,
		Name:        it.Name,
		Description: it.Description,
		Quantity:    strconv.FormatInt(it.Quantity, 10),
		Price:       strconv.FormatFloat(it.Price, 'f', -1, 64),
	}
	f.baseline = f.draft
	f.state = Editing
}

// Cancel discards the draft without contacting the service.
func (f *Form) Cancel() {
	f.draft = Draft{}
	f.baseline = Draft{}
	f.state = Empty
}

// Validate checks name, description, quantity and price in that order. All
// four checks run independently so every violated field gets its message.
// A nil result means the draft is well-formed.
func (f *Form) Validate() Errors {
	errs := Errors{}
	if strings.TrimSpace(f.draft.Name) == "" {
		errs[FieldName] = "item name is required"
	}
	if strings.TrimSpace(f.draft.Description) == "" {
		errs[FieldDescription] = "description is required"
	}
	if _, err := parsePositiveInt(f.draft.Quantity); err != nil {
		errs[FieldQuantity] = "quantity must be a positive number"
	}
	if _, err := parsePositiveFloat(f.draft.Price); err != nil {
		errs[FieldPrice] = "price must be a positive number"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Begin validates the draft and, if it passes, transitions to Submitting
// and returns the payload to send plus whether it targets an existing item.
// On validation failure or a pending submit the state is left untouched and
// no network call should be made.
func (f *Form) Begin() (model.Payload, bool, error) {
	if f.state == Submitting {
		return model.Payload{}, false, ErrSubmitInFlight
	}
	if errs := f.Validate(); errs != nil {
		return model.Payload{}, false, errs
	}
	quantity, _ := parsePositiveInt(f.draft.Quantity)
	price, _ := parsePositiveFloat(f.draft.Price)
	f.state = Submitting
	return model.Payload{
		Name:        strings.TrimSpace(f.draft.Name),
		Description: strings.TrimSpace(f.draft.Description),
		Quantity:    quantity,
		Price:       price,
	}, f.draft.ItemID != 0, nil
}

// Finish completes an in-flight submit: the draft resets to the empty
// template on success and is preserved for another attempt on failure.
func (f *Form) Finish(err error) {
	if f.state != Submitting {
		return
	}
	if err != nil {
		f.state = Editing
		return
	}
	f.draft = Draft{}
	f.baseline = Draft{}
	f.state = Empty
}

// Submit runs the whole cycle synchronously: validate, send create or
// update, reset on success. Interactive callers drive Begin/Finish around
// their own command dispatch instead.
func (f *Form) Submit(ctx context.Context, svc Service) (model.Item, error) {
	payload, isUpdate, err := f.Begin()
	if err != nil {
		return model.Item{}, err
	}
	var item model.Item
	if isUpdate {
		item, err = svc.UpdateItem(ctx, f.draft.ItemID, payload)
	} else {
		item, err = svc.CreateItem(ctx, payload)
	}
	f.Finish(err)
	if err != nil {
		return model.Item{}, err
	}
	return item, nil
}

func parsePositiveInt(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("not positive")
	}
	return n, nil
}

func parsePositiveFloat(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, errors.New("not positive")
	}
	return n, nil
}
