package conversation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/storefront/backend/internal/domain/shared"
)

// ActionKind is the shape of an inbound transport action
type ActionKind string

const (
	ActionCommand  ActionKind = "command"
	ActionText     ActionKind = "text"
	ActionCallback ActionKind = "callback"
)

// Commands understood by the storefront
const (
	CommandStart      = "start"
	CommandCancel     = "cancel"
	CommandSearch     = "search"
	CommandCategories = "categories"
	CommandCart       = "cart"
	CommandCheckout   = "checkout"
	CommandOrders     = "orders"
	CommandAccount    = "account"
	CommandRecommend  = "recommend"
)

var knownCommands = map[string]bool{
	CommandStart:      true,
	CommandCancel:     true,
	CommandSearch:     true,
	CommandCategories: true,
	CommandCart:       true,
	CommandCheckout:   true,
	CommandOrders:     true,
	CommandAccount:    true,
	CommandRecommend:  true,
}

// IsKnownCommand reports whether the storefront understands command
func IsKnownCommand(command string) bool {
	return knownCommands[command]
}

// Callback names. Arguments follow the name separated by ':'.
const (
	CallbackMainMenu              = "main_menu"
	CallbackCategories            = "categories"
	CallbackCategory              = "category" // category:<id>[:<page>]
	CallbackProduct               = "product"  // product:<id>[:new]
	CallbackCarouselImage         = "change_product_carousel_image"
	CallbackStartSearch           = "start_search"
	CallbackStartSearchInCategory = "start_search_in_category"
	CallbackRecommendations       = "recommendations"
	CallbackCart                  = "cart"
	CallbackAddOne                = "add_one_item_to_cart"
	CallbackRemoveOne             = "remove_one_item_from_cart"
	CallbackAddAndNotify          = "add_one_item_to_cart_and_notify_message"
	CallbackRemoveLine            = "remove_product_from_cart"
	CallbackCheckout              = "checkout"
	CallbackPayNow                = "pay_now"
	CallbackOrders                = "orders"
	CallbackAccount               = "account"
)

// FlagNewMessage asks for a product view in a new message instead of an edit
const FlagNewMessage = "new"

// Action is one inbound user interaction
type Action struct {
	UserID  int64      `json:"user_id"`
	Kind    ActionKind `json:"kind"`
	Command string     `json:"command,omitempty"`
	Text    string     `json:"text,omitempty"`
	Data    string     `json:"data,omitempty"`
}

type argKind int

const (
	argInt argKind = iota
	argFlag
)

type callbackShape struct {
	required int
	args     []argKind
}

var callbackShapes = map[string]callbackShape{
	CallbackMainMenu:              {},
	CallbackCategories:            {},
	CallbackCategory:              {required: 1, args: []argKind{argInt, argInt}},
	CallbackProduct:               {required: 1, args: []argKind{argInt, argFlag}},
	CallbackCarouselImage:         {required: 2, args: []argKind{argInt, argInt}},
	CallbackStartSearch:           {},
	CallbackStartSearchInCategory: {required: 1, args: []argKind{argInt}},
	CallbackRecommendations:       {},
	CallbackCart:                  {},
	CallbackAddOne:                {required: 1, args: []argKind{argInt, argInt}},
	CallbackRemoveOne:             {required: 1, args: []argKind{argInt, argInt}},
	CallbackAddAndNotify:          {required: 1, args: []argKind{argInt, argInt}},
	CallbackRemoveLine:            {required: 1, args: []argKind{argInt, argInt}},
	CallbackCheckout:              {},
	CallbackPayNow:                {},
	CallbackOrders:                {},
	CallbackAccount:               {},
}

// Callback is a parsed button payload
type Callback struct {
	Name string
	Args []string
}

// ParseCallback splits a payload into a name and arguments and checks them
// against the known callback shapes. Bad payloads yield ErrMalformedCallback.
func ParseCallback(data string) (Callback, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Callback{}, malformed(data, "empty payload")
	}
	tokens := strings.Split(data, ":")
	cb := Callback{Name: tokens[0], Args: tokens[1:]}

	shape, ok := callbackShapes[cb.Name]
	if !ok {
		return Callback{}, malformed(data, "unknown action")
	}
	if len(cb.Args) < shape.required || len(cb.Args) > len(shape.args) {
		return Callback{}, malformed(data, "wrong number of arguments")
	}
	for i, arg := range cb.Args {
		switch shape.args[i] {
		case argInt:
			if _, err := strconv.ParseInt(arg, 10, 64); err != nil {
				return Callback{}, malformed(data, fmt.Sprintf("argument %d is not an integer", i+1))
			}
		case argFlag:
			if arg != FlagNewMessage {
				return Callback{}, malformed(data, fmt.Sprintf("unknown flag %q", arg))
			}
		}
	}
	return cb, nil
}

func malformed(data, reason string) error {
	return shared.NewDomainError(shared.CodeMalformedCallback, fmt.Sprintf("Malformed callback %q: %s", data, reason))
}

// String rebuilds the payload
func (c Callback) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + ":" + strings.Join(c.Args, ":")
}

// Int returns the i-th argument as an integer. ParseCallback has validated it.
func (c Callback) Int(i int) int64 {
	if i >= len(c.Args) {
		return 0
	}
	n, _ := strconv.ParseInt(c.Args[i], 10, 64)
	return n
}

// OptionalInt returns the i-th argument or nil when absent
func (c Callback) OptionalInt(i int) *int64 {
	if i >= len(c.Args) {
		return nil
	}
	n := c.Int(i)
	return &n
}

// HasFlag reports whether flag appears among the arguments
func (c Callback) HasFlag(flag string) bool {
	for _, a := range c.Args {
		if a == flag {
			return true
		}
	}
	return false
}

// BuildCallback formats a payload from a name and integer arguments
func BuildCallback(name string, args ...int64) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		parts = append(parts, strconv.FormatInt(a, 10))
	}
	return strings.Join(parts, ":")
}

// LineCallback formats a cart-line payload with an optional variant
func LineCallback(name string, productID int64, variantID *int64) string {
	if variantID == nil {
		return BuildCallback(name, productID)
	}
	return BuildCallback(name, productID, *variantID)
}

// EventFor classifies an action for the state machine. Callbacks must be
// parsed first; cb is ignored for other kinds.
func EventFor(a Action, cb Callback) Event {
	switch a.Kind {
	case ActionText:
		return Event{Trigger: TriggerText}
	case ActionCommand:
		switch a.Command {
		case CommandStart, CommandCancel:
			return Event{Trigger: TriggerCancel}
		case CommandSearch:
			return Event{Trigger: TriggerStartSearch}
		case CommandRecommend:
			return Event{Trigger: TriggerStartRecommendation}
		}
	case ActionCallback:
		switch cb.Name {
		case CallbackMainMenu:
			return Event{Trigger: TriggerCancel}
		case CallbackStartSearch:
			return Event{Trigger: TriggerStartSearch}
		case CallbackStartSearchInCategory:
			return Event{Trigger: TriggerStartSearchInCategory, CategoryID: cb.OptionalInt(0)}
		case CallbackRecommendations:
			return Event{Trigger: TriggerStartRecommendation}
		}
	}
	return Event{Trigger: TriggerNavigate}
}
