// Package importer parses bulk shopping-list payloads and feeds them into
// the façade. Three historical JSON shapes are accepted; the shape is
// detected once at the boundary and converted into one canonical form
// before anything touches the store.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"shoplist/internal/client/models"
	"shoplist/internal/client/services"
	"shoplist/internal/common"
)

// Shape tags the accepted payload variants.
type Shape int

const (
	// ShapeUnknown is returned alongside an error for unparseable input.
	ShapeUnknown Shape = iota

	// ShapeSingleList is one list object with an inline items array.
	ShapeSingleList

	// ShapeListArray is a top-level array of list objects.
	ShapeListArray

	// ShapeWrappedLists is an envelope object: {"lists": [...]}.
	ShapeWrappedLists
)

func (s Shape) String() string {
	switch s {
	case ShapeSingleList:
		return "single-list"
	case ShapeListArray:
		return "list-array"
	case ShapeWrappedLists:
		return "wrapped-lists"
	default:
		return "unknown"
	}
}

// ListPayload is the canonical imported list.
type ListPayload struct {
	Name          string        `json:"name"`
	Description   string        `json:"description,omitempty"`
	CategoryOrder []string      `json:"category_order,omitempty"`
	Items         []ItemPayload `json:"items,omitempty"`
}

// ItemPayload is the canonical imported item.
type ItemPayload struct {
	Name     string  `json:"name"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`
	Category string  `json:"category,omitempty"`
	Notes    string  `json:"notes,omitempty"`
	Checked  bool    `json:"is_checked,omitempty"`
}

type envelope struct {
	Lists []ListPayload `json:"lists"`
}

// DetectShape classifies raw without fully decoding it.
func DetectShape(raw []byte) (Shape, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ShapeUnknown, fmt.Errorf("%w: empty import payload", common.ErrValidation)
	}

	switch trimmed[0] {
	case '[':
		return ShapeListArray, nil
	case '{':
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return ShapeUnknown, fmt.Errorf("%w: malformed import payload: %v", common.ErrValidation, err)
		}
		if _, ok := probe["lists"]; ok {
			return ShapeWrappedLists, nil
		}
		if _, ok := probe["name"]; ok {
			return ShapeSingleList, nil
		}
		return ShapeUnknown, fmt.Errorf("%w: object is neither a list nor a lists envelope", common.ErrValidation)
	default:
		return ShapeUnknown, fmt.Errorf("%w: import payload must be a JSON object or array", common.ErrValidation)
	}
}

// Parse detects the shape and returns the canonical list sequence.
func Parse(raw []byte) ([]ListPayload, error) {
	shape, err := DetectShape(raw)
	if err != nil {
		return nil, err
	}

	switch shape {
	case ShapeSingleList:
		var l ListPayload
		if err := json.Unmarshal(raw, &l); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		return []ListPayload{l}, nil
	case ShapeListArray:
		var ls []ListPayload
		if err := json.Unmarshal(raw, &ls); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		return ls, nil
	default:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		return env.Lists, nil
	}
}

// Result counts what an import created.
type Result struct {
	Lists int
	Items int
}

// Importer turns parsed payloads into façade calls.
type Importer struct {
	lists services.ListService
	items services.ItemService
}

// New constructs an Importer over the two façades.
func New(lists services.ListService, items services.ItemService) *Importer {
	return &Importer{lists: lists, items: items}
}

// Import parses raw and creates every list with its items. Lists go through
// the regular create routing; items go through CreateMany, so a large
// import lands locally first and syncs in the background.
func (im *Importer) Import(ctx context.Context, raw []byte) (*Result, error) {
	payloads, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, p := range payloads {
		if p.Name == "" {
			return res, fmt.Errorf("%w: imported list requires a name", common.ErrValidation)
		}

		created, err := im.lists.Create(ctx, models.List{
			Name:          p.Name,
			Description:   p.Description,
			CategoryOrder: p.CategoryOrder,
		})
		if err != nil {
			return res, fmt.Errorf("import list %q: %w", p.Name, err)
		}
		res.Lists++

		if len(p.Items) == 0 {
			continue
		}
		batch := make([]models.Item, 0, len(p.Items))
		for _, ip := range p.Items {
			batch = append(batch, models.Item{
				ListID:   created.ID,
				Name:     ip.Name,
				Amount:   ip.Amount,
				Unit:     models.Unit(ip.Unit),
				Category: ip.Category,
				Notes:    ip.Notes,
				Checked:  ip.Checked,
			})
		}
		out, err := im.items.CreateMany(ctx, batch)
		if err != nil {
			return res, fmt.Errorf("import items of %q: %w", p.Name, err)
		}
		res.Items += len(out)
	}
	return res, nil
}
