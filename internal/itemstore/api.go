package itemstore

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fulldump/box"

	"duallist/internal/domain"
)

// Build wires the store's HTTP API
func Build(s *Store) *box.B {

	b := box.NewBox()
	b.WithInterceptors(
		box.SetResponseHeader("Content-Type", "application/json"),
		injectStore(s),
	)

	b.Resource("/items").
		WithActions(
			box.Get(listItems),
		)

	b.Resource("/selected").
		WithActions(
			box.Get(listSelected),
		)

	b.Resource("/select").
		WithActions(
			box.Post(selectItem),
		)

	b.Resource("/add").
		WithActions(
			box.Post(addItem),
		)

	b.Resource("/reorder").
		WithActions(
			box.Post(reorder),
		)

	b.Resource("/tickets/{ticket}").
		WithActions(
			box.Get(getTicket),
		)

	return b
}

type storeKey struct{}

func injectStore(s *Store) box.I {
	return func(next box.H) box.H {
		return func(ctx context.Context) {
			next(context.WithValue(ctx, storeKey{}, s))
		}
	}
}

func getStore(ctx context.Context) *Store {
	return ctx.Value(storeKey{}).(*Store)
}

// paramError is a malformed query parameter
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return "invalid value '" + e.value + "' for " + e.name
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, &paramError{name: name, value: raw}
	}
	return n, nil
}

func pageParams(r *http.Request) (offset, limit int, err error) {
	if offset, err = intParam(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = intParam(r, "limit", DefaultLimit); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func listItems(ctx context.Context, r *http.Request) (*domain.Page, error) {
	offset, limit, err := pageParams(r)
	if err != nil {
		return nil, err
	}
	page := getStore(ctx).ListItems(r.URL.Query().Get("filter"), offset, limit)
	return &page, nil
}

func listSelected(ctx context.Context, r *http.Request) (*domain.Page, error) {
	offset, limit, err := pageParams(r)
	if err != nil {
		return nil, err
	}
	page := getStore(ctx).ListSelected(offset, limit)
	return &page, nil
}

type idRequest struct {
	ID int `json:"id"`
}

type acceptedResponse struct {
	ID     int    `json:"id"`
	Ticket string `json:"ticket,omitempty"`
}

func selectItem(ctx context.Context, w http.ResponseWriter, input *idRequest) (*acceptedResponse, error) {
	if err := getStore(ctx).Select(input.ID); err != nil {
		return nil, err
	}
	w.WriteHeader(http.StatusAccepted)
	return &acceptedResponse{ID: input.ID}, nil
}

func addItem(ctx context.Context, w http.ResponseWriter, input *idRequest) (*acceptedResponse, error) {
	t, err := getStore(ctx).Add(input.ID)
	if err != nil {
		return nil, err
	}
	w.WriteHeader(http.StatusAccepted)
	return &acceptedResponse{ID: input.ID, Ticket: t.ID}, nil
}

type reorderRequest struct {
	NewOrder []int `json:"newOrder"`
}

type reorderResponse struct {
	Selected []int `json:"selected"`
}

func reorder(ctx context.Context, input *reorderRequest) (*reorderResponse, error) {
	s := getStore(ctx)
	if err := s.Reorder(input.NewOrder); err != nil {
		return nil, err
	}
	return &reorderResponse{Selected: s.Selected()}, nil
}

func getTicket(ctx context.Context) (*Ticket, error) {
	t, err := getStore(ctx).Ticket(box.GetUrlParameter(ctx, "ticket"))
	if err != nil {
		return nil, err
	}
	return &t, nil
}
