// Package states manages the task states that form the board's columns.
package states

import (
	"context"
	"sort"

	"github.com/jrsteele09/go-tareas-client/apiclient"
)

const basePath = "/api/tareas/estados"

type State struct {
	ID        string `json:"ID"`
	Name      string `json:"NOMBRE"`
	Color     string `json:"COLOR"`
	Order     int    `json:"ORDEN"`
	IsDefault bool   `json:"ES_DEFECTO"`
	Active    bool   `json:"ESTA_ACTIVO"`
}

type SaveRequest struct {
	Name  string `json:"nombre,omitempty"`
	Color string `json:"color,omitempty"`
}

type Service struct {
	client *apiclient.Client
}

func New(client *apiclient.Client) *Service {
	return &Service{client: client}
}

func (s *Service) List(ctx context.Context) (*apiclient.Envelope[[]State], error) {
	return apiclient.Get[[]State](ctx, s.client, basePath, nil)
}

func (s *Service) Create(ctx context.Context, req SaveRequest) (*apiclient.Envelope[apiclient.IDResult], error) {
	return apiclient.Post[apiclient.IDResult](ctx, s.client, basePath, req)
}

func (s *Service) Update(ctx context.Context, id string, req SaveRequest) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Put[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id), req)
}

func (s *Service) Delete(ctx context.Context, id string) (*apiclient.Envelope[apiclient.Nothing], error) {
	return apiclient.Delete[apiclient.Nothing](ctx, s.client, apiclient.Join(basePath, id))
}

// ActiveOrdered returns the active states sorted by their board order.
func ActiveOrdered(all []State) []State {
	out := make([]State, 0, len(all))
	for _, st := range all {
		if st.Active {
			out = append(out, st)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}
