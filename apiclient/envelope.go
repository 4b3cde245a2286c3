package apiclient

import "encoding/json"

// Envelope is the uniform wrapper both backends put around every response.
// The JSON names are the backend's wire contract and must not change.
type Envelope[T any] struct {
	Success   bool     `json:"exito"`
	Message   string   `json:"mensaje"`
	Data      *T       `json:"datos"`
	Errors    []string `json:"errores,omitempty"`
	Timestamp string   `json:"marca_tiempo"`
}

// Page is the paginated list shape used by the users and audit endpoints.
type Page[T any] struct {
	Records    []T `json:"registros"`
	Total      int `json:"total"`
	Page       int `json:"pagina"`
	PerPage    int `json:"por_pagina"`
	TotalPages int `json:"total_paginas"`
}

// Nothing is the payload type of endpoints that answer with "datos": null.
type Nothing struct{}

// IDResult is the payload of create endpoints.
type IDResult struct {
	ID string `json:"id"`
}

// RawEnvelope keeps the payload undecoded.
type RawEnvelope = Envelope[json.RawMessage]
