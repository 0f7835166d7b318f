// Package tui provides an interactive ask loop for tutor in the terminal.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/tutor/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI talks to.
type Ports struct {
	// Answer produces grounded answers. Required.
	Answer driving.AnswerService

	// TOC lists the sections of a collection. Optional; the table of
	// contents view reports it as unavailable when nil.
	TOC driving.TOCService

	// CollectionID is the book questions are asked against.
	// Empty selects the default collection.
	CollectionID string
}

// NewPorts creates a Ports aggregate for the given collection.
func NewPorts(answer driving.AnswerService, toc driving.TOCService, collectionID string) *Ports {
	return &Ports{
		Answer:       answer,
		TOC:          toc,
		CollectionID: collectionID,
	}
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
