// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package world

import (
	"strings"

	"github.com/samber/oops"
)

// ReturnValue is the outcome of a holder query or transaction.
// Legality failures are reported as values, never as errors or panics.
type ReturnValue uint8

// Return values reported by holders and world transactions.
const (
	NoError ReturnValue = iota
	NotPossible
	NotEnoughRoom
	ContainerNotEnoughRoom
	CannotPickup
	ThisIsImpossible
	NotMovable
	NotEnoughCapacity
	CannotBeDressed
	TileFull
)

var returnValueNames = [...]string{
	NoError:                "no_error",
	NotPossible:            "not_possible",
	NotEnoughRoom:          "not_enough_room",
	ContainerNotEnoughRoom: "container_not_enough_room",
	CannotPickup:           "cannot_pickup",
	ThisIsImpossible:       "this_is_impossible",
	NotMovable:             "not_movable",
	NotEnoughCapacity:      "not_enough_capacity",
	CannotBeDressed:        "cannot_be_dressed",
	TileFull:               "tile_full",
}

// String returns a stable snake_case name, suitable for metric labels.
func (r ReturnValue) String() string {
	if int(r) < len(returnValueNames) {
		return returnValueNames[r]
	}
	return "unknown"
}

// OK reports whether r is NoError.
func (r ReturnValue) OK() bool {
	return r == NoError
}

// Code returns the oops error code for r, e.g. RV_NOT_MOVABLE.
func (r ReturnValue) Code() string {
	return "RV_" + strings.ToUpper(r.String())
}

// Err converts a failure into an error for layers that propagate errors.
// It returns nil for NoError.
func (r ReturnValue) Err() error {
	if r == NoError {
		return nil
	}
	return oops.Code(r.Code()).With("return_value", r.String()).Errorf("%s", strings.ReplaceAll(r.String(), "_", " "))
}
