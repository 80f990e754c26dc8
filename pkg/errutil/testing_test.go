// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/holomush/itemcore/pkg/errutil"
)

func TestAssertErrorCode(t *testing.T) {
	err := oops.Code("LOOT_PARSE").Errorf("unexpected token")
	errutil.AssertErrorCode(t, err, "LOOT_PARSE")
	errutil.AssertErrorCode(t, oops.With("text", "3x").Wrap(err), "LOOT_PARSE")
}

func TestAssertErrorContext(t *testing.T) {
	err := oops.With("player_id", "p1").Errorf("not online")
	errutil.AssertErrorContext(t, err, "player_id", "p1")
}
