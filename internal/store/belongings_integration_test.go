// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/itemcore/internal/itemtype"
	"github.com/holomush/itemcore/internal/persist"
	"github.com/holomush/itemcore/internal/store"
	"github.com/holomush/itemcore/internal/world"
)

var _ = Describe("BelongingsStore", func() {
	var (
		ctx     context.Context
		bs      *store.BelongingsStore
		closeDB func()
		cleanup func()
		w       *world.World
	)

	BeforeEach(func() {
		ctx = context.Background()
		var dsn string
		dsn, cleanup = startPostgres(ctx)

		m, err := store.NewMigrator(dsn)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Up()).To(Succeed())
		Expect(m.Close()).To(Succeed())

		bs, closeDB, err = store.Open(ctx, dsn)
		Expect(err).NotTo(HaveOccurred())

		reg, err := itemtype.New([]itemtype.Type{
			{ID: 1, Name: "coin", Weight: 0.1, Stackable: true, Pickupable: true},
			{ID: 2, Name: "backpack", Weight: 18, Pickupable: true, Container: true, Capacity: 20, Slot: itemtype.SlotBackpack},
			{ID: 3, Name: "helmet", Weight: 30, Pickupable: true, Slot: itemtype.SlotHead},
		})
		Expect(err).NotTo(HaveOccurred())
		w, err = world.New(reg)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		closeDB()
		cleanup()
	})

	It("round-trips a creature's equipment", func() {
		owner := w.NewCreature("p1", "Ann", 400)
		backpack, err := w.CreateItem(2, 1)
		Expect(err).NotTo(HaveOccurred())
		coins, err := w.CreateItem(1, 75)
		Expect(err).NotTo(HaveOccurred())
		backpack.Container().AddItemBack(coins)
		Expect(owner.Equipment().Restore(world.SlotBackpack, backpack)).To(Succeed())
		helmet, err := w.CreateItem(3, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(owner.Equipment().Restore(world.SlotHead, helmet)).To(Succeed())

		Expect(bs.EnsureOwner(ctx, "p1", "Ann")).To(Succeed())
		saved := persist.SnapshotEquipment(owner.Equipment())
		Expect(bs.SaveBelongings(ctx, "p1", saved)).To(Succeed())

		loaded, err := bs.LoadBelongings(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(saved))

		fresh, err := world.New(w.Types())
		Expect(err).NotTo(HaveOccurred())
		again := fresh.NewCreature("p1", "Ann", 400)
		Expect(persist.RestoreEquipment(fresh, again.Equipment(), loaded)).To(Succeed())
		Expect(again.Equipment().Weight()).To(BeNumerically("~", owner.Equipment().Weight(), 1e-9))
	})

	It("replaces earlier saves", func() {
		Expect(bs.EnsureOwner(ctx, "p1", "Ann")).To(Succeed())
		first := map[world.EquipSlot]persist.Node{world.SlotHead: {TypeID: 3, Count: 1}}
		Expect(bs.SaveBelongings(ctx, "p1", first)).To(Succeed())
		Expect(bs.SaveBelongings(ctx, "p1", nil)).To(Succeed())

		loaded, err := bs.LoadBelongings(ctx, "p1")
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(BeEmpty())
	})

	It("rejects unknown owners", func() {
		roots := map[world.EquipSlot]persist.Node{world.SlotHead: {TypeID: 3, Count: 1}}
		err := bs.SaveBelongings(ctx, "ghost", roots)
		Expect(err).To(MatchError(store.ErrOwnerUnknown))
	})
})
