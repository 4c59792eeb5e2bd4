// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

//go:build integration

package store_test

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/wepieces/wepieces/internal/store"
)

var _ = Describe("NoteRepository", Ordered, func() {
	var (
		pool  *pgxpool.Pool
		notes *store.NoteRepository
	)

	BeforeAll(func(ctx context.Context) {
		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		pool, err = store.Open(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(pool.Close)

		notes = store.NewNoteRepository(pool)
	})

	BeforeEach(func(ctx context.Context) {
		_, err := pool.Exec(ctx, `DELETE FROM notes`)
		Expect(err).NotTo(HaveOccurred())
	})

	It("lists inserted notes by title", func(ctx context.Context) {
		_, err := notes.Insert(ctx, "zebra")
		Expect(err).NotTo(HaveOccurred())
		first, err := notes.Insert(ctx, "apple")
		Expect(err).NotTo(HaveOccurred())

		list, err := notes.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list[0]).To(Equal(first))
		Expect(list[1].Title).To(Equal("zebra"))
	})

	It("rejects a duplicate title", func(ctx context.Context) {
		_, err := notes.Insert(ctx, "once")
		Expect(err).NotTo(HaveOccurred())

		_, err = notes.Insert(ctx, "once")
		Expect(err).To(MatchError(store.ErrDuplicate))
	})

	It("returns an empty list", func(ctx context.Context) {
		list, err := notes.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(BeEmpty())
	})
})
