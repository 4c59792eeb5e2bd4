// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wepieces Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/wepieces/wepieces/internal/store"
)

var _ = Describe("Migrator", Ordered, func() {
	var migrator *store.Migrator

	BeforeAll(func() {
		var err error
		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })
		Expect(migrator.Down()).To(Succeed())
	})

	It("starts empty", func() {
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())
	})

	It("applies every migration", func() {
		Expect(migrator.Up()).To(Succeed())

		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Pending).To(BeEmpty())
		Expect(status.Applied).To(Equal([]uint{1, 2}))
		Expect(status.Name).To(Equal("000002_create_notes"))
	})

	It("steps down and up again", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(1)))

		Expect(migrator.Steps(1)).To(Succeed())
		version, _, err = migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
	})

	It("rolls everything back and re-applies", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
	})

	It("creates the users table with the role check", func(ctx context.Context) {
		pool, err := store.Open(ctx, connStr)
		Expect(err).NotTo(HaveOccurred())
		defer pool.Close()

		_, err = pool.Exec(ctx,
			`INSERT INTO users (email, password_hash, role) VALUES ('role@x.com', 'h', 'root')`)
		Expect(err).To(HaveOccurred())

		var role string
		err = pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash) VALUES ('default@x.com', 'h') RETURNING role`).Scan(&role)
		Expect(err).NotTo(HaveOccurred())
		Expect(role).To(Equal("user"))
	})
})
