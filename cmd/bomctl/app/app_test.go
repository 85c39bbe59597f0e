// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and IronCore contributors
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ironcore-dev/bomcheck/api/v1alpha1"
	"github.com/ironcore-dev/bomcheck/internal/bom"
	"github.com/ironcore-dev/bomcheck/internal/history"
)

var _ = Describe("bomctl", func() {
	It("should compare versions", func(ctx SpecContext) {
		out, err := execute(ctx, "version", "compare", "1.9", "1.10")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("1.9 is older than 1.10\n"))

		out, err = execute(ctx, "version", "compare", "2.0", "2.0")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("2.0 is equal to 2.0\n"))
	})

	It("should build a snapshot from a grid export and summarize it", func(ctx SpecContext) {
		dir := GinkgoT().TempDir()
		out, _ := execute(ctx, "bom", "build", filepath.Join("..", "..", "..", "internal", "bom", "testdata", "release.yaml"),
			"--snapshot-dir", dir)
		snapshot := bom.SnapshotPath(dir, "SP182")
		Expect(out).To(ContainSubstring("Wrote " + snapshot))
		Expect(snapshot).To(BeAnExistingFile())

		out, err := execute(ctx, "bom", "show", snapshot)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("release: SP182"))
		Expect(out).To(ContainSubstring("type: SP"))
		Expect(out).To(ContainSubstring("win2016.0 x64"))
	})

	It("should back up an existing snapshot on rebuild", func(ctx SpecContext) {
		dir := GinkgoT().TempDir()
		grid := filepath.Join("..", "..", "..", "internal", "bom", "testdata", "release.yaml")
		_, _ = execute(ctx, "bom", "build", grid, "--snapshot-dir", dir)
		out, _ := execute(ctx, "bom", "build", grid, "--snapshot-dir", dir)
		Expect(out).To(ContainSubstring("Backed up previous snapshot to "))
	})

	It("should list and delete saved builds", func(ctx SpecContext) {
		path := filepath.Join(GinkgoT().TempDir(), v1alpha1.HistoryFileName)
		store := history.NewStore(path)
		date := time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)
		for _, b := range []string{"101", "99", "100"} {
			Expect(store.Put(v1alpha1.SavedBuildRecord{
				Build:       b,
				ReleaseDate: date,
				JarData: map[string]v1alpha1.VerificationContext{
					"rhel7": {Class: "dd", Version: "2.1", SubVersion: b},
				},
			})).To(Succeed())
		}

		out, err := execute(ctx, "history", "list", "--history", path)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(MatchRegexp(`(?s)BUILD.*\n99 .*\n100 .*\n101 `))
		Expect(out).To(ContainSubstring("2025-05-06"))
		Expect(out).To(ContainSubstring("rhel7=2.1-100"))

		out, err = execute(ctx, "history", "delete", "100", "--history", path)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("Deleted build 100\n"))

		saved, err := store.Load()
		Expect(err).NotTo(HaveOccurred())
		Expect(saved).To(HaveLen(2))
		Expect(saved).NotTo(HaveKey("100"))

		_, err = execute(ctx, "history", "delete", "100", "--history", path)
		Expect(err).To(MatchError(history.ErrBuildNotFound))
	})

	It("should refuse to verify without archives", func(ctx SpecContext) {
		dir := GinkgoT().TempDir()
		snapshot, _, err := bom.Save(dir, &v1alpha1.ReleaseBOM{Release: "SP182", Type: "SP"}, time.Now())
		Expect(err).NotTo(HaveOccurred())

		_, err = execute(ctx, "verify", "--bom", snapshot, "--dir", dir)
		Expect(err).To(MatchError(ContainSubstring("no archives to verify")))
	})

	It("should require a BOM snapshot to verify", func(ctx SpecContext) {
		_, err := execute(ctx, "verify", "some.jar")
		Expect(err).To(MatchError(ContainSubstring(`required flag(s) "bom" not set`)))
	})
})
