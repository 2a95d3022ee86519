package services_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gagyebu/internal/core"
	"gagyebu/internal/kv/memory"
	"gagyebu/internal/query"
	"gagyebu/internal/services"
	"gagyebu/internal/store"
)

var _ = Describe("RecordService", func() {
	var (
		ctx    context.Context
		ledger *store.Store
		svc    *services.RecordService
	)

	BeforeEach(func() {
		ctx = context.Background()
		ledger = store.New(ctx, memory.New())
		registry, err := core.ResolveRegistry("v1", nil)
		Expect(err).NotTo(HaveOccurred())
		svc = services.NewRecordService(ledger, registry, nil)
	})

	Describe("Create", func() {
		It("stores a record whose category belongs to its type", func() {
			r, err := svc.Create(ctx, core.Record{Type: core.Expense, Category: "식비", Amount: 12000, Date: core.MustParseDate("2024-03-01")})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).NotTo(BeEmpty())
			Expect(ledger.Records()).To(HaveLen(1))
		})

		It("rejects a category from the other type", func() {
			_, err := svc.Create(ctx, core.Record{Type: core.Income, Category: "식비", Amount: 1, Date: core.MustParseDate("2024-03-01")})
			Expect(errors.Is(err, core.ErrUnknownCategory)).To(BeTrue())

			var verr *core.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(verr.Field).To(Equal("category"))
			Expect(ledger.Records()).To(BeEmpty())
		})

		It("passes store invariant errors through", func() {
			_, err := svc.Create(ctx, core.Record{Type: core.Expense, Category: "식비", Amount: -1, Date: core.MustParseDate("2024-03-01")})
			Expect(errors.Is(err, core.ErrInvalidAmount)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var legacy core.Record

		BeforeEach(func() {
			var err error
			// saved under a registry that no longer lists the category
			legacy, err = ledger.AddRecord(ctx, core.Record{Type: core.Expense, Category: "카페/간식", Amount: 4500, Date: core.MustParseDate("2024-03-01")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("allows amount edits on records with a retired category", func() {
			amount := core.Amount(5000)
			r, err := svc.Update(ctx, legacy.ID, core.RecordPatch{Amount: &amount})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Amount).To(Equal(amount))
			Expect(r.Category).To(Equal("카페/간식"))
		})

		It("checks the category when the patch changes it", func() {
			cat := "없는분류"
			_, err := svc.Update(ctx, legacy.ID, core.RecordPatch{Category: &cat})
			Expect(errors.Is(err, core.ErrUnknownCategory)).To(BeTrue())

			cat = "식비"
			r, err := svc.Update(ctx, legacy.ID, core.RecordPatch{Category: &cat})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Category).To(Equal("식비"))
		})

		It("checks the category when only the type changes", func() {
			t := core.Income
			_, err := svc.Update(ctx, legacy.ID, core.RecordPatch{Type: &t})
			Expect(errors.Is(err, core.ErrUnknownCategory)).To(BeTrue())
		})

		It("reports unknown ids", func() {
			amount := core.Amount(1)
			_, err := svc.Update(ctx, "missing", core.RecordPatch{Amount: &amount})
			Expect(errors.Is(err, services.ErrRecordNotFound)).To(BeTrue())
			Expect(ledger.Records()).To(HaveLen(1))
		})
	})

	Describe("Delete", func() {
		It("is idempotent", func() {
			r, err := svc.Create(ctx, core.Record{Type: core.Income, Category: "급여", Amount: 1, Date: core.MustParseDate("2024-03-01")})
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.Delete(ctx, r.ID)).To(BeTrue())
			Expect(svc.Delete(ctx, r.ID)).To(BeFalse())
			_, err = svc.Get(r.ID)
			Expect(errors.Is(err, services.ErrRecordNotFound)).To(BeTrue())
		})
	})

	Describe("View", func() {
		BeforeEach(func() {
			for _, r := range []core.Record{
				{Type: core.Income, Category: "급여", Amount: 5000, Date: core.MustParseDate("2024-01-10")},
				{Type: core.Expense, Category: "쇼핑", Amount: 3000, Date: core.MustParseDate("2024-02-10")},
				{Type: core.Expense, Category: "식비", Amount: 12000, Date: core.MustParseDate("2023-03-01")},
			} {
				_, err := svc.Create(ctx, r)
				Expect(err).NotTo(HaveOccurred())
			}
		})

		It("summarizes the year view", func() {
			v, err := svc.View(query.Params{Mode: query.Year, Selected: core.MustParseDate("2024-06-01")}, core.MustParseDate("2024-06-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Label).To(Equal("2024년"))
			Expect(v.Records).To(HaveLen(2))
			Expect(v.Records[0].Category).To(Equal("쇼핑"))
			Expect(v.Summary).To(Equal(core.Summary{Income: 5000, Expense: 3000, Total: 2000}))
			Expect(v.TopCategories).To(Equal([]core.CategoryAmount{{Name: "쇼핑", Amount: 3000, Percent: 100}}))
		})

		It("returns an empty day view", func() {
			today := core.MustParseDate("2024-03-02")
			v, err := svc.View(query.Params{Mode: query.Day, Selected: today}, today)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Label).To(Equal("오늘"))
			Expect(v.Records).To(BeEmpty())
			Expect(v.Summary).To(Equal(core.Summary{}))
			Expect(v.TopCategories).To(BeEmpty())
			Expect(v.Previous).To(Equal(core.MustParseDate("2024-03-01")))
			Expect(v.HasNext).To(BeFalse())
		})

		It("allows moving forward from a past month", func() {
			v, err := svc.View(query.Params{Mode: query.Month, Selected: core.MustParseDate("2024-01-31")}, core.MustParseDate("2024-03-02"))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Label).To(Equal("2024년 1월"))
			Expect(v.Next).To(Equal(core.MustParseDate("2024-02-29")))
			Expect(v.HasNext).To(BeTrue())
		})

		It("rejects unknown modes", func() {
			_, err := svc.View(query.Params{Mode: "week"}, core.MustParseDate("2024-03-02"))
			Expect(errors.Is(err, query.ErrInvalidViewMode)).To(BeTrue())
		})

		It("builds monthly stats", func() {
			ov := svc.Stats(2024, 2)
			Expect(ov.Summary.Expense).To(Equal(core.Amount(3000)))
			Expect(ov.ByCategory).To(HaveLen(1))
		})

		It("reuses month stats until the ledger changes", func() {
			first := svc.Stats(2024, 2)
			Expect(svc.Stats(2024, 2)).To(Equal(first))
			Expect(svc.CacheStats().Hits).To(Equal(uint64(1)))

			_, err := svc.Create(ctx, core.Record{Type: core.Expense, Category: "교통", Amount: 1250, Date: core.MustParseDate("2024-02-10")})
			Expect(err).NotTo(HaveOccurred())

			ov := svc.Stats(2024, 2)
			Expect(ov.Summary.Expense).To(Equal(first.Summary.Expense + 1250))
			Expect(ov.ByCategory).To(HaveLen(2))
		})
	})

	Describe("recurring templates", func() {
		It("accepts only recurring categories", func() {
			_, err := svc.CreateRecurring(ctx, core.RecurringExpense{Category: "식비", Amount: 1})
			Expect(errors.Is(err, core.ErrUnknownCategory)).To(BeTrue())

			tpl, err := svc.CreateRecurring(ctx, core.RecurringExpense{Category: "구독서비스", Amount: 9900})
			Expect(err).NotTo(HaveOccurred())
			Expect(svc.ListRecurring()).To(HaveLen(1))

			bad := "교통"
			_, err = svc.UpdateRecurring(ctx, tpl.ID, core.RecurringPatch{Category: &bad})
			Expect(errors.Is(err, core.ErrUnknownCategory)).To(BeTrue())

			amount := core.Amount(10900)
			updated, err := svc.UpdateRecurring(ctx, tpl.ID, core.RecurringPatch{Amount: &amount})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Amount).To(Equal(amount))

			_, err = svc.UpdateRecurring(ctx, "missing", core.RecurringPatch{Amount: &amount})
			Expect(errors.Is(err, services.ErrTemplateNotFound)).To(BeTrue())

			Expect(svc.DeleteRecurring(ctx, tpl.ID)).To(BeTrue())
			Expect(svc.DeleteRecurring(ctx, tpl.ID)).To(BeFalse())
		})
	})
})
