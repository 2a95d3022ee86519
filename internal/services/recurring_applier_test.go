package services_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gagyebu/internal/core"
	"gagyebu/internal/kv/memory"
	"gagyebu/internal/services"
	"gagyebu/internal/store"
)

// failingLedger rejects additions for one category.
type failingLedger struct {
	*store.Store
	reject string
}

func (f *failingLedger) AddRecord(ctx context.Context, r core.Record) (core.Record, error) {
	if r.Category == f.reject {
		return core.Record{}, errors.New("rejected")
	}
	return f.Store.AddRecord(ctx, r)
}

var _ = Describe("RecurringApplier", func() {
	var (
		ctx     context.Context
		ledger  *store.Store
		applier *services.RecurringApplier
		target  core.Date
	)

	BeforeEach(func() {
		ctx = context.Background()
		ledger = store.New(ctx, memory.New())
		applier = services.NewRecurringApplier(ledger, nil)
		target = core.MustParseDate("2024-03-25")
	})

	It("creates an expense record from a template", func() {
		tpl := core.RecurringExpense{ID: "t1", Category: "구독서비스", Amount: 9900, Memo: "넷플릭스"}

		r, err := applier.ApplyOne(ctx, tpl, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.ID).NotTo(BeEmpty())
		Expect(r.ID).NotTo(Equal(tpl.ID))
		Expect(r.Type).To(Equal(core.Expense))
		Expect(r.Category).To(Equal("구독서비스"))
		Expect(r.Amount).To(Equal(core.Amount(9900)))
		Expect(r.Memo).To(Equal("넷플릭스"))
		Expect(r.Date.Key()).To(Equal("2024-03-25"))
		Expect(ledger.Records()).To(ConsistOf(r))
	})

	It("creates a new record each time it is applied", func() {
		tpl := core.RecurringExpense{ID: "t1", Category: "통신비", Amount: 55000}
		first, err := applier.ApplyOne(ctx, tpl, target)
		Expect(err).NotTo(HaveOccurred())
		second, err := applier.ApplyOne(ctx, tpl, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.ID).NotTo(Equal(second.ID))
		Expect(ledger.Records()).To(HaveLen(2))
	})

	It("requires a target date", func() {
		_, err := applier.ApplyOne(ctx, core.RecurringExpense{Category: "저축", Amount: 1}, core.Date{})
		Expect(errors.Is(err, core.ErrInvalidDate)).To(BeTrue())
		Expect(ledger.Records()).To(BeEmpty())
	})

	It("applies all templates independently", func() {
		f := &failingLedger{Store: ledger, reject: "보험료"}
		applier = services.NewRecurringApplier(f, nil)

		created, err := applier.ApplyAll(ctx, []core.RecurringExpense{
			{ID: "rent", Category: "주거비", Amount: 500000},
			{ID: "ins", Category: "보험료", Amount: 80000},
			{ID: "save", Category: "저축", Amount: 100000},
		}, target)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("ins"))
		Expect(created).To(HaveLen(2))
		Expect(ledger.Records()).To(HaveLen(2))
	})

	It("applies a stored template by id", func() {
		tpl, err := ledger.AddRecurringExpense(ctx, core.RecurringExpense{Category: "구독서비스", Amount: 9900})
		Expect(err).NotTo(HaveOccurred())

		r, err := applier.ApplyByID(ctx, tpl.ID, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Amount).To(Equal(core.Amount(9900)))

		_, err = applier.ApplyByID(ctx, "missing", target)
		Expect(errors.Is(err, services.ErrTemplateNotFound)).To(BeTrue())

		created, err := applier.ApplyStored(ctx, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(created).To(HaveLen(1))
		Expect(ledger.RecurringExpenses()).To(HaveLen(1))
	})
})
