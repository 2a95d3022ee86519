package store_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gagyebu/internal/core"
	"gagyebu/internal/kv"
	"gagyebu/internal/kv/memory"
	"gagyebu/internal/log"
	"gagyebu/internal/storage"
	"gagyebu/internal/store"
)

// flakyKV fails every Set once broken is true.
type flakyKV struct {
	*memory.Store
	broken bool
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.broken {
		return errors.New("quota exceeded")
	}
	return f.Store.Set(ctx, key, value)
}

type brokenReader struct{ kv.Store }

func (brokenReader) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func expense(category string, amount core.Amount, date string) core.Record {
	return core.Record{Type: core.Expense, Category: category, Amount: amount, Date: core.MustParseDate(date)}
}

func storedRecords(ctx context.Context, backend kv.Store) []core.Record {
	raw, err := backend.Get(ctx, store.DefaultKeys.Records)
	Expect(err).NotTo(HaveOccurred())
	var out []core.Record
	Expect(json.Unmarshal(raw, &out)).To(Succeed())
	return out
}

var _ = Describe("Store", func() {
	var (
		ctx     context.Context
		backend *memory.Store
		logs    *bytes.Buffer
		logger  *log.Logger
		s       *store.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		backend = memory.New()
		logs = &bytes.Buffer{}
		logger = log.New(log.Config{Level: slog.LevelDebug, Output: logs})
	})

	JustBeforeEach(func() {
		if s == nil {
			s = store.New(ctx, backend, store.WithLogger(logger), store.WithIDGenerator(sequentialIDs()))
		}
	})

	AfterEach(func() {
		s = nil
	})

	Describe("loading", func() {
		It("starts empty when nothing is stored", func() {
			Expect(s.Records()).To(BeEmpty())
			Expect(s.RecurringExpenses()).To(BeEmpty())
		})

		Context("with persisted collections", func() {
			BeforeEach(func() {
				backend = memory.NewWith(map[string]string{
					"budgetRecords":     `[{"id":"a","type":"expense","category":"식비","amount":12000,"date":"2024-03-01"}]`,
					"recurringExpenses": `[{"id":"t1","category":"구독서비스","amount":9900}]`,
				})
			})

			It("restores both collections", func() {
				Expect(s.Records()).To(HaveLen(1))
				r, ok := s.Record("a")
				Expect(ok).To(BeTrue())
				Expect(r.Amount).To(Equal(core.Amount(12000)))
				Expect(r.Date.Key()).To(Equal("2024-03-01"))

				tpl, ok := s.RecurringExpense("t1")
				Expect(ok).To(BeTrue())
				Expect(tpl.Category).To(Equal("구독서비스"))
			})
		})

		Context("with malformed data", func() {
			BeforeEach(func() {
				backend = memory.NewWith(map[string]string{
					"budgetRecords":     `{not json`,
					"recurringExpenses": `   `,
				})
			})

			It("loads empty collections and warns", func() {
				Expect(s.Records()).To(BeEmpty())
				Expect(s.RecurringExpenses()).To(BeEmpty())
				Expect(logs.String()).To(ContainSubstring("Malformed collection"))
			})
		})

		Context("with entries that break invariants", func() {
			BeforeEach(func() {
				backend = memory.NewWith(map[string]string{
					"budgetRecords": `[
						{"id":"a","type":"expense","category":"식비","amount":1000,"date":"2024-03-01"},
						{"id":"a","type":"expense","category":"교통","amount":500,"date":"2024-03-02"},
						{"id":"b","type":"expense","category":"식비","amount":-5,"date":"2024-03-03"},
						{"type":"income","category":"급여","amount":300,"date":"2024-03-04"}
					]`,
					"recurringExpenses": `[{"id":"t1","category":"통신비","amount":1},{"id":"t1","category":"보험료","amount":2}]`,
				})
			})

			It("keeps the first valid entry per id and warns", func() {
				records := s.Records()
				Expect(records).To(HaveLen(2))
				Expect(records[0].ID).To(Equal("a"))
				Expect(records[0].Category).To(Equal("식비"))
				Expect(records[1].ID).To(Equal("id-1"))

				templates := s.RecurringExpenses()
				Expect(templates).To(HaveLen(1))
				Expect(templates[0].Category).To(Equal("통신비"))

				Expect(logs.String()).To(ContainSubstring("Dropping invalid entry"))
				Expect(logs.String()).To(ContainSubstring("Dropping entry with duplicate id"))
			})

			It("deletes a loaded id once and keeps sums non-negative", func() {
				Expect(s.DeleteRecord(ctx, "a")).To(BeTrue())
				Expect(s.DeleteRecord(ctx, "a")).To(BeFalse())
				Expect(s.Records()).To(HaveLen(1))
				Expect(core.Summarize(s.Records())).To(Equal(core.Summary{Income: 300, Total: 300}))
			})
		})

		Context("when the backend cannot be read", func() {
			It("loads empty collections and warns", func() {
				s = store.New(ctx, brokenReader{backend}, store.WithLogger(logger))
				Expect(s.Records()).To(BeEmpty())
				Expect(logs.String()).To(ContainSubstring("Failed to read collection"))
			})
		})

		Context("with custom keys", func() {
			BeforeEach(func() {
				backend = memory.NewWith(map[string]string{"ledger:records": `[]`})
			})

			It("reads and writes under those keys", func() {
				s = store.New(ctx, backend, store.WithKeys(store.Keys{Records: "ledger:records"}))
				_, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
				Expect(err).NotTo(HaveOccurred())
				Expect(s.Keys().Recurring).To(Equal("recurringExpenses"))

				_, err = backend.Get(ctx, "budgetRecords")
				Expect(errors.Is(err, kv.ErrNotFound)).To(BeTrue())
				raw, err := backend.Get(ctx, "ledger:records")
				Expect(err).NotTo(HaveOccurred())
				Expect(string(raw)).To(ContainSubstring("식비"))
			})
		})
	})

	Describe("AddRecord", func() {
		It("persists the new record immediately", func() {
			r, err := s.AddRecord(ctx, core.Record{
				ID: "a", Type: core.Expense, Category: "식비", Amount: 12000, Date: core.MustParseDate("2024-03-01"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(Equal("a"))

			raw, err := backend.Get(ctx, "budgetRecords")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal(`[{"id":"a","type":"expense","category":"식비","amount":12000,"date":"2024-03-01"}]`))
		})

		It("assigns an id when none is given", func() {
			r, err := s.AddRecord(ctx, expense("교통", 1500, "2024-03-02"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(Equal("id-1"))
		})

		It("skips generated ids that are already taken", func() {
			_, err := s.AddRecord(ctx, core.Record{ID: "id-1", Type: core.Income, Category: "급여", Amount: 1, Date: core.MustParseDate("2024-03-01")})
			Expect(err).NotTo(HaveOccurred())
			r, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(r.ID).To(Equal("id-2"))
		})

		It("rejects a duplicate id", func() {
			first := expense("식비", 1, "2024-03-01")
			first.ID = "dup"
			_, err := s.AddRecord(ctx, first)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.AddRecord(ctx, first)
			Expect(errors.Is(err, core.ErrDuplicateID)).To(BeTrue())
			Expect(s.Records()).To(HaveLen(1))
		})

		It("rejects records that break an invariant", func() {
			_, err := s.AddRecord(ctx, expense("식비", -1, "2024-03-01"))
			Expect(errors.Is(err, core.ErrInvalidAmount)).To(BeTrue())
			_, err = s.AddRecord(ctx, core.Record{Type: "gift", Category: "x", Date: core.MustParseDate("2024-03-01")})
			Expect(errors.Is(err, core.ErrInvalidType)).To(BeTrue())
			Expect(s.Records()).To(BeEmpty())
		})

		It("returns copies from Records", func() {
			_, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			list := s.Records()
			list[0].Amount = 999
			r, _ := s.Record("id-1")
			Expect(r.Amount).To(Equal(core.Amount(1)))
		})
	})

	Describe("UpdateRecord", func() {
		JustBeforeEach(func() {
			_, err := s.AddRecord(ctx, core.Record{ID: "a", Type: core.Expense, Category: "식비", Amount: 12000, Date: core.MustParseDate("2024-03-01"), Memo: "점심"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("merges the patch and keeps the id", func() {
			amount := core.Amount(15000)
			r, found, err := s.UpdateRecord(ctx, "a", core.RecordPatch{Amount: &amount})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(r.ID).To(Equal("a"))
			Expect(r.Amount).To(Equal(core.Amount(15000)))
			Expect(r.Memo).To(Equal("점심"))
			Expect(storedRecords(ctx, backend)[0].Amount).To(Equal(core.Amount(15000)))
		})

		It("reports an unknown id without inserting", func() {
			amount := core.Amount(1)
			_, found, err := s.UpdateRecord(ctx, "missing", core.RecordPatch{Amount: &amount})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
			Expect(s.Records()).To(HaveLen(1))
		})

		It("leaves the record untouched when the merge is invalid", func() {
			amount := core.Amount(-5)
			_, found, err := s.UpdateRecord(ctx, "a", core.RecordPatch{Amount: &amount})
			Expect(found).To(BeTrue())
			Expect(errors.Is(err, core.ErrInvalidAmount)).To(BeTrue())
			r, _ := s.Record("a")
			Expect(r.Amount).To(Equal(core.Amount(12000)))
		})

		It("runs extra checks against the merged record", func() {
			before := s.Version()
			rejected := errors.New("rejected")
			amount := core.Amount(5)
			_, found, err := s.UpdateRecord(ctx, "a", core.RecordPatch{Amount: &amount}, nil,
				func(merged core.Record) error {
					if merged.Amount == 5 {
						return rejected
					}
					return nil
				})
			Expect(found).To(BeTrue())
			Expect(errors.Is(err, rejected)).To(BeTrue())

			r, _ := s.Record("a")
			Expect(r.Amount).To(Equal(core.Amount(12000)))
			Expect(s.Version()).To(Equal(before))
		})
	})

	Describe("DeleteRecord", func() {
		It("removes the record and is idempotent", func() {
			r, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.DeleteRecord(ctx, r.ID)).To(BeTrue())
			Expect(s.Records()).To(BeEmpty())
			Expect(s.DeleteRecord(ctx, r.ID)).To(BeFalse())
			Expect(s.DeleteRecord(ctx, "never-existed")).To(BeFalse())

			raw, err := backend.Get(ctx, "budgetRecords")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(Equal("[]"))
		})

		It("bumps the version only when records change", func() {
			Expect(s.Version()).To(BeZero())
			r, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Version()).To(Equal(uint64(1)))

			Expect(s.DeleteRecord(ctx, "never-existed")).To(BeFalse())
			_, err = s.AddRecurringExpense(ctx, core.RecurringExpense{Category: "통신비", Amount: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Version()).To(Equal(uint64(1)))

			Expect(s.DeleteRecord(ctx, r.ID)).To(BeTrue())
			Expect(s.Version()).To(Equal(uint64(2)))
		})
	})

	Describe("recurring templates", func() {
		It("supports add, update and delete", func() {
			tpl, err := s.AddRecurringExpense(ctx, core.RecurringExpense{Category: "통신비", Amount: 55000})
			Expect(err).NotTo(HaveOccurred())
			Expect(tpl.ID).NotTo(BeEmpty())

			memo := "알뜰폰"
			updated, found, err := s.UpdateRecurringExpense(ctx, tpl.ID, core.RecurringPatch{Memo: &memo})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(updated.Memo).To(Equal(memo))
			Expect(updated.Amount).To(Equal(core.Amount(55000)))

			raw, err := backend.Get(ctx, "recurringExpenses")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(raw)).To(ContainSubstring("알뜰폰"))

			Expect(s.DeleteRecurringExpense(ctx, tpl.ID)).To(BeTrue())
			Expect(s.DeleteRecurringExpense(ctx, tpl.ID)).To(BeFalse())
			Expect(s.RecurringExpenses()).To(BeEmpty())
		})

		It("reports an unknown template on update", func() {
			_, found, err := s.UpdateRecurringExpense(ctx, "nope", core.RecurringPatch{})
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("rejects an empty category", func() {
			_, err := s.AddRecurringExpense(ctx, core.RecurringExpense{Amount: 1})
			Expect(errors.Is(err, core.ErrEmptyCategory)).To(BeTrue())
		})
	})

	Describe("write failures", func() {
		var flaky *flakyKV

		It("keeps the in-memory state and warns", func() {
			flaky = &flakyKV{Store: memory.New()}
			var changes []store.Change
			s = store.New(ctx, flaky,
				store.WithLogger(logger),
				store.WithNotifier(store.NotifierFunc(func(_ context.Context, c store.Change) error {
					changes = append(changes, c)
					return nil
				})))

			flaky.broken = true
			r, err := s.AddRecord(ctx, expense("식비", 12000, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Records()).To(HaveLen(1))
			Expect(logs.String()).To(ContainSubstring("Failed to persist collection"))
			Expect(changes).To(BeEmpty())

			flaky.broken = false
			Expect(s.DeleteRecord(ctx, r.ID)).To(BeTrue())
			Expect(changes).To(HaveLen(1))
		})
	})

	Describe("notifications", func() {
		It("reports each persisted mutation", func() {
			var changes []store.Change
			s = store.New(ctx, backend, store.WithNotifier(store.NotifierFunc(func(_ context.Context, c store.Change) error {
				changes = append(changes, c)
				return errors.New("broker down")
			})), store.WithLogger(logger))

			r, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			s.DeleteRecord(ctx, r.ID)

			Expect(changes).To(Equal([]store.Change{
				{Collection: store.RecordsCollection, Op: store.OpAdd, ID: r.ID, Count: 1},
				{Collection: store.RecordsCollection, Op: store.OpDelete, ID: r.ID, Count: 0},
			}))
			Expect(logs.String()).To(ContainSubstring("Change notification failed"))
		})
	})

	Describe("cancelled callers", func() {
		It("still writes the mutation through to sqlite", func() {
			repo, err := storage.NewSQLiteRepository(filepath.Join(GinkgoT().TempDir(), "ledger.db"))
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(repo.Close)

			s = store.New(ctx, repo, store.WithLogger(logger))
			cancelled, cancel := context.WithCancel(ctx)
			cancel()

			r, err := s.AddRecord(cancelled, expense("식비", 12000, "2024-03-01"))
			Expect(err).NotTo(HaveOccurred())
			Expect(logs.String()).NotTo(ContainSubstring("Failed to persist collection"))

			reloaded := store.New(ctx, repo)
			Expect(reloaded.Records()).To(Equal([]core.Record{r}))
		})
	})

	Describe("concurrent use", func() {
		It("serves reads while a notifier is slow", func() {
			started := make(chan struct{})
			release := make(chan struct{})
			s = store.New(ctx, backend, store.WithNotifier(store.NotifierFunc(func(context.Context, store.Change) error {
				close(started)
				<-release
				return nil
			})))

			added := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(added)
				_, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
				Expect(err).NotTo(HaveOccurred())
			}()
			Eventually(started).Should(BeClosed())

			read := make(chan []core.Record, 1)
			go func() { read <- s.Records() }()
			Eventually(read, "500ms").Should(Receive(HaveLen(1)))
			Expect(s.Version()).To(Equal(uint64(1)))

			close(release)
			Eventually(added).Should(BeClosed())
		})

		It("serializes mutations", func() {
			var wg sync.WaitGroup
			s = store.New(ctx, backend)
			for i := 0; i < 50; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					_, err := s.AddRecord(ctx, expense("식비", 1, "2024-03-01"))
					Expect(err).NotTo(HaveOccurred())
				}()
			}
			wg.Wait()
			Expect(s.Records()).To(HaveLen(50))
			Expect(storedRecords(ctx, backend)).To(HaveLen(50))
		})
	})

	Describe("a full session", func() {
		It("survives a reload", func() {
			_, err := s.AddRecord(ctx, core.Record{ID: "a", Type: core.Expense, Category: "식비", Amount: 12000, Date: core.MustParseDate("2024-03-01")})
			Expect(err).NotTo(HaveOccurred())
			_, err = s.AddRecurringExpense(ctx, core.RecurringExpense{ID: "t1", Category: "구독서비스", Amount: 9900})
			Expect(err).NotTo(HaveOccurred())

			reloaded := store.New(ctx, backend)
			Expect(reloaded.Records()).To(Equal(s.Records()))
			Expect(reloaded.RecurringExpenses()).To(Equal(s.RecurringExpenses()))
		})
	})
})
