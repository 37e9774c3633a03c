package interaction

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/garyjia/budget-approval/internal/domain/entity"
)

var _ = Describe("BoltStore", func() {
	var (
		ctx    context.Context
		dbPath string
		store  *BoltStore
		key    entity.InteractionKey
	)

	BeforeEach(func() {
		ctx = context.Background()
		dbPath = filepath.Join(GinkgoT().TempDir(), "interactions.db")
		var err error
		store, err = NewBoltStore(dbPath, zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		key = entity.InteractionKey{RecordID: 12, Department: entity.DepartmentHead}
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("Get", func() {
		When("nothing was saved", func() {
			It("returns nil without error", func() {
				p, err := store.Get(ctx, key)
				Expect(err).NotTo(HaveOccurred())
				Expect(p).To(BeNil())
			})
		})
	})

	Describe("Save", func() {
		BeforeEach(func() {
			Expect(store.Save(ctx, entity.PendingInteraction{
				RecordID:   12,
				Department: entity.DepartmentHead,
				Messages:   []entity.MessageRef{{ChatID: "oc_1", MessageID: "om_1"}},
			})).To(Succeed())
		})

		It("stores the messages under the key", func() {
			p, err := store.Get(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).NotTo(BeNil())
			Expect(p.Messages).To(ConsistOf(entity.MessageRef{ChatID: "oc_1", MessageID: "om_1"}))
		})

		When("saving again for the same key", func() {
			BeforeEach(func() {
				Expect(store.Save(ctx, entity.PendingInteraction{
					RecordID:   12,
					Department: entity.DepartmentHead,
					Messages:   []entity.MessageRef{{ChatID: "oc_2", MessageID: "om_2"}},
				})).To(Succeed())
			})

			It("appends instead of replacing", func() {
				p, err := store.Get(ctx, key)
				Expect(err).NotTo(HaveOccurred())
				Expect(p.Messages).To(HaveLen(2))
				Expect(p.Messages[1].MessageID).To(Equal("om_2"))
			})
		})

		It("keeps departments apart", func() {
			p, err := store.Get(ctx, entity.InteractionKey{RecordID: 12, Department: entity.DepartmentFinance})
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNil())
		})

		It("survives reopening the file", func() {
			Expect(store.Close()).To(Succeed())

			reopened, err := NewBoltStore(dbPath, zap.NewNop())
			Expect(err).NotTo(HaveOccurred())
			store = reopened

			p, err := store.Get(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).NotTo(BeNil())
			Expect(p.RecordID).To(Equal(int64(12)))
		})
	})

	Describe("Delete", func() {
		It("removes a stored key", func() {
			Expect(store.Save(ctx, entity.PendingInteraction{
				RecordID:   12,
				Department: entity.DepartmentHead,
				Messages:   []entity.MessageRef{{ChatID: "oc_1", MessageID: "om_1"}},
			})).To(Succeed())

			Expect(store.Delete(ctx, key)).To(Succeed())

			p, err := store.Get(ctx, key)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).To(BeNil())
		})

		It("accepts a missing key", func() {
			Expect(store.Delete(ctx, key)).To(Succeed())
		})
	})
})
