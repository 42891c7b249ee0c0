package resolver_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/sheetdeck/internal/resolver"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

func TestResolver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Resolver Suite")
}

var grid4x2 = models.GridSpec{Columns: 4, Rows: 2, DPI: 300}

var _ = Describe("Card index resolver", func() {
	Context("single layout", func() {
		DescribeTable("resolves faces",
			func(card int, wantFrontPage, wantBackPage, wantRow, wantCol, wantBackCol int) {
				faces := resolver.Resolve(card, 1, models.LayoutSingle, grid4x2, 1)

				Expect(faces.CardNumber).To(Equal(card))
				Expect(faces.Front.DocumentID).To(Equal(models.DocumentFront))
				Expect(faces.Back.DocumentID).To(Equal(models.DocumentFront))
				Expect(faces.Front.PageNumber).To(Equal(wantFrontPage))
				Expect(faces.Back.PageNumber).To(Equal(wantBackPage))
				Expect(faces.Front.Row).To(Equal(wantRow))
				Expect(faces.Back.Row).To(Equal(wantRow))
				Expect(faces.Front.Col).To(Equal(wantCol))
				Expect(faces.Back.Col).To(Equal(wantBackCol))
				Expect(faces.Front.Mirrored).To(BeFalse())
				Expect(faces.Back.Mirrored).To(BeTrue())
			},
			Entry("first card", 1, 1, 2, 0, 0, 3),
			Entry("end of first row", 4, 1, 2, 0, 3, 0),
			Entry("start of second row", 5, 1, 2, 1, 0, 3),
			Entry("last card on first sheet", 8, 1, 2, 1, 3, 0),
			Entry("first card on second sheet", 9, 3, 4, 0, 0, 3),
			Entry("card 7", 7, 1, 2, 1, 2, 1),
		)

		It("honours the start page and starting card number", func() {
			faces := resolver.Resolve(110, 100, models.LayoutSingle, grid4x2, 5)
			Expect(faces.Front.PageNumber).To(Equal(7))
			Expect(faces.Back.PageNumber).To(Equal(8))
			Expect(faces.Front.Row).To(Equal(0))
			Expect(faces.Front.Col).To(Equal(2))
			Expect(faces.Back.Col).To(Equal(1))
		})
	})

	Context("separate layout", func() {
		It("takes fronts and backs from the same page of two documents", func() {
			faces := resolver.Resolve(11, 1, models.LayoutSeparate, grid4x2, 1)

			Expect(faces.Front.DocumentID).To(Equal(models.DocumentFront))
			Expect(faces.Back.DocumentID).To(Equal(models.DocumentBack))
			Expect(faces.Front.PageNumber).To(Equal(2))
			Expect(faces.Back.PageNumber).To(Equal(2))
			Expect(faces.Front.Row).To(Equal(0))
			Expect(faces.Front.Col).To(Equal(2))
			Expect(faces.Back.Col).To(Equal(1))
		})
	})

	It("mirrors the back column for every cell", func() {
		grid := models.GridSpec{Columns: 5, Rows: 3, DPI: 300}
		for card := 1; card <= 3*grid.PerSheet(); card++ {
			for _, mode := range []models.LayoutMode{models.LayoutSingle, models.LayoutSeparate} {
				faces := resolver.Resolve(card, 1, mode, grid, 1)
				Expect(faces.Back.Row).To(Equal(faces.Front.Row))
				Expect(faces.Back.Col).To(Equal(grid.Columns - faces.Front.Col - 1))
			}
		}
	})

	DescribeTable("total card count",
		func(mode models.LayoutMode, grid models.GridSpec, pages models.PageRange, want int) {
			Expect(resolver.TotalCards(mode, grid, pages.Len())).To(Equal(want))
		},
		Entry("single 4x2 over 10 pages", models.LayoutSingle, grid4x2, models.PageRange{Start: 1, Finish: 10}, 40),
		Entry("separate 4x2 over 10 pages", models.LayoutSeparate, grid4x2, models.PageRange{Start: 1, Finish: 10}, 80),
		Entry("single drops an unpaired page", models.LayoutSingle, grid4x2, models.PageRange{Start: 1, Finish: 3}, 8),
		Entry("single with one page", models.LayoutSingle, grid4x2, models.PageRange{Start: 2, Finish: 2}, 0),
		Entry("empty range", models.LayoutSeparate, grid4x2, models.PageRange{Start: 5, Finish: 4}, 0),
	)

	It("lists card numbers in ascending order", func() {
		Expect(resolver.CardNumbers(5, 4)).To(Equal([]int{5, 6, 7, 8}))
		Expect(resolver.CardNumbers(1, 0)).To(BeEmpty())
	})

	DescribeTable("face file names",
		func(card int, face models.Face, want string) {
			Expect(resolver.FaceFileName("mycard", card, face, "png")).To(Equal(want))
		},
		Entry("padded front", 7, models.FaceFront, "mycard-007-front.png"),
		Entry("three digit back", 123, models.FaceBack, "mycard-123-back.png"),
		Entry("four digits are not truncated", 1234, models.FaceFront, "mycard-1234-front.png"),
	)
})
