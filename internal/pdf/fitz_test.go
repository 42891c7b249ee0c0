package pdf_test

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/sheetdeck/internal/pdf"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

type testPage struct {
	// boxes holds the page box entries, e.g. "/MediaBox [0 0 400 200]".
	boxes   string
	content string
}

// buildPDF writes a minimal document with one content stream per page.
func buildPDF(pages ...testPage) []byte {
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
	}
	for i, p := range pages {
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R %s /Resources << >> /Contents %d 0 R >>", p.boxes, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(p.content), p.content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pixel(img image.Image, x, y int) color.RGBA {
	b := img.Bounds()
	return color.RGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
}

var _ = Describe("Fitz rasterizer", func() {
	var rasterizer *pdf.FitzRasterizer

	BeforeEach(func() {
		rasterizer = pdf.NewFitzRasterizer(nil)
	})

	open := func(data []byte) pdf.Document {
		doc, err := rasterizer.Open(data)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(doc.Close)
		return doc
	}

	Context("a page cropped inside a larger media box", func() {
		var data []byte

		BeforeEach(func() {
			// The red square fills the left half of the crop box.
			data = buildPDF(testPage{
				boxes:   "/MediaBox [0 0 400 200] /CropBox [100 50 300 150]",
				content: "1 0 0 rg 100 50 100 100 re f",
			})
		})

		It("should report the cropped size", func() {
			doc := open(data)
			Expect(doc.NumPage()).To(Equal(1))

			size, err := doc.PageSize(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(size).To(Equal(models.PageDimensions{Width: 200, Height: 100}))
		})

		It("should render the same area it reports", func() {
			doc := open(data)
			size, err := doc.PageSize(1)
			Expect(err).NotTo(HaveOccurred())

			img, err := doc.Render(1, 144)
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Bounds().Dx()).To(Equal(int(size.Width * 2)))
			Expect(img.Bounds().Dy()).To(Equal(int(size.Height * 2)))
		})

		It("should place content relative to the crop box", func() {
			img, err := open(data).Render(1, 72)
			Expect(err).NotTo(HaveOccurred())

			left := pixel(img, 50, 50)
			Expect(left.R).To(BeNumerically(">", 200))
			Expect(left.G).To(BeNumerically("<", 80))

			right := pixel(img, 150, 50)
			Expect(right.R).To(BeNumerically(">", 240))
			Expect(right.G).To(BeNumerically(">", 240))
		})

		It("should tell the visible box from the media box when inspecting", func() {
			info, err := pdf.Inspect(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			Expect(info.PageCount).To(Equal(1))
			Expect(info.Pages[0]).To(Equal(models.PageDimensions{Width: 200, Height: 100}))
			Expect(info.Media[0]).To(Equal(models.PageDimensions{Width: 400, Height: 200}))
		})
	})

	It("should swap the size of a rotated page", func() {
		doc := open(buildPDF(testPage{boxes: "/MediaBox [0 0 300 150] /Rotate 90"}))

		size, err := doc.PageSize(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(size).To(Equal(models.PageDimensions{Width: 150, Height: 300}))

		img, err := doc.Render(1, 72)
		Expect(err).NotTo(HaveOccurred())
		Expect(img.Bounds().Dx()).To(Equal(150))
		Expect(img.Bounds().Dy()).To(Equal(300))
	})

	It("should size every page on its own", func() {
		doc := open(buildPDF(
			testPage{boxes: "/MediaBox [0 0 612 792]"},
			testPage{boxes: "/MediaBox [0 0 288 144]"},
		))
		Expect(doc.NumPage()).To(Equal(2))

		first, err := doc.PageSize(1)
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(models.PageDimensions{Width: 612, Height: 792}))
		second, err := doc.PageSize(2)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(models.PageDimensions{Width: 288, Height: 144}))

		_, err = doc.PageSize(3)
		Expect(errors.Is(err, pdf.ErrPageOutOfRange)).To(BeTrue())
		_, err = doc.Render(0, 72)
		Expect(errors.Is(err, pdf.ErrPageOutOfRange)).To(BeTrue())
	})
})
