package manifest_test

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kpauljoseph/sheetdeck/internal/manifest"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

func TestManifest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Manifest Suite")
}

const dataURIPrefix = "data:application/json;charset=utf-8,"

type node struct {
	Name     string     `json:"name"`
	Position *[]float64 `json:"position"`
	Rotation *[]float64 `json:"rotation"`
	Src      string     `json:"src"`
	Template string     `json:"template"`
	Children []node     `json:"children"`
}

type probability struct {
	Probability string `json:"probability"`
	Templates   map[string]struct {
		Name     string    `json:"name"`
		Position []float64 `json:"position"`
		Rotation []float64 `json:"rotation"`
	} `json:"templates"`
	Children []node `json:"children"`
}

type descriptor struct {
	Probability struct {
		Type    string `json:"type"`
		Version string `json:"version"`
	} `json:"@probability"`
	Content struct {
		Front string    `json:"front"`
		Back  string    `json:"back"`
		Size  []float64 `json:"size"`
	} `json:"content"`
}

func chain(p probability) []node {
	var out []node
	if len(p.Children) == 0 {
		return out
	}
	cur := p.Children[0]
	for {
		out = append(out, cur)
		if len(cur.Children) == 0 {
			return out
		}
		Expect(cur.Children).To(HaveLen(1))
		cur = cur.Children[0]
	}
}

func decodeSrc(src string) descriptor {
	Expect(src).To(HavePrefix(dataURIPrefix))
	var d descriptor
	Expect(json.Unmarshal([]byte(strings.TrimPrefix(src, dataURIPrefix)), &d)).To(Succeed())
	return d
}

var size = manifest.Vec3{0.063500001, 0.08889999, 0.00030001}

var _ = Describe("Package manifest", func() {
	var m manifest.Manifest

	BeforeEach(func() {
		var err error
		m, err = manifest.New("mycard", 5, 1, size, "png")
		Expect(err).NotTo(HaveOccurred())
	})

	It("should round sizes to four decimals", func() {
		Expect(m.CardSizeMeters).To(Equal(manifest.Vec3{0.0635, 0.0889, 0.0003}))
	})

	It("should name face files with padded card numbers", func() {
		Expect(m.FaceFile(7, models.FaceFront)).To(Equal("mycard-007-front.png"))
		Expect(m.FacePath(123, models.FaceBack)).To(Equal("mycard/mycard-123-back.png"))
	})

	Context("probability.json", func() {
		var doc probability

		BeforeEach(func() {
			data, err := m.ProbabilityJSON()
			Expect(err).NotTo(HaveOccurred())
			Expect(json.Unmarshal(data, &doc)).To(Succeed())
		})

		It("should declare the format version and template", func() {
			Expect(doc.Probability).To(Equal(manifest.FormatVersion))
			Expect(doc.Templates).To(HaveKey("mycard"))
			tmpl := doc.Templates["mycard"]
			Expect(tmpl.Name).To(Equal("mycard card"))
			Expect(tmpl.Position).To(Equal([]float64{0, 0, 0.0003}))
			Expect(tmpl.Rotation).To(Equal([]float64{0, 0, 0}))
		})

		It("should chain one node per card", func() {
			nodes := chain(doc)
			Expect(nodes).To(HaveLen(5))
			for i, n := range nodes {
				Expect(n.Template).To(Equal("mycard"))
				Expect(n.Name).To(Equal("mycard #" + string(rune('1'+i))))
			}
		})

		It("should give only the root node a position and rotation", func() {
			nodes := chain(doc)
			Expect(nodes[0].Position).NotTo(BeNil())
			Expect(*nodes[0].Position).To(Equal([]float64{0, 0, 0}))
			Expect(nodes[0].Rotation).NotTo(BeNil())
			for _, n := range nodes[1:] {
				Expect(n.Position).To(BeNil())
				Expect(n.Rotation).To(BeNil())
			}
		})

		It("should embed a card descriptor in every node", func() {
			d := decodeSrc(chain(doc)[2].Src)
			Expect(d.Probability.Type).To(Equal("card"))
			Expect(d.Probability.Version).To(Equal(manifest.FormatVersion))
			Expect(d.Content.Front).To(Equal("/mycard-003-front.png"))
			Expect(d.Content.Back).To(Equal("/mycard-003-back.png"))
			Expect(d.Content.Size).To(Equal([]float64{0.0635, 0.0889, 0.0003}))
		})
	})

	It("should offset names and paths by the starting card number", func() {
		m, err := manifest.New("deck", 2, 100, size, "jpg")
		Expect(err).NotTo(HaveOccurred())
		data, err := m.ProbabilityJSON()
		Expect(err).NotTo(HaveOccurred())

		var doc probability
		Expect(json.Unmarshal(data, &doc)).To(Succeed())
		nodes := chain(doc)
		Expect(nodes).To(HaveLen(2))
		Expect(nodes[0].Name).To(Equal("deck #100"))
		Expect(decodeSrc(nodes[1].Src).Content.Back).To(Equal("/deck-101-back.jpg"))
	})

	It("should write an empty chain for an empty deck", func() {
		m, err := manifest.New("deck", 0, 1, size, "png")
		Expect(err).NotTo(HaveOccurred())
		data, err := m.ProbabilityJSON()
		Expect(err).NotTo(HaveOccurred())

		var doc probability
		Expect(json.Unmarshal(data, &doc)).To(Succeed())
		Expect(doc.Children).To(BeEmpty())
	})

	It("should substitute the template name into package.json", func() {
		m, err := manifest.New(`quote"deck`, 1, 1, size, "png")
		Expect(err).NotTo(HaveOccurred())
		data, err := m.PackageJSON()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).NotTo(ContainSubstring(manifest.TemplateToken))

		var pkg map[string]any
		Expect(json.Unmarshal(data, &pkg)).To(Succeed())
		Expect(pkg["name"]).To(Equal(`quote"deck`))
	})

	DescribeTable("rejects unusable template names",
		func(name string) {
			_, err := manifest.New(name, 1, 1, size, "png")
			Expect(errors.Is(err, manifest.ErrTemplateName)).To(BeTrue())
		},
		Entry("empty", ""),
		Entry("blank", "   "),
		Entry("path", "../escape"),
		Entry("backslash", `a\b`),
	)
})

var _ = Describe("Package archive", func() {
	var (
		pkg       *manifest.Package
		artifacts []manifest.Artifact
	)

	BeforeEach(func() {
		artifacts = []manifest.Artifact{
			{CardNumber: 2, Face: models.FaceFront, Data: []byte("front-2")},
			{CardNumber: 1, Face: models.FaceBack, Data: []byte("back-1")},
			{CardNumber: 1, Face: models.FaceFront, Data: []byte("front-1")},
		}
		var err error
		pkg, err = manifest.Build("mycard", 2, 1, size, "png", artifacts)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should place images under the template directory", func() {
		Expect(pkg.Paths()).To(Equal([]string{
			"package.json",
			"probability.json",
			"mycard/mycard-001-back.png",
			"mycard/mycard-001-front.png",
			"mycard/mycard-002-front.png",
		}))
		Expect(pkg.ImageCount()).To(Equal(3))
	})

	It("should keep descriptors for faces that were never produced", func() {
		var doc probability
		Expect(json.Unmarshal(pkg.Files[manifest.ProbabilityFile], &doc)).To(Succeed())
		nodes := chain(doc)
		Expect(nodes).To(HaveLen(2))

		back := decodeSrc(nodes[1].Src).Content.Back
		Expect(back).To(Equal("/mycard-002-back.png"))
		Expect(pkg.Files).NotTo(HaveKey("mycard" + back))
	})

	It("should reject duplicate faces", func() {
		_, err := manifest.Build("mycard", 2, 1, size, "png", append(artifacts, artifacts[0]))
		Expect(err).To(HaveOccurred())
	})

	It("should write a zip archive in a stable order", func() {
		var first, second bytes.Buffer
		Expect(pkg.WriteZip(&first)).To(Succeed())
		Expect(pkg.WriteZip(&second)).To(Succeed())
		Expect(first.Bytes()).To(Equal(second.Bytes()))

		zr, err := zip.NewReader(bytes.NewReader(first.Bytes()), int64(first.Len()))
		Expect(err).NotTo(HaveOccurred())

		var names []string
		for _, f := range zr.File {
			names = append(names, f.Name)
		}
		Expect(names).To(Equal(pkg.Paths()))

		rc, err := zr.File[2].Open()
		Expect(err).NotTo(HaveOccurred())
		defer rc.Close()
		data, err := io.ReadAll(rc)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("back-1"))
	})

	It("should write the package unpacked", func() {
		dir, err := os.MkdirTemp("", "sheetdeck-manifest-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		Expect(pkg.WriteDir(dir)).To(Succeed())
		Expect(filepath.Join(dir, "package.json")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "probability.json")).To(BeAnExistingFile())
		Expect(filepath.Join(dir, "mycard", "mycard-002-front.png")).To(BeAnExistingFile())
	})

	It("should write a zip file and create its directory", func() {
		dir, err := os.MkdirTemp("", "sheetdeck-manifest-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path := filepath.Join(dir, "nested", "deck.zip")
		Expect(pkg.WriteZipFile(path)).To(Succeed())
		Expect(path).To(BeAnExistingFile())
	})
})
