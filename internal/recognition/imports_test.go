package recognition

import (
	"go/parser"
	"go/token"
	"path/filepath"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("package imports", func() {
	It("should not depend on cgo backends", func() {
		files, err := filepath.Glob("*.go")
		Expect(err).NotTo(HaveOccurred())
		Expect(files).NotTo(BeEmpty())

		fset := token.NewFileSet()
		for _, name := range files {
			f, err := parser.ParseFile(fset, name, nil, parser.ImportsOnly)
			Expect(err).NotTo(HaveOccurred())
			for _, imp := range f.Imports {
				path, err := strconv.Unquote(imp.Path.Value)
				Expect(err).NotTo(HaveOccurred())
				Expect(path).NotTo(Equal("C"), name)
				Expect(path).NotTo(HavePrefix("github.com/otiai10/gosseract"), name)
			}
		}
	})
})
