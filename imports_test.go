package llmconnections

import (
	"go/parser"
	"go/token"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestSourceImportGroupsAreSorted(t *testing.T) {
	err := filepath.WalkDir(".", func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if path != "." && (strings.HasPrefix(entry.Name(), "_") || strings.HasPrefix(entry.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		prevLine, prevPath := 0, ""
		for _, spec := range file.Imports {
			importPath, err := strconv.Unquote(spec.Path.Value)
			if err != nil {
				return err
			}
			line := fset.Position(spec.Pos()).Line
			if prevPath != "" && line == prevLine+1 && importPath < prevPath {
				t.Fatalf("%s:%d: import %q sorts before %q", path, line, importPath, prevPath)
			}
			prevLine, prevPath = line, importPath
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk sources: %v", err)
	}
}
