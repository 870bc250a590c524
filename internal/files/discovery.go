package files

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// SpreadsheetRef identifies one workbook inside an extracted archive tree.
type SpreadsheetRef struct {
	// Path is the absolute location of the workbook on disk.
	Path string
	// TDRFolder is the base name of the directory containing the workbook.
	TDRFolder string
	// Name is the workbook file name including its extension.
	Name string
}

// Discovery walks an extracted archive tree and locates BOQ workbooks.
type Discovery struct {
	root string
}

// NewDiscovery creates a Discovery rooted at the given extraction directory.
func NewDiscovery(root string) *Discovery {
	return &Discovery{root: root}
}

// Root returns the extraction directory this Discovery walks.
func (d *Discovery) Root() string {
	return d.root
}

// FindSpreadsheets walks the tree and returns every .xls/.xlsx workbook,
// skipping Excel owner files ("~$" prefix). The extension check is
// case-insensitive. Results are ordered by (TDRFolder, Name) so repeated
// runs over the same archive produce the same sequence.
func (d *Discovery) FindSpreadsheets() ([]SpreadsheetRef, error) {
	var refs []SpreadsheetRef

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		name := entry.Name()
		if !isSpreadsheet(name) {
			return nil
		}
		if strings.HasPrefix(name, "~$") {
			slog.Debug("Skipping Excel owner file", slog.String("name", name))
			return nil
		}

		refs = append(refs, SpreadsheetRef{
			Path:      path,
			TDRFolder: filepath.Base(filepath.Dir(path)),
			Name:      name,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", d.root, err)
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].TDRFolder != refs[j].TDRFolder {
			return refs[i].TDRFolder < refs[j].TDRFolder
		}
		return refs[i].Name < refs[j].Name
	})

	slog.Debug("Discovered spreadsheets",
		slog.String("root", d.root),
		slog.Int("count", len(refs)))

	return refs, nil
}

// CountByFolder reports how many workbooks each TDR folder contributes.
func CountByFolder(refs []SpreadsheetRef) map[string]int {
	counts := make(map[string]int, len(refs))
	for _, ref := range refs {
		counts[ref.TDRFolder]++
	}
	return counts
}

func isSpreadsheet(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".xls" || ext == ".xlsx"
}
