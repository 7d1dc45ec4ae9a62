package diagfmt

import (
	"fmt"
	"strings"

	"locheck/internal/diag"
	"locheck/internal/source"
)

type fixEditPreview struct {
	before []string
	after  []string
}

// buildFixEditPreview returns the whole lines touched by edit, before and
// after it is applied.
func buildFixEditPreview(fs *source.FileSet, edit diag.TextEdit) (fixEditPreview, error) {
	if fs == nil {
		return fixEditPreview{}, fmt.Errorf("nil FileSet")
	}
	file := fs.Get(edit.Span.File)
	if file == nil {
		return fixEditPreview{}, fmt.Errorf("file %d not found in FileSet", edit.Span.File)
	}

	startPos, endPos := fs.Resolve(edit.Span)
	first := file.LineSpan(startPos.Line)
	last := file.LineSpan(max(endPos.Line, startPos.Line))
	block := first.Cover(last)

	if edit.Span.Start < block.Start || edit.Span.End > block.End || edit.Span.Start > edit.Span.End {
		return fixEditPreview{}, fmt.Errorf("edit span %s outside preview block %s", edit.Span, block)
	}

	original := string(file.Content[block.Start:block.End])
	relStart := edit.Span.Start - block.Start
	relEnd := edit.Span.End - block.Start
	after := original[:relStart] + edit.NewText + original[relEnd:]

	return fixEditPreview{
		before: splitPreviewLines(original),
		after:  splitPreviewLines(after),
	}, nil
}

func splitPreviewLines(content string) []string {
	if content == "" {
		return nil
	}
	// одна завершающая \n не даёт лишней пустой строки
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}
