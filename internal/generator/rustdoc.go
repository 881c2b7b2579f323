package generator

import (
	"strings"

	"doxdoc/internal/docmodel"
)

// Section names, in render order.
const (
	SectionTitle        = "title"
	SectionDeprecated   = "deprecated"
	SectionBrief        = "brief"
	SectionDescription  = "description"
	SectionWarnings     = "warnings"
	SectionReturns      = "returns"
	SectionArguments    = "arguments"
	SectionReturnValues = "return_values"
	SectionNotes        = "notes"
	SectionTodos        = "todos"
)

// sectionRenderer appends one section to b and reports whether it wrote
// anything. It must not write when its field is absent.
type sectionRenderer func(b *strings.Builder, doc *docmodel.Doc) bool

var sectionOrder = []struct {
	name   string
	render sectionRenderer
}{
	{SectionTitle, renderTitle},
	{SectionDeprecated, renderDeprecated},
	{SectionBrief, renderBrief},
	{SectionDescription, renderDescription},
	{SectionWarnings, renderWarnings},
	{SectionReturns, renderReturns},
	{SectionArguments, renderArguments},
	{SectionReturnValues, renderReturnValues},
	{SectionNotes, renderNotes},
	{SectionTodos, renderTodos},
}

// GenerateRustdoc renders a parsed Doxygen comment as Rustdoc Markdown.
// A nil or empty model renders to the empty string.
func GenerateRustdoc(doc *docmodel.Doc) string {
	out, _ := generate(doc)
	return out
}

// RenderedSections lists the sections GenerateRustdoc would emit for doc,
// in output order.
func RenderedSections(doc *docmodel.Doc) []string {
	_, sections := generate(doc)
	return sections
}

func generate(doc *docmodel.Doc) (string, []string) {
	if doc == nil {
		return "", nil
	}
	var b strings.Builder
	var sections []string
	for _, s := range sectionOrder {
		if s.render(&b, doc) {
			sections = append(sections, s.name)
		}
	}
	return b.String(), sections
}

func renderTitle(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Title == nil {
		return false
	}
	b.WriteString("# ")
	b.WriteString(*doc.Title)
	b.WriteString("\n\n")
	return true
}

func renderDeprecated(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Deprecated == nil {
		return false
	}
	b.WriteString("**Warning!** This is deprecated!")
	if msg := doc.Deprecated.Message; msg != nil {
		b.WriteString(" - ")
		b.WriteString(*msg)
	}
	b.WriteString("\n\n")
	return true
}

func renderBrief(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Brief == nil {
		return false
	}
	b.WriteString(*doc.Brief)
	b.WriteString("\n\n")
	return true
}

func renderDescription(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Description == nil {
		return false
	}
	for _, line := range *doc.Description {
		// "< " is the member-after marker left over by the parser.
		b.WriteString(strings.ReplaceAll(line, "< ", ""))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return true
}

// Warnings are the only list section that is skipped when empty.
func renderWarnings(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Warnings == nil || len(*doc.Warnings) == 0 {
		return false
	}
	writeBlocks(b, "**Warning!**\n\n", *doc.Warnings)
	return true
}

func renderReturns(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Returns == nil {
		return false
	}
	writeBlocks(b, "Returns:\n\n", *doc.Returns)
	return true
}

func renderArguments(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Params == nil {
		return false
	}
	b.WriteString("# Arguments\n\n")
	for _, p := range *doc.Params {
		b.WriteString("* `")
		b.WriteString(p.ArgName)
		b.WriteString("` -")
		if p.Direction != nil {
			b.WriteString(" [Direction: ")
			b.WriteString(*p.Direction)
			b.WriteString("] ")
		} else {
			b.WriteString(" ")
		}
		if p.Description != nil {
			b.WriteString(minWidth(*p.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return true
}

func renderReturnValues(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.ReturnValues == nil {
		return false
	}
	// Single newline after this heading.
	writeBlocks(b, "# Return values\n", *doc.ReturnValues)
	return true
}

func renderNotes(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Notes == nil {
		return false
	}
	writeBlocks(b, "# Notes\n\n", *doc.Notes)
	return true
}

func renderTodos(b *strings.Builder, doc *docmodel.Doc) bool {
	if doc.Todos == nil {
		return false
	}
	b.WriteString("# To Do\n\n")
	for _, todo := range *doc.Todos {
		b.WriteString(minWidth(todo))
	}
	b.WriteString("\n")
	return true
}

func writeBlocks(b *strings.Builder, heading string, blocks []string) {
	b.WriteString(heading)
	for _, block := range blocks {
		b.WriteString(minWidth(block))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// minWidth pads an empty block to one space so an empty entry still
// occupies its line.
func minWidth(s string) string {
	if s == "" {
		return " "
	}
	return s
}
