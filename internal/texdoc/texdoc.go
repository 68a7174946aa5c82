package texdoc

// DeclKind classifies a preamble declaration.
type DeclKind string

const (
	DeclImport DeclKind = "import" // \usepackage
	DeclColor  DeclKind = "color"  // \definecolor
	DeclMacro  DeclKind = "macro"  // \newcommand, \renewcommand, \providecommand
)

// Declaration is one package import, macro definition, or color definition
// lifted out of the merged body.
type Declaration struct {
	Kind DeclKind
	Key  string // canonical name: package name, macro name without backslash, color name
	Text string // raw declaration text as it appeared in the source
	Pos  int    // byte offset of the first-seen occurrence in the merged body
	// Final marks macro forms that override an earlier plain definition
	// (\renewcommand and \providecommand).
	Final bool
}

// BibEntry is one record from a BibTeX database.
type BibEntry struct {
	Type       string // entry type, lowercased (article, book, ...)
	Key        string // citation key
	Raw        string // full entry text including the closing brace
	Recognized bool   // type is in the fixed recognized set
}

// Manifest is everything the output writer needs to materialize the
// flattened project: the merged document plus the file set to copy.
type Manifest struct {
	MergedText string

	Preamble     []Declaration
	Bibliography []BibEntry
	BibStrings   []string // @string macros, always preserved

	BibSource string   // source .bib database path ("" when none referenced)
	Assets    []string // resolved graphics paths, absolute, inside the project root
	Styles    []string // resolved .cls/.bst paths
}
