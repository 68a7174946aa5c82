package texdoc

// WarnKind identifies a non-fatal condition surfaced by the pipeline.
type WarnKind string

const (
	WarnMissingFile          WarnKind = "missing_file"          // best-effort mode only
	WarnUnresolvedAsset      WarnKind = "unresolved_asset"      // no candidate file after probing
	WarnMalformedDeclaration WarnKind = "malformed_declaration" // left in the body untouched
	WarnEscapedRoot          WarnKind = "escaped_root"          // reference outside the project root
	WarnBadPDFAsset          WarnKind = "bad_pdf_asset"         // resolved PDF failed the sanity check
	WarnNoDocumentClass      WarnKind = "no_document_class"     // preamble prepended instead of inserted
	WarnMissingBib           WarnKind = "missing_bibliography"  // \bibliography names no existing file
)

// Warning is one recorded non-fatal condition.
type Warning struct {
	Kind    WarnKind `json:"kind"`
	Subject string   `json:"subject"` // the affected identifier (path, key, snippet)
	Detail  string   `json:"detail,omitempty"`
}

// Diagnostics accumulates warnings across pipeline stages. The pipeline is
// sequential, so no locking is needed; stages share one instance.
type Diagnostics struct {
	Warnings []Warning
}

// Warn records a warning.
func (d *Diagnostics) Warn(kind WarnKind, subject, detail string) {
	d.Warnings = append(d.Warnings, Warning{Kind: kind, Subject: subject, Detail: detail})
}

// ByKind returns the subjects recorded for one warning kind, in order.
// Tests and callers use this to assert on exactly what was dropped.
func (d *Diagnostics) ByKind(kind WarnKind) []string {
	var subjects []string
	for _, w := range d.Warnings {
		if w.Kind == kind {
			subjects = append(subjects, w.Subject)
		}
	}
	return subjects
}
