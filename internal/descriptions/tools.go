// Package descriptions holds the long-form MCP tool descriptions.
package descriptions

import "sort"

const (
	QuoteImportPDFDescription = `Read a quote PDF generated by this tool back into an editable quote.

**When to use:** A customer asks for changes to a quote that only exists as a PDF, or an old quote must be reused for a new project.

**Examples:**
• "Open orcamento_Maria_Silva_05-03-2025.pdf so I can change the delivery term"
• "Import last month's kitchen quote and add a pantry cabinet"

**Common workflows:**
1. Revision: quote_import_pdf → quote_apply (update_item / set_discount) → quote_render_pdf
2. Reuse: quote_import_pdf with the current form → merged form keeps fields the PDF left blank

**Notes:** Only PDFs laid out by quote_render_pdf are understood. Line items are read from the item table; client and condition fields from their labels.`

	QuoteRenderPDFDescription = `Lay out a quote form as an A4 PDF with the company header, item table, totals and conditions.

**When to use:** The quote is ready to be sent to the customer.

**Examples:**
• "Generate the PDF for Maria Silva's quote"
• "Write the quote to 2025/cozinha-maria.pdf"

**Notes:** The default file name is orcamento_<client>_<dd-mm-YYYY>.pdf in the work directory. Output paths outside the work directory are rejected.`

	QuoteApplyDescription = `Apply one editor action to a quote form and return the resulting form.

**Actions:**
• set_client {name, phone, address, project}
• set_conditions {delivery_term, payment_terms, validity_period, notes, included_items, excluded_items}
• add_item {item: {name, quantity, unit_price, specifications, material}}
• edit_item {index} / cancel_edit / update_item {index, item} / remove_item {index}
• set_discount {percent}
• load_quote {quote}

**Notes:** Items need a name, a quantity of at least 1 and a positive unit price. The discount must be between 0 and 100. A rejected action leaves the form unchanged.`

	QuoteSaveBackupDescription = `Save the current form as a backup under <client>_<YYYYMMDD>_<HHMM>.

**When to use:** Before closing a session or after significant edits.

**Notes:** The form needs a client name and at least one line item.`

	QuoteListBackupsDescription = `List saved backups sorted by key, optionally only those of one client.

**Common workflows:**
1. Resume work: quote_list_backups {client} → quote_restore_backup {key}`

	QuoteRestoreBackupDescription = `Load the form saved under a backup key.

**Notes:** Restored forms are never in edit mode.`

	QuoteImportBackupDescription = `Read a backup JSON document, such as one exported from another machine, into a form without storing it.`

	QuoteServerInfoDescription = `Show the work and backup directories, the backup store, whether PDF import is available and the quote PDFs found in the work directory.

**When to use:** To discover which quote files can be imported, or to check why an import failed.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"quote_import_pdf":     QuoteImportPDFDescription,
	"quote_render_pdf":     QuoteRenderPDFDescription,
	"quote_apply":          QuoteApplyDescription,
	"quote_save_backup":    QuoteSaveBackupDescription,
	"quote_list_backups":   QuoteListBackupsDescription,
	"quote_restore_backup": QuoteRestoreBackupDescription,
	"quote_import_backup":  QuoteImportBackupDescription,
	"quote_server_info":    QuoteServerInfoDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the described tool names in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
