package document

import (
	"github.com/garyjia/billing-workflow/internal/domain/entity"
	"github.com/garyjia/billing-workflow/pkg/utils"
)

// FileName returns "<DocumentType>_<sanitizedInvoiceNumber>.pdf"
func FileName(kind entity.DocumentKind, invoiceNumber string) string {
	return fileNameWithExt(kind, invoiceNumber, ".pdf")
}

// WorkbookFileName is FileName with the spreadsheet extension
func WorkbookFileName(kind entity.DocumentKind, invoiceNumber string) string {
	return fileNameWithExt(kind, invoiceNumber, ".xlsx")
}

func fileNameWithExt(kind entity.DocumentKind, invoiceNumber, ext string) string {
	number := utils.SanitizeFileName(invoiceNumber)
	if number == "" {
		number = "DRAFT"
	}
	return kind.FileStem() + "_" + number + ext
}
