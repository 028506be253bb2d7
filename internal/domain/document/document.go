package document

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	TypeCommerceRegister  = "commerce_register"
	TypeCertificate       = "certificate"
	TypeInsurance         = "insurance"
	TypeTaxClearance      = "tax_clearance"
	TypeOther             = "other"
	TypeTechnicalProposal = "technical_proposal"
	TypeFinancialProposal = "financial_proposal"
)

var Types = []string{
	TypeCommerceRegister,
	TypeCertificate,
	TypeInsurance,
	TypeTaxClearance,
	TypeOther,
	TypeTechnicalProposal,
	TypeFinancialProposal,
}

var (
	ErrNotFound        = errors.New("document not found")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrEmpty           = errors.New("file is empty")
)

type Document struct {
	ID                string    `json:"id"`
	BidID             string    `json:"bid_id"`
	DocumentType      string    `json:"document_type"`
	FileName          string    `json:"file_name"`
	FilePath          string    `json:"-"`
	FileSize          int64     `json:"file_size"`
	ContentType       string    `json:"content_type"`
	UploadedAt        time.Time `json:"uploaded_at"`
	Verified          bool      `json:"verified"`
	VerificationNotes *string   `json:"verification_notes"`
}

type VerifyRequest struct {
	Verified          *bool   `json:"verified" binding:"required"`
	VerificationNotes *string `json:"verification_notes" binding:"omitempty,max=2000"`
}

func New(bidID, docType, fileName, filePath, contentType string, size int64) Document {
	return Document{
		ID:           uuid.NewString(),
		BidID:        bidID,
		DocumentType: docType,
		FileName:     fileName,
		FilePath:     filePath,
		FileSize:     size,
		ContentType:  contentType,
		UploadedAt:   time.Now().UTC(),
	}
}

func IsValidType(t string) bool {
	for _, v := range Types {
		if v == t {
			return true
		}
	}
	return false
}
