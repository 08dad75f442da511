package enums

import "fmt"

// LegalDocumentType enumerates compliance paperwork collected from stores.
type LegalDocumentType string

const (
	LegalDocumentBusinessLicense      LegalDocumentType = "business_license"
	LegalDocumentTaxCertificate       LegalDocumentType = "tax_certificate"
	LegalDocumentW9                   LegalDocumentType = "w9"
	LegalDocumentSignedAgreement      LegalDocumentType = "signed_agreement"
	LegalDocumentResaleCertificate    LegalDocumentType = "resale_certificate"
	LegalDocumentInsuranceCertificate LegalDocumentType = "insurance_certificate"
)

var validLegalDocumentTypes = []LegalDocumentType{
	LegalDocumentBusinessLicense,
	LegalDocumentTaxCertificate,
	LegalDocumentW9,
	LegalDocumentSignedAgreement,
	LegalDocumentResaleCertificate,
	LegalDocumentInsuranceCertificate,
}

// AllLegalDocumentTypes lists the document types a store is expected to hold.
func AllLegalDocumentTypes() []LegalDocumentType {
	return append([]LegalDocumentType(nil), validLegalDocumentTypes...)
}

func (t LegalDocumentType) String() string { return string(t) }

func (t LegalDocumentType) IsValid() bool { return contains(t, validLegalDocumentTypes) }

func ParseLegalDocumentType(value string) (LegalDocumentType, error) {
	return parse("legal document type", value, validLegalDocumentTypes)
}

// LegalDocumentStatus is the review lifecycle of a submitted document.
type LegalDocumentStatus string

const (
	LegalDocumentStatusReceived LegalDocumentStatus = "received"
	LegalDocumentStatusVerified LegalDocumentStatus = "verified"
	LegalDocumentStatusRejected LegalDocumentStatus = "rejected"
	LegalDocumentStatusExpired  LegalDocumentStatus = "expired"
)

var validLegalDocumentStatuses = []LegalDocumentStatus{
	LegalDocumentStatusReceived,
	LegalDocumentStatusVerified,
	LegalDocumentStatusRejected,
	LegalDocumentStatusExpired,
}

func (s LegalDocumentStatus) String() string { return string(s) }

func (s LegalDocumentStatus) IsValid() bool { return contains(s, validLegalDocumentStatuses) }

// AllLegalDocumentStatuses lists statuses in display order.
func AllLegalDocumentStatuses() []LegalDocumentStatus {
	return append([]LegalDocumentStatus(nil), validLegalDocumentStatuses...)
}

func ParseLegalDocumentStatus(value string) (LegalDocumentStatus, error) {
	return parse("legal document status", value, validLegalDocumentStatuses)
}

func errInvalid(kind, value string) error {
	return fmt.Errorf("invalid %s %q", kind, value)
}
