package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/arifhossain/receiptscan/constants"
)

// LineItem is one purchased entry on a receipt. Quantity nil means unknown,
// which is distinct from zero.
type LineItem struct {
	Name     string   `json:"name"`
	Quantity *float64 `json:"quantity"`
	Price    float64  `json:"price"`
}

// ExtractionResult is one model inference outcome, fully normalized.
// It is immutable once produced; a non-nil ErrorMessage means the model
// judged the image invalid or extraction failed.
type ExtractionResult struct {
	MerchantName    *string               `json:"merchant_name"`
	ReceiptDate     *string               `json:"receipt_date"` // YYYY-MM-DD
	ReceiptNumber   *string               `json:"receipt_number"`
	InvoiceType     constants.InvoiceType `json:"invoice_type"`
	Items           []LineItem            `json:"items"`
	Subtotal        *float64              `json:"subtotal"`
	Tax             *float64              `json:"tax"`
	Total           *float64              `json:"total"`
	Currency        string                `json:"currency"`
	PaymentMethod   *string               `json:"payment_method"`
	ConfidenceScore float64               `json:"confidence_score"` // 0..1
	ErrorMessage    *string               `json:"error_message"`
}

// HasData reports whether the result carries something usable: a total,
// or an explicit extraction error worth surfacing.
func (r ExtractionResult) HasData() bool {
	return r.Total != nil || r.ErrorMessage != nil
}

// Receipt is the persisted entity. ID and CreatedAt are minted once at
// assembly and never change; Total is always a defined number even when
// extraction failed to determine one.
type Receipt struct {
	ID              uuid.UUID             `json:"id"`
	MerchantName    *string               `json:"merchant_name"`
	ReceiptDate     *string               `json:"receipt_date"`
	ReceiptNumber   *string               `json:"receipt_number"`
	InvoiceType     constants.InvoiceType `json:"invoice_type"`
	Items           []LineItem            `json:"items"`
	Subtotal        *float64              `json:"subtotal"`
	Tax             *float64              `json:"tax"`
	Total           float64               `json:"total"`
	Currency        string                `json:"currency"`
	PaymentMethod   *string               `json:"payment_method"`
	ConfidenceScore float64               `json:"confidence_score"`
	ErrorMessage    *string               `json:"error_message"`
	ImageURI        string                `json:"image_uri"`
	RawText         *string               `json:"raw_text,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
}

// ReceiptPatch is a partial update; nil fields are left untouched.
// ID and CreatedAt are not patchable.
type ReceiptPatch struct {
	MerchantName  *string
	ReceiptDate   *string
	ReceiptNumber *string
	InvoiceType   *constants.InvoiceType
	Items         *[]LineItem
	Subtotal      *float64
	Tax           *float64
	Total         *float64
	Currency      *string
	PaymentMethod *string
	ErrorMessage  *string
}

// ReceiptFilter constrains List queries. Zero-value fields are ignored.
type ReceiptFilter struct {
	InvoiceType *constants.InvoiceType
	FromDate    *string // YYYY-MM-DD inclusive
	ToDate      *string // YYYY-MM-DD inclusive
	Merchant    string  // substring, case-insensitive
	MinTotal    *float64
	MaxTotal    *float64
}

// TypeStat aggregates receipts sharing an invoice type and currency.
type TypeStat struct {
	InvoiceType constants.InvoiceType `json:"invoice_type"`
	Currency    string                `json:"currency"`
	Count       int                   `json:"count"`
	TotalAmount float64               `json:"total_amount"`
}
