package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type DocumentKind string

const (
	KindPDF         DocumentKind = "pdf"
	KindImage       DocumentKind = "image"
	KindUnsupported DocumentKind = "unsupported"
)

var imageExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
	".webp": {},
}

// KindFromFilename derives the document kind from the file extension only.
func KindFromFilename(name string) DocumentKind {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
	if ext == ".pdf" {
		return KindPDF
	}
	if _, ok := imageExtensions[ext]; ok {
		return KindImage
	}
	return KindUnsupported
}

// RawDocument references source bytes on disk. The pipeline only reads it.
type RawDocument struct {
	Path     string       `json:"path"`
	Filename string       `json:"filename"`
	Kind     DocumentKind `json:"kind"`
}

func NewRawDocument(path, filename string) RawDocument {
	if filename == "" {
		filename = filepath.Base(path)
	}
	return RawDocument{
		Path:     path,
		Filename: filename,
		Kind:     KindFromFilename(filename),
	}
}

type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	OwnerID     string         `json:"owner_id"`
	CategoryID  *int64         `json:"category_id,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	UploadedAt  time.Time      `json:"uploaded_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type DocumentText struct {
	DocumentID       string           `json:"document_id"`
	Text             string           `json:"text"`
	ExtractionStatus ExtractionStatus `json:"extraction_status"`
	ExtractionError  string           `json:"extraction_error,omitempty"`
}

type DocumentDetails struct {
	Document
	Text *DocumentText `json:"text,omitempty"`
}

type DocumentFilter struct {
	OwnerID    string
	CategoryID *int64
	From       *time.Time
	To         *time.Time
	// Keyword matches the filename or the extracted text, case-insensitively.
	Keyword string
	Limit   int
}

// MonthlyUploads counts one owner's uploads in a calendar month, split by
// whether a category was assigned.
type MonthlyUploads struct {
	Month        string `json:"month"`
	Recognized   int    `json:"recognized"`
	Unrecognized int    `json:"unrecognized"`
}

// UnrecognizedLabel names the bucket of documents without a category.
const UnrecognizedLabel = "Unrecognized"

type CategoryCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}
