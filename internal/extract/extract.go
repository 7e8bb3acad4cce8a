// Package extract turns uploaded supplier conversations (plain text, PDF or
// DOCX) into UTF-8 text for the knowledge extractor.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"sourcing-backend/internal/shared/storage/object"
)

// MaxSourceBytes bounds how much of a stored object is read.
const MaxSourceBytes = 20 << 20

// DerivedSuffix is appended to a source key to name its extracted copy.
const DerivedSuffix = ".extracted.txt"

var (
	ErrUnsupported = errors.New("unsupported conversation format")
	ErrTooLarge    = errors.New("conversation file too large")
)

type format int

const (
	formatUnknown format = iota
	formatText
	formatPDF
	formatDOCX
)

// ExtractText reads the object at key, extracts its text and stores the
// result under key+DerivedSuffix so later re-ingests can skip parsing.
func ExtractText(ctx context.Context, store object.ObjectStore, key, contentType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, MaxSourceBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if len(raw) > MaxSourceBytes {
		return "", ErrTooLarge
	}

	text, err := ExtractTextFromBytes(ctx, raw, contentType, fileName)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", key, err)
	}

	if _, err := store.Put(ctx, key+DerivedSuffix, object.ContentTypeText, strings.NewReader(text)); err != nil {
		return "", fmt.Errorf("store derived text for %s: %w", key, err)
	}
	return text, nil
}

// ExtractTextFromBytes extracts text from an in-memory payload. The declared
// content type wins unless it is missing or generic, in which case the file
// extension and the bytes decide.
func ExtractTextFromBytes(ctx context.Context, data []byte, contentType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	switch f, label := detect(contentType, fileName, data); f {
	case formatText:
		return decodeText(data)
	case formatPDF:
		return pdfText(data)
	case formatDOCX:
		return docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, label)
	}
}

func detect(contentType, fileName string, data []byte) (format, string) {
	declared := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if declared == "" || declared == "application/octet-stream" {
		declared = strings.Split(object.ContentType(fileName, head(data)), ";")[0]
	}

	switch declared {
	case object.ContentTypeText, object.ContentTypeMarkdown, object.ContentTypeCSV:
		return formatText, declared
	case object.ContentTypePDF:
		return formatPDF, declared
	case object.ContentTypeDOCX:
		return formatDOCX, declared
	case "application/zip":
		// browsers often label .docx uploads as plain zip
		if hasZipEntry(data, "word/document.xml") {
			return formatDOCX, object.ContentTypeDOCX
		}
	}
	if strings.HasPrefix(declared, "text/") {
		return formatText, declared
	}
	if strings.EqualFold(path.Ext(fileName), ".docx") && hasZipEntry(data, "word/document.xml") {
		return formatDOCX, object.ContentTypeDOCX
	}
	return formatUnknown, declared
}

func head(data []byte) []byte {
	if len(data) > 512 {
		return data[:512]
	}
	return data
}

func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("text file is not valid utf-8")
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	return strings.ReplaceAll(text, "\r\n", "\n"), nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func openZipEntry(data []byte, name string) (io.ReadCloser, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == name {
			return f.Open()
		}
	}
	return nil, fmt.Errorf("%s not found", name)
}

func hasZipEntry(data []byte, name string) bool {
	rc, err := openZipEntry(data, name)
	if err != nil {
		return false
	}
	_ = rc.Close()
	return true
}

// docxText walks word/document.xml keeping run text. Paragraphs and breaks
// become newlines and tabs stay tabs.
func docxText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx")
	}
	rc, err := openZipEntry(data, "word/document.xml")
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				sb.WriteByte('\t')
			}
		case xml.EndElement:
			if (t.Name.Local == "p" || t.Name.Local == "br") && sb.Len() > 0 {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
