// Copyright 2026 Nyx Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
)

// maxDocumentBytes caps parse_document inputs.
const maxDocumentBytes = 20 << 20

// ParseDocumentTool extracts text content from CSV, PDF, and XLSX files.
type ParseDocumentTool struct{}

func NewParseDocumentTool() *ParseDocumentTool { return &ParseDocumentTool{} }

func (t *ParseDocumentTool) Name() string { return "parse_document" }

func (t *ParseDocumentTool) Description() string {
	return "Extract text content from a document. Supported formats: csv, pdf, xlsx."
}

func (t *ParseDocumentTool) InputSchema() *JSONSchema {
	return NewObjectSchema("parse_document parameters", map[string]*JSONSchema{
		"path": NewStringSchema("Path of the document to parse"),
		"format": NewStringSchema("Document format; inferred from the extension when omitted").
			WithEnum("csv", "pdf", "xlsx"),
	}, []string{"path"})
}

func (t *ParseDocumentTool) Execute(_ context.Context, params map[string]interface{}) (*Result, error) {
	path, ok := stringParam(params, "path")
	if !ok {
		return Failure(CodeInvalidParams, "path is required"), nil
	}
	if err := checkPathAllowed(path); err != nil {
		return Failure(CodeAccessDenied, err.Error()), nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Failure(CodeNotFound, fmt.Sprintf("file not found: %s", path)), nil
	}
	if err != nil {
		return Failure(CodeExecutionFailed, err.Error()), nil
	}
	if info.Size() > maxDocumentBytes {
		return Failure(CodeTooLarge,
			fmt.Sprintf("document is %d bytes, cap is %d", info.Size(), maxDocumentBytes)), nil
	}

	format := optionalString(params, "format",
		strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))

	var (
		content string
		pages   int
	)
	switch format {
	case "csv":
		content, pages, err = parseCSV(path)
	case "pdf":
		content, pages, err = parsePDF(path)
	case "xlsx":
		content, pages, err = parseXLSX(path)
	default:
		return FailureWithSuggestion(CodeInvalidParams,
			fmt.Sprintf("unsupported format: %q", format),
			"supported formats are csv, pdf, xlsx"), nil
	}
	if err != nil {
		return Failure(CodeExecutionFailed, fmt.Sprintf("failed to parse %s: %v", format, err)), nil
	}

	return &Result{
		Success: true,
		Data:    content,
		Metadata: map[string]interface{}{
			"format": format,
			"path":   path,
			"pages":  pages,
		},
	}, nil
}

func parseCSV(path string) (string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", 0, err
	}

	var sb strings.Builder
	for _, record := range records {
		sb.WriteString(strings.Join(record, "\t"))
		sb.WriteByte('\n')
	}
	return sb.String(), len(records), nil
}

func parsePDF(path string) (string, int, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var sb strings.Builder
	total := reader.NumPage()
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteByte('\n')
	}
	return sb.String(), total, nil
}

func parseXLSX(path string) (string, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	var sb strings.Builder
	sheets := f.GetSheetList()
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", 0, err
		}
		sb.WriteString("# " + sheet + "\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), len(sheets), nil
}
