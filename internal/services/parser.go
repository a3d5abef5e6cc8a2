package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/Lllllllleong/pdfnarration/internal/models"
	"golang.org/x/sync/errgroup"
)

// StandardMetadataKeys are always present in sanitized metadata, null when the
// document does not set them.
var StandardMetadataKeys = []string{
	"Title", "Author", "Subject", "Keywords", "Creator", "Producer", "CreationDate", "ModDate",
}

// maxResolveDepth bounds how many chained references are followed for one value.
const maxResolveDepth = 8

const defaultParseConcurrency = 8

// Parser turns PDF bytes into page text and plain metadata.
type Parser struct {
	library     DocumentLibrary
	concurrency int
}

// NewParser returns a Parser that extracts up to concurrency pages at once.
func NewParser(library DocumentLibrary, concurrency int) *Parser {
	if concurrency <= 0 {
		concurrency = defaultParseConcurrency
	}
	return &Parser{library: library, concurrency: concurrency}
}

// Parse opens raw and extracts every page. Only an unreadable document is an
// error; pages and metadata entries that fail are reported as warnings.
func (p *Parser) Parse(ctx context.Context, raw []byte) (*models.ExtractedDocument, error) {
	doc, err := p.library.Open(raw)
	if err != nil {
		return nil, newError(KindMalformedDocument, StageParse, err)
	}

	pageCount := doc.PageCount()
	pages := make([]models.PageResult, pageCount)
	pageWarnings := make([]string, pageCount)

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.concurrency)
	for i := 0; i < pageCount; i++ {
		idx := i
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			pages[idx], pageWarnings[idx] = extractPage(doc, idx)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, newError(KindCancelled, StageParse, err)
	}

	var warnings []string
	for _, w := range pageWarnings {
		if w != "" {
			warnings = append(warnings, w)
		}
	}

	metadata, metaWarnings := sanitizeMetadata(doc)
	warnings = append(warnings, metaWarnings...)

	for _, w := range warnings {
		slog.WarnContext(ctx, "Document parse warning.", "warning", w)
	}

	return &models.ExtractedDocument{
		Pages:     pages,
		Metadata:  metadata,
		PageCount: pageCount,
		Warnings:  warnings,
	}, nil
}

func extractPage(doc DocumentHandle, idx int) (page models.PageResult, warning string) {
	page.Number = idx + 1
	defer func() {
		if r := recover(); r != nil {
			page = models.PageResult{Number: idx + 1, NoText: true}
			warning = fmt.Sprintf("page %d: text extraction panicked: %v", idx+1, r)
		}
	}()

	text, err := doc.ExtractPageText(idx)
	text = strings.TrimSpace(text)
	if err != nil {
		if text != "" {
			page.Text = text
			return page, fmt.Sprintf("page %d: text extraction incomplete: %v", page.Number, err)
		}
		page.NoText = true
		return page, fmt.Sprintf("page %d: text extraction failed: %v", page.Number, err)
	}
	if text == "" {
		page.NoText = true
		return page, fmt.Sprintf("page %d: no text detected", page.Number)
	}
	page.Text = text
	return page, ""
}

// sanitizeMetadata resolves every metadata value to a string or null.
func sanitizeMetadata(doc DocumentHandle) (map[string]*string, []string) {
	out := make(map[string]*string, len(StandardMetadataKeys))
	for _, key := range StandardMetadataKeys {
		out[key] = nil
	}

	raw, err := doc.Metadata()
	if err != nil {
		return out, []string{fmt.Sprintf("metadata unavailable: %v", err)}
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var warnings []string
	for _, key := range keys {
		name := strings.TrimPrefix(key, "/")
		if name == "" {
			continue
		}
		value, err := resolveMetadataValue(raw[key])
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("metadata %s: %v", name, err))
			out[name] = nil
			continue
		}
		out[name] = value
	}
	return out, warnings
}

func resolveMetadataValue(v any) (*string, error) {
	for depth := 0; ; depth++ {
		lazy, ok := v.(models.LazyValue)
		if !ok {
			break
		}
		if depth == maxResolveDepth {
			return nil, fmt.Errorf("reference chain deeper than %d", maxResolveDepth)
		}
		resolved, err := lazy.Resolve()
		if err != nil {
			return nil, err
		}
		v = resolved
	}

	var s string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		s = val
	case []byte:
		s = string(val)
	case bool:
		s = strconv.FormatBool(val)
	case int:
		s = strconv.Itoa(val)
	case int64:
		s = strconv.FormatInt(val, 10)
	case float64:
		s = strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprint(val)
	}
	return &s, nil
}

// JoinPages renders the text artifact: one marker per page, in page order.
func JoinPages(pages []models.PageResult) string {
	var sb strings.Builder
	for _, page := range pages {
		if page.NoText {
			fmt.Fprintf(&sb, "\n--- PAGE %d (No text detected) ---\n", page.Number)
			continue
		}
		fmt.Fprintf(&sb, "\n--- PAGE %d ---\n%s\n", page.Number, page.Text)
	}
	return strings.TrimSpace(sb.String())
}

// HasText reports whether any page produced text.
func HasText(doc *models.ExtractedDocument) bool {
	for _, page := range doc.Pages {
		if !page.NoText {
			return true
		}
	}
	return false
}
