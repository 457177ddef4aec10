package sanmar

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// Feed column headers. SanMar ships the extended product data file with
// uppercase headers; matching is case-insensitive to survive revisions.
const (
	colUniqueKey   = "UNIQUE_KEY"
	colStyle       = "STYLE#"
	colTitle       = "PRODUCT_TITLE"
	colDescription = "PRODUCT_DESCRIPTION"
	colMill        = "MILL"
	colCategory    = "CATEGORY_NAME"
	colColor       = "COLOR_NAME"
	colSize        = "SIZE"
	colQty         = "QTY"
	colPiecePrice  = "PIECE_PRICE"
	colCasePrice   = "CASE_PRICE"
	colFrontImage  = "FRONT_MODEL_IMAGE_URL"
)

var (
	ErrEmptyFeed       = errors.New("sanmar: feed file is empty")
	ErrInvalidEncoding = errors.New("sanmar: feed file is not valid UTF-8")
	ErrMissingColumns  = errors.New("sanmar: feed header is missing required columns")
)

// feedParser streams rows out of the decompressed feed file. It strips a
// UTF-8 BOM, validates encoding, and tolerates variable field counts.
type feedParser struct {
	reader  *csv.Reader
	columns map[string]int
	line    int
}

func newFeedParser(r io.Reader) (*feedParser, error) {
	buf := bufio.NewReader(r)

	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sanmar: read feed: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	probe, err := buf.Peek(4096)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sanmar: read feed: %w", err)
	}
	if len(probe) == 0 {
		return nil, ErrEmptyFeed
	}
	if !utf8.Valid(probe) {
		return nil, ErrInvalidEncoding
	}

	reader := csv.NewReader(buf)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("sanmar: read feed header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colStyle, colColor, colSize} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumns, required)
		}
	}

	return &feedParser{reader: reader, columns: columns, line: 1}, nil
}

func (p *feedParser) field(record []string, name string) string {
	idx, ok := p.columns[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// next returns the next well-formed row. Malformed rows come back as a
// *catalog.RowError; io.EOF ends the stream.
func (p *feedParser) next() (*FeedRow, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, &catalog.RowError{Line: p.line, Reason: err.Error()}
	}

	row := &FeedRow{
		Line:        p.line,
		UniqueKey:   p.field(record, colUniqueKey),
		StyleCode:   strings.ToUpper(p.field(record, colStyle)),
		Title:       p.field(record, colTitle),
		Description: p.field(record, colDescription),
		Mill:        p.field(record, colMill),
		Category:    p.field(record, colCategory),
		ColorName:   p.field(record, colColor),
		Size:        p.field(record, colSize),
		FrontImage:  p.field(record, colFrontImage),
	}
	if row.StyleCode == "" {
		return nil, &catalog.RowError{Line: p.line, Reason: "missing style code"}
	}
	if row.ColorName == "" && row.Size == "" {
		return nil, &catalog.RowError{Line: p.line, Reason: "missing color and size"}
	}

	if raw := p.field(record, colQty); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return nil, &catalog.RowError{Line: p.line, Reason: "invalid quantity " + strconv.Quote(raw)}
		}
		row.Quantity = qty
	}
	if raw := p.field(record, colPiecePrice); raw != "" {
		price, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
		if err != nil {
			return nil, &catalog.RowError{Line: p.line, Reason: "invalid piece price " + strconv.Quote(raw)}
		}
		row.PiecePrice = price
	}
	if raw := p.field(record, colCasePrice); raw != "" {
		price, err := decimal.NewFromString(strings.TrimPrefix(raw, "$"))
		if err == nil {
			row.CasePrice = &price
		}
	}
	return row, nil
}

// ParseFeed reads the whole feed, grouping rows by style code in feed
// order. Malformed rows are collected, never fatal; the caller decides
// whether the loss rate is acceptable.
func ParseFeed(r io.Reader) ([]*Style, []*catalog.RowError, error) {
	parser, err := newFeedParser(r)
	if err != nil {
		return nil, nil, err
	}

	var styles []*Style
	var rowErrors []*catalog.RowError
	byCode := make(map[string]*Style)

	for {
		row, err := parser.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var rowErr *catalog.RowError
			if errors.As(err, &rowErr) {
				rowErrors = append(rowErrors, rowErr)
				continue
			}
			return styles, rowErrors, err
		}
		style, ok := byCode[row.StyleCode]
		if !ok {
			style = &Style{Code: row.StyleCode}
			byCode[row.StyleCode] = style
			styles = append(styles, style)
		}
		style.Rows = append(style.Rows, row)
	}
	return styles, rowErrors, nil
}
