// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fulltext

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// jatsContent is the usable payload of a JATS article: flattened abstract
// and body text plus structured tables.
type jatsContent struct {
	Abstract string
	Body     string
	Tables   []types.Table
}

// combined returns abstract and body as one blob for extraction.
func (c jatsContent) combined() string {
	switch {
	case c.Abstract == "":
		return c.Body
	case c.Body == "":
		return c.Abstract
	default:
		return c.Abstract + " " + c.Body
	}
}

// parseJATS walks a JATS (PMC/Europe PMC) article XML stream and collects
// abstract text, body text, and tables. Table content is kept out of the
// body blob; each table-wrap becomes one Table with its caption and
// row-major cell text. The parser is tolerant: unknown elements only
// contribute their character data.
func parseJATS(r io.Reader) (jatsContent, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var (
		content  jatsContent
		abstract strings.Builder
		body     strings.Builder

		inAbstract int
		inBody     int
		inWrap     int
		inCaption  int
		inRow      int
		inCell     int

		curTable *types.Table
		curRow   []string
		caption  strings.Builder
		cell     strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return jatsContent{}, fmt.Errorf("parsing article XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "abstract":
				inAbstract++
			case "body":
				inBody++
			case "table-wrap":
				inWrap++
				curTable = &types.Table{}
			case "caption":
				if inWrap > 0 {
					inCaption++
				}
			case "tr":
				if inWrap > 0 {
					inRow++
					curRow = nil
				}
			case "td", "th":
				if inRow > 0 {
					inCell++
					cell.Reset()
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "abstract":
				if inAbstract > 0 {
					inAbstract--
				}
			case "body":
				if inBody > 0 {
					inBody--
				}
			case "table-wrap":
				if inWrap > 0 {
					inWrap--
					if curTable != nil {
						content.Tables = append(content.Tables, *curTable)
						curTable = nil
					}
				}
			case "caption":
				if inCaption > 0 {
					inCaption--
					if curTable != nil {
						curTable.Caption = squeeze(caption.String())
					}
					caption.Reset()
				}
			case "tr":
				if inRow > 0 {
					inRow--
					if curTable != nil && len(curRow) > 0 {
						curTable.Rows = append(curTable.Rows, curRow)
					}
					curRow = nil
				}
			case "td", "th":
				if inCell > 0 {
					inCell--
					curRow = append(curRow, squeeze(cell.String()))
				}
			}

		case xml.CharData:
			text := string(t)
			switch {
			case inCell > 0:
				cell.WriteString(text)
			case inCaption > 0:
				caption.WriteString(text)
			case inWrap > 0:
				// Table text outside cells and captions is dropped.
			case inAbstract > 0:
				abstract.WriteString(text)
				abstract.WriteByte(' ')
			case inBody > 0:
				body.WriteString(text)
				body.WriteByte(' ')
			}
		}
	}

	content.Abstract = squeeze(abstract.String())
	content.Body = squeeze(body.String())
	return content, nil
}

// squeeze collapses all whitespace runs to single spaces.
func squeeze(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
