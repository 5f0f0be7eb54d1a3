// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strconv"
	"strings"

	"github.com/pdiddy/evidence-engine/pkg/types"
)

// Results tables are where response rates usually live in full-text
// articles. A table qualifies by caption keyword; within it, rows naming
// a response outcome contribute their first percentage.
var (
	tableCaptionKeywords = []string{"response", "efficacy", "outcome", "result", "baseline"}
	tableRowKeywords     = []string{"response", "responder", "success", "remission"}
)

// FromTables scans structured tables for a response rate. The first
// percentage in the first qualifying row of the first qualifying table
// wins, as a fraction. Returns nil when no table yields one.
func FromTables(tables []types.Table) *float64 {
	for _, table := range tables {
		caption := strings.ToLower(table.Caption)
		if !containsAny(caption, tableCaptionKeywords) {
			continue
		}

		for _, row := range table.Rows {
			rowText := strings.Join(row, " ")
			if !containsAny(strings.ToLower(rowText), tableRowKeywords) {
				continue
			}

			m := anyPercentagePattern.FindStringSubmatch(rowText)
			if m == nil {
				continue
			}
			rate, err := strconv.ParseFloat(m[1], 64)
			if err != nil || rate < 0 || rate > 100 {
				continue
			}
			rate /= 100
			return &rate
		}
	}
	return nil
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
