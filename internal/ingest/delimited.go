package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// delimiterCandidates are tried in order; on a tie the earlier candidate
// wins, so comma beats everything at equal counts.
var delimiterCandidates = []rune{',', '\t', ';', '|'}

// detectDelimiter counts candidate occurrences across the first ten
// non-empty lines and picks the highest. Only a strictly greater count
// displaces an earlier candidate.
func detectDelimiter(text string) rune {
	lines := nonEmptyLines(text)
	var sample string
	if len(lines) > 0 {
		if len(lines) > 10 {
			lines = lines[:10]
		}
		sample = strings.Join(lines, "\n")
	} else if len(text) > 2000 {
		sample = text[:2000]
	} else {
		sample = text
	}

	best := ','
	bestCount := -1
	for _, c := range delimiterCandidates {
		if n := strings.Count(sample, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

// parseDelimited reads the text as delimiter-separated rows with the first
// line as header. When the csv reader chokes mid-stream, the whole pass is
// redone with a naive split on the detected delimiter; the header and
// blank-row rules are identical on both paths.
func parseDelimited(text string, maxRows int) ([]Record, bool) {
	lines := nonEmptyLines(text)
	if len(lines) == 0 {
		return nil, false
	}
	delim := detectDelimiter(text)

	rawHeader, rows, err := readCSVRows(text, delim, maxRows)
	if err != nil {
		rawHeader, rows = splitRows(lines, delim, maxRows)
	}
	if len(rawHeader) == 0 {
		return nil, false
	}

	header := sanitizeHeader(rawHeader)
	header, rows = maybePromoteHeader(header, rows)

	records := buildRecords(header, rows)
	if len(records) == 0 {
		return nil, false
	}
	return records, true
}

func readCSVRows(text string, delim rune, maxRows int) ([]string, [][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, err
	}

	var rows [][]string
	for len(rows) < maxRows {
		row, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			// Mid-stream parse failure: abandon the structured pass.
			return nil, nil, err
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// splitRows is the manual fallback: no quoting rules, just a split on the
// delimiter, with short rows padded to header length.
func splitRows(lines []string, delim rune, maxRows int) ([]string, [][]string) {
	header := strings.Split(lines[0], string(delim))

	end := len(lines)
	if end > 1+maxRows {
		end = 1 + maxRows
	}
	var rows [][]string
	for _, ln := range lines[1:end] {
		parts := strings.Split(ln, string(delim))
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		for len(parts) < len(header) {
			parts = append(parts, "")
		}
		rows = append(rows, parts)
	}
	return header, rows
}

var controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
var whitespaceRuns = regexp.MustCompile(`\s+`)

// CleanColumnName strips BOM and control characters from a header cell and
// collapses internal whitespace runs to a single space.
func CleanColumnName(name string) string {
	s := strings.ReplaceAll(name, "\uFEFF", "")
	s = strings.ReplaceAll(s, "\uFFFE", "")
	s = controlChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// sanitizeHeader cleans every column name, de-duplicates repeats with a
// numeric suffix, and substitutes a positional placeholder for names that
// are empty after cleaning.
func sanitizeHeader(raw []string) []string {
	seen := make(map[string]int, len(raw))
	out := make([]string, len(raw))
	for i, h := range raw {
		name := CleanColumnName(h)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

// maybePromoteHeader handles headerless exports: when at least half the
// columns came out empty or placeholder, the first data row is tried as the
// real header, and kept only if at least half its cells are non-empty after
// cleaning.
func maybePromoteHeader(header []string, rows [][]string) ([]string, [][]string) {
	if len(header) == 0 || len(rows) == 0 {
		return header, rows
	}

	unnamed := 0
	for _, h := range header {
		if h == "" || strings.HasPrefix(h, "col_") || strings.HasPrefix(strings.ToLower(h), "unnamed") {
			unnamed++
		}
	}
	if unnamed < atLeastHalf(len(header)) {
		return header, rows
	}

	candidate := make([]string, len(rows[0]))
	nonEmpty := 0
	for i, cell := range rows[0] {
		candidate[i] = CleanColumnName(cell)
		if candidate[i] != "" {
			nonEmpty++
		}
	}
	if nonEmpty < atLeastHalf(len(candidate)) {
		return header, rows
	}
	return sanitizeHeader(candidate), rows[1:]
}

// atLeastHalf is the promotion threshold: half the column count, floored,
// never below one. Kept literal for compatibility with existing partner
// onboarding behavior.
func atLeastHalf(n int) int {
	if n/2 < 1 {
		return 1
	}
	return n / 2
}

// buildRecords zips each row against the header, dropping rows whose every
// value is blank after trimming. Extra cells beyond the header are ignored,
// matching how upstream dict readers discard them.
func buildRecords(header []string, rows [][]string) []Record {
	var records []Record
	for _, row := range rows {
		rec := make(Record, len(header))
		blank := true
		for i, name := range header {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if strings.TrimSpace(val) != "" {
				blank = false
			}
			rec[name] = val
		}
		if !blank {
			records = append(records, rec)
		}
	}
	return records
}
