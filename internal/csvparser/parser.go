// =============================================================================
// Budget Builder - CSV Export Reader
// =============================================================================
//
// Reads the ministry open-data CSV exports. These differ from the online
// spreadsheet in three ways:
//   - fields are separated by ";"
//   - older files are ISO-8859-10 (Latin-6) encoded, not UTF-8
//   - rows are not padded, so the column count varies per row
//
// Rows are returned as raw strings, header included. Classification and
// number parsing happen downstream, exactly as for XLSX input.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/config"
)

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ReadRows reads a CSV file into raw rows.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter and encoding.
//
// RETURNS:
//   - All rows, header included, with their original cell counts.
//   - An error if the file cannot be opened, decoded or parsed.
func ReadRows(filePath string, settings config.CSVSettings) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file, settings)
}

// ReadExtras reads a two-column [key, value] CSV file.
func ReadExtras(filePath string, settings config.CSVSettings) ([][]string, error) {
	return ReadRows(filePath, settings)
}

// Decode parses CSV from r using the given settings.
func Decode(r io.Reader, settings config.CSVSettings) ([][]string, error) {
	decoder, err := decoderFor(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(bufio.NewReader(r), decoder))
	configureReader(reader, settings)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return rows, nil
}

// configureReader configures the CSV reader based on the settings.
//
// PARAMETERS:
//   - reader: The CSV reader to configure.
//   - settings: The CSV parsing settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ",", "comma":
		reader.Comma = ','
	case "", ";", "semicolon":
		reader.Comma = ';'
	default:
		reader.Comma = []rune(settings.Delimiter)[0]
	}

	// Rows are not padded in the exports.
	reader.FieldsPerRecord = -1

	// Free-text rationale cells contain stray quotes.
	reader.LazyQuotes = true
}

// decoderFor returns the transformer turning the named encoding into UTF-8.
// A UTF-8 byte order mark is removed when present.
func decoderFor(name string) (transform.Transformer, error) {
	var enc encoding.Encoding

	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8":
		return unicode.BOMOverride(transform.Nop), nil
	case "ISO-8859-10", "LATIN-6", "LATIN6":
		enc = charmap.ISO8859_10
	case "ISO-8859-1", "LATIN-1", "LATIN1":
		enc = charmap.ISO8859_1
	case "WINDOWS-1252", "CP1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}

	return enc.NewDecoder(), nil
}
