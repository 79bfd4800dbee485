// =============================================================================
// Budget Builder - XML Writer Module
// =============================================================================
//
// Renders the assembled report view-model as the XML document handed to
// the page template. Amounts appear twice: a machine-readable "value"
// attribute and the formatted display text.
//
// XML STRUCTURE:
//
//   <budget run="8d5e...">
//     <summary>
//       <expenseBaseline value="80155000000">80 155 000 000 €</expenseBaseline>
//       ...
//       <cutPercent value="5.53" bar="6">5,53 %</cutPercent>
//     </summary>
//     <income>
//       <chapter code="11" address="11" alternativeAddition="false">
//         <label>Verot ja veronluonteiset tulot</label>
//         <baseline value="...">...</baseline>
//         <alternative value="...">...</alternative>
//         <difference value="...">...</difference>
//         <cutPercent value="..." source="derived">...</cutPercent>
//         <rationale>...</rationale>
//         <link>https://budjetti.vm.fi</link>
//         <category code="01" address="11.01" alternativeAddition="false">
//           ...
//           <item code="01" address="11.01.01" alternativeAddition="false">...</item>
//         </category>
//       </chapter>
//     </income>
//     <expenses>...</expenses>
//   </budget>
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/vaihtoehtobudjetti/budget-builder/internal/report"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string

	// RunID is written as the "run" attribute of the root element when set.
	RunID string

	// RootAttributes are additional attributes for the root element,
	// written in key order.
	RootAttributes map[string]string

	// OmitEmptyRationale leaves out <rationale/> for rows without one.
	// Default: false
	OmitEmptyRationale bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootAttributes:        make(map[string]string),
	}
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate renders the view-model as an XML document.
//
// PARAMETERS:
//   - vm: The assembled report.
//   - options: The generation options.
//
// RETURNS:
//   - The XML document as a byte slice.
//   - An error if vm is nil.
func Generate(vm *report.ViewModel, options GenerateOptions) ([]byte, error) {
	if vm == nil {
		return nil, fmt.Errorf("no report to render")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	root := buildDocument(vm, options)
	writeElement(&buffer, root, options.Indent, 0)

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

// XMLElement represents a generic XML element.
type XMLElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []XMLElement
}

// buildDocument constructs the root element.
func buildDocument(vm *report.ViewModel, options GenerateOptions) XMLElement {
	root := XMLElement{XMLName: xml.Name{Local: "budget"}}

	if options.RunID != "" {
		root.Attributes = append(root.Attributes, attr("run", options.RunID))
	}

	keys := make([]string, 0, len(options.RootAttributes))
	for key := range options.RootAttributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		root.Attributes = append(root.Attributes, attr(key, options.RootAttributes[key]))
	}

	root.Children = append(root.Children,
		buildSummaryElement(vm),
		buildSectionElement("income", vm.Income(), options),
		buildSectionElement("expenses", vm.Expenses(), options),
	)

	return root
}

// buildSummaryElement renders the headline figures.
func buildSummaryElement(vm *report.ViewModel) XMLElement {
	s := vm.Summary

	return XMLElement{
		XMLName: xml.Name{Local: "summary"},
		Children: []XMLElement{
			amountElement("incomeBaseline", s.IncomeBaseline),
			amountElement("incomeAlternative", s.IncomeAlternative),
			amountElement("incomeDifference", s.IncomeDifference),
			amountElement("expenseBaseline", s.ExpenseBaseline),
			amountElement("expenseAlternative", s.ExpenseAlternative),
			amountElement("expenseDifference", s.ExpenseDifference),
			createSimpleElement("alternativeAdditions", strconv.Itoa(s.AlternativeAdditions)),
			amountElement("tasksRemoved", s.TasksRemoved),
			amountElement("taxpayerMoneySaved", s.TaxpayerMoneySaved),
			amountElement("taxCuts", s.TaxCuts),
			amountElement("deficitReduction", s.DeficitReduction),
			percentElement("cutPercent", s.CutPercent, attr("bar", s.CutPercentBar.String())),
			percentElement("debtReductionPercent", s.DebtReductionPercent, attr("bar", s.DebtReductionPercentBar.String())),
		},
	}
}

// buildSectionElement renders the chapters of one side of the budget.
func buildSectionElement(name string, chapters []report.ChapterView, options GenerateOptions) XMLElement {
	section := XMLElement{XMLName: xml.Name{Local: name}}

	for _, ch := range chapters {
		element := nodeElement("chapter", ch.Node, options)
		element.Children = append(element.Children,
			percentElement("cutPercent", ch.CutPercent, attr("source", string(ch.CutSource))))

		for _, cat := range ch.Categories {
			catElement := nodeElement("category", cat.Node, options)
			for _, item := range cat.Items {
				catElement.Children = append(catElement.Children, nodeElement("item", item.Node, options))
			}
			element.Children = append(element.Children, catElement)
		}

		section.Children = append(section.Children, element)
	}

	return section
}

// nodeElement renders the fields shared by chapters, categories and items.
//
// STRUCTURE:
//   <chapter code="23" address="23" alternativeAddition="false">
//     <label>...</label>
//     <baseline value="...">...</baseline>
//     <alternative value="...">...</alternative>
//     <difference value="...">...</difference>
//     <rationale>...</rationale>
//     <link>...</link>
//   </chapter>
func nodeElement(name string, n report.Node, options GenerateOptions) XMLElement {
	element := XMLElement{
		XMLName: xml.Name{Local: name},
		Attributes: []xml.Attr{
			attr("code", n.Code),
			attr("address", n.Address),
			attr("alternativeAddition", strconv.FormatBool(n.AlternativeAddition)),
		},
	}
	if n.Synthesized {
		element.Attributes = append(element.Attributes, attr("synthesized", "true"))
	}

	element.Children = append(element.Children,
		createSimpleElement("label", n.Label),
		textElement("baseline", n.Baseline, n.BaselineText),
		textElement("alternative", n.Alternative, n.AlternativeText),
		textElement("difference", n.Difference, n.DifferenceText),
	)
	if n.Rationale != "" || !options.OmitEmptyRationale {
		element.Children = append(element.Children, createSimpleElement("rationale", n.Rationale))
	}
	element.Children = append(element.Children, createSimpleElement("link", n.SourceLink))

	return element
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// createSimpleElement creates a simple XML element with a text value.
func createSimpleElement(name, value string) XMLElement {
	return XMLElement{
		XMLName: xml.Name{Local: name},
		Value:   value,
	}
}

func textElement(name string, d decimal.Decimal, text string) XMLElement {
	element := createSimpleElement(name, text)
	element.Attributes = []xml.Attr{attr("value", d.String())}
	return element
}

func amountElement(name string, d decimal.Decimal) XMLElement {
	return textElement(name, d, report.FormatEuros(d))
}

func percentElement(name string, d decimal.Decimal, extra ...xml.Attr) XMLElement {
	element := textElement(name, d, report.FormatPercent(d))
	element.Attributes = append(element.Attributes, extra...)
	return element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, element XMLElement, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)

	for _, a := range element.Attributes {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", a.Name.Local, escapeXML(a.Value)))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(element.Children) == 0 {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}

		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML. Control characters that
// XML 1.0 cannot represent are dropped.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\t', '\n', '\r':
			buffer.WriteRune(r)
		default:
			if r < 0x20 {
				continue
			}
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
