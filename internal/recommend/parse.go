package recommend

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/tphakala/soilplanner/internal/errors"
)

const (
	fenceOpen  = "```json"
	fenceClose = "```"

	rateUnitSuffix = " metric tons per hectare per year"
)

// Plant is one recommended plant. Order follows the model's reply.
type Plant struct {
	Name                 string `json:"name"`
	ScientificName       string `json:"scientific_name"`
	CarbonAbsorptionRate string `json:"carbon_absorption_rate"`
}

// ParseError reports model output that is not a flat JSON list of plant
// objects.
type ParseError struct {
	Detail string
	Raw    string
}

func (e *ParseError) Error() string {
	return "Error parsing recommendations: " + e.Detail
}

// ErrorCategory implements errors.CategorizedError
func (e *ParseError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryFileParsing
}

// StripFences removes a leading ```json and a trailing ``` when present,
// trimming whitespace after each removal.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if rest, ok := strings.CutPrefix(text, fenceOpen); ok {
		text = strings.TrimSpace(rest)
	}
	if rest, ok := strings.CutSuffix(text, fenceClose); ok {
		text = strings.TrimSpace(rest)
	}
	return text
}

// Parse decodes a flat JSON array of plant records. Records without a name
// are skipped and counted in dropped. A missing scientific_name becomes "",
// and a numeric carbon_absorption_rate is rendered with its unit using the
// number exactly as the model wrote it.
func Parse(text string) (plants []Plant, dropped int, err error) {
	if !gjson.Valid(text) {
		return nil, 0, &ParseError{Detail: "invalid JSON", Raw: text}
	}

	root := gjson.Parse(text)
	if !root.IsArray() {
		return nil, 0, &ParseError{Detail: "expected a JSON list of plants, got " + kind(root), Raw: text}
	}

	plants = []Plant{}
	var elemErr error
	root.ForEach(func(_, elem gjson.Result) bool {
		if !elem.IsObject() {
			elemErr = &ParseError{Detail: "list element is " + kind(elem) + ", not an object", Raw: text}
			return false
		}

		name := strings.TrimSpace(elem.Get("name").String())
		if name == "" {
			dropped++
			return true
		}

		plants = append(plants, Plant{
			Name:                 name,
			ScientificName:       elem.Get("scientific_name").String(),
			CarbonAbsorptionRate: rate(elem.Get("carbon_absorption_rate")),
		})
		return true
	})
	if elemErr != nil {
		return nil, 0, elemErr
	}
	return plants, dropped, nil
}

func rate(v gjson.Result) string {
	switch v.Type {
	case gjson.Number:
		return formatNumber(v) + rateUnitSuffix
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	default:
		return v.Raw
	}
}

// formatNumber normalises a JSON number: integers print bare, fractional
// literals keep at least one decimal ("2.50" -> "2.5", "1e2" -> "100.0").
func formatNumber(v gjson.Result) string {
	s := strconv.FormatFloat(v.Num, 'f', -1, 64)
	if strings.ContainsAny(v.Raw, ".eE") && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func kind(v gjson.Result) string {
	switch {
	case v.IsObject():
		return "an object"
	case v.IsArray():
		return "a list"
	}
	switch v.Type {
	case gjson.String:
		return "a string"
	case gjson.Number:
		return "a number"
	case gjson.True, gjson.False:
		return "a boolean"
	default:
		return "null"
	}
}
